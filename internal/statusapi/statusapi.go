// Package statusapi is the ambient HTTP surface the original process
// exposes alongside its ZeroMQ control channel: status/configuration
// introspection and the capture loop's polling interval, routed with
// goji.io the way cmd/lowfssrv/main.go and andor/sdk3/http.go route their
// own meta-routes ("/interval", "/feature") rather than go-chi, which this
// module reserves for the live-view surface (DOMAIN STACK
// entry for goji.io).
package statusapi

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"goji.io"
	"goji.io/pat"

	"github.com/stfc-aeg/odin-orca-quest/internal/controller"
	"github.com/stfc-aeg/odin-orca-quest/internal/ipc"
)

// intervalGetter/intervalSetter let statusapi expose a pctl.PhaseLock's
// Interval field without importing the capture package directly (which
// would otherwise need to import statusapi back for its own routes --
// this keeps the dependency one-directional).
type intervalGetter func() time.Duration
type intervalSetter func(time.Duration)

// Core is the status/config/interval HTTP surface for one controller.
type Core struct {
	Controller *controller.Controller

	GetCaptureInterval intervalGetter
	SetCaptureInterval intervalSetter

	Logger *log.Logger
}

// New returns a status API core for ctrl. getInterval/setInterval may be
// nil if this process has no capture core to expose an interval for.
func New(ctrl *controller.Controller, getInterval intervalGetter, setInterval intervalSetter, logger *log.Logger) *Core {
	if logger == nil {
		logger = log.Default()
	}
	return &Core{Controller: ctrl, GetCaptureInterval: getInterval, SetCaptureInterval: setInterval, Logger: logger}
}

// Mux returns this core's goji.io mux, ready to ListenAndServe.
func (c *Core) Mux() *goji.Mux {
	mux := goji.NewMux()
	mux.HandleFunc(pat.Get("/status"), c.handleStatus)
	mux.HandleFunc(pat.Get("/configuration"), c.handleConfiguration)
	mux.HandleFunc(pat.Get("/capture/interval"), c.handleGetInterval)
	mux.HandleFunc(pat.Post("/capture/interval"), c.handleSetInterval)
	return mux
}

func (c *Core) handleStatus(w http.ResponseWriter, r *http.Request) {
	reply := ipc.Message{Params: map[string]interface{}{}}
	c.Controller.GetStatus(&reply)
	writeJSON(w, reply.Params["status"])
}

func (c *Core) handleConfiguration(w http.ResponseWriter, r *http.Request) {
	reply := ipc.Message{Params: map[string]interface{}{}}
	c.Controller.RequestConfiguration(&reply)
	writeJSON(w, reply.Params["camera"])
}

func (c *Core) handleGetInterval(w http.ResponseWriter, r *http.Request) {
	if c.GetCaptureInterval == nil {
		http.Error(w, "no capture core attached", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"interval": c.GetCaptureInterval().String()})
}

func (c *Core) handleSetInterval(w http.ResponseWriter, r *http.Request) {
	if c.SetCaptureInterval == nil {
		http.Error(w, "no capture core attached", http.StatusNotFound)
		return
	}
	var body struct {
		Interval string `json:"interval"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	dur, err := time.ParseDuration(body.Interval)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c.SetCaptureInterval(dur)
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
