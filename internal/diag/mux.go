package diag

import (
	"net/http"
	"strconv"

	"goji.io"
	"goji.io/pat"

	"github.com/stfc-aeg/odin-orca-quest/internal/protocol"
)

// Snapshotter is the capture-core side of an on-demand FITS dump: anything
// registered in a CaptureRefRegistry under a socket id that can hand back a
// copy of its last dispatched frame.
type Snapshotter interface {
	Snapshot() ([]byte, bool)
}

// Core is the debug HTTP surface resolving a socket id to a registered
// capture core through a CaptureRefRegistry and dumping its last frame as a
// FITS file.
type Core struct {
	Refs *protocol.CaptureRefRegistry
}

// New returns a debug core resolving capture cores through refs.
func New(refs *protocol.CaptureRefRegistry) *Core {
	return &Core{Refs: refs}
}

// Mux returns a goji mux serving GET /snapshot/:socket.
func (c *Core) Mux() *goji.Mux {
	mux := goji.NewMux()
	mux.HandleFunc(pat.Get("/snapshot/:socket"), c.handleSnapshot)
	return mux
}

func (c *Core) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	socketID, err := strconv.Atoi(pat.Param(r, "socket"))
	if err != nil {
		http.Error(w, "invalid socket id", http.StatusBadRequest)
		return
	}

	ref, ok := c.Refs.Get(socketID)
	if !ok {
		http.Error(w, "no capture core registered for socket", http.StatusNotFound)
		return
	}
	snapper, ok := ref.(Snapshotter)
	if !ok {
		http.Error(w, "registered capture core cannot snapshot", http.StatusInternalServerError)
		return
	}
	buf, ok := snapper.Snapshot()
	if !ok {
		http.Error(w, "no frame captured yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/fits")
	if err := SnapshotFITS(w, buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
