package camera

import (
	"encoding/json"
	"net/http"

	"goji.io"
	"goji.io/pat"

	"github.com/stfc-aeg/odin-orca-quest/internal/config"
)

// HTTPWrapper exposes a Camera's configuration-relevant properties over
// HTTP, one route per symbolic feature name, generalizing per-feature
// routing to config.CameraOwnedFields instead of a vendor feature table,
// since CameraOwnedFields already names the closed set of properties a
// camera can be asked to honour.
type HTTPWrapper struct {
	Cam Camera

	// Snapshot returns the current value of a named property, for GET
	// responses; the camera interface itself has no named getter (only
	// GetProperty by vendor-specific numeric id), so the caller supplies
	// one backed by its own configuration record.
	Snapshot func(name string) (interface{}, bool)
}

// NewHTTPWrapper returns an HTTP wrapper around cam, reading values back
// via snapshot.
func NewHTTPWrapper(cam Camera, snapshot func(name string) (interface{}, bool)) HTTPWrapper {
	return HTTPWrapper{Cam: cam, Snapshot: snapshot}
}

// Mux returns a goji mux serving GET/POST /property/:property.
func (h HTTPWrapper) Mux() *goji.Mux {
	mux := goji.NewMux()
	mux.HandleFunc(pat.Get("/property/:property"), h.getProperty)
	mux.HandleFunc(pat.Post("/property/:property"), h.setProperty)
	return mux
}

func (h HTTPWrapper) getProperty(w http.ResponseWriter, r *http.Request) {
	name := pat.Param(r, "property")
	if !isOwnedField(name) {
		http.Error(w, "unknown property: "+name, http.StatusBadRequest)
		return
	}
	value, ok := h.Snapshot(name)
	if !ok {
		http.Error(w, "unknown property: "+name, http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"property": name, "value": value})
}

func (h HTTPWrapper) setProperty(w http.ResponseWriter, r *http.Request) {
	name := pat.Param(r, "property")
	if !isOwnedField(name) {
		http.Error(w, "unknown property: "+name, http.StatusBadRequest)
		return
	}
	var body struct {
		Value interface{} `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	if !h.Cam.SetProperty(name, body.Value) {
		http.Error(w, "camera rejected property "+name, http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func isOwnedField(name string) bool {
	for _, f := range config.CameraOwnedFields {
		if f == name {
			return true
		}
	}
	return false
}
