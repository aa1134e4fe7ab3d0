package protocol

import "sync"

// CaptureRefRegistry resolves an opaque capture-core handle by socket ID,
// replacing a raw back-pointer from the protocol decoder to the
// capture-core controller with a registry keyed by socket id. The decoder
// package stays free of any import on the controller package; callers
// inject and resolve an opaque handle (normally a *capture.Core, but
// protocol never needs to know that).
type CaptureRefRegistry struct {
	mu   sync.RWMutex
	refs map[int]interface{}
}

// NewCaptureRefRegistry returns an empty registry.
func NewCaptureRefRegistry() *CaptureRefRegistry {
	return &CaptureRefRegistry{refs: make(map[int]interface{})}
}

// Set injects the capture-core handle for socketID.
func (r *CaptureRefRegistry) Set(socketID int, ref interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs[socketID] = ref
}

// Get resolves the capture-core handle for socketID, if one has been
// injected.
func (r *CaptureRefRegistry) Get(socketID int) (interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.refs[socketID]
	return ref, ok
}
