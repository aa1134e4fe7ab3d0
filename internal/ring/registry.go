package ring

import (
	"fmt"
	"sync"
)

// Registry is a process-wide, name-keyed set of rings: created if absent,
// looked up if already present, so co-located cores (a capture core and
// the worker cores that share its socket) agree on ring identity without
// a side channel.
type Registry struct {
	mu    sync.Mutex
	rings map[string]*Ring
}

// NewRegistry returns an empty ring registry.
func NewRegistry() *Registry {
	return &Registry{rings: make(map[string]*Ring)}
}

// LookupOrCreate returns the named ring, creating it with the given size if
// it does not already exist.
func (reg *Registry) LookupOrCreate(name string, size int) *Ring {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.rings[name]; ok {
		return r
	}
	r := New(size)
	reg.rings[name] = r
	return r
}

// DownstreamRingName derives the name of downstream ring `index` served by
// core `coreName` on socket `socketID`.
func DownstreamRingName(coreName string, socketID, index int) string {
	return fmt.Sprintf("%s_%d_%d", coreName, socketID, index)
}

// ClearRingName derives the CLEAR ring name for socket `socketID`.
func ClearRingName(socketID int) string {
	return fmt.Sprintf("clear_%d", socketID)
}
