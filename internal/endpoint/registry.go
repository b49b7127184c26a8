//go:build linux

package endpoint

// Registry owns the live set of Endpoints. It is mutated only by the
// Supervisor between the Building and TearingDown phases; Recv callbacks
// read Endpoints but never the Registry itself (spec.md §5).
type Registry struct {
	endpoints []*Endpoint
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry { return &Registry{} }

// Add registers an open Endpoint. Callers must not Add an Endpoint whose
// Open() is false; the Builder returns those for the caller to discard.
func (r *Registry) Add(ep *Endpoint) { r.endpoints = append(r.endpoints, ep) }

// Endpoints returns the registry's Endpoints in registration order — the
// same order the Readiness Loop dispatches ready sockets in within one
// wakeup (spec.md §4.5).
func (r *Registry) Endpoints() []*Endpoint { return r.endpoints }

// Len reports how many Endpoints are registered.
func (r *Registry) Len() int { return len(r.endpoints) }

// Clear empties the registry. It does not close sockets; callers must tear
// down each Endpoint first.
func (r *Registry) Clear() { r.endpoints = nil }
