//go:build linux

package endpoint

// Callbacks is the capability set a Service exposes to the engine: init,
// recv, exit. Spec.md §9 leaves the representation immaterial provided
// dispatch is allocation-free on the hot path; an interface with three
// methods satisfies that directly (no boxing beyond the concrete type
// already stored in Service.Callbacks).
//
// A Service may leave Callbacks nil, meaning none of the three hooks apply
// (spec.md §3: "optional init/recv/exit callbacks"). The engine checks for
// nil before calling.
type Callbacks interface {
	// Init is called after the socket is bound and multicast (if any) is
	// joined. A non-nil return closes the socket and fails the Endpoint.
	Init(ep *Endpoint) error

	// Recv is called when the socket is readable. It must consume the data
	// currently queued and return promptly. A non-nil return is treated as
	// a recoverable socket error and triggers restart-in-place.
	Recv(ep *Endpoint) error

	// Exit is called during teardown, before multicast membership is
	// dropped and before the socket is closed.
	Exit(ep *Endpoint)
}

// NopCallbacks supplies no-op Init and Exit methods. It has no Recv, so it
// does not satisfy Callbacks on its own; a type that embeds it and adds a
// Recv method does.
type NopCallbacks struct{}

func (NopCallbacks) Init(*Endpoint) error { return nil }
func (NopCallbacks) Exit(*Endpoint)       {}
