//go:build linux

package endpoint

import "errors"

// Error kinds returned by the Endpoint Builder, per spec.md §4.4's error
// taxonomy. Process-fatal vs Endpoint-fatal is decided by the Supervisor,
// not encoded in the kind itself — the Builder marks Process-fatal errors by
// setting Endpoint.Terminal, which only the netlink link-monitor path does.
var (
	ErrUnsupportedFamily  = errors.New("unsupported address family")
	ErrNoPort             = errors.New("no port number")
	ErrBadMulticastAddr   = errors.New("bad multicast address")
	ErrSocketOpen         = errors.New("can't open socket")
	ErrBind               = errors.New("bind")
	ErrListen             = errors.New("listen")
	ErrServiceInit        = errors.New("service init")
)

// SockOptError names the specific setsockopt/operation that failed, as
// spec.md's "SockOpt(<which>)" kind requires.
type SockOptError struct {
	Which string
	Err   error
}

func (e *SockOptError) Error() string { return "sockopt " + e.Which + ": " + e.Err.Error() }
func (e *SockOptError) Unwrap() error { return e.Err }

// EndpointError is the error slot carried on an Endpoint. Kind is one of the
// sentinels above (or a *SockOptError), Err is the underlying OS error.
type EndpointError struct {
	Kind error
	Err  error
}

func (e *EndpointError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *EndpointError) Unwrap() error { return e.Kind }
