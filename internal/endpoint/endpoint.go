//go:build linux

package endpoint

import (
	"net"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// Endpoint is one running instance of a Service bound to one interface and
// one local address (spec.md §3). It is created by the Endpoint Builder,
// owned by the Endpoint Registry, and destroyed at teardown.
//
// Invariant: Endpoint.fd is open (>= 0) iff the Endpoint is registered in
// the Registry.
type Endpoint struct {
	Service *Service
	IfName  string

	Port int // resolved port, 0 for the netlink endpoint

	// Local/McastAddr record the addresses the Endpoint bound to / joined,
	// for introspection and for the round-trip/invariant tests; they do not
	// drive further syscalls once the Endpoint is built.
	LocalAddr  net.Addr
	McastAddr  net.IP

	// conn is the net.Conn-shaped handle for IP endpoints: net.PacketConn
	// for datagram services, net.Listener for stream services. nil for the
	// netlink endpoint, which only ever uses fd directly.
	conn any

	// mcast4/mcast6 are set only when Service.MulticastGroup is non-empty;
	// they provide the membership/loopback/packet-info operations used at
	// build time and are kept afterward so Exit callbacks (if any) and
	// teardown can drop membership via the same handle.
	mcast4 *ipv4.PacketConn
	mcast6 *ipv6.PacketConn

	// fd is the raw, poll()-able file descriptor backing this Endpoint.
	// Negative means the Endpoint carries no open socket (the
	// discoverable-skip case, or a not-yet-built Endpoint).
	fd int

	// State is an opaque per-service slot populated by Service.Callbacks.Init
	// and read back by Recv/Exit. The engine never interprets it.
	State any

	err      *EndpointError
	terminal bool // Process-fatal marker; only the netlink path sets this.
}

// Err returns the error recorded on this Endpoint, or nil if none.
func (e *Endpoint) Err() *EndpointError { return e.err }

// Terminal reports whether this Endpoint's failure is Process-fatal, i.e.
// the Supervisor must tear down every live Endpoint and exit rather than
// merely drop this one.
func (e *Endpoint) Terminal() bool { return e.terminal }

// Open reports whether this Endpoint owns a live socket.
func (e *Endpoint) Open() bool { return e.fd >= 0 }

// FD returns the raw file descriptor for use in the Readiness Loop's
// poll set. Only valid when Open() is true.
func (e *Endpoint) FD() int { return e.fd }

// PacketConn returns the net.PacketConn backing a datagram Endpoint, or nil.
func (e *Endpoint) PacketConn() net.PacketConn {
	pc, _ := e.conn.(net.PacketConn)
	return pc
}

// Listener returns the net.Listener backing a stream Endpoint, or nil.
func (e *Endpoint) Listener() net.Listener {
	l, _ := e.conn.(net.Listener)
	return l
}
