//go:build linux

package endpoint

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"syscall"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
	"golang.org/x/sys/unix"
)

// Builder constructs Endpoints from (Service, Candidate) pairs, per
// spec.md §4.4.
type Builder struct {
	log *slog.Logger
}

// NewBuilder returns a Builder that logs to logger (log/slog, matching the
// teacher's injected-logger convention). A nil logger falls back to
// slog.Default(), the same guard the teacher's agent.New uses.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{log: logger.With("component", "endpoint-builder")}
}

// Build implements the §4.4 algorithm. It returns no Go error: every
// failure mode is recorded on the returned Endpoint (possibly with
// ep.fd == -1, meaning "no socket, nothing to tear down").
func (b *Builder) Build(svc *Service, cand Candidate, cfg SelectorConfig) *Endpoint {
	ep := &Endpoint{Service: svc, IfName: cand.IfName, fd: -1}

	profile, ok := Profile(svc.Family)
	if !ok {
		ep.err = &EndpointError{Kind: ErrUnsupportedFamily}
		ep.terminal = svc.Family == FamilyNetlink
		return ep
	}

	if svc.Family == FamilyNetlink {
		return b.buildNetlink(ep, svc, profile)
	}
	return b.buildIP(ep, svc, cand, profile)
}

func (b *Builder) buildIP(ep *Endpoint, svc *Service, cand Candidate, profile FamilyProfile) *Endpoint {
	port, err := resolvePort(svc)
	if err != nil {
		ep.err = &EndpointError{Kind: ErrNoPort, Err: err}
		return ep
	}
	ep.Port = port

	var mcastIP net.IP
	if svc.MulticastGroup != "" {
		mcastIP = net.ParseIP(svc.MulticastGroup)
		if mcastIP == nil {
			ep.err = &EndpointError{Kind: ErrBadMulticastAddr}
			return ep
		}
		ep.McastAddr = mcastIP
	}

	fd, err := unix.Socket(profile.SockFam, sockType(svc.Type)|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		ep.err = &EndpointError{Kind: ErrSocketOpen, Err: err}
		return ep
	}

	setReuse(fd)

	if svc.Family == FamilyIPv6 {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 1); err != nil {
			unix.Close(fd)
			ep.err = &EndpointError{Kind: &SockOptError{Which: "IPV6_V6ONLY", Err: err}}
			return ep
		}
	}

	if svc.MulticastGroup == "" {
		if err := unix.BindToDevice(fd, cand.IfName); err != nil {
			unix.Close(fd)
			ep.err = &EndpointError{Kind: &SockOptError{Which: "SO_BINDTODEVICE", Err: err}}
			return ep
		}
	}

	if err := bindWildcard(fd, profile.SockFam, port); err != nil {
		unix.Close(fd)
		if errors.Is(err, unix.EADDRINUSE) {
			b.log.Debug("bind in use, skipping endpoint", "service", svc.Name, "iface", cand.IfName)
			ep.fd = -1
			return ep
		}
		ep.err = &EndpointError{Kind: ErrBind, Err: err}
		return ep
	}

	name := fmt.Sprintf("%s@%s", svc.Name, cand.IfName)
	file := os.NewFile(uintptr(fd), name)

	if svc.Type == SocketStream {
		if err := unix.Listen(fd, 5); err != nil {
			file.Close()
			ep.err = &EndpointError{Kind: ErrListen, Err: err}
			return ep
		}
		ln, err := net.FileListener(file)
		file.Close()
		if err != nil {
			ep.err = &EndpointError{Kind: ErrListen, Err: err}
			return ep
		}
		ep.conn = ln
		ep.LocalAddr = ln.Addr()
	} else {
		pc, err := net.FilePacketConn(file)
		file.Close()
		if err != nil {
			ep.err = &EndpointError{Kind: ErrSocketOpen, Err: err}
			return ep
		}
		ep.conn = pc
		ep.LocalAddr = pc.LocalAddr()

		if mcastIP != nil {
			ifi, _ := net.InterfaceByName(cand.IfName)
			if err := joinMulticast(ep, svc.Family, pc, ifi, mcastIP); err != nil {
				pc.Close()
				ep.conn = nil
				ep.err = &EndpointError{Kind: err}
				return ep
			}
		}
	}

	if svc.Callbacks != nil {
		if err := svc.Callbacks.Init(ep); err != nil {
			b.closeConn(ep)
			ep.err = &EndpointError{Kind: ErrServiceInit, Err: err}
			return ep
		}
	}

	ep.fd = extractFD(ep.conn)
	return ep
}

// joinMulticast performs spec.md §4.4 step 12: enable packet-info for IPv4,
// set the multicast send interface, disable loopback, join the group. This
// is golang.org/x/net/ipv4 and /ipv6's idiomatic replacement for hand-rolled
// IP_PKTINFO/IP_MULTICAST_IF/IP_MULTICAST_LOOP/IP_ADD_MEMBERSHIP setsockopt
// calls.
func joinMulticast(ep *Endpoint, family Family, pc net.PacketConn, ifi *net.Interface, group net.IP) error {
	switch family {
	case FamilyIPv4:
		p := ipv4.NewPacketConn(pc)
		if err := p.SetControlMessage(ipv4.FlagDst|ipv4.FlagInterface, true); err != nil {
			return &SockOptError{Which: "IP_PKTINFO", Err: err}
		}
		if ifi != nil {
			if err := p.SetMulticastInterface(ifi); err != nil {
				return &SockOptError{Which: "IP_MULTICAST_IF", Err: err}
			}
		}
		if err := p.SetMulticastLoopback(false); err != nil {
			return &SockOptError{Which: "IP_MULTICAST_LOOP", Err: err}
		}
		if err := p.JoinGroup(ifi, &net.UDPAddr{IP: group}); err != nil {
			return &SockOptError{Which: "IP_ADD_MEMBERSHIP", Err: err}
		}
		ep.mcast4 = p
	case FamilyIPv6:
		p := ipv6.NewPacketConn(pc)
		if err := p.SetControlMessage(ipv6.FlagDst|ipv6.FlagInterface, true); err != nil {
			return &SockOptError{Which: "IPV6_PKTINFO", Err: err}
		}
		if ifi != nil {
			if err := p.SetMulticastInterface(ifi); err != nil {
				return &SockOptError{Which: "IPV6_MULTICAST_IF", Err: err}
			}
		}
		if err := p.SetMulticastLoopback(false); err != nil {
			return &SockOptError{Which: "IPV6_MULTICAST_LOOP", Err: err}
		}
		if err := p.JoinGroup(ifi, &net.UDPAddr{IP: group}); err != nil {
			return &SockOptError{Which: "IPV6_ADD_MEMBERSHIP", Err: err}
		}
		ep.mcast6 = p
	}
	return nil
}

func (b *Builder) closeConn(ep *Endpoint) {
	if c, ok := ep.conn.(interface{ Close() error }); ok {
		c.Close()
	}
	ep.conn = nil
}

// resolvePort implements spec.md §4.1: look the service up in the host's
// service-name database via (PortName, transport) first, fall back to
// DefaultPort, reject with ErrNoPort if neither resolves. net.LookupPort is
// the stdlib's direct equivalent of getservbyname(3) — there is no
// third-party library in the pack for service-name resolution, so this is
// one of the few places the engine reaches for the standard library; see
// DESIGN.md.
func resolvePort(svc *Service) (int, error) {
	if port, err := net.LookupPort(svc.Type.String(), svc.PortName); err == nil && port != 0 {
		return port, nil
	}
	if svc.DefaultPort != 0 {
		return svc.DefaultPort, nil
	}
	return 0, fmt.Errorf("%s/%s: %w", svc.PortName, svc.Type, ErrNoPort)
}

func sockType(t SocketType) int {
	switch t {
	case SocketStream:
		return unix.SOCK_STREAM
	default:
		return unix.SOCK_DGRAM
	}
}

func setReuse(fd int) {
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
}

func bindWildcard(fd, sockFam, port int) error {
	switch sockFam {
	case unix.AF_INET:
		return unix.Bind(fd, &unix.SockaddrInet4{Port: port})
	case unix.AF_INET6:
		return unix.Bind(fd, &unix.SockaddrInet6{Port: port})
	default:
		return syscall.EAFNOSUPPORT
	}
}

// extractFD recovers the raw, poll()-able descriptor behind a net.Conn-ish
// value, for the Readiness Loop's single poll() call. Works for both
// net.PacketConn and net.Listener since both satisfy syscall.Conn on every
// platform this engine targets.
func extractFD(conn any) int {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return -1
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return -1
	}
	fd := -1
	_ = raw.Control(func(ptr uintptr) {
		fd = int(ptr)
	})
	return fd
}
