//go:build linux

package endpoint

import (
	"net"

	"golang.org/x/sys/unix"
)

func ifIndexToName(index uint32) (string, error) {
	ifi, err := net.InterfaceByIndex(int(index))
	if err != nil {
		return "", err
	}
	return ifi.Name, nil
}

// buildNetlink implements spec.md §4.4 steps for the kernel-link family:
// open an AF_NETLINK socket, best-effort raise its receive buffer via the
// privileged SO_RCVBUFFORCE path (a failure there is a warning, never
// fatal), bind it to the service's declared group mask. Any failure here is
// Process-fatal: the netlink Endpoint is the only one the Builder marks
// Terminal, per spec.md §4.7/§9.
func (b *Builder) buildNetlink(ep *Endpoint, svc *Service, profile FamilyProfile) *Endpoint {
	fd, err := unix.Socket(profile.SockFam, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.NETLINK_ROUTE)
	if err != nil {
		ep.err = &EndpointError{Kind: ErrSocketOpen, Err: err}
		ep.terminal = true
		return ep
	}

	setReuse(fd)

	const forcedRcvBuf = 128 * 1024
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUFFORCE, forcedRcvBuf); err != nil {
		b.log.Warn("SO_RCVBUFFORCE failed, continuing with default buffer", "error", err)
	}

	if err := unix.Bind(fd, &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: svc.NetlinkGroups}); err != nil {
		unix.Close(fd)
		ep.err = &EndpointError{Kind: ErrBind, Err: err}
		ep.terminal = true
		return ep
	}

	if svc.Callbacks != nil {
		ep.fd = fd
		if err := svc.Callbacks.Init(ep); err != nil {
			unix.Close(fd)
			ep.fd = -1
			ep.err = &EndpointError{Kind: ErrServiceInit, Err: err}
			ep.terminal = true
			return ep
		}
	}

	ep.fd = fd
	return ep
}
