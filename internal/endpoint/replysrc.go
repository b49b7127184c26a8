//go:build linux

package endpoint

import (
	"errors"
	"net"
)

// ErrAddressUnavailable is returned when no local interface address is
// on-link with the remote address (spec.md §4.8, §8).
var ErrAddressUnavailable = errors.New("address unavailable")

// ReplySource resolves which local interface address to reply from for a
// datagram received from remote, optionally constrained to onlyIfIndex (0
// means unconstrained). It is side-effect-free and safe to call from any
// Recv callback (spec.md §4.8).
func ReplySource(remote net.IP, onlyIfIndex int) (net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	v4 := remote.To4() != nil

	for _, ifi := range ifaces {
		if onlyIfIndex != 0 && ifi.Index != onlyIfIndex {
			continue
		}
		addrs, err := ifi.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			candidateV4 := ipNet.IP.To4() != nil
			if candidateV4 != v4 {
				continue
			}
			if onLink(ipNet, remote) {
				return ipNet.IP, nil
			}
		}
	}
	return nil, ErrAddressUnavailable
}

// onLink reports whether remote shares ipNet's network prefix:
// (addr & mask) == (remote & mask).
func onLink(ipNet *net.IPNet, remote net.IP) bool {
	addr := ipNet.IP
	mask := ipNet.Mask
	if addr.To4() != nil {
		addr = addr.To4()
	}
	r := remote
	if r.To4() != nil && addr.To4() != nil {
		r = r.To4()
	}
	if len(addr) != len(mask) || len(addr) != len(r) {
		return false
	}
	for i := range addr {
		if addr[i]&mask[i] != r[i]&mask[i] {
			return false
		}
	}
	return true
}
