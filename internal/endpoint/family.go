//go:build linux

// Package endpoint implements the network endpoint engine: interface
// selection, socket construction, the readiness loop, the netlink link
// monitor, and the supervisor that ties them together. The engine is
// Linux-only: it depends directly on AF_NETLINK and the rtnetlink message
// family for the Link Monitor.
package endpoint

import "golang.org/x/sys/unix"

// Family is the address-family tag carried by a Service and an Endpoint.
type Family uint8

const (
	FamilyIPv4 Family = iota
	FamilyIPv6
	FamilyNetlink
)

func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	case FamilyNetlink:
		return "netlink"
	default:
		return "unknown"
	}
}

// FamilyProfile is the static per-family table of socket-level constants and
// structure sizes the Endpoint Builder needs to hand the kernel. It is a
// plain value, not a class hierarchy; callers branch explicitly on Family at
// the handful of points IPv4 and IPv6 actually differ.
type FamilyProfile struct {
	Family    Family
	Name      string
	SockFam   int // unix.AF_INET / unix.AF_INET6 / unix.AF_NETLINK
	IPProto   int // IPPROTO_IP / IPPROTO_IPV6, meaningless for netlink
	BindLen   int // length of the bind sockaddr, informational
	ReqLen    int // length of the membership-request structure, informational
}

// profiles is the immutable family table. Any family not present here is
// unsupported, per spec: the Endpoint Builder rejects it with
// ErrUnsupportedFamily.
var profiles = map[Family]FamilyProfile{
	FamilyIPv4: {
		Family:  FamilyIPv4,
		Name:    "IPv4",
		SockFam: unix.AF_INET,
		IPProto: unix.IPPROTO_IP,
		BindLen: 16, // sizeof(struct sockaddr_in)
		ReqLen:  8,  // sizeof(struct ip_mreq)
	},
	FamilyIPv6: {
		Family:  FamilyIPv6,
		Name:    "IPv6",
		SockFam: unix.AF_INET6,
		IPProto: unix.IPPROTO_IPV6,
		BindLen: 28, // sizeof(struct sockaddr_in6)
		ReqLen:  20, // sizeof(struct ipv6_mreq)
	},
	FamilyNetlink: {
		Family:  FamilyNetlink,
		Name:    "NETLINK",
		SockFam: unix.AF_NETLINK,
		BindLen: 12, // sizeof(struct sockaddr_nl)
	},
}

// Profile looks up the Socket Family Profile for family. The bool result is
// false when the family is outside the supported set.
func Profile(family Family) (FamilyProfile, bool) {
	p, ok := profiles[family]
	return p, ok
}
