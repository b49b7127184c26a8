//go:build linux

package endpoint

// SocketType is the socket-type tag of a Service.
type SocketType uint8

const (
	SocketDatagram SocketType = iota
	SocketStream
	SocketRaw
)

func (t SocketType) String() string {
	switch t {
	case SocketDatagram:
		return "udp"
	case SocketStream:
		return "tcp"
	default:
		return "raw"
	}
}

// Service is the immutable, process-lifetime description of one service the
// daemon can offer, per spec.md §3.
type Service struct {
	Name string

	Family Family
	Type   SocketType

	// PortName/DefaultPort resolve a port per spec.md §4.1: PortName is
	// looked up against the host's service-name database first, keyed by
	// (PortName, Type.String()); on miss, DefaultPort is used; if both are
	// empty/zero the service is rejected with ErrNoPort.
	PortName    string
	DefaultPort int

	// MulticastGroup is the group's literal IP address, empty if this
	// service is unicast-only.
	MulticastGroup string

	// NetlinkGroups is the RTMGRP_* bitmask this service subscribes to.
	// Only meaningful for FamilyNetlink.
	NetlinkGroups uint32

	Callbacks Callbacks
}

// Category flags let the cmd-line filters narrow the catalog without the
// Service itself knowing about CLI concerns.
type Category uint8

const (
	CategoryWSDD Category = 1 << iota
	CategoryLLMNR
)

// Category maps each Service by name to the protocol category it belongs
// to, for the "-l"/"-w" CLI filters. The netlink service belongs to neither
// (it is never filtered by protocol, matching wsdd2.c's service-name
// substring check which simply never matches "llmnr" or "wsdd" on it).
func (s *Service) Category() Category {
	switch {
	case s.Family == FamilyNetlink:
		return 0
	case isWSDD(s.Name):
		return CategoryWSDD
	default:
		return CategoryLLMNR
	}
}

func isWSDD(name string) bool {
	for i := 0; i+4 <= len(name); i++ {
		if name[i:i+4] == "wsdd" {
			return true
		}
	}
	return false
}

// Catalog builds the default Service Descriptor table (spec.md §4.1). wsdd
// and llmnr are the Callbacks implementations supplied by the out-of-core
// protocol packages (internal/wsdd, internal/llmnr); netlinkCB is the
// Link Monitor's own Callbacks, built by NewLinkMonitor.
func Catalog(wsddCB, llmnrCB Callbacks, netlinkCB Callbacks, netlinkGroups uint32) []Service {
	return []Service{
		{
			Name:           "wsdd-mcast-v4",
			Family:         FamilyIPv4,
			Type:           SocketDatagram,
			PortName:       "wsdd",
			DefaultPort:    3702,
			MulticastGroup: "239.255.255.250",
			Callbacks:      wsddCB,
		},
		{
			Name:           "wsdd-mcast-v6",
			Family:         FamilyIPv6,
			Type:           SocketDatagram,
			PortName:       "wsdd",
			DefaultPort:    3702,
			MulticastGroup: "ff02::c",
			Callbacks:      wsddCB,
		},
		{
			Name:        "wsdd-tcp-v4",
			Family:      FamilyIPv4,
			Type:        SocketStream,
			PortName:    "wsdd",
			DefaultPort: 3702,
			Callbacks:   wsddCB,
		},
		{
			Name:        "wsdd-tcp-v6",
			Family:      FamilyIPv6,
			Type:        SocketStream,
			PortName:    "wsdd",
			DefaultPort: 3702,
			Callbacks:   wsddCB,
		},
		{
			Name:           "llmnr-mcast-v4",
			Family:         FamilyIPv4,
			Type:           SocketDatagram,
			PortName:       "llmnr",
			DefaultPort:    5355,
			MulticastGroup: "224.0.0.252",
			Callbacks:      llmnrCB,
		},
		{
			Name:           "llmnr-mcast-v6",
			Family:         FamilyIPv6,
			Type:           SocketDatagram,
			PortName:       "llmnr",
			DefaultPort:    5355,
			MulticastGroup: "ff02::1:3",
			Callbacks:      llmnrCB,
		},
		{
			Name:        "llmnr-tcp-v4",
			Family:      FamilyIPv4,
			Type:        SocketStream,
			PortName:    "llmnr",
			DefaultPort: 5355,
			Callbacks:   llmnrCB,
		},
		{
			Name:        "llmnr-tcp-v6",
			Family:      FamilyIPv6,
			Type:        SocketStream,
			PortName:    "llmnr",
			DefaultPort: 5355,
			Callbacks:   llmnrCB,
		},
		{
			Name:          "ifaddr-netlink-v4v6",
			Family:        FamilyNetlink,
			Type:          SocketRaw,
			NetlinkGroups: netlinkGroups,
			Callbacks:     netlinkCB,
		},
	}
}
