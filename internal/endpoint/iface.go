//go:build linux

package endpoint

import (
	"net"
	"os"
	"strings"
)

// excludedNames and excludedPrefixes are the hard-excluded interface names
// from spec.md §4.3(4): never eligible regardless of other flags.
var (
	excludedNames    = map[string]bool{"LeafNets": true}
	excludedPrefixes = []string{"docker", "veth", "tun", "ppp", "zt"}
)

// Candidate is one (interface, local address) pair the Interface Selector
// yields to the Endpoint Builder.
type Candidate struct {
	IfName string
	Addr   net.IP
	Index  int
}

// SelectorConfig narrows the Selector's output, mirroring the daemon's CLI
// surface (spec.md §6): an explicit interface name pins the result to one
// interface and also overrides the bridge-port exclusion (rule 5).
type SelectorConfig struct {
	OnlyInterface string // empty means "no filter"
}

// Select enumerates host interfaces and yields every (Candidate) that
// satisfies spec.md §4.3's rules for the given Service's family and
// multicast requirement. Idempotent: repeated calls against unchanged host
// state yield the same set in the same order, since it walks
// net.Interfaces() in the order the kernel reports and applies a
// deterministic filter chain.
func Select(svc *Service, cfg SelectorConfig) ([]Candidate, error) {
	if svc.Family == FamilyNetlink {
		return []Candidate{{IfName: "netlink"}}, nil
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for _, ifi := range ifaces {
		if !eligibleInterface(ifi, cfg) {
			continue
		}
		if svc.MulticastGroup != "" && ifi.Flags&net.FlagMulticast == 0 {
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
			ip := ipNet.IP
			if !familyMatches(svc.Family, ip) {
				continue
			}
			out = append(out, Candidate{IfName: ifi.Name, Addr: ip, Index: ifi.Index})
		}
	}
	return out, nil
}

func familyMatches(f Family, ip net.IP) bool {
	switch f {
	case FamilyIPv4:
		return ip.To4() != nil
	case FamilyIPv6:
		return ip.To4() == nil && ip.To16() != nil
	default:
		return false
	}
}

// eligibleInterface applies spec.md §4.3 rules 2-5 (family is checked by the
// caller per-address, rule 1 folded into familyMatches).
func eligibleInterface(ifi net.Interface, cfg SelectorConfig) bool {
	if ifi.Flags&net.FlagLoopback != 0 {
		return false
	}
	if isEnslaved(ifi) {
		return false
	}
	if cfg.OnlyInterface != "" {
		return ifi.Name == cfg.OnlyInterface
	}

	if excludedNames[ifi.Name] {
		return false
	}
	for _, p := range excludedPrefixes {
		if strings.HasPrefix(ifi.Name, p) {
			return false
		}
	}

	// Rule 5: exclude bridge ports, unless the user pinned an interface
	// (handled by the early return above). Absence of the sysfs view is
	// treated as "not a bridge port" per spec.md §9's open question.
	if isBridgePort(ifi.Name) {
		return false
	}

	return true
}

// isBridgePort reports whether ifName carries a `brport` attribute in the
// kernel's sysfs view, meaning it is enslaved to a bridge. Absence of the
// sysfs entry (stat fails for any reason) is "not a bridge port", not an
// error — the same policy wsdd2.c applies.
func isBridgePort(ifName string) bool {
	_, err := os.Stat("/sys/class/net/" + ifName + "/brport")
	return err == nil
}
