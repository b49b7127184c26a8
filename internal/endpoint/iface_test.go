//go:build linux

package endpoint

import (
	"net"
	"testing"
)

func TestFamilyMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		family Family
		ip     net.IP
		want   bool
	}{
		{"v4 against v4 family", FamilyIPv4, net.ParseIP("192.168.1.1"), true},
		{"v6 against v4 family", FamilyIPv4, net.ParseIP("fe80::1"), false},
		{"v6 against v6 family", FamilyIPv6, net.ParseIP("fe80::1"), true},
		{"v4 against v6 family", FamilyIPv6, net.ParseIP("192.168.1.1"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := familyMatches(tt.family, tt.ip); got != tt.want {
				t.Errorf("familyMatches(%v, %v) = %v, want %v", tt.family, tt.ip, got, tt.want)
			}
		})
	}
}

func TestSelectNetlinkIsSynthetic(t *testing.T) {
	t.Parallel()

	svc := &Service{Family: FamilyNetlink}
	cands, err := Select(svc, SelectorConfig{})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(cands) != 1 || cands[0].IfName != "netlink" {
		t.Fatalf("Select(netlink) = %+v, want a single synthetic candidate", cands)
	}
}

func TestEligibleInterfaceExclusions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ifi  net.Interface
		cfg  SelectorConfig
		want bool
	}{
		{"loopback excluded", net.Interface{Name: "lo", Flags: net.FlagLoopback}, SelectorConfig{}, false},
		{"docker prefix excluded", net.Interface{Name: "docker0"}, SelectorConfig{}, false},
		{"veth prefix excluded", net.Interface{Name: "veth1234"}, SelectorConfig{}, false},
		{"named exclusion", net.Interface{Name: "LeafNets"}, SelectorConfig{}, false},
		{"pinned interface bypasses prefix rule", net.Interface{Name: "docker0"}, SelectorConfig{OnlyInterface: "docker0"}, true},
		{"pinned interface mismatch", net.Interface{Name: "eth0"}, SelectorConfig{OnlyInterface: "eth1"}, false},
		{"ordinary interface eligible", net.Interface{Name: "eth0"}, SelectorConfig{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := eligibleInterface(tt.ifi, tt.cfg); got != tt.want {
				t.Errorf("eligibleInterface(%+v, %+v) = %v, want %v", tt.ifi, tt.cfg, got, tt.want)
			}
		})
	}
}

func TestIsBridgePortAbsentIsFalse(t *testing.T) {
	t.Parallel()
	// A sysfs path that cannot exist on any host: absence must read as
	// "not a bridge port", per spec.md §9's open-question decision.
	if isBridgePort("no-such-interface-xyz") {
		t.Error("isBridgePort on a nonexistent interface = true, want false")
	}
}
