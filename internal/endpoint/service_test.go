//go:build linux

package endpoint

import "testing"

func TestCatalogSize(t *testing.T) {
	t.Parallel()

	catalog := Catalog(nil, nil, nil, NetlinkGroups)
	if len(catalog) != 9 {
		t.Fatalf("len(Catalog(...)) = %d, want 9", len(catalog))
	}

	var netlinkCount int
	for _, svc := range catalog {
		if svc.Family == FamilyNetlink {
			netlinkCount++
			if svc.NetlinkGroups != NetlinkGroups {
				t.Errorf("netlink service carries groups %#x, want %#x", svc.NetlinkGroups, NetlinkGroups)
			}
		}
	}
	if netlinkCount != 1 {
		t.Errorf("got %d netlink services, want 1", netlinkCount)
	}
}

func TestServiceCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		svc  Service
		want Category
	}{
		{"wsdd mcast", Service{Name: "wsdd-mcast-v4", Family: FamilyIPv4}, CategoryWSDD},
		{"llmnr mcast", Service{Name: "llmnr-mcast-v4", Family: FamilyIPv4}, CategoryLLMNR},
		{"wsdd tcp", Service{Name: "wsdd-tcp-v6", Family: FamilyIPv6}, CategoryWSDD},
		{"netlink", Service{Name: "ifaddr-netlink-v4v6", Family: FamilyNetlink}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.svc.Category(); got != tt.want {
				t.Errorf("Category() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSocketTypeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		st   SocketType
		want string
	}{
		{SocketDatagram, "udp"},
		{SocketStream, "tcp"},
		{SocketRaw, "raw"},
	}
	for _, tt := range tests {
		if got := tt.st.String(); got != tt.want {
			t.Errorf("SocketType(%d).String() = %q, want %q", tt.st, got, tt.want)
		}
	}
}
