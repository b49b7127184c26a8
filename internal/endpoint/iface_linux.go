//go:build linux

package endpoint

import (
	"net"
	"os"
	"strconv"
	"strings"
)

// ifSlave mirrors net/if.h's IFF_SLAVE: the interface is enslaved to a
// bonding/team/bridge master and should never be treated as an independent
// discovery interface (spec.md §4.3 rule 2).
const ifSlave = 0x800

// isEnslaved reads the kernel's per-interface flags word from sysfs, the
// same view wsdd2.c reads via getifaddrs()'s ifa_flags. Absence of the
// sysfs entry (e.g. a non-Linux-shaped /sys) is treated as "not enslaved",
// matching the bridge-port fallback policy.
func isEnslaved(ifi net.Interface) bool {
	data, err := os.ReadFile("/sys/class/net/" + ifi.Name + "/flags")
	if err != nil {
		return false
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(data)), 0, 32)
	if err != nil {
		return false
	}
	return v&ifSlave != 0
}
