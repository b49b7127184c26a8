// Command wsdiscoveryd is a WS-Discovery (WSDD) and LLMNR network endpoint
// engine: it enumerates eligible interfaces, builds configured sockets for
// each, multiplexes them in a single readiness loop, and rebuilds on
// interface/address change or SIGHUP.
//
// Usage:
//
//	sudo wsdiscoveryd [opts]
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"wsdiscoveryd/internal/endpoint"
	"wsdiscoveryd/internal/llmnr"
	"wsdiscoveryd/internal/wsdd"
)

func main() {
	var (
		ipv4Only    = pflag.BoolP("ipv4", "4", false, "IPv4 only")
		ipv6Only    = pflag.BoolP("ipv6", "6", false, "IPv6 only")
		llmnrOnly   = pflag.BoolP("llmnr-only", "l", false, "LLMNR only")
		wsddOnly    = pflag.BoolP("wsdd-only", "w", false, "WSDD only")
		tcpOnly     = pflag.BoolP("tcp-only", "t", false, "TCP only")
		udpOnly     = pflag.BoolP("udp-only", "u", false, "UDP only")
		daemon      = pflag.BoolP("daemon", "d", false, "go daemon")
		ifaceName   = pflag.StringP("interface", "i", "", "listening interface")
		netbiosName = pflag.StringP("netbios-name", "N", "", "NetBIOS name (default: host name)")
		workgroup   = pflag.StringP("workgroup", "G", "", "workgroup name")
		bootParams  = pflag.StringP("boot-params", "b", "", "boot parameters, \"key1:val1,key2:val2,...\"")
	)
	llmnrDebug := pflag.CountP("llmnr-debug", "L", "LLMNR debug mode (incremental level)")
	wsddDebug := pflag.CountP("wsdd-debug", "W", "WSDD debug mode (incremental level)")
	pflag.Parse()

	if *ifaceName != "" {
		if _, err := net.InterfaceByName(*ifaceName); err != nil {
			fmt.Fprintf(os.Stderr, "wsdiscoveryd: unknown interface %q\n", *ifaceName)
			os.Exit(1)
		}
	}

	verbosity := *llmnrDebug
	if *wsddDebug > verbosity {
		verbosity = *wsddDebug
	}
	level := slog.LevelInfo
	if verbosity > 0 {
		level = slog.LevelInfo - slog.Level(4*verbosity)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *daemon {
		if err := daemonize(); err != nil {
			logger.Error("daemonize", "error", err)
			os.Exit(1)
		}
	}

	bootMap := parseBootParams(*bootParams)

	name := *netbiosName
	if name == "" {
		if h, err := os.Hostname(); err == nil {
			name = h
		}
	}

	llmnrCB := llmnr.New(name, logger)
	wsddCB := wsdd.New(name, *workgroup, bootMap, logger)

	flag := &endpoint.RestartFlag{}
	netlinkCB := endpoint.NewLinkMonitor(0, *ifaceName, flag, logger)

	catalog := endpoint.Catalog(wsddCB, llmnrCB, netlinkCB, endpoint.NetlinkGroups)
	catalog = filterCatalog(catalog, *ipv4Only, *ipv6Only, *llmnrOnly, *wsddOnly, *tcpOnly, *udpOnly)

	sup := endpoint.NewSupervisor(catalog, endpoint.SelectorConfig{OnlyInterface: *ifaceName}, flag, logger)

	logger.Info("starting wsdiscoveryd", "hostname", name, "services", len(catalog))

	// Supervisor.Run installs its own SIGHUP/SIGINT/SIGTERM handling onto
	// the shared RestartFlag; ctx cancellation is a second, independent way
	// to ask it to terminate (unused here, kept for embedding callers).
	if err := sup.Run(context.Background()); err != nil {
		logger.Error("supervisor stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("wsdiscoveryd stopped")
}

// parseBootParams splits a "-b key1:val1,key2:val2,..." string into a map,
// matching wsdd2.c's set_getresp boot-parameter forwarding (spec.md §6: the
// values are opaque to the core and handed straight to internal/wsdd).
func parseBootParams(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(pair, ":")
		if !ok || k == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// filterCatalog applies the -4/-6/-l/-w/-t/-u narrowing rules (spec.md §6):
// an unset pair of opposing flags leaves both kinds enabled, exactly as
// wsdd2.c's ipv46/llmnrwsdd/tcpudp bitmasks default to "both" when neither
// bit was set.
func filterCatalog(catalog []endpoint.Service, ipv4Only, ipv6Only, llmnrOnly, wsddOnly, tcpOnly, udpOnly bool) []endpoint.Service {
	var out []endpoint.Service
	for _, svc := range catalog {
		if ipv4Only && svc.Family == endpoint.FamilyIPv6 {
			continue
		}
		if ipv6Only && svc.Family == endpoint.FamilyIPv4 {
			continue
		}
		if svc.Family != endpoint.FamilyNetlink {
			cat := svc.Category()
			if llmnrOnly && cat != endpoint.CategoryLLMNR {
				continue
			}
			if wsddOnly && cat != endpoint.CategoryWSDD {
				continue
			}
			if tcpOnly && svc.Type != endpoint.SocketStream {
				continue
			}
			if udpOnly && svc.Type != endpoint.SocketDatagram {
				continue
			}
		}
		out = append(out, svc)
	}
	return out
}

func init() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "WSDD and LLMNR network endpoint daemon\nUsage: %s [opts]\n", strings.TrimPrefix(os.Args[0], "./"))
		pflag.PrintDefaults()
	}
}
