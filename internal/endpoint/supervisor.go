//go:build linux

package endpoint

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// State is the Supervisor's life-cycle state, per spec.md §4.7:
// Initializing -> Building -> Running -> TearingDown -> {Initializing, Terminated}.
type State int

const (
	Initializing State = iota
	Building
	Running
	TearingDown
	Terminated
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Building:
		return "building"
	case Running:
		return "running"
	case TearingDown:
		return "tearing-down"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Supervisor owns one daemon lifetime: it drives the catalog of Services
// through Select/Build, runs the Readiness Loop, and tears down and rebuilds
// on restart-in-place, or tears down and exits on terminate (spec.md §4.7).
type Supervisor struct {
	catalog []Service
	cfg     SelectorConfig
	log     *slog.Logger

	flag  *RestartFlag
	state State
	reg   *Registry
	b     *Builder
}

// NewSupervisor builds a Supervisor over catalog, filtered through cfg
// (interface pin, etc.). logger follows the teacher's agent.New(cfg, logger)
// convention: nil falls back to slog.Default(). flag may be nil, in which
// case the Supervisor allocates its own; callers that need to hand the same
// RestartFlag to a collaborator built before the Supervisor (e.g. the
// netlink Link Monitor, which must exist before the catalog it's wired
// into) should allocate one themselves and pass it here.
func NewSupervisor(catalog []Service, cfg SelectorConfig, flag *RestartFlag, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	if flag == nil {
		flag = &RestartFlag{}
	}
	return &Supervisor{
		catalog: catalog,
		cfg:     cfg,
		log:     logger.With("component", "supervisor"),
		flag:    flag,
		state:   Initializing,
		b:       NewBuilder(logger),
	}
}

// State reports the Supervisor's current life-cycle state.
func (s *Supervisor) State() State { return s.state }

// RestartFlag returns the Supervisor's Restart Flag, so callers (signal
// handlers, the netlink Link Monitor) outside Run's goroutine can trigger a
// restart or terminate.
func (s *Supervisor) RestartFlag() *RestartFlag { return s.flag }

// Run drives the full life cycle until a terminate is triggered (by SIGINT,
// SIGTERM, or ctx cancellation) or a Process-fatal Endpoint failure forces
// an early exit. It installs its own SIGHUP/SIGINT/SIGTERM handling
// (spec.md §4.2: SIGHUP restarts in place, SIGINT/SIGTERM terminate), mapped
// onto the same RestartFlag the Readiness Loop and Link Monitor use.
//
// Run returns nil on a clean terminate, and a non-nil error when a
// Process-fatal Endpoint failure tore the daemon down; callers map that to
// exit code 1 (spec.md §4.7, §8).
func (s *Supervisor) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					s.log.Info("SIGHUP received, restarting in place")
					s.flag.TriggerInPlace()
				case syscall.SIGINT, syscall.SIGTERM:
					s.log.Info("signal received, terminating", "signal", sig)
					s.flag.TriggerTerminate()
				}
			case <-ctx.Done():
				s.flag.TriggerTerminate()
			case <-done:
				return
			}
		}
	}()

	for {
		if err := s.build(); err != nil {
			s.teardown()
			s.state = Terminated
			return err
		}

		s.state = Running
		if err := Run(s.reg, s.flag, s.log); err != nil {
			s.log.Error("readiness loop failed", "error", err)
			s.teardown()
			s.state = Terminated
			return err
		}

		s.teardown()

		switch s.flag.Get() {
		case RestartTerminate:
			s.state = Terminated
			return nil
		default:
			s.flag.Clear()
			s.state = Initializing
		}
	}
}

// build implements spec.md §4.3/§4.4's Building phase: for every cataloged
// Service, enumerate eligible Candidates and construct an Endpoint for each.
// A non-terminal Endpoint-fatal failure drops just that Endpoint (logged);
// a terminal one (only ever the kernel-link Endpoint) aborts the whole
// Building phase and is returned for the caller to treat as Process-fatal.
func (s *Supervisor) build() error {
	s.state = Building
	s.reg = NewRegistry()

	for i := range s.catalog {
		svc := &s.catalog[i]
		candidates, err := Select(svc, s.cfg)
		if err != nil {
			s.log.Warn("interface selection failed", "service", svc.Name, "error", err)
			continue
		}
		for _, cand := range candidates {
			ep := s.b.Build(svc, cand, s.cfg)
			if ep.Err() != nil {
				if ep.Terminal() {
					s.log.Error("process-fatal endpoint failure", "service", svc.Name, "iface", cand.IfName, "error", ep.Err())
					return fmt.Errorf("building %s on %s: %w", svc.Name, cand.IfName, ep.Err())
				}
				s.log.Warn("endpoint build failed, skipping", "service", svc.Name, "iface", cand.IfName, "error", ep.Err())
				continue
			}
			if !ep.Open() {
				// Discoverable-skip: EADDRINUSE, already logged by the Builder.
				continue
			}
			s.reg.Add(ep)
		}
	}
	return nil
}

// teardown implements spec.md §4.7's TearingDown phase: every registered
// Endpoint is torn down regardless of whether an earlier one fails, so one
// bad Exit callback or close() never leaks the rest.
func (s *Supervisor) teardown() {
	if s.reg == nil {
		return
	}
	s.state = TearingDown
	for _, ep := range s.reg.Endpoints() {
		s.teardownOne(ep)
	}
	s.reg.Clear()
}

func (s *Supervisor) teardownOne(ep *Endpoint) {
	if ep.Service.Callbacks != nil {
		func() {
			defer func() { _ = recover() }()
			ep.Service.Callbacks.Exit(ep)
		}()
	}

	var ifi *net.Interface
	if ep.IfName != "" {
		ifi, _ = net.InterfaceByName(ep.IfName)
	}

	switch {
	case ep.mcast4 != nil:
		if err := ep.mcast4.LeaveGroup(ifi, &net.UDPAddr{IP: ep.McastAddr}); err != nil {
			s.log.Debug("leaving multicast group", "service", ep.Service.Name, "error", err)
		}
		_ = ep.mcast4.Close()
	case ep.mcast6 != nil:
		if err := ep.mcast6.LeaveGroup(ifi, &net.UDPAddr{IP: ep.McastAddr}); err != nil {
			s.log.Debug("leaving multicast group", "service", ep.Service.Name, "error", err)
		}
		_ = ep.mcast6.Close()
	case ep.conn != nil:
		s.b.closeConn(ep)
	}

	if ep.conn == nil && ep.mcast4 == nil && ep.mcast6 == nil && ep.fd >= 0 {
		// Netlink endpoint: no net.Conn wrapper, close the raw fd directly.
		_ = unix.Close(ep.fd)
	}
	ep.fd = -1
}
