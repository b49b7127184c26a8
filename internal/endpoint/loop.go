//go:build linux

package endpoint

import (
	"errors"
	"log/slog"

	"golang.org/x/sys/unix"
)

// HardWaitError wraps the error returned when poll() fails with anything
// other than EINTR. Per spec.md §4.5/§7, this is Hard-wait: the Supervisor
// must tear down and exit 1.
type HardWaitError struct{ Err error }

func (e *HardWaitError) Error() string { return "readiness loop: " + e.Err.Error() }
func (e *HardWaitError) Unwrap() error { return e.Err }

// Run is the Readiness Loop (spec.md §4.5): single-threaded, cooperative.
// It blocks on poll() until at least one registered socket is readable,
// then dispatches each ready Endpoint's Recv callback exactly once, in
// registry order. flag is checked at the loop head and after every
// dispatch — the boolean-flag replacement for the source's setjmp/longjmp
// unwind (spec.md §9); a negative Recv return (spec.md §4.5) triggers
// restart-in-place via flag.TriggerInPlace, exactly like a Link Monitor
// event would.
//
// Run returns nil once flag.Get() != RestartNone. It returns a
// *HardWaitError when poll() itself fails, or when the registry holds no
// open Endpoint to wait on.
func Run(reg *Registry, flag *RestartFlag, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "readiness-loop")

	for {
		if flag.Get() != RestartNone {
			return nil
		}

		eps := reg.Endpoints()
		pollfds := make([]unix.PollFd, 0, len(eps))
		byFD := make(map[int32]*Endpoint, len(eps))
		for _, ep := range eps {
			if !ep.Open() {
				continue
			}
			pollfds = append(pollfds, unix.PollFd{Fd: int32(ep.FD()), Events: unix.POLLIN})
			byFD[int32(ep.FD())] = ep
		}
		if len(pollfds) == 0 {
			return &HardWaitError{Err: errors.New("no open endpoints")}
		}

		n, err := unix.Poll(pollfds, -1)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return &HardWaitError{Err: err}
		}
		log.Debug("poll woke", "ready", n)

		for _, pfd := range pollfds {
			if pfd.Revents&(unix.POLLIN|unix.POLLERR|unix.POLLHUP) == 0 {
				continue
			}
			ep := byFD[pfd.Fd]
			if ep.Service.Callbacks == nil {
				continue
			}
			if err := ep.Service.Callbacks.Recv(ep); err != nil {
				log.Debug("recv error, triggering restart", "service", ep.Service.Name, "error", err)
				flag.TriggerInPlace()
			}
			if flag.Get() != RestartNone {
				return nil
			}
		}
	}
}
