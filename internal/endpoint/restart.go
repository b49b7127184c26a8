//go:build linux

package endpoint

import "sync/atomic"

// RestartState is the Restart Flag's tri-state value (spec.md §3): written
// from signal-delivery context, read from the supervisor context. A single
// atomic.Int32 gives the "atomic write/read without tearing" guarantee
// spec.md §5 requires, with no other memory touched from the signal
// handler.
type RestartState int32

const (
	RestartNone RestartState = iota
	RestartInPlace
	RestartTerminate
)

// RestartFlag is the process-wide Restart Flag. The zero value is ready to
// use (RestartNone).
type RestartFlag struct {
	v atomic.Int32
}

// Get returns the current state. Safe to call from any context.
func (f *RestartFlag) Get() RestartState { return RestartState(f.v.Load()) }

// Set stores state unconditionally. The engine itself does not call it:
// signal handlers, the Link Monitor and Recv-triggered restarts go through
// TriggerInPlace/TriggerTerminate, and the Supervisor resets the flag with
// Clear after a restart cycle completes. The transitions those produce are
// 0->1, 0->2, 1->0 and, when a terminate arrives while a restart-in-place is
// pending, 1->2.
func (f *RestartFlag) Set(state RestartState) { f.v.Store(int32(state)) }

// Clear resets the flag to RestartNone. Called only by the Supervisor.
func (f *RestartFlag) Clear() { f.v.Store(int32(RestartNone)) }

// TriggerInPlace sets the flag to RestartInPlace if and only if it is
// currently RestartNone, so a terminate request is never downgraded to a
// restart by a racing Recv-triggered event.
func (f *RestartFlag) TriggerInPlace() {
	f.v.CompareAndSwap(int32(RestartNone), int32(RestartInPlace))
}

// TriggerTerminate sets the flag to RestartTerminate unconditionally —
// SIGINT/SIGTERM always win over a pending restart-in-place.
func (f *RestartFlag) TriggerTerminate() { f.v.Store(int32(RestartTerminate)) }
