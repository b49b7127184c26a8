//go:build linux

package endpoint

import "testing"

func TestRestartFlagTriggerInPlaceDoesNotDowngradeTerminate(t *testing.T) {
	t.Parallel()

	var f RestartFlag
	f.TriggerTerminate()
	f.TriggerInPlace()
	if got := f.Get(); got != RestartTerminate {
		t.Fatalf("Get() = %v after TriggerInPlace on a pending terminate, want RestartTerminate", got)
	}
}

func TestRestartFlagTriggerTerminateAlwaysWins(t *testing.T) {
	t.Parallel()

	var f RestartFlag
	f.TriggerInPlace()
	f.TriggerTerminate()
	if got := f.Get(); got != RestartTerminate {
		t.Fatalf("Get() = %v, want RestartTerminate", got)
	}
}

func TestRestartFlagTransitions(t *testing.T) {
	t.Parallel()

	var f RestartFlag
	if got := f.Get(); got != RestartNone {
		t.Fatalf("zero value Get() = %v, want RestartNone", got)
	}

	f.TriggerInPlace()
	if got := f.Get(); got != RestartInPlace {
		t.Fatalf("Get() = %v after TriggerInPlace, want RestartInPlace", got)
	}

	f.Clear()
	if got := f.Get(); got != RestartNone {
		t.Fatalf("Get() = %v after Clear, want RestartNone", got)
	}
}

func TestRestartFlagTriggerInPlaceIdempotent(t *testing.T) {
	t.Parallel()

	var f RestartFlag
	f.TriggerInPlace()
	f.TriggerInPlace()
	if got := f.Get(); got != RestartInPlace {
		t.Fatalf("Get() = %v after repeated TriggerInPlace, want RestartInPlace", got)
	}
}
