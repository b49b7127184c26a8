//go:build linux

package endpoint

import (
	"errors"
	"testing"

	"golang.org/x/sys/unix"
)

func TestResolvePortFallsBackToDefault(t *testing.T) {
	t.Parallel()

	svc := &Service{PortName: "definitely-not-a-registered-service-xyz", DefaultPort: 3702, Type: SocketDatagram}
	port, err := resolvePort(svc)
	if err != nil {
		t.Fatalf("resolvePort: %v", err)
	}
	if port != 3702 {
		t.Errorf("resolvePort() = %d, want 3702 (the fallback)", port)
	}
}

func TestResolvePortFailsWithoutDefault(t *testing.T) {
	t.Parallel()

	svc := &Service{PortName: "definitely-not-a-registered-service-xyz", Type: SocketDatagram}
	_, err := resolvePort(svc)
	if !errors.Is(err, ErrNoPort) {
		t.Fatalf("resolvePort err = %v, want ErrNoPort", err)
	}
}

func TestSockType(t *testing.T) {
	t.Parallel()

	if got := sockType(SocketStream); got != unix.SOCK_STREAM {
		t.Errorf("sockType(SocketStream) = %d, want SOCK_STREAM", got)
	}
	if got := sockType(SocketDatagram); got != unix.SOCK_DGRAM {
		t.Errorf("sockType(SocketDatagram) = %d, want SOCK_DGRAM", got)
	}
}

func TestBindWildcardUnsupportedFamily(t *testing.T) {
	t.Parallel()

	err := bindWildcard(-1, unix.AF_UNIX, 0)
	if err == nil {
		t.Fatal("bindWildcard with an unsupported family should fail")
	}
}

func TestEndpointErrorUnwrap(t *testing.T) {
	t.Parallel()

	inner := errors.New("boom")
	ee := &EndpointError{Kind: ErrBind, Err: inner}
	if !errors.Is(ee, ErrBind) {
		t.Errorf("errors.Is(ee, ErrBind) = false, want true")
	}
	if ee.Error() != "bind: boom" {
		t.Errorf("Error() = %q, want %q", ee.Error(), "bind: boom")
	}
}

func TestSockOptErrorMessage(t *testing.T) {
	t.Parallel()

	e := &SockOptError{Which: "IPV6_V6ONLY", Err: errors.New("bad fd")}
	want := "sockopt IPV6_V6ONLY: bad fd"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}
	if !errors.Is(e, e.Err) {
		t.Errorf("errors.Is(e, e.Err) = false, want true")
	}
}
