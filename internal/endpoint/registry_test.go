//go:build linux

package endpoint

import "testing"

func TestRegistryAddLenClear(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if r.Len() != 0 {
		t.Fatalf("new registry Len() = %d, want 0", r.Len())
	}

	svc := &Service{Name: "test"}
	r.Add(&Endpoint{Service: svc, fd: 3})
	r.Add(&Endpoint{Service: svc, fd: 4})
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}

	eps := r.Endpoints()
	if eps[0].FD() != 3 || eps[1].FD() != 4 {
		t.Errorf("Endpoints() did not preserve registration order: %+v", eps)
	}

	r.Clear()
	if r.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", r.Len())
	}
}
