package wsdd

import (
	"encoding/xml"
	"net"
	"strings"
	"testing"
)

func TestNewDeviceIDIsStablePerHostname(t *testing.T) {
	t.Parallel()

	a := New("host-a", "", nil, nil)
	b := New("host-a", "", nil, nil)
	c := New("host-b", "", nil, nil)

	if a.DeviceID != b.DeviceID {
		t.Errorf("same hostname produced different device IDs: %q vs %q", a.DeviceID, b.DeviceID)
	}
	if a.DeviceID == c.DeviceID {
		t.Error("different hostnames produced the same device ID")
	}
	if !strings.HasPrefix(a.DeviceID, "urn:uuid:") {
		t.Errorf("DeviceID = %q, want urn:uuid: prefix", a.DeviceID)
	}
}

func TestParseEnvelopeAction(t *testing.T) {
	t.Parallel()

	raw := []byte(`<?xml version="1.0"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns:wsa="http://schemas.xmlsoap.org/ws/2004/08/addressing">
  <soap:Header>
    <wsa:Action>http://schemas.xmlsoap.org/ws/2005/04/discovery/Probe</wsa:Action>
    <wsa:MessageID>urn:uuid:aaaa</wsa:MessageID>
  </soap:Header>
  <soap:Body></soap:Body>
</soap:Envelope>`)

	var env envelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		t.Fatalf("xml.Unmarshal: %v", err)
	}
	if env.Header.Action != actionProbe {
		t.Errorf("Action = %q, want %q", env.Header.Action, actionProbe)
	}
	if env.Header.MessageID != "urn:uuid:aaaa" {
		t.Errorf("MessageID = %q, want urn:uuid:aaaa", env.Header.MessageID)
	}
}

func TestBuildMatchesRoundTrips(t *testing.T) {
	t.Parallel()

	r := New("testhost", "lab", map[string]string{"ver": "1"}, nil)
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		t.Skipf("no UDP socket available in this sandbox: %v", err)
	}
	defer conn.Close()

	reply := r.buildMatches(actionProbeMatches, "urn:uuid:req-id", net.ParseIP("192.168.1.5"), conn)

	var env envelope
	if err := xml.Unmarshal(reply, &env); err != nil {
		t.Fatalf("xml.Unmarshal(reply): %v", err)
	}
	if env.Header.Action != actionProbeMatches {
		t.Errorf("Action = %q, want %q", env.Header.Action, actionProbeMatches)
	}
	if env.Header.RelatesTo != "urn:uuid:req-id" {
		t.Errorf("RelatesTo = %q, want the request's MessageID", env.Header.RelatesTo)
	}
	if env.Body.Matches == nil || env.Body.Matches.EndpointReference.Address != r.DeviceID {
		t.Errorf("reply did not carry the Responder's device ID")
	}
	if !strings.Contains(env.Body.Matches.XAddrs, "192.168.1.5") {
		t.Errorf("XAddrs = %q, want it to carry the reply-source address", env.Body.Matches.XAddrs)
	}
	if !strings.Contains(env.Body.Matches.Scopes, "workgroup/lab") {
		t.Errorf("Scopes = %q, want it to carry the workgroup", env.Body.Matches.Scopes)
	}
	if !strings.Contains(env.Body.Matches.Scopes, "boot/ver=1") {
		t.Errorf("Scopes = %q, want it to carry the boot parameters", env.Body.Matches.Scopes)
	}
}

func TestScopesEmptyWhenUnconfigured(t *testing.T) {
	t.Parallel()

	r := New("testhost", "", nil, nil)
	if got := r.scopes(); got != "" {
		t.Errorf("scopes() = %q, want empty with no workgroup/boot params", got)
	}
}
