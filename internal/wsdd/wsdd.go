// Package wsdd implements a minimal WS-Discovery (WSDD) responder: it
// answers Probe and Resolve SOAP-over-UDP requests with ProbeMatches and
// ResolveMatches carrying a stable per-host device UUID and the Reply-Source
// Resolver's address (spec.md's supplemented features, grounded in
// wsdd2.c's wsd_init/wsd_recv/wsd_exit).
package wsdd

import (
	"encoding/xml"
	"log/slog"
	"net"
	"sort"
	"strings"

	"github.com/google/uuid"

	"wsdiscoveryd/internal/endpoint"
)

const (
	actionProbe          = "http://schemas.xmlsoap.org/ws/2005/04/discovery/Probe"
	actionResolve        = "http://schemas.xmlsoap.org/ws/2005/04/discovery/Resolve"
	actionProbeMatches   = "http://schemas.xmlsoap.org/ws/2005/04/discovery/ProbeMatches"
	actionResolveMatches = "http://schemas.xmlsoap.org/ws/2005/04/discovery/ResolveMatches"
	dpwsDevice           = "dndr:Device"
)

// Responder answers WS-Discovery Probe/Resolve requests for one device
// identity. The identity's UUID is derived once at process start (stable
// across restart-in-place cycles as long as Hostname doesn't change) from
// the configured host name, per wsdd2.c's use of a persistent endpoint
// reference across the daemon's lifetime.
type Responder struct {
	Hostname   string
	Workgroup  string
	BootParams map[string]string
	DeviceID   string // "urn:uuid:..."
	log        *slog.Logger
}

// New returns a Responder identifying as hostname, carrying workgroup and
// bootParams as opaque strings (spec.md §6: both are opaque to the core and
// only meaningful to a client parsing ProbeMatches scopes). nil logger falls
// back to slog.Default(); nil bootParams is treated as empty.
func New(hostname, workgroup string, bootParams map[string]string, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewSHA1(uuid.NameSpaceDNS, []byte(hostname))
	return &Responder{
		Hostname:   hostname,
		Workgroup:  workgroup,
		BootParams: bootParams,
		DeviceID:   "urn:uuid:" + id.String(),
		log:        logger.With("component", "wsdd"),
	}
}

// scopes renders the Workgroup and BootParams into the space-separated URI
// list WS-Discovery 1.1 §7.2 uses for a ProbeMatch's Scopes element,
// mirroring wsdd2.c's boot-parameter forwarding into the discovery reply.
func (r *Responder) scopes() string {
	var scopes []string
	if r.Workgroup != "" {
		scopes = append(scopes, "onvif://www.onvif.org/workgroup/"+r.Workgroup)
	}
	keys := make([]string, 0, len(r.BootParams))
	for k := range r.BootParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		scopes = append(scopes, "onvif://www.onvif.org/boot/"+k+"="+r.BootParams[k])
	}
	return strings.Join(scopes, " ")
}

func (r *Responder) Init(*endpoint.Endpoint) error { return nil }
func (r *Responder) Exit(*endpoint.Endpoint)       {}

// Recv implements endpoint.Callbacks. Datagram services carry Probe/Resolve
// traffic; on a stream (TCP) service it accepts one connection, reads up to
// 4096 bytes of the request, and closes it without sending a reply.
func (r *Responder) Recv(ep *endpoint.Endpoint) error {
	if pc := ep.PacketConn(); pc != nil {
		return r.recvDatagram(pc)
	}
	if ln := ep.Listener(); ln != nil {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		defer conn.Close()
		// Minimal metadata-exchange passthrough: drain and close. A fuller
		// GET/POST handler belongs to a future metadata-document feature.
		buf := make([]byte, 4096)
		_, _ = conn.Read(buf)
	}
	return nil
}

func (r *Responder) recvDatagram(pc net.PacketConn) error {
	buf := make([]byte, 8192)
	n, addr, err := pc.ReadFrom(buf)
	if err != nil {
		return err
	}

	var env envelope
	if err := xml.Unmarshal(buf[:n], &env); err != nil {
		r.log.Debug("malformed SOAP envelope, ignoring", "error", err)
		return nil
	}

	remoteIP := addrIP(addr)
	if remoteIP == nil {
		return nil
	}
	local, err := endpoint.ReplySource(remoteIP, 0)
	if err != nil {
		r.log.Debug("no reply-source address", "error", err)
		return nil
	}

	var reply []byte
	switch env.Header.Action {
	case actionProbe:
		reply = r.buildMatches(actionProbeMatches, env.Header.MessageID, local, pc)
	case actionResolve:
		reply = r.buildMatches(actionResolveMatches, env.Header.MessageID, local, pc)
	default:
		return nil
	}

	_, err = pc.WriteTo(reply, addr)
	return err
}

func addrIP(addr net.Addr) net.IP {
	if u, ok := addr.(*net.UDPAddr); ok {
		return u.IP
	}
	return nil
}

// buildMatches constructs a ProbeMatches/ResolveMatches envelope carrying
// this Responder's device UUID and one XAddr built from local and the
// service's bound port, per WS-Discovery 1.1 §7.2/§7.4.
func (r *Responder) buildMatches(action, relatesTo string, local net.IP, pc net.PacketConn) []byte {
	_, port, _ := net.SplitHostPort(pc.LocalAddr().String())
	scheme := "http"
	xaddr := scheme + "://" + net.JoinHostPort(local.String(), port) + "/"

	out := envelope{
		Header: header{
			Action:    action,
			RelatesTo: relatesTo,
			To:        "http://schemas.xmlsoap.org/ws/2004/08/addressing/role/anonymous",
		},
		Body: body{
			Matches: &matches{
				EndpointReference: endpointRef{Address: r.DeviceID},
				Types:             dpwsDevice,
				Scopes:            r.scopes(),
				XAddrs:            xaddr,
				MetadataVersion:   1,
			},
		},
	}
	data, err := xml.Marshal(out)
	if err != nil {
		return nil
	}
	return append([]byte(xml.Header), data...)
}

// The XML shapes below are deliberately minimal: just enough of WS-Addressing
// and WS-Discovery to round-trip Probe/Resolve and their *Matches replies.
// Full envelope validation and multi-match Probe responses are out of scope
// (spec.md Non-goals: no service registry beyond the static catalog).

type envelope struct {
	XMLName xml.Name `xml:"http://www.w3.org/2003/05/soap-envelope Envelope"`
	Header  header   `xml:"Header"`
	Body    body     `xml:"Body"`
}

type header struct {
	To        string `xml:"http://schemas.xmlsoap.org/ws/2004/08/addressing To,omitempty"`
	Action    string `xml:"http://schemas.xmlsoap.org/ws/2004/08/addressing Action"`
	MessageID string `xml:"http://schemas.xmlsoap.org/ws/2004/08/addressing MessageID,omitempty"`
	RelatesTo string `xml:"http://schemas.xmlsoap.org/ws/2004/08/addressing RelatesTo,omitempty"`
}

type body struct {
	Matches *matches `xml:"ProbeMatches"`
}

type matches struct {
	EndpointReference endpointRef `xml:"ProbeMatch>EndpointReference"`
	Types             string      `xml:"ProbeMatch>Types"`
	Scopes            string      `xml:"ProbeMatch>Scopes,omitempty"`
	XAddrs            string      `xml:"ProbeMatch>XAddrs"`
	MetadataVersion   int         `xml:"ProbeMatch>MetadataVersion"`
}

type endpointRef struct {
	Address string `xml:"Address"`
}
