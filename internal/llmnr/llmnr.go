// Package llmnr implements a minimal LLMNR (RFC 4795) responder: it answers
// A/AAAA queries for a single configured name, the feature set wsdd2.c's
// llmnr_init/llmnr_recv/llmnr_exit cover (spec.md's supplemented features).
package llmnr

import (
	"encoding/binary"
	"log/slog"
	"net"
	"strings"

	"wsdiscoveryd/internal/endpoint"
)

const (
	headerLen = 12
	typeA     = 1
	typeAAAA  = 28
	classIN   = 1
	// flagQR is the QR bit (bit 15) of the DNS-compatible flags word RFC
	// 4795 reuses; it is set on responses. The OPCODE bits are not checked.
	flagQR = 0x8000
)

// Responder answers LLMNR queries for Name (the configured NetBIOS/host
// name, spec.md's supplemented "-N" flag) by replying with whichever local
// address the Reply-Source Resolver picks for the querying family.
type Responder struct {
	Name string
	log  *slog.Logger
}

// New returns a Responder for name (matched case-insensitively, per RFC
// 4795 §2.3). A nil logger falls back to slog.Default().
func New(name string, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{Name: name, log: logger.With("component", "llmnr")}
}

func (r *Responder) Init(*endpoint.Endpoint) error { return nil }
func (r *Responder) Exit(*endpoint.Endpoint)       {}

// Recv implements endpoint.Callbacks for the LLMNR services. On a datagram
// endpoint it reads one query, and if it names r.Name, replies with an A or
// AAAA record carrying the reply-source address. On a stream endpoint it
// returns nil without accepting or reading the pending connection.
func (r *Responder) Recv(ep *endpoint.Endpoint) error {
	pc := ep.PacketConn()
	if pc == nil {
		return nil // stream services carry no usable query path yet
	}

	buf := make([]byte, 4096)
	n, addr, err := pc.ReadFrom(buf)
	if err != nil {
		return err
	}
	msg := buf[:n]

	qname, qtype, ok := parseQuery(msg)
	if !ok {
		return nil
	}
	if !strings.EqualFold(qname, r.Name) {
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

	var rtype uint16
	switch {
	case qtype == typeA && local.To4() != nil:
		rtype = typeA
	case qtype == typeAAAA && local.To4() == nil:
		rtype = typeAAAA
	default:
		return nil
	}

	resp := buildResponse(msg, rtype, local)
	_, err = pc.WriteTo(resp, addr)
	return err
}

func addrIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.UDPAddr:
		return a.IP
	case *net.TCPAddr:
		return a.IP
	default:
		return nil
	}
}

// parseQuery extracts the single question's QNAME/QTYPE from an LLMNR
// query, per RFC 4795 §2.1's DNS-compatible header. The QNAME's labels are
// read up to the terminating zero-length octet and joined with dots.
func parseQuery(msg []byte) (name string, qtype uint16, ok bool) {
	if len(msg) < headerLen+1 {
		return "", 0, false
	}
	flags := binary.BigEndian.Uint16(msg[2:4])
	if flags&flagQR != 0 {
		return "", 0, false // not a query
	}
	qdcount := binary.BigEndian.Uint16(msg[4:6])
	if qdcount == 0 {
		return "", 0, false
	}

	off := headerLen
	var labels []string
	for {
		if off >= len(msg) {
			return "", 0, false
		}
		l := int(msg[off])
		off++
		if l == 0 {
			break
		}
		if off+l > len(msg) {
			return "", 0, false
		}
		labels = append(labels, string(msg[off:off+l]))
		off += l
	}
	if off+4 > len(msg) {
		return "", 0, false
	}
	qtype = binary.BigEndian.Uint16(msg[off : off+2])
	return strings.Join(labels, "."), qtype, true
}

// buildResponse builds a single-answer LLMNR reply by echoing the query's
// ID and question section, setting QR/AA, and appending one answer record
// pointing back at the question name (RFC 4795 §2.1, the DNS name-pointer
// compression form 0xC00C).
func buildResponse(query []byte, rtype uint16, addr net.IP) []byte {
	qlen := questionLen(query)
	resp := make([]byte, 0, headerLen+qlen+16)
	resp = append(resp, query[0], query[1]) // ID
	resp = append(resp, 0x84, 0x00)         // QR=1, AA=1, opcode/rcode 0
	resp = append(resp, 0x00, 0x01)         // QDCOUNT=1
	resp = append(resp, 0x00, 0x01)         // ANCOUNT=1
	resp = append(resp, 0x00, 0x00)         // NSCOUNT=0
	resp = append(resp, 0x00, 0x00)         // ARCOUNT=0
	resp = append(resp, query[headerLen:headerLen+qlen]...)

	resp = append(resp, 0xC0, 0x0C) // name pointer to the question
	rtypeB := make([]byte, 2)
	binary.BigEndian.PutUint16(rtypeB, rtype)
	resp = append(resp, rtypeB...)
	resp = append(resp, 0x00, byte(classIN))
	resp = append(resp, 0x00, 0x00, 0x00, 0x1E) // TTL 30s, matching LLMNR's short cache lifetime

	if rtype == typeA {
		ip4 := addr.To4()
		resp = append(resp, 0x00, 0x04)
		resp = append(resp, ip4...)
	} else {
		ip16 := addr.To16()
		resp = append(resp, 0x00, 0x10)
		resp = append(resp, ip16...)
	}
	return resp
}

func questionLen(msg []byte) int {
	off := headerLen
	for off < len(msg) {
		l := int(msg[off])
		off++
		if l == 0 {
			break
		}
		off += l
	}
	off += 4 // QTYPE + QCLASS
	if off > len(msg) {
		return len(msg) - headerLen
	}
	return off - headerLen
}
