//go:build linux

package endpoint

import (
	"encoding/binary"
	"testing"

	"golang.org/x/sys/unix"
)

// buildIfaddrmsg constructs a minimal RTM_NEWADDR payload: an ifaddrmsg
// header followed by one IFA_CACHEINFO attribute carrying cstamp/tstamp.
func buildIfaddrmsg(ifIndex uint32, cstamp, tstamp uint32) []byte {
	payload := make([]byte, ifaddrmsgLen)
	binary.LittleEndian.PutUint32(payload[4:8], ifIndex)

	rta := make([]byte, rtaHdrLen+16)
	binary.LittleEndian.PutUint16(rta[0:2], uint16(len(rta)))
	binary.LittleEndian.PutUint16(rta[2:4], unix.IFA_CACHEINFO)
	binary.LittleEndian.PutUint32(rta[rtaHdrLen:rtaHdrLen+4], 0)       // prefered
	binary.LittleEndian.PutUint32(rta[rtaHdrLen+4:rtaHdrLen+8], 0)     // valid
	binary.LittleEndian.PutUint32(rta[rtaHdrLen+8:rtaHdrLen+12], cstamp)
	binary.LittleEndian.PutUint32(rta[rtaHdrLen+12:rtaHdrLen+16], tstamp)

	return append(payload, rta...)
}

func TestIsNewAddr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		ifIndex        uint32
		cstamp, tstamp uint32
		filterIndex    uint32
		want           bool
	}{
		{"equal stamps is new", 7, 100, 100, 7, true},
		{"differing stamps is refresh", 7, 100, 200, 7, false},
		{"wrong interface never matches", 7, 100, 100, 9, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := &LinkMonitor{ifIndex: tt.filterIndex, flag: &RestartFlag{}}
			payload := buildIfaddrmsg(tt.ifIndex, tt.cstamp, tt.tstamp)
			if got := m.isNewAddr(payload); got != tt.want {
				t.Errorf("isNewAddr() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchesFilterUnfiltered(t *testing.T) {
	t.Parallel()

	m := &LinkMonitor{flag: &RestartFlag{}}
	if !m.matchesFilter(12345) {
		t.Error("matchesFilter with no ifIndex/ifName set should accept any index")
	}
}

func TestMatchesFilterByIndex(t *testing.T) {
	t.Parallel()

	m := &LinkMonitor{ifIndex: 3, flag: &RestartFlag{}}
	if !m.matchesFilter(3) {
		t.Error("matchesFilter(3) with ifIndex=3 should match")
	}
	if m.matchesFilter(4) {
		t.Error("matchesFilter(4) with ifIndex=3 should not match")
	}
}

func TestSplitNextMessage(t *testing.T) {
	t.Parallel()

	msg := make([]byte, nlmsgHdrLen+4)
	binary.LittleEndian.PutUint32(msg[0:4], uint32(len(msg)))
	binary.LittleEndian.PutUint16(msg[4:6], uint16(unix.RTM_NEWADDR))
	copy(msg[nlmsgHdrLen:], []byte{1, 2, 3, 4})

	hdr, payload, rest, ok := splitNextMessage(msg)
	if !ok {
		t.Fatal("splitNextMessage returned ok=false")
	}
	if hdr.Type != 20 { // RTM_NEWADDR
		t.Errorf("hdr.Type = %v, want RTM_NEWADDR", hdr.Type)
	}
	if len(payload) != 4 || payload[0] != 1 {
		t.Errorf("payload = %v, want [1 2 3 4]", payload)
	}
	if len(rest) != 0 {
		t.Errorf("rest = %v, want empty", rest)
	}
}

func TestSplitNextMessageRejectsTruncated(t *testing.T) {
	t.Parallel()

	_, _, _, ok := splitNextMessage([]byte{1, 2, 3})
	if ok {
		t.Error("splitNextMessage on a too-short buffer should fail")
	}
}

func TestRtaAlign(t *testing.T) {
	t.Parallel()

	tests := []struct{ n, want int }{
		{0, 0}, {1, 4}, {4, 4}, {5, 8}, {8, 8},
	}
	for _, tt := range tests {
		if got := rtaAlign(tt.n); got != tt.want {
			t.Errorf("rtaAlign(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}
