package bgp

import (
	"errors"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/route-beacon/bgpcodec/addr"
	"github.com/route-beacon/bgpcodec/attribute"
	"github.com/route-beacon/bgpcodec/nlri"
	"github.com/route-beacon/bgpcodec/session"
	"github.com/route-beacon/bgpcodec/wireerr"
)

// ipComparer lets cmp.Diff treat net.IP values by their address semantics
// (net.IP.Equal) rather than raw byte-slice length, since a 4-byte and a
// 16-byte net.IP can represent the same IPv4 address.
var ipComparer = cmp.Comparer(func(a, b net.IP) bool { return a.Equal(b) })

func TestDecodeMessageHeadMarkerMismatch(t *testing.T) {
	buf := make([]byte, HeaderSize)
	for i := range buf[:16] {
		buf[i] = 0xFF
	}
	buf[0] = 0x00 // corrupt the marker
	_, _, err := DecodeMessageHead(buf)
	if err == nil || !errorsIsMarkerMismatch(err) {
		t.Fatalf("expected MarkerMismatch, got %v", err)
	}
}

func errorsIsMarkerMismatch(err error) bool {
	we, ok := err.(*wireerr.Error)
	return ok && we.Kind == wireerr.MarkerMismatch
}

func TestPrepareAndDecodeMessageHeadRoundTrip(t *testing.T) {
	buf := make([]byte, 64)
	total, err := PrepareMessageBuf(buf, MessageKeepalive, 0)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	typ, bodyLen, err := DecodeMessageHead(buf[:total])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if typ != MessageKeepalive || bodyLen != 0 {
		t.Errorf("got type=%d bodyLen=%d", typ, bodyLen)
	}
}

func TestOpenRoundTripWithFourOctetASN(t *testing.T) {
	msg := OpenMessage{
		Version:  OpenVersion,
		ASN:      4200000001,
		HoldTime: 180,
		RouterID: [4]byte{1, 1, 1, 1},
		Capabilities: []session.Capability{
			{Code: session.CapFourOctetASN, ASN: 4200000001},
		},
	}
	buf := make([]byte, 64)
	n, err := EncodeOpen(buf, msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, consumed, err := DecodeOpen(buf[:n])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if consumed != n {
		t.Fatalf("consumed %d, want %d", consumed, n)
	}
	if diff := cmp.Diff(msg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenPreservesUnknownCapability(t *testing.T) {
	msg := OpenMessage{
		Version:  OpenVersion,
		ASN:      64512,
		HoldTime: 90,
		RouterID: [4]byte{10, 0, 0, 1},
		Capabilities: []session.Capability{
			session.NewUnknownCapability(200, []byte{0x01, 0x02}),
		},
	}
	buf := make([]byte, 64)
	n, err := EncodeOpen(buf, msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, _, err := DecodeOpen(buf[:n])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Capabilities) != 1 || got.Capabilities[0].UnknownCode != 200 {
		t.Fatalf("expected unknown capability preserved, got %+v", got.Capabilities)
	}
}

func TestUpdateRoundTripSingleAnnounce(t *testing.T) {
	msg := UpdateMessage{
		Attributes: []attribute.Attribute{
			{Flags: attribute.FlagTransitive, Type: attribute.TypeOrigin, OriginValue: attribute.OriginIGP},
			{Flags: attribute.FlagTransitive, Type: attribute.TypeASPath, ASPath: []attribute.ASPathSegment{{Type: attribute.ASSequence, ASNs: []uint32{64512}}}},
			{Flags: attribute.FlagTransitive, Type: attribute.TypeNextHop, NextHop: net.IPv4(10, 0, 0, 1).To4()},
		},
		NLRI: []nlri.Entry{
			{AFI: addr.AFIIPv4, SAFI: addr.SAFIUnicast, Prefix: addr.BgpNet{IP: net.IPv4(192, 0, 2, 0).To4(), Bits: 24}},
		},
	}
	buf := make([]byte, 256)
	n, err := EncodeUpdate(buf, msg, 2, false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, consumed, err := DecodeUpdate(buf[:n], 2, false)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if consumed != n {
		t.Fatalf("consumed %d, want %d", consumed, n)
	}
	if diff := cmp.Diff(msg, got, ipComparer); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateIsEndOfRIBForIPv4Unicast(t *testing.T) {
	_, _, ok := IsEndOfRIB(UpdateMessage{})
	if !ok {
		t.Fatal("expected empty UPDATE to be End-of-RIB for IPv4 unicast")
	}
}

func TestUpdateIsEndOfRIBForOtherFamily(t *testing.T) {
	msg := UpdateMessage{
		Attributes: []attribute.Attribute{
			{Type: attribute.TypeMPUnreachNLRI, MPUnreach: &attribute.MPUnreach{AFI: addr.AFIIPv6, SAFI: addr.SAFIUnicast}},
		},
	}
	afi, safi, ok := IsEndOfRIB(msg)
	if !ok || afi != addr.AFIIPv6 || safi != addr.SAFIUnicast {
		t.Fatalf("expected IPv6 unicast End-of-RIB, got afi=%d safi=%d ok=%v", afi, safi, ok)
	}
}

func TestNotificationRoundTrip(t *testing.T) {
	msg := NotificationMessage{ErrorCode: 6, ErrorSubcode: 2, Data: []byte{0xAA}}
	buf := make([]byte, 16)
	n, err := EncodeNotification(buf, msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, consumed, err := DecodeNotification(buf[:n])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if consumed != n {
		t.Fatalf("consumed %d, want %d", consumed, n)
	}
	if diff := cmp.Diff(msg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestKeepaliveRejectsNonEmptyBody(t *testing.T) {
	if err := DecodeKeepalive([]byte{0x01}); err == nil {
		t.Fatal("expected error for non-empty KEEPALIVE body")
	}
}

func TestASPathWidthMismatchFailsAtUpdateLevel(t *testing.T) {
	// AS_PATH segment declaring 3 ASNs in 12 bytes decoded at 4-byte
	// width needs exactly 12 bytes — force a genuine mismatch by
	// declaring 3 ASNs but supplying only 8 bytes of ASN data.
	asPathValue := []byte{uint8(attribute.ASSequence), 3, 0, 0, 0xFC, 0x00, 0, 0, 0xFC, 0x01}
	attrs := []byte{attribute.FlagTransitive, attribute.TypeASPath, uint8(len(asPathValue))}
	attrs = append(attrs, asPathValue...)

	buf := make([]byte, 4+len(attrs))
	buf[0] = 0
	buf[1] = 0 // withdrawn length 0
	buf[2] = byte(len(attrs) >> 8)
	buf[3] = byte(len(attrs))
	copy(buf[4:], attrs)

	_, _, err := DecodeUpdate(buf, 4, false)
	var werr *wireerr.Error
	if !errors.As(err, &werr) || werr.Kind != wireerr.MalformedField {
		t.Fatalf("expected MalformedField, got %v", err)
	}
}
