package attribute

import (
	"errors"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/route-beacon/bgpcodec/addr"
	"github.com/route-beacon/bgpcodec/wireerr"
)

// ipComparer lets cmp.Diff treat net.IP values by their address semantics
// (net.IP.Equal) rather than raw byte-slice length, since a 4-byte and a
// 16-byte net.IP can represent the same IPv4 address.
var ipComparer = cmp.Comparer(func(a, b net.IP) bool { return a.Equal(b) })

func TestOriginRoundTrip(t *testing.T) {
	a := Attribute{Flags: FlagTransitive, Type: TypeOrigin, OriginValue: OriginIGP}
	buf := make([]byte, 8)
	n, err := Encode(buf, a, 2)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, consumed, err := Decode(buf[:n], 2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if consumed != n {
		t.Fatalf("consumed %d, want %d", consumed, n)
	}
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestASPathTwoOctetRoundTrip(t *testing.T) {
	a := Attribute{
		Flags: FlagTransitive,
		Type:  TypeASPath,
		ASPath: []ASPathSegment{
			{Type: ASSequence, ASNs: []uint32{64512, 64513}},
		},
	}
	buf := make([]byte, 16)
	n, err := Encode(buf, a, 2)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, _, err := Decode(buf[:n], 2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestASPathWidthMismatchFails(t *testing.T) {
	// Segment declares 3 ASNs at 2-octet width, which needs 3*2=6 bytes,
	// but carries only 5 bytes of ASN data, so the third ASN is incomplete.
	value := []byte{uint8(ASSequence), 3, 0, 1, 0, 2, 0} // only 5 bytes of ASN data for 3*2=6 needed
	buf := append([]byte{FlagTransitive, TypeASPath, uint8(len(value))}, value...)
	_, _, err := Decode(buf, 2)
	var werr *wireerr.Error
	if !errors.As(err, &werr) || werr.Kind != wireerr.MalformedField {
		t.Fatalf("expected MalformedField, got %v", err)
	}
}

func TestASPathFourOctetWidth(t *testing.T) {
	a := Attribute{
		Flags:  FlagTransitive,
		Type:   TypeASPath,
		ASPath: []ASPathSegment{{Type: ASSequence, ASNs: []uint32{4200000001, 4200000002}}},
	}
	buf := make([]byte, 32)
	n, err := Encode(buf, a, 4)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, _, err := Decode(buf[:n], 4)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregatorWidthInferredFromLength(t *testing.T) {
	a2 := Attribute{Flags: FlagOptional | FlagTransitive, Type: TypeAggregator, Aggregator: Aggregator{ASN: 64512, IP: net.IPv4(1, 2, 3, 4).To4()}}
	buf := make([]byte, 16)
	n, err := Encode(buf, a2, 2)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, _, err := Decode(buf[:n], 2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(a2, got, ipComparer); diff != "" {
		t.Errorf("2-byte aggregator mismatch (-want +got):\n%s", diff)
	}

	a4 := Attribute{Flags: FlagOptional | FlagTransitive, Type: TypeAggregator, Aggregator: Aggregator{ASN: 4200000001, IP: net.IPv4(1, 2, 3, 4).To4()}}
	n, err = Encode(buf, a4, 4)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, _, err = Decode(buf[:n], 4)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(a4, got, ipComparer); diff != "" {
		t.Errorf("4-byte aggregator mismatch (-want +got):\n%s", diff)
	}
}

func TestMPReachRoundTrip(t *testing.T) {
	a := Attribute{
		Flags: FlagOptional,
		Type:  TypeMPReachNLRI,
		MPReach: &MPReach{
			AFI:     2,
			SAFI:    1,
			NextHop: net.ParseIP("2001:db8::1"),
			NLRI:    []byte{0x40, 0x20, 0x01, 0x0d, 0xb8},
		},
	}
	buf := make([]byte, 64)
	n, err := Encode(buf, a, 2)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, consumed, err := Decode(buf[:n], 2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if consumed != n {
		t.Fatalf("consumed %d, want %d", consumed, n)
	}
	if diff := cmp.Diff(a, got, ipComparer); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMPReachVPNv4NextHopRoundTrip(t *testing.T) {
	// VPNv4 MP_REACH_NLRI's next-hop is an 8-byte route distinguisher
	// prepended to the IPv4 address (RFC 4364 §4.3.4), conventionally
	// all-zero.
	a := Attribute{
		Flags: FlagOptional,
		Type:  TypeMPReachNLRI,
		MPReach: &MPReach{
			AFI:          1,
			SAFI:         128,
			HasNextHopRD: true,
			NextHop:      net.ParseIP("198.51.100.1").To4(),
			NLRI:         []byte{0x00},
		},
	}
	buf := make([]byte, 64)
	n, err := Encode(buf, a, 2)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, consumed, err := Decode(buf[:n], 2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if consumed != n {
		t.Fatalf("consumed %d, want %d", consumed, n)
	}
	if diff := cmp.Diff(a, got, ipComparer); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestExtCommunitiesRouteTargetRoundTrip(t *testing.T) {
	a := Attribute{
		Flags: FlagOptional | FlagTransitive,
		Type:  TypeExtCommunities,
		ExtCommunities: []ExtendedCommunity{
			{RouteTarget: &addr.RouteTarget{Type: addr.RouteTargetAS2, ASN: 64512, Assigned: 100}},
			{Type: 0x03, Subtype: 0x0c, Value: [6]byte{0, 0, 0, 0, 0, 1}}, // unrelated community, passed through raw
		},
	}
	buf := make([]byte, 32)
	n, err := Encode(buf, a, 2)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, consumed, err := Decode(buf[:n], 2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if consumed != n || len(got.ExtCommunities) != 2 {
		t.Fatalf("got %+v", got.ExtCommunities)
	}
	rt := got.ExtCommunities[0].RouteTarget
	if rt == nil || rt.Type != addr.RouteTargetAS2 || rt.ASN != 64512 || rt.Assigned != 100 {
		t.Fatalf("expected decoded Route Target, got %+v", rt)
	}
	if got.ExtCommunities[1].RouteTarget != nil {
		t.Fatalf("unrelated community should not decode as a Route Target, got %+v", got.ExtCommunities[1].RouteTarget)
	}
	if got.ExtCommunities[1].Type != 0x03 || got.ExtCommunities[1].Subtype != 0x0c {
		t.Fatalf("unrelated community mismatch: %+v", got.ExtCommunities[1])
	}
}

func TestUnknownTypePassthrough(t *testing.T) {
	a := Attribute{Flags: FlagOptional, Type: 200, Unknown: []byte{0xDE, 0xAD, 0xBE, 0xEF}}
	buf := make([]byte, 16)
	n, err := Encode(buf, a, 2)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, _, err := Decode(buf[:n], 2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.IsKnown() {
		t.Error("expected unrecognized type to be reported unknown")
	}
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestExtendedLengthRoundTrip(t *testing.T) {
	communities := make([]uint32, 100)
	for i := range communities {
		communities[i] = uint32(i)
	}
	a := Attribute{Flags: FlagOptional | FlagTransitive | FlagExtLength, Type: TypeCommunities, Communities: communities}
	buf := make([]byte, 1024)
	n, err := Encode(buf, a, 2)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, consumed, err := Decode(buf[:n], 2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if consumed != n {
		t.Fatalf("consumed %d, want %d", consumed, n)
	}
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeAllMultipleAttributes(t *testing.T) {
	buf := make([]byte, 64)
	n1, _ := Encode(buf, Attribute{Flags: FlagTransitive, Type: TypeOrigin, OriginValue: OriginEGP}, 2)
	n2, _ := Encode(buf[n1:], Attribute{Flags: FlagTransitive, Type: TypeLocalPref, LocalPref: 100}, 2)
	got, err := DecodeAll(buf[:n1+n2], 2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []Attribute{
		{Flags: FlagTransitive, Type: TypeOrigin, OriginValue: OriginEGP},
		{Flags: FlagTransitive, Type: TypeLocalPref, LocalPref: 100},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
