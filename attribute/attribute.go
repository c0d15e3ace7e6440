// Package attribute implements C4: the BGP path-attribute TLV codec.
// Attributes decode into typed variants where the wire format is known
// (RFC 4271 §4.3, RFC 4760, RFC 4360); an unrecognized type code decodes
// into Unknown, keeping its raw flags and value so re-encoding is lossless.
package attribute

import (
	"net"

	"github.com/route-beacon/bgpcodec/addr"
)

// Flag bits of a path attribute's flags octet (RFC 4271 §4.3).
const (
	FlagOptional   uint8 = 0x80
	FlagTransitive uint8 = 0x40
	FlagPartial    uint8 = 0x20
	FlagExtLength  uint8 = 0x10
)

// Type codes for the variants this module knows (RFC 4271 §5, RFC 4760,
// RFC 1997, RFC 4360, RFC 6793, RFC 6514, RFC 8092).
const (
	TypeOrigin          uint8 = 1
	TypeASPath          uint8 = 2
	TypeNextHop         uint8 = 3
	TypeMultiExitDisc    uint8 = 4
	TypeLocalPref       uint8 = 5
	TypeAtomicAggregate uint8 = 6
	TypeAggregator      uint8 = 7
	TypeCommunities     uint8 = 8
	TypeOriginatorID    uint8 = 9
	TypeClusterList     uint8 = 10
	TypeMPReachNLRI     uint8 = 14
	TypeMPUnreachNLRI   uint8 = 15
	TypeExtCommunities  uint8 = 16
	TypePMSITunnel      uint8 = 22
	TypeAttrSet         uint8 = 128
)

// Origin is the well-known ORIGIN attribute value (RFC 4271 §5.1.1).
type Origin uint8

const (
	OriginIGP        Origin = 0
	OriginEGP        Origin = 1
	OriginIncomplete Origin = 2
)

// ASPathSegmentType discriminates an AS_PATH segment's kind.
type ASPathSegmentType uint8

const (
	ASSet             ASPathSegmentType = 1
	ASSequence        ASPathSegmentType = 2
	ASConfedSequence  ASPathSegmentType = 3
	ASConfedSet       ASPathSegmentType = 4
)

// ASPathSegment is one segment of an AS_PATH: a type tag and an ordered
// list of ASNs, encoded at a width determined by negotiation (RFC 6793).
type ASPathSegment struct {
	Type ASPathSegmentType
	ASNs []uint32
}

// Aggregator is the AGGREGATOR attribute value: the aggregating router's
// ASN and IPv4 address.
type Aggregator struct {
	ASN uint32
	IP  net.IP
}

// MPReach is the MP_REACH_NLRI attribute value (RFC 4760 §3): an AFI/SAFI,
// a next-hop (possibly two addresses for IPv6 link-local), and the
// raw NLRI block. The NLRI block is left undecoded here — nlri.DecodeList
// needs Mode (AddPath) that this package does not own; callers decode it
// with the AFI/SAFI this struct reports.
type MPReach struct {
	AFI      uint16
	SAFI     uint8
	NextHop  net.IP
	LinkLocalNextHop net.IP // set only when the next-hop field carried 32 bytes

	// HasNextHopRD and NextHopRD hold the 8-byte route distinguisher VPNv4
	// (AFI 1 / SAFI 128) and VPNv6 (AFI 2 / SAFI 128) prepend to the
	// next-hop field (RFC 4364 §4.3.4, RFC 4659 §3.2.1) — conventionally
	// all-zero, but carried verbatim for a lossless round trip.
	HasNextHopRD bool
	NextHopRD    [8]byte

	NLRI []byte
}

// MPUnreach is the MP_UNREACH_NLRI attribute value (RFC 4760 §4).
type MPUnreach struct {
	AFI  uint16
	SAFI uint8
	NLRI []byte
}

// ExtendedCommunity is one 8-octet extended community value (RFC 4360 §3).
// Type/Subtype/Value always carry the raw wire bytes, lossless for any
// extended community type; RouteTarget is additionally populated when
// Type/Subtype identify a Route Target community (RFC 4360 §3.1), giving
// callers a typed view without losing the raw form.
type ExtendedCommunity struct {
	Type    uint8 // high octet, including the transitive bit
	Subtype uint8
	Value   [6]byte

	RouteTarget *addr.RouteTarget
}

// AttrSet is the ATTR_SET attribute value (RFC 6368 §3): an originating
// ASN followed by a nested attribute block, which callers decode with
// DecodeAll using the same width policy as the outer message.
type AttrSet struct {
	OriginatingASN uint32
	Attributes     []byte
}

// PMSITunnel is the PMSI_TUNNEL attribute value (RFC 6514 §5): a tunnel
// type, MPLS label / downstream-assigned VNI field, and tunnel-identifier
// bytes whose shape depends on Type.
type PMSITunnel struct {
	Flags      uint8
	TunnelType uint8
	Label      [3]byte
	Identifier []byte
}

// Attribute is one decoded path attribute. Flags and Type always apply;
// exactly one of the typed fields applies per Type, selected the way
// nlri.Entry selects its per-family fields — except for Unknown, which
// applies whenever Type is not one this package recognizes.
type Attribute struct {
	Flags uint8
	Type  uint8

	OriginValue Origin
	ASPath      []ASPathSegment
	NextHop     net.IP
	MED         uint32
	LocalPref   uint32
	Aggregator  Aggregator
	Communities []uint32
	OriginatorID net.IP
	ClusterList []net.IP
	MPReach     *MPReach
	MPUnreach   *MPUnreach
	ExtCommunities []ExtendedCommunity
	AttrSetValue   *AttrSet
	PMSI           *PMSITunnel

	// Unknown holds the raw value for any Type not listed above, and is
	// also used for AtomicAggregate (Unknown == empty slice, non-nil).
	Unknown []byte
}

// IsKnown reports whether Type is one of the variants this package decodes
// into typed fields (AtomicAggregate included, since its value is always
// empty and carries no separate field).
func (a Attribute) IsKnown() bool {
	switch a.Type {
	case TypeOrigin, TypeASPath, TypeNextHop, TypeMultiExitDisc, TypeLocalPref,
		TypeAtomicAggregate, TypeAggregator, TypeCommunities, TypeOriginatorID,
		TypeClusterList, TypeMPReachNLRI, TypeMPUnreachNLRI, TypeExtCommunities,
		TypePMSITunnel, TypeAttrSet:
		return true
	default:
		return false
	}
}
