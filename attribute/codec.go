package attribute

import (
	"github.com/route-beacon/bgpcodec/addr"
	"github.com/route-beacon/bgpcodec/wire"
	"github.com/route-beacon/bgpcodec/wireerr"
)

// DecodeAll decodes a whole path-attribute block (the UPDATE message's
// path-attributes section) into a slice, in the wire order encountered.
// asnWidth selects 2 or 4 for AS_PATH's ASN field; callers with a
// negotiated 4-octet-ASN session pass 4, everyone else passes 2
// (RFC 6793).
func DecodeAll(buf []byte, asnWidth int) ([]Attribute, error) {
	var attrs []Attribute
	offset := 0
	for offset < len(buf) {
		a, n, err := Decode(buf[offset:], asnWidth)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
		offset += n
	}
	return attrs, nil
}

// EncodeAll is the encode-side counterpart of DecodeAll.
func EncodeAll(buf []byte, attrs []Attribute, asnWidth int) (int, error) {
	offset := 0
	for _, a := range attrs {
		n, err := Encode(buf[offset:], a, asnWidth)
		if err != nil {
			return 0, err
		}
		offset += n
	}
	return offset, nil
}

// Decode decodes one path attribute: flags byte, type code, a 1- or
// 2-octet length depending on the extended-length flag, then the value
// (RFC 4271 §4.3).
func Decode(buf []byte, asnWidth int) (Attribute, int, error) {
	if len(buf) < 2 {
		return Attribute{}, 0, wireerr.NewInsufficientBuffer(2, len(buf))
	}
	flags := buf[0]
	typeCode := buf[1]
	offset := 2

	var length int
	if flags&FlagExtLength != 0 {
		l, n, err := wire.ReadUint16(buf[offset:])
		if err != nil {
			return Attribute{}, 0, err
		}
		length = int(l)
		offset += n
	} else {
		l, n, err := wire.ReadUint8(buf[offset:])
		if err != nil {
			return Attribute{}, 0, err
		}
		length = int(l)
		offset += n
	}

	if len(buf) < offset+length {
		return Attribute{}, 0, wireerr.NewInsufficientBuffer(offset+length, len(buf))
	}
	value := buf[offset : offset+length]
	offset += length

	a := Attribute{Flags: flags, Type: typeCode}
	if err := decodeValue(&a, value, asnWidth); err != nil {
		return Attribute{}, 0, err
	}
	return a, offset, nil
}

func decodeValue(a *Attribute, value []byte, asnWidth int) error {
	switch a.Type {
	case TypeOrigin:
		if len(value) != 1 {
			return wireerr.NewMalformedFieldf("attribute.origin", "expected 1-byte value, got %d", len(value))
		}
		a.OriginValue = Origin(value[0])

	case TypeASPath:
		segments, err := decodeASPath(value, asnWidth)
		if err != nil {
			return err
		}
		a.ASPath = segments

	case TypeNextHop:
		ip, _, err := wire.ReadIPv4(value)
		if err != nil {
			return err
		}
		a.NextHop = ip

	case TypeMultiExitDisc:
		v, _, err := wire.ReadUint32(value)
		if err != nil {
			return err
		}
		a.MED = v

	case TypeLocalPref:
		v, _, err := wire.ReadUint32(value)
		if err != nil {
			return err
		}
		a.LocalPref = v

	case TypeAtomicAggregate:
		if len(value) != 0 {
			return wireerr.NewMalformedField("attribute.atomic_aggregate", "expected empty value")
		}
		a.Unknown = []byte{}

	case TypeAggregator:
		agg, err := decodeAggregator(value)
		if err != nil {
			return err
		}
		a.Aggregator = agg

	case TypeCommunities:
		if len(value)%4 != 0 {
			return wireerr.NewMalformedField("attribute.communities", "value length not a multiple of 4")
		}
		for i := 0; i < len(value); i += 4 {
			v, _, _ := wire.ReadUint32(value[i : i+4])
			a.Communities = append(a.Communities, v)
		}

	case TypeOriginatorID:
		ip, _, err := wire.ReadIPv4(value)
		if err != nil {
			return err
		}
		a.OriginatorID = ip

	case TypeClusterList:
		if len(value)%4 != 0 {
			return wireerr.NewMalformedField("attribute.cluster_list", "value length not a multiple of 4")
		}
		for i := 0; i < len(value); i += 4 {
			ip, _, _ := wire.ReadIPv4(value[i : i+4])
			a.ClusterList = append(a.ClusterList, ip)
		}

	case TypeMPReachNLRI:
		mp, err := decodeMPReach(value)
		if err != nil {
			return err
		}
		a.MPReach = mp

	case TypeMPUnreachNLRI:
		mp, err := decodeMPUnreach(value)
		if err != nil {
			return err
		}
		a.MPUnreach = mp

	case TypeExtCommunities:
		if len(value)%8 != 0 {
			return wireerr.NewMalformedField("attribute.ext_communities", "value length not a multiple of 8")
		}
		for i := 0; i < len(value); i += 8 {
			var v [6]byte
			copy(v[:], value[i+2:i+8])
			ec := ExtendedCommunity{Type: value[i], Subtype: value[i+1], Value: v}
			if rt, ok := routeTargetFromExtCommunity(ec); ok {
				ec.RouteTarget = &rt
			}
			a.ExtCommunities = append(a.ExtCommunities, ec)
		}

	case TypeAttrSet:
		if len(value) < 4 {
			return wireerr.NewInsufficientBuffer(4, len(value))
		}
		asn, _, _ := wire.ReadUint32(value)
		a.AttrSetValue = &AttrSet{OriginatingASN: asn, Attributes: append([]byte{}, value[4:]...)}

	case TypePMSITunnel:
		pmsi, err := decodePMSITunnel(value)
		if err != nil {
			return err
		}
		a.PMSI = pmsi

	default:
		a.Unknown = append([]byte{}, value...)
	}
	return nil
}

// Extended community type/subtype octets identifying a Route Target
// (RFC 4360 §3.1): subtype 0x02 under any of the three transitive
// two-octet-AS/IPv4/four-octet-AS types.
const (
	extCommTypeAS2            uint8 = 0x00
	extCommTypeIPv4           uint8 = 0x01
	extCommTypeAS4            uint8 = 0x02
	extCommSubtypeRouteTarget uint8 = 0x02
)

// routeTargetFromExtCommunity reports whether c's type/subtype identify a
// Route Target community and, if so, decodes its value.
func routeTargetFromExtCommunity(c ExtendedCommunity) (addr.RouteTarget, bool) {
	if c.Subtype != extCommSubtypeRouteTarget {
		return addr.RouteTarget{}, false
	}
	var rtType addr.RouteTargetType
	switch c.Type {
	case extCommTypeAS2:
		rtType = addr.RouteTargetAS2
	case extCommTypeIPv4:
		rtType = addr.RouteTargetIPv4
	case extCommTypeAS4:
		rtType = addr.RouteTargetAS4
	default:
		return addr.RouteTarget{}, false
	}
	rt, err := addr.DecodeRouteTarget(rtType, c.Value)
	if err != nil {
		return addr.RouteTarget{}, false
	}
	return rt, true
}

// routeTargetExtCommunityType maps a RouteTargetType to its extended
// community type octet.
func routeTargetExtCommunityType(t addr.RouteTargetType) uint8 {
	switch t {
	case addr.RouteTargetIPv4:
		return extCommTypeIPv4
	case addr.RouteTargetAS4:
		return extCommTypeAS4
	default:
		return extCommTypeAS2
	}
}

// decodeASPath decodes a sequence of {type, count, ASNs} segments. The
// count field is a count of ASNs, not a byte count, and the segment's
// remaining bytes must divide evenly by asnWidth (RFC 4271 §4.3).
func decodeASPath(value []byte, asnWidth int) ([]ASPathSegment, error) {
	var segments []ASPathSegment
	offset := 0
	for offset < len(value) {
		if len(value) < offset+2 {
			return nil, wireerr.NewInsufficientBuffer(offset+2, len(value))
		}
		segType := ASPathSegmentType(value[offset])
		count := int(value[offset+1])
		offset += 2

		// value is already sliced to this attribute's declared TLV length,
		// so a shortfall here is never "need more bytes": it's the
		// segment's byte count failing to divide evenly by asnWidth.
		need := count * asnWidth
		if len(value) < offset+need {
			return nil, wireerr.NewMalformedFieldf("attribute.as_path.segment", "segment declares %d ASNs at width %d but only %d bytes remain", count, asnWidth, len(value)-offset)
		}

		asns := make([]uint32, count)
		for i := 0; i < count; i++ {
			if asnWidth == 4 {
				v, _, _ := wire.ReadUint32(value[offset:])
				asns[i] = v
			} else {
				v, _, _ := wire.ReadUint16(value[offset:])
				asns[i] = uint32(v)
			}
			offset += asnWidth
		}
		segments = append(segments, ASPathSegment{Type: segType, ASNs: asns})
	}
	return segments, nil
}

// decodeAggregator infers ASN width from the value's own length (6 bytes
// means 2-octet ASN, 8 means 4-octet) rather than from negotiation — the
// length alone disambiguates it, which is what makes BMP PeerUp-adaptive
// decoding possible without a cache.
func decodeAggregator(value []byte) (Aggregator, error) {
	switch len(value) {
	case 6:
		asn, _, _ := wire.ReadUint16(value[0:2])
		ip, _, err := wire.ReadIPv4(value[2:6])
		if err != nil {
			return Aggregator{}, err
		}
		return Aggregator{ASN: uint32(asn), IP: ip}, nil
	case 8:
		asn, _, _ := wire.ReadUint32(value[0:4])
		ip, _, err := wire.ReadIPv4(value[4:8])
		if err != nil {
			return Aggregator{}, err
		}
		return Aggregator{ASN: asn, IP: ip}, nil
	default:
		return Aggregator{}, wireerr.NewMalformedFieldf("attribute.aggregator", "expected 6 or 8 byte value, got %d", len(value))
	}
}

// decodeMPReach decodes MP_REACH_NLRI's fixed header (RFC 4760 §3): AFI,
// SAFI, a next-hop length octet, the next-hop itself, an SNPA count octet
// (always 0 in modern BGP but still framed), then the NLRI block. VPNv4 and
// VPNv6 next-hops (RFC 4364 §4.3.4, RFC 4659 §3.2.1) prepend an 8-byte route
// distinguisher ahead of the IPv4/IPv6 address, so a 12- or 24-byte
// next-hop is the RD-prefixed form of the plain 4- or 16-byte one.
func decodeMPReach(value []byte) (*MPReach, error) {
	if len(value) < 5 {
		return nil, wireerr.NewInsufficientBuffer(5, len(value))
	}
	afi, _, _ := wire.ReadUint16(value[0:2])
	safi := value[2]
	nhLen := int(value[3])
	offset := 4
	if len(value) < offset+nhLen {
		return nil, wireerr.NewInsufficientBuffer(offset+nhLen, len(value))
	}
	mp := &MPReach{AFI: afi, SAFI: safi}
	nhOffset := offset
	if nhLen == 12 || nhLen == 24 {
		mp.HasNextHopRD = true
		copy(mp.NextHopRD[:], value[nhOffset:nhOffset+8])
		nhOffset += 8
		nhLen -= 8
	}
	switch nhLen {
	case 4, 16:
		ip := make([]byte, nhLen)
		copy(ip, value[nhOffset:nhOffset+nhLen])
		mp.NextHop = ip
	case 32:
		mp.NextHop = append([]byte{}, value[nhOffset:nhOffset+16]...)
		mp.LinkLocalNextHop = append([]byte{}, value[nhOffset+16:nhOffset+32]...)
	default:
		return nil, wireerr.NewMalformedFieldf("attribute.mp_reach.next_hop", "unsupported next-hop length %d", nhLen)
	}
	offset = nhOffset + nhLen

	if len(value) < offset+1 {
		return nil, wireerr.NewInsufficientBuffer(offset+1, len(value))
	}
	snpaCount := int(value[offset])
	offset++
	for i := 0; i < snpaCount; i++ {
		if len(value) < offset+1 {
			return nil, wireerr.NewInsufficientBuffer(offset+1, len(value))
		}
		snpaLen := int(value[offset])
		offset++
		snpaByteLen := (snpaLen + 1) / 2
		if len(value) < offset+snpaByteLen {
			return nil, wireerr.NewInsufficientBuffer(offset+snpaByteLen, len(value))
		}
		offset += snpaByteLen
	}

	mp.NLRI = append([]byte{}, value[offset:]...)
	return mp, nil
}

// decodeMPUnreach decodes MP_UNREACH_NLRI (RFC 4760 §4): AFI, SAFI, NLRI.
func decodeMPUnreach(value []byte) (*MPUnreach, error) {
	if len(value) < 3 {
		return nil, wireerr.NewInsufficientBuffer(3, len(value))
	}
	afi, _, _ := wire.ReadUint16(value[0:2])
	safi := value[2]
	return &MPUnreach{AFI: afi, SAFI: safi, NLRI: append([]byte{}, value[3:]...)}, nil
}

// decodePMSITunnel decodes PMSI_TUNNEL (RFC 6514 §5): a flags octet, a
// tunnel-type octet, a 3-octet MPLS label, then a tunnel-type-specific
// identifier consuming the remainder of the value.
func decodePMSITunnel(value []byte) (*PMSITunnel, error) {
	if len(value) < 5 {
		return nil, wireerr.NewInsufficientBuffer(5, len(value))
	}
	p := &PMSITunnel{Flags: value[0], TunnelType: value[1]}
	copy(p.Label[:], value[2:5])
	p.Identifier = append([]byte{}, value[5:]...)
	return p, nil
}

// Encode serializes one attribute, choosing the 1- or 2-octet length form
// based on FlagExtLength in a.Flags.
func Encode(buf []byte, a Attribute, asnWidth int) (int, error) {
	value, err := encodeValue(a, asnWidth)
	if err != nil {
		return 0, err
	}

	headerLen := 3
	if a.Flags&FlagExtLength != 0 {
		headerLen = 4
	}
	if len(buf) < headerLen+len(value) {
		return 0, wireerr.NewInsufficientBuffer(headerLen+len(value), len(buf))
	}

	buf[0] = a.Flags
	buf[1] = a.Type
	offset := 2
	if a.Flags&FlagExtLength != 0 {
		wire.WriteUint16(buf[offset:], uint16(len(value)))
		offset += 2
	} else {
		if len(value) > 0xFF {
			return 0, wireerr.NewMalformedField("attribute.length", "value exceeds 255 bytes without extended-length flag set")
		}
		buf[offset] = uint8(len(value))
		offset++
	}
	copy(buf[offset:], value)
	offset += len(value)
	return offset, nil
}

func encodeValue(a Attribute, asnWidth int) ([]byte, error) {
	switch a.Type {
	case TypeOrigin:
		return []byte{uint8(a.OriginValue)}, nil

	case TypeASPath:
		return encodeASPath(a.ASPath, asnWidth)

	case TypeNextHop:
		out := make([]byte, 4)
		if _, err := wire.WriteIPv4(out, a.NextHop); err != nil {
			return nil, err
		}
		return out, nil

	case TypeMultiExitDisc:
		out := make([]byte, 4)
		wire.WriteUint32(out, a.MED)
		return out, nil

	case TypeLocalPref:
		out := make([]byte, 4)
		wire.WriteUint32(out, a.LocalPref)
		return out, nil

	case TypeAtomicAggregate:
		return []byte{}, nil

	case TypeAggregator:
		if asnWidth == 4 {
			out := make([]byte, 8)
			wire.WriteUint32(out[0:4], a.Aggregator.ASN)
			if _, err := wire.WriteIPv4(out[4:8], a.Aggregator.IP); err != nil {
				return nil, err
			}
			return out, nil
		}
		out := make([]byte, 6)
		wire.WriteUint16(out[0:2], uint16(a.Aggregator.ASN))
		if _, err := wire.WriteIPv4(out[2:6], a.Aggregator.IP); err != nil {
			return nil, err
		}
		return out, nil

	case TypeCommunities:
		out := make([]byte, 4*len(a.Communities))
		for i, c := range a.Communities {
			wire.WriteUint32(out[i*4:], c)
		}
		return out, nil

	case TypeOriginatorID:
		out := make([]byte, 4)
		if _, err := wire.WriteIPv4(out, a.OriginatorID); err != nil {
			return nil, err
		}
		return out, nil

	case TypeClusterList:
		out := make([]byte, 4*len(a.ClusterList))
		for i, ip := range a.ClusterList {
			if _, err := wire.WriteIPv4(out[i*4:i*4+4], ip); err != nil {
				return nil, err
			}
		}
		return out, nil

	case TypeMPReachNLRI:
		return encodeMPReach(a.MPReach)

	case TypeMPUnreachNLRI:
		out := make([]byte, 3+len(a.MPUnreach.NLRI))
		wire.WriteUint16(out[0:2], a.MPUnreach.AFI)
		out[2] = a.MPUnreach.SAFI
		copy(out[3:], a.MPUnreach.NLRI)
		return out, nil

	case TypeExtCommunities:
		out := make([]byte, 8*len(a.ExtCommunities))
		for i, c := range a.ExtCommunities {
			typ, subtype, val := c.Type, c.Subtype, c.Value
			if c.RouteTarget != nil {
				encoded, err := addr.EncodeRouteTarget(*c.RouteTarget)
				if err != nil {
					return nil, err
				}
				typ = routeTargetExtCommunityType(c.RouteTarget.Type)
				subtype = extCommSubtypeRouteTarget
				val = encoded
			}
			out[i*8] = typ
			out[i*8+1] = subtype
			copy(out[i*8+2:i*8+8], val[:])
		}
		return out, nil

	case TypeAttrSet:
		out := make([]byte, 4+len(a.AttrSetValue.Attributes))
		wire.WriteUint32(out[0:4], a.AttrSetValue.OriginatingASN)
		copy(out[4:], a.AttrSetValue.Attributes)
		return out, nil

	case TypePMSITunnel:
		out := make([]byte, 5+len(a.PMSI.Identifier))
		out[0] = a.PMSI.Flags
		out[1] = a.PMSI.TunnelType
		copy(out[2:5], a.PMSI.Label[:])
		copy(out[5:], a.PMSI.Identifier)
		return out, nil

	default:
		return append([]byte{}, a.Unknown...), nil
	}
}

func encodeASPath(segments []ASPathSegment, asnWidth int) ([]byte, error) {
	var out []byte
	for _, seg := range segments {
		if len(seg.ASNs) > 0xFF {
			return nil, wireerr.NewMalformedField("attribute.as_path.segment", "segment carries more than 255 ASNs")
		}
		out = append(out, uint8(seg.Type), uint8(len(seg.ASNs)))
		for _, asn := range seg.ASNs {
			if asnWidth == 4 {
				var b [4]byte
				wire.WriteUint32(b[:], asn)
				out = append(out, b[:]...)
			} else {
				var b [2]byte
				wire.WriteUint16(b[:], uint16(asn))
				out = append(out, b[:]...)
			}
		}
	}
	return out, nil
}

func encodeMPReach(mp *MPReach) ([]byte, error) {
	var nh []byte
	if mp.LinkLocalNextHop != nil {
		nh = append(append([]byte{}, mp.NextHop...), mp.LinkLocalNextHop...)
	} else {
		nh = mp.NextHop
	}
	if mp.HasNextHopRD {
		nh = append(append([]byte{}, mp.NextHopRD[:]...), nh...)
	}
	out := make([]byte, 4+len(nh)+1+len(mp.NLRI))
	wire.WriteUint16(out[0:2], mp.AFI)
	out[2] = mp.SAFI
	out[3] = uint8(len(nh))
	copy(out[4:4+len(nh)], nh)
	out[4+len(nh)] = 0 // SNPA count, always 0
	copy(out[4+len(nh)+1:], mp.NLRI)
	return out, nil
}
