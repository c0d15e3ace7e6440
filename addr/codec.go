package addr

import (
	"github.com/route-beacon/bgpcodec/wire"
	"github.com/route-beacon/bgpcodec/wireerr"
)

// DecodeRD decodes an 8-octet Route Distinguisher (RFC 4364 §4).
func DecodeRD(buf []byte) (RouteDistinguisher, int, error) {
	if len(buf) < 8 {
		return RouteDistinguisher{}, 0, wireerr.NewInsufficientBuffer(8, len(buf))
	}
	typ, _, _ := wire.ReadUint16(buf)
	rd := RouteDistinguisher{Type: RDType(typ)}
	switch rd.Type {
	case RDTypeAS2:
		asn, _, _ := wire.ReadUint16(buf[2:4])
		assigned, _, _ := wire.ReadUint32(buf[4:8])
		rd.ASN = uint32(asn)
		rd.Assigned = assigned
	case RDTypeIPv4:
		ip, _, _ := wire.ReadIPv4(buf[2:6])
		assigned, _, _ := wire.ReadUint16(buf[6:8])
		rd.IP = ip
		rd.Assigned = uint32(assigned)
	case RDTypeAS4:
		asn, _, _ := wire.ReadUint32(buf[2:6])
		assigned, _, _ := wire.ReadUint16(buf[6:8])
		rd.ASN = asn
		rd.Assigned = uint32(assigned)
	default:
		return RouteDistinguisher{}, 0, wireerr.NewMalformedFieldf("route_distinguisher.type", "unknown RD type %d", typ)
	}
	return rd, 8, nil
}

// EncodeRD encodes an 8-octet Route Distinguisher into buf[0:8].
func EncodeRD(buf []byte, rd RouteDistinguisher) (int, error) {
	if len(buf) < 8 {
		return 0, wireerr.NewInsufficientBuffer(8, len(buf))
	}
	wire.WriteUint16(buf, uint16(rd.Type))
	switch rd.Type {
	case RDTypeAS2:
		wire.WriteUint16(buf[2:4], uint16(rd.ASN))
		wire.WriteUint32(buf[4:8], rd.Assigned)
	case RDTypeIPv4:
		if _, err := wire.WriteIPv4(buf[2:6], rd.IP); err != nil {
			return 0, err
		}
		wire.WriteUint16(buf[6:8], uint16(rd.Assigned))
	case RDTypeAS4:
		wire.WriteUint32(buf[2:6], rd.ASN)
		wire.WriteUint16(buf[6:8], uint16(rd.Assigned))
	default:
		return 0, wireerr.NewMalformedFieldf("route_distinguisher.type", "unknown RD type %d", rd.Type)
	}
	return 8, nil
}

// DecodeLabelStack peels 3-octet MPLS labels from buf until it sees the
// bottom-of-stack bit set (or hits the withdraw sentinel, whose wire octets
// have the bottom bit clear but which UnpackLabel3 returns with Bottom set),
// bounded by declaredBits — the portion
// of a prefix's declared bit length attributable to the label stack
// (RFC 3107 §3). A lone withdraw-sentinel label is accepted as the
// entire stack regardless of declaredBits: a decoder must accept it
// without treating it as a real label either way. Returns the labels and
// bytes consumed.
func DecodeLabelStack(buf []byte, declaredBits int) ([]MPLSLabel, int, error) {
	var labels []MPLSLabel
	offset := 0
	for {
		if len(buf) < offset+3 {
			return nil, 0, wireerr.NewInsufficientBuffer(offset+3, len(buf))
		}
		var raw [3]byte
		copy(raw[:], buf[offset:offset+3])
		label := UnpackLabel3(raw)
		labels = append(labels, label)
		offset += 3
		if label.IsWithdrawSentinel() || label.Bottom {
			break
		}
		if offset*8 >= declaredBits {
			return nil, 0, wireerr.NewMalformedField("mpls_label_stack", "exhausted declared bits without a bottom-of-stack label")
		}
	}
	return labels, offset, nil
}

// DecodeRouteTarget decodes a Route Target extended community's 6-octet
// value (RFC 4360 §3.1), which shares RouteDistinguisher's three AS2/
// IPv4/AS4 encodings.
func DecodeRouteTarget(rtType RouteTargetType, value [6]byte) (RouteTarget, error) {
	rt := RouteTarget{Type: rtType}
	switch rtType {
	case RouteTargetAS2:
		asn, _, _ := wire.ReadUint16(value[0:2])
		assigned, _, _ := wire.ReadUint32(value[2:6])
		rt.ASN = uint32(asn)
		rt.Assigned = assigned
	case RouteTargetIPv4:
		ip, _, err := wire.ReadIPv4(value[0:4])
		if err != nil {
			return RouteTarget{}, err
		}
		assigned, _, _ := wire.ReadUint16(value[4:6])
		rt.IP = ip
		rt.Assigned = uint32(assigned)
	case RouteTargetAS4:
		asn, _, _ := wire.ReadUint32(value[0:4])
		assigned, _, _ := wire.ReadUint16(value[4:6])
		rt.ASN = asn
		rt.Assigned = uint32(assigned)
	default:
		return RouteTarget{}, wireerr.NewMalformedFieldf("route_target.type", "unknown route target type %d", rtType)
	}
	return rt, nil
}

// EncodeRouteTarget encodes rt into a 6-octet Route Target extended
// community value.
func EncodeRouteTarget(rt RouteTarget) ([6]byte, error) {
	var out [6]byte
	switch rt.Type {
	case RouteTargetAS2:
		wire.WriteUint16(out[0:2], uint16(rt.ASN))
		wire.WriteUint32(out[2:6], rt.Assigned)
	case RouteTargetIPv4:
		if _, err := wire.WriteIPv4(out[0:4], rt.IP); err != nil {
			return out, err
		}
		wire.WriteUint16(out[4:6], uint16(rt.Assigned))
	case RouteTargetAS4:
		wire.WriteUint32(out[0:4], rt.ASN)
		wire.WriteUint16(out[4:6], uint16(rt.Assigned))
	default:
		return out, wireerr.NewMalformedFieldf("route_target.type", "unknown route target type %d", rt.Type)
	}
	return out, nil
}

// EncodeLabelStack writes labels as consecutive 3-octet entries. The last
// entry's Bottom bit is forced to true regardless of the caller's value,
// matching the wire invariant that a label stack's final entry always sets
// bottom-of-stack.
func EncodeLabelStack(buf []byte, labels []MPLSLabel) (int, error) {
	need := 3 * len(labels)
	if len(buf) < need {
		return 0, wireerr.NewInsufficientBuffer(need, len(buf))
	}
	for i, l := range labels {
		if i == len(labels)-1 {
			l.Bottom = true
		}
		packed := l.Pack3()
		copy(buf[i*3:i*3+3], packed[:])
	}
	return need, nil
}
