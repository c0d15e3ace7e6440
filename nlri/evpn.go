package nlri

import (
	"net"

	"github.com/route-beacon/bgpcodec/addr"
	"github.com/route-beacon/bgpcodec/wire"
	"github.com/route-beacon/bgpcodec/wireerr"
)

// EVPNRouteType discriminates the five EVPN NLRI route types this module
// knows (RFC 7432 §7). Anything else decodes into Unknown.
type EVPNRouteType uint8

const (
	EVPNEthernetAD            EVPNRouteType = 1
	EVPNMACIPAdvertisement    EVPNRouteType = 2
	EVPNInclusiveMulticastTag EVPNRouteType = 3
	EVPNEthernetSegment       EVPNRouteType = 4
	EVPNIPPrefix              EVPNRouteType = 5
)

// EVPNRoute is the route-type-discriminated EVPN NLRI payload (spec.md §3,
// "EVPN dispatches on route-type"). Only the fields relevant to RouteType
// are meaningful, except when Unknown is set, in which case only Raw is.
type EVPNRoute struct {
	RouteType EVPNRouteType

	RD       addr.RouteDistinguisher
	ESI      [10]byte
	EthTagID uint32

	MAC   addr.MAC
	IPLen uint8 // 0, 32, or 128 (bits)
	IP    net.IP

	Label  addr.MPLSLabel
	Label2 addr.MPLSLabel
	HasLabel2 bool

	IPPrefixLen uint8
	IPPrefix    net.IP
	GatewayIP   net.IP

	// Unknown preserves route types outside 1-5 opaquely: spec.md §7,
	// "Unknown ... EVPN route types ... are never fatal."
	Unknown bool
	Raw     []byte
}

// decodeEVPNEntry decodes one self-delimiting EVPN NLRI: 1-byte route-type,
// 1-byte length, then the route-type-specific payload (RFC 7432 §7).
func decodeEVPNEntry(buf []byte, mode Mode) (Entry, int, error) {
	e := Entry{AFI: addr.AFIL2VPN, SAFI: addr.SAFIEVPN}
	offset := 0

	if mode.AddPath {
		pathID, n, err := wire.ReadUint32(buf)
		if err != nil {
			return Entry{}, 0, err
		}
		e.HasPathID = true
		e.PathID = pathID
		offset += n
	}

	if len(buf) < offset+2 {
		return Entry{}, 0, wireerr.NewInsufficientBuffer(offset+2, len(buf))
	}
	routeType := buf[offset]
	length := int(buf[offset+1])
	offset += 2
	if len(buf) < offset+length {
		return Entry{}, 0, wireerr.NewInsufficientBuffer(offset+length, len(buf))
	}
	value := buf[offset : offset+length]
	offset += length

	route, err := decodeEVPNValue(EVPNRouteType(routeType), value)
	if err != nil {
		return Entry{}, 0, err
	}
	e.EVPN = &route
	return e, offset, nil
}

func decodeEVPNValue(rt EVPNRouteType, value []byte) (EVPNRoute, error) {
	switch rt {
	case EVPNEthernetAD:
		if len(value) < 25 {
			return EVPNRoute{}, wireerr.NewInsufficientBuffer(25, len(value))
		}
		r := EVPNRoute{RouteType: rt}
		rd, _, err := addr.DecodeRD(value[0:8])
		if err != nil {
			return EVPNRoute{}, err
		}
		r.RD = rd
		copy(r.ESI[:], value[8:18])
		r.EthTagID, _, _ = wire.ReadUint32(value[18:22])
		var raw [3]byte
		copy(raw[:], value[22:25])
		r.Label = addr.UnpackLabel3(raw)
		return r, nil

	case EVPNMACIPAdvertisement:
		if len(value) < 25 {
			return EVPNRoute{}, wireerr.NewInsufficientBuffer(25, len(value))
		}
		r := EVPNRoute{RouteType: rt}
		rd, _, err := addr.DecodeRD(value[0:8])
		if err != nil {
			return EVPNRoute{}, err
		}
		r.RD = rd
		copy(r.ESI[:], value[8:18])
		r.EthTagID, _, _ = wire.ReadUint32(value[18:22])
		macLen := value[22]
		off := 23
		if macLen != 48 || len(value) < off+6 {
			return EVPNRoute{}, wireerr.NewMalformedField("evpn.mac_length", "expected 48-bit MAC address length")
		}
		copy(r.MAC[:], value[off:off+6])
		off += 6
		if len(value) < off+1 {
			return EVPNRoute{}, wireerr.NewInsufficientBuffer(off+1, len(value))
		}
		r.IPLen = value[off]
		off++
		ipBytes := int(r.IPLen) / 8
		if ipBytes != 0 && ipBytes != 4 && ipBytes != 16 {
			return EVPNRoute{}, wireerr.NewMalformedFieldf("evpn.ip_length", "invalid IP address length %d bits", r.IPLen)
		}
		if len(value) < off+ipBytes {
			return EVPNRoute{}, wireerr.NewInsufficientBuffer(off+ipBytes, len(value))
		}
		if ipBytes > 0 {
			r.IP = net.IP(append([]byte{}, value[off:off+ipBytes]...))
		}
		off += ipBytes
		if len(value) < off+3 {
			return EVPNRoute{}, wireerr.NewInsufficientBuffer(off+3, len(value))
		}
		var raw [3]byte
		copy(raw[:], value[off:off+3])
		r.Label = addr.UnpackLabel3(raw)
		off += 3
		if len(value) >= off+3 {
			copy(raw[:], value[off:off+3])
			r.Label2 = addr.UnpackLabel3(raw)
			r.HasLabel2 = true
		}
		return r, nil

	case EVPNInclusiveMulticastTag:
		if len(value) < 13 {
			return EVPNRoute{}, wireerr.NewInsufficientBuffer(13, len(value))
		}
		r := EVPNRoute{RouteType: rt}
		rd, _, err := addr.DecodeRD(value[0:8])
		if err != nil {
			return EVPNRoute{}, err
		}
		r.RD = rd
		r.EthTagID, _, _ = wire.ReadUint32(value[8:12])
		r.IPLen = value[12]
		ipBytes := int(r.IPLen) / 8
		if len(value) < 13+ipBytes {
			return EVPNRoute{}, wireerr.NewInsufficientBuffer(13+ipBytes, len(value))
		}
		r.IP = net.IP(append([]byte{}, value[13:13+ipBytes]...))
		return r, nil

	case EVPNEthernetSegment:
		if len(value) < 19 {
			return EVPNRoute{}, wireerr.NewInsufficientBuffer(19, len(value))
		}
		r := EVPNRoute{RouteType: rt}
		rd, _, err := addr.DecodeRD(value[0:8])
		if err != nil {
			return EVPNRoute{}, err
		}
		r.RD = rd
		copy(r.ESI[:], value[8:18])
		r.IPLen = value[18]
		ipBytes := int(r.IPLen) / 8
		if len(value) < 19+ipBytes {
			return EVPNRoute{}, wireerr.NewInsufficientBuffer(19+ipBytes, len(value))
		}
		r.IP = net.IP(append([]byte{}, value[19:19+ipBytes]...))
		return r, nil

	case EVPNIPPrefix:
		if len(value) < 26 {
			return EVPNRoute{}, wireerr.NewInsufficientBuffer(26, len(value))
		}
		r := EVPNRoute{RouteType: rt}
		rd, _, err := addr.DecodeRD(value[0:8])
		if err != nil {
			return EVPNRoute{}, err
		}
		r.RD = rd
		copy(r.ESI[:], value[8:18])
		r.EthTagID, _, _ = wire.ReadUint32(value[18:22])
		r.IPPrefixLen = value[22]
		ipBytes := 4
		// IPv4 payload is 22 fixed bytes + 1(pfxlen) + 4(prefix) + 4(gw) + 3(label) = 34.
		// IPv6 payload is the same shape with 16-byte prefix/gw = 58.
		switch len(value) {
		case 34:
			ipBytes = 4
		case 58:
			ipBytes = 16
		default:
			return EVPNRoute{}, wireerr.NewMalformedFieldf("evpn.ip_prefix", "unexpected IP Prefix route length %d", len(value))
		}
		off := 23
		r.IPPrefix = net.IP(append([]byte{}, value[off:off+ipBytes]...))
		off += ipBytes
		r.GatewayIP = net.IP(append([]byte{}, value[off:off+ipBytes]...))
		off += ipBytes
		var raw [3]byte
		copy(raw[:], value[off:off+3])
		r.Label = addr.UnpackLabel3(raw)
		return r, nil

	default:
		return EVPNRoute{RouteType: rt, Unknown: true, Raw: append([]byte{}, value...)}, nil
	}
}

// encodeEVPNEntry is the encode-side counterpart of decodeEVPNEntry.
func encodeEVPNEntry(buf []byte, e Entry, mode Mode) (int, error) {
	offset := 0
	if mode.AddPath {
		n, err := wire.WriteUint32(buf, e.PathID)
		if err != nil {
			return 0, err
		}
		offset += n
	}
	value, err := encodeEVPNValue(*e.EVPN)
	if err != nil {
		return 0, err
	}
	if len(buf) < offset+2+len(value) {
		return 0, wireerr.NewInsufficientBuffer(offset+2+len(value), len(buf))
	}
	buf[offset] = uint8(e.EVPN.RouteType)
	buf[offset+1] = uint8(len(value))
	copy(buf[offset+2:], value)
	return offset + 2 + len(value), nil
}

func encodeEVPNValue(r EVPNRoute) ([]byte, error) {
	if r.Unknown {
		return append([]byte{}, r.Raw...), nil
	}
	switch r.RouteType {
	case EVPNEthernetAD:
		out := make([]byte, 25)
		addr.EncodeRD(out[0:8], r.RD)
		copy(out[8:18], r.ESI[:])
		wire.WriteUint32(out[18:22], r.EthTagID)
		label := r.Label.Pack3()
		copy(out[22:25], label[:])
		return out, nil

	case EVPNMACIPAdvertisement:
		ipBytes := len(r.IP)
		size := 23 + 6 + 1 + ipBytes + 3
		if r.HasLabel2 {
			size += 3
		}
		out := make([]byte, size)
		addr.EncodeRD(out[0:8], r.RD)
		copy(out[8:18], r.ESI[:])
		wire.WriteUint32(out[18:22], r.EthTagID)
		out[22] = 48
		copy(out[23:29], r.MAC[:])
		off := 29
		out[off] = uint8(ipBytes * 8)
		off++
		copy(out[off:off+ipBytes], r.IP)
		off += ipBytes
		label := r.Label.Pack3()
		copy(out[off:off+3], label[:])
		off += 3
		if r.HasLabel2 {
			label2 := r.Label2.Pack3()
			copy(out[off:off+3], label2[:])
		}
		return out, nil

	case EVPNInclusiveMulticastTag:
		ipBytes := len(r.IP)
		out := make([]byte, 13+ipBytes)
		addr.EncodeRD(out[0:8], r.RD)
		wire.WriteUint32(out[8:12], r.EthTagID)
		out[12] = uint8(ipBytes * 8)
		copy(out[13:13+ipBytes], r.IP)
		return out, nil

	case EVPNEthernetSegment:
		ipBytes := len(r.IP)
		out := make([]byte, 19+ipBytes)
		addr.EncodeRD(out[0:8], r.RD)
		copy(out[8:18], r.ESI[:])
		out[18] = uint8(ipBytes * 8)
		copy(out[19:19+ipBytes], r.IP)
		return out, nil

	case EVPNIPPrefix:
		ipBytes := len(r.IPPrefix)
		out := make([]byte, 23+ipBytes*2+3)
		addr.EncodeRD(out[0:8], r.RD)
		copy(out[8:18], r.ESI[:])
		wire.WriteUint32(out[18:22], r.EthTagID)
		out[22] = r.IPPrefixLen
		off := 23
		copy(out[off:off+ipBytes], r.IPPrefix)
		off += ipBytes
		copy(out[off:off+ipBytes], r.GatewayIP)
		off += ipBytes
		label := r.Label.Pack3()
		copy(out[off:off+3], label[:])
		return out, nil

	default:
		return nil, wireerr.NewMalformedFieldf("evpn.route_type", "cannot encode unrecognized route type %d without Unknown set", r.RouteType)
	}
}
