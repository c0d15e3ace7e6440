package session

import (
	"github.com/route-beacon/bgpcodec/wire"
	"github.com/route-beacon/bgpcodec/wireerr"
)

// DecodeCapability decodes a single capability TLV: code(1) + length(1) +
// value(length). Unknown codes are preserved opaquely (spec.md §3) and
// never fail decode — this is a hard robustness rule (spec.md §4.5).
func DecodeCapability(buf []byte) (Capability, int, error) {
	if len(buf) < 2 {
		return Capability{}, 0, wireerr.NewInsufficientBuffer(2, len(buf))
	}
	code := buf[0]
	length := int(buf[1])
	if len(buf) < 2+length {
		return Capability{}, 0, wireerr.NewInsufficientBuffer(2+length, len(buf))
	}
	value := buf[2 : 2+length]

	switch CapabilityCode(code) {
	case CapFourOctetASN:
		if length != 4 {
			return NewUnknownCapability(code, value), 2 + length, nil
		}
		asn, _, _ := wire.ReadUint32(value)
		return Capability{Code: CapFourOctetASN, ASN: asn}, 2 + length, nil

	case CapMultiProtocol:
		if length != 4 {
			return NewUnknownCapability(code, value), 2 + length, nil
		}
		afi, _, _ := wire.ReadUint16(value[0:2])
		// value[2] is reserved.
		safi := value[3]
		return Capability{Code: CapMultiProtocol, MPAFI: afi, MPSAFI: safi}, 2 + length, nil

	case CapAddPath:
		if length%4 != 0 {
			return NewUnknownCapability(code, value), 2 + length, nil
		}
		var entries []AddPathEntry
		for off := 0; off < length; off += 4 {
			afi, _, _ := wire.ReadUint16(value[off : off+2])
			entries = append(entries, AddPathEntry{
				AFI:       afi,
				SAFI:      value[off+2],
				Direction: AddPathDirection(value[off+3]),
			})
		}
		return Capability{Code: CapAddPath, AddPath: entries}, 2 + length, nil

	case CapRouteRefresh, CapEnhancedRouteRefresh, CapGracefulRestart:
		return NewUnknownCapability(code, value), 2 + length, nil

	default:
		return NewUnknownCapability(code, value), 2 + length, nil
	}
}

// EncodeCapability encodes a single capability TLV into buf. Encoders never
// synthesize unknowns (spec.md §9) — Unknown* fields round-trip the bytes
// that DecodeCapability preserved.
func EncodeCapability(buf []byte, c Capability) (int, error) {
	var value []byte
	code := uint8(c.Code)

	switch c.Code {
	case CapFourOctetASN:
		value = make([]byte, 4)
		wire.WriteUint32(value, c.ASN)
	case CapMultiProtocol:
		value = make([]byte, 4)
		wire.WriteUint16(value[0:2], c.MPAFI)
		value[3] = c.MPSAFI
	case CapAddPath:
		value = make([]byte, 4*len(c.AddPath))
		for i, e := range c.AddPath {
			wire.WriteUint16(value[i*4:i*4+2], e.AFI)
			value[i*4+2] = e.SAFI
			value[i*4+3] = uint8(e.Direction)
		}
	case CapRouteRefresh, CapEnhancedRouteRefresh, CapGracefulRestart:
		value = c.UnknownPayload
		code = c.UnknownCode
		if code == 0 {
			code = uint8(c.Code)
		}
	default:
		value = c.UnknownPayload
		code = c.UnknownCode
	}

	total := 2 + len(value)
	if len(buf) < total {
		return 0, wireerr.NewInsufficientBuffer(total, len(buf))
	}
	buf[0] = code
	buf[1] = uint8(len(value))
	copy(buf[2:], value)
	return total, nil
}
