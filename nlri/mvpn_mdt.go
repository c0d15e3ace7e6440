package nlri

import (
	"github.com/route-beacon/bgpcodec/addr"
	"github.com/route-beacon/bgpcodec/wire"
	"github.com/route-beacon/bgpcodec/wireerr"
)

// decodeMVPNEntry decodes an MVPN NLRI (AFI/SAFI 5, RFC 6514 §4) down to
// its RD, route-type, and opaque value. Route-type-specific internals
// (Source Active, Shared Tree Join, PMSI binding, ...) are not modeled
// field-by-field — see DESIGN.md — callers needing them parse MVPNValue.
func decodeMVPNEntry(buf []byte, afisafi AFISAFI, mode Mode) (Entry, int, error) {
	e := Entry{AFI: afisafi.AFI, SAFI: afisafi.SAFI}
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

	e.MVPNRouteType = routeType
	if len(value) >= 8 {
		rd, _, err := addr.DecodeRD(value[0:8])
		if err == nil {
			e.HasRD = true
			e.RD = rd
			e.MVPNValue = append([]byte{}, value[8:]...)
		} else {
			e.MVPNValue = append([]byte{}, value...)
		}
	} else {
		e.MVPNValue = append([]byte{}, value...)
	}
	return e, offset, nil
}

// encodeMVPNEntry is the encode-side counterpart of decodeMVPNEntry.
func encodeMVPNEntry(buf []byte, e Entry, mode Mode) (int, error) {
	offset := 0
	if mode.AddPath {
		n, err := wire.WriteUint32(buf, e.PathID)
		if err != nil {
			return 0, err
		}
		offset += n
	}
	rdLen := 0
	if e.HasRD {
		rdLen = 8
	}
	length := rdLen + len(e.MVPNValue)
	if len(buf) < offset+2+length {
		return 0, wireerr.NewInsufficientBuffer(offset+2+length, len(buf))
	}
	buf[offset] = e.MVPNRouteType
	buf[offset+1] = uint8(length)
	offset += 2
	if e.HasRD {
		n, err := addr.EncodeRD(buf[offset:], e.RD)
		if err != nil {
			return 0, err
		}
		offset += n
	}
	copy(buf[offset:], e.MVPNValue)
	offset += len(e.MVPNValue)
	return offset, nil
}

// decodeMDTEntry decodes an MDT NLRI (SAFI 66, RFC 6037 §4): an RD, a
// source IPv4 prefix in the same self-delimiting form as plain unicast,
// then a fixed 4-octet multicast group address.
func decodeMDTEntry(buf []byte, afisafi AFISAFI, mode Mode) (Entry, int, error) {
	e := Entry{AFI: afisafi.AFI, SAFI: afisafi.SAFI}
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

	totalBits, n, err := wire.ReadUint8(buf[offset:])
	if err != nil {
		return Entry{}, 0, err
	}
	offset += n
	remainingBits := int(totalBits)

	if remainingBits < 64 {
		return Entry{}, 0, wireerr.NewMalformedField("nlri.mdt_rd", "declared bit length too short for route distinguisher")
	}
	rd, consumed, err := addr.DecodeRD(buf[offset:])
	if err != nil {
		return Entry{}, 0, err
	}
	e.HasRD = true
	e.RD = rd
	offset += consumed
	remainingBits -= consumed * 8

	if remainingBits < 0 || remainingBits > 32 {
		return Entry{}, 0, wireerr.NewMalformedFieldf("nlri.mdt_source", "source prefix bit length %d out of range", remainingBits)
	}
	byteLen := wire.PrefixByteLen(remainingBits)
	if len(buf) < offset+byteLen {
		return Entry{}, 0, wireerr.NewInsufficientBuffer(offset+byteLen, len(buf))
	}
	padded := make([]byte, 4)
	copy(padded, buf[offset:offset+byteLen])
	offset += byteLen
	e.Prefix = addr.BgpNet{IP: padded, Bits: remainingBits}

	if len(buf) < offset+4 {
		return Entry{}, 0, wireerr.NewInsufficientBuffer(offset+4, len(buf))
	}
	group := make([]byte, 4)
	copy(group, buf[offset:offset+4])
	offset += 4
	e.MDTGroup = addr.BgpNet{IP: group, Bits: 32}

	return e, offset, nil
}

// encodeMDTEntry is the encode-side counterpart of decodeMDTEntry.
func encodeMDTEntry(buf []byte, e Entry, mode Mode) (int, error) {
	offset := 0
	if mode.AddPath {
		n, err := wire.WriteUint32(buf, e.PathID)
		if err != nil {
			return 0, err
		}
		offset += n
	}
	totalBits := 64 + e.Prefix.Bits
	if len(buf) < offset+1 {
		return 0, wireerr.NewInsufficientBuffer(offset+1, len(buf))
	}
	buf[offset] = uint8(totalBits)
	offset++

	n, err := addr.EncodeRD(buf[offset:], e.RD)
	if err != nil {
		return 0, err
	}
	offset += n

	byteLen := wire.PrefixByteLen(e.Prefix.Bits)
	if len(buf) < offset+byteLen+4 {
		return 0, wireerr.NewInsufficientBuffer(offset+byteLen+4, len(buf))
	}
	copy(buf[offset:offset+byteLen], []byte(e.Prefix.IP)[:byteLen])
	offset += byteLen

	copy(buf[offset:offset+4], []byte(e.MDTGroup.IP)[:4])
	offset += 4

	return offset, nil
}
