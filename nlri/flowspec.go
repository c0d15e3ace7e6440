package nlri

import (
	"github.com/route-beacon/bgpcodec/addr"
	"github.com/route-beacon/bgpcodec/wire"
	"github.com/route-beacon/bgpcodec/wireerr"
)

// FlowspecComponentType identifies one node of the Flowspec component tree
// (RFC 8955 §4). Component 1/2 carry a prefix; the rest carry one or more
// numeric op/value pairs.
type FlowspecComponentType uint8

const (
	FlowspecDestPrefix   FlowspecComponentType = 1
	FlowspecSourcePrefix FlowspecComponentType = 2
	FlowspecIPProtocol   FlowspecComponentType = 3
	FlowspecPort         FlowspecComponentType = 4
	FlowspecDestPort     FlowspecComponentType = 5
	FlowspecSourcePort   FlowspecComponentType = 6
	FlowspecICMPType     FlowspecComponentType = 7
	FlowspecICMPCode     FlowspecComponentType = 8
	FlowspecTCPFlags     FlowspecComponentType = 9
	FlowspecPacketLength FlowspecComponentType = 10
	FlowspecDSCP         FlowspecComponentType = 11
	FlowspecFragment     FlowspecComponentType = 12
)

// NumericOp is one operator/value pair of a numeric Flowspec component
// (RFC 8955 §4.2). The op byte's end-of-list and AND bits are split out as
// EndOfList/AndWithNext; LessThan/GreaterThan/Equal mirror the remaining
// comparison bits; ValueLen is 1, 2, or 4.
type NumericOp struct {
	EndOfList   bool
	AndWithNext bool
	LessThan    bool
	GreaterThan bool
	Equal       bool
	ValueLen    int
	Value       uint32
}

// FlowspecComponent is one node of the tree: either Prefix is populated
// (for DestPrefix/SourcePrefix) or Ops is (for everything else).
type FlowspecComponent struct {
	Type   FlowspecComponentType
	Prefix addr.BgpNet
	// PrefixOffset is the RFC 8955 §4.1 offset-in-bits into Prefix; most
	// uses leave it 0.
	PrefixOffset uint8
	Ops          []NumericOp
}

// FlowspecRoute is a sequence of Flowspec components, ANDed together to
// form a traffic-matching filter (RFC 5575/8955 §4).
type FlowspecRoute struct {
	Components []FlowspecComponent
}

// decodeFlowspecEntry decodes a self-delimiting Flowspec NLRI element: a
// length field that is 1 octet if < 0xF0, else 2 octets with the top
// nibble forced to 0xF (RFC 8955 §4), followed by the component tree.
func decodeFlowspecEntry(buf []byte, afisafi AFISAFI, mode Mode) (Entry, int, error) {
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

	if len(buf) < offset+1 {
		return Entry{}, 0, wireerr.NewInsufficientBuffer(offset+1, len(buf))
	}
	var length int
	if buf[offset] < 0xF0 {
		length = int(buf[offset])
		offset++
	} else {
		if len(buf) < offset+2 {
			return Entry{}, 0, wireerr.NewInsufficientBuffer(offset+2, len(buf))
		}
		l16, n, _ := wire.ReadUint16(buf[offset:])
		length = int(l16 &^ 0xF000)
		offset += n
	}
	if len(buf) < offset+length {
		return Entry{}, 0, wireerr.NewInsufficientBuffer(offset+length, len(buf))
	}
	body := buf[offset : offset+length]
	offset += length

	route, err := decodeFlowspecComponents(afisafi.AFI, body)
	if err != nil {
		return Entry{}, 0, err
	}
	e.Flowspec = &route
	return e, offset, nil
}

func decodeFlowspecComponents(afi uint16, body []byte) (FlowspecRoute, error) {
	var route FlowspecRoute
	pos := 0
	maxBits := maxBitsForAFI(afi)
	for pos < len(body) {
		compType := FlowspecComponentType(body[pos])
		pos++
		switch compType {
		case FlowspecDestPrefix, FlowspecSourcePrefix:
			if pos >= len(body) {
				return FlowspecRoute{}, wireerr.NewInsufficientBuffer(pos+1, len(body))
			}
			bits := int(body[pos])
			pos++
			var offsetBits uint8
			if afi == addr.AFIIPv6 {
				if pos >= len(body) {
					return FlowspecRoute{}, wireerr.NewInsufficientBuffer(pos+1, len(body))
				}
				offsetBits = body[pos]
				pos++
			}
			if bits < 0 || bits > maxBits {
				return FlowspecRoute{}, wireerr.NewMalformedFieldf("nlri.flowspec_prefix", "prefix bit length %d out of range", bits)
			}
			byteLen := wire.PrefixByteLen(bits)
			if len(body) < pos+byteLen {
				return FlowspecRoute{}, wireerr.NewInsufficientBuffer(pos+byteLen, len(body))
			}
			padded := make([]byte, maxBits/8)
			copy(padded, body[pos:pos+byteLen])
			pos += byteLen
			route.Components = append(route.Components, FlowspecComponent{
				Type:         compType,
				Prefix:       addr.BgpNet{IP: padded, Bits: bits},
				PrefixOffset: offsetBits,
			})

		default:
			ops, consumed, err := decodeNumericOps(body[pos:])
			if err != nil {
				return FlowspecRoute{}, err
			}
			pos += consumed
			route.Components = append(route.Components, FlowspecComponent{Type: compType, Ops: ops})
		}
	}
	return route, nil
}

func decodeNumericOps(buf []byte) ([]NumericOp, int, error) {
	var ops []NumericOp
	offset := 0
	for {
		if len(buf) < offset+1 {
			return nil, 0, wireerr.NewInsufficientBuffer(offset+1, len(buf))
		}
		opByte := buf[offset]
		offset++
		valLen := 1 << ((opByte >> 4) & 0x3)
		if len(buf) < offset+valLen {
			return nil, 0, wireerr.NewInsufficientBuffer(offset+valLen, len(buf))
		}
		var value uint32
		for i := 0; i < valLen; i++ {
			value = value<<8 | uint32(buf[offset+i])
		}
		offset += valLen
		op := NumericOp{
			EndOfList:   opByte&0x80 != 0,
			AndWithNext: opByte&0x40 != 0,
			LessThan:    opByte&0x04 != 0,
			GreaterThan: opByte&0x02 != 0,
			Equal:       opByte&0x01 != 0,
			ValueLen:    valLen,
			Value:       value,
		}
		ops = append(ops, op)
		if op.EndOfList {
			break
		}
	}
	return ops, offset, nil
}

// encodeFlowspecEntry is the encode-side counterpart of decodeFlowspecEntry.
func encodeFlowspecEntry(buf []byte, e Entry, mode Mode) (int, error) {
	offset := 0
	if mode.AddPath {
		n, err := wire.WriteUint32(buf, e.PathID)
		if err != nil {
			return 0, err
		}
		offset += n
	}

	body, err := encodeFlowspecComponents(e.AFI, *e.Flowspec)
	if err != nil {
		return 0, err
	}

	if len(body) < 0xF0 {
		if len(buf) < offset+1+len(body) {
			return 0, wireerr.NewInsufficientBuffer(offset+1+len(body), len(buf))
		}
		buf[offset] = uint8(len(body))
		offset++
	} else {
		if len(buf) < offset+2+len(body) {
			return 0, wireerr.NewInsufficientBuffer(offset+2+len(body), len(buf))
		}
		wire.WriteUint16(buf[offset:], uint16(len(body))|0xF000)
		offset += 2
	}
	copy(buf[offset:], body)
	offset += len(body)
	return offset, nil
}

func encodeFlowspecComponents(afi uint16, route FlowspecRoute) ([]byte, error) {
	var out []byte
	for _, c := range route.Components {
		out = append(out, uint8(c.Type))
		switch c.Type {
		case FlowspecDestPrefix, FlowspecSourcePrefix:
			out = append(out, uint8(c.Prefix.Bits))
			if afi == addr.AFIIPv6 {
				out = append(out, c.PrefixOffset)
			}
			byteLen := wire.PrefixByteLen(c.Prefix.Bits)
			out = append(out, []byte(c.Prefix.IP)[:byteLen]...)
		default:
			for _, op := range c.Ops {
				opByte := uint8(0)
				if op.EndOfList {
					opByte |= 0x80
				}
				if op.AndWithNext {
					opByte |= 0x40
				}
				switch op.ValueLen {
				case 2:
					opByte |= 0x10
				case 4:
					opByte |= 0x20
				}
				if op.LessThan {
					opByte |= 0x04
				}
				if op.GreaterThan {
					opByte |= 0x02
				}
				if op.Equal {
					opByte |= 0x01
				}
				out = append(out, opByte)
				for i := op.ValueLen - 1; i >= 0; i-- {
					out = append(out, byte(op.Value>>(8*uint(i))))
				}
			}
		}
	}
	return out, nil
}
