// Package bmp implements C7: the BMP v3 common/per-peer header codec,
// the seven message-type bodies (RFC 7854), and the per-peer context
// cache that lets RouteMonitoring decode UPDATEs with the ASN width and
// AddPath framing negotiated in that peer's PeerUp.
package bmp

import (
	"github.com/route-beacon/bgpcodec/wire"
	"github.com/route-beacon/bgpcodec/wireerr"
)

// MessageType is the BMP message type code (RFC 7854 §4.1).
type MessageType uint8

const (
	MessageRouteMonitoring  MessageType = 0
	MessageStatisticsReport MessageType = 1
	MessagePeerDown         MessageType = 2
	MessagePeerUp           MessageType = 3
	MessageInitiation       MessageType = 4
	MessageTermination      MessageType = 5
	MessageRouteMirroring   MessageType = 6
)

// Version is the only BMP protocol version this module speaks.
const Version uint8 = 3

// CommonHeaderSize is version(1) + message length(4) + message type(1).
const CommonHeaderSize = 6

// PerPeerHeaderSize is peer type(1) + flags(1) + distinguisher(8) +
// address(16) + ASN(4) + BGP ID(4) + timestamp(8).
const PerPeerHeaderSize = 42

// PeerType discriminates the four peer kinds a per-peer header can name
// (RFC 7854 §4.2, RFC 9069 §4.1).
type PeerType uint8

const (
	PeerTypeGlobal PeerType = 0
	PeerTypeRD     PeerType = 1
	PeerTypeLocal  PeerType = 2
	PeerTypeLocRIB PeerType = 3
)

// PeerFlagIPv6 and PeerFlagAddPath are bits of the per-peer header's flags
// octet (RFC 7854 §4.2, RFC 9069 §4.2). The L flag (post/pre-policy) is not
// modeled — this module has no RIB policy layer to distinguish.
const (
	PeerFlagIPv6    uint8 = 0x80
	PeerFlagAddPath uint8 = 0x40
)

// PerPeerHeader is the common per-peer header carried by RouteMonitoring,
// StatisticsReport, PeerDown, and PeerUp (RFC 7854 §4.2).
type PerPeerHeader struct {
	Type          PeerType
	Flags         uint8
	Distinguisher [8]byte
	Address       [16]byte // IPv4 stored as 12 zero bytes + 4 address bytes, per BMP convention
	ASN           uint32
	BGPID         [4]byte
	TimestampSec  uint32
	TimestampUsec uint32
}

// IsIPv6 reports whether Address carries an IPv6 peer address.
func (h PerPeerHeader) IsIPv6() bool {
	return h.Flags&PeerFlagIPv6 != 0
}

// HasAddPath reports whether this peer's RouteMonitoring/PeerUp/PeerDown
// bodies carry AddPath-framed NLRI (RFC 9069 §4.2 F-bit).
func (h PerPeerHeader) HasAddPath() bool {
	return h.Flags&PeerFlagAddPath != 0
}

// decodePerPeerHeader decodes the fixed 42-byte per-peer header.
func decodePerPeerHeader(buf []byte) (PerPeerHeader, int, error) {
	if len(buf) < PerPeerHeaderSize {
		return PerPeerHeader{}, 0, wireerr.NewInsufficientBuffer(PerPeerHeaderSize, len(buf))
	}
	h := PerPeerHeader{Type: PeerType(buf[0]), Flags: buf[1]}
	copy(h.Distinguisher[:], buf[2:10])
	copy(h.Address[:], buf[10:26])
	asn, _, _ := wire.ReadUint32(buf[26:30])
	h.ASN = asn
	copy(h.BGPID[:], buf[30:34])
	sec, _, _ := wire.ReadUint32(buf[34:38])
	usec, _, _ := wire.ReadUint32(buf[38:42])
	h.TimestampSec = sec
	h.TimestampUsec = usec
	return h, PerPeerHeaderSize, nil
}

func encodePerPeerHeader(buf []byte, h PerPeerHeader) (int, error) {
	if len(buf) < PerPeerHeaderSize {
		return 0, wireerr.NewInsufficientBuffer(PerPeerHeaderSize, len(buf))
	}
	buf[0] = uint8(h.Type)
	buf[1] = h.Flags
	copy(buf[2:10], h.Distinguisher[:])
	copy(buf[10:26], h.Address[:])
	wire.WriteUint32(buf[26:30], h.ASN)
	copy(buf[30:34], h.BGPID[:])
	wire.WriteUint32(buf[34:38], h.TimestampSec)
	wire.WriteUint32(buf[38:42], h.TimestampUsec)
	return PerPeerHeaderSize, nil
}

// DecodeCommonHeader decodes the 6-byte BMP common header, returning the
// message type and the body length (message length minus the header).
func DecodeCommonHeader(buf []byte) (MessageType, int, error) {
	if len(buf) < CommonHeaderSize {
		return 0, 0, wireerr.NewInsufficientBuffer(CommonHeaderSize, len(buf))
	}
	version := buf[0]
	if version != Version {
		return 0, 0, wireerr.NewUnsupportedVersion(version)
	}
	length, _, _ := wire.ReadUint32(buf[1:5])
	if int(length) < CommonHeaderSize {
		return 0, 0, wireerr.NewMalformedFieldf("bmp.header.length", "message length %d shorter than header", length)
	}
	return MessageType(buf[5]), int(length) - CommonHeaderSize, nil
}

// EncodeCommonHeader writes the 6-byte common header, returning total bytes.
func EncodeCommonHeader(buf []byte, msgType MessageType, bodyLen int) (int, error) {
	total := CommonHeaderSize + bodyLen
	if len(buf) < total {
		return 0, wireerr.NewInsufficientBuffer(total, len(buf))
	}
	buf[0] = Version
	wire.WriteUint32(buf[1:5], uint32(total))
	buf[5] = uint8(msgType)
	return total, nil
}

// InformationTLV is one Initiation/Termination/PeerDown Loc-RIB TLV
// (RFC 7854 §4.3/§4.4, RFC 9069 §5): type u16, length u16, value.
type InformationTLV struct {
	Type  uint16
	Value []byte
}

// Known information-TLV type codes (RFC 7854 §4.3).
const (
	TLVString    uint16 = 0
	TLVSysDescr  uint16 = 1
	TLVSysName   uint16 = 2
	TLVTableName uint16 = 3 // RFC 9069 §4.8 reuses type 3 for Loc-RIB's table name on PeerUp/PeerDown
)

func decodeTLVs(buf []byte) ([]InformationTLV, error) {
	var tlvs []InformationTLV
	offset := 0
	for offset < len(buf) {
		if len(buf) < offset+4 {
			return nil, wireerr.NewInsufficientBuffer(offset+4, len(buf))
		}
		typ, _, _ := wire.ReadUint16(buf[offset:])
		length, _, _ := wire.ReadUint16(buf[offset+2:])
		offset += 4
		if len(buf) < offset+int(length) {
			return nil, wireerr.NewInsufficientBuffer(offset+int(length), len(buf))
		}
		tlvs = append(tlvs, InformationTLV{Type: typ, Value: append([]byte{}, buf[offset:offset+int(length)]...)})
		offset += int(length)
	}
	return tlvs, nil
}

func encodeTLVs(tlvs []InformationTLV) []byte {
	var out []byte
	for _, t := range tlvs {
		var hdr [4]byte
		wire.WriteUint16(hdr[0:2], t.Type)
		wire.WriteUint16(hdr[2:4], uint16(len(t.Value)))
		out = append(out, hdr[:]...)
		out = append(out, t.Value...)
	}
	return out
}
