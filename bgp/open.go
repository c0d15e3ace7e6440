package bgp

import (
	"github.com/route-beacon/bgpcodec/session"
	"github.com/route-beacon/bgpcodec/wire"
	"github.com/route-beacon/bgpcodec/wireerr"
)

// OpenVersion is the only BGP version this module speaks (RFC 4271 §4.2).
const OpenVersion uint8 = 4

// optParamCapabilities is the Optional Parameters type code that carries
// capability sub-TLVs (RFC 5492 §4).
const optParamCapabilities uint8 = 2

// asTransASN is the 2-octet placeholder ASN a 4-octet-ASN speaker writes
// into OPEN's fixed ASN field; the real ASN travels in the capability
// (RFC 6793 §4.1).
const asTransASN uint16 = 23456

// OpenMessage is the decoded body of a BGP OPEN (RFC 4271 §4.2).
type OpenMessage struct {
	Version      uint8
	ASN          uint32 // the effective ASN: 16-bit field, or the 4-octet capability's value when present
	HoldTime     uint16
	RouterID     [4]byte
	Capabilities []session.Capability
}

// DecodeOpen decodes an OPEN message body (the bytes after the 19-byte
// header). Unknown capability codes are preserved opaquely and never fail
// decode (spec.md §4.5).
func DecodeOpen(buf []byte) (OpenMessage, int, error) {
	if len(buf) < 10 {
		return OpenMessage{}, 0, wireerr.NewInsufficientBuffer(10, len(buf))
	}
	version := buf[0]
	if version != OpenVersion {
		return OpenMessage{}, 0, wireerr.NewUnsupportedVersion(version)
	}
	asn16, _, _ := wire.ReadUint16(buf[1:3])
	holdTime, _, _ := wire.ReadUint16(buf[3:5])
	var routerID [4]byte
	copy(routerID[:], buf[5:9])
	optParmLen := int(buf[9])
	offset := 10

	if len(buf) < offset+optParmLen {
		return OpenMessage{}, 0, wireerr.NewInsufficientBuffer(offset+optParmLen, len(buf))
	}
	optParams := buf[offset : offset+optParmLen]
	offset += optParmLen

	msg := OpenMessage{Version: version, ASN: uint32(asn16), HoldTime: holdTime, RouterID: routerID}

	caps, err := decodeOptionalParameters(optParams)
	if err != nil {
		return OpenMessage{}, 0, err
	}
	msg.Capabilities = caps

	for _, c := range caps {
		if c.Code == session.CapFourOctetASN {
			msg.ASN = c.ASN
			break
		}
	}

	return msg, offset, nil
}

// decodeOptionalParameters walks RFC 5492 Optional Parameters, returning
// the capabilities found inside any Capabilities (type 2) parameter.
// Parameter types other than Capabilities are skipped — this module only
// negotiates the session parameters spec.md §3 names.
func decodeOptionalParameters(buf []byte) ([]session.Capability, error) {
	var caps []session.Capability
	offset := 0
	for offset < len(buf) {
		if len(buf) < offset+2 {
			return nil, wireerr.NewInsufficientBuffer(offset+2, len(buf))
		}
		paramType := buf[offset]
		paramLen := int(buf[offset+1])
		offset += 2
		if len(buf) < offset+paramLen {
			return nil, wireerr.NewInsufficientBuffer(offset+paramLen, len(buf))
		}
		value := buf[offset : offset+paramLen]
		offset += paramLen

		if paramType == optParamCapabilities {
			walked, err := walkCapabilities(value)
			if err != nil {
				return nil, err
			}
			caps = append(caps, walked...)
		}
	}
	return caps, nil
}

func walkCapabilities(buf []byte) ([]session.Capability, error) {
	var caps []session.Capability
	offset := 0
	for offset < len(buf) {
		c, n, err := session.DecodeCapability(buf[offset:])
		if err != nil {
			return nil, err
		}
		caps = append(caps, c)
		offset += n
	}
	return caps, nil
}

// EncodeOpen serializes an OpenMessage into buf, returning bytes written.
// If msg.ASN exceeds the 16-bit field's range, AS_TRANS is written in the
// fixed field and the real value must already be present as a
// CapFourOctetASN entry in msg.Capabilities (RFC 6793 §4.1).
func EncodeOpen(buf []byte, msg OpenMessage) (int, error) {
	asn16 := uint16(msg.ASN)
	if msg.ASN > 0xFFFF {
		asn16 = asTransASN
	}

	capBytes, err := encodeCapabilities(msg.Capabilities)
	if err != nil {
		return 0, err
	}
	var optParams []byte
	if len(capBytes) > 0 {
		optParams = append(optParams, optParamCapabilities, uint8(len(capBytes)))
		optParams = append(optParams, capBytes...)
	}

	total := 10 + len(optParams)
	if len(buf) < total {
		return 0, wireerr.NewInsufficientBuffer(total, len(buf))
	}
	buf[0] = OpenVersion
	wire.WriteUint16(buf[1:3], asn16)
	wire.WriteUint16(buf[3:5], msg.HoldTime)
	copy(buf[5:9], msg.RouterID[:])
	buf[9] = uint8(len(optParams))
	copy(buf[10:], optParams)

	return total, nil
}

func encodeCapabilities(caps []session.Capability) ([]byte, error) {
	var out []byte
	tmp := make([]byte, 256)
	for _, c := range caps {
		n, err := session.EncodeCapability(tmp, c)
		if err != nil {
			return nil, err
		}
		out = append(out, tmp[:n]...)
	}
	return out, nil
}

// OpenMessageFromParameters builds the outbound OPEN this session's local
// Parameters describe (spec.md §4.6, "params.open_message()").
func OpenMessageFromParameters(p *session.Parameters) OpenMessage {
	asn := p.LocalASN
	return OpenMessage{
		Version:      OpenVersion,
		ASN:          asn,
		HoldTime:     p.HoldTime,
		RouterID:     p.RouterID,
		Capabilities: p.Capabilities,
	}
}
