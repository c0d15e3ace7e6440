// Package bgp implements C5: BGP message framing and the OPEN, UPDATE,
// NOTIFICATION, and KEEPALIVE bodies. UPDATE decoding and encoding take a
// *session.Parameters side input (spec.md §4.6) for ASN width and AddPath
// framing; OPEN decoding produces the raw capability list that a caller
// feeds to Parameters.UpdateFrom.
package bgp

import (
	"github.com/route-beacon/bgpcodec/wire"
	"github.com/route-beacon/bgpcodec/wireerr"
)

// MessageType is the BGP message type code (RFC 4271 §4.1).
type MessageType uint8

const (
	MessageOpen         MessageType = 1
	MessageUpdate       MessageType = 2
	MessageNotification MessageType = 3
	MessageKeepalive    MessageType = 4
)

// HeaderSize is the fixed 19-byte BGP message header: marker(16) + length(2)
// + type(1).
const HeaderSize = 19

// MaxStandardMessageSize is the RFC 4271 message length ceiling without the
// RFC 8654 extended-message capability, which this module does not
// implement (see DESIGN.md).
const MaxStandardMessageSize = 4096

var marker = [16]byte{
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
}

// DecodeMessageHead validates the 16-byte all-ones marker and reads the
// total-length and type fields from the first 19 bytes of buf, returning
// the message type and the body length (total length minus the header).
func DecodeMessageHead(buf []byte) (MessageType, int, error) {
	if len(buf) < HeaderSize {
		return 0, 0, wireerr.NewInsufficientBuffer(HeaderSize, len(buf))
	}
	for i := 0; i < 16; i++ {
		if buf[i] != 0xFF {
			return 0, 0, wireerr.ErrMarkerMismatch
		}
	}
	total, _, _ := wire.ReadUint16(buf[16:18])
	if int(total) < HeaderSize {
		return 0, 0, wireerr.NewMalformedFieldf("bgp.header.length", "total length %d shorter than header", total)
	}
	if int(total) > MaxStandardMessageSize {
		return 0, 0, wireerr.NewTooMuchData(MaxStandardMessageSize)
	}
	msgType := MessageType(buf[18])
	return msgType, int(total) - HeaderSize, nil
}

// PrepareMessageBuf writes the marker, total length (bodyLen + HeaderSize),
// and type into buf[0:19], returning the total message size. The caller
// writes the body into buf[19:] separately.
func PrepareMessageBuf(buf []byte, msgType MessageType, bodyLen int) (int, error) {
	total := HeaderSize + bodyLen
	if len(buf) < total {
		return 0, wireerr.NewInsufficientBuffer(total, len(buf))
	}
	if total > MaxStandardMessageSize {
		return 0, wireerr.NewTooMuchData(MaxStandardMessageSize)
	}
	copy(buf[0:16], marker[:])
	wire.WriteUint16(buf[16:18], uint16(total))
	buf[18] = uint8(msgType)
	return total, nil
}
