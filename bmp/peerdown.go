package bmp

import (
	"github.com/route-beacon/bgpcodec/bgp"
	"github.com/route-beacon/bgpcodec/wire"
	"github.com/route-beacon/bgpcodec/wireerr"
)

// PeerDownReason is the 1-byte reason code of a PeerDown Notification
// (RFC 7854 §4.9).
type PeerDownReason uint8

const (
	PeerDownLocalNotification    PeerDownReason = 1
	PeerDownLocalNoNotification  PeerDownReason = 2
	PeerDownRemoteNotification   PeerDownReason = 3
	PeerDownRemoteNoNotification PeerDownReason = 4
	PeerDownPeerDeconfigured     PeerDownReason = 5 // RFC 9069 §4.9
)

// PeerDownMessage is the decoded body of a BMP PeerDown Notification. Which
// of Notification, FSMEventCode, or neither is populated depends on Reason.
type PeerDownMessage struct {
	Peer         PerPeerHeader
	Reason       PeerDownReason
	Notification *bgp.NotificationMessage
	FSMEventCode uint16
	Data         []byte
}

// DecodePeerDown decodes a PeerDown body. It does not touch any cache:
// Decode evicts the peer's entry after a successful PeerDown decode, and
// callers using DecodePeerDown directly follow it with cache.Delete(peer)
// themselves.
func DecodePeerDown(buf []byte) (PeerDownMessage, int, error) {
	peer, n, err := decodePerPeerHeader(buf)
	if err != nil {
		return PeerDownMessage{}, 0, err
	}
	offset := n

	if len(buf) < offset+1 {
		return PeerDownMessage{}, 0, wireerr.NewInsufficientBuffer(offset+1, len(buf))
	}
	msg := PeerDownMessage{Peer: peer, Reason: PeerDownReason(buf[offset])}
	offset++

	switch msg.Reason {
	case PeerDownLocalNotification, PeerDownRemoteNotification:
		notifMsgType, bodyLen, err := bgp.DecodeMessageHead(buf[offset:])
		if err != nil {
			return PeerDownMessage{}, 0, err
		}
		if notifMsgType != bgp.MessageNotification {
			return PeerDownMessage{}, 0, wireerr.NewMalformedFieldf("bmp.peerdown.notification", "expected NOTIFICATION, got message type %d", notifMsgType)
		}
		total := bgp.HeaderSize + bodyLen
		if len(buf) < offset+total {
			return PeerDownMessage{}, 0, wireerr.NewInsufficientBuffer(offset+total, len(buf))
		}
		notif, _, err := bgp.DecodeNotification(buf[offset+bgp.HeaderSize : offset+total])
		if err != nil {
			return PeerDownMessage{}, 0, err
		}
		msg.Notification = &notif
		offset += total
	case PeerDownLocalNoNotification:
		if len(buf) < offset+2 {
			return PeerDownMessage{}, 0, wireerr.NewInsufficientBuffer(offset+2, len(buf))
		}
		code, _, _ := wire.ReadUint16(buf[offset:])
		msg.FSMEventCode = code
		offset += 2
	case PeerDownRemoteNoNotification, PeerDownPeerDeconfigured:
		// No trailing data (RFC 7854 §4.9, RFC 9069 §4.9).
	default:
		msg.Data = append([]byte{}, buf[offset:]...)
		offset = len(buf)
	}

	return msg, offset, nil
}
