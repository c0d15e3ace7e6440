package bmp

import (
	"github.com/route-beacon/bgpcodec/bgp"
	"github.com/route-beacon/bgpcodec/session"
	"github.com/route-beacon/bgpcodec/wire"
	"github.com/route-beacon/bgpcodec/wireerr"
)

// PeerUpMessage is the decoded body of a BMP PeerUp Notification (RFC 7854
// §4.10). It embeds the full Sent and Received OPEN messages the monitored
// router exchanged with this peer — the only place the effective session
// parameters for that peer's subsequent RouteMonitoring messages come from.
type PeerUpMessage struct {
	Peer         PerPeerHeader
	LocalAddress [16]byte
	LocalPort    uint16
	RemotePort   uint16
	SentOpen     bgp.OpenMessage
	ReceivedOpen bgp.OpenMessage
	Information  []InformationTLV
}

// DecodePeerUp decodes a PeerUp body and, on success, writes the effective
// session.Parameters it establishes into cache, keyed by the per-peer
// header's composite identity, so that later RouteMonitoring messages for
// this peer can decode their embedded UPDATE correctly. Pass a nil cache to
// decode without updating any cache.
func DecodePeerUp(buf []byte, cache *PeerCache) (PeerUpMessage, int, error) {
	peer, n, err := decodePerPeerHeader(buf)
	if err != nil {
		return PeerUpMessage{}, 0, err
	}
	offset := n

	if len(buf) < offset+20 {
		return PeerUpMessage{}, 0, wireerr.NewInsufficientBuffer(offset+20, len(buf))
	}
	msg := PeerUpMessage{Peer: peer}
	copy(msg.LocalAddress[:], buf[offset:offset+16])
	offset += 16
	localPort, _, _ := wire.ReadUint16(buf[offset:])
	msg.LocalPort = localPort
	offset += 2
	remotePort, _, _ := wire.ReadUint16(buf[offset:])
	msg.RemotePort = remotePort
	offset += 2

	sentOpen, sentLen, err := decodeEmbeddedOpen(buf[offset:])
	if err != nil {
		return PeerUpMessage{}, 0, err
	}
	msg.SentOpen = sentOpen
	offset += sentLen

	receivedOpen, recvLen, err := decodeEmbeddedOpen(buf[offset:])
	if err != nil {
		return PeerUpMessage{}, 0, err
	}
	msg.ReceivedOpen = receivedOpen
	offset += recvLen

	if offset < len(buf) {
		info, err := decodeTLVs(buf[offset:])
		if err != nil {
			return PeerUpMessage{}, 0, err
		}
		msg.Information = info
	}
	offset = len(buf)

	if cache != nil {
		cache.Put(peer, effectiveParameters(peer, sentOpen, receivedOpen))
	}

	return msg, offset, nil
}

// decodeEmbeddedOpen reads one full BGP message (19-byte header included)
// known to be an OPEN, as PeerUp carries it (RFC 7854 §4.10).
func decodeEmbeddedOpen(buf []byte) (bgp.OpenMessage, int, error) {
	msgType, bodyLen, err := bgp.DecodeMessageHead(buf)
	if err != nil {
		return bgp.OpenMessage{}, 0, err
	}
	if msgType != bgp.MessageOpen {
		return bgp.OpenMessage{}, 0, wireerr.NewMalformedFieldf("bmp.peerup.open", "expected OPEN, got message type %d", msgType)
	}
	total := bgp.HeaderSize + bodyLen
	if len(buf) < total {
		return bgp.OpenMessage{}, 0, wireerr.NewInsufficientBuffer(total, len(buf))
	}
	open, _, err := bgp.DecodeOpen(buf[bgp.HeaderSize:total])
	if err != nil {
		return bgp.OpenMessage{}, 0, err
	}
	return open, total, nil
}

// effectiveParameters builds the session.Parameters governing traffic the
// monitored router exchanged with this peer: LocalASN/HoldTime/RouterID/
// Capabilities come from the Sent OPEN (what the monitored router
// advertised), then UpdateFrom intersects the Received OPEN's capabilities
// exactly as the router itself would have on session establishment.
func effectiveParameters(peer PerPeerHeader, sentOpen, receivedOpen bgp.OpenMessage) *session.Parameters {
	transport := session.TransportIPv4
	if peer.IsIPv6() {
		transport = session.TransportIPv6
	}
	p := session.New(sentOpen.ASN, sentOpen.HoldTime, sentOpen.RouterID, transport, sentOpen.Capabilities)
	p.UpdateFrom(receivedOpen.Capabilities)
	return p
}
