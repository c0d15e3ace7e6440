package bmp

// MirroringTLVType discriminates a Route Mirroring TLV's payload (RFC 7854
// §4.7).
type MirroringTLVType uint16

const (
	MirroringBGPMessage  MirroringTLVType = 0
	MirroringInformation MirroringTLVType = 1 // carries a 2-byte code, e.g. "messages lost"
)

// MirroringTLV is one Route Mirroring TLV.
type MirroringTLV struct {
	Type  MirroringTLVType
	Value []byte
}

// RouteMirroringMessage is the decoded body of a BMP Route Mirroring
// message (RFC 7854 §4.7): a per-peer header followed by TLVs, each either
// a verbatim mirrored BGP message or an information code explaining why one
// was not included (e.g. a rate-limited drop).
type RouteMirroringMessage struct {
	Peer PerPeerHeader
	TLVs []MirroringTLV
}

// DecodeRouteMirroring decodes a Route Mirroring body. Mirrored BGP message
// bytes are kept raw in MirroringTLV.Value — decoding them as an UPDATE
// requires the same peer-context cache lookup RouteMonitoring performs, and
// callers that want that can feed the value to bgp.DecodeMessageHead
// themselves.
func DecodeRouteMirroring(buf []byte) (RouteMirroringMessage, int, error) {
	peer, n, err := decodePerPeerHeader(buf)
	if err != nil {
		return RouteMirroringMessage{}, 0, err
	}

	generic, err := decodeTLVs(buf[n:])
	if err != nil {
		return RouteMirroringMessage{}, 0, err
	}
	tlvs := make([]MirroringTLV, len(generic))
	for i, g := range generic {
		tlvs[i] = MirroringTLV{Type: MirroringTLVType(g.Type), Value: g.Value}
	}

	return RouteMirroringMessage{Peer: peer, TLVs: tlvs}, len(buf), nil
}

// EncodeRouteMirroring serializes a RouteMirroringMessage.
func EncodeRouteMirroring(msg RouteMirroringMessage) []byte {
	out := make([]byte, PerPeerHeaderSize)
	encodePerPeerHeader(out, msg.Peer)
	generic := make([]InformationTLV, len(msg.TLVs))
	for i, t := range msg.TLVs {
		generic[i] = InformationTLV{Type: uint16(t.Type), Value: t.Value}
	}
	out = append(out, encodeTLVs(generic)...)
	return out
}
