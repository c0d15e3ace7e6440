package bgp

import (
	"github.com/route-beacon/bgpcodec/addr"
	"github.com/route-beacon/bgpcodec/session"
)

// asnWidth returns 4 when p negotiated 4-octet-ASN support, else 2 —
// the width spec.md §4.4 ties AS_PATH/AGGREGATOR encoding to.
func asnWidth(p *session.Parameters) int {
	if p.FourOctetASNEnabled() {
		return 4
	}
	return 2
}

// DecodeUpdateWithParams decodes an UPDATE body the way a caller holding a
// negotiated session ordinarily would: ASN width and whether IPv4-unicast
// carries AddPath framing both come from p (spec.md §4.6).
func DecodeUpdateWithParams(buf []byte, p *session.Parameters) (UpdateMessage, int, error) {
	addPathIPv4 := p.AddPathEnabled(addr.AFIIPv4, addr.SAFIUnicast, session.DirectionReceive)
	return DecodeUpdate(buf, asnWidth(p), addPathIPv4)
}

// EncodeUpdateWithParams is the encode-side counterpart of
// DecodeUpdateWithParams.
func EncodeUpdateWithParams(buf []byte, msg UpdateMessage, p *session.Parameters) (int, error) {
	addPathIPv4 := p.AddPathEnabled(addr.AFIIPv4, addr.SAFIUnicast, session.DirectionSend)
	return EncodeUpdate(buf, msg, asnWidth(p), addPathIPv4)
}
