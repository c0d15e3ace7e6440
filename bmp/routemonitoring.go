package bmp

import (
	"go.uber.org/zap"

	"github.com/route-beacon/bgpcodec/bgp"
	"github.com/route-beacon/bgpcodec/session"
	"github.com/route-beacon/bgpcodec/wireerr"
)

// RouteMonitoringMessage is the decoded body of a BMP Route Monitoring
// message (RFC 7854 §4.6): a per-peer header wrapping one full BGP UPDATE.
type RouteMonitoringMessage struct {
	Peer   PerPeerHeader
	Update bgp.UpdateMessage

	// AmbiguousContext is true when cache held no PeerUp for this peer's
	// composite identity, so the embedded UPDATE was decoded with the
	// 2-byte ASN width and no-AddPath defaults rather than negotiated
	// parameters.
	AmbiguousContext bool
}

// DecodeRouteMonitoring decodes a Route Monitoring body. If cache has an
// entry for the per-peer header's composite identity — ordinarily
// populated by an earlier PeerUp — the embedded UPDATE is decoded with that peer's
// negotiated ASN width and AddPath framing. Otherwise it falls back to
// 2-byte ASN width and no AddPath, and reports AmbiguousContext (spec.md
// §7): a missing PeerUp is never treated as a decode failure. log may be
// nil; a cache miss is logged at Warn when a logger is supplied.
func DecodeRouteMonitoring(buf []byte, cache *PeerCache, log *zap.Logger) (RouteMonitoringMessage, int, error) {
	peer, n, err := decodePerPeerHeader(buf)
	if err != nil {
		return RouteMonitoringMessage{}, 0, err
	}
	offset := n

	msgType, bodyLen, err := bgp.DecodeMessageHead(buf[offset:])
	if err != nil {
		return RouteMonitoringMessage{}, 0, err
	}
	if msgType != bgp.MessageUpdate {
		return RouteMonitoringMessage{}, 0, wireerr.NewMalformedFieldf("bmp.routemonitoring.update", "expected UPDATE, got message type %d", msgType)
	}
	total := bgp.HeaderSize + bodyLen
	if len(buf) < offset+total {
		return RouteMonitoringMessage{}, 0, wireerr.NewInsufficientBuffer(offset+total, len(buf))
	}
	body := buf[offset+bgp.HeaderSize : offset+total]

	var params *session.Parameters
	var ambiguous bool
	if cache != nil {
		if p, ok := cache.Get(peer); ok {
			params = p
		}
	}
	if params == nil {
		ambiguous = true
		params = session.New(peer.ASN, 0, peer.BGPID, session.TransportIPv4, nil)
		if log != nil {
			log.Warn("bmp: route monitoring with no cached peer-up, decoding with default widths",
				zap.Binary("distinguisher", peer.Distinguisher[:]), zap.Uint32("asn", peer.ASN))
		}
	}

	update, _, err := bgp.DecodeUpdateWithParams(body, params)
	if err != nil {
		return RouteMonitoringMessage{}, 0, err
	}
	offset += total

	return RouteMonitoringMessage{Peer: peer, Update: update, AmbiguousContext: ambiguous}, offset, nil
}
