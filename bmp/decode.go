package bmp

import (
	"go.uber.org/zap"

	"github.com/route-beacon/bgpcodec/wireerr"
)

// Message is the decoded result of Decode: exactly one of the typed fields
// is non-nil, selected by Type.
type Message struct {
	Type MessageType

	RouteMonitoring  *RouteMonitoringMessage
	StatisticsReport *StatisticsReportMessage
	PeerDown         *PeerDownMessage
	PeerUp           *PeerUpMessage
	Initiation       *InitiationMessage
	Termination      *TerminationMessage
	RouteMirroring   *RouteMirroringMessage
}

// Decode decodes one complete BMP message (common header plus body) from
// the front of buf, dispatching on message type. cache supplies the
// peer-context PeerUp establishes, PeerDown evicts, and RouteMonitoring
// consumes; passing nil skips the PeerUp write and PeerDown eviction and
// makes every RouteMonitoring decode with default widths (other message
// types ignore it). log is optional and nil-safe; RouteMonitoring logs a
// cache miss through it (DecodeRouteMonitoring).
func Decode(buf []byte, cache *PeerCache, log *zap.Logger) (Message, int, error) {
	msgType, bodyLen, err := DecodeCommonHeader(buf)
	if err != nil {
		return Message{}, 0, err
	}
	total := CommonHeaderSize + bodyLen
	if len(buf) < total {
		return Message{}, 0, wireerr.NewInsufficientBuffer(total, len(buf))
	}
	body := buf[CommonHeaderSize:total]

	msg := Message{Type: msgType}
	switch msgType {
	case MessageRouteMonitoring:
		rm, _, err := DecodeRouteMonitoring(body, cache, log)
		if err != nil {
			return Message{}, 0, err
		}
		msg.RouteMonitoring = &rm
	case MessageStatisticsReport:
		sr, _, err := DecodeStatisticsReport(body)
		if err != nil {
			return Message{}, 0, err
		}
		msg.StatisticsReport = &sr
	case MessagePeerDown:
		pd, _, err := DecodePeerDown(body)
		if err != nil {
			return Message{}, 0, err
		}
		msg.PeerDown = &pd
		if cache != nil {
			cache.Delete(pd.Peer)
		}
	case MessagePeerUp:
		pu, _, err := DecodePeerUp(body, cache)
		if err != nil {
			return Message{}, 0, err
		}
		msg.PeerUp = &pu
	case MessageInitiation:
		init, _, err := DecodeInitiation(body)
		if err != nil {
			return Message{}, 0, err
		}
		msg.Initiation = &init
	case MessageTermination:
		term, _, err := DecodeTermination(body)
		if err != nil {
			return Message{}, 0, err
		}
		msg.Termination = &term
	case MessageRouteMirroring:
		mirror, _, err := DecodeRouteMirroring(body)
		if err != nil {
			return Message{}, 0, err
		}
		msg.RouteMirroring = &mirror
	default:
		return Message{}, 0, wireerr.NewMalformedFieldf("bmp.message.type", "unknown message type %d", msgType)
	}

	return msg, total, nil
}
