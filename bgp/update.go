package bgp

import (
	"github.com/route-beacon/bgpcodec/addr"
	"github.com/route-beacon/bgpcodec/attribute"
	"github.com/route-beacon/bgpcodec/nlri"
	"github.com/route-beacon/bgpcodec/wire"
	"github.com/route-beacon/bgpcodec/wireerr"
)

// UpdateMessage is the decoded body of a BGP UPDATE (RFC 4271 §4.3). The
// IPv4-unicast withdrawn/NLRI fields are always plain IPv4 entries; every
// other family arrives inside Attributes' MP_REACH_NLRI/MP_UNREACH_NLRI.
type UpdateMessage struct {
	WithdrawnRoutes []nlri.Entry
	Attributes      []attribute.Attribute
	NLRI            []nlri.Entry
}

// DecodeUpdate decodes an UPDATE message body. asnWidth and addPathIPv4
// come from the session parameters governing this direction: AS_PATH /
// AGGREGATOR width, and whether the IPv4-unicast withdrawn/NLRI fields
// carry a path-id (spec.md §4.5).
func DecodeUpdate(buf []byte, asnWidth int, addPathIPv4 bool) (UpdateMessage, int, error) {
	offset := 0

	withdrawnLen, n, err := wire.ReadUint16(buf[offset:])
	if err != nil {
		return UpdateMessage{}, 0, err
	}
	offset += n
	if len(buf) < offset+int(withdrawnLen) {
		return UpdateMessage{}, 0, wireerr.NewInsufficientBuffer(offset+int(withdrawnLen), len(buf))
	}
	withdrawn, err := nlri.DecodeList(buf[offset:offset+int(withdrawnLen)], addr.AFIIPv4, addr.SAFIUnicast, nlri.Mode{AddPath: addPathIPv4, Withdraw: true})
	if err != nil {
		return UpdateMessage{}, 0, err
	}
	offset += int(withdrawnLen)

	attrsLen, n, err := wire.ReadUint16(buf[offset:])
	if err != nil {
		return UpdateMessage{}, 0, err
	}
	offset += n
	if len(buf) < offset+int(attrsLen) {
		return UpdateMessage{}, 0, wireerr.NewInsufficientBuffer(offset+int(attrsLen), len(buf))
	}
	attrs, err := attribute.DecodeAll(buf[offset:offset+int(attrsLen)], asnWidth)
	if err != nil {
		return UpdateMessage{}, 0, err
	}
	offset += int(attrsLen)

	nlriEntries, err := nlri.DecodeList(buf[offset:], addr.AFIIPv4, addr.SAFIUnicast, nlri.Mode{AddPath: addPathIPv4})
	if err != nil {
		return UpdateMessage{}, 0, err
	}
	offset = len(buf)

	return UpdateMessage{WithdrawnRoutes: withdrawn, Attributes: attrs, NLRI: nlriEntries}, offset, nil
}

// EncodeUpdate is the encode-side counterpart of DecodeUpdate.
func EncodeUpdate(buf []byte, msg UpdateMessage, asnWidth int, addPathIPv4 bool) (int, error) {
	withdrawnBytes := make([]byte, 65535)
	wn, err := nlri.EncodeList(withdrawnBytes, msg.WithdrawnRoutes, nlri.Mode{AddPath: addPathIPv4, Withdraw: true})
	if err != nil {
		return 0, err
	}

	attrBytes := make([]byte, 65535)
	an, err := attribute.EncodeAll(attrBytes, msg.Attributes, asnWidth)
	if err != nil {
		return 0, err
	}

	nlriBytes := make([]byte, 65535)
	nn, err := nlri.EncodeList(nlriBytes, msg.NLRI, nlri.Mode{AddPath: addPathIPv4})
	if err != nil {
		return 0, err
	}

	total := 2 + wn + 2 + an + nn
	if len(buf) < total {
		return 0, wireerr.NewInsufficientBuffer(total, len(buf))
	}
	offset := 0
	wire.WriteUint16(buf[offset:], uint16(wn))
	offset += 2
	copy(buf[offset:offset+wn], withdrawnBytes[:wn])
	offset += wn

	wire.WriteUint16(buf[offset:], uint16(an))
	offset += 2
	copy(buf[offset:offset+an], attrBytes[:an])
	offset += an

	copy(buf[offset:offset+nn], nlriBytes[:nn])
	offset += nn

	return offset, nil
}

// NotificationMessage is the decoded body of a BGP NOTIFICATION
// (RFC 4271 §4.5).
type NotificationMessage struct {
	ErrorCode    uint8
	ErrorSubcode uint8
	Data         []byte
}

// DecodeNotification decodes a NOTIFICATION message body.
func DecodeNotification(buf []byte) (NotificationMessage, int, error) {
	if len(buf) < 2 {
		return NotificationMessage{}, 0, wireerr.NewInsufficientBuffer(2, len(buf))
	}
	return NotificationMessage{
		ErrorCode:    buf[0],
		ErrorSubcode: buf[1],
		Data:         append([]byte{}, buf[2:]...),
	}, len(buf), nil
}

// EncodeNotification serializes a NotificationMessage into buf.
func EncodeNotification(buf []byte, msg NotificationMessage) (int, error) {
	total := 2 + len(msg.Data)
	if len(buf) < total {
		return 0, wireerr.NewInsufficientBuffer(total, len(buf))
	}
	buf[0] = msg.ErrorCode
	buf[1] = msg.ErrorSubcode
	copy(buf[2:], msg.Data)
	return total, nil
}

// DecodeKeepalive validates that a KEEPALIVE body is empty, per RFC 4271
// §4.4.
func DecodeKeepalive(buf []byte) error {
	if len(buf) != 0 {
		return wireerr.NewMalformedField("bgp.keepalive", "expected empty body")
	}
	return nil
}

// RouteEventKind discriminates the two projections UPDATE produces once
// withdrawn routes and announced NLRI are merged into a single timeline
// (the "Events()" projection callers that don't care about the raw
// withdrawn/NLRI split typically want).
type RouteEventKind uint8

const (
	RouteAnnounced RouteEventKind = 1
	RouteWithdrawn RouteEventKind = 2
)

// RouteEvent is one announced or withdrawn route, with the attributes that
// applied (nil for withdrawals, which carry no attributes on the wire).
type RouteEvent struct {
	Kind       RouteEventKind
	AFI        uint16
	SAFI       uint8
	Entry      nlri.Entry
	Attributes []attribute.Attribute
}

// Events projects an UpdateMessage's withdrawn/announced sections —
// including any families carried inside MP_REACH_NLRI/MP_UNREACH_NLRI —
// into a flat list of route events. decodeMP, when non-nil, is used to
// decode each MP attribute's embedded NLRI block with the caller's AddPath
// mode for that (AFI, SAFI); callers that never negotiate AddPath outside
// IPv4 unicast may pass a function that always returns Mode{}.
func Events(msg UpdateMessage, decodeMP func(afi uint16, safi uint8) nlri.Mode) ([]RouteEvent, error) {
	var events []RouteEvent

	for _, e := range msg.WithdrawnRoutes {
		events = append(events, RouteEvent{Kind: RouteWithdrawn, AFI: addr.AFIIPv4, SAFI: addr.SAFIUnicast, Entry: e})
	}
	for _, e := range msg.NLRI {
		events = append(events, RouteEvent{Kind: RouteAnnounced, AFI: addr.AFIIPv4, SAFI: addr.SAFIUnicast, Entry: e, Attributes: msg.Attributes})
	}

	for _, a := range msg.Attributes {
		if a.Type == attribute.TypeMPUnreachNLRI && a.MPUnreach != nil {
			mode := nlri.Mode{Withdraw: true}
			if decodeMP != nil {
				mode = decodeMP(a.MPUnreach.AFI, a.MPUnreach.SAFI)
				mode.Withdraw = true
			}
			entries, err := nlri.DecodeList(a.MPUnreach.NLRI, a.MPUnreach.AFI, a.MPUnreach.SAFI, mode)
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				events = append(events, RouteEvent{Kind: RouteWithdrawn, AFI: a.MPUnreach.AFI, SAFI: a.MPUnreach.SAFI, Entry: e})
			}
		}
		if a.Type == attribute.TypeMPReachNLRI && a.MPReach != nil {
			mode := nlri.Mode{}
			if decodeMP != nil {
				mode = decodeMP(a.MPReach.AFI, a.MPReach.SAFI)
			}
			entries, err := nlri.DecodeList(a.MPReach.NLRI, a.MPReach.AFI, a.MPReach.SAFI, mode)
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				events = append(events, RouteEvent{Kind: RouteAnnounced, AFI: a.MPReach.AFI, SAFI: a.MPReach.SAFI, Entry: e, Attributes: msg.Attributes})
			}
		}
	}

	return events, nil
}

// IsEndOfRIB reports whether msg is an End-of-RIB marker (RFC 4724 §2): for
// IPv4 unicast, an UPDATE with no withdrawn routes, no attributes, and no
// NLRI; for any other family, an UPDATE whose sole attribute is an empty
// MP_UNREACH_NLRI. Returns the AFI/SAFI the marker applies to.
func IsEndOfRIB(msg UpdateMessage) (afi uint16, safi uint8, ok bool) {
	if len(msg.WithdrawnRoutes) == 0 && len(msg.NLRI) == 0 && len(msg.Attributes) == 0 {
		return addr.AFIIPv4, addr.SAFIUnicast, true
	}
	if len(msg.WithdrawnRoutes) == 0 && len(msg.NLRI) == 0 && len(msg.Attributes) == 1 {
		a := msg.Attributes[0]
		if a.Type == attribute.TypeMPUnreachNLRI && a.MPUnreach != nil && len(a.MPUnreach.NLRI) == 0 {
			return a.MPUnreach.AFI, a.MPUnreach.SAFI, true
		}
	}
	return 0, 0, false
}
