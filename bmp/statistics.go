package bmp

import (
	"github.com/route-beacon/bgpcodec/wire"
	"github.com/route-beacon/bgpcodec/wireerr"
)

// StatType is a Statistics Report TLV type code (RFC 7854 §4.8).
type StatType uint16

const (
	StatPrefixesRejected          StatType = 0
	StatDuplicatePrefix           StatType = 1
	StatDuplicateWithdraw         StatType = 2
	StatInvalidClusterList        StatType = 3
	StatInvalidASPathLoop         StatType = 4
	StatInvalidOriginatorID       StatType = 5
	StatInvalidASConfed           StatType = 6
	StatAdjRIBInRoutes            StatType = 7
	StatLocRIBRoutes              StatType = 8
	StatAdjRIBInRoutesPerAFISAFI  StatType = 9
	StatLocRIBRoutesPerAFISAFI    StatType = 10
	StatUpdatesTreatedAsWithdraw  StatType = 11
	StatPrefixesTreatedAsWithdraw StatType = 12
	StatDuplicateUpdate           StatType = 13
)

// StatTLV is one Statistics Report TLV: type, length, and either a 4-byte or
// 8-byte counter value depending on type (RFC 7854 §4.8). Value is kept
// opaque here — callers that know a given type's width read it with
// wire.ReadUint32/ReadUint64 directly.
type StatTLV struct {
	Type  StatType
	Value []byte
}

// StatisticsReportMessage is the decoded body of a BMP Statistics Report
// message (RFC 7854 §4.8): a per-peer header followed by a stat count and
// that many stat TLVs.
type StatisticsReportMessage struct {
	Peer  PerPeerHeader
	Stats []StatTLV
}

// DecodeStatisticsReport decodes a Statistics Report body.
func DecodeStatisticsReport(buf []byte) (StatisticsReportMessage, int, error) {
	peer, n, err := decodePerPeerHeader(buf)
	if err != nil {
		return StatisticsReportMessage{}, 0, err
	}
	offset := n

	if len(buf) < offset+4 {
		return StatisticsReportMessage{}, 0, wireerr.NewInsufficientBuffer(offset+4, len(buf))
	}
	count, _, _ := wire.ReadUint32(buf[offset:])
	offset += 4

	stats := make([]StatTLV, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(buf) < offset+4 {
			return StatisticsReportMessage{}, 0, wireerr.NewInsufficientBuffer(offset+4, len(buf))
		}
		typ, _, _ := wire.ReadUint16(buf[offset:])
		length, _, _ := wire.ReadUint16(buf[offset+2:])
		offset += 4
		if len(buf) < offset+int(length) {
			return StatisticsReportMessage{}, 0, wireerr.NewInsufficientBuffer(offset+int(length), len(buf))
		}
		stats = append(stats, StatTLV{Type: StatType(typ), Value: append([]byte{}, buf[offset:offset+int(length)]...)})
		offset += int(length)
	}

	return StatisticsReportMessage{Peer: peer, Stats: stats}, offset, nil
}

// EncodeStatisticsReport serializes a StatisticsReportMessage.
func EncodeStatisticsReport(buf []byte, msg StatisticsReportMessage) (int, error) {
	n, err := encodePerPeerHeader(buf, msg.Peer)
	if err != nil {
		return 0, err
	}
	offset := n
	if len(buf) < offset+4 {
		return 0, wireerr.NewInsufficientBuffer(offset+4, len(buf))
	}
	wire.WriteUint32(buf[offset:], uint32(len(msg.Stats)))
	offset += 4
	for _, s := range msg.Stats {
		total := offset + 4 + len(s.Value)
		if len(buf) < total {
			return 0, wireerr.NewInsufficientBuffer(total, len(buf))
		}
		wire.WriteUint16(buf[offset:], uint16(s.Type))
		wire.WriteUint16(buf[offset+2:], uint16(len(s.Value)))
		offset += 4
		copy(buf[offset:], s.Value)
		offset += len(s.Value)
	}
	return offset, nil
}
