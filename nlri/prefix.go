package nlri

import (
	"github.com/route-beacon/bgpcodec/addr"
	"github.com/route-beacon/bgpcodec/wire"
	"github.com/route-beacon/bgpcodec/wireerr"
)

// decodePrefixEntry decodes a self-delimiting prefix (RFC 4271 §4.3, RFC
// 3107 §3), shared by unicast, multicast, labeled-unicast, and the two VPN
// SAFIs: optional path-id, then a 1-byte prefix length in bits whose total
// includes any label stack and RD bits that precede the address.
func decodePrefixEntry(buf []byte, afisafi AFISAFI, mode Mode) (Entry, int, error) {
	e := Entry{AFI: afisafi.AFI, SAFI: afisafi.SAFI}
	offset := 0

	if mode.AddPath {
		pathID, n, err := wire.ReadUint32(buf)
		if err != nil {
			return Entry{}, 0, err
		}
		e.HasPathID = true
		e.PathID = pathID
		offset += n
	}

	totalBits, n, err := wire.ReadUint8(buf[offset:])
	if err != nil {
		return Entry{}, 0, err
	}
	offset += n
	remainingBits := int(totalBits)

	isLabeled := afisafi.SAFI == addr.SAFILabeledUnicast || afisafi.SAFI == addr.SAFIVPNUnicast || afisafi.SAFI == addr.SAFIVPNMulticast
	isVPN := afisafi.SAFI == addr.SAFIVPNUnicast || afisafi.SAFI == addr.SAFIVPNMulticast

	if isLabeled {
		labels, consumed, err := addr.DecodeLabelStack(buf[offset:], remainingBits)
		if err != nil {
			return Entry{}, 0, err
		}
		e.Labels = labels
		offset += consumed
		remainingBits -= consumed * 8
	}

	if isVPN {
		if remainingBits < 64 {
			return Entry{}, 0, wireerr.NewMalformedField("nlri.rd", "declared bit length too short for route distinguisher")
		}
		rd, consumed, err := addr.DecodeRD(buf[offset:])
		if err != nil {
			return Entry{}, 0, err
		}
		e.HasRD = true
		e.RD = rd
		offset += consumed
		remainingBits -= consumed * 8
	}

	maxBits := maxBitsForAFI(afisafi.AFI)
	if remainingBits < 0 || remainingBits > maxBits {
		return Entry{}, 0, wireerr.NewMalformedFieldf("nlri.prefix_len", "address bit length %d out of range [0,%d]", remainingBits, maxBits)
	}
	byteLen := wire.PrefixByteLen(remainingBits)
	if len(buf) < offset+byteLen {
		return Entry{}, 0, wireerr.NewInsufficientBuffer(offset+byteLen, len(buf))
	}
	padded := make([]byte, maxBits/8)
	copy(padded, buf[offset:offset+byteLen])
	offset += byteLen

	e.Prefix = addr.BgpNet{IP: netIPFromPadded(padded), Bits: remainingBits}
	return e, offset, nil
}

// encodePrefixEntry is the encode-side counterpart of decodePrefixEntry.
func encodePrefixEntry(buf []byte, e Entry, mode Mode) (int, error) {
	offset := 0
	if mode.AddPath {
		n, err := wire.WriteUint32(buf, e.PathID)
		if err != nil {
			return 0, err
		}
		offset += n
	}

	isLabeled := e.SAFI == addr.SAFILabeledUnicast || e.SAFI == addr.SAFIVPNUnicast || e.SAFI == addr.SAFIVPNMulticast
	isVPN := e.SAFI == addr.SAFIVPNUnicast || e.SAFI == addr.SAFIVPNMulticast

	// A labeled withdraw carries the 0x800000 sentinel in place of the
	// entry's own labels (RFC 3107 §3).
	labels := e.Labels
	if isLabeled && mode.Withdraw {
		labels = []addr.MPLSLabel{addr.WithdrawSentinelLabel()}
	}
	labelBits := 0
	if isLabeled {
		labelBits = 24 * len(labels)
	}
	rdBits := 0
	if isVPN {
		rdBits = 64
	}
	totalBits := labelBits + rdBits + e.Prefix.Bits

	if len(buf) < offset+1 {
		return 0, wireerr.NewInsufficientBuffer(offset+1, len(buf))
	}
	buf[offset] = uint8(totalBits)
	offset++

	if isLabeled {
		n, err := addr.EncodeLabelStack(buf[offset:], labels)
		if err != nil {
			return 0, err
		}
		offset += n
	}
	if isVPN {
		n, err := addr.EncodeRD(buf[offset:], e.RD)
		if err != nil {
			return 0, err
		}
		offset += n
	}

	byteLen := wire.PrefixByteLen(e.Prefix.Bits)
	if len(buf) < offset+byteLen {
		return 0, wireerr.NewInsufficientBuffer(offset+byteLen, len(buf))
	}
	copy(buf[offset:offset+byteLen], []byte(e.Prefix.IP)[:byteLen])
	offset += byteLen

	return offset, nil
}

func netIPFromPadded(padded []byte) []byte {
	out := make([]byte, len(padded))
	copy(out, padded)
	return out
}
