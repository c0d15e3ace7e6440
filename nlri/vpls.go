package nlri

import (
	"github.com/route-beacon/bgpcodec/addr"
	"github.com/route-beacon/bgpcodec/wire"
	"github.com/route-beacon/bgpcodec/wireerr"
)

// VPLSRoute is the fixed-shape L2VPN/VPLS NLRI (RFC 4761 §3.2.2): a route
// distinguisher plus a VE block descriptor and a single MPLS label. Unlike
// every other family here there is no variable-length address; the NLRI
// length field itself is 2 octets rather than 1.
type VPLSRoute struct {
	RD             addr.RouteDistinguisher
	VEID           uint16
	VEBlockOffset  uint16
	VEBlockSize    uint16
	Label          addr.MPLSLabel
}

const vplsFixedLen = 8 + 2 + 2 + 2 + 3 // RD + VEID + offset + size + label

// decodeVPLSEntry decodes one VPLS NLRI element: a 2-byte length field
// (RFC 4761 §3.2.2, not the 1-byte "bits" field used elsewhere) followed by
// the fixed 17-byte body.
func decodeVPLSEntry(buf []byte, mode Mode) (Entry, int, error) {
	e := Entry{AFI: addr.AFIL2VPN, SAFI: addr.SAFIVPLS}
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

	length, n, err := wire.ReadUint16(buf[offset:])
	if err != nil {
		return Entry{}, 0, err
	}
	offset += n
	if int(length) != vplsFixedLen {
		return Entry{}, 0, wireerr.NewMalformedFieldf("nlri.vpls_length", "expected VPLS NLRI length %d, got %d", vplsFixedLen, length)
	}
	if len(buf) < offset+vplsFixedLen {
		return Entry{}, 0, wireerr.NewInsufficientBuffer(offset+vplsFixedLen, len(buf))
	}

	rd, consumed, err := addr.DecodeRD(buf[offset:])
	if err != nil {
		return Entry{}, 0, err
	}
	offset += consumed

	veid, _, _ := wire.ReadUint16(buf[offset:])
	offset += 2
	blockOffset, _, _ := wire.ReadUint16(buf[offset:])
	offset += 2
	blockSize, _, _ := wire.ReadUint16(buf[offset:])
	offset += 2

	var raw [3]byte
	copy(raw[:], buf[offset:offset+3])
	offset += 3

	e.VPLS = &VPLSRoute{
		RD:            rd,
		VEID:          veid,
		VEBlockOffset: blockOffset,
		VEBlockSize:   blockSize,
		Label:         addr.UnpackLabel3(raw),
	}
	return e, offset, nil
}

// encodeVPLSEntry is the encode-side counterpart of decodeVPLSEntry.
func encodeVPLSEntry(buf []byte, e Entry, mode Mode) (int, error) {
	offset := 0
	if mode.AddPath {
		n, err := wire.WriteUint32(buf, e.PathID)
		if err != nil {
			return 0, err
		}
		offset += n
	}
	if len(buf) < offset+2+vplsFixedLen {
		return 0, wireerr.NewInsufficientBuffer(offset+2+vplsFixedLen, len(buf))
	}
	wire.WriteUint16(buf[offset:], uint16(vplsFixedLen))
	offset += 2

	n, err := addr.EncodeRD(buf[offset:], e.VPLS.RD)
	if err != nil {
		return 0, err
	}
	offset += n

	wire.WriteUint16(buf[offset:], e.VPLS.VEID)
	offset += 2
	wire.WriteUint16(buf[offset:], e.VPLS.VEBlockOffset)
	offset += 2
	wire.WriteUint16(buf[offset:], e.VPLS.VEBlockSize)
	offset += 2

	label := e.VPLS.Label.Pack3()
	copy(buf[offset:offset+3], label[:])
	offset += 3

	return offset, nil
}
