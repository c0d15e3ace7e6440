package nlri

import "github.com/route-beacon/bgpcodec/wireerr"

type decodeFunc func(buf []byte, afisafi AFISAFI, mode Mode) (Entry, int, error)
type encodeFunc func(buf []byte, e Entry, mode Mode) (int, error)

// dispatch maps each supported (AFI, SAFI) pair to its decode/encode
// functions (spec.md §9's "dispatch table rather than an inheritance
// hierarchy"). Families that share a wire shape (unicast, multicast,
// labeled-unicast, VPN-unicast, VPN-multicast) share decodePrefixEntry.
var dispatch = map[AFISAFI]struct {
	decode decodeFunc
	encode encodeFunc
}{}

func init() {
	prefixFamilies := []AFISAFI{
		{AFI: 1, SAFI: 1}, {AFI: 1, SAFI: 2}, {AFI: 1, SAFI: 4}, {AFI: 1, SAFI: 128}, {AFI: 1, SAFI: 129},
		{AFI: 2, SAFI: 1}, {AFI: 2, SAFI: 2}, {AFI: 2, SAFI: 4}, {AFI: 2, SAFI: 128}, {AFI: 2, SAFI: 129},
	}
	for _, fam := range prefixFamilies {
		dispatch[fam] = struct {
			decode decodeFunc
			encode encodeFunc
		}{
			decode: decodePrefixEntry,
			encode: encodePrefixEntry,
		}
	}

	flowspecFamilies := []AFISAFI{{AFI: 1, SAFI: 133}, {AFI: 2, SAFI: 133}}
	for _, fam := range flowspecFamilies {
		dispatch[fam] = struct {
			decode decodeFunc
			encode encodeFunc
		}{
			decode: decodeFlowspecEntry,
			encode: encodeFlowspecEntry,
		}
	}

	dispatch[AFISAFI{AFI: 25, SAFI: 70}] = struct {
		decode decodeFunc
		encode encodeFunc
	}{
		decode: func(buf []byte, _ AFISAFI, mode Mode) (Entry, int, error) { return decodeEVPNEntry(buf, mode) },
		encode: encodeEVPNEntry,
	}

	dispatch[AFISAFI{AFI: 25, SAFI: 65}] = struct {
		decode decodeFunc
		encode encodeFunc
	}{
		decode: func(buf []byte, _ AFISAFI, mode Mode) (Entry, int, error) { return decodeVPLSEntry(buf, mode) },
		encode: encodeVPLSEntry,
	}

	mvpnFamilies := []AFISAFI{{AFI: 1, SAFI: 5}, {AFI: 2, SAFI: 5}}
	for _, fam := range mvpnFamilies {
		dispatch[fam] = struct {
			decode decodeFunc
			encode encodeFunc
		}{
			decode: decodeMVPNEntry,
			encode: encodeMVPNEntry,
		}
	}

	dispatch[AFISAFI{AFI: 1, SAFI: 66}] = struct {
		decode decodeFunc
		encode encodeFunc
	}{
		decode: decodeMDTEntry,
		encode: encodeMDTEntry,
	}
}

// Decode parses one NLRI element for the given (AFI, SAFI), returning the
// decoded Entry and the number of bytes consumed from buf. Decode does not
// loop over a whole NLRI block; callers with a block of several entries
// use DecodeList.
func Decode(buf []byte, afi uint16, safi uint8, mode Mode) (Entry, int, error) {
	fns, ok := dispatch[AFISAFI{AFI: afi, SAFI: safi}]
	if !ok {
		return Entry{}, 0, wireerr.NewMalformedFieldf("nlri.afi_safi", "unsupported AFI/SAFI combination (%d, %d)", afi, safi)
	}
	return fns.decode(buf, AFISAFI{AFI: afi, SAFI: safi}, mode)
}

// Encode serializes one Entry, dispatching on e.AFI/e.SAFI.
func Encode(buf []byte, e Entry, mode Mode) (int, error) {
	fns, ok := dispatch[AFISAFI{AFI: e.AFI, SAFI: e.SAFI}]
	if !ok {
		return 0, wireerr.NewMalformedFieldf("nlri.afi_safi", "unsupported AFI/SAFI combination (%d, %d)", e.AFI, e.SAFI)
	}
	return fns.encode(buf, e, mode)
}

// DecodeList parses a whole NLRI byte block — the shape UPDATE's
// withdrawn-routes field, NLRI field, and MP_REACH/MP_UNREACH all share —
// into a slice of entries, stopping only once buf is exhausted (spec.md
// §4.3).
func DecodeList(buf []byte, afi uint16, safi uint8, mode Mode) ([]Entry, error) {
	var entries []Entry
	offset := 0
	for offset < len(buf) {
		e, n, err := Decode(buf[offset:], afi, safi, mode)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, wireerr.NewMalformedField("nlri.list", "decoder made no forward progress")
		}
		entries = append(entries, e)
		offset += n
	}
	return entries, nil
}

// EncodeList serializes entries into buf, returning the number of bytes
// written. All entries must share the same (AFI, SAFI).
func EncodeList(buf []byte, entries []Entry, mode Mode) (int, error) {
	offset := 0
	for _, e := range entries {
		n, err := Encode(buf[offset:], e, mode)
		if err != nil {
			return 0, err
		}
		offset += n
	}
	return offset, nil
}
