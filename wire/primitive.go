// Package wire implements C1: fixed-width integer, IP address, and prefix
// encode/decode on byte slices with bounds checks. No operation in this
// package allocates beyond what its return value demands, and none panics
// on a short buffer — every read/write is bounds-checked and returns
// *wireerr.Error instead.
package wire

import (
	"encoding/binary"
	"net"

	"github.com/route-beacon/bgpcodec/wireerr"
)

// ReadUint8 reads one byte from buf[0]. Returns the value and 1.
func ReadUint8(buf []byte) (uint8, int, error) {
	if len(buf) < 1 {
		return 0, 0, wireerr.NewInsufficientBuffer(1, len(buf))
	}
	return buf[0], 1, nil
}

// WriteUint8 writes v into buf[0]. Returns 1.
func WriteUint8(buf []byte, v uint8) (int, error) {
	if len(buf) < 1 {
		return 0, wireerr.NewInsufficientBuffer(1, len(buf))
	}
	buf[0] = v
	return 1, nil
}

// ReadUint16 reads a big-endian uint16 from buf[0:2]. Returns the value and 2.
func ReadUint16(buf []byte) (uint16, int, error) {
	if len(buf) < 2 {
		return 0, 0, wireerr.NewInsufficientBuffer(2, len(buf))
	}
	return binary.BigEndian.Uint16(buf), 2, nil
}

// WriteUint16 writes a big-endian uint16 into buf[0:2]. Returns 2.
func WriteUint16(buf []byte, v uint16) (int, error) {
	if len(buf) < 2 {
		return 0, wireerr.NewInsufficientBuffer(2, len(buf))
	}
	binary.BigEndian.PutUint16(buf, v)
	return 2, nil
}

// ReadUint32 reads a big-endian uint32 from buf[0:4]. Returns the value and 4.
func ReadUint32(buf []byte) (uint32, int, error) {
	if len(buf) < 4 {
		return 0, 0, wireerr.NewInsufficientBuffer(4, len(buf))
	}
	return binary.BigEndian.Uint32(buf), 4, nil
}

// WriteUint32 writes a big-endian uint32 into buf[0:4]. Returns 4.
func WriteUint32(buf []byte, v uint32) (int, error) {
	if len(buf) < 4 {
		return 0, wireerr.NewInsufficientBuffer(4, len(buf))
	}
	binary.BigEndian.PutUint32(buf, v)
	return 4, nil
}

// ReadUint64 reads a big-endian uint64 from buf[0:8]. Returns the value and 8.
func ReadUint64(buf []byte) (uint64, int, error) {
	if len(buf) < 8 {
		return 0, 0, wireerr.NewInsufficientBuffer(8, len(buf))
	}
	return binary.BigEndian.Uint64(buf), 8, nil
}

// WriteUint64 writes a big-endian uint64 into buf[0:8]. Returns 8.
func WriteUint64(buf []byte, v uint64) (int, error) {
	if len(buf) < 8 {
		return 0, wireerr.NewInsufficientBuffer(8, len(buf))
	}
	binary.BigEndian.PutUint64(buf, v)
	return 8, nil
}

// ReadIPv4 reads a 4-byte IPv4 address from buf[0:4].
func ReadIPv4(buf []byte) (net.IP, int, error) {
	if len(buf) < 4 {
		return nil, 0, wireerr.NewInsufficientBuffer(4, len(buf))
	}
	ip := make(net.IP, 4)
	copy(ip, buf[:4])
	return ip, 4, nil
}

// WriteIPv4 writes a 4-byte IPv4 address into buf[0:4]. ip must have a valid
// 4-byte form (net.IP.To4() is applied).
func WriteIPv4(buf []byte, ip net.IP) (int, error) {
	if len(buf) < 4 {
		return 0, wireerr.NewInsufficientBuffer(4, len(buf))
	}
	v4 := ip.To4()
	if v4 == nil {
		return 0, wireerr.NewMalformedField("ipv4", "address is not a valid IPv4 address")
	}
	copy(buf, v4)
	return 4, nil
}

// ReadIPv6 reads a 16-byte IPv6 address from buf[0:16].
func ReadIPv6(buf []byte) (net.IP, int, error) {
	if len(buf) < 16 {
		return nil, 0, wireerr.NewInsufficientBuffer(16, len(buf))
	}
	ip := make(net.IP, 16)
	copy(ip, buf[:16])
	return ip, 16, nil
}

// WriteIPv6 writes a 16-byte IPv6 address into buf[0:16].
func WriteIPv6(buf []byte, ip net.IP) (int, error) {
	if len(buf) < 16 {
		return 0, wireerr.NewInsufficientBuffer(16, len(buf))
	}
	v6 := ip.To16()
	if v6 == nil {
		return 0, wireerr.NewMalformedField("ipv6", "address is not a valid IPv6 address")
	}
	copy(buf, v6)
	return 16, nil
}

// PrefixByteLen returns ceil(bits/8), the number of trailing octets a
// prefix of the given bit length occupies on the wire.
func PrefixByteLen(bits int) int {
	return (bits + 7) / 8
}

// ReadPrefixBits reads a 1-byte prefix length (in bits), validates it
// against maxBits for the address family, then reads ceil(bits/8) trailing
// address octets into a maxBits/8-byte buffer (zero-padded). Returns the
// padded address bytes, the prefix length, and the total bytes consumed
// (1 + ceil(bits/8)).
func ReadPrefixBits(buf []byte, maxBits int, where string) ([]byte, int, int, error) {
	plen, n, err := ReadUint8(buf)
	if err != nil {
		return nil, 0, 0, err
	}
	if int(plen) > maxBits {
		return nil, 0, 0, wireerr.NewMalformedFieldf(where, "prefix length %d exceeds address width %d", plen, maxBits)
	}
	byteLen := PrefixByteLen(int(plen))
	if len(buf) < n+byteLen {
		return nil, 0, 0, wireerr.NewInsufficientBuffer(n+byteLen, len(buf))
	}
	padded := make([]byte, maxBits/8)
	copy(padded, buf[n:n+byteLen])
	return padded, int(plen), n + byteLen, nil
}

// WritePrefixBits writes a 1-byte prefix length followed by ceil(bits/8)
// leading octets of addr. Returns total bytes written.
func WritePrefixBits(buf []byte, addr []byte, bits int) (int, error) {
	byteLen := PrefixByteLen(bits)
	if len(buf) < 1+byteLen {
		return 0, wireerr.NewInsufficientBuffer(1+byteLen, len(buf))
	}
	if byteLen > len(addr) {
		return 0, wireerr.NewMalformedField("prefix", "address shorter than declared prefix length")
	}
	buf[0] = uint8(bits)
	copy(buf[1:1+byteLen], addr[:byteLen])
	return 1 + byteLen, nil
}
