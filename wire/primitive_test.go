package wire

import (
	"errors"
	"net"
	"testing"

	"github.com/route-beacon/bgpcodec/wireerr"
)

func TestReadWriteUint16RoundTrip(t *testing.T) {
	buf := make([]byte, 2)
	if _, err := WriteUint16(buf, 0xBEEF); err != nil {
		t.Fatalf("write: %v", err)
	}
	v, n, err := ReadUint16(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if v != 0xBEEF || n != 2 {
		t.Fatalf("got (%x, %d), want (0xBEEF, 2)", v, n)
	}
}

func TestReadUint32InsufficientBuffer(t *testing.T) {
	_, _, err := ReadUint32([]byte{1, 2, 3})
	var werr *wireerr.Error
	if !errors.As(err, &werr) || werr.Kind != wireerr.InsufficientBuffer {
		t.Fatalf("expected InsufficientBuffer, got %v", err)
	}
}

func TestIPv4RoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	ip := net.ParseIP("192.0.2.1")
	if _, err := WriteIPv4(buf, ip); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, n, err := ReadIPv4(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 4 || !got.Equal(ip) {
		t.Fatalf("got (%v, %d), want (%v, 4)", got, n, ip)
	}
}

func TestReadPrefixBitsDefaultRoute(t *testing.T) {
	buf := []byte{0x00}
	addr, bits, n, err := ReadPrefixBits(buf, 32, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bits != 0 || n != 1 || len(addr) != 4 {
		t.Fatalf("got (bits=%d, n=%d, len=%d), want (0, 1, 4)", bits, n, len(addr))
	}
}

func TestReadPrefixBitsExceedsWidth(t *testing.T) {
	buf := []byte{33, 0, 0, 0, 0}
	_, _, _, err := ReadPrefixBits(buf, 32, "test")
	var werr *wireerr.Error
	if !errors.As(err, &werr) || werr.Kind != wireerr.MalformedField {
		t.Fatalf("expected MalformedField, got %v", err)
	}
}

func TestWriteReadPrefixBitsRoundTrip(t *testing.T) {
	buf := make([]byte, 5)
	addr := net.ParseIP("192.0.2.0").To4()
	n, err := WritePrefixBits(buf, addr, 24)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if n != 4 { // 1 length byte + 3 address bytes for a /24
		t.Fatalf("wrote %d bytes, want 4", n)
	}
	got, bits, consumed, err := ReadPrefixBits(buf[:n], 32, "test")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if bits != 24 || consumed != 4 {
		t.Fatalf("got (bits=%d, consumed=%d), want (24, 4)", bits, consumed)
	}
	if !net.IP(got).Equal(net.ParseIP("192.0.2.0")) {
		t.Fatalf("got %v, want 192.0.2.0", net.IP(got))
	}
}
