package wireerr

import (
	"errors"
	"testing"
)

func TestErrorIsMatchesKindOnly(t *testing.T) {
	a := NewInsufficientBuffer(10, 3)
	b := NewInsufficientBuffer(99, 1)

	if !errors.Is(a, b) {
		t.Fatalf("expected errors with the same Kind to match via errors.Is")
	}
	if errors.Is(a, ErrMarkerMismatch) {
		t.Fatalf("expected errors with different Kinds not to match")
	}
}

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		err  *Error
		want string
	}{
		{NewInsufficientBuffer(4, 1), "wire: insufficient buffer: need 4 bytes, have 1"},
		{NewTooMuchData(4096), "wire: declared length exceeds limit 4096"},
		{ErrMarkerMismatch, "bgp: marker mismatch: header is not all-ones"},
		{NewUnsupportedVersion(5), "bgp: unsupported version 5"},
		{NewMalformedField("prefix_len", "exceeds address width"), "wire: malformed field prefix_len: exceeds address width"},
		{NewUnknownAttribute(199), "wire: unknown attribute type 199"},
		{NewStatic("custom: %d", 7), "custom: 7"},
	}
	for _, c := range cases {
		if got := c.err.Error(); got != c.want {
			t.Errorf("Error() = %q, want %q", got, c.want)
		}
	}
}
