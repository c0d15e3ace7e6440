// Package wireerr defines the single error taxonomy shared by every codec
// package in this module (bgpcodec/wire, addr, session, nlri, attribute,
// bgp, bmp). Every decode/encode operation in the module returns either a
// success or exactly one *Error.
package wireerr

import "fmt"

// Kind discriminates the tagged error variants from spec.md §4.8.
type Kind int

const (
	// InsufficientBuffer means the slice passed to a decode/encode
	// operation was shorter than the bytes the operation needed.
	InsufficientBuffer Kind = iota
	// TooMuchData means a declared length exceeded a hard ceiling (e.g. a
	// BGP message over 4096 bytes total, header included, without
	// extended-message negotiated).
	TooMuchData
	// MarkerMismatch means a BGP header's 16-byte marker was not all-ones.
	MarkerMismatch
	// UnsupportedVersion means a BGP OPEN or BMP common header carried a
	// version this module does not speak.
	UnsupportedVersion
	// MalformedField means a field violated a wire-format constraint (a
	// prefix length wider than its address family, an AS_PATH segment whose
	// byte length doesn't divide evenly by the negotiated ASN width, ...).
	MalformedField
	// UnknownAttribute is informational: a path-attribute type code, BMP
	// info-TLV type, or EVPN/Flowspec subtype was not recognized. Decoding
	// still succeeds; this Kind exists so callers can surface it without
	// treating it as fatal.
	UnknownAttribute
	// StaticError covers everything else.
	StaticError
)

func (k Kind) String() string {
	switch k {
	case InsufficientBuffer:
		return "InsufficientBuffer"
	case TooMuchData:
		return "TooMuchData"
	case MarkerMismatch:
		return "MarkerMismatch"
	case UnsupportedVersion:
		return "UnsupportedVersion"
	case MalformedField:
		return "MalformedField"
	case UnknownAttribute:
		return "UnknownAttribute"
	default:
		return "StaticError"
	}
}

// Error is the tagged error variant shared across the module. Callers that
// need to branch on failure type should errors.As into *Error and switch on
// Kind rather than matching message text.
type Error struct {
	Kind Kind

	// Need/Have populate InsufficientBuffer.
	Need int
	Have int

	// Limit populates TooMuchData.
	Limit int

	// Got populates UnsupportedVersion.
	Got uint8

	// Where/Why populate MalformedField.
	Where string
	Why   string

	// Code populates UnknownAttribute.
	Code uint8

	// Message is the free-form text for StaticError, and is also appended
	// (when non-empty) to the other kinds for extra context.
	Message string
}

func (e *Error) Error() string {
	switch e.Kind {
	case InsufficientBuffer:
		return fmt.Sprintf("wire: insufficient buffer: need %d bytes, have %d", e.Need, e.Have)
	case TooMuchData:
		return fmt.Sprintf("wire: declared length exceeds limit %d", e.Limit)
	case MarkerMismatch:
		return "bgp: marker mismatch: header is not all-ones"
	case UnsupportedVersion:
		return fmt.Sprintf("bgp: unsupported version %d", e.Got)
	case MalformedField:
		if e.Message != "" {
			return fmt.Sprintf("wire: malformed field %s: %s: %s", e.Where, e.Why, e.Message)
		}
		return fmt.Sprintf("wire: malformed field %s: %s", e.Where, e.Why)
	case UnknownAttribute:
		return fmt.Sprintf("wire: unknown attribute type %d", e.Code)
	default:
		return e.Message
	}
}

// NewInsufficientBuffer builds an InsufficientBuffer error.
func NewInsufficientBuffer(need, have int) *Error {
	return &Error{Kind: InsufficientBuffer, Need: need, Have: have}
}

// NewTooMuchData builds a TooMuchData error.
func NewTooMuchData(limit int) *Error {
	return &Error{Kind: TooMuchData, Limit: limit}
}

// ErrMarkerMismatch is the fixed MarkerMismatch error; it carries no
// variable fields so a single value is reused rather than allocated per call.
var ErrMarkerMismatch = &Error{Kind: MarkerMismatch}

// NewUnsupportedVersion builds an UnsupportedVersion error.
func NewUnsupportedVersion(got uint8) *Error {
	return &Error{Kind: UnsupportedVersion, Got: got}
}

// NewMalformedField builds a MalformedField error. where names the field
// (e.g. "as_path.segment[2]"), why states the violated constraint.
func NewMalformedField(where, why string) *Error {
	return &Error{Kind: MalformedField, Where: where, Why: why}
}

// NewMalformedFieldf is NewMalformedField with a formatted why.
func NewMalformedFieldf(where, format string, args ...any) *Error {
	return &Error{Kind: MalformedField, Where: where, Why: fmt.Sprintf(format, args...)}
}

// NewUnknownAttribute builds an UnknownAttribute error. Decoders treat this
// as informational, not fatal: see spec.md §7.
func NewUnknownAttribute(code uint8) *Error {
	return &Error{Kind: UnknownAttribute, Code: code}
}

// NewStatic builds a StaticError with a formatted message.
func NewStatic(format string, args ...any) *Error {
	return &Error{Kind: StaticError, Message: fmt.Sprintf(format, args...)}
}

// Is reports whether target is an *Error with the same Kind, so that
// errors.Is(err, wireerr.ErrMarkerMismatch) and similar sentinel-style
// comparisons work without pulling in every field.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
