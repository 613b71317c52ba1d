package vnc

import "fmt"

// ErrorKind classifies a failure per the error handling policy: protocol
// desync, an unsupported feature, a codec failure, or a transport failure.
type ErrorKind int

const (
	// KindDesync covers malformed protocol version strings, a failed
	// security result, and TIGHT rectangles whose byte length cannot be
	// determined (reserved compression type, unknown filter id, gradient
	// filter on an unsupported pixel width). Unknown server message
	// types are logged and tolerated, not reported as errors.
	KindDesync ErrorKind = iota
	// KindUnsupported covers a recognized-but-unimplemented feature: a
	// non-None security type, an unsupported RAW bpp, a reserved or
	// unimplemented ZRLE subencoding, an unmapped named key.
	KindUnsupported
	// KindCodec covers zlib inflate errors and JPEG decode failures.
	KindCodec
	// KindTransport covers read/write errors and unexpected closes.
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindDesync:
		return "desync"
	case KindUnsupported:
		return "unsupported"
	case KindCodec:
		return "codec"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// VNCError is the module's structured error type. It carries an
// ErrorKind so callers (and the session's own dispatcher) can apply the
// policy from spec.md §7 without string matching.
type VNCError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *VNCError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vnc: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("vnc: %s: %s", e.Kind, e.Msg)
}

func (e *VNCError) Unwrap() error { return e.Err }

// NewVNCError builds a VNCError of the given kind, optionally wrapping
// an underlying cause.
func NewVNCError(kind ErrorKind, msg string, cause error) *VNCError {
	return &VNCError{Kind: kind, Msg: msg, Err: cause}
}

func desyncErrorf(format string, args ...interface{}) error {
	return NewVNCError(KindDesync, fmt.Sprintf(format, args...), nil)
}

func unsupportedErrorf(format string, args ...interface{}) error {
	return NewVNCError(KindUnsupported, fmt.Sprintf(format, args...), nil)
}

func codecErrorf(err error, format string, args ...interface{}) error {
	return NewVNCError(KindCodec, fmt.Sprintf(format, args...), err)
}

func transportErrorf(err error, format string, args ...interface{}) error {
	return NewVNCError(KindTransport, fmt.Sprintf(format, args...), err)
}

// errNeedMoreData is a sentinel signaling that the dispatcher should
// leave all state untouched and wait for the next data-ready
// notification, per spec.md §4.1's must-succeed-or-defer rule. It is
// never surfaced to the Session's caller as a failure.
var errNeedMoreData = fmt.Errorf("vnc: need more data")
