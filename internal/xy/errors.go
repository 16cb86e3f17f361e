package xy

import "fmt"

// Kind classifies decode failures.
type Kind int

const (
	// KindMismatch means the input is not in the expected format; try another.
	KindMismatch Kind = iota + 1
	// KindFormat means the input claims the format but violates its structure.
	KindFormat
	// KindResource means the decode would exceed allocation limits.
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindMismatch:
		return "mismatch"
	case KindFormat:
		return "format"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching by kind.
var (
	ErrMismatch = &Error{Kind: KindMismatch}
	ErrFormat   = &Error{Kind: KindFormat}
	ErrResource = &Error{Kind: KindResource}
)

// Error is returned by every decoder.
type Error struct {
	Format string
	Kind   Kind
	Msg    string
	Err    error
}

// Errorf builds an Error of the given kind for format.
func Errorf(format string, kind Kind, msg string, args ...any) *Error {
	return &Error{Format: format, Kind: kind, Msg: fmt.Sprintf(msg, args...)}
}

// Wrap builds an Error of the given kind that wraps cause.
func Wrap(format string, kind Kind, cause error, msg string, args ...any) *Error {
	return &Error{Format: format, Kind: kind, Msg: fmt.Sprintf(msg, args...), Err: cause}
}

func (e *Error) Error() string {
	s := e.Msg
	if e.Format != "" {
		s = e.Format + ": " + s
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrFormat) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
