// Package errs defines the structured error taxonomy shared by every
// decoding layer. Nothing in the core panics on malformed input; failures
// are values carrying a Kind so callers can branch with errors.Is/As.
package errs

import "fmt"

// Kind classifies a CoreError by broad failure category.
type Kind int

const (
	KindUnknown Kind = iota
	KindParseError
	KindCrcError
	KindDecryptError
	KindUnknownDriver
	KindUnitMismatch
	KindConversionError
	KindOverflow
	KindLookupError
)

func (k Kind) String() string {
	switch k {
	case KindParseError:
		return "ParseError"
	case KindCrcError:
		return "CrcError"
	case KindDecryptError:
		return "DecryptError"
	case KindUnknownDriver:
		return "UnknownDriver"
	case KindUnitMismatch:
		return "UnitMismatch"
	case KindConversionError:
		return "ConversionError"
	case KindOverflow:
		return "Overflow"
	case KindLookupError:
		return "LookupError"
	default:
		return "Unknown"
	}
}

// Span points at the source range of a formula diagnostic, in runes.
type Span struct {
	Start int
	End   int
}

// CoreError is the concrete error type returned by every package in this
// module. Wrap with fmt.Errorf("...: %w", err) only at package boundaries
// that need to add context; the Kind must always survive the wrap.
type CoreError struct {
	Kind    Kind
	Message string
	Span    *Span
	Err     error
}

func (e *CoreError) Error() string {
	if e.Span != nil {
		return fmt.Sprintf("%s: %s (at %d:%d)", e.Kind, e.Message, e.Span.Start, e.Span.End)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoreError) Unwrap() error { return e.Err }

// New builds a CoreError without an underlying cause.
func New(kind Kind, format string, args ...any) *CoreError {
	return &CoreError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a CoreError around an existing error.
func Wrap(kind Kind, err error, format string, args ...any) *CoreError {
	return &CoreError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithSpan attaches a source span to a formula diagnostic.
func (e *CoreError) WithSpan(start, end int) *CoreError {
	e.Span = &Span{Start: start, End: end}
	return e
}

// Is enables errors.Is(err, errs.Sentinel(errs.KindParseError)) style checks
// by comparing Kind against another *CoreError.
func (e *CoreError) Is(target error) bool {
	other, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// Sentinel returns a zero-message CoreError of the given kind, suitable for
// errors.Is comparisons: errors.Is(err, errs.Sentinel(errs.KindCrcError)).
func Sentinel(kind Kind) *CoreError {
	return &CoreError{Kind: kind}
}
