// Package diagnostics defines the error families raised by the calcore core.
//
// Build-time errors are raised while a domain, an operator table or an
// overload set is being assembled; they are fatal and abort construction.
// Runtime errors are raised while evaluating and propagate to the calling
// interpreter frame as ordinary language-level failures.
package diagnostics

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	// Build-time family.
	DuplicateType Kind = iota
	DuplicateConversion
	InvalidCoercion
	DuplicateCoercion
	DuplicateSlot
	DuplicateOperation
	MalformedVariant
	AmbiguousOverload
	Sealed

	// Runtime family.
	NoConversion
	TypeMismatch
	UnsupportedOperation
	DispatchFailure
	MissingArgument
	Invocation
	DomainMismatch
	ResultCount
)

var kindNames = map[Kind]string{
	DuplicateType:        "duplicate type",
	DuplicateConversion:  "duplicate conversion",
	InvalidCoercion:      "invalid coercion",
	DuplicateCoercion:    "duplicate coercion",
	DuplicateSlot:        "duplicate slot",
	DuplicateOperation:   "duplicate operation",
	MalformedVariant:     "malformed variant",
	AmbiguousOverload:    "ambiguous overload",
	Sealed:               "registry sealed",
	NoConversion:         "no conversion",
	TypeMismatch:         "type mismatch",
	UnsupportedOperation: "unsupported operation",
	DispatchFailure:      "dispatch error",
	MissingArgument:      "missing argument",
	Invocation:           "invocation error",
	DomainMismatch:       "domain mismatch",
	ResultCount:          "result count mismatch",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsBuild reports whether k belongs to the build-time family.
func (k Kind) IsBuild() bool {
	return k <= Sealed
}

// Error is the single error type of the core. Msg carries the interpolated
// operator/function/type names; Cause is set for wrapped failures.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	base := e.Kind.String()
	if e.Msg != "" {
		base += ": " + e.Msg
	}
	if e.Cause != nil {
		base += ": " + e.Cause.Error()
	}
	return base
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches another *Error of the same kind with an empty message, so
// errors.Is(err, diagnostics.Sentinel(diagnostics.TypeMismatch)) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Kind == e.Kind && t.Msg == "" && t.Cause == nil
}

// Sentinel returns a comparison target for errors.Is.
func Sentinel(kind Kind) error {
	return &Error{Kind: kind}
}

// New creates an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind that preserves cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

// IsKind helps callers classify errors without inspecting messages.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsBuild reports whether err is a build-time (fatal configuration) error.
func IsBuild(err error) bool {
	k, ok := KindOf(err)
	return ok && k.IsBuild()
}
