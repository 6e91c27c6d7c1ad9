// Package overload builds multi-variant functions and resolves calls to them
// by runtime argument types.
//
// Variants are registered explicitly as descriptors. Build validates each
// variant's parameter layout, derives the advertised arity and rejects
// pairwise ambiguous variants. Call selects the first variant, in
// registration order, whose dispatch matchers accept the supplied argument
// types; it is first-match, not most-specific-match.
package overload

import (
	"fmt"
	"strings"

	"github.com/funvibe/calcore/internal/typesystem"
)

// Presence says how many arguments a parameter consumes.
type Presence int

const (
	Mandatory Presence = iota // exactly one
	Optional                  // zero or one
	Variadic                  // all remaining, as one []any
)

func (p Presence) String() string {
	switch p {
	case Optional:
		return "optional"
	case Variadic:
		return "variadic"
	default:
		return "mandatory"
	}
}

// Matcher is the set of types a parameter position accepts during variant
// selection. It is independent of the conversion applied to the argument.
type Matcher struct {
	tags   []*typesystem.Tag
	absent bool
}

// Accepts builds a matcher for the given types.
func Accepts(tags ...*typesystem.Tag) *Matcher {
	return &Matcher{tags: tags}
}

// OrAbsent returns a copy of m that also accepts an exhausted optional
// position.
func (m *Matcher) OrAbsent() *Matcher {
	out := &Matcher{tags: append([]*typesystem.Tag(nil), m.tags...), absent: true}
	return out
}

func (m *Matcher) Tags() []*typesystem.Tag { return m.tags }

func (m *Matcher) String() string {
	names := make([]string, 0, len(m.tags)+1)
	for _, t := range m.tags {
		names = append(names, t.Name())
	}
	if m.absent {
		names = append(names, "absent")
	}
	return "{" + strings.Join(names, "|") + "}"
}

// Param binds one argument position.
type Param struct {
	Name     string
	Presence Presence
	// Type is the conversion target. Nil makes the parameter Raw: the
	// typesystem.Value is passed through untouched.
	Type *typesystem.Tag
	// Match restricts variant selection. Nil accepts any type.
	Match *Matcher
}

// Arg declares a mandatory typed parameter.
func Arg(name string, t *typesystem.Tag, match ...*typesystem.Tag) Param {
	return Param{Name: name, Presence: Mandatory, Type: t, Match: matcherOf(match)}
}

// OptArg declares an optional typed parameter. An exhausted position
// always passes selection for OptArg.
func OptArg(name string, t *typesystem.Tag, match ...*typesystem.Tag) Param {
	m := matcherOf(match)
	if m != nil {
		m = m.OrAbsent()
	}
	return Param{Name: name, Presence: Optional, Type: t, Match: m}
}

// RawArg declares a mandatory parameter that receives the value itself.
func RawArg(name string, match ...*typesystem.Tag) Param {
	return Param{Name: name, Presence: Mandatory, Match: matcherOf(match)}
}

// Rest declares the trailing variadic parameter; t may be nil for Raw.
func Rest(name string, t *typesystem.Tag) Param {
	return Param{Name: name, Presence: Variadic, Type: t}
}

func matcherOf(tags []*typesystem.Tag) *Matcher {
	if len(tags) == 0 {
		return nil
	}
	return Accepts(tags...)
}

func (p Param) String() string {
	var sb strings.Builder
	if p.Name != "" {
		sb.WriteString(p.Name)
		sb.WriteString(": ")
	}
	if p.Type != nil {
		sb.WriteString(p.Type.Name())
	} else {
		sb.WriteString("any")
	}
	if p.Match != nil {
		sb.WriteString(p.Match.String())
	}
	switch p.Presence {
	case Optional:
		sb.WriteString("?")
	case Variadic:
		sb.WriteString("...")
	}
	return sb.String()
}

// Shape is the declared form of a variant's native result.
type Shape int

const (
	Single   Shape = iota // one native payload, tagged with Result.Type
	Tuple                 // []typesystem.Value of length Result.Arity
	Sequence              // a slice whose elements are tagged with Result.Type
	Raw                   // a typesystem.Value, for polymorphic results
)

// Result describes how the native result is wrapped.
type Result struct {
	Shape Shape
	Type  *typesystem.Tag
	Arity int
}

func Returns(t *typesystem.Tag) Result         { return Result{Shape: Single, Type: t} }
func ReturnsTuple(n int) Result                { return Result{Shape: Tuple, Arity: n} }
func ReturnsSequence(t *typesystem.Tag) Result { return Result{Shape: Sequence, Type: t} }
func ReturnsRaw() Result                       { return Result{Shape: Raw} }

func (r Result) String() string {
	switch r.Shape {
	case Tuple:
		return fmt.Sprintf("(%d-tuple)", r.Arity)
	case Sequence:
		return "[" + r.Type.String() + "]"
	case Raw:
		return "any"
	default:
		return r.Type.String()
	}
}

// Impl is the host function behind a variant. Typed arguments arrive as
// native payloads, Raw arguments as typesystem.Value, exhausted optional
// arguments as Absent and the variadic tail as []any.
type Impl func(args []any) (any, error)

// Variant is one overload definition.
type Variant struct {
	// Label names the variant in diagnostics; the signature is used when empty.
	Label  string
	Params []Param
	Result Result
	Fn     Impl
}

// Signature renders the variant as "name(params) -> result".
func (v Variant) Signature(name string) string {
	parts := make([]string, len(v.Params))
	for i, p := range v.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s(%s) -> %s", name, strings.Join(parts, ", "), v.Result)
}

type absent struct{}

func (absent) String() string { return "absent" }

// Absent is passed for an optional parameter with no supplied argument.
var Absent any = absent{}

// IsAbsent reports whether a native argument is the Absent marker.
func IsAbsent(arg any) bool {
	_, ok := arg.(absent)
	return ok
}
