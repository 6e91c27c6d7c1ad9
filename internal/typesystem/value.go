package typesystem

import "fmt"

// Value is an immutable (domain, tag, payload, protocol override) tuple.
// Values are only produced by Domain.Create and Domain.Convert, so the
// payload always matches the tag's shape. The zero Value is "no value".
type Value struct {
	tag      *Tag
	payload  any
	override *Protocol
}

func (v Value) Tag() *Tag    { return v.tag }
func (v Value) Payload() any { return v.payload }

// Domain returns the owning domain, or nil for the zero Value.
func (v Value) Domain() *Domain {
	if v.tag == nil {
		return nil
	}
	return v.tag.domain
}

func (v Value) IsZero() bool { return v.tag == nil }

// Is reports whether v is tagged t.
func (v Value) Is(t *Tag) bool { return v.tag == t }

// Override returns the per-value protocol override, if any.
func (v Value) Override() *Protocol { return v.override }

// Protocol returns the effective protocol: the per-value override when
// present, otherwise the default protocol of the tag.
func (v Value) Protocol() *Protocol {
	if v.override != nil {
		return v.override
	}
	if v.tag == nil {
		return EmptyProtocol()
	}
	return v.tag.proto
}

// WithProtocol returns a copy of v whose effective protocol is the current
// one updated with deltas. v itself is unchanged.
func (v Value) WithProtocol(deltas *Protocol) Value {
	v.override = Update(v.Protocol(), deltas)
	return v
}

// String renders v through its str slot, falling back to the payload.
func (v Value) String() string {
	if v.tag == nil {
		return "<absent>"
	}
	if fn := v.Protocol().Str(); fn != nil {
		if s, err := fn(v); err == nil {
			return s
		}
	}
	return fmt.Sprint(v.payload)
}

// As unwraps the payload of v as a T.
func As[T any](v Value) (T, bool) {
	p, ok := v.payload.(T)
	return p, ok
}
