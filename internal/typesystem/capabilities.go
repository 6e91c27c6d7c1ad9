package typesystem

import (
	"fmt"

	"github.com/funvibe/calcore/internal/diagnostics"
)

// The helpers below invoke a slot of the effective protocol of a value and
// fail with UnsupportedOperation when the slot is absent.

func unsupported(s Slot, v Value) error {
	return diagnostics.New(diagnostics.UnsupportedOperation, "%s is not supported by %s", s, v.tag)
}

func Truthy(v Value) (bool, error) {
	fn := v.Protocol().Truthy()
	if fn == nil {
		return false, unsupported(SlotTruthy, v)
	}
	return fn(v)
}

func Str(v Value) (string, error) {
	fn := v.Protocol().Str()
	if fn == nil {
		return "", unsupported(SlotStr, v)
	}
	return fn(v)
}

// Repr renders the debug form, falling back to the str slot and then to
// "<Type payload>".
func Repr(v Value) string {
	p := v.Protocol()
	if fn := p.Repr(); fn != nil {
		if s, err := fn(v); err == nil {
			return s
		}
	}
	if fn := p.Str(); fn != nil {
		if s, err := fn(v); err == nil {
			return s
		}
	}
	return fmt.Sprintf("<%s %v>", v.tag, v.payload)
}

func Call(v Value, args []Value) ([]Value, error) {
	fn := v.Protocol().Call()
	if fn == nil {
		return nil, unsupported(SlotCall, v)
	}
	return fn(v, args)
}

func GetAttr(v Value, name string) (Value, error) {
	fn := v.Protocol().GetAttr()
	if fn == nil {
		return Value{}, unsupported(SlotGetAttr, v)
	}
	out, ok, err := fn(v, name)
	if err != nil {
		return Value{}, err
	}
	if !ok {
		return Value{}, diagnostics.New(diagnostics.UnsupportedOperation, "%s has no attribute %q", v.tag, name)
	}
	return out, nil
}

// Destructure asks v for exactly n components. ok is false when the value
// cannot be decomposed into n parts; err is set when the slot is absent.
func Destructure(v Value, n int) ([]Value, bool, error) {
	fn := v.Protocol().Destructure()
	if fn == nil {
		return nil, false, unsupported(SlotDestructure, v)
	}
	parts, ok := fn(v, n)
	if !ok || len(parts) != n {
		return nil, false, nil
	}
	return parts, true, nil
}

func Equal(a, b Value) (bool, error) {
	if a.Domain() != b.Domain() {
		return false, diagnostics.New(diagnostics.DomainMismatch,
			"cannot compare %s from %s with %s from %s", a.tag, a.Domain(), b.tag, b.Domain())
	}
	fn := a.Protocol().Equal()
	if fn == nil {
		return false, unsupported(SlotEqual, a)
	}
	return fn(a, b)
}

func Len(v Value) (int, error) {
	fn := v.Protocol().Len()
	if fn == nil {
		return 0, unsupported(SlotLen, v)
	}
	return fn(v)
}

func Slice(v Value, lo, hi int) (Value, error) {
	fn := v.Protocol().Slice()
	if fn == nil {
		return Value{}, unsupported(SlotSlice, v)
	}
	return fn(v, lo, hi)
}

// TypeOf answers the dynamic type query; without a typeof slot the static
// tag is the answer.
func TypeOf(v Value) (*Tag, error) {
	if fn := v.Protocol().TypeOf(); fn != nil {
		return fn(v)
	}
	return v.tag, nil
}
