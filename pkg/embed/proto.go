package calcore

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/funvibe/calcore/internal/diagnostics"
	"github.com/funvibe/calcore/internal/typesystem"
)

// maxExactInt is the largest magnitude a float64 holds without rounding.
const maxExactInt = 1 << 53

// ToProto converts a value to a google.protobuf.Value. Int and Float both
// become numbers; List and Tuple become lists. Func has no representation.
func (m *Marshaller) ToProto(val typesystem.Value) (*structpb.Value, error) {
	t := m.calc.Types
	switch {
	case val.IsZero(), val.Is(t.Nil):
		return structpb.NewNullValue(), nil
	case val.Is(t.Bool):
		return structpb.NewBoolValue(val.Payload().(bool)), nil
	case val.Is(t.Int):
		n := val.Payload().(int64)
		if n > maxExactInt || n < -maxExactInt {
			return nil, diagnostics.New(diagnostics.TypeMismatch, "Int %d is not exactly representable as a number", n)
		}
		return structpb.NewNumberValue(float64(n)), nil
	case val.Is(t.Float):
		return structpb.NewNumberValue(val.Payload().(float64)), nil
	case val.Is(t.Str):
		return structpb.NewStringValue(val.Payload().(string)), nil
	case val.Is(t.List), val.Is(t.Tuple):
		items := val.Payload().([]typesystem.Value)
		list := &structpb.ListValue{Values: make([]*structpb.Value, len(items))}
		for i, item := range items {
			pv, err := m.ToProto(item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			list.Values[i] = pv
		}
		return structpb.NewListValue(list), nil
	}
	return nil, diagnostics.New(diagnostics.TypeMismatch, "%s has no protobuf representation", val.Tag())
}

// FromProto converts a google.protobuf.Value back. Integral numbers within
// the exact float64 range become Int, other numbers Float. Structs are not
// supported.
func (m *Marshaller) FromProto(pv *structpb.Value) (typesystem.Value, error) {
	switch k := pv.GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return m.calc.Nil(), nil
	case *structpb.Value_BoolValue:
		return m.calc.Bool(k.BoolValue), nil
	case *structpb.Value_NumberValue:
		f := k.NumberValue
		if f == math.Trunc(f) && math.Abs(f) <= maxExactInt {
			return m.calc.Int(int64(f)), nil
		}
		return m.calc.Float(f), nil
	case *structpb.Value_StringValue:
		return m.calc.Str(k.StringValue), nil
	case *structpb.Value_ListValue:
		items := make([]typesystem.Value, len(k.ListValue.GetValues()))
		for i, item := range k.ListValue.GetValues() {
			v, err := m.FromProto(item)
			if err != nil {
				return typesystem.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			items[i] = v
		}
		return m.calc.List(items...), nil
	}
	return typesystem.Value{}, diagnostics.New(diagnostics.TypeMismatch, "unsupported protobuf value %T", pv.GetKind())
}

// MarshalJSON renders a value as protobuf JSON.
func (m *Marshaller) MarshalJSON(val typesystem.Value) ([]byte, error) {
	pv, err := m.ToProto(val)
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(pv)
}

// UnmarshalJSON parses protobuf JSON into a value.
func (m *Marshaller) UnmarshalJSON(data []byte) (typesystem.Value, error) {
	pv := &structpb.Value{}
	if err := protojson.Unmarshal(data, pv); err != nil {
		return typesystem.Value{}, fmt.Errorf("parsing value: %w", err)
	}
	return m.FromProto(pv)
}
