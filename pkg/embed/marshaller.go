package calcore

import (
	"fmt"
	"math"
	"reflect"

	"github.com/funvibe/calcore/internal/diagnostics"
	"github.com/funvibe/calcore/internal/overload"
	"github.com/funvibe/calcore/internal/prelude"
	"github.com/funvibe/calcore/internal/typesystem"
)

var valueType = reflect.TypeFor[typesystem.Value]()

// Marshaller handles conversion between Go values and calculator values.
type Marshaller struct {
	calc *prelude.Calculator
}

func NewMarshaller(calc *prelude.Calculator) *Marshaller {
	return &Marshaller{calc: calc}
}

// ToValue converts a Go value to a calculator value.
func (m *Marshaller) ToValue(val any) (typesystem.Value, error) {
	if val == nil {
		return m.calc.Nil(), nil
	}
	switch x := val.(type) {
	case typesystem.Value:
		return x, nil
	case *overload.Function:
		return m.calc.Func(x), nil
	}

	v := reflect.ValueOf(val)
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if !v.IsValid() {
		return m.calc.Nil(), nil
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return m.calc.Int(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt64 {
			return typesystem.Value{}, diagnostics.New(diagnostics.TypeMismatch, "%d overflows Int", u)
		}
		return m.calc.Int(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return m.calc.Float(v.Float()), nil
	case reflect.Bool:
		return m.calc.Bool(v.Bool()), nil
	case reflect.String:
		return m.calc.Str(v.String()), nil
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return m.calc.List(), nil
		}
		items, err := m.sliceToValues(v)
		if err != nil {
			return typesystem.Value{}, err
		}
		return m.calc.List(items...), nil
	case reflect.Pointer:
		if v.IsNil() {
			return m.calc.Nil(), nil
		}
		return m.ToValue(v.Elem().Interface())
	}
	return typesystem.Value{}, diagnostics.New(diagnostics.TypeMismatch, "unsupported Go type %T", val)
}

func (m *Marshaller) sliceToValues(v reflect.Value) ([]typesystem.Value, error) {
	items := make([]typesystem.Value, v.Len())
	for i := 0; i < v.Len(); i++ {
		item, err := m.ToValue(v.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		items[i] = item
	}
	return items, nil
}

// FromValue converts a calculator value to a Go value.
// targetType is optional; if provided, tries to convert to that type.
func (m *Marshaller) FromValue(val typesystem.Value, targetType reflect.Type) (any, error) {
	if val.IsZero() {
		return nil, nil
	}
	if targetType == valueType {
		return val, nil
	}

	t := m.calc.Types
	var out any
	switch {
	case val.Is(t.Nil):
		return nil, nil
	case val.Is(t.Bool), val.Is(t.Int), val.Is(t.Float), val.Is(t.Str), val.Is(t.Func):
		out = val.Payload()
	case val.Is(t.List), val.Is(t.Tuple):
		return m.valuesToSlice(val.Payload().([]typesystem.Value), targetType)
	default:
		// Types registered outside the prelude pass through as values.
		return val, nil
	}

	if targetType == nil || targetType.Kind() == reflect.Interface {
		return out, nil
	}
	return convertTo(reflect.ValueOf(out), targetType)
}

func (m *Marshaller) valuesToSlice(items []typesystem.Value, targetType reflect.Type) (any, error) {
	elemType := reflect.TypeFor[any]()
	if targetType != nil && targetType.Kind() == reflect.Slice {
		elemType = targetType.Elem()
	} else if targetType != nil && targetType.Kind() != reflect.Interface {
		return nil, diagnostics.New(diagnostics.TypeMismatch, "cannot convert sequence to %s", targetType)
	}

	slice := reflect.MakeSlice(reflect.SliceOf(elemType), 0, len(items))
	for i, item := range items {
		val, err := m.FromValue(item, elemType)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if val == nil {
			slice = reflect.Append(slice, reflect.Zero(elemType))
			continue
		}
		rv, err := convertTo(reflect.ValueOf(val), elemType)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		slice = reflect.Append(slice, reflect.ValueOf(rv))
	}
	return slice.Interface(), nil
}

// convertTo converts rv to target, refusing lossy numeric conversions.
func convertTo(rv reflect.Value, target reflect.Type) (any, error) {
	if rv.Type().AssignableTo(target) {
		return rv.Interface(), nil
	}
	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Kind() == reflect.Int64 {
			out := reflect.New(target).Elem()
			if out.OverflowInt(rv.Int()) {
				return nil, diagnostics.New(diagnostics.TypeMismatch, "%d overflows %s", rv.Int(), target)
			}
			out.SetInt(rv.Int())
			return out.Interface(), nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Kind() == reflect.Int64 {
			out := reflect.New(target).Elem()
			if rv.Int() < 0 || out.OverflowUint(uint64(rv.Int())) {
				return nil, diagnostics.New(diagnostics.TypeMismatch, "%d overflows %s", rv.Int(), target)
			}
			out.SetUint(uint64(rv.Int()))
			return out.Interface(), nil
		}
	case reflect.Float32, reflect.Float64:
		if rv.Kind() == reflect.Float64 || rv.Kind() == reflect.Int64 {
			return rv.Convert(target).Interface(), nil
		}
	case reflect.String, reflect.Bool:
		if rv.Type().ConvertibleTo(target) && rv.Kind() == target.Kind() {
			return rv.Convert(target).Interface(), nil
		}
	}
	return nil, diagnostics.New(diagnostics.TypeMismatch, "cannot convert %s to %s", rv.Type(), target)
}
