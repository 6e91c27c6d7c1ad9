package calcore

import (
	"fmt"
	"reflect"

	"github.com/funvibe/calcore/internal/diagnostics"
	"github.com/funvibe/calcore/internal/overload"
	"github.com/funvibe/calcore/internal/typesystem"
)

var (
	errorType    = reflect.TypeFor[error]()
	functionType = reflect.TypeFor[*overload.Function]()
)

// bindVariant turns a Go function into a variant.
//
// Parameters of scalar kinds become typed parameters of the matching
// built-in type, so arguments go through the domain's conversions. Every
// other parameter type is Raw and is marshalled from the value itself. A
// variadic Go function gets a variadic tail. A trailing error result is
// returned as the invocation error; the remaining results form a single
// value or a tuple.
func (c *Calculator) bindVariant(fn reflect.Value) (overload.Variant, error) {
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return overload.Variant{}, fmt.Errorf("expected a function, got %s", fn.Kind())
	}
	fnType := fn.Type()
	numIn := fnType.NumIn()
	isVariadic := fnType.IsVariadic()

	params := make([]overload.Param, numIn)
	inTypes := make([]reflect.Type, numIn)
	for i := range numIn {
		in := fnType.In(i)
		name := fmt.Sprintf("arg%d", i+1)
		if isVariadic && i == numIn-1 {
			inTypes[i] = in.Elem()
			params[i] = overload.Rest(name, c.tagFor(in.Elem()))
			continue
		}
		inTypes[i] = in
		params[i] = overload.Arg(name, c.tagFor(in))
	}

	numOut := fnType.NumOut()
	hasErr := numOut > 0 && fnType.Out(numOut-1) == errorType
	if hasErr {
		numOut--
	}
	result := overload.ReturnsRaw()
	if numOut > 1 {
		result = overload.ReturnsTuple(numOut)
	}

	impl := func(args []any) (any, error) {
		goArgs := make([]reflect.Value, 0, len(args))
		for i, arg := range args {
			if isVariadic && i == numIn-1 {
				for j, x := range arg.([]any) {
					rv, err := c.goArg(x, inTypes[i])
					if err != nil {
						return nil, fmt.Errorf("argument %d: %w", i+j+1, err)
					}
					goArgs = append(goArgs, rv)
				}
				continue
			}
			rv, err := c.goArg(arg, inTypes[i])
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i+1, err)
			}
			goArgs = append(goArgs, rv)
		}

		results := fn.Call(goArgs)
		if hasErr {
			if errVal := results[numOut]; !errVal.IsNil() {
				return nil, errVal.Interface().(error)
			}
			results = results[:numOut]
		}
		switch len(results) {
		case 0:
			return c.core.Nil(), nil
		case 1:
			return c.marshaller.ToValue(results[0].Interface())
		}
		elements := make([]typesystem.Value, len(results))
		for i, res := range results {
			val, err := c.marshaller.ToValue(res.Interface())
			if err != nil {
				return nil, fmt.Errorf("result %d: %w", i+1, err)
			}
			elements[i] = val
		}
		return elements, nil
	}

	return overload.Variant{Params: params, Result: result, Fn: impl}, nil
}

// tagFor maps a Go parameter type to the built-in type its arguments are
// converted to; nil means Raw.
func (c *Calculator) tagFor(t reflect.Type) *typesystem.Tag {
	types := c.core.Types
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return types.Int
	case reflect.Float32, reflect.Float64:
		return types.Float
	case reflect.Bool:
		return types.Bool
	case reflect.String:
		return types.Str
	}
	if t == functionType {
		return types.Func
	}
	return nil
}

// goArg converts one native argument, a payload or a Raw value, to the Go
// parameter type.
func (c *Calculator) goArg(arg any, target reflect.Type) (reflect.Value, error) {
	if v, ok := arg.(typesystem.Value); ok {
		out, err := c.marshaller.FromValue(v, target)
		if err != nil {
			return reflect.Value{}, err
		}
		arg = out
	}
	if arg == nil {
		switch target.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func:
			return reflect.Zero(target), nil
		}
		return reflect.Value{}, diagnostics.New(diagnostics.TypeMismatch, "Nil is not a %s", target)
	}
	out, err := convertTo(reflect.ValueOf(arg), target)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(out), nil
}
