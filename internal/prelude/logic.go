package prelude

import (
	"reflect"

	"github.com/funvibe/calcore/internal/config"
	"github.com/funvibe/calcore/internal/overload"
	"github.com/funvibe/calcore/internal/typesystem"
)

// installLogic adds equality, negation and typeof. Equality lives in the
// default tier so that it applies to every pair of types, including types
// registered after the prelude.
func (c *Calculator) installLogic() error {
	t := c.Types

	eq := func(l, r typesystem.Value) (typesystem.Value, bool, error) {
		ok, err := valuesEqual(l, r)
		if err != nil {
			return typesystem.Value{}, false, err
		}
		return c.Bool(ok), true, nil
	}
	if err := c.Operators.Binary(config.OpEq).SetFallback(eq); err != nil {
		return err
	}
	if err := c.Operators.Binary(config.OpNe).SetFallback(func(l, r typesystem.Value) (typesystem.Value, bool, error) {
		res, ok, err := eq(l, r)
		if !ok {
			return res, ok, err
		}
		return c.Bool(!res.Payload().(bool)), true, nil
	}); err != nil {
		return err
	}

	// Values without a truthy slot are left to UnsupportedOperation.
	if err := c.Operators.Unary(config.OpNot).SetFallback(func(v typesystem.Value) (typesystem.Value, bool, error) {
		if !v.Protocol().Has(typesystem.SlotTruthy) {
			return typesystem.Value{}, false, nil
		}
		b, err := typesystem.Truthy(v)
		if err != nil {
			return typesystem.Value{}, false, err
		}
		return c.Bool(!b), true, nil
	}); err != nil {
		return err
	}

	_, err := c.Library.Define(config.TypeOfFuncName, overload.Variant{
		Params: []overload.Param{overload.RawArg("x")},
		Result: overload.ReturnsRaw(),
		Fn: func(args []any) (any, error) {
			tag, err := typesystem.TypeOf(args[0].(typesystem.Value))
			if err != nil {
				return nil, err
			}
			return c.Domain.Create(t.Str, tag.Name())
		},
	})
	return err
}

// valuesEqual asks whichever operand has an eq slot, left first. Without
// one on either side, values are equal when they share a type and their
// payloads are deeply equal.
func valuesEqual(l, r typesystem.Value) (bool, error) {
	switch {
	case l.Protocol().Has(typesystem.SlotEqual):
		return typesystem.Equal(l, r)
	case r.Protocol().Has(typesystem.SlotEqual):
		return typesystem.Equal(r, l)
	}
	if l.Tag() != r.Tag() {
		return false, nil
	}
	return reflect.DeepEqual(l.Payload(), r.Payload()), nil
}
