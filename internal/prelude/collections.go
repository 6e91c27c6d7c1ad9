package prelude

import (
	"fmt"

	"github.com/funvibe/calcore/internal/config"
	"github.com/funvibe/calcore/internal/overload"
	"github.com/funvibe/calcore/internal/typesystem"
)

func (c *Calculator) installCollections() error {
	t := c.Types

	add := c.Operators.Binary(config.OpAdd)
	for _, tag := range []*typesystem.Tag{t.List, t.Tuple} {
		if err := add.RegisterCoerced(tag, func(l, r typesystem.Value) (typesystem.Value, error) {
			xs, ys := l.Payload().([]typesystem.Value), r.Payload().([]typesystem.Value)
			out := make([]typesystem.Value, 0, len(xs)+len(ys))
			out = append(append(out, xs...), ys...)
			return c.Domain.Create(l.Tag(), out)
		}); err != nil {
			return err
		}
	}

	if err := c.Operators.Binary(config.OpMul).RegisterExact(t.List, t.Int, func(l, r typesystem.Value) (typesystem.Value, error) {
		xs, n := l.Payload().([]typesystem.Value), r.Payload().(int64)
		if n <= 0 || len(xs) == 0 {
			return c.List(), nil
		}
		if n > maxRepeat/int64(len(xs)) {
			return typesystem.Value{}, fmt.Errorf("repeating %d items %d times exceeds %d", len(xs), n, maxRepeat)
		}
		out := make([]typesystem.Value, 0, len(xs)*int(n))
		for range n {
			out = append(out, xs...)
		}
		return c.Domain.Create(t.List, out)
	}); err != nil {
		return err
	}

	// # applies to anything with a len slot.
	if err := c.Operators.Unary(config.OpLen).SetFallback(func(v typesystem.Value) (typesystem.Value, bool, error) {
		if !v.Protocol().Has(typesystem.SlotLen) {
			return typesystem.Value{}, false, nil
		}
		n, err := typesystem.Len(v)
		if err != nil {
			return typesystem.Value{}, false, err
		}
		return c.Int(int64(n)), true, nil
	}); err != nil {
		return err
	}

	if _, err := c.Library.Define(config.LenFuncName, overload.Variant{
		Params: []overload.Param{overload.RawArg("x")},
		Result: overload.Returns(t.Int),
		Fn: func(args []any) (any, error) {
			n, err := typesystem.Len(args[0].(typesystem.Value))
			return int64(n), err
		},
	}); err != nil {
		return err
	}

	// concat folds its arguments with +; no arguments yields Nil.
	_, err := c.Library.Define(config.ConcatFuncName, overload.Variant{
		Params: []overload.Param{overload.Rest("parts", nil)},
		Result: overload.ReturnsRaw(),
		Fn: func(args []any) (any, error) {
			parts := args[0].([]any)
			if len(parts) == 0 {
				return c.Nil(), nil
			}
			acc := parts[0].(typesystem.Value)
			for _, p := range parts[1:] {
				next, err := c.Operators.Execute(config.OpAdd, acc, p.(typesystem.Value))
				if err != nil {
					return nil, err
				}
				acc = next
			}
			return acc, nil
		},
	})
	return err
}
