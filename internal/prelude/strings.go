package prelude

import (
	"fmt"
	"strings"

	"github.com/funvibe/calcore/internal/config"
	"github.com/funvibe/calcore/internal/overload"
	"github.com/funvibe/calcore/internal/typesystem"
)

// maxRepeat bounds the element count produced by a repeat.
const maxRepeat = 1 << 24

func (c *Calculator) installStrings() error {
	t := c.Types

	if err := c.Operators.Binary(config.OpAdd).RegisterCoerced(t.Str, func(l, r typesystem.Value) (typesystem.Value, error) {
		return c.Str(l.Payload().(string) + r.Payload().(string)), nil
	}); err != nil {
		return err
	}

	compare := []struct {
		id   string
		test func(int) bool
	}{
		{config.OpLt, func(n int) bool { return n < 0 }},
		{config.OpLe, func(n int) bool { return n <= 0 }},
		{config.OpGt, func(n int) bool { return n > 0 }},
		{config.OpGe, func(n int) bool { return n >= 0 }},
	}
	for _, cmp := range compare {
		test := cmp.test
		if err := c.Operators.Binary(cmp.id).RegisterCoerced(t.Str, func(l, r typesystem.Value) (typesystem.Value, error) {
			a, b := c.normalize(l.Payload().(string)), c.normalize(r.Payload().(string))
			return c.Bool(test(strings.Compare(a, b))), nil
		}); err != nil {
			return err
		}
	}

	mul := c.Operators.Binary(config.OpMul)
	if err := mul.RegisterExact(t.Str, t.Int, func(l, r typesystem.Value) (typesystem.Value, error) {
		return c.repeatStr(l.Payload().(string), r.Payload().(int64))
	}); err != nil {
		return err
	}
	if err := mul.RegisterExact(t.Int, t.Str, func(l, r typesystem.Value) (typesystem.Value, error) {
		return c.repeatStr(r.Payload().(string), l.Payload().(int64))
	}); err != nil {
		return err
	}

	defs := []struct {
		name    string
		variant overload.Variant
	}{
		{config.StrFuncName, overload.Variant{
			Params: []overload.Param{overload.RawArg("x")},
			Result: overload.Returns(t.Str),
			Fn:     func(args []any) (any, error) { return typesystem.Str(args[0].(typesystem.Value)) },
		}},
		{config.UpperFuncName, overload.Variant{
			Params: []overload.Param{overload.Arg("s", t.Str, t.Str)},
			Result: overload.Returns(t.Str),
			Fn:     func(args []any) (any, error) { return c.upper.String(args[0].(string)), nil },
		}},
		{config.LowerFuncName, overload.Variant{
			Params: []overload.Param{overload.Arg("s", t.Str, t.Str)},
			Result: overload.Returns(t.Str),
			Fn:     func(args []any) (any, error) { return c.lower.String(args[0].(string)), nil },
		}},
	}
	for _, d := range defs {
		if _, err := c.Library.Define(d.name, d.variant); err != nil {
			return err
		}
	}
	return nil
}

func (c *Calculator) repeatStr(s string, n int64) (typesystem.Value, error) {
	if n <= 0 || s == "" {
		return c.Str(""), nil
	}
	if n > maxRepeat/int64(len(s)) {
		return typesystem.Value{}, fmt.Errorf("repeating %d bytes %d times exceeds %d", len(s), n, maxRepeat)
	}
	return c.Str(strings.Repeat(s, int(n))), nil
}
