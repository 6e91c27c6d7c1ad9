package prelude

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/funvibe/calcore/internal/config"
	"github.com/funvibe/calcore/internal/diagnostics"
	"github.com/funvibe/calcore/internal/overload"
	"github.com/funvibe/calcore/internal/typesystem"
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrModuloByZero   = errors.New("modulo by zero")
)

// maxRange bounds the length of a range result.
const maxRange = 1 << 24

type (
	intOp   func(a, b int64) (typesystem.Value, error)
	floatOp func(a, b float64) (typesystem.Value, error)
)

func (c *Calculator) installNumeric() error {
	t := c.Types
	ops := []struct {
		id string
		i  intOp
		f  floatOp
	}{
		{config.OpAdd,
			func(a, b int64) (typesystem.Value, error) { return c.Int(a + b), nil },
			func(a, b float64) (typesystem.Value, error) { return c.Float(a + b), nil }},
		{config.OpSub,
			func(a, b int64) (typesystem.Value, error) { return c.Int(a - b), nil },
			func(a, b float64) (typesystem.Value, error) { return c.Float(a - b), nil }},
		{config.OpMul,
			func(a, b int64) (typesystem.Value, error) { return c.Int(a * b), nil },
			func(a, b float64) (typesystem.Value, error) { return c.Float(a * b), nil }},
		{config.OpDiv,
			func(a, b int64) (typesystem.Value, error) {
				if b == 0 {
					return typesystem.Value{}, arithmetic(config.OpDiv, t.Int, ErrDivisionByZero)
				}
				return c.Int(a / b), nil
			},
			func(a, b float64) (typesystem.Value, error) {
				if b == 0 {
					return typesystem.Value{}, arithmetic(config.OpDiv, t.Float, ErrDivisionByZero)
				}
				return c.Float(a / b), nil
			}},
		{config.OpMod,
			func(a, b int64) (typesystem.Value, error) {
				if b == 0 {
					return typesystem.Value{}, arithmetic(config.OpMod, t.Int, ErrModuloByZero)
				}
				return c.Int(a % b), nil
			},
			func(a, b float64) (typesystem.Value, error) {
				if b == 0 {
					return typesystem.Value{}, arithmetic(config.OpMod, t.Float, ErrModuloByZero)
				}
				return c.Float(math.Mod(a, b)), nil
			}},
		{config.OpPow,
			func(a, b int64) (typesystem.Value, error) {
				if b < 0 {
					return c.Float(math.Pow(float64(a), float64(b))), nil
				}
				return c.Int(intPow(a, b)), nil
			},
			func(a, b float64) (typesystem.Value, error) { return c.Float(math.Pow(a, b)), nil }},
		{config.OpLt,
			func(a, b int64) (typesystem.Value, error) { return c.Bool(a < b), nil },
			func(a, b float64) (typesystem.Value, error) { return c.Bool(a < b), nil }},
		{config.OpLe,
			func(a, b int64) (typesystem.Value, error) { return c.Bool(a <= b), nil },
			func(a, b float64) (typesystem.Value, error) { return c.Bool(a <= b), nil }},
		{config.OpGt,
			func(a, b int64) (typesystem.Value, error) { return c.Bool(a > b), nil },
			func(a, b float64) (typesystem.Value, error) { return c.Bool(a > b), nil }},
		{config.OpGe,
			func(a, b int64) (typesystem.Value, error) { return c.Bool(a >= b), nil },
			func(a, b float64) (typesystem.Value, error) { return c.Bool(a >= b), nil }},
	}
	for _, op := range ops {
		bin := c.Operators.Binary(op.id)
		if err := bin.RegisterCoerced(t.Int, liftInt(op.i)); err != nil {
			return err
		}
		if err := bin.RegisterCoerced(t.Float, liftFloat(op.f)); err != nil {
			return err
		}
	}

	neg := c.Operators.Unary(config.OpNeg)
	if err := neg.Register(t.Int, func(v typesystem.Value) (typesystem.Value, error) {
		return c.Int(-v.Payload().(int64)), nil
	}); err != nil {
		return err
	}
	if err := neg.Register(t.Float, func(v typesystem.Value) (typesystem.Value, error) {
		return c.Float(-v.Payload().(float64)), nil
	}); err != nil {
		return err
	}

	return c.defineNumericFunctions()
}

func liftInt(fn intOp) func(l, r typesystem.Value) (typesystem.Value, error) {
	return func(l, r typesystem.Value) (typesystem.Value, error) {
		return fn(l.Payload().(int64), r.Payload().(int64))
	}
}

func liftFloat(fn floatOp) func(l, r typesystem.Value) (typesystem.Value, error) {
	return func(l, r typesystem.Value) (typesystem.Value, error) {
		return fn(l.Payload().(float64), r.Payload().(float64))
	}
}

func arithmetic(op string, t *typesystem.Tag, cause error) error {
	return diagnostics.Wrap(diagnostics.Invocation, cause, "%s %s %s", t, op, t)
}

// intPow computes n**m for m >= 0 by repeated squaring.
func intPow(n, m int64) int64 {
	var result int64 = 1
	for m > 0 {
		if m&1 == 1 {
			result *= n
		}
		n *= n
		m >>= 1
	}
	return result
}

func (c *Calculator) defineNumericFunctions() error {
	t := c.Types
	defs := []struct {
		name     string
		variants []overload.Variant
	}{
		{config.SqrtFuncName, []overload.Variant{{
			Params: []overload.Param{overload.Arg("x", t.Float, t.Float, t.Int)},
			Result: overload.Returns(t.Float),
			Fn: func(args []any) (any, error) {
				x := args[0].(float64)
				if x < 0 {
					return nil, fmt.Errorf("square root of negative number %g", x)
				}
				return math.Sqrt(x), nil
			},
		}}},
		{config.AbsFuncName, []overload.Variant{
			{
				Label:  "abs(Int)",
				Params: []overload.Param{overload.Arg("x", t.Int, t.Int, t.Bool)},
				Result: overload.Returns(t.Int),
				Fn: func(args []any) (any, error) {
					n := args[0].(int64)
					if n < 0 {
						return -n, nil
					}
					return n, nil
				},
			},
			{
				Label:  "abs(Float)",
				Params: []overload.Param{overload.Arg("x", t.Float, t.Float)},
				Result: overload.Returns(t.Float),
				Fn:     func(args []any) (any, error) { return math.Abs(args[0].(float64)), nil },
			},
		}},
		{config.FloorFuncName, []overload.Variant{{
			Params: []overload.Param{overload.Arg("x", t.Float, t.Float, t.Int, t.Bool)},
			Result: overload.Returns(t.Int),
			Fn:     func(args []any) (any, error) { return floatToInt(math.Floor(args[0].(float64))) },
		}}},
		{config.MinFuncName, []overload.Variant{{
			Params: []overload.Param{overload.RawArg("first"), overload.Rest("rest", nil)},
			Result: overload.ReturnsRaw(),
			Fn:     c.extremum(config.OpLt),
		}}},
		{config.MaxFuncName, []overload.Variant{{
			Params: []overload.Param{overload.RawArg("first"), overload.Rest("rest", nil)},
			Result: overload.ReturnsRaw(),
			Fn:     c.extremum(config.OpGt),
		}}},
		{config.DivmodFuncName, []overload.Variant{
			{
				Label:  "divmod(Int, Int)",
				Params: []overload.Param{overload.Arg("a", t.Int, t.Int, t.Bool), overload.Arg("b", t.Int, t.Int, t.Bool)},
				Result: overload.ReturnsTuple(2),
				Fn: func(args []any) (any, error) {
					a, b := args[0].(int64), args[1].(int64)
					if b == 0 {
						return nil, ErrDivisionByZero
					}
					return []typesystem.Value{c.Int(a / b), c.Int(a % b)}, nil
				},
			},
			{
				Label:  "divmod(Float, Float)",
				Params: []overload.Param{overload.Arg("a", t.Float, t.Float), overload.Arg("b", t.Float, t.Float, t.Int, t.Bool)},
				Result: overload.ReturnsTuple(2),
				Fn: func(args []any) (any, error) {
					a, b := args[0].(float64), args[1].(float64)
					if b == 0 {
						return nil, ErrDivisionByZero
					}
					return []typesystem.Value{c.Float(math.Trunc(a / b)), c.Float(math.Mod(a, b))}, nil
				},
			},
		}},
		{config.RangeFuncName, []overload.Variant{{
			Params: []overload.Param{
				overload.Arg("a", t.Int, t.Int, t.Bool),
				overload.OptArg("b", t.Int, t.Int, t.Bool),
				overload.OptArg("step", t.Int, t.Int, t.Bool),
			},
			Result: overload.ReturnsSequence(t.Int),
			Fn:     rangeInts,
		}}},
		{config.PowFuncName, []overload.Variant{{
			Params: []overload.Param{
				overload.Arg("base", t.Float, t.Float, t.Int, t.Bool),
				overload.OptArg("exp", t.Float, t.Float, t.Int, t.Bool),
			},
			Result: overload.Returns(t.Float),
			Fn: func(args []any) (any, error) {
				exp := 2.0
				if !overload.IsAbsent(args[1]) {
					exp = args[1].(float64)
				}
				return math.Pow(args[0].(float64), exp), nil
			},
		}}},
		{config.FormatFuncName, []overload.Variant{{
			Params: []overload.Param{
				overload.Arg("x", t.Float, t.Float, t.Int, t.Bool),
				overload.OptArg("locale", t.Str, t.Str),
			},
			Result: overload.Returns(t.Str),
			Fn:     c.formatNumber,
		}}},
	}
	for _, d := range defs {
		if _, err := c.Library.Define(d.name, d.variants...); err != nil {
			return err
		}
	}
	return nil
}

// extremum folds the arguments with op, keeping the left operand unless
// op(candidate, best) is truthy.
func (c *Calculator) extremum(op string) overload.Impl {
	return func(args []any) (any, error) {
		best := args[0].(typesystem.Value)
		for _, a := range args[1].([]any) {
			cand := a.(typesystem.Value)
			res, err := c.Operators.Execute(op, cand, best)
			if err != nil {
				return nil, err
			}
			better, err := typesystem.Truthy(res)
			if err != nil {
				return nil, err
			}
			if better {
				best = cand
			}
		}
		return best, nil
	}
}

// rangeInts follows range(stop) / range(start, stop[, step]).
func rangeInts(args []any) (any, error) {
	start, stop, step := int64(0), args[0].(int64), int64(1)
	if !overload.IsAbsent(args[1]) {
		start, stop = stop, args[1].(int64)
	}
	if !overload.IsAbsent(args[2]) {
		step = args[2].(int64)
	}
	if step == 0 {
		return nil, errors.New("range step must not be zero")
	}
	var n int64
	switch {
	case step > 0 && stop > start:
		n = (stop - start + step - 1) / step
	case step < 0 && stop < start:
		n = (start - stop - step - 1) / -step
	}
	if n > maxRange {
		return nil, fmt.Errorf("range of %d elements exceeds %d", n, maxRange)
	}
	out := make([]int64, n)
	for i := range out {
		out[i] = start + int64(i)*step
	}
	return out, nil
}

func (c *Calculator) formatNumber(args []any) (any, error) {
	tag := c.locale
	if !overload.IsAbsent(args[1]) {
		parsed, err := language.Parse(args[1].(string))
		if err != nil {
			return nil, fmt.Errorf("locale %q: %w", args[1], err)
		}
		tag = parsed
	}
	p := message.NewPrinter(tag)
	return p.Sprintf("%v", number.Decimal(args[0].(float64))), nil
}
