package prelude

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/funvibe/calcore/internal/config"
	"github.com/funvibe/calcore/internal/overload"
	"github.com/funvibe/calcore/internal/typesystem"
)

func (c *Calculator) defineTypes() error {
	eq := c.equal
	specs := []struct {
		dst   **typesystem.Tag
		name  string
		shape typesystem.Shape
		proto *typesystem.ProtocolBuilder
	}{
		{&c.Types.Nil, config.NilTypeName, typesystem.NilShape(), typesystem.NewProtocol().
			Truthy(func(typesystem.Value) (bool, error) { return false, nil }).
			Str(func(typesystem.Value) (string, error) { return "Nil", nil }).
			Equal(eq)},
		{&c.Types.Bool, config.BoolTypeName, typesystem.Native[bool](), typesystem.NewProtocol().
			Truthy(func(v typesystem.Value) (bool, error) { return v.Payload().(bool), nil }).
			Str(func(v typesystem.Value) (string, error) { return strconv.FormatBool(v.Payload().(bool)), nil }).
			Equal(eq)},
		{&c.Types.Int, config.IntTypeName, typesystem.Native[int64](), typesystem.NewProtocol().
			Truthy(func(v typesystem.Value) (bool, error) { return v.Payload().(int64) != 0, nil }).
			Str(func(v typesystem.Value) (string, error) { return strconv.FormatInt(v.Payload().(int64), 10), nil }).
			Equal(eq)},
		{&c.Types.Float, config.FloatTypeName, typesystem.Native[float64](), typesystem.NewProtocol().
			Truthy(func(v typesystem.Value) (bool, error) { return v.Payload().(float64) != 0, nil }).
			Str(func(v typesystem.Value) (string, error) { return formatFloat(v.Payload().(float64)), nil }).
			Equal(eq)},
		{&c.Types.Str, config.StrTypeName, typesystem.Native[string](), typesystem.NewProtocol().
			Truthy(func(v typesystem.Value) (bool, error) { return v.Payload().(string) != "", nil }).
			Str(func(v typesystem.Value) (string, error) { return v.Payload().(string), nil }).
			Repr(func(v typesystem.Value) (string, error) { return strconv.Quote(v.Payload().(string)), nil }).
			Len(func(v typesystem.Value) (int, error) { return utf8.RuneCountInString(c.normalize(v.Payload().(string))), nil }).
			Slice(c.sliceStr).
			GetAttr(c.strAttr).
			Equal(eq)},
		{&c.Types.List, config.ListTypeName, typesystem.Native[[]typesystem.Value](), c.sequenceProtocol("[", "]").
			Equal(eq)},
		{&c.Types.Tuple, config.TupleTypeName, typesystem.Native[[]typesystem.Value](), c.sequenceProtocol("(", ")").
			Equal(eq)},
		{&c.Types.Func, config.FuncTypeName, typesystem.Native[*overload.Function](), typesystem.NewProtocol().
			Truthy(func(typesystem.Value) (bool, error) { return true, nil }).
			Str(func(v typesystem.Value) (string, error) {
				return "<func " + v.Payload().(*overload.Function).Name() + ">", nil
			}).
			Call(func(v typesystem.Value, args []typesystem.Value) ([]typesystem.Value, error) {
				return v.Payload().(*overload.Function).Call(args)
			}).
			Equal(eq)},
	}
	for _, s := range specs {
		proto, err := s.proto.Build()
		if err != nil {
			return err
		}
		tag, err := c.Domain.DefineType(typesystem.TypeSpec{Name: s.name, Shape: s.shape, Protocol: proto})
		if err != nil {
			return err
		}
		*s.dst = tag
	}
	return nil
}

func (c *Calculator) sequenceProtocol(opening, closing string) *typesystem.ProtocolBuilder {
	items := func(v typesystem.Value) []typesystem.Value { return v.Payload().([]typesystem.Value) }
	return typesystem.NewProtocol().
		Truthy(func(v typesystem.Value) (bool, error) { return len(items(v)) > 0, nil }).
		Str(func(v typesystem.Value) (string, error) {
			parts := make([]string, len(items(v)))
			for i, it := range items(v) {
				parts[i] = typesystem.Repr(it)
			}
			return opening + strings.Join(parts, ", ") + closing, nil
		}).
		Len(func(v typesystem.Value) (int, error) { return len(items(v)), nil }).
		Slice(func(v typesystem.Value, lo, hi int) (typesystem.Value, error) {
			all := items(v)
			lo, hi = sliceBounds(len(all), lo, hi)
			return c.Domain.Create(v.Tag(), append([]typesystem.Value{}, all[lo:hi]...))
		}).
		Destructure(func(v typesystem.Value, n int) ([]typesystem.Value, bool) {
			all := items(v)
			if len(all) != n {
				return nil, false
			}
			return append([]typesystem.Value{}, all...), true
		})
}

func (c *Calculator) sliceStr(v typesystem.Value, lo, hi int) (typesystem.Value, error) {
	runes := []rune(c.normalize(v.Payload().(string)))
	lo, hi = sliceBounds(len(runes), lo, hi)
	return c.Domain.Create(c.Types.Str, string(runes[lo:hi]))
}

func (c *Calculator) strAttr(v typesystem.Value, name string) (typesystem.Value, bool, error) {
	s := v.Payload().(string)
	switch name {
	case config.UpperAttrName:
		return c.Str(c.upper.String(s)), true, nil
	case config.LowerAttrName:
		return c.Str(c.lower.String(s)), true, nil
	case config.LengthAttrName:
		return c.Int(int64(utf8.RuneCountInString(c.normalize(s)))), true, nil
	}
	return typesystem.Value{}, false, nil
}

// sliceBounds clamps [lo, hi) to [0, n]. Negative bounds count from the end.
func sliceBounds(n, lo, hi int) (int, int) {
	if lo < 0 {
		lo += n
	}
	if hi < 0 {
		hi += n
	}
	lo = min(max(lo, 0), n)
	hi = min(max(hi, 0), n)
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

// formatFloat keeps a fractional part on integral floats so that Float 3
// never renders like Int 3.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eIN") {
		return s
	}
	return s + ".0"
}

// equal is the default eq slot. Bool, Int and Float compare numerically,
// Str compares in the configured normalization form, List and Tuple compare
// element-wise within the same type, Func compares by identity. Values of
// other unrelated types are unequal.
func (c *Calculator) equal(a, b typesystem.Value) (bool, error) {
	if an, ok := c.numeric(a); ok {
		bn, ok := c.numeric(b)
		if !ok {
			return false, nil
		}
		return an.eq(bn), nil
	}
	switch {
	case a.Is(c.Types.Nil):
		return b.Is(c.Types.Nil), nil
	case a.Is(c.Types.Str):
		if !b.Is(c.Types.Str) {
			return false, nil
		}
		return c.normalize(a.Payload().(string)) == c.normalize(b.Payload().(string)), nil
	case a.Is(c.Types.List), a.Is(c.Types.Tuple):
		if a.Tag() != b.Tag() {
			return false, nil
		}
		xs, ys := a.Payload().([]typesystem.Value), b.Payload().([]typesystem.Value)
		if len(xs) != len(ys) {
			return false, nil
		}
		for i := range xs {
			ok, err := valuesEqual(xs[i], ys[i])
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case a.Is(c.Types.Func):
		if !b.Is(c.Types.Func) {
			return false, nil
		}
		return a.Payload().(*overload.Function) == b.Payload().(*overload.Function), nil
	}
	return false, nil
}

// numView is the common view of Bool, Int and Float payloads.
type numView struct {
	i     int64
	f     float64
	isInt bool
}

func (n numView) float() float64 {
	if n.isInt {
		return float64(n.i)
	}
	return n.f
}

func (n numView) eq(o numView) bool {
	if n.isInt && o.isInt {
		return n.i == o.i
	}
	return n.float() == o.float()
}

func (c *Calculator) numeric(v typesystem.Value) (numView, bool) {
	switch {
	case v.Is(c.Types.Bool):
		if v.Payload().(bool) {
			return numView{i: 1, isInt: true}, true
		}
		return numView{isInt: true}, true
	case v.Is(c.Types.Int):
		return numView{i: v.Payload().(int64), isInt: true}, true
	case v.Is(c.Types.Float):
		return numView{f: v.Payload().(float64)}, true
	}
	return numView{}, false
}

func (c *Calculator) registerConversions() error {
	t := c.Types
	conversions := []struct {
		from, to *typesystem.Tag
		fn       typesystem.ConvertFunc
	}{
		{t.Bool, t.Int, func(p any) (any, error) {
			if p.(bool) {
				return int64(1), nil
			}
			return int64(0), nil
		}},
		{t.Int, t.Bool, func(p any) (any, error) { return p.(int64) != 0, nil }},
		{t.Bool, t.Float, func(p any) (any, error) {
			if p.(bool) {
				return 1.0, nil
			}
			return 0.0, nil
		}},
		{t.Int, t.Float, func(p any) (any, error) { return float64(p.(int64)), nil }},
		{t.Float, t.Int, floatToInt},
		{t.Int, t.Str, func(p any) (any, error) { return strconv.FormatInt(p.(int64), 10), nil }},
		{t.Float, t.Str, func(p any) (any, error) { return formatFloat(p.(float64)), nil }},
		{t.Bool, t.Str, func(p any) (any, error) { return strconv.FormatBool(p.(bool)), nil }},
	}
	for _, conv := range conversions {
		if err := c.Domain.RegisterConversion(conv.from, conv.to, conv.fn); err != nil {
			return err
		}
	}
	return nil
}

// floatToInt truncates toward zero.
func floatToInt(p any) (any, error) {
	f := p.(float64)
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return nil, fmt.Errorf("%g is out of Int range", f)
	}
	return int64(f), nil
}

func (c *Calculator) registerCoercions() error {
	t := c.Types
	builtin := []struct{ a, b *typesystem.Tag }{
		{t.Int, t.Bool},
		{t.Float, t.Int},
		{t.Float, t.Bool},
	}
	for _, r := range builtin {
		if err := c.Domain.RegisterSymmetricCoercion(r.a, r.b, typesystem.AWins); err != nil {
			return err
		}
	}

	for _, spec := range c.cfg.Coercions {
		a, ok := c.Domain.Lookup(spec.A)
		if !ok {
			return fmt.Errorf("coercion (%s, %s): unknown type %s", spec.A, spec.B, spec.A)
		}
		b, ok := c.Domain.Lookup(spec.B)
		if !ok {
			return fmt.Errorf("coercion (%s, %s): unknown type %s", spec.A, spec.B, spec.B)
		}
		rule := typesystem.Invalid
		switch spec.Winner {
		case "a":
			rule = typesystem.AWins
		case "b":
			rule = typesystem.BWins
		}
		register := c.Domain.RegisterCoercion
		if spec.Symmetric {
			register = c.Domain.RegisterSymmetricCoercion
		}
		if err := register(a, b, rule); err != nil {
			return err
		}
	}
	return nil
}
