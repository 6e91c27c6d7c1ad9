package prelude

import (
	"testing"

	"github.com/funvibe/calcore/internal/diagnostics"
	"github.com/funvibe/calcore/internal/typesystem"
)

func TestSqrtAcceptsIntThroughConversion(t *testing.T) {
	c := newCalc(t, "")
	expect(t, call(t, c, "sqrt", c.Int(9))[0], c.Types.Float, 3.0)
	expect(t, call(t, c, "sqrt", c.Float(2.25))[0], c.Types.Float, 1.5)

	if _, err := c.Call("sqrt", c.Str("9")); !diagnostics.IsKind(err, diagnostics.DispatchFailure) {
		t.Errorf("expected DispatchFailure for Str, got %v", err)
	}
	if _, err := c.Call("sqrt", c.Int(-1)); !diagnostics.IsKind(err, diagnostics.Invocation) {
		t.Errorf("expected Invocation for negative input, got %v", err)
	}
	if _, err := c.Call("sqrt"); !diagnostics.IsKind(err, diagnostics.MissingArgument) {
		t.Errorf("expected MissingArgument, got %v", err)
	}
}

func TestAbsSelectsVariantByType(t *testing.T) {
	c := newCalc(t, "")
	expect(t, call(t, c, "abs", c.Int(-4))[0], c.Types.Int, int64(4))
	expect(t, call(t, c, "abs", c.Bool(true))[0], c.Types.Int, int64(1))
	expect(t, call(t, c, "abs", c.Float(-1.5))[0], c.Types.Float, 1.5)

	f, _ := c.Library.Lookup("abs")
	if n, ok := f.Arity(); !ok || n != 1 {
		t.Errorf("expected fixed arity 1, got %d %v", n, ok)
	}
}

func TestFloor(t *testing.T) {
	c := newCalc(t, "")
	expect(t, call(t, c, "floor", c.Float(-1.5))[0], c.Types.Int, int64(-2))
	expect(t, call(t, c, "floor", c.Int(3))[0], c.Types.Int, int64(3))
}

func TestMinMax(t *testing.T) {
	c := newCalc(t, "")
	expect(t, call(t, c, "min", c.Int(3), c.Float(2.5), c.Int(7))[0], c.Types.Float, 2.5)
	expect(t, call(t, c, "max", c.Int(3), c.Float(2.5), c.Int(7))[0], c.Types.Int, int64(7))
	expect(t, call(t, c, "max", c.Str("b"), c.Str("a"))[0], c.Types.Str, "b")
	expect(t, call(t, c, "min", c.Int(5))[0], c.Types.Int, int64(5))

	_, err := c.Call("min", c.Str("a"), c.Int(1))
	if !diagnostics.IsKind(err, diagnostics.Invocation) {
		t.Fatalf("expected Invocation, got %v", err)
	}
	if !diagnostics.IsKind(unwrapOnce(err), diagnostics.UnsupportedOperation) {
		t.Errorf("cause should be UnsupportedOperation, got %v", err)
	}
}

func unwrapOnce(err error) error {
	if de, ok := err.(*diagnostics.Error); ok {
		return de.Cause
	}
	return nil
}

func TestDivmod(t *testing.T) {
	c := newCalc(t, "")
	f, _ := c.Library.Lookup("divmod")

	res, err := f.CallExpect([]typesystem.Value{c.Int(7), c.Int(2)}, 2)
	if err != nil {
		t.Fatalf("divmod: %v", err)
	}
	expect(t, res[0], c.Types.Int, int64(3))
	expect(t, res[1], c.Types.Int, int64(1))

	res = call(t, c, "divmod", c.Float(7.5), c.Int(2))
	expect(t, res[0], c.Types.Float, 3.0)
	expect(t, res[1], c.Types.Float, 1.5)

	if _, err := f.CallExpect([]typesystem.Value{c.Int(7), c.Int(2)}, 1); !diagnostics.IsKind(err, diagnostics.ResultCount) {
		t.Errorf("expected ResultCount, got %v", err)
	}
	if _, err := c.Call("divmod", c.Int(1), c.Float(2)); !diagnostics.IsKind(err, diagnostics.DispatchFailure) {
		t.Errorf("expected DispatchFailure for (Int, Float), got %v", err)
	}
}

func TestRange(t *testing.T) {
	c := newCalc(t, "")
	ints := func(vals []typesystem.Value) []int64 {
		out := make([]int64, len(vals))
		for i, v := range vals {
			if v.Tag() != c.Types.Int {
				t.Fatalf("expected Int, got %s", v.Tag())
			}
			out[i] = v.Payload().(int64)
		}
		return out
	}
	cases := []struct {
		args []typesystem.Value
		want []int64
	}{
		{[]typesystem.Value{c.Int(3)}, []int64{0, 1, 2}},
		{[]typesystem.Value{c.Int(2), c.Int(5)}, []int64{2, 3, 4}},
		{[]typesystem.Value{c.Int(10), c.Int(0), c.Int(-3)}, []int64{10, 7, 4, 1}},
		{[]typesystem.Value{c.Int(5), c.Int(2)}, []int64{}},
	}
	for _, tc := range cases {
		got := ints(call(t, c, "range", tc.args...))
		if len(got) != len(tc.want) {
			t.Errorf("range%v = %v, want %v", tc.args, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("range%v = %v, want %v", tc.args, got, tc.want)
				break
			}
		}
	}
	if _, err := c.Call("range", c.Int(0), c.Int(1), c.Int(0)); !diagnostics.IsKind(err, diagnostics.Invocation) {
		t.Errorf("expected Invocation for zero step, got %v", err)
	}
}

func TestPowOptionalExponent(t *testing.T) {
	c := newCalc(t, "")
	expect(t, call(t, c, "pow", c.Int(3))[0], c.Types.Float, 9.0)
	expect(t, call(t, c, "pow", c.Int(2), c.Int(10))[0], c.Types.Float, 1024.0)
}

func TestTypeOfIsRaw(t *testing.T) {
	c := newCalc(t, "")
	expect(t, call(t, c, "typeof", c.List())[0], c.Types.Str, "List")

	custom := c.Int(1).WithProtocol(typesystem.NewProtocol().
		TypeOf(func(typesystem.Value) (*typesystem.Tag, error) { return c.Types.Float, nil }).
		MustBuild())
	expect(t, call(t, c, "typeof", custom)[0], c.Types.Str, "Float")
}

func TestStrFunctions(t *testing.T) {
	c := newCalc(t, "")
	expect(t, call(t, c, "str", c.Float(2.5))[0], c.Types.Str, "2.5")
	expect(t, call(t, c, "str", c.Float(3))[0], c.Types.Str, "3.0")
	expect(t, call(t, c, "str", c.Int(3))[0], c.Types.Str, "3")
	expect(t, call(t, c, "str", c.Float(1e21))[0], c.Types.Str, "1e+21")
	expect(t, call(t, c, "str", c.List(c.Str("x")))[0], c.Types.Str, `["x"]`)
	expect(t, call(t, c, "upper", c.Str("straße"))[0], c.Types.Str, "STRASSE")
	expect(t, call(t, c, "lower", c.Str("ABC"))[0], c.Types.Str, "abc")
	expect(t, call(t, c, "len", c.Str("abc"))[0], c.Types.Int, int64(3))

	tr := newCalc(t, "locale: tr\n")
	expect(t, call(t, tr, "upper", tr.Str("i"))[0], tr.Types.Str, "İ")
}

func TestFormat(t *testing.T) {
	c := newCalc(t, "")
	expect(t, call(t, c, "format", c.Float(1234.5))[0], c.Types.Str, "1,234.5")
	expect(t, call(t, c, "format", c.Int(1234567))[0], c.Types.Str, "1,234,567")
	expect(t, call(t, c, "format", c.Float(1234.5), c.Str("de"))[0], c.Types.Str, "1.234,5")

	if _, err := c.Call("format", c.Int(1), c.Str("??")); !diagnostics.IsKind(err, diagnostics.Invocation) {
		t.Errorf("expected Invocation for bad locale, got %v", err)
	}
}

func TestConcatFoldsWithPlus(t *testing.T) {
	c := newCalc(t, "")
	expect(t, call(t, c, "concat", c.Str("a"), c.Str("b"), c.Str("c"))[0], c.Types.Str, "abc")
	expect(t, call(t, c, "concat", c.Int(1), c.Float(0.5))[0], c.Types.Float, 1.5)
	expect(t, call(t, c, "concat")[0], c.Types.Nil, nil)

	res := call(t, c, "concat", c.List(c.Int(1)), c.List(c.Int(2)))
	if res[0].String() != "[1, 2]" {
		t.Errorf("unexpected list concat %v", res[0])
	}
}
