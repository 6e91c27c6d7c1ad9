package overload

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/funvibe/calcore/internal/diagnostics"
	"github.com/funvibe/calcore/internal/typesystem"
)

type fixture struct {
	d     *typesystem.Domain
	boolT *typesystem.Tag
	intT  *typesystem.Tag
	fltT  *typesystem.Tag
	strT  *typesystem.Tag
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	d := typesystem.NewDomain()
	f := fixture{d: d}
	f.boolT = mustDefine(t, d, "Bool", typesystem.Native[bool]())
	f.intT = mustDefine(t, d, "Int", typesystem.Native[int64]())
	f.fltT = mustDefine(t, d, "Float", typesystem.Native[float64]())
	f.strT = mustDefine(t, d, "Str", typesystem.Native[string]())
	if err := d.RegisterConversion(f.intT, f.fltT, func(p any) (any, error) {
		return float64(p.(int64)), nil
	}); err != nil {
		t.Fatalf("conversion: %v", err)
	}
	return f
}

func mustDefine(t *testing.T, d *typesystem.Domain, name string, shape typesystem.Shape) *typesystem.Tag {
	t.Helper()
	tag, err := d.DefineType(typesystem.TypeSpec{Name: name, Shape: shape})
	if err != nil {
		t.Fatalf("define %s: %v", name, err)
	}
	return tag
}

func constFn(v any) Impl {
	return func(args []any) (any, error) { return v, nil }
}

func TestScenarioSqrtConvertsInt(t *testing.T) {
	f := newFixture(t)
	sqrt, err := Build(f.d, "sqrt", Variant{
		Params: []Param{Arg("x", f.fltT, f.fltT, f.intT)},
		Result: Returns(f.fltT),
		Fn: func(args []any) (any, error) {
			return math.Sqrt(args[0].(float64)), nil
		},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if n, ok := sqrt.Arity(); !ok || n != 1 {
		t.Errorf("expected fixed arity 1, got %d %v", n, ok)
	}

	res, err := sqrt.Call([]typesystem.Value{f.d.MustCreate(f.intT, int64(9))})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if len(res) != 1 || res[0].Tag() != f.fltT || res[0].Payload() != 3.0 {
		t.Errorf("expected Float 3.0, got %v", res)
	}

	_, err = sqrt.Call([]typesystem.Value{f.d.MustCreate(f.strT, "9")})
	if !diagnostics.IsKind(err, diagnostics.DispatchFailure) {
		t.Errorf("single variant must still check its matcher, got %v", err)
	}
}

func TestAmbiguousVariants(t *testing.T) {
	f := newFixture(t)
	_, err := Build(f.d, "g",
		Variant{Label: "g1", Params: []Param{Arg("x", f.intT, f.intT)}, Result: Returns(f.intT), Fn: constFn(int64(1))},
		Variant{Label: "g2", Params: []Param{Arg("x", f.intT, f.intT)}, Result: Returns(f.intT), Fn: constFn(int64(2))},
	)
	if !diagnostics.IsKind(err, diagnostics.AmbiguousOverload) {
		t.Fatalf("expected AmbiguousOverload, got %v", err)
	}
	if !strings.Contains(err.Error(), "g1") || !strings.Contains(err.Error(), "g2") {
		t.Errorf("error should name both variants: %v", err)
	}

	_, err = Build(f.d, "h",
		Variant{Params: []Param{Arg("x", f.intT, f.intT)}, Result: Returns(f.intT), Fn: constFn(int64(1))},
		Variant{Params: []Param{Arg("x", f.strT, f.strT)}, Result: Returns(f.intT), Fn: constFn(int64(2))},
	)
	if err != nil {
		t.Errorf("disjoint matchers must build: %v", err)
	}
}

func TestAmbiguityAbsentClass(t *testing.T) {
	f := newFixture(t)

	// f(Int) and f(Int, Str?) both accept a single Int.
	_, err := Build(f.d, "opt",
		Variant{Params: []Param{Arg("a", f.intT, f.intT)}, Result: Returns(f.intT), Fn: constFn(int64(1))},
		Variant{Params: []Param{Arg("a", f.intT, f.intT), OptArg("b", f.strT, f.strT)}, Result: Returns(f.intT), Fn: constFn(int64(2))},
	)
	if !diagnostics.IsKind(err, diagnostics.AmbiguousOverload) {
		t.Errorf("expected AmbiguousOverload through the absent class, got %v", err)
	}

	// f(Int) and f(Int, Int) differ at position 1.
	fn, err := Build(f.d, "arity",
		Variant{Params: []Param{Arg("a", f.intT, f.intT), Arg("b", f.intT, f.intT)}, Result: Returns(f.intT), Fn: constFn(int64(2))},
		Variant{Params: []Param{Arg("a", f.intT, f.intT)}, Result: Returns(f.intT), Fn: constFn(int64(1))},
	)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, ok := fn.Arity(); ok {
		t.Errorf("variants with different mandatory counts have no fixed arity")
	}
	res, err := fn.Call([]typesystem.Value{f.d.MustCreate(f.intT, int64(5))})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if res[0].Payload() != int64(1) {
		t.Errorf("expected the one-argument variant, got %v", res[0])
	}

	// Two parameterless variants cannot be told apart.
	_, err = Build(f.d, "nullary",
		Variant{Result: Returns(f.intT), Fn: constFn(int64(1))},
		Variant{Result: Returns(f.intT), Fn: constFn(int64(2))},
	)
	if !diagnostics.IsKind(err, diagnostics.AmbiguousOverload) {
		t.Errorf("expected AmbiguousOverload for nullary pair, got %v", err)
	}
}

func TestFirstMatchOrdering(t *testing.T) {
	f := newFixture(t)
	fn, err := Build(f.d, "pick",
		Variant{Label: "V1", Params: []Param{RawArg("x", f.intT)}, Result: Returns(f.strT), Fn: constFn("V1")},
		Variant{Label: "V2", Params: []Param{RawArg("x", f.boolT)}, Result: Returns(f.strT), Fn: constFn("V2")},
		Variant{Label: "V3", Params: []Param{RawArg("x")}, Result: Returns(f.strT), Fn: constFn("V3")},
	)
	if !diagnostics.IsKind(err, diagnostics.AmbiguousOverload) {
		t.Fatalf("an unrestricted variant overlaps the others, got %v", err)
	}

	fn, err = Build(f.d, "pick",
		Variant{Label: "V1", Params: []Param{RawArg("x", f.intT)}, Result: Returns(f.strT), Fn: constFn("V1")},
		Variant{Label: "V2", Params: []Param{RawArg("x", f.boolT)}, Result: Returns(f.strT), Fn: constFn("V2")},
	)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	res, err := fn.Call([]typesystem.Value{f.d.MustCreate(f.boolT, true)})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if res[0].Payload() != "V2" {
		t.Errorf("expected V2, got %v", res[0])
	}
	if idx, _ := fn.Resolve([]typesystem.Value{f.d.MustCreate(f.intT, int64(0))}); idx != 0 {
		t.Errorf("expected V1 for Int, got %d", idx)
	}

	_, err = fn.Call([]typesystem.Value{f.d.MustCreate(f.strT, "x")})
	if !diagnostics.IsKind(err, diagnostics.DispatchFailure) {
		t.Errorf("expected DispatchFailure, got %v", err)
	}
}

func TestFirstMatchPrefersRegistrationOrder(t *testing.T) {
	f := newFixture(t)
	// Position 1 separates the variants; position 0 overlaps on Int.
	fn, err := Build(f.d, "order",
		Variant{Label: "wide", Params: []Param{RawArg("x", f.intT, f.fltT), RawArg("y", f.strT)},
			Result: Returns(f.strT), Fn: constFn("wide")},
		Variant{Label: "narrow", Params: []Param{RawArg("x", f.intT), OptArg("y", f.intT, f.intT)},
			Result: Returns(f.strT), Fn: constFn("narrow")},
	)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	res, err := fn.Call([]typesystem.Value{f.d.MustCreate(f.intT, int64(1)), f.d.MustCreate(f.strT, "s")})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if res[0].Payload() != "wide" {
		t.Errorf("expected wide, got %v", res[0])
	}
	res, err = fn.Call([]typesystem.Value{f.d.MustCreate(f.intT, int64(1))})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if res[0].Payload() != "narrow" {
		t.Errorf("expected narrow, got %v", res[0])
	}
}

func TestMalformedVariants(t *testing.T) {
	f := newFixture(t)
	other := newFixture(t)
	cases := []struct {
		name string
		v    Variant
	}{
		{"mandatory after optional", Variant{
			Params: []Param{OptArg("a", f.intT), Arg("b", f.intT)},
			Result: Returns(f.intT), Fn: constFn(int64(0)),
		}},
		{"variadic not last", Variant{
			Params: []Param{Rest("r", f.intT), Arg("b", f.intT)},
			Result: Returns(f.intT), Fn: constFn(int64(0)),
		}},
		{"variadic with matcher", Variant{
			Params: []Param{{Name: "r", Presence: Variadic, Type: f.intT, Match: Accepts(f.intT)}},
			Result: Returns(f.intT), Fn: constFn(int64(0)),
		}},
		{"foreign param type", Variant{
			Params: []Param{Arg("a", other.intT)},
			Result: Returns(f.intT), Fn: constFn(int64(0)),
		}},
		{"foreign matcher type", Variant{
			Params: []Param{Arg("a", f.intT, other.intT)},
			Result: Returns(f.intT), Fn: constFn(int64(0)),
		}},
		{"missing result type", Variant{
			Params: []Param{Arg("a", f.intT)},
			Result: Result{Shape: Single}, Fn: constFn(int64(0)),
		}},
		{"no implementation", Variant{
			Params: []Param{Arg("a", f.intT)},
			Result: Returns(f.intT),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(f.d, "bad", tc.v)
			if !diagnostics.IsKind(err, diagnostics.MalformedVariant) {
				t.Errorf("expected MalformedVariant, got %v", err)
			}
		})
	}

	// Optional followed by the trailing variadic is allowed.
	_, err := Build(f.d, "ok", Variant{
		Params: []Param{Arg("a", f.intT), OptArg("b", f.intT), Rest("r", f.intT)},
		Result: Returns(f.intT), Fn: constFn(int64(0)),
	})
	if err != nil {
		t.Errorf("expected a valid layout, got %v", err)
	}
}

func TestArgumentBinding(t *testing.T) {
	f := newFixture(t)
	var got []any
	fn, err := Build(f.d, "bind", Variant{
		Params: []Param{Arg("a", f.fltT), OptArg("b", f.intT), Rest("r", f.fltT)},
		Result: Returns(f.intT),
		Fn: func(args []any) (any, error) {
			got = args
			return int64(len(args)), nil
		},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	_, err = fn.Call([]typesystem.Value{f.d.MustCreate(f.intT, int64(1))})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got[0] != 1.0 || !IsAbsent(got[1]) || len(got[2].([]any)) != 0 {
		t.Errorf("unexpected binding %#v", got)
	}

	args := []typesystem.Value{
		f.d.MustCreate(f.fltT, 1.5),
		f.d.MustCreate(f.intT, int64(2)),
		f.d.MustCreate(f.intT, int64(3)),
		f.d.MustCreate(f.fltT, 4.5),
	}
	_, err = fn.Call(args)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	rest := got[2].([]any)
	if got[0] != 1.5 || got[1] != int64(2) || len(rest) != 2 || rest[0] != 3.0 || rest[1] != 4.5 {
		t.Errorf("unexpected binding %#v", got)
	}

	_, err = fn.Call(nil)
	if !diagnostics.IsKind(err, diagnostics.MissingArgument) {
		t.Errorf("expected MissingArgument, got %v", err)
	}

	_, err = fn.Call([]typesystem.Value{f.d.MustCreate(f.strT, "x")})
	if !diagnostics.IsKind(err, diagnostics.TypeMismatch) {
		t.Errorf("expected TypeMismatch for unconvertible Str, got %v", err)
	}
	if !errors.Is(err, diagnostics.Sentinel(diagnostics.TypeMismatch)) {
		t.Errorf("expected sentinel match")
	}
}

func TestRawArgumentsPassThrough(t *testing.T) {
	f := newFixture(t)
	in := f.d.MustCreate(f.strT, "raw")
	fn, err := Build(f.d, "id", Variant{
		Params: []Param{RawArg("x")},
		Result: ReturnsRaw(),
		Fn: func(args []any) (any, error) {
			return args[0], nil
		},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	res, err := fn.Call([]typesystem.Value{in})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if res[0] != in {
		t.Errorf("raw argument should round trip unchanged, got %v", res[0])
	}
}

func TestResultShapes(t *testing.T) {
	f := newFixture(t)
	one := f.d.MustCreate(f.intT, int64(1))
	two := f.d.MustCreate(f.intT, int64(2))

	tuple, err := Build(f.d, "pair", Variant{
		Result: ReturnsTuple(2),
		Fn:     constFn([]typesystem.Value{one, two}),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	res, err := tuple.CallExpect(nil, 2)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if res[0] != one || res[1] != two {
		t.Errorf("unexpected tuple %v", res)
	}
	if _, err := tuple.CallExpect(nil, 1); !diagnostics.IsKind(err, diagnostics.ResultCount) {
		t.Errorf("expected ResultCount, got %v", err)
	}

	seq, err := Build(f.d, "seq", Variant{
		Result: ReturnsSequence(f.intT),
		Fn:     constFn([]int64{4, 5, 6}),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	res, err = seq.Call(nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if len(res) != 3 || res[2].Tag() != f.intT || res[2].Payload() != int64(6) {
		t.Errorf("unexpected sequence %v", res)
	}

	badTuple, _ := Build(f.d, "bad", Variant{Result: ReturnsTuple(3), Fn: constFn([]typesystem.Value{one})})
	if _, err := badTuple.Call(nil); !diagnostics.IsKind(err, diagnostics.TypeMismatch) {
		t.Errorf("expected TypeMismatch for short tuple, got %v", err)
	}
	badSingle, _ := Build(f.d, "bad", Variant{Result: Returns(f.intT), Fn: constFn("nope")})
	if _, err := badSingle.Call(nil); !diagnostics.IsKind(err, diagnostics.TypeMismatch) {
		t.Errorf("expected TypeMismatch for wrong payload, got %v", err)
	}
}

func TestInvocationErrorKeepsCause(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("division by zero")
	fn, err := Build(f.d, "div", Variant{
		Params: []Param{Arg("a", f.intT), Arg("b", f.intT)},
		Result: Returns(f.intT),
		Fn: func(args []any) (any, error) {
			if args[1].(int64) == 0 {
				return nil, boom
			}
			return args[0].(int64) / args[1].(int64), nil
		},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	_, err = fn.Call([]typesystem.Value{f.d.MustCreate(f.intT, int64(1)), f.d.MustCreate(f.intT, int64(0))})
	if !diagnostics.IsKind(err, diagnostics.Invocation) {
		t.Fatalf("expected Invocation, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("cause must be preserved: %v", err)
	}
}

func TestCallDoesNotRetainArguments(t *testing.T) {
	f := newFixture(t)
	var kept []any
	fn, _ := Build(f.d, "keep", Variant{
		Params: []Param{Rest("r", nil)},
		Result: Returns(f.intT),
		Fn: func(args []any) (any, error) {
			kept = args[0].([]any)
			return int64(len(kept)), nil
		},
	})
	args := []typesystem.Value{f.d.MustCreate(f.intT, int64(1)), f.d.MustCreate(f.intT, int64(2))}
	if _, err := fn.Call(args); err != nil {
		t.Fatalf("call: %v", err)
	}
	args[0] = f.d.MustCreate(f.strT, "mutated")
	if kept[0].(typesystem.Value).Tag() != f.intT {
		t.Errorf("variadic tail must be a copy of the caller's slice")
	}
}
