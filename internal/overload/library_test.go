package overload

import (
	"slices"
	"testing"

	"github.com/funvibe/calcore/internal/diagnostics"
	"github.com/funvibe/calcore/internal/typesystem"
)

func TestLibraryDefineAndCall(t *testing.T) {
	f := newFixture(t)
	lib := NewLibrary(f.d)

	_, err := lib.Define("neg", Variant{
		Params: []Param{Arg("x", f.intT)},
		Result: Returns(f.intT),
		Fn:     func(args []any) (any, error) { return -args[0].(int64), nil },
	})
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	res, err := lib.Call("neg", f.d.MustCreate(f.intT, int64(3)))
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if res[0].Payload() != int64(-3) {
		t.Errorf("expected -3, got %v", res[0])
	}

	_, err = lib.Define("neg", Variant{Result: Returns(f.intT), Fn: constFn(int64(0))})
	if !diagnostics.IsKind(err, diagnostics.DuplicateOperation) {
		t.Errorf("expected DuplicateOperation, got %v", err)
	}
	if _, err := lib.Call("missing"); !diagnostics.IsKind(err, diagnostics.DispatchFailure) {
		t.Errorf("expected DispatchFailure for unknown function, got %v", err)
	}
}

func TestLibraryNamesSorted(t *testing.T) {
	f := newFixture(t)
	lib := NewLibrary(f.d)
	for _, name := range []string{"sqrt", "abs", "max"} {
		if _, err := lib.Define(name, Variant{Result: Returns(f.intT), Fn: constFn(int64(0))}); err != nil {
			t.Fatalf("define %s: %v", name, err)
		}
	}
	got := lib.Names()
	want := []string{"abs", "max", "sqrt"}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if fs := lib.Functions(); fs[0].Name() != "sqrt" {
		t.Errorf("Functions must keep definition order, got %s first", fs[0].Name())
	}
}

func TestLibrarySealed(t *testing.T) {
	f := newFixture(t)
	lib := NewLibrary(f.d)
	lib.Seal()
	_, err := lib.Define("late", Variant{Result: Returns(f.intT), Fn: constFn(int64(0))})
	if !diagnostics.IsKind(err, diagnostics.Sealed) {
		t.Errorf("expected Sealed, got %v", err)
	}
	if len(lib.Functions()) != 0 {
		t.Errorf("sealed library must stay empty")
	}
}

func TestLibraryRejectsForeignFunction(t *testing.T) {
	f := newFixture(t)
	g := newFixture(t)
	fn, err := Build(g.d, "foreign", Variant{Result: Returns(g.intT), Fn: constFn(int64(0))})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := NewLibrary(f.d).Add(fn); !diagnostics.IsKind(err, diagnostics.DomainMismatch) {
		t.Errorf("expected DomainMismatch, got %v", err)
	}
	_, err = fn.Call([]typesystem.Value{f.d.MustCreate(f.intT, int64(1))})
	if !diagnostics.IsKind(err, diagnostics.DomainMismatch) {
		t.Errorf("expected DomainMismatch for foreign argument, got %v", err)
	}
}
