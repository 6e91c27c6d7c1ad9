package typesystem

import (
	"errors"
	"strconv"
	"testing"

	"github.com/funvibe/calcore/internal/diagnostics"
)

type testTypes struct {
	d     *Domain
	boolT *Tag
	intT  *Tag
	fltT  *Tag
	strT  *Tag
}

func newTestTypes(t *testing.T) testTypes {
	t.Helper()
	d := NewDomain(WithName("test"))
	tt := testTypes{d: d}
	var err error
	if tt.boolT, err = d.DefineType(TypeSpec{Name: "Bool", Shape: Native[bool]()}); err != nil {
		t.Fatalf("define Bool: %v", err)
	}
	if tt.intT, err = d.DefineType(TypeSpec{Name: "Int", Shape: Native[int64]()}); err != nil {
		t.Fatalf("define Int: %v", err)
	}
	if tt.fltT, err = d.DefineType(TypeSpec{Name: "Float", Shape: Native[float64]()}); err != nil {
		t.Fatalf("define Float: %v", err)
	}
	if tt.strT, err = d.DefineType(TypeSpec{Name: "Str", Shape: Native[string]()}); err != nil {
		t.Fatalf("define Str: %v", err)
	}

	mustNoErr(t, d.RegisterConversion(tt.boolT, tt.intT, func(p any) (any, error) {
		if p.(bool) {
			return int64(1), nil
		}
		return int64(0), nil
	}))
	mustNoErr(t, d.RegisterConversion(tt.intT, tt.boolT, func(p any) (any, error) {
		return p.(int64) != 0, nil
	}))
	mustNoErr(t, d.RegisterConversion(tt.intT, tt.fltT, func(p any) (any, error) {
		return float64(p.(int64)), nil
	}))
	mustNoErr(t, d.RegisterConversion(tt.strT, tt.intT, func(p any) (any, error) {
		return strconv.ParseInt(p.(string), 10, 64)
	}))
	return tt
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDefineTypeDuplicate(t *testing.T) {
	tt := newTestTypes(t)
	_, err := tt.d.DefineType(TypeSpec{Name: "Int"})
	if !diagnostics.IsKind(err, diagnostics.DuplicateType) {
		t.Fatalf("expected DuplicateType, got %v", err)
	}
	if got, _ := tt.d.Lookup("Int"); got != tt.intT {
		t.Errorf("lookup returned a different tag after failed redefinition")
	}
}

func TestCreateChecksShape(t *testing.T) {
	tt := newTestTypes(t)

	v, err := tt.d.Create(tt.intT, int64(7))
	mustNoErr(t, err)
	if v.Tag() != tt.intT || v.Payload() != int64(7) {
		t.Errorf("unexpected value %v", v)
	}
	if v.Domain() != tt.d {
		t.Errorf("value lost its domain")
	}

	_, err = tt.d.Create(tt.intT, 7) // int, not int64
	if !diagnostics.IsKind(err, diagnostics.TypeMismatch) {
		t.Fatalf("expected TypeMismatch, got %v", err)
	}
}

func TestConvertIdentity(t *testing.T) {
	tt := newTestTypes(t)
	v := tt.d.MustCreate(tt.intT, int64(3))
	got, err := tt.d.Convert(v, tt.intT)
	mustNoErr(t, err)
	if got != v {
		t.Errorf("convert to own tag should return the value itself")
	}
}

func TestConvertRoundTrip(t *testing.T) {
	tt := newTestTypes(t)
	orig := tt.d.MustCreate(tt.boolT, true)

	asInt, err := tt.d.Convert(orig, tt.intT)
	mustNoErr(t, err)
	if asInt.Payload() != int64(1) {
		t.Fatalf("expected 1, got %v", asInt.Payload())
	}
	back, err := tt.d.Convert(asInt, tt.boolT)
	mustNoErr(t, err)
	if back != orig {
		t.Errorf("round trip changed the value: %v", back)
	}
}

func TestConvertMissingEdge(t *testing.T) {
	tt := newTestTypes(t)
	_, err := tt.d.Convert(tt.d.MustCreate(tt.fltT, 1.5), tt.strT)
	if !diagnostics.IsKind(err, diagnostics.NoConversion) {
		t.Fatalf("expected NoConversion, got %v", err)
	}
}

func TestConvertFailureWrapsCause(t *testing.T) {
	tt := newTestTypes(t)
	_, err := tt.d.Convert(tt.d.MustCreate(tt.strT, "abc"), tt.intT)
	if !diagnostics.IsKind(err, diagnostics.TypeMismatch) {
		t.Fatalf("expected TypeMismatch, got %v", err)
	}
	var numErr *strconv.NumError
	if !errors.As(err, &numErr) {
		t.Errorf("expected the parse error to be preserved, got %v", err)
	}
}

func TestDuplicateConversionKeepsFirst(t *testing.T) {
	tt := newTestTypes(t)
	err := tt.d.RegisterConversion(tt.intT, tt.fltT, func(p any) (any, error) {
		return float64(-1), nil
	})
	if !diagnostics.IsKind(err, diagnostics.DuplicateConversion) {
		t.Fatalf("expected DuplicateConversion, got %v", err)
	}

	got, err := tt.d.Convert(tt.d.MustCreate(tt.intT, int64(4)), tt.fltT)
	mustNoErr(t, err)
	if got.Payload() != 4.0 {
		t.Errorf("original conversion should survive, got %v", got.Payload())
	}
}

func TestCastReinterpretsPayload(t *testing.T) {
	d := NewDomain()
	celsius, _ := d.DefineType(TypeSpec{Name: "Celsius", Shape: Native[float64]()})
	raw, _ := d.DefineType(TypeSpec{Name: "Raw", Shape: Native[float64]()})
	mustNoErr(t, d.RegisterCast(celsius, raw))

	got, err := d.Convert(d.MustCreate(celsius, 21.5), raw)
	mustNoErr(t, err)
	if got.Tag() != raw || got.Payload() != 21.5 {
		t.Errorf("unexpected cast result %v", got)
	}
	convs := d.Conversions()
	if len(convs) != 1 || !convs[0].Cast {
		t.Errorf("expected one cast edge, got %+v", convs)
	}
}

func TestCoercionRules(t *testing.T) {
	tt := newTestTypes(t)

	if tt.d.Coercion(tt.intT, tt.intT) != AWins {
		t.Errorf("same type must trivially win")
	}
	if tt.d.Coercion(tt.strT, tt.intT) != Invalid {
		t.Errorf("unregistered pair must be invalid")
	}

	mustNoErr(t, tt.d.RegisterSymmetricCoercion(tt.fltT, tt.intT, AWins))
	if tt.d.Coercion(tt.fltT, tt.intT) != AWins {
		t.Errorf("expected Float to win over Int")
	}
	if tt.d.Coercion(tt.intT, tt.fltT) != BWins {
		t.Errorf("expected the inverse rule to be derived")
	}

	// Re-registering the identical rule is accepted.
	mustNoErr(t, tt.d.RegisterSymmetricCoercion(tt.fltT, tt.intT, AWins))

	err := tt.d.RegisterCoercion(tt.intT, tt.fltT, Invalid)
	if !diagnostics.IsKind(err, diagnostics.DuplicateCoercion) {
		t.Fatalf("expected DuplicateCoercion, got %v", err)
	}
	if len(tt.d.Coercions()) != 2 {
		t.Errorf("expected 2 coercion entries, got %d", len(tt.d.Coercions()))
	}
}

func TestCoercionRequiresConversion(t *testing.T) {
	tt := newTestTypes(t)
	// Float -> Int is not registered, so Int cannot win over Float.
	err := tt.d.RegisterCoercion(tt.intT, tt.fltT, AWins)
	if !diagnostics.IsKind(err, diagnostics.InvalidCoercion) {
		t.Fatalf("expected InvalidCoercion, got %v", err)
	}
	err = tt.d.RegisterCoercion(tt.fltT, tt.intT, BWins)
	if !diagnostics.IsKind(err, diagnostics.InvalidCoercion) {
		t.Fatalf("expected InvalidCoercion, got %v", err)
	}
	if err := tt.d.RegisterCoercion(tt.strT, tt.fltT, Invalid); err != nil {
		t.Errorf("explicit Invalid needs no conversion: %v", err)
	}
}

func TestSealedDomainRejectsRegistration(t *testing.T) {
	tt := newTestTypes(t)
	tt.d.Seal()
	if !tt.d.Sealed() {
		t.Fatalf("expected sealed domain")
	}

	_, err := tt.d.DefineType(TypeSpec{Name: "Late"})
	if !diagnostics.IsKind(err, diagnostics.Sealed) {
		t.Errorf("expected Sealed for DefineType, got %v", err)
	}
	err = tt.d.RegisterConversion(tt.fltT, tt.strT, func(p any) (any, error) { return "", nil })
	if !diagnostics.IsKind(err, diagnostics.Sealed) {
		t.Errorf("expected Sealed for RegisterConversion, got %v", err)
	}
	err = tt.d.RegisterSymmetricCoercion(tt.intT, tt.boolT, AWins)
	if !diagnostics.IsKind(err, diagnostics.Sealed) {
		t.Errorf("expected Sealed for RegisterSymmetricCoercion, got %v", err)
	}

	// Reads keep working.
	if _, err := tt.d.Convert(tt.d.MustCreate(tt.boolT, false), tt.intT); err != nil {
		t.Errorf("convert after seal: %v", err)
	}
}

func TestCrossDomainFailsFast(t *testing.T) {
	a := newTestTypes(t)
	b := newTestTypes(t)
	if a.d.ID() == b.d.ID() {
		t.Fatalf("domains must have distinct identities")
	}

	_, err := a.d.Convert(b.d.MustCreate(b.intT, int64(1)), a.fltT)
	if !diagnostics.IsKind(err, diagnostics.DomainMismatch) {
		t.Errorf("expected DomainMismatch, got %v", err)
	}
	_, err = a.d.Create(b.intT, int64(1))
	if !diagnostics.IsKind(err, diagnostics.DomainMismatch) {
		t.Errorf("expected DomainMismatch for foreign tag, got %v", err)
	}
	err = a.d.RegisterConversion(a.intT, b.strT, func(p any) (any, error) { return "", nil })
	if !diagnostics.IsKind(err, diagnostics.DomainMismatch) {
		t.Errorf("expected DomainMismatch for foreign edge, got %v", err)
	}
}
