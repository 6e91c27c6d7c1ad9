package overload

import (
	"reflect"
	"strings"

	"github.com/funvibe/calcore/internal/diagnostics"
	"github.com/funvibe/calcore/internal/typesystem"
)

// Function is a built, immutable overload set.
type Function struct {
	name     string
	domain   *typesystem.Domain
	variants []*variant
	arity    int
	fixed    bool
}

func (f *Function) Name() string { return f.name }

func (f *Function) Domain() *typesystem.Domain { return f.domain }

// Arity returns the advertised fixed arity. ok is false when the variants
// disagree on their mandatory count; call sites must then supply an
// explicit argument count.
func (f *Function) Arity() (n int, ok bool) {
	return f.arity, f.fixed
}

// Signatures lists the variants in registration order.
func (f *Function) Signatures() []string {
	out := make([]string, len(f.variants))
	for i, v := range f.variants {
		out[i] = v.Signature(f.name)
	}
	return out
}

// Call resolves and invokes the variant matching args.
func (f *Function) Call(args []typesystem.Value) ([]typesystem.Value, error) {
	if err := f.domain.CheckSameDomain(args...); err != nil {
		return nil, err
	}
	v, err := f.selectVariant(args)
	if err != nil {
		return nil, err
	}
	native, err := f.bind(v, args)
	if err != nil {
		return nil, err
	}
	out, err := v.Fn(native)
	if err != nil {
		return nil, diagnostics.Wrap(diagnostics.Invocation, err, "%s", v.label)
	}
	return f.wrap(v, out)
}

// CallExpect is Call for frames that expect exactly want results.
func (f *Function) CallExpect(args []typesystem.Value, want int) ([]typesystem.Value, error) {
	res, err := f.Call(args)
	if err != nil {
		return nil, err
	}
	if len(res) != want {
		return nil, diagnostics.New(diagnostics.ResultCount,
			"%s produced %d results, caller expects %d", f.name, len(res), want)
	}
	return res, nil
}

// Resolve returns the index of the variant that Call would select.
func (f *Function) Resolve(args []typesystem.Value) (int, error) {
	v, err := f.selectVariant(args)
	if err != nil {
		return -1, err
	}
	for i, cand := range f.variants {
		if cand == v {
			return i, nil
		}
	}
	return -1, nil
}

// selectVariant is first-match in registration order. With several
// variants an exhausted mandatory position disqualifies a candidate; the
// lone variant of a single-variant function instead reports the missing
// argument during binding.
func (f *Function) selectVariant(args []typesystem.Value) (*variant, error) {
	single := len(f.variants) == 1
	for _, v := range f.variants {
		if v.matches(args, !single) {
			return v, nil
		}
	}
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = a.Tag().Name()
	}
	return nil, diagnostics.New(diagnostics.DispatchFailure,
		"no variant of %s accepts (%s)", f.name, strings.Join(names, ", "))
}

func (v *variant) matches(args []typesystem.Value, strictArity bool) bool {
	for i, a := range args {
		if !v.classAt(i).accepts(a.Tag()) {
			return false
		}
	}
	for i := len(args); i < len(v.Params); i++ {
		p := v.Params[i]
		if p.Presence == Mandatory && !strictArity {
			continue
		}
		if !v.classAt(i).accepts(nil) {
			return false
		}
	}
	return true
}

// bind walks the parameter list against args and produces the native
// argument list for the implementation.
func (f *Function) bind(v *variant, args []typesystem.Value) ([]any, error) {
	native := make([]any, 0, len(v.Params))
	pos := 0
	for i, p := range v.Params {
		switch p.Presence {
		case Mandatory:
			if pos >= len(args) {
				return nil, diagnostics.New(diagnostics.MissingArgument,
					"%s: missing argument %d (%s)", v.label, i+1, p)
			}
			x, err := f.convertArg(v, i, p, args[pos])
			if err != nil {
				return nil, err
			}
			native = append(native, x)
			pos++
		case Optional:
			if pos >= len(args) {
				native = append(native, Absent)
				continue
			}
			x, err := f.convertArg(v, i, p, args[pos])
			if err != nil {
				return nil, err
			}
			native = append(native, x)
			pos++
		case Variadic:
			rest := make([]any, 0, len(args)-pos)
			for ; pos < len(args); pos++ {
				x, err := f.convertArg(v, i, p, args[pos])
				if err != nil {
					return nil, err
				}
				rest = append(rest, x)
			}
			native = append(native, rest)
		}
	}
	if pos < len(args) {
		return nil, diagnostics.New(diagnostics.DispatchFailure,
			"%s: %d arguments supplied, at most %d accepted", v.label, len(args), pos)
	}
	return native, nil
}

func (f *Function) convertArg(v *variant, i int, p Param, arg typesystem.Value) (any, error) {
	if p.Type == nil {
		return arg, nil
	}
	conv, err := f.domain.Convert(arg, p.Type)
	if err != nil {
		if diagnostics.IsKind(err, diagnostics.TypeMismatch) {
			return nil, err
		}
		return nil, diagnostics.Wrap(diagnostics.TypeMismatch, err,
			"%s: argument %d (%s)", v.label, i+1, p)
	}
	return conv.Payload(), nil
}

func (f *Function) wrap(v *variant, out any) ([]typesystem.Value, error) {
	mismatch := func(format string, args ...any) error {
		return diagnostics.New(diagnostics.TypeMismatch, "result of %s: "+format, append([]any{v.label}, args...)...)
	}
	switch v.Result.Shape {
	case Single:
		val, err := f.domain.Create(v.Result.Type, out)
		if err != nil {
			return nil, diagnostics.Wrap(diagnostics.TypeMismatch, err, "result of %s", v.label)
		}
		return []typesystem.Value{val}, nil
	case Tuple:
		vals, ok := out.([]typesystem.Value)
		if !ok {
			return nil, mismatch("expected []Value, got %T", out)
		}
		if len(vals) != v.Result.Arity {
			return nil, mismatch("expected %d values, got %d", v.Result.Arity, len(vals))
		}
		if err := f.domain.CheckSameDomain(vals...); err != nil {
			return nil, err
		}
		return append([]typesystem.Value(nil), vals...), nil
	case Sequence:
		rv := reflect.ValueOf(out)
		if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			return nil, mismatch("expected a sequence, got %T", out)
		}
		vals := make([]typesystem.Value, rv.Len())
		for i := range vals {
			val, err := f.domain.Create(v.Result.Type, rv.Index(i).Interface())
			if err != nil {
				return nil, diagnostics.Wrap(diagnostics.TypeMismatch, err, "result of %s, element %d", v.label, i)
			}
			vals[i] = val
		}
		return vals, nil
	case Raw:
		val, ok := out.(typesystem.Value)
		if !ok {
			return nil, mismatch("expected Value, got %T", out)
		}
		if err := f.domain.CheckSameDomain(val); err != nil {
			return nil, err
		}
		return []typesystem.Value{val}, nil
	}
	return nil, mismatch("unknown shape %d", v.Result.Shape)
}
