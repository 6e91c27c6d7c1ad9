package overload

import (
	"github.com/funvibe/calcore/internal/diagnostics"
	"github.com/funvibe/calcore/internal/typesystem"
)

// matchClass is the set of argument states a position accepts: a type
// from tags (or any type), and/or the absent state of an exhausted
// position.
type matchClass struct {
	any    bool
	tags   map[*typesystem.Tag]struct{}
	absent bool
}

func (c matchClass) accepts(t *typesystem.Tag) bool {
	if t == nil {
		return c.absent
	}
	if c.any {
		return true
	}
	_, ok := c.tags[t]
	return ok
}

func (c matchClass) intersects(o matchClass) bool {
	if c.absent && o.absent {
		return true
	}
	if c.any && (o.any || len(o.tags) > 0) {
		return true
	}
	if o.any && len(c.tags) > 0 {
		return true
	}
	for t := range c.tags {
		if _, ok := o.tags[t]; ok {
			return true
		}
	}
	return false
}

var absentOnly = matchClass{absent: true}

type variant struct {
	Variant
	label     string
	mandatory int
	variadic  bool
	classes   []matchClass
}

// classAt returns the class of position i; positions past the end repeat
// the variadic class or accept only the absent state.
func (v *variant) classAt(i int) matchClass {
	if i < len(v.classes) {
		return v.classes[i]
	}
	if v.variadic {
		return v.classes[len(v.classes)-1]
	}
	return absentOnly
}

func classOf(p Param) matchClass {
	c := matchClass{}
	if p.Match == nil {
		c.any = true
	} else {
		c.tags = make(map[*typesystem.Tag]struct{}, len(p.Match.tags))
		for _, t := range p.Match.tags {
			c.tags[t] = struct{}{}
		}
	}
	switch p.Presence {
	case Optional:
		c.absent = p.Match == nil || p.Match.absent
	case Variadic:
		c.any, c.absent = true, true
	}
	return c
}

// Build validates the variants and assembles them into a Function. All
// failures are build-time errors.
func Build(d *typesystem.Domain, name string, variants ...Variant) (*Function, error) {
	if len(variants) == 0 {
		return nil, diagnostics.New(diagnostics.MalformedVariant, "function %s has no variants", name)
	}
	f := &Function{name: name, domain: d}
	for _, v := range variants {
		cv, err := compile(d, name, v)
		if err != nil {
			return nil, err
		}
		f.variants = append(f.variants, cv)
	}

	f.arity, f.fixed = f.variants[0].mandatory, true
	for _, v := range f.variants[1:] {
		if v.mandatory != f.arity {
			f.arity, f.fixed = 0, false
			break
		}
	}

	if len(f.variants) > 1 {
		if err := checkAmbiguity(name, f.variants); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func compile(d *typesystem.Domain, name string, v Variant) (*variant, error) {
	label := v.Label
	if label == "" {
		label = v.Signature(name)
	}
	malformed := func(format string, args ...any) error {
		return diagnostics.New(diagnostics.MalformedVariant, "%s: "+format, append([]any{label}, args...)...)
	}
	if v.Fn == nil {
		return nil, malformed("no implementation")
	}

	cv := &variant{Variant: v, label: label}
	region := Mandatory
	for i, p := range v.Params {
		switch p.Presence {
		case Mandatory:
			if region != Mandatory {
				return nil, malformed("mandatory parameter %d follows an optional one", i)
			}
			cv.mandatory++
		case Optional:
			region = Optional
		case Variadic:
			if i != len(v.Params)-1 {
				return nil, malformed("variadic parameter %d is not last", i)
			}
			if p.Match != nil {
				return nil, malformed("variadic parameter %d carries a dispatch matcher", i)
			}
			cv.variadic = true
		default:
			return nil, malformed("parameter %d has unknown presence %d", i, p.Presence)
		}
		if p.Type != nil && p.Type.Domain() != d {
			return nil, malformed("parameter %d type %s is not registered in %s", i, p.Type, d)
		}
		if p.Match != nil {
			for _, t := range p.Match.tags {
				if t == nil || t.Domain() != d {
					return nil, malformed("parameter %d matcher type %s is not registered in %s", i, t, d)
				}
			}
		}
		cv.classes = append(cv.classes, classOf(p))
	}

	switch v.Result.Shape {
	case Single, Sequence:
		if v.Result.Type == nil || v.Result.Type.Domain() != d {
			return nil, malformed("result type %s is not registered in %s", v.Result.Type, d)
		}
	case Tuple:
		if v.Result.Arity < 0 {
			return nil, malformed("negative tuple arity %d", v.Result.Arity)
		}
	case Raw:
	default:
		return nil, malformed("unknown result shape %d", v.Result.Shape)
	}
	return cv, nil
}

// checkAmbiguity rejects any pair of variants that no position can tell
// apart. Positions are compared up to the longer variant; a missing
// position is its own absent class.
func checkAmbiguity(name string, variants []*variant) error {
	for i := 0; i < len(variants); i++ {
		for j := i + 1; j < len(variants); j++ {
			a, b := variants[i], variants[j]
			if !distinguishable(a, b) {
				return diagnostics.New(diagnostics.AmbiguousOverload,
					"%s: variants %s and %s accept the same arguments", name, a.label, b.label)
			}
		}
	}
	return nil
}

func distinguishable(a, b *variant) bool {
	n := len(a.classes)
	if len(b.classes) > n {
		n = len(b.classes)
	}
	for i := 0; i < n; i++ {
		if !a.classAt(i).intersects(b.classAt(i)) {
			return true
		}
	}
	return false
}
