// Package catalog takes read-only snapshots of a sealed calculator (its
// types, conversions, coercions, operators and functions) and stores them
// in SQLite for tooling.
package catalog

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/funvibe/calcore/internal/prelude"
)

// Catalog describes one sealed domain.
type Catalog struct {
	DomainID    uuid.UUID    `json:"domain_id"`
	DomainName  string       `json:"domain"`
	Types       []Type       `json:"types"`
	Conversions []Conversion `json:"conversions"`
	Coercions   []Coercion   `json:"coercions"`
	Operators   []Operator   `json:"operators"`
	Functions   []Function   `json:"functions"`
}

type Type struct {
	Name  string   `json:"name"`
	Shape string   `json:"shape"`
	Slots []string `json:"slots"`
}

type Conversion struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Cast   bool   `json:"cast,omitempty"`
}

type Coercion struct {
	A    string `json:"a"`
	B    string `json:"b"`
	Rule string `json:"rule"`
}

// Operator is one operator table entry. Unary impls carry only Left.
type Operator struct {
	ID       string `json:"id"`
	Arity    int    `json:"arity"`
	Fallback bool   `json:"fallback,omitempty"`
	Impls    []Impl `json:"impls,omitempty"`
}

// Impl kinds.
const (
	ImplCoerced = "coerced"
	ImplExact   = "exact"
	ImplUnary   = "unary"
)

type Impl struct {
	Kind  string `json:"kind"`
	Left  string `json:"left"`
	Right string `json:"right,omitempty"`
}

type Function struct {
	Name       string   `json:"name"`
	Arity      int      `json:"arity"`
	FixedArity bool     `json:"fixed_arity"`
	Signatures []string `json:"signatures"`
}

// Snapshot reads the registries of c. The calculator must be sealed so
// that the snapshot cannot go stale.
func Snapshot(c *prelude.Calculator) (*Catalog, error) {
	if !c.Sealed() {
		return nil, fmt.Errorf("snapshot of unsealed calculator %s", c.Domain)
	}
	cat := &Catalog{
		DomainID:   c.Domain.ID(),
		DomainName: c.Domain.Name(),
	}

	for _, tag := range c.Domain.Types() {
		t := Type{Name: tag.Name(), Shape: "any"}
		if tag.Shape() != nil {
			t.Shape = tag.Shape().String()
		}
		for _, s := range tag.Protocol().Slots() {
			t.Slots = append(t.Slots, s.String())
		}
		cat.Types = append(cat.Types, t)
	}

	for _, conv := range c.Domain.Conversions() {
		cat.Conversions = append(cat.Conversions, Conversion{
			Source: conv.Source.Name(),
			Target: conv.Target.Name(),
			Cast:   conv.Cast,
		})
	}

	for _, rule := range c.Domain.Coercions() {
		cat.Coercions = append(cat.Coercions, Coercion{
			A:    rule.A.Name(),
			B:    rule.B.Name(),
			Rule: rule.Rule.String(),
		})
	}

	for _, info := range c.Operators.Operators() {
		op := Operator{ID: info.ID, Arity: info.Arity, Fallback: info.Fallback}
		for _, name := range info.Operands {
			op.Impls = append(op.Impls, Impl{Kind: ImplUnary, Left: name})
		}
		for _, name := range info.Coerced {
			op.Impls = append(op.Impls, Impl{Kind: ImplCoerced, Left: name, Right: name})
		}
		for _, pair := range info.Exact {
			op.Impls = append(op.Impls, Impl{Kind: ImplExact, Left: pair[0], Right: pair[1]})
		}
		cat.Operators = append(cat.Operators, op)
	}

	for _, f := range c.Library.Functions() {
		n, fixed := f.Arity()
		cat.Functions = append(cat.Functions, Function{
			Name:       f.Name(),
			Arity:      n,
			FixedArity: fixed,
			Signatures: f.Signatures(),
		})
	}
	return cat, nil
}

// Function returns the named function entry.
func (c *Catalog) Function(name string) (Function, bool) {
	for _, f := range c.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return Function{}, false
}

// Operator returns the operator entry with the given id and arity.
func (c *Catalog) Operator(id string, arity int) (Operator, bool) {
	for _, op := range c.Operators {
		if op.ID == id && op.Arity == arity {
			return op, true
		}
	}
	return Operator{}, false
}
