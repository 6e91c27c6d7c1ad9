package operators

import (
	"github.com/funvibe/calcore/internal/diagnostics"
	"github.com/funvibe/calcore/internal/typesystem"
)

type UnaryFunc func(v typesystem.Value) (typesystem.Value, error)

// UnaryFallback is the default-operation hook. Returning handled=false
// declines the operand.
type UnaryFallback func(v typesystem.Value) (result typesystem.Value, handled bool, err error)

// Unary is the registry of one unary operator, keyed by operand type.
type Unary struct {
	id       string
	table    *Table
	impls    map[*typesystem.Tag]UnaryFunc
	order    []*typesystem.Tag
	fallback UnaryFallback
}

func (u *Unary) ID() string { return u.id }

// Register adds the implementation for operands of type t.
func (u *Unary) Register(t *typesystem.Tag, fn UnaryFunc) error {
	if err := u.table.checkOpen(u.id); err != nil {
		return err
	}
	if t.Domain() != u.table.domain {
		return diagnostics.New(diagnostics.DomainMismatch, "operator %s: type %s is foreign to %s",
			u.id, t, u.table.domain)
	}
	if _, exists := u.impls[t]; exists {
		return diagnostics.New(diagnostics.DuplicateOperation, "operator %s already defined for %s", u.id, t)
	}
	u.impls[t] = fn
	u.order = append(u.order, t)
	u.table.logger.Debug("operators.unary", "op", u.id, "type", t.Name())
	return nil
}

// SetFallback installs the default-operation hook.
func (u *Unary) SetFallback(fn UnaryFallback) error {
	if err := u.table.checkOpen(u.id); err != nil {
		return err
	}
	if u.fallback != nil {
		return diagnostics.New(diagnostics.DuplicateOperation, "operator %s already has a default", u.id)
	}
	u.fallback = fn
	return nil
}

// Execute applies the operator to v.
func (u *Unary) Execute(v typesystem.Value) (typesystem.Value, error) {
	if err := u.table.domain.CheckSameDomain(v); err != nil {
		return typesystem.Value{}, err
	}
	return u.execute(v)
}

func (u *Unary) execute(v typesystem.Value) (typesystem.Value, error) {
	if fn, ok := u.impls[v.Tag()]; ok {
		return fn(v)
	}
	if u.fallback != nil {
		res, handled, err := u.fallback(v)
		if err != nil {
			return typesystem.Value{}, err
		}
		if handled {
			return res, nil
		}
	}
	return typesystem.Value{}, diagnostics.New(diagnostics.UnsupportedOperation,
		"operator %s not supported for %s", u.id, v.Tag())
}
