package operators

import (
	"github.com/funvibe/calcore/internal/diagnostics"
	"github.com/funvibe/calcore/internal/typesystem"
)

type BinaryFunc func(left, right typesystem.Value) (typesystem.Value, error)

// BinaryFallback is the default tier. Returning handled=false declines the
// operand pair.
type BinaryFallback func(left, right typesystem.Value) (result typesystem.Value, handled bool, err error)

type tagPair struct {
	left, right *typesystem.Tag
}

// Binary is the registry of one binary operator.
type Binary struct {
	id    string
	table *Table

	coerced      map[*typesystem.Tag]BinaryFunc
	coercedOrder []*typesystem.Tag

	exact      map[tagPair]BinaryFunc
	exactOrder []tagPair

	fallback BinaryFallback
}

func (b *Binary) ID() string { return b.id }

// RegisterCoerced adds a homogeneous implementation used when the coercion
// decision picks t. Both operands are converted to t before the call.
func (b *Binary) RegisterCoerced(t *typesystem.Tag, fn BinaryFunc) error {
	if err := b.checkRegister(t); err != nil {
		return err
	}
	if _, exists := b.coerced[t]; exists {
		return diagnostics.New(diagnostics.DuplicateOperation, "operator %s already defined for %s", b.id, t)
	}
	b.coerced[t] = fn
	b.coercedOrder = append(b.coercedOrder, t)
	b.table.logger.Debug("operators.coerced", "op", b.id, "type", t.Name())
	return nil
}

// RegisterExact adds an implementation for the literal pair (left, right).
func (b *Binary) RegisterExact(left, right *typesystem.Tag, fn BinaryFunc) error {
	if err := b.checkRegister(left, right); err != nil {
		return err
	}
	key := tagPair{left, right}
	if _, exists := b.exact[key]; exists {
		return diagnostics.New(diagnostics.DuplicateOperation, "operator %s already defined for (%s, %s)",
			b.id, left, right)
	}
	b.exact[key] = fn
	b.exactOrder = append(b.exactOrder, key)
	b.table.logger.Debug("operators.exact", "op", b.id, "left", left.Name(), "right", right.Name())
	return nil
}

// SetFallback installs the default tier.
func (b *Binary) SetFallback(fn BinaryFallback) error {
	if err := b.table.checkOpen(b.id); err != nil {
		return err
	}
	if b.fallback != nil {
		return diagnostics.New(diagnostics.DuplicateOperation, "operator %s already has a default", b.id)
	}
	b.fallback = fn
	return nil
}

func (b *Binary) checkRegister(tags ...*typesystem.Tag) error {
	if err := b.table.checkOpen(b.id); err != nil {
		return err
	}
	for _, t := range tags {
		if t.Domain() != b.table.domain {
			return diagnostics.New(diagnostics.DomainMismatch, "operator %s: type %s is foreign to %s",
				b.id, t, b.table.domain)
		}
	}
	return nil
}

// Execute applies the operator to (left, right).
func (b *Binary) Execute(left, right typesystem.Value) (typesystem.Value, error) {
	if err := b.table.domain.CheckSameDomain(left, right); err != nil {
		return typesystem.Value{}, err
	}
	return b.execute(left, right)
}

// tier is one resolution strategy; ok=false passes to the next tier.
type tier func(b *Binary, left, right typesystem.Value) (res typesystem.Value, ok bool, err error)

// tiers is the fixed resolution order. A coercion-tier match always wins
// over exact-pair and default matches.
var tiers = []tier{
	coercionTier,
	exactTier,
	defaultTier,
}

func (b *Binary) execute(left, right typesystem.Value) (typesystem.Value, error) {
	for _, try := range tiers {
		res, ok, err := try(b, left, right)
		if err != nil {
			return typesystem.Value{}, err
		}
		if ok {
			return res, nil
		}
	}
	return typesystem.Value{}, diagnostics.New(diagnostics.UnsupportedOperation,
		"no operator %s for types %s and %s", b.id, left.Tag(), right.Tag())
}

func coercionTier(b *Binary, left, right typesystem.Value) (typesystem.Value, bool, error) {
	d := b.table.domain
	var winner *typesystem.Tag
	switch d.Coercion(left.Tag(), right.Tag()) {
	case typesystem.AWins:
		winner = left.Tag()
	case typesystem.BWins:
		winner = right.Tag()
	default:
		return typesystem.Value{}, false, nil
	}
	fn, ok := b.coerced[winner]
	if !ok {
		return typesystem.Value{}, false, nil
	}
	l, err := d.Convert(left, winner)
	if err != nil {
		return typesystem.Value{}, false, err
	}
	r, err := d.Convert(right, winner)
	if err != nil {
		return typesystem.Value{}, false, err
	}
	res, err := fn(l, r)
	return res, err == nil, err
}

func exactTier(b *Binary, left, right typesystem.Value) (typesystem.Value, bool, error) {
	fn, ok := b.exact[tagPair{left.Tag(), right.Tag()}]
	if !ok {
		return typesystem.Value{}, false, nil
	}
	res, err := fn(left, right)
	return res, err == nil, err
}

func defaultTier(b *Binary, left, right typesystem.Value) (typesystem.Value, bool, error) {
	if b.fallback == nil {
		return typesystem.Value{}, false, nil
	}
	return b.fallback(left, right)
}
