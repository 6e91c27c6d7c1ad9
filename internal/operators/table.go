// Package operators resolves unary and binary operators over typed values.
//
// Binary operators are resolved through three tiers that are always tried
// in the same order: the coercion tier (an implementation keyed by the
// winning type of the domain's coercion decision), the exact-pair tier
// (an implementation keyed by the literal operand types), and the default
// tier (a catch-all hook that may decline).
package operators

import (
	"io"
	"log/slog"
	"sort"

	"github.com/funvibe/calcore/internal/diagnostics"
	"github.com/funvibe/calcore/internal/typesystem"
)

// Table holds every operator registry of one domain.
type Table struct {
	domain *typesystem.Domain
	logger *slog.Logger
	unary  map[string]*Unary
	binary map[string]*Binary
	sealed bool
}

type Option func(*Table)

func WithLogger(l *slog.Logger) Option {
	return func(t *Table) {
		if l != nil {
			t.logger = l
		}
	}
}

func NewTable(d *typesystem.Domain, opts ...Option) *Table {
	t := &Table{
		domain: d,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		unary:  make(map[string]*Unary),
		binary: make(map[string]*Binary),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Table) Domain() *typesystem.Domain { return t.domain }

// Unary returns the registry of the unary operator id, creating it while the
// table is open.
func (t *Table) Unary(id string) *Unary {
	if u, ok := t.unary[id]; ok {
		return u
	}
	u := &Unary{id: id, table: t, impls: make(map[*typesystem.Tag]UnaryFunc)}
	if !t.sealed {
		t.unary[id] = u
	}
	return u
}

// Binary returns the registry of the binary operator id, creating it while
// the table is open.
func (t *Table) Binary(id string) *Binary {
	if b, ok := t.binary[id]; ok {
		return b
	}
	b := &Binary{
		id:      id,
		table:   t,
		coerced: make(map[*typesystem.Tag]BinaryFunc),
		exact:   make(map[tagPair]BinaryFunc),
	}
	if !t.sealed {
		t.binary[id] = b
	}
	return b
}

// Seal ends registration for every operator of the table.
func (t *Table) Seal() {
	if t.sealed {
		return
	}
	t.sealed = true
	t.logger.Debug("operators.sealed", "unary", len(t.unary), "binary", len(t.binary))
}

func (t *Table) Sealed() bool { return t.sealed }

func (t *Table) checkOpen(id string) error {
	if t.sealed {
		return diagnostics.New(diagnostics.Sealed, "registering operator %s on sealed table", id)
	}
	return nil
}

// Execute applies operator id to one (unary) or two (binary) operands.
func (t *Table) Execute(id string, operands ...typesystem.Value) (typesystem.Value, error) {
	if err := t.domain.CheckSameDomain(operands...); err != nil {
		return typesystem.Value{}, err
	}
	switch len(operands) {
	case 1:
		u, ok := t.unary[id]
		if !ok {
			return typesystem.Value{}, diagnostics.New(diagnostics.UnsupportedOperation,
				"operator %s not supported for %s", id, operands[0].Tag())
		}
		return u.execute(operands[0])
	case 2:
		b, ok := t.binary[id]
		if !ok {
			return typesystem.Value{}, diagnostics.New(diagnostics.UnsupportedOperation,
				"no operator %s for types %s and %s", id, operands[0].Tag(), operands[1].Tag())
		}
		return b.execute(operands[0], operands[1])
	default:
		return typesystem.Value{}, diagnostics.New(diagnostics.UnsupportedOperation,
			"operator %s cannot take %d operands", id, len(operands))
	}
}

// Info describes one registered operator.
type Info struct {
	ID       string
	Arity    int
	Coerced  []string    // binary: winning types with a homogeneous impl
	Exact    [][2]string // binary: literal operand pairs
	Operands []string    // unary: operand types
	Fallback bool
}

// Operators lists the registered operators sorted by arity and id.
func (t *Table) Operators() []Info {
	var out []Info
	for id, u := range t.unary {
		info := Info{ID: id, Arity: 1, Fallback: u.fallback != nil}
		for _, tag := range u.order {
			info.Operands = append(info.Operands, tag.Name())
		}
		out = append(out, info)
	}
	for id, b := range t.binary {
		info := Info{ID: id, Arity: 2, Fallback: b.fallback != nil}
		for _, tag := range b.coercedOrder {
			info.Coerced = append(info.Coerced, tag.Name())
		}
		for _, p := range b.exactOrder {
			info.Exact = append(info.Exact, [2]string{p.left.Name(), p.right.Name()})
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Arity != out[j].Arity {
			return out[i].Arity < out[j].Arity
		}
		return out[i].ID < out[j].ID
	})
	return out
}
