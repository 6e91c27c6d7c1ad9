package overload

import (
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/funvibe/calcore/internal/diagnostics"
	"github.com/funvibe/calcore/internal/typesystem"
)

// Library is the named registry of the functions of one domain.
type Library struct {
	domain *typesystem.Domain
	logger *slog.Logger
	funcs  map[string]*Function
	order  []string
	sealed bool
}

type Option func(*Library)

func WithLogger(l *slog.Logger) Option {
	return func(lib *Library) {
		if l != nil {
			lib.logger = l
		}
	}
}

func NewLibrary(d *typesystem.Domain, opts ...Option) *Library {
	lib := &Library{
		domain: d,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		funcs:  make(map[string]*Function),
	}
	for _, opt := range opts {
		opt(lib)
	}
	return lib
}

// Define builds name from variants and registers it.
func (l *Library) Define(name string, variants ...Variant) (*Function, error) {
	if err := l.checkOpen(name); err != nil {
		return nil, err
	}
	f, err := Build(l.domain, name, variants...)
	if err != nil {
		return nil, err
	}
	if err := l.Add(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Add registers an already built function.
func (l *Library) Add(f *Function) error {
	if err := l.checkOpen(f.name); err != nil {
		return err
	}
	if f.domain != l.domain {
		return diagnostics.New(diagnostics.DomainMismatch, "function %s belongs to %s, not %s",
			f.name, f.domain, l.domain)
	}
	if _, exists := l.funcs[f.name]; exists {
		return diagnostics.New(diagnostics.DuplicateOperation, "function %s already defined", f.name)
	}
	l.funcs[f.name] = f
	l.order = append(l.order, f.name)
	arity, fixed := f.Arity()
	l.logger.Debug("library.define", "name", f.name, "variants", len(f.variants), "arity", arity, "fixed", fixed)
	return nil
}

func (l *Library) checkOpen(name string) error {
	if l.sealed {
		return diagnostics.New(diagnostics.Sealed, "defining %s on sealed library", name)
	}
	return nil
}

func (l *Library) Lookup(name string) (*Function, bool) {
	f, ok := l.funcs[name]
	return f, ok
}

// Functions returns the functions in definition order.
func (l *Library) Functions() []*Function {
	out := make([]*Function, len(l.order))
	for i, name := range l.order {
		out[i] = l.funcs[name]
	}
	return out
}

// Names returns the function names in sorted order.
func (l *Library) Names() []string {
	return slices.Sorted(maps.Keys(l.funcs))
}

// Call looks up name and calls it with args.
func (l *Library) Call(name string, args ...typesystem.Value) ([]typesystem.Value, error) {
	f, ok := l.funcs[name]
	if !ok {
		return nil, diagnostics.New(diagnostics.DispatchFailure, "unknown function %s", name)
	}
	return f.Call(args)
}

func (l *Library) Seal() {
	if l.sealed {
		return
	}
	l.sealed = true
	l.logger.Debug("library.sealed", "functions", len(l.order))
}

func (l *Library) Sealed() bool { return l.sealed }
