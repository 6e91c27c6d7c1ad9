// Package calcore is the embedding API of the calculator core: it wraps
// the standard prelude, marshals Go values in and out, and binds Go
// functions as library functions.
package calcore

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/funvibe/calcore/internal/config"
	"github.com/funvibe/calcore/internal/prelude"
	"github.com/funvibe/calcore/internal/typesystem"
)

// Calculator wraps a prelude calculator and provides a high-level
// embedding API. Functions may be bound until the first Eval or Call, or
// an explicit Seal; after that the calculator is immutable and safe for
// concurrent use.
type Calculator struct {
	core       *prelude.Calculator
	marshaller *Marshaller
	logger     *slog.Logger
	sealOnce   sync.Once
}

type options struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger
}

type Option func(*options)

// WithConfig uses cfg instead of the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithConfigFile loads the configuration from a YAML file.
func WithConfigFile(path string) Option {
	return func(o *options) { o.cfgPath = path }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates an open calculator.
func New(opts ...Option) (*Calculator, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	cfg := o.cfg
	if cfg == nil && o.cfgPath != "" {
		loaded, err := config.LoadConfig(o.cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	var popts []prelude.Option
	if o.logger != nil {
		popts = append(popts, prelude.WithLogger(o.logger))
	}
	core, err := prelude.New(cfg, popts...)
	if err != nil {
		return nil, err
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Calculator{
		core:       core,
		marshaller: NewMarshaller(core),
		logger:     logger,
	}, nil
}

// Core exposes the underlying prelude calculator.
func (c *Calculator) Core() *prelude.Calculator { return c.core }

func (c *Calculator) Marshaller() *Marshaller { return c.marshaller }

// Seal freezes the calculator. It is idempotent.
func (c *Calculator) Seal() {
	c.sealOnce.Do(func() {
		c.core.Seal()
		c.logger.Debug("calculator.sealed", "domain", c.core.Domain.String())
	})
}

func (c *Calculator) Sealed() bool { return c.core.Sealed() }

// Value converts a Go value into a calculator value.
func (c *Calculator) Value(val any) (typesystem.Value, error) {
	return c.marshaller.ToValue(val)
}

// Eval applies an operator to Go operands and converts the result back.
func (c *Calculator) Eval(op string, operands ...any) (any, error) {
	res, err := c.EvalValue(op, operands...)
	if err != nil {
		return nil, err
	}
	return c.marshaller.FromValue(res, nil)
}

// EvalValue is Eval without the conversion of the result.
func (c *Calculator) EvalValue(op string, operands ...any) (typesystem.Value, error) {
	c.Seal()
	vals, err := c.toValues(operands)
	if err != nil {
		return typesystem.Value{}, err
	}
	return c.core.Eval(op, vals...)
}

// Call calls a library function, built in or bound from Go, by name. A
// single result is returned as is, several results as []any.
func (c *Calculator) Call(name string, args ...any) (any, error) {
	res, err := c.CallValues(name, args...)
	if err != nil {
		return nil, err
	}
	if len(res) == 1 {
		return c.marshaller.FromValue(res[0], nil)
	}
	out := make([]any, len(res))
	for i, r := range res {
		if out[i], err = c.marshaller.FromValue(r, nil); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// CallValues is Call without the conversion of the results.
func (c *Calculator) CallValues(name string, args ...any) ([]typesystem.Value, error) {
	c.Seal()
	vals, err := c.toValues(args)
	if err != nil {
		return nil, err
	}
	return c.core.Call(name, vals...)
}

func (c *Calculator) toValues(args []any) ([]typesystem.Value, error) {
	vals := make([]typesystem.Value, len(args))
	for i, arg := range args {
		v, err := c.marshaller.ToValue(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return vals, nil
}

// BindFunc registers a Go function as the single-variant library function
// name. See bindVariant for the mapping of Go signatures.
func (c *Calculator) BindFunc(name string, fn any) error {
	v, err := c.bindVariant(reflect.ValueOf(fn))
	if err != nil {
		return fmt.Errorf("binding %s: %w", name, err)
	}
	if _, err := c.core.Library.Define(name, v); err != nil {
		return err
	}
	c.logger.Debug("calculator.bind", "name", name, "signature", v.Signature(name))
	return nil
}
