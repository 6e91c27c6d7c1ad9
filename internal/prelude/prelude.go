// Package prelude assembles the standard calculator domain: the built-in
// types with their conversions, coercions and default protocols, the
// operator table and the function library.
//
// Types, conversions and protocols are always installed. Operators and
// library functions are grouped (numeric, strings, logic, collections) and
// installed per config.Config.Groups.
package prelude

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/funvibe/calcore/internal/config"
	"github.com/funvibe/calcore/internal/operators"
	"github.com/funvibe/calcore/internal/overload"
	"github.com/funvibe/calcore/internal/typesystem"
)

// Types holds the tags of the built-in types.
type Types struct {
	Nil   *typesystem.Tag
	Bool  *typesystem.Tag
	Int   *typesystem.Tag
	Float *typesystem.Tag
	Str   *typesystem.Tag
	List  *typesystem.Tag
	Tuple *typesystem.Tag
	Func  *typesystem.Tag
}

// Calculator bundles one domain with its operator table and library.
type Calculator struct {
	Domain    *typesystem.Domain
	Types     Types
	Operators *operators.Table
	Library   *overload.Library

	cfg       *config.Config
	logger    *slog.Logger
	normalize func(string) string
	locale    language.Tag
	upper     cases.Caser
	lower     cases.Caser
}

type Option func(*Calculator)

func WithLogger(l *slog.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// groupInstallers run in this order.
var groupInstallers = []struct {
	name    string
	install func(*Calculator) error
}{
	{config.GroupNumeric, (*Calculator).installNumeric},
	{config.GroupStrings, (*Calculator).installStrings},
	{config.GroupLogic, (*Calculator).installLogic},
	{config.GroupCollections, (*Calculator).installCollections},
}

// New assembles an unsealed calculator from cfg. A nil cfg means
// config.Default(). Callers may register further types, operators and
// functions before calling Seal.
func New(cfg *config.Config, opts ...Option) (*Calculator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	c := &Calculator{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}

	normalize, err := normalizer(cfg.Normalization)
	if err != nil {
		return nil, err
	}
	c.normalize = normalize
	c.locale, err = language.Parse(cfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("locale %q: %w", cfg.Locale, err)
	}
	c.upper = cases.Upper(c.locale)
	c.lower = cases.Lower(c.locale)

	c.Domain = typesystem.NewDomain(typesystem.WithName(cfg.Name), typesystem.WithLogger(c.logger))
	c.Operators = operators.NewTable(c.Domain, operators.WithLogger(c.logger))
	c.Library = overload.NewLibrary(c.Domain, overload.WithLogger(c.logger))

	if err := c.defineTypes(); err != nil {
		return nil, fmt.Errorf("defining types: %w", err)
	}
	if err := c.registerConversions(); err != nil {
		return nil, fmt.Errorf("registering conversions: %w", err)
	}
	if err := c.registerCoercions(); err != nil {
		return nil, fmt.Errorf("registering coercions: %w", err)
	}
	for _, g := range groupInstallers {
		if !cfg.HasGroup(g.name) {
			continue
		}
		if err := g.install(c); err != nil {
			return nil, fmt.Errorf("installing %s group: %w", g.name, err)
		}
		c.logger.Debug("prelude.group", "group", g.name)
	}
	return c, nil
}

// Standard is New followed by Seal.
func Standard(cfg *config.Config, opts ...Option) (*Calculator, error) {
	c, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	c.Seal()
	return c, nil
}

// Seal freezes the domain, the operator table and the library.
func (c *Calculator) Seal() {
	c.Domain.Seal()
	c.Operators.Seal()
	c.Library.Seal()
}

func (c *Calculator) Sealed() bool {
	return c.Domain.Sealed() && c.Operators.Sealed() && c.Library.Sealed()
}

func (c *Calculator) Config() *config.Config { return c.cfg }

// Eval applies operator op to operands.
func (c *Calculator) Eval(op string, operands ...typesystem.Value) (typesystem.Value, error) {
	return c.Operators.Execute(op, operands...)
}

// Call invokes the library function name.
func (c *Calculator) Call(name string, args ...typesystem.Value) ([]typesystem.Value, error) {
	return c.Library.Call(name, args...)
}

func normalizer(form string) (func(string) string, error) {
	switch strings.ToUpper(form) {
	case "", "NFC":
		return norm.NFC.String, nil
	case "NFD":
		return norm.NFD.String, nil
	case "NFKC":
		return norm.NFKC.String, nil
	case "NFKD":
		return norm.NFKD.String, nil
	case "NONE":
		return func(s string) string { return s }, nil
	}
	return nil, fmt.Errorf("unknown normalization form %q", form)
}

// Value constructors. The payloads are always valid for their tags.

func (c *Calculator) Nil() typesystem.Value { return c.Domain.MustCreate(c.Types.Nil, nil) }

func (c *Calculator) Bool(b bool) typesystem.Value { return c.Domain.MustCreate(c.Types.Bool, b) }

func (c *Calculator) Int(n int64) typesystem.Value { return c.Domain.MustCreate(c.Types.Int, n) }

func (c *Calculator) Float(f float64) typesystem.Value {
	return c.Domain.MustCreate(c.Types.Float, f)
}

func (c *Calculator) Str(s string) typesystem.Value { return c.Domain.MustCreate(c.Types.Str, s) }

// List copies items into a new List value.
func (c *Calculator) List(items ...typesystem.Value) typesystem.Value {
	return c.Domain.MustCreate(c.Types.List, append([]typesystem.Value{}, items...))
}

// Tuple copies items into a new Tuple value.
func (c *Calculator) Tuple(items ...typesystem.Value) typesystem.Value {
	return c.Domain.MustCreate(c.Types.Tuple, append([]typesystem.Value{}, items...))
}

// Func wraps a library function as a callable value.
func (c *Calculator) Func(f *overload.Function) typesystem.Value {
	return c.Domain.MustCreate(c.Types.Func, f)
}

// FuncNamed looks up a library function and wraps it as a value.
func (c *Calculator) FuncNamed(name string) (typesystem.Value, bool) {
	f, ok := c.Library.Lookup(name)
	if !ok {
		return typesystem.Value{}, false
	}
	return c.Func(f), true
}
