// Package typesystem implements the closed type domain of the calculator:
// registered type tags, the conversion graph between them, the coercion
// table used by binary operators, typed values and capability protocols.
//
// A Domain is populated during a single initialization phase and then
// sealed. After Seal every registration fails with a diagnostics.Sealed
// error and all reads are lock-free.
package typesystem

import (
	"io"
	"log/slog"

	"github.com/funvibe/calcore/internal/diagnostics"
	"github.com/google/uuid"
)

// ConvertFunc transforms a payload of the source type into a payload of
// the target type.
type ConvertFunc func(payload any) (any, error)

// Rule is a coercion decision for an ordered pair of types.
type Rule int

const (
	Invalid Rule = iota
	AWins
	BWins
)

func (r Rule) String() string {
	switch r {
	case AWins:
		return "A_WINS"
	case BWins:
		return "B_WINS"
	default:
		return "INVALID"
	}
}

// Inverse returns the rule seen from the other operand.
func (r Rule) Inverse() Rule {
	switch r {
	case AWins:
		return BWins
	case BWins:
		return AWins
	default:
		return Invalid
	}
}

type pairKey struct {
	a, b *Tag
}

// Conversion is an edge of the conversion graph.
type Conversion struct {
	Source *Tag
	Target *Tag
	// Cast edges reinterpret the payload unchanged.
	Cast bool
	fn   ConvertFunc
}

// CoercionRule is a registered entry of the coercion table.
type CoercionRule struct {
	A, B *Tag
	Rule Rule
}

// Domain owns all tags, conversions and coercion rules.
type Domain struct {
	id     uuid.UUID
	name   string
	logger *slog.Logger

	tags   []*Tag
	byName map[string]*Tag

	conversions map[pairKey]*Conversion
	convOrder   []*Conversion

	coercions     map[pairKey]Rule
	coercionOrder []pairKey

	sealed bool
}

// Option configures a Domain.
type Option func(*Domain)

// WithLogger sets the logger used for registration events.
func WithLogger(l *slog.Logger) Option {
	return func(d *Domain) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithName sets the display name of the domain.
func WithName(name string) Option {
	return func(d *Domain) { d.name = name }
}

func NewDomain(opts ...Option) *Domain {
	d := &Domain{
		id:          uuid.New(),
		name:        "domain",
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		byName:      make(map[string]*Tag),
		conversions: make(map[pairKey]*Conversion),
		coercions:   make(map[pairKey]Rule),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Domain) ID() uuid.UUID { return d.id }
func (d *Domain) Name() string  { return d.name }

func (d *Domain) String() string {
	return d.name + "#" + d.id.String()[:8]
}

// Seal ends the initialization phase.
func (d *Domain) Seal() {
	if d.sealed {
		return
	}
	d.sealed = true
	d.logger.Debug("domain.sealed", "domain", d.String(), "types", len(d.tags),
		"conversions", len(d.convOrder), "coercions", len(d.coercionOrder))
}

func (d *Domain) Sealed() bool { return d.sealed }

func (d *Domain) checkOpen(op string) error {
	if d.sealed {
		return diagnostics.New(diagnostics.Sealed, "%s on sealed domain %s", op, d)
	}
	return nil
}

func (d *Domain) checkOwned(tags ...*Tag) error {
	for _, t := range tags {
		if t == nil {
			return diagnostics.New(diagnostics.DomainMismatch, "nil type tag in domain %s", d)
		}
		if t.domain != d {
			return diagnostics.New(diagnostics.DomainMismatch,
				"type %s belongs to domain %s, not %s", t.name, t.domain, d)
		}
	}
	return nil
}

// DefineType registers a new type. The default protocol is frozen here.
func (d *Domain) DefineType(spec TypeSpec) (*Tag, error) {
	if err := d.checkOpen("define type " + spec.Name); err != nil {
		return nil, err
	}
	if _, exists := d.byName[spec.Name]; exists {
		return nil, diagnostics.New(diagnostics.DuplicateType, "type %s already registered", spec.Name)
	}
	shape := spec.Shape
	if shape == nil {
		shape = anyShape{}
	}
	proto := spec.Protocol
	if proto == nil {
		proto = EmptyProtocol()
	}
	tag := &Tag{
		id:     len(d.tags),
		name:   spec.Name,
		shape:  shape,
		proto:  proto,
		domain: d,
	}
	d.tags = append(d.tags, tag)
	d.byName[spec.Name] = tag
	d.logger.Debug("domain.type", "name", spec.Name, "shape", shape.String(), "slots", len(proto.Slots()))
	return tag, nil
}

// Lookup finds a registered type by name.
func (d *Domain) Lookup(name string) (*Tag, bool) {
	t, ok := d.byName[name]
	return t, ok
}

// Types returns the registered tags in registration order.
func (d *Domain) Types() []*Tag {
	out := make([]*Tag, len(d.tags))
	copy(out, d.tags)
	return out
}

// RegisterConversion adds an edge source -> target to the conversion graph.
func (d *Domain) RegisterConversion(source, target *Tag, fn ConvertFunc) error {
	if fn == nil {
		panic("typesystem: nil ConvertFunc")
	}
	return d.addConversion(source, target, fn, false)
}

// RegisterCast adds an edge that reinterprets the payload unchanged.
// The payload must already satisfy the target's shape at conversion time.
func (d *Domain) RegisterCast(source, target *Tag) error {
	return d.addConversion(source, target, nil, true)
}

func (d *Domain) addConversion(source, target *Tag, fn ConvertFunc, cast bool) error {
	if err := d.checkOpen("register conversion"); err != nil {
		return err
	}
	if err := d.checkOwned(source, target); err != nil {
		return err
	}
	key := pairKey{source, target}
	if _, exists := d.conversions[key]; exists {
		return diagnostics.New(diagnostics.DuplicateConversion,
			"conversion %s -> %s already registered", source.name, target.name)
	}
	c := &Conversion{Source: source, Target: target, Cast: cast, fn: fn}
	d.conversions[key] = c
	d.convOrder = append(d.convOrder, c)
	d.logger.Debug("domain.conversion", "source", source.name, "target", target.name, "cast", cast)
	return nil
}

// HasConversion reports whether an edge source -> target exists.
func (d *Domain) HasConversion(source, target *Tag) bool {
	_, ok := d.conversions[pairKey{source, target}]
	return ok
}

// Conversions returns the conversion edges in registration order.
func (d *Domain) Conversions() []Conversion {
	out := make([]Conversion, len(d.convOrder))
	for i, c := range d.convOrder {
		out[i] = *c
	}
	return out
}

// RegisterCoercion records the decision for the ordered pair (a, b).
func (d *Domain) RegisterCoercion(a, b *Tag, rule Rule) error {
	if err := d.checkOpen("register coercion"); err != nil {
		return err
	}
	if err := d.validateCoercion(a, b, rule); err != nil {
		return err
	}
	return d.putCoercion(a, b, rule)
}

// RegisterSymmetricCoercion records rule for (a, b) and its inverse for (b, a).
func (d *Domain) RegisterSymmetricCoercion(a, b *Tag, rule Rule) error {
	if err := d.checkOpen("register coercion"); err != nil {
		return err
	}
	if err := d.validateCoercion(a, b, rule); err != nil {
		return err
	}
	// Both orientations are checked before either is written.
	if err := d.conflict(a, b, rule); err != nil {
		return err
	}
	if err := d.conflict(b, a, rule.Inverse()); err != nil {
		return err
	}
	if err := d.putCoercion(a, b, rule); err != nil {
		return err
	}
	return d.putCoercion(b, a, rule.Inverse())
}

func (d *Domain) validateCoercion(a, b *Tag, rule Rule) error {
	if err := d.checkOwned(a, b); err != nil {
		return err
	}
	if a == b {
		return diagnostics.New(diagnostics.InvalidCoercion, "coercion of %s with itself is implicit", a.name)
	}
	switch rule {
	case AWins:
		if !d.HasConversion(b, a) {
			return diagnostics.New(diagnostics.InvalidCoercion,
				"%s cannot win over %s: no conversion %s -> %s", a.name, b.name, b.name, a.name)
		}
	case BWins:
		if !d.HasConversion(a, b) {
			return diagnostics.New(diagnostics.InvalidCoercion,
				"%s cannot win over %s: no conversion %s -> %s", b.name, a.name, a.name, b.name)
		}
	}
	return nil
}

func (d *Domain) conflict(a, b *Tag, rule Rule) error {
	if existing, ok := d.coercions[pairKey{a, b}]; ok && existing != rule {
		return diagnostics.New(diagnostics.DuplicateCoercion,
			"coercion (%s, %s) already registered as %s, cannot change to %s", a.name, b.name, existing, rule)
	}
	return nil
}

func (d *Domain) putCoercion(a, b *Tag, rule Rule) error {
	if err := d.conflict(a, b, rule); err != nil {
		return err
	}
	key := pairKey{a, b}
	if _, ok := d.coercions[key]; ok {
		return nil
	}
	d.coercions[key] = rule
	d.coercionOrder = append(d.coercionOrder, key)
	d.logger.Debug("domain.coercion", "a", a.name, "b", b.name, "rule", rule.String())
	return nil
}

// Coercion returns the decision for the ordered pair (a, b).
func (d *Domain) Coercion(a, b *Tag) Rule {
	if a == b {
		return AWins
	}
	return d.coercions[pairKey{a, b}]
}

// Coercions returns the registered rules in registration order.
func (d *Domain) Coercions() []CoercionRule {
	out := make([]CoercionRule, len(d.coercionOrder))
	for i, k := range d.coercionOrder {
		out[i] = CoercionRule{A: k.a, B: k.b, Rule: d.coercions[k]}
	}
	return out
}

// Create builds a value after checking the payload against the tag's shape.
func (d *Domain) Create(tag *Tag, payload any) (Value, error) {
	if err := d.checkOwned(tag); err != nil {
		return Value{}, err
	}
	if !tag.shape.Accepts(payload) {
		return Value{}, diagnostics.New(diagnostics.TypeMismatch,
			"%s expects %s payload, got %s", tag.name, tag.shape, describePayload(payload))
	}
	return Value{tag: tag, payload: payload}, nil
}

// MustCreate is Create for payloads known to be valid; it panics otherwise.
func (d *Domain) MustCreate(tag *Tag, payload any) Value {
	v, err := d.Create(tag, payload)
	if err != nil {
		panic(err)
	}
	return v
}

// Convert returns v as a value of target.
func (d *Domain) Convert(v Value, target *Tag) (Value, error) {
	if err := d.checkValue(v); err != nil {
		return Value{}, err
	}
	if err := d.checkOwned(target); err != nil {
		return Value{}, err
	}
	if v.tag == target {
		return v, nil
	}
	c, ok := d.conversions[pairKey{v.tag, target}]
	if !ok {
		return Value{}, diagnostics.New(diagnostics.NoConversion,
			"cannot convert %s to %s", v.tag.name, target.name)
	}
	payload := v.payload
	if !c.Cast {
		out, err := c.fn(payload)
		if err != nil {
			return Value{}, diagnostics.Wrap(diagnostics.TypeMismatch, err,
				"converting %s to %s", v.tag.name, target.name)
		}
		payload = out
	}
	return d.Create(target, payload)
}

// CheckSameDomain fails fast when values from different domains meet.
func (d *Domain) CheckSameDomain(values ...Value) error {
	for _, v := range values {
		if err := d.checkValue(v); err != nil {
			return err
		}
	}
	return nil
}

func (d *Domain) checkValue(v Value) error {
	if v.tag == nil {
		return diagnostics.New(diagnostics.TypeMismatch, "uninitialized value in domain %s", d)
	}
	if v.tag.domain != d {
		return diagnostics.New(diagnostics.DomainMismatch,
			"value of type %s belongs to domain %s, not %s", v.tag.name, v.tag.domain, d)
	}
	return nil
}
