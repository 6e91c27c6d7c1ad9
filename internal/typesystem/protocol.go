package typesystem

import "github.com/funvibe/calcore/internal/diagnostics"

// Slot names one entry of the closed capability catalog.
type Slot int

const (
	SlotTruthy Slot = iota
	SlotStr
	SlotRepr
	SlotCall
	SlotGetAttr
	SlotDestructure
	SlotEqual
	SlotLen
	SlotSlice
	SlotTypeOf
	slotCount
)

var slotNames = [slotCount]string{
	SlotTruthy:      "truthy",
	SlotStr:         "str",
	SlotRepr:        "repr",
	SlotCall:        "call",
	SlotGetAttr:     "getattr",
	SlotDestructure: "destructure",
	SlotEqual:       "eq",
	SlotLen:         "len",
	SlotSlice:       "slice",
	SlotTypeOf:      "typeof",
}

func (s Slot) String() string {
	if s < 0 || s >= slotCount {
		return "unknown"
	}
	return slotNames[s]
}

// ParseSlot maps a slot name to its Slot.
func ParseSlot(name string) (Slot, bool) {
	for i, n := range slotNames {
		if n == name {
			return Slot(i), true
		}
	}
	return 0, false
}

// AllSlots lists the catalog in order.
func AllSlots() []Slot {
	out := make([]Slot, slotCount)
	for i := range out {
		out[i] = Slot(i)
	}
	return out
}

type (
	TruthyFunc func(v Value) (bool, error)
	StrFunc    func(v Value) (string, error)
	ReprFunc   func(v Value) (string, error)
	CallFunc   func(v Value, args []Value) ([]Value, error)
	// GetAttrFunc returns ok=false when the attribute does not exist.
	GetAttrFunc func(v Value, name string) (Value, bool, error)
	// DestructureFunc yields exactly n components or reports false.
	DestructureFunc func(v Value, n int) ([]Value, bool)
	EqualFunc       func(v, other Value) (bool, error)
	LenFunc         func(v Value) (int, error)
	SliceFunc       func(v Value, lo, hi int) (Value, error)
	TypeOfFunc      func(v Value) (*Tag, error)
)

// Protocol is a frozen bundle of optional slot implementations.
type Protocol struct {
	impls [slotCount]any
}

var emptyProtocol = &Protocol{}

// EmptyProtocol has no slots.
func EmptyProtocol() *Protocol { return emptyProtocol }

// Has reports slot presence without invoking it.
func (p *Protocol) Has(s Slot) bool {
	if p == nil || s < 0 || s >= slotCount {
		return false
	}
	return p.impls[s] != nil
}

// HasNamed is Has by slot name; unknown names are never present.
func (p *Protocol) HasNamed(name string) bool {
	s, ok := ParseSlot(name)
	return ok && p.Has(s)
}

// Slot returns the raw implementation of s.
func (p *Protocol) Slot(s Slot) (any, bool) {
	if !p.Has(s) {
		return nil, false
	}
	return p.impls[s], true
}

func (p *Protocol) SlotNamed(name string) (any, bool) {
	s, ok := ParseSlot(name)
	if !ok {
		return nil, false
	}
	return p.Slot(s)
}

// Slots lists the present slots.
func (p *Protocol) Slots() []Slot {
	var out []Slot
	for i := Slot(0); i < slotCount; i++ {
		if p.Has(i) {
			out = append(out, i)
		}
	}
	return out
}

func (p *Protocol) Truthy() TruthyFunc {
	fn, _ := p.get(SlotTruthy).(TruthyFunc)
	return fn
}

func (p *Protocol) Str() StrFunc {
	fn, _ := p.get(SlotStr).(StrFunc)
	return fn
}

func (p *Protocol) Repr() ReprFunc {
	fn, _ := p.get(SlotRepr).(ReprFunc)
	return fn
}

func (p *Protocol) Call() CallFunc {
	fn, _ := p.get(SlotCall).(CallFunc)
	return fn
}

func (p *Protocol) GetAttr() GetAttrFunc {
	fn, _ := p.get(SlotGetAttr).(GetAttrFunc)
	return fn
}

func (p *Protocol) Destructure() DestructureFunc {
	fn, _ := p.get(SlotDestructure).(DestructureFunc)
	return fn
}

func (p *Protocol) Equal() EqualFunc {
	fn, _ := p.get(SlotEqual).(EqualFunc)
	return fn
}

func (p *Protocol) Len() LenFunc {
	fn, _ := p.get(SlotLen).(LenFunc)
	return fn
}

func (p *Protocol) Slice() SliceFunc {
	fn, _ := p.get(SlotSlice).(SliceFunc)
	return fn
}

func (p *Protocol) TypeOf() TypeOfFunc {
	fn, _ := p.get(SlotTypeOf).(TypeOfFunc)
	return fn
}

func (p *Protocol) get(s Slot) any {
	if p == nil {
		return nil
	}
	return p.impls[s]
}

// Update returns a new protocol where the slots present in deltas replace
// those of base. Neither input is modified.
func Update(base, deltas *Protocol) *Protocol {
	out := &Protocol{}
	if base != nil {
		out.impls = base.impls
	}
	if deltas != nil {
		for i, impl := range deltas.impls {
			if impl != nil {
				out.impls[i] = impl
			}
		}
	}
	return out
}

// ProtocolBuilder accumulates slot implementations. Assigning the same slot
// twice records a DuplicateSlot error that Build returns.
type ProtocolBuilder struct {
	impls [slotCount]any
	err   error
}

func NewProtocol() *ProtocolBuilder {
	return &ProtocolBuilder{}
}

func (b *ProtocolBuilder) set(s Slot, impl any, isNil bool) *ProtocolBuilder {
	if b.err != nil || isNil {
		return b
	}
	if b.impls[s] != nil {
		b.err = diagnostics.New(diagnostics.DuplicateSlot, "slot %s assigned twice", s)
		return b
	}
	b.impls[s] = impl
	return b
}

func (b *ProtocolBuilder) Truthy(fn TruthyFunc) *ProtocolBuilder {
	return b.set(SlotTruthy, fn, fn == nil)
}

func (b *ProtocolBuilder) Str(fn StrFunc) *ProtocolBuilder {
	return b.set(SlotStr, fn, fn == nil)
}

func (b *ProtocolBuilder) Repr(fn ReprFunc) *ProtocolBuilder {
	return b.set(SlotRepr, fn, fn == nil)
}

func (b *ProtocolBuilder) Call(fn CallFunc) *ProtocolBuilder {
	return b.set(SlotCall, fn, fn == nil)
}

func (b *ProtocolBuilder) GetAttr(fn GetAttrFunc) *ProtocolBuilder {
	return b.set(SlotGetAttr, fn, fn == nil)
}

func (b *ProtocolBuilder) Destructure(fn DestructureFunc) *ProtocolBuilder {
	return b.set(SlotDestructure, fn, fn == nil)
}

func (b *ProtocolBuilder) Equal(fn EqualFunc) *ProtocolBuilder {
	return b.set(SlotEqual, fn, fn == nil)
}

func (b *ProtocolBuilder) Len(fn LenFunc) *ProtocolBuilder {
	return b.set(SlotLen, fn, fn == nil)
}

func (b *ProtocolBuilder) Slice(fn SliceFunc) *ProtocolBuilder {
	return b.set(SlotSlice, fn, fn == nil)
}

func (b *ProtocolBuilder) TypeOf(fn TypeOfFunc) *ProtocolBuilder {
	return b.set(SlotTypeOf, fn, fn == nil)
}

// Build freezes the accumulated slots. The builder may keep being used; later
// assignments do not affect protocols already built.
func (b *ProtocolBuilder) Build() (*Protocol, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &Protocol{impls: b.impls}, nil
}

// MustBuild is Build for statically known protocols.
func (b *ProtocolBuilder) MustBuild() *Protocol {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}
