package typesystem

// TypeSpec describes a type to register in a Domain.
type TypeSpec struct {
	Name string
	// Shape is the native payload representation. Nil means any payload.
	Shape Shape
	// Protocol is the default capability protocol of the type. Nil means
	// no capabilities.
	Protocol *Protocol
}

// Tag is an opaque, domain-unique type identifier. Tags are only created by
// Domain.DefineType and compare by identity.
type Tag struct {
	id     int
	name   string
	shape  Shape
	proto  *Protocol
	domain *Domain
}

func (t *Tag) Name() string { return t.name }

func (t *Tag) String() string {
	if t == nil {
		return "<absent>"
	}
	return t.name
}

// ID is the registration index of the tag within its domain.
func (t *Tag) ID() int { return t.id }

func (t *Tag) Shape() Shape { return t.shape }

// Protocol returns the frozen default protocol of the type.
func (t *Tag) Protocol() *Protocol { return t.proto }

// Domain returns the owning domain; the absent tag belongs to none.
func (t *Tag) Domain() *Domain {
	if t == nil {
		return nil
	}
	return t.domain
}

type anyShape struct{}

func (anyShape) Accepts(any) bool { return true }
func (anyShape) String() string   { return "any" }
