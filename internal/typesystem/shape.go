package typesystem

import (
	"fmt"
	"reflect"
)

// Shape describes the native Go representation that payloads of a type
// must have. It is checked on every Create and after every conversion.
type Shape interface {
	Accepts(payload any) bool
	String() string
}

type nativeShape[T any] struct{}

func (nativeShape[T]) Accepts(payload any) bool {
	_, ok := payload.(T)
	return ok
}

func (nativeShape[T]) String() string {
	return reflect.TypeFor[T]().String()
}

// Native returns the shape of payloads whose dynamic type is T
// (or implements T, when T is an interface).
func Native[T any]() Shape {
	return nativeShape[T]{}
}

type nilShape struct{}

func (nilShape) Accepts(payload any) bool { return payload == nil }
func (nilShape) String() string           { return "nil" }

// NilShape accepts only the nil payload.
func NilShape() Shape { return nilShape{} }

type funcShape struct {
	name string
	fn   func(any) bool
}

func (s funcShape) Accepts(payload any) bool { return s.fn(payload) }
func (s funcShape) String() string           { return s.name }

// ShapeFunc builds a shape from a predicate.
func ShapeFunc(name string, accepts func(payload any) bool) Shape {
	return funcShape{name: name, fn: accepts}
}

func describePayload(payload any) string {
	if payload == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", payload)
}
