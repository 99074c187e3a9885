package encode

import (
	"reflect"

	"github.com/stewi1014/mpk/value"
	"github.com/stewi1014/mpk/wire"
)

// NewBool returns a new bool Serializer.
func NewBool(ty reflect.Type) *Bool {
	checkKind(ty, reflect.Bool)
	return &Bool{ty: ty}
}

// Bool is a Serializer for bools.
type Bool struct {
	ty reflect.Type
}

// Type implements Serializer.
func (e *Bool) Type() reflect.Type { return e.ty }

// PackTo implements Serializer.
func (e *Bool) PackTo(w *wire.Writer, v reflect.Value) error {
	return w.PackBool(v.Bool())
}

// UnpackFrom implements Serializer.
// Nil unpacks as false.
func (e *Bool) UnpackFrom(src wire.Source, h wire.Header, v reflect.Value) error {
	switch h.Kind {
	case value.Nil:
		v.SetBool(false)
	case value.Bool:
		v.SetBool(h.Value.Bool())
	default:
		return mismatch(h, e.ty)
	}
	return nil
}
