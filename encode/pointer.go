package encode

import (
	"reflect"

	"github.com/stewi1014/mpk/wire"
)

// NewPointer returns a new pointer Serializer.
func NewPointer(ty reflect.Type, src Source) (*Pointer, error) {
	checkKind(ty, reflect.Ptr)
	elem, err := src.Lookup(ty.Elem())
	if err != nil {
		return nil, err
	}
	return &Pointer{
		ty:   ty,
		elem: elem,
	}, nil
}

// Pointer is a Serializer for pointers to concrete types.
// A nil pointer is written as Nil, otherwise the pointed-to value is written in its place.
// Nil unpacks as a nil pointer.
type Pointer struct {
	ty   reflect.Type
	elem *Serializer
}

// Type implements Serializer.
func (e *Pointer) Type() reflect.Type { return e.ty }

// PackTo implements Serializer.
func (e *Pointer) PackTo(w *wire.Writer, v reflect.Value) error {
	if v.IsNil() {
		return w.PackNil()
	}
	return (*e.elem).PackTo(w, v.Elem())
}

// UnpackFrom implements Serializer.
// An existing pointer is reused.
func (e *Pointer) UnpackFrom(src wire.Source, h wire.Header, v reflect.Value) error {
	if h.IsNil() {
		v.Set(reflect.Zero(e.ty))
		return nil
	}
	if v.IsNil() {
		v.Set(reflect.New(e.ty.Elem()))
	}
	return (*e.elem).UnpackFrom(src, h, v.Elem())
}

// UnpackTo implements CollectionSerializer.
// It merges into the collection existing points to.
func (e *Pointer) UnpackTo(src wire.Source, h wire.Header, existing reflect.Value) error {
	if existing.IsNil() {
		return e.UnpackFrom(src, h, existing)
	}
	if coll, ok := (*e.elem).(CollectionSerializer); ok {
		return coll.UnpackTo(src, h, existing.Elem())
	}
	return (*e.elem).UnpackFrom(src, h, existing.Elem())
}
