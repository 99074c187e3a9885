package encode

import (
	"reflect"

	"github.com/stewi1014/mpk/wire"
)

// NewArray returns a new array Serializer.
func NewArray(ty reflect.Type, src Source) (*Array, error) {
	checkKind(ty, reflect.Array)
	elem, err := src.Lookup(ty.Elem())
	if err != nil {
		return nil, err
	}
	return &Array{
		ty:   ty,
		elem: elem,
	}, nil
}

// Array is a Serializer for arrays.
// Extra wire elements are skipped and missing ones leave zero values.
type Array struct {
	ty   reflect.Type
	elem *Serializer
}

// Type implements Serializer.
func (e *Array) Type() reflect.Type { return e.ty }

// PackTo implements Serializer.
func (e *Array) PackTo(w *wire.Writer, v reflect.Value) error {
	if err := w.PackArrayHeader(e.ty.Len()); err != nil {
		return err
	}
	for i := 0; i < e.ty.Len(); i++ {
		if err := (*e.elem).PackTo(w, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

// UnpackFrom implements Serializer.
func (e *Array) UnpackFrom(src wire.Source, h wire.Header, v reflect.Value) error {
	if h.IsNil() {
		v.Set(reflect.Zero(e.ty))
		return nil
	}
	if !h.IsArrayHeader() {
		return mismatch(h, e.ty)
	}

	for i := 0; i < h.Count; i++ {
		if i >= e.ty.Len() {
			if err := src.Skip(); err != nil {
				return err
			}
			continue
		}
		eh, err := src.ReadHeader()
		if err != nil {
			return err
		}
		if err := unpackNested(src, eh, *e.elem, v.Index(i)); err != nil {
			return err
		}
	}
	for i := h.Count; i < e.ty.Len(); i++ {
		v.Index(i).Set(reflect.Zero(e.ty.Elem()))
	}
	return nil
}
