package encode

import (
	"reflect"

	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/wire"
)

// NewSlice returns a new slice Serializer.
func NewSlice(ty reflect.Type, src Source) (*Slice, error) {
	checkKind(ty, reflect.Slice)
	elem, err := src.Lookup(ty.Elem())
	if err != nil {
		return nil, err
	}
	return &Slice{
		ty:   ty,
		elem: elem,
	}, nil
}

// Slice is a Serializer for slices, written as arrays.
// A nil slice is written as Nil and Nil unpacks as a nil slice.
type Slice struct {
	ty   reflect.Type
	elem *Serializer
}

// Type implements Serializer.
func (e *Slice) Type() reflect.Type { return e.ty }

// PackTo implements Serializer.
func (e *Slice) PackTo(w *wire.Writer, v reflect.Value) error {
	if v.IsNil() {
		return w.PackNil()
	}

	l := v.Len()
	if err := w.PackArrayHeader(l); err != nil {
		return err
	}
	for i := 0; i < l; i++ {
		if err := (*e.elem).PackTo(w, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

// UnpackFrom implements Serializer.
// The backing array of v is reused when it is large enough.
func (e *Slice) UnpackFrom(src wire.Source, h wire.Header, v reflect.Value) error {
	if h.IsNil() {
		v.Set(reflect.Zero(e.ty))
		return nil
	}
	if !h.IsArrayHeader() {
		return mismatch(h, e.ty)
	}

	if v.Cap() < h.Count || v.IsNil() {
		v.Set(reflect.MakeSlice(e.ty, 0, capHint(h.Count)))
	} else {
		v.SetLen(h.Count)
	}

	for i := 0; i < h.Count; i++ {
		if i >= v.Len() {
			v.Set(reflect.Append(v, reflect.Zero(e.ty.Elem())))
		}
		if err := e.unpackElem(src, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

// UnpackTo implements CollectionSerializer.
// Elements are appended to existing.
func (e *Slice) UnpackTo(src wire.Source, h wire.Header, existing reflect.Value) error {
	if h.IsNil() {
		return nil
	}
	if !h.IsArrayHeader() {
		return mismatch(h, e.ty)
	}

	for i := 0; i < h.Count; i++ {
		elem := reflect.New(e.ty.Elem()).Elem()
		if err := e.unpackElem(src, elem); err != nil {
			return err
		}
		existing.Set(reflect.Append(existing, elem))
	}
	return nil
}

func (e *Slice) unpackElem(src wire.Source, elem reflect.Value) error {
	eh, err := src.ReadHeader()
	if err != nil {
		return encio.MidValue(err)
	}
	return unpackNested(src, eh, *e.elem, elem)
}

// maxPrealloc is the most elements reserved for a declared count before they have been read.
const maxPrealloc = 1024

// capHint bounds preallocation for declared counts that have not been read yet.
func capHint(n int) int {
	if n > maxPrealloc {
		return maxPrealloc
	}
	return n
}
