// Package encode is the object serializer engine.
//
// A Serializer packs and unpacks values of one Go type onto the wire format of package wire.
// Serializers for compound types hold the serializers of their elements, and a Registry resolves and caches them per type,
// including recursive types. Structs, and any type with a registered member.Descriptor, are handled by Object.
package encode

import (
	"reflect"

	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/wire"
)

// Serializer packs and unpacks values of one type.
type Serializer interface {
	// Type returns the type the Serializer handles.
	Type() reflect.Type

	// PackTo writes v, a value of Type.
	PackTo(w *wire.Writer, v reflect.Value) error

	// UnpackFrom reads the value whose header h has just been read from src, and stores it in v.
	// v must be settable. If h opens a container, its items are read from src.
	UnpackFrom(src wire.Source, h wire.Header, v reflect.Value) error
}

// CollectionSerializer is a Serializer for collections that can be filled in place.
type CollectionSerializer interface {
	Serializer

	// UnpackTo merges the collection whose header h has just been read from src into existing,
	// without replacing existing itself.
	UnpackTo(src wire.Source, h wire.Header, existing reflect.Value) error
}

// SelfPacker is implemented by types that write themselves.
// It bypasses member discovery entirely.
type SelfPacker interface {
	PackMsg(w *wire.Writer) error
}

// SelfUnpacker is implemented by types that read themselves.
// h is the already read header of the value.
type SelfUnpacker interface {
	UnpackMsg(src wire.Source, h wire.Header) error
}

// addressable returns v, or an addressable copy of it.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	c := reflect.New(v.Type()).Elem()
	c.Set(v)
	return c
}

// discard drops the rest of the value whose header h has been read.
func discard(src wire.Source, h wire.Header) error {
	for i := h.Items(); i > 0; i-- {
		if err := src.Skip(); err != nil {
			return err
		}
	}
	return nil
}

// unpackNested unpacks h with s. Containers are read through a subtree bounded to their items,
// so a malformed count cannot reach into the data that follows.
func unpackNested(src wire.Source, h wire.Header, s Serializer, v reflect.Value) error {
	if !h.IsContainer() {
		return s.UnpackFrom(src, h, v)
	}
	st, err := src.EnterSubtree(h)
	if err != nil {
		return err
	}
	if err := s.UnpackFrom(st, h, v); err != nil {
		return err
	}
	return st.Close()
}

// mergeNested is unpackNested for in-place collections.
func mergeNested(src wire.Source, h wire.Header, s CollectionSerializer, existing reflect.Value) error {
	if !h.IsContainer() {
		return s.UnpackTo(src, h, existing)
	}
	st, err := src.EnterSubtree(h)
	if err != nil {
		return err
	}
	if err := s.UnpackTo(st, h, existing); err != nil {
		return err
	}
	return st.Close()
}

func mismatch(h wire.Header, ty reflect.Type) error {
	return encio.Errorf(encio.ErrBadType, "cannot unpack %v into %v", h.Kind, ty)
}

func checkKind(ty reflect.Type, kinds ...reflect.Kind) {
	for _, k := range kinds {
		if ty.Kind() == k {
			return
		}
	}
	panic(encio.Errorf(encio.ErrBadType, "%v is not of kind %v", ty, kinds))
}
