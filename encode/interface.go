package encode

import (
	"reflect"

	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/value"
	"github.com/stewi1014/mpk/wire"
)

var valueType = reflect.TypeOf(value.Value{})

// NewInterface returns a new interface Serializer.
func NewInterface(ty reflect.Type, src Source) *Interface {
	checkKind(ty, reflect.Interface)
	return &Interface{
		ty:     ty,
		source: src,
	}
}

// Interface is a Serializer for interfaces.
//
// The dynamic value is written with the serializer of its own type; no type information goes on the wire.
// Unpacking into an empty interface yields plain Go data, as value.Value.Interface does.
// Unpacking into a non-empty interface needs a value already held there to decide the type,
// or a value.Value that implements it.
type Interface struct {
	ty     reflect.Type
	source Source
}

// Type implements Serializer.
func (e *Interface) Type() reflect.Type { return e.ty }

// PackTo implements Serializer.
func (e *Interface) PackTo(w *wire.Writer, v reflect.Value) error {
	if v.IsNil() {
		return w.PackNil()
	}

	elem := v.Elem()
	s, err := e.source.Lookup(elem.Type())
	if err != nil {
		return err
	}
	return (*s).PackTo(w, elem)
}

// UnpackFrom implements Serializer.
func (e *Interface) UnpackFrom(src wire.Source, h wire.Header, v reflect.Value) error {
	if h.IsNil() {
		v.Set(reflect.Zero(e.ty))
		return nil
	}

	if !v.IsNil() && e.ty.NumMethod() > 0 {
		// Decode into a copy of the held value, which keeps its allocations.
		elemType := v.Elem().Type()
		s, err := e.source.Lookup(elemType)
		if err != nil {
			return err
		}
		elem := reflect.New(elemType).Elem()
		elem.Set(v.Elem())
		if err := (*s).UnpackFrom(src, h, elem); err != nil {
			return err
		}
		v.Set(elem)
		return nil
	}

	val, err := wire.ValueOf(src, h)
	if err != nil {
		return err
	}

	if e.ty.NumMethod() == 0 {
		v.Set(reflect.ValueOf(val.Interface()))
		return nil
	}
	if valueType.Implements(e.ty) {
		v.Set(reflect.ValueOf(val))
		return nil
	}
	return encio.Errorf(encio.ErrBadType, "cannot decide a concrete type for %v in %v", h.Kind, e.ty)
}

// NewValue returns a new Serializer for value.Value.
func NewValue() *Value {
	return &Value{}
}

// Value is a Serializer for value.Value, so decoded trees can be held in typed data.
type Value struct{}

// Type implements Serializer.
func (e *Value) Type() reflect.Type { return valueType }

// PackTo implements Serializer.
func (e *Value) PackTo(w *wire.Writer, v reflect.Value) error {
	return w.PackValue(v.Interface().(value.Value))
}

// UnpackFrom implements Serializer.
func (e *Value) UnpackFrom(src wire.Source, h wire.Header, v reflect.Value) error {
	val, err := wire.ValueOf(src, h)
	if err != nil {
		return err
	}
	v.Set(reflect.ValueOf(val))
	return nil
}
