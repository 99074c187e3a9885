package encode

import (
	"reflect"

	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/value"
	"github.com/stewi1014/mpk/wire"
)

// NewNumber returns a new Number.
func NewNumber(ty reflect.Type) *Number {
	checkKind(ty,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
	)
	return &Number{ty: ty}
}

// Number is a Serializer for integer and float types.
//
// Integers are written in the smallest tier that holds them, whatever the Go width.
// Unpacking accepts any integer tier as long as the number fits the target,
// and float targets also accept integers. Nil unpacks as zero.
type Number struct {
	ty reflect.Type
}

// Type implements Serializer.
func (e *Number) Type() reflect.Type { return e.ty }

// PackTo implements Serializer.
func (e *Number) PackTo(w *wire.Writer, v reflect.Value) error {
	switch e.ty.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return w.PackInt(v.Int())
	case reflect.Float32:
		return w.PackFloat32(float32(v.Float()))
	case reflect.Float64:
		return w.PackFloat64(v.Float())
	default:
		return w.PackUint(v.Uint())
	}
}

// UnpackFrom implements Serializer.
func (e *Number) UnpackFrom(src wire.Source, h wire.Header, v reflect.Value) error {
	if h.IsNil() {
		v.Set(reflect.Zero(e.ty))
		return nil
	}

	switch e.ty.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if h.Kind != value.Integer {
			return mismatch(h, e.ty)
		}
		n, ok := h.Value.Int64()
		if !ok || v.OverflowInt(n) {
			return encio.Errorf(encio.ErrBadType, "%v overflows %v", h.Value, e.ty)
		}
		v.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, ok := h.Value.Float()
		if !ok {
			return mismatch(h, e.ty)
		}
		if h.Kind == value.Float64 && v.OverflowFloat(f) {
			return encio.Errorf(encio.ErrBadType, "%v overflows %v", h.Value, e.ty)
		}
		v.SetFloat(f)
	default:
		if h.Kind != value.Integer {
			return mismatch(h, e.ty)
		}
		n, ok := h.Value.Uint64()
		if !ok || v.OverflowUint(n) {
			return encio.Errorf(encio.ErrBadType, "%v overflows %v", h.Value, e.ty)
		}
		v.SetUint(n)
	}
	return nil
}
