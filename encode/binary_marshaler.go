package encode

import (
	"encoding"
	"reflect"

	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/wire"
)

var (
	binaryMarshalerType   = reflect.TypeOf((*encoding.BinaryMarshaler)(nil)).Elem()
	binaryUnmarshalerType = reflect.TypeOf((*encoding.BinaryUnmarshaler)(nil)).Elem()
)

// implementsBinaryMarshaler reports whether values of t, or pointers to them, can marshal and unmarshal themselves.
func implementsBinaryMarshaler(t reflect.Type) bool {
	pt := reflect.PtrTo(t)
	return (t.Implements(binaryMarshalerType) || pt.Implements(binaryMarshalerType)) &&
		(t.Implements(binaryUnmarshalerType) || pt.Implements(binaryUnmarshalerType))
}

// NewBinaryMarshaler returns a new BinaryMarshaler Serializer.
// It can internally handle a reference;
// time.Time's UnmarshalBinary needs a pointer receiver, so values are addressed before use.
func NewBinaryMarshaler(t reflect.Type) *BinaryMarshaler {
	if !implementsBinaryMarshaler(t) {
		panic(encio.Errorf(encio.ErrBadType, "%v does not implement encoding.BinaryMarshaler and encoding.BinaryUnmarshaler", t))
	}
	return &BinaryMarshaler{
		t:            t,
		marshalRef:   !t.Implements(binaryMarshalerType),
		unmarshalRef: !t.Implements(binaryUnmarshalerType),
	}
}

// BinaryMarshaler is a Serializer for types which implement encoding.BinaryMarshaler and encoding.BinaryUnmarshaler.
// The marshalled bytes are written as binary. Nil unpacks as the zero value.
type BinaryMarshaler struct {
	t            reflect.Type
	marshalRef   bool
	unmarshalRef bool
}

// Type implements Serializer.
func (e *BinaryMarshaler) Type() reflect.Type { return e.t }

// PackTo implements Serializer.
func (e *BinaryMarshaler) PackTo(w *wire.Writer, v reflect.Value) error {
	if e.marshalRef {
		v = addressable(v).Addr()
	}

	b, err := v.Interface().(encoding.BinaryMarshaler).MarshalBinary()
	if err != nil {
		return err
	}
	return w.PackBinary(b)
}

// UnpackFrom implements Serializer.
func (e *BinaryMarshaler) UnpackFrom(src wire.Source, h wire.Header, v reflect.Value) error {
	if h.IsNil() {
		v.Set(reflect.Zero(e.t))
		return nil
	}
	if !h.Kind.IsRaw() {
		return mismatch(h, e.t)
	}

	if e.unmarshalRef {
		return v.Addr().Interface().(encoding.BinaryUnmarshaler).UnmarshalBinary(h.Value.Bytes())
	}
	return v.Interface().(encoding.BinaryUnmarshaler).UnmarshalBinary(h.Value.Bytes())
}
