package encode

import (
	"reflect"

	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/wire"
)

// NewString returns a new string Serializer.
func NewString(ty reflect.Type) *String {
	checkKind(ty, reflect.String)
	return &String{ty: ty}
}

// String is a Serializer for strings.
// It writes UTF-8 strings and reads both raw kinds, string and binary.
type String struct {
	ty reflect.Type
}

// Type implements Serializer.
func (e *String) Type() reflect.Type { return e.ty }

// PackTo implements Serializer.
func (e *String) PackTo(w *wire.Writer, v reflect.Value) error {
	return w.PackString(v.String())
}

// UnpackFrom implements Serializer.
// Nil unpacks as the empty string.
func (e *String) UnpackFrom(src wire.Source, h wire.Header, v reflect.Value) error {
	switch {
	case h.IsNil():
		v.SetString("")
	case h.Kind.IsRaw():
		v.SetString(h.Value.Text())
	default:
		return mismatch(h, e.ty)
	}
	return nil
}

// NewBytes returns a new Serializer for byte slices and byte arrays.
func NewBytes(ty reflect.Type) *Bytes {
	checkKind(ty, reflect.Slice, reflect.Array)
	if ty.Elem().Kind() != reflect.Uint8 {
		panic(encio.Errorf(encio.ErrBadType, "%v is not a byte slice or array", ty))
	}
	return &Bytes{ty: ty}
}

// Bytes is a Serializer for []byte and [N]byte, written as binary.
// It reads both raw kinds. A nil slice is written as Nil.
type Bytes struct {
	ty reflect.Type
}

// Type implements Serializer.
func (e *Bytes) Type() reflect.Type { return e.ty }

// PackTo implements Serializer.
func (e *Bytes) PackTo(w *wire.Writer, v reflect.Value) error {
	if e.ty.Kind() == reflect.Slice {
		if v.IsNil() {
			return w.PackNil()
		}
		return w.PackBinary(v.Bytes())
	}

	b := make([]byte, v.Len())
	for i := range b {
		b[i] = byte(v.Index(i).Uint())
	}
	return w.PackBinary(b)
}

// UnpackFrom implements Serializer.
// Arrays must receive exactly their length in bytes.
func (e *Bytes) UnpackFrom(src wire.Source, h wire.Header, v reflect.Value) error {
	if h.IsNil() {
		v.Set(reflect.Zero(e.ty))
		return nil
	}
	if !h.Kind.IsRaw() {
		return mismatch(h, e.ty)
	}

	b := h.Value.Bytes()
	if e.ty.Kind() == reflect.Slice {
		if e.ty.Elem() == reflect.TypeOf(byte(0)) {
			v.SetBytes(b)
			return nil
		}
		s := reflect.MakeSlice(e.ty, len(b), len(b))
		for i, c := range b {
			s.Index(i).SetUint(uint64(c))
		}
		v.Set(s)
		return nil
	}

	if len(b) != e.ty.Len() {
		return encio.Errorf(encio.ErrBadType, "cannot unpack %v bytes into %v", len(b), e.ty)
	}
	for i, c := range b {
		v.Index(i).SetUint(uint64(c))
	}
	return nil
}
