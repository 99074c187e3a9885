package wire

import (
	"fmt"
	"io"
	"math"

	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/value"
)

// maxLen is the largest length or count any tier can carry.
const maxLen = math.MaxUint32

// NewWriter returns a new Writer writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:    w,
		buff: make([]byte, 1),
		ints: encio.NewUint(),
	}
}

// Writer is the tier-minimal MessagePack encoder.
// It is bound to one io.Writer and is not safe for concurrent use.
type Writer struct {
	w    io.Writer
	buff []byte
	ints encio.Uint
}

// Reset rebinds the Writer to w.
func (e *Writer) Reset(w io.Writer) { e.w = w }

func (e *Writer) code(c byte) error {
	e.buff[0] = c
	return encio.Write(e.buff[:1], e.w)
}

// codeUint writes code c followed by the low size bytes of n.
func (e *Writer) codeUint(c byte, n uint64, size int) error {
	if err := e.code(c); err != nil {
		return err
	}
	return e.ints.Encode(e.w, n, size)
}

// PackNil writes Nil.
func (e *Writer) PackNil() error { return e.code(Nil) }

// PackBool writes a bool.
func (e *Writer) PackBool(b bool) error {
	if b {
		return e.code(True)
	}
	return e.code(False)
}

// PackInt writes n using the smallest integer tier that holds it.
// Non-negative values are written exactly as PackUint would.
func (e *Writer) PackInt(n int64) error {
	if n >= 0 {
		return e.PackUint(uint64(n))
	}
	switch {
	case n >= negFixIntMin:
		return e.code(byte(int8(n)))
	case n >= math.MinInt8:
		return e.codeUint(Int8, uint64(n), 1)
	case n >= math.MinInt16:
		return e.codeUint(Int16, uint64(n), 2)
	case n >= math.MinInt32:
		return e.codeUint(Int32, uint64(n), 4)
	default:
		return e.codeUint(Int64, uint64(n), 8)
	}
}

// PackUint writes n using the smallest unsigned tier that holds it.
func (e *Writer) PackUint(n uint64) error {
	switch {
	case n <= uint64(PosFixIntMax):
		return e.code(byte(n))
	case n <= math.MaxUint8:
		return e.codeUint(Uint8, n, 1)
	case n <= math.MaxUint16:
		return e.codeUint(Uint16, n, 2)
	case n <= math.MaxUint32:
		return e.codeUint(Uint32, n, 4)
	default:
		return e.codeUint(Uint64, n, 8)
	}
}

// PackFloat32 writes a 32-bit float.
func (e *Writer) PackFloat32(f float32) error {
	return e.codeUint(Float32, uint64(math.Float32bits(f)), 4)
}

// PackFloat64 writes a 64-bit float.
func (e *Writer) PackFloat64(f float64) error {
	return e.codeUint(Float64, math.Float64bits(f), 8)
}

func checkLen(n int, what string) error {
	if n < 0 || uint64(n) > maxLen {
		return encio.NewError(encio.ErrBadType, fmt.Sprintf("%v %v cannot be represented on the wire", what, n), "")
	}
	return nil
}

// PackStringHeader writes the header of an n byte UTF-8 string. The caller writes the n bytes.
func (e *Writer) PackStringHeader(n int) error {
	if err := checkLen(n, "string length"); err != nil {
		return err
	}
	switch {
	case n <= fixStrLenMax:
		return e.code(FixStrLow | byte(n))
	case n <= math.MaxUint8:
		return e.codeUint(Str8, uint64(n), 1)
	case n <= math.MaxUint16:
		return e.codeUint(Str16, uint64(n), 2)
	default:
		return e.codeUint(Str32, uint64(n), 4)
	}
}

// PackString writes s as a UTF-8 string.
func (e *Writer) PackString(s string) error {
	if err := e.PackStringHeader(len(s)); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	return encio.Write([]byte(s), e.w)
}

// PackStringBytes writes b as a UTF-8 string.
func (e *Writer) PackStringBytes(b []byte) error {
	if err := e.PackStringHeader(len(b)); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	return encio.Write(b, e.w)
}

// PackBinaryHeader writes the header of an n byte binary. The caller writes the n bytes.
func (e *Writer) PackBinaryHeader(n int) error {
	if err := checkLen(n, "binary length"); err != nil {
		return err
	}
	switch {
	case n <= math.MaxUint8:
		return e.codeUint(Bin8, uint64(n), 1)
	case n <= math.MaxUint16:
		return e.codeUint(Bin16, uint64(n), 2)
	default:
		return e.codeUint(Bin32, uint64(n), 4)
	}
}

// PackBinary writes b as binary.
func (e *Writer) PackBinary(b []byte) error {
	if err := e.PackBinaryHeader(len(b)); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	return encio.Write(b, e.w)
}

// PackArrayHeader writes the header of an array of n elements.
// Exactly n values must follow.
func (e *Writer) PackArrayHeader(n int) error {
	if err := checkLen(n, "array count"); err != nil {
		return err
	}
	switch {
	case n <= fixMapCountMax:
		return e.code(FixArrayLow | byte(n))
	case n <= math.MaxUint16:
		return e.codeUint(Array16, uint64(n), 2)
	default:
		return e.codeUint(Array32, uint64(n), 4)
	}
}

// PackMapHeader writes the header of a map of n pairs.
// Exactly 2n values, alternating key and value, must follow.
func (e *Writer) PackMapHeader(n int) error {
	if err := checkLen(n, "map count"); err != nil {
		return err
	}
	switch {
	case n <= fixMapCountMax:
		return e.code(FixMapLow | byte(n))
	case n <= math.MaxUint16:
		return e.codeUint(Map16, uint64(n), 2)
	default:
		return e.codeUint(Map32, uint64(n), 4)
	}
}

// PackValue writes v, recursing through containers.
func (e *Writer) PackValue(v value.Value) error {
	switch v.Kind() {
	case value.Nil:
		return e.PackNil()
	case value.Bool:
		return e.PackBool(v.Bool())
	case value.Integer:
		if v.IsNegative() {
			n, _ := v.Int64()
			return e.PackInt(n)
		}
		n, _ := v.Uint64()
		return e.PackUint(n)
	case value.Float32:
		f, _ := v.Float()
		return e.PackFloat32(float32(f))
	case value.Float64:
		f, _ := v.Float()
		return e.PackFloat64(f)
	case value.String:
		return e.PackStringBytes(v.Bytes())
	case value.Binary:
		return e.PackBinary(v.Bytes())
	case value.Array:
		if err := e.PackArrayHeader(v.Len()); err != nil {
			return err
		}
		for _, elem := range v.Elems() {
			if err := e.PackValue(elem); err != nil {
				return err
			}
		}
		return nil
	case value.Map:
		if err := e.PackMapHeader(v.Len()); err != nil {
			return err
		}
		for _, p := range v.Pairs() {
			if err := e.PackValue(p.Key); err != nil {
				return err
			}
			if err := e.PackValue(p.Value); err != nil {
				return err
			}
		}
		return nil
	}
	return encio.NewError(encio.ErrBadType, fmt.Sprintf("unknown value kind %v", v.Kind()), "")
}

// PackRaw writes b, which must already be one or more complete encoded values.
func (e *Writer) PackRaw(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return encio.Write(b, e.w)
}
