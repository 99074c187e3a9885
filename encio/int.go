package encio

import (
	"encoding/binary"
	"io"
)

// All multi-byte integers on the wire are big-endian.

// EncodeUint16 writes a uint16 to buff.
func EncodeUint16(buff []byte, n uint16) { binary.BigEndian.PutUint16(buff, n) }

// DecodeUint16 reads a uint16 from buff.
func DecodeUint16(buff []byte) uint16 { return binary.BigEndian.Uint16(buff) }

// EncodeUint32 writes a uint32 to buff.
func EncodeUint32(buff []byte, n uint32) { binary.BigEndian.PutUint32(buff, n) }

// DecodeUint32 reads a uint32 from buff.
func DecodeUint32(buff []byte) uint32 { return binary.BigEndian.Uint32(buff) }

// EncodeUint64 writes a uint64 to buff.
func EncodeUint64(buff []byte, n uint64) { binary.BigEndian.PutUint64(buff, n) }

// DecodeUint64 reads a uint64 from buff.
func DecodeUint64(buff []byte) uint64 { return binary.BigEndian.Uint64(buff) }

// NewUint returns a Uint.
func NewUint() Uint {
	return Uint{
		buff: make([]byte, 8),
	}
}

// Uint provides methods for reading and writing fixed-width big-endian unsigned integers
// with a reusable scratch buffer.
type Uint struct {
	buff []byte
}

func (e *Uint) scratch() []byte {
	if e.buff == nil {
		e.buff = make([]byte, 8)
	}
	return e.buff
}

// Encode writes the low size bytes of n to w. size must be 1, 2, 4 or 8.
func (e *Uint) Encode(w io.Writer, n uint64, size int) error {
	b := e.scratch()[:size]
	switch size {
	case 1:
		b[0] = uint8(n)
	case 2:
		EncodeUint16(b, uint16(n))
	case 4:
		EncodeUint32(b, uint32(n))
	case 8:
		EncodeUint64(b, n)
	default:
		panic(NewError(ErrBadType, "integer width must be 1, 2, 4 or 8", ""))
	}
	return Write(b, w)
}

// Decode reads a size byte big-endian unsigned integer from r. size must be 1, 2, 4 or 8.
func (e *Uint) Decode(r io.Reader, size int) (uint64, error) {
	b := e.scratch()[:size]
	if err := Read(b, r); err != nil {
		return 0, err
	}
	switch size {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(DecodeUint16(b)), nil
	case 4:
		return uint64(DecodeUint32(b)), nil
	case 8:
		return DecodeUint64(b), nil
	default:
		panic(NewError(ErrBadType, "integer width must be 1, 2, 4 or 8", ""))
	}
}
