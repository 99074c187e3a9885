package wire

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/value"
)

// Header describes the next value of a stream.
//
// Scalars are read whole and held in Value. For String and Binary, Count is the byte length.
// For Array and Map, Count is the declared element or pair count and the stream is left at the first item.
type Header struct {
	Code  byte
	Kind  value.Kind
	Count int
	Value value.Value
}

// IsNil reports whether h is Nil.
func (h Header) IsNil() bool { return h.Kind == value.Nil }

// IsArrayHeader reports whether h opens an Array.
func (h Header) IsArrayHeader() bool { return h.Kind == value.Array }

// IsMapHeader reports whether h opens a Map.
func (h Header) IsMapHeader() bool { return h.Kind == value.Map }

// IsContainer reports whether h opens an Array or Map.
func (h Header) IsContainer() bool { return h.Kind.IsContainer() }

// Items returns the number of complete values following a container header; maps have two per pair.
func (h Header) Items() int {
	switch h.Kind {
	case value.Array:
		return h.Count
	case value.Map:
		return 2 * h.Count
	}
	return 0
}

// Source is a stream of values.
// Both Reader and Subtree implement it, so serializers can be handed either.
type Source interface {
	// ReadHeader classifies and consumes the next value, without consuming the items of a container.
	ReadHeader() (Header, error)

	// Skip discards the next complete value.
	Skip() error

	// ReadValue materializes the next complete value.
	ReadValue() (value.Value, error)

	// EnterSubtree returns a view bounded to the items of h.
	// h must be the container header most recently returned by ReadHeader.
	EnterSubtree(h Header) (*Subtree, error)
}

// ValueOf materializes the value whose header h was just read from src.
// Containers nested deeper than the Reader's limit fail with ErrMalformed.
func ValueOf(src Source, h Header) (value.Value, error) {
	if h.IsContainer() {
		if n, ok := src.(nester); ok {
			r, outer := n.nest()
			if err := r.enter(outer); err != nil {
				return value.NilValue, err
			}
			defer r.leave()
		}
	}

	switch h.Kind {
	case value.Array:
		elems := make([]value.Value, 0, capHint(h.Count))
		for i := 0; i < h.Count; i++ {
			elem, err := src.ReadValue()
			if err != nil {
				return value.NilValue, encio.MidValue(err)
			}
			elems = append(elems, elem)
		}
		return value.ArrayOf(elems...), nil
	case value.Map:
		pairs := make([]value.Pair, 0, capHint(h.Count))
		for i := 0; i < h.Count; i++ {
			k, err := src.ReadValue()
			if err != nil {
				return value.NilValue, encio.MidValue(err)
			}
			v, err := src.ReadValue()
			if err != nil {
				return value.NilValue, encio.MidValue(err)
			}
			pairs = append(pairs, value.Pair{Key: k, Value: v})
		}
		return value.MapOf(pairs...), nil
	}
	return h.Value, nil
}

// capHint bounds preallocation for declared counts that have not been read yet.
func capHint(n int) int {
	if n > 1024 {
		return 1024
	}
	return n
}

// MaxDepth is the default limit on how deeply containers may nest.
const MaxDepth = 10000

// nester is a Source that counts container nesting against its Reader's limit.
type nester interface {
	// nest returns the Reader and the nesting level just outside the source's own container, 0 for a Reader.
	nest() (*Reader, int)
}

// NewReader returns a new Reader reading from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		r:        &countingReader{r: r},
		buff:     make([]byte, 1),
		maxDepth: MaxDepth,
	}
}

// Reader is the tier-agnostic MessagePack decoder.
// It is bound to one io.Reader and is not safe for concurrent use.
type Reader struct {
	r    *countingReader
	buff []byte
	ints encio.Uint

	maxDepth int
	// depth counts the containers ValueOf is materializing; outer is the level the outermost one sits in.
	depth int
	outer int
}

// SetMaxDepth sets how deeply containers may nest when materialized or entered as subtrees.
// n below 1 restores MaxDepth.
func (d *Reader) SetMaxDepth(n int) {
	if n < 1 {
		n = MaxDepth
	}
	d.maxDepth = n
}

func (d *Reader) nest() (*Reader, int) { return d, 0 }

func (d *Reader) enter(outer int) error {
	if d.depth == 0 {
		d.outer = outer
	}
	if err := d.checkDepth(d.outer + d.depth + 1); err != nil {
		return err
	}
	d.depth++
	return nil
}

func (d *Reader) leave() { d.depth-- }

// checkDepth fails if a container at nesting level depth is beyond the limit.
func (d *Reader) checkDepth(depth int) error {
	if depth > d.maxDepth {
		return encio.NewIOError(encio.ErrMalformed, fmt.Sprintf("containers nested deeper than %v at offset %v", d.maxDepth, d.r.n))
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Reset rebinds the Reader to r and zeroes its offset.
func (d *Reader) Reset(r io.Reader) {
	d.r.r = r
	d.r.n = 0
	d.depth = 0
}

// Offset returns the number of bytes consumed so far.
func (d *Reader) Offset() int64 { return d.r.n }

// ReadHeader implements Source.
func (d *Reader) ReadHeader() (Header, error) {
	return d.next(true)
}

// Skip implements Source.
// Raw payloads are discarded without being buffered whole.
func (d *Reader) Skip() error {
	h, err := d.next(false)
	if err != nil {
		return err
	}
	for remaining := h.Items(); remaining > 0; remaining-- {
		h, err = d.next(false)
		if err != nil {
			return encio.MidValue(err)
		}
		remaining += h.Items()
	}
	return nil
}

// ReadValue implements Source.
func (d *Reader) ReadValue() (value.Value, error) {
	h, err := d.ReadHeader()
	if err != nil {
		return value.NilValue, err
	}
	return ValueOf(d, h)
}

// EnterSubtree implements Source.
func (d *Reader) EnterSubtree(h Header) (*Subtree, error) {
	if !h.IsContainer() {
		return nil, encio.NewError(encio.ErrBadType, fmt.Sprintf("cannot enter a subtree of %v", h.Kind), "")
	}
	if err := d.checkDepth(1); err != nil {
		return nil, err
	}
	return newSubtree(d, h, 1), nil
}

// uint reads the size byte payload of a value whose tag has been read.
func (d *Reader) uint(size int) (uint64, error) {
	n, err := d.ints.Decode(d.r, size)
	if err != nil && errors.Is(err, io.EOF) {
		return 0, encio.NewIOError(encio.ErrUnexpectedEndOfStream, fmt.Sprintf("want %v payload bytes at offset %v", size, d.r.n))
	}
	return n, err
}

func (d *Reader) length(size int) (int, error) {
	n, err := d.uint(size)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt32 && math.MaxInt == math.MaxInt32 {
		return 0, encio.NewIOError(encio.ErrMalformed, fmt.Sprintf("length %v does not fit in int", n))
	}
	return int(n), nil
}

func (d *Reader) raw(h Header, kind value.Kind, n int, materialize bool) (Header, error) {
	h.Kind = kind
	h.Count = n
	if !materialize {
		return h, encio.Discard(d.r, int64(n))
	}

	b, err := encio.ReadN(d.r, n)
	if err != nil {
		return h, err
	}
	if kind == value.String {
		h.Value = value.StrBytes(b)
	} else {
		h.Value = value.Bin(b)
	}
	return h, nil
}

// next reads one tag and its scalar payload. Raw payloads are only kept if materialize is set.
func (d *Reader) next(materialize bool) (Header, error) {
	if err := encio.Read(d.buff[:1], d.r); err != nil {
		return Header{}, err
	}

	c := d.buff[0]
	h := Header{Code: c}
	switch {
	case c <= PosFixIntMax:
		h.Kind = value.Integer
		h.Value = value.Uint(uint64(c))
		return h, nil
	case c >= NegFixIntLow:
		h.Kind = value.Integer
		h.Value = value.Int(int64(int8(c)))
		return h, nil
	case IsFixMap(c):
		h.Kind = value.Map
		h.Count = int(c & fixMapCountMax)
		return h, nil
	case IsFixArray(c):
		h.Kind = value.Array
		h.Count = int(c & fixMapCountMax)
		return h, nil
	case IsFixStr(c):
		return d.raw(h, value.String, int(c&fixStrLenMax), materialize)
	}

	switch c {
	case Nil:
		h.Kind = value.Nil
	case False, True:
		h.Kind = value.Bool
		h.Value = value.Boolean(c == True)
	case Float32:
		bits, err := d.uint(4)
		if err != nil {
			return h, err
		}
		h.Kind = value.Float32
		h.Value = value.Float32Value(math.Float32frombits(uint32(bits)))
	case Float64:
		bits, err := d.uint(8)
		if err != nil {
			return h, err
		}
		h.Kind = value.Float64
		h.Value = value.Float64Value(math.Float64frombits(bits))
	case Uint8, Uint16, Uint32, Uint64:
		n, err := d.uint(1 << (c - Uint8))
		if err != nil {
			return h, err
		}
		h.Kind = value.Integer
		h.Value = value.Uint(n)
	case Int8, Int16, Int32, Int64:
		n, err := d.uint(1 << (c - Int8))
		if err != nil {
			return h, err
		}
		h.Kind = value.Integer
		switch c {
		case Int8:
			h.Value = value.Int(int64(int8(n)))
		case Int16:
			h.Value = value.Int(int64(int16(n)))
		case Int32:
			h.Value = value.Int(int64(int32(n)))
		default:
			h.Value = value.Int(int64(n))
		}
	case Str8, Str16, Str32:
		n, err := d.length(1 << (c - Str8))
		if err != nil {
			return h, err
		}
		return d.raw(h, value.String, n, materialize)
	case Bin8, Bin16, Bin32:
		n, err := d.length(1 << (c - Bin8))
		if err != nil {
			return h, err
		}
		return d.raw(h, value.Binary, n, materialize)
	case Array16, Array32:
		n, err := d.length(2 << (c - Array16))
		if err != nil {
			return h, err
		}
		h.Kind = value.Array
		h.Count = n
	case Map16, Map32:
		n, err := d.length(2 << (c - Map16))
		if err != nil {
			return h, err
		}
		h.Kind = value.Map
		h.Count = n
	default:
		return h, encio.NewIOError(encio.ErrInvalidFormatTag, fmt.Sprintf("tag 0x%02x at offset %v", c, d.r.n-1))
	}
	return h, nil
}

// MinimalCode returns the tag a tier-minimal encoder would have chosen for h.
// Floats, Nil and Bool have a single tag each and are returned unchanged.
func MinimalCode(h Header) byte {
	var buff bytes.Buffer
	w := NewWriter(&buff)
	var err error
	switch h.Kind {
	case value.Integer:
		err = w.PackValue(h.Value)
	case value.String:
		err = w.PackStringHeader(h.Count)
	case value.Binary:
		err = w.PackBinaryHeader(h.Count)
	case value.Array:
		err = w.PackArrayHeader(h.Count)
	case value.Map:
		err = w.PackMapHeader(h.Count)
	default:
		return h.Code
	}
	if err != nil || buff.Len() == 0 {
		return h.Code
	}
	return buff.Bytes()[0]
}
