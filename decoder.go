package mpk

import (
	"io"

	"github.com/cockroachdb/errors"

	"github.com/stewi1014/mpk/encode"
	"github.com/stewi1014/mpk/value"
	"github.com/stewi1014/mpk/wire"
)

// Decoder reads values from a stream, one after another.
// It is not safe for concurrent use.
type Decoder struct {
	r        *wire.Reader
	registry *encode.Registry
}

// Decode reads the next value into v, which must be a non-nil pointer.
// It returns io.EOF if the stream ends cleanly before the value.
func (d *Decoder) Decode(v interface{}) error {
	h, err := d.r.ReadHeader()
	if err != nil {
		return eof(err)
	}
	return d.registry.UnpackHeader(d.r, h, v)
}

// DecodeValue reads the next value whatever its shape.
// It returns io.EOF if the stream ends cleanly before the value.
func (d *Decoder) DecodeValue() (value.Value, error) {
	v, err := d.r.ReadValue()
	return v, eof(err)
}

// Skip discards the next value.
func (d *Decoder) Skip() error {
	return eof(d.r.Skip())
}

// Reader returns the underlying Reader, for reading values by hand between calls to Decode.
func (d *Decoder) Reader() *wire.Reader { return d.r }

func eof(err error) error {
	if err != nil && errors.Is(err, io.EOF) {
		return io.EOF
	}
	return err
}
