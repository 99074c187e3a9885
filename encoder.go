package mpk

import (
	"github.com/stewi1014/mpk/encode"
	"github.com/stewi1014/mpk/wire"
)

// Encoder writes values to a stream, one after another.
// It is not safe for concurrent use.
type Encoder struct {
	w        *wire.Writer
	registry *encode.Registry
}

// Encode writes v. A nil interface is written as Nil.
func (e *Encoder) Encode(v interface{}) error {
	return e.registry.Pack(e.w, v)
}

// Writer returns the underlying Writer, for writing values by hand between calls to Encode.
func (e *Encoder) Writer() *wire.Writer { return e.w }
