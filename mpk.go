// Package mpk serializes Go values to and from MessagePack.
//
// Values are written with the smallest encoding MessagePack allows, and any valid encoding is accepted when reading.
// Structs are written as objects, either positionally as arrays (the default) or as maps keyed by member name,
// and read back tolerantly: unknown keys and extra items are skipped, so both sides can add members independently.
// Member layout comes from struct fields and their `mpk` tags, or from a member.Descriptor registered for the type,
// which can also name a constructor for types that cannot be built field by field.
//
// A Context holds the configuration and the cache of per-type serializers. Default is used by the package-level functions.
//
// mpk/wire provides the streaming reader and writer, and mpk/value the representation of any decoded value.
//
// mpk/encio provides the error types; every error is fatal to the call that returned it.
package mpk

import (
	"bytes"
	"io"
	"reflect"

	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/encode"
	"github.com/stewi1014/mpk/member"
	"github.com/stewi1014/mpk/wire"
)

// Mode is how objects are laid out on the wire.
type Mode = member.Mode

// Modes.
const (
	AsArray = member.AsArray
	AsMap   = member.AsMap
)

// ParseMode returns the Mode named s, "array" or "map".
func ParseMode(s string) (Mode, error) {
	return member.ParseMode(s)
}

// Default is the Context used by the package-level functions.
var Default = NewContext(nil)

// NewContext returns a new Context. config may be nil.
func NewContext(config *Config) *Context {
	config = config.copyAndFill()
	return &Context{
		config:   config,
		registry: encode.NewRegistry(config.registryConfig(), config.Logger),
	}
}

// Context is a serialization context. It owns the serializers built for each type for its whole lifetime.
// It is safe for concurrent use; Encoders and Decoders it creates are not.
type Context struct {
	config   *Config
	registry *encode.Registry
}

// Registry returns the serializer registry of the Context.
func (c *Context) Registry() *encode.Registry { return c.registry }

// Register sets the descriptor for d.Type. It must be called before the type is first used.
func (c *Context) Register(d *member.Descriptor) error {
	return c.registry.Register(d)
}

// Describe discovers the members of the struct type of v and registers them.
// v may be a value, a pointer to one, or a reflect.Type.
func (c *Context) Describe(v interface{}, opts ...member.Option) (*member.Descriptor, error) {
	ty, ok := v.(reflect.Type)
	if !ok {
		ty = reflect.TypeOf(v)
	}
	if ty != nil && ty.Kind() == reflect.Ptr {
		ty = ty.Elem()
	}
	return c.registry.Describe(ty, opts...)
}

// Marshal returns the encoding of v.
func (c *Context) Marshal(v interface{}) ([]byte, error) {
	var buff bytes.Buffer
	if err := c.registry.Pack(wire.NewWriter(&buff), v); err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

// Unmarshal decodes b into v, which must be a non-nil pointer.
// b must hold exactly one value.
func (c *Context) Unmarshal(b []byte, v interface{}) error {
	r := bytes.NewReader(b)
	if err := c.registry.Unpack(wire.NewReader(r), v); err != nil {
		return err
	}
	if r.Len() != 0 {
		return encio.Errorf(encio.ErrMalformed, "%v bytes after the value", r.Len())
	}
	return nil
}

// NewEncoder returns an Encoder writing to w.
func (c *Context) NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:        wire.NewWriter(w),
		registry: c.registry,
	}
}

// NewDecoder returns a Decoder reading from r.
func (c *Context) NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:        wire.NewReader(r),
		registry: c.registry,
	}
}

// Register sets the descriptor for d.Type in Default.
func Register(d *member.Descriptor) error { return Default.Register(d) }

// Describe discovers and registers the members of the struct type of v in Default.
func Describe(v interface{}, opts ...member.Option) (*member.Descriptor, error) {
	return Default.Describe(v, opts...)
}

// Marshal returns the encoding of v using Default.
func Marshal(v interface{}) ([]byte, error) { return Default.Marshal(v) }

// Unmarshal decodes b into v using Default.
func Unmarshal(b []byte, v interface{}) error { return Default.Unmarshal(b, v) }

// NewEncoder returns an Encoder writing to w using Default.
func NewEncoder(w io.Writer) *Encoder { return Default.NewEncoder(w) }

// NewDecoder returns a Decoder reading from r using Default.
func NewDecoder(r io.Reader) *Decoder { return Default.NewDecoder(r) }
