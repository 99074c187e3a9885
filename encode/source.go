package encode

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/member"
	"github.com/stewi1014/mpk/wire"
)

// Source resolves Serializers for types. Compound type Serializers take a Source upon creation,
// and use it for their element types.
//
// Lookup returns a pointer to a Serializer as it may be filled in after it is handed out;
// a recursive type is given a placeholder for itself while it is still being built.
// Serializers must therefore only dereference it when packing or unpacking.
type Source interface {
	Lookup(ty reflect.Type) (*Serializer, error)
}

// Config configures the Serializers a Registry builds.
type Config struct {
	// Mode is the object layout for types whose descriptor does not set one.
	Mode member.Mode

	// TypeModes overrides Mode per type.
	TypeModes map[reflect.Type]member.Mode

	// SortMapKeys writes map entries in the byte order of their encoded keys, for reproducible output.
	SortMapKeys bool

	// StrictArity fails array-mode objects with fewer items than members, rather than leaving them unset.
	StrictArity bool
}

// NewRegistry returns a new, empty Registry.
// logger receives debug messages about built Serializers and may be nil.
func NewRegistry(config Config, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		config:   config,
		logger:   logger,
		building: make(map[reflect.Type]*Serializer),
		descs:    make(map[reflect.Type]*member.Descriptor),
	}
}

// Registry provides a cache of Serializers, one per type, kept for the lifetime of the Registry.
// It is safe for concurrent use. Reads are lock free once a type is built;
// first-time builds are serialized.
type Registry struct {
	config Config
	logger *zap.Logger

	cache sync.Map // reflect.Type -> *Serializer

	mu       sync.Mutex
	building map[reflect.Type]*Serializer
	descs    map[reflect.Type]*member.Descriptor
}

// Lookup implements Source.
// Serializers are only added to the cache once the whole build succeeded.
func (r *Registry) Lookup(ty reflect.Type) (*Serializer, error) {
	if s, ok := r.cache.Load(ty); ok {
		return s.(*Serializer), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.lookupLocked(ty)
	if err != nil {
		r.building = make(map[reflect.Type]*Serializer)
		return nil, err
	}

	for t, built := range r.building {
		r.cache.Store(t, built)
	}
	r.building = make(map[reflect.Type]*Serializer)
	return s, nil
}

// Serializer returns the Serializer for ty.
func (r *Registry) Serializer(ty reflect.Type) (Serializer, error) {
	s, err := r.Lookup(ty)
	if err != nil {
		return nil, err
	}
	return *s, nil
}

// Register sets the descriptor used for d.Type.
// It fails if a Serializer for the type has already been built.
func (r *Registry) Register(d *member.Descriptor) error {
	if d == nil {
		return encio.NewError(encio.ErrNilPointer, "cannot register a nil descriptor", "")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cache.Load(d.Type); ok {
		return encio.Errorf(encio.ErrBadConfig, "%v is already in use and cannot be registered", d.Type)
	}
	r.descs[d.Type] = d
	return nil
}

// Describe discovers the members of the struct type ty and registers the result.
func (r *Registry) Describe(ty reflect.Type, opts ...member.Option) (*member.Descriptor, error) {
	d, err := member.Discover(ty, opts...)
	if err != nil {
		return nil, err
	}
	return d, r.Register(d)
}

// Pack writes v. A nil interface is written as Nil.
func (r *Registry) Pack(w *wire.Writer, v interface{}) error {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return w.PackNil()
	}
	s, err := r.Lookup(rv.Type())
	if err != nil {
		return err
	}
	return (*s).PackTo(w, rv)
}

// Unpack reads the next value of src into v, which must be a non-nil pointer.
// Errors reading the first header are returned unchanged, so a clean end of stream is io.EOF.
func (r *Registry) Unpack(src wire.Source, v interface{}) error {
	rv, err := target(v)
	if err != nil {
		return err
	}
	s, err := r.Lookup(rv.Type())
	if err != nil {
		return err
	}

	h, err := src.ReadHeader()
	if err != nil {
		return err
	}
	return unpackNested(src, h, *s, rv)
}

// UnpackHeader is Unpack for a value whose header h has already been read.
func (r *Registry) UnpackHeader(src wire.Source, h wire.Header, v interface{}) error {
	rv, err := target(v)
	if err != nil {
		return err
	}
	s, err := r.Lookup(rv.Type())
	if err != nil {
		return err
	}
	return unpackNested(src, h, *s, rv)
}

func target(v interface{}) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr {
		return reflect.Value{}, encio.Errorf(encio.ErrBadType, "values must be passed by reference, not as %T", v)
	}
	if rv.IsNil() {
		return reflect.Value{}, encio.NewError(encio.ErrNilPointer, fmt.Sprintf("cannot unpack into a nil %T", v), "")
	}
	return rv.Elem(), nil
}

// lookupLocked returns the Serializer for ty, building it if needed. r.mu must be held.
func (r *Registry) lookupLocked(ty reflect.Type) (*Serializer, error) {
	if ty == nil {
		return nil, encio.NewError(encio.ErrBadType, "cannot serialize a nil type", "")
	}
	if s, ok := r.cache.Load(ty); ok {
		return s.(*Serializer), nil
	}
	if s, ok := r.building[ty]; ok {
		// ty is recursive; s is filled in once its outermost build returns.
		return s, nil
	}

	slot := new(Serializer)
	r.building[ty] = slot

	s, err := r.newSerializer(ty)
	if err != nil {
		return nil, err
	}
	*slot = s

	r.logger.Debug("built serializer",
		zap.Stringer("type", ty),
		zap.String("serializer", fmt.Sprintf("%T", s)),
	)
	return slot, nil
}

// locked is the Source handed to Serializers built while r.mu is held.
type locked struct {
	r *Registry
}

func (l locked) Lookup(ty reflect.Type) (*Serializer, error) { return l.r.lookupLocked(ty) }

func (r *Registry) modeFor(ty reflect.Type) member.Mode {
	if mode, ok := r.config.TypeModes[ty]; ok {
		return mode
	}
	return r.config.Mode
}

// newSerializer resolves the capability of ty once: value.Value, self-coded, registered descriptor,
// binary marshaler, then by kind.
// Packing and unpacking are resolved separately, so a type that only packs itself still unpacks the way
// the rest of the order would have it, and the other way round.
func (r *Registry) newSerializer(ty reflect.Type) (Serializer, error) {
	if ty == valueType {
		return NewValue(), nil
	}
	if ty.Kind() != reflect.Ptr && ty.Kind() != reflect.Interface {
		switch packs, unpacks := selfCapabilities(ty); {
		case packs && unpacks:
			return NewSelf(ty, nil), nil
		case packs || unpacks:
			fallback, err := r.newFallback(ty)
			if err != nil {
				return nil, err
			}
			return NewSelf(ty, fallback), nil
		}
	}
	return r.newFallback(ty)
}

// newFallback resolves ty by everything after self-coding.
func (r *Registry) newFallback(ty reflect.Type) (Serializer, error) {
	src := locked{r: r}
	concrete := ty.Kind() != reflect.Ptr && ty.Kind() != reflect.Interface

	switch {
	case r.descs[ty] != nil:
		return NewObject(r.descs[ty], r.modeFor(ty), r.config.StrictArity, src)
	case concrete && implementsBinaryMarshaler(ty):
		return NewBinaryMarshaler(ty), nil
	}

	switch ty.Kind() {
	case reflect.Bool:
		return NewBool(ty), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return NewNumber(ty), nil
	case reflect.String:
		return NewString(ty), nil
	case reflect.Slice:
		if ty.Elem().Kind() == reflect.Uint8 {
			return NewBytes(ty), nil
		}
		return NewSlice(ty, src)
	case reflect.Array:
		if ty.Elem().Kind() == reflect.Uint8 {
			return NewBytes(ty), nil
		}
		return NewArray(ty, src)
	case reflect.Map:
		return NewMap(ty, src, r.config.SortMapKeys)
	case reflect.Ptr:
		return NewPointer(ty, src)
	case reflect.Interface:
		// Dynamic types are looked up at pack time, outside the build lock.
		return NewInterface(ty, r), nil
	case reflect.Struct:
		d, err := member.Discover(ty)
		if err != nil {
			return nil, err
		}
		return NewObject(d, r.modeFor(ty), r.config.StrictArity, src)
	}

	return nil, encio.Errorf(encio.ErrBadType, "cannot serialize %v of kind %v", ty, ty.Kind())
}
