package member

import (
	"reflect"

	"github.com/samber/lo"

	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/nilimpl"
)

// Descriptor is the resolved member layout of a type.
type Descriptor struct {
	Type    reflect.Type
	Members []Member

	// Constructor is set for types built from parameters.
	Constructor *Constructor

	// New returns a fresh, addressable value of Type for mutable reconstruction.
	New func() reflect.Value

	Mode Mode

	index map[string]int
}

// Index returns the index of the member named name. Names match exactly.
func (d *Descriptor) Index(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// Names returns the member names in order; anonymous members have empty names.
func (d *Descriptor) Names() []string {
	return lo.Map(d.Members, func(m Member, _ int) string { return m.Name })
}

// Option configures a Descriptor.
type Option func(*options) error

type options struct {
	ctor        interface{}
	ctorParams  []Param
	factory     interface{}
	mode        Mode
	nilPolicies map[string]nilimpl.Policy
	defaults    map[string]interface{}
}

// WithConstructor reconstructs the type by calling fn with the named params.
// fn must return the type or a pointer to it, optionally followed by an error.
func WithConstructor(fn interface{}, params ...Param) Option {
	return func(o *options) error {
		o.ctor = fn
		o.ctorParams = params
		return nil
	}
}

// WithFactory makes fresh instances with fn, a func() T or func() *T, instead of the zero value.
func WithFactory(fn interface{}) Option {
	return func(o *options) error {
		o.factory = fn
		return nil
	}
}

// WithMode sets the wire layout of the type, overriding the context's.
func WithMode(mode Mode) Option {
	return func(o *options) error {
		if mode > AsMap {
			return encio.Errorf(encio.ErrBadConfig, "unknown mode %v", mode)
		}
		o.mode = mode
		return nil
	}
}

// WithNilImplication overrides the nil implication of the member called name.
func WithNilImplication(name string, policy nilimpl.Policy) Option {
	return func(o *options) error {
		if o.nilPolicies == nil {
			o.nilPolicies = make(map[string]nilimpl.Policy)
		}
		o.nilPolicies[name] = policy
		return nil
	}
}

// WithDefault sets the value the UseDefaultOnUnpack policy assigns to the member called name.
func WithDefault(name string, def interface{}) Option {
	return func(o *options) error {
		if o.defaults == nil {
			o.defaults = make(map[string]interface{})
		}
		o.defaults[name] = def
		return nil
	}
}

// NewDescriptor validates members and builds a Descriptor for ty.
//
// It fails with ErrBadConfig if a named member has no accessor, names repeat,
// a nil implication cannot apply to its member, or a constructor does not fit the members.
func NewDescriptor(ty reflect.Type, members []Member, opts ...Option) (*Descriptor, error) {
	if ty == nil {
		return nil, encio.NewError(encio.ErrBadType, "cannot describe a nil type", "")
	}

	var o options
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	d := &Descriptor{
		Type:    ty,
		Members: append([]Member(nil), members...),
		Mode:    o.mode,
		index:   make(map[string]int, len(members)),
	}

	for name := range o.nilPolicies {
		if !lo.ContainsBy(d.Members, func(m Member) bool { return m.Name == name }) {
			return nil, encio.Errorf(encio.ErrBadConfig, "%v has no member %q to set a nil implication on", ty, name)
		}
	}
	for name := range o.defaults {
		if !lo.ContainsBy(d.Members, func(m Member) bool { return m.Name == name }) {
			return nil, encio.Errorf(encio.ErrBadConfig, "%v has no member %q to set a default on", ty, name)
		}
	}

	for i := range d.Members {
		m := &d.Members[i]
		if p, ok := o.nilPolicies[m.Name]; ok && m.Name != "" {
			m.NilImplication = p
		}
		if def, ok := o.defaults[m.Name]; ok && m.Name != "" {
			m.Default = reflect.ValueOf(def)
		}
		if m.Default.IsValid() && m.Type != nil && !m.Default.Type().AssignableTo(m.Type) && m.Default.Type().ConvertibleTo(m.Type) {
			m.Default = m.Default.Convert(m.Type)
		}

		if m.IsHole() {
			if m.Name != "" {
				return nil, encio.NewMemberError(encio.Errorf(encio.ErrBadConfig, "named member has neither getter nor setter"), ty, m.Name)
			}
			continue
		}
		if m.Type == nil {
			return nil, encio.NewMemberError(encio.Errorf(encio.ErrBadConfig, "member %v has no type", i), ty, m.Name)
		}
		if err := m.NilImplication.Check(m.Site(ty)); err != nil {
			return nil, err
		}
		if m.Name == "" {
			continue
		}
		if _, dup := d.index[m.Name]; dup {
			return nil, encio.NewMemberError(encio.Errorf(encio.ErrBadConfig, "duplicate member name"), ty, m.Name)
		}
		d.index[m.Name] = i
	}

	if o.ctor != nil {
		ctor, err := newConstructor(ty, o.ctor, o.ctorParams)
		if err != nil {
			return nil, err
		}
		if err := ctor.bind(ty, d.Members); err != nil {
			return nil, err
		}
		d.Constructor = ctor
	}

	newFn, err := factory(ty, o.factory)
	if err != nil {
		return nil, err
	}
	d.New = newFn

	return d, nil
}

func factory(ty reflect.Type, fn interface{}) (func() reflect.Value, error) {
	if fn == nil {
		return func() reflect.Value { return reflect.New(ty).Elem() }, nil
	}

	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func || ft.NumIn() != 0 || ft.NumOut() != 1 {
		return nil, encio.Errorf(encio.ErrBadConfig, "factory for %v must be a func() %v, not %T", ty, ty, fn)
	}

	switch ft.Out(0) {
	case ty:
		return func() reflect.Value {
			v := reflect.New(ty).Elem()
			v.Set(fv.Call(nil)[0])
			return v
		}, nil
	case reflect.PtrTo(ty):
		return func() reflect.Value {
			p := fv.Call(nil)[0]
			if p.IsNil() {
				return reflect.New(ty).Elem()
			}
			return p.Elem()
		}, nil
	}
	return nil, encio.Errorf(encio.ErrBadConfig, "factory returns %v, not %v or *%v", ft.Out(0), ty, ty)
}
