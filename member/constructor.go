package member

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/samber/lo"

	"github.com/stewi1014/mpk/encio"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Param is one parameter of a constructor.
type Param struct {
	// Name is matched against member names, ignoring case.
	Name string

	// Type is taken from the constructor function.
	Type reflect.Type

	// Default is passed when the wire has no value for the parameter. The zero value of Type is used when it is invalid.
	Default reflect.Value

	// Required parameters without a Default must be present on the wire.
	Required bool
}

// Required returns a Param that must be read from the wire.
func Required(name string) Param {
	return Param{Name: name, Required: true}
}

// Optional returns a Param that falls back to def when the wire has no value for it.
// A nil def falls back to the zero value.
func Optional(name string, def interface{}) Param {
	p := Param{Name: name}
	if def != nil {
		p.Default = reflect.ValueOf(def)
	}
	return p
}

// Constructor builds an object from parameters rather than setting members one by one.
//
// Unpacking a constructor type fills a slot per parameter as members are read, then calls Func once.
// Members with a setter but no parameter are set on the constructed object afterwards.
type Constructor struct {
	Func   reflect.Value
	Params []Param

	// Args maps member index to parameter slot.
	Args map[int]int

	returnsPtr bool
	returnsErr bool
}

func newConstructor(ty reflect.Type, fn interface{}, params []Param) (*Constructor, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		return nil, encio.Errorf(encio.ErrBadConfig, "constructor for %v must be a non-nil function, not %T", ty, fn)
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		return nil, encio.Errorf(encio.ErrBadConfig, "constructor %v for %v cannot be variadic", ft, ty)
	}
	if ft.NumIn() != len(params) {
		return nil, encio.Errorf(encio.ErrBadConfig, "constructor %v for %v takes %v parameters but %v were named", ft, ty, ft.NumIn(), len(params))
	}

	c := &Constructor{
		Func:   fv,
		Params: make([]Param, len(params)),
		Args:   make(map[int]int),
	}

	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
		c.returnsErr = true
	default:
		return nil, encio.Errorf(encio.ErrBadConfig, "constructor %v for %v must return %v, optionally with an error", ft, ty, ty)
	}
	switch ft.Out(0) {
	case ty:
	case reflect.PtrTo(ty):
		c.returnsPtr = true
	default:
		return nil, encio.Errorf(encio.ErrBadConfig, "constructor %v does not return %v or *%v", ft, ty, ty)
	}

	for i, p := range params {
		p.Type = ft.In(i)
		if p.Default.IsValid() {
			if !p.Default.Type().AssignableTo(p.Type) {
				if !p.Default.Type().ConvertibleTo(p.Type) {
					return nil, encio.Errorf(encio.ErrBadConfig, "default %v for parameter %q is not assignable to %v", p.Default.Type(), p.Name, p.Type)
				}
				p.Default = p.Default.Convert(p.Type)
			}
		}
		c.Params[i] = p
	}

	if dups := lo.FindDuplicatesBy(c.Params, func(p Param) string { return strings.ToLower(p.Name) }); len(dups) > 0 {
		return nil, encio.Errorf(encio.ErrBadConfig, "constructor for %v names parameter %q twice", ty, dups[0].Name)
	}

	return c, nil
}

// bind maps members to parameters by name, ignoring case, and identical type.
func (c *Constructor) bind(ty reflect.Type, members []Member) error {
	for slot, p := range c.Params {
		_, idx, ok := lo.FindIndexOf(members, func(m Member) bool {
			return m.Name != "" && strings.EqualFold(m.Name, p.Name) && m.Type == p.Type
		})
		if !ok {
			if p.Required && !p.Default.IsValid() {
				return encio.NewMemberError(
					encio.Errorf(encio.ErrConstructorArgumentUnresolved, "no member of type %v matches required parameter %v", p.Type, slot),
					ty, p.Name,
				)
			}
			continue
		}
		c.Args[idx] = slot
	}
	return nil
}

// Slots returns a fresh argument slot array, each slot holding its parameter's default.
func (c *Constructor) Slots() []reflect.Value {
	slots := make([]reflect.Value, len(c.Params))
	for i, p := range c.Params {
		if p.Default.IsValid() {
			slots[i] = p.Default
		} else {
			slots[i] = reflect.Zero(p.Type)
		}
	}
	return slots
}

// Call invokes the constructor. given reports which slots were read from the wire.
// It returns an addressable value of the constructed type.
func (c *Constructor) Call(ty reflect.Type, slots []reflect.Value, given []bool) (reflect.Value, error) {
	for i, p := range c.Params {
		if p.Required && !given[i] && !p.Default.IsValid() {
			return reflect.Value{}, encio.NewMemberError(encio.ErrConstructorArgumentUnresolved, ty, p.Name)
		}
	}

	out := c.Func.Call(slots)
	if c.returnsErr && !out[1].IsNil() {
		return reflect.Value{}, encio.NewError(out[1].Interface().(error), fmt.Sprintf("constructing %v", ty), "")
	}

	if c.returnsPtr {
		if out[0].IsNil() {
			return reflect.Value{}, encio.NewError(encio.ErrNilPointer, fmt.Sprintf("constructor for %v returned nil", ty), "")
		}
		return out[0].Elem(), nil
	}

	v := reflect.New(ty).Elem()
	v.Set(out[0])
	return v, nil
}

// Slot returns the parameter slot of member index i.
func (c *Constructor) Slot(i int) (int, bool) {
	slot, ok := c.Args[i]
	return slot, ok
}
