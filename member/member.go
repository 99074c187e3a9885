// Package member describes the serializable members of a type.
//
// A Descriptor is an ordered list of Members, each a Contract (name, type, nil implication) paired with an Accessor
// (optional getter and setter). Descriptors are usually discovered from struct fields and tags with Discover,
// but can also be assembled by hand with NewDescriptor for types whose layout is decided elsewhere.
// A Descriptor never changes once built.
package member

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/nilimpl"
)

// Mode is how an object is laid out on the wire.
type Mode uint8

// Modes.
const (
	// Inherit uses the mode configured for the serialization context.
	Inherit Mode = iota

	// AsArray writes members positionally without names.
	AsArray

	// AsMap writes each member preceded by its name.
	AsMap
)

func (m Mode) String() string {
	switch m {
	case Inherit:
		return "inherit"
	case AsArray:
		return "array"
	case AsMap:
		return "map"
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// ParseMode returns the Mode named s; "array" or "map", ignoring case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inherit":
		return Inherit, nil
	case "array", "asarray":
		return AsArray, nil
	case "map", "asmap":
		return AsMap, nil
	}
	return Inherit, encio.Errorf(encio.ErrBadConfig, "unknown mode %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Contract is what a member promises about itself.
type Contract struct {
	// Name is written before the value in AsMap mode. An empty Name makes the member anonymous;
	// it is positional only and its name is written as Nil.
	Name string

	Type           reflect.Type
	NilImplication nilimpl.Policy

	// Default is the value used by the UseDefaultOnUnpack policy. It may be invalid.
	Default reflect.Value
}

// Accessor reads and writes a member of an object.
// obj is always the object value itself, not a pointer to it.
type Accessor struct {
	Get func(obj reflect.Value) reflect.Value
	Set func(obj reflect.Value, v reflect.Value)
}

// Member is a Contract and its Accessor.
type Member struct {
	Contract
	Accessor
}

// CanGet reports whether the member has a getter.
func (m Member) CanGet() bool { return m.Get != nil }

// CanSet reports whether the member has a setter.
func (m Member) CanSet() bool { return m.Set != nil }

// IsHole reports whether the member is an anonymous placeholder with no accessor at all.
// Holes are written as Nil and whatever is read for them is discarded.
func (m Member) IsHole() bool { return m.Get == nil && m.Set == nil }

// InPlace reports whether the member is populated in place: it has a getter but no setter,
// and its type is a collection that can be filled without replacing it, a map or a pointer to a slice.
func (m Member) InPlace() bool {
	if m.Get == nil || m.Set != nil || m.Type == nil {
		return false
	}
	return isInPlaceType(m.Type)
}

func isInPlaceType(ty reflect.Type) bool {
	switch ty.Kind() {
	case reflect.Map:
		return true
	case reflect.Ptr:
		return ty.Elem().Kind() == reflect.Slice
	}
	return false
}

// Site returns the nil implication site of the member in declaring.
func (m Member) Site(declaring reflect.Type) nilimpl.Site {
	return nilimpl.Site{
		Declaring: declaring,
		Name:      m.Name,
		Type:      m.Type,
		Default:   m.Default,
	}
}

// Hole returns an anonymous member with neither getter nor setter.
func Hole() Member { return Member{} }
