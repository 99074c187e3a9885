// Package nilimpl decides what a nil means for a member.
//
// Each member carries a Policy. The engine calls OnPacking when it is about to write a member value,
// and OnUnpacked when the wire value of a member is Nil. Both are pure; they only report a decision.
package nilimpl

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/stewi1014/mpk/encio"
)

// Policy is a nil implication policy.
type Policy uint8

// Policies.
const (
	// MemberDefault writes nil as Nil and leaves the member at its default when Nil is read.
	MemberDefault Policy = iota

	// Null writes nil as Nil and assigns nil when Nil is read. The member type must be nillable.
	Null

	// Prohibit fails both when packing a nil and when reading Nil.
	Prohibit

	// UseDefaultOnUnpack writes nil as Nil and assigns the member's declared default when Nil is read.
	UseDefaultOnUnpack

	// PackAsNil writes zero values as Nil too, and assigns the zero value when Nil is read.
	PackAsNil
)

var names = [...]string{
	MemberDefault:      "MemberDefault",
	Null:               "Null",
	Prohibit:           "Prohibit",
	UseDefaultOnUnpack: "UseDefaultOnUnpack",
	PackAsNil:          "PackAsNil",
}

func (p Policy) String() string {
	if int(p) < len(names) {
		return names[p]
	}
	return fmt.Sprintf("Policy(%d)", p)
}

// Parse returns the Policy named s. Matching ignores case, and the short tag forms
// default, null, prohibit, usedefault and packasnil are accepted.
func Parse(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default", "memberdefault":
		return MemberDefault, nil
	case "null":
		return Null, nil
	case "prohibit":
		return Prohibit, nil
	case "usedefault", "usedefaultonunpack":
		return UseDefaultOnUnpack, nil
	case "packasnil":
		return PackAsNil, nil
	}
	return MemberDefault, encio.Errorf(encio.ErrBadConfig, "unknown nil implication %q", s)
}

// Nillable reports whether values of ty can be nil.
func Nillable(ty reflect.Type) bool {
	switch ty.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

// IsNil reports whether v is an invalid or nil value.
func IsNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	if Nillable(v.Type()) {
		return v.IsNil()
	}
	return false
}

// Site is the member a policy is applied to.
type Site struct {
	Declaring reflect.Type
	Name      string
	Type      reflect.Type

	// Default is assigned by UseDefaultOnUnpack. The zero value of Type is used when it is invalid.
	Default reflect.Value
}

// Check returns an error if p cannot be applied to site.
func (p Policy) Check(site Site) error {
	if int(p) >= len(names) {
		return encio.NewMemberError(encio.Errorf(encio.ErrBadConfig, "unknown nil implication %v", p), site.Declaring, site.Name)
	}
	if p == Null && !Nillable(site.Type) {
		return encio.NewMemberError(
			encio.Errorf(encio.ErrBadConfig, "nil implication %v needs a nillable type, not %v", p, site.Type),
			site.Declaring, site.Name,
		)
	}
	if site.Default.IsValid() && !site.Default.Type().AssignableTo(site.Type) {
		return encio.NewMemberError(
			encio.Errorf(encio.ErrBadConfig, "default of type %v is not assignable to %v", site.Default.Type(), site.Type),
			site.Declaring, site.Name,
		)
	}
	return nil
}

func violation(site Site) error {
	return encio.NewMemberError(encio.ErrNilImplicationViolation, site.Declaring, site.Name)
}

// OnPacking reports whether v should be written as Nil.
// It fails if v is nil and p is Prohibit.
func OnPacking(p Policy, site Site, v reflect.Value) (asNil bool, err error) {
	if IsNil(v) {
		if p == Prohibit {
			return true, violation(site)
		}
		return true, nil
	}
	if p == PackAsNil && v.IsZero() {
		return true, nil
	}
	return false, nil
}

// OnUnpacked decides what to do with a member whose wire value is Nil.
// If assign is false the member is left as it is; otherwise v is assigned to it.
func OnUnpacked(p Policy, site Site) (v reflect.Value, assign bool, err error) {
	switch p {
	case MemberDefault:
		return reflect.Value{}, false, nil
	case Prohibit:
		return reflect.Value{}, false, violation(site)
	case UseDefaultOnUnpack:
		if site.Default.IsValid() {
			return site.Default, true, nil
		}
		return reflect.Zero(site.Type), true, nil
	case Null, PackAsNil:
		return reflect.Zero(site.Type), true, nil
	}
	return reflect.Value{}, false, encio.NewMemberError(encio.Errorf(encio.ErrBadConfig, "unknown nil implication %v", p), site.Declaring, site.Name)
}
