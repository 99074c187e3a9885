package member

import (
	"reflect"
	"strconv"
	"strings"
	"unsafe"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/nilimpl"
)

// StructTag is the struct tag read by Discover.
//
//	Field int `mpk:"name,id=3,nil=prohibit,readonly,include"`
//
// The first element renames the member; empty keeps the field name. "-" skips the field.
// id fixes the position of the member; when one field has an id, every field must have one,
// and unused positions become holes. nil sets the nil implication (default, null, prohibit, usedefault, packasnil).
// readonly drops the setter. include adds an unexported field, which is always read-only.
const StructTag = "mpk"

type fieldTag struct {
	name     string
	id       int
	hasID    bool
	policy   nilimpl.Policy
	readonly bool
	include  bool
	skip     bool
}

func parseTag(ty reflect.Type, field reflect.StructField) (fieldTag, error) {
	tag := fieldTag{name: field.Name}
	str, ok := field.Tag.Lookup(StructTag)
	if !ok {
		return tag, nil
	}
	if str == "-" {
		tag.skip = true
		return tag, nil
	}

	parts := strings.Split(str, ",")
	if parts[0] != "" {
		tag.name = parts[0]
	}
	for _, part := range parts[1:] {
		key, val, _ := strings.Cut(strings.TrimSpace(part), "=")
		switch key {
		case "id":
			id, err := strconv.Atoi(val)
			if err != nil || id < 0 {
				return tag, encio.NewMemberError(encio.Errorf(encio.ErrBadConfig, "bad id %q", val), ty, field.Name)
			}
			tag.id = id
			tag.hasID = true
		case "nil":
			p, err := nilimpl.Parse(val)
			if err != nil {
				return tag, encio.NewMemberError(err, ty, field.Name)
			}
			tag.policy = p
		case "readonly":
			tag.readonly = true
		case "include":
			tag.include = true
		case "":
		default:
			encio.Warnings.Warn("ignoring unknown struct tag option",
				zap.Stringer("type", ty),
				zap.String("field", field.Name),
				zap.String("option", part),
			)
		}
	}
	return tag, nil
}

type taggedField struct {
	field reflect.StructField
	tag   fieldTag
}

// Discover describes the struct type ty from its fields and their mpk tags.
// Exported fields are included in declaration order unless tagged otherwise.
func Discover(ty reflect.Type, opts ...Option) (*Descriptor, error) {
	if ty == nil || ty.Kind() != reflect.Struct {
		return nil, encio.Errorf(encio.ErrBadType, "can only discover members of structs, not %v", ty)
	}

	fields := make([]taggedField, 0, ty.NumField())
	for i := 0; i < ty.NumField(); i++ {
		field := ty.Field(i)
		tag, err := parseTag(ty, field)
		if err != nil {
			return nil, err
		}
		fields = append(fields, taggedField{field: field, tag: tag})
	}

	fields = lo.Filter(fields, func(f taggedField, _ int) bool {
		return !f.tag.skip && (f.field.IsExported() || f.tag.include)
	})

	members, err := layout(ty, fields)
	if err != nil {
		return nil, err
	}
	return NewDescriptor(ty, members, opts...)
}

// layout orders fields into members, honouring ids.
func layout(ty reflect.Type, fields []taggedField) ([]Member, error) {
	withID := lo.CountBy(fields, func(f taggedField) bool { return f.tag.hasID })
	if withID == 0 {
		return lo.Map(fields, func(f taggedField, _ int) Member { return fieldMember(f) }), nil
	}
	if withID != len(fields) {
		missing, _ := lo.Find(fields, func(f taggedField) bool { return !f.tag.hasID })
		return nil, encio.NewMemberError(encio.Errorf(encio.ErrBadConfig, "all fields need an id once one has"), ty, missing.field.Name)
	}

	if dups := lo.FindDuplicatesBy(fields, func(f taggedField) int { return f.tag.id }); len(dups) > 0 {
		return nil, encio.NewMemberError(encio.Errorf(encio.ErrBadConfig, "duplicate id %v", dups[0].tag.id), ty, dups[0].field.Name)
	}

	maxID := lo.MaxBy(fields, func(a, b taggedField) bool { return a.tag.id > b.tag.id }).tag.id
	members := make([]Member, maxID+1)
	for _, f := range fields {
		members[f.tag.id] = fieldMember(f)
	}
	return members, nil
}

func fieldMember(f taggedField) Member {
	m := Member{
		Contract: Contract{
			Name:           f.tag.name,
			Type:           f.field.Type,
			NilImplication: f.tag.policy,
		},
	}

	index := f.field.Index[0]
	if f.field.IsExported() {
		m.Get = func(obj reflect.Value) reflect.Value { return obj.Field(index) }
		if !f.tag.readonly {
			m.Set = func(obj, v reflect.Value) { obj.Field(index).Set(v) }
		}
		return m
	}

	m.Get = unexportedGetter(f.field)
	return m
}

// unexportedGetter reads an unexported field through its offset, so the result is usable as any other value.
// obj must be addressable for that; otherwise the plain, restricted field value is returned.
func unexportedGetter(field reflect.StructField) func(reflect.Value) reflect.Value {
	index, offset, ty := field.Index[0], field.Offset, field.Type
	return func(obj reflect.Value) reflect.Value {
		if !obj.CanAddr() {
			return obj.Field(index)
		}
		return reflect.NewAt(ty, unsafe.Add(obj.Addr().UnsafePointer(), offset)).Elem()
	}
}
