package encode

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/member"
	"github.com/stewi1014/mpk/nilimpl"
	"github.com/stewi1014/mpk/value"
	"github.com/stewi1014/mpk/wire"
)

// NewObject returns a Serializer for the type described by desc.
// mode is used when desc does not set its own; AsArray if neither does.
// With strict set, arrays with fewer items than members fail with ErrMissingItem.
func NewObject(desc *member.Descriptor, mode member.Mode, strict bool, src Source) (*Object, error) {
	if desc.Mode != member.Inherit {
		mode = desc.Mode
	}
	if mode == member.Inherit {
		mode = member.AsArray
	}

	e := &Object{
		ty:      desc.Type,
		desc:    desc,
		mode:    mode,
		strict:  strict,
		members: make([]*Serializer, len(desc.Members)),
	}
	for i, m := range desc.Members {
		if m.IsHole() {
			continue
		}
		s, err := src.Lookup(m.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "member %v of %v", memberName(m, i), desc.Type)
		}
		e.members[i] = s
	}
	return e, nil
}

// Object is a Serializer for types with a member.Descriptor.
//
// In AsArray mode members are written positionally, holes included, so the layout can evolve by appending.
// In AsMap mode each member is preceded by its name; unknown names and extra items are skipped on unpack.
// Unpacking builds a fresh instance, or collects constructor arguments and calls the constructor,
// and replaces the target with it.
type Object struct {
	ty      reflect.Type
	desc    *member.Descriptor
	mode    member.Mode
	strict  bool
	members []*Serializer
}

// Type implements Serializer.
func (e *Object) Type() reflect.Type { return e.ty }

// Mode returns the resolved wire layout.
func (e *Object) Mode() member.Mode { return e.mode }

// Descriptor returns the descriptor the Object was built from.
func (e *Object) Descriptor() *member.Descriptor { return e.desc }

func memberName(m member.Member, i int) string {
	if m.Name == "" {
		return fmt.Sprintf("#%d", i)
	}
	return fmt.Sprintf("%q", m.Name)
}

func (e *Object) wrap(err error, i int) error {
	return errors.Wrapf(err, "%v member %v", e.ty, memberName(e.desc.Members[i], i))
}

// PackTo implements Serializer.
func (e *Object) PackTo(w *wire.Writer, v reflect.Value) error {
	obj := addressable(v)
	n := len(e.desc.Members)

	var err error
	if e.mode == member.AsMap {
		err = w.PackMapHeader(n)
	} else {
		err = w.PackArrayHeader(n)
	}
	if err != nil {
		return err
	}

	for i, m := range e.desc.Members {
		if e.mode == member.AsMap {
			if m.Name == "" {
				err = w.PackNil()
			} else {
				err = w.PackString(m.Name)
			}
			if err != nil {
				return err
			}
		}

		if !m.CanGet() {
			if err := w.PackNil(); err != nil {
				return err
			}
			continue
		}

		mv := m.Get(obj)
		asNil, err := nilimpl.OnPacking(m.NilImplication, m.Site(e.ty), mv)
		if err != nil {
			return err
		}
		if asNil {
			err = w.PackNil()
		} else {
			err = (*e.members[i]).PackTo(w, mv)
		}
		if err != nil {
			return e.wrap(err, i)
		}
	}
	return nil
}

// unpacking is the state of one UnpackFrom call.
type unpacking struct {
	obj reflect.Value

	// Constructor types collect arguments, and postpone the members they must set on the result.
	slots    []reflect.Value
	given    []bool
	deferred []deferredMember
}

type deferredMember struct {
	index int
	set   reflect.Value
	wire  value.Value
}

// UnpackFrom implements Serializer.
func (e *Object) UnpackFrom(src wire.Source, h wire.Header, v reflect.Value) error {
	if h.IsNil() {
		v.Set(reflect.Zero(e.ty))
		return nil
	}
	if !h.IsContainer() {
		return mismatch(h, e.ty)
	}

	var u unpacking
	if ctor := e.desc.Constructor; ctor != nil {
		u.slots = ctor.Slots()
		u.given = make([]bool, len(u.slots))
	} else {
		u.obj = e.desc.New()
	}

	var err error
	if h.IsMapHeader() {
		err = e.unpackMap(src, h.Count, &u)
	} else {
		err = e.unpackArray(src, h.Count, &u)
	}
	if err != nil {
		return err
	}

	if ctor := e.desc.Constructor; ctor != nil {
		if u.obj, err = ctor.Call(e.ty, u.slots, u.given); err != nil {
			return err
		}
		for _, d := range u.deferred {
			if err := e.applyDeferred(d, u.obj); err != nil {
				return e.wrap(err, d.index)
			}
		}
	}

	v.Set(u.obj)
	return nil
}

func (e *Object) unpackArray(src wire.Source, count int, u *unpacking) error {
	n := len(e.desc.Members)
	if e.strict && count < n {
		return encio.NewMissingItem(count, nil)
	}

	for i := 0; i < count; i++ {
		if i >= n {
			if err := src.Skip(); err != nil {
				return missing(i, err)
			}
			continue
		}

		mh, err := src.ReadHeader()
		if err != nil {
			return missing(i, err)
		}
		if err := e.unpackMember(src, i, mh, u); err != nil {
			return e.wrap(err, i)
		}
	}
	return nil
}

func (e *Object) unpackMap(src wire.Source, count int, u *unpacking) error {
	for i := 0; i < count; i++ {
		kh, err := src.ReadHeader()
		if err != nil {
			return missing(i, err)
		}

		idx, known := -1, false
		switch {
		case kh.IsNil():
		case kh.Kind.IsRaw():
			idx, known = e.desc.Index(kh.Value.Text())
		default:
			if err := discard(src, kh); err != nil {
				return missing(i, err)
			}
		}

		if !known {
			if err := src.Skip(); err != nil {
				return missing(i, encio.MidValue(err))
			}
			continue
		}

		mh, err := src.ReadHeader()
		if err != nil {
			return missing(i, encio.MidValue(err))
		}
		if err := e.unpackMember(src, idx, mh, u); err != nil {
			return e.wrap(err, idx)
		}
	}
	return nil
}

// missing reports a container that ran out of items before position pos.
func missing(pos int, err error) error {
	if encio.IsEndOfStream(err) || errors.Is(err, encio.ErrSubtreeExhausted) {
		return encio.NewMissingItem(pos, err)
	}
	return err
}

// unpackMember handles member i, whose header h has been read.
func (e *Object) unpackMember(src wire.Source, i int, h wire.Header, u *unpacking) error {
	m := e.desc.Members[i]
	if m.IsHole() {
		return discard(src, h)
	}

	ctor := e.desc.Constructor
	var slot int
	hasSlot := false
	if ctor != nil {
		slot, hasSlot = ctor.Slot(i)
	}

	if h.IsNil() {
		val, assign, err := nilimpl.OnUnpacked(m.NilImplication, m.Site(e.ty))
		if err != nil {
			return err
		}
		switch {
		case hasSlot:
			u.given[slot] = true
			if assign {
				u.slots[slot] = val
			}
		case !assign || !m.CanSet():
		case ctor != nil:
			u.deferred = append(u.deferred, deferredMember{index: i, set: val})
		default:
			m.Set(u.obj, val)
		}
		return nil
	}

	switch {
	case hasSlot:
		arg := reflect.New(m.Type).Elem()
		if err := unpackNested(src, h, *e.members[i], arg); err != nil {
			return err
		}
		u.slots[slot] = arg
		u.given[slot] = true
		return nil

	case ctor != nil && (m.CanSet() || m.InPlace()):
		val, err := materialize(src, h)
		if err != nil {
			return err
		}
		u.deferred = append(u.deferred, deferredMember{index: i, wire: val})
		return nil
	}

	return e.apply(src, i, h, u.obj)
}

// apply reads member i of obj from h, through its setter or in place.
func (e *Object) apply(src wire.Source, i int, h wire.Header, obj reflect.Value) error {
	m := e.desc.Members[i]
	switch {
	case m.CanSet():
		mv := reflect.New(m.Type).Elem()
		if err := unpackNested(src, h, *e.members[i], mv); err != nil {
			return err
		}
		m.Set(obj, mv)
		return nil

	case m.InPlace():
		existing := m.Get(obj)
		if existing.IsNil() {
			return encio.NewMemberError(encio.ErrReadOnlyMemberMustNotBeNull, e.ty, m.Name)
		}
		coll, ok := (*e.members[i]).(CollectionSerializer)
		if !ok {
			return discard(src, h)
		}
		return mergeNested(src, h, coll, existing)
	}

	// Getter only; the value is written but never read back.
	return discard(src, h)
}

func (e *Object) applyDeferred(d deferredMember, obj reflect.Value) error {
	if d.set.IsValid() {
		e.desc.Members[d.index].Set(obj, d.set)
		return nil
	}

	var buff bytes.Buffer
	if err := wire.NewWriter(&buff).PackValue(d.wire); err != nil {
		return err
	}
	r := wire.NewReader(&buff)
	h, err := r.ReadHeader()
	if err != nil {
		return err
	}
	return e.apply(r, d.index, h, obj)
}

// materialize reads the value of h whole, bounded to its items.
func materialize(src wire.Source, h wire.Header) (value.Value, error) {
	if !h.IsContainer() {
		return h.Value, nil
	}
	st, err := src.EnterSubtree(h)
	if err != nil {
		return value.NilValue, err
	}
	val, err := wire.ValueOf(st, h)
	if err != nil {
		return value.NilValue, err
	}
	return val, st.Close()
}
