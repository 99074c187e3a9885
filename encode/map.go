package encode

import (
	"bytes"
	"reflect"
	"sort"

	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/wire"
)

// NewMap returns a new map Serializer.
// If sortKeys is set, entries are written in the byte order of their encoded keys.
func NewMap(ty reflect.Type, src Source, sortKeys bool) (*Map, error) {
	checkKind(ty, reflect.Map)
	key, err := src.Lookup(ty.Key())
	if err != nil {
		return nil, err
	}
	val, err := src.Lookup(ty.Elem())
	if err != nil {
		return nil, err
	}
	return &Map{
		ty:       ty,
		key:      key,
		val:      val,
		sortKeys: sortKeys,
	}, nil
}

// Map is a Serializer for maps.
// A nil map is written as Nil and Nil unpacks as a nil map.
type Map struct {
	ty       reflect.Type
	key, val *Serializer
	sortKeys bool
}

// Type implements Serializer.
func (e *Map) Type() reflect.Type { return e.ty }

// PackTo implements Serializer.
func (e *Map) PackTo(w *wire.Writer, v reflect.Value) error {
	if v.IsNil() {
		return w.PackNil()
	}

	if err := w.PackMapHeader(v.Len()); err != nil {
		return err
	}

	if e.sortKeys {
		return e.packSorted(w, v)
	}

	iter := v.MapRange()
	for iter.Next() {
		if err := (*e.key).PackTo(w, iter.Key()); err != nil {
			return err
		}
		if err := (*e.val).PackTo(w, iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

type encodedKey struct {
	b   []byte
	val reflect.Value
}

func (e *Map) packSorted(w *wire.Writer, v reflect.Value) error {
	var buff bytes.Buffer
	kw := wire.NewWriter(&buff)

	keys := make([]encodedKey, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		buff.Reset()
		if err := (*e.key).PackTo(kw, iter.Key()); err != nil {
			return err
		}
		keys = append(keys, encodedKey{
			b:   append([]byte(nil), buff.Bytes()...),
			val: iter.Value(),
		})
	}

	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i].b, keys[j].b) < 0 })

	for _, k := range keys {
		if err := w.PackRaw(k.b); err != nil {
			return err
		}
		if err := (*e.val).PackTo(w, k.val); err != nil {
			return err
		}
	}
	return nil
}

// UnpackFrom implements Serializer.
// A new map is always allocated.
func (e *Map) UnpackFrom(src wire.Source, h wire.Header, v reflect.Value) error {
	if h.IsNil() {
		v.Set(reflect.Zero(e.ty))
		return nil
	}
	if !h.IsMapHeader() {
		return mismatch(h, e.ty)
	}

	m := reflect.MakeMapWithSize(e.ty, capHint(h.Count))
	if err := e.fill(src, h.Count, m); err != nil {
		return err
	}
	v.Set(m)
	return nil
}

// UnpackTo implements CollectionSerializer.
// Entries are merged into existing, replacing values of equal keys.
func (e *Map) UnpackTo(src wire.Source, h wire.Header, existing reflect.Value) error {
	if h.IsNil() {
		return nil
	}
	if !h.IsMapHeader() {
		return mismatch(h, e.ty)
	}

	if existing.IsNil() {
		if !existing.CanSet() {
			return encio.NewError(encio.ErrNilPointer, "cannot merge into a nil map", "")
		}
		existing.Set(reflect.MakeMapWithSize(e.ty, capHint(h.Count)))
	}
	return e.fill(src, h.Count, existing)
}

func (e *Map) fill(src wire.Source, n int, m reflect.Value) error {
	for i := 0; i < n; i++ {
		key := reflect.New(e.ty.Key()).Elem()
		if err := e.unpackItem(src, *e.key, key); err != nil {
			return err
		}
		if key.Kind() == reflect.Interface && !key.IsNil() && !key.Elem().Type().Comparable() {
			return encio.Errorf(encio.ErrBadType, "map key of type %v is not hashable", key.Elem().Type())
		}

		val := reflect.New(e.ty.Elem()).Elem()
		if err := e.unpackItem(src, *e.val, val); err != nil {
			return err
		}
		m.SetMapIndex(key, val)
	}
	return nil
}

func (e *Map) unpackItem(src wire.Source, s Serializer, v reflect.Value) error {
	h, err := src.ReadHeader()
	if err != nil {
		return encio.MidValue(err)
	}
	return unpackNested(src, h, s, v)
}
