package encode

import (
	"reflect"

	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/wire"
)

var (
	selfPackerType   = reflect.TypeOf((*SelfPacker)(nil)).Elem()
	selfUnpackerType = reflect.TypeOf((*SelfUnpacker)(nil)).Elem()
)

// selfCapabilities reports whether values of t, or pointers to them, pack and unpack themselves.
func selfCapabilities(t reflect.Type) (packs, unpacks bool) {
	pt := reflect.PtrTo(t)
	packs = t.Implements(selfPackerType) || pt.Implements(selfPackerType)
	unpacks = t.Implements(selfUnpackerType) || pt.Implements(selfUnpackerType)
	return
}

// NewSelf returns a Serializer for a type that implements SelfPacker or SelfUnpacker,
// either itself or through a pointer.
// The half t does not implement is handed to fallback, which may be nil when t implements both.
func NewSelf(t reflect.Type, fallback Serializer) *Self {
	packs, unpacks := selfCapabilities(t)
	if !packs && !unpacks {
		panic(encio.Errorf(encio.ErrBadType, "%v implements neither SelfPacker nor SelfUnpacker", t))
	}
	if (!packs || !unpacks) && fallback == nil {
		panic(encio.Errorf(encio.ErrBadType, "%v only codes one direction itself and has no fallback", t))
	}
	return &Self{
		t:         t,
		packs:     packs,
		unpacks:   unpacks,
		packRef:   !t.Implements(selfPackerType),
		unpackRef: !t.Implements(selfUnpackerType),
		fallback:  fallback,
	}
}

// Self is a Serializer that hands values their own Writer or Source.
type Self struct {
	t         reflect.Type
	packs     bool
	unpacks   bool
	packRef   bool
	unpackRef bool
	fallback  Serializer
}

// Type implements Serializer.
func (e *Self) Type() reflect.Type { return e.t }

// PackTo implements Serializer.
func (e *Self) PackTo(w *wire.Writer, v reflect.Value) error {
	if !e.packs {
		return e.fallback.PackTo(w, v)
	}
	if e.packRef {
		v = addressable(v).Addr()
	}
	return v.Interface().(SelfPacker).PackMsg(w)
}

// UnpackFrom implements Serializer.
func (e *Self) UnpackFrom(src wire.Source, h wire.Header, v reflect.Value) error {
	if !e.unpacks {
		return e.fallback.UnpackFrom(src, h, v)
	}
	if e.unpackRef {
		v = v.Addr()
	}
	return v.Interface().(SelfUnpacker).UnpackMsg(src, h)
}
