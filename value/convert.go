package value

import (
	"encoding/hex"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/stewi1014/mpk/encio"
)

// FromInterface converts plain Go data to a Value.
//
// Supported are nil, bool, every integer and float kind, string, []byte, Value, slices, arrays and maps of supported types,
// and pointers to them. Go maps are emitted in sorted key order so conversion is deterministic.
func FromInterface(i interface{}) (Value, error) {
	switch v := i.(type) {
	case nil:
		return NilValue, nil
	case Value:
		return v, nil
	case bool:
		return Boolean(v), nil
	case string:
		return Str(v), nil
	case []byte:
		return Bin(v), nil
	case int:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint64:
		return Uint(v), nil
	case float64:
		return Float64Value(v), nil
	case float32:
		return Float32Value(v), nil
	}
	return fromReflect(reflect.ValueOf(i))
}

func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Invalid:
		return NilValue, nil
	case reflect.Bool:
		return Boolean(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint(rv.Uint()), nil
	case reflect.Float32:
		return Float32Value(float32(rv.Float())), nil
	case reflect.Float64:
		return Float64Value(rv.Float()), nil
	case reflect.String:
		return Str(rv.String()), nil
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return NilValue, nil
		}
		return fromReflect(rv.Elem())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return NilValue, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			for i := range b {
				b[i] = byte(rv.Index(i).Uint())
			}
			return Bin(b), nil
		}
		elems := make([]Value, rv.Len())
		for i := range elems {
			elem, err := fromReflect(rv.Index(i))
			if err != nil {
				return NilValue, err
			}
			elems[i] = elem
		}
		return ArrayOf(elems...), nil
	case reflect.Map:
		if rv.IsNil() {
			return NilValue, nil
		}
		pairs := make([]Pair, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, err := fromReflect(iter.Key())
			if err != nil {
				return NilValue, err
			}
			val, err := fromReflect(iter.Value())
			if err != nil {
				return NilValue, err
			}
			pairs = append(pairs, Pair{Key: k, Value: val})
		}
		sort.SliceStable(pairs, func(i, j int) bool { return Less(pairs[i].Key, pairs[j].Key) })
		return MapOf(pairs...), nil
	}
	return NilValue, encio.Errorf(encio.ErrBadType, "cannot convert %v", rv.Type())
}

// Less orders Values by kind, then by content. It exists to make map conversion deterministic.
func Less(a, b Value) bool {
	if a.kind != b.kind {
		return a.kind < b.kind
	}
	switch a.kind {
	case Integer:
		if a.neg != b.neg {
			return a.neg
		}
		if a.neg {
			return int64(a.bits) < int64(b.bits)
		}
		return a.bits < b.bits
	case Float32, Float64:
		fa, _ := a.Float()
		fb, _ := b.Float()
		return fa < fb
	case Bool:
		return a.bits < b.bits
	case String, Binary:
		return string(a.raw) < string(b.raw)
	}
	return a.String() < b.String()
}

// Interface converts v to plain Go data.
//
// Nil is nil, integers are int64 when they fit and uint64 otherwise, floats keep their precision,
// strings are string and binaries []byte. Arrays are []interface{}. Maps whose keys are all strings are
// map[string]interface{}; other maps are map[interface{}]interface{} with unhashable keys rendered in diagnostic notation.
// Duplicate keys resolve last-write-wins.
func (v Value) Interface() interface{} {
	switch v.kind {
	case Nil:
		return nil
	case Bool:
		return v.Bool()
	case Integer:
		if n, ok := v.Int64(); ok {
			return n
		}
		return v.bits
	case Float32:
		return math.Float32frombits(uint32(v.bits))
	case Float64:
		return math.Float64frombits(v.bits)
	case String:
		return string(v.raw)
	case Binary:
		return v.raw
	case Array:
		out := make([]interface{}, len(v.array))
		for i, e := range v.array {
			out[i] = e.Interface()
		}
		return out
	case Map:
		stringKeys := true
		for _, p := range v.pairs {
			if p.Key.kind != String {
				stringKeys = false
				break
			}
		}
		if stringKeys {
			out := make(map[string]interface{}, len(v.pairs))
			for _, p := range v.pairs {
				out[string(p.Key.raw)] = p.Value.Interface()
			}
			return out
		}
		out := make(map[interface{}]interface{}, len(v.pairs))
		for _, p := range v.pairs {
			var key interface{}
			switch p.Key.kind {
			case Binary, Array, Map:
				key = p.Key.String()
			default:
				key = p.Key.Interface()
			}
			out[key] = p.Value.Interface()
		}
		return out
	}
	return nil
}

// String renders v in diagnostic notation, e.g. [true, nil, 1, "a", h'0102', {"k": 1.5}].
func (v Value) String() string {
	var sb strings.Builder
	v.writeDiag(&sb)
	return sb.String()
}

func (v Value) writeDiag(sb *strings.Builder) {
	switch v.kind {
	case Nil:
		sb.WriteString("nil")
	case Bool:
		sb.WriteString(strconv.FormatBool(v.Bool()))
	case Integer:
		if v.neg {
			sb.WriteString(strconv.FormatInt(int64(v.bits), 10))
		} else {
			sb.WriteString(strconv.FormatUint(v.bits, 10))
		}
	case Float32:
		sb.WriteString(strconv.FormatFloat(float64(math.Float32frombits(uint32(v.bits))), 'g', -1, 32))
		sb.WriteString("_f32")
	case Float64:
		sb.WriteString(strconv.FormatFloat(math.Float64frombits(v.bits), 'g', -1, 64))
	case String:
		sb.WriteString(strconv.Quote(string(v.raw)))
	case Binary:
		sb.WriteString("h'")
		sb.WriteString(hex.EncodeToString(v.raw))
		sb.WriteString("'")
	case Array:
		sb.WriteByte('[')
		for i, e := range v.array {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.writeDiag(sb)
		}
		sb.WriteByte(']')
	case Map:
		sb.WriteByte('{')
		for i, p := range v.pairs {
			if i > 0 {
				sb.WriteString(", ")
			}
			p.Key.writeDiag(sb)
			sb.WriteString(": ")
			p.Value.writeDiag(sb)
		}
		sb.WriteByte('}')
	}
}
