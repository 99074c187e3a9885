// Package value is the tagged-union representation of any decoded MessagePack value.
//
// A Value is pure data. It has no behaviour beyond construction, classification and comparison;
// reading and writing Values is the job of package wire.
package value

import (
	"math"
)

// Kind is the kind of a Value.
type Kind uint8

// Kinds of Value.
const (
	Nil Kind = iota
	Bool
	Integer
	Float32
	Float64
	String
	Binary
	Array
	Map
)

var kindNames = [...]string{
	Nil:     "nil",
	Bool:    "bool",
	Integer: "integer",
	Float32: "float32",
	Float64: "float64",
	String:  "string",
	Binary:  "binary",
	Array:   "array",
	Map:     "map",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// IsRaw reports whether k is one of the two raw sub-kinds, String or Binary.
func (k Kind) IsRaw() bool { return k == String || k == Binary }

// IsContainer reports whether k is Array or Map.
func (k Kind) IsContainer() bool { return k == Array || k == Map }

// Pair is one entry of a Map.
type Pair struct {
	Key   Value
	Value Value
}

// Value is one MessagePack value. The zero Value is Nil.
type Value struct {
	kind Kind

	// bits holds bool (0/1), integer two's complement bits, or float bits.
	bits uint64
	// neg is set for negative integers; bits is then the int64 representation.
	neg bool

	raw   []byte
	array []Value
	pairs []Pair
}

// NilValue is the Nil Value.
var NilValue = Value{}

// Boolean returns a Bool Value.
func Boolean(b bool) Value {
	v := Value{kind: Bool}
	if b {
		v.bits = 1
	}
	return v
}

// Int returns an Integer Value.
func Int(n int64) Value {
	return Value{kind: Integer, bits: uint64(n), neg: n < 0}
}

// Uint returns an Integer Value.
func Uint(n uint64) Value {
	return Value{kind: Integer, bits: n}
}

// Float32Value returns a Float32 Value.
func Float32Value(f float32) Value {
	return Value{kind: Float32, bits: uint64(math.Float32bits(f))}
}

// Float64Value returns a Float64 Value.
func Float64Value(f float64) Value {
	return Value{kind: Float64, bits: math.Float64bits(f)}
}

// Str returns a String Value holding the UTF-8 bytes of s.
func Str(s string) Value {
	return Value{kind: String, raw: []byte(s)}
}

// StrBytes returns a String Value holding b. b is not copied.
func StrBytes(b []byte) Value {
	return Value{kind: String, raw: b}
}

// Bin returns a Binary Value holding b. b is not copied.
func Bin(b []byte) Value {
	return Value{kind: Binary, raw: b}
}

// ArrayOf returns an Array Value of elems.
func ArrayOf(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{kind: Array, array: elems}
}

// MapOf returns a Map Value of pairs, in the given order. Duplicate keys are kept.
func MapOf(pairs ...Pair) Value {
	if pairs == nil {
		pairs = []Pair{}
	}
	return Value{kind: Map, pairs: pairs}
}

// Kind returns the Kind of v.
func (v Value) Kind() Kind { return v.kind }

// IsNil reports whether v is Nil.
func (v Value) IsNil() bool { return v.kind == Nil }

// IsArray reports whether v is an Array.
func (v Value) IsArray() bool { return v.kind == Array }

// IsMap reports whether v is a Map.
func (v Value) IsMap() bool { return v.kind == Map }

// IsRaw reports whether v is a String or Binary.
func (v Value) IsRaw() bool { return v.kind.IsRaw() }

// IsContainer reports whether v is an Array or a Map.
func (v Value) IsContainer() bool { return v.kind.IsContainer() }

// Bool returns the boolean held by v; false for any other kind.
func (v Value) Bool() bool { return v.kind == Bool && v.bits != 0 }

// IsNegative reports whether v is a negative Integer.
func (v Value) IsNegative() bool { return v.kind == Integer && v.neg }

// Int64 returns v as an int64 and whether it fits.
func (v Value) Int64() (int64, bool) {
	if v.kind != Integer {
		return 0, false
	}
	if v.neg {
		return int64(v.bits), true
	}
	return int64(v.bits), v.bits <= math.MaxInt64
}

// Uint64 returns v as a uint64 and whether it fits.
func (v Value) Uint64() (uint64, bool) {
	if v.kind != Integer || v.neg {
		return 0, false
	}
	return v.bits, true
}

// Float returns v as a float64. Integers are converted; other kinds return 0, false.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case Float32:
		return float64(math.Float32frombits(uint32(v.bits))), true
	case Float64:
		return math.Float64frombits(v.bits), true
	case Integer:
		if v.neg {
			return float64(int64(v.bits)), true
		}
		return float64(v.bits), true
	}
	return 0, false
}

// Bytes returns the raw bytes of a String or Binary; nil otherwise.
func (v Value) Bytes() []byte {
	if v.kind.IsRaw() {
		return v.raw
	}
	return nil
}

// Text returns the raw bytes of a String or Binary as a string.
func (v Value) Text() string { return string(v.Bytes()) }

// Len returns the element count of an Array, the pair count of a Map, the byte length of a raw value, and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.array)
	case Map:
		return len(v.pairs)
	case String, Binary:
		return len(v.raw)
	}
	return 0
}

// Elems returns the elements of an Array.
func (v Value) Elems() []Value {
	if v.kind != Array {
		return nil
	}
	return v.array
}

// Index returns the i'th element of an Array.
func (v Value) Index(i int) Value { return v.array[i] }

// Pairs returns the raw, ordered entries of a Map, duplicates included.
func (v Value) Pairs() []Pair {
	if v.kind != Map {
		return nil
	}
	return v.pairs
}

// Lookup returns the value for key in a Map. Duplicate keys resolve last-write-wins.
func (v Value) Lookup(key Value) (Value, bool) {
	if v.kind != Map {
		return Value{}, false
	}
	for i := len(v.pairs) - 1; i >= 0; i-- {
		if Equal(v.pairs[i].Key, key) {
			return v.pairs[i].Value, true
		}
	}
	return Value{}, false
}

// Get is Lookup with a string key.
func (v Value) Get(key string) (Value, bool) { return v.Lookup(Str(key)) }

// Dedup returns a Map with duplicate keys collapsed. Each key keeps the position of its first occurrence
// and the value of its last. Other kinds are returned unchanged.
func (v Value) Dedup() Value {
	if v.kind != Map {
		return v
	}
	out := make([]Pair, 0, len(v.pairs))
next:
	for _, p := range v.pairs {
		for i := range out {
			if Equal(out[i].Key, p.Key) {
				out[i].Value = p.Value
				continue next
			}
		}
		out = append(out, p)
	}
	return MapOf(out...)
}
