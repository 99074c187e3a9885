// Package wire is the MessagePack binary codec.
//
// Writer always selects the smallest tier that can represent a value (fix, then 8/16/32/64 bit).
// Reader accepts every tier, regardless of whether a smaller one could have held the same value.
// All multi-byte integers on the wire are big-endian.
//
// Reader and Subtree expose the streaming primitives ReadHeader, Skip and EnterSubtree through the Source interface,
// for serializers that are built on top of the codec.
package wire

// Format codes.
const (
	PosFixIntMax   byte = 0x7f
	FixMapLow      byte = 0x80
	FixMapHigh     byte = 0x8f
	FixArrayLow    byte = 0x90
	FixArrayHigh   byte = 0x9f
	FixStrLow      byte = 0xa0
	FixStrHigh     byte = 0xbf
	Nil            byte = 0xc0
	False          byte = 0xc2
	True           byte = 0xc3
	Bin8           byte = 0xc4
	Bin16          byte = 0xc5
	Bin32          byte = 0xc6
	Float32        byte = 0xca
	Float64        byte = 0xcb
	Uint8          byte = 0xcc
	Uint16         byte = 0xcd
	Uint32         byte = 0xce
	Uint64         byte = 0xcf
	Int8           byte = 0xd0
	Int16          byte = 0xd1
	Int32          byte = 0xd2
	Int64          byte = 0xd3
	Str8           byte = 0xd9
	Str16          byte = 0xda
	Str32          byte = 0xdb
	Array16        byte = 0xdc
	Array32        byte = 0xdd
	Map16          byte = 0xde
	Map32          byte = 0xdf
	NegFixIntLow   byte = 0xe0
	fixMapCountMax      = 0x0f
	fixStrLenMax        = 0x1f
	negFixIntMin        = -32
)

// IsFixInt reports whether c is a positive or negative fixint.
func IsFixInt(c byte) bool { return c <= PosFixIntMax || c >= NegFixIntLow }

// IsFixMap reports whether c is a fixmap.
func IsFixMap(c byte) bool { return c >= FixMapLow && c <= FixMapHigh }

// IsFixArray reports whether c is a fixarray.
func IsFixArray(c byte) bool { return c >= FixArrayLow && c <= FixArrayHigh }

// IsFixStr reports whether c is a fixstr.
func IsFixStr(c byte) bool { return c >= FixStrLow && c <= FixStrHigh }

// CodeName returns a human readable name for the format code c.
func CodeName(c byte) string {
	switch {
	case c <= PosFixIntMax:
		return "positive fixint"
	case IsFixMap(c):
		return "fixmap"
	case IsFixArray(c):
		return "fixarray"
	case IsFixStr(c):
		return "fixstr"
	case c >= NegFixIntLow:
		return "negative fixint"
	}
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "invalid"
}

var codeNames = map[byte]string{
	Nil:     "nil",
	False:   "false",
	True:    "true",
	Bin8:    "bin8",
	Bin16:   "bin16",
	Bin32:   "bin32",
	Float32: "float32",
	Float64: "float64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Str8:    "str8",
	Str16:   "str16",
	Str32:   "str32",
	Array16: "array16",
	Array32: "array32",
	Map16:   "map16",
	Map32:   "map32",
}
