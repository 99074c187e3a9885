package value_test

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/maxatome/go-testdeep/td"
	"github.com/stretchr/testify/assert"

	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/value"
)

func TestIntegerSignedness(t *testing.T) {
	testCases := []struct {
		desc     string
		v        value.Value
		i64      int64
		i64ok    bool
		u64      uint64
		u64ok    bool
		negative bool
	}{
		{desc: "zero", v: value.Int(0), i64: 0, i64ok: true, u64: 0, u64ok: true},
		{desc: "positive from Int", v: value.Int(127), i64: 127, i64ok: true, u64: 127, u64ok: true},
		{desc: "negative", v: value.Int(-1), i64: -1, i64ok: true, negative: true},
		{desc: "min int64", v: value.Int(math.MinInt64), i64: math.MinInt64, i64ok: true, negative: true},
		{desc: "max uint64", v: value.Uint(math.MaxUint64), u64: math.MaxUint64, u64ok: true, i64: -1},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			i, ok := tC.v.Int64()
			assert.Equal(t, tC.i64ok, ok)
			if ok {
				assert.Equal(t, tC.i64, i)
			}
			u, ok := tC.v.Uint64()
			assert.Equal(t, tC.u64ok, ok)
			if ok {
				assert.Equal(t, tC.u64, u)
			}
			assert.Equal(t, tC.negative, tC.v.IsNegative())
		})
	}
}

func TestEqual(t *testing.T) {
	testCases := []struct {
		desc  string
		a, b  value.Value
		equal bool
	}{
		{"nil", value.NilValue, value.Value{}, true},
		{"int and uint of same number", value.Int(5), value.Uint(5), true},
		{"int sign", value.Int(-5), value.Uint(5), false},
		{"string and binary", value.Str("a"), value.Bin([]byte("a")), false},
		{"float precision", value.Float32Value(1.5), value.Float64Value(1.5), false},
		{"arrays", value.ArrayOf(value.Int(1), value.Str("x")), value.ArrayOf(value.Uint(1), value.Str("x")), true},
		{"array order", value.ArrayOf(value.Int(1), value.Int(2)), value.ArrayOf(value.Int(2), value.Int(1)), false},
		{
			"map key order",
			value.MapOf(value.Pair{Key: value.Str("a"), Value: value.Int(1)}, value.Pair{Key: value.Str("b"), Value: value.Int(2)}),
			value.MapOf(value.Pair{Key: value.Str("b"), Value: value.Int(2)}, value.Pair{Key: value.Str("a"), Value: value.Int(1)}),
			true,
		},
		{
			"map duplicates resolve last write wins",
			value.MapOf(value.Pair{Key: value.Str("a"), Value: value.Int(1)}, value.Pair{Key: value.Str("a"), Value: value.Int(2)}),
			value.MapOf(value.Pair{Key: value.Str("a"), Value: value.Int(2)}),
			true,
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			assert.Equal(t, tC.equal, value.Equal(tC.a, tC.b))
			assert.Equal(t, tC.equal, tC.b.Equal(tC.a))
		})
	}
}

func TestMapPreservesDuplicates(t *testing.T) {
	m := value.MapOf(
		value.Pair{Key: value.Str("k"), Value: value.Int(1)},
		value.Pair{Key: value.Int(2), Value: value.NilValue},
		value.Pair{Key: value.Str("k"), Value: value.Int(3)},
	)

	assert.Len(t, m.Pairs(), 3)

	got, ok := m.Get("k")
	assert.True(t, ok)
	assert.True(t, got.Equal(value.Int(3)))

	got, ok = m.Lookup(value.Uint(2))
	assert.True(t, ok)
	assert.True(t, got.IsNil())

	_, ok = m.Get("missing")
	assert.False(t, ok)

	d := m.Dedup()
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, "k", d.Pairs()[0].Key.Text())
	assert.True(t, d.Pairs()[0].Value.Equal(value.Int(3)))
}

func TestInterfaceConversion(t *testing.T) {
	v, err := value.FromInterface(map[string]interface{}{
		"b":   []interface{}{int8(1), uint16(2), "three", nil},
		"a":   true,
		"bin": []byte{1, 2},
		"f":   float32(0.5),
	})
	assert.NoError(t, err)
	assert.Equal(t, `{"a": true, "b": [1, 2, "three", nil], "bin": h'0102', "f": 0.5_f32}`, v.String())

	td.Cmp(t, v.Interface(), map[string]interface{}{
		"a":   true,
		"b":   []interface{}{int64(1), int64(2), "three", nil},
		"bin": []byte{1, 2},
		"f":   float32(0.5),
	})

	mixed := value.MapOf(
		value.Pair{Key: value.Int(1), Value: value.Str("one")},
		value.Pair{Key: value.Bin([]byte{0xff}), Value: value.Boolean(false)},
	)
	td.Cmp(t, mixed.Interface(), map[interface{}]interface{}{
		int64(1): "one",
		"h'ff'":  false,
	})

	assert.Equal(t, uint64(math.MaxUint64), value.Uint(math.MaxUint64).Interface())

	_, err = value.FromInterface(struct{}{})
	assert.True(t, errors.Is(err, encio.ErrBadType), "got %v", err)
}

func TestPredicates(t *testing.T) {
	assert.True(t, value.NilValue.IsNil())
	assert.True(t, value.ArrayOf().IsArray())
	assert.True(t, value.ArrayOf().IsContainer())
	assert.True(t, value.MapOf().IsMap())
	assert.True(t, value.Str("").IsRaw())
	assert.True(t, value.Bin(nil).IsRaw())
	assert.False(t, value.Int(1).IsRaw())
	assert.Equal(t, "binary", value.Binary.String())
	assert.Equal(t, 0, value.ArrayOf().Len())
}
