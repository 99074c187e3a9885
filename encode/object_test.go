package encode_test

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/maxatome/go-testdeep/td"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/encode"
	"github.com/stewi1014/mpk/member"
	"github.com/stewi1014/mpk/nilimpl"
	"github.com/stewi1014/mpk/wire"
)

type pair struct {
	A int
	B string
}

type versioned struct {
	A int    `mpk:"a,id=0"`
	C string `mpk:"c,id=2"`
}

// wireOf builds a stream by hand.
func wireOf(t *testing.T, fn func(w *wire.Writer) error) []byte {
	t.Helper()
	var buff bytes.Buffer
	require.NoError(t, fn(wire.NewWriter(&buff)))
	return buff.Bytes()
}

func TestObjectLayout(t *testing.T) {
	testCases := []struct {
		desc   string
		config encode.Config
		in     interface{}
		want   []byte
	}{
		{
			desc: "array by default",
			in:   pair{A: 1, B: "x"},
			want: []byte{0x92, 0x01, 0xa1, 'x'},
		},
		{
			desc:   "map",
			config: encode.Config{Mode: member.AsMap},
			in:     pair{A: 1, B: "x"},
			want:   []byte{0x82, 0xa1, 'A', 0x01, 0xa1, 'B', 0xa1, 'x'},
		},
		{
			desc:   "per type mode",
			config: encode.Config{Mode: member.AsArray, TypeModes: map[reflect.Type]member.Mode{reflect.TypeOf(pair{}): member.AsMap}},
			in:     []pair{{A: 2}},
			want:   []byte{0x91, 0x82, 0xa1, 'A', 0x02, 0xa1, 'B', 0xa0},
		},
		{
			desc: "holes as nil",
			in:   versioned{A: 1, C: "x"},
			want: []byte{0x93, 0x01, wire.Nil, 0xa1, 'x'},
		},
		{
			desc:   "anonymous names as nil",
			config: encode.Config{Mode: member.AsMap},
			in:     versioned{A: 1, C: "x"},
			want:   []byte{0x83, 0xa1, 'a', 0x01, wire.Nil, wire.Nil, 0xa1, 'c', 0xa1, 'x'},
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			r := encode.NewRegistry(tC.config, nil)
			b := pack(t, r, tC.in)
			td.Cmp(t, b, tC.want)

			out := reflect.New(reflect.TypeOf(tC.in))
			require.NoError(t, unpack(r, b, out.Interface()))
			td.Cmp(t, out.Elem().Interface(), tC.in)
		})
	}
}

func TestObjectTolerance(t *testing.T) {
	testCases := []struct {
		desc string
		wire func(w *wire.Writer) error
		want pair
	}{
		{
			desc: "unknown keys",
			wire: func(w *wire.Writer) error {
				_ = w.PackMapHeader(5)
				_ = w.PackString("A")
				_ = w.PackInt(1)
				_ = w.PackString("zzz")
				_ = w.PackArrayHeader(2)
				_ = w.PackInt(1)
				_ = w.PackMapHeader(1)
				_ = w.PackString("q")
				_ = w.PackBool(true)
				_ = w.PackInt(5)
				_ = w.PackString("number key")
				_ = w.PackNil()
				_ = w.PackInt(7)
				_ = w.PackString("B")
				return w.PackString("y")
			},
			want: pair{A: 1, B: "y"},
		},
		{
			desc: "container keys",
			wire: func(w *wire.Writer) error {
				_ = w.PackMapHeader(2)
				_ = w.PackArrayHeader(1)
				_ = w.PackString("A")
				_ = w.PackInt(9)
				_ = w.PackString("A")
				return w.PackInt(3)
			},
			want: pair{A: 3},
		},
		{
			desc: "extra array items",
			wire: func(w *wire.Writer) error {
				_ = w.PackArrayHeader(4)
				_ = w.PackInt(1)
				_ = w.PackString("y")
				_ = w.PackBool(true)
				_ = w.PackArrayHeader(1)
				return w.PackInt(2)
			},
			want: pair{A: 1, B: "y"},
		},
		{
			desc: "short array",
			wire: func(w *wire.Writer) error {
				_ = w.PackArrayHeader(1)
				return w.PackInt(1)
			},
			want: pair{A: 1},
		},
		{
			desc: "binary names",
			wire: func(w *wire.Writer) error {
				_ = w.PackMapHeader(1)
				_ = w.PackBinary([]byte("B"))
				return w.PackString("z")
			},
			want: pair{B: "z"},
		},
		{
			desc: "nil object",
			wire: func(w *wire.Writer) error { return w.PackNil() },
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			r := encode.NewRegistry(encode.Config{}, nil)
			got := pair{A: 100, B: "stale"}
			require.NoError(t, unpack(r, wireOf(t, tC.wire), &got))
			td.Cmp(t, got, tC.want)
		})
	}
}

func TestStrictArity(t *testing.T) {
	r := encode.NewRegistry(encode.Config{StrictArity: true}, nil)
	b := wireOf(t, func(w *wire.Writer) error {
		_ = w.PackArrayHeader(1)
		return w.PackInt(1)
	})

	var got pair
	err := unpack(r, b, &got)
	require.True(t, errors.Is(err, encio.ErrMissingItem), "got %v", err)

	var missing *encio.MissingItemError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, 1, missing.Position)
}

func TestTruncatedObject(t *testing.T) {
	r := encode.NewRegistry(encode.Config{}, nil)

	var got pair
	err := unpack(r, []byte{0x93, 0x01}, &got)
	assert.True(t, errors.Is(err, encio.ErrMissingItem), "got %v", err)
	assert.True(t, errors.Is(err, encio.ErrUnexpectedEndOfStream))

	var missing *encio.MissingItemError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, 1, missing.Position)

	err = unpack(r, []byte{0x81, 0xa1, 'A'}, &got)
	assert.True(t, errors.Is(err, encio.ErrUnexpectedEndOfStream), "got %v", err)
}

type policies struct {
	Keep    *string `mpk:"keep"`
	Clear   *string `mpk:"clear,nil=null"`
	Strict  *string `mpk:"strict,nil=prohibit"`
	Fill    int     `mpk:"fill,nil=usedefault"`
	Compact int     `mpk:"compact,nil=packasnil"`
}

func TestNilImplications(t *testing.T) {
	kept, cleared := "kept", "cleared"
	r := encode.NewRegistry(encode.Config{Mode: member.AsMap}, nil)
	d, err := r.Describe(reflect.TypeOf(policies{}),
		member.WithDefault("fill", 42),
		member.WithFactory(func() policies {
			return policies{Keep: &kept, Clear: &cleared, Fill: 1}
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, nilimpl.Prohibit, d.Members[2].NilImplication)

	strict := "s"
	t.Run("pack", func(t *testing.T) {
		b := pack(t, r, policies{Strict: &strict, Fill: 3})
		var got policies
		require.NoError(t, unpack(r, b, &got))
		assert.Same(t, &kept, got.Keep, "nil leaves the member as built")
		assert.Nil(t, got.Clear)
		assert.Equal(t, "s", *got.Strict)
		assert.Equal(t, 3, got.Fill)
		assert.Equal(t, 0, got.Compact)
	})

	t.Run("use default", func(t *testing.T) {
		b := wireOf(t, func(w *wire.Writer) error {
			_ = w.PackMapHeader(1)
			_ = w.PackString("fill")
			return w.PackNil()
		})
		var got policies
		require.NoError(t, unpack(r, b, &got))
		assert.Equal(t, 42, got.Fill)
		assert.Same(t, &cleared, got.Clear, "absent members are left as built")
	})

	t.Run("pack prohibited nil", func(t *testing.T) {
		var buff bytes.Buffer
		err := r.Pack(wire.NewWriter(&buff), policies{})
		require.True(t, errors.Is(err, encio.ErrNilImplicationViolation), "got %v", err)

		var me *encio.MemberError
		require.True(t, errors.As(err, &me))
		assert.Equal(t, "strict", me.Member)
		assert.Equal(t, reflect.TypeOf(policies{}), me.Declaring)
	})

	t.Run("unpack prohibited nil", func(t *testing.T) {
		b := wireOf(t, func(w *wire.Writer) error {
			_ = w.PackMapHeader(1)
			_ = w.PackString("strict")
			return w.PackNil()
		})
		var got policies
		err := unpack(r, b, &got)
		assert.True(t, errors.Is(err, encio.ErrNilImplicationViolation), "got %v", err)
	})

	t.Run("pack zero as nil", func(t *testing.T) {
		b := pack(t, r, policies{Strict: &strict})
		assert.True(t, bytes.HasSuffix(b, []byte{0xa7, 'c', 'o', 'm', 'p', 'a', 'c', 't', wire.Nil}))
	})
}

type account struct {
	id   int            `mpk:"id,include"`
	Note string         `mpk:"note"`
	Tags map[string]int `mpk:"tags,readonly"`
}

func newAccount(id int) *account {
	return &account{id: id, Tags: map[string]int{"new": 1}}
}

type money struct {
	amount   int64  `mpk:"amount,include"`
	currency string `mpk:"currency,include"`
}

func newMoney(amount int64, currency string) (money, error) {
	if amount < 0 {
		return money{}, errors.New("negative amount")
	}
	return money{amount: amount, currency: currency}, nil
}

func TestConstructorTypes(t *testing.T) {
	for _, mode := range []member.Mode{member.AsArray, member.AsMap} {
		t.Run(mode.String(), func(t *testing.T) {
			r := encode.NewRegistry(encode.Config{Mode: mode}, nil)
			_, err := r.Describe(reflect.TypeOf(money{}),
				member.WithConstructor(newMoney, member.Required("amount"), member.Optional("currency", "EUR")),
			)
			require.NoError(t, err)

			var got money
			require.NoError(t, unpack(r, pack(t, r, money{amount: 5, currency: "NZD"}), &got))
			td.Cmp(t, got, money{amount: 5, currency: "NZD"})
		})
	}

	registries := map[member.Mode]*encode.Registry{}
	for _, mode := range []member.Mode{member.AsArray, member.AsMap} {
		r := encode.NewRegistry(encode.Config{Mode: mode}, nil)
		_, err := r.Describe(reflect.TypeOf(money{}),
			member.WithConstructor(newMoney, member.Required("amount"), member.Optional("currency", "EUR")),
		)
		require.NoError(t, err)
		registries[mode] = r
	}

	testCases := []struct {
		desc  string
		array bool
		wire  func(w *wire.Writer) error
		want  money
		err   error
		msg   string
	}{
		{
			desc:  "short array",
			array: true,
			wire: func(w *wire.Writer) error {
				_ = w.PackArrayHeader(1)
				return w.PackInt(5)
			},
			want: money{amount: 5, currency: "EUR"},
		},
		{
			desc: "default parameter",
			wire: func(w *wire.Writer) error {
				_ = w.PackMapHeader(1)
				_ = w.PackString("amount")
				return w.PackInt(5)
			},
			want: money{amount: 5, currency: "EUR"},
		},
		{
			desc: "nil counts as given",
			wire: func(w *wire.Writer) error {
				_ = w.PackMapHeader(2)
				_ = w.PackString("currency")
				_ = w.PackString("USD")
				_ = w.PackString("amount")
				return w.PackNil()
			},
			want: money{currency: "USD"},
		},
		{
			desc: "missing required parameter",
			wire: func(w *wire.Writer) error {
				_ = w.PackMapHeader(1)
				_ = w.PackString("currency")
				return w.PackString("USD")
			},
			err: encio.ErrConstructorArgumentUnresolved,
		},
		{
			desc: "constructor error",
			wire: func(w *wire.Writer) error {
				_ = w.PackMapHeader(1)
				_ = w.PackString("amount")
				return w.PackInt(-1)
			},
			msg: "negative amount",
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			r := registries[member.AsMap]
			if tC.array {
				r = registries[member.AsArray]
			}

			var got money
			err := unpack(r, wireOf(t, tC.wire), &got)
			if tC.msg != "" {
				assert.ErrorContains(t, err, tC.msg)
				return
			}
			if tC.err != nil {
				assert.True(t, errors.Is(err, tC.err), "got %v", err)
				return
			}
			require.NoError(t, err)
			td.Cmp(t, got, tC.want)
		})
	}
}

func TestConstructorSetsAfterwards(t *testing.T) {
	r := encode.NewRegistry(encode.Config{Mode: member.AsMap}, nil)
	_, err := r.Describe(reflect.TypeOf(account{}), member.WithConstructor(newAccount, member.Required("id")))
	require.NoError(t, err)

	b := wireOf(t, func(w *wire.Writer) error {
		_ = w.PackMapHeader(3)
		_ = w.PackString("note")
		_ = w.PackString("hi")
		_ = w.PackString("tags")
		_ = w.PackMapHeader(1)
		_ = w.PackString("x")
		_ = w.PackInt(2)
		_ = w.PackString("id")
		return w.PackInt(7)
	})

	var got account
	require.NoError(t, unpack(r, b, &got))
	assert.Equal(t, 7, got.id)
	assert.Equal(t, "hi", got.Note)
	td.Cmp(t, got.Tags, map[string]int{"new": 1, "x": 2})
}

type inbox struct {
	Items *[]string         `mpk:"items,readonly"`
	Meta  map[string]string `mpk:"meta,readonly"`
}

func TestReadOnlyCollections(t *testing.T) {
	var items *[]string
	var meta map[string]string

	r := encode.NewRegistry(encode.Config{Mode: member.AsMap}, nil)
	_, err := r.Describe(reflect.TypeOf(inbox{}), member.WithFactory(func() *inbox {
		items = &[]string{"a"}
		meta = map[string]string{"k": "v"}
		return &inbox{Items: items, Meta: meta}
	}))
	require.NoError(t, err)

	b := pack(t, r, inbox{
		Items: &[]string{"b", "c"},
		Meta:  map[string]string{"k2": "v2"},
	})

	var got inbox
	require.NoError(t, unpack(r, b, &got))
	assert.Same(t, items, got.Items)
	assert.Equal(t, reflect.ValueOf(meta).Pointer(), reflect.ValueOf(got.Meta).Pointer())
	td.Cmp(t, *got.Items, []string{"a", "b", "c"})
	td.Cmp(t, got.Meta, map[string]string{"k": "v", "k2": "v2"})

	t.Run("absent", func(t *testing.T) {
		r := encode.NewRegistry(encode.Config{Mode: member.AsMap}, nil)
		var got inbox
		err := unpack(r, b, &got)
		require.True(t, errors.Is(err, encio.ErrReadOnlyMemberMustNotBeNull), "got %v", err)

		var me *encio.MemberError
		require.True(t, errors.As(err, &me))
		assert.Equal(t, "items", me.Member)
	})

	t.Run("nil on the wire", func(t *testing.T) {
		var got inbox
		require.NoError(t, unpack(r, pack(t, r, inbox{}), &got))
		td.Cmp(t, *got.Items, []string{"a"})
	})
}

type celsius struct {
	degrees float64
}

func TestHandBuiltDescriptor(t *testing.T) {
	d, err := member.NewDescriptor(reflect.TypeOf(celsius{}), []member.Member{
		member.Hole(),
		{
			Contract: member.Contract{Name: "f", Type: reflect.TypeOf(float64(0))},
			Accessor: member.Accessor{
				Get: func(obj reflect.Value) reflect.Value {
					return reflect.ValueOf(obj.Interface().(celsius).degrees*9/5 + 32)
				},
				Set: func(obj, v reflect.Value) {
					obj.Set(reflect.ValueOf(celsius{degrees: (v.Float() - 32) * 5 / 9}))
				},
			},
		},
	}, member.WithMode(member.AsArray))
	require.NoError(t, err)

	r := encode.NewRegistry(encode.Config{Mode: member.AsMap}, nil)
	require.NoError(t, r.Register(d))

	b := pack(t, r, celsius{degrees: 100})
	td.Cmp(t, b, []byte{0x92, wire.Nil, wire.Float64, 0x40, 0x6a, 0x80, 0, 0, 0, 0, 0})

	var got celsius
	require.NoError(t, unpack(r, b, &got))
	assert.InDelta(t, 100, got.degrees, 1e-9)
}

type outer struct {
	Name  string
	Inner policies
}

func TestNestedMemberErrors(t *testing.T) {
	r := encode.NewRegistry(encode.Config{}, nil)

	var buff bytes.Buffer
	err := r.Pack(wire.NewWriter(&buff), outer{Name: "x"})
	require.True(t, errors.Is(err, encio.ErrNilImplicationViolation))
	assert.Contains(t, err.Error(), `"Inner"`)
	assert.Contains(t, err.Error(), `"strict"`)
}

// stamped packs itself but unpacks as an ordinary object.
type stamped struct {
	Name string
}

func (stamped) PackMsg(w *wire.Writer) error { return w.PackString("custom") }

// tally unpacks itself from a string but packs as an ordinary object.
type tally struct {
	N int
}

func (c *tally) UnpackMsg(src wire.Source, h wire.Header) error {
	if !h.Kind.IsRaw() {
		return encio.Errorf(encio.ErrBadType, "cannot tally %v", h.Kind)
	}
	c.N = len(h.Value.Text())
	return nil
}

func TestSelfCodedOneWay(t *testing.T) {
	r := encode.NewRegistry(encode.Config{Mode: member.AsArray}, nil)

	t.Run("pack only", func(t *testing.T) {
		td.Cmp(t, pack(t, r, stamped{Name: "x"}), []byte{0xa6, 'c', 'u', 's', 't', 'o', 'm'})

		var got stamped
		require.NoError(t, unpack(r, []byte{0x91, 0xa1, 'x'}, &got))
		td.Cmp(t, got, stamped{Name: "x"})
	})

	t.Run("unpack only", func(t *testing.T) {
		td.Cmp(t, pack(t, r, tally{N: 3}), []byte{0x91, 0x03})

		var got tally
		require.NoError(t, unpack(r, []byte{0xa3, 'a', 'b', 'c'}, &got))
		td.Cmp(t, got, tally{N: 3})

		err := unpack(r, []byte{0x91, 0x03}, &got)
		assert.True(t, errors.Is(err, encio.ErrBadType), "got %v", err)
	})
}
