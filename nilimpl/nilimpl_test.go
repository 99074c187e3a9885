package nilimpl_test

import (
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/nilimpl"
)

type owner struct{}

var (
	ownerType = reflect.TypeOf(owner{})
	ptrSite   = nilimpl.Site{Declaring: ownerType, Name: "Ptr", Type: reflect.TypeOf((*int)(nil))}
	intSite   = nilimpl.Site{Declaring: ownerType, Name: "Int", Type: reflect.TypeOf(0), Default: reflect.ValueOf(42)}
)

func TestOnPacking(t *testing.T) {
	var nilPtr *int
	one := 1
	testCases := []struct {
		desc   string
		policy nilimpl.Policy
		site   nilimpl.Site
		v      reflect.Value
		asNil  bool
		err    error
	}{
		{desc: "default nil", policy: nilimpl.MemberDefault, site: ptrSite, v: reflect.ValueOf(nilPtr), asNil: true},
		{desc: "default value", policy: nilimpl.MemberDefault, site: ptrSite, v: reflect.ValueOf(&one)},
		{desc: "default zero int", policy: nilimpl.MemberDefault, site: intSite, v: reflect.ValueOf(0)},
		{desc: "null nil", policy: nilimpl.Null, site: ptrSite, v: reflect.ValueOf(nilPtr), asNil: true},
		{desc: "prohibit nil", policy: nilimpl.Prohibit, site: ptrSite, v: reflect.ValueOf(nilPtr), asNil: true, err: encio.ErrNilImplicationViolation},
		{desc: "prohibit invalid", policy: nilimpl.Prohibit, site: ptrSite, v: reflect.Value{}, asNil: true, err: encio.ErrNilImplicationViolation},
		{desc: "prohibit value", policy: nilimpl.Prohibit, site: ptrSite, v: reflect.ValueOf(&one)},
		{desc: "pack as nil zero", policy: nilimpl.PackAsNil, site: intSite, v: reflect.ValueOf(0), asNil: true},
		{desc: "pack as nil non-zero", policy: nilimpl.PackAsNil, site: intSite, v: reflect.ValueOf(3)},
		{desc: "use default nil", policy: nilimpl.UseDefaultOnUnpack, site: ptrSite, v: reflect.ValueOf(nilPtr), asNil: true},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			asNil, err := nilimpl.OnPacking(tC.policy, tC.site, tC.v)
			assert.Equal(t, tC.asNil, asNil)
			if tC.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tC.err), "%v", err)
		})
	}
}

func TestOnUnpacked(t *testing.T) {
	testCases := []struct {
		desc   string
		policy nilimpl.Policy
		site   nilimpl.Site
		assign bool
		want   interface{}
		err    error
	}{
		{desc: "default leaves member", policy: nilimpl.MemberDefault, site: intSite},
		{desc: "null assigns nil", policy: nilimpl.Null, site: ptrSite, assign: true, want: (*int)(nil)},
		{desc: "prohibit fails", policy: nilimpl.Prohibit, site: intSite, err: encio.ErrNilImplicationViolation},
		{desc: "use default assigns declared default", policy: nilimpl.UseDefaultOnUnpack, site: intSite, assign: true, want: 42},
		{desc: "use default without default assigns zero", policy: nilimpl.UseDefaultOnUnpack, site: ptrSite, assign: true, want: (*int)(nil)},
		{desc: "pack as nil assigns zero", policy: nilimpl.PackAsNil, site: intSite, assign: true, want: 0},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			v, assign, err := nilimpl.OnUnpacked(tC.policy, tC.site)
			if tC.err != nil {
				assert.True(t, errors.Is(err, tC.err), "%v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tC.assign, assign)
			if assign {
				assert.Equal(t, tC.want, v.Interface())
			}
		})
	}
}

func TestViolationNamesMember(t *testing.T) {
	_, _, err := nilimpl.OnUnpacked(nilimpl.Prohibit, intSite)
	var memberErr *encio.MemberError
	require.True(t, errors.As(err, &memberErr))
	assert.Equal(t, ownerType, memberErr.Declaring)
	assert.Equal(t, "Int", memberErr.Member)
	assert.Contains(t, err.Error(), "nilimpl_test.owner")
}

func TestCheck(t *testing.T) {
	assert.NoError(t, nilimpl.Null.Check(ptrSite))
	assert.True(t, errors.Is(nilimpl.Null.Check(intSite), encio.ErrBadConfig))
	assert.NoError(t, nilimpl.UseDefaultOnUnpack.Check(intSite))

	bad := intSite
	bad.Default = reflect.ValueOf("x")
	assert.True(t, errors.Is(nilimpl.UseDefaultOnUnpack.Check(bad), encio.ErrBadConfig))
	assert.Error(t, nilimpl.Policy(99).Check(intSite))
}

func TestParse(t *testing.T) {
	testCases := []struct {
		in   string
		want nilimpl.Policy
	}{
		{"", nilimpl.MemberDefault},
		{"default", nilimpl.MemberDefault},
		{"Null", nilimpl.Null},
		{"prohibit", nilimpl.Prohibit},
		{"usedefault", nilimpl.UseDefaultOnUnpack},
		{"UseDefaultOnUnpack", nilimpl.UseDefaultOnUnpack},
		{"packAsNil", nilimpl.PackAsNil},
	}
	for _, tC := range testCases {
		t.Run(tC.in, func(t *testing.T) {
			p, err := nilimpl.Parse(tC.in)
			require.NoError(t, err)
			assert.Equal(t, tC.want, p)
			if tC.in != "" && tC.in != "default" && tC.in != "usedefault" {
				assert.Equal(t, tC.want, mustParse(t, p.String()))
			}
		})
	}

	_, err := nilimpl.Parse("sometimes")
	assert.True(t, errors.Is(err, encio.ErrBadConfig))
}

func mustParse(t *testing.T, s string) nilimpl.Policy {
	p, err := nilimpl.Parse(s)
	require.NoError(t, err)
	return p
}
