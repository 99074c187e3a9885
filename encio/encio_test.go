package encio_test

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stewi1014/mpk/encio"
)

func TestRead(t *testing.T) {
	testCases := []struct {
		desc    string
		r       io.Reader
		n       int
		wantErr []error
	}{
		{
			desc: "Whole buffer",
			r:    bytes.NewReader([]byte{1, 2, 3}),
			n:    3,
		},
		{
			desc: "One byte at a time",
			r:    iotest.OneByteReader(bytes.NewReader([]byte{1, 2, 3})),
			n:    3,
		},
		{
			desc:    "Empty reader",
			r:       bytes.NewReader(nil),
			n:       1,
			wantErr: []error{encio.ErrUnexpectedEndOfStream, io.EOF},
		},
		{
			desc:    "Short reader",
			r:       bytes.NewReader([]byte{1}),
			n:       2,
			wantErr: []error{encio.ErrUnexpectedEndOfStream},
		},
		{
			desc:    "Failing reader",
			r:       iotest.ErrReader(io.ErrClosedPipe),
			n:       2,
			wantErr: []error{io.ErrClosedPipe},
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			buff := make([]byte, tC.n)
			err := encio.Read(buff, tC.r)
			if len(tC.wantErr) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tC.wantErr {
				assert.True(t, errors.Is(err, want), "%v should be %v", err, want)
			}

			var ioErr encio.IOError
			assert.True(t, errors.As(err, &ioErr))
		})
	}
}

func TestShortReadIsNotEOF(t *testing.T) {
	err := encio.Read(make([]byte, 4), bytes.NewReader([]byte{1, 2}))
	require.Error(t, err)
	assert.False(t, errors.Is(err, io.EOF))
}

func TestReadN(t *testing.T) {
	data, err := encio.ReadN(strings.NewReader("hello"), 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	_, err = encio.ReadN(strings.NewReader(""), 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, encio.ErrUnexpectedEndOfStream))
	assert.False(t, errors.Is(err, io.EOF))
}

func TestReadNLarge(t *testing.T) {
	data := bytes.Repeat([]byte{7}, 3*encio.ReadChunk+10)
	got, err := encio.ReadN(iotest.HalfReader(bytes.NewReader(data)), len(data))
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = encio.ReadN(bytes.NewReader(data[:encio.ReadChunk+10]), len(data))
	assert.True(t, errors.Is(err, encio.ErrUnexpectedEndOfStream))
	assert.Contains(t, err.Error(), fmt.Sprintf("want %v bytes but only got %v", len(data), encio.ReadChunk+10))
}

func TestReadNCorruptLength(t *testing.T) {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := encio.ReadN(strings.NewReader("a"), math.MaxInt32)
	runtime.ReadMemStats(&after)

	assert.True(t, errors.Is(err, encio.ErrUnexpectedEndOfStream))
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20), "allocation follows the data, not the declared length")
}

func TestDiscard(t *testing.T) {
	r := strings.NewReader("abcdef")
	require.NoError(t, encio.Discard(r, 4))
	assert.Equal(t, 2, r.Len())

	err := encio.Discard(r, 4)
	assert.True(t, errors.Is(err, encio.ErrUnexpectedEndOfStream))
}

type shortWriter struct {
	bytes.Buffer
}

func (w *shortWriter) Write(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}
	return w.Buffer.Write(p)
}

func TestWriteShortWriter(t *testing.T) {
	defer encio.SetWarnings(zaptest.NewLogger(t))()

	w := new(shortWriter)
	require.NoError(t, encio.Write([]byte("abc"), w))
	assert.Equal(t, "abc", w.String())
}

func TestErrorsMatchSentinels(t *testing.T) {
	err := encio.NewMissingItem(3, encio.NewIOError(encio.ErrUnexpectedEndOfStream, "reading"))
	assert.True(t, errors.Is(err, encio.ErrMissingItem))
	assert.True(t, errors.Is(err, encio.ErrUnexpectedEndOfStream))

	var missing *encio.MissingItemError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, 3, missing.Position)

	err = encio.NewMemberError(encio.ErrNilImplicationViolation, reflect.TypeOf(0), "Count")
	assert.True(t, errors.Is(err, encio.ErrNilImplicationViolation))
	assert.Contains(t, err.Error(), `"Count"`)

	err = encio.Errorf(encio.ErrBadType, "want %v", "int")
	assert.True(t, errors.Is(err, encio.ErrBadType))
	assert.Contains(t, err.Error(), "TestErrorsMatchSentinels")
}
