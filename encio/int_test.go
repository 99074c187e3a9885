package encio_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stewi1014/mpk/encio"
)

func TestUint(t *testing.T) {
	testCases := []struct {
		n    uint64
		size int
		want []byte
	}{
		{0, 1, []byte{0x00}},
		{255, 1, []byte{0xff}},
		{256, 2, []byte{0x01, 0x00}},
		{65535, 2, []byte{0xff, 0xff}},
		{65536, 4, []byte{0x00, 0x01, 0x00, 0x00}},
		{1<<32 - 1, 4, []byte{0xff, 0xff, 0xff, 0xff}},
		{1 << 32, 8, []byte{0, 0, 0, 1, 0, 0, 0, 0}},
		{1<<64 - 1, 8, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	}

	enc := encio.NewUint()

	for _, tC := range testCases {
		t.Run(fmt.Sprint(tC.n), func(t *testing.T) {
			buff := new(bytes.Buffer)

			if err := enc.Encode(buff, tC.n, tC.size); err != nil {
				t.Fatal(err)
			}

			if !bytes.Equal(buff.Bytes(), tC.want) {
				t.Fatalf("wrong encoding, wanted: %x, got %x", tC.want, buff.Bytes())
			}

			n, err := enc.Decode(buff, tC.size)
			if err != nil {
				t.Fatal(err)
			}

			if n != tC.n {
				t.Fatalf("Wrong number, wanted: %v, got %v", tC.n, n)
			}

			if buff.Len() != 0 {
				t.Fatalf("data remaining in buffer %v", buff.Bytes())
			}
		})
	}
}

func TestUintZeroValue(t *testing.T) {
	var enc encio.Uint
	buff := new(bytes.Buffer)
	if err := enc.Encode(buff, 0x0102, 2); err != nil {
		t.Fatal(err)
	}
	n, err := enc.Decode(buff, 2)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0x0102 {
		t.Fatalf("Wrong number, wanted: %v, got %v", 0x0102, n)
	}
}
