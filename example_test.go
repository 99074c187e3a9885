package mpk_test

import (
	"bytes"
	"fmt"

	"github.com/stewi1014/mpk"
)

func ExampleMarshal() {
	type user struct {
		Name string
		Age  int
	}

	ctx := mpk.NewContext(&mpk.Config{Mode: mpk.AsMap})
	b, err := ctx.Marshal(user{Name: "Ann", Age: 30})
	if err != nil {
		panic(err)
	}
	fmt.Printf("% x\n", b)

	var u user
	if err := ctx.Unmarshal(b, &u); err != nil {
		panic(err)
	}
	fmt.Printf("%+v\n", u)
	// Output:
	// 82 a4 4e 61 6d 65 a3 41 6e 6e a3 41 67 65 1e
	// {Name:Ann Age:30}
}

func ExampleDecoder_DecodeValue() {
	b, err := mpk.Marshal([]interface{}{1, "two", []byte{3}, nil, map[string]bool{"ok": true}})
	if err != nil {
		panic(err)
	}

	v, err := mpk.NewDecoder(bytes.NewReader(b)).DecodeValue()
	if err != nil {
		panic(err)
	}
	fmt.Println(v)
	// Output:
	// [1, "two", h'03', nil, {"ok": true}]
}
