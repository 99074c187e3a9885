package main

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"

	"github.com/stewi1014/mpk/value"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// runDecode writes the input as JSON.
// Binaries become base64 strings, and map keys that are not strings are written in diagnostic notation
// or, for scalars, as their text.
func runDecode(inv *invocation) error {
	data, err := readInput(inv)
	if err != nil {
		return err
	}
	values, err := readValues(data, inv.Slurp)
	if err != nil {
		return err
	}

	if inv.Slurp {
		items := make([]interface{}, len(values))
		for i, v := range values {
			items[i] = jsonValue(v)
		}
		return writeJSON(inv.Stdout, items, inv.Compact)
	}
	return writeJSON(inv.Stdout, jsonValue(values[0]), inv.Compact)
}

func jsonValue(v value.Value) interface{} {
	return normalize(v.Interface())
}

// normalize replaces maps with keys that are not all strings by maps keyed by the text of each key.
func normalize(i interface{}) interface{} {
	switch v := i.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, elem := range v {
			out[fmt.Sprint(key)] = normalize(elem)
		}
		return out
	case map[string]interface{}:
		for key, elem := range v {
			v[key] = normalize(elem)
		}
		return v
	case []interface{}:
		for j, elem := range v {
			v[j] = normalize(elem)
		}
		return v
	}
	return i
}

func writeJSON(w io.Writer, v interface{}, compact bool) error {
	var out []byte
	var err error
	if compact {
		out, err = json.Marshal(v)
	} else {
		out, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "encode JSON")
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
