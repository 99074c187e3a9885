package main

import (
	"bytes"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/stewi1014/mpk"
	"github.com/stewi1014/mpk/value"
)

// runEncode reads JSON or YAML documents and writes one MessagePack value for each.
// Map keys are written in sorted order.
func runEncode(inv *invocation) error {
	// Input is text; --hex only applies to MessagePack input.
	inv.Hex = false
	data, err := readInput(inv)
	if err != nil {
		return err
	}

	var buff bytes.Buffer
	enc := mpk.NewEncoder(&buff)
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for n := 0; ; n++ {
		var doc interface{}
		if err := dec.Decode(&doc); err != nil {
			if err == io.EOF {
				if n == 0 {
					return errors.New("no documents in input")
				}
				break
			}
			return errors.Wrapf(err, "document %d", n)
		}

		v, err := value.FromInterface(plain(doc))
		if err != nil {
			return errors.Wrapf(err, "document %d", n)
		}
		if err := enc.Encode(v); err != nil {
			return errors.Wrapf(err, "document %d", n)
		}
		inv.Logger.Debug("encoded document", zap.Int("document", n), zap.Stringer("value", v))
	}

	return writeOutput(inv.Stdout, buff.Bytes(), inv.HexOut)
}

// plain replaces time.Time, which explicitly tagged YAML timestamps decode to, by its RFC 3339 text.
func plain(i interface{}) interface{} {
	switch v := i.(type) {
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case map[string]interface{}:
		for key, elem := range v {
			v[key] = plain(elem)
		}
	case map[interface{}]interface{}:
		for key, elem := range v {
			v[key] = plain(elem)
		}
	case []interface{}:
		for j, elem := range v {
			v[j] = plain(elem)
		}
	}
	return i
}
