package main

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"
)

// cborMode writes CBOR in the core deterministic encoding: shortest forms and sorted map keys.
var cborMode cbor.EncMode

func init() {
	var err error
	cborMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("mpk: CBOR encoder initialization failed: " + err.Error())
	}
}

// runCBOR transcodes each value to CBOR.
// Integers, floats, strings, binaries, arrays and maps keep their kind; Nil becomes null.
func runCBOR(inv *invocation) error {
	data, err := readInput(inv)
	if err != nil {
		return err
	}
	values, err := readValues(data, inv.Slurp)
	if err != nil {
		return err
	}

	var buff bytes.Buffer
	for i, v := range values {
		b, err := cborMode.Marshal(v.Interface())
		if err != nil {
			return errors.Wrapf(err, "value %d", i)
		}
		buff.Write(b)
	}
	inv.Logger.Debug("transcoded", zap.Int("values", len(values)), zap.Int("bytes", buff.Len()))
	return writeOutput(inv.Stdout, buff.Bytes(), inv.HexOut)
}
