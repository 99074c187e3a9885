package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"unicode"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/stewi1014/mpk"
	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/value"
)

// readInput returns the bytes of the file named by the last argument if it is a regular file,
// or of stdin otherwise, hex-decoded if inv.Hex is set.
// Any positional argument left over is an error.
func readInput(inv *invocation) ([]byte, error) {
	var data []byte
	args := inv.Args

	if n := len(args); n > 0 {
		candidate := args[n-1]
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			data, err = os.ReadFile(candidate)
			if err != nil {
				return nil, errors.Wrapf(err, "read %s", candidate)
			}
			args = args[:n-1]
		}
	}
	if len(args) > 0 {
		return nil, errors.Newf("unexpected argument %q", args[0])
	}

	if data == nil {
		var err error
		data, err = io.ReadAll(inv.Stdin)
		if err != nil {
			return nil, errors.Wrap(err, "read stdin")
		}
	}

	if inv.Hex {
		decoded, err := decodeHex(data)
		if err != nil {
			return nil, err
		}
		data = decoded
	}
	if len(data) == 0 {
		return nil, errors.New("empty input")
	}

	inv.Logger.Debug("read input", zap.Int("bytes", len(data)), zap.Bool("hex", inv.Hex))
	return data, nil
}

// decodeHex decodes hex with any whitespace between digits, e.g. "92 01 a1 61".
func decodeHex(data []byte) ([]byte, error) {
	cleaned := bytes.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, data)

	decoded := make([]byte, hex.DecodedLen(len(cleaned)))
	n, err := hex.Decode(decoded, cleaned)
	if err != nil {
		return nil, errors.Wrap(err, "decode hex")
	}
	return decoded[:n], nil
}

// readValues decodes data as exactly one value, or as a sequence of them if slurp is set.
func readValues(data []byte, slurp bool) ([]value.Value, error) {
	dec := mpk.NewDecoder(bytes.NewReader(data))
	var values []value.Value
	for {
		v, err := dec.DecodeValue()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "value %d", len(values))
		}
		values = append(values, v)
		if !slurp {
			break
		}
	}

	if rest := int64(len(data)) - dec.Reader().Offset(); rest > 0 {
		return nil, encio.Errorf(encio.ErrMalformed, "%d bytes after the value, use -s to read a sequence", rest)
	}
	return values, nil
}

// writeOutput writes b raw, or as hex followed by a newline.
func writeOutput(w io.Writer, b []byte, hexOut bool) error {
	if !hexOut {
		_, err := w.Write(b)
		return err
	}
	_, err := fmt.Fprintln(w, hex.EncodeToString(b))
	return err
}
