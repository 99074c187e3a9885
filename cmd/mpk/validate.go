package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/wire"
)

var (
	validColor   = color.New(color.FgGreen, color.Bold)
	invalidColor = color.New(color.FgRed, color.Bold)
	offsetColor  = color.New(color.FgHiBlack)
)

// finding is a value not written the way a minimal encoder would have.
type finding struct {
	Offset  int64
	Message string
}

// findingsError is returned when the input is readable but not minimally encoded.
type findingsError struct {
	count int
}

func (e findingsError) Error() string {
	if e.count == 1 {
		return "1 finding"
	}
	return fmt.Sprintf("%d findings", e.count)
}

func (findingsError) ExitCode() int { return 1 }

// runValidate reports every value whose tag is wider than needed, and any bytes that do not form a value.
// It exits with status 1 when there is anything to report.
func runValidate(inv *invocation) error {
	data, err := readInput(inv)
	if err != nil {
		return err
	}

	findings, values := validate(data)
	inv.Logger.Debug("validated", zap.Int("values", values), zap.Int("findings", len(findings)))
	for _, f := range findings {
		fmt.Fprintf(inv.Stdout, "%s %s\n", offsetColor.Sprintf("offset %d:", f.Offset), f.Message)
	}
	if len(findings) > 0 {
		invalidColor.Fprintln(inv.Stdout, "invalid")
		return findingsError{count: len(findings)}
	}
	validColor.Fprint(inv.Stdout, "valid")
	fmt.Fprintf(inv.Stdout, " (%d values)\n", values)
	return nil
}

// validate walks every header in data in stream order and returns the findings and the number of complete top level values.
// Reading stops at the first tag that is not valid or at a value cut short.
func validate(data []byte) ([]finding, int) {
	r := wire.NewReader(bytes.NewReader(data))
	var (
		findings []finding
		values   int
		pending  int
		boundary int64
	)
	for {
		offset := r.Offset()
		h, err := r.ReadHeader()
		if err != nil {
			switch {
			case pending == 0 && offset == int64(len(data)) && errors.Is(err, io.EOF):
			case errors.Is(err, encio.ErrInvalidFormatTag):
				findings = append(findings, finding{
					Offset:  offset,
					Message: fmt.Sprintf("invalid tag 0x%02x, %d bytes unread", data[offset], int64(len(data))-offset),
				})
			case encio.IsEndOfStream(err):
				findings = append(findings, finding{
					Offset:  offset,
					Message: fmt.Sprintf("value cut short, %d bytes after the last complete value", int64(len(data))-boundary),
				})
			default:
				findings = append(findings, finding{Offset: offset, Message: err.Error()})
			}
			return findings, values
		}

		if minimal := wire.MinimalCode(h); minimal != h.Code {
			findings = append(findings, finding{
				Offset: offset,
				Message: fmt.Sprintf("%v written as %s (0x%02x) instead of %s (0x%02x)",
					h.Kind, wire.CodeName(h.Code), h.Code, wire.CodeName(minimal), minimal),
			})
		}

		if pending > 0 {
			pending--
		}
		pending += h.Items()
		if pending == 0 {
			values++
			boundary = r.Offset()
		}
	}
}
