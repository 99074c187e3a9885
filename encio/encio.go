// Package encio provides io methods relevant to encoding, as well as error types.
package encio

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
)

// ReadChunk is the largest payload ReadN allocates before any of it has been read.
// Longer payloads grow their buffer as data arrives, so a corrupt length cannot force a huge allocation.
const ReadChunk = 64 << 10

// cleanEOF is the end-of-stream error for a read that found no bytes at all.
// It matches both ErrUnexpectedEndOfStream and io.EOF, so stream loops can stop at a value boundary.
type cleanEOF struct{}

func (cleanEOF) Error() string { return "end of stream" }

func (cleanEOF) Is(target error) bool {
	return target == ErrUnexpectedEndOfStream || target == io.EOF
}

// Read reads from r, completely filling the buffer. It provides error handling with as little overhead as possible.
// In an ideal read, only a single int equality check is performed. If the read reports the whole buffer is read, returned errors are ignored.
//
// A reader that runs dry yields ErrUnexpectedEndOfStream. If not a single byte was read the error also matches io.EOF.
func Read(buff []byte, r io.Reader) error {
	n, err := r.Read(buff)
	if n == len(buff) {
		return nil
	}

	end := n
	for end < len(buff) && err == nil {
		n, err = r.Read(buff[end:])
		end += n
		if n == 0 && err == nil {
			err = io.ErrNoProgress
		}
	}

	if end != len(buff) {
		switch {
		case end > len(buff):
			return NewIOError(
				errors.New("bad io.Reader implementation"),
				fmt.Sprintf("reported %v bytes read, but buffer is only %v bytes", end, len(buff)),
			)
		case end == 0 && errors.Is(err, io.EOF):
			return NewIOError(cleanEOF{}, fmt.Sprintf("want %v bytes", len(buff)))
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return NewIOError(
				ErrUnexpectedEndOfStream,
				fmt.Sprintf("want %v bytes but only got %v", len(buff), end),
			)
		default:
			return NewIOError(
				err,
				fmt.Sprintf("want %v bytes but only got %v", len(buff), end),
			)
		}
	}
	return nil
}

// Discard reads and drops n bytes from r without buffering more than a small chunk at a time.
func Discard(r io.Reader, n int64) error {
	copied, err := io.CopyN(io.Discard, r, n)
	if copied == n {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return NewIOError(
			ErrUnexpectedEndOfStream,
			fmt.Sprintf("want %v bytes but only got %v", n, copied),
		)
	}
	return NewIOError(err, fmt.Sprintf("discarding %v bytes", n))
}

// ReadN returns the next n bytes of r.
// Lengths above ReadChunk are read chunk by chunk, growing the buffer only as far as the data actually goes.
func ReadN(r io.Reader, n int) ([]byte, error) {
	if n <= ReadChunk {
		buff := make([]byte, n)
		if n == 0 {
			return buff, nil
		}
		if err := Read(buff, r); err != nil {
			if errors.Is(err, io.EOF) {
				// Zero bytes of a payload whose header was already read is still unexpected.
				return nil, NewIOError(ErrUnexpectedEndOfStream, fmt.Sprintf("want %v bytes but only got 0", n))
			}
			return nil, err
		}
		return buff, nil
	}

	buff := make([]byte, 0, ReadChunk)
	for len(buff) < n {
		want := n - len(buff)
		if want > ReadChunk {
			want = ReadChunk
		}
		if cap(buff)-len(buff) < want {
			buff = append(buff[:cap(buff)], make([]byte, cap(buff))...)[:len(buff)]
		}
		got, err := io.ReadFull(r, buff[len(buff):len(buff)+want])
		buff = buff[:len(buff)+got]
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, NewIOError(ErrUnexpectedEndOfStream, fmt.Sprintf("want %v bytes but only got %v", n, len(buff)))
			}
			return nil, NewIOError(err, fmt.Sprintf("want %v bytes but only got %v", n, len(buff)))
		}
	}
	return buff, nil
}

// Write writes to w from buff, handling errors of io.Writer with as little overhead as possible.
// In an ideal write, only a single int equality check is performed. It returns any error from Write().
func Write(buff []byte, w io.Writer) error {
	n, err := w.Write(buff)
	if n == len(buff) {
		return err
	}

	end := n
	for end < len(buff) && err == nil && n > 0 {
		Warnings.Sugar().Warnf("%T is a bad io.Writer implementation. It wrote short (given %v bytes but reported only %v written) yet returned no error. Will call it again...", w, len(buff)-(end-n), n)
		n, err = w.Write(buff[end:])
		end += n
	}

	if end != len(buff) {
		switch {
		case end > len(buff):
			return NewIOError(
				errors.New("bad io.Writer implementation"),
				fmt.Sprintf("Write() reported %v bytes written, but was only given %v bytes", end, len(buff)),
			)
		case err == nil:
			return NewIOError(
				io.ErrShortWrite,
				fmt.Sprintf("want %v bytes but only wrote %v bytes", len(buff), end),
			)
		default:
			return NewIOError(
				err,
				fmt.Sprintf("want %v bytes but wrote %v bytes", len(buff), end),
			)
		}
	}
	return nil
}

// MidValue converts an end of stream found at a value boundary into ErrUnexpectedEndOfStream.
// It is used once a value has been started, where running out of data is never clean.
func MidValue(err error) error {
	if err != nil && errors.Is(err, io.EOF) {
		return NewIOError(ErrUnexpectedEndOfStream, err.Error())
	}
	return err
}
