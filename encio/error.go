package encio

import (
	"fmt"
	"reflect"
	"runtime"

	"github.com/cockroachdb/errors"
)

// Error handling in mpk separates io and bad-data errors from errors in how a value is being serialized,
// and reuses a small set of error kinds with extra information wrapped as applicable.
// Panics are only used when there is a clear misuse of the library; programmer error.
// IOError errors indicate a bad io.Reader/io.Writer or an unreadable stream, and the caller should stop using it.
// Error errors indicate the caller should stop using a Serializer, or use it in a different way.
//
// Errors can be checked with
//
//	var encErr encio.Error
//	var ioErr encio.IOError
//	if errors.As(err, &encErr) {
//		//handle serialization error
//	} else if errors.As(err, &ioErr) {
//		//handle io error
//	}
//
// or against the sentinels below with errors.Is.
// Every error is fatal to the pack or unpack call that returned it; no partial results are returned.
var (
	// ErrUnexpectedEndOfStream is returned when the source is exhausted in the middle of a value.
	ErrUnexpectedEndOfStream = errors.New("unexpected end of stream")

	// ErrInvalidFormatTag is returned when a tag byte lies outside every defined range of the wire format.
	ErrInvalidFormatTag = errors.New("invalid format tag")

	// ErrMissingItem is returned when a container has fewer entries than the reader requires.
	// The concrete error is a *MissingItemError carrying the position.
	ErrMissingItem = errors.New("missing item")

	// ErrReadOnlyMemberMustNotBeNull is returned when a getter-only collection member is nil at unpack time.
	ErrReadOnlyMemberMustNotBeNull = errors.New("read-only member must not be null")

	// ErrNilImplicationViolation is returned when a member configured to prohibit nil meets a nil.
	ErrNilImplicationViolation = errors.New("nil implication violation")

	// ErrConstructorArgumentUnresolved is returned when a required constructor parameter has neither a wire value nor a default.
	ErrConstructorArgumentUnresolved = errors.New("constructor argument unresolved")

	// ErrSubtreeExhausted is returned when reading past the declared item count of a subtree.
	ErrSubtreeExhausted = errors.New("subtree exhausted")

	// ErrMalformed is returned when the read data is impossible to decode.
	ErrMalformed = errors.New("malformed")

	// ErrBadType is returned when a type is wrong, unresolvable or inappropriate for the wire value.
	ErrBadType = errors.New("bad type")

	// ErrNilPointer is returned if a pointer that should not be nil is nil.
	ErrNilPointer = errors.New("nil pointer")

	// ErrBadConfig is returned when a descriptor or config cannot be used to serialize the given type.
	ErrBadConfig = errors.New("bad config")
)

// NewIOError returns an IOError wrapping err with the given message.
// err is typically the error returned from the io.Reader/io.Writer, or another error describing why the stream isn't usable.
// If message is empty, it is filled with the calling function's name.
func NewIOError(err error, message string) error {
	if err == nil {
		return NewError(errors.New("unknown error"), "trying to create new IOError", "encio.NewIOError")
	}
	if message == "" {
		message = "in " + GetCaller(1)
	}

	return IOError{
		Err:     err,
		Message: message,
	}
}

// IOError is returned when io errors occur, or when read data is malformed.
type IOError struct {
	Err     error
	Message string
}

// Error implements error
func (e IOError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap implements errors's Unwrap()
func (e IOError) Unwrap() error {
	return e.Err
}

// NewError returns an Error wrapping err with message and caller.
// If caller is empty, it is automatically filled with the calling function's name.
func NewError(err error, message string, caller string) error {
	if caller == "" {
		caller = GetCaller(1)
	}

	return Error{
		Err:     err,
		Message: message,
		Caller:  caller,
	}
}

// Errorf is NewError with a formatted message and the caller filled in.
func Errorf(err error, format string, args ...interface{}) error {
	return Error{
		Err:     err,
		Message: fmt.Sprintf(format, args...),
		Caller:  GetCaller(1),
	}
}

// Error is returned when an internal error is encountered while serializing.
type Error struct {
	Err     error
	Message string
	Caller  string
}

// Error implements error
func (e Error) Error() (str string) {
	if e.Caller != "" {
		str = e.Caller + ": "
	}

	str += e.Err.Error()

	if e.Message != "" {
		str += " (" + e.Message + ")"
	}

	return str
}

// Unwrap implements errors's Unwrap()
func (e Error) Unwrap() error {
	return e.Err
}

// MissingItemError reports the container position at which an item was missing.
type MissingItemError struct {
	Position int
	Cause    error
}

// NewMissingItem returns a *MissingItemError for position, optionally caused by cause.
func NewMissingItem(position int, cause error) error {
	return &MissingItemError{Position: position, Cause: cause}
}

func (e *MissingItemError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("missing item at position %d: %v", e.Position, e.Cause)
	}
	return fmt.Sprintf("missing item at position %d", e.Position)
}

// Is reports ErrMissingItem.
func (e *MissingItemError) Is(target error) bool { return target == ErrMissingItem }

func (e *MissingItemError) Unwrap() error { return e.Cause }

// MemberError reports a failure tied to one member of a declaring type.
// It is used for nil implication violations, read-only members and unresolved constructor arguments.
type MemberError struct {
	Err       error
	Declaring reflect.Type
	Member    string
}

// NewMemberError returns a *MemberError.
func NewMemberError(err error, declaring reflect.Type, member string) error {
	return &MemberError{Err: err, Declaring: declaring, Member: member}
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("%v: member %q of %v", e.Err, e.Member, e.Declaring)
}

func (e *MemberError) Unwrap() error { return e.Err }

// IsEndOfStream reports whether err means the stream ran out.
func IsEndOfStream(err error) bool {
	return errors.Is(err, ErrUnexpectedEndOfStream)
}

// GetCaller returns the name of the calling function, skipping skip functions.
// i.e. 0 writes the calling function, 1 the function calling that etc...
func GetCaller(skip int) string {
	pcs := make([]uintptr, 1)
	n := runtime.Callers(2+skip, pcs)
	if n != 1 {
		return "Unknown Function"
	}

	frames := runtime.CallersFrames(pcs)
	frame, _ := frames.Next()
	return frame.Function
}
