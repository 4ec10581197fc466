// Package errs defines the closed error taxonomy shared by collectors, the
// snapshot cache, the plugin runtime and the C boundary.
package errs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Kind classifies a failure. The numeric values are part of the C ABI and
// must not be reordered.
type Kind uint8

const (
	ApiUnavailable Kind = iota
	ConfigurationError
	CorruptedData
	InternalError
	InvalidArgument
	IoError
	NetworkError
	NotFound
	NotSupported
	Other
	OutOfMemory
	ParseError
	PermissionDenied
	PermissionRequired
	PlatformSpecific
	ResourceExhausted
	Timeout
	UnavailableFeature
)

// KindCount is the number of defined kinds.
const KindCount = int(UnavailableFeature) + 1

var kindNames = [...]string{
	ApiUnavailable:     "api unavailable",
	ConfigurationError: "configuration error",
	CorruptedData:      "corrupted data",
	InternalError:      "internal error",
	InvalidArgument:    "invalid argument",
	IoError:            "i/o error",
	NetworkError:       "network error",
	NotFound:           "not found",
	NotSupported:       "not supported",
	Other:              "other",
	OutOfMemory:        "out of memory",
	ParseError:         "parse error",
	PermissionDenied:   "permission denied",
	PermissionRequired: "permission required",
	PlatformSpecific:   "platform specific",
	ResourceExhausted:  "resource exhausted",
	Timeout:            "timeout",
	UnavailableFeature: "unavailable feature",
}

// String returns a human-readable kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool { return int(k) < KindCount }

// Error lets a bare Kind act as a sentinel, so callers can write
// errors.Is(err, errs.NotFound).
func (k Kind) Error() string { return k.String() }

// Error is the typed failure carried through every fallible operation.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "cache.get" or "plugin.load"
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *Error) Unwrap() error { return e.Err }

// Is matches a Kind sentinel against this error's kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// New creates an Error with a message and no cause.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Message: msg}
}

// Errorf creates an Error with a formatted message.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and operation to err. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// WrapIO wraps err with the kind inferred from it, defaulting to IoError.
func WrapIO(op string, err error) error {
	if err == nil {
		return nil
	}
	kind := KindOf(err)
	if kind == Other {
		kind = IoError
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf classifies any error. Typed errors keep their kind; well-known
// standard library errors are mapped; everything else is Other.
func KindOf(err error) Kind {
	if err == nil {
		return Other
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NotFound
	case errors.Is(err, fs.ErrPermission):
		return PermissionDenied
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return Timeout
	}
	return Other
}
