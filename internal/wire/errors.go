package wire

import (
	"errors"
	"fmt"
)

// DecodeErrorKind classifies why a subscription payload could not be decoded.
type DecodeErrorKind int

const (
	// KeyNotFound means a required key is absent.
	KeyNotFound DecodeErrorKind = iota
	// ValueNotFound means a required key is present but null.
	ValueNotFound
	// TypeMismatch means a value has the wrong JSON type.
	TypeMismatch
	// DataCorrupted means the payload is not valid JSON or names an unknown
	// event.
	DataCorrupted
	// InvalidTimestamp means a timestamp is present but not ISO-8601.
	InvalidTimestamp
)

// String implements fmt.Stringer.
func (k DecodeErrorKind) String() string {
	switch k {
	case KeyNotFound:
		return "keyNotFound"
	case ValueNotFound:
		return "valueNotFound"
	case TypeMismatch:
		return "typeMismatch"
	case DataCorrupted:
		return "dataCorrupted"
	case InvalidTimestamp:
		return "invalidTimestamp"
	default:
		return fmt.Sprintf("decodeErrorKind(%d)", int(k))
	}
}

// DecodeError reports the field that made a payload undecodable.
type DecodeError struct {
	// Kind is the failure class.
	Kind DecodeErrorKind
	// Path is the dotted path of the offending field, e.g.
	// "data.rooms[0].created_at". Empty for whole-payload failures.
	Path string
	// Err is the underlying error, if any.
	Err error
}

// Error implements error.
func (e *DecodeError) Error() string {
	msg := e.Kind.String()
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error { return e.Err }

// ErrUnknownEvent is wrapped by DataCorrupted errors for unrecognised event
// names.
var ErrUnknownEvent = errors.New("unknown event name")

// IsDecodeError reports whether err is a DecodeError of the given kind.
func IsDecodeError(err error, kind DecodeErrorKind) bool {
	var de *DecodeError
	if !errors.As(err, &de) {
		return false
	}
	return de.Kind == kind
}

func newDecodeError(kind DecodeErrorKind, path string, err error) *DecodeError {
	return &DecodeError{Kind: kind, Path: path, Err: err}
}
