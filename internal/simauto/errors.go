package simauto

import (
	"errors"
	"fmt"
	"strings"

	"gridauto/internal/coerce"
)

// ErrEndpoint marks transport-level failures: the invocation itself could
// not be delivered, as opposed to the server reporting an error.
var ErrEndpoint = errors.New("endpoint failure")

// ErrSessionClosed is returned for calls against a closed session.
var ErrSessionClosed = errors.New("session closed")

// CallError reports that the automation server flagged an invocation as
// failed. The payload, if any, is discarded.
type CallError struct {
	Function string
	Message  string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Function, e.Message)
}

// ShapeError reports a payload whose row width does not match the number
// of requested fields. It indicates a contract violation between request
// and response and is always fatal to the call.
type ShapeError struct {
	ObjectType string
	Row        int
	Want       int
	Got        int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s row %d: payload width %d, want %d", e.ObjectType, e.Row, e.Got, e.Want)
}

// ConversionError reports a scalar that could not be coerced to its
// declared field type. The raw value is preserved; it is never silently
// replaced with a default.
type ConversionError struct {
	ObjectType string
	Field      string
	Row        int
	Value      any
	Err        error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s field %s row %d: %v", e.ObjectType, e.Field, e.Row, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// FieldMismatch identifies one (row, field) pair whose value after a
// write did not match the requested value. A nil Got means the object was
// not found on re-read.
type FieldMismatch struct {
	Row   int
	Field string
	Want  any
	Got   any
}

func (m FieldMismatch) String() string {
	if m.Got == nil {
		return fmt.Sprintf("row %d %s: want %s, object missing on re-read", m.Row, m.Field, coerce.Format(m.Want))
	}
	return fmt.Sprintf("row %d %s: want %s, got %s", m.Row, m.Field, coerce.Format(m.Want), coerce.Format(m.Got))
}

// VerificationError reports that a change call succeeded but re-reading
// the values showed the server did not respect the command. The change is
// not rolled back; deciding whether to retry or abandon is the caller's.
type VerificationError struct {
	ObjectType string
	Mismatches []FieldMismatch
}

func (e *VerificationError) Error() string {
	parts := make([]string, 0, len(e.Mismatches))
	for _, m := range e.Mismatches {
		parts = append(parts, m.String())
	}
	return fmt.Sprintf("%s: change not respected by server: %s", e.ObjectType, strings.Join(parts, "; "))
}
