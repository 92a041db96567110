package parser

import (
	"errors"
	"strconv"
	"strings"
)

// Sentinel kinds for parse errors. Every *Error unwraps to exactly one of them.
var (
	ErrShapeMismatch   = errors.New("line shape mismatch")
	ErrNumericCoercion = errors.New("numeric coercion failed")
	ErrEmptyState      = errors.New("empty state")
)

// Error describes why a line was rejected.
type Error struct {
	Kind     error  // ErrShapeMismatch, ErrNumericCoercion or ErrEmptyState
	Position int    // 1-based field position, 0 when the whole line is at fault
	Field    string // expected key at Position
	Value    string // offending raw text
	Cause    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Field != "" {
		b.WriteString(": field ")
		b.WriteString(strconv.Itoa(e.Position))
		b.WriteString(" (")
		b.WriteString(e.Field)
		b.WriteString(")")
	}
	if e.Value != "" {
		b.WriteString(": ")
		b.WriteString(strconv.Quote(e.Value))
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes the kind sentinel and, if present, the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// KindLabel maps a parse error to a short label suitable for metrics and
// logs. It returns "unknown" for errors that did not come from Parse.
func KindLabel(err error) string {
	switch {
	case errors.Is(err, ErrShapeMismatch):
		return "shape_mismatch"
	case errors.Is(err, ErrNumericCoercion):
		return "numeric_coercion"
	case errors.Is(err, ErrEmptyState):
		return "empty_state"
	default:
		return "unknown"
	}
}

func shapeError(position int, field, value, reason string) *Error {
	return &Error{Kind: ErrShapeMismatch, Position: position, Field: field, Value: value, Cause: errors.New(reason)}
}
