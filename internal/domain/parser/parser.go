// Package parser validates analyzer telemetry lines and decodes them into
// readings.
//
// A line is fifteen comma-separated key:value fields in a fixed order, the
// last being a free-form state label that runs to the end of the line.
// Parsing is pure: it never logs and never touches shared state.
package parser

import (
	"errors"
	"strconv"
	"strings"

	"github.com/okian/eegscope/internal/domain/model"
)

// Parse decodes one telemetry line. The line is trimmed before matching.
// On failure the returned error is an *Error wrapping ErrShapeMismatch,
// ErrNumericCoercion or ErrEmptyState.
func Parse(line string) (model.Reading, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return model.Reading{}, shapeError(0, "", "", "empty line")
	}

	// The state label is the greedy remainder, so it keeps any commas it has.
	parts := strings.SplitN(line, FieldSeparator, FieldCount)
	if len(parts) != FieldCount {
		return model.Reading{}, shapeError(0, "", "",
			"expected "+strconv.Itoa(FieldCount)+" fields, got "+strconv.Itoa(len(parts)))
	}

	var r model.Reading
	for i := range fields {
		f := &fields[i]
		pos := i + 1

		raw := parts[i]
		if i > 0 {
			// The firmware prints ", " between fields.
			raw = strings.TrimPrefix(raw, " ")
		}
		value, ok := strings.CutPrefix(raw, f.key+KeyValueSeparator)
		if !ok {
			return model.Reading{}, shapeError(pos, f.key, raw, "missing or out-of-order key")
		}

		switch f.kind {
		case kindUint:
			v, err := parseUint(value)
			if err != nil {
				return model.Reading{}, &Error{Kind: ErrNumericCoercion, Position: pos, Field: f.key, Value: value, Cause: err}
			}
			f.setInt(&r, v)
		case kindDecimal:
			v, err := parseDecimal(value)
			if err != nil {
				return model.Reading{}, &Error{Kind: ErrNumericCoercion, Position: pos, Field: f.key, Value: value, Cause: err}
			}
			f.setFloat(&r, v)
		case kindText:
			state := strings.TrimSpace(value)
			if state == "" {
				return model.Reading{}, &Error{Kind: ErrEmptyState, Position: pos, Field: f.key}
			}
			r.State = state
		}
	}
	return r, nil
}

// ParseSample is Parse followed by the projection the window retains.
func ParseSample(line string) (model.Sample, error) {
	r, err := Parse(line)
	if err != nil {
		return model.Sample{}, err
	}
	return r.Retained(), nil
}

var (
	errNotUnsigned = errors.New("want unsigned integer digits")
	errNotDecimal  = errors.New("want digits with an optional fractional part")
)

// parseUint accepts digits only: no sign, no base prefix, no separators.
func parseUint(s string) (int64, error) {
	if s == "" {
		return 0, errNotUnsigned
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, errNotUnsigned
		}
	}
	return strconv.ParseInt(s, 10, 64)
}

// parseDecimal accepts digits with at most one '.', and at least one digit.
// Signs, exponents, nan and inf are rejected before strconv sees them.
func parseDecimal(s string) (float64, error) {
	digits, dots := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return 0, errNotDecimal
		}
	}
	if digits == 0 || dots > 1 {
		return 0, errNotDecimal
	}
	return strconv.ParseFloat(s, 64)
}
