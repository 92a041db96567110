package parser

import (
	"strconv"
	"strings"

	"github.com/okian/eegscope/internal/domain/model"
)

// decimalPlaces matches the Arduino Serial.print default for floats.
const decimalPlaces = 2

// Format renders r in the analyzer's wire format, without a line terminator.
// Negative values cannot be represented on the wire and are clamped to zero.
func Format(r model.Reading) string {
	var b strings.Builder
	for i := range fields {
		f := &fields[i]
		if i > 0 {
			b.WriteString(FieldSeparator)
			b.WriteByte(' ')
		}
		b.WriteString(f.key)
		b.WriteString(KeyValueSeparator)
		switch f.kind {
		case kindUint:
			b.WriteString(strconv.FormatInt(max(f.getInt(&r), 0), 10))
		case kindDecimal:
			b.WriteString(strconv.FormatFloat(max(f.getFloat(&r), 0), 'f', decimalPlaces, 64))
		case kindText:
			b.WriteString(r.State)
		}
	}
	return b.String()
}
