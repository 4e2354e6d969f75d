package irp

import (
	"strconv"
	"strings"
)

// ParseRawIR parses whitespace- or comma-separated signed durations of
// the form "+100 -100 +50", grounded on the reference rawir parser: signs
// alternate starting with flash (even index), a missing sign is accepted
// provided it is consistent with its position, and a zero-length duration
// is rejected.
func ParseRawIR(s string) ([]uint32, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ','
	})

	var res []uint32
	for i, field := range fields {
		rest := field
		switch {
		case strings.HasPrefix(field, "+"):
			if i%2 != 0 {
				return nil, parseErrorf(0, "unexpected '+' encountered")
			}
			rest = field[1:]
		case strings.HasPrefix(field, "-"):
			if i%2 == 0 {
				return nil, parseErrorf(0, "unexpected '-' encountered")
			}
			rest = field[1:]
		case len(field) > 0 && (field[0] < '0' || field[0] > '9'):
			return nil, parseErrorf(0, "unexpected %q encountered", field[0:1])
		}

		v, err := strconv.ParseUint(rest, 10, 32)
		if err != nil {
			return nil, parseErrorf(0, "invalid number %q", rest)
		}
		if v == 0 {
			return nil, parseErrorf(0, "nonsensical 0 length")
		}
		res = append(res, uint32(v))
	}

	if len(res) == 0 {
		return nil, parseErrorf(0, "missing length")
	}
	return res, nil
}

// FormatRawIR renders a duration sequence with explicit alternating signs
// starting with '+' (flash), space separated.
func FormatRawIR(raw []uint32) string {
	var b strings.Builder
	for i, v := range raw {
		if i > 0 {
			b.WriteByte(' ')
		}
		if i%2 == 0 {
			b.WriteByte('+')
		} else {
			b.WriteByte('-')
		}
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	}
	return b.String()
}
