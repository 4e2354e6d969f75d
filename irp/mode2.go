package irp

import (
	"bufio"
	"strconv"
	"strings"
)

// ParseMode2 parses the line-oriented "pulse N" / "space N" / "timeout N"
// / "carrier N" format produced by lirc's mode2 tool, folding consecutive
// same-polarity lines, grounded on the reference mode2 parser's folding
// and validation rules.
func ParseMode2(s string) (Message, error) {
	var res []uint32
	var carrier *int64

	scanner := bufio.NewScanner(strings.NewReader(s))
	for scanner.Scan() {
		line := scanner.Text()
		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}

		var isPulse bool
		switch words[0] {
		case "pulse":
			isPulse = true
		case "space", "timeout":
			isPulse = false
		case "carrier":
			if len(words) < 2 {
				return Message{}, parseErrorf(0, "missing carrier value")
			}
			c, err := strconv.ParseInt(words[1], 10, 64)
			if err != nil {
				return Message{}, parseErrorf(0, "carrier argument %q is not a number", words[1])
			}
			if c < 0 {
				return Message{}, parseErrorf(0, "negative carrier %d does not make sense", c)
			}
			if carrier != nil && *carrier != c {
				return Message{}, parseErrorf(0, "carrier specified more than once")
			}
			carrier = &c
			if len(words) > 2 && !isComment(words[2]) {
				return Message{}, parseErrorf(0, "unexpected %q", words[2])
			}
			continue
		default:
			if isComment(words[0]) {
				continue
			}
			return Message{}, parseErrorf(0, "unexpected %q", words[0])
		}

		if len(words) < 2 {
			return Message{}, parseErrorf(0, "missing duration")
		}
		v, err := strconv.ParseUint(words[1], 10, 32)
		if err != nil {
			return Message{}, parseErrorf(0, "invalid duration %q", words[1])
		}
		if v == 0 {
			return Message{}, parseErrorf(0, "nonsensical 0 duration")
		}
		if v > 0x00FFFFFF {
			return Message{}, parseErrorf(0, "duration %q too long", words[1])
		}
		if len(words) > 2 {
			return Message{}, parseErrorf(0, "unexpected %q", words[2])
		}

		if isPulse {
			if len(res)%2 == 1 {
				res[len(res)-1] += uint32(v)
			} else {
				res = append(res, uint32(v))
			}
		} else {
			if len(res)%2 == 0 {
				if len(res) > 0 {
					res[len(res)-1] += uint32(v)
				}
				// a leading space with no preceding flash is ignored
			} else {
				res = append(res, uint32(v))
			}
		}
	}

	if len(res) == 0 {
		return Message{}, parseErrorf(0, "missing pulse")
	}

	return Message{Carrier: carrier, Raw: res}, nil
}

func isComment(w string) bool {
	return strings.HasPrefix(w, "#") || strings.HasPrefix(w, "//")
}

// FormatMode2 renders a Message as mode2 text, one "pulse"/"space" line
// per entry, with a leading "carrier" line when set.
func FormatMode2(m Message) string {
	var b strings.Builder
	if m.Carrier != nil {
		b.WriteString("carrier ")
		b.WriteString(strconv.FormatInt(*m.Carrier, 10))
		b.WriteByte('\n')
	}
	for i, v := range m.Raw {
		if i%2 == 0 {
			b.WriteString("pulse ")
		} else {
			b.WriteString("space ")
		}
		b.WriteString(strconv.FormatUint(uint64(v), 10))
		b.WriteByte('\n')
	}
	return b.String()
}
