package remote

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/mdlayher/irctl/internal/irlog"
)

// ParseLircd parses an lircd.conf document (possibly carrying several
// "begin remote … end remote" blocks) into one Remote per block.
func ParseLircd(r io.Reader, log irlog.Logger) ([]*Remote, error) {
	var remotes []*Remote
	var cur *Remote
	var seenKeys map[string]bool

	section := sectionTop
	var rawName string
	var rawValues []uint32

	flushRaw := func() {
		if cur != nil && rawName != "" {
			cur.RawCodes = append(cur.RawCodes, RawCode{Name: rawName, Raw: rawValues})
		}
		rawName = ""
		rawValues = nil
	}

	lineNo := 0
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lineNo++
		line := stripComment(sc.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		kw := strings.ToLower(fields[0])
		args := fields[1:]

		switch section {
		case sectionTop:
			if kw == "begin" && len(args) == 1 && strings.EqualFold(args[0], "remote") {
				cur = &Remote{}
				seenKeys = map[string]bool{}
				section = sectionRemote
				continue
			}
			return nil, parseErrorf(lineNo, "expected 'begin remote', found %q", line)

		case sectionRemote:
			switch {
			case kw == "begin" && len(args) == 1 && strings.EqualFold(args[0], "codes"):
				section = sectionCodes
			case kw == "begin" && len(args) == 1 && strings.EqualFold(args[0], "raw_codes"):
				section = sectionRawCodes
			case kw == "end" && len(args) == 1 && strings.EqualFold(args[0], "remote"):
				if cur.Gap == 0 {
					log.Warning("remote has no gap, defaulting", "remote", cur.Name, "default_us", 20000)
				}
				remotes = append(remotes, cur)
				cur = nil
				section = sectionTop
			default:
				if err := applyRemoteField(cur, kw, args, lineNo, log); err != nil {
					return nil, err
				}
			}

		case sectionCodes:
			if kw == "end" && len(args) == 1 && strings.EqualFold(args[0], "codes") {
				section = sectionRemote
				continue
			}
			name := fields[0]
			vals := make([]int64, 0, len(args))
			for _, a := range args {
				v, err := parseLircdNumber(a)
				if err != nil {
					return nil, parseErrorf(lineNo, "code %s: %v", name, err)
				}
				vals = append(vals, v)
			}
			key := "code:" + name
			dup := seenKeys[key]
			if dup {
				log.Warning("duplicate key definition, keeping first", "remote", cur.Name, "key", name)
			}
			seenKeys[key] = true
			cur.Codes = append(cur.Codes, Code{Name: name, Code: vals, Dup: dup})

		case sectionRawCodes:
			if kw == "end" && len(args) == 1 && strings.EqualFold(args[0], "raw_codes") {
				flushRaw()
				section = sectionRemote
				continue
			}
			if kw == "name" && len(args) >= 1 {
				flushRaw()
				rawName = args[0]
				key := "raw:" + rawName
				if seenKeys[key] {
					log.Warning("duplicate key definition, keeping first", "remote", cur.Name, "key", rawName)
				}
				seenKeys[key] = true
				continue
			}
			for _, f := range fields {
				v, err := parseLircdNumber(f)
				if err != nil {
					return nil, parseErrorf(lineNo, "raw code %s: %v", rawName, err)
				}
				rawValues = append(rawValues, uint32(v))
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, parseErrorf(lineNo, "reading lircd.conf: %v", err)
	}
	if section != sectionTop {
		return nil, parseErrorf(lineNo, "unexpected end of file inside %s", section)
	}
	return remotes, nil
}

type lircdSection int

const (
	sectionTop lircdSection = iota
	sectionRemote
	sectionCodes
	sectionRawCodes
)

func (s lircdSection) String() string {
	switch s {
	case sectionRemote:
		return "remote block"
	case sectionCodes:
		return "codes block"
	case sectionRawCodes:
		return "raw_codes block"
	default:
		return "top level"
	}
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

func parseLircdNumber(s string) (int64, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	return strconv.ParseInt(s, base, 64)
}

func parseLircdUint32(args []string, lineNo int, kw string) (uint32, error) {
	if len(args) != 1 {
		return 0, parseErrorf(lineNo, "%s takes exactly one value", kw)
	}
	v, err := parseLircdNumber(args[0])
	if err != nil {
		return 0, parseErrorf(lineNo, "%s: %v", kw, err)
	}
	return uint32(v), nil
}

func parseLircdPair(args []string, lineNo int, kw string) ([2]uint32, error) {
	if len(args) != 2 {
		return [2]uint32{}, parseErrorf(lineNo, "%s takes exactly two values", kw)
	}
	a, err := parseLircdNumber(args[0])
	if err != nil {
		return [2]uint32{}, parseErrorf(lineNo, "%s: %v", kw, err)
	}
	b, err := parseLircdNumber(args[1])
	if err != nil {
		return [2]uint32{}, parseErrorf(lineNo, "%s: %v", kw, err)
	}
	return [2]uint32{uint32(a), uint32(b)}, nil
}

// flagNames maps the lircd.conf "flags" keyword vocabulary onto Flags
// bits. Names this package does not model (SPACE_ENC, COMPAT_REVERSE,
// and similar historical aliases) are accepted and ignored with a
// warning rather than rejected, since they do not change this package's
// synthesis.
var flagNames = map[string]Flags{
	"raw_codes":     FlagRawCodes,
	"const_length":  FlagConstLength,
	"no_head_rep":   FlagNoHeadRep,
	"repeat_header": FlagRepeatHeader,
	"rc5":           FlagRC5,
	"rc6":           FlagRC6,
	"rcmm":          FlagRCMM,
	"serial":        FlagSerial,
	"reverse":       FlagReverse,
}

func applyRemoteField(r *Remote, kw string, args []string, lineNo int, log irlog.Logger) error {
	var err error
	switch kw {
	case "name":
		r.Name = strings.Join(args, " ")
	case "flags":
		if len(args) != 1 {
			return parseErrorf(lineNo, "flags takes exactly one value")
		}
		for _, name := range strings.FieldsFunc(args[0], func(r rune) bool { return r == '|' || r == ',' }) {
			bit, ok := flagNames[strings.ToLower(name)]
			if !ok {
				log.Warning("unknown lircd.conf flag ignored", "flag", name)
				continue
			}
			r.Flags |= bit
		}
	case "frequency":
		r.Frequency, err = parseLircdUint32(args, lineNo, kw)
	case "duty_cycle":
		var v uint32
		v, err = parseLircdUint32(args, lineNo, kw)
		r.DutyCycle = uint8(v)
	case "gap":
		r.Gap, err = parseLircdUint32(args, lineNo, kw)
	case "gap2":
		r.Gap2, err = parseLircdUint32(args, lineNo, kw)
	case "min_repeat":
		r.MinRepeat, err = parseLircdUint32(args, lineNo, kw)
	case "repeat_gap":
		r.RepeatGap, err = parseLircdUint32(args, lineNo, kw)
	case "bits":
		var v uint32
		v, err = parseLircdUint32(args, lineNo, kw)
		r.Bits = int(v)
	case "pre_data_bits":
		var v uint32
		v, err = parseLircdUint32(args, lineNo, kw)
		r.PreDataBits = int(v)
	case "pre_data":
		var v int64
		v, err = parseLircdSingle(args, lineNo, kw)
		r.PreData = uint64(v)
	case "post_data_bits":
		var v uint32
		v, err = parseLircdUint32(args, lineNo, kw)
		r.PostDataBits = int(v)
	case "post_data":
		var v int64
		v, err = parseLircdSingle(args, lineNo, kw)
		r.PostData = uint64(v)
	case "header":
		r.Header, err = parseLircdPair(args, lineNo, kw)
	case "one":
		r.One, err = parseLircdPair(args, lineNo, kw)
	case "zero":
		r.Zero, err = parseLircdPair(args, lineNo, kw)
	case "plead":
		r.Plead, err = parseLircdUint32(args, lineNo, kw)
	case "ptrail":
		r.Ptrail, err = parseLircdUint32(args, lineNo, kw)
	case "toggle_bit_mask":
		var v int64
		v, err = parseLircdSingle(args, lineNo, kw)
		r.ToggleBitMask = uint64(v)
	case "eps", "aeps":
		var v uint32
		v, err = parseLircdUint32(args, lineNo, kw)
		if kw == "eps" {
			r.RelativeTolerance = v
		} else {
			r.AbsoluteTolerance = v
		}
	default:
		// a keyword this package does not model (suppress_repeat,
		// driver, serial_*, …): lircd.conf has many such fields that do
		// not affect encoding or decoding, so they are silently skipped
		// rather than rejected.
	}
	return err
}

func parseLircdSingle(args []string, lineNo int, kw string) (int64, error) {
	if len(args) != 1 {
		return 0, parseErrorf(lineNo, "%s takes exactly one value", kw)
	}
	return parseLircdNumber(args[0])
}
