package remote

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/mdlayher/irctl/internal/irlog"
	"github.com/mdlayher/irctl/irp"
	"github.com/mdlayher/irctl/protocol"
)

// tomlDocument mirrors spec.md §4.8's TOML keymap schema: a top-level
// "[[protocols]]" array, each entry either a scancode-keyed protocol or
// an array of literal raw codes.
type tomlDocument struct {
	Protocols []tomlProtocol `toml:"protocols"`
}

type tomlProtocol struct {
	Name      string            `toml:"name"`
	Protocol  string            `toml:"protocol"`
	IRP       string            `toml:"irp"`
	Variant   string            `toml:"variant"`
	Scancodes map[string]string `toml:"scancodes"`
	Raw       []tomlRawCode     `toml:"raw"`
}

type tomlRawCode struct {
	Keycode string   `toml:"keycode"`
	Raw     []uint32 `toml:"raw"`
	Repeat  []uint32 `toml:"repeat"`
	Pronto  string   `toml:"pronto"`
}

// ParseKeymap parses a TOML keymap document into one Remote per
// "[[protocols]]" entry.
func ParseKeymap(r io.Reader, log irlog.Logger) ([]*Remote, error) {
	var doc tomlDocument
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, parseErrorf(0, "decoding toml keymap: %v", err)
	}

	remotes := make([]*Remote, 0, len(doc.Protocols))
	for _, p := range doc.Protocols {
		rem, err := buildKeymapRemote(p, log)
		if err != nil {
			return nil, err
		}
		remotes = append(remotes, rem)
	}
	return remotes, nil
}

func buildKeymapRemote(p tomlProtocol, log irlog.Logger) (*Remote, error) {
	rem := &Remote{Name: p.Name}

	var fields []protocol.ScancodeField
	switch {
	case p.IRP != "":
		rem.IRP = p.IRP
		f, err := protocol.ScancodeFieldsForIRP(p.IRP)
		if err != nil {
			return nil, parseErrorf(0, "protocol %s: inline irp: %v", p.Name, err)
		}
		fields = f

	case p.Protocol != "":
		entry, ok := protocol.FindLike(p.Protocol)
		if !ok {
			return nil, unknownProtocolErrorf("protocol %s: unknown protocol %q", p.Name, p.Protocol)
		}
		rem.IRP = entry.IRP
		rem.AbsoluteTolerance = entry.AbsoluteTolerance
		rem.RelativeTolerance = entry.RelativeTolerance
		f, err := entry.ScancodeFields()
		if err != nil {
			return nil, parseErrorf(0, "protocol %s: %v", p.Name, err)
		}
		fields = f

	case len(p.Raw) > 0:
		// raw-only entries carry no protocol/irp reference.

	default:
		return nil, parseErrorf(0, "protocol %s: must set protocol, irp, or raw", p.Name)
	}
	rem.ScancodeFields = fields

	if len(p.Scancodes) > 0 {
		seen := map[string]bool{}
		// sort keys so parse errors and key ordering are deterministic
		codes := make([]string, 0, len(p.Scancodes))
		for k := range p.Scancodes {
			codes = append(codes, k)
		}
		sort.Strings(codes)

		for _, codeStr := range codes {
			name := p.Scancodes[codeStr]
			code, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimPrefix(codeStr, "0x"), "0X"), 16, 64)
			if err != nil {
				return nil, parseErrorf(0, "protocol %s: scancode %q: %v", p.Name, codeStr, err)
			}
			vars := protocol.PackScancodeFields(fields, code)
			dup := seen[name]
			if dup {
				log.Warning("duplicate key definition, keeping first", "remote", rem.Name, "key", name)
			}
			seen[name] = true
			rem.Codes = append(rem.Codes, Code{Name: name, Code: []int64{int64(code)}, Vars: vars, Dup: dup})
		}
	}

	seenRaw := map[string]bool{}
	for _, raw := range p.Raw {
		rawir := raw.Raw
		if len(rawir) == 0 && raw.Pronto != "" {
			pr, err := irp.ParsePronto(raw.Pronto)
			if err != nil {
				return nil, parseErrorf(0, "protocol %s: key %s: pronto: %v", p.Name, raw.Keycode, err)
			}
			msg, err := pr.Encode(0)
			if err != nil {
				return nil, parseErrorf(0, "protocol %s: key %s: pronto: %v", p.Name, raw.Keycode, err)
			}
			rawir = msg.Raw
		}
		dup := seenRaw[raw.Keycode]
		if dup {
			log.Warning("duplicate key definition, keeping first", "remote", rem.Name, "key", raw.Keycode)
		}
		seenRaw[raw.Keycode] = true
		rem.RawCodes = append(rem.RawCodes, RawCode{Name: raw.Keycode, Raw: rawir, Repeat: raw.Repeat, Dup: dup})
	}

	return rem, nil
}
