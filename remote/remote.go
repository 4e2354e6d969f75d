// Package remote is the configuration layer on top of irp: it turns an
// lircd.conf file or a TOML keymap into a uniform Remote value that can
// encode a named key to a Message and build a decoder that reports which
// key a captured signal corresponds to.
package remote

import (
	"fmt"
	"strings"

	"github.com/mdlayher/irctl/internal/irlog"
	"github.com/mdlayher/irctl/irp"
	"github.com/mdlayher/irctl/protocol"
)

// Flags is the lircd.conf flags bit-set governing how a parameterised
// remote's timings are synthesized into an IRP and how its raw codes are
// repeated.
type Flags uint32

const (
	// FlagRawCodes marks every code on this remote as a literal raw
	// timing list rather than a bit-packed scancode.
	FlagRawCodes Flags = 1 << iota
	// FlagConstLength means the remote's gap is the total frame period,
	// not an idle time tacked on after a variable-length frame; the
	// trailing gap is computed as gap-elapsed rather than emitted
	// literally. The period counts from the start of the repeated block,
	// so a header sent once before that block is not included.
	FlagConstLength
	// FlagNoHeadRep means the header is sent once, not on every repeat.
	// This is this package's default synthesis behaviour; the flag name
	// is accepted for round-tripping but does not change generation.
	FlagNoHeadRep
	// FlagRepeatHeader means the header is sent on every repeat, inside
	// the repeated block rather than once up front.
	FlagRepeatHeader
	// FlagRC5 marks a biphase(RC5)-coded remote. Generic IRP synthesis
	// does not support this combination (see DESIGN.md); only raw-code
	// encoding is available for such a remote.
	FlagRC5
	// FlagRC6 is FlagRC5's RC6 counterpart.
	FlagRC6
	// FlagRCMM marks an RCMM-coded (2-bit-per-symbol) remote; unsupported
	// by generic IRP synthesis for the same reason as FlagRC5/FlagRC6.
	FlagRCMM
	// FlagSerial marks a bit-serial (UART-like) encoding; unsupported by
	// generic IRP synthesis.
	FlagSerial
	// FlagReverse transmits every bit field least-significant-bit first
	// instead of the lircd.conf default of most-significant-bit first.
	FlagReverse
)

func (f Flags) has(bit Flags) bool { return f&bit != 0 }

// unsynthesizable reports whether f combines a coding scheme this
// package's generic-IRP synthesis does not model.
func (f Flags) unsynthesizable() bool {
	return f.has(FlagRC5) || f.has(FlagRC6) || f.has(FlagRCMM) || f.has(FlagSerial)
}

// Code is one parameterised (bit-packed scancode) key definition. A key
// with more than one entry in Code is a multi-code key: encoding it emits
// every subcode once per repeat, in order.
//
// Vars, when set, overrides the CODE-binding convention entirely: the
// remote's IRP (not a synthesized one) is parsed and Vars is bound
// directly. This is how the TOML keymap front-end encodes a catalog
// protocol's scancode, since the catalog's IRP names its own parameters
// (D, S, F, …) rather than a single CODE.
type Code struct {
	Name string
	Code []int64
	Vars irp.Vartable
	Dup  bool // a later definition of the same name on the same remote
}

// RawCode is one literal-timing key definition. Repeat, when set,
// carries a distinct timing to transmit on the second and later
// repetitions instead of retransmitting Raw (some remotes send a short
// "are you still there" signal rather than the full code).
type RawCode struct {
	Name   string
	Raw    []uint32
	Repeat []uint32
	Dup    bool
}

// Remote is one lircd.conf "begin remote … end remote" block, or one
// TOML keymap protocol entry: a named collection of keys plus the
// transmit timing (or protocol reference) needed to encode them.
type Remote struct {
	Name string

	Flags Flags

	// Frequency is the carrier in Hz; 0 means "use the default" (38kHz),
	// matching lircd.conf's convention that an absent/zero frequency
	// line does not mean "unmodulated".
	Frequency uint32
	DutyCycle uint8

	Gap       uint32
	Gap2      uint32
	MinRepeat uint32
	RepeatGap uint32

	Bits         int
	PreDataBits  int
	PreData      uint64
	PostDataBits int
	PostData     uint64

	Header [2]uint32 // pulse, space
	One    [2]uint32
	Zero   [2]uint32
	Plead  uint32
	Ptrail uint32

	ToggleBitMask uint64

	Codes    []Code
	RawCodes []RawCode

	// IRP, when set, overrides the synthesized generic IRP entirely: the
	// TOML keymap front-end uses this for a "[[protocols]]" entry that
	// names an inline irp string instead of a catalog protocol.
	IRP string

	// ScancodeFields, when set, tells the Decoder how to repack IRP's
	// named parameters (D, F, S, …) back into the single kernel scancode
	// a keymap's Codes entries are keyed by; nil means the remote uses
	// the lircd.conf CODE-binding convention instead (see Decoder.Feed).
	ScancodeFields []protocol.ScancodeField

	// AbsoluteTolerance/RelativeTolerance, when non-zero, override
	// DefaultMatcherOptions for this remote's Decoder (the catalog or
	// keymap supplies these for protocols known to need looser timing).
	AbsoluteTolerance uint32
	RelativeTolerance uint32
}

// EncodeIRP returns the IRP string used to encode this remote's
// parameterised codes: IRP unchanged when it is set, otherwise a
// synthesized generic IRP that binds the scancode to a single parameter
// named CODE, matching the lircd.conf reference encoder's convention.
func (r *Remote) EncodeIRP() (string, error) {
	if r.IRP != "" {
		return r.IRP, nil
	}
	if r.Flags.has(FlagRawCodes) {
		return "", encodingErrorf(nil, "remote %s uses raw codes, no generic IRP applies", r.Name)
	}
	if r.Flags.unsynthesizable() {
		return "", encodingErrorf(nil, "remote %s: generic IRP synthesis does not support its flags (RC5/RC6/RCMM/SERIAL)", r.Name)
	}
	return r.synthesizeIRP(), nil
}

// DecodeIRP is EncodeIRP's decode-side counterpart. The two coincide for
// every remote this package can synthesize: the same generic IRP both
// transmits and recognises a CODE-bound scancode.
func (r *Remote) DecodeIRP() (string, error) {
	return r.EncodeIRP()
}

func (r *Remote) synthesizeIRP() string {
	var b strings.Builder

	freq := r.Frequency
	if freq == 0 {
		freq = 38000
	}
	fmt.Fprintf(&b, "{%gk", float64(freq)/1000)
	if r.DutyCycle != 0 {
		fmt.Fprintf(&b, ",%d%%", r.DutyCycle)
	}
	if r.Flags.has(FlagReverse) {
		b.WriteString(",lsb}")
	} else {
		b.WriteString(",msb}")
	}

	fmt.Fprintf(&b, "<%d,-%d|%d,-%d>(", r.Zero[0], r.Zero[1], r.One[0], r.One[1])

	header := r.Header[0] != 0 || r.Header[1] != 0
	writeHeader := func() {
		if header {
			fmt.Fprintf(&b, "%d,-%d,", r.Header[0], r.Header[1])
		}
	}
	if header && !r.Flags.has(FlagRepeatHeader) {
		writeHeader()
	}

	b.WriteString("(")
	if header && r.Flags.has(FlagRepeatHeader) {
		writeHeader()
	}
	if r.Plead != 0 {
		fmt.Fprintf(&b, "%d,", r.Plead)
	}
	if r.PreDataBits > 0 {
		fmt.Fprintf(&b, "%d:%d,", r.PreData, r.PreDataBits)
	}
	fmt.Fprintf(&b, "CODE:%d,", r.Bits)
	if r.PostDataBits > 0 {
		fmt.Fprintf(&b, "%d:%d,", r.PostData, r.PostDataBits)
	}
	if r.Ptrail != 0 {
		fmt.Fprintf(&b, "%d,", r.Ptrail)
	}

	gap := r.Gap
	if r.Gap2 != 0 && r.Gap2 < gap {
		gap = r.Gap2
	}
	if gap == 0 {
		gap = 20000
	}
	if r.Flags.has(FlagConstLength) {
		// lircd.conf's gap is always in microseconds; the explicit "u"
		// suffix is required here since IRP's bare-number default would
		// otherwise inherit the general spec's unit, and the "m"
		// (millisecond) suffix used by catalog protocols like RC5's
		// "^114m" would be a thousandfold unit mismatch for a
		// microsecond-scale lircd.conf gap.
		fmt.Fprintf(&b, "^%du)+", gap)
	} else {
		fmt.Fprintf(&b, "-%d)+", gap)
	}

	b.WriteString(")")

	params := fmt.Sprintf("[CODE:0..%d]", (uint64(1)<<uint(r.Bits))-1)
	return b.String() + params
}

// EncodeAcrossRemotes finds keyName on remotes (optionally narrowed to the
// one named remoteName) and encodes it. When more than one remote defines
// the key, or remoteName is empty and several remotes match, it warns and
// picks the first.
func EncodeAcrossRemotes(remotes []*Remote, remoteName, keyName string, repeats int, log irlog.Logger) (irp.Message, error) {
	var candidates []*Remote
	for _, r := range remotes {
		if remoteName != "" && r.Name != remoteName {
			continue
		}
		if r.hasKey(keyName) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		if remoteName != "" {
			return irp.Message{}, notFoundErrorf("remote %s has no key %q", remoteName, keyName)
		}
		return irp.Message{}, notFoundErrorf("no remote has key %q", keyName)
	}
	if len(candidates) > 1 {
		names := make([]string, len(candidates))
		for i, r := range candidates {
			names[i] = r.Name
		}
		log.Warning("multiple remotes define key, picking first", "key", keyName, "remotes", strings.Join(names, ", "))
	}
	return candidates[0].Encode(keyName, repeats, log)
}

func (r *Remote) hasKey(name string) bool {
	for _, c := range r.RawCodes {
		if c.Name == name {
			return true
		}
	}
	for _, c := range r.Codes {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Encode renders the named key to a Message. A raw-code key is followed
// by MinRepeat+repeats further copies (see encodeRaw); a parameterised
// key passes repeats to irp.Encode unchanged, and MinRepeat is not
// applied to it. Raw-code keys and parameterised
// keys are both searched; a key present on both is vanishingly rare but
// the raw definition wins if so, matching the reference encoder's
// raw-before-parameterised search order.
func (r *Remote) Encode(keyName string, repeats int, log irlog.Logger) (irp.Message, error) {
	var out irp.Message

	for _, raw := range r.RawCodes {
		if raw.Name == keyName {
			out = r.encodeRaw(raw, repeats)
			return out, nil
		}
	}

	for _, code := range r.Codes {
		if code.Name != keyName {
			continue
		}
		src, err := r.EncodeIRP()
		if err != nil {
			return irp.Message{}, err
		}
		ir, err := irp.Parse(src)
		if err != nil {
			return irp.Message{}, encodingErrorf(err, "remote %s: synthesized irp did not parse", r.Name)
		}

		if code.Vars != nil {
			msg, err := irp.Encode(ir, code.Vars, repeats)
			if err != nil {
				return irp.Message{}, encodingErrorf(err, "remote %s: encoding %s failed", r.Name, keyName)
			}
			return msg, nil
		}

		if len(code.Code) == 1 {
			vars := irp.NewVartable()
			vars.Set("CODE", code.Code[0], 8*8)
			msg, err := irp.Encode(ir, vars, repeats)
			if err != nil {
				return irp.Message{}, encodingErrorf(err, "remote %s: encoding %s failed", r.Name, keyName)
			}
			return msg, nil
		}

		// a multi-code key: emit each subcode once per repeat.
		var single irp.Message
		for _, sub := range code.Code {
			vars := irp.NewVartable()
			vars.Set("CODE", sub, 8*8)
			msg, err := irp.Encode(ir, vars, 0)
			if err != nil {
				return irp.Message{}, encodingErrorf(err, "remote %s: encoding %s failed", r.Name, keyName)
			}
			single.Extend(msg)
		}
		for i := 0; i <= repeats; i++ {
			out.Extend(single)
		}
		return out, nil
	}

	return irp.Message{}, notFoundErrorf("remote %s has no key %q", r.Name, keyName)
}

// encodeRaw renders a RawCode, dropping a trailing gap (the last entry of
// an even-length list) so the block ends on a flash, appending the
// remote's gap (computed from CONST_LENGTH if set), and following it with
// MinRepeat+repeats copies of the repeat block (Repeat if set, else the
// block itself), each with its own gap.
func (r *Remote) encodeRaw(code RawCode, repeats int) irp.Message {
	length := len(code.Raw)
	if length%2 == 0 && length > 0 {
		length--
	}
	block := append([]uint32(nil), code.Raw[:length]...)

	gap := r.Gap
	if r.Gap2 != 0 && r.Gap2 < gap {
		gap = r.Gap2
	}
	if r.Flags.has(FlagConstLength) {
		var total uint32
		for _, v := range block {
			total += v
		}
		if total < gap {
			gap -= total
		} else {
			gap = 0
		}
	}
	if gap == 0 {
		gap = 20000
	}

	raw := append([]uint32(nil), block...)
	raw = append(raw, gap)

	repeatGap := gap
	if r.RepeatGap != 0 {
		repeatGap = r.RepeatGap
	}
	repeatBlock := block
	if len(code.Repeat) > 0 {
		repeatBlock = code.Repeat
	}
	total := int(r.MinRepeat) + repeats
	for i := 0; i < total; i++ {
		raw = append(raw, repeatBlock...)
		raw = append(raw, repeatGap)
	}

	var carrier *int64
	if r.Frequency != 0 {
		c := int64(r.Frequency)
		carrier = &c
	}
	var duty *uint8
	if r.DutyCycle != 0 {
		d := r.DutyCycle
		duty = &d
	}
	return irp.Message{Carrier: carrier, DutyCycle: duty, Raw: raw}
}

// Decoder wraps a compiled Matcher over this remote's DecodeIRP, and maps
// the matcher's decoded CODE back to the key name that produced it.
type Decoder struct {
	remote  *Remote
	matcher *irp.Matcher
}

// Decoder builds a decoder for this remote. opts, when its fields are all
// zero, is replaced by the remote's own AbsoluteTolerance/RelativeTolerance
// (falling back to irp.DefaultMatcherOptions if those are also zero).
func (r *Remote) Decoder(opts irp.MatcherOptions) (*Decoder, error) {
	src, err := r.DecodeIRP()
	if err != nil {
		return nil, err
	}
	ir, err := irp.Parse(src)
	if err != nil {
		return nil, encodingErrorf(err, "remote %s: synthesized irp did not parse", r.Name)
	}
	nfa, err := irp.BuildNFA(ir)
	if err != nil {
		return nil, encodingErrorf(err, "remote %s: could not build decode automaton", r.Name)
	}
	dfa, err := irp.BuildDFA(nfa)
	if err != nil {
		return nil, encodingErrorf(err, "remote %s: could not compile decode automaton", r.Name)
	}

	if opts == (irp.MatcherOptions{}) {
		if r.AbsoluteTolerance != 0 || r.RelativeTolerance != 0 {
			opts = irp.MatcherOptions{
				AbsoluteTolerance: r.AbsoluteTolerance,
				RelativeTolerance: r.RelativeTolerance,
				MaxGap:            irp.DefaultMatcherOptions().MaxGap,
			}
		} else {
			opts = irp.DefaultMatcherOptions()
		}
	}

	return &Decoder{remote: r, matcher: irp.NewMatcher(dfa, opts)}, nil
}

// Reset clears the decoder's in-progress state.
func (d *Decoder) Reset() { d.matcher.Reset() }

// Feed advances the decoder by one sample. On a completed decode it
// returns the matching key name (or "" if no key on the remote has this
// scancode) and the decoded code as received, toggle bits included. Per
// the toggle_bit_mask open question (see DESIGN.md), the key lookup
// compares after masking toggle bits off both sides, the same way the
// reference lircd decoder does.
func (d *Decoder) Feed(ir irp.InfraredData) (name string, code int64, ok bool) {
	vars, done := d.matcher.Feed(ir)
	if !done {
		return "", 0, false
	}

	var decoded int64
	if d.remote.ScancodeFields != nil {
		for _, f := range d.remote.ScancodeFields {
			decoded = (decoded << uint(f.Width)) | (vars[f.Name] & (int64(1)<<uint(f.Width) - 1))
		}
	} else {
		decoded = vars["CODE"]
	}
	masked := decoded &^ int64(d.remote.ToggleBitMask)

	for _, c := range d.remote.Codes {
		if len(c.Code) > 0 && (c.Code[0]&^int64(d.remote.ToggleBitMask)) == masked {
			return c.Name, decoded, true
		}
	}
	return "", decoded, true
}
