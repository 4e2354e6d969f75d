package irp

import (
	"fmt"
	"strconv"
	"strings"
)

// ProntoKind tags which of the six Pronto hex variants a Pronto value
// holds, per spec.md §3.
type ProntoKind int

const (
	ProntoLearnedModulated ProntoKind = iota
	ProntoLearnedUnmodulated
	ProntoRC5
	ProntoRC5X
	ProntoRC6
	ProntoNEC1
)

// Pronto is the parsed form of a Pronto hex code: either a learned
// (modulated or unmodulated) raw intro/repeat timing pair, or one of the
// four short parametric forms.
type Pronto struct {
	Kind ProntoKind

	// Learned* fields
	Frequency float64
	Intro     []float64
	Repeat    []float64

	// short-form fields
	D, S, F uint8
}

const prontoPulseUnit = 0.241246

// ParsePronto parses a Pronto hex string: space-separated 4-hex-digit
// words, per spec.md §6.
func ParsePronto(s string) (Pronto, error) {
	fields := strings.Fields(s)
	words := make([]uint16, 0, len(fields))
	for _, f := range fields {
		if len(f) != 4 {
			return Pronto{}, parseErrorf(0, "pronto hex expects 4 hex digits, %q found", f)
		}
		v, err := strconv.ParseUint(f, 16, 16)
		if err != nil {
			return Pronto{}, parseErrorf(0, "pronto hex expects 4 hex digits")
		}
		words = append(words, uint16(v))
	}

	if len(words) < 6 {
		return Pronto{}, parseErrorf(0, "pronto hex should be at least 6 numbers long")
	}

	introLen := int(words[2])
	repeatLen := int(words[3])
	frequency := words[1]

	if len(words) != 4+2*(introLen+repeatLen) {
		return Pronto{}, parseErrorf(0, "inconsistent length")
	}

	switch words[0] {
	case 0x5000:
		if introLen+repeatLen != 1 {
			return Pronto{}, parseErrorf(0, "incorrect length")
		}
		return Pronto{Kind: ProntoRC5, D: uint8(words[4]), F: uint8(words[5])}, nil
	case 0x5001:
		if introLen+repeatLen != 2 {
			return Pronto{}, parseErrorf(0, "incorrect length")
		}
		return Pronto{Kind: ProntoRC5X, D: uint8(words[4]), S: uint8(words[5]), F: uint8(words[6])}, nil
	case 0x6000:
		if introLen+repeatLen != 1 {
			return Pronto{}, parseErrorf(0, "incorrect length")
		}
		return Pronto{Kind: ProntoRC6, D: uint8(words[4]), F: uint8(words[5])}, nil
	case 0x900A:
		if introLen+repeatLen != 1 {
			return Pronto{}, parseErrorf(0, "incorrect length")
		}
		d := uint8(words[4] >> 8)
		s := uint8(words[4])
		f := uint8(words[5] >> 8)
		chk := uint8(words[5])
		if ^chk != f {
			return Pronto{}, parseErrorf(0, "checksum incorrect")
		}
		return Pronto{Kind: ProntoNEC1, D: d, S: s, F: f}, nil
	}

	toPulses := func(pulses []uint16) []float64 {
		pulseTime := float64(frequency) * prontoPulseUnit
		out := make([]float64, len(pulses))
		for i, p := range pulses {
			out[i] = float64(p) * pulseTime
		}
		return out
	}

	intro := toPulses(words[4 : 4+2*introLen])
	repeat := toPulses(words[4+2*introLen : 4+2*(introLen+repeatLen)])
	freqHz := 1_000_000 / (float64(frequency) * prontoPulseUnit)

	switch words[0] {
	case 0x0000:
		return Pronto{Kind: ProntoLearnedModulated, Frequency: freqHz, Intro: intro, Repeat: repeat}, nil
	case 0x0100:
		return Pronto{Kind: ProntoLearnedUnmodulated, Frequency: freqHz, Intro: intro, Repeat: repeat}, nil
	default:
		return Pronto{}, parseErrorf(0, "unsupported pronto type %04x", words[0])
	}
}

// irp strings for the four short Pronto forms, taken verbatim from the
// Pronto codec's own reference encodings.
const (
	prontoIrpRC5  = "{36k,msb,889}<1,-1|-1,1>((1,~F:1:6,T:1,D:5,F:6,^114m)*,T=1-T)[D:0..31,F:0..127,T@:0..1=0]"
	prontoIrpRC5X = "{36k,msb,889}<1,-1|-1,1>((1,~S:1:6,T:1,D:5,-4,S:6,F:6,^114m)*,T=1-T)[D:0..31,S:0..127,F:0..63,T@:0..1=0]"
	prontoIrpRC6  = "{36k,444,msb}<-1,1|1,-1>((6,-2,1:1,0:3,<-2,2|2,-2>(T:1),D:8,F:8,^107m)*,T=1-T)[D:0..255,F:0..255,T@:0..1=0]"
	prontoIrpNEC1 = "{38.4k,564}<1,-1|1,-3>(16,-8,D:8,S:8,F:8,~F:8,1,-78,(16,-4,1,-173)*)[D:0..255,S:0..255=255-D,F:0..255]"
)

// Encode renders the Pronto value to a Message, using the same IRP parser
// and encoder as every other protocol. The learned forms send the intro
// once and the repeat sequence repeats times; the four short forms ignore
// repeats and always encode with a repeat count of 1.
func (p Pronto) Encode(repeats int) (Message, error) {
	switch p.Kind {
	case ProntoLearnedModulated, ProntoLearnedUnmodulated:
		raw := make([]uint32, 0, len(p.Intro)+repeats*len(p.Repeat))
		for _, v := range p.Intro {
			raw = append(raw, uint32(v))
		}
		for i := 0; i < repeats; i++ {
			for _, v := range p.Repeat {
				raw = append(raw, uint32(v))
			}
		}
		var carrier *int64
		if p.Kind == ProntoLearnedModulated {
			c := int64(p.Frequency)
			carrier = &c
		}
		return Message{Carrier: carrier, Raw: raw}, nil

	case ProntoRC5:
		return p.encodeVia(prontoIrpRC5, Vartable{"D": {int64(p.D), 8}, "F": {int64(p.F), 8}})
	case ProntoRC5X:
		return p.encodeVia(prontoIrpRC5X, Vartable{"D": {int64(p.D), 8}, "S": {int64(p.S), 8}, "F": {int64(p.F), 8}})
	case ProntoRC6:
		return p.encodeVia(prontoIrpRC6, Vartable{"D": {int64(p.D), 8}, "F": {int64(p.F), 8}})
	case ProntoNEC1:
		return p.encodeVia(prontoIrpNEC1, Vartable{"D": {int64(p.D), 8}, "S": {int64(p.S), 8}, "F": {int64(p.F), 8}})
	default:
		return Message{}, parameterErrorf("unknown pronto kind")
	}
}

func (p Pronto) encodeVia(irpSrc string, vars Vartable) (Message, error) {
	ir, err := Parse(irpSrc)
	if err != nil {
		return Message{}, err
	}
	return Encode(ir, vars, 1)
}

// String renders the Pronto value back to Pronto hex text; Parse(s.String())
// reproduces s for every legal input (spec.md property 2).
func (p Pronto) String() string {
	var codes []int

	switch p.Kind {
	case ProntoLearnedModulated, ProntoLearnedUnmodulated:
		if p.Kind == ProntoLearnedModulated {
			codes = append(codes, 0)
		} else {
			codes = append(codes, 0x100)
		}
		freqWord := int(1_000_000/(p.Frequency*prontoPulseUnit) + 0.5)
		codes = append(codes, freqWord)
		codes = append(codes, len(p.Intro)/2, len(p.Repeat)/2)

		pulseTime := float64(freqWord) * prontoPulseUnit
		for _, v := range p.Intro {
			codes = append(codes, int(v/pulseTime))
		}
		for _, v := range p.Repeat {
			codes = append(codes, int(v/pulseTime))
		}

	case ProntoRC5:
		codes = []int{0x5000, 115, 0, 1, int(p.D), int(p.F)}
	case ProntoRC5X:
		codes = []int{0x5001, 115, 0, 2, int(p.D), int(p.S), int(p.F), 0}
	case ProntoRC6:
		codes = []int{0x6000, 115, 0, 1, int(p.D), int(p.F)}
	case ProntoNEC1:
		code1 := int(p.S)
		if p.S == 0 {
			code1 = int(^p.D)
		}
		code1 |= int(p.D) << 8
		code2 := int(^p.F) | int(p.F)<<8
		codes = []int{0x900A, 108, 0, 1, code1 & 0xFFFF, code2 & 0xFFFF}
	}

	var b strings.Builder
	for i, c := range codes {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%04X", c)
	}
	return b.String()
}
