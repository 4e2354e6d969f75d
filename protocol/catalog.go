// Package protocol is the static catalog of known infrared protocols: a
// fixed, ordered table of name, IRP definition, decode tolerance and
// kernel rc_proto identity, mirroring the reference lircd/ir-keytable
// protocol database (normally loaded from an XML file at build time;
// this catalog is authored directly since no such database ships with
// this module).
package protocol

import "strings"

// KernelProto is the Linux rc-core protocol identifier this entry
// decodes to, or KernelProtoUnknown if it has none (raw/unsupported by
// the in-kernel decoders).
type KernelProto int

const (
	KernelProtoUnknown KernelProto = iota
	KernelProtoOther
	KernelProtoRC5
	KernelProtoRC5X20
	KernelProtoRC5SZ
	KernelProtoJVC
	KernelProtoSony12
	KernelProtoSony15
	KernelProtoSony20
	KernelProtoNEC
	KernelProtoNECX
	KernelProtoNEC32
	KernelProtoSanyo
	KernelProtoMCIR2Kbd
	KernelProtoMCIR2Mse
	KernelProtoRC6_0
	KernelProtoRC6_6A20
	KernelProtoRC6_6A24
	KernelProtoRC6_6A32
	KernelProtoRC6MCE
	KernelProtoSharp
	KernelProtoXMP
	KernelProtoCEC
	KernelProtoImonRC
	KernelProtoRCMM12
	KernelProtoRCMM24
	KernelProtoRCMM32
	KernelProtoXboxDVD
)

// decoderFamily groups kernel protocol numbers that share a single
// hardware/software decoder, per the in-kernel codec tables: a decoder
// for one family member can decode every sibling's waveform, it just
// disagrees on how many data bits follow the header.
var decoderFamily = map[KernelProto][]KernelProto{
	KernelProtoRC5:     {KernelProtoRC5, KernelProtoRC5X20, KernelProtoRC5SZ},
	KernelProtoRC5X20:  {KernelProtoRC5, KernelProtoRC5X20, KernelProtoRC5SZ},
	KernelProtoRC5SZ:   {KernelProtoRC5, KernelProtoRC5X20, KernelProtoRC5SZ},
	KernelProtoSony12:  {KernelProtoSony12, KernelProtoSony15, KernelProtoSony20},
	KernelProtoSony15:  {KernelProtoSony12, KernelProtoSony15, KernelProtoSony20},
	KernelProtoSony20:  {KernelProtoSony12, KernelProtoSony15, KernelProtoSony20},
	KernelProtoNEC:     {KernelProtoNEC, KernelProtoNECX, KernelProtoNEC32},
	KernelProtoNECX:    {KernelProtoNEC, KernelProtoNECX, KernelProtoNEC32},
	KernelProtoNEC32:   {KernelProtoNEC, KernelProtoNECX, KernelProtoNEC32},
	KernelProtoRC6_0:   {KernelProtoRC6_0, KernelProtoRC6_6A20, KernelProtoRC6_6A24, KernelProtoRC6_6A32, KernelProtoRC6MCE},
	KernelProtoRC6_6A20: {KernelProtoRC6_0, KernelProtoRC6_6A20, KernelProtoRC6_6A24, KernelProtoRC6_6A32, KernelProtoRC6MCE},
	KernelProtoRC6_6A24: {KernelProtoRC6_0, KernelProtoRC6_6A20, KernelProtoRC6_6A24, KernelProtoRC6_6A32, KernelProtoRC6MCE},
	KernelProtoRC6_6A32: {KernelProtoRC6_0, KernelProtoRC6_6A20, KernelProtoRC6_6A24, KernelProtoRC6_6A32, KernelProtoRC6MCE},
	KernelProtoRC6MCE:  {KernelProtoRC6_0, KernelProtoRC6_6A20, KernelProtoRC6_6A24, KernelProtoRC6_6A32, KernelProtoRC6MCE},
	KernelProtoRCMM12:  {KernelProtoRCMM12, KernelProtoRCMM24, KernelProtoRCMM32},
	KernelProtoRCMM24:  {KernelProtoRCMM12, KernelProtoRCMM24, KernelProtoRCMM32},
	KernelProtoRCMM32:  {KernelProtoRCMM12, KernelProtoRCMM24, KernelProtoRCMM32},
}

// Entry is one catalog row: a protocol's canonical name, its alternate
// spellings, its IRP source, decode tolerance, and kernel identity.
type Entry struct {
	Name               string
	AltNames           []string
	IRP                string
	PreferOver         []string // names this protocol should win a decode tie-break against
	AbsoluteTolerance  uint32
	RelativeTolerance  uint32 // percent
	MinimumLeadout     uint32 // microseconds
	DecodeOnly         bool   // has no sensible encoding (e.g. ambiguous variants)
	Decodable          bool
	RejectRepeatless   bool // a lone, unrepeated transmission is not considered a valid decode
	Kernel             KernelProto
}

// Catalog is the fixed, ordered protocol table. Order matters for
// FindLike's first-match behaviour and mirrors the reference database's
// listing order (NEC family, RC5 family, RC6 family, Sony, others).
var Catalog = []Entry{
	{
		Name:              "NEC1",
		IRP:               "{38.4k,564}<1,-1|1,-3>(16,-8,D:8,S:8,F:8,~F:8,1,-78,(16,-4,1,-173)*)[D:0..255,S:0..255=255-D,F:0..255]",
		AbsoluteTolerance: 100,
		RelativeTolerance: 30,
		MinimumLeadout:    20000,
		Decodable:         true,
		Kernel:            KernelProtoNEC,
	},
	{
		Name:              "NECx1",
		IRP:               "{38.4k,564}<1,-1|1,-3>(16,-8,D:8,S:8,F:8,~F:8,1,-78,(16,-4,1,-173)*)[D:0..255,S:0..255,F:0..255]",
		AbsoluteTolerance: 100,
		RelativeTolerance: 30,
		MinimumLeadout:    20000,
		PreferOver:        []string{"NEC1"},
		Decodable:         true,
		Kernel:            KernelProtoNECX,
	},
	{
		Name:              "NEC2",
		AltNames:          []string{"NECx2"},
		IRP:               "{38.4k,564}<1,-1|1,-3>(16,-8,D:8,S:8,F:8,~F:8,1,-78,(16,-4,1,-173)*)[D:0..255,S:0..255,F:0..255]",
		AbsoluteTolerance: 100,
		RelativeTolerance: 30,
		MinimumLeadout:    20000,
		Decodable:         true,
		Kernel:            KernelProtoNECX,
	},
	{
		Name:              "RC5",
		IRP:               "{36k,msb,889}<1,-1|-1,1>((1,~F:1:6,T:1,D:5,F:6,^114m)*,T=1-T)[D:0..31,F:0..127,T@:0..1=0]",
		AbsoluteTolerance: 100,
		RelativeTolerance: 30,
		MinimumLeadout:    20000,
		Decodable:         true,
		Kernel:            KernelProtoRC5,
	},
	{
		Name:              "RC5x",
		AltNames:          []string{"RC5X-20", "RC5 extended"},
		IRP:               "{36k,msb,889}<1,-1|-1,1>((1,~S:1:6,T:1,D:5,-4,S:6,F:6,^114m)*,T=1-T)[D:0..31,S:0..127,F:0..63,T@:0..1=0]",
		AbsoluteTolerance: 100,
		RelativeTolerance: 30,
		MinimumLeadout:    20000,
		PreferOver:        []string{"RC5"},
		Decodable:         true,
		Kernel:            KernelProtoRC5X20,
	},
	{
		Name:              "RC6",
		AltNames:          []string{"RC6-0-16"},
		IRP:               "{36k,444,msb}<-1,1|1,-1>((6,-2,1:1,0:3,<-2,2|2,-2>(T:1),D:8,F:8,^107m)*,T=1-T)[D:0..255,F:0..255,T@:0..1=0]",
		AbsoluteTolerance: 100,
		RelativeTolerance: 30,
		MinimumLeadout:    20000,
		Decodable:         true,
		Kernel:            KernelProtoRC6_0,
	},
	{
		Name:              "RC6-6-20",
		AltNames:          []string{"RC6A"},
		IRP:               "{36k,444,msb}<-1,1|1,-1>((6,-2,1:1,6:3,<-2,2|2,-2>(T:1),D:8,F:16,^107m)*,T=1-T)[D:0..255,F:0..65535,T@:0..1=0]",
		AbsoluteTolerance: 100,
		RelativeTolerance: 30,
		MinimumLeadout:    20000,
		Decodable:         true,
		Kernel:            KernelProtoRC6_6A20,
	},
	{
		Name:              "MCE",
		AltNames:          []string{"RC6-6-20-MCE"},
		IRP:               "{36k,444,msb}<-1,1|1,-1>((6,-2,1:1,6:3,<-2,2|2,-2>(T:1),15:16,D:8,F:8,^107m)*,T=1-T)[D:0..255,F:0..255,T@:0..1=0]",
		AbsoluteTolerance: 100,
		RelativeTolerance: 30,
		MinimumLeadout:    20000,
		PreferOver:        []string{"RC6-6-20"},
		Decodable:         true,
		Kernel:            KernelProtoRC6MCE,
	},
	{
		Name:              "Sony12",
		IRP:               "{40k,600}<1,-1|2,-1>(4,-1,F:7,D:5,^45m)*[D:0..31,F:0..127]",
		AbsoluteTolerance: 100,
		RelativeTolerance: 30,
		MinimumLeadout:    20000,
		RejectRepeatless:  true,
		Decodable:         true,
		Kernel:            KernelProtoSony12,
	},
	{
		Name:              "Sony15",
		IRP:               "{40k,600}<1,-1|2,-1>(4,-1,F:7,D:8,^45m)*[D:0..255,F:0..127]",
		AbsoluteTolerance: 100,
		RelativeTolerance: 30,
		MinimumLeadout:    20000,
		PreferOver:        []string{"Sony12"},
		RejectRepeatless:  true,
		Decodable:         true,
		Kernel:            KernelProtoSony15,
	},
	{
		Name:              "Sony20",
		IRP:               "{40k,600}<1,-1|2,-1>(4,-1,F:7,D:5,S:8,^45m)*[D:0..31,S:0..255,F:0..127]",
		AbsoluteTolerance: 100,
		RelativeTolerance: 30,
		MinimumLeadout:    20000,
		PreferOver:        []string{"Sony15"},
		RejectRepeatless:  true,
		Decodable:         true,
		Kernel:            KernelProtoSony20,
	},
	{
		Name:              "JVC",
		IRP:               "{38k,525}<1,-1|1,-3>(16,-8,(D:8,F:8,1,-45)+)[D:0..255,F:0..255]",
		AbsoluteTolerance: 100,
		RelativeTolerance: 30,
		MinimumLeadout:    20000,
		Decodable:         true,
		Kernel:            KernelProtoJVC,
	},
	{
		Name:              "Sharp",
		IRP:               "{38k,264}<1,-3|1,-7>((D:5,F:8,1:2,1,-165)+)[D:0..31,F:0..255]",
		AbsoluteTolerance: 100,
		RelativeTolerance: 30,
		MinimumLeadout:    20000,
		Decodable:         true,
		Kernel:            KernelProtoSharp,
	},
}

// Find returns the entry whose Name matches exactly, or ok=false.
func Find(name string) (Entry, bool) {
	for _, e := range Catalog {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// FindLike returns the entry whose Name or any AltName matches name once
// both sides are normalized: case folded, with spaces, hyphens and
// underscores removed. This lets callers match "rc-5", "RC 5" and "rc5"
// to the catalog's "RC5" entry.
func FindLike(name string) (Entry, bool) {
	target := normalize(name)
	for _, e := range Catalog {
		if normalize(e.Name) == target {
			return e, true
		}
		for _, alt := range e.AltNames {
			if normalize(alt) == target {
				return e, true
			}
		}
	}
	return Entry{}, false
}

func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		default:
			return r
		}
	}, s)
	return s
}

// FindDecoder returns every catalog entry that shares a kernel decoder
// family with name's protocol (including itself), ordered as in
// Catalog. This is what a single hardware/software rc-core decoder can
// plausibly produce a scancode for.
func FindDecoder(name string) ([]Entry, bool) {
	e, ok := FindLike(name)
	if !ok {
		return nil, false
	}
	family, ok := decoderFamily[e.Kernel]
	if !ok {
		return []Entry{e}, true
	}
	members := make(map[KernelProto]bool, len(family))
	for _, k := range family {
		members[k] = true
	}
	var out []Entry
	for _, c := range Catalog {
		if members[c.Kernel] {
			out = append(out, c)
		}
	}
	return out, true
}
