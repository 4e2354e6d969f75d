package irp

// InfraredDataKind tags which variant of InfraredData a value holds.
type InfraredDataKind int

const (
	InfraredFlash InfraredDataKind = iota
	InfraredGap
	InfraredReset
)

// InfraredData is one sample fed to a Matcher: a measured flash/gap
// duration in microseconds, or a hard reset (e.g. a long silence, or an
// explicit idle timeout from the receiving hardware).
type InfraredData struct {
	Kind     InfraredDataKind
	Duration uint32
}

// Flash constructs an InfraredFlash sample.
func Flash(d uint32) InfraredData { return InfraredData{Kind: InfraredFlash, Duration: d} }

// Gap constructs an InfraredGap sample.
func Gap(d uint32) InfraredData { return InfraredData{Kind: InfraredGap, Duration: d} }

// InfraredDataFromRaw converts a raw flash/gap sequence (as produced by a
// Message) into alternating Flash/Gap samples, starting with a flash.
func InfraredDataFromRaw(raw []uint32) []InfraredData {
	out := make([]InfraredData, len(raw))
	for i, v := range raw {
		if i%2 == 0 {
			out[i] = Flash(v)
		} else {
			out[i] = Gap(v)
		}
	}
	return out
}

// ResetSample is the InfraredReset sentinel.
var ResetSample = InfraredData{Kind: InfraredReset}

// MatcherOptions configures a Matcher's tolerance when comparing a
// measured duration to the automaton's expected one.
type MatcherOptions struct {
	AbsoluteTolerance uint32 // microseconds
	RelativeTolerance uint32 // percent
	MaxGap            uint32 // a Gap at or above this forces a reset after reporting, 0 disables
}

// DefaultMatcherOptions mirrors lircd's usual defaults: generous enough
// to absorb typical receiver jitter without conflating adjacent
// protocols' timings.
func DefaultMatcherOptions() MatcherOptions {
	return MatcherOptions{AbsoluteTolerance: 100, RelativeTolerance: 30, MaxGap: 100000}
}

type bitAccum struct {
	remaining int
	value     uint64
	lsb       bool
	count     int
	varName   string
	expect    Expression
}

type frontierEntry struct {
	pos     int
	vars    Vartable
	pending *bitAccum
}

// Matcher is a streaming decoder over a compiled DFA: Feed one
// InfraredData sample at a time and it reports a decoded parameter set
// whenever a Done action is reached. It is not safe for concurrent Feed
// calls; a *DFA is immutable and may back many independent Matchers.
type Matcher struct {
	dfa      *DFA
	opts     MatcherOptions
	frontier []frontierEntry
}

// NewMatcher creates a Matcher over d with opts.
func NewMatcher(d *DFA, opts MatcherOptions) *Matcher {
	return &Matcher{dfa: d, opts: opts}
}

// Reset clears the frontier, discarding any in-progress decode.
func (m *Matcher) Reset() {
	m.frontier = nil
}

func (m *Matcher) durationMatches(expected, received uint32) bool {
	var diff uint32
	if expected > received {
		diff = expected - received
	} else {
		diff = received - expected
	}
	if diff <= m.opts.AbsoluteTolerance {
		return true
	}
	if expected == 0 {
		return false
	}
	return (diff*100)/expected <= m.opts.RelativeTolerance
}

// Feed advances the matcher by one sample. It returns the decoded
// parameter set and true when a Done action is reached, else (nil,
// false). A Reset sample always clears state and returns (nil, false).
func (m *Matcher) Feed(ir InfraredData) (map[string]int64, bool) {
	if ir.Kind == InfraredReset {
		m.Reset()
		return nil, false
	}
	if m.opts.MaxGap > 0 && ir.Kind == InfraredGap && ir.Duration >= m.opts.MaxGap {
		defer m.Reset()
	}

	if len(m.frontier) == 0 {
		m.frontier = []frontierEntry{{pos: 0, vars: NewVartable()}}
	}

	cur := m.frontier
	m.frontier = nil

	var result map[string]int64
	var done bool

	for _, f := range cur {
		for _, e := range m.dfa.Verts[f.pos].Edges {
			if e.Kind != EdgeInput {
				continue
			}
			if !m.guardMatches(e.Guard, ir, f.vars) {
				continue
			}
			vars := f.vars.Clone()
			pending := clonePending(f.pending)
			ok, didFinish := runActions(e.Run, vars, &pending)
			if !ok {
				continue
			}
			if didFinish {
				result, done = snapshot(vars), true
				continue
			}
			m.settleInto(frontierEntry{pos: e.Dest, vars: vars, pending: pending}, &result, &done)
		}
	}

	if done {
		m.Reset()
		return result, true
	}
	return nil, false
}

func (m *Matcher) guardMatches(guard Action, ir InfraredData, vars Vartable) bool {
	switch g := guard.(type) {
	case FlashAction:
		if ir.Kind != InfraredFlash {
			return false
		}
		val, _, err := Eval(g.Length, vars)
		if err != nil {
			return false
		}
		return m.durationMatches(uint32(val), ir.Duration)
	case GapAction:
		if ir.Kind != InfraredGap {
			return false
		}
		val, _, err := Eval(g.Length, vars)
		if err != nil {
			return false
		}
		return m.durationMatches(uint32(val), ir.Duration)
	default:
		return false
	}
}

// settleInto follows a newly-reached vertex's unconditional edges
// (EdgeEmpty/EdgeRepeat), running their actions, until it reaches a
// vertex that either awaits more input or has no further unconditional
// edge to take; that vertex is appended to the next frontier, or, if a
// Done action fires along the way, reports the decoded result.
func (m *Matcher) settleInto(f frontierEntry, result *map[string]int64, done *bool) {
	for {
		if len(m.dfa.Verts[f.pos].Entry) > 0 {
			if ok, didFinish := runActions(m.dfa.Verts[f.pos].Entry, f.vars, &f.pending); !ok {
				return
			} else if didFinish {
				*result, *done = snapshot(f.vars), true
				return
			}
		}

		v := m.dfa.Verts[f.pos]
		var next *Edge
		for i := range v.Edges {
			e := &v.Edges[i]
			switch e.Kind {
			case EdgeRepeat:
				if f.pending != nil && f.pending.remaining > 0 {
					next = e
				}
			case EdgeEmpty:
				if f.pending == nil || f.pending.remaining == 0 {
					if next == nil {
						next = e
					}
				}
			}
		}
		if next == nil {
			break
		}
		ok, didFinish := runActions(next.Run, f.vars, &f.pending)
		if !ok {
			return
		}
		if didFinish {
			*result, *done = snapshot(f.vars), true
			return
		}
		f.pos = next.Dest
	}
	m.frontier = append(m.frontier, f)
}

// runActions applies a sequence of non-guard Actions to vars/pending,
// reporting (ok=false) when a verification bit-field disagrees with its
// expected value, and (done=true) when a Done action is encountered.
func runActions(actions []Action, vars Vartable, pending **bitAccum) (ok bool, done bool) {
	for _, a := range actions {
		switch act := a.(type) {
		case SetAction:
			val, width, err := Eval(act.Expr, vars)
			if err != nil {
				return false, false
			}
			vars.Set(act.Var, val, width)

		case DoneAction:
			done = true

		case AddBitAction:
			p := *pending
			if p == nil {
				p = &bitAccum{remaining: act.Count, lsb: act.LSB, count: act.Count, varName: act.Var, expect: act.Expr}
			}
			bit := uint64(act.Symbol) & 1
			if p.lsb {
				p.value >>= 1
				p.value |= bit << uint(p.count-1)
			} else {
				p.value <<= 1
				p.value |= bit
			}
			p.remaining--

			if p.remaining <= 0 {
				mask := uint64(1)<<uint(p.count) - 1
				val := int64(p.value & mask)
				if p.varName != "" {
					vars.Set(p.varName, val, uint8(p.count))
				} else if p.expect != nil {
					expect, _, err := Eval(p.expect, vars)
					if err != nil || (expect&int64(mask)) != val {
						return false, false
					}
				}
				p = nil
			}
			*pending = p

		default:
		}
	}
	return true, done
}

func clonePending(p *bitAccum) *bitAccum {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func snapshot(vars Vartable) map[string]int64 {
	out := make(map[string]int64, len(vars))
	for k, v := range vars {
		out[k] = v.Val
	}
	return out
}
