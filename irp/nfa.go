package irp

// ActionKind tags the concrete type implementing Action.
type ActionKind int

const (
	ActionKindFlash ActionKind = iota
	ActionKindGap
	ActionKindAddBit
	ActionKindSet
	ActionKindDone
)

// Action is the closed sum type for the side effects and guards attached
// to an NFA edge or run when a vertex is entered.
type Action interface {
	ActionKind() ActionKind
	nfaAction()
}

type actionBase struct{}

func (actionBase) nfaAction() {}

// FlashAction guards an edge: it is only traversable when the matcher is
// fed a Flash whose duration is within tolerance of Length.
type FlashAction struct {
	actionBase
	Length Expression
}

func (FlashAction) ActionKind() ActionKind { return ActionKindFlash }

// GapAction is FlashAction's gap counterpart.
type GapAction struct {
	actionBase
	Length Expression
}

func (GapAction) ActionKind() ActionKind { return ActionKindGap }

// AddBitAction accumulates one decoded bit into the frontier entry's
// pending bit-field. Symbol is the bit-spec alternative this edge
// belongs to (the value contributed). Var names the parameter being
// assembled; when Var is empty the field is a verification field (e.g.
// "~F:1:6") whose completed value must equal Eval(Expr, vars) or the
// decode path dies.
type AddBitAction struct {
	actionBase
	Symbol int
	Expr   Expression
	Count  int
	LSB    bool
	Var    string
}

func (AddBitAction) ActionKind() ActionKind { return ActionKindAddBit }

// SetAction evaluates Expr and binds it to Var, used for inline stream
// assignments such as "T=1-T".
type SetAction struct {
	actionBase
	Var  string
	Expr Expression
}

func (SetAction) ActionKind() ActionKind { return ActionKindSet }

// DoneAction marks a vertex as a decode completion point: the matcher
// reports the assembled scancode and resets its frontier to the start
// vertex.
type DoneAction struct{ actionBase }

func (DoneAction) ActionKind() ActionKind { return ActionKindDone }

// EdgeKind distinguishes an edge that consumes matcher input (guarded by
// a Flash/Gap duration check) from the two kinds of unconditional
// continuation used to thread a repeated bit-field read: Empty (move on
// once the field is complete) and Repeat (re-run the bit-spec because
// more bits of the same field remain).
type EdgeKind int

const (
	EdgeInput EdgeKind = iota
	EdgeEmpty
	EdgeRepeat
)

// Edge is one NFA/DFA transition.
type Edge struct {
	Dest  int
	Kind  EdgeKind
	Guard Action // FlashAction or GapAction when Kind == EdgeInput, else nil
	Run   []Action
}

// Vertex is one automaton state: Entry actions fire immediately whenever
// the vertex is reached (used for Done and trailing Set actions), Edges
// are its outgoing transitions.
type Vertex struct {
	Entry []Action
	Edges []Edge
}

// NFA is the arena graph produced directly from an Irp's stream, before
// the empty-edge contraction done by BuildDFA.
type NFA struct {
	Verts []Vertex
}

type nfaBuilder struct {
	general GeneralSpec
	bitSpec [][]Expression
	verts   []Vertex
	elapsed float64 // statically known elapsed micros, for extent folding
	haveEl  bool
}

// BuildNFA compiles an Irp's stream into a decode automaton. Only
// constant-foldable bit-field lengths are supported; a field whose
// length depends on a runtime variable returns an error, since the
// automaton's shape must be fixed at compile time.
func BuildNFA(ir *Irp) (*NFA, error) {
	b := &nfaBuilder{general: ir.General, bitSpec: ir.Stream.BitSpec, haveEl: true}
	b.addVertex() // vertex 0: the start/reset state

	cur := 0
	var err error
	cur, err = b.emitSequence(cur, ir.Stream.Stream)
	if err != nil {
		return nil, err
	}

	b.verts[cur].Entry = append(b.verts[cur].Entry, DoneAction{})
	if ir.Stream.Repeat == nil || ir.Stream.Repeat.Kind == RepeatNone {
		// single-shot protocol: nothing to loop back to
	} else {
		b.verts[cur].Edges = append(b.verts[cur].Edges, Edge{Dest: 0, Kind: EdgeEmpty})
	}

	return &NFA{Verts: b.verts}, nil
}

func (b *nfaBuilder) addVertex() int {
	b.verts = append(b.verts, Vertex{})
	return len(b.verts) - 1
}

func (b *nfaBuilder) emitSequence(cur int, items []Expression) (int, error) {
	var err error
	for _, item := range items {
		cur, err = b.emitItem(cur, item)
		if err != nil {
			return 0, err
		}
	}
	return cur, nil
}

func (b *nfaBuilder) emitItem(cur int, item Expression) (int, error) {
	switch n := item.(type) {
	case Duration:
		return b.emitDuration(cur, n)

	case Assignment:
		next := b.addVertex()
		b.verts[cur].Edges = append(b.verts[cur].Edges, Edge{
			Dest: next,
			Kind: EdgeEmpty,
			Run:  []Action{SetAction{Var: n.Name, Expr: n.Expr}},
		})
		return next, nil

	case Stream:
		sub := &nfaBuilder{general: b.general, bitSpec: n.IrStream.BitSpec, haveEl: true, verts: b.verts}
		if sub.bitSpec == nil {
			sub.bitSpec = b.bitSpec
		}
		start := cur
		var err error
		cur, err = sub.emitSequence(cur, n.IrStream.Stream)
		b.verts = sub.verts
		if err == nil && n.IrStream.Repeat != nil && n.IrStream.Repeat.Kind == RepeatAny {
			// "*" allows zero copies: the stream can be skipped entirely.
			b.verts[start].Edges = append(b.verts[start].Edges, Edge{Dest: cur, Kind: EdgeEmpty})
		}
		b.elapsed += sub.elapsed
		b.haveEl = b.haveEl && sub.haveEl
		return cur, err

	case Variation:
		alt := n.Alternatives[0]
		if len(n.Alternatives) > 1 {
			alt = n.Alternatives[1]
		}
		return b.emitSequence(cur, alt)

	case BitField:
		return b.emitBitField(cur, n)

	default:
		return cur, encodingErrorf("stream item kind %v cannot appear in a decode automaton", item.Kind())
	}
}

func (b *nfaBuilder) emitDuration(cur int, d Duration) (int, error) {
	length, folded := b.foldDuration(d)
	if folded {
		b.addElapsed(length)
	} else {
		b.haveEl = false
	}

	next := b.addVertex()
	var guard Action
	switch d.Polarity {
	case PolarityFlash:
		guard = FlashAction{Length: length}
	case PolarityGap:
		guard = GapAction{Length: length}
	case PolarityExtent:
		residue := length
		if b.haveEl {
			residue = Number{Value: int64(evalFloat(length) - b.elapsed)}
		}
		guard = GapAction{Length: residue}
	}
	b.verts[cur].Edges = append(b.verts[cur].Edges, Edge{Dest: next, Kind: EdgeInput, Guard: guard})
	return next, nil
}

// foldDuration returns a constant expression for a literal duration
// (converted to microseconds), and whether it could be folded. An
// identifier-valued duration ("-F" inside a bit-spec) cannot be folded
// and is passed through as an Identifier lookup instead.
func (b *nfaBuilder) foldDuration(d Duration) (Expression, bool) {
	if d.Ident != "" {
		return Identifier{Name: d.Ident}, false
	}
	scale := 1.0
	switch d.Unit {
	case UnitMilliseconds:
		scale = 1000
	case UnitPulses:
		if b.general.Carrier != nil && *b.general.Carrier > 0 {
			scale = 1_000_000 / float64(*b.general.Carrier)
		}
	case UnitGeneral:
		scale = b.general.UnitMicros
	}
	return Number{Value: int64(d.Value * scale)}, true
}

func (b *nfaBuilder) addElapsed(e Expression) {
	if n, ok := e.(Number); ok {
		b.elapsed += float64(n.Value)
	} else {
		b.haveEl = false
	}
}

func evalFloat(e Expression) float64 {
	if n, ok := e.(Number); ok {
		return float64(n.Value)
	}
	return 0
}

// emitBitField threads a constant-length bit-field through the
// enclosing bit-spec: the bit-spec's alternatives are emitted once as a
// shared sub-graph, and a vertex at the end of that sub-graph is given
// both a repeat edge (back to the start, for as long as bits remain) and
// an empty edge (forward, once the field is complete).
func (b *nfaBuilder) emitBitField(cur int, bf BitField) (int, error) {
	if b.bitSpec == nil {
		return cur, encodingErrorf("bit-field used with no enclosing bit-spec")
	}
	length, ok := b.bitSpec0Length(bf)
	if !ok {
		return cur, parameterErrorf("bit-field length must be a compile-time constant for decoding")
	}

	varName, expect := bitFieldBinding(bf)

	loopStart := cur
	join := b.addVertex()
	elapsed, haveEl := b.elapsed, b.haveEl

	for symbol, alt := range b.bitSpec {
		altEnd, err := b.emitSequence(loopStart, alt)
		if err != nil {
			return 0, err
		}
		b.verts[altEnd].Edges = append(b.verts[altEnd].Edges, Edge{
			Dest: join,
			Kind: EdgeEmpty,
			Run: []Action{AddBitAction{
				Symbol: symbol,
				Expr:   expect,
				Count:  length,
				LSB:    b.general.LSBFirst,
				Var:    varName,
			}},
		})
	}
	b.elapsed, b.haveEl = elapsed, haveEl
	// Per-bit elapsed folding needs a constant-length bit-spec (all
	// alternatives take the same total duration); when the alternatives
	// differ, the elapsed time depends on the data and is no longer known.
	if altLen, ok := b.foldAltLength(); ok {
		b.elapsed += altLen * float64(length)
	} else {
		b.haveEl = false
	}

	after := b.addVertex()
	b.verts[join].Edges = append(b.verts[join].Edges,
		Edge{Dest: loopStart, Kind: EdgeRepeat},
		Edge{Dest: after, Kind: EdgeEmpty},
	)
	return after, nil
}

func (b *nfaBuilder) bitSpec0Length(bf BitField) (int, bool) {
	val, _, err := Eval(bf.Length, NewVartable())
	if err != nil {
		return 0, false
	}
	return int(val), true
}

func bitFieldBinding(bf BitField) (string, Expression) {
	value := bf.Value
	if u, ok := value.(Unary); ok && u.Op == OpComplement {
		if id, ok := u.Expr.(Identifier); ok {
			return "", Unary{Op: OpComplement, Expr: id}
		}
	}
	if id, ok := value.(Identifier); ok {
		return id.Name, nil
	}
	return "", value
}

func (b *nfaBuilder) foldAltLength() (float64, bool) {
	if len(b.bitSpec) == 0 {
		return 0, false
	}
	total := -1.0
	for _, alt := range b.bitSpec {
		sum := 0.0
		for _, item := range alt {
			d, ok := item.(Duration)
			if !ok {
				return 0, false
			}
			length, folded := b.foldDuration(d)
			if !folded {
				return 0, false
			}
			sum += evalFloat(length)
		}
		if total >= 0 && sum != total {
			return 0, false
		}
		total = sum
	}
	return total, true
}
