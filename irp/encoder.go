package irp

// Encode renders an Irp definition to a Message, evaluating definitions
// once, binding parameter defaults for anything not present in vars,
// running the stream the given number of times, and merging adjacent
// same-polarity durations that fall out of nested streams or variations.
func Encode(ir *Irp, vars Vartable, repeats int) (Message, error) {
	env := vars.Clone()

	if err := bindParameters(ir, env); err != nil {
		return Message{}, err
	}
	for _, def := range ir.Definitions {
		if _, _, err := Eval(def, env); err != nil {
			return Message{}, err
		}
	}

	enc := &encoder{general: ir.General, bitSpec: ir.Stream.BitSpec, repeats: repeats}

	runs := resolveRuns(ir.Stream.Repeat, repeats)

	for i := 0; i < runs; i++ {
		if err := enc.emitSequence(ir.Stream.Stream, env); err != nil {
			return Message{}, err
		}
	}

	enc.mergeAdjacent()

	var carrier *int64
	if ir.General.Carrier != nil {
		c := *ir.General.Carrier
		carrier = &c
	}
	return Message{Carrier: carrier, DutyCycle: ir.General.DutyCycle, Raw: enc.raw}, nil
}

func bindParameters(ir *Irp, env Vartable) error {
	for _, p := range ir.Parameters {
		if _, ok := env[p.Name]; ok {
			continue
		}
		if p.Default == nil {
			return parameterErrorf("missing required parameter %s", p.Name)
		}
		val, width, err := Eval(p.Default, env)
		if err != nil {
			return err
		}
		env.Set(p.Name, val, width)
	}
	return nil
}

// encoder accumulates a flat flash/gap sequence in microseconds as an
// IrStream's token sequence is walked.
type encoder struct {
	general GeneralSpec
	bitSpec [][]Expression
	raw     []uint32
	// lastPolarity records the polarity of raw's last entry so that
	// consecutive same-polarity entries can be summed rather than
	// appended as separate runs.
	lastPolarity int // 0 = none yet, 1 = last entry is a flash, -1 = a gap
	// repeats is the caller's requested repeat count from Encode, threaded
	// down so a nested stream's own */+ repeat marker (e.g. NEC1's trailing
	// "(16,-4,1,-173)*" burst) honors it the same way the top-level stream
	// does, instead of always running once.
	repeats int
}

// resolveRuns turns a stream's repeat marker plus the caller's requested
// repeat count into a concrete number of times to emit that stream's body.
func resolveRuns(rep *RepeatMarker, repeats int) int {
	runs := 1
	switch {
	case rep == nil:
		runs = 1
	case rep.Kind == RepeatAny, rep.Kind == RepeatOneOrMore:
		runs = repeats
		if rep.Kind == RepeatOneOrMore && runs < 1 {
			runs = 1
		}
	case rep.Kind == RepeatCount:
		runs = int(rep.Count)
	case rep.Kind == RepeatCountOrMore:
		runs = int(rep.Count)
		if repeats > runs {
			runs = repeats
		}
	}
	if runs < 0 {
		runs = 0
	}
	return runs
}

func (e *encoder) unit(u Unit) float64 {
	switch u {
	case UnitMicroseconds:
		return 1
	case UnitMilliseconds:
		return 1000
	case UnitPulses:
		if e.general.Carrier != nil && *e.general.Carrier > 0 {
			return 1_000_000 / float64(*e.general.Carrier)
		}
		return 1
	default:
		return e.general.UnitMicros
	}
}

func (e *encoder) push(polarity int, micros float64) {
	v := uint32(micros + 0.5)
	if len(e.raw) > 0 && e.lastPolarity == polarity {
		e.raw[len(e.raw)-1] += v
		return
	}
	if len(e.raw) == 0 && polarity < 0 {
		// a leading gap with nothing to merge into is dropped, matching
		// the matcher's own tolerance of a leading silence.
		return
	}
	e.raw = append(e.raw, v)
	e.lastPolarity = polarity
}

func (e *encoder) mergeAdjacent() {
	// push already merges in place; nothing left to fold at the end
	// besides trimming an accidental trailing zero-length entry.
	if len(e.raw) > 0 && e.raw[len(e.raw)-1] == 0 {
		e.raw = e.raw[:len(e.raw)-1]
	}
}

func (e *encoder) emitSequence(items []Expression, vars Vartable) error {
	for _, item := range items {
		if err := e.emitItem(item, vars); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) emitItem(item Expression, vars Vartable) error {
	switch n := item.(type) {
	case Duration:
		return e.emitDuration(n, vars)

	case Assignment:
		_, _, err := Eval(n, vars)
		return err

	case Stream:
		sub := &encoder{general: e.general, bitSpec: n.IrStream.BitSpec, repeats: e.repeats}
		if sub.bitSpec == nil {
			sub.bitSpec = e.bitSpec
		}
		runs := resolveRuns(n.IrStream.Repeat, e.repeats)
		for i := 0; i < runs; i++ {
			if err := sub.emitSequence(n.IrStream.Stream, vars); err != nil {
				return err
			}
		}
		e.absorb(sub)
		return nil

	case Variation:
		alt := n.Alternatives[0]
		if len(n.Alternatives) > 1 {
			alt = n.Alternatives[1]
		}
		return e.emitSequence(alt, vars)

	case BitField, InfiniteBitField, Unary:
		return e.emitBits(item, vars)

	default:
		// a bare expression used for its side effect only (rare, but
		// legal inside a definitions-derived stream token)
		_, _, err := Eval(item, vars)
		return err
	}
}

// absorb appends sub's accumulated raw sequence onto e. A nested stream
// always starts counting from flash, so entries alternate flash/gap from
// index 0; push folds the boundary into e's running sequence whenever
// both sides agree on polarity.
func (e *encoder) absorb(sub *encoder) {
	for i, v := range sub.raw {
		polarity := 1
		if i%2 == 1 {
			polarity = -1
		}
		e.push(polarity, float64(v))
	}
}

func (e *encoder) emitDuration(d Duration, vars Vartable) error {
	var micros float64
	if d.Ident != "" {
		val, _, err := Eval(Identifier{Name: d.Ident}, vars)
		if err != nil {
			return err
		}
		micros = float64(val) * e.unit(d.Unit)
	} else {
		micros = d.Value * e.unit(d.Unit)
	}

	switch d.Polarity {
	case PolarityFlash:
		e.push(1, micros)
	case PolarityGap:
		e.push(-1, micros)
	case PolarityExtent:
		total := int64(0)
		for _, v := range e.raw {
			total += int64(v)
		}
		residue := micros - float64(total)
		if residue < 0 {
			return encodingErrorf("extent %.0f shorter than elapsed %d", micros, total)
		}
		e.push(-1, residue)
	}
	return nil
}

// emitBits expands a single bit-field token against the enclosing
// bit-spec: the field's value (after evaluation) selects, per output
// bit, which bit-spec alternative's token sequence to splice in.
func (e *encoder) emitBits(item Expression, vars Vartable) error {
	val, width, err := evalBitExpanding(item, vars)
	if err != nil {
		return err
	}
	if e.bitSpec == nil {
		return encodingErrorf("bit-field used with no enclosing bit-spec")
	}
	emit := func(i int) error {
		bit := (val >> uint(i)) & 1
		if int(bit) >= len(e.bitSpec) {
			return encodingErrorf("bit-spec has no alternative for symbol %d", bit)
		}
		return e.emitSequence(e.bitSpec[bit], vars)
	}
	if e.general.LSBFirst {
		for i := 0; i < int(width); i++ {
			if err := emit(i); err != nil {
				return err
			}
		}
	} else {
		for i := int(width) - 1; i >= 0; i-- {
			if err := emit(i); err != nil {
				return err
			}
		}
	}
	return nil
}

// evalBitExpanding evaluates a bit-field expression but also reports its
// true bit width, unwrapping a leading complement the way evalUnary
// already does for plain evaluation (complement does not change width).
func evalBitExpanding(item Expression, vars Vartable) (int64, uint8, error) {
	return Eval(item, vars)
}
