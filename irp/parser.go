package irp

import (
	"strings"
)

// Parse compiles an IRP protocol definition string into an Irp AST, or
// returns a ParseError carrying the byte offset of the failure.
func Parse(src string) (*Irp, error) {
	l, err := newLexer(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: l.toks}

	ir := &Irp{
		General: GeneralSpec{UnitMicros: 1},
	}

	if p.peekText() == "{" {
		gs, err := p.parseGeneralSpec()
		if err != nil {
			return nil, err
		}
		ir.General = gs
	}

	var bitSpec [][]Expression
	if p.peekText() == "<" {
		bitSpec, err = p.parseBitSpec()
		if err != nil {
			return nil, err
		}
	}

	if p.peekText() != "(" {
		return nil, parseErrorf(p.peekOffset(), "expected '(' to start the stream, found %q", p.peekText())
	}
	streamTokens, repeat, err := p.parseParenStream()
	if err != nil {
		return nil, err
	}
	ir.Stream = IrStream{BitSpec: bitSpec, Stream: streamTokens, Repeat: repeat}

	if p.peekText() == "{" {
		defs, err := p.parseDefinitions()
		if err != nil {
			return nil, err
		}
		ir.Definitions = defs
	}

	if p.peekText() == "[" {
		params, err := p.parseParameterSpecs()
		if err != nil {
			return nil, err
		}
		ir.Parameters = params
	}

	if p.peekKind() != tokEOF {
		return nil, parseErrorf(p.peekOffset(), "unexpected trailing input %q", p.peekText())
	}

	if err := validate(ir); err != nil {
		return nil, err
	}

	return ir, nil
}

type parser struct {
	toks   []token
	pos    int
	noPipe bool // true while parsing bit-spec / variation alternatives, where '|' separates alternatives rather than meaning bitwise-or
}

func (p *parser) peek() token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *parser) peekText() string  { return p.peek().text }
func (p *parser) peekKind() tokenKind { return p.peek().kind }
func (p *parser) peekOffset() int   { return p.peek().offset }

func (p *parser) advance() token {
	t := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(text string) (token, error) {
	if p.peekText() != text {
		return token{}, parseErrorf(p.peekOffset(), "expected %q, found %q", text, p.peekText())
	}
	return p.advance(), nil
}

// --- general spec -----------------------------------------------------

func (p *parser) parseGeneralSpec() (GeneralSpec, error) {
	gs := GeneralSpec{UnitMicros: 1, LSBFirst: true}
	if _, err := p.expect("{"); err != nil {
		return gs, err
	}
	for {
		if p.peekText() == "}" {
			break
		}
		tok := p.peek()
		switch {
		case tok.kind == tokIdent && strings.EqualFold(tok.text, "msb"):
			gs.LSBFirst = false
			p.advance()
		case tok.kind == tokIdent && strings.EqualFold(tok.text, "lsb"):
			gs.LSBFirst = true
			p.advance()
		case tok.kind == tokIdent && strings.EqualFold(tok.text, "unmodulated"):
			zero := int64(0)
			gs.Carrier = &zero
			p.advance()
		case tok.kind == tokNumber && strings.HasSuffix(tok.text, "k"):
			p.advance()
			hz := int64(tok.number * 1000)
			gs.Carrier = &hz
		case tok.kind == tokNumber && strings.HasSuffix(tok.text, "%"):
			p.advance()
			dc := uint8(tok.number)
			gs.DutyCycle = &dc
		case tok.kind == tokNumber:
			p.advance()
			gs.UnitMicros = tok.number
		default:
			return gs, parseErrorf(tok.offset, "unexpected token %q in general spec", tok.text)
		}

		if p.peekText() == "," {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect("}"); err != nil {
		return gs, err
	}
	return gs, nil
}

// --- definitions --------------------------------------------------------

func (p *parser) parseDefinitions() ([]Expression, error) {
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	var defs []Expression
	for p.peekText() != "}" {
		id, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("="); err != nil {
			return nil, err
		}
		rhs, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		defs = append(defs, Assignment{Name: id, Expr: rhs})
		if p.peekText() == "," {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect("}"); err != nil {
		return nil, err
	}
	return defs, nil
}

func (p *parser) expectIdent() (string, error) {
	tok := p.peek()
	if tok.kind != tokIdent {
		return "", parseErrorf(tok.offset, "expected identifier, found %q", tok.text)
	}
	p.advance()
	return tok.text, nil
}

// --- parameter spec -------------------------------------------------------

func (p *parser) parseParameterSpecs() ([]ParameterSpec, error) {
	if _, err := p.expect("["); err != nil {
		return nil, err
	}
	var params []ParameterSpec
	for p.peekText() != "]" {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		memory := false
		if p.peekText() == "@" {
			memory = true
			p.advance()
		}
		if _, err := p.expect(":"); err != nil {
			return nil, err
		}
		minExpr, err := p.parseExpr(9) // above additive so "0..255" doesn't swallow ".." as anything else; ".." handled as its own token
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(".."); err != nil {
			return nil, err
		}
		maxExpr, err := p.parseExpr(9)
		if err != nil {
			return nil, err
		}
		var def Expression
		if p.peekText() == "=" {
			p.advance()
			def, err = p.parseExpr(0)
			if err != nil {
				return nil, err
			}
		}
		params = append(params, ParameterSpec{Name: name, Memory: memory, Min: minExpr, Max: maxExpr, Default: def})
		if p.peekText() == "," {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect("]"); err != nil {
		return nil, err
	}
	return params, nil
}

// --- bit spec -------------------------------------------------------------

func (p *parser) parseBitSpec() ([][]Expression, error) {
	if _, err := p.expect("<"); err != nil {
		return nil, err
	}
	prevNoPipe := p.noPipe
	p.noPipe = true
	defer func() { p.noPipe = prevNoPipe }()

	var alts [][]Expression
	for {
		alt, err := p.parseItemSequence(func() bool {
			return p.peekText() == "|" || p.peekText() == ">"
		})
		if err != nil {
			return nil, err
		}
		alts = append(alts, alt)
		if p.peekText() == "|" {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(">"); err != nil {
		return nil, err
	}
	return alts, nil
}

// parseItemSequence parses comma-separated stream items until stop()
// reports true, without consuming the terminator.
func (p *parser) parseItemSequence(stop func() bool) ([]Expression, error) {
	var items []Expression
	for {
		if stop() {
			break
		}
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.peekText() == "," {
			p.advance()
			continue
		}
		break
	}
	return items, nil
}

// --- streams ----------------------------------------------------------

func (p *parser) parseParenStream() ([]Expression, *RepeatMarker, error) {
	if _, err := p.expect("("); err != nil {
		return nil, nil, err
	}
	items, err := p.parseItemSequence(func() bool { return p.peekText() == ")" })
	if err != nil {
		return nil, nil, err
	}
	if _, err := p.expect(")"); err != nil {
		return nil, nil, err
	}
	repeat, err := p.parseRepeatMarker()
	if err != nil {
		return nil, nil, err
	}
	return items, repeat, nil
}

func (p *parser) parseRepeatMarker() (*RepeatMarker, error) {
	switch {
	case p.peekText() == "*":
		p.advance()
		return &RepeatMarker{Kind: RepeatAny}, nil
	case p.peekText() == "+":
		p.advance()
		return &RepeatMarker{Kind: RepeatOneOrMore}, nil
	case p.peekKind() == tokNumber:
		tok := p.advance()
		n := int64(tok.number)
		if p.peekText() == "+" {
			p.advance()
			return &RepeatMarker{Kind: RepeatCountOrMore, Count: n}, nil
		}
		return &RepeatMarker{Kind: RepeatCount, Count: n}, nil
	default:
		return nil, nil
	}
}

// --- stream items -------------------------------------------------------

func (p *parser) parseItem() (Expression, error) {
	switch p.peekText() {
	case "^":
		p.advance()
		return p.parseDurationLike(PolarityExtent)
	case "<":
		bitSpec, err := p.parseBitSpec()
		if err != nil {
			return nil, err
		}
		if p.peekText() != "(" {
			return nil, parseErrorf(p.peekOffset(), "expected '(' after bit spec, found %q", p.peekText())
		}
		items, repeat, err := p.parseParenStream()
		if err != nil {
			return nil, err
		}
		return Stream{IrStream: IrStream{BitSpec: bitSpec, Stream: items, Repeat: repeat}}, nil
	case "(":
		items, repeat, err := p.parseParenStream()
		if err != nil {
			return nil, err
		}
		return Stream{IrStream: IrStream{Stream: items, Repeat: repeat}}, nil
	case "[":
		return p.parseVariation()
	}

	expr, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}

	if p.peekText() == "=" {
		id, ok := expr.(Identifier)
		if !ok {
			return nil, parseErrorf(p.peekOffset(), "assignment target must be an identifier")
		}
		p.advance()
		rhs, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		return Assignment{Name: id.Name, Expr: rhs}, nil
	}

	switch v := expr.(type) {
	case Number:
		return Duration{Polarity: PolarityFlash, Value: float64(v.Value), Unit: v.DUnit}, nil
	case Identifier:
		return Duration{Polarity: PolarityFlash, Ident: v.Name}, nil
	case Unary:
		if v.Op == OpNegative {
			switch inner := v.Expr.(type) {
			case Number:
				return Duration{Polarity: PolarityGap, Value: float64(inner.Value), Unit: inner.DUnit}, nil
			case Identifier:
				return Duration{Polarity: PolarityGap, Ident: inner.Name}, nil
			}
		}
		return expr, nil
	default:
		return expr, nil
	}
}

// parseDurationLike parses the operand of a leading '^' (extent marker):
// a signed number or identifier with an optional unit suffix.
func (p *parser) parseDurationLike(polarity DurationPolarity) (Expression, error) {
	neg := false
	if p.peekText() == "-" {
		neg = true
		p.advance()
	}
	tok := p.peek()
	switch tok.kind {
	case tokNumber:
		p.advance()
		v := tok.number
		if neg {
			v = -v
		}
		return Duration{Polarity: polarity, Value: v, Unit: tok.unit}, nil
	case tokIdent:
		p.advance()
		if neg {
			return nil, parseErrorf(tok.offset, "cannot negate identifier %q in extent", tok.text)
		}
		return Duration{Polarity: polarity, Ident: tok.text}, nil
	default:
		return nil, parseErrorf(tok.offset, "expected duration value, found %q", tok.text)
	}
}

func (p *parser) parseVariation() (Expression, error) {
	if _, err := p.expect("["); err != nil {
		return nil, err
	}
	prevNoPipe := p.noPipe
	p.noPipe = true
	defer func() { p.noPipe = prevNoPipe }()

	var alts [][]Expression
	for {
		alt, err := p.parseItemSequence(func() bool {
			return p.peekText() == "|" || p.peekText() == "]"
		})
		if err != nil {
			return nil, err
		}
		alts = append(alts, alt)
		if p.peekText() == "|" {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect("]"); err != nil {
		return nil, err
	}
	return Variation{Alternatives: alts}, nil
}

// --- general expression grammar -----------------------------------------
//
// Precedence, low to high: ternary, ||, &&, |, ^, &, == !=, < <= > >=,
// << >>, + -, * / %, ** (right-assoc), unary (~ ! - #), bitfield postfix,
// primary.

func (p *parser) parseExpr(minPrec int) (Expression, error) {
	return p.parseTernary()
}

func (p *parser) parseTernary() (Expression, error) {
	cond, err := p.parseBinary(1)
	if err != nil {
		return nil, err
	}
	if p.peekText() == "?" {
		p.advance()
		then, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(":"); err != nil {
			return nil, err
		}
		els, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		return Ternary{Cond: cond, Then: then, Else: els}, nil
	}
	return cond, nil
}

type binLevel struct {
	ops   map[string]BinaryOp
	right bool
}

var binLevels = []binLevel{
	{ops: map[string]BinaryOp{"||": OpLogicalOr}},
	{ops: map[string]BinaryOp{"&&": OpLogicalAnd}},
	{ops: map[string]BinaryOp{"|": OpBitwiseOr}},
	{ops: map[string]BinaryOp{"^": OpBitwiseXor}},
	{ops: map[string]BinaryOp{"&": OpBitwiseAnd}},
	{ops: map[string]BinaryOp{"==": OpEqual, "!=": OpNotEqual}},
	{ops: map[string]BinaryOp{"<=": OpLessEqual, "<": OpLess, ">": OpMore, ">=": OpMoreEqual}},
	{ops: map[string]BinaryOp{"<<": OpShiftLeft, ">>": OpShiftRight}},
	{ops: map[string]BinaryOp{"+": OpAdd, "-": OpSubtract}},
	{ops: map[string]BinaryOp{"*": OpMultiply, "/": OpDivide, "%": OpModulo}},
	{ops: map[string]BinaryOp{"**": OpPower}, right: true},
}

// parseBinary implements precedence climbing over binLevels starting at
// level. level == len(binLevels) bottoms out at unary/primary.
func (p *parser) parseBinary(level int) (Expression, error) {
	if level > len(binLevels) {
		return p.parseUnary()
	}
	lvl := binLevels[level-1]

	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		txt := p.peekText()
		if (txt == "|" || txt == ">") && p.noPipe {
			break
		}
		op, ok := lvl.ops[txt]
		if !ok {
			break
		}
		p.advance()
		var right Expression
		if lvl.right {
			right, err = p.parseBinary(level)
		} else {
			right, err = p.parseBinary(level + 1)
		}
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expression, error) {
	switch p.peekText() {
	case "-":
		p.advance()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if bf, ok := inner.(BitField); ok {
			bf.Reverse = true
			return bf, nil
		}
		if p.peekText() == ":" {
			return p.parseBitfieldPostfix(inner, true)
		}
		return Unary{Op: OpNegative, Expr: inner}, nil
	case "~":
		p.advance()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if bf, ok := inner.(BitField); ok {
			bf.Value = Unary{Op: OpComplement, Expr: bf.Value}
			return bf, nil
		}
		result := Expression(Unary{Op: OpComplement, Expr: inner})
		if p.peekText() == ":" {
			return p.parseBitfieldPostfix(result, false)
		}
		return result, nil
	case "!":
		p.advance()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Unary{Op: OpNot, Expr: inner}, nil
	case "#":
		p.advance()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Unary{Op: OpBitCount, Expr: inner}, nil
	}
	return p.parsePrimaryWithBitfield()
}

func (p *parser) parsePrimaryWithBitfield() (Expression, error) {
	prim, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.peekText() == ":" {
		return p.parseBitfieldPostfix(prim, false)
	}
	return prim, nil
}

// parseBitfieldPostfix parses ":length[:skip]" or "::skip" (infinite)
// following value, which has already been parsed (possibly with a
// complement/reverse prefix already applied per reverse).
func (p *parser) parseBitfieldPostfix(value Expression, reverse bool) (Expression, error) {
	if _, err := p.expect(":"); err != nil {
		return nil, err
	}
	if p.peekText() == ":" {
		p.advance()
		skip, err := p.parseBinary(9) // additive and tighter; avoid swallowing commas
		if err != nil {
			return nil, err
		}
		return InfiniteBitField{Value: value, Skip: skip}, nil
	}
	length, err := p.parseBinary(9)
	if err != nil {
		return nil, err
	}
	var skip Expression
	if p.peekText() == ":" {
		p.advance()
		skip, err = p.parseBinary(9)
		if err != nil {
			return nil, err
		}
	}
	return BitField{Value: value, Reverse: reverse, Length: length, Skip: skip}, nil
}

func (p *parser) parsePrimary() (Expression, error) {
	tok := p.peek()
	switch {
	case tok.kind == tokNumber:
		p.advance()
		return Number{Value: int64(tok.number), DUnit: tok.unit}, nil
	case tok.kind == tokIdent:
		p.advance()
		return Identifier{Name: tok.text}, nil
	case tok.text == "(":
		p.advance()
		items, err := p.parseItemSequence(func() bool { return p.peekText() == ")" })
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		if len(items) == 1 {
			return items[0], nil
		}
		return List{Items: items}, nil
	default:
		return nil, parseErrorf(tok.offset, "unexpected token %q", tok.text)
	}
}

// validate checks that every identifier referenced in the stream or
// definitions is either a parameter, a definition, or a name bound by an
// assignment somewhere in the stream (best-effort static check; the
// authoritative check is the evaluator's "undefined variable" error at
// encode/decode time).
func validate(ir *Irp) error {
	if ir.General.UnitMicros <= 0 {
		return parameterErrorf("general spec unit must be > 0, got %v", ir.General.UnitMicros)
	}
	if ir.General.DutyCycle != nil {
		dc := *ir.General.DutyCycle
		if dc < 1 || dc > 99 {
			return parameterErrorf("duty cycle %d%% out of range [1,99]", dc)
		}
	}
	for _, ps := range ir.Parameters {
		if minN, ok := ps.Min.(Number); ok {
			if maxN, ok := ps.Max.(Number); ok && minN.Value > maxN.Value {
				return parameterErrorf("parameter %s: min %d exceeds max %d", ps.Name, minN.Value, maxN.Value)
			}
		}
	}
	return nil
}
