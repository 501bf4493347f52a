package formula

import (
	"github.com/travnick/wmbusmeters/internal/errs"
	"github.com/travnick/wmbusmeters/internal/units"
)

// Formula is a parsed, type-checked expression ready to Evaluate. Build
// never returns a Formula whose Root carries an Invalid SIUnit — any
// dimensional mismatch fails at Build time with a *errs.CoreError carrying
// a source Span, so the caller can render a caret indicator pointing at the
// offending operator.
type Formula struct {
	Source string
	Root   *Node
}

// Build parses src and type-checks it against resolver (may be nil if the
// formula references no meter fields), producing a Formula ready to
// evaluate repeatedly against different bound entries.
func Build(src string, resolver Resolver) (*Formula, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, resolver: resolver}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().Kind != TokEOF {
		t := p.peek()
		return nil, errs.New(errs.KindParseError, "unexpected token %q after formula", t.Text).WithSpan(t.Start, t.End)
	}
	return &Formula{Source: src, Root: root}, nil
}

type parser struct {
	toks     []Token
	pos      int
	resolver Resolver
}

func (p *parser) peek() Token  { return p.toks[p.pos] }
func (p *parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

// parseExpr implements `expr := term (('+'|'-') term)*`.
func (p *parser) parseExpr() (*Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Kind {
		case TokPlus, TokMinus:
			opTok := p.advance()
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left, err = buildAddSub(opTok, left, right)
			if err != nil {
				return nil, err
			}
		default:
			return left, nil
		}
	}
}

// parseTerm implements `term := factor (('*'|'/') factor)*`.
func (p *parser) parseTerm() (*Node, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Kind {
		case TokStar, TokSlash:
			opTok := p.advance()
			right, err := p.parseFactor()
			if err != nil {
				return nil, err
			}
			left, err = buildMulDiv(opTok, left, right)
			if err != nil {
				return nil, err
			}
		default:
			return left, nil
		}
	}
}

// parseFactor implements the grammar's leaf productions: number unit,
// datetime literal, identifier, `sqrt(expr)`, `(expr)`.
func (p *parser) parseFactor() (*Node, error) {
	tok := p.peek()
	switch tok.Kind {
	case TokNumber:
		p.advance()
		if tok.Suffix == "" && p.peek().Kind == TokIdent {
			if _, ok := units.UnitBySuffix(p.peek().Text); ok {
				unitTok := p.advance()
				tok.Suffix, tok.End = unitTok.Text, unitTok.End
			}
		}
		return buildNumberLiteral(tok)
	case TokDateTime:
		p.advance()
		return &Node{
			Kind:         NodeDateTimeLiteral,
			Seconds:      tok.Seconds,
			Unit:         units.Of(units.UnixTimestamp),
			ConcreteUnit: units.UnixTimestamp,
			Span:         tok.span(),
		}, nil
	case TokLParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek().Kind != TokRParen {
			t := p.peek()
			return nil, errs.New(errs.KindParseError, "expected ')'").WithSpan(t.Start, t.End)
		}
		p.advance()
		return inner, nil
	case TokIdent:
		if tok.Text == "sqrt" {
			return p.parseSqrt(tok)
		}
		p.advance()
		return p.buildIdentifier(tok)
	default:
		return nil, errs.New(errs.KindParseError, "unexpected token %q in formula", tok.Text).WithSpan(tok.Start, tok.End)
	}
}

func (p *parser) parseSqrt(sqrtTok Token) (*Node, error) {
	p.advance() // "sqrt"
	if p.peek().Kind != TokLParen {
		t := p.peek()
		return nil, errs.New(errs.KindParseError, "expected '(' after sqrt").WithSpan(t.Start, t.End)
	}
	p.advance()
	inner, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().Kind != TokRParen {
		t := p.peek()
		return nil, errs.New(errs.KindParseError, "expected ')' to close sqrt").WithSpan(t.Start, t.End)
	}
	closeTok := p.advance()
	exp := inner.Unit.Exp.Sqrt()
	if exp.Invalid {
		return nil, errs.New(errs.KindUnitMismatch, "cannot take sqrt of %s: odd exponent in dimension", describe(inner)).
			WithSpan(sqrtTok.Start, closeTok.End)
	}
	return &Node{
		Kind:    NodeSqrt,
		Operand: inner,
		Unit:    inner.Unit.Sqrt(),
		Span:    errs.Span{Start: sqrtTok.Start, End: closeTok.End},
	}, nil
}

func buildNumberLiteral(tok Token) (*Node, error) {
	if tok.Suffix == "" {
		return &Node{Kind: NodeConstant, Value: tok.Number, Unit: units.Of(units.NUMBER), ConcreteUnit: units.NUMBER, Span: tok.span()}, nil
	}
	u, ok := units.UnitBySuffix(tok.Suffix)
	if !ok {
		return nil, errs.New(errs.KindParseError, "unknown unit suffix %q", tok.Suffix).WithSpan(tok.Start, tok.End)
	}
	if isDurationUnit(u) {
		return &Node{
			Kind:         NodeDurationLiteral,
			Value:        tok.Number,
			DurationUnit: u,
			UnitName:     tok.Suffix,
			Unit:         units.Of(u),
			ConcreteUnit: u,
			Span:         tok.span(),
		}, nil
	}
	return &Node{Kind: NodeConstant, Value: tok.Number, UnitName: tok.Suffix, Unit: units.Of(u), ConcreteUnit: u, Span: tok.span()}, nil
}

func isDurationUnit(u units.Unit) bool {
	switch u {
	case units.Second, units.Minute, units.Hour, units.Day, units.Month, units.Year:
		return true
	default:
		return false
	}
}

func (p *parser) buildIdentifier(tok Token) (*Node, error) {
	switch tok.Text {
	case "storage_counter":
		return &Node{Kind: NodeEntryCounterRef, Counter: CounterStorage, Unit: entryCounterUnit, ConcreteUnit: units.NUMBER, Span: tok.span()}, nil
	case "tariff_counter":
		return &Node{Kind: NodeEntryCounterRef, Counter: CounterTariff, Unit: entryCounterUnit, ConcreteUnit: units.NUMBER, Span: tok.span()}, nil
	case "subunit_counter":
		return &Node{Kind: NodeEntryCounterRef, Counter: CounterSubunit, Unit: entryCounterUnit, ConcreteUnit: units.NUMBER, Span: tok.span()}, nil
	}
	if p.resolver == nil {
		return nil, errs.New(errs.KindLookupError, "unknown identifier %q (no field resolver bound)", tok.Text).WithSpan(tok.Start, tok.End)
	}
	u, ok := p.resolver.ResolveField(tok.Text)
	if !ok {
		return nil, errs.New(errs.KindLookupError, "unknown meter field %q", tok.Text).WithSpan(tok.Start, tok.End)
	}
	return &Node{Kind: NodeMeterFieldRef, FieldName: tok.Text, Unit: units.Of(u), ConcreteUnit: u, Span: tok.span()}, nil
}

// buildAddSub type-checks and constructs an Add/Sub node. A point-in-time
// left operand plus/minus a duration right operand is calendar arithmetic
// (handled at evaluation time by evalAddSub) rather than a same-quantity
// conversion, so it bypasses the general convertible() rule: a date and a
// duration never share a Quantity, but the result is still well-typed (a
// point in time).
func buildAddSub(opTok Token, left, right *Node) (*Node, error) {
	kind := NodeAdd
	if opTok.Kind == TokMinus {
		kind = NodeSub
	}
	if !convertible(left.Unit, right.Unit) && !isDateTimeDurationPair(left.Unit, right.Unit) {
		verb := "add"
		if kind == NodeSub {
			verb = "subtract"
		}
		prep := "to"
		if kind == NodeSub {
			prep = "from"
		}
		return nil, errs.New(errs.KindUnitMismatch, "Cannot %s %s %s %s", verb, describe(right), prep, describe(left)).
			WithSpan(opTok.Start, opTok.End)
	}
	return &Node{Kind: kind, Left: left, Right: right, Unit: left.Unit, ConcreteUnit: left.ConcreteUnit, Span: opTok.span()}, nil
}

func convertible(a, b units.SIUnit) bool {
	if a.Exp.Invalid || b.Exp.Invalid {
		return false
	}
	if !a.Exp.Equal(b.Exp) {
		return false
	}
	return units.QuantitiesCompatible(a.Quantity, b.Quantity)
}

// isDateTimeDurationPair reports whether a is a point in time and b is a
// duration expressed in the same base dimension (both carry the bare `s`
// exponent vector), the shape evalAddSub's calendar-arithmetic and
// generic-duration-addition branches both expect on their left/right
// operands.
func isDateTimeDurationPair(a, b units.SIUnit) bool {
	if a.Exp.Invalid || b.Exp.Invalid || !a.Exp.Equal(b.Exp) {
		return false
	}
	return a.Quantity == units.PointInTime && b.Quantity == units.Time
}

// buildMulDiv constructs a Mul/Div node, deducing its SIUnit via the
// SIExp algebra.
func buildMulDiv(opTok Token, left, right *Node) (*Node, error) {
	kind := NodeMul
	var resultUnit units.SIUnit
	if opTok.Kind == TokSlash {
		kind = NodeDiv
		resultUnit = left.Unit.Div(right.Unit)
	} else {
		resultUnit = left.Unit.Mul(right.Unit)
	}
	if resultUnit.Exp.Invalid {
		verb := "multiply"
		if kind == NodeDiv {
			verb = "divide"
		}
		return nil, errs.New(errs.KindOverflow, "cannot %s %s by %s: exponent overflow", verb, describe(left), describe(right)).
			WithSpan(opTok.Start, opTok.End)
	}
	return &Node{Kind: kind, Left: left, Right: right, Unit: resultUnit, Span: opTok.span()}, nil
}
