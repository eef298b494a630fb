package predicate

import (
	"fmt"
	"strings"
)

// node is an AST element of the predicate grammar:
//
//	expr    := or
//	or      := and { ("or" | "||") and }
//	and     := unary { ("and" | "&&") unary }
//	unary   := ("not" | "!") unary | primary
//	primary := "(" expr ")" | "true" | "false" | operand cmp operand
//	operand := attr | arg "." attr | string | number | "true" | "false"
type node interface {
	eval(args []Subject) bool
}

type andNode struct{ left, right node }
type orNode struct{ left, right node }
type notNode struct{ inner node }
type constNode struct{ value bool }

type compareNode struct {
	op          string
	left, right operand
}

// operand is either an attribute reference into one of the arguments or a
// literal value.
type operand struct {
	arg     int // -1 for literals
	attr    string
	literal string
}

func (o operand) isAttr() bool { return o.arg >= 0 }

type parser struct {
	toks  []token
	pos   int
	arity int
}

func parse(src string) (node, int, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, 0, err
	}
	p := &parser{toks: toks}
	n, err := p.parseOr()
	if err != nil {
		return nil, 0, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, 0, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %s", t)}
	}
	return n, p.arity, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left, right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andNode{left, right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.peek().kind == tokNot {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	t := p.peek()
	if t.kind == tokLParen {
		p.next()
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, &SyntaxError{Pos: c.pos, Msg: fmt.Sprintf("expected ')', got %s", c)}
		}
		return n, nil
	}

	// A bare boolean constant is only a constant when no comparison follows.
	if t.kind == tokIdent && isBoolWord(t.text) && p.toks[p.pos+1].kind != tokOp {
		p.next()
		return constNode{strings.EqualFold(t.text, "true")}, nil
	}

	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	op := p.next()
	if op.kind != tokOp {
		return nil, &SyntaxError{Pos: op.pos, Msg: fmt.Sprintf("expected comparison operator, got %s", op)}
	}
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return compareNode{op: op.text, left: left, right: right}, nil
}

func (p *parser) parseOperand() (operand, error) {
	t := p.next()
	switch t.kind {
	case tokString, tokNumber:
		return operand{arg: -1, literal: t.text}, nil
	case tokIdent:
		if isBoolWord(t.text) {
			return operand{arg: -1, literal: strings.ToLower(t.text)}, nil
		}
		if p.peek().kind == tokDot {
			p.next()
			attr := p.next()
			if attr.kind != tokIdent {
				return operand{}, &SyntaxError{Pos: attr.pos, Msg: fmt.Sprintf("expected attribute name, got %s", attr)}
			}
			arg, ok := argIndex(t.text)
			if !ok {
				return operand{}, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unknown argument %q (use obj, a, b, obj1 or obj2)", t.text)}
			}
			p.use(arg)
			return operand{arg: arg, attr: attr.text}, nil
		}
		p.use(0)
		return operand{arg: 0, attr: t.text}, nil
	default:
		return operand{}, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("expected attribute or literal, got %s", t)}
	}
}

func (p *parser) use(arg int) {
	if arg+1 > p.arity {
		p.arity = arg + 1
	}
}

func argIndex(name string) (int, bool) {
	switch strings.ToLower(name) {
	case "obj", "a", "obj1", "x":
		return 0, true
	case "b", "obj2", "y":
		return 1, true
	}
	return 0, false
}

func isBoolWord(s string) bool {
	return strings.EqualFold(s, "true") || strings.EqualFold(s, "false")
}
