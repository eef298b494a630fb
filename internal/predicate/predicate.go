// Package predicate implements the closed grammar used for word meanings:
// attribute comparisons joined by boolean combinators. Meanings are data
// interpreted here, never executed as code.
package predicate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSyntax is wrapped by every parse failure.
var ErrSyntax = errors.New("predicate syntax error")

// SyntaxError reports where an expression failed to parse.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("position %d: %s", e.Pos, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// Subject is anything a predicate can be evaluated against.
type Subject interface {
	Attribute(name string) (string, bool)
}

// Attrs is a map-backed Subject.
type Attrs map[string]string

// Attribute implements Subject.
func (a Attrs) Attribute(name string) (string, bool) {
	v, ok := a[name]
	return v, ok
}

// Predicate is a compiled expression. It is immutable and safe for
// concurrent use.
type Predicate struct {
	src   string
	root  node
	arity int
}

// Compile parses src into a Predicate.
func Compile(src string) (*Predicate, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &SyntaxError{Pos: 0, Msg: "empty expression"}
	}
	root, arity, err := parse(src)
	if err != nil {
		return nil, err
	}
	return &Predicate{src: src, root: root, arity: arity}, nil
}

// MustCompile is Compile that panics on error. Intended for fixed tables.
func MustCompile(src string) *Predicate {
	p, err := Compile(src)
	if err != nil {
		panic(fmt.Sprintf("predicate.MustCompile(%q): %v", src, err))
	}
	return p
}

// Arity is the number of subjects the expression references.
func (p *Predicate) Arity() int { return p.arity }

// Eval evaluates the predicate. It fails only when fewer subjects than the
// arity are supplied. A comparison against a missing attribute is false.
func (p *Predicate) Eval(subjects ...Subject) (bool, error) {
	if len(subjects) < p.arity {
		return false, fmt.Errorf("predicate %q needs %d subject(s), got %d", p.src, p.arity, len(subjects))
	}
	return p.root.eval(subjects), nil
}

// Match evaluates a predicate of arity at most one against s.
func (p *Predicate) Match(s Subject) bool {
	if p.arity > 1 {
		return false
	}
	return p.root.eval([]Subject{s})
}

// Literal is an attribute/value pair the predicate positively requires of its
// first subject.
type Literal struct {
	Attr  string
	Value string
}

// Literals returns the equality comparisons of the first subject against a
// literal that are not under a negation, in source order.
func (p *Predicate) Literals() []Literal {
	var out []Literal
	var walk func(n node)
	walk = func(n node) {
		switch v := n.(type) {
		case andNode:
			walk(v.left)
			walk(v.right)
		case orNode:
			walk(v.left)
			walk(v.right)
		case compareNode:
			if v.op != "==" {
				return
			}
			switch {
			case v.left.arg == 0 && !v.right.isAttr():
				out = append(out, Literal{Attr: v.left.attr, Value: v.right.literal})
			case v.right.arg == 0 && !v.left.isAttr():
				out = append(out, Literal{Attr: v.right.attr, Value: v.left.literal})
			}
		}
	}
	walk(p.root)
	return out
}

func (n andNode) eval(args []Subject) bool { return n.left.eval(args) && n.right.eval(args) }
func (n orNode) eval(args []Subject) bool { return n.left.eval(args) || n.right.eval(args) }
func (n notNode) eval(args []Subject) bool { return !n.inner.eval(args) }
func (n constNode) eval(_ []Subject) bool { return n.value }
func (n compareNode) eval(args []Subject) bool {
	l, ok := n.left.resolve(args)
	if !ok {
		return false
	}
	r, ok := n.right.resolve(args)
	if !ok {
		return false
	}
	return compare(n.op, l, r)
}

func (o operand) resolve(args []Subject) (string, bool) {
	if !o.isAttr() {
		return o.literal, true
	}
	if o.arg >= len(args) || args[o.arg] == nil {
		return "", false
	}
	return args[o.arg].Attribute(o.attr)
}

// compare orders numerically when both sides parse as numbers, otherwise
// lexically.
func compare(op, l, r string) bool {
	var c int
	lf, lerr := strconv.ParseFloat(l, 64)
	rf, rerr := strconv.ParseFloat(r, 64)
	if lerr == nil && rerr == nil {
		switch {
		case lf < rf:
			c = -1
		case lf > rf:
			c = 1
		}
	} else {
		c = strings.Compare(l, r)
	}
	switch op {
	case "==":
		return c == 0
	case "!=":
		return c != 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	}
	return false
}
