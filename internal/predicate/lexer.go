package predicate

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokOp
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
	tokDot
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of expression"
	}
	return fmt.Sprintf("%q", t.text)
}

// lex splits src into tokens. Keywords and, or, not are case-insensitive.
func lex(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	i := 0
	for i < len(rs) {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case r == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case r == '.':
			toks = append(toks, token{tokDot, ".", i})
			i++
		case r == '\'' || r == '"':
			start := i
			var sb strings.Builder
			i++
			closed := false
			for i < len(rs) {
				c := rs[i]
				if c == '\\' && i+1 < len(rs) {
					sb.WriteRune(rs[i+1])
					i += 2
					continue
				}
				if c == r {
					closed = true
					i++
					break
				}
				sb.WriteRune(c)
				i++
			}
			if !closed {
				return nil, &SyntaxError{Pos: start, Msg: "unterminated string"}
			}
			toks = append(toks, token{tokString, sb.String(), start})
		case unicode.IsDigit(r) || (r == '-' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			start := i
			i++
			seenDot := false
			for i < len(rs) && (unicode.IsDigit(rs[i]) || (rs[i] == '.' && !seenDot && i+1 < len(rs) && unicode.IsDigit(rs[i+1]))) {
				if rs[i] == '.' {
					seenDot = true
				}
				i++
			}
			toks = append(toks, token{tokNumber, string(rs[start:i]), start})
		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(rs) && (rs[i] == '_' || unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i])) {
				i++
			}
			word := string(rs[start:i])
			switch strings.ToLower(word) {
			case "and":
				toks = append(toks, token{tokAnd, word, start})
			case "or":
				toks = append(toks, token{tokOr, word, start})
			case "not":
				toks = append(toks, token{tokNot, word, start})
			default:
				toks = append(toks, token{tokIdent, word, start})
			}
		case r == '&' || r == '|':
			if i+1 < len(rs) && rs[i+1] == r {
				kind := tokAnd
				if r == '|' {
					kind = tokOr
				}
				toks = append(toks, token{kind, string([]rune{r, r}), i})
				i += 2
				continue
			}
			return nil, &SyntaxError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", r)}
		case r == '=' || r == '!' || r == '<' || r == '>':
			if i+1 < len(rs) && rs[i+1] == '=' {
				toks = append(toks, token{tokOp, string([]rune{r, '='}), i})
				i += 2
				continue
			}
			switch r {
			case '<', '>':
				toks = append(toks, token{tokOp, string(r), i})
			case '!':
				toks = append(toks, token{tokNot, "!", i})
			default:
				return nil, &SyntaxError{Pos: i, Msg: "single '=' is not an operator, use '=='"}
			}
			i++
		default:
			return nil, &SyntaxError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", r)}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(rs)})
	return toks, nil
}
