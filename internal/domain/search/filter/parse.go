package filter

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kailas-cloud/searchbridge/internal/domain"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokEquals
	tokString
	tokWord
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// Parse reads a canonical filter expression:
//
//	category:"books" AND (author:"X" OR author:"Y")
//
// Clauses are attr:value or attr = value, values quoted with " (\" and \\
// escapes) or bare. AND binds tighter than OR; operators are case-insensitive.
// An empty or blank input returns a nil Expr.
func Parse(s string) (Expr, error) {
	toks, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	if p.peek().kind == tokEOF {
		return nil, nil
	}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
	if p.terms > MaxConditions {
		return nil, fmt.Errorf("%w: too many conditions (max %d)", domain.ErrInvalidFilter, MaxConditions)
	}
	return e, nil
}

// Translate parses a canonical expression and renders it in grammar g.
func Translate(s string, g Grammar) (string, error) {
	e, err := Parse(s)
	if err != nil {
		return "", err
	}
	return Render(e, g), nil
}

type parser struct {
	toks  []token
	pos   int
	terms int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return fmt.Errorf("%w: at offset %d: %s", domain.ErrInvalidFilter, t.pos, fmt.Sprintf(format, args...))
}

func (p *parser) isKeyword(word string) bool {
	t := p.peek()
	return t.kind == tokWord && strings.EqualFold(t.text, word)
}

func (p *parser) parseOr() (Expr, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	or := Or{first}
	for p.isKeyword("OR") {
		p.next()
		e, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		or = append(or, e)
	}
	if len(or) == 1 {
		return first, nil
	}
	return or, nil
}

func (p *parser) parseAnd() (Expr, error) {
	first, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	and := And{first}
	for p.isKeyword("AND") {
		p.next()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		and = append(and, e)
	}
	if len(and) == 1 {
		return first, nil
	}
	return and, nil
}

func (p *parser) parseUnary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokLParen:
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, p.errorf(c, "expected ')'")
		}
		return e, nil
	case tokWord:
		if eq := p.next(); eq.kind != tokEquals {
			return nil, p.errorf(eq, "expected ':' after attribute %q", t.text)
		}
		v := p.next()
		if v.kind != tokString && v.kind != tokWord {
			return nil, p.errorf(v, "expected value for attribute %q", t.text)
		}
		p.terms++
		return Term{Attribute: t.text, Value: v.text}, nil
	case tokEOF:
		return nil, p.errorf(t, "unexpected end of expression")
	default:
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
}

func tokenize(s string) ([]token, error) {
	var toks []token
	rs := []rune(s)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case r == ':' || r == '=':
			toks = append(toks, token{kind: tokEquals, text: string(r), pos: i})
			i++
		case r == '"':
			start := i
			var b strings.Builder
			i++
			closed := false
			for i < len(rs) {
				c := rs[i]
				if c == '\\' && i+1 < len(rs) {
					b.WriteRune(rs[i+1])
					i += 2
					continue
				}
				if c == '"' {
					closed = true
					i++
					break
				}
				b.WriteRune(c)
				i++
			}
			if !closed {
				return nil, fmt.Errorf("%w: at offset %d: unterminated string", domain.ErrInvalidFilter, start)
			}
			toks = append(toks, token{kind: tokString, text: b.String(), pos: start})
		default:
			start := i
			for i < len(rs) && !unicode.IsSpace(rs[i]) && !strings.ContainsRune(`():="`, rs[i]) {
				i++
			}
			toks = append(toks, token{kind: tokWord, text: string(rs[start:i]), pos: start})
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(rs)})
	return toks, nil
}
