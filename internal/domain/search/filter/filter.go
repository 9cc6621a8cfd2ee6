package filter

import "strings"

// MaxConditions caps the number of equality clauses in one expression.
const MaxConditions = 256

// Expr is a boolean filter tree: Term, And or Or.
type Expr interface {
	isExpr()
}

// Term is an equality clause attr == value.
type Term struct {
	Attribute string
	Value     string
}

// And matches when every operand matches.
type And []Expr

// Or matches when any operand matches.
type Or []Expr

func (Term) isExpr() {}
func (And) isExpr()  {}
func (Or) isExpr()   {}

// Render prints e in grammar g. Nested operators of the other kind are
// wrapped in the grammar's group delimiters. A nil expression renders as "".
func Render(e Expr, g Grammar) string {
	switch n := e.(type) {
	case nil:
		return ""
	case Term:
		return g.Clause(n.Attribute, n.Value)
	case And:
		return renderJoined([]Expr(n), g, g.And, func(child Expr) bool {
			_, isOr := child.(Or)
			return isOr
		})
	case Or:
		return renderJoined([]Expr(n), g, g.Or, func(child Expr) bool {
			_, isAnd := child.(And)
			return isAnd
		})
	default:
		return ""
	}
}

func renderJoined(children []Expr, g Grammar, sep string, needsGroup func(Expr) bool) string {
	parts := make([]string, 0, len(children))
	for _, c := range children {
		s := Render(c, g)
		if s == "" {
			continue
		}
		if needsGroup(c) && arity(c) > 1 {
			s = g.GroupOpen + s + g.GroupClose
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, sep)
}

func arity(e Expr) int {
	switch n := e.(type) {
	case And:
		return len(n)
	case Or:
		return len(n)
	default:
		return 1
	}
}

// Walk visits every Term of e in order.
func Walk(e Expr, fn func(Term)) {
	switch n := e.(type) {
	case Term:
		fn(n)
	case And:
		for _, c := range n {
			Walk(c, fn)
		}
	case Or:
		for _, c := range n {
			Walk(c, fn)
		}
	}
}

// Conjoin ANDs the non-nil expressions, returning nil when none remain.
func Conjoin(exprs ...Expr) Expr {
	out := make(And, 0, len(exprs))
	for _, e := range exprs {
		if e == nil {
			continue
		}
		if a, ok := e.(And); ok {
			if len(a) == 0 {
				continue
			}
			out = append(out, a...)
			continue
		}
		if o, ok := e.(Or); ok && len(o) == 0 {
			continue
		}
		out = append(out, e)
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return out
	}
}
