package filter

import (
	"sort"
	"strings"
)

// Group is one facet attribute with its selected values.
type Group struct {
	Attribute string   `json:"attribute"`
	Values    []string `json:"values"`
}

// Selection is an ordered facet selection. Order is the output order.
type Selection []Group

// SelectionFromMap orders a selection map by attribute name.
func SelectionFromMap(m map[string][]string) Selection {
	attrs := make([]string, 0, len(m))
	for a := range m {
		attrs = append(attrs, a)
	}
	sort.Strings(attrs)

	sel := make(Selection, 0, len(attrs))
	for _, a := range attrs {
		sel = append(sel, Group{Attribute: a, Values: m[a]})
	}
	return sel
}

// normalized merges repeated attributes into their first occurrence,
// drops empty and duplicate values and skips groups left empty.
func (s Selection) normalized() Selection {
	pos := make(map[string]int, len(s))
	out := make(Selection, 0, len(s))
	for _, g := range s {
		attr := strings.TrimSpace(g.Attribute)
		if attr == "" {
			continue
		}
		i, ok := pos[attr]
		if !ok {
			i = len(out)
			pos[attr] = i
			out = append(out, Group{Attribute: attr})
		}
		out[i].Values = append(out[i].Values, g.Values...)
	}

	kept := out[:0]
	for _, g := range out {
		g.Values = dedupe(g.Values)
		if len(g.Values) > 0 {
			kept = append(kept, g)
		}
	}
	return kept
}

// IsEmpty reports whether no attribute has a selected value.
func (s Selection) IsEmpty() bool {
	return len(s.normalized()) == 0
}

// Expr returns the selection as an AND of per-attribute ORs, nil when empty.
func (s Selection) Expr() Expr {
	groups := s.normalized()
	if len(groups) == 0 {
		return nil
	}
	and := make(And, 0, len(groups))
	for _, g := range groups {
		or := make(Or, 0, len(g.Values))
		for _, v := range g.Values {
			or = append(or, Term{Attribute: g.Attribute, Value: v})
		}
		and = append(and, or)
	}
	return and
}

// Build turns a selection into a filter string in grammar g.
//
// Every attribute with at least one value becomes one parenthesized OR group
// of equality clauses; groups are AND-joined in selection order. A non-empty
// raw filter, already in grammar g, is appended last: parenthesized and
// AND-joined when generated groups precede it, verbatim when alone.
// With no selected value and no raw filter the result is "", meaning no
// filter at all.
func Build(sel Selection, raw string, g Grammar) string {
	groups := sel.normalized()
	parts := make([]string, 0, len(groups)+1)
	for _, grp := range groups {
		clauses := make([]string, len(grp.Values))
		for i, v := range grp.Values {
			clauses[i] = g.Clause(grp.Attribute, v)
		}
		parts = append(parts, g.GroupOpen+strings.Join(clauses, g.Or)+g.GroupClose)
	}

	raw = strings.TrimSpace(raw)
	if raw != "" {
		if len(parts) == 0 {
			return raw
		}
		parts = append(parts, g.GroupOpen+raw+g.GroupClose)
	}
	return strings.Join(parts, g.And)
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
