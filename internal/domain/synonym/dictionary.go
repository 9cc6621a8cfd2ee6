package synonym

import (
	"fmt"
	"slices"
	"sort"

	"github.com/kailas-cloud/searchbridge/internal/domain"
)

// Dictionary is the flat word -> synonyms model. It has no identifiers.
type Dictionary map[string][]string

// ToDictionary expands symmetric groups into reciprocal entries: every word
// maps to the union of the other words of every group containing it.
// Any non-symmetric record fails the whole call with ErrNotRepresentable.
func ToDictionary(groups []Synonym) (Dictionary, error) {
	sets := make(map[string]map[string]bool)
	for i, g := range groups {
		g = g.Normalize()
		if g.Type != Symmetric {
			return nil, fmt.Errorf("%w: record %d (%q) has type %s",
				domain.ErrNotRepresentable, i, g.ObjectID, g.Type)
		}
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		words := Dedupe(g.Synonyms)
		for _, w := range words {
			if sets[w] == nil {
				sets[w] = make(map[string]bool, len(words)-1)
			}
			for _, other := range words {
				if other != w {
					sets[w][other] = true
				}
			}
		}
	}

	dict := make(Dictionary, len(sets))
	for w, set := range sets {
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		slices.Sort(values)
		dict[w] = values
	}
	return dict, nil
}

// MergeDictionary unions incoming into a copy of existing, key by key.
// Existing value order is kept and new values are appended.
func MergeDictionary(existing, incoming Dictionary) Dictionary {
	out := make(Dictionary, len(existing)+len(incoming))
	for k, v := range existing {
		out[k] = slices.Clone(v)
	}
	for k, v := range incoming {
		out[k] = Dedupe(append(out[k], v...))
	}
	return out
}

// FromDictionary turns every key into a symmetric group {key, values...}.
// Keys are sorted and the i-th key gets id "synonym_<i>", counted over the
// whole dictionary before the query filter applies. Ids are positional: they
// change whenever the dictionary gains or loses keys, so they must not be
// stored as backend identifiers.
func FromDictionary(dict Dictionary, query string) []Synonym {
	keys := make([]string, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Synonym, 0, len(keys))
	for i, k := range keys {
		words := make([]string, 0, len(dict[k])+1)
		words = append(words, k)
		words = append(words, dict[k]...)
		g := Synonym{
			ObjectID: SyntheticID(i),
			Type:     Symmetric,
			Synonyms: Dedupe(words),
		}
		if g.Matches(query) {
			out = append(out, g)
		}
	}
	return out
}

// SyntheticID formats the positional identifier used for flat-model reads.
func SyntheticID(position int) string {
	return fmt.Sprintf("synonym_%d", position)
}

// FromTermGroups inverts a term -> group ids index into symmetric groups,
// one per group id. Group ids and their terms come back sorted.
func FromTermGroups(termGroups map[string][]string) []Synonym {
	byGroup := make(map[string][]string)
	for term, ids := range termGroups {
		for _, id := range ids {
			byGroup[id] = append(byGroup[id], term)
		}
	}
	ids := make([]string, 0, len(byGroup))
	for id := range byGroup {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Synonym, 0, len(ids))
	for _, id := range ids {
		out = append(out, Synonym{
			ObjectID: id,
			Type:     Symmetric,
			Synonyms: SortedCopy(Dedupe(byGroup[id])),
		})
	}
	return out
}
