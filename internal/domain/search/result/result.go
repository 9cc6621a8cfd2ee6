package result

import "fmt"

// Facets maps attribute -> value -> count.
type Facets map[string]map[string]int

// NewFacets returns nil when nothing was requested, otherwise a map holding
// an empty distribution for every requested attribute. Callers rely on the
// difference between "not requested" and "requested, no matches".
func NewFacets(requested []string) Facets {
	if len(requested) == 0 {
		return nil
	}
	f := make(Facets, len(requested))
	for _, attr := range requested {
		f[attr] = map[string]int{}
	}
	return f
}

// Add accumulates a count; attributes that were not requested are ignored.
func (f Facets) Add(attr, value string, count int) {
	dist, ok := f[attr]
	if !ok {
		return
	}
	dist[value] += count
}

// Result is the canonical search response.
type Result[T any] struct {
	Hits             []T    `json:"hits"`
	NbHits           int    `json:"nbHits"`
	NbHitsExhaustive bool   `json:"exhaustiveNbHits"`
	Page             int    `json:"page"`
	NbPages          int    `json:"nbPages"`
	HitsPerPage      int    `json:"hitsPerPage"`
	ProcessingTimeMS int64  `json:"processingTimeMs"`
	Facets           Facets `json:"facets,omitempty"`
}

// New builds a Result and derives NbPages. Hits past hitsPerPage are dropped.
func New[T any](
	hits []T, nbHits int, exhaustive bool,
	page, hitsPerPage int, tookMS int64, facets Facets,
) *Result[T] {
	if hitsPerPage > 0 && len(hits) > hitsPerPage {
		hits = hits[:hitsPerPage]
	}
	if hits == nil {
		hits = []T{}
	}
	if nbHits < 0 {
		nbHits = 0
	}
	return &Result[T]{
		Hits:             hits,
		NbHits:           nbHits,
		NbHitsExhaustive: exhaustive,
		Page:             page,
		NbPages:          PageCount(nbHits, hitsPerPage),
		HitsPerPage:      hitsPerPage,
		ProcessingTimeMS: tookMS,
		Facets:           facets,
	}
}

// PageCount is ceil(nbHits / hitsPerPage), 0 for a non-positive page size.
func PageCount(nbHits, hitsPerPage int) int {
	if hitsPerPage <= 0 || nbHits <= 0 {
		return 0
	}
	return (nbHits + hitsPerPage - 1) / hitsPerPage
}

// Map converts every hit, keeping paging and facet data.
func Map[T, U any](r *Result[T], fn func(T) (U, error)) (*Result[U], error) {
	hits := make([]U, len(r.Hits))
	for i, h := range r.Hits {
		u, err := fn(h)
		if err != nil {
			return nil, fmt.Errorf("hit %d: %w", i, err)
		}
		hits[i] = u
	}
	return &Result[U]{
		Hits:             hits,
		NbHits:           r.NbHits,
		NbHitsExhaustive: r.NbHitsExhaustive,
		Page:             r.Page,
		NbPages:          r.NbPages,
		HitsPerPage:      r.HitsPerPage,
		ProcessingTimeMS: r.ProcessingTimeMS,
		Facets:           r.Facets,
	}, nil
}
