package searchbridge

import (
	"context"
	"fmt"
)

// SearchBuilder is a fluent builder for typed search queries.
type SearchBuilder[T any] struct {
	idx *TypedIndex[T]

	query        string
	where        map[string][]string
	filter       string
	nativeFilter string
	facets       []string
	sort         []string
	page         int
	hitsPerPage  int
	retrieve     []string
	highlight    []string
}

// Query sets the full-text query. Empty browses the index.
func (b *SearchBuilder[T]) Query(q string) *SearchBuilder[T] {
	b.query = q
	return b
}

// Where selects values of a facet attribute. Values of one attribute are
// OR-ed; attributes are AND-ed.
func (b *SearchBuilder[T]) Where(attr string, values ...string) *SearchBuilder[T] {
	if b.where == nil {
		b.where = make(map[string][]string)
	}
	b.where[attr] = append(b.where[attr], values...)
	return b
}

// Filter sets a canonical filter expression, e.g. `lang:"en" AND (a:"x" OR a:"y")`.
func (b *SearchBuilder[T]) Filter(expr string) *SearchBuilder[T] {
	b.filter = expr
	return b
}

// NativeFilter sets a filter in the backend's own grammar, passed verbatim.
func (b *SearchBuilder[T]) NativeFilter(expr string) *SearchBuilder[T] {
	b.nativeFilter = expr
	return b
}

// Facets requests value counts for attrs.
func (b *SearchBuilder[T]) Facets(attrs ...string) *SearchBuilder[T] {
	b.facets = append(b.facets, attrs...)
	return b
}

// SortBy adds a sort directive.
func (b *SearchBuilder[T]) SortBy(attr string, desc bool) *SearchBuilder[T] {
	dir := "asc"
	if desc {
		dir = "desc"
	}
	b.sort = append(b.sort, attr+":"+dir)
	return b
}

// Page sets the zero-based page and its size. A zero size keeps the default.
func (b *SearchBuilder[T]) Page(page, hitsPerPage int) *SearchBuilder[T] {
	b.page = page
	b.hitsPerPage = hitsPerPage
	return b
}

// Retrieve limits the attributes returned per hit.
func (b *SearchBuilder[T]) Retrieve(attrs ...string) *SearchBuilder[T] {
	b.retrieve = append(b.retrieve, attrs...)
	return b
}

// Highlight requests highlighting of attrs where the backend supports it.
func (b *SearchBuilder[T]) Highlight(attrs ...string) *SearchBuilder[T] {
	b.highlight = append(b.highlight, attrs...)
	return b
}

// Params returns the request the builder would send.
func (b *SearchBuilder[T]) Params() SearchParams {
	return SearchParams{
		Query:                 b.query,
		Page:                  b.page,
		HitsPerPage:           b.hitsPerPage,
		Filters:               b.filter,
		NativeFilter:          b.nativeFilter,
		FacetFilters:          b.where,
		Facets:                b.facets,
		Sort:                  b.sort,
		AttributesToRetrieve:  b.retrieve,
		AttributesToHighlight: b.highlight,
	}
}

// Do executes the search and returns typed results.
func (b *SearchBuilder[T]) Do(ctx context.Context) (*SearchResult[T], error) {
	res, err := b.idx.Query(ctx, b.Params())
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", b.idx.name, err)
	}
	return res, nil
}
