package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/searchbridge/internal/domain"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength           = 4096
	DefaultHitsPerPage       = 20
	MaxHitsPerPage           = 1000
	DefaultMaxValuesPerFacet = 100
)

// Params is the canonical search request.
//
// Filters uses the canonical grammar (attr:"value" joined by AND / OR with
// parentheses) and is translated per backend. NativeFilter is passed to the
// backend verbatim. FacetFilters is a facet selection compiled by the filter
// builder.
type Params struct {
	Query                 string              `json:"query"`
	Page                  int                 `json:"page"`
	HitsPerPage           int                 `json:"hitsPerPage"`
	Filters               string              `json:"filters,omitempty"`
	NativeFilter          string              `json:"nativeFilter,omitempty"`
	FacetFilters          map[string][]string `json:"facetFilters,omitempty"`
	Facets                []string            `json:"facets,omitempty"`
	Sort                  []string            `json:"sort,omitempty"`
	AttributesToRetrieve  []string            `json:"attributesToRetrieve,omitempty"`
	AttributesToHighlight []string            `json:"attributesToHighlight,omitempty"`
	MaxValuesPerFacet     int                 `json:"maxValuesPerFacet,omitempty"`
}

// Normalize fills defaults: hitsPerPage=20, maxValuesPerFacet=100.
func (p Params) Normalize() Params {
	if p.HitsPerPage == 0 {
		p.HitsPerPage = DefaultHitsPerPage
	}
	if p.MaxValuesPerFacet <= 0 {
		p.MaxValuesPerFacet = DefaultMaxValuesPerFacet
	}
	return p
}

// Validate enforces page >= 0, 0 < hitsPerPage <= 1000 and well-formed sort
// directives and facet names.
func (p Params) Validate() error {
	if len(p.Query) > MaxQueryLength {
		return fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidParams, MaxQueryLength)
	}
	if p.Page < 0 {
		return fmt.Errorf("%w: page must be >= 0, got %d", domain.ErrInvalidParams, p.Page)
	}
	if p.HitsPerPage <= 0 || p.HitsPerPage > MaxHitsPerPage {
		return fmt.Errorf("%w: hitsPerPage must be between 1 and %d, got %d",
			domain.ErrInvalidParams, MaxHitsPerPage, p.HitsPerPage)
	}
	for _, f := range p.Facets {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("%w: empty facet name", domain.ErrInvalidParams)
		}
	}
	for attr := range p.FacetFilters {
		if strings.TrimSpace(attr) == "" {
			return fmt.Errorf("%w: empty facet filter attribute", domain.ErrInvalidParams)
		}
	}
	if _, err := p.SortDirectives(); err != nil {
		return err
	}
	return nil
}

// Offset is the zero-based position of the first hit of the page.
func (p Params) Offset() int {
	return p.Page * p.HitsPerPage
}

// SortDirectives parses Sort.
func (p Params) SortDirectives() ([]SortDirective, error) {
	out := make([]SortDirective, 0, len(p.Sort))
	for _, s := range p.Sort {
		d, err := ParseSort(s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// SortDirective orders hits by one attribute.
type SortDirective struct {
	Attribute  string
	Descending bool
}

// ParseSort accepts "attr", "attr:asc" and "attr:desc".
func ParseSort(s string) (SortDirective, error) {
	attr, dir, hasDir := strings.Cut(strings.TrimSpace(s), ":")
	attr = strings.TrimSpace(attr)
	if attr == "" {
		return SortDirective{}, fmt.Errorf("%w: empty sort attribute in %q", domain.ErrInvalidParams, s)
	}
	if !hasDir {
		return SortDirective{Attribute: attr}, nil
	}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "asc":
		return SortDirective{Attribute: attr}, nil
	case "desc":
		return SortDirective{Attribute: attr, Descending: true}, nil
	default:
		return SortDirective{}, fmt.Errorf("%w: sort direction must be asc or desc in %q", domain.ErrInvalidParams, s)
	}
}

// String renders the directive as "attr:asc" or "attr:desc".
func (d SortDirective) String() string {
	if d.Descending {
		return d.Attribute + ":desc"
	}
	return d.Attribute + ":asc"
}
