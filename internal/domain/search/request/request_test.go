package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/searchbridge/internal/domain"
)

func TestNormalize_Defaults(t *testing.T) {
	p := Params{Query: "hello"}.Normalize()
	if p.Page != 0 {
		t.Errorf("Page = %d, want 0", p.Page)
	}
	if p.HitsPerPage != DefaultHitsPerPage {
		t.Errorf("HitsPerPage = %d, want %d", p.HitsPerPage, DefaultHitsPerPage)
	}
	if p.MaxValuesPerFacet != DefaultMaxValuesPerFacet {
		t.Errorf("MaxValuesPerFacet = %d", p.MaxValuesPerFacet)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNormalize_KeepsNegativeHitsPerPage(t *testing.T) {
	p := Params{HitsPerPage: -5}.Normalize()
	if err := p.Validate(); !errors.Is(err, domain.ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		p    Params
	}{
		{"negative page", Params{Page: -1, HitsPerPage: 10}},
		{"zero hits", Params{HitsPerPage: 0}},
		{"too many hits", Params{HitsPerPage: MaxHitsPerPage + 1}},
		{"long query", Params{Query: strings.Repeat("q", MaxQueryLength+1), HitsPerPage: 10}},
		{"empty facet", Params{HitsPerPage: 10, Facets: []string{" "}}},
		{"empty facet filter", Params{HitsPerPage: 10, FacetFilters: map[string][]string{"": {"x"}}}},
		{"bad sort", Params{HitsPerPage: 10, Sort: []string{"year:sideways"}}},
		{"empty sort", Params{HitsPerPage: 10, Sort: []string{":desc"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.p.Validate(); !errors.Is(err, domain.ErrInvalidParams) {
				t.Errorf("expected ErrInvalidParams, got %v", err)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	tests := []struct {
		page, hpp, want int
	}{
		{0, 20, 0},
		{1, 20, 20},
		{3, 7, 21},
	}
	for _, tc := range tests {
		p := Params{Page: tc.page, HitsPerPage: tc.hpp}
		if got := p.Offset(); got != tc.want {
			t.Errorf("Offset(page=%d, hpp=%d) = %d, want %d", tc.page, tc.hpp, got, tc.want)
		}
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		in   string
		want SortDirective
	}{
		{"year", SortDirective{Attribute: "year"}},
		{"year:asc", SortDirective{Attribute: "year"}},
		{"price:DESC", SortDirective{Attribute: "price", Descending: true}},
		{" title : desc ", SortDirective{Attribute: "title", Descending: true}},
	}
	for _, tc := range tests {
		got, err := ParseSort(tc.in)
		if err != nil {
			t.Fatalf("ParseSort(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseSort(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestSortDirective_String(t *testing.T) {
	if s := (SortDirective{Attribute: "a"}).String(); s != "a:asc" {
		t.Errorf("String() = %q", s)
	}
	if s := (SortDirective{Attribute: "a", Descending: true}).String(); s != "a:desc" {
		t.Errorf("String() = %q", s)
	}
}
