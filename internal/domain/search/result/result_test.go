package result

import (
	"errors"
	"strconv"
	"testing"
)

func TestPageCount(t *testing.T) {
	tests := []struct {
		nbHits, hpp, want int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{100, 7, 15},
		{5, 0, 0},
	}
	for _, tc := range tests {
		if got := PageCount(tc.nbHits, tc.hpp); got != tc.want {
			t.Errorf("PageCount(%d, %d) = %d, want %d", tc.nbHits, tc.hpp, got, tc.want)
		}
	}
}

func TestPageCount_Exhaustive(t *testing.T) {
	for hpp := 1; hpp <= 12; hpp++ {
		for nb := 0; nb <= 50; nb++ {
			got := PageCount(nb, hpp)
			if got*hpp < nb || (got > 0 && (got-1)*hpp >= nb) {
				t.Fatalf("PageCount(%d, %d) = %d is not the ceiling", nb, hpp, got)
			}
		}
	}
}

func TestNew_DerivesPagesAndTrimsHits(t *testing.T) {
	r := New([]int{1, 2, 3, 4}, 10, true, 0, 3, 5, nil)
	if len(r.Hits) != 3 {
		t.Errorf("len(Hits) = %d, want 3", len(r.Hits))
	}
	if r.NbPages != 4 {
		t.Errorf("NbPages = %d, want 4", r.NbPages)
	}
	if r.Facets != nil {
		t.Errorf("Facets = %v, want nil", r.Facets)
	}
}

func TestNew_EmptyIsNotNil(t *testing.T) {
	r := New[string](nil, 0, true, 0, 20, 0, nil)
	if r.Hits == nil || len(r.Hits) != 0 {
		t.Errorf("Hits = %#v, want empty slice", r.Hits)
	}
	if r.NbPages != 0 {
		t.Errorf("NbPages = %d", r.NbPages)
	}
}

func TestNewFacets(t *testing.T) {
	if f := NewFacets(nil); f != nil {
		t.Errorf("NewFacets(nil) = %v, want nil", f)
	}

	f := NewFacets([]string{"category"})
	if f == nil || f["category"] == nil || len(f["category"]) != 0 {
		t.Fatalf("NewFacets = %#v", f)
	}
	f.Add("category", "books", 2)
	f.Add("category", "books", 1)
	f.Add("author", "x", 1)
	if f["category"]["books"] != 3 {
		t.Errorf("books = %d, want 3", f["category"]["books"])
	}
	if _, ok := f["author"]; ok {
		t.Error("unrequested attribute should be ignored")
	}
}

func TestMap(t *testing.T) {
	r := New([]int{1, 2}, 2, false, 0, 10, 3, NewFacets([]string{"a"}))
	out, err := Map(r, func(i int) (string, error) { return strconv.Itoa(i * 10), nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Hits[1] != "20" || out.NbHits != 2 || out.NbHitsExhaustive || out.Facets == nil {
		t.Errorf("Map() = %+v", out)
	}

	boom := errors.New("boom")
	_, err = Map(r, func(int) (string, error) { return "", boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}
