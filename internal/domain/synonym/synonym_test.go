package synonym

import (
	"errors"
	"slices"
	"testing"

	"github.com/kailas-cloud/searchbridge/internal/domain"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       Synonym
		wantErr bool
	}{
		{"symmetric", Synonym{Type: Symmetric, Synonyms: []string{"car", "auto"}}, false},
		{"symmetric single word", Synonym{Type: Symmetric, Synonyms: []string{"car", "car "}}, true},
		{"oneway", Synonym{Type: OneWay, Input: "phone", Synonyms: []string{"iphone"}}, false},
		{"oneway no input", Synonym{Type: OneWay, Synonyms: []string{"iphone"}}, true},
		{"altcorrection", Synonym{Type: AltCorrection1, Input: "color", Synonyms: []string{"colour"}}, false},
		{"placeholder", Synonym{Type: Placeholder, Placeholder: "<num>", Replacements: []string{"1", "2"}}, false},
		{"placeholder empty", Synonym{Type: Placeholder, Placeholder: "<num>"}, true},
		{"unknown type", Synonym{Type: "bogus", Synonyms: []string{"a", "b"}}, true},
		{"reserved id", Synonym{ObjectID: AllSentinel, Type: Symmetric, Synonyms: []string{"a", "b"}}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.s.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidSynonym) {
				t.Errorf("error should wrap ErrInvalidSynonym: %v", err)
			}
		})
	}
}

func TestNormalize_DefaultsToSymmetric(t *testing.T) {
	s := Synonym{Synonyms: []string{"a", "b"}}.Normalize()
	if s.Type != Symmetric {
		t.Errorf("Type = %q, want %q", s.Type, Symmetric)
	}
}

func TestMatches(t *testing.T) {
	s := Synonym{Type: OneWay, Input: "Phone", Synonyms: []string{"iPhone", "android"}}
	for _, q := range []string{"", "pho", "PHONE", "droid"} {
		if !s.Matches(q) {
			t.Errorf("Matches(%q) = false, want true", q)
		}
	}
	if s.Matches("tablet") {
		t.Error("Matches(tablet) = true, want false")
	}
}

func TestToDictionary_Reciprocal(t *testing.T) {
	dict, err := ToDictionary([]Synonym{
		{ObjectID: "g1", Type: Symmetric, Synonyms: []string{"a", "b", "c"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Dictionary{
		"a": {"b", "c"},
		"b": {"a", "c"},
		"c": {"a", "b"},
	}
	if len(dict) != len(want) {
		t.Fatalf("dict = %v, want %v", dict, want)
	}
	for k, v := range want {
		if !slices.Equal(dict[k], v) {
			t.Errorf("dict[%q] = %v, want %v", k, dict[k], v)
		}
	}
}

func TestToDictionary_OverlappingGroupsUnion(t *testing.T) {
	dict, err := ToDictionary([]Synonym{
		{Synonyms: []string{"tv", "television"}},
		{Synonyms: []string{"tv", "telly"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(dict["tv"], []string{"television", "telly"}) {
		t.Errorf("dict[tv] = %v", dict["tv"])
	}
	if !slices.Equal(dict["telly"], []string{"tv"}) {
		t.Errorf("dict[telly] = %v", dict["telly"])
	}
}

func TestToDictionary_RejectsNonSymmetric(t *testing.T) {
	for _, typ := range []Type{OneWay, AltCorrection1, AltCorrection2, Placeholder} {
		_, err := ToDictionary([]Synonym{
			{Type: Symmetric, Synonyms: []string{"a", "b"}},
			{ObjectID: "x", Type: typ, Input: "a", Synonyms: []string{"b"}},
		})
		if !errors.Is(err, domain.ErrNotRepresentable) {
			t.Errorf("type %s: expected ErrNotRepresentable, got %v", typ, err)
		}
	}
}

func TestMergeDictionary(t *testing.T) {
	existing := Dictionary{"a": {"b"}, "x": {"y"}}
	incoming := Dictionary{"a": {"c", "b"}, "n": {"m"}}

	got := MergeDictionary(existing, incoming)
	if !slices.Equal(got["a"], []string{"b", "c"}) {
		t.Errorf("got[a] = %v", got["a"])
	}
	if !slices.Equal(got["x"], []string{"y"}) || !slices.Equal(got["n"], []string{"m"}) {
		t.Errorf("merge lost keys: %v", got)
	}
	if len(existing["a"]) != 1 {
		t.Error("MergeDictionary mutated its input")
	}
}

func TestFromDictionary_IDsArePositional(t *testing.T) {
	dict := Dictionary{"b": {"a"}, "a": {"b"}, "c": {"d"}}

	all := FromDictionary(dict, "")
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	wantIDs := []string{"synonym_0", "synonym_1", "synonym_2"}
	for i, g := range all {
		if g.ObjectID != wantIDs[i] {
			t.Errorf("group %d id = %q, want %q", i, g.ObjectID, wantIDs[i])
		}
		if g.Type != Symmetric {
			t.Errorf("group %d type = %q", i, g.Type)
		}
	}
	if !slices.Equal(all[0].Synonyms, []string{"a", "b"}) {
		t.Errorf("group 0 = %v", all[0].Synonyms)
	}

	// The filter applies after numbering, so ids match the unfiltered read.
	filtered := FromDictionary(dict, "d")
	if len(filtered) != 1 || filtered[0].ObjectID != "synonym_2" {
		t.Errorf("filtered = %+v", filtered)
	}
}

func TestRoundTrip_SymmetricGroup(t *testing.T) {
	dict, err := ToDictionary([]Synonym{{Synonyms: []string{"a", "b", "c"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, q := range []string{"a", "b", "c"} {
		groups := FromDictionary(dict, q)
		found := false
		for _, g := range groups {
			if slices.Equal(SortedCopy(g.Synonyms), []string{"a", "b", "c"}) {
				found = true
			}
		}
		if !found {
			t.Errorf("query %q: no group equal to {a,b,c} in %+v", q, groups)
		}
	}
}

func TestFromTermGroups(t *testing.T) {
	got := FromTermGroups(map[string][]string{
		"car":   {"g1"},
		"auto":  {"g1"},
		"tv":    {"g2"},
		"telly": {"g2", "g3"},
		"box":   {"g3"},
	})
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].ObjectID != "g1" || !slices.Equal(got[0].Synonyms, []string{"auto", "car"}) {
		t.Errorf("group 0 = %+v", got[0])
	}
	if got[2].ObjectID != "g3" || !slices.Equal(got[2].Synonyms, []string{"box", "telly"}) {
		t.Errorf("group 2 = %+v", got[2])
	}
}
