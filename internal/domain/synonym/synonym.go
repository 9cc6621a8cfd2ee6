package synonym

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/searchbridge/internal/domain"
)

// AllSentinel is the object id that addresses every synonym of an index.
const AllSentinel = "__ALL__"

// Type distinguishes synonym record kinds.
type Type string

const (
	// Symmetric groups are mutually substitutable words.
	Symmetric Type = "synonym"
	// OneWay maps Input to Synonyms but not back.
	OneWay Type = "onewaysynonym"
	// AltCorrection1 lists one-typo corrections of Input.
	AltCorrection1 Type = "altcorrection1"
	// AltCorrection2 lists two-typo corrections of Input.
	AltCorrection2 Type = "altcorrection2"
	// Placeholder expands Placeholder into any of Replacements.
	Placeholder Type = "placeholder"
)

// IsValid checks if the synonym type is known.
func (t Type) IsValid() bool {
	switch t {
	case Symmetric, OneWay, AltCorrection1, AltCorrection2, Placeholder:
		return true
	}
	return false
}

// Synonym is one record of the rich model.
type Synonym struct {
	ObjectID     string   `json:"objectID"`
	Type         Type     `json:"type"`
	Synonyms     []string `json:"synonyms,omitempty"`
	Input        string   `json:"input,omitempty"`
	Placeholder  string   `json:"placeholder,omitempty"`
	Replacements []string `json:"replacements,omitempty"`
}

// Normalize defaults an empty type to Symmetric.
func (s Synonym) Normalize() Synonym {
	if s.Type == "" {
		s.Type = Symmetric
	}
	return s
}

// Validate checks the record shape required by its type.
func (s Synonym) Validate() error {
	if s.ObjectID == AllSentinel {
		return fmt.Errorf("%w: %s is reserved", domain.ErrInvalidSynonym, AllSentinel)
	}
	switch s.Type {
	case Symmetric:
		if len(Dedupe(s.Synonyms)) < 2 {
			return fmt.Errorf("%w: synonym group needs at least 2 distinct words", domain.ErrInvalidSynonym)
		}
	case OneWay, AltCorrection1, AltCorrection2:
		if strings.TrimSpace(s.Input) == "" {
			return fmt.Errorf("%w: %s requires input", domain.ErrInvalidSynonym, s.Type)
		}
		if len(Dedupe(s.Synonyms)) == 0 {
			return fmt.Errorf("%w: %s requires at least one synonym", domain.ErrInvalidSynonym, s.Type)
		}
	case Placeholder:
		if strings.TrimSpace(s.Placeholder) == "" || len(Dedupe(s.Replacements)) == 0 {
			return fmt.Errorf("%w: placeholder requires a token and replacements", domain.ErrInvalidSynonym)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", domain.ErrInvalidSynonym, s.Type)
	}
	return nil
}

// Words returns every term the record mentions, deduplicated.
func (s Synonym) Words() []string {
	words := make([]string, 0, len(s.Synonyms)+len(s.Replacements)+2)
	if s.Input != "" {
		words = append(words, s.Input)
	}
	if s.Placeholder != "" {
		words = append(words, s.Placeholder)
	}
	words = append(words, s.Synonyms...)
	words = append(words, s.Replacements...)
	return Dedupe(words)
}

// Matches reports whether query is a case-insensitive substring of any word.
// An empty query matches everything.
func (s Synonym) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, w := range s.Words() {
		if strings.Contains(strings.ToLower(w), q) {
			return true
		}
	}
	return false
}

// Filter keeps the records matching query, preserving order.
func Filter(groups []Synonym, query string) []Synonym {
	out := make([]Synonym, 0, len(groups))
	for _, g := range groups {
		if g.Matches(query) {
			out = append(out, g)
		}
	}
	return out
}

// Dedupe trims words and drops empty and repeated ones, keeping first-seen order.
func Dedupe(words []string) []string {
	seen := make(map[string]bool, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// SortedCopy returns a sorted copy of words.
func SortedCopy(words []string) []string {
	out := slices.Clone(words)
	slices.Sort(out)
	return out
}
