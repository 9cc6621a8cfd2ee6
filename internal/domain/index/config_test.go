package index

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/searchbridge/internal/domain"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"products", false},
		{"books_2024-v1", false},
		{"", true},
		{"has space", true},
		{"dots.not.allowed", true},
		{strings.Repeat("a", 65), true},
	}
	for _, tc := range tests {
		err := ValidateName(tc.name)
		if (err != nil) != tc.wantErr {
			t.Errorf("ValidateName(%q) error = %v, wantErr %v", tc.name, err, tc.wantErr)
		}
		if err != nil && !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("ValidateName(%q) should wrap ErrInvalidConfig", tc.name)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty", Config{}, false},
		{"typical", Config{
			SearchableAttributes: []string{"title", "body"},
			FilterableAttributes: []string{"category"},
			SortableAttributes:   []string{"year"},
			RankingRules:         []string{"words", "typo"},
			TypoTolerance:        &TypoTolerance{Enabled: true, MinWordSizeForOneTypo: 4, MinWordSizeForTwoTypos: 8},
		}, false},
		{"duplicate", Config{FilterableAttributes: []string{"a", "a"}}, true},
		{"empty attr", Config{SortableAttributes: []string{""}}, true},
		{"empty rule", Config{RankingRules: []string{""}}, true},
		{"inverted typo", Config{TypoTolerance: &TypoTolerance{MinWordSizeForOneTypo: 8, MinWordSizeForTwoTypos: 4}}, true},
		{"negative typo", Config{TypoTolerance: &TypoTolerance{MinWordSizeForOneTypo: -1}}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("error should wrap ErrInvalidConfig: %v", err)
			}
		})
	}
}

func TestConfig_Conflicts(t *testing.T) {
	cfg := Config{
		SearchableAttributes: []string{"title", "tags", "brand"},
		FilterableAttributes: []string{"brand", "category", "tags"},
	}
	got := cfg.Conflicts()
	if len(got) != 2 || got[0] != "brand" || got[1] != "tags" {
		t.Fatalf("Conflicts() = %v, want [brand tags]", got)
	}
	if err := cfg.RejectConflicts(); !errors.Is(err, domain.ErrConflictingRoles) {
		t.Errorf("RejectConflicts() = %v, want ErrConflictingRoles", err)
	}

	clean := Config{SearchableAttributes: []string{"title"}, FilterableAttributes: []string{"category"}}
	if err := clean.RejectConflicts(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConfig_Helpers(t *testing.T) {
	cfg := Config{NumericAttributes: []string{"price"}}
	if !cfg.IsNumeric("price") || cfg.IsNumeric("title") {
		t.Error("IsNumeric mismatch")
	}
	if cfg.PrimaryKeyOrDefault() != "id" {
		t.Errorf("PrimaryKeyOrDefault() = %q", cfg.PrimaryKeyOrDefault())
	}
	cfg.PrimaryKey = "sku"
	if cfg.PrimaryKeyOrDefault() != "sku" {
		t.Errorf("PrimaryKeyOrDefault() = %q", cfg.PrimaryKeyOrDefault())
	}
}
