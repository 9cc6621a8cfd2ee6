package index

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/kailas-cloud/searchbridge/internal/domain"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxAttributes caps each role list.
const MaxAttributes = 256

// Config partitions attributes by role and carries ranking and typo policy.
// Roles are interpreted by the backend; see Conflicts.
type Config struct {
	PrimaryKey           string         `json:"primaryKey,omitempty" yaml:"primary_key"`
	SearchableAttributes []string       `json:"searchableAttributes,omitempty" yaml:"searchable"`
	FilterableAttributes []string       `json:"filterableAttributes,omitempty" yaml:"filterable"`
	SortableAttributes   []string       `json:"sortableAttributes,omitempty" yaml:"sortable"`
	NumericAttributes    []string       `json:"numericAttributes,omitempty" yaml:"numeric"`
	RankingRules         []string       `json:"rankingRules,omitempty" yaml:"ranking_rules"`
	TypoTolerance        *TypoTolerance `json:"typoTolerance,omitempty" yaml:"typo_tolerance"`
}

// TypoTolerance controls fuzzy matching.
type TypoTolerance struct {
	Enabled                bool     `json:"enabled" yaml:"enabled"`
	MinWordSizeForOneTypo  int      `json:"minWordSizeForOneTypo,omitempty" yaml:"min_word_size_one_typo"`
	MinWordSizeForTwoTypos int      `json:"minWordSizeForTwoTypos,omitempty" yaml:"min_word_size_two_typos"`
	DisableOnAttributes    []string `json:"disableOnAttributes,omitempty" yaml:"disable_on_attributes"`
	DisableOnWords         []string `json:"disableOnWords,omitempty" yaml:"disable_on_words"`
}

// ValidateName checks an index name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: index name is required", domain.ErrInvalidConfig)
	}
	if len(name) > 64 {
		return fmt.Errorf("%w: index name too long (max 64)", domain.ErrInvalidConfig)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("%w: index name must be alphanumeric with underscores and hyphens", domain.ErrInvalidConfig)
	}
	return nil
}

// Validate checks attribute lists and the typo policy.
func (c *Config) Validate() error {
	roles := []struct {
		role  string
		attrs []string
	}{
		{"searchable", c.SearchableAttributes},
		{"filterable", c.FilterableAttributes},
		{"sortable", c.SortableAttributes},
		{"numeric", c.NumericAttributes},
	}
	for _, r := range roles {
		if err := validateAttributes(r.role, r.attrs); err != nil {
			return err
		}
	}
	for _, rule := range c.RankingRules {
		if rule == "" {
			return fmt.Errorf("%w: empty ranking rule", domain.ErrInvalidConfig)
		}
	}
	if t := c.TypoTolerance; t != nil {
		if t.MinWordSizeForOneTypo < 0 || t.MinWordSizeForTwoTypos < 0 {
			return fmt.Errorf("%w: typo word sizes must be non-negative", domain.ErrInvalidConfig)
		}
		if t.MinWordSizeForOneTypo > 0 && t.MinWordSizeForTwoTypos > 0 &&
			t.MinWordSizeForTwoTypos < t.MinWordSizeForOneTypo {
			return fmt.Errorf("%w: two-typo word size %d is below one-typo word size %d",
				domain.ErrInvalidConfig, t.MinWordSizeForTwoTypos, t.MinWordSizeForOneTypo)
		}
	}
	return nil
}

func validateAttributes(role string, attrs []string) error {
	if len(attrs) > MaxAttributes {
		return fmt.Errorf("%w: too many %s attributes (max %d)", domain.ErrInvalidConfig, role, MaxAttributes)
	}
	seen := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		if a == "" {
			return fmt.Errorf("%w: empty %s attribute name", domain.ErrInvalidConfig, role)
		}
		if seen[a] {
			return fmt.Errorf("%w: duplicate %s attribute: %s", domain.ErrInvalidConfig, role, a)
		}
		seen[a] = true
	}
	return nil
}

// Conflicts returns attributes that are both searchable and filterable, sorted.
// Backends that model a field as either full-text or exact-match reject these.
func (c *Config) Conflicts() []string {
	filterable := make(map[string]bool, len(c.FilterableAttributes))
	for _, a := range c.FilterableAttributes {
		filterable[a] = true
	}
	var out []string
	for _, a := range c.SearchableAttributes {
		if filterable[a] {
			out = append(out, a)
		}
	}
	slices.Sort(out)
	return out
}

// RejectConflicts wraps Conflicts into an ErrConflictingRoles error.
func (c *Config) RejectConflicts() error {
	if conflicts := c.Conflicts(); len(conflicts) > 0 {
		return fmt.Errorf("%w: %v are both searchable and filterable", domain.ErrConflictingRoles, conflicts)
	}
	return nil
}

// IsNumeric reports whether attr was declared numeric.
func (c *Config) IsNumeric(attr string) bool {
	return slices.Contains(c.NumericAttributes, attr)
}

// PrimaryKeyOrDefault returns the configured primary key or "id".
func (c *Config) PrimaryKeyOrDefault() string {
	if c.PrimaryKey == "" {
		return "id"
	}
	return c.PrimaryKey
}
