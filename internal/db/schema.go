package db

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FieldType enumerates the FT schema field types searchbridge maps onto.
type FieldType int

const (
	// FieldText is an analyzed full-text field.
	FieldText FieldType = iota
	// FieldTag is an exact-match field used for facets and filters.
	FieldTag
	// FieldNumeric is a range-filterable number.
	FieldNumeric
)

// String returns the FT.CREATE keyword.
func (t FieldType) String() string {
	switch t {
	case FieldText:
		return "TEXT"
	case FieldTag:
		return "TAG"
	case FieldNumeric:
		return "NUMERIC"
	default:
		return "UNKNOWN"
	}
}

// Field is one attribute of the indexed JSON documents. It is read from
// $.<Attr> and queried as @<Attr>.
type Field struct {
	Attr     string
	Type     FieldType
	Sortable bool
	// Weight scales TEXT relevance; values <= 1 keep the server default.
	Weight float64
}

// Path is the JSONPath the server reads the attribute from.
func (f Field) Path() string { return "$." + f.Attr }

// Schema is an FT index over JSON documents whose keys start with Prefix.
type Schema struct {
	Index  string
	Prefix string
	Fields []Field
}

// Validate checks that the schema can be sent to FT.CREATE.
func (s *Schema) Validate() error {
	if s.Index == "" {
		return errors.New("index name is required")
	}
	if strings.ContainsAny(s.Index, " \t\r\n") {
		return errors.New("index name contains whitespace")
	}
	if len(s.Fields) == 0 {
		return errors.New("at least one field is required")
	}
	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		if f.Attr == "" {
			return fmt.Errorf("field %d has no attribute name", i)
		}
		if seen[f.Attr] {
			return fmt.Errorf("duplicate field %q", f.Attr)
		}
		seen[f.Attr] = true
		if f.Weight < 0 {
			return fmt.Errorf("negative weight on field %q", f.Attr)
		}
	}
	return nil
}

// Field returns the schema field for attr.
func (s *Schema) Field(attr string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Attr == attr {
			return f, true
		}
	}
	return Field{}, false
}

// Args renders the FT.CREATE arguments that follow the command name.
func (s *Schema) Args() []string {
	args := []string{s.Index, "ON", "JSON"}
	if s.Prefix != "" {
		args = append(args, "PREFIX", "1", s.Prefix)
	}
	args = append(args, "SCHEMA")
	for _, f := range s.Fields {
		args = append(args, f.Path(), "AS", f.Attr, f.Type.String())
		if f.Type == FieldText && f.Weight > 1 {
			args = append(args, "WEIGHT", strconv.FormatFloat(f.Weight, 'f', -1, 64))
		}
		if f.Sortable {
			args = append(args, "SORTABLE")
		}
	}
	return args
}

// String returns the FT.CREATE command line, for logs and acks.
func (s *Schema) String() string {
	return "FT.CREATE " + strings.Join(s.Args(), " ")
}
