package db

// SchemaBuilder assembles a Schema. An attribute keeps the role it was
// first added with; later additions of the same attribute are ignored.
type SchemaBuilder struct {
	s    Schema
	seen map[string]bool
}

// NewSchema starts a schema for index whose documents live under prefix.
func NewSchema(index, prefix string) *SchemaBuilder {
	return &SchemaBuilder{
		s:    Schema{Index: index, Prefix: prefix},
		seen: make(map[string]bool),
	}
}

// Text adds a full-text attribute with a relevance weight.
func (b *SchemaBuilder) Text(attr string, weight float64) *SchemaBuilder {
	return b.add(Field{Attr: attr, Type: FieldText, Weight: weight})
}

// Tag adds an exact-match attribute.
func (b *SchemaBuilder) Tag(attr string) *SchemaBuilder {
	return b.add(Field{Attr: attr, Type: FieldTag})
}

// Numeric adds a number attribute.
func (b *SchemaBuilder) Numeric(attr string) *SchemaBuilder {
	return b.add(Field{Attr: attr, Type: FieldNumeric})
}

// Sortable marks the named attributes SORTABLE. Unknown names are ignored.
func (b *SchemaBuilder) Sortable(attrs ...string) *SchemaBuilder {
	for _, a := range attrs {
		for i := range b.s.Fields {
			if b.s.Fields[i].Attr == a {
				b.s.Fields[i].Sortable = true
			}
		}
	}
	return b
}

// Len reports how many attributes were added.
func (b *SchemaBuilder) Len() int { return len(b.s.Fields) }

func (b *SchemaBuilder) add(f Field) *SchemaBuilder {
	if b.seen[f.Attr] {
		return b
	}
	b.seen[f.Attr] = true
	b.s.Fields = append(b.s.Fields, f)
	return b
}

// Build validates and returns the schema.
func (b *SchemaBuilder) Build() (*Schema, error) {
	s := b.s
	s.Fields = append([]Field(nil), b.s.Fields...)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
