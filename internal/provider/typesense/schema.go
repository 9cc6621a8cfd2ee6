package typesense

import (
	"context"

	ts "github.com/typesense/typesense-go/v3/typesense"
	"github.com/typesense/typesense-go/v3/typesense/api"

	"github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/provider"
)

// Field types used in generated schemas.
const (
	typeAuto      = "auto"
	typeFloat     = "float"
	typeString    = "string"
	typeStringAny = "string*" // string or string[]
)

type schemaField struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Facet    *bool  `json:"facet,omitempty"`
	Sort     *bool  `json:"sort,omitempty"`
	Optional *bool  `json:"optional,omitempty"`
	Index    *bool  `json:"index,omitempty"`
	Drop     *bool  `json:"drop,omitempty"`
}

func (f schemaField) isText() bool {
	switch f.Type {
	case typeString, "string[]", typeStringAny:
		return f.Index == nil || *f.Index
	}
	return false
}

type collectionSchema struct {
	Name   string        `json:"name,omitempty"`
	Fields []schemaField `json:"fields"`
}

func (s *collectionSchema) has(name string) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func flag(v bool) *bool { return &v }

// fieldsFor derives typed fields from cfg in role order. Numeric attributes
// become floats, sortable strings a scalar string, everything else string*.
// All fields are optional so partial documents import.
func fieldsFor(cfg index.Config) []schemaField {
	var order []string
	fields := make(map[string]*schemaField)
	field := func(name string) *schemaField {
		if f, ok := fields[name]; ok {
			return f
		}
		f := &schemaField{Name: name, Type: typeStringAny, Optional: flag(true)}
		if cfg.IsNumeric(name) {
			f.Type = typeFloat
		}
		fields[name] = f
		order = append(order, name)
		return f
	}
	for _, a := range cfg.SearchableAttributes {
		field(a)
	}
	for _, a := range cfg.FilterableAttributes {
		field(a).Facet = flag(true)
	}
	for _, a := range cfg.SortableAttributes {
		f := field(a)
		f.Sort = flag(true)
		if f.Type == typeStringAny {
			f.Type = typeString
		}
	}
	for _, a := range cfg.NumericAttributes {
		field(a)
	}

	out := make([]schemaField, len(order))
	for i, name := range order {
		out[i] = *fields[name]
	}
	return out
}

func retrieveSchema(ctx context.Context, c *ts.Client, idx string) (*collectionSchema, error) {
	resp, err := c.Collection(idx).Retrieve(ctx)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s collectionSchema
	if err := convert(resp, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ConfigureIndex creates the collection, or alters an existing one by
// dropping and re-adding every configured field in one update. Ranking rules
// have no collection-level equivalent and are reported as ignored; the typo
// policy is applied to every later search.
func (p *Provider) ConfigureIndex(ctx context.Context, idx string, cfg index.Config) (provider.Ack, error) {
	c, err := p.get()
	if err != nil {
		return provider.Ack{}, err
	}
	if err := index.ValidateName(idx); err != nil {
		return provider.Ack{}, err
	}
	if err := cfg.Validate(); err != nil {
		return provider.Ack{}, err
	}

	fields := fieldsFor(cfg)
	existing, err := retrieveSchema(ctx, c, idx)
	if err != nil {
		return provider.Ack{}, p.fail(provider.OpConfigureIndex, err)
	}

	var native any
	if existing == nil {
		native, err = createCollection(ctx, c, idx, fields)
	} else {
		native, err = updateCollection(ctx, c, idx, existing, fields)
	}
	if err != nil {
		return provider.Ack{}, p.fail(provider.OpConfigureIndex, err)
	}

	info := &indexInfo{queryBy: cfg.SearchableAttributes, typo: cfg.TypoTolerance}
	if len(info.queryBy) == 0 {
		for _, f := range fields {
			if f.isText() {
				info.queryBy = append(info.queryBy, f.Name)
			}
		}
	}
	p.mu.Lock()
	p.indexes[idx] = info
	p.mu.Unlock()

	payload := map[string]any{"collection": native}
	if len(cfg.RankingRules) > 0 {
		payload["ignored"] = []string{"rankingRules"}
	}
	return provider.Ack{Provider: provider.Typesense, Payload: payload}, nil
}

func createCollection(ctx context.Context, c *ts.Client, idx string, fields []schemaField) (any, error) {
	if len(fields) == 0 {
		fields = []schemaField{{Name: ".*", Type: typeAuto}}
	}
	var schema api.CollectionSchema
	if err := convert(collectionSchema{Name: idx, Fields: fields}, &schema); err != nil {
		return nil, err
	}
	return c.Collections().Create(ctx, &schema)
}

func updateCollection(
	ctx context.Context, c *ts.Client, idx string, existing *collectionSchema, fields []schemaField,
) (any, error) {
	if len(fields) == 0 {
		return existing, nil
	}
	changes := make([]schemaField, 0, 2*len(fields))
	for _, f := range fields {
		if existing.has(f.Name) {
			changes = append(changes, schemaField{Name: f.Name, Drop: flag(true)})
		}
		changes = append(changes, f)
	}
	var update api.CollectionUpdateSchema
	if err := convert(collectionSchema{Fields: changes}, &update); err != nil {
		return nil, err
	}
	return c.Collection(idx).Update(ctx, &update)
}

// DeleteIndex drops the collection.
func (p *Provider) DeleteIndex(ctx context.Context, idx string) (provider.Ack, error) {
	c, err := p.get()
	if err != nil {
		return provider.Ack{}, err
	}
	resp, err := c.Collection(idx).Delete(ctx)
	if err != nil {
		return provider.Ack{}, p.fail(provider.OpDeleteIndex, err)
	}
	p.mu.Lock()
	delete(p.indexes, idx)
	p.mu.Unlock()
	return provider.Ack{Provider: provider.Typesense, Payload: resp}, nil
}
