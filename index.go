package searchbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/searchbridge/internal/domain/search/result"
)

// TypedIndex is a generic, schema-first index backed by a Client.
// The index config and the document mapping are inferred from T's struct
// tags at construction time.
type TypedIndex[T any] struct {
	name   string
	client *Client
	meta   *schemaMeta
}

// NewIndex creates a typed index handle for the given index name.
// T must be a struct with search tags. Schema is parsed once and cached.
func NewIndex[T any](client *Client, name string) (*TypedIndex[T], error) {
	meta, err := parseSchema[T]()
	if err != nil {
		return nil, fmt.Errorf("new index %q: %w", name, err)
	}
	return &TypedIndex[T]{name: name, client: client, meta: meta}, nil
}

// Name returns the index name.
func (idx *TypedIndex[T]) Name() string { return idx.name }

// Config returns the index config derived from T with opts applied.
func (idx *TypedIndex[T]) Config(opts ...IndexOption) IndexConfig {
	cfg := idx.meta.indexConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// Ensure applies the derived index config, creating the index when needed.
// Applying the same config again is a no-op for the backend's data.
func (idx *TypedIndex[T]) Ensure(ctx context.Context, opts ...IndexOption) (Ack, error) {
	a, err := idx.client.ConfigureIndex(ctx, idx.name, idx.Config(opts...))
	if err != nil {
		return Ack{}, fmt.Errorf("ensure %q: %w", idx.name, err)
	}
	return a, nil
}

// Add adds or replaces items.
func (idx *TypedIndex[T]) Add(ctx context.Context, items ...T) (Ack, error) {
	docs := make([]Document, len(items))
	for i, item := range items {
		var err error
		docs[i], err = idx.meta.toDocument(item)
		if err != nil {
			return Ack{}, fmt.Errorf("item %d: %w", i, err)
		}
	}
	a, err := idx.client.AddDocuments(ctx, idx.name, docs, DocumentOptions{PrimaryKey: idx.meta.cfg.PrimaryKey})
	if err != nil {
		return Ack{}, fmt.Errorf("add: %w", err)
	}
	return a, nil
}

// Delete removes items by primary key.
func (idx *TypedIndex[T]) Delete(ctx context.Context, ids ...string) (Ack, error) {
	a, err := idx.client.DeleteDocuments(ctx, idx.name, ids)
	if err != nil {
		return Ack{}, fmt.Errorf("delete: %w", err)
	}
	return a, nil
}

// Drop deletes the whole index.
func (idx *TypedIndex[T]) Drop(ctx context.Context) (Ack, error) {
	return idx.client.DeleteIndex(ctx, idx.name)
}

// Query runs params against the index and decodes hits into T.
func (idx *TypedIndex[T]) Query(ctx context.Context, params SearchParams) (*SearchResult[T], error) {
	raw, err := idx.client.searchRaw(ctx, idx.name, params)
	if err != nil {
		return nil, err
	}
	return result.Map(raw, func(h json.RawMessage) (T, error) {
		v, err := idx.meta.fromHit(h)
		if err != nil {
			var zero T
			return zero, err
		}
		item, ok := v.(T)
		if !ok {
			var zero T
			return zero, fmt.Errorf("decode hit: type assertion failed")
		}
		return item, nil
	})
}

// Search returns a fluent search builder for this index.
func (idx *TypedIndex[T]) Search() *SearchBuilder[T] {
	return &SearchBuilder[T]{idx: idx}
}

// IndexOption adjusts the config derived from struct tags.
type IndexOption func(*IndexConfig)

// WithRankingRules sets the ranking rules, in priority order.
func WithRankingRules(rules ...string) IndexOption {
	return func(c *IndexConfig) {
		c.RankingRules = rules
	}
}

// WithTypoTolerance sets the typo policy.
func WithTypoTolerance(t TypoTolerance) IndexOption {
	return func(c *IndexConfig) {
		c.TypoTolerance = &t
	}
}

// WithSearchable replaces the searchable attributes, in priority order.
func WithSearchable(attrs ...string) IndexOption {
	return func(c *IndexConfig) {
		c.SearchableAttributes = attrs
	}
}
