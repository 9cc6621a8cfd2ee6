// Package db is the RediSearch access layer behind the redis search adapter.
// Documents are stored with JSON.SET and indexed by FT indexes over JSON.
package db

import (
	"context"
	"time"
)

// Store is everything the redis adapter needs from the server.
//
//nolint:interfacebloat // composed of the narrow interfaces below
type Store interface {
	Pinger
	JSONStore
	IndexManager
	Searcher
	Aggregator
	SynonymStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks server connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JSONSetItem is one pipelined JSON.SET.
type JSONSetItem struct {
	Key  string
	Path string
	Data []byte
}

// JSONStore writes and removes JSON documents.
type JSONStore interface {
	JSONSetMulti(ctx context.Context, items []JSONSetItem) error
	DelMulti(ctx context.Context, keys []string) (int, error)
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, schema *Schema) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexExists(ctx context.Context, name string) (bool, error)
	// NumericFields lists the NUMERIC attributes of an existing index.
	NumericFields(ctx context.Context, name string) ([]string, error)
}

// Searcher runs FT.SEARCH.
type Searcher interface {
	Search(ctx context.Context, q *Query) (*SearchResult, error)
}

// Aggregator counts distinct values of one attribute with FT.AGGREGATE.
type Aggregator interface {
	CountValues(ctx context.Context, index, query, field string, limit int) ([]ValueCount, error)
}

// SynonymStore manages FT synonym groups.
type SynonymStore interface {
	SynUpdate(ctx context.Context, index, groupID string, terms []string) error
	SynDump(ctx context.Context, index string) (map[string][]string, error)
}
