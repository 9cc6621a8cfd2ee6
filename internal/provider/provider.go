package provider

import (
	"context"
	"encoding/json"

	"github.com/kailas-cloud/searchbridge/internal/domain/document"
	"github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/filter"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/request"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/result"
	"github.com/kailas-cloud/searchbridge/internal/domain/synonym"
)

// Backend tags.
const (
	Meilisearch = "meilisearch"
	Typesense   = "typesense"
	Redis       = "redis"
	Bleve       = "bleve"
)

// Provider is the operation set every backend adapter implements.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Provider interface {
	Namer
	Initializer
	Pinger
	Searcher
	DocumentWriter
	IndexManager
	SynonymStore
	FilterGrammar() filter.Grammar
	Close() error
}

// Namer reports the backend tag.
type Namer interface {
	Name() string
}

// Initializer opens the backend connection.
type Initializer interface {
	Init(ctx context.Context) error
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Searcher runs canonical searches. Hits are raw JSON objects.
type Searcher interface {
	Search(ctx context.Context, index string, params request.Params) (*result.Result[json.RawMessage], error)
}

// DocumentOptions qualifies document writes.
type DocumentOptions struct {
	// PrimaryKey names the id attribute; "id" when empty.
	PrimaryKey string
}

// DocumentWriter adds and removes documents.
type DocumentWriter interface {
	AddDocuments(ctx context.Context, index string, docs []document.Document, opts DocumentOptions) (Ack, error)
	DeleteDocuments(ctx context.Context, index string, ids []string) (Ack, error)
}

// IndexManager applies settings and drops indexes.
type IndexManager interface {
	ConfigureIndex(ctx context.Context, index string, cfg index.Config) (Ack, error)
	DeleteIndex(ctx context.Context, index string) (Ack, error)
}

// SaveSynonymsOptions qualifies synonym writes.
type SaveSynonymsOptions struct {
	// ReplaceExisting drops the index's current synonyms first.
	ReplaceExisting bool
}

// SynonymStore manages per-index synonyms.
type SynonymStore interface {
	SaveSynonyms(ctx context.Context, index string, synonyms []synonym.Synonym, opts SaveSynonymsOptions) (Ack, error)
	SearchSynonyms(ctx context.Context, index, query string) ([]synonym.Synonym, error)
	DeleteSynonym(ctx context.Context, index, objectID string) (Ack, error)
}

// Ack is a backend acknowledgment. Payload is the native object, unmodified;
// TaskID is empty when the backend applied the change synchronously.
type Ack struct {
	Provider string `json:"provider"`
	TaskID   string `json:"taskId,omitempty"`
	Payload  any    `json:"payload,omitempty"`
}
