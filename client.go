package searchbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbridge/internal/domain/search/filter"
	logpkg "github.com/kailas-cloud/searchbridge/internal/logger"
	"github.com/kailas-cloud/searchbridge/internal/metrics"
	"github.com/kailas-cloud/searchbridge/internal/provider"
	"github.com/kailas-cloud/searchbridge/internal/provider/bleveidx"
	"github.com/kailas-cloud/searchbridge/internal/provider/meili"
	"github.com/kailas-cloud/searchbridge/internal/provider/redis"
	"github.com/kailas-cloud/searchbridge/internal/provider/typesense"
)

// ProviderConfig selects the backend and carries its connection settings.
// Only the block matching Type is read.
type ProviderConfig struct {
	Type        string             `yaml:"type"`
	Meilisearch *MeilisearchConfig `yaml:"meilisearch,omitempty"`
	Typesense   *TypesenseConfig   `yaml:"typesense,omitempty"`
	Redis       *RedisConfig       `yaml:"redis,omitempty"`
	Bleve       *BleveConfig       `yaml:"bleve,omitempty"`
}

// Client is the searchbridge entry point: one API over one backend chosen at
// construction. Every operation except ProviderName, BuildFilter and Close
// requires a successful Init.
type Client struct {
	p      provider.Provider
	logger *zap.Logger

	initMu sync.Mutex
	ready  atomic.Bool
}

// New builds the adapter selected by cfg.Type. It does not connect; call Init.
func New(cfg ProviderConfig, opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}

	p, err := newAdapter(cfg, cc.adapter)
	if err != nil {
		return nil, err
	}

	logger := cc.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logpkg.Provider(logger, cfg.Type)

	if cc.metricsReg != nil || cc.logger != nil {
		var m *metrics.ProviderMetrics
		if cc.metricsReg != nil {
			m, err = metrics.NewProviderMetrics(cc.metricsReg)
			if err != nil {
				return nil, fmt.Errorf("searchbridge: %w", err)
			}
		}
		p = provider.NewInstrumented(p, m, cc.logger)
	}

	return &Client{p: p, logger: logger}, nil
}

func newAdapter(cfg ProviderConfig, override provider.Provider) (provider.Provider, error) {
	missing := func() error {
		return &provider.InvalidProviderError{Type: cfg.Type, Reason: "missing " + cfg.Type + " config block"}
	}
	switch cfg.Type {
	case provider.Meilisearch, provider.Typesense, provider.Redis, provider.Bleve:
	default:
		return nil, &provider.InvalidProviderError{Type: cfg.Type, Reason: "unknown provider type"}
	}
	if override != nil {
		return override, nil
	}

	switch cfg.Type {
	case provider.Meilisearch:
		if cfg.Meilisearch == nil {
			return nil, missing()
		}
		return meili.New(*cfg.Meilisearch), nil
	case provider.Typesense:
		if cfg.Typesense == nil {
			return nil, missing()
		}
		return typesense.New(*cfg.Typesense), nil
	case provider.Redis:
		if cfg.Redis == nil {
			return nil, missing()
		}
		return redis.New(*cfg.Redis), nil
	default:
		if cfg.Bleve == nil {
			return nil, missing()
		}
		return bleveidx.New(*cfg.Bleve), nil
	}
}

// Init connects the backend. It is idempotent and safe for concurrent use;
// after a failure it can be retried. Failures match ErrInitFailed.
func (c *Client) Init(ctx context.Context) error {
	if c.ready.Load() {
		return nil
	}
	c.initMu.Lock()
	defer c.initMu.Unlock()
	if c.ready.Load() {
		return nil
	}

	if err := c.p.Init(ctx); err != nil {
		c.logger.Warn("Search provider init failed", zap.Error(err))
		return &provider.InitError{Provider: c.p.Name(), Err: err}
	}
	c.ready.Store(true)
	c.logger.Info("Search provider initialized")
	return nil
}

// Ready reports whether Init has succeeded.
func (c *Client) Ready() bool { return c.ready.Load() }

func (c *Client) gate() error {
	if !c.ready.Load() {
		return provider.ErrNotInitialized
	}
	return nil
}

// Ping checks backend connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.gate(); err != nil {
		return err
	}
	return c.p.Ping(ctx)
}

// ProviderName returns the backend tag.
func (c *Client) ProviderName() string { return c.p.Name() }

// FilterGrammar returns the filter language of the active backend.
func (c *Client) FilterGrammar() FilterGrammar { return c.p.FilterGrammar() }

// BuildFilter compiles a facet selection (attribute -> selected values) and
// an optional raw filter in the active backend's grammar. Values of one
// attribute are OR-ed, attributes are AND-ed in name order; raw is appended
// last. It returns "" when nothing is selected and raw is blank.
func (c *Client) BuildFilter(selection map[string][]string, raw string) string {
	return c.BuildOrderedFilter(filter.SelectionFromMap(selection), raw)
}

// BuildOrderedFilter is BuildFilter for a selection whose group order is
// kept in the output. Repeated attributes merge into their first group.
func (c *Client) BuildOrderedFilter(selection FacetSelection, raw string) string {
	return filter.Build(selection, raw, c.p.FilterGrammar())
}

// AddDocuments adds or replaces documents.
func (c *Client) AddDocuments(ctx context.Context, index string, docs []Document, opts DocumentOptions) (Ack, error) {
	if err := c.gate(); err != nil {
		return Ack{}, err
	}
	return c.p.AddDocuments(ctx, index, docs, opts)
}

// DeleteDocuments removes documents by primary key.
func (c *Client) DeleteDocuments(ctx context.Context, index string, ids []string) (Ack, error) {
	if err := c.gate(); err != nil {
		return Ack{}, err
	}
	return c.p.DeleteDocuments(ctx, index, ids)
}

// ConfigureIndex applies cfg, creating the index when the backend needs it.
func (c *Client) ConfigureIndex(ctx context.Context, index string, cfg IndexConfig) (Ack, error) {
	if err := c.gate(); err != nil {
		return Ack{}, err
	}
	return c.p.ConfigureIndex(ctx, index, cfg)
}

// DeleteIndex drops the index and its documents.
func (c *Client) DeleteIndex(ctx context.Context, index string) (Ack, error) {
	if err := c.gate(); err != nil {
		return Ack{}, err
	}
	return c.p.DeleteIndex(ctx, index)
}

// SaveSynonyms stores synonym records. How records map to the backend, and
// which types it accepts, differs per provider.
func (c *Client) SaveSynonyms(
	ctx context.Context, index string, synonyms []Synonym, opts SaveSynonymsOptions,
) (Ack, error) {
	if err := c.gate(); err != nil {
		return Ack{}, err
	}
	return c.p.SaveSynonyms(ctx, index, synonyms, opts)
}

// SearchSynonyms lists synonyms whose words contain query (case-insensitive);
// an empty query lists all.
func (c *Client) SearchSynonyms(ctx context.Context, index, query string) ([]Synonym, error) {
	if err := c.gate(); err != nil {
		return nil, err
	}
	return c.p.SearchSynonyms(ctx, index, query)
}

// DeleteSynonym deletes one record; AllSynonyms clears the index's synonyms
// where the backend allows it.
func (c *Client) DeleteSynonym(ctx context.Context, index, objectID string) (Ack, error) {
	if err := c.gate(); err != nil {
		return Ack{}, err
	}
	if objectID == "" {
		return Ack{}, fmt.Errorf("%w: empty object id", ErrInvalidSynonym)
	}
	return c.p.DeleteSynonym(ctx, index, objectID)
}

// Close releases the backend connection. The client needs Init again after it.
func (c *Client) Close() error {
	c.initMu.Lock()
	defer c.initMu.Unlock()
	c.ready.Store(false)
	return c.p.Close()
}

// decodeDocument is the hit decoder of Search.
func decodeDocument(raw json.RawMessage) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode hit: %w", err)
	}
	return doc, nil
}
