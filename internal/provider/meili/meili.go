// Package meili adapts Meilisearch to the provider contract. Synonyms use
// Meilisearch's flat word -> synonyms dictionary.
package meili

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/meilisearch/meilisearch-go"

	"github.com/kailas-cloud/searchbridge/internal/domain/document"
	"github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/filter"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/request"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/result"
	"github.com/kailas-cloud/searchbridge/internal/domain/synonym"
	"github.com/kailas-cloud/searchbridge/internal/provider"
)

// Compile-time check: Provider implements provider.Provider.
var _ provider.Provider = (*Provider)(nil)

const defaultTimeout = 10 * time.Second

// Config holds Meilisearch connection settings.
type Config struct {
	Host    string        `yaml:"host"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// Provider is the Meilisearch adapter.
type Provider struct {
	cfg Config

	mu     sync.RWMutex
	client meilisearch.ServiceManager
}

// New returns an adapter; the client is created by Init.
func New(cfg Config) *Provider {
	return &Provider{cfg: cfg}
}

// Name returns the backend tag.
func (p *Provider) Name() string { return provider.Meilisearch }

// FilterGrammar returns the Meilisearch filter grammar.
func (p *Provider) FilterGrammar() filter.Grammar { return filter.Meilisearch }

// Init creates the client and checks /health. Repeated calls reuse the client.
func (p *Provider) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return nil
	}
	if p.cfg.Host == "" {
		return p.fail(provider.OpInit, errors.New("host is required"))
	}
	timeout := p.cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := meilisearch.New(p.cfg.Host,
		meilisearch.WithAPIKey(p.cfg.APIKey),
		meilisearch.WithCustomClient(&http.Client{Timeout: timeout}),
	)
	if _, err := client.HealthWithContext(ctx); err != nil {
		client.Close()
		return p.fail(provider.OpInit, err)
	}
	p.client = client
	return nil
}

// Ping checks /health.
func (p *Provider) Ping(ctx context.Context) error {
	c, err := p.get()
	if err != nil {
		return err
	}
	if _, err := c.HealthWithContext(ctx); err != nil {
		return p.fail(provider.OpPing, err)
	}
	return nil
}

// Close releases idle connections.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
	return nil
}

func (p *Provider) get() (meilisearch.ServiceManager, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.client == nil {
		return nil, provider.ErrNotInitialized
	}
	return p.client, nil
}

func (p *Provider) fail(op string, err error) error {
	return provider.Backend(provider.Meilisearch, op, err)
}

// ack passes the task summary through as the payload.
func ack(task *meilisearch.TaskInfo) provider.Ack {
	if task == nil {
		return provider.Ack{Provider: provider.Meilisearch}
	}
	return provider.Ack{
		Provider: provider.Meilisearch,
		TaskID:   strconv.FormatInt(task.TaskUID, 10),
		Payload:  task,
	}
}

// --- search ---

// Search maps the page to offset/limit. Meilisearch reports an estimated
// total in that mode, so the result is marked non-exhaustive.
func (p *Provider) Search(
	ctx context.Context, idx string, params request.Params,
) (*result.Result[json.RawMessage], error) {
	c, err := p.get()
	if err != nil {
		return nil, err
	}
	sorts, err := params.SortDirectives()
	if err != nil {
		return nil, err
	}
	filterBy, err := provider.CompileFilter(params, filter.Meilisearch)
	if err != nil {
		return nil, err
	}

	req := &meilisearch.SearchRequest{
		Offset:                int64(params.Offset()),
		Limit:                 int64(params.HitsPerPage),
		Facets:                params.Facets,
		AttributesToRetrieve:  params.AttributesToRetrieve,
		AttributesToHighlight: params.AttributesToHighlight,
	}
	if filterBy != "" {
		req.Filter = filterBy
	}
	for _, s := range sorts {
		req.Sort = append(req.Sort, s.String())
	}

	res, err := c.Index(idx).SearchWithContext(ctx, params.Query, req)
	if err != nil {
		return nil, p.fail(provider.OpSearch, err)
	}

	hits := make([]json.RawMessage, 0, len(res.Hits))
	for i, h := range res.Hits {
		raw, err := json.Marshal(h)
		if err != nil {
			return nil, p.fail(provider.OpSearch, fmt.Errorf("hit %d: %w", i, err))
		}
		hits = append(hits, raw)
	}

	facets := result.NewFacets(params.Facets)
	if facets != nil {
		dist, err := facetDistribution(res.FacetDistribution)
		if err != nil {
			return nil, p.fail(provider.OpSearch, err)
		}
		for attr, values := range dist {
			for v, n := range values {
				facets.Add(attr, v, n)
			}
		}
	}

	return result.New(hits, int(res.EstimatedTotalHits), false, params.Page, params.HitsPerPage,
		res.ProcessingTimeMs, facets), nil
}

// facetDistribution decodes facetDistribution through its JSON form.
func facetDistribution(v any) (map[string]map[string]int, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("facet distribution: %w", err)
	}
	var out map[string]map[string]int
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("facet distribution: %w", err)
	}
	return out, nil
}

// --- documents ---

// AddDocuments enqueues an addition-or-update task.
func (p *Provider) AddDocuments(
	ctx context.Context, idx string, docs []document.Document, opts provider.DocumentOptions,
) (provider.Ack, error) {
	c, err := p.get()
	if err != nil {
		return provider.Ack{}, err
	}
	pk := opts.PrimaryKey
	if pk == "" {
		pk = document.DefaultPrimaryKey
	}
	if _, err := document.IDs(docs, pk); err != nil {
		return provider.Ack{}, err
	}
	task, err := c.Index(idx).AddDocumentsWithContext(ctx, docs, &meilisearch.DocumentOptions{PrimaryKey: &pk})
	if err != nil {
		return provider.Ack{}, p.fail(provider.OpAddDocuments, err)
	}
	return ack(task), nil
}

// DeleteDocuments enqueues a batch deletion.
func (p *Provider) DeleteDocuments(ctx context.Context, idx string, ids []string) (provider.Ack, error) {
	c, err := p.get()
	if err != nil {
		return provider.Ack{}, err
	}
	task, err := c.Index(idx).DeleteDocumentsWithContext(ctx, ids, nil)
	if err != nil {
		return provider.Ack{}, p.fail(provider.OpDeleteDocuments, err)
	}
	return ack(task), nil
}

// --- index ---

// ConfigureIndex sends one settings update. Meilisearch creates the index
// on first write, so no explicit creation is needed.
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
	task, err := c.Index(idx).UpdateSettingsWithContext(ctx, settingsFor(cfg))
	if err != nil {
		return provider.Ack{}, p.fail(provider.OpConfigureIndex, err)
	}
	return ack(task), nil
}

// settingsFor leaves unset roles nil so Meilisearch keeps its defaults.
func settingsFor(cfg index.Config) *meilisearch.Settings {
	s := &meilisearch.Settings{
		SearchableAttributes: cfg.SearchableAttributes,
		FilterableAttributes: cfg.FilterableAttributes,
		SortableAttributes:   cfg.SortableAttributes,
		RankingRules:         cfg.RankingRules,
	}
	if t := cfg.TypoTolerance; t != nil {
		s.TypoTolerance = &meilisearch.TypoTolerance{
			Enabled: t.Enabled,
			MinWordSizeForTypos: meilisearch.MinWordSizeForTypos{
				OneTypo:  int64(t.MinWordSizeForOneTypo),
				TwoTypos: int64(t.MinWordSizeForTwoTypos),
			},
			DisableOnWords:      t.DisableOnWords,
			DisableOnAttributes: t.DisableOnAttributes,
		}
	}
	return s
}

// DeleteIndex enqueues the index deletion.
func (p *Provider) DeleteIndex(ctx context.Context, idx string) (provider.Ack, error) {
	c, err := p.get()
	if err != nil {
		return provider.Ack{}, err
	}
	task, err := c.DeleteIndexWithContext(ctx, idx)
	if err != nil {
		return provider.Ack{}, p.fail(provider.OpDeleteIndex, err)
	}
	return ack(task), nil
}

// --- synonyms ---

// SaveSynonyms expands symmetric groups into reciprocal dictionary entries
// and merges them into the stored dictionary unless ReplaceExisting is set.
// Other synonym types are rejected before anything is written.
func (p *Provider) SaveSynonyms(
	ctx context.Context, idx string, synonyms []synonym.Synonym, opts provider.SaveSynonymsOptions,
) (provider.Ack, error) {
	c, err := p.get()
	if err != nil {
		return provider.Ack{}, err
	}
	dict, err := synonym.ToDictionary(synonyms)
	if err != nil {
		return provider.Ack{}, err
	}
	if !opts.ReplaceExisting {
		existing, err := c.Index(idx).GetSynonymsWithContext(ctx)
		if err != nil {
			return provider.Ack{}, p.fail(provider.OpSaveSynonyms, err)
		}
		if existing != nil {
			dict = synonym.MergeDictionary(synonym.Dictionary(*existing), dict)
		}
	}
	m := map[string][]string(dict)
	task, err := c.Index(idx).UpdateSynonymsWithContext(ctx, &m)
	if err != nil {
		return provider.Ack{}, p.fail(provider.OpSaveSynonyms, err)
	}
	return ack(task), nil
}

// SearchSynonyms reads the dictionary back as groups with positional ids.
func (p *Provider) SearchSynonyms(ctx context.Context, idx, query string) ([]synonym.Synonym, error) {
	c, err := p.get()
	if err != nil {
		return nil, err
	}
	dict, err := c.Index(idx).GetSynonymsWithContext(ctx)
	if err != nil {
		return nil, p.fail(provider.OpSearchSynonyms, err)
	}
	if dict == nil {
		return []synonym.Synonym{}, nil
	}
	return synonym.FromDictionary(synonym.Dictionary(*dict), query), nil
}

// DeleteSynonym only accepts the all-synonyms sentinel, which resets the
// dictionary. Positional ids do not identify a removable entry.
func (p *Provider) DeleteSynonym(ctx context.Context, idx, objectID string) (provider.Ack, error) {
	c, err := p.get()
	if err != nil {
		return provider.Ack{}, err
	}
	if objectID != synonym.AllSentinel {
		return provider.Ack{}, provider.Unsupported(provider.Meilisearch, provider.OpDeleteSynonym,
			"the synonym dictionary has no identifiers; use "+synonym.AllSentinel+" to reset it")
	}
	task, err := c.Index(idx).ResetSynonymsWithContext(ctx)
	if err != nil {
		return provider.Ack{}, p.fail(provider.OpDeleteSynonym, err)
	}
	return ack(task), nil
}
