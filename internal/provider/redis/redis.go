// Package redis adapts the Redis Query Engine (RediSearch over RedisJSON) to
// the provider contract. Documents live as JSON under "<index>:<id>" keys.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/searchbridge/internal/db"
	redisdb "github.com/kailas-cloud/searchbridge/internal/db/redis"
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

const defaultReadyTimeout = 5 * time.Second

// Config holds Redis connection settings.
type Config struct {
	Addrs        []string      `yaml:"addrs"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	ReadyTimeout time.Duration `yaml:"ready_timeout"`
}

// Provider is the Redis adapter.
type Provider struct {
	cfg  Config
	open func(Config) (db.Store, error)

	mu      sync.RWMutex
	store   db.Store
	numeric map[string]map[string]bool // index -> NUMERIC attributes, filled lazily from FT.INFO
}

// New returns an adapter; the connection is opened by Init.
func New(cfg Config) *Provider {
	return &Provider{
		cfg: cfg,
		open: func(c Config) (db.Store, error) {
			return redisdb.NewStore(redisdb.Config{
				Addrs:    c.Addrs,
				Username: c.Username,
				Password: c.Password,
				DB:       c.DB,
			})
		},
		numeric: make(map[string]map[string]bool),
	}
}

// NewWithStore returns an adapter bound to an already open store.
func NewWithStore(store db.Store) *Provider {
	p := New(Config{})
	p.open = func(Config) (db.Store, error) { return store, nil }
	return p
}

// Name returns the backend tag.
func (p *Provider) Name() string { return provider.Redis }

// FilterGrammar returns the RediSearch TAG grammar.
func (p *Provider) FilterGrammar() filter.Grammar { return filter.RediSearch }

// Init opens the client and waits until the server answers. Repeated calls
// reuse the open client.
func (p *Provider) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.store != nil {
		return nil
	}
	store, err := p.open(p.cfg)
	if err != nil {
		return p.fail(provider.OpInit, err)
	}
	timeout := p.cfg.ReadyTimeout
	if timeout <= 0 {
		timeout = defaultReadyTimeout
	}
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return p.fail(provider.OpInit, err)
	}
	p.store = store
	return nil
}

// Ping checks connectivity.
func (p *Provider) Ping(ctx context.Context) error {
	store, err := p.get()
	if err != nil {
		return err
	}
	return p.fail(provider.OpPing, store.Ping(ctx))
}

// Close releases the client. Init may open a new one afterwards.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.store != nil {
		p.store.Close()
		p.store = nil
	}
	clear(p.numeric)
	return nil
}

func (p *Provider) get() (db.Store, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.store == nil {
		return nil, provider.ErrNotInitialized
	}
	return p.store, nil
}

func (p *Provider) fail(op string, err error) error {
	return provider.Backend(provider.Redis, op, err)
}

func (p *Provider) unsupported(op, reason string) error {
	return provider.Unsupported(provider.Redis, op, reason)
}

func docKey(idx, id string) string {
	return idx + ":" + id
}

// --- search ---

// Search runs FT.SEARCH for the page and one FT.AGGREGATE per requested facet.
func (p *Provider) Search(
	ctx context.Context, idx string, params request.Params,
) (*result.Result[json.RawMessage], error) {
	store, err := p.get()
	if err != nil {
		return nil, err
	}
	start := time.Now()

	sorts, err := params.SortDirectives()
	if err != nil {
		return nil, err
	}
	if len(sorts) > 1 {
		return nil, p.unsupported(provider.OpSearch, "FT.SEARCH sorts by a single attribute")
	}

	query, err := p.buildQuery(ctx, store, idx, params)
	if err != nil {
		return nil, err
	}

	q := &db.Query{
		IndexName:    idx,
		Query:        query,
		Offset:       params.Offset(),
		Limit:        params.HitsPerPage,
		ReturnFields: []string{db.JSONRootField},
	}
	if len(sorts) == 1 {
		q.SortBy = sorts[0].Attribute
		q.SortDesc = sorts[0].Descending
	}

	res, err := store.Search(ctx, q)
	if err != nil {
		return nil, p.fail(provider.OpSearch, err)
	}

	hits := make([]json.RawMessage, 0, len(res.Entries))
	for _, e := range res.Entries {
		hit, err := toHit(e, params.AttributesToRetrieve)
		if err != nil {
			return nil, p.fail(provider.OpSearch, err)
		}
		hits = append(hits, hit)
	}

	facets := result.NewFacets(params.Facets)
	for _, attr := range params.Facets {
		counts, err := store.CountValues(ctx, idx, query, attr, params.MaxValuesPerFacet)
		if err != nil {
			return nil, p.fail(provider.OpSearch, fmt.Errorf("facet %s: %w", attr, err))
		}
		for _, c := range counts {
			facets.Add(attr, c.Value, c.Count)
		}
	}

	return result.New(hits, res.Total, true, params.Page, params.HitsPerPage,
		time.Since(start).Milliseconds(), facets), nil
}

// buildQuery joins the translated filters and the escaped free text. Every
// part is parenthesized when there is more than one, since a top-level "|"
// binds looser than the intersection.
func (p *Provider) buildQuery(ctx context.Context, store db.Store, idx string, params request.Params) (string, error) {
	expr, err := filter.Parse(params.Filters)
	if err != nil {
		return "", err
	}
	expr = filter.Conjoin(expr, filter.SelectionFromMap(params.FacetFilters).Expr())

	var parts []string
	if expr != nil {
		numeric, err := p.numericFields(ctx, store, idx)
		if err != nil {
			return "", err
		}
		parts = append(parts, filter.Render(expr, grammarFor(numeric)))
	}
	if native := strings.TrimSpace(params.NativeFilter); native != "" {
		parts = append(parts, native)
	}
	if text := strings.TrimSpace(params.Query); text != "" {
		parts = append(parts, redisdb.EscapeQuery(text))
	}

	switch len(parts) {
	case 0:
		return "*", nil
	case 1:
		return parts[0], nil
	}
	for i := range parts {
		parts[i] = "(" + parts[i] + ")"
	}
	return strings.Join(parts, " "), nil
}

// numericFields returns the NUMERIC attributes of idx. Indexes not configured
// by this process are read once from FT.INFO and cached until DeleteIndex or
// Close.
func (p *Provider) numericFields(ctx context.Context, store db.Store, idx string) (map[string]bool, error) {
	p.mu.RLock()
	numeric, ok := p.numeric[idx]
	p.mu.RUnlock()
	if ok {
		return numeric, nil
	}

	attrs, err := store.NumericFields(ctx, idx)
	if errors.Is(err, db.ErrIndexNotFound) {
		// Left to FT.SEARCH, which reports the missing index.
		return nil, nil
	}
	if err != nil {
		return nil, p.fail(provider.OpSearch, err)
	}
	numeric = make(map[string]bool, len(attrs))
	for _, a := range attrs {
		numeric[a] = true
	}
	p.mu.Lock()
	p.numeric[idx] = numeric
	p.mu.Unlock()
	return numeric, nil
}

// grammarFor renders the given NUMERIC attributes as exact ranges.
func grammarFor(numeric map[string]bool) filter.Grammar {
	if len(numeric) == 0 {
		return filter.RediSearch
	}
	g := filter.RediSearch
	tag := g.Clause
	g.Clause = func(attr, value string) string {
		if numeric[attr] && isNumber(value) {
			return "@" + attr + ":[" + value + " " + value + "]"
		}
		return tag(attr, value)
	}
	return g
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func toHit(e db.SearchEntry, attrs []string) (json.RawMessage, error) {
	raw, ok := e.Fields[db.JSONRootField]
	if !ok {
		return nil, fmt.Errorf("hit %s has no JSON body", e.Key)
	}
	if len(attrs) == 0 {
		return json.RawMessage(raw), nil
	}
	var doc document.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode hit %s: %w", e.Key, err)
	}
	out, err := json.Marshal(document.Project(doc, attrs))
	if err != nil {
		return nil, fmt.Errorf("encode hit %s: %w", e.Key, err)
	}
	return out, nil
}

// --- documents ---

// AddDocuments stores every document as JSON in one pipeline.
func (p *Provider) AddDocuments(
	ctx context.Context, idx string, docs []document.Document, opts provider.DocumentOptions,
) (provider.Ack, error) {
	store, err := p.get()
	if err != nil {
		return provider.Ack{}, err
	}
	pk := opts.PrimaryKey
	if pk == "" {
		pk = document.DefaultPrimaryKey
	}
	ids, err := document.IDs(docs, pk)
	if err != nil {
		return provider.Ack{}, err
	}

	items := make([]db.JSONSetItem, len(docs))
	for i, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			return provider.Ack{}, fmt.Errorf("document %d: %w", i, err)
		}
		items[i] = db.JSONSetItem{Key: docKey(idx, ids[i]), Path: db.JSONRootField, Data: data}
	}
	if err := store.JSONSetMulti(ctx, items); err != nil {
		return provider.Ack{}, p.fail(provider.OpAddDocuments, err)
	}
	return provider.Ack{
		Provider: provider.Redis,
		Payload:  map[string]any{"indexed": len(items)},
	}, nil
}

// DeleteDocuments removes the document keys.
func (p *Provider) DeleteDocuments(ctx context.Context, idx string, ids []string) (provider.Ack, error) {
	store, err := p.get()
	if err != nil {
		return provider.Ack{}, err
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(idx, id)
	}
	n, err := store.DelMulti(ctx, keys)
	if err != nil {
		return provider.Ack{}, p.fail(provider.OpDeleteDocuments, err)
	}
	return provider.Ack{
		Provider: provider.Redis,
		Payload:  map[string]any{"deleted": n},
	}, nil
}

// --- index ---

// ConfigureIndex (re)creates the FT index over "<index>:" JSON keys. An
// existing index is dropped without its documents and rebuilt, which
// re-indexes them. Ranking rules and typo tolerance have no schema
// counterpart and are reported back as ignored.
func (p *Provider) ConfigureIndex(ctx context.Context, idx string, cfg index.Config) (provider.Ack, error) {
	store, err := p.get()
	if err != nil {
		return provider.Ack{}, err
	}
	if err := index.ValidateName(idx); err != nil {
		return provider.Ack{}, err
	}
	if err := cfg.Validate(); err != nil {
		return provider.Ack{}, err
	}
	if err := cfg.RejectConflicts(); err != nil {
		return provider.Ack{}, err
	}

	def, err := schemaFor(idx, cfg)
	if err != nil {
		return provider.Ack{}, fmt.Errorf("index %s: %w", idx, err)
	}

	exists, err := store.IndexExists(ctx, idx)
	if err != nil {
		return provider.Ack{}, p.fail(provider.OpConfigureIndex, err)
	}
	if exists {
		if err := store.DropIndex(ctx, idx, false); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return provider.Ack{}, p.fail(provider.OpConfigureIndex, err)
		}
	}
	if err := store.CreateIndex(ctx, def); err != nil {
		return provider.Ack{}, p.fail(provider.OpConfigureIndex, err)
	}

	numeric := make(map[string]bool, len(cfg.NumericAttributes))
	for _, a := range cfg.NumericAttributes {
		numeric[a] = true
	}
	p.mu.Lock()
	p.numeric[idx] = numeric
	p.mu.Unlock()

	payload := map[string]any{"schema": def.String()}
	var ignored []string
	if len(cfg.RankingRules) > 0 {
		ignored = append(ignored, "rankingRules")
	}
	if cfg.TypoTolerance != nil {
		ignored = append(ignored, "typoTolerance")
	}
	if len(ignored) > 0 {
		payload["ignored"] = ignored
	}
	return provider.Ack{Provider: provider.Redis, Payload: payload}, nil
}

// schemaFor maps attribute roles onto FT fields: searchable -> TEXT,
// filterable and sortable -> TAG (NUMERIC when declared numeric). Earlier
// searchable attributes rank higher, so with n of them the i-th gets WEIGHT n-i.
func schemaFor(idx string, cfg index.Config) (*db.Schema, error) {
	b := db.NewSchema(idx, idx+":")

	n := len(cfg.SearchableAttributes)
	for i, a := range cfg.SearchableAttributes {
		b.Text(a, float64(n-i))
	}
	for _, a := range cfg.FilterableAttributes {
		addValueField(b, cfg, a)
	}
	for _, a := range cfg.SortableAttributes {
		addValueField(b, cfg, a)
	}
	if b.Len() == 0 {
		// FT.CREATE needs at least one field.
		addValueField(b, cfg, cfg.PrimaryKeyOrDefault())
	}
	return b.Sortable(cfg.SortableAttributes...).Build()
}

func addValueField(b *db.SchemaBuilder, cfg index.Config, attr string) {
	if cfg.IsNumeric(attr) {
		b.Numeric(attr)
		return
	}
	b.Tag(attr)
}

// DeleteIndex drops the FT index together with its documents.
func (p *Provider) DeleteIndex(ctx context.Context, idx string) (provider.Ack, error) {
	store, err := p.get()
	if err != nil {
		return provider.Ack{}, err
	}
	if err := store.DropIndex(ctx, idx, true); err != nil {
		return provider.Ack{}, p.fail(provider.OpDeleteIndex, err)
	}
	p.mu.Lock()
	delete(p.numeric, idx)
	p.mu.Unlock()
	return provider.Ack{Provider: provider.Redis}, nil
}

// --- synonyms ---

// SaveSynonyms writes one synonym group per symmetric record. Groups can be
// extended but never cleared, so ReplaceExisting is unsupported.
func (p *Provider) SaveSynonyms(
	ctx context.Context, idx string, synonyms []synonym.Synonym, opts provider.SaveSynonymsOptions,
) (provider.Ack, error) {
	store, err := p.get()
	if err != nil {
		return provider.Ack{}, err
	}
	if opts.ReplaceExisting {
		return provider.Ack{}, p.unsupported(provider.OpSaveSynonyms, "synonym groups cannot be cleared")
	}

	groups := make([]synonym.Synonym, 0, len(synonyms))
	for _, s := range synonyms {
		s = s.Normalize()
		if err := s.Validate(); err != nil {
			return provider.Ack{}, err
		}
		if s.Type != synonym.Symmetric {
			return provider.Ack{}, p.unsupported(provider.OpSaveSynonyms,
				fmt.Sprintf("synonym type %q has no synonym-group equivalent", s.Type))
		}
		if s.ObjectID == "" {
			s.ObjectID = uuid.NewString()
		}
		groups = append(groups, s)
	}

	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		if err := store.SynUpdate(ctx, idx, g.ObjectID, synonym.Dedupe(g.Synonyms)); err != nil {
			return provider.Ack{}, p.fail(provider.OpSaveSynonyms, err)
		}
		ids = append(ids, g.ObjectID)
	}
	return provider.Ack{Provider: provider.Redis, Payload: map[string]any{"objectIDs": ids}}, nil
}

// SearchSynonyms regroups FT.SYNDUMP by group id.
func (p *Provider) SearchSynonyms(ctx context.Context, idx, query string) ([]synonym.Synonym, error) {
	store, err := p.get()
	if err != nil {
		return nil, err
	}
	dump, err := store.SynDump(ctx, idx)
	if err != nil {
		return nil, p.fail(provider.OpSearchSynonyms, err)
	}
	return synonym.Filter(synonym.FromTermGroups(dump), query), nil
}

// DeleteSynonym is unsupported: synonym groups have no delete command.
func (p *Provider) DeleteSynonym(context.Context, string, string) (provider.Ack, error) {
	return provider.Ack{}, p.unsupported(provider.OpDeleteSynonym, "synonym groups cannot be deleted")
}
