// Package bleveidx is an embedded provider backed by bleve indexes, kept in
// memory or under a data directory. It has no synonym support.
package bleveidx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/kailas-cloud/searchbridge/internal/domain"
	"github.com/kailas-cloud/searchbridge/internal/domain/document"
	"github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/filter"
	"github.com/kailas-cloud/searchbridge/internal/domain/synonym"
	"github.com/kailas-cloud/searchbridge/internal/provider"
)

// Compile-time check: Provider implements provider.Provider.
var _ provider.Provider = (*Provider)(nil)

// ErrIndexNotFound is returned (wrapped in a BackendError) for unknown indexes.
var ErrIndexNotFound = errors.New("bleve: index not found")

// sourceField stores the original document JSON; it is never indexed.
const sourceField = "_source"

// reindexPageSize bounds each read while rebuilding an index.
const reindexPageSize = 500

// Config selects the storage. An empty Dir keeps every index in memory.
type Config struct {
	Dir string `yaml:"dir"`
}

type openIndex struct {
	idx bleve.Index
	cfg index.Config
}

// Provider is the bleve adapter.
type Provider struct {
	cfg Config

	mu      sync.RWMutex
	indexes map[string]*openIndex
	ready   bool
}

// New returns an adapter; Init prepares the data directory.
func New(cfg Config) *Provider {
	return &Provider{cfg: cfg, indexes: make(map[string]*openIndex)}
}

// Name returns the backend tag.
func (p *Provider) Name() string { return provider.Bleve }

// FilterGrammar returns the canonical grammar; filters become bleve query
// objects, so native filters are canonical expressions too.
func (p *Provider) FilterGrammar() filter.Grammar { return filter.Canonical }

// Init creates the data directory when one is configured.
func (p *Provider) Init(context.Context) error {
	if p.cfg.Dir != "" {
		if err := os.MkdirAll(p.cfg.Dir, 0o755); err != nil {
			return p.fail(provider.OpInit, fmt.Errorf("create data directory: %w", err))
		}
	}
	p.mu.Lock()
	p.ready = true
	p.mu.Unlock()
	return nil
}

// Ping reports whether Init ran.
func (p *Provider) Ping(context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.ready {
		return provider.ErrNotInitialized
	}
	return nil
}

// Close closes every open index.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	for name, oi := range p.indexes {
		if err := oi.idx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	p.indexes = make(map[string]*openIndex)
	p.ready = false
	return errors.Join(errs...)
}

func (p *Provider) fail(op string, err error) error {
	return provider.Backend(provider.Bleve, op, err)
}

func (p *Provider) unsupported(op string) error {
	return provider.Unsupported(provider.Bleve, op, "bleve has no synonym support")
}

func (p *Provider) indexPath(name string) string {
	return filepath.Join(p.cfg.Dir, name+".bleve")
}

func (p *Provider) configPath(name string) string {
	return filepath.Join(p.cfg.Dir, name+".config.json")
}

// lookup returns an open index, opening it from disk when needed. With
// create set, a missing index is created with cfg's mapping. The name is
// validated before it reaches the filesystem.
func (p *Provider) lookup(name string, create bool) (*openIndex, error) {
	if err := index.ValidateName(name); err != nil {
		return nil, err
	}
	p.mu.RLock()
	oi, ok := p.indexes[name]
	ready := p.ready
	p.mu.RUnlock()
	if !ready {
		return nil, provider.ErrNotInitialized
	}
	if ok {
		return oi, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if oi, ok := p.indexes[name]; ok {
		return oi, nil
	}

	if p.cfg.Dir != "" {
		if _, err := os.Stat(p.indexPath(name)); err == nil {
			idx, err := bleve.Open(p.indexPath(name))
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", name, err)
			}
			oi := &openIndex{idx: idx, cfg: p.readConfig(name)}
			p.indexes[name] = oi
			return oi, nil
		}
	}
	if !create {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, name)
	}
	oi, err := p.create(name, index.Config{})
	if err != nil {
		return nil, err
	}
	p.indexes[name] = oi
	return oi, nil
}

// create builds a new bleve index; the caller holds p.mu.
func (p *Provider) create(name string, cfg index.Config) (*openIndex, error) {
	m := buildMapping(cfg)
	var (
		idx bleve.Index
		err error
	)
	if p.cfg.Dir == "" {
		idx, err = bleve.NewMemOnly(m)
	} else {
		idx, err = bleve.New(p.indexPath(name), m)
		if err == nil {
			err = p.writeConfig(name, cfg)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	return &openIndex{idx: idx, cfg: cfg}, nil
}

func (p *Provider) readConfig(name string) index.Config {
	var cfg index.Config
	data, err := os.ReadFile(p.configPath(name))
	if err != nil {
		return cfg
	}
	_ = json.Unmarshal(data, &cfg)
	return cfg
}

func (p *Provider) writeConfig(name string, cfg index.Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(p.configPath(name), data, 0o644)
}

// --- documents ---

// AddDocuments indexes docs in one batch, creating the index on first use.
func (p *Provider) AddDocuments(
	_ context.Context, name string, docs []document.Document, opts provider.DocumentOptions,
) (provider.Ack, error) {
	oi, err := p.lookup(name, true)
	if err != nil {
		return provider.Ack{}, p.wrap(provider.OpAddDocuments, err)
	}
	pk := opts.PrimaryKey
	if pk == "" {
		pk = oi.cfg.PrimaryKeyOrDefault()
	}
	ids, err := document.IDs(docs, pk)
	if err != nil {
		return provider.Ack{}, err
	}
	if err := indexBatch(oi.idx, oi.cfg, ids, docs); err != nil {
		return provider.Ack{}, p.fail(provider.OpAddDocuments, err)
	}
	return provider.Ack{Provider: provider.Bleve, Payload: map[string]any{"indexed": len(docs)}}, nil
}

func indexBatch(idx bleve.Index, cfg index.Config, ids []string, docs []document.Document) error {
	textual := textualAttributes(cfg)
	batch := idx.NewBatch()
	for i, doc := range docs {
		src, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
		fields := make(map[string]any, len(doc)+1)
		for k, v := range doc {
			if textual[k] {
				v = asText(v)
			}
			fields[k] = v
		}
		fields[sourceField] = string(src)
		if err := batch.Index(ids[i], fields); err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
	}
	return idx.Batch(batch)
}

// textualAttributes lists attributes mapped as text or keyword.
func textualAttributes(cfg index.Config) map[string]bool {
	out := make(map[string]bool)
	for _, attrs := range [][]string{cfg.SearchableAttributes, cfg.FilterableAttributes, cfg.SortableAttributes} {
		for _, a := range attrs {
			if !cfg.IsNumeric(a) {
				out[a] = true
			}
		}
	}
	return out
}

// asText renders scalars as strings; text mappings skip non-string values.
func asText(v any) any {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = asText(e)
		}
		return out
	default:
		return v
	}
}

// DeleteDocuments removes documents by id in one batch.
func (p *Provider) DeleteDocuments(_ context.Context, name string, ids []string) (provider.Ack, error) {
	oi, err := p.lookup(name, false)
	if err != nil {
		return provider.Ack{}, p.wrap(provider.OpDeleteDocuments, err)
	}
	batch := oi.idx.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := oi.idx.Batch(batch); err != nil {
		return provider.Ack{}, p.fail(provider.OpDeleteDocuments, err)
	}
	return provider.Ack{Provider: provider.Bleve, Payload: map[string]any{"deleted": len(ids)}}, nil
}

// wrap passes ErrNotInitialized and name validation errors through and wraps the rest.
func (p *Provider) wrap(op string, err error) error {
	if errors.Is(err, provider.ErrNotInitialized) || errors.Is(err, domain.ErrInvalidConfig) {
		return err
	}
	return p.fail(op, err)
}

// --- index ---

// ConfigureIndex applies cfg. Mappings are immutable in bleve, so an
// existing index is rebuilt from the stored documents.
func (p *Provider) ConfigureIndex(_ context.Context, name string, cfg index.Config) (provider.Ack, error) {
	if err := index.ValidateName(name); err != nil {
		return provider.Ack{}, err
	}
	if err := cfg.Validate(); err != nil {
		return provider.Ack{}, err
	}
	if err := cfg.RejectConflicts(); err != nil {
		return provider.Ack{}, err
	}
	if _, err := p.lookup(name, true); err != nil {
		return provider.Ack{}, p.wrap(provider.OpConfigureIndex, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	var (
		ids  []string
		docs []document.Document
	)
	if old, ok := p.indexes[name]; ok {
		var err error
		if ids, docs, err = readAll(old.idx); err != nil {
			return provider.Ack{}, p.fail(provider.OpConfigureIndex, err)
		}
		if err := old.idx.Close(); err != nil {
			return provider.Ack{}, p.fail(provider.OpConfigureIndex, err)
		}
		delete(p.indexes, name)
	}
	if p.cfg.Dir != "" {
		if err := os.RemoveAll(p.indexPath(name)); err != nil {
			return provider.Ack{}, p.fail(provider.OpConfigureIndex, err)
		}
	}

	oi, err := p.create(name, cfg)
	if err != nil {
		return provider.Ack{}, p.fail(provider.OpConfigureIndex, err)
	}
	p.indexes[name] = oi
	if len(docs) > 0 {
		if err := indexBatch(oi.idx, cfg, ids, docs); err != nil {
			return provider.Ack{}, p.fail(provider.OpConfigureIndex, err)
		}
	}

	payload := map[string]any{"reindexed": len(docs)}
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
	return provider.Ack{Provider: provider.Bleve, Payload: payload}, nil
}

// readAll pages through every stored document source.
func readAll(idx bleve.Index) ([]string, []document.Document, error) {
	var (
		ids  []string
		docs []document.Document
	)
	for from := 0; ; from += reindexPageSize {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), reindexPageSize, from, false)
		req.Fields = []string{sourceField}
		req.SortBy([]string{"_id"})
		res, err := idx.Search(req)
		if err != nil {
			return nil, nil, err
		}
		for _, hit := range res.Hits {
			src, ok := hit.Fields[sourceField].(string)
			if !ok {
				continue
			}
			var doc document.Document
			if err := json.Unmarshal([]byte(src), &doc); err != nil {
				return nil, nil, fmt.Errorf("decode %s: %w", hit.ID, err)
			}
			ids = append(ids, hit.ID)
			docs = append(docs, doc)
		}
		if len(res.Hits) < reindexPageSize {
			return ids, docs, nil
		}
	}
}

// DeleteIndex closes the index and removes its files.
func (p *Provider) DeleteIndex(_ context.Context, name string) (provider.Ack, error) {
	if _, err := p.lookup(name, false); err != nil {
		return provider.Ack{}, p.wrap(provider.OpDeleteIndex, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if oi, ok := p.indexes[name]; ok {
		if err := oi.idx.Close(); err != nil {
			return provider.Ack{}, p.fail(provider.OpDeleteIndex, err)
		}
		delete(p.indexes, name)
	}
	if p.cfg.Dir != "" {
		if err := os.RemoveAll(p.indexPath(name)); err != nil {
			return provider.Ack{}, p.fail(provider.OpDeleteIndex, err)
		}
		_ = os.Remove(p.configPath(name))
	}
	return provider.Ack{Provider: provider.Bleve}, nil
}

// --- synonyms ---

// SaveSynonyms is unsupported.
func (p *Provider) SaveSynonyms(
	context.Context, string, []synonym.Synonym, provider.SaveSynonymsOptions,
) (provider.Ack, error) {
	return provider.Ack{}, p.unsupported(provider.OpSaveSynonyms)
}

// SearchSynonyms is unsupported.
func (p *Provider) SearchSynonyms(context.Context, string, string) ([]synonym.Synonym, error) {
	return nil, p.unsupported(provider.OpSearchSynonyms)
}

// DeleteSynonym is unsupported.
func (p *Provider) DeleteSynonym(context.Context, string, string) (provider.Ack, error) {
	return provider.Ack{}, p.unsupported(provider.OpDeleteSynonym)
}
