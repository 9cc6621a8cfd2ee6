// Package typesense adapts Typesense to the provider contract. Collections
// get a typed schema from the index config; synonyms use Typesense's native
// rich model (id, optional root, word list).
package typesense

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	ts "github.com/typesense/typesense-go/v3/typesense"
	"github.com/typesense/typesense-go/v3/typesense/api"

	"github.com/kailas-cloud/searchbridge/internal/domain/document"
	"github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/filter"
	"github.com/kailas-cloud/searchbridge/internal/provider"
)

// Compile-time check: Provider implements provider.Provider.
var _ provider.Provider = (*Provider)(nil)

const (
	defaultTimeout = 10 * time.Second
	healthTimeout  = 5 * time.Second
)

// Config holds Typesense connection settings.
type Config struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// Provider is the Typesense adapter.
type Provider struct {
	cfg Config

	mu      sync.RWMutex
	client  *ts.Client
	indexes map[string]*indexInfo // per-collection search defaults
}

// indexInfo carries what a search needs but Typesense keeps per request:
// the query_by fields and the typo policy.
type indexInfo struct {
	queryBy []string
	typo    *index.TypoTolerance
}

// New returns an adapter; the client is created by Init.
func New(cfg Config) *Provider {
	return &Provider{cfg: cfg, indexes: make(map[string]*indexInfo)}
}

// Name returns the backend tag.
func (p *Provider) Name() string { return provider.Typesense }

// FilterGrammar returns the Typesense filter_by grammar.
func (p *Provider) FilterGrammar() filter.Grammar { return filter.Typesense }

// Init creates the client and checks /health. Repeated calls reuse the client.
func (p *Provider) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return nil
	}
	if p.cfg.URL == "" {
		return p.fail(provider.OpInit, errors.New("url is required"))
	}
	timeout := p.cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := ts.NewClient(
		ts.WithServer(p.cfg.URL),
		ts.WithAPIKey(p.cfg.APIKey),
		ts.WithConnectionTimeout(timeout),
	)
	if err := health(ctx, client); err != nil {
		return p.fail(provider.OpInit, err)
	}
	p.client = client
	return nil
}

func health(ctx context.Context, client *ts.Client) error {
	ok, err := client.Health(ctx, healthTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("server reported unhealthy")
	}
	return nil
}

// Ping checks /health.
func (p *Provider) Ping(ctx context.Context) error {
	c, err := p.get()
	if err != nil {
		return err
	}
	if err := health(ctx, c); err != nil {
		return p.fail(provider.OpPing, err)
	}
	return nil
}

// Close drops the client; the SDK holds no long-lived resources.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client = nil
	p.indexes = make(map[string]*indexInfo)
	return nil
}

func (p *Provider) get() (*ts.Client, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.client == nil {
		return nil, provider.ErrNotInitialized
	}
	return p.client, nil
}

func (p *Provider) fail(op string, err error) error {
	return provider.Backend(provider.Typesense, op, err)
}

func isNotFound(err error) bool {
	var httpErr *ts.HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound
}

// convert fills an SDK type from a value with the same wire names.
func convert(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// --- documents ---

// AddDocuments upserts docs through the import endpoint. Typesense keys
// documents by a string "id", so a custom primary key is copied into it.
func (p *Provider) AddDocuments(
	ctx context.Context, idx string, docs []document.Document, opts provider.DocumentOptions,
) (provider.Ack, error) {
	c, err := p.get()
	if err != nil {
		return provider.Ack{}, err
	}
	ids, err := document.IDs(docs, opts.PrimaryKey)
	if err != nil {
		return provider.Ack{}, err
	}
	batch := make([]interface{}, len(docs))
	for i, doc := range docs {
		out := make(document.Document, len(doc)+1)
		for k, v := range doc {
			out[k] = v
		}
		out["id"] = ids[i]
		batch[i] = out
	}

	var params api.ImportDocumentsParams
	if err := convert(map[string]any{"action": "upsert"}, &params); err != nil {
		return provider.Ack{}, p.fail(provider.OpAddDocuments, err)
	}
	responses, err := c.Collection(idx).Documents().Import(ctx, batch, &params)
	if err != nil {
		return provider.Ack{}, p.fail(provider.OpAddDocuments, err)
	}

	var lines []struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := convert(responses, &lines); err != nil {
		return provider.Ack{}, p.fail(provider.OpAddDocuments, err)
	}
	for i, l := range lines {
		if !l.Success {
			return provider.Ack{}, p.fail(provider.OpAddDocuments,
				fmt.Errorf("document %d (%s): %s", i, ids[i], l.Error))
		}
	}
	return provider.Ack{Provider: provider.Typesense, Payload: responses}, nil
}

// DeleteDocuments deletes by an id filter in one request.
func (p *Provider) DeleteDocuments(ctx context.Context, idx string, ids []string) (provider.Ack, error) {
	c, err := p.get()
	if err != nil {
		return provider.Ack{}, err
	}
	if len(ids) == 0 {
		return provider.Ack{Provider: provider.Typesense, Payload: map[string]any{"num_deleted": 0}}, nil
	}
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = "`" + strings.ReplaceAll(id, "`", "") + "`"
	}
	var params api.DeleteDocumentsParams
	if err := convert(map[string]any{"filter_by": "id:[" + strings.Join(quoted, ",") + "]"}, &params); err != nil {
		return provider.Ack{}, p.fail(provider.OpDeleteDocuments, err)
	}
	deleted, err := c.Collection(idx).Documents().Delete(ctx, &params)
	if err != nil {
		return provider.Ack{}, p.fail(provider.OpDeleteDocuments, err)
	}
	return provider.Ack{Provider: provider.Typesense, Payload: map[string]any{"num_deleted": deleted}}, nil
}
