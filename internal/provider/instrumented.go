package provider

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbridge/internal/domain/document"
	"github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/filter"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/request"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/result"
	"github.com/kailas-cloud/searchbridge/internal/domain/synonym"
	"github.com/kailas-cloud/searchbridge/internal/metrics"
)

// Compile-time check: Instrumented implements Provider.
var _ Provider = (*Instrumented)(nil)

// Instrumented wraps a Provider with metrics and logging. It never changes
// arguments, results or errors.
type Instrumented struct {
	inner   Provider
	metrics *metrics.ProviderMetrics
	logger  *zap.Logger
}

// NewInstrumented wraps p. A nil metrics disables metrics; a nil logger logs nothing.
func NewInstrumented(p Provider, m *metrics.ProviderMetrics, logger *zap.Logger) *Instrumented {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Instrumented{inner: p, metrics: m, logger: logger}
}

// Unwrap returns the decorated provider.
func (p *Instrumented) Unwrap() Provider { return p.inner }

func (p *Instrumented) observe(op, idx string, start time.Time, err error, fields ...zap.Field) {
	dur := time.Since(start)
	status := metrics.StatusOK
	switch {
	case IsUnsupported(err):
		status = metrics.StatusUnsupported
	case err != nil:
		status = metrics.StatusError
	}
	p.metrics.Observe(p.inner.Name(), op, status, dur)

	fields = append(fields,
		zap.String("provider", p.inner.Name()),
		zap.String("op", op),
		zap.Duration("duration", dur),
	)
	if idx != "" {
		fields = append(fields, zap.String("index", idx))
	}
	switch status {
	case metrics.StatusError:
		p.logger.Error("Provider operation failed", append(fields, zap.Error(err))...)
	case metrics.StatusUnsupported:
		p.logger.Warn("Provider operation unsupported", append(fields, zap.Error(err))...)
	default:
		p.logger.Debug("Provider operation completed", fields...)
	}
}

// Name returns the inner provider tag.
func (p *Instrumented) Name() string { return p.inner.Name() }

// FilterGrammar returns the inner provider grammar.
func (p *Instrumented) FilterGrammar() filter.Grammar { return p.inner.FilterGrammar() }

// Init delegates and records the outcome.
func (p *Instrumented) Init(ctx context.Context) error {
	start := time.Now()
	err := p.inner.Init(ctx)
	p.observe(OpInit, "", start, err)
	return err
}

// Ping delegates and records the outcome.
func (p *Instrumented) Ping(ctx context.Context) error {
	start := time.Now()
	err := p.inner.Ping(ctx)
	p.observe(OpPing, "", start, err)
	return err
}

// Search delegates and records the outcome and hit count.
func (p *Instrumented) Search(
	ctx context.Context, idx string, params request.Params,
) (*result.Result[json.RawMessage], error) {
	start := time.Now()
	res, err := p.inner.Search(ctx, idx, params)
	if err != nil {
		p.observe(OpSearch, idx, start, err)
		return nil, err
	}
	p.metrics.ObserveHits(p.inner.Name(), res.NbHits)
	p.observe(OpSearch, idx, start, nil,
		zap.Int("nb_hits", res.NbHits),
		zap.Int("page", res.Page),
	)
	return res, nil
}

// AddDocuments delegates and records the outcome.
func (p *Instrumented) AddDocuments(
	ctx context.Context, idx string, docs []document.Document, opts DocumentOptions,
) (Ack, error) {
	start := time.Now()
	ack, err := p.inner.AddDocuments(ctx, idx, docs, opts)
	p.observe(OpAddDocuments, idx, start, err, zap.Int("documents", len(docs)))
	return ack, err
}

// DeleteDocuments delegates and records the outcome.
func (p *Instrumented) DeleteDocuments(ctx context.Context, idx string, ids []string) (Ack, error) {
	start := time.Now()
	ack, err := p.inner.DeleteDocuments(ctx, idx, ids)
	p.observe(OpDeleteDocuments, idx, start, err, zap.Int("documents", len(ids)))
	return ack, err
}

// ConfigureIndex delegates and records the outcome.
func (p *Instrumented) ConfigureIndex(ctx context.Context, idx string, cfg index.Config) (Ack, error) {
	start := time.Now()
	ack, err := p.inner.ConfigureIndex(ctx, idx, cfg)
	p.observe(OpConfigureIndex, idx, start, err)
	return ack, err
}

// DeleteIndex delegates and records the outcome.
func (p *Instrumented) DeleteIndex(ctx context.Context, idx string) (Ack, error) {
	start := time.Now()
	ack, err := p.inner.DeleteIndex(ctx, idx)
	p.observe(OpDeleteIndex, idx, start, err)
	return ack, err
}

// SaveSynonyms delegates and records the outcome.
func (p *Instrumented) SaveSynonyms(
	ctx context.Context, idx string, synonyms []synonym.Synonym, opts SaveSynonymsOptions,
) (Ack, error) {
	start := time.Now()
	ack, err := p.inner.SaveSynonyms(ctx, idx, synonyms, opts)
	p.observe(OpSaveSynonyms, idx, start, err,
		zap.Int("synonyms", len(synonyms)),
		zap.Bool("replace_existing", opts.ReplaceExisting),
	)
	return ack, err
}

// SearchSynonyms delegates and records the outcome.
func (p *Instrumented) SearchSynonyms(ctx context.Context, idx, query string) ([]synonym.Synonym, error) {
	start := time.Now()
	out, err := p.inner.SearchSynonyms(ctx, idx, query)
	p.observe(OpSearchSynonyms, idx, start, err, zap.Int("found", len(out)))
	return out, err
}

// DeleteSynonym delegates and records the outcome.
func (p *Instrumented) DeleteSynonym(ctx context.Context, idx, objectID string) (Ack, error) {
	start := time.Now()
	ack, err := p.inner.DeleteSynonym(ctx, idx, objectID)
	p.observe(OpDeleteSynonym, idx, start, err, zap.String("object_id", objectID))
	return ack, err
}

// Close releases the inner provider.
func (p *Instrumented) Close() error {
	return p.inner.Close()
}
