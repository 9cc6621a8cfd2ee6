package provider

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/searchbridge/internal/domain/document"
	"github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/filter"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/request"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/result"
	"github.com/kailas-cloud/searchbridge/internal/domain/synonym"
	"github.com/kailas-cloud/searchbridge/internal/metrics"
)

type stubProvider struct {
	searchRes *result.Result[json.RawMessage]
	err       error
	calls     []string
}

func (s *stubProvider) Name() string                  { return "stub" }
func (s *stubProvider) FilterGrammar() filter.Grammar { return filter.Canonical }
func (s *stubProvider) Close() error                  { s.calls = append(s.calls, "close"); return nil }

func (s *stubProvider) Init(context.Context) error {
	s.calls = append(s.calls, OpInit)
	return s.err
}

func (s *stubProvider) Ping(context.Context) error {
	s.calls = append(s.calls, OpPing)
	return s.err
}

func (s *stubProvider) Search(context.Context, string, request.Params) (*result.Result[json.RawMessage], error) {
	s.calls = append(s.calls, OpSearch)
	return s.searchRes, s.err
}

func (s *stubProvider) AddDocuments(context.Context, string, []document.Document, DocumentOptions) (Ack, error) {
	s.calls = append(s.calls, OpAddDocuments)
	return Ack{Provider: "stub", TaskID: "7"}, s.err
}

func (s *stubProvider) DeleteDocuments(context.Context, string, []string) (Ack, error) {
	s.calls = append(s.calls, OpDeleteDocuments)
	return Ack{Provider: "stub"}, s.err
}

func (s *stubProvider) ConfigureIndex(context.Context, string, index.Config) (Ack, error) {
	s.calls = append(s.calls, OpConfigureIndex)
	return Ack{Provider: "stub"}, s.err
}

func (s *stubProvider) DeleteIndex(context.Context, string) (Ack, error) {
	s.calls = append(s.calls, OpDeleteIndex)
	return Ack{Provider: "stub"}, s.err
}

func (s *stubProvider) SaveSynonyms(context.Context, string, []synonym.Synonym, SaveSynonymsOptions) (Ack, error) {
	s.calls = append(s.calls, OpSaveSynonyms)
	return Ack{Provider: "stub"}, s.err
}

func (s *stubProvider) SearchSynonyms(context.Context, string, string) ([]synonym.Synonym, error) {
	s.calls = append(s.calls, OpSearchSynonyms)
	return nil, s.err
}

func (s *stubProvider) DeleteSynonym(context.Context, string, string) (Ack, error) {
	s.calls = append(s.calls, OpDeleteSynonym)
	return Ack{Provider: "stub"}, s.err
}

func newInstrumented(t *testing.T, inner Provider) (*Instrumented, *prometheus.Registry, *observer.ObservedLogs) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := metrics.NewProviderMetrics(reg)
	if err != nil {
		t.Fatalf("NewProviderMetrics: %v", err)
	}
	core, logs := observer.New(zap.DebugLevel)
	return NewInstrumented(inner, m, zap.New(core)), reg, logs
}

func TestInstrumented_SearchPassesThrough(t *testing.T) {
	want := result.New([]json.RawMessage{json.RawMessage(`{"id":"1"}`)}, 1, true, 0, 20, 3, nil)
	inner := &stubProvider{searchRes: want}
	p, reg, logs := newInstrumented(t, inner)

	got, err := p.Search(context.Background(), "books", request.Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Error("result must be returned unchanged")
	}

	n, err := testutil.GatherAndCount(reg, "searchbridge_provider_operations_total")
	if err != nil || n != 1 {
		t.Errorf("operations series = %d, %v", n, err)
	}
	entries := logs.FilterMessage("Provider operation completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one debug log, got %d", len(entries))
	}
	if entries[0].ContextMap()["index"] != "books" {
		t.Errorf("log fields = %v", entries[0].ContextMap())
	}
}

func TestInstrumented_ErrorsUnchanged(t *testing.T) {
	cause := &BackendError{Provider: "stub", Op: OpAddDocuments, Err: errors.New("boom")}
	inner := &stubProvider{err: cause}
	p, _, logs := newInstrumented(t, inner)

	ack, err := p.AddDocuments(context.Background(), "books", nil, DocumentOptions{})
	if err != cause {
		t.Fatalf("error must be returned unchanged, got %v", err)
	}
	if ack.TaskID != "7" {
		t.Errorf("ack must be returned unchanged, got %+v", ack)
	}
	if logs.FilterMessage("Provider operation failed").Len() != 1 {
		t.Error("expected an error log")
	}
}

func TestInstrumented_UnsupportedIsWarned(t *testing.T) {
	inner := &stubProvider{err: Unsupported("stub", OpDeleteSynonym, "")}
	p, reg, logs := newInstrumented(t, inner)

	if _, err := p.DeleteSynonym(context.Background(), "books", "x"); !IsUnsupported(err) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
	if logs.FilterMessage("Provider operation unsupported").Len() != 1 {
		t.Error("expected a warn log")
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() != "searchbridge_provider_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "status" && l.GetValue() == metrics.StatusUnsupported {
					found = true
				}
			}
		}
	}
	if !found {
		t.Error("expected status=unsupported series")
	}
}

func TestInstrumented_DelegatesEveryOperation(t *testing.T) {
	inner := &stubProvider{searchRes: result.New[json.RawMessage](nil, 0, true, 0, 20, 0, nil)}
	p := NewInstrumented(inner, nil, nil)
	ctx := context.Background()

	_ = p.Init(ctx)
	_ = p.Ping(ctx)
	_, _ = p.Search(ctx, "i", request.Params{})
	_, _ = p.AddDocuments(ctx, "i", nil, DocumentOptions{})
	_, _ = p.DeleteDocuments(ctx, "i", nil)
	_, _ = p.ConfigureIndex(ctx, "i", index.Config{})
	_, _ = p.DeleteIndex(ctx, "i")
	_, _ = p.SaveSynonyms(ctx, "i", nil, SaveSynonymsOptions{})
	_, _ = p.SearchSynonyms(ctx, "i", "")
	_, _ = p.DeleteSynonym(ctx, "i", "x")
	_ = p.Close()

	if len(inner.calls) != 11 {
		t.Errorf("calls = %v", inner.calls)
	}
	if p.Name() != "stub" || p.Unwrap() != Provider(inner) {
		t.Error("identity not delegated")
	}
}
