package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbridge"
	healthuc "github.com/kailas-cloud/searchbridge/internal/usecase/health"
)

func newRouter(t *testing.T, client *searchbridge.Client) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	NewServer(client, healthuc.New(client), nil, zap.NewNop()).Routes(r)
	return r
}

func newBleveRouter(t *testing.T) http.Handler {
	t.Helper()
	c, err := searchbridge.New(searchbridge.ProviderConfig{
		Type:  searchbridge.ProviderBleve,
		Bleve: &searchbridge.BleveConfig{},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return newRouter(t, c)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

const booksSettings = `{
	"primaryKey": "isbn",
	"searchableAttributes": ["title"],
	"filterableAttributes": ["author", "category"],
	"sortableAttributes": ["year"],
	"numericAttributes": ["year"]
}`

const booksDocuments = `{"documents": [
	{"isbn": "1", "title": "Dune", "author": "Frank Herbert", "category": "scifi", "year": 1965},
	{"isbn": "2", "title": "Dune Messiah", "author": "Frank Herbert", "category": "scifi", "year": 1969},
	{"isbn": "3", "title": "Emma", "author": "Jane Austen", "category": "classic", "year": 1815}
], "primaryKey": "isbn"}`

func seedBooks(t *testing.T, h http.Handler) {
	t.Helper()
	if rr := do(t, h, http.MethodPut, "/indexes/books/settings", booksSettings); rr.Code != http.StatusAccepted {
		t.Fatalf("settings: %d %s", rr.Code, rr.Body.String())
	}
	if rr := do(t, h, http.MethodPost, "/indexes/books/documents", booksDocuments); rr.Code != http.StatusAccepted {
		t.Fatalf("documents: %d %s", rr.Code, rr.Body.String())
	}
}

func TestServer_SearchEndToEnd(t *testing.T) {
	h := newBleveRouter(t)
	seedBooks(t, h)

	rr := do(t, h, http.MethodPost, "/indexes/books/search", `{
		"facetFilters": {"author": ["Frank Herbert"]},
		"facets": ["category"],
		"sort": ["year:desc"],
		"hitsPerPage": 1
	}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("search: %d %s", rr.Code, rr.Body.String())
	}

	res := decode[searchbridge.SearchResult[searchbridge.Document]](t, rr)
	if res.NbHits != 2 || res.NbPages != 2 || res.HitsPerPage != 1 {
		t.Errorf("nbHits = %d, nbPages = %d, hitsPerPage = %d", res.NbHits, res.NbPages, res.HitsPerPage)
	}
	if len(res.Hits) != 1 || res.Hits[0]["isbn"] != "2" {
		t.Errorf("hits = %v", res.Hits)
	}
	if res.Facets["category"]["scifi"] != 2 {
		t.Errorf("facets = %v", res.Facets)
	}
}

func TestServer_DeleteDocuments(t *testing.T) {
	h := newBleveRouter(t)
	seedBooks(t, h)

	if rr := do(t, h, http.MethodPost, "/indexes/books/documents/delete", `{"ids": []}`); rr.Code != http.StatusBadRequest {
		t.Errorf("empty ids: got %d, want 400", rr.Code)
	}
	if rr := do(t, h, http.MethodPost, "/indexes/books/documents/delete", `{"ids": ["3"]}`); rr.Code != http.StatusAccepted {
		t.Fatalf("delete: %d %s", rr.Code, rr.Body.String())
	}

	res := decode[searchbridge.SearchResult[searchbridge.Document]](t,
		do(t, h, http.MethodPost, "/indexes/books/search", `{}`))
	if res.NbHits != 2 {
		t.Errorf("nbHits = %d, want 2", res.NbHits)
	}
}

func TestServer_DeleteIndex(t *testing.T) {
	h := newBleveRouter(t)
	seedBooks(t, h)

	if rr := do(t, h, http.MethodDelete, "/indexes/books", ""); rr.Code != http.StatusAccepted {
		t.Fatalf("delete index: %d %s", rr.Code, rr.Body.String())
	}
}

func TestServer_BuildFilter(t *testing.T) {
	h := newBleveRouter(t)

	rr := do(t, h, http.MethodPost, "/filters", `{"selection": {"author": ["Jane Austen"]}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("filters: %d", rr.Code)
	}
	resp := decode[buildFilterResponse](t, rr)
	if resp.Grammar != "canonical" || !strings.Contains(resp.Filter, `author:"Jane Austen"`) {
		t.Errorf("response = %+v", resp)
	}
}

func TestServer_BuildFilterGroupsKeepOrder(t *testing.T) {
	h := newBleveRouter(t)

	body := `{"groups": [
		{"attribute": "category", "values": ["books"]},
		{"attribute": "author", "values": ["X", "Y"]}
	]}`
	rr := do(t, h, http.MethodPost, "/filters", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("filters: %d %s", rr.Code, rr.Body.String())
	}
	resp := decode[buildFilterResponse](t, rr)
	if resp.Filter != `(category:"books") AND (author:"X" OR author:"Y")` {
		t.Errorf("filter = %s", resp.Filter)
	}

	both := `{"selection": {"a": ["x"]}, "groups": [{"attribute": "b", "values": ["y"]}]}`
	if rr := do(t, h, http.MethodPost, "/filters", both); rr.Code != http.StatusBadRequest {
		t.Errorf("selection with groups: %d", rr.Code)
	}
}

func TestServer_ErrorMapping(t *testing.T) {
	h := newBleveRouter(t)
	seedBooks(t, h)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   errorCode
	}{
		{"malformed body", http.MethodPost, "/indexes/books/search", `{`, http.StatusBadRequest, codeBadRequest},
		{"invalid params", http.MethodPost, "/indexes/books/search", `{"page": -1}`,
			http.StatusBadRequest, codeValidationFailed},
		{"invalid filter", http.MethodPost, "/indexes/books/search", `{"filters": "author:\"x\" AND ("}`,
			http.StatusBadRequest, codeInvalidFilter},
		{"unsupported synonyms", http.MethodPost, "/indexes/books/synonyms",
			`{"synonyms": [{"synonyms": ["car", "auto"]}]}`, http.StatusNotImplemented, codeUnsupported},
		{"unsupported synonym search", http.MethodGet, "/indexes/books/synonyms?q=car", "",
			http.StatusNotImplemented, codeUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, tt.method, tt.path, tt.body)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.status, rr.Body.String())
			}
			if got := decode[errorResponse](t, rr).Code; got != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestServer_NotInitialized(t *testing.T) {
	c, err := searchbridge.New(searchbridge.ProviderConfig{
		Type:  searchbridge.ProviderBleve,
		Bleve: &searchbridge.BleveConfig{},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h := newRouter(t, c)

	rr := do(t, h, http.MethodPost, "/indexes/books/search", `{}`)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	if got := decode[errorResponse](t, rr).Code; got != codeNotInitialized {
		t.Errorf("code = %s, want %s", got, codeNotInitialized)
	}

	health := do(t, h, http.MethodGet, "/health", "")
	if health.Code != http.StatusServiceUnavailable {
		t.Errorf("health status = %d, want 503", health.Code)
	}
	if resp := decode[healthResponse](t, health); resp.Status != string(healthuc.Unhealthy) || resp.Provider != "bleve" {
		t.Errorf("health = %+v", resp)
	}
}

func TestServer_Health(t *testing.T) {
	rr := do(t, newBleveRouter(t), http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	resp := decode[healthResponse](t, rr)
	if resp.Status != "ok" || resp.Checks["provider"] != "ok" {
		t.Errorf("health = %+v", resp)
	}
}

func TestErrorHandlers_BackendErrorHidesCause(t *testing.T) {
	s := NewServer(nil, nil, http.NotFoundHandler(), nil)
	err := &searchbridge.BackendError{
		Provider: "meilisearch",
		Op:       "search",
		Err:      errors.New("dial tcp 10.0.0.7:7700: connection refused"),
	}

	rr := httptest.NewRecorder()
	s.handleError(rr, httptest.NewRequest(http.MethodPost, "/indexes/x/search", http.NoBody), err)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}
	resp := decode[errorResponse](t, rr)
	if resp.Code != codeBackendError || resp.Provider != "meilisearch" {
		t.Errorf("response = %+v", resp)
	}
	if strings.Contains(resp.Message, "10.0.0.7") {
		t.Errorf("backend cause leaked: %q", resp.Message)
	}
}

func TestErrorHandlers_InitFailedAndUnknown(t *testing.T) {
	s := NewServer(nil, nil, http.NotFoundHandler(), nil)
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)

	rr := httptest.NewRecorder()
	s.handleError(rr, req, &searchbridge.InitError{Provider: "redis", Err: errors.New("no module")})
	if rr.Code != http.StatusServiceUnavailable || decode[errorResponse](t, rr).Code != codeInitFailed {
		t.Errorf("init failure: %d %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	s.handleError(rr, req, errors.New("boom"))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("unknown error: got %d, want 500", rr.Code)
	}
}
