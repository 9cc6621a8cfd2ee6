package typesense

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/kailas-cloud/searchbridge/internal/domain"
	"github.com/kailas-cloud/searchbridge/internal/domain/document"
	"github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/request"
	"github.com/kailas-cloud/searchbridge/internal/domain/synonym"
	"github.com/kailas-cloud/searchbridge/internal/provider"
	"github.com/kailas-cloud/searchbridge/internal/provider/providertest"
)

const booksSchema = `{"name": "books", "num_documents": 3, "created_at": 1700000000, "fields": [
	{"name": "title", "type": "string*", "optional": true},
	{"name": "category", "type": "string*", "facet": true, "optional": true},
	{"name": "year", "type": "float", "sort": true, "optional": true}
]}`

func newTestProvider(t *testing.T) (*Provider, *providertest.Server) {
	t.Helper()
	srv := providertest.NewServer(t)
	srv.On("GET /health", http.StatusOK, `{"ok": true}`)
	p := New(Config{URL: srv.URL, APIKey: "xyz"})
	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p, srv
}

func TestInit_Idempotent(t *testing.T) {
	p, srv := newTestProvider(t)
	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	if n := len(srv.Requests("GET /health")); n != 1 {
		t.Errorf("health checks = %d, want 1", n)
	}
}

func TestInit_Unhealthy(t *testing.T) {
	srv := providertest.NewServer(t)
	srv.On("GET /health", http.StatusOK, `{"ok": false}`)
	p := New(Config{URL: srv.URL})
	if err := p.Init(context.Background()); !errors.Is(err, provider.ErrBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if _, err := p.DeleteIndex(context.Background(), "books"); !errors.Is(err, provider.ErrNotInitialized) {
		t.Errorf("after failed init: %v", err)
	}
}

func TestSearch_TranslatesRequestAndResponse(t *testing.T) {
	p, srv := newTestProvider(t)
	srv.On("GET /collections/books", http.StatusOK, booksSchema)
	srv.On("GET /collections/books/documents/search", http.StatusOK, `{
		"found": 3,
		"out_of": 3,
		"page": 1,
		"search_time_ms": 4,
		"hits": [
			{"document": {"id": "1", "category": "books"}, "highlights": []},
			{"document": {"id": "3", "category": "books"}, "highlights": []}
		],
		"facet_counts": [
			{"field_name": "category", "counts": [
				{"value": "books", "count": 2, "highlighted": "books"},
				{"value": "movies", "count": 1, "highlighted": "movies"}
			], "stats": {}}
		]
	}`)

	params := request.Params{
		Page:         0,
		HitsPerPage:  2,
		FacetFilters: map[string][]string{"category": {"books", "movies"}},
		Facets:       []string{"category"},
		Sort:         []string{"year:desc"},
	}.Normalize()
	res, err := p.Search(context.Background(), "books", params)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	q := srv.Last("GET /collections/books/documents/search").Query
	checks := map[string]string{
		"q":         "*",
		"page":      "1",
		"per_page":  "2",
		"query_by":  "title,category",
		"sort_by":   "year:desc",
		"facet_by":  "category",
		"filter_by": "category:=`books` || category:=`movies`",
	}
	for k, want := range checks {
		if got := q.Get(k); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}

	if res.NbHits != 3 || !res.NbHitsExhaustive || res.NbPages != 2 {
		t.Errorf("nbHits = %d exhaustive = %v nbPages = %d", res.NbHits, res.NbHitsExhaustive, res.NbPages)
	}
	if len(res.Hits) != 2 {
		t.Fatalf("hits = %d", len(res.Hits))
	}
	var hit document.Document
	if err := json.Unmarshal(res.Hits[1], &hit); err != nil || hit["id"] != "3" {
		t.Errorf("hit = %s (%v)", res.Hits[1], err)
	}
	if res.Facets["category"]["books"] != 2 || res.Facets["category"]["movies"] != 1 {
		t.Errorf("facets = %v", res.Facets)
	}
}

func TestSearch_SchemaIsCached(t *testing.T) {
	p, srv := newTestProvider(t)
	srv.On("GET /collections/books", http.StatusOK, booksSchema)
	srv.On("GET /collections/books/documents/search", http.StatusOK,
		`{"found": 0, "out_of": 0, "page": 1, "search_time_ms": 0, "hits": []}`)

	for range 2 {
		if _, err := p.Search(context.Background(), "books", request.Params{Query: "dune"}.Normalize()); err != nil {
			t.Fatalf("Search: %v", err)
		}
	}
	if n := len(srv.Requests("GET /collections/books")); n != 1 {
		t.Errorf("schema reads = %d, want 1", n)
	}
}

func TestSearch_EmptyResultKeepsRequestedFacets(t *testing.T) {
	p, srv := newTestProvider(t)
	srv.On("GET /collections/books", http.StatusOK, booksSchema)
	srv.On("GET /collections/books/documents/search", http.StatusOK,
		`{"found": 0, "out_of": 3, "page": 1, "search_time_ms": 0, "hits": [], "facet_counts": []}`)

	res, err := p.Search(context.Background(), "books",
		request.Params{Query: "zzz", Facets: []string{"category"}}.Normalize())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.NbHits != 0 || res.NbPages != 0 || len(res.Hits) != 0 {
		t.Errorf("result = %+v", res)
	}
	if dist, ok := res.Facets["category"]; !ok || len(dist) != 0 {
		t.Errorf("facets = %v", res.Facets)
	}
}

func TestSearch_BackendError(t *testing.T) {
	p, srv := newTestProvider(t)
	srv.On("GET /collections/books", http.StatusOK, booksSchema)
	srv.On("GET /collections/books/documents/search", http.StatusBadRequest,
		`{"message": "Could not find a field named author in the schema."}`)

	_, err := p.Search(context.Background(), "books", request.Params{Filters: `author:"X"`}.Normalize())
	var be *provider.BackendError
	if !errors.As(err, &be) || be.Provider != provider.Typesense || be.Op != provider.OpSearch {
		t.Fatalf("expected typesense search BackendError, got %v", err)
	}
}

func TestSearch_PageAboveLimitUnsupported(t *testing.T) {
	p, srv := newTestProvider(t)
	srv.On("GET /collections/books", http.StatusOK, booksSchema)
	srv.On("GET /collections/books/documents/search", http.StatusOK,
		`{"found": 0, "out_of": 3, "page": 1, "search_time_ms": 0, "hits": [], "facet_counts": []}`)

	_, err := p.Search(context.Background(), "books", request.Params{HitsPerPage: maxPerPage + 1}.Normalize())
	if !provider.IsUnsupported(err) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
	if srv.Called("GET /collections/books/documents/search") {
		t.Error("nothing must be sent")
	}

	if _, err := p.Search(context.Background(), "books", request.Params{HitsPerPage: maxPerPage}.Normalize()); err != nil {
		t.Fatalf("per_page at the limit: %v", err)
	}
}

func TestAddDocuments_CopiesPrimaryKeyIntoID(t *testing.T) {
	p, srv := newTestProvider(t)
	srv.On("POST /collections/books/documents/import", http.StatusOK,
		`{"success": true}`+"\n"+`{"success": true}`)

	docs := []document.Document{{"isbn": "a-1", "title": "Dune"}, {"isbn": 42, "title": "Emma"}}
	if _, err := p.AddDocuments(context.Background(), "books", docs, provider.DocumentOptions{PrimaryKey: "isbn"}); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	req := srv.Last("POST /collections/books/documents/import")
	if action := req.Query.Get("action"); action != "upsert" {
		t.Errorf("action = %q", action)
	}
	lines := strings.Split(strings.TrimSpace(string(req.Body)), "\n")
	if len(lines) != 2 {
		t.Fatalf("body lines = %d", len(lines))
	}
	var second document.Document
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if second["id"] != "42" {
		t.Errorf("id = %v", second["id"])
	}
}

func TestAddDocuments_ReportsRejectedDocument(t *testing.T) {
	p, srv := newTestProvider(t)
	srv.On("POST /collections/books/documents/import", http.StatusOK,
		`{"success": false, "error": "Field year must be a float.", "document": "{}"}`)

	_, err := p.AddDocuments(context.Background(), "books", []document.Document{{"id": "1", "year": "x"}},
		provider.DocumentOptions{})
	if !errors.Is(err, provider.ErrBackend) || !strings.Contains(err.Error(), "must be a float") {
		t.Fatalf("expected backend error with the rejection, got %v", err)
	}
}

func TestAddDocuments_MissingPrimaryKey(t *testing.T) {
	p, srv := newTestProvider(t)
	_, err := p.AddDocuments(context.Background(), "books", []document.Document{{"title": "x"}}, provider.DocumentOptions{})
	if !errors.Is(err, domain.ErrMissingPrimaryKey) {
		t.Fatalf("expected ErrMissingPrimaryKey, got %v", err)
	}
	if srv.Called("POST /collections/books/documents/import") {
		t.Error("nothing must be sent")
	}
}

func TestDeleteDocuments(t *testing.T) {
	p, srv := newTestProvider(t)
	srv.On("DELETE /collections/books/documents", http.StatusOK, `{"num_deleted": 2}`)

	if _, err := p.DeleteDocuments(context.Background(), "books", []string{"1", "2"}); err != nil {
		t.Fatalf("DeleteDocuments: %v", err)
	}
	got := srv.Last("DELETE /collections/books/documents").Query.Get("filter_by")
	if got != "id:[`1`,`2`]" {
		t.Errorf("filter_by = %q", got)
	}
}

func TestConfigureIndex_CreatesCollection(t *testing.T) {
	p, srv := newTestProvider(t)
	srv.On("POST /collections", http.StatusCreated, booksSchema)

	_, err := p.ConfigureIndex(context.Background(), "books", index.Config{
		SearchableAttributes: []string{"title"},
		FilterableAttributes: []string{"category"},
		SortableAttributes:   []string{"year"},
		NumericAttributes:    []string{"year"},
		RankingRules:         []string{"words"},
	})
	if err != nil {
		t.Fatalf("ConfigureIndex: %v", err)
	}

	var schema collectionSchema
	if err := json.Unmarshal(srv.Last("POST /collections").Body, &schema); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if schema.Name != "books" || len(schema.Fields) != 3 {
		t.Fatalf("schema = %+v", schema)
	}
	year := schema.Fields[2]
	if year.Name != "year" || year.Type != typeFloat || year.Sort == nil || !*year.Sort {
		t.Errorf("year field = %+v", year)
	}
	if cat := schema.Fields[1]; cat.Facet == nil || !*cat.Facet {
		t.Errorf("category field = %+v", cat)
	}
}

func TestConfigureIndex_UpdatesExistingFields(t *testing.T) {
	p, srv := newTestProvider(t)
	srv.On("GET /collections/books", http.StatusOK, booksSchema)
	srv.On("PATCH /collections/books", http.StatusOK, `{"fields": []}`)

	_, err := p.ConfigureIndex(context.Background(), "books", index.Config{
		FilterableAttributes: []string{"category", "author"},
	})
	if err != nil {
		t.Fatalf("ConfigureIndex: %v", err)
	}

	var update collectionSchema
	if err := json.Unmarshal(srv.Last("PATCH /collections/books").Body, &update); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(update.Fields) != 3 {
		t.Fatalf("fields = %+v", update.Fields)
	}
	if f := update.Fields[0]; f.Name != "category" || f.Drop == nil || !*f.Drop {
		t.Errorf("expected category drop first, got %+v", f)
	}
	if f := update.Fields[2]; f.Name != "author" || f.Drop != nil {
		t.Errorf("expected author add, got %+v", f)
	}
}

func TestConfigureIndex_TypoPolicyAppliesToSearch(t *testing.T) {
	p, srv := newTestProvider(t)
	srv.On("POST /collections", http.StatusCreated, booksSchema)
	srv.On("GET /collections/books/documents/search", http.StatusOK,
		`{"found": 0, "out_of": 0, "page": 1, "search_time_ms": 0, "hits": []}`)

	_, err := p.ConfigureIndex(context.Background(), "books", index.Config{
		SearchableAttributes: []string{"title"},
		TypoTolerance:        &index.TypoTolerance{Enabled: false},
	})
	if err != nil {
		t.Fatalf("ConfigureIndex: %v", err)
	}
	if _, err := p.Search(context.Background(), "books", request.Params{Query: "dune"}.Normalize()); err != nil {
		t.Fatalf("Search: %v", err)
	}
	q := srv.Last("GET /collections/books/documents/search").Query
	if q.Get("num_typos") != "0" || q.Get("query_by") != "title" {
		t.Errorf("query = %v", q)
	}
}

func TestDeleteIndex(t *testing.T) {
	p, srv := newTestProvider(t)
	srv.On("DELETE /collections/books", http.StatusOK, booksSchema)
	if _, err := p.DeleteIndex(context.Background(), "books"); err != nil {
		t.Fatalf("DeleteIndex: %v", err)
	}
}

func TestSaveSynonyms(t *testing.T) {
	p, srv := newTestProvider(t)
	srv.On("PUT /collections/books/synonyms/cars", http.StatusOK, `{"id": "cars", "synonyms": ["car", "auto"]}`)
	srv.On("PUT /collections/books/synonyms/phones", http.StatusOK,
		`{"id": "phones", "root": "phone", "synonyms": ["iphone"]}`)

	groups := []synonym.Synonym{
		{ObjectID: "cars", Synonyms: []string{"car", "auto"}},
		{ObjectID: "phones", Type: synonym.OneWay, Input: "phone", Synonyms: []string{"iphone"}},
	}
	a, err := p.SaveSynonyms(context.Background(), "books", groups, provider.SaveSynonymsOptions{})
	if err != nil {
		t.Fatalf("SaveSynonyms: %v", err)
	}
	if payload, _ := a.Payload.(map[string]any); len(payload["objectIDs"].([]string)) != 2 {
		t.Errorf("payload = %v", a.Payload)
	}
	if root := srv.JSON("PUT /collections/books/synonyms/phones")["root"]; root != "phone" {
		t.Errorf("root = %v", root)
	}
	if _, ok := srv.JSON("PUT /collections/books/synonyms/cars")["root"]; ok {
		t.Error("multi-way synonym must not carry a root")
	}
}

func TestSaveSynonyms_PlaceholderUnsupported(t *testing.T) {
	p, _ := newTestProvider(t)
	groups := []synonym.Synonym{{Type: synonym.Placeholder, Placeholder: "<num>", Replacements: []string{"1", "2"}}}
	_, err := p.SaveSynonyms(context.Background(), "books", groups, provider.SaveSynonymsOptions{})
	if !provider.IsUnsupported(err) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}

func TestSaveSynonyms_ReplaceExistingDeletesFirst(t *testing.T) {
	p, srv := newTestProvider(t)
	srv.On("GET /collections/books/synonyms", http.StatusOK,
		`{"synonyms": [{"id": "old", "synonyms": ["a", "b"]}]}`)
	srv.On("DELETE /collections/books/synonyms/old", http.StatusOK, `{"id": "old"}`)
	srv.On("PUT /collections/books/synonyms/new", http.StatusOK, `{"id": "new", "synonyms": ["c", "d"]}`)

	groups := []synonym.Synonym{{ObjectID: "new", Synonyms: []string{"c", "d"}}}
	if _, err := p.SaveSynonyms(context.Background(), "books", groups,
		provider.SaveSynonymsOptions{ReplaceExisting: true}); err != nil {
		t.Fatalf("SaveSynonyms: %v", err)
	}
	if !srv.Called("DELETE /collections/books/synonyms/old") {
		t.Error("existing synonym must be deleted")
	}
}

func TestSearchSynonyms(t *testing.T) {
	p, srv := newTestProvider(t)
	srv.On("GET /collections/books/synonyms", http.StatusOK, `{"synonyms": [
		{"id": "cars", "synonyms": ["car", "auto"]},
		{"id": "phones", "root": "phone", "synonyms": ["iphone"]}
	]}`)

	all, err := p.SearchSynonyms(context.Background(), "books", "")
	if err != nil {
		t.Fatalf("SearchSynonyms: %v", err)
	}
	if len(all) != 2 || all[1].Type != synonym.OneWay || all[1].Input != "phone" {
		t.Errorf("synonyms = %+v", all)
	}

	got, err := p.SearchSynonyms(context.Background(), "books", "aut")
	if err != nil {
		t.Fatalf("SearchSynonyms: %v", err)
	}
	if len(got) != 1 || got[0].ObjectID != "cars" {
		t.Errorf("filtered = %+v", got)
	}
}

func TestDeleteSynonym(t *testing.T) {
	p, srv := newTestProvider(t)
	srv.On("DELETE /collections/books/synonyms/cars", http.StatusOK, `{"id": "cars"}`)
	srv.On("GET /collections/books/synonyms", http.StatusOK, `{"synonyms": [{"id": "cars", "synonyms": ["a", "b"]}]}`)

	if _, err := p.DeleteSynonym(context.Background(), "books", "cars"); err != nil {
		t.Fatalf("DeleteSynonym: %v", err)
	}
	a, err := p.DeleteSynonym(context.Background(), "books", synonym.AllSentinel)
	if err != nil {
		t.Fatalf("DeleteSynonym(all): %v", err)
	}
	if payload, _ := a.Payload.(map[string]any); payload["deleted"] != 1 {
		t.Errorf("payload = %v", a.Payload)
	}
}
