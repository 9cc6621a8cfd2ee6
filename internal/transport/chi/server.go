package chi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbridge"
	healthuc "github.com/kailas-cloud/searchbridge/internal/usecase/health"
)

// maxDocumentsPerRequest bounds a single document write.
const maxDocumentsPerRequest = 10000

// SearchClient is the facade surface the gateway drives.
type SearchClient interface {
	Search(ctx context.Context, index string, params searchbridge.SearchParams) (
		*searchbridge.SearchResult[searchbridge.Document], error)
	AddDocuments(ctx context.Context, index string, docs []searchbridge.Document,
		opts searchbridge.DocumentOptions) (searchbridge.Ack, error)
	DeleteDocuments(ctx context.Context, index string, ids []string) (searchbridge.Ack, error)
	ConfigureIndex(ctx context.Context, index string, cfg searchbridge.IndexConfig) (searchbridge.Ack, error)
	DeleteIndex(ctx context.Context, index string) (searchbridge.Ack, error)
	SaveSynonyms(ctx context.Context, index string, synonyms []searchbridge.Synonym,
		opts searchbridge.SaveSynonymsOptions) (searchbridge.Ack, error)
	SearchSynonyms(ctx context.Context, index, query string) ([]searchbridge.Synonym, error)
	DeleteSynonym(ctx context.Context, index, objectID string) (searchbridge.Ack, error)
	BuildFilter(selection map[string][]string, raw string) string
	BuildOrderedFilter(selection searchbridge.FacetSelection, raw string) string
	FilterGrammar() searchbridge.FilterGrammar
}

var _ SearchClient = (*searchbridge.Client)(nil)

// Server serves the search facade over HTTP.
type Server struct {
	client        SearchClient
	health        *healthuc.Service
	metrics       http.Handler
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. metrics may be nil, in which case
// the default Prometheus handler is served.
func NewServer(client SearchClient, health *healthuc.Service, metrics http.Handler, logger *zap.Logger) *Server {
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		client:  client,
		health:  health,
		metrics: metrics,
		logger:  logger,
	}
	s.errorHandlers = defaultErrorHandlers()
	return s
}

// Routes mounts the gateway handlers on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", s.metrics)
	r.Post("/filters", s.BuildFilter)

	r.Route("/indexes/{index}", func(r chi.Router) {
		r.Delete("/", s.DeleteIndex)
		r.Post("/search", s.Search)
		r.Post("/documents", s.AddDocuments)
		r.Post("/documents/delete", s.DeleteDocuments)
		r.Put("/settings", s.ConfigureIndex)
		r.Post("/synonyms", s.SaveSynonyms)
		r.Get("/synonyms", s.SearchSynonyms)
		r.Delete("/synonyms/{objectID}", s.DeleteSynonym)
	})
}

// Search handles POST /indexes/{index}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var params searchbridge.SearchParams
	if !decodeBody(w, r, &params) {
		return
	}

	res, err := s.client.Search(r.Context(), chi.URLParam(r, "index"), params)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type addDocumentsRequest struct {
	Documents  []searchbridge.Document `json:"documents"`
	PrimaryKey string                  `json:"primaryKey,omitempty"`
}

// AddDocuments handles POST /indexes/{index}/documents.
func (s *Server) AddDocuments(w http.ResponseWriter, r *http.Request) {
	var req addDocumentsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Documents) > maxDocumentsPerRequest {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "too many documents in one request")
		return
	}

	ack, err := s.client.AddDocuments(r.Context(), chi.URLParam(r, "index"), req.Documents,
		searchbridge.DocumentOptions{PrimaryKey: req.PrimaryKey})
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}

type deleteDocumentsRequest struct {
	IDs []string `json:"ids"`
}

// DeleteDocuments handles POST /indexes/{index}/documents/delete.
func (s *Server) DeleteDocuments(w http.ResponseWriter, r *http.Request) {
	var req deleteDocumentsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "ids must not be empty")
		return
	}

	ack, err := s.client.DeleteDocuments(r.Context(), chi.URLParam(r, "index"), req.IDs)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}

// ConfigureIndex handles PUT /indexes/{index}/settings.
func (s *Server) ConfigureIndex(w http.ResponseWriter, r *http.Request) {
	var cfg searchbridge.IndexConfig
	if !decodeBody(w, r, &cfg) {
		return
	}

	ack, err := s.client.ConfigureIndex(r.Context(), chi.URLParam(r, "index"), cfg)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}

// DeleteIndex handles DELETE /indexes/{index}.
func (s *Server) DeleteIndex(w http.ResponseWriter, r *http.Request) {
	ack, err := s.client.DeleteIndex(r.Context(), chi.URLParam(r, "index"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}

type saveSynonymsRequest struct {
	Synonyms        []searchbridge.Synonym `json:"synonyms"`
	ReplaceExisting bool                   `json:"replaceExisting,omitempty"`
}

// SaveSynonyms handles POST /indexes/{index}/synonyms.
func (s *Server) SaveSynonyms(w http.ResponseWriter, r *http.Request) {
	var req saveSynonymsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ack, err := s.client.SaveSynonyms(r.Context(), chi.URLParam(r, "index"), req.Synonyms,
		searchbridge.SaveSynonymsOptions{ReplaceExisting: req.ReplaceExisting})
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}

type synonymListResponse struct {
	Hits   []searchbridge.Synonym `json:"hits"`
	NbHits int                    `json:"nbHits"`
}

// SearchSynonyms handles GET /indexes/{index}/synonyms?q=.
func (s *Server) SearchSynonyms(w http.ResponseWriter, r *http.Request) {
	syns, err := s.client.SearchSynonyms(r.Context(), chi.URLParam(r, "index"), r.URL.Query().Get("q"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if syns == nil {
		syns = []searchbridge.Synonym{}
	}
	writeJSON(w, http.StatusOK, synonymListResponse{Hits: syns, NbHits: len(syns)})
}

// DeleteSynonym handles DELETE /indexes/{index}/synonyms/{objectID}.
func (s *Server) DeleteSynonym(w http.ResponseWriter, r *http.Request) {
	ack, err := s.client.DeleteSynonym(r.Context(), chi.URLParam(r, "index"), chi.URLParam(r, "objectID"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}

type buildFilterRequest struct {
	Selection map[string][]string         `json:"selection"`
	Groups    searchbridge.FacetSelection `json:"groups,omitempty"`
	Raw       string                      `json:"raw,omitempty"`
}

type buildFilterResponse struct {
	Filter  string `json:"filter"`
	Grammar string `json:"grammar"`
}

// BuildFilter handles POST /filters. The output is in the configured
// backend's native grammar, ready for SearchParams.NativeFilter. "groups"
// keeps the caller's attribute order, "selection" is ordered by name.
func (s *Server) BuildFilter(w http.ResponseWriter, r *http.Request) {
	var req buildFilterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Groups) > 0 && len(req.Selection) > 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "selection and groups are mutually exclusive")
		return
	}
	f := s.client.BuildFilter(req.Selection, req.Raw)
	if len(req.Groups) > 0 {
		f = s.client.BuildOrderedFilter(req.Groups, req.Raw)
	}
	writeJSON(w, http.StatusOK, buildFilterResponse{
		Filter:  f,
		Grammar: s.client.FilterGrammar().Name,
	})
}

type healthResponse struct {
	Status   string            `json:"status"`
	Provider string            `json:"provider"`
	Checks   map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:   string(report.Status),
		Provider: report.Provider,
		Checks:   checks,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
