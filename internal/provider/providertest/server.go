// Package providertest holds helpers for adapter tests against HTTP backends.
package providertest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// Request is one recorded call.
type Request struct {
	Query url.Values
	Body  []byte
}

// Server replays canned responses keyed by "METHOD /path" and records every
// request. Unknown routes answer 404.
type Server struct {
	*httptest.Server

	t         testing.TB
	mu        sync.Mutex
	notFound  string
	responses map[string]response
	requests  map[string][]Request
}

type response struct {
	status int
	body   string
}

// NewServer starts a server closed at test cleanup.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		t:         t,
		notFound:  `{"message": "Not Found"}`,
		responses: make(map[string]response),
		requests:  make(map[string][]Request),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// On registers the response for a route.
func (s *Server) On(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[route] = response{status: status, body: body}
}

// OnNotFound sets the body of 404 answers for unknown routes.
func (s *Server) OnNotFound(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notFound = body
}

// Called reports whether route received at least one request.
func (s *Server) Called(route string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests[route]) > 0
}

// Requests returns the recorded requests of route in arrival order.
func (s *Server) Requests(route string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests[route]...)
}

// Last returns the latest request of route, failing the test when none arrived.
func (s *Server) Last(route string) Request {
	s.t.Helper()
	reqs := s.Requests(route)
	if len(reqs) == 0 {
		s.t.Fatalf("no request to %s", route)
	}
	return reqs[len(reqs)-1]
}

// JSON decodes the latest body of route into a generic object.
func (s *Server) JSON(route string) map[string]any {
	s.t.Helper()
	var out map[string]any
	if err := json.Unmarshal(s.Last(route).Body, &out); err != nil {
		s.t.Fatalf("decode %s body: %v", route, err)
	}
	return out
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	route := r.Method + " " + r.URL.Path
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests[route] = append(s.requests[route], Request{Query: r.URL.Query(), Body: body})
	resp, ok := s.responses[route]
	notFound := s.notFound
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, notFound)
		return
	}
	status := resp.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, resp.body)
}
