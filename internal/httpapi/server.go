// Package httpapi exposes the search service over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"placesearch/internal/domain"
	"placesearch/internal/search"
)

// Searcher is the query side used by the handlers. *search.Service
// satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, hydrate bool) ([]domain.SearchHit, error)
	GetClosest(ctx context.Context, query string, hydrate bool) (*domain.SearchHit, error)
	Get(ctx context.Context, id string) (*domain.SourceRecord, error)
	Reload(ctx context.Context) error
	Stats() search.Stats
}

// Rebuilder regenerates the index from the record store.
type Rebuilder interface {
	BuildFromStore(ctx context.Context) (domain.Generation, error)
}

// Config holds server options.
type Config struct {
	CORSOrigin string
	// MaxTopK caps top_k per request; zero means no cap.
	MaxTopK int
}

// Server wires handlers to a Searcher.
type Server struct {
	searcher  Searcher
	rebuilder Rebuilder
	cfg       Config
	logger    *slog.Logger
}

// New creates a Server. rebuilder may be nil, which disables
// POST /admin/rebuild.
func New(searcher Searcher, rebuilder Rebuilder, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	return &Server{searcher: searcher, rebuilder: rebuilder, cfg: cfg, logger: logger}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("POST /search/closest", s.handleClosest)
	mux.HandleFunc("GET /places/{id}", s.handlePlace)
	mux.HandleFunc("POST /admin/reload", s.handleReload)
	if s.rebuilder != nil {
		mux.HandleFunc("POST /admin/rebuild", s.handleRebuild)
	}

	return Chain(mux,
		Recover(s.logger),
		Logger(s.logger),
		CORS(s.cfg.CORSOrigin),
		OTel("placesearch"),
	)
}

// SearchRequest is the JSON body for POST /search and /search/closest.
type SearchRequest struct {
	Query   string `json:"query"`
	TopK    *int   `json:"top_k,omitempty"`
	Hydrate bool   `json:"hydrate,omitempty"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status string       `json:"status"`
	Index  search.Stats `json:"index"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Index: s.searcher.Stats()})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearch(w, r)
	if !ok {
		return
	}
	topK := search.DefaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}
	if s.cfg.MaxTopK > 0 && topK > s.cfg.MaxTopK {
		topK = s.cfg.MaxTopK
	}

	hits, err := s.searcher.Search(r.Context(), req.Query, topK, req.Hydrate)
	if err != nil {
		s.queryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

func (s *Server) handleClosest(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearch(w, r)
	if !ok {
		return
	}
	hit, err := s.searcher.GetClosest(r.Context(), req.Query, req.Hydrate)
	if err != nil {
		s.queryError(w, err)
		return
	}
	if hit == nil {
		writeError(w, http.StatusNotFound, "no result")
		return
	}
	writeJSON(w, http.StatusOK, hit)
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	rec, err := s.searcher.Get(r.Context(), id)
	if errors.Is(err, domain.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "place not found")
		return
	}
	if err != nil {
		s.logger.Error("place lookup failed", "id", id, "error", err)
		writeError(w, http.StatusBadGateway, "record store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.searcher.Reload(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "reloaded", Index: s.searcher.Stats()})
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	gen, err := s.rebuilder.BuildFromStore(r.Context())
	switch {
	case errors.Is(err, domain.ErrBuildInProgress):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, domain.ErrSourceNotFound), errors.Is(err, domain.ErrEmptySource):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.logger.Error("rebuild failed", "error", err)
		writeError(w, http.StatusInternalServerError, "rebuild failed")
		return
	}
	if err := s.searcher.Reload(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, gen)
}

func (s *Server) queryError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrInvalidTopK) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error("search failed", "error", err)
	writeError(w, http.StatusInternalServerError, "search failed")
}

func decodeSearch(w http.ResponseWriter, r *http.Request) (SearchRequest, bool) {
	var req SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
