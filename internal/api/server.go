package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ajitpratap0/edgar-entities/internal/classifier"
	"github.com/ajitpratap0/edgar-entities/internal/models"
	"github.com/ajitpratap0/edgar-entities/internal/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
	maxFormTypes     = 256
)

// Classifier classifies a name with optional form types and explains the result.
type Classifier interface {
	Explain(name string, formTypes []string) classifier.Explanation
}

// Server is an HTTP API server that exposes classification and the record store.
type Server struct {
	store     store.Store
	cls       Classifier
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
	authToken string // empty = no auth required
}

// NewServer creates a new Server with the given dependencies. A nil gatherer
// disables /metrics.
func NewServer(st store.Store, cls Classifier, gatherer prometheus.Gatherer, logger *slog.Logger, authToken string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:     st,
		cls:       cls,
		gatherer:  gatherer,
		logger:    logger,
		authToken: authToken,
	}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Health check and metrics: no auth required.
	r.Get("/healthz", s.handleHealthz)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.auth)
		r.Post("/classify", s.handleClassify)
		r.Get("/records", s.handleListRecords)
		r.Get("/records/{id}", s.handleGetRecord)
		r.Get("/stats", s.handleStats)
	})

	return r
}

// --- middleware ---

// auth wraps a handler with Bearer token authentication when authToken is set.
func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- handlers ---

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "records": s.store.Len()})
}

// classifyRequest is the body accepted by POST /v1/classify.
type classifyRequest struct {
	Name      string   `json:"name"`
	FormTypes []string `json:"form_types"`
}

// classifyResponse is returned by POST /v1/classify.
type classifyResponse struct {
	classifier.Explanation
	Key string `json:"key"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" && len(req.FormTypes) == 0 {
		s.writeError(w, http.StatusBadRequest, "name or form_types is required")
		return
	}
	if len(req.FormTypes) > maxFormTypes {
		s.writeError(w, http.StatusBadRequest, "too many form_types")
		return
	}

	ex := s.cls.Explain(req.Name, req.FormTypes)
	s.writeJSON(w, http.StatusOK, classifyResponse{Explanation: ex, Key: ex.Classification.Key()})
}

// listResponse is returned by GET /v1/records.
type listResponse struct {
	Records    []models.Record `json:"records"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultListLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	filters, err := store.NewFilters(q.Get("kind"), q.Get("flag"), q.Get("name"), q.Get("form"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recs, next, err := s.store.List(r.Context(), filters, limit, q.Get("cursor"))
	if err != nil {
		s.logger.Error("failed to list records", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list records")
		return
	}
	if recs == nil {
		recs = []models.Record{}
	}
	s.writeJSON(w, http.StatusOK, listResponse{Records: recs, NextCursor: next})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "record not found")
			return
		}
		s.logger.Error("failed to get record", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get record")
		return
	}

	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.logger.Error("failed to get stats", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	s.writeJSON(w, http.StatusOK, stats)
}

// --- helpers ---

// writeJSON encodes v as JSON and writes it to w with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(v); encErr != nil {
		s.logger.Error("failed to encode response", "error", encErr)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// Shutdown gracefully shuts down an http.Server with the given timeout.
// This is a convenience helper used by the serve command.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
