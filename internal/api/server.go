package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nguyenhonglinh/clone-domain/internal/fetcher"
	"github.com/nguyenhonglinh/clone-domain/internal/pipeline"
	"github.com/nguyenhonglinh/clone-domain/internal/sources"
	"github.com/nguyenhonglinh/clone-domain/pkg/types"
)

// JobRunner triggers one synchronous scrape job.
type JobRunner interface {
	RunJob(ctx context.Context, sourceID, typeID string) ([]types.DomainRecord, error)
}

// Server exposes the HTTP API for listing sources and triggering scrapes.
type Server struct {
	runner   JobRunner
	registry *sources.Registry
	logger   *slog.Logger
	mux      *http.ServeMux
	busy     atomic.Bool
}

// NewServer wires handlers onto an HTTP mux.
func NewServer(runner JobRunner, registry *sources.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		runner:   runner,
		registry: registry,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP satisfies the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/sources", s.handleSources)
	s.mux.HandleFunc("/api/scrape", s.handleScrape)
	s.mux.HandleFunc("/openapi.yaml", s.handleOpenAPI)
	s.mux.HandleFunc("/docs", s.handleDocs)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sources": s.registry.List(),
	})
}

// ScrapeResponse is the success payload of a scrape trigger.
type ScrapeResponse struct {
	TotalNew int                  `json:"total_new"`
	Records  []types.DomainRecord `json:"records"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		return
	}

	sourceID := strings.TrimSpace(r.URL.Query().Get("source"))
	typeID := strings.TrimSpace(r.URL.Query().Get("type"))
	if sourceID == "" || typeID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "source and type query parameters are required")
		return
	}

	// The pipeline assumes at most one job in flight; overlapping jobs
	// would race on the same store snapshot.
	if !s.busy.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, "busy", "a scrape job is already running")
		return
	}
	defer s.busy.Store(false)

	records, err := s.runner.RunJob(r.Context(), sourceID, typeID)
	if err != nil {
		s.logger.Error("scrape job failed", "source", sourceID, "type", typeID, "error", err)
		status, kind := classify(err)
		writeError(w, status, kind, err.Error())
		return
	}

	if records == nil {
		records = []types.DomainRecord{}
	}
	writeJSON(w, http.StatusOK, ScrapeResponse{
		TotalNew: len(records),
		Records:  records,
	})
}

func classify(err error) (int, string) {
	var fe *fetcher.FetchError
	var ie *pipeline.IngestError
	switch {
	case sources.IsNotFound(err):
		return http.StatusBadRequest, "config_error"
	case errors.As(err, &fe):
		return http.StatusBadGateway, "fetch_error"
	case errors.As(err, &ie):
		return http.StatusInternalServerError, "ingestion_error"
	default:
		return http.StatusInternalServerError, "job_error"
	}
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]string{
		"error":   kind,
		"message": message,
	})
}
