package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/billpipe/internal/async"
	"github.com/ledgerline/billpipe/internal/common"
	"github.com/ledgerline/billpipe/internal/export"
	"github.com/ledgerline/billpipe/internal/pipeline"
	"github.com/ledgerline/billpipe/internal/repository"
)

// Server wires the HTTP API over the pipeline and repositories.
type Server struct {
	docs      repository.DocumentRepository
	bills     repository.BillRepository
	proc      *pipeline.Processor
	queue     async.Queue
	exporter  *export.Service
	pool      *pgxpool.Pool
	uploadDir string
	logger    *slog.Logger
}

func New(
	docs repository.DocumentRepository,
	bills repository.BillRepository,
	proc *pipeline.Processor,
	queue async.Queue,
	exporter *export.Service,
	pool *pgxpool.Pool,
	uploadDir string,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		docs:      docs,
		bills:     bills,
		proc:      proc,
		queue:     queue,
		exporter:  exporter,
		pool:      pool,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// Router builds the chi mux with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealthz)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/documents", s.handleUpload)
		r.Get("/documents/{id}", s.handleGetDocument)
		r.Post("/documents/{id}/manual", s.handleManual)
		r.Post("/documents/{id}/reprocess", s.handleReprocessOne)
		r.Post("/reprocess", s.handleReprocessBatch)
		r.Post("/items/{id}/posting", s.handleItemPosting)
		r.Get("/export/bills.xlsx", s.handleExport)
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.pool.Ping(ctx); err != nil {
		s.writeError(w, common.InternalError("database unreachable"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := common.HTTPStatusFromError(err)
	if code >= 500 {
		s.logger.Error("request failed", "status", code, "error", err)
	} else {
		s.logger.Warn("request rejected", "status", code, "error", err)
	}
	s.writeJSON(w, code, map[string]string{"error": err.Error()})
}
