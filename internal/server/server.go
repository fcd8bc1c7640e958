// Package server exposes the HTTP API: build and revise submissions in, and
// the evaluation intake that accepts published-artifact reports.
package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"appforge/internal/common/config"
	"appforge/internal/common/logger"
	"appforge/internal/models"
	"appforge/internal/orchestrator"
	"appforge/internal/store"
)

// Pipeline runs a request through the build pipeline. The orchestrator
// implements it; tests substitute a fake.
type Pipeline interface {
	Build(ctx context.Context, req *models.BuildRequest) orchestrator.Outcome
	Revise(ctx context.Context, req *models.ReviseRequest) orchestrator.Outcome
}

type Server struct {
	pipeline Pipeline
	store    store.Store
	secrets  []string
	logger   logger.Logger
	http     *http.Server
}

func New(cfg config.ServerConfig, secrets []string, pipeline Pipeline, st store.Store, log logger.Logger) *Server {
	s := &Server{
		pipeline: pipeline,
		store:    st,
		secrets:  secrets,
		logger:   log.With(map[string]interface{}{"component": "server"}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/build", s.handleBuild)
	mux.HandleFunc("POST /api/revise", s.handleRevise)
	mux.HandleFunc("POST /api/evaluation", s.handleSubmission)
	mux.HandleFunc("GET /api/evaluation/list", s.handleListSubmissions)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.http = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.withRequestID(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// withRequestID tags every request with an ID for log correlation, honoring
// a caller-supplied X-Request-ID when present.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		s.logger.Debug("request received", map[string]interface{}{
			"requestId": id,
			"method":    r.Method,
			"path":      r.URL.Path,
		})
		next.ServeHTTP(w, r)
	})
}

// Handler exposes the routing for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.http.Addr})
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
