// Package dashboard serves recorded simulation runs over HTTP as JSON,
// plus Prometheus metrics.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	// Registers the application metrics served at /metrics.
	_ "github.com/msevon/NATGAS-trader/internal/metrics"

	"github.com/msevon/NATGAS-trader/internal/storage"
)

type Server struct {
	router    *chi.Mux
	server    *http.Server
	recorder  storage.Recorder
	logger    *logrus.Logger
	port      int
	authToken string
}

type Config struct {
	Port      int
	AuthToken string
}

func NewServer(cfg Config, recorder storage.Recorder, logger *logrus.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		recorder:  recorder,
		logger:    logger,
		port:      cfg.Port,
		authToken: cfg.AuthToken,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	if s.authToken != "" {
		s.router.Use(s.authMiddleware)
	}

	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/api/runs", s.handleListRuns)
	s.router.Get("/api/runs/{id}", s.handleGetRun)
	s.router.Get("/api/runs/{id}/trades", s.handleGetTrades)
	s.router.Get("/api/runs/{id}/equity", s.handleGetEquity)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		if token != s.authToken {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	s.logger.Infof("Starting dashboard server on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.recorder.Runs(50)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list runs")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []storage.RunRecord{}
	}
	s.writeJSON(w, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := s.recorder.Run(id)
	if err != nil || run == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, run)
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.recorder.Run(id); err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	trades, err := s.recorder.Trades(id)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load trades")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, trades)
}

func (s *Server) handleGetEquity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.recorder.Run(id); err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	equity, err := s.recorder.Equity(id)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load equity curve")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, equity)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}
