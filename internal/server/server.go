// Package server exposes gridsched's introspection HTTP API: health,
// problem table sizes, and resource snapshots, for an operator or
// dashboard polling a running scheduler rather than a caller wiring the
// core packages directly.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/gridsched/internal/assembly"
	"github.com/aristath/gridsched/internal/problem"
	"github.com/aristath/gridsched/internal/resource"
	"github.com/aristath/gridsched/internal/scheduler"
)

// Config holds server construction options.
type Config struct {
	Port     int
	Log      zerolog.Logger
	DevMode  bool
	Problem  *problem.Problem
	Assembly *assembly.Assembly
	Tick     *scheduler.SolveTick // optional; nil if the process isn't ticking
}

// Server is gridsched's introspection HTTP server.
type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	problem  *problem.Problem
	assembly *assembly.Assembly
	tick     *scheduler.SolveTick
}

// New builds a Server. Call Start to begin listening.
func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		problem:  cfg.Problem,
		assembly: cfg.Assembly,
		tick:     cfg.Tick,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/problem", func(r chi.Router) {
		r.Get("/stats", s.handleProblemStats)
	})

	s.router.Get("/resource", s.handleResourceSnapshot)

	if s.tick != nil {
		s.router.Post("/tick/run", s.handleRunTickNow)
	}
}

// handleHealth reports process liveness only — it never touches Problem
// or Assembly, so it stays meaningful even mid-solve.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// handleProblemStats exposes problem.Problem.Stats(), the read-only
// snapshot of table sizes and solve status.
func (s *Server) handleProblemStats(w http.ResponseWriter, r *http.Request) {
	if s.problem == nil {
		http.Error(w, "problem not configured", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, s.problem.Stats())
}

// handleResourceSnapshot reports a fresh CPU/mem reading, independent of
// any solve in progress.
func (s *Server) handleResourceSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := resource.Take(s.log)
	s.writeJSON(w, snap)
}

// handleRunTickNow triggers an out-of-schedule solve tick, useful for an
// operator forcing a re-solve after editing exogenous input out-of-band.
func (s *Server) handleRunTickNow(w http.ResponseWriter, r *http.Request) {
	if err := s.tick.Run(); err != nil {
		s.log.Error().Err(err).Msg("manual tick run failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// Start begins listening; it blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting introspection server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down introspection server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode json response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
