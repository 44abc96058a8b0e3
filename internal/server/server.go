// Package server exposes the trend pipeline to interactive front ends as a
// read-only JSON API. Each request recomputes the pipeline with the
// request's filters over a dataset loaded once per process; the loaded
// table is never mutated.
package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/cascadia-monitoring/streamtrend/internal/config"
	"github.com/cascadia-monitoring/streamtrend/internal/model"
	"github.com/cascadia-monitoring/streamtrend/internal/pipeline"
	"github.com/cascadia-monitoring/streamtrend/internal/store"
)

// Server serves datasets and trend summaries.
type Server struct {
	store    store.Store
	analyzer *pipeline.Analyzer
	limiter  *rate.Limiter

	mu    sync.RWMutex
	cache map[string][]model.Observation
}

// New creates a Server.
func New(st store.Store, analyzer *pipeline.Analyzer, cfg config.ServerConfig) *Server {
	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}
	return &Server{
		store:    st,
		analyzer: analyzer,
		limiter:  limiter,
		cache:    make(map[string][]model.Observation),
	}
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get("/datasets", s.handleDatasets)
		r.Get("/trends", s.handleTrends)
	})

	return r
}

// rateLimit rejects requests above the configured rate with 429.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// observations returns a dataset's rows, loading from the store the first
// time a dataset is requested. The cached slice is read-only for the
// lifetime of the process.
func (s *Server) observations(ctx context.Context, dataset string) ([]model.Observation, error) {
	s.mu.RLock()
	obs, ok := s.cache[dataset]
	s.mu.RUnlock()
	if ok {
		return obs, nil
	}

	obs, err := s.store.ListObservations(ctx, dataset)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[dataset] = obs
	s.mu.Unlock()
	return obs, nil
}
