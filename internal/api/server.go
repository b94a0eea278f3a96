package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mwantia/gocard/internal/cache"
	"github.com/mwantia/gocard/internal/connectivity"
	"github.com/mwantia/gocard/internal/preload"
	"github.com/mwantia/gocard/internal/router"
	"github.com/mwantia/gocard/pkg/log"
	"github.com/mwantia/gocard/pkg/readiness"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the components served by the local API.
type Deps struct {
	Router      *router.Router
	Cache       *cache.Manager
	Preload     *preload.Coordinator
	Gate        *readiness.Gate
	Signal      connectivity.Signal
	Health      func(ctx context.Context) error
	WaitTimeout time.Duration
	Log         log.LoggerService
}

type Server struct {
	deps Deps
	log  log.LoggerService
}

func NewServer(deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = log.NewNopLogger()
	}
	if deps.WaitTimeout <= 0 {
		deps.WaitTimeout = 5 * time.Second
	}
	return &Server{deps: deps, log: deps.Log}
}

// Handler returns the complete router including middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	s.RegisterHTTP(r)
	return r
}

func (s *Server) RegisterHTTP(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/content/{hash}", s.handleContent)
		r.Get("/metadata/{hash}", s.handleMetadata)
		r.Get("/search", s.handleSearch)
		r.Get("/stats", s.handleStats)
		r.Get("/ready", s.handleReady)
		r.Post("/preload", s.handlePreload)
		r.Delete("/cache", s.handleClear)
		r.Delete("/cache/{hash}", s.handleDelete)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
