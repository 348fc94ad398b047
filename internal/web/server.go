// Package web provides the JSON HTTP API for listings, login and ingestion.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/estates/internal/auth"
	"github.com/JonMunkholm/estates/internal/config"
	"github.com/JonMunkholm/estates/internal/core"
	"github.com/JonMunkholm/estates/internal/logging"
	"github.com/JonMunkholm/estates/internal/web/middleware"
)

// MaxBodySize caps JSON request bodies (1MB).
const MaxBodySize = 1 << 20

// BuildingService is the part of *core.Service used by the handlers.
type BuildingService interface {
	Ping(ctx context.Context) error
	Get(ctx context.Context, id int32) (*core.Building, error)
	Search(ctx context.Context, q core.SearchQuery) (*core.SearchResult, error)
	Create(ctx context.Context, in core.BuildingCreate) (*core.Building, error)
	Update(ctx context.Context, id int32, in core.BuildingUpdate) (*core.Building, error)
}

// IngestTrigger starts an ad-hoc ingestion run. *core.Scheduler satisfies it.
type IngestTrigger interface {
	TriggerNow(ctx context.Context) (core.RunSummary, error)
}

// Server is the HTTP server of the listings API.
type Server struct {
	buildings BuildingService
	ingest    IngestTrigger
	accounts  *auth.Authenticator
	tokens    *auth.JWTManager
	cfg       *config.Config
	router    *chi.Mux
	server    *http.Server
}

// NewServer wires the router. ingest may be nil when ingestion is disabled.
func NewServer(buildings BuildingService, ingest IngestTrigger, accounts *auth.Authenticator, tokens *auth.JWTManager, cfg *config.Config) *Server {
	s := &Server{
		buildings: buildings,
		ingest:    ingest,
		accounts:  accounts,
		tokens:    tokens,
		cfg:       cfg,
		router:    chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Metrics)
	s.router.Use(chimiddleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(chimiddleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)

	if len(s.cfg.Security.CORSAllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.Security.CORSAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:         86400,
		}))
	}

	if s.cfg.Rate.Enabled {
		s.router.Use(s.rateLimit(s.cfg.Rate.RequestsPerMinute))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	requireToken := middleware.BearerAuth(s.tokens, s.cfg.Auth.Required)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if s.cfg.Rate.Enabled {
				r.Use(s.rateLimit(s.cfg.Rate.LoginLimit))
			}
			r.Post("/auth/login", s.handleLogin)
		})

		r.Get("/buildings/search", s.handleSearchBuildings)
		r.Get("/buildings/{id}", s.handleGetBuilding)
		r.Get("/properties/{id}", s.handleGetBuilding)

		r.Group(func(r chi.Router) {
			r.Use(requireToken)
			r.Post("/buildings", s.handleCreateBuilding)
			r.Put("/buildings/{id}", s.handleUpdateBuilding)
			r.Post("/ingest/run", s.handleIngestRun)
		})
	})
}

// rateLimit limits requests per client IP and minute.
func (s *Server) rateLimit(perMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			s.respondError(w, r, errRateLimited)
		}),
	)
}

// ListenAndServe starts the HTTP server on the configured address.
func (s *Server) ListenAndServe() error {
	slog.Info("server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}
