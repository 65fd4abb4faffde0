// Package api provides the HTTP API server and handlers for the Librum library.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/librumreader/librum-core/internal/ratelimit"
	"github.com/librumreader/librum-core/internal/search"
	"github.com/librumreader/librum-core/internal/service"
	"github.com/librumreader/librum-core/internal/store"
)

// Services groups the business services used by handlers.
type Services struct {
	Book     *service.BookService
	Tag      *service.TagService
	Settings *service.SettingsService
}

// Options configures the server.
type Options struct {
	CORSOrigins []string
	Version     string
	// RateLimiter limits mutating requests per client IP. Nil disables it.
	RateLimiter *ratelimit.KeyedRateLimiter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    store.Store
	index    *search.SearchIndex // nil when search is disabled
	services *Services
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, index *search.SearchIndex, services *Services, opts Options, logger *slog.Logger) *Server {
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	if opts.RateLimiter != nil {
		router.Use(rateLimitMiddleware(opts.RateLimiter, logger))
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	api := humachi.New(router, huma.DefaultConfig("Librum API", opts.Version))
	RegisterErrorHandler()

	s := &Server{
		store:    st,
		index:    index,
		services: services,
		router:   router,
		api:      api,
		logger:   logger,
	}
	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the underlying huma API, used to export the OpenAPI document.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerBookRoutes()
	s.registerTagRoutes()
	s.registerSearchRoutes()
	s.registerSettingsRoutes()
}
