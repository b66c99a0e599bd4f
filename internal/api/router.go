// Package api provides the HTTP API for the grow cycle service.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/growhub/growhub/internal/api/handlers"
	"github.com/growhub/growhub/internal/auth"
	"github.com/growhub/growhub/pkg/metrics"
)

// RouterConfig holds optional router collaborators.
type RouterConfig struct {
	AuthMiddleware *auth.Middleware
	Metrics        *metrics.Registry
	RequestTimeout time.Duration
}

// NewRouter creates a Chi router with all routes and default middleware.
func NewRouter(h *handlers.Handler) chi.Router {
	return NewRouterWithConfig(h, RouterConfig{})
}

// NewRouterWithConfig creates a Chi router with optional collaborators wired
// into the middleware chain.
func NewRouterWithConfig(h *handlers.Handler, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(jsonContentType)
	if cfg.Metrics != nil {
		r.Use(metrics.HTTPMiddleware(cfg.Metrics))
	}

	// Health and metrics stay outside authentication.
	r.Get("/health", h.Health)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware.Authenticate)
		}

		r.Route("/programs", func(r chi.Router) {
			r.Post("/", h.CreateProgram)
			r.Get("/", h.ListPrograms)
			r.Get("/{id}", h.GetProgram)
		})

		r.Route("/cycles", func(r chi.Router) {
			r.Post("/", h.StartCycle)
			r.Get("/", h.ListCycles)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetCycle)
				r.Post("/pause", h.PauseCycle)
				r.Post("/resume", h.ResumeCycle)
				r.Post("/complete", h.CompleteCycle)
				r.Post("/abort", h.AbortCycle)
				r.Post("/evaluate", h.EvaluateCycle)
			})
		})

		r.Route("/modules/{moduleId}", func(r chi.Router) {
			r.Get("/state", h.GetModuleState)
			r.Get("/cycle", h.GetModuleActiveCycle)
		})
	})

	return r
}

// jsonContentType is middleware that sets the Content-Type header to application/json.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
