// Package rest wires the HTTP surface of the service.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"partdocs/infrastructure/config"
	"partdocs/interfaces/http/rest/handlers"
	"partdocs/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg    *config.Config
	titles *handlers.TitleHandler
	logger *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, titles *handlers.TitleHandler, logger *zap.Logger) *Router {
	return &Router{
		cfg:    cfg,
		titles: titles,
		logger: logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-Match", "X-Request-ID"},
			ExposedHeaders:   []string{"ETag", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		if rt.cfg.EnableAuth {
			r.Use(middleware.Authenticate(rt.cfg.JWTSecret, rt.cfg.JWTIssuer))
		}

		r.Route("/titles", func(r chi.Router) {
			r.Post("/", rt.titles.CreateTitle)
			r.Get("/", rt.titles.ListTitles)
			r.Get("/{titleID}", rt.titles.GetTitle)
			r.Put("/{titleID}", rt.titles.ReplaceTitle)
			r.Delete("/{titleID}", rt.titles.DeleteTitle)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
