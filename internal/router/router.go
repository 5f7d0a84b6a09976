package router

import (
	"net/http"

	"github.com/OttoOtter-hub/TyreTerra/internal/handler"
	"github.com/OttoOtter-hub/TyreTerra/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler            *handler.Handler
	UpdateHandler      *handler.UpdateHandler
	AdminHandler       *handler.AdminHandler
	AdminKeyMiddleware func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Admin-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		// Inbound chat updates from the gateway
		if cfg.UpdateHandler != nil {
			r.Post("/updates", cfg.UpdateHandler.Receive)
		}

		// Operator endpoints behind the admin key
		if cfg.AdminHandler != nil {
			r.Group(func(r chi.Router) {
				if cfg.AdminKeyMiddleware != nil {
					r.Use(cfg.AdminKeyMiddleware)
				}
				r.Get("/admin/stats", cfg.AdminHandler.GetStats)
			})
		}
	})

	return r
}
