package router

import (
	"net/http"

	"giftlist-api/internal/handler"
	"giftlist-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler         *handler.Handler
	AuthHandler     *handler.AuthHandler
	ListHandler     *handler.ListHandler
	CategoryHandler *handler.CategoryHandler
	ItemHandler     *handler.ItemHandler
	LiveHandler     *handler.LiveHandler
	AdminHandler    *handler.AdminHandler
	AuthMiddleware  func(http.Handler) http.Handler
	AdminKey        string
	Metrics         prometheus.Gatherer
	AllowedOrigins  []string
	Logger          logrus.FieldLogger
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Token", middleware.LoginKeyHeader, handler.ConnectionIDHeader},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}
	if cfg.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Metrics, promhttp.HandlerOpts{}))
	}
	if cfg.LiveHandler != nil {
		r.Get("/ws", cfg.LiveHandler.Serve)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		if cfg.AuthHandler != nil {
			r.Route("/auth", func(r chi.Router) {
				r.Post("/register", cfg.AuthHandler.Register)
				r.Post("/login", cfg.AuthHandler.Login)
				r.Post("/logout", cfg.AuthHandler.Logout)
			})
		}

		// Guest-facing routes
		if cfg.ListHandler != nil {
			r.Get("/lists/{slug}", cfg.ListHandler.GetBySlug)
		}
		if cfg.ItemHandler != nil {
			r.Patch("/items/{id}/reserve", cfg.ItemHandler.Reserve)
		}

		// Owner routes (use Group to apply auth middleware only to these)
		r.Group(func(r chi.Router) {
			if cfg.AuthMiddleware != nil {
				r.Use(cfg.AuthMiddleware)
			}

			if cfg.ListHandler != nil {
				r.Post("/lists", cfg.ListHandler.Create)
				r.Get("/lists/mine", cfg.ListHandler.Mine)
				r.Get("/lists/id/{id}", cfg.ListHandler.Get)
				r.Put("/lists/id/{id}", cfg.ListHandler.Update)
				r.Delete("/lists/id/{id}", cfg.ListHandler.Delete)
			}

			if cfg.CategoryHandler != nil {
				r.Post("/categories", cfg.CategoryHandler.Create)
				r.Put("/categories/{id}", cfg.CategoryHandler.Rename)
				r.Delete("/categories/{id}", cfg.CategoryHandler.Delete)
			}

			if cfg.ItemHandler != nil {
				r.Post("/items", cfg.ItemHandler.Create)
				r.Put("/items/{id}", cfg.ItemHandler.Update)
				r.Delete("/items/{id}", cfg.ItemHandler.Delete)
				r.Patch("/items/{id}/confirm", cfg.ItemHandler.Confirm)
				r.Patch("/items/{id}/cancel", cfg.ItemHandler.Cancel)
			}
		})

		// Operator routes, gated by the login key instead of an owner session
		if cfg.AdminHandler != nil && cfg.AdminKey != "" {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireLoginKey(cfg.AdminKey))
				r.Get("/admin/stats", cfg.AdminHandler.GetStats)
			})
		}
	})

	return r
}
