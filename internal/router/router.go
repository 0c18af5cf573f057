package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"g2-yoyodex/internal/handler"
	"g2-yoyodex/internal/logger"
	"g2-yoyodex/internal/middleware"
	"g2-yoyodex/pkg/apierror"
)

// Config holds the configuration for creating a router. Nil handlers leave
// their routes unmounted.
type Config struct {
	Handler        *handler.Handler
	CatalogHandler *handler.CatalogHandler
	SessionHandler *handler.SessionHandler
	SyncHandler    *handler.SyncHandler
	AdminHandler   *handler.AdminHandler
	LoginKey       string
	Logger         *logger.Logger
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "If-None-Match", "X-Request-ID", middleware.LoginKeyHeader},
		ExposedHeaders:   []string{"X-Request-ID", "ETag"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		if h := cfg.CatalogHandler; h != nil {
			r.Route("/items", func(r chi.Router) {
				r.Get("/", h.ListItems)
				r.Route("/{identity}", func(r chi.Router) {
					r.Get("/", h.GetItem)
					r.Put("/annotations/{flag}", h.SetAnnotation)
					r.Delete("/annotations/{flag}", h.ClearAnnotation)
					r.Post("/annotations/{flag}/toggle", h.ToggleAnnotation)
				})
			})
			r.Get("/annotations/counts", h.AnnotationCounts)
			r.Route("/specs", func(r chi.Router) {
				r.Get("/models", h.ListModels)
				r.Get("/compare", h.CompareSpecs)
			})
		}

		if h := cfg.SessionHandler; h != nil {
			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", h.Create)
				r.Get("/{id}", h.Get)
				r.Post("/{id}/actions", h.Apply)
				r.Delete("/{id}", h.Delete)
			})
		}

		if h := cfg.SyncHandler; h != nil {
			r.Get("/sync/status", h.Status)
			r.Post("/sync/refresh", h.Refresh)
		}

		if h := cfg.AdminHandler; h != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.AdminKey(cfg.LoginKey))
				r.Get("/stats", h.GetStats)
				r.Post("/cache/purge", h.PurgeCache)
				r.Post("/cache/sweep", h.SweepCache)
			})
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierror.NotFound("route not found").Write(w)
	})

	return r
}
