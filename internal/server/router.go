package server

import (
	"net/http"

	"github.com/cloo-solutions/sophia/internal/api"
	"github.com/cloo-solutions/sophia/internal/api/handlers"
	"github.com/cloo-solutions/sophia/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	APIToken        string
	DocumentHandler *handlers.DocumentHandler
	WorkflowHandler *handlers.WorkflowHandler
	RunHandler      *handlers.RunHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.APIToken))

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", cfg.DocumentHandler.Index)
			r.Delete("/{id}", cfg.DocumentHandler.Delete)
		})
		r.Post("/search", cfg.DocumentHandler.Search)

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", cfg.WorkflowHandler.ListTemplates)
			r.Post("/suggest", cfg.WorkflowHandler.SuggestTemplate)
		})
		r.Post("/workflows/generate", cfg.WorkflowHandler.Generate)

		r.Route("/runs", func(r chi.Router) {
			r.Post("/", cfg.RunHandler.Run)
			r.Post("/retry", cfg.RunHandler.Retry)
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/", cfg.RunHandler.ListHistory)
			r.Get("/record", cfg.RunHandler.GetHistory)
		})
	})

	return r
}
