package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/atxp-dev/atxp-image-demo/internal/api"
	apiMiddleware "github.com/atxp-dev/atxp-image-demo/internal/api/middleware"
	"github.com/atxp-dev/atxp-image-demo/web"
)

// setupRouter configures the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace)

	submissionHandler := api.NewSubmissionHandler(app.submissions, app.credResolver, app.logger)
	progressHandler := api.NewProgressHandler(app.hub, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/submissions", submissionHandler.Create)
		r.Get("/tasks", submissionHandler.List)
		r.Get("/tasks/{id}", submissionHandler.Get)
		r.Get("/progress", progressHandler.Stream)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	// Demo page and assets.
	r.Handle("/*", http.FileServer(http.FS(web.Static())))

	return r
}
