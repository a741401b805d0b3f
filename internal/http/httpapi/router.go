package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"docgen/internal/http/handlers"
	"docgen/internal/middleware"
)

// NewRouter assembles the admin API routes.
func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(app.Logger))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)

		r.Route("/tenants/{tenantID}/documents", func(r chi.Router) {
			r.Get("/", app.ListDocuments)
			r.Get("/{documentID}", app.GetDocument)
			r.Delete("/{documentID}", app.DeleteDocument)
			r.Get("/{documentID}/artifacts", app.ListArtifacts)
			r.Get("/{documentID}/artifacts/{artifactID}/download", app.DownloadArtifact)
		})
	})

	return r
}
