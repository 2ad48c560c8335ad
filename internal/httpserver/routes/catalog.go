package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/handlers"
)

func init() { Register(registerCatalog) }

// Catalog operations walk the filesystem; their bound is CatalogOpTimeout.
func registerCatalog(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mutating(d)...)
		r.Post("/api/links/{id}/catalog", handlers.CreateCatalog(d))
		r.Post("/api/links/{id}/refresh", handlers.RefreshCatalog(d))
		r.Delete("/api/links/{id}/catalog", handlers.RemoveCatalog(d))
		r.Post("/api/entries/{id}/expand", handlers.ExpandEntry(d))
	})
	r.With(guarded(d), timeout(d.CatalogOpTimeout)).Get("/api/entries/{id}/changed", handlers.EntryChanged(d))
}
