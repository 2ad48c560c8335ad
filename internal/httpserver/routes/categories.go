package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/handlers"
)

func init() { Register(registerCategories) }

func registerCategories(r chi.Router, d deps.Deps) {
	r.Route("/api/categories", func(r chi.Router) {
		r.Use(timeout(d.RequestTimeout))

		r.With(guarded(d)).Get("/", handlers.ListCategories(d))
		r.With(guarded(d)).Get("/{name}", handlers.GetCategory(d))

		r.Group(func(r chi.Router) {
			r.Use(mutating(d)...)
			r.Post("/", handlers.CreateCategory(d))
			r.Post("/{name}/links", handlers.AddLink(d))
			r.Post("/{name}/save", handlers.SaveCategory(d))
			r.Post("/{name}/backup", handlers.BackupCategory(d))
			r.Post("/{name}/protect", handlers.ProtectCategory(d))
		})
	})
}
