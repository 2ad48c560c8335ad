package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/handlers"
)

func init() { Register(registerHealth) }

func registerHealth(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
	r.With(guarded(d)).Get("/readyz", handlers.Readyz(d))
	r.With(guarded(d), timeout(d.RequestTimeout)).Get("/infra", handlers.Infra(d))
}
