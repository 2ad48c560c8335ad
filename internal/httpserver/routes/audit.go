package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/handlers"
)

func init() { Register(registerAudit) }

func registerAudit(r chi.Router, d deps.Deps) {
	r.With(guarded(d), timeout(d.RequestTimeout)).Get("/api/audit", handlers.Audit(d))
}
