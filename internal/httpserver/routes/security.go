package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/mw"
)

func init() { Register(registerSecurity) }

func registerSecurity(r chi.Router, d deps.Deps) {
	perMin := d.UnlockRatePerMin
	if perMin <= 0 {
		perMin = 10
	}
	unlockLimit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             perMin,
		RefillPerIPPerMin: perMin,
		MaxEntries:        10_000,
		IdleTTL:           15 * time.Minute,
		TrustProxy:        d.TrustProxy,
	})

	r.Group(func(r chi.Router) {
		r.Use(mutating(d)...)
		r.Use(timeout(d.RequestTimeout))
		r.With(unlockLimit).Post("/api/unlock", handlers.Unlock(d))
		r.Post("/api/lock", handlers.Lock(d))
	})
}
