package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

type unlockRequest struct {
	Category string `json:"category"`
	Password string `json:"password"`
}

// Unlock caches a password. Without a category it is the global password
// and every encrypted file it opens is loaded.
func Unlock(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req unlockRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, d, err)
			return
		}
		if err := d.Engine.Unlock(r.Context(), req.Category, req.Password); err != nil {
			d.Logger.Warn("unlock refused",
				logger.String("category", req.Category),
				logger.Error(err))
			writeError(w, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Lock forgets every cached password and unloads protected categories.
func Lock(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := d.Engine.Lock(r.Context())
		writeJSON(w, http.StatusOK, map[string]int{"unloaded": n})
	}
}
