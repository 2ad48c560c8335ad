package handlers

import (
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
)

// Audit lists the most recent audit events of a category, newest first.
func Audit(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		category := q.Get("category")
		if category == "" {
			writeError(w, d, domain.ErrValidation)
			return
		}
		n := d.AuditRecentLimit
		if raw := q.Get("n"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v < 0 {
				writeError(w, d, domain.ErrValidation)
				return
			}
			n = v
		}

		events, err := d.Engine.RecentAudit(r.Context(), category, n)
		if err != nil {
			writeError(w, d, err)
			return
		}
		if events == nil {
			events = []domain.AuditEvent{}
		}
		writeJSON(w, http.StatusOK, events)
	}
}
