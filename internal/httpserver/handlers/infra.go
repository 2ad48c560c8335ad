package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/index"
)

type componentStatus struct {
	OK               bool   `json:"ok"`
	CategoriesLoaded *int   `json:"categories_loaded,omitempty"`
	LastReload       string `json:"last_reload,omitempty"`
	Mode             string `json:"mode,omitempty"`
	Impact           string `json:"impact,omitempty"`
	Error            string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var count int
		var lastReload time.Time
		_ = d.Engine.Read(func(idx *index.MemoryIndex) error {
			count = idx.Count()
			lastReload = idx.GetLastReload()
			return nil
		})
		lastReloadStr := "never"
		if !lastReload.IsZero() {
			lastReloadStr = lastReload.Format("2006-01-02 15:04:05")
		}

		passwords := componentStatus{OK: true, Mode: "locked"}
		if d.Engine.Passwords().HasGlobal() {
			passwords.Mode = "unlocked"
		}

		components := map[string]componentStatus{
			"categories": {
				OK:               !lastReload.IsZero(),
				CategoriesLoaded: &count,
				LastReload:       lastReloadStr,
			},
			"redis":     checkRedis(r.Context(), d),
			"passwords": passwords,
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if c, ok := components["categories"]; ok && !c.OK {
		return "critical"
	}
	// Redis only backs audit history
	if c, ok := components["redis"]; ok && !c.OK {
		return "degraded"
	}
	return "operational"
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "audit-history-in-memory-only",
			Error:  "client not initialized",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "audit-history-in-memory-only",
			Error:  "timeout",
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "audit-history-persisted",
		Error:  "none",
	}
}
