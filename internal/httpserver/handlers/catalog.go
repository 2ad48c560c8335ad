package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/index"
)

// catalogContext bounds a long catalog operation.
func catalogContext(r *http.Request, d deps.Deps) (context.Context, context.CancelFunc) {
	if d.CatalogOpTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), d.CatalogOpTimeout)
}

// renderNode writes the current view of a node, read under the engine lock.
func renderNode(w http.ResponseWriter, d deps.Deps, id string, status int) {
	var view linkView
	err := d.Engine.Read(func(idx *index.MemoryIndex) error {
		n, ok := idx.FindNode(id)
		if !ok || n.Link() == nil {
			return fmt.Errorf("%w: node %s", domain.ErrNotFound, id)
		}
		view = viewLink(n, d.Engine.Ratings())
		return nil
	})
	if err != nil {
		writeError(w, d, err)
		return
	}
	writeJSON(w, status, view)
}

// CreateCatalog builds the catalog of a Link.
func CreateCatalog(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := catalogContext(r, d)
		defer cancel()

		id := chi.URLParam(r, "id")
		if _, err := d.Engine.CreateCatalog(ctx, id); err != nil {
			writeError(w, d, err)
			return
		}
		renderNode(w, d, id, http.StatusCreated)
	}
}

// RefreshCatalog rebuilds the catalog of a Link. ?silent=true skips
// restoring expansion state.
func RefreshCatalog(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := catalogContext(r, d)
		defer cancel()

		silent, _ := strconv.ParseBool(r.URL.Query().Get("silent"))
		id := chi.URLParam(r, "id")
		if _, err := d.Engine.RefreshCatalog(ctx, id, silent); err != nil {
			writeError(w, d, err)
			return
		}
		renderNode(w, d, id, http.StatusOK)
	}
}

// RemoveCatalog drops a Link's catalog.
func RemoveCatalog(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := d.Engine.RemoveCatalog(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"removed": n})
	}
}

// ExpandEntry lists one more level below a directory catalog entry.
func ExpandEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := catalogContext(r, d)
		defer cancel()

		id := chi.URLParam(r, "id")
		if _, err := d.Engine.ExpandEntry(ctx, id); err != nil {
			writeError(w, d, err)
			return
		}
		renderNode(w, d, id, http.StatusOK)
	}
}

type changedResponse struct {
	ID      string `json:"id"`
	Changed bool   `json:"changed"`
}

// EntryChanged runs the strict change check on one directory node.
func EntryChanged(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		changed, err := d.Engine.HasChanged(id)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, changedResponse{ID: id, Changed: changed})
	}
}

