package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/index"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// ListCategories returns one summary per loaded root category.
func ListCategories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var out []categorySummary
		_ = d.Engine.Read(func(idx *index.MemoryIndex) error {
			for _, n := range idx.GetAllCategories() {
				out = append(out, summarize(n))
			}
			return nil
		})
		if out == nil {
			out = []categorySummary{}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GetCategory returns a full category tree with runtime node IDs.
func GetCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		var view categoryView
		err := d.Engine.Read(func(idx *index.MemoryIndex) error {
			n, ok := idx.GetCategory(name)
			if !ok {
				return fmt.Errorf("%w: category %q", domain.ErrNotFound, name)
			}
			view = viewCategory(n, d.Engine.Ratings())
			return nil
		})
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

type createCategoryRequest struct {
	Name                  string   `json:"name"`
	Description           string   `json:"description"`
	Icon                  string   `json:"icon"`
	Keywords              string   `json:"keywords"`
	TagIDs                []int    `json:"tagIds"`
	SortOrder             int      `json:"sortOrder"`
	IsAuditLoggingEnabled bool     `json:"auditLogging"`
	BackupDirectories     []string `json:"backupDirectories"`
}

// CreateCategory adds and saves a new root category.
func CreateCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCategoryRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, d, err)
			return
		}
		n, err := d.Engine.AddCategory(r.Context(), &domain.Category{
			Name:                  req.Name,
			Description:           req.Description,
			Icon:                  req.Icon,
			Keywords:              req.Keywords,
			TagIDs:                req.TagIDs,
			SortOrder:             req.SortOrder,
			IsAuditLoggingEnabled: req.IsAuditLoggingEnabled,
			BackupDirectories:     req.BackupDirectories,
		})
		if err != nil {
			writeError(w, d, err)
			return
		}
		d.Logger.Info("category created", logger.String("category", req.Name))
		writeJSON(w, http.StatusCreated, map[string]string{"id": n.ID})
	}
}

type addLinkRequest struct {
	Title             string            `json:"title"`
	URL               string            `json:"url"`
	Description       string            `json:"description"`
	IsDirectory       bool              `json:"isDirectory"`
	FolderType        domain.FolderType `json:"folderType"`
	FileFilters       string            `json:"fileFilters"`
	AutoRefresh       bool              `json:"autoRefresh"`
	TagIDs            []int             `json:"tagIds"`
	BackupDirectories []string          `json:"backupDirectories"`
}

// AddLink appends a Link to a root category.
func AddLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addLinkRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, d, err)
			return
		}
		n, err := d.Engine.AddLink(r.Context(), chi.URLParam(r, "name"), &domain.Link{
			Title:             req.Title,
			URL:               req.URL,
			Description:       req.Description,
			IsDirectory:       req.IsDirectory,
			FolderType:        req.FolderType,
			FileFilters:       req.FileFilters,
			AutoRefresh:       req.AutoRefresh,
			TagIDs:            req.TagIDs,
			BackupDirectories: req.BackupDirectories,
		})
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": n.ID})
	}
}

// SaveCategory writes a category to disk and its automatic backups.
func SaveCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Engine.SaveCategory(r.Context(), chi.URLParam(r, "name")); err != nil {
			writeError(w, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type backupFailure struct {
	Destination string `json:"destination"`
	Error       string `json:"error"`
}

type backupResponse struct {
	SuccessCount int             `json:"successCount"`
	Failures     []backupFailure `json:"failures"`
}

// BackupCategory copies a category file to its manual destinations.
func BackupCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := d.Engine.ManualBackup(r.Context(), chi.URLParam(r, "name"))
		if err != nil {
			writeError(w, d, err)
			return
		}
		resp := backupResponse{SuccessCount: sum.SuccessCount, Failures: []backupFailure{}}
		for _, f := range sum.Failures {
			resp.Failures = append(resp.Failures, backupFailure{Destination: f.Destination, Error: f.Err.Error()})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type protectRequest struct {
	Mode     domain.PasswordProtection `json:"mode"`
	Password string                    `json:"password"`
}

// ProtectCategory switches a category between plain, global-password and
// own-password storage.
func ProtectCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req protectRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, d, err)
			return
		}
		if err := d.Engine.Protect(r.Context(), chi.URLParam(r, "name"), req.Mode, req.Password); err != nil {
			writeError(w, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
