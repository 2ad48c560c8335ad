// Package engine composes the category core: the in-memory index, catalog
// orchestration, the codec, encrypted storage, backup fan-out and auditing.
//
// Tree mutations are serialized by one engine-wide lock so the HTTP layer and
// the background schedulers act as a single logical writer.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/audit"
	"github.com/MrSnakeDoc/shelf/internal/backup"
	"github.com/MrSnakeDoc/shelf/internal/catalog"
	"github.com/MrSnakeDoc/shelf/internal/codec"
	"github.com/MrSnakeDoc/shelf/internal/crawler"
	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/index"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/ratings"
	"github.com/MrSnakeDoc/shelf/internal/staleness"
	"github.com/MrSnakeDoc/shelf/internal/storage"
	"github.com/MrSnakeDoc/shelf/internal/tree"
)

// Options carries the collaborators an Engine is built from. Store is
// required; the rest have defaults.
type Options struct {
	Store    *storage.Store
	Crawler  catalog.DirectoryCrawler
	Archives catalog.ArchiveCataloger
	Audit    audit.Sink
	Ratings  *ratings.Registry
}

// Engine is safe for concurrent use.
type Engine struct {
	mu       sync.RWMutex
	index    *index.MemoryIndex
	catalogs *catalog.Orchestrator
	codec    *codec.Codec
	store    *storage.Store
	backups  *backup.FanOut
	audit    audit.Sink
	ratings  *ratings.Registry
	log      logger.Logger
	now      func() time.Time
}

func New(opts Options, log logger.Logger) *Engine {
	e := &Engine{
		index:   index.NewMemoryIndex(),
		codec:   codec.New(log),
		store:   opts.Store,
		backups: backup.NewFanOut(log),
		audit:   opts.Audit,
		ratings: opts.Ratings,
		log:     log,
		now:     time.Now,
	}
	if e.audit == nil {
		e.audit = audit.NewLogSink(log)
	}
	if e.ratings == nil {
		e.ratings = ratings.NewRegistry(ratings.Config{})
	}
	c := opts.Crawler
	if c == nil {
		c = crawler.New(nil, log)
	}
	archives := opts.Archives
	if archives == nil {
		archives = catalog.NewZipCataloger(log)
	}
	e.catalogs = catalog.New(c, archives, catalog.PersistFunc(e.persistLocked), e.audit, log)
	return e
}

func (e *Engine) Index() *index.MemoryIndex         { return e.index }
func (e *Engine) Passwords() *storage.PasswordCache { return e.store.Passwords() }
func (e *Engine) Ratings() *ratings.Registry        { return e.ratings }

// Read runs fn with mutations blocked. fn must not modify the trees.
func (e *Engine) Read(fn func(idx *index.MemoryIndex) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(e.index)
}

// RecentAudit returns the newest events for a category when the configured
// sink keeps history.
func (e *Engine) RecentAudit(ctx context.Context, category string, n int) ([]domain.AuditEvent, error) {
	r, ok := e.audit.(audit.Reader)
	if !ok {
		return nil, nil
	}
	return r.Recent(ctx, category, n)
}

// ─────────────────────────────────────────────────────────────────
// Categories and links
// ─────────────────────────────────────────────────────────────────

// AddCategory registers a new root category and saves it.
func (e *Engine) AddCategory(ctx context.Context, cat *domain.Category) (*tree.Node, error) {
	if strings.TrimSpace(cat.Name) == "" {
		return nil, fmt.Errorf("%w: category name is required", domain.ErrValidation)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.index.GetCategory(cat.Name); ok {
		return nil, fmt.Errorf("%w: category %q already exists", domain.ErrValidation, cat.Name)
	}
	if _, ok := e.store.Find(cat.Name); ok {
		return nil, fmt.Errorf("%w: a file for category %q already exists", domain.ErrValidation, cat.Name)
	}

	now := e.now()
	if cat.CreatedDate.IsZero() {
		cat.CreatedDate = now
	}
	cat.ModifiedDate = now

	node := tree.NewNode(cat)
	e.index.AddCategory(node)
	if err := e.saveLocked(ctx, node); err != nil {
		e.index.DeleteCategory(cat.Name)
		return nil, err
	}
	return node, nil
}

// AddLink appends a Link to a root category and saves it.
func (e *Engine) AddLink(ctx context.Context, category string, link *domain.Link) (*tree.Node, error) {
	if strings.TrimSpace(link.Title) == "" {
		return nil, fmt.Errorf("%w: link title is required", domain.ErrValidation)
	}
	if link.IsCatalogEntry || link.IsPlaceholder {
		return nil, fmt.Errorf("%w: catalog entries are created by cataloging", domain.ErrValidation)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	root, ok := e.index.GetCategory(category)
	if !ok {
		return nil, fmt.Errorf("%w: category %q", domain.ErrNotFound, category)
	}
	now := e.now()
	if link.CreatedDate.IsZero() {
		link.CreatedDate = now
	}
	link.ModifiedDate = now

	node := tree.NewNode(link)
	if err := root.Append(node); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := e.saveLocked(ctx, root); err != nil {
		return node, err
	}
	return node, nil
}

// ─────────────────────────────────────────────────────────────────
// Catalogs
// ─────────────────────────────────────────────────────────────────

// CreateCatalog builds the catalog of the Link with the given node ID.
func (e *Engine) CreateCatalog(ctx context.Context, id string) (*tree.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	node, err := e.nodeLocked(id)
	if err != nil {
		return nil, err
	}
	return e.catalogs.CreateCatalog(ctx, node)
}

// RefreshCatalog rebuilds the catalog of the Link with the given node ID.
func (e *Engine) RefreshCatalog(ctx context.Context, id string, silent bool) (*tree.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	node, err := e.nodeLocked(id)
	if err != nil {
		return nil, err
	}
	return e.catalogs.RefreshCatalog(ctx, node, silent)
}

// ExpandEntry lazily lists one level below a directory catalog entry. The
// result is not saved: levels past the persisted depth are rebuilt on demand.
func (e *Engine) ExpandEntry(ctx context.Context, id string) (*tree.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	node, err := e.nodeLocked(id)
	if err != nil {
		return nil, err
	}
	if err := e.catalogs.ExpandEntry(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// HasChanged runs the strict change check on one directory or archive node.
func (e *Engine) HasChanged(id string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	node, err := e.nodeLocked(id)
	if err != nil {
		return false, err
	}
	if l := node.Link(); l == nil || !(l.IsDirectory || l.IsZipArchive()) {
		return false, fmt.Errorf("%w: %q is not a directory or archive", domain.ErrValidation, node.Title())
	}
	return staleness.HasChanged(node), nil
}

// RemoveCatalog drops a Link's catalog entries and saves the category.
func (e *Engine) RemoveCatalog(ctx context.Context, id string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	node, err := e.nodeLocked(id)
	if err != nil {
		return 0, err
	}
	n := e.catalogs.RemoveCatalogEntries(node)
	if l := node.Link(); l != nil {
		l.CatalogFileCount = 0
		l.CatalogTotalSize = 0
		l.LastCatalogUpdate = time.Time{}
	}
	return n, e.persistLocked(ctx, node)
}

// AutoRefreshTargets returns the node IDs of every Link flagged for
// refresh on startup.
func (e *Engine) AutoRefreshTargets() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var ids []string
	for _, root := range e.index.GetAllCategories() {
		for _, n := range root.Links() {
			l := n.Link()
			if l.AutoRefresh && (l.IsDirectory || l.IsZipArchive()) {
				ids = append(ids, n.ID)
			}
		}
	}
	return ids
}

func (e *Engine) nodeLocked(id string) (*tree.Node, error) {
	n, ok := e.index.FindNode(id)
	if !ok {
		return nil, fmt.Errorf("%w: node %s", domain.ErrNotFound, id)
	}
	return n, nil
}

// ─────────────────────────────────────────────────────────────────
// URL accessibility
// ─────────────────────────────────────────────────────────────────

// URLTarget is one web Link to probe.
type URLTarget struct {
	ID  string
	URL string
}

// URLResult is the outcome of probing a URLTarget.
type URLResult struct {
	ID      string
	Status  domain.URLStatus
	Message string
	Checked time.Time
}

// URLTargets lists every http(s) Link.
func (e *Engine) URLTargets() []URLTarget {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []URLTarget
	for _, root := range e.index.GetAllCategories() {
		for _, n := range root.Links() {
			if l := n.Link(); l.IsWebURL() {
				out = append(out, URLTarget{ID: n.ID, URL: l.URL})
			}
		}
	}
	return out
}

// ApplyURLResults writes probe outcomes onto their Links and saves each
// affected category once. It returns how many categories were saved.
func (e *Engine) ApplyURLResults(ctx context.Context, results []URLResult) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	touched := map[*tree.Node]bool{}
	for _, r := range results {
		n, ok := e.index.FindNode(r.ID)
		if !ok {
			continue
		}
		l := n.Link()
		if l == nil {
			continue
		}
		l.URLStatus = r.Status
		l.URLStatusMessage = r.Message
		l.URLLastChecked = r.Checked
		touched[n.Root()] = true
	}

	var errs []error
	saved := 0
	for root := range touched {
		if err := e.saveLocked(ctx, root); err != nil {
			errs = append(errs, err)
			continue
		}
		saved++
	}
	return saved, errors.Join(errs...)
}
