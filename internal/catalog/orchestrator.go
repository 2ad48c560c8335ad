// Package catalog builds and refreshes the catalogs of directory and archive
// Links.
//
// The Orchestrator does no locking: callers must not run two operations on
// the same Link concurrently. On error a transient placeholder may be left
// under the Link; running RefreshCatalog again recovers.
package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/audit"
	"github.com/MrSnakeDoc/shelf/internal/crawler"
	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/metadata"
	"github.com/MrSnakeDoc/shelf/internal/tree"
)

// DirectoryCrawler is the part of crawler.Crawler the Orchestrator needs.
type DirectoryCrawler interface {
	Crawl(ctx context.Context, dir string, opts crawler.Options) (*crawler.Report, error)
	CrawlSubdirectory(ctx context.Context, dir string, opts crawler.Options) (*crawler.Report, error)
}

// Persister saves the category that owns a node.
type Persister interface {
	SaveCategory(ctx context.Context, node *tree.Node) error
}

// PersistFunc adapts a function to Persister.
type PersistFunc func(ctx context.Context, node *tree.Node) error

func (f PersistFunc) SaveCategory(ctx context.Context, node *tree.Node) error { return f(ctx, node) }

// Orchestrator drives catalog create, refresh and lazy expansion.
type Orchestrator struct {
	crawler  DirectoryCrawler
	archives ArchiveCataloger
	persist  Persister
	audit    audit.Sink
	log      logger.Logger
	now      func() time.Time
}

// New wires an Orchestrator. archives, persist and sink may be nil.
func New(c DirectoryCrawler, archives ArchiveCataloger, persist Persister, sink audit.Sink, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		crawler:  c,
		archives: archives,
		persist:  persist,
		audit:    sink,
		log:      log,
		now:      time.Now,
	}
}

// HasCatalogEntries reports whether node has at least one catalog-entry child.
func (o *Orchestrator) HasCatalogEntries(node *tree.Node) bool {
	for _, c := range node.Children() {
		if c.IsCatalogEntry() {
			return true
		}
	}
	return false
}

// RemoveCatalogEntries drops every catalog-entry child of node and returns
// how many were removed.
func (o *Orchestrator) RemoveCatalogEntries(node *tree.Node) int {
	return node.RemoveWhere(func(c *tree.Node) bool { return c.IsCatalogEntry() })
}

// CreateCatalog builds the catalog of a Link that has none yet. It returns
// the node that replaced node in the tree.
func (o *Orchestrator) CreateCatalog(ctx context.Context, node *tree.Node) (*tree.Node, error) {
	const op = "create catalog"

	if err := checkTarget(node); err != nil {
		return nil, o.fail(op, node, err)
	}
	if o.HasCatalogEntries(node) {
		return nil, o.fail(op, node, domain.ErrCatalogExists)
	}

	placeholder := tree.NewNode(domain.NewPlaceholder())
	if err := node.Append(placeholder); err != nil {
		return nil, o.fail(op, node, err)
	}

	rep, err := o.build(ctx, node)
	if err != nil {
		return nil, o.fail(op, node, err)
	}
	node.Remove(placeholder)

	fresh, err := o.finalize(ctx, node, rep, domain.AuditCatalogCreated)
	if err != nil {
		return fresh, o.fail(op, node, err)
	}
	return fresh, nil
}

// RefreshCatalog rebuilds a Link's catalog, keeping tags and ratings of
// entries that still exist. Without a catalog it behaves like CreateCatalog.
// silent skips restoring expansion state, for background refreshes.
func (o *Orchestrator) RefreshCatalog(ctx context.Context, node *tree.Node, silent bool) (*tree.Node, error) {
	const op = "refresh catalog"

	if err := checkTarget(node); err != nil {
		return nil, o.fail(op, node, err)
	}

	expanded := metadata.Expanded(node)
	snap := metadata.Extract(node)
	// leftovers of an earlier failed run
	node.RemoveWhere(func(c *tree.Node) bool { return c.IsPlaceholder() })
	o.RemoveCatalogEntries(node)

	placeholder := tree.NewNode(domain.NewPlaceholder())
	if err := node.Append(placeholder); err != nil {
		return nil, o.fail(op, node, err)
	}

	rep, err := o.build(ctx, node)
	if err != nil {
		return nil, o.fail(op, node, err)
	}
	restored := metadata.Restore(node, snap)
	node.Remove(placeholder)

	if lost := len(snap) - restored; lost > 0 {
		o.log.Info("catalog entries with metadata disappeared",
			logger.String("link", node.Title()),
			logger.Int("lost", lost))
	}

	fresh, err := o.finalize(ctx, node, rep, domain.AuditCatalogRefresh)
	if fresh != nil && !silent {
		metadata.RestoreExpanded(fresh, expanded)
	}
	if err != nil {
		return fresh, o.fail(op, node, err)
	}
	return fresh, nil
}

// ExpandEntry lists one level below a directory catalog entry. Existing
// children are replaced; their tags and ratings are kept.
func (o *Orchestrator) ExpandEntry(ctx context.Context, entry *tree.Node) error {
	const op = "expand entry"

	l := entry.Link()
	if l == nil || !l.IsCatalogEntry || !l.IsDirectory {
		return o.fail(op, entry, fmt.Errorf("%w: not a directory catalog entry", domain.ErrValidation))
	}
	owner := entry.OwnerLink()
	if owner == nil {
		return o.fail(op, entry, fmt.Errorf("%w: entry has no owning link", domain.ErrValidation))
	}
	ol := owner.Link()

	var (
		rep *crawler.Report
		err error
	)
	if ol.IsZipArchive() {
		if o.archives == nil {
			return o.fail(op, entry, fmt.Errorf("%w: no archive cataloger", domain.ErrCrawlAborted))
		}
		inner := strings.TrimPrefix(strings.TrimPrefix(l.URL, ol.URL), "/")
		rep, err = o.archives.CatalogArchive(ctx, ol.URL, inner, 1)
	} else {
		rep, err = o.crawler.CrawlSubdirectory(ctx, l.URL, crawlOptions(entry, ol))
	}
	if err != nil {
		return o.fail(op, entry, err)
	}

	snap := metadata.Extract(entry)
	o.RemoveCatalogEntries(entry)
	for _, c := range rep.Entries {
		if err := entry.Append(c); err != nil {
			return o.fail(op, entry, err)
		}
	}
	metadata.Restore(entry, snap)

	l.CatalogFileCount = rep.FileCount
	l.CatalogTotalSize = rep.TotalSize
	l.CatalogEntryHasChanged = false
	entry.Expanded = true
	return nil
}

// build crawls the Link's target and attaches the entries under node.
func (o *Orchestrator) build(ctx context.Context, node *tree.Node) (*crawler.Report, error) {
	l := node.Link()

	var (
		rep *crawler.Report
		err error
	)
	if l.IsZipArchive() && fileExists(l.URL) {
		if o.archives == nil {
			return nil, fmt.Errorf("%w: no archive cataloger", domain.ErrCrawlAborted)
		}
		rep, err = o.archives.CatalogArchive(ctx, l.URL, "", crawler.MaterializeDepth)
		if err == nil {
			l.ZipPasswordProtected = rep.Encrypted
		}
	} else {
		rep, err = o.crawler.Crawl(ctx, l.URL, crawlOptions(node, l))
	}
	if err != nil {
		return nil, err
	}

	for _, c := range rep.Entries {
		if err := node.Append(c); err != nil {
			return nil, err
		}
	}
	return rep, nil
}

// finalize stamps the Link, swaps its node so observers refresh, persists
// the owning category and records the audit event.
func (o *Orchestrator) finalize(ctx context.Context, node *tree.Node, rep *crawler.Report, action string) (*tree.Node, error) {
	l := node.Link()
	now := o.now()
	l.LastCatalogUpdate = now
	l.ModifiedDate = now
	l.CatalogFileCount = rep.FileCount
	l.CatalogTotalSize = rep.TotalSize
	l.CatalogEntryHasChanged = false

	fresh := node.ReplaceWith()

	o.log.Info("catalog updated",
		logger.String("link", l.Title),
		logger.Int("files", rep.FileCount),
		logger.Int64("bytes", rep.TotalSize),
		logger.Int("skipped", len(rep.Skipped)))

	if o.persist != nil && fresh.NearestCategory() != nil {
		if err := o.persist.SaveCategory(ctx, fresh); err != nil {
			return fresh, err
		}
	}

	if cat := fresh.NearestCategory(); cat != nil {
		audit.ForCategory(ctx, o.audit, cat.Category(), action,
			fmt.Sprintf("%s: %d files", l.Title, rep.FileCount))
	}
	return fresh, nil
}

// fail logs an operation error with its target and hands it back.
func (o *Orchestrator) fail(op string, node *tree.Node, err error) error {
	o.log.Error("catalog operation failed",
		logger.String("op", op),
		logger.String("title", node.Title()),
		logger.Error(err))
	return err
}

func checkTarget(node *tree.Node) error {
	l := node.Link()
	if l == nil {
		return fmt.Errorf("%w: %q is not a link", domain.ErrValidation, node.Title())
	}
	if l.IsCatalogEntry || l.IsPlaceholder {
		return fmt.Errorf("%w: %q is a catalog entry", domain.ErrValidation, node.Title())
	}
	return nil
}

func crawlOptions(node *tree.Node, owner *domain.Link) crawler.Options {
	opts := crawler.Options{}
	if owner.FolderType == domain.FolderFilteredCatalogue {
		opts.Filters = owner.FileFilters
	}
	if cat := node.NearestCategory(); cat != nil {
		opts.CategoryPath = categoryPath(cat)
	}
	return opts
}

// categoryPath is "Root/Sub/Leaf" for log context.
func categoryPath(n *tree.Node) string {
	var parts []string
	for p := n; p != nil; p = p.Parent() {
		if c := p.Category(); c != nil {
			parts = append([]string{c.Name}, parts...)
		}
	}
	return strings.Join(parts, "/")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
