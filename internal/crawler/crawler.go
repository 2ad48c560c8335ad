// Package crawler turns a directory on disk into catalog entries.
//
// Crawls fail softly: an entry that cannot be stat'ed or a subdirectory that
// cannot be listed is recorded in the Report and skipped. Only a failure to
// list the top-level directory, or a cancelled context, aborts the crawl.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/tree"
)

// MaterializeDepth is how many catalog levels a full crawl builds as nodes.
// Deeper directories only contribute to their ancestors' aggregates and are
// listed lazily with CrawlSubdirectory.
const MaterializeDepth = 2

// Report is the outcome of one crawl.
type Report struct {
	Entries   []*tree.Node
	FileCount int
	TotalSize int64
	Skipped   []*domain.CrawlEntryError

	// Encrypted is set by archive listings that met password-protected entries.
	Encrypted bool
}

// Options tune a single crawl.
type Options struct {
	// Filters is a ';' or ',' separated list of glob patterns (e.g. "*.pdf;*.jpg").
	// Empty means every file. Directories are never filtered.
	Filters string

	// CategoryPath is only used to give log lines context.
	CategoryPath string
}

// Crawler lists directories. It holds no state between calls.
type Crawler struct {
	describe DescriptionGenerator
	log      logger.Logger
}

// New returns a Crawler. describe may be nil.
func New(describe DescriptionGenerator, log logger.Logger) *Crawler {
	return &Crawler{describe: describe, log: log}
}

// Crawl catalogs dir recursively. Entries are materialized MaterializeDepth
// levels deep; aggregates on every directory entry cover all descendants.
func (c *Crawler) Crawl(ctx context.Context, dir string, opts Options) (*Report, error) {
	return c.run(ctx, dir, opts, MaterializeDepth)
}

// CrawlSubdirectory lists one level of dir. Subdirectory entries still carry
// full aggregates but no children.
func (c *Crawler) CrawlSubdirectory(ctx context.Context, dir string, opts Options) (*Report, error) {
	return c.run(ctx, dir, opts, 1)
}

func (c *Crawler) run(ctx context.Context, dir string, opts Options, depth int) (*Report, error) {
	w := &walk{
		ctx:      ctx,
		crawler:  c,
		patterns: ParseFilters(opts.Filters),
	}
	entries, count, size, err := w.dir(dir, depth)
	if err != nil {
		c.log.Error("catalog crawl aborted",
			logger.String("dir", dir),
			logger.String("category", opts.CategoryPath),
			logger.Error(err))
		if errors.Is(err, domain.ErrCrawlAborted) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCrawlAborted, dir, err)
	}

	if len(w.skipped) > 0 {
		c.log.Warn("catalog crawl skipped entries",
			logger.String("dir", dir),
			logger.String("category", opts.CategoryPath),
			logger.Int("skipped", len(w.skipped)))
	}

	return &Report{
		Entries:   entries,
		FileCount: count,
		TotalSize: size,
		Skipped:   w.skipped,
	}, nil
}

type walk struct {
	ctx      context.Context
	crawler  *Crawler
	patterns []string
	skipped  []*domain.CrawlEntryError
}

// dir lists path, returning materialized entries (when depth > 0) and the
// file count and byte total of the whole subtree.
func (w *walk) dir(path string, depth int) ([]*tree.Node, int, int64, error) {
	if err := w.ctx.Err(); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", domain.ErrCrawlAborted, err)
	}

	items, err := os.ReadDir(path)
	if err != nil && len(items) == 0 {
		return nil, 0, 0, err
	}
	if err != nil {
		// partial listing, keep what we got
		w.skip(path, "partial listing", err)
	}

	var (
		dirs, files []*tree.Node
		count       int
		size        int64
	)

	for _, item := range items {
		name := item.Name()
		full := filepath.Join(path, name)

		if item.IsDir() {
			if IsSkippedDir(name) {
				continue
			}
			info, err := item.Info()
			if err != nil {
				w.skip(full, "stat", err)
				continue
			}

			children, subCount, subSize, err := w.dir(full, depth-1)
			if err != nil {
				if errors.Is(err, domain.ErrCrawlAborted) {
					return nil, 0, 0, err
				}
				w.skip(full, "list", err)
				continue
			}
			count += subCount
			size += subSize

			if depth <= 0 {
				continue
			}
			link := &domain.Link{
				Title:            name,
				URL:              full,
				IsCatalogEntry:   true,
				IsDirectory:      true,
				ModifiedDate:     info.ModTime(),
				CatalogFileCount: subCount,
				CatalogTotalSize: subSize,
			}
			node := tree.NewNode(link)
			for _, ch := range children {
				if err := node.Append(ch); err != nil {
					w.skip(ch.Link().URL, "attach", err)
				}
			}
			dirs = append(dirs, node)
			continue
		}

		if !MatchesFilters(w.patterns, name) {
			continue
		}
		info, err := item.Info()
		if err != nil {
			w.skip(full, "stat", err)
			continue
		}
		count++
		size += info.Size()

		if depth <= 0 {
			continue
		}
		link := &domain.Link{
			Title:          name,
			URL:            full,
			IsCatalogEntry: true,
			ModifiedDate:   info.ModTime(),
			Description:    w.crawler.describeFile(full),
		}
		link.SetSize(info.Size())
		files = append(files, tree.NewNode(link))
	}

	return append(dirs, files...), count, size, nil
}

func (w *walk) skip(path, reason string, err error) {
	w.crawler.log.Debug("skipping catalog entry",
		logger.String("path", path),
		logger.String("reason", reason),
		logger.Error(err))
	w.skipped = append(w.skipped, &domain.CrawlEntryError{Path: path, Reason: reason, Err: err})
}

// ParseFilters splits a user-entered filter list into lowercase glob patterns.
func ParseFilters(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ',' || r == '|'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// MatchesFilters reports whether name passes the parsed patterns.
func MatchesFilters(patterns []string, name string) bool {
	if len(patterns) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, lower); ok {
			return true
		}
	}
	return false
}
