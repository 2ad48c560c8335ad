// Package staleness detects catalog directories that drifted on disk since
// they were last cataloged.
package staleness

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/crawler"
	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/tree"
)

// Tolerance absorbs filesystem timestamp granularity. It applies to both the
// shallow and the strict check.
const Tolerance = 2 * time.Second

var errChanged = errors.New("changed")

// IsStale is the shallow check: only the directory's own mtime is compared to
// ref. A directory that no longer exists is stale.
func IsStale(entry *domain.Link, ref time.Time) bool {
	info, err := os.Stat(entry.URL)
	if err != nil {
		return true
	}
	return isStaleAt(info.ModTime(), ref)
}

func isStaleAt(mtime, ref time.Time) bool {
	return mtime.After(ref.Add(Tolerance))
}

// Annotate sets CatalogEntryHasChanged on linkNode and on every directory
// catalog entry below it, using the Link's LastCatalogUpdate as reference.
// It returns how many were marked.
func Annotate(linkNode *tree.Node) int {
	l := linkNode.Link()
	if l == nil || l.LastCatalogUpdate.IsZero() {
		return 0
	}
	ref := l.LastCatalogUpdate
	marked := 0

	// entries of an archive have no path on disk; the archive's mtime stands
	// for all of them
	if l.IsZipArchive() {
		stale := IsStale(l, ref)
		linkNode.Walk(func(n *tree.Node) bool {
			e := n.Link()
			if n == linkNode || e == nil {
				return n == linkNode
			}
			if !e.IsCatalogEntry {
				return false
			}
			if e.IsDirectory {
				e.CatalogEntryHasChanged = stale
				if stale {
					marked++
				}
			}
			return true
		})
		return marked
	}

	if l.IsDirectory {
		l.CatalogEntryHasChanged = IsStale(l, ref)
		if l.CatalogEntryHasChanged {
			marked++
		}
	}

	linkNode.Walk(func(n *tree.Node) bool {
		if n == linkNode {
			return true
		}
		e := n.Link()
		if e == nil || !e.IsCatalogEntry {
			return false
		}
		if e.IsDirectory {
			e.CatalogEntryHasChanged = IsStale(e, ref)
			if e.CatalogEntryHasChanged {
				marked++
			}
		}
		return true
	})
	return marked
}

// HasChanged is the strict check for one directory node (a Link or a
// directory catalog entry). It compares the live file count to the stored
// CatalogFileCount and every descendant's mtime to the catalog time. Cost is
// proportional to the subtree size; call it per node, on demand.
func HasChanged(node *tree.Node) bool {
	l := node.Link()
	if l == nil {
		return false
	}
	owner := node.OwnerLink()
	if owner == nil {
		return false
	}
	ol := owner.Link()
	if ol.LastCatalogUpdate.IsZero() {
		return false
	}
	if ol.IsZipArchive() {
		return (l.IsDirectory || node == owner) && IsStale(ol, ol.LastCatalogUpdate)
	}
	if !l.IsDirectory {
		return false
	}

	var patterns []string
	if ol.FolderType == domain.FolderFilteredCatalogue {
		patterns = crawler.ParseFilters(ol.FileFilters)
	}

	info, err := os.Stat(l.URL)
	if err != nil {
		return true
	}
	if isStaleAt(info.ModTime(), ol.LastCatalogUpdate) {
		return true
	}

	count, changed := scan(l.URL, ol.LastCatalogUpdate, patterns)
	if changed {
		return true
	}
	return count != l.CatalogFileCount
}

// scan counts files under root the way the crawler does and stops at the
// first entry newer than ref.
func scan(root string, ref time.Time, patterns []string) (int, bool) {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are skipped by the crawler too
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		if d.IsDir() {
			if crawler.IsSkippedDir(d.Name()) {
				return filepath.SkipDir
			}
		} else if !crawler.MatchesFilters(patterns, d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if isStaleAt(info.ModTime(), ref) {
			return errChanged
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	return count, errors.Is(err, errChanged)
}
