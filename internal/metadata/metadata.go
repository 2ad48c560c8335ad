// Package metadata carries user-authored tags and ratings across a catalog
// rebuild.
//
// Entries are matched by title path from the owning Link down, compared
// case-insensitively. A file renamed between refreshes looks like a delete
// plus a create and loses its metadata.
package metadata

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/tree"
)

// Entry is the metadata preserved for one catalog entry.
type Entry struct {
	TagIDs  []int
	Ratings []domain.RatingValue
}

// Snapshot maps title-path keys to preserved metadata. Only entries that had
// tags or ratings are present.
type Snapshot map[string]Entry

type keyer struct {
	fold cases.Caser
}

func newKeyer() *keyer {
	return &keyer{fold: cases.Fold()}
}

// child extends parent with one title segment.
func (k *keyer) child(parent, title string) string {
	seg := k.fold.String(title)
	if parent == "" {
		return seg
	}
	return parent + "/" + seg
}

// Key builds the title-path key for a sequence of titles, Link title first.
func Key(titles ...string) string {
	k := newKeyer()
	key := ""
	for _, t := range titles {
		key = k.child(key, t)
	}
	return key
}

// Extract records the metadata of every catalog entry under linkNode that has
// tags or ratings.
func Extract(linkNode *tree.Node) Snapshot {
	snap := Snapshot{}
	k := newKeyer()
	visitEntries(k, linkNode, k.child("", linkNode.Title()), func(key string, n *tree.Node) {
		l := n.Link()
		if !l.HasMetadata() {
			return
		}
		snap[key] = Entry{
			TagIDs:  slices.Clone(l.TagIDs),
			Ratings: slices.Clone(l.Ratings),
		}
	})
	return snap
}

// Restore overwrites tags and ratings on every rebuilt entry whose key is in
// snap, and returns how many entries were restored.
func Restore(linkNode *tree.Node, snap Snapshot) int {
	if len(snap) == 0 {
		return 0
	}
	restored := 0
	k := newKeyer()
	visitEntries(k, linkNode, k.child("", linkNode.Title()), func(key string, n *tree.Node) {
		e, ok := snap[key]
		if !ok {
			return
		}
		l := n.Link()
		l.TagIDs = slices.Clone(e.TagIDs)
		l.Ratings = slices.Clone(e.Ratings)
		restored++
	})
	return restored
}

// Expanded returns the keys of expanded nodes under linkNode, linkNode included.
func Expanded(linkNode *tree.Node) map[string]bool {
	out := map[string]bool{}
	k := newKeyer()
	root := k.child("", linkNode.Title())
	if linkNode.Expanded {
		out[root] = true
	}
	visitEntries(k, linkNode, root, func(key string, n *tree.Node) {
		if n.Expanded {
			out[key] = true
		}
	})
	return out
}

// RestoreExpanded re-applies expansion state captured by Expanded.
func RestoreExpanded(linkNode *tree.Node, keys map[string]bool) {
	k := newKeyer()
	root := k.child("", linkNode.Title())
	if keys[root] {
		linkNode.Expanded = true
	}
	visitEntries(k, linkNode, root, func(key string, n *tree.Node) {
		if keys[key] {
			n.Expanded = true
		}
	})
}

// visitEntries walks catalog entries depth-first, parents before children.
func visitEntries(k *keyer, n *tree.Node, prefix string, fn func(string, *tree.Node)) {
	for _, c := range n.Children() {
		if !c.IsCatalogEntry() {
			continue
		}
		key := k.child(prefix, c.Title())
		fn(key, c)
		visitEntries(k, c, key, fn)
	}
}

// Normalize is exposed for callers comparing titles the way keys do.
func Normalize(title string) string {
	return strings.TrimSpace(cases.Fold().String(title))
}
