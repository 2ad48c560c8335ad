package index

import (
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/metadata"
	"github.com/MrSnakeDoc/shelf/internal/tree"
)

// MemoryIndex holds the loaded root categories and resolves runtime node IDs.
// Names are compared case-insensitively, like category filenames.
type MemoryIndex struct {
	mu         sync.RWMutex
	roots      map[string]*tree.Node // folded name -> root category node
	lastReload time.Time             // Timestamp of last full load
}

// NewMemoryIndex creates an empty index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		roots: make(map[string]*tree.Node),
	}
}

// UpdateCategories replaces all root categories in the index
func (idx *MemoryIndex) UpdateCategories(roots []*tree.Node) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	// Clear and rebuild
	idx.roots = make(map[string]*tree.Node, len(roots))
	for _, n := range roots {
		if n.Category() == nil {
			continue
		}
		idx.roots[metadata.Normalize(n.Title())] = n
	}
	idx.lastReload = time.Now()
}

// GetCategory retrieves a root category by name
func (idx *MemoryIndex) GetCategory(name string) (*tree.Node, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n, ok := idx.roots[metadata.Normalize(name)]
	return n, ok
}

// GetAllCategories returns all root categories ordered by SortOrder, then name
func (idx *MemoryIndex) GetAllCategories() []*tree.Node {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]*tree.Node, 0, len(idx.roots))
	for _, n := range idx.roots {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Category(), out[j].Category()
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return metadata.Normalize(a.Name) < metadata.Normalize(b.Name)
	})
	return out
}

// AddCategory adds or replaces a single root category
func (idx *MemoryIndex) AddCategory(n *tree.Node) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.roots[metadata.Normalize(n.Title())] = n
}

// DeleteCategory removes a root category from the index
func (idx *MemoryIndex) DeleteCategory(name string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.roots, metadata.Normalize(name))
}

// Count returns the number of root categories in the index
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.roots)
}

// FindNode looks a runtime node ID up across every category.
func (idx *MemoryIndex) FindNode(id string) (*tree.Node, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for _, root := range idx.roots {
		if n := root.Find(id); n != nil {
			return n, true
		}
	}
	return nil, false
}

// GetLastReload returns the timestamp of the last full load
func (idx *MemoryIndex) GetLastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload
}
