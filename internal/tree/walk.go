package tree

// Walk visits n and its descendants depth-first, parents before children.
// Returning false from fn skips that node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Find returns the descendant (or n itself) with the given ID.
func (n *Node) Find(id string) *Node {
	var found *Node
	n.Walk(func(x *Node) bool {
		if found != nil {
			return false
		}
		if x.ID == id {
			found = x
			return false
		}
		return true
	})
	return found
}

// Root returns the topmost ancestor.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Depth is 0 for roots.
func (n *Node) Depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// NearestCategory returns the closest Category at or above n.
func (n *Node) NearestCategory() *Node {
	for p := n; p != nil; p = p.parent {
		if p.Category() != nil {
			return p
		}
	}
	return nil
}

// OwnerLink returns the nearest Link at or above n that is not a catalog
// entry: the Link whose catalog n belongs to.
func (n *Node) OwnerLink() *Node {
	for p := n; p != nil; p = p.parent {
		if l := p.Link(); l != nil && !l.IsCatalogEntry && !l.IsPlaceholder {
			return p
		}
	}
	return nil
}

// CatalogDepth is 1 for direct catalog children of a Link, 2 for their
// children, and 0 for anything that is not a catalog entry.
func (n *Node) CatalogDepth() int {
	d := 0
	for p := n; p != nil && p.IsCatalogEntry(); p = p.parent {
		d++
	}
	return d
}

// Links returns every non-entry Link under n (n included), in tree order.
func (n *Node) Links() []*Node {
	var out []*Node
	n.Walk(func(x *Node) bool {
		l := x.Link()
		if l == nil {
			return true
		}
		if l.IsCatalogEntry || l.IsPlaceholder {
			return false
		}
		out = append(out, x)
		return true
	})
	return out
}

// CatalogEntries returns the catalog-entry children of n.
func (n *Node) CatalogEntries() []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.IsCatalogEntry() {
			out = append(out, c)
		}
	}
	return out
}
