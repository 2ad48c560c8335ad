// Package tree is the ownership-based n-ary tree every category, link and
// catalog entry lives in. Children are owned by their parent; a node can only
// be attached once, so cycles cannot be built.
//
// The tree carries no locking. Callers serialize mutation of a given tree.
package tree

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

var (
	ErrInvalidChild    = errors.New("tree: child kind not allowed under parent")
	ErrMixedChildren   = errors.New("tree: catalog entries and sub-links cannot share a parent")
	ErrAlreadyAttached = errors.New("tree: node already has a parent")
	ErrCycle           = errors.New("tree: node cannot become its own descendant")
	ErrIndexOutOfRange = errors.New("tree: index out of range")
)

// Node holds one Content payload and its ordered children.
type Node struct {
	ID      string
	Content domain.Content

	// Expanded is presentation state, kept across refreshes but never persisted.
	Expanded bool

	parent    *Node
	children  []*Node
	listeners []Listener
}

// NewNode wraps content in a detached node with a fresh runtime ID.
func NewNode(content domain.Content) *Node {
	return &Node{ID: uuid.NewString(), Content: content}
}

func (n *Node) Parent() *Node { return n.parent }

// Children returns the live child slice. Callers must not modify it.
func (n *Node) Children() []*Node { return n.children }

func (n *Node) Len() int { return len(n.children) }

func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// Category returns the payload as a Category, or nil.
func (n *Node) Category() *domain.Category {
	c, _ := n.Content.(*domain.Category)
	return c
}

// Link returns the payload as a Link, or nil.
func (n *Node) Link() *domain.Link {
	l, _ := n.Content.(*domain.Link)
	return l
}

func (n *Node) IsCatalogEntry() bool {
	l := n.Link()
	return l != nil && l.IsCatalogEntry
}

func (n *Node) IsPlaceholder() bool {
	l := n.Link()
	return l != nil && l.IsPlaceholder
}

func (n *Node) Title() string {
	if n.Content == nil {
		return ""
	}
	return n.Content.DisplayTitle()
}

// Append adds child as the last child.
func (n *Node) Append(child *Node) error {
	return n.Insert(len(n.children), child)
}

// Insert attaches a detached child at position i.
func (n *Node) Insert(i int, child *Node) error {
	if child == nil || child.Content == nil {
		return fmt.Errorf("%w: empty node", ErrInvalidChild)
	}
	if child.parent != nil {
		return ErrAlreadyAttached
	}
	for p := n; p != nil; p = p.parent {
		if p == child {
			return ErrCycle
		}
	}
	if i < 0 || i > len(n.children) {
		return ErrIndexOutOfRange
	}
	if err := n.canHold(child); err != nil {
		return err
	}

	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = child
	child.parent = n

	n.notify(Event{Kind: Inserted, Parent: n, Node: child, Index: i})
	return nil
}

// Remove detaches child and reports whether it was found.
func (n *Node) Remove(child *Node) bool {
	i := n.indexOf(child)
	if i < 0 {
		return false
	}
	n.RemoveAt(i)
	return true
}

// RemoveAt detaches and returns the child at i, or nil if out of range.
func (n *Node) RemoveAt(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	child := n.children[i]
	n.children = append(n.children[:i], n.children[i+1:]...)
	child.parent = nil

	n.notify(Event{Kind: Removed, Parent: n, Node: child, Index: i})
	return child
}

// RemoveWhere detaches every child matching pred and returns how many went.
func (n *Node) RemoveWhere(pred func(*Node) bool) int {
	removed := 0
	for i := len(n.children) - 1; i >= 0; i-- {
		if pred(n.children[i]) {
			n.RemoveAt(i)
			removed++
		}
	}
	return removed
}

// Move reorders a child from one position to another.
func (n *Node) Move(from, to int) error {
	if from < 0 || from >= len(n.children) || to < 0 || to >= len(n.children) {
		return ErrIndexOutOfRange
	}
	if from == to {
		return nil
	}
	child := n.children[from]
	n.children = append(n.children[:from], n.children[from+1:]...)
	n.children = append(n.children, nil)
	copy(n.children[to+1:], n.children[to:])
	n.children[to] = child

	n.notify(Event{Kind: Moved, Parent: n, Node: child, Index: to})
	return nil
}

// ReplaceWith swaps n for a fresh node carrying the same ID, content,
// expansion state and children. Observers see a Replaced event, which is how
// views learn that a link's catalog was rebuilt. The new node is returned; n
// is left detached and empty.
func (n *Node) ReplaceWith() *Node {
	fresh := &Node{
		ID:        n.ID,
		Content:   n.Content,
		Expanded:  n.Expanded,
		children:  n.children,
		listeners: n.listeners,
	}
	for _, c := range fresh.children {
		c.parent = fresh
	}
	n.children = nil
	n.listeners = nil

	parent := n.parent
	if parent == nil {
		fresh.notify(Event{Kind: Replaced, Node: fresh, Index: -1})
		return fresh
	}
	i := parent.indexOf(n)
	parent.children[i] = fresh
	fresh.parent = parent
	n.parent = nil

	parent.notify(Event{Kind: Replaced, Parent: parent, Node: fresh, Index: i})
	return fresh
}

// Index returns the node's position under its parent, or -1 for roots.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	return n.parent.indexOf(n)
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// canHold enforces which payload kinds may sit under which.
func (n *Node) canHold(child *Node) error {
	if child.IsPlaceholder() {
		return nil
	}
	switch {
	case n.Category() != nil:
		if child.Category() != nil {
			return nil
		}
		if l := child.Link(); l != nil && !l.IsCatalogEntry {
			return nil
		}
		return fmt.Errorf("%w: catalog entry under category %q", ErrInvalidChild, n.Title())

	case n.IsCatalogEntry():
		if child.IsCatalogEntry() {
			return nil
		}
		return fmt.Errorf("%w: %q is a catalog entry", ErrInvalidChild, n.Title())

	case n.Link() != nil:
		if child.Link() == nil {
			return fmt.Errorf("%w: category under link %q", ErrInvalidChild, n.Title())
		}
		for _, c := range n.children {
			if c.IsPlaceholder() {
				continue
			}
			if c.IsCatalogEntry() != child.IsCatalogEntry() {
				return ErrMixedChildren
			}
		}
		return nil
	}
	return ErrInvalidChild
}
