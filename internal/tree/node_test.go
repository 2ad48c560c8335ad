package tree

import (
	"errors"
	"testing"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

func cat(name string) *Node { return NewNode(&domain.Category{Name: name}) }

func link(title string) *Node { return NewNode(&domain.Link{Title: title, URL: "/tmp/" + title}) }

func entry(title string) *Node {
	return NewNode(&domain.Link{Title: title, URL: title, IsCatalogEntry: true})
}

func mustAppend(t *testing.T, parent, child *Node) {
	t.Helper()
	if err := parent.Append(child); err != nil {
		t.Fatalf("Append(%s under %s) failed: %v", child.Title(), parent.Title(), err)
	}
}

func TestInsertChildKindRules(t *testing.T) {
	tests := []struct {
		name    string
		parent  func() *Node
		child   func() *Node
		wantErr error
	}{
		{"category under category", func() *Node { return cat("a") }, func() *Node { return cat("b") }, nil},
		{"link under category", func() *Node { return cat("a") }, func() *Node { return link("l") }, nil},
		{"entry under category", func() *Node { return cat("a") }, func() *Node { return entry("e") }, ErrInvalidChild},
		{"entry under link", func() *Node { return link("l") }, func() *Node { return entry("e") }, nil},
		{"sub-link under link", func() *Node { return link("l") }, func() *Node { return link("s") }, nil},
		{"category under link", func() *Node { return link("l") }, func() *Node { return cat("c") }, ErrInvalidChild},
		{"entry under entry", func() *Node { return entry("d") }, func() *Node { return entry("f") }, nil},
		{"link under entry", func() *Node { return entry("d") }, func() *Node { return link("l") }, ErrInvalidChild},
		{"placeholder under category", func() *Node { return cat("a") }, func() *Node { return NewNode(domain.NewPlaceholder()) }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parent().Append(tt.child())
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Append() unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Append() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestInsertRejectsMixedChildren(t *testing.T) {
	l := link("dir")
	mustAppend(t, l, entry("a.txt"))

	if err := l.Append(link("sub")); !errors.Is(err, ErrMixedChildren) {
		t.Fatalf("expected ErrMixedChildren, got %v", err)
	}

	// placeholders never count as either kind
	mustAppend(t, l, NewNode(domain.NewPlaceholder()))
	mustAppend(t, l, entry("b.txt"))
}

func TestInsertRejectsAttachedAndCycles(t *testing.T) {
	root := cat("root")
	child := cat("child")
	mustAppend(t, root, child)

	if err := cat("other").Append(child); !errors.Is(err, ErrAlreadyAttached) {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}
	if err := child.Append(root); !errors.Is(err, ErrCycle) {
		t.Errorf("expected ErrCycle, got %v", err)
	}
}

func TestInsertPositionAndMove(t *testing.T) {
	root := cat("root")
	a, b, c := link("a"), link("b"), link("c")
	mustAppend(t, root, a)
	mustAppend(t, root, c)
	if err := root.Insert(1, b); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	assertOrder(t, root, "a", "b", "c")

	if err := root.Move(0, 2); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	assertOrder(t, root, "b", "c", "a")

	if a.Index() != 2 {
		t.Errorf("a.Index() = %d, want 2", a.Index())
	}
	if err := root.Move(0, 5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	root := cat("root")
	a, b := link("a"), link("b")
	mustAppend(t, root, a)
	mustAppend(t, root, b)

	if !root.Remove(a) {
		t.Fatal("Remove(a) = false")
	}
	if a.Parent() != nil {
		t.Error("removed node still has a parent")
	}
	if root.Remove(a) {
		t.Error("second Remove(a) should report false")
	}
	assertOrder(t, root, "b")

	// detached nodes can be re-attached elsewhere
	mustAppend(t, cat("elsewhere"), a)
}

func TestRemoveWhere(t *testing.T) {
	l := link("dir")
	mustAppend(t, l, entry("a"))
	mustAppend(t, l, NewNode(domain.NewPlaceholder()))
	mustAppend(t, l, entry("b"))

	n := l.RemoveWhere(func(c *Node) bool { return c.IsCatalogEntry() })
	if n != 2 {
		t.Errorf("RemoveWhere removed %d, want 2", n)
	}
	if l.Len() != 1 || !l.Child(0).IsPlaceholder() {
		t.Errorf("expected only the placeholder to remain")
	}
}

func TestReplaceWithKeepsIdentityAndChildren(t *testing.T) {
	root := cat("root")
	l := link("dir")
	l.Expanded = true
	mustAppend(t, root, link("before"))
	mustAppend(t, root, l)
	mustAppend(t, l, entry("a"))
	mustAppend(t, l, entry("b"))

	var events []Event
	root.Subscribe(func(ev Event) { events = append(events, ev) })

	fresh := l.ReplaceWith()

	if fresh == l {
		t.Fatal("ReplaceWith returned the same node")
	}
	if fresh.ID != l.ID {
		t.Errorf("ID changed: %s != %s", fresh.ID, l.ID)
	}
	if !fresh.Expanded {
		t.Error("expansion state lost")
	}
	if fresh.Index() != 1 || root.Child(1) != fresh {
		t.Error("fresh node not in the original position")
	}
	if fresh.Len() != 2 || fresh.Child(0).Parent() != fresh {
		t.Error("children not reparented")
	}
	if l.Parent() != nil || l.Len() != 0 {
		t.Error("old node should be detached and empty")
	}
	if len(events) != 1 || events[0].Kind != Replaced || events[0].Node != fresh {
		t.Errorf("unexpected events: %+v", events)
	}
}

func TestEventsBubbleToAncestors(t *testing.T) {
	root := cat("root")
	sub := cat("sub")
	mustAppend(t, root, sub)

	var kinds []EventKind
	root.Subscribe(func(ev Event) { kinds = append(kinds, ev.Kind) })

	l := link("l")
	mustAppend(t, sub, l)
	sub.Remove(l)

	if len(kinds) != 2 || kinds[0] != Inserted || kinds[1] != Removed {
		t.Errorf("kinds = %v, want [inserted removed]", kinds)
	}
}

func TestNavigation(t *testing.T) {
	root := cat("root")
	sub := cat("sub")
	l := link("dir")
	d := entry("d")
	f := entry("f")
	mustAppend(t, root, sub)
	mustAppend(t, sub, l)
	mustAppend(t, l, d)
	mustAppend(t, d, f)

	if f.Root() != root {
		t.Error("Root() mismatch")
	}
	if f.NearestCategory() != sub {
		t.Error("NearestCategory() mismatch")
	}
	if f.OwnerLink() != l {
		t.Error("OwnerLink() mismatch")
	}
	if f.CatalogDepth() != 2 || d.CatalogDepth() != 1 || l.CatalogDepth() != 0 {
		t.Errorf("CatalogDepth: f=%d d=%d l=%d", f.CatalogDepth(), d.CatalogDepth(), l.CatalogDepth())
	}
	if f.Depth() != 4 {
		t.Errorf("Depth() = %d, want 4", f.Depth())
	}
	if root.Find(f.ID) != f {
		t.Error("Find() did not locate entry")
	}
	if root.Find("missing") != nil {
		t.Error("Find(missing) should be nil")
	}
	if links := root.Links(); len(links) != 1 || links[0] != l {
		t.Errorf("Links() = %d nodes, want just the dir link", len(links))
	}
}

func assertOrder(t *testing.T, n *Node, want ...string) {
	t.Helper()
	if n.Len() != len(want) {
		t.Fatalf("len = %d, want %d", n.Len(), len(want))
	}
	for i, w := range want {
		if got := n.Child(i).Title(); got != w {
			t.Errorf("child %d = %q, want %q", i, got, w)
		}
	}
}
