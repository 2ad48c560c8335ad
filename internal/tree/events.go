package tree

// EventKind names a structural change.
type EventKind int

const (
	Inserted EventKind = iota
	Removed
	Moved
	Replaced
)

func (k EventKind) String() string {
	switch k {
	case Inserted:
		return "inserted"
	case Removed:
		return "removed"
	case Moved:
		return "moved"
	case Replaced:
		return "replaced"
	default:
		return "unknown"
	}
}

// Event describes one change. Parent is nil when a root was replaced.
type Event struct {
	Kind   EventKind
	Parent *Node
	Node   *Node
	Index  int
}

// Listener observes changes at or below the node it subscribed on.
type Listener func(Event)

// Subscribe registers fn for changes in n's subtree. Listeners run
// synchronously on the goroutine doing the mutation.
func (n *Node) Subscribe(fn Listener) {
	n.listeners = append(n.listeners, fn)
}

// notify delivers ev to listeners on n and every ancestor.
func (n *Node) notify(ev Event) {
	for p := n; p != nil; p = p.parent {
		for _, fn := range p.listeners {
			fn(ev)
		}
	}
}
