package document

// MutationType classifies a change to an attached node.
type MutationType string

const (
	MutationCreated   MutationType = "created"
	MutationUpdated   MutationType = "updated"
	MutationDestroyed MutationType = "destroyed"
)

// Mutation describes one node change in a committed batch.
type Mutation struct {
	Key  NodeKey
	Kind Kind
	Type MutationType
}

// MutationListener receives the mutations of one kind for a committed batch,
// created first, then updated, then destroyed.
type MutationListener func(mutations []Mutation)

// UpdateInfo summarizes a committed batch.
type UpdateInfo struct {
	ContentChanged   bool
	SelectionChanged bool
	PrevSelection    Selection
}

// UpdateListener runs after every committed batch that changed anything.
type UpdateListener func(info UpdateInfo)

type mutationListener struct {
	id   int
	kind Kind
	fn   MutationListener
}

type updateListener struct {
	id int
	fn UpdateListener
}

// RegisterMutationListener subscribes fn to mutations of nodes of kind.
// The returned function unsubscribes.
func (t *Tree) RegisterMutationListener(kind Kind, fn MutationListener) func() {
	t.listenerSeq++
	id := t.listenerSeq
	t.mutationListeners = append(t.mutationListeners, &mutationListener{id: id, kind: kind, fn: fn})
	return func() {
		for i, l := range t.mutationListeners {
			if l.id == id {
				t.mutationListeners = append(t.mutationListeners[:i], t.mutationListeners[i+1:]...)
				return
			}
		}
	}
}

// RegisterUpdateListener subscribes fn to every committed batch.
func (t *Tree) RegisterUpdateListener(fn UpdateListener) func() {
	t.listenerSeq++
	id := t.listenerSeq
	t.updateListeners = append(t.updateListeners, &updateListener{id: id, fn: fn})
	return func() {
		for i, l := range t.updateListeners {
			if l.id == id {
				t.updateListeners = append(t.updateListeners[:i], t.updateListeners[i+1:]...)
				return
			}
		}
	}
}

func (t *Tree) notify(mutations []Mutation, info UpdateInfo) {
	if len(mutations) > 0 {
		for _, l := range append([]*mutationListener(nil), t.mutationListeners...) {
			var mine []Mutation
			for _, m := range mutations {
				if m.Kind == l.kind {
					mine = append(mine, m)
				}
			}
			if len(mine) > 0 {
				l.fn(mine)
			}
		}
	}
	for _, l := range append([]*updateListener(nil), t.updateListeners...) {
		l.fn(info)
	}
}

// attachedOrder lists the keys reachable from root in document order.
func attachedOrder(nodes map[NodeKey]*Node, root NodeKey) []NodeKey {
	var out []NodeKey
	var walk func(NodeKey)
	walk = func(k NodeKey) {
		n, ok := nodes[k]
		if !ok {
			return
		}
		out = append(out, k)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	return out
}

func diffSnapshots(before *snapshot, t *Tree) []Mutation {
	prev := attachedOrder(before.nodes, before.root)
	cur := attachedOrder(t.nodes, t.root)
	prevSet := make(map[NodeKey]bool, len(prev))
	for _, k := range prev {
		prevSet[k] = true
	}
	curSet := make(map[NodeKey]bool, len(cur))
	for _, k := range cur {
		curSet[k] = true
	}

	var created, updated, destroyed []Mutation
	for _, k := range cur {
		n := t.nodes[k]
		if !prevSet[k] {
			created = append(created, Mutation{Key: k, Kind: n.Kind, Type: MutationCreated})
			continue
		}
		if !n.sameAs(before.nodes[k]) {
			updated = append(updated, Mutation{Key: k, Kind: n.Kind, Type: MutationUpdated})
		}
	}
	for _, k := range prev {
		if !curSet[k] {
			destroyed = append(destroyed, Mutation{Key: k, Kind: before.nodes[k].Kind, Type: MutationDestroyed})
		}
	}
	out := make([]Mutation, 0, len(created)+len(updated)+len(destroyed))
	out = append(out, created...)
	out = append(out, updated...)
	return append(out, destroyed...)
}
