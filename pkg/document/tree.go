package document

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Tree is an editable document held in a node arena. A Tree is not safe for
// concurrent use; callers serialize access.
type Tree struct {
	nodes   map[NodeKey]*Node
	root    NodeKey
	nextKey NodeKey

	selection Selection
	composing bool

	depth       int
	dirty       bool
	selDirty    bool
	historyTag  string
	skipHistory bool

	mutationListeners []*mutationListener
	updateListeners   []*updateListener
	listenerSeq       int

	history history
	now     func() time.Time
}

type snapshot struct {
	nodes     map[NodeKey]*Node
	root      NodeKey
	selection Selection
}

// New returns a tree holding a root with one empty paragraph.
func New() *Tree {
	t := newEmptyTree()
	p := t.newNode(KindParagraph, Attrs{})
	_ = t.insertChild(t.root, p.Key, 0)
	t.dirty = false
	return t
}

func newEmptyTree() *Tree {
	t := &Tree{
		nodes: make(map[NodeKey]*Node),
		now:   time.Now,
	}
	t.root = t.newNode(KindRoot, Attrs{}).Key
	return t
}

// SetClock replaces the time source used for history merging.
func (t *Tree) SetClock(now func() time.Time) {
	t.now = now
}

func (t *Tree) newNode(kind Kind, attrs Attrs) *Node {
	t.nextKey++
	n := &Node{Key: t.nextKey, Kind: kind, Attrs: attrs}
	t.nodes[n.Key] = n
	return n
}

// CreateNode allocates a detached node of the given kind.
func (t *Tree) CreateNode(kind Kind, attrs Attrs) (NodeKey, error) {
	if kind == KindRoot || !kind.Valid() {
		return 0, &InvalidKindError{Kind: kind}
	}
	attrs, err := normalizeAttrs(kind, attrs)
	if err != nil {
		return 0, err
	}
	return t.newNode(kind, attrs).Key, nil
}

// CreateText is shorthand for a detached text run.
func (t *Tree) CreateText(text string, format TextFormat) NodeKey {
	return t.newNode(KindText, Attrs{Text: text, Format: format}).Key
}

// Root returns the root key.
func (t *Tree) Root() NodeKey {
	return t.root
}

// Node returns a copy of the node stored under key.
func (t *Tree) Node(key NodeKey) (Node, bool) {
	n, ok := t.nodes[key]
	if !ok {
		return Node{}, false
	}
	return *n.clone(), true
}

// Children returns a copy of the child keys of key.
func (t *Tree) Children(key NodeKey) []NodeKey {
	n, ok := t.nodes[key]
	if !ok {
		return nil
	}
	return append([]NodeKey(nil), n.Children...)
}

// Parent returns the parent key, or zero for the root and detached nodes.
func (t *Tree) Parent(key NodeKey) NodeKey {
	if n, ok := t.nodes[key]; ok {
		return n.Parent
	}
	return 0
}

// IsAttached reports whether key is reachable from the root.
func (t *Tree) IsAttached(key NodeKey) bool {
	return t.isAttached(key)
}

func (t *Tree) isAttached(key NodeKey) bool {
	for key != 0 {
		if key == t.root {
			return true
		}
		n, ok := t.nodes[key]
		if !ok {
			return false
		}
		key = n.Parent
	}
	return false
}

// Walk visits attached nodes depth first in document order.
func (t *Tree) Walk(fn func(n Node) bool) {
	var walk func(NodeKey) bool
	walk = func(k NodeKey) bool {
		n := t.nodes[k]
		if !fn(*n.clone()) {
			return false
		}
		for _, c := range n.Children {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(t.root)
}

// NodesOfKind returns attached nodes of kind in document order.
func (t *Tree) NodesOfKind(kind Kind) []Node {
	var out []Node
	t.Walk(func(n Node) bool {
		if n.Kind == kind {
			out = append(out, n)
		}
		return true
	})
	return out
}

// TextContent returns the plain text of the subtree under key.
func (t *Tree) TextContent(key NodeKey) string {
	n, ok := t.nodes[key]
	if !ok {
		return ""
	}
	switch n.Kind {
	case KindText:
		return n.Text
	case KindLineBreak:
		return "\n"
	case KindImage:
		return ""
	}
	sep := ""
	switch n.Kind {
	case KindRoot, KindTableCell:
		sep = "\n\n"
	case KindList, KindTable, KindTableRow:
		sep = "\n"
	}
	parts := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		parts = append(parts, t.TextContent(c))
	}
	return strings.Join(parts, sep)
}

// Update runs fn as one batch. Mutation events are emitted once when the
// outermost batch commits. When fn fails, every change made inside the batch
// is rolled back and the error is returned.
func (t *Tree) Update(fn func() error) error {
	if t.depth > 0 {
		return fn()
	}
	before := t.snapshot()
	t.depth++
	err := t.runBatch(fn)
	t.depth--
	if err != nil {
		t.restore(before)
		return err
	}
	t.commit(before)
	return nil
}

func (t *Tree) runBatch(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("document update panicked: %v", r)
		}
	}()
	return fn()
}

func (t *Tree) snapshot() *snapshot {
	nodes := make(map[NodeKey]*Node, len(t.nodes))
	for k, n := range t.nodes {
		nodes[k] = n.clone()
	}
	return &snapshot{nodes: nodes, root: t.root, selection: cloneSelection(t.selection)}
}

func (t *Tree) restore(s *snapshot) {
	t.nodes = make(map[NodeKey]*Node, len(s.nodes))
	for k, n := range s.nodes {
		t.nodes[k] = n.clone()
	}
	t.root = s.root
	t.selection = cloneSelection(s.selection)
	t.dirty = false
	t.selDirty = false
	t.historyTag = ""
}

func (t *Tree) commit(before *snapshot) {
	if t.dirty && len(t.nodes[t.root].Children) == 0 {
		p := t.newNode(KindParagraph, Attrs{})
		_ = t.insertChild(t.root, p.Key, 0)
	}
	t.repairSelection()

	var mutations []Mutation
	if t.dirty {
		mutations = diffSnapshots(before, t)
		t.collectGarbage(before)
		if len(mutations) > 0 && !t.skipHistory {
			t.history.record(before, t.historyTag, t.now())
		}
	}
	selectionChanged := t.selDirty && !sameSelection(before.selection, t.selection)
	t.dirty = false
	t.selDirty = false
	t.historyTag = ""

	if len(mutations) == 0 && !selectionChanged {
		return
	}
	t.notify(mutations, UpdateInfo{
		ContentChanged:   len(mutations) > 0,
		SelectionChanged: selectionChanged,
		PrevSelection:    before.selection,
	})
}

// collectGarbage drops nodes that were attached before the batch and are not anymore.
func (t *Tree) collectGarbage(before *snapshot) {
	for _, k := range attachedOrder(before.nodes, before.root) {
		if _, ok := t.nodes[k]; ok && !t.isAttached(k) {
			delete(t.nodes, k)
		}
	}
}

func (t *Tree) repairSelection() {
	switch s := t.selection.(type) {
	case *RangeSelection:
		if t.validatePoint(s.Anchor) == nil && t.validatePoint(s.Focus) == nil {
			return
		}
		t.caret(t.endPoint(t.root))
	case *NodeSelection:
		keys := s.Keys[:0:0]
		for _, k := range s.Keys {
			if t.isAttached(k) {
				keys = append(keys, k)
			}
		}
		if len(keys) == len(s.Keys) {
			return
		}
		if len(keys) == 0 {
			t.selection = nil
		} else {
			t.selection = &NodeSelection{Keys: keys}
		}
		t.selDirty = true
	}
}

func (t *Tree) get(key NodeKey) (*Node, error) {
	n, ok := t.nodes[key]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, key)
	}
	return n, nil
}

func (t *Tree) indexOf(key NodeKey) int {
	n := t.nodes[key]
	if n == nil || n.Parent == 0 {
		return -1
	}
	for i, c := range t.nodes[n.Parent].Children {
		if c == key {
			return i
		}
	}
	return -1
}

func (t *Tree) insertChild(parent, child NodeKey, index int) error {
	p, err := t.get(parent)
	if err != nil {
		return err
	}
	c, err := t.get(child)
	if err != nil {
		return err
	}
	if child == t.root {
		return violation("root cannot be inserted")
	}
	if c.Parent != 0 {
		return violation("node %d already has a parent", child)
	}
	if !CanContain(p.Kind, c.Kind) {
		return violation("%s cannot contain %s", p.Kind, c.Kind)
	}
	for k := parent; k != 0; k = t.nodes[k].Parent {
		if k == child {
			return violation("inserting node %d under itself", child)
		}
	}
	if index < 0 || index > len(p.Children) {
		index = len(p.Children)
	}
	p.Children = append(p.Children, 0)
	copy(p.Children[index+1:], p.Children[index:])
	p.Children[index] = child
	c.Parent = parent
	t.dirty = true
	return nil
}

func (t *Tree) detach(key NodeKey) {
	n := t.nodes[key]
	if n == nil || n.Parent == 0 {
		return
	}
	p := t.nodes[n.Parent]
	for i, c := range p.Children {
		if c == key {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			break
		}
	}
	n.Parent = 0
	t.dirty = true
}

func (t *Tree) insertAfter(ref, child NodeKey) error {
	n, err := t.get(ref)
	if err != nil {
		return err
	}
	if n.Parent == 0 {
		return violation("node %d has no parent", ref)
	}
	return t.insertChild(n.Parent, child, t.indexOf(ref)+1)
}

func (t *Tree) insertBefore(ref, child NodeKey) error {
	n, err := t.get(ref)
	if err != nil {
		return err
	}
	if n.Parent == 0 {
		return violation("node %d has no parent", ref)
	}
	return t.insertChild(n.Parent, child, t.indexOf(ref))
}

func (t *Tree) replaceNode(old, with NodeKey) error {
	if err := t.insertBefore(old, with); err != nil {
		return err
	}
	t.detach(old)
	return nil
}

// moveChildren moves the children of from, starting at index start, to the
// end of to.
func (t *Tree) moveChildren(from, to NodeKey, start int) error {
	src := t.nodes[from]
	if start >= len(src.Children) {
		return nil
	}
	moving := append([]NodeKey(nil), src.Children[start:]...)
	for _, k := range moving {
		t.detach(k)
		if err := t.insertChild(to, k, -1); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) textBlockOf(key NodeKey) NodeKey {
	for k := key; k != 0; k = t.nodes[k].Parent {
		if t.nodes[k].Kind.IsTextBlock() {
			return k
		}
	}
	return 0
}

// Append attaches child as the last child of parent.
func (t *Tree) Append(parent, child NodeKey) error {
	return t.Update(func() error {
		return t.insertChild(parent, child, -1)
	})
}

// InsertBefore attaches child as the previous sibling of ref.
func (t *Tree) InsertBefore(ref, child NodeKey) error {
	return t.Update(func() error {
		return t.insertBefore(ref, child)
	})
}

// InsertAfter attaches child as the next sibling of ref.
func (t *Tree) InsertAfter(ref, child NodeKey) error {
	return t.Update(func() error {
		return t.insertAfter(ref, child)
	})
}

// RemoveNode detaches key and its whole subtree.
func (t *Tree) RemoveNode(key NodeKey) error {
	return t.Update(func() error {
		return t.removeNode(key)
	})
}

func (t *Tree) removeNode(key NodeKey) error {
	n, err := t.get(key)
	if err != nil {
		return err
	}
	if key == t.root {
		return violation("root cannot be removed")
	}
	if !t.isAttached(key) {
		return violation("node %d is not in the document", key)
	}
	parent := n.Parent
	index := t.indexOf(key)
	touched := t.selectionTouches(key)
	t.detach(key)
	if touched {
		t.placeCaretNear(parent, index)
	}
	t.pruneEmpty(parent)
	return nil
}

// selectionTouches reports whether the selection references key or a descendant.
func (t *Tree) selectionTouches(key NodeKey) bool {
	inside := func(k NodeKey) bool {
		for ; k != 0; k = t.nodes[k].Parent {
			if k == key {
				return true
			}
		}
		return false
	}
	switch s := t.selection.(type) {
	case *RangeSelection:
		return inside(s.Anchor.Key) || inside(s.Focus.Key)
	case *NodeSelection:
		for _, k := range s.Keys {
			if inside(k) {
				return true
			}
		}
	}
	return false
}

// placeCaretNear collapses the caret where the child at index of parent used to be.
func (t *Tree) placeCaretNear(parent NodeKey, index int) {
	p := t.nodes[parent]
	if index > 0 && index <= len(p.Children) {
		t.caret(t.endPoint(p.Children[index-1]))
		return
	}
	if len(p.Children) > 0 {
		t.caret(t.startPoint(p.Children[0]))
		return
	}
	if p.Kind.IsTextBlock() || p.Kind == KindLink || p.Kind == KindTableCell {
		t.caret(ElementPoint(parent, 0))
		return
	}
	t.selection = nil
	t.selDirty = true
}

// pruneEmpty removes containers that cannot stay empty, walking upwards.
func (t *Tree) pruneEmpty(key NodeKey) {
	for key != 0 && key != t.root {
		n := t.nodes[key]
		switch n.Kind {
		case KindList, KindTable, KindTableRow, KindLink:
		default:
			return
		}
		if len(n.Children) > 0 {
			return
		}
		parent := n.Parent
		index := t.indexOf(key)
		touched := t.selectionTouches(key)
		t.detach(key)
		if touched && parent != 0 {
			t.placeCaretNear(parent, index)
		}
		key = parent
	}
}

// Clone deep-copies the subtree under key. The copy is detached.
func (t *Tree) Clone(key NodeKey) (NodeKey, error) {
	if _, err := t.get(key); err != nil {
		return 0, err
	}
	if key == t.root {
		return 0, &InvalidKindError{Kind: KindRoot}
	}
	return t.cloneSubtree(key), nil
}

func (t *Tree) cloneSubtree(key NodeKey) NodeKey {
	src := t.nodes[key]
	dst := t.newNode(src.Kind, src.Attrs)
	for _, c := range src.Children {
		ck := t.cloneSubtree(c)
		t.nodes[ck].Parent = dst.Key
		dst.Children = append(dst.Children, ck)
	}
	return dst.Key
}

// startPoint is the first caret position inside key.
func (t *Tree) startPoint(key NodeKey) Point {
	n := t.nodes[key]
	switch {
	case n.Kind == KindText:
		return TextPoint(key, 0)
	case n.Kind.IsLeaf():
		return ElementPoint(n.Parent, t.indexOf(key))
	case len(n.Children) == 0:
		return ElementPoint(key, 0)
	}
	return t.startPoint(n.Children[0])
}

// endPoint is the last caret position inside key.
func (t *Tree) endPoint(key NodeKey) Point {
	n := t.nodes[key]
	switch {
	case n.Kind == KindText:
		return TextPoint(key, runeLen(n.Text))
	case n.Kind.IsLeaf():
		return ElementPoint(n.Parent, t.indexOf(key)+1)
	case len(n.Children) == 0:
		return ElementPoint(key, 0)
	}
	return t.endPoint(n.Children[len(n.Children)-1])
}

// Clear empties the root. The commit restores a single empty paragraph
// unless the same batch inserts content.
func (t *Tree) Clear() error {
	return t.Update(func() error {
		t.clear()
		return nil
	})
}

func (t *Tree) clear() {
	for _, c := range append([]NodeKey(nil), t.nodes[t.root].Children...) {
		t.detach(c)
	}
	t.selection = nil
	t.selDirty = true
}

// IsInvariantViolation reports whether err was caused by a rejected structural edit.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}
