package document

import (
	"strings"
	"unicode/utf8"
)

// PointType tells whether a point offset counts characters or children.
type PointType int

const (
	PointText PointType = iota
	PointElement
)

// Point is one end of a range selection.
type Point struct {
	Key    NodeKey
	Offset int
	Type   PointType
}

// TextPoint is shorthand for a character offset inside a text node.
func TextPoint(key NodeKey, offset int) Point {
	return Point{Key: key, Offset: offset, Type: PointText}
}

// ElementPoint is shorthand for a child offset inside an element.
func ElementPoint(key NodeKey, offset int) Point {
	return Point{Key: key, Offset: offset, Type: PointElement}
}

// Selection is either a *RangeSelection or a *NodeSelection.
type Selection interface {
	clone() Selection
	equal(Selection) bool
}

// RangeSelection is a caret or a contiguous range. Format is the format
// applied to the next inserted character.
type RangeSelection struct {
	Anchor Point
	Focus  Point
	Format TextFormat
}

func (s *RangeSelection) IsCollapsed() bool {
	return s.Anchor == s.Focus
}

func (s *RangeSelection) clone() Selection {
	c := *s
	return &c
}

func (s *RangeSelection) equal(o Selection) bool {
	r, ok := o.(*RangeSelection)
	return ok && *r == *s
}

// NodeSelection selects whole nodes, such as images.
type NodeSelection struct {
	Keys []NodeKey
}

func (s *NodeSelection) Has(key NodeKey) bool {
	for _, k := range s.Keys {
		if k == key {
			return true
		}
	}
	return false
}

func (s *NodeSelection) clone() Selection {
	return &NodeSelection{Keys: append([]NodeKey(nil), s.Keys...)}
}

func (s *NodeSelection) equal(o Selection) bool {
	n, ok := o.(*NodeSelection)
	if !ok || len(n.Keys) != len(s.Keys) {
		return false
	}
	for i := range s.Keys {
		if s.Keys[i] != n.Keys[i] {
			return false
		}
	}
	return true
}

func cloneSelection(s Selection) Selection {
	if s == nil {
		return nil
	}
	return s.clone()
}

func sameSelection(a, b Selection) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.equal(b)
}

// Selection returns a copy of the current selection, or nil.
func (t *Tree) Selection() Selection {
	return cloneSelection(t.selection)
}

// SetSelection replaces the current selection. Invalid points are rejected.
func (t *Tree) SetSelection(sel Selection) error {
	return t.Update(func() error {
		return t.setSelection(sel)
	})
}

// Select places a range selection between anchor and focus.
func (t *Tree) Select(anchor, focus Point) error {
	return t.SetSelection(&RangeSelection{Anchor: anchor, Focus: focus})
}

// SelectAll spans the whole document.
func (t *Tree) SelectAll() error {
	return t.Update(func() error {
		return t.setSelection(&RangeSelection{Anchor: t.startPoint(t.root), Focus: t.endPoint(t.root)})
	})
}

// SelectEnd collapses the caret at the end of the document.
func (t *Tree) SelectEnd() error {
	return t.Update(func() error {
		p := t.endPoint(t.root)
		return t.setSelection(&RangeSelection{Anchor: p, Focus: p})
	})
}

// SetComposing records whether an input method composition is in progress.
func (t *Tree) SetComposing(composing bool) {
	if t.composing == composing {
		return
	}
	t.composing = composing
	t.notify(nil, UpdateInfo{SelectionChanged: true, PrevSelection: t.Selection()})
}

func (t *Tree) IsComposing() bool {
	return t.composing
}

func (t *Tree) setSelection(sel Selection) error {
	switch s := sel.(type) {
	case nil:
	case *RangeSelection:
		if err := t.validatePoint(s.Anchor); err != nil {
			return err
		}
		if err := t.validatePoint(s.Focus); err != nil {
			return err
		}
		c := *s
		c.Anchor = t.normalizePoint(c.Anchor)
		c.Focus = t.normalizePoint(c.Focus)
		if c.IsCollapsed() && c.Anchor.Type == PointText {
			c.Format = t.nodes[c.Anchor.Key].Format
		}
		sel = &c
	case *NodeSelection:
		for _, k := range s.Keys {
			n, ok := t.nodes[k]
			if !ok || !t.isAttached(k) {
				return violation("node %d is not in the document", k)
			}
			if n.Kind != KindImage {
				return ErrNotSelectable
			}
		}
		sel = s.clone()
	}
	if !sameSelection(t.selection, sel) {
		t.selection = sel
		t.selDirty = true
	}
	return nil
}

func (t *Tree) validatePoint(p Point) error {
	n, ok := t.nodes[p.Key]
	if !ok || !t.isAttached(p.Key) {
		return violation("selection point references missing node %d", p.Key)
	}
	switch p.Type {
	case PointText:
		if n.Kind != KindText || p.Offset < 0 || p.Offset > runeLen(n.Text) {
			return ErrSelectionOutOfRange
		}
	case PointElement:
		if n.Kind.IsLeaf() || p.Offset < 0 || p.Offset > len(n.Children) {
			return ErrSelectionOutOfRange
		}
	}
	return nil
}

// normalizePoint moves element points that touch a text run onto the run.
func (t *Tree) normalizePoint(p Point) Point {
	if p.Type != PointElement {
		return p
	}
	n := t.nodes[p.Key]
	if !n.Kind.IsTextBlock() && n.Kind != KindLink {
		return p
	}
	if p.Offset > 0 {
		if prev := t.nodes[n.Children[p.Offset-1]]; prev.Kind == KindText {
			return TextPoint(prev.Key, runeLen(prev.Text))
		}
	}
	if p.Offset < len(n.Children) {
		if next := t.nodes[n.Children[p.Offset]]; next.Kind == KindText {
			return TextPoint(next.Key, 0)
		}
	}
	return p
}

func (t *Tree) caret(p Point) {
	p = t.normalizePoint(p)
	format := TextFormat(0)
	if p.Type == PointText {
		format = t.nodes[p.Key].Format
	}
	t.selection = &RangeSelection{Anchor: p, Focus: p, Format: format}
	t.selDirty = true
}

// indexPath returns the child indexes leading from the root to key.
func (t *Tree) indexPath(key NodeKey) []int {
	var path []int
	for key != t.root {
		n := t.nodes[key]
		if n == nil || n.Parent == 0 {
			return nil
		}
		path = append(path, t.indexOf(key))
		key = n.Parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (t *Tree) pointPath(p Point) []int {
	return append(t.indexPath(p.Key), p.Offset)
}

func comparePaths(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// ComparePoints orders two points in document order.
func (t *Tree) ComparePoints(a, b Point) int {
	return comparePaths(t.pointPath(a), t.pointPath(b))
}

// IsBackward reports whether the focus precedes the anchor.
func (t *Tree) IsBackward(s *RangeSelection) bool {
	return t.ComparePoints(s.Focus, s.Anchor) < 0
}

// IsAtNodeEnd reports whether p sits at the end of its node.
func (t *Tree) IsAtNodeEnd(p Point) bool {
	n := t.nodes[p.Key]
	if n == nil {
		return false
	}
	if p.Type == PointText {
		return p.Offset == runeLen(n.Text)
	}
	return p.Offset == len(n.Children)
}

func (t *Tree) orderedPoints(s *RangeSelection) (Point, Point) {
	if t.IsBackward(s) {
		return s.Focus, s.Anchor
	}
	return s.Anchor, s.Focus
}

type leafSpan struct {
	key        NodeKey
	start, end int // character offsets within a text leaf
}

// selectedLeaves returns the leaves overlapping a non-collapsed range, with
// the covered offsets of each.
func (t *Tree) selectedLeaves(s *RangeSelection) []leafSpan {
	start, end := t.orderedPoints(s)
	startPath, endPath := t.pointPath(start), t.pointPath(end)
	var out []leafSpan
	for _, key := range t.leaves(t.root) {
		n := t.nodes[key]
		base := t.indexPath(key)
		size := 1
		if n.Kind == KindText {
			size = runeLen(n.Text)
		}
		begin := append(append([]int(nil), base...), 0)
		finish := append(append([]int(nil), base...), size)
		if comparePaths(begin, endPath) >= 0 || comparePaths(finish, startPath) <= 0 {
			continue
		}
		span := leafSpan{key: key, start: 0, end: size}
		if start.Key == key {
			span.start = start.Offset
		}
		if end.Key == key {
			span.end = end.Offset
		}
		out = append(out, span)
	}
	return out
}

// leaves lists leaf descendants of key in document order.
func (t *Tree) leaves(key NodeKey) []NodeKey {
	var out []NodeKey
	var walk func(NodeKey)
	walk = func(k NodeKey) {
		n := t.nodes[k]
		if n.Kind.IsLeaf() {
			out = append(out, k)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(key)
	return out
}

// SelectedText returns the plain text covered by the current range selection.
func (t *Tree) SelectedText() string {
	s, ok := t.selection.(*RangeSelection)
	if !ok || s.IsCollapsed() {
		return ""
	}
	var sb strings.Builder
	var lastBlock NodeKey
	for _, span := range t.selectedLeaves(s) {
		n := t.nodes[span.key]
		block := t.textBlockOf(span.key)
		if lastBlock != 0 && block != lastBlock {
			sb.WriteString("\n")
		}
		lastBlock = block
		switch n.Kind {
		case KindText:
			r := []rune(n.Text)
			sb.WriteString(string(r[span.start:span.end]))
		case KindLineBreak:
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// SelectionHasFormat reports whether every selected text run carries flag.
// A caret reports the pending format.
func (t *Tree) SelectionHasFormat(flag TextFormat) bool {
	s, ok := t.selection.(*RangeSelection)
	if !ok {
		return false
	}
	if s.IsCollapsed() {
		return s.Format.Has(flag)
	}
	found := false
	for _, span := range t.selectedLeaves(s) {
		n := t.nodes[span.key]
		if n.Kind != KindText || span.start == span.end {
			continue
		}
		found = true
		if !n.Format.Has(flag) {
			return false
		}
	}
	return found
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
