package document

import "strings"

// InsertText inserts text at the selection, replacing any selected range.
// Outside code blocks each newline becomes a line break.
func (t *Tree) InsertText(text string) error {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text == "" {
		return nil
	}
	return t.Update(func() error {
		t.historyTag = tagInsertText
		s, ok := t.rangeSelection()
		if !ok {
			return nil
		}
		if !s.IsCollapsed() {
			if err := t.deleteRange(s); err != nil {
				return err
			}
			s, _ = t.rangeSelection()
		}
		return t.insertTextAt(s.Anchor, s.Format, text)
	})
}

// rangeSelection returns the range selection, placing a caret at the end of
// the document when nothing is selected.
func (t *Tree) rangeSelection() (*RangeSelection, bool) {
	if t.selection == nil {
		t.caret(t.endPoint(t.root))
	}
	s, ok := t.selection.(*RangeSelection)
	return s, ok
}

func (t *Tree) insertTextAt(p Point, format TextFormat, text string) error {
	if p.Type == PointText {
		n := t.nodes[p.Key]
		parent := t.nodes[n.Parent]
		inCode := t.textBlockOf(p.Key) != 0 && t.nodes[t.textBlockOf(p.Key)].Kind == KindCode
		atLinkEnd := parent.Kind == KindLink && p.Offset == runeLen(n.Text) &&
			parent.Children[len(parent.Children)-1] == p.Key
		if atLinkEnd {
			p = ElementPoint(parent.Parent, t.indexOf(parent.Key)+1)
		} else if n.Format == format || inCode {
			r := []rune(n.Text)
			n.Text = string(r[:p.Offset]) + text + string(r[p.Offset:])
			t.dirty = true
			t.caret(TextPoint(n.Key, p.Offset+runeLen(text)))
			if !inCode {
				t.splitNewlines(n.Key)
			}
			return nil
		}
	}
	key := t.CreateText(text, format)
	if err := t.insertInlineAt(p, key); err != nil {
		return err
	}
	t.caret(TextPoint(key, runeLen(text)))
	if block := t.textBlockOf(key); block == 0 || t.nodes[block].Kind != KindCode {
		t.splitNewlines(key)
	}
	return nil
}

// splitNewlines turns the newlines of an attached text run into line break
// nodes, moving selection points that fall after a newline along with it.
func (t *Tree) splitNewlines(key NodeKey) {
	n := t.nodes[key]
	if !strings.Contains(n.Text, "\n") {
		return
	}
	lines := strings.Split(n.Text, "\n")
	n.Text = lines[0]
	t.dirty = true

	type segment struct {
		key   NodeKey // text run of the line, 0 when the line is empty
		start int
		after NodeKey // line break before the line
	}
	segments := []segment{{key: key}}
	prev, offset := key, runeLen(lines[0])
	for _, line := range lines[1:] {
		lb := t.newNode(KindLineBreak, Attrs{})
		_ = t.insertAfter(prev, lb.Key)
		prev = lb.Key
		offset++
		seg := segment{start: offset, after: lb.Key}
		if line != "" {
			run := t.newNode(KindText, Attrs{Text: line, Format: n.Format})
			_ = t.insertAfter(prev, run.Key)
			prev = run.Key
			seg.key = run.Key
		}
		segments = append(segments, seg)
		offset += runeLen(line)
	}

	s, ok := t.selection.(*RangeSelection)
	if !ok {
		return
	}
	c := *s
	for _, pt := range []*Point{&c.Anchor, &c.Focus} {
		if pt.Type != PointText || pt.Key != key {
			continue
		}
		for i := len(segments) - 1; i > 0; i-- {
			seg := segments[i]
			if pt.Offset < seg.start {
				continue
			}
			if seg.key != 0 {
				*pt = TextPoint(seg.key, pt.Offset-seg.start)
			} else {
				*pt = ElementPoint(t.nodes[seg.after].Parent, t.indexOf(seg.after)+1)
			}
			break
		}
	}
	t.selection = &c
	t.selDirty = true
}

// insertInlineAt attaches the detached inline node key at p, splitting text as needed.
func (t *Tree) insertInlineAt(p Point, key NodeKey) error {
	if p.Type == PointText {
		n := t.nodes[p.Key]
		switch {
		case p.Offset == 0:
			return t.insertBefore(p.Key, key)
		case p.Offset >= runeLen(n.Text):
			return t.insertAfter(p.Key, key)
		}
		right := t.splitText(p.Key, p.Offset)
		return t.insertBefore(right, key)
	}
	n := t.nodes[p.Key]
	if CanContain(n.Kind, t.nodes[key].Kind) {
		return t.insertChild(p.Key, key, p.Offset)
	}
	if CanContain(n.Kind, KindParagraph) {
		para := t.newNode(KindParagraph, Attrs{})
		if err := t.insertChild(p.Key, para.Key, p.Offset); err != nil {
			return err
		}
		return t.insertChild(para.Key, key, 0)
	}
	return violation("cannot place %s inside %s", t.nodes[key].Kind, n.Kind)
}

// splitText cuts the text run at offset and returns the key of the new right half.
func (t *Tree) splitText(key NodeKey, offset int) NodeKey {
	n := t.nodes[key]
	r := []rune(n.Text)
	right := t.newNode(KindText, Attrs{Text: string(r[offset:]), Format: n.Format})
	n.Text = string(r[:offset])
	_ = t.insertAfter(key, right.Key)
	if s, ok := t.selection.(*RangeSelection); ok {
		c := *s
		for _, pt := range []*Point{&c.Anchor, &c.Focus} {
			if pt.Type == PointText && pt.Key == key && pt.Offset > offset {
				pt.Key = right.Key
				pt.Offset -= offset
			}
		}
		t.selection = &c
	}
	return right.Key
}

// isolateRange splits the text runs at both ends of s so every selected
// character lives in a fully selected run, and returns the selected leaves.
func (t *Tree) isolateRange(s *RangeSelection) []leafSpan {
	start, end := t.orderedPoints(s)
	if end.Type == PointText && end.Offset > 0 && end.Offset < runeLen(t.nodes[end.Key].Text) {
		t.splitText(end.Key, end.Offset)
	}
	if start.Type == PointText && start.Offset > 0 && start.Offset < runeLen(t.nodes[start.Key].Text) {
		t.splitText(start.Key, start.Offset)
	}
	cur, _ := t.selection.(*RangeSelection)
	return t.selectedLeaves(cur)
}

func (t *Tree) deleteRange(s *RangeSelection) error {
	start, end := t.orderedPoints(s)
	startBlock, endBlock := t.textBlockOf(start.Key), t.textBlockOf(end.Key)

	spans := t.isolateRange(s)

	anchor := start
	if start.Type == PointText && start.Offset == 0 {
		anchor = ElementPoint(t.nodes[start.Key].Parent, t.indexOf(start.Key))
	}

	for _, span := range spans {
		n := t.nodes[span.key]
		if n.Kind == KindText && (span.start > 0 || span.end < runeLen(n.Text)) {
			r := []rune(n.Text)
			n.Text = string(r[:span.start]) + string(r[span.end:])
			t.dirty = true
			continue
		}
		t.detach(span.key)
	}

	if startBlock != endBlock {
		blocks := t.textBlocks()
		si, ei := indexOfKey(blocks, startBlock), indexOfKey(blocks, endBlock)
		if si >= 0 && ei > si {
			for _, b := range blocks[si+1 : ei] {
				if t.isAncestor(b, endBlock) || t.isAncestor(b, startBlock) {
					continue
				}
				parent := t.nodes[b].Parent
				t.detach(b)
				t.pruneEmpty(parent)
			}
		}
		if startBlock != 0 && endBlock != 0 && t.isAttached(endBlock) {
			for _, c := range t.Children(endBlock) {
				if t.nodes[c].Kind == KindList {
					continue
				}
				t.detach(c)
				if err := t.insertChild(startBlock, c, -1); err != nil {
					return err
				}
			}
			if len(t.nodes[endBlock].Children) == 0 {
				parent := t.nodes[endBlock].Parent
				t.detach(endBlock)
				t.pruneEmpty(parent)
			}
		}
	}

	if anchor.Type == PointElement {
		for anchor.Key != t.root && t.nodes[anchor.Key].Kind == KindLink && len(t.nodes[anchor.Key].Children) == 0 {
			link := anchor.Key
			anchor = ElementPoint(t.nodes[link].Parent, t.indexOf(link))
			t.detach(link)
		}
		if limit := len(t.nodes[anchor.Key].Children); anchor.Offset > limit {
			anchor.Offset = limit
		}
	}
	t.caret(anchor)
	return nil
}

// DeleteCharacter deletes one character before (backward) or after the caret,
// the selected range, or the selected nodes.
func (t *Tree) DeleteCharacter(backward bool) error {
	return t.Update(func() error {
		t.historyTag = tagDelete
		switch s := t.selection.(type) {
		case *NodeSelection:
			for _, k := range s.Keys {
				if err := t.removeNode(k); err != nil {
					return err
				}
			}
			return nil
		case *RangeSelection:
			if !s.IsCollapsed() {
				return t.deleteRange(s)
			}
			return t.deleteAtCaret(s.Anchor, backward)
		}
		return nil
	})
}

func (t *Tree) deleteAtCaret(p Point, backward bool) error {
	if p.Type == PointText {
		n := t.nodes[p.Key]
		r := []rune(n.Text)
		if backward && p.Offset > 0 {
			n.Text = string(r[:p.Offset-1]) + string(r[p.Offset:])
			t.dirty = true
			t.afterTextEdit(n.Key, p.Offset-1)
			return nil
		}
		if !backward && p.Offset < len(r) {
			n.Text = string(r[:p.Offset]) + string(r[p.Offset+1:])
			t.dirty = true
			t.afterTextEdit(n.Key, p.Offset)
			return nil
		}
	}

	if adj := t.adjacentLeaf(p, backward); adj != 0 {
		a := t.nodes[adj]
		switch a.Kind {
		case KindText:
			r := []rune(a.Text)
			if len(r) == 0 {
				parent, index := a.Parent, t.indexOf(adj)
				t.detach(adj)
				t.caret(ElementPoint(parent, index))
				return nil
			}
			if backward {
				a.Text = string(r[:len(r)-1])
				t.dirty = true
				t.afterTextEdit(adj, len(r)-1)
			} else {
				a.Text = string(r[1:])
				t.dirty = true
				t.afterTextEdit(adj, 0)
			}
		case KindImage:
			return t.setSelection(&NodeSelection{Keys: []NodeKey{adj}})
		case KindLineBreak:
			parent, index := a.Parent, t.indexOf(adj)
			t.detach(adj)
			t.caret(ElementPoint(parent, index))
		}
		return nil
	}

	block := t.textBlockOf(p.Key)
	if block == 0 {
		return nil
	}
	if backward {
		return t.collapseAtStart(block)
	}
	return t.mergeNext(block)
}

// afterTextEdit places the caret at offset in key, dropping the run when it became empty.
func (t *Tree) afterTextEdit(key NodeKey, offset int) {
	n := t.nodes[key]
	if n.Text != "" {
		t.caret(TextPoint(key, offset))
		return
	}
	parent, index := n.Parent, t.indexOf(key)
	t.detach(key)
	for t.nodes[parent].Kind == KindLink && len(t.nodes[parent].Children) == 0 {
		link := parent
		parent, index = t.nodes[link].Parent, t.indexOf(link)
		t.detach(link)
	}
	t.caret(ElementPoint(parent, index))
}

// adjacentLeaf returns the leaf next to p inside p's text block, or zero.
func (t *Tree) adjacentLeaf(p Point, backward bool) NodeKey {
	block := t.textBlockOf(p.Key)
	if block == 0 {
		return 0
	}
	ref := t.pointPath(p)
	if p.Type == PointText {
		ref = t.indexPath(p.Key)
	}
	var found NodeKey
	for _, leaf := range t.leaves(block) {
		if leaf == p.Key || t.textBlockOf(leaf) != block {
			continue
		}
		cmp := comparePaths(t.indexPath(leaf), ref)
		if backward && cmp < 0 {
			found = leaf
		}
		if !backward && cmp > 0 {
			return leaf
		}
	}
	return found
}

// collapseAtStart handles backspace at the very start of a block.
func (t *Tree) collapseAtStart(block NodeKey) error {
	b := t.nodes[block]
	switch b.Kind {
	case KindQuote, KindCode, KindListItem:
		return t.setBlockType(block, KindParagraph, Attrs{})
	}
	prev := t.previousTextBlock(block)
	if prev == 0 {
		return nil
	}
	anchor := t.endPoint(prev)
	if err := t.moveChildren(block, prev, 0); err != nil {
		return err
	}
	parent := b.Parent
	t.detach(block)
	t.pruneEmpty(parent)
	t.caret(anchor)
	return nil
}

// mergeNext pulls the following block's inline content into block.
func (t *Tree) mergeNext(block NodeKey) error {
	next := t.nextTextBlock(block)
	if next == 0 {
		return nil
	}
	s, _ := t.selection.(*RangeSelection)
	for _, c := range t.Children(next) {
		if t.nodes[c].Kind == KindList {
			continue
		}
		t.detach(c)
		if err := t.insertChild(block, c, -1); err != nil {
			return err
		}
	}
	if len(t.nodes[next].Children) == 0 {
		parent := t.nodes[next].Parent
		t.detach(next)
		t.pruneEmpty(parent)
	}
	if s != nil {
		t.caret(s.Anchor)
	}
	return nil
}

// previousTextBlock returns the text block that visually precedes block
// among its siblings, descending into a preceding list.
func (t *Tree) previousTextBlock(block NodeKey) NodeKey {
	index := t.indexOf(block)
	parent := t.nodes[block].Parent
	if index <= 0 {
		return 0
	}
	prev := t.nodes[parent].Children[index-1]
	for t.nodes[prev].Kind == KindList && len(t.nodes[prev].Children) > 0 {
		items := t.nodes[prev].Children
		prev = items[len(items)-1]
	}
	if t.nodes[prev].Kind.IsTextBlock() {
		return prev
	}
	return 0
}

func (t *Tree) nextTextBlock(block NodeKey) NodeKey {
	index := t.indexOf(block)
	parent := t.nodes[block].Parent
	siblings := t.nodes[parent].Children
	if index < 0 || index+1 >= len(siblings) {
		return 0
	}
	next := siblings[index+1]
	for t.nodes[next].Kind == KindList && len(t.nodes[next].Children) > 0 {
		next = t.nodes[next].Children[0]
	}
	if t.nodes[next].Kind.IsTextBlock() {
		return next
	}
	return 0
}

// textBlocks lists attached text blocks in document order.
func (t *Tree) textBlocks() []NodeKey {
	var out []NodeKey
	for _, k := range attachedOrder(t.nodes, t.root) {
		if t.nodes[k].Kind.IsTextBlock() {
			out = append(out, k)
		}
	}
	return out
}

func (t *Tree) isAncestor(ancestor, key NodeKey) bool {
	for k := t.nodes[key].Parent; k != 0; k = t.nodes[k].Parent {
		if k == ancestor {
			return true
		}
	}
	return false
}

func indexOfKey(keys []NodeKey, key NodeKey) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}

func (t *Tree) isEmptyBlock(key NodeKey) bool {
	for _, c := range t.nodes[key].Children {
		n := t.nodes[c]
		if n.Kind != KindText || n.Text != "" {
			return false
		}
	}
	return true
}

// InsertParagraph splits the block at the caret, as the enter key does.
func (t *Tree) InsertParagraph() error {
	return t.Update(func() error {
		switch s := t.selection.(type) {
		case *NodeSelection:
			if len(s.Keys) == 1 {
				return t.insertParagraphBefore(s.Keys[0])
			}
			return nil
		case *RangeSelection:
			if !s.IsCollapsed() {
				if err := t.deleteRange(s); err != nil {
					return err
				}
			}
			return t.splitAtCaret()
		}
		return nil
	})
}

func (t *Tree) splitAtCaret() error {
	s, ok := t.rangeSelection()
	if !ok {
		return nil
	}
	p := s.Anchor
	block := t.textBlockOf(p.Key)
	if block == 0 {
		para := t.newNode(KindParagraph, Attrs{})
		if p.Type != PointElement {
			return violation("caret outside any block")
		}
		if err := t.insertChild(p.Key, para.Key, p.Offset); err != nil {
			return err
		}
		t.caret(ElementPoint(para.Key, 0))
		return nil
	}
	switch t.nodes[block].Kind {
	case KindCode:
		return t.insertTextAt(p, 0, "\n")
	case KindListItem:
		if t.isEmptyBlock(block) {
			item, err := t.liftListItem(block, KindParagraph, Attrs{})
			if err != nil {
				return err
			}
			t.caret(t.startPoint(item))
			return nil
		}
	}
	right, err := t.splitBlock(block, p)
	if err != nil {
		return err
	}
	t.caret(t.startPoint(right))
	return nil
}

// splitBlock moves everything after p in block into a new sibling block and
// returns the new block.
func (t *Tree) splitBlock(block NodeKey, p Point) (NodeKey, error) {
	index := t.splitInlineAt(block, p)
	b := t.nodes[block]
	kind, attrs := b.Kind, b.Attrs
	switch b.Kind {
	case KindHeading:
		if index >= len(b.Children) {
			kind, attrs = KindParagraph, Attrs{}
		}
	case KindQuote:
		kind, attrs = KindParagraph, Attrs{}
	}
	right := t.newNode(kind, attrs)
	if err := t.moveChildren(block, right.Key, index); err != nil {
		return 0, err
	}
	if err := t.insertAfter(block, right.Key); err != nil {
		return 0, err
	}
	return right.Key, nil
}

// splitInlineAt splits text runs and links around p and returns the child
// index of block where the content after p begins.
func (t *Tree) splitInlineAt(block NodeKey, p Point) int {
	var container NodeKey
	var index int
	if p.Type == PointText {
		n := t.nodes[p.Key]
		container = n.Parent
		switch {
		case p.Offset == 0:
			index = t.indexOf(p.Key)
		case p.Offset >= runeLen(n.Text):
			index = t.indexOf(p.Key) + 1
		default:
			index = t.indexOf(t.splitText(p.Key, p.Offset))
		}
	} else {
		container, index = p.Key, p.Offset
	}
	for container != block && container != 0 {
		c := t.nodes[container]
		parent := c.Parent
		pos := t.indexOf(container)
		switch {
		case index == 0:
			index = pos
		case index >= len(c.Children):
			index = pos + 1
		default:
			twin := t.newNode(c.Kind, c.Attrs)
			_ = t.moveChildren(container, twin.Key, index)
			_ = t.insertAfter(container, twin.Key)
			index = pos + 1
		}
		container = parent
	}
	return index
}

// liftListItem turns item into a block of kind placed after its outermost
// list, splitting the list around it.
func (t *Tree) liftListItem(item NodeKey, kind Kind, attrs Attrs) (NodeKey, error) {
	list := t.nodes[item].Parent
	outer := list
	for t.nodes[t.nodes[outer].Parent].Kind == KindListItem {
		outer = t.nodes[t.nodes[outer].Parent].Parent
	}
	l := t.nodes[list]
	index := t.indexOf(item)
	after := append([]NodeKey(nil), l.Children[index+1:]...)

	block := t.newNode(kind, attrs)
	for _, c := range t.Children(item) {
		if t.nodes[c].Kind == KindList {
			continue
		}
		t.detach(c)
		if err := t.insertChild(block.Key, c, -1); err != nil {
			return 0, err
		}
	}
	if len(t.nodes[item].Children) == 0 {
		t.detach(item)
	}
	if err := t.insertAfter(outer, block.Key); err != nil {
		return 0, err
	}
	if len(after) > 0 {
		tailAttrs := l.Attrs
		if l.ListType == ListNumber {
			tailAttrs.Start = l.Start + index + 1
		}
		tail := t.newNode(KindList, tailAttrs)
		for _, k := range after {
			t.detach(k)
			if err := t.insertChild(tail.Key, k, -1); err != nil {
				return 0, err
			}
		}
		if err := t.insertAfter(block.Key, tail.Key); err != nil {
			return 0, err
		}
	}
	t.pruneEmpty(list)
	t.remapElementPoints(item, block.Key)
	return block.Key, nil
}

// InsertLineBreak inserts a soft line break at the caret.
func (t *Tree) InsertLineBreak() error {
	return t.Update(func() error {
		s, ok := t.rangeSelection()
		if !ok {
			return nil
		}
		if !s.IsCollapsed() {
			if err := t.deleteRange(s); err != nil {
				return err
			}
			s, _ = t.rangeSelection()
		}
		lb := t.newNode(KindLineBreak, Attrs{})
		if err := t.insertInlineAt(s.Anchor, lb.Key); err != nil {
			return err
		}
		t.caret(ElementPoint(lb.Parent, t.indexOf(lb.Key)+1))
		return nil
	})
}

// FormatText toggles flag on the selected text, or on the pending caret format.
func (t *Tree) FormatText(flag TextFormat) error {
	return t.Update(func() error {
		s, ok := t.selection.(*RangeSelection)
		if !ok {
			return nil
		}
		if s.IsCollapsed() {
			c := *s
			c.Format = c.Format.Toggle(flag)
			t.selection = &c
			t.selDirty = true
			return nil
		}
		backward := t.IsBackward(s)
		var runs []NodeKey
		for _, span := range t.isolateRange(s) {
			if n := t.nodes[span.key]; n.Kind == KindText && n.Text != "" {
				runs = append(runs, span.key)
			}
		}
		if len(runs) == 0 {
			return nil
		}
		apply := false
		for _, k := range runs {
			if !t.nodes[k].Format.Has(flag) {
				apply = true
				break
			}
		}
		for _, k := range runs {
			n := t.nodes[k]
			if apply != n.Format.Has(flag) {
				n.Format = n.Format.Toggle(flag)
				t.dirty = true
			}
		}
		t.selectRuns(runs, backward)
		return nil
	})
}

func (t *Tree) selectRuns(runs []NodeKey, backward bool) {
	first, last := runs[0], runs[len(runs)-1]
	sel := &RangeSelection{
		Anchor: TextPoint(first, 0),
		Focus:  TextPoint(last, runeLen(t.nodes[last].Text)),
		Format: t.nodes[first].Format,
	}
	if backward {
		sel.Anchor, sel.Focus = sel.Focus, sel.Anchor
	}
	t.selection = sel
	t.selDirty = true
}

// ToggleLink wraps the selected inline content in a link to url. An empty
// url removes links touching the selection.
func (t *Tree) ToggleLink(url string) error {
	if url != "" {
		normalized, err := NormalizeURL(url)
		if err != nil {
			return err
		}
		url = normalized
	}
	return t.Update(func() error {
		s, ok := t.selection.(*RangeSelection)
		if !ok {
			return nil
		}
		if url == "" {
			for _, link := range t.linksInSelection(s) {
				t.unwrapLink(link)
			}
			return nil
		}
		if s.IsCollapsed() {
			if link := t.linkAncestor(s.Anchor.Key); link != 0 {
				t.nodes[link].URL = url
				t.dirty = true
			}
			return nil
		}

		backward := t.IsBackward(s)
		var groups [][]NodeKey
		var runs []NodeKey
		for _, span := range t.isolateRange(s) {
			key := span.key
			runs = append(runs, key)
			if link := t.linkAncestor(key); link != 0 {
				if t.nodes[link].URL != url {
					t.nodes[link].URL = url
					t.dirty = true
				}
				continue
			}
			if len(groups) > 0 {
				g := groups[len(groups)-1]
				prev := g[len(g)-1]
				if t.nodes[prev].Parent == t.nodes[key].Parent && t.indexOf(prev)+1 == t.indexOf(key) {
					groups[len(groups)-1] = append(g, key)
					continue
				}
			}
			groups = append(groups, []NodeKey{key})
		}
		for _, g := range groups {
			link := t.newNode(KindLink, Attrs{URL: url})
			if err := t.insertBefore(g[0], link.Key); err != nil {
				return err
			}
			for _, k := range g {
				t.detach(k)
				if err := t.insertChild(link.Key, k, -1); err != nil {
					return err
				}
			}
		}
		if len(runs) > 0 && t.nodes[runs[0]].Kind == KindText && t.nodes[runs[len(runs)-1]].Kind == KindText {
			t.selectRuns(runs, backward)
		}
		return nil
	})
}

func (t *Tree) linkAncestor(key NodeKey) NodeKey {
	for k := key; k != 0; k = t.nodes[k].Parent {
		if t.nodes[k].Kind == KindLink {
			return k
		}
	}
	return 0
}

func (t *Tree) linksInSelection(s *RangeSelection) []NodeKey {
	seen := map[NodeKey]bool{}
	var out []NodeKey
	add := func(k NodeKey) {
		if link := t.linkAncestor(k); link != 0 && !seen[link] {
			seen[link] = true
			out = append(out, link)
		}
	}
	add(s.Anchor.Key)
	add(s.Focus.Key)
	if !s.IsCollapsed() {
		for _, span := range t.selectedLeaves(s) {
			add(span.key)
		}
	}
	return out
}

func (t *Tree) unwrapLink(link NodeKey) {
	l := t.nodes[link]
	parent, index := l.Parent, t.indexOf(link)
	children := t.Children(link)
	for i, c := range children {
		t.detach(c)
		_ = t.insertChild(parent, c, index+1+i)
	}
	t.detach(link)
	if s, ok := t.selection.(*RangeSelection); ok {
		c := *s
		for _, pt := range []*Point{&c.Anchor, &c.Focus} {
			if pt.Type == PointElement && pt.Key == link {
				*pt = ElementPoint(parent, index+pt.Offset)
			}
		}
		t.selection = &c
	}
}

// SetBlockType converts the blocks touched by the selection to kind. A list
// kind wraps each block in a list item.
func (t *Tree) SetBlockType(kind Kind, attrs Attrs) error {
	return t.Update(func() error {
		if t.selection == nil {
			t.rangeSelection()
		}
		for _, b := range t.selectedBlocks() {
			if !t.isAttached(b) {
				continue
			}
			if err := t.setBlockType(b, kind, attrs); err != nil {
				return err
			}
		}
		return nil
	})
}

func (t *Tree) selectedBlocks() []NodeKey {
	switch s := t.selection.(type) {
	case *RangeSelection:
		start, end := t.orderedPoints(s)
		sb, eb := t.textBlockOf(start.Key), t.textBlockOf(end.Key)
		if sb == 0 {
			return nil
		}
		if sb == eb {
			return []NodeKey{sb}
		}
		blocks := t.textBlocks()
		si, ei := indexOfKey(blocks, sb), indexOfKey(blocks, eb)
		if ei < si {
			return []NodeKey{sb}
		}
		return append([]NodeKey(nil), blocks[si:ei+1]...)
	case *NodeSelection:
		var out []NodeKey
		for _, k := range s.Keys {
			if b := t.textBlockOf(k); b != 0 && indexOfKey(out, b) < 0 {
				out = append(out, b)
			}
		}
		return out
	}
	return nil
}

func (t *Tree) setBlockType(block NodeKey, kind Kind, attrs Attrs) error {
	if !kind.IsTextBlock() && kind != KindList || kind == KindListItem {
		return violation("%s is not a block type", kind)
	}
	attrs, err := normalizeAttrs(kind, attrs)
	if err != nil {
		return err
	}
	b := t.nodes[block]

	if kind == KindList {
		if b.Kind == KindListItem {
			list := t.nodes[b.Parent]
			if list.ListType != attrs.ListType {
				list.ListType = attrs.ListType
				t.dirty = true
			}
			return nil
		}
		list := t.newNode(KindList, attrs)
		item := t.newNode(KindListItem, Attrs{})
		_ = t.insertChild(list.Key, item.Key, 0)
		if b.Kind == KindCode {
			t.splitCodeLines(block)
		}
		if err := t.moveChildren(block, item.Key, 0); err != nil {
			return err
		}
		if err := t.replaceNode(block, list.Key); err != nil {
			return err
		}
		t.remapElementPoints(block, item.Key)
		return nil
	}

	if b.Kind == KindListItem {
		_, err := t.liftListItem(block, kind, attrs)
		return err
	}
	if b.Kind == kind && b.Attrs == attrs {
		return nil
	}

	replacement := t.newNode(kind, attrs)
	switch {
	case kind == KindCode:
		t.flattenToCode(block)
	case b.Kind == KindCode:
		t.splitCodeLines(block)
	}
	if err := t.moveChildren(block, replacement.Key, 0); err != nil {
		return err
	}
	if err := t.replaceNode(block, replacement.Key); err != nil {
		return err
	}
	t.remapElementPoints(block, replacement.Key)
	return nil
}

// flattenToCode replaces the inline children of block with one plain text run.
func (t *Tree) flattenToCode(block NodeKey) {
	var text []rune
	caretOffset := -1
	s, _ := t.selection.(*RangeSelection)
	for _, leaf := range t.leaves(block) {
		n := t.nodes[leaf]
		if s != nil && s.Anchor.Type == PointText && s.Anchor.Key == leaf {
			caretOffset = len(text) + s.Anchor.Offset
		}
		switch n.Kind {
		case KindText:
			text = append(text, []rune(n.Text)...)
		case KindLineBreak:
			text = append(text, '\n')
		}
	}
	for _, c := range t.Children(block) {
		t.detach(c)
	}
	if len(text) == 0 {
		return
	}
	run := t.CreateText(string(text), 0)
	_ = t.insertChild(block, run, 0)
	if caretOffset >= 0 {
		t.caret(TextPoint(run, caretOffset))
	}
}

// splitCodeLines drops the code formatting of runs leaving a code block and
// turns their newlines into line breaks.
func (t *Tree) splitCodeLines(block NodeKey) {
	for _, c := range append([]NodeKey(nil), t.nodes[block].Children...) {
		n := t.nodes[c]
		if n.Kind != KindText {
			continue
		}
		if n.Format != 0 {
			n.Format = 0
			t.dirty = true
		}
		t.splitNewlines(c)
	}
}

func (t *Tree) remapElementPoints(from, to NodeKey) {
	s, ok := t.selection.(*RangeSelection)
	if !ok {
		return
	}
	c := *s
	changed := false
	for _, pt := range []*Point{&c.Anchor, &c.Focus} {
		if pt.Type == PointElement && pt.Key == from {
			pt.Key = to
			if limit := len(t.nodes[to].Children); pt.Offset > limit {
				pt.Offset = limit
			}
			changed = true
		}
	}
	if changed {
		t.selection = &c
		t.selDirty = true
	}
}

// MoveCaret moves a collapsed caret by one position, collapses a range to
// one of its ends, or leaves a node selection on the given side.
func (t *Tree) MoveCaret(backward bool) error {
	return t.Update(func() error {
		switch s := t.selection.(type) {
		case *NodeSelection:
			k := s.Keys[len(s.Keys)-1]
			if backward {
				k = s.Keys[0]
			}
			parent, index := t.nodes[k].Parent, t.indexOf(k)
			if !backward {
				index++
			}
			t.caret(ElementPoint(parent, index))
		case *RangeSelection:
			if !s.IsCollapsed() {
				start, end := t.orderedPoints(s)
				if backward {
					t.caret(start)
				} else {
					t.caret(end)
				}
				return nil
			}
			return t.stepCaret(s.Anchor, backward)
		}
		return nil
	})
}

func (t *Tree) stepCaret(p Point, backward bool) error {
	if p.Type == PointText {
		size := runeLen(t.nodes[p.Key].Text)
		if backward && p.Offset > 0 {
			t.caret(TextPoint(p.Key, p.Offset-1))
			return nil
		}
		if !backward && p.Offset < size {
			t.caret(TextPoint(p.Key, p.Offset+1))
			return nil
		}
	}
	if adj := t.adjacentLeaf(p, backward); adj != 0 {
		a := t.nodes[adj]
		switch a.Kind {
		case KindText:
			size := runeLen(a.Text)
			if backward {
				t.caret(TextPoint(adj, max(size-1, 0)))
			} else {
				t.caret(TextPoint(adj, min(1, size)))
			}
		case KindImage:
			return t.setSelection(&NodeSelection{Keys: []NodeKey{adj}})
		default:
			index := t.indexOf(adj)
			if !backward {
				index++
			}
			t.caret(ElementPoint(a.Parent, index))
		}
		return nil
	}
	blocks := t.textBlocks()
	i := indexOfKey(blocks, t.textBlockOf(p.Key))
	switch {
	case i < 0:
	case backward && i > 0:
		t.caret(t.endPoint(blocks[i-1]))
	case !backward && i+1 < len(blocks):
		t.caret(t.startPoint(blocks[i+1]))
	}
	return nil
}

// SpliceText replaces count runes at offset of a text run with insert.
func (t *Tree) SpliceText(key NodeKey, offset, count int, insert string) error {
	return t.Update(func() error {
		n, err := t.get(key)
		if err != nil {
			return err
		}
		if n.Kind != KindText {
			return violation("node %d is not text", key)
		}
		r := []rune(n.Text)
		if offset < 0 || count < 0 || offset+count > len(r) {
			return ErrSelectionOutOfRange
		}
		n.Text = string(r[:offset]) + insert + string(r[offset+count:])
		t.dirty = true
		if s, ok := t.selection.(*RangeSelection); ok {
			c := *s
			for _, pt := range []*Point{&c.Anchor, &c.Focus} {
				if pt.Type == PointText && pt.Key == key && pt.Offset > offset {
					pt.Offset = max(offset, pt.Offset-count) + runeLen(insert)
					if pt.Offset > runeLen(n.Text) {
						pt.Offset = runeLen(n.Text)
					}
				}
			}
			t.selection = &c
			t.selDirty = true
		}
		return nil
	})
}

// SplitText cuts a text run at offset and returns the new right half.
func (t *Tree) SplitText(key NodeKey, offset int) (NodeKey, error) {
	var right NodeKey
	err := t.Update(func() error {
		n, err := t.get(key)
		if err != nil {
			return err
		}
		if n.Kind != KindText || !t.isAttached(key) {
			return violation("node %d is not attached text", key)
		}
		if offset <= 0 || offset >= runeLen(n.Text) {
			return ErrSelectionOutOfRange
		}
		right = t.splitText(key, offset)
		return nil
	})
	return right, err
}

// SetTextFormat replaces the format of a text run.
func (t *Tree) SetTextFormat(key NodeKey, format TextFormat) error {
	return t.Update(func() error {
		n, err := t.get(key)
		if err != nil {
			return err
		}
		if n.Kind != KindText {
			return violation("node %d is not text", key)
		}
		if n.Format != format {
			n.Format = format
			t.dirty = true
		}
		return nil
	})
}

// SetCaret collapses the selection at p.
func (t *Tree) SetCaret(p Point) error {
	return t.Select(p, p)
}
