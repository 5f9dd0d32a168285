package document

// CreateImage allocates a detached image node. Empty sizes inherit.
func (t *Tree) CreateImage(src, path, width, height string) (NodeKey, error) {
	return t.CreateNode(KindImage, Attrs{Src: src, Path: path, Width: width, Height: height})
}

// InsertImage creates an image and inserts it at the selection.
func (t *Tree) InsertImage(src, path, width, height string) (NodeKey, error) {
	var key NodeKey
	err := t.Update(func() error {
		k, err := t.CreateImage(src, path, width, height)
		if err != nil {
			return err
		}
		key = k
		return t.InsertNodes(k)
	})
	return key, err
}

// SelectNode selects an image. With extend the image is toggled in the
// existing node selection instead, as a shift-click does.
func (t *Tree) SelectNode(key NodeKey, extend bool) error {
	return t.Update(func() error {
		n, err := t.get(key)
		if err != nil {
			return err
		}
		if n.Kind != KindImage {
			return ErrNotSelectable
		}
		if ns, ok := t.selection.(*NodeSelection); ok && extend {
			keys := make([]NodeKey, 0, len(ns.Keys)+1)
			for _, k := range ns.Keys {
				if k != key {
					keys = append(keys, k)
				}
			}
			if len(keys) == len(ns.Keys) {
				keys = append(keys, key)
			}
			if len(keys) == 0 {
				t.selection = nil
				t.selDirty = true
				return nil
			}
			return t.setSelection(&NodeSelection{Keys: keys})
		}
		return t.setSelection(&NodeSelection{Keys: []NodeKey{key}})
	})
}

// IsNodeSelected reports whether key is part of the current node selection.
func (t *Tree) IsNodeSelected(key NodeKey) bool {
	ns, ok := t.selection.(*NodeSelection)
	return ok && ns.Has(key)
}

// insertParagraphBefore adds an empty paragraph ahead of the block holding key.
func (t *Tree) insertParagraphBefore(key NodeKey) error {
	block := t.textBlockOf(key)
	if block == 0 {
		return violation("node %d is not inside a block", key)
	}
	kind := KindParagraph
	if t.nodes[block].Kind == KindListItem {
		kind = KindListItem
	}
	return t.insertBefore(block, t.newNode(kind, Attrs{}).Key)
}

// InsertNodes inserts detached nodes at the selection. Inline nodes go to the
// caret; blocks go next to the caret's block, splitting it when the caret is
// in the middle and replacing it when it is an empty paragraph. Without a
// selection the nodes are appended to the document.
func (t *Tree) InsertNodes(keys ...NodeKey) error {
	return t.Update(func() error {
		for _, k := range keys {
			n, err := t.get(k)
			if err != nil {
				return err
			}
			if k == t.root || n.Parent != 0 {
				return violation("node %d is not detached", k)
			}
			if t.selection == nil {
				if err := t.appendAtEnd(k); err != nil {
					return err
				}
				continue
			}
			if ns, ok := t.selection.(*NodeSelection); ok {
				last := ns.Keys[len(ns.Keys)-1]
				t.caret(ElementPoint(t.nodes[last].Parent, t.indexOf(last)+1))
			}
			s := t.selection.(*RangeSelection)
			if !s.IsCollapsed() {
				if err := t.deleteRange(s); err != nil {
					return err
				}
				s = t.selection.(*RangeSelection)
			}
			if n.Kind.IsInline() {
				err = t.insertInlineAt(s.Anchor, k)
			} else {
				err = t.insertBlockAt(s.Anchor, k)
			}
			if err != nil {
				return err
			}
			t.caret(t.endPoint(k))
		}
		return nil
	})
}

func (t *Tree) appendAtEnd(key NodeKey) error {
	n := t.nodes[key]
	if n.Kind.IsInline() {
		para := t.newNode(KindParagraph, Attrs{})
		if err := t.insertChild(t.root, para.Key, -1); err != nil {
			return err
		}
		if err := t.insertChild(para.Key, key, 0); err != nil {
			return err
		}
	} else if err := t.insertChild(t.root, key, -1); err != nil {
		return err
	}
	t.caret(t.endPoint(key))
	return nil
}

func (t *Tree) insertBlockAt(p Point, key NodeKey) error {
	kind := t.nodes[key].Kind
	container, child := p.Key, NodeKey(0)
	for container != 0 {
		ck := t.nodes[container].Kind
		if (ck == KindRoot || ck == KindTableCell) && CanContain(ck, kind) {
			break
		}
		child = container
		container = t.nodes[container].Parent
	}
	if container == 0 {
		return violation("no place for %s", kind)
	}
	if child == 0 {
		return t.insertChild(container, key, p.Offset)
	}
	if t.nodes[child].Kind == KindParagraph && t.isEmptyBlock(child) {
		if err := t.insertBefore(child, key); err != nil {
			return err
		}
		t.detach(child)
		return nil
	}
	if block := t.textBlockOf(p.Key); block == child {
		switch {
		case t.ComparePoints(p, t.endPoint(block)) >= 0:
			return t.insertAfter(child, key)
		case t.ComparePoints(p, t.startPoint(block)) <= 0:
			return t.insertBefore(child, key)
		}
		right, err := t.splitBlock(block, p)
		if err != nil {
			return err
		}
		return t.insertBefore(right, key)
	}
	return t.insertAfter(child, key)
}
