package document

// Indent nests the list items touched by the selection one level deeper,
// under their previous sibling. Items already MaxListIndent levels deep, and
// first items with no sibling to nest under, are left alone.
func (t *Tree) Indent() error {
	return t.Update(func() error {
		for _, item := range t.selectedListItems() {
			if err := t.indentItem(item); err != nil {
				return err
			}
		}
		return nil
	})
}

// Outdent moves the list items touched by the selection one level up. Items
// of a top-level list stay where they are.
func (t *Tree) Outdent() error {
	return t.Update(func() error {
		for _, item := range t.selectedListItems() {
			if err := t.outdentItem(item); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListDepth returns how many lists enclose key, so 1 for an item of a
// top-level list and 0 outside lists.
func (t *Tree) ListDepth(key NodeKey) int {
	depth := 0
	for k := key; k != 0; k = t.nodes[k].Parent {
		if t.nodes[k].Kind == KindList {
			depth++
		}
	}
	return depth
}

func (t *Tree) selectedListItems() []NodeKey {
	if t.selection == nil {
		t.rangeSelection()
	}
	var items []NodeKey
	for _, b := range t.selectedBlocks() {
		if t.nodes[b].Kind == KindListItem && t.isAttached(b) {
			items = append(items, b)
		}
	}
	return items
}

// nestedDepth is the number of list levels below key.
func (t *Tree) nestedDepth(key NodeKey) int {
	deepest := 0
	for _, c := range t.nodes[key].Children {
		d := t.nestedDepth(c)
		if t.nodes[c].Kind == KindList {
			d++
		}
		if d > deepest {
			deepest = d
		}
	}
	return deepest
}

func (t *Tree) indentItem(item NodeKey) error {
	list := t.nodes[item].Parent
	if t.ListDepth(list)+1+t.nestedDepth(item) > MaxListIndent {
		return nil
	}
	index := t.indexOf(item)
	if index == 0 {
		return nil
	}
	prev := t.nodes[list].Children[index-1]

	var nested NodeKey
	if pc := t.nodes[prev].Children; len(pc) > 0 && t.nodes[pc[len(pc)-1]].Kind == KindList {
		nested = pc[len(pc)-1]
	} else {
		n := t.newNode(KindList, Attrs{ListType: t.nodes[list].ListType, Start: defaultListStart})
		if err := t.insertChild(prev, n.Key, -1); err != nil {
			return err
		}
		nested = n.Key
	}
	t.detach(item)
	return t.insertChild(nested, item, -1)
}

func (t *Tree) outdentItem(item NodeKey) error {
	list := t.nodes[item].Parent
	parentItem := t.nodes[list].Parent
	if parentItem == 0 || t.nodes[parentItem].Kind != KindListItem {
		return nil
	}

	// Later siblings stay after the item by nesting under it.
	index := t.indexOf(item)
	after := append([]NodeKey(nil), t.nodes[list].Children[index+1:]...)
	if len(after) > 0 {
		var tail NodeKey
		if c := t.nodes[item].Children; len(c) > 0 && t.nodes[c[len(c)-1]].Kind == KindList {
			tail = c[len(c)-1]
		} else {
			n := t.newNode(KindList, Attrs{ListType: t.nodes[list].ListType, Start: defaultListStart})
			if err := t.insertChild(item, n.Key, -1); err != nil {
				return err
			}
			tail = n.Key
		}
		for _, k := range after {
			t.detach(k)
			if err := t.insertChild(tail, k, -1); err != nil {
				return err
			}
		}
	}

	t.detach(item)
	if err := t.insertAfter(parentItem, item); err != nil {
		return err
	}
	if len(t.nodes[list].Children) == 0 {
		t.detach(list)
	}
	return nil
}
