package document

import (
	"fmt"
	"strconv"

	"blog-editor-be/pkg/lexical"
)

// ToJSON serializes the attached tree into the versioned wire form.
func (t *Tree) ToJSON() lexical.LexicalRoot {
	return lexical.LexicalRoot{Root: t.nodeToJSON(t.root, 0)}
}

func (t *Tree) nodeToJSON(key NodeKey, position int) lexical.Node {
	n := t.nodes[key]
	out := lexical.Node{Type: string(n.Kind), Version: lexical.Version}

	switch n.Kind {
	case KindText:
		out.Text = n.Text
		out.Format = int(n.Format)
		out.Mode = "normal"
		return out
	case KindLineBreak:
		return out
	case KindImage:
		out.Src = n.Src
		out.Path = n.Path
		out.Width = jsonSize(n.Width)
		out.Height = jsonSize(n.Height)
		return out
	}

	out.Direction = "ltr"
	out.Format = ""
	switch n.Kind {
	case KindHeading:
		out.Tag = fmt.Sprintf("h%d", n.Level)
	case KindList:
		out.ListType = string(n.ListType)
		out.Start = n.Start
		out.Tag = "ul"
		if n.ListType == ListNumber {
			out.Tag = "ol"
		}
	case KindListItem:
		start := 1
		if parent, ok := t.nodes[n.Parent]; ok && parent.Kind == KindList {
			start = parent.Start
		}
		out.Value = start + position
	case KindCode:
		out.Language = n.Language
	case KindLink:
		out.URL = n.URL
	case KindTableCell:
		out.ColSpan = n.ColSpan
		out.RowSpan = n.RowSpan
		if n.Header {
			out.HeaderState = 1
		}
	}

	out.Children = make([]lexical.Node, 0, len(n.Children))
	items := 0
	for _, c := range n.Children {
		out.Children = append(out.Children, t.nodeToJSON(c, items))
		if t.nodes[c].Kind == KindListItem {
			items++
		}
	}
	return out
}

func jsonSize(v string) string {
	if v == SizeInherit {
		return "0"
	}
	return v
}

// FromJSON rebuilds a tree from its serialized form. Nodes written by older
// versions are upgraded; newer versions are rejected.
func FromJSON(root lexical.LexicalRoot) (*Tree, error) {
	if root.Root.Type != string(KindRoot) {
		return nil, &InvalidKindError{Kind: Kind(root.Root.Type)}
	}
	t := newEmptyTree()
	for _, child := range root.Root.Children {
		key, err := t.nodeFromJSON(child)
		if err != nil {
			return nil, err
		}
		if err := t.insertChild(t.root, key, -1); err != nil {
			return nil, err
		}
	}
	if len(t.nodes[t.root].Children) == 0 {
		p := t.newNode(KindParagraph, Attrs{})
		_ = t.insertChild(t.root, p.Key, 0)
	}
	t.dirty = false
	return t, nil
}

func (t *Tree) nodeFromJSON(in lexical.Node) (NodeKey, error) {
	if in.Version > lexical.Version {
		return 0, fmt.Errorf("%w: %s node version %d", ErrUnsupportedVersion, in.Type, in.Version)
	}
	kind := Kind(in.Type)
	attrs := Attrs{}
	switch kind {
	case KindText:
		attrs.Text = in.Text
		attrs.Format = TextFormat(in.FormatInt())
	case KindHeading:
		if len(in.Tag) == 2 && in.Tag[0] == 'h' {
			attrs.Level, _ = strconv.Atoi(in.Tag[1:])
		}
	case KindList:
		attrs.ListType = ListType(in.ListType)
		attrs.Start = in.Start
	case KindCode:
		attrs.Language = in.Language
	case KindLink:
		attrs.URL = in.URL
	case KindTableCell:
		attrs.Header = in.HeaderState != 0
		attrs.ColSpan = in.ColSpan
		attrs.RowSpan = in.RowSpan
	case KindImage:
		attrs.Src = in.Src
		attrs.Path = in.Path
		attrs.Width = sizeFromJSON(in.Width)
		attrs.Height = sizeFromJSON(in.Height)
	}
	key, err := t.CreateNode(kind, attrs)
	if err != nil {
		return 0, err
	}
	for _, child := range in.Children {
		ck, err := t.nodeFromJSON(child)
		if err != nil {
			return 0, err
		}
		if err := t.insertChild(key, ck, -1); err != nil {
			return 0, err
		}
	}
	return key, nil
}

// sizeFromJSON maps the "0" written for inherited sizes back to inherit.
// Version 0 images carried no size at all.
func sizeFromJSON(v string) string {
	if v == "" || v == "0" {
		return SizeInherit
	}
	return v
}
