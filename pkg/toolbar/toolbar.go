// Package toolbar derives the state of the floating text format toolbar from
// a document selection and computes where the toolbar sits on screen.
package toolbar

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"blog-editor-be/pkg/document"
)

// LinkPlaceholder is the URL a fresh link is created with.
const LinkPlaceholder = "https://"

// Button is one of the controls shown on the floating toolbar.
type Button string

const (
	ButtonBold      Button = "bold"
	ButtonItalic    Button = "italic"
	ButtonUnderline Button = "underline"
	ButtonLink      Button = "link"
)

var ErrUnknownButton = errors.New("unknown toolbar button")

// FormatState is what the toolbar knows about the current selection.
type FormatState struct {
	IsText        bool `json:"is_text"`
	IsLink        bool `json:"is_link"`
	Bold          bool `json:"bold"`
	Italic        bool `json:"italic"`
	Underline     bool `json:"underline"`
	Strikethrough bool `json:"strikethrough"`
	Subscript     bool `json:"subscript"`
	Superscript   bool `json:"superscript"`
	Code          bool `json:"code"`
}

// Visible reports whether the toolbar is shown. A selected link hides it.
func (s FormatState) Visible() bool {
	return s.IsText && !s.IsLink
}

// Derive reads the selection of tree. inEditor is false when the host reports
// the native selection outside the editable region.
func Derive(tree *document.Tree, inEditor bool) FormatState {
	if tree.IsComposing() || !inEditor {
		return FormatState{}
	}
	sel, ok := tree.Selection().(*document.RangeSelection)
	if !ok {
		return FormatState{}
	}

	node := selectedNode(tree, sel)
	st := FormatState{
		Bold:          tree.SelectionHasFormat(document.FormatBold),
		Italic:        tree.SelectionHasFormat(document.FormatItalic),
		Underline:     tree.SelectionHasFormat(document.FormatUnderline),
		Strikethrough: tree.SelectionHasFormat(document.FormatStrikethrough),
		Subscript:     tree.SelectionHasFormat(document.FormatSubscript),
		Superscript:   tree.SelectionHasFormat(document.FormatSuperscript),
		Code:          tree.SelectionHasFormat(document.FormatCode),
	}

	n, _ := tree.Node(node)
	if n.Kind == document.KindLink {
		st.IsLink = true
	} else if p, ok := tree.Node(n.Parent); ok && p.Kind == document.KindLink {
		st.IsLink = true
	}

	text := tree.SelectedText()
	if sel.IsCollapsed() || text == "" || inCodeBlock(tree, sel.Anchor.Key) {
		return st
	}
	if strings.TrimSpace(strings.ReplaceAll(text, "\n", "")) == "" {
		return st
	}
	st.IsText = n.Kind == document.KindText
	return st
}

// selectedNode picks the node the selection is considered to be on. For a
// range spanning nodes, an edge sitting at the very end of its node does not
// count.
func selectedNode(tree *document.Tree, sel *document.RangeSelection) document.NodeKey {
	anchor, focus := sel.Anchor, sel.Focus
	if anchor.Key == focus.Key {
		return anchor.Key
	}
	if tree.IsBackward(sel) {
		if tree.IsAtNodeEnd(focus) {
			return anchor.Key
		}
		return focus.Key
	}
	if tree.IsAtNodeEnd(anchor) {
		return focus.Key
	}
	return anchor.Key
}

func inCodeBlock(tree *document.Tree, key document.NodeKey) bool {
	for k := key; k != 0; k = tree.Parent(k) {
		n, ok := tree.Node(k)
		if !ok {
			return false
		}
		if n.Kind == document.KindCode {
			return true
		}
	}
	return false
}

// Toolbar keeps a FormatState in step with a tree and tells subscribers when
// it changes. Tree access is serialized by the caller, as for the tree.
type Toolbar struct {
	tree *document.Tree

	mu          sync.Mutex
	inEditor    bool
	state       FormatState
	subscribers map[int]func(FormatState)
	seq         int
	unsubscribe func()
}

func New(tree *document.Tree) *Toolbar {
	tb := &Toolbar{
		tree:        tree,
		inEditor:    true,
		subscribers: make(map[int]func(FormatState)),
	}
	tb.state = Derive(tree, true)
	tb.unsubscribe = tree.RegisterUpdateListener(func(document.UpdateInfo) {
		tb.Refresh()
	})
	return tb
}

// OnChange registers fn for state changes. The returned function unsubscribes.
func (tb *Toolbar) OnChange(fn func(FormatState)) func() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.seq++
	id := tb.seq
	tb.subscribers[id] = fn
	return func() {
		tb.mu.Lock()
		defer tb.mu.Unlock()
		delete(tb.subscribers, id)
	}
}

func (tb *Toolbar) State() FormatState {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.state
}

// SetFocus records whether the native selection is inside the editor.
func (tb *Toolbar) SetFocus(inEditor bool) FormatState {
	tb.mu.Lock()
	tb.inEditor = inEditor
	tb.mu.Unlock()
	return tb.Refresh()
}

// Refresh derives the state again and notifies subscribers if it changed.
// It is safe to call redundantly.
func (tb *Toolbar) Refresh() FormatState {
	tb.mu.Lock()
	st := Derive(tb.tree, tb.inEditor)
	if st == tb.state {
		tb.mu.Unlock()
		return st
	}
	tb.state = st
	subs := make([]func(FormatState), 0, len(tb.subscribers))
	for _, fn := range tb.subscribers {
		subs = append(subs, fn)
	}
	tb.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
	return st
}

// Position places the toolbar for g, or hides it when there is nothing to show.
func (tb *Toolbar) Position(g Geometry) Placement {
	if !tb.State().Visible() {
		return Hidden()
	}
	return Place(g)
}

// Press applies the action of button b to the selection.
func (tb *Toolbar) Press(b Button) error {
	switch b {
	case ButtonBold:
		return tb.ToggleBold()
	case ButtonItalic:
		return tb.ToggleItalic()
	case ButtonUnderline:
		return tb.ToggleUnderline()
	case ButtonLink:
		return tb.ToggleLink()
	}
	return fmt.Errorf("%w: %q", ErrUnknownButton, b)
}

func (tb *Toolbar) ToggleBold() error {
	return tb.tree.FormatText(document.FormatBold)
}

func (tb *Toolbar) ToggleItalic() error {
	return tb.tree.FormatText(document.FormatItalic)
}

func (tb *Toolbar) ToggleUnderline() error {
	return tb.tree.FormatText(document.FormatUnderline)
}

// ToggleLink links the selection to LinkPlaceholder, or unlinks it when the
// selection is already a link.
func (tb *Toolbar) ToggleLink() error {
	if tb.State().IsLink {
		return tb.tree.ToggleLink("")
	}
	return tb.tree.ToggleLink(LinkPlaceholder)
}

// Close stops following the tree and drops all subscribers.
func (tb *Toolbar) Close() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.unsubscribe != nil {
		tb.unsubscribe()
		tb.unsubscribe = nil
	}
	tb.subscribers = make(map[int]func(FormatState))
}
