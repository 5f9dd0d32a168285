package toolbar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-editor-be/pkg/document"
	"blog-editor-be/pkg/markup"
)

// helloTree returns a tree holding "hello world" and the key of its text run.
func helloTree(t *testing.T) (*document.Tree, document.NodeKey) {
	t.Helper()
	tree := document.New()
	require.NoError(t, tree.InsertText("hello world"))
	para := tree.Children(tree.Root())[0]
	return tree, tree.Children(para)[0]
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, tree *document.Tree, text document.NodeKey)
		focus   bool
		want    FormatState
	}{
		{
			name: "range over text",
			prepare: func(t *testing.T, tree *document.Tree, text document.NodeKey) {
				require.NoError(t, tree.Select(document.TextPoint(text, 0), document.TextPoint(text, 5)))
			},
			focus: true,
			want:  FormatState{IsText: true},
		},
		{
			name: "bold range",
			prepare: func(t *testing.T, tree *document.Tree, text document.NodeKey) {
				require.NoError(t, tree.Select(document.TextPoint(text, 0), document.TextPoint(text, 5)))
				require.NoError(t, tree.FormatText(document.FormatBold))
			},
			focus: true,
			want:  FormatState{IsText: true, Bold: true},
		},
		{
			name: "collapsed caret",
			prepare: func(t *testing.T, tree *document.Tree, text document.NodeKey) {
				require.NoError(t, tree.SetCaret(document.TextPoint(text, 3)))
			},
			focus: true,
			want:  FormatState{},
		},
		{
			name: "whitespace only",
			prepare: func(t *testing.T, tree *document.Tree, text document.NodeKey) {
				require.NoError(t, tree.Select(document.TextPoint(text, 5), document.TextPoint(text, 6)))
			},
			focus: true,
			want:  FormatState{},
		},
		{
			name: "outside the editor",
			prepare: func(t *testing.T, tree *document.Tree, text document.NodeKey) {
				require.NoError(t, tree.Select(document.TextPoint(text, 0), document.TextPoint(text, 5)))
			},
			focus: false,
			want:  FormatState{},
		},
		{
			name: "composing",
			prepare: func(t *testing.T, tree *document.Tree, text document.NodeKey) {
				require.NoError(t, tree.Select(document.TextPoint(text, 0), document.TextPoint(text, 5)))
				tree.SetComposing(true)
			},
			focus: true,
			want:  FormatState{},
		},
		{
			name: "link",
			prepare: func(t *testing.T, tree *document.Tree, text document.NodeKey) {
				require.NoError(t, tree.Select(document.TextPoint(text, 0), document.TextPoint(text, 5)))
				require.NoError(t, tree.ToggleLink("https://go.dev"))
			},
			focus: true,
			want:  FormatState{IsText: true, IsLink: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, text := helloTree(t)
			tt.prepare(t, tree, text)
			got := Derive(tree, tt.focus)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.IsText && !tt.want.IsLink, got.Visible())
		})
	}
}

func TestDeriveIgnoresCodeBlocks(t *testing.T) {
	tree := document.New()
	require.NoError(t, markup.Hydrate(tree, `<pre data-language="go">abc def</pre>`))
	code := tree.NodesOfKind(document.KindCode)
	require.Len(t, code, 1)
	text := tree.Children(code[0].Key)[0]
	require.NoError(t, tree.Select(document.TextPoint(text, 0), document.TextPoint(text, 3)))

	assert.False(t, Derive(tree, true).IsText)
}

func TestDeriveImageSelection(t *testing.T) {
	tree := document.New()
	key, err := tree.InsertImage("/a.png", "a.png", "", "")
	require.NoError(t, err)
	require.NoError(t, tree.SelectNode(key, false))

	assert.Equal(t, FormatState{}, Derive(tree, true))
}

func TestSelectedNode(t *testing.T) {
	tree := document.New()
	require.NoError(t, markup.Hydrate(tree, `<p><b><span>ab</span></b><span>cd</span></p>`))
	runs := tree.Children(tree.Children(tree.Root())[0])
	require.Len(t, runs, 2)
	first, second := runs[0], runs[1]

	tests := []struct {
		name          string
		anchor, focus document.Point
		want          document.NodeKey
	}{
		{"same node", document.TextPoint(first, 0), document.TextPoint(first, 1), first},
		{"forward from start", document.TextPoint(first, 0), document.TextPoint(second, 1), first},
		{"forward from node end", document.TextPoint(first, 2), document.TextPoint(second, 1), second},
		{"backward to start", document.TextPoint(second, 1), document.TextPoint(first, 0), first},
		{"backward to node end", document.TextPoint(second, 1), document.TextPoint(first, 2), second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tree.Select(tt.anchor, tt.focus))
			sel, ok := tree.Selection().(*document.RangeSelection)
			require.True(t, ok)
			assert.Equal(t, tt.want, selectedNode(tree, sel))
		})
	}

	t.Run("mixed formats are not bold", func(t *testing.T) {
		require.NoError(t, tree.Select(document.TextPoint(first, 0), document.TextPoint(second, 2)))
		st := Derive(tree, true)
		assert.True(t, st.IsText)
		assert.False(t, st.Bold)
	})
}

func TestToolbarFollowsTree(t *testing.T) {
	tree := document.New()
	tb := New(tree)
	defer tb.Close()

	var got []FormatState
	unsubscribe := tb.OnChange(func(st FormatState) {
		got = append(got, st)
	})

	require.NoError(t, tree.InsertText("hello world"))
	text := tree.Children(tree.Children(tree.Root())[0])[0]
	assert.Empty(t, got, "typing leaves the toolbar hidden")

	require.NoError(t, tree.Select(document.TextPoint(text, 0), document.TextPoint(text, 5)))
	require.Len(t, got, 1)
	assert.True(t, got[0].Visible())

	require.NoError(t, tb.ToggleBold())
	require.Len(t, got, 2)
	assert.True(t, got[1].Bold)

	tb.Refresh()
	tb.Refresh()
	assert.Len(t, got, 2, "refresh without change does not notify")

	assert.False(t, tb.SetFocus(false).IsText)
	assert.Len(t, got, 3)
	assert.True(t, tb.SetFocus(true).IsText)

	unsubscribe()
	require.NoError(t, tb.ToggleItalic())
	assert.Len(t, got, 4)
	assert.True(t, tb.State().Italic)
}

func TestToolbarToggleLink(t *testing.T) {
	tree, text := helloTree(t)
	tb := New(tree)
	defer tb.Close()

	require.NoError(t, tree.Select(document.TextPoint(text, 0), document.TextPoint(text, 5)))
	require.NoError(t, tb.ToggleLink())

	links := tree.NodesOfKind(document.KindLink)
	require.Len(t, links, 1)
	assert.Equal(t, LinkPlaceholder, links[0].URL)
	assert.True(t, tb.State().IsLink)
	assert.Equal(t, Hidden(), tb.Position(Geometry{Target: &Rect{}, Scroller: &Rect{Width: 800}}))

	require.NoError(t, tb.ToggleLink())
	assert.Empty(t, tree.NodesOfKind(document.KindLink))
	assert.False(t, tb.State().IsLink)
}

func TestCloseStopsUpdates(t *testing.T) {
	tree, text := helloTree(t)
	tb := New(tree)
	calls := 0
	tb.OnChange(func(FormatState) { calls++ })
	tb.Close()

	require.NoError(t, tree.Select(document.TextPoint(text, 0), document.TextPoint(text, 5)))
	assert.Zero(t, calls)
	assert.False(t, tb.State().IsText)
}

func TestPlace(t *testing.T) {
	scroller := &Rect{Top: 0, Left: 0, Width: 800, Height: 600}
	floating := Rect{Width: 120, Height: 40}
	anchor := Rect{Top: 50, Left: 20}

	tests := []struct {
		name string
		geom Geometry
		want Placement
	}{
		{
			name: "above the selection",
			geom: Geometry{Target: &Rect{Top: 200, Left: 100, Width: 50, Height: 20}, Floating: floating, Anchor: anchor, Scroller: scroller},
			want: Placement{Top: 100, Left: 75, Opacity: 1},
		},
		{
			name: "flips below near the top",
			geom: Geometry{Target: &Rect{Top: 30, Left: 100, Width: 50, Height: 20}, Floating: floating, Anchor: anchor, Scroller: scroller},
			want: Placement{Top: 10, Left: 75, Opacity: 1},
		},
		{
			name: "clamped to the right edge",
			geom: Geometry{Target: &Rect{Top: 200, Left: 750, Width: 40, Height: 20}, Floating: floating, Anchor: anchor, Scroller: scroller},
			want: Placement{Top: 100, Left: 655, Opacity: 1},
		},
		{
			name: "no target",
			geom: Geometry{Floating: floating, Anchor: anchor, Scroller: scroller},
			want: Hidden(),
		},
		{
			name: "no scroller",
			geom: Geometry{Target: &Rect{Top: 200, Left: 100}, Floating: floating, Anchor: anchor},
			want: Hidden(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Place(tt.geom))
		})
	}

	t.Run("placement is idempotent", func(t *testing.T) {
		g := tests[0].geom
		assert.Equal(t, Place(g), Place(g))
	})
}

func TestToolbarPress(t *testing.T) {
	tests := []struct {
		button Button
		check  func(FormatState) bool
	}{
		{ButtonBold, func(st FormatState) bool { return st.Bold }},
		{ButtonItalic, func(st FormatState) bool { return st.Italic }},
		{ButtonUnderline, func(st FormatState) bool { return st.Underline }},
	}
	for _, tt := range tests {
		t.Run(string(tt.button), func(t *testing.T) {
			tree, text := helloTree(t)
			tb := New(tree)
			defer tb.Close()

			require.NoError(t, tree.Select(document.TextPoint(text, 0), document.TextPoint(text, 5)))
			require.NoError(t, tb.Press(tt.button))
			assert.True(t, tt.check(tb.State()))

			require.NoError(t, tb.Press(tt.button))
			assert.False(t, tt.check(tb.State()))
		})
	}

	t.Run("unknown", func(t *testing.T) {
		tree, _ := helloTree(t)
		tb := New(tree)
		defer tb.Close()
		assert.ErrorIs(t, tb.Press("strike"), ErrUnknownButton)
	})
}
