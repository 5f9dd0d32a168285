package markup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-editor-be/pkg/document"
)

const span = `<span style="white-space: pre-wrap;">`

func hydrated(t *testing.T, markup string) *document.Tree {
	t.Helper()
	tr := document.New()
	require.NoError(t, Hydrate(tr, markup))
	return tr
}

func TestExportEmptyDocument(t *testing.T) {
	assert.Equal(t, "<p><br></p>", Export(document.New()))
}

func TestExportFormatNestingOrder(t *testing.T) {
	tr := document.New()
	require.NoError(t, tr.InsertText("x"))
	require.NoError(t, tr.SelectAll())
	require.NoError(t, tr.FormatText(document.FormatItalic))
	require.NoError(t, tr.FormatText(document.FormatBold))

	assert.Equal(t, "<p><b><i>"+span+"x</span></i></b></p>", Export(tr))
}

func TestExportImage(t *testing.T) {
	tr := document.New()
	require.NoError(t, tr.SelectEnd())
	_, err := tr.InsertImage("/media/a.png", "blogs/a.png", "", "")
	require.NoError(t, err)

	assert.Equal(t,
		`<p><img src="/media/a.png" alt="blog-image" data-path="blogs/a.png" class="editor-image" width="inherit" height="inherit"></p>`,
		Export(tr))
}

func TestExportEscapesText(t *testing.T) {
	tr := document.New()
	require.NoError(t, tr.InsertText(`<b>&"`))
	assert.Equal(t, "<p>"+span+"&lt;b&gt;&amp;&#34;</span></p>", Export(tr))
}

func TestRoundTrip(t *testing.T) {
	source := `<h2><span>Title</span></h2>
<p><span>plain </span><b><span>bold</span></b><a href="https://go.dev"><i><span>link</span></i></a><br><img src="/m/a.png" data-path="a.png" width="640" height="inherit"></p>
<blockquote><u><s><span>quoted</span></s></u></blockquote>
<ol start="3"><li><span>three</span><ul><li><sub><span>nested</span></sub></li></ul></li><li><br></li></ol>
<pre data-language="go">func main() {<br>	return<br>}</pre>
<table><tbody><tr><th><p><span>h</span></p></th><td colspan="2"><p><br></p></td></tr></tbody></table>
<p><br></p>`

	first := hydrated(t, source)
	markup := Export(first)
	second := hydrated(t, markup)

	assert.Equal(t, first.ToJSON(), second.ToJSON())
	assert.Equal(t, markup, Export(second))

	t.Run("attributes survive", func(t *testing.T) {
		imgs := second.NodesOfKind(document.KindImage)
		require.Len(t, imgs, 1)
		assert.Equal(t, "/m/a.png", imgs[0].Src)
		assert.Equal(t, "a.png", imgs[0].Path)
		assert.Equal(t, "640", imgs[0].Width)
		assert.Equal(t, document.SizeInherit, imgs[0].Height)

		lists := second.NodesOfKind(document.KindList)
		require.Len(t, lists, 2)
		assert.Equal(t, document.ListNumber, lists[0].ListType)
		assert.Equal(t, 3, lists[0].Start)
		assert.Equal(t, document.ListBullet, lists[1].ListType)

		code := second.NodesOfKind(document.KindCode)
		require.Len(t, code, 1)
		assert.Equal(t, "go", code[0].Language)
		assert.Equal(t, "func main() {\n\treturn\n}", second.TextContent(code[0].Key))

		cells := second.NodesOfKind(document.KindTableCell)
		require.Len(t, cells, 2)
		assert.True(t, cells[0].Header)
		assert.Equal(t, 2, cells[1].ColSpan)
	})

	t.Run("code is highlighted", func(t *testing.T) {
		assert.Contains(t, markup, `<pre spellcheck="false" data-language="go">`)
		assert.Contains(t, markup, `class="token-`)
	})
}

func TestImportIsLenient(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "image without data-path",
			markup: `<p><img src="/x.png"><span>ok</span></p>`,
			want:   "<p>" + span + "ok</span></p>",
		},
		{
			name:   "image without src",
			markup: `<p><img data-path="x.png"><span>ok</span></p>`,
			want:   "<p>" + span + "ok</span></p>",
		},
		{
			name:   "unknown tags keep their text",
			markup: `<div><p><mark>marked</mark></p></div>`,
			want:   "<p>" + span + "marked</span></p>",
		},
		{
			name:   "scripts are dropped",
			markup: `<p><span>safe</span></p><script>alert(1)</script>`,
			want:   "<p>" + span + "safe</span></p>",
		},
		{
			name:   "bare text is wrapped",
			markup: `hello`,
			want:   "<p>" + span + "hello</span></p>",
		},
		{
			name:   "styles become formats",
			markup: `<p><span style="font-weight: bold; font-style: italic">x</span></p>`,
			want:   "<p><b><i>" + span + "x</span></i></b></p>",
		},
		{
			name:   "empty input",
			markup: "",
			want:   "<p><br></p>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Export(hydrated(t, tt.markup)))
		})
	}
}

func TestImportImageSizeFallback(t *testing.T) {
	tr := hydrated(t, `<p><img src="/x.png" data-path="x.png" width="0" height="abc"></p>`)
	imgs := tr.NodesOfKind(document.KindImage)
	require.Len(t, imgs, 1)
	assert.Equal(t, document.DefaultImageWidth, imgs[0].Width)
	assert.Equal(t, document.DefaultImageHeight, imgs[0].Height)
}

func TestHydrateEmitsImageCreation(t *testing.T) {
	tr := document.New()
	var created []document.NodeKey
	tr.RegisterMutationListener(document.KindImage, func(ms []document.Mutation) {
		for _, m := range ms {
			if m.Type == document.MutationCreated {
				created = append(created, m.Key)
			}
		}
	})
	require.NoError(t, Hydrate(tr, `<p><img src="/a.png" data-path="a.png"></p><p><img src="/b.png" data-path="b.png"></p>`))
	assert.Len(t, created, 2)
	assert.False(t, tr.CanUndo())
}

func TestImportLeavesTreeUntouched(t *testing.T) {
	tr := document.New()
	before := tr.ToJSON()
	keys, err := Import(tr, `<p><span>a</span></p><h3><span>b</span></h3>`)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, before, tr.ToJSON())
	for _, k := range keys {
		assert.False(t, tr.IsAttached(k))
	}
}

func TestMarkdownToMarkup(t *testing.T) {
	got, err := MarkdownToMarkup("# Hi\n\n**bold** text\n\n- a\n- b\n")
	require.NoError(t, err)
	assert.Equal(t,
		"<h1>"+span+"Hi</span></h1>"+
			"<p><b>"+span+"bold</span></b>"+span+" text</span></p>"+
			"<ul><li>"+span+"a</span></li><li>"+span+"b</span></li></ul>",
		got)

	t.Run("fenced code keeps its language", func(t *testing.T) {
		got, err := MarkdownToMarkup("```go\nx := 1\n```\n")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(got, `<pre spellcheck="false" data-language="go">`), got)
	})
}

func typeText(t *testing.T, tr *document.Tree, text string) {
	t.Helper()
	for _, r := range text {
		require.NoError(t, tr.InsertText(string(r)))
		ApplyShortcuts(tr)
	}
}

func TestBlockShortcuts(t *testing.T) {
	tests := []struct {
		typed string
		kind  document.Kind
		check func(t *testing.T, n document.Node)
	}{
		{"# ", document.KindHeading, func(t *testing.T, n document.Node) { assert.Equal(t, 1, n.Level) }},
		{"### ", document.KindHeading, func(t *testing.T, n document.Node) { assert.Equal(t, 3, n.Level) }},
		{"> ", document.KindQuote, nil},
		{"- ", document.KindList, func(t *testing.T, n document.Node) { assert.Equal(t, document.ListBullet, n.ListType) }},
		{"* ", document.KindList, func(t *testing.T, n document.Node) { assert.Equal(t, document.ListBullet, n.ListType) }},
		{"4. ", document.KindList, func(t *testing.T, n document.Node) {
			assert.Equal(t, document.ListNumber, n.ListType)
			assert.Equal(t, 4, n.Start)
		}},
		{"```go ", document.KindCode, func(t *testing.T, n document.Node) { assert.Equal(t, "go", n.Language) }},
	}
	for _, tt := range tests {
		t.Run(tt.typed, func(t *testing.T) {
			tr := document.New()
			typeText(t, tr, tt.typed)

			blocks := tr.Children(tr.Root())
			require.Len(t, blocks, 1)
			n, _ := tr.Node(blocks[0])
			assert.Equal(t, tt.kind, n.Kind)
			assert.Equal(t, "", tr.TextContent(tr.Root()))
			if tt.check != nil {
				tt.check(t, n)
			}
		})
	}
}

func TestBlockShortcutOnlyAtBlockStart(t *testing.T) {
	tr := document.New()
	typeText(t, tr, "a # ")
	n, _ := tr.Node(tr.Children(tr.Root())[0])
	assert.Equal(t, document.KindParagraph, n.Kind)
	assert.Equal(t, "a # ", tr.TextContent(tr.Root()))
}

func TestInlineShortcuts(t *testing.T) {
	tests := []struct {
		typed  string
		text   string
		format document.TextFormat
	}{
		{"a **b**", "b", document.FormatBold},
		{"a __b__", "b", document.FormatBold},
		{"a *b*", "b", document.FormatItalic},
		{"a _b_", "b", document.FormatItalic},
		{"a ~~b~~", "b", document.FormatStrikethrough},
		{"a `b`", "b", document.FormatCode},
	}
	for _, tt := range tests {
		t.Run(tt.typed, func(t *testing.T) {
			tr := document.New()
			typeText(t, tr, tt.typed+"c")

			runs := tr.Children(tr.Children(tr.Root())[0])
			require.Len(t, runs, 3)
			first, _ := tr.Node(runs[0])
			marked, _ := tr.Node(runs[1])
			after, _ := tr.Node(runs[2])
			assert.Equal(t, "a ", first.Text)
			assert.Equal(t, tt.text, marked.Text)
			assert.Equal(t, tt.format, marked.Format)
			assert.Equal(t, "c", after.Text)
			assert.Zero(t, after.Format)
		})
	}
}

func TestShortcutsSkipCodeBlocks(t *testing.T) {
	tr := document.New()
	typeText(t, tr, "``` **x**")
	assert.Empty(t, tr.NodesOfKind(document.KindHeading))
	code := tr.NodesOfKind(document.KindCode)
	require.Len(t, code, 1)
	assert.Equal(t, "**x**", tr.TextContent(code[0].Key))
}

func TestRoundTripNormalizesURLsAndSizes(t *testing.T) {
	const pngData = "data:image/png;base64,iVBORw0KGgo="

	tests := []struct {
		name  string
		build func(t *testing.T, tr *document.Tree)
		check func(t *testing.T, tr *document.Tree)
	}{
		{
			name: "link with a space",
			build: func(t *testing.T, tr *document.Tree) {
				require.NoError(t, tr.InsertText("see docs"))
				require.NoError(t, tr.SelectAll())
				require.NoError(t, tr.ToggleLink("https://example.com/my page"))
			},
			check: func(t *testing.T, tr *document.Tree) {
				links := tr.NodesOfKind(document.KindLink)
				require.Len(t, links, 1)
				assert.Equal(t, "https://example.com/my%20page", links[0].URL)
			},
		},
		{
			name: "image src with a space",
			build: func(t *testing.T, tr *document.Tree) {
				_, err := tr.InsertImage("/media/my cat.png", "cat.png", "", "")
				require.NoError(t, err)
			},
			check: func(t *testing.T, tr *document.Tree) {
				imgs := tr.NodesOfKind(document.KindImage)
				require.Len(t, imgs, 1)
				assert.Equal(t, "/media/my%20cat.png", imgs[0].Src)
			},
		},
		{
			name: "data image",
			build: func(t *testing.T, tr *document.Tree) {
				_, err := tr.InsertImage(pngData, "inline.png", "", "")
				require.NoError(t, err)
			},
			check: func(t *testing.T, tr *document.Tree) {
				imgs := tr.NodesOfKind(document.KindImage)
				require.Len(t, imgs, 1)
				assert.Equal(t, pngData, imgs[0].Src)
			},
		},
		{
			name: "percent width",
			build: func(t *testing.T, tr *document.Tree) {
				_, err := tr.InsertImage("/m/a.png", "a.png", "50%", "inherit")
				require.NoError(t, err)
			},
			check: func(t *testing.T, tr *document.Tree) {
				imgs := tr.NodesOfKind(document.KindImage)
				require.Len(t, imgs, 1)
				assert.Equal(t, "50%", imgs[0].Width)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := document.New()
			tt.build(t, tr)
			markup := Export(tr)

			back := hydrated(t, markup)
			tt.check(t, back)
			assert.Equal(t, markup, Export(back))
		})
	}

	t.Run("unsafe urls are refused", func(t *testing.T) {
		tr := document.New()
		require.NoError(t, tr.InsertText("x"))
		require.NoError(t, tr.SelectAll())
		assert.True(t, document.IsInvariantViolation(tr.ToggleLink("javascript:alert(1)")))
		assert.Empty(t, tr.NodesOfKind(document.KindLink))

		_, err := tr.InsertImage("data:text/html;base64,PGI+", "x.png", "", "")
		assert.True(t, document.IsInvariantViolation(err))
	})
}

func TestAutoLink(t *testing.T) {
	tests := []struct {
		typed string
		text  string
		url   string
	}{
		{"visit https://go.dev ", "https://go.dev", "https://go.dev"},
		{"visit www.go.dev ", "www.go.dev", "https://www.go.dev"},
		{"see http://example.com/a?b=1. ", "http://example.com/a?b=1", "http://example.com/a?b=1"},
		{"mail me@example.org ", "me@example.org", "mailto:me@example.org"},
	}
	for _, tt := range tests {
		t.Run(tt.typed, func(t *testing.T) {
			tr := document.New()
			typeText(t, tr, tt.typed+"x")

			links := tr.NodesOfKind(document.KindLink)
			require.Len(t, links, 1)
			assert.Equal(t, tt.url, links[0].URL)
			assert.Equal(t, tt.text, tr.TextContent(links[0].Key))
			assert.True(t, strings.HasSuffix(tr.TextContent(tr.Root()), " x"), "typing continues after the link")
		})
	}

	t.Run("plain words stay text", func(t *testing.T) {
		tr := document.New()
		typeText(t, tr, "hello world example.txt ")
		assert.Empty(t, tr.NodesOfKind(document.KindLink))
	})
}

func TestUnderscoreInsideWords(t *testing.T) {
	tr := document.New()
	typeText(t, tr, "snake_case_ ")
	assert.Equal(t, "snake_case_ ", tr.TextContent(tr.Root()))
	for _, n := range tr.NodesOfKind(document.KindText) {
		assert.Zero(t, n.Format)
	}
}
