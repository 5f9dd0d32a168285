package lexical

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func text(s string, format int) Node {
	return Node{Type: "text", Version: Version, Text: s, Format: format}
}

func TestParserRender(t *testing.T) {
	tests := []struct {
		name string
		root Node
		want []string
	}{
		{
			name: "heading and paragraph",
			root: Node{Type: "root", Children: []Node{
				{Type: "heading", Tag: "h2", Children: []Node{text("Title", 0)}},
				{Type: "paragraph", Children: []Node{text("bold", FormatBold), text(" plain", 0)}},
			}},
			want: []string{"## Title", "**bold** plain"},
		},
		{
			name: "numbered list honours start",
			root: Node{Type: "root", Children: []Node{
				{Type: "list", ListType: "number", Start: 3, Children: []Node{
					{Type: "listitem", Children: []Node{text("one", 0)}},
					{Type: "listitem", Children: []Node{text("two", 0)}},
				}},
			}},
			want: []string{"3. one", "4. two"},
		},
		{
			name: "code block and image",
			root: Node{Type: "root", Children: []Node{
				{Type: "code", Language: "go", Children: []Node{text("x := 1", 0)}},
				{Type: "paragraph", Children: []Node{{Type: "image", Src: "/a.png", Path: "a.png"}}},
			}},
			want: []string{"```go\nx := 1\n```", "![blog-image](/a.png)"},
		},
		{
			name: "link and quote",
			root: Node{Type: "root", Children: []Node{
				{Type: "quote", Children: []Node{{Type: "link", URL: "https://go.dev", Children: []Node{text("go", FormatItalic)}}}},
			}},
			want: []string{"> [_go_](https://go.dev)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := NewParser().Render(LexicalRoot{Root: tt.root})
			for _, w := range tt.want {
				if !strings.Contains(md, w) {
					t.Errorf("markdown %q does not contain %q", md, w)
				}
			}
		})
	}
}

func TestParseContentFallsBackToRaw(t *testing.T) {
	assert.Equal(t, "<p>hello</p>", ParseContent("<p>hello</p>"))
	assert.Equal(t, `{"root": broken`, ParseContent(`{"root": broken`))
}

func TestExcerpt(t *testing.T) {
	root := LexicalRoot{Root: Node{Type: "root", Children: []Node{
		{Type: "paragraph", Children: []Node{text("Hello", 0)}},
		{Type: "paragraph", Children: []Node{text("world", FormatBold)}},
	}}}
	assert.Equal(t, "Hello world", Excerpt(root))

	long := LexicalRoot{Root: Node{Type: "root", Children: []Node{
		{Type: "paragraph", Children: []Node{text(strings.Repeat("a", ExcerptLength+10), 0)}},
	}}}
	got := Excerpt(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, ExcerptLength+3, len(got))
}

func TestStyleMapTextFormat(t *testing.T) {
	tests := []struct {
		style string
		want  int
	}{
		{"font-weight: bold", FormatBold},
		{"font-style: italic; text-decoration: underline line-through", FormatItalic | FormatUnderline | FormatStrikethrough},
		{"white-space: pre-wrap;", 0},
		{"vertical-align: super", FormatSuperscript},
	}
	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			if got := ParseStyle(tt.style).TextFormat(); got != tt.want {
				t.Errorf("TextFormat() = %d, want %d", got, tt.want)
			}
		})
	}
}
