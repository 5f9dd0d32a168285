// Package markup converts document trees to and from the HTML markup stored
// for a blog post, and applies markdown shortcuts while typing.
package markup

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"golang.org/x/net/html"

	"blog-editor-be/pkg/document"
)

const (
	// ImageAlt is the fixed alt text written for every image.
	ImageAlt = "blog-image"
	// ImageClass marks images created by the editor.
	ImageClass = "editor-image"

	textStyle = "white-space: pre-wrap;"
)

// formatTags lists inline format tags from outermost to innermost.
var formatTags = []struct {
	flag document.TextFormat
	tag  string
}{
	{document.FormatBold, "b"},
	{document.FormatItalic, "i"},
	{document.FormatUnderline, "u"},
	{document.FormatStrikethrough, "s"},
	{document.FormatCode, "code"},
	{document.FormatSubscript, "sub"},
	{document.FormatSuperscript, "sup"},
}

// Export serializes the attached tree as markup.
func Export(t *document.Tree) string {
	var sb strings.Builder
	for _, k := range t.Children(t.Root()) {
		writeNode(&sb, t, k)
	}
	return sb.String()
}

func writeNode(sb *strings.Builder, t *document.Tree, key document.NodeKey) {
	n, ok := t.Node(key)
	if !ok {
		return
	}

	switch n.Kind {
	case document.KindText:
		writeText(sb, n.Text, n.Format)
		return
	case document.KindLineBreak:
		sb.WriteString("<br>")
		return
	case document.KindImage:
		writeImage(sb, n.Attrs)
		return
	case document.KindCode:
		writeCode(sb, t, n)
		return
	}

	open, end := elementTags(n)
	sb.WriteString(open)
	if len(n.Children) == 0 && n.Kind.IsTextBlock() {
		sb.WriteString("<br>")
	}
	for _, c := range n.Children {
		writeNode(sb, t, c)
	}
	sb.WriteString(end)
}

func elementTags(n document.Node) (string, string) {
	switch n.Kind {
	case document.KindParagraph:
		return "<p>", "</p>"
	case document.KindHeading:
		return fmt.Sprintf("<h%d>", n.Level), fmt.Sprintf("</h%d>", n.Level)
	case document.KindQuote:
		return "<blockquote>", "</blockquote>"
	case document.KindList:
		if n.ListType == document.ListNumber {
			if n.Start != 1 {
				return fmt.Sprintf(`<ol start="%d">`, n.Start), "</ol>"
			}
			return "<ol>", "</ol>"
		}
		return "<ul>", "</ul>"
	case document.KindListItem:
		return "<li>", "</li>"
	case document.KindLink:
		return `<a href="` + html.EscapeString(n.URL) + `">`, "</a>"
	case document.KindTable:
		return "<table><tbody>", "</tbody></table>"
	case document.KindTableRow:
		return "<tr>", "</tr>"
	case document.KindTableCell:
		tag := "td"
		if n.Header {
			tag = "th"
		}
		var attrs strings.Builder
		if n.ColSpan > 1 {
			fmt.Fprintf(&attrs, ` colspan="%d"`, n.ColSpan)
		}
		if n.RowSpan > 1 {
			fmt.Fprintf(&attrs, ` rowspan="%d"`, n.RowSpan)
		}
		return "<" + tag + attrs.String() + ">", "</" + tag + ">"
	}
	return "", ""
}

func writeText(sb *strings.Builder, text string, format document.TextFormat) {
	if text == "" {
		return
	}
	for _, f := range formatTags {
		if format.Has(f.flag) {
			sb.WriteString("<" + f.tag + ">")
		}
	}
	sb.WriteString(`<span style="` + textStyle + `">`)
	sb.WriteString(html.EscapeString(text))
	sb.WriteString("</span>")
	for i := len(formatTags) - 1; i >= 0; i-- {
		if format.Has(formatTags[i].flag) {
			sb.WriteString("</" + formatTags[i].tag + ">")
		}
	}
}

func writeImage(sb *strings.Builder, a document.Attrs) {
	fmt.Fprintf(sb, `<img src="%s" alt="%s" data-path="%s" class="%s" width="%s" height="%s">`,
		html.EscapeString(a.Src),
		ImageAlt,
		html.EscapeString(a.Path),
		ImageClass,
		html.EscapeString(a.Width),
		html.EscapeString(a.Height),
	)
}

func writeCode(sb *strings.Builder, t *document.Tree, n document.Node) {
	sb.WriteString(`<pre spellcheck="false"`)
	if n.Language != "" {
		sb.WriteString(` data-language="` + html.EscapeString(n.Language) + `"`)
	}
	sb.WriteString(">")

	var code strings.Builder
	for _, c := range n.Children {
		child, _ := t.Node(c)
		switch child.Kind {
		case document.KindText:
			code.WriteString(child.Text)
		case document.KindLineBreak:
			code.WriteString("\n")
		}
	}
	writeHighlighted(sb, code.String(), n.Language)
	sb.WriteString("</pre>")
}

// writeHighlighted emits code as token spans with <br> between lines.
func writeHighlighted(sb *strings.Builder, code, language string) {
	if code == "" {
		return
	}
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		writeToken(sb, "", code)
		return
	}
	// Some lexers append a trailing newline; never emit more than the input.
	rest := code
	for tok := it(); tok != chroma.EOF && rest != ""; tok = it() {
		v := tok.Value
		if len(v) > len(rest) || !strings.HasPrefix(rest, v) {
			v = rest
		}
		rest = rest[len(v):]
		writeToken(sb, chroma.StandardTypes[tok.Type], v)
	}
	if rest != "" {
		writeToken(sb, "", rest)
	}
}

func writeToken(sb *strings.Builder, class, value string) {
	for i, line := range strings.Split(value, "\n") {
		if i > 0 {
			sb.WriteString("<br>")
		}
		if line == "" {
			continue
		}
		if class == "" {
			sb.WriteString(html.EscapeString(line))
			continue
		}
		sb.WriteString(`<span class="token-` + class + `">` + html.EscapeString(line) + "</span>")
	}
}
