package markup

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"blog-editor-be/pkg/document"
	"blog-editor-be/pkg/lexical"
)

// Import parses markup into detached top-level nodes of t. Tags and
// attributes the editor does not know are dropped, as are images missing
// their src or data-path.
func Import(t *document.Tree, markup string) ([]document.NodeKey, error) {
	root, err := html.Parse(strings.NewReader(Sanitize(markup)))
	if err != nil {
		return nil, err
	}
	body := findBody(root)
	if body == nil {
		return nil, nil
	}

	var keys []document.NodeKey
	err = t.Update(func() error {
		im := &importer{tree: t}
		k, err := im.blocks(body, 0)
		keys = k
		return err
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Hydrate replaces the content of t with the imported markup. The result is
// not undoable.
func Hydrate(t *document.Tree, markup string) error {
	err := t.Update(func() error {
		keys, err := Import(t, markup)
		if err != nil {
			return err
		}
		if err := t.Clear(); err != nil {
			return err
		}
		for _, k := range keys {
			if err := t.Append(t.Root(), k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	t.ClearHistory()
	return nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

type importer struct {
	tree *document.Tree
}

// blocks converts the children of n into block nodes. Inline content found
// between blocks is gathered into paragraphs.
func (im *importer) blocks(n *html.Node, listDepth int) ([]document.NodeKey, error) {
	var out []document.NodeKey
	var para document.NodeKey

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		if c.Type == html.ElementNode && isBlockTag(c.Data) {
			para = 0
			keys, err := im.block(c, listDepth)
			if err != nil {
				return nil, err
			}
			out = append(out, keys...)
			continue
		}
		if para == 0 {
			k, err := im.tree.CreateNode(document.KindParagraph, document.Attrs{})
			if err != nil {
				return nil, err
			}
			para = k
			out = append(out, k)
		}
		if err := im.inline(c, para, 0); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func isBlockTag(tag string) bool {
	switch tag {
	case "p", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre", "ul", "ol", "table",
		"div", "section", "article", "header", "footer", "main", "figure":
		return true
	}
	return false
}

func (im *importer) block(n *html.Node, listDepth int) ([]document.NodeKey, error) {
	switch n.Data {
	case "p":
		return im.textBlock(n, document.KindParagraph, document.Attrs{})
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level, _ := strconv.Atoi(n.Data[1:])
		return im.textBlock(n, document.KindHeading, document.Attrs{Level: level})
	case "blockquote":
		return im.textBlock(n, document.KindQuote, document.Attrs{})
	case "pre":
		return im.code(n)
	case "ul", "ol":
		k, err := im.list(n, listDepth)
		if err != nil || k == 0 {
			return nil, err
		}
		return []document.NodeKey{k}, nil
	case "table":
		k, err := im.table(n)
		if err != nil || k == 0 {
			return nil, err
		}
		return []document.NodeKey{k}, nil
	}
	return im.blocks(n, listDepth)
}

func (im *importer) textBlock(n *html.Node, kind document.Kind, attrs document.Attrs) ([]document.NodeKey, error) {
	k, err := im.tree.CreateNode(kind, attrs)
	if err != nil {
		return nil, err
	}
	if !isLoneBreak(n) {
		if err := im.inlineChildren(n, k, 0); err != nil {
			return nil, err
		}
	}
	return []document.NodeKey{k}, nil
}

// isLoneBreak reports whether n holds nothing but a single <br>, which is how
// empty blocks are written.
func isLoneBreak(n *html.Node) bool {
	var only *html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && c.Data == "" {
			continue
		}
		if only != nil {
			return false
		}
		only = c
	}
	return only != nil && only.Type == html.ElementNode && only.Data == "br"
}

func (im *importer) code(n *html.Node) ([]document.NodeKey, error) {
	language, ok := attr(n, "data-language")
	if !ok {
		language = codeLanguage(n)
	}
	k, err := im.tree.CreateNode(document.KindCode, document.Attrs{Language: language})
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	collectCode(n, &sb)
	text := sb.String()
	if hasChild(n, "code") {
		// Markdown renderers end fenced code with a newline.
		text = strings.TrimSuffix(text, "\n")
	}
	if text != "" {
		if err := im.tree.Append(k, im.tree.CreateText(text, 0)); err != nil {
			return nil, err
		}
	}
	return []document.NodeKey{k}, nil
}

// codeLanguage reads a language-xxx class from a nested <code>, as markdown
// renderers write it.
func codeLanguage(n *html.Node) string {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "code" {
			continue
		}
		class, _ := attr(c, "class")
		for _, f := range strings.Fields(class) {
			if strings.HasPrefix(f, "language-") {
				return strings.TrimPrefix(f, "language-")
			}
		}
	}
	return ""
}

func hasChild(n *html.Node, tag string) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return true
		}
	}
	return false
}

func collectCode(n *html.Node, sb *strings.Builder) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode:
			sb.WriteString(c.Data)
		case c.Type == html.ElementNode && c.Data == "br":
			sb.WriteString("\n")
		case c.Type == html.ElementNode:
			collectCode(c, sb)
		}
	}
}

func (im *importer) list(n *html.Node, depth int) (document.NodeKey, error) {
	attrs := document.Attrs{ListType: document.ListBullet}
	if n.Data == "ol" {
		attrs.ListType = document.ListNumber
		if v, ok := attr(n, "start"); ok {
			attrs.Start, _ = strconv.Atoi(v)
		}
	}
	list, err := im.tree.CreateNode(document.KindList, attrs)
	if err != nil {
		return 0, err
	}
	if err := im.listItems(n, list, depth); err != nil {
		return 0, err
	}
	if len(im.tree.Children(list)) == 0 {
		return 0, nil
	}
	return list, nil
}

// listItems appends the <li> children of n to list. Lists nested deeper than
// the indent limit are flattened into list.
func (im *importer) listItems(n *html.Node, list document.NodeKey, depth int) error {
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		item, err := im.tree.CreateNode(document.KindListItem, document.Attrs{})
		if err != nil {
			return err
		}
		if err := im.tree.Append(list, item); err != nil {
			return err
		}
		if isLoneBreak(li) {
			continue
		}
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol") {
				if depth+1 >= document.MaxListIndent {
					if err := im.listItems(c, list, depth); err != nil {
						return err
					}
					continue
				}
				nested, err := im.list(c, depth+1)
				if err != nil {
					return err
				}
				if nested != 0 {
					if err := im.tree.Append(item, nested); err != nil {
						return err
					}
				}
				continue
			}
			if err := im.inline(c, item, 0); err != nil {
				return err
			}
		}
	}
	return nil
}

func (im *importer) table(n *html.Node) (document.NodeKey, error) {
	table, err := im.tree.CreateNode(document.KindTable, document.Attrs{})
	if err != nil {
		return 0, err
	}
	if err := im.rows(n, table); err != nil {
		return 0, err
	}
	if len(im.tree.Children(table)) == 0 {
		return 0, nil
	}
	return table, nil
}

func (im *importer) rows(n *html.Node, table document.NodeKey) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "thead", "tbody", "tfoot":
			if err := im.rows(c, table); err != nil {
				return err
			}
		case "tr":
			row, err := im.tree.CreateNode(document.KindTableRow, document.Attrs{})
			if err != nil {
				return err
			}
			if err := im.cells(c, row); err != nil {
				return err
			}
			if len(im.tree.Children(row)) > 0 {
				if err := im.tree.Append(table, row); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (im *importer) cells(tr *html.Node, row document.NodeKey) error {
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		attrs := document.Attrs{Header: c.Data == "th"}
		if v, ok := attr(c, "colspan"); ok {
			attrs.ColSpan, _ = strconv.Atoi(v)
		}
		if v, ok := attr(c, "rowspan"); ok {
			attrs.RowSpan, _ = strconv.Atoi(v)
		}
		cell, err := im.tree.CreateNode(document.KindTableCell, attrs)
		if err != nil {
			return err
		}
		blocks, err := im.blocks(c, 0)
		if err != nil {
			return err
		}
		if len(blocks) == 0 {
			p, err := im.tree.CreateNode(document.KindParagraph, document.Attrs{})
			if err != nil {
				return err
			}
			blocks = append(blocks, p)
		}
		for _, b := range blocks {
			if b, ok := im.tree.Node(b); ok && b.Kind == document.KindTable {
				continue
			}
			if err := im.tree.Append(cell, b); err != nil {
				return err
			}
		}
		if err := im.tree.Append(row, cell); err != nil {
			return err
		}
	}
	return nil
}

func (im *importer) inlineChildren(n *html.Node, parent document.NodeKey, format document.TextFormat) error {
	first := true
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		// Paragraphs nested in a quote or list item become line breaks.
		if c.Type == html.ElementNode && c.Data == "p" {
			if !first {
				if err := im.appendNew(parent, document.KindLineBreak, document.Attrs{}); err != nil {
					return err
				}
			}
			first = false
			if err := im.inlineChildren(c, parent, format); err != nil {
				return err
			}
			continue
		}
		if err := im.inline(c, parent, format); err != nil {
			return err
		}
	}
	return nil
}

func (im *importer) appendNew(parent document.NodeKey, kind document.Kind, attrs document.Attrs) error {
	k, err := im.tree.CreateNode(kind, attrs)
	if err != nil {
		return err
	}
	return im.tree.Append(parent, k)
}

// inline converts n into inline nodes under parent.
func (im *importer) inline(n *html.Node, parent document.NodeKey, format document.TextFormat) error {
	switch n.Type {
	case html.TextNode:
		text := n.Data
		if strings.TrimSpace(text) == "" && strings.Contains(text, "\n") {
			return nil
		}
		text = strings.ReplaceAll(text, "\n", " ")
		if text == "" {
			return nil
		}
		return im.tree.Append(parent, im.tree.CreateText(text, format))
	case html.ElementNode:
	default:
		return nil
	}

	switch n.Data {
	case "br":
		return im.appendNew(parent, document.KindLineBreak, document.Attrs{})
	case "img":
		return im.image(n, parent)
	case "a":
		return im.link(n, parent, format)
	}
	return im.inlineChildren(n, parent, format|tagFormat(n))
}

func tagFormat(n *html.Node) document.TextFormat {
	switch n.Data {
	case "b", "strong":
		return document.FormatBold
	case "i", "em":
		return document.FormatItalic
	case "u":
		return document.FormatUnderline
	case "s", "strike", "del":
		return document.FormatStrikethrough
	case "code":
		return document.FormatCode
	case "sub":
		return document.FormatSubscript
	case "sup":
		return document.FormatSuperscript
	case "span":
		style, _ := attr(n, "style")
		return document.TextFormat(lexical.ParseStyle(style).TextFormat())
	}
	return 0
}

func (im *importer) link(n *html.Node, parent document.NodeKey, format document.TextFormat) error {
	href, _ := attr(n, "href")
	p, _ := im.tree.Node(parent)
	if href == "" || p.Kind == document.KindLink {
		return im.inlineChildren(n, parent, format)
	}
	link, err := im.tree.CreateNode(document.KindLink, document.Attrs{URL: href})
	if err != nil {
		return err
	}
	if err := im.inlineChildren(n, link, format); err != nil {
		return err
	}
	if len(im.tree.Children(link)) == 0 {
		return nil
	}
	return im.tree.Append(parent, link)
}

// image creates an image node when both src and data-path are present.
func (im *importer) image(n *html.Node, parent document.NodeKey) error {
	src, okSrc := attr(n, "src")
	path, okPath := attr(n, "data-path")
	if !okSrc || !okPath || src == "" || path == "" {
		return nil
	}
	width, _ := attr(n, "width")
	height, _ := attr(n, "height")
	k, err := im.tree.CreateImage(src, path,
		importSize(width, document.DefaultImageWidth),
		importSize(height, document.DefaultImageHeight))
	if err != nil {
		return err
	}
	return im.tree.Append(parent, k)
}

// importSize keeps inherit and positive pixel or percent sizes and falls
// back otherwise.
func importSize(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == document.SizeInherit {
		return v
	}
	if !sizeRegexp.MatchString(v) {
		return fallback
	}
	if n, err := strconv.Atoi(strings.TrimSuffix(v, "%")); err == nil && n > 0 {
		return v
	}
	return fallback
}
