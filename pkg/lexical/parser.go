package lexical

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ExcerptLength is the rune budget of a blog listing excerpt.
const ExcerptLength = 400

// Parser renders serialized editor JSON as Markdown
type Parser struct{}

// NewParser creates a new parser instance
func NewParser() *Parser {
	return &Parser{}
}

// Parse converts a serialized tree string to Markdown
func (p *Parser) Parse(jsonContent string) (string, error) {
	var root LexicalRoot
	if err := json.Unmarshal([]byte(jsonContent), &root); err != nil {
		return "", fmt.Errorf("failed to parse lexical json: %w", err)
	}
	return p.Render(root), nil
}

// Render converts an already decoded tree to Markdown
func (p *Parser) Render(root LexicalRoot) string {
	var sb strings.Builder
	p.walkNode(root.Root, &sb, 0)
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// ParseContent is a convenience function to parse a raw string
// It attempts to parse as serialized JSON; if it fails (not JSON or error), it returns the original string
func ParseContent(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, `{"root":`) {
		return content
	}

	md, err := NewParser().Parse(trimmed)
	if err != nil {
		return content
	}
	return md
}

// Excerpt returns the plain text of the tree cut to ExcerptLength runes.
func Excerpt(root LexicalRoot) string {
	var sb strings.Builder
	plainText(root.Root, &sb)
	text := strings.Join(strings.Fields(sb.String()), " ")
	if utf8.RuneCountInString(text) <= ExcerptLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:ExcerptLength]) + "..."
}

func plainText(node Node, sb *strings.Builder) {
	switch node.Type {
	case "text":
		sb.WriteString(node.Text)
	case "linebreak":
		sb.WriteString("\n")
	case "image":
		return
	default:
		for _, child := range node.Children {
			plainText(child, sb)
		}
		if node.Type != "link" && node.Type != "root" {
			sb.WriteString(" ")
		}
	}
}

// walkNode traverses the tree and writes markdown
func (p *Parser) walkNode(node Node, sb *strings.Builder, depth int) {
	switch node.Type {
	case "root":
		for _, child := range node.Children {
			p.walkNode(child, sb, depth)
			sb.WriteString("\n")
		}

	case "paragraph":
		p.handleInline(node, sb, depth)
		sb.WriteString("\n")

	case "heading":
		level := 1
		if len(node.Tag) == 2 && node.Tag[0] == 'h' {
			level = int(node.Tag[1] - '0')
		}
		sb.WriteString(strings.Repeat("#", level) + " ")
		p.handleInline(node, sb, depth)
		sb.WriteString("\n")

	case "quote":
		var inner strings.Builder
		p.handleInline(node, &inner, depth)
		for _, line := range strings.Split(inner.String(), "\n") {
			sb.WriteString("> " + line + "\n")
		}

	case "code":
		sb.WriteString("```" + node.Language + "\n")
		p.handleInline(node, sb, depth)
		sb.WriteString("\n```\n")

	case "text":
		p.handleText(node, sb)

	case "linebreak":
		sb.WriteString("\n")

	case "image":
		sb.WriteString(fmt.Sprintf("![blog-image](%s)", node.Src))

	case "list":
		p.handleList(node, sb, depth)

	// ListItems are handled by handleList to ensure correct numbering
	case "listitem":
		p.handleInline(node, sb, depth)

	case "table":
		p.handleTable(node, sb)

	case "link":
		p.handleLink(node, sb)

	default:
		p.handleInline(node, sb, depth)
	}
}

func (p *Parser) handleInline(node Node, sb *strings.Builder, depth int) {
	for _, child := range node.Children {
		p.walkNode(child, sb, depth)
	}
}

func (p *Parser) handleText(node Node, sb *strings.Builder) {
	text := node.Text

	styles := ParseStyle(node.Style)
	openTag := styles.BuildAnnotatedOpenTag()
	if openTag != "" {
		sb.WriteString(openTag)
	}

	fmtInt := node.FormatInt()
	isBold := (fmtInt & FormatBold) != 0
	isItalic := (fmtInt & FormatItalic) != 0
	isUnderline := (fmtInt & FormatUnderline) != 0
	isCode := (fmtInt & FormatCode) != 0
	isStrike := (fmtInt & FormatStrikethrough) != 0

	// Wrappers open Code > Bold > Italic > Underline > Strike and close in reverse
	if isCode {
		sb.WriteString("`")
	}
	if isBold {
		sb.WriteString("**")
	}
	if isItalic {
		sb.WriteString("_")
	}
	if isUnderline {
		sb.WriteString("<u>")
	}
	if isStrike {
		sb.WriteString("~~")
	}

	sb.WriteString(text)

	if isStrike {
		sb.WriteString("~~")
	}
	if isUnderline {
		sb.WriteString("</u>")
	}
	if isItalic {
		sb.WriteString("_")
	}
	if isBold {
		sb.WriteString("**")
	}
	if isCode {
		sb.WriteString("`")
	}

	if openTag != "" {
		sb.WriteString("</span>")
	}
}

func (p *Parser) handleLink(node Node, sb *strings.Builder) {
	sb.WriteString("[")
	for _, child := range node.Children {
		p.walkNode(child, sb, 0)
	}
	sb.WriteString(fmt.Sprintf("](%s)", node.URL))
}

func (p *Parser) handleList(node Node, sb *strings.Builder, depth int) {
	index := 1
	if node.Start > 0 {
		index = node.Start
	}

	for _, child := range node.Children {
		if child.Type != "listitem" {
			continue
		}

		// 2 spaces per nesting level
		sb.WriteString(strings.Repeat("  ", depth))

		if node.ListType == "number" {
			sb.WriteString(fmt.Sprintf("%d. ", index))
			index++
		} else {
			sb.WriteString("- ")
		}

		for _, grandChild := range child.Children {
			if grandChild.Type == "list" {
				sb.WriteString("\n")
				p.handleList(grandChild, sb, depth+1)
			} else {
				p.walkNode(grandChild, sb, depth)
			}
		}
		if !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteString("\n")
		}
	}
}

func (p *Parser) handleTable(node Node, sb *strings.Builder) {
	var rows [][]string
	maxCols := 0

	for _, row := range node.Children {
		if row.Type != "tablerow" {
			continue
		}

		var rowData []string
		for _, cell := range row.Children {
			var cellSb strings.Builder
			for _, content := range cell.Children {
				p.walkNode(content, &cellSb, 0)
			}
			// Newlines break markdown tables
			cleanContent := strings.TrimSpace(strings.ReplaceAll(cellSb.String(), "\n", " "))
			rowData = append(rowData, cleanContent)
		}
		rows = append(rows, rowData)
		if len(rowData) > maxCols {
			maxCols = len(rowData)
		}
	}

	if len(rows) == 0 {
		return
	}

	writeRow := func(cells []string) {
		sb.WriteString("|")
		for i := 0; i < maxCols; i++ {
			if i < len(cells) {
				sb.WriteString(" " + cells[i] + " |")
			} else {
				sb.WriteString("  |")
			}
		}
		sb.WriteString("\n")
	}

	writeRow(rows[0])
	sb.WriteString("|" + strings.Repeat("---|", maxCols) + "\n")
	for _, row := range rows[1:] {
		writeRow(row)
	}
}
