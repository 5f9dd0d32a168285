package markup

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"blog-editor-be/pkg/document"
)

type blockShortcut struct {
	pattern *regexp.Regexp
	apply   func(m []string) (document.Kind, document.Attrs)
}

type inlineShortcut struct {
	pattern *regexp.Regexp // group 1 precedes the opening marker, group 2 is the content
	marker  int
	format  document.TextFormat
}

// Evaluated in order; the first match wins.
var blockShortcuts = []blockShortcut{
	{regexp.MustCompile(`^(#{1,6}) $`), func(m []string) (document.Kind, document.Attrs) {
		return document.KindHeading, document.Attrs{Level: len(m[1])}
	}},
	{regexp.MustCompile(`^> $`), func([]string) (document.Kind, document.Attrs) {
		return document.KindQuote, document.Attrs{}
	}},
	{regexp.MustCompile(`^[-*+] $`), func([]string) (document.Kind, document.Attrs) {
		return document.KindList, document.Attrs{ListType: document.ListBullet}
	}},
	{regexp.MustCompile(`^(\d{1,9})\. $`), func(m []string) (document.Kind, document.Attrs) {
		start, _ := strconv.Atoi(m[1])
		if start < 1 {
			start = 1
		}
		return document.KindList, document.Attrs{ListType: document.ListNumber, Start: start}
	}},
	{regexp.MustCompile("^```([a-zA-Z0-9_+#-]*) $"), func(m []string) (document.Kind, document.Attrs) {
		return document.KindCode, document.Attrs{Language: m[1]}
	}},
}

var inlineShortcuts = []inlineShortcut{
	newInlineShortcut("`", document.FormatCode, true),
	newInlineShortcut("**", document.FormatBold, true),
	newInlineShortcut("__", document.FormatBold, false),
	newInlineShortcut("~~", document.FormatStrikethrough, true),
	newInlineShortcut("*", document.FormatItalic, true),
	newInlineShortcut("_", document.FormatItalic, false),
}

// newInlineShortcut builds the pattern for marker. Without intraword the
// opening marker must not follow a word character, so snake_case_ is left
// alone.
func newInlineShortcut(marker string, format document.TextFormat, intraword bool) inlineShortcut {
	m := regexp.QuoteMeta(marker)
	c := regexp.QuoteMeta(marker[:1])
	prefix := `(^|[^` + c + `])`
	if !intraword {
		prefix = `(^|[^\w])`
	}
	return inlineShortcut{
		pattern: regexp.MustCompile(prefix + m + `([^` + c + `]+)` + m + `$`),
		marker:  len(marker),
		format:  format,
	}
}

var (
	autoLinkURL   = regexp.MustCompile(`^((https?://(www\.)?)|(www\.))[-a-zA-Z0-9@:%._+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b([-a-zA-Z0-9()@:%_+.~#?&/=]*)$`)
	autoLinkEmail = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@([a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}$`)
)

// autoLinkTarget returns the link URL for a typed word, or "" when the word
// is neither a web address nor an email address.
func autoLinkTarget(word string) string {
	switch {
	case autoLinkURL.MatchString(word):
		if strings.HasPrefix(strings.ToLower(word), "www.") {
			return "https://" + word
		}
		return word
	case autoLinkEmail.MatchString(word):
		return "mailto:" + word
	}
	return ""
}

// ApplyShortcuts checks the text before the caret against the markdown
// shortcut table and applies the first match. It reports whether the tree
// changed.
func ApplyShortcuts(t *document.Tree) bool {
	sel, ok := t.Selection().(*document.RangeSelection)
	if !ok || !sel.IsCollapsed() || sel.Anchor.Type != document.PointText {
		return false
	}
	node, ok := t.Node(sel.Anchor.Key)
	if !ok {
		return false
	}
	parent, _ := t.Node(node.Parent)
	if parent.Kind == document.KindCode || node.Format.Has(document.FormatCode) {
		return false
	}
	runes := []rune(node.Text)[:sel.Anchor.Offset]
	before := string(runes)

	if parent.Kind == document.KindParagraph && len(parent.Children) > 0 && parent.Children[0] == node.Key {
		for _, s := range blockShortcuts {
			if m := s.pattern.FindStringSubmatch(before); m != nil {
				kind, attrs := s.apply(m)
				return applyBlockShortcut(t, node, sel.Anchor.Offset, kind, attrs) == nil
			}
		}
	}

	if len(runes) > 0 && unicode.IsSpace(runes[len(runes)-1]) && parent.Kind != document.KindLink {
		if applyAutoLink(t, node, runes[:len(runes)-1], sel.Anchor.Offset) {
			return true
		}
	}

	for _, s := range inlineShortcuts {
		m := s.pattern.FindStringSubmatchIndex(before)
		if m == nil {
			continue
		}
		openStart := utf8.RuneCountInString(before[:m[3]])
		content := utf8.RuneCountInString(before[m[4]:m[5]])
		return applyInlineShortcut(t, node, openStart, content, s) == nil
	}
	return false
}

// applyAutoLink links the word ending right before the typed boundary
// character. Trailing sentence punctuation stays outside the link.
func applyAutoLink(t *document.Tree, node document.Node, text []rune, caret int) bool {
	end := len(text)
	for end > 0 && strings.ContainsRune(".,;:!?", text[end-1]) {
		end--
	}
	start := end
	for start > 0 && !unicode.IsSpace(text[start-1]) {
		start--
	}
	if start == end {
		return false
	}
	href := autoLinkTarget(string(text[start:end]))
	if href == "" {
		return false
	}

	err := t.Update(func() error {
		after, err := t.SplitText(node.Key, end)
		if err != nil {
			return err
		}
		target := node.Key
		if start > 0 {
			if target, err = t.SplitText(node.Key, start); err != nil {
				return err
			}
		}
		if err := t.Select(document.TextPoint(target, 0), document.TextPoint(target, end-start)); err != nil {
			return err
		}
		if err := t.ToggleLink(href); err != nil {
			return err
		}
		return t.SetCaret(document.TextPoint(after, caret-end))
	})
	return err == nil
}

func applyBlockShortcut(t *document.Tree, node document.Node, offset int, kind document.Kind, attrs document.Attrs) error {
	return t.Update(func() error {
		if offset == utf8.RuneCountInString(node.Text) {
			if err := t.RemoveNode(node.Key); err != nil {
				return err
			}
		} else if err := t.SpliceText(node.Key, 0, offset, ""); err != nil {
			return err
		}
		return t.SetBlockType(kind, attrs)
	})
}

func applyInlineShortcut(t *document.Tree, node document.Node, openStart, content int, s inlineShortcut) error {
	return t.Update(func() error {
		closeStart := openStart + s.marker + content
		if err := t.SpliceText(node.Key, closeStart, s.marker, ""); err != nil {
			return err
		}
		if err := t.SpliceText(node.Key, openStart, s.marker, ""); err != nil {
			return err
		}

		target := node.Key
		end := openStart + content
		n, _ := t.Node(node.Key)
		var after document.NodeKey
		if end < utf8.RuneCountInString(n.Text) {
			k, err := t.SplitText(node.Key, end)
			if err != nil {
				return err
			}
			after = k
		}
		if openStart > 0 {
			k, err := t.SplitText(node.Key, openStart)
			if err != nil {
				return err
			}
			target = k
		}
		if err := t.SetTextFormat(target, n.Format|s.format); err != nil {
			return err
		}

		if after != 0 {
			return t.SetCaret(document.TextPoint(after, 0))
		}
		if err := t.SetCaret(document.TextPoint(target, content)); err != nil {
			return err
		}
		// Text typed next continues without the new format.
		return t.FormatText(s.format)
	})
}
