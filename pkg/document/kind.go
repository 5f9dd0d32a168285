package document

import "blog-editor-be/pkg/lexical"

// NodeKey identifies a node for the lifetime of its Tree. Zero means no node.
type NodeKey int

// Kind tags the variant of a node.
type Kind string

const (
	KindRoot      Kind = "root"
	KindParagraph Kind = "paragraph"
	KindHeading   Kind = "heading"
	KindList      Kind = "list"
	KindListItem  Kind = "listitem"
	KindQuote     Kind = "quote"
	KindCode      Kind = "code"
	KindTable     Kind = "table"
	KindTableRow  Kind = "tablerow"
	KindTableCell Kind = "tablecell"
	KindLink      Kind = "link"
	KindText      Kind = "text"
	KindLineBreak Kind = "linebreak"
	KindImage     Kind = "image"
)

// Kinds lists every kind a caller may create.
var Kinds = []Kind{
	KindParagraph, KindHeading, KindList, KindListItem, KindQuote, KindCode,
	KindTable, KindTableRow, KindTableCell, KindLink, KindText, KindLineBreak, KindImage,
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	if k == KindRoot {
		return true
	}
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsBlock reports whether k may sit directly under the root.
func (k Kind) IsBlock() bool {
	switch k {
	case KindParagraph, KindHeading, KindList, KindQuote, KindCode, KindTable:
		return true
	}
	return false
}

// IsInline reports whether k may sit inside a paragraph.
func (k Kind) IsInline() bool {
	switch k {
	case KindText, KindLineBreak, KindImage, KindLink:
		return true
	}
	return false
}

// IsLeaf reports whether k never has children.
func (k Kind) IsLeaf() bool {
	switch k {
	case KindText, KindLineBreak, KindImage:
		return true
	}
	return false
}

// IsTextBlock reports whether k is a block whose children are inline content.
func (k Kind) IsTextBlock() bool {
	switch k {
	case KindParagraph, KindHeading, KindQuote, KindCode, KindListItem:
		return true
	}
	return false
}

// CanContain reports whether a node of kind parent accepts a child of kind child.
func CanContain(parent, child Kind) bool {
	switch parent {
	case KindRoot:
		return child.IsBlock()
	case KindParagraph, KindHeading, KindQuote:
		return child.IsInline()
	case KindLink:
		return child.IsInline() && child != KindLink
	case KindCode:
		return child == KindText || child == KindLineBreak
	case KindList:
		return child == KindListItem
	case KindListItem:
		return child.IsInline() || child == KindList
	case KindTable:
		return child == KindTableRow
	case KindTableRow:
		return child == KindTableCell
	case KindTableCell:
		return child.IsBlock() && child != KindTable
	}
	return false
}

// TextFormat is the bitmask of inline formats carried by a text run.
type TextFormat int

const (
	FormatBold          TextFormat = lexical.FormatBold
	FormatItalic        TextFormat = lexical.FormatItalic
	FormatStrikethrough TextFormat = lexical.FormatStrikethrough
	FormatUnderline     TextFormat = lexical.FormatUnderline
	FormatCode          TextFormat = lexical.FormatCode
	FormatSubscript     TextFormat = lexical.FormatSubscript
	FormatSuperscript   TextFormat = lexical.FormatSuperscript
)

// Has reports whether every bit of flag is set.
func (f TextFormat) Has(flag TextFormat) bool {
	return f&flag == flag
}

// Toggle flips flag. Subscript and superscript exclude each other.
func (f TextFormat) Toggle(flag TextFormat) TextFormat {
	f ^= flag
	if f.Has(FormatSubscript) && flag == FormatSubscript {
		f &^= FormatSuperscript
	}
	if f.Has(FormatSuperscript) && flag == FormatSuperscript {
		f &^= FormatSubscript
	}
	return f
}

// ListType is the marker style of a list.
type ListType string

const (
	ListBullet ListType = "bullet"
	ListNumber ListType = "number"
)

// Image size defaults.
const (
	SizeInherit        = "inherit"
	DefaultImageWidth  = "500"
	DefaultImageHeight = "250"
	MaxHeadingLevel    = 6
	MaxListIndent      = 7
	defaultListStart   = 1
	defaultTableSpan   = 1
)

// Attrs holds the kind-specific attributes of a node. Only the fields
// relevant to the node's kind are meaningful.
type Attrs struct {
	Level    int      // heading
	ListType ListType // list
	Start    int      // list
	Language string   // code
	URL      string   // link
	Text     string   // text
	Format   TextFormat

	Header  bool // tablecell
	ColSpan int
	RowSpan int

	Src    string // image
	Path   string
	Width  string
	Height string
}

// Node is a read-only copy of an arena entry.
type Node struct {
	Key      NodeKey
	Kind     Kind
	Parent   NodeKey
	Children []NodeKey
	Attrs
}

func (n *Node) clone() *Node {
	c := *n
	c.Children = append([]NodeKey(nil), n.Children...)
	return &c
}

func (n *Node) sameAs(o *Node) bool {
	if n.Kind != o.Kind || n.Parent != o.Parent || n.Attrs != o.Attrs || len(n.Children) != len(o.Children) {
		return false
	}
	for i := range n.Children {
		if n.Children[i] != o.Children[i] {
			return false
		}
	}
	return true
}

func normalizeAttrs(kind Kind, a Attrs) (Attrs, error) {
	switch kind {
	case KindHeading:
		if a.Level == 0 {
			a.Level = 1
		}
		if a.Level < 1 || a.Level > MaxHeadingLevel {
			return a, violation("heading level %d out of range", a.Level)
		}
	case KindList:
		if a.ListType == "" {
			a.ListType = ListBullet
		}
		if a.ListType != ListBullet && a.ListType != ListNumber {
			return a, violation("unknown list type %q", a.ListType)
		}
		if a.Start <= 0 {
			a.Start = defaultListStart
		}
	case KindTableCell:
		if a.ColSpan <= 0 {
			a.ColSpan = defaultTableSpan
		}
		if a.RowSpan <= 0 {
			a.RowSpan = defaultTableSpan
		}
	case KindLink:
		u, err := NormalizeURL(a.URL)
		if err != nil {
			return a, err
		}
		a.URL = u
	case KindImage:
		src, err := NormalizeURL(a.Src)
		if err != nil {
			return a, err
		}
		a.Src = src
		if a.Width == "" {
			a.Width = SizeInherit
		}
		if a.Height == "" {
			a.Height = SizeInherit
		}
		if !ValidSize(a.Width) || !ValidSize(a.Height) {
			return a, violation("invalid image size %sx%s", a.Width, a.Height)
		}
	}
	return a, nil
}
