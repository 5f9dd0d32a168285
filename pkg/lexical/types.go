package lexical

// Version is the serialization version written for every node.
const Version = 1

// LexicalRoot represents the top-level structure
type LexicalRoot struct {
	Root Node `json:"root"`
}

// Node represents any node in the serialized editor tree
type Node struct {
	Type     string `json:"type"`
	Version  int    `json:"version"`
	Children []Node `json:"children,omitempty"`

	// Text specific
	Text   string      `json:"text,omitempty"`
	Format interface{} `json:"format,omitempty"` // Can be int (bitmask) or string (alignment)
	Style  string      `json:"style,omitempty"`
	Mode   string      `json:"mode,omitempty"`
	Detail int         `json:"detail,omitempty"`

	// Element specific
	Direction  string `json:"direction,omitempty"`
	Indent     int    `json:"indent,omitempty"`
	TextFormat int    `json:"textFormat,omitempty"`

	// Link specific
	URL    string `json:"url,omitempty"`
	Rel    string `json:"rel,omitempty"`
	Target string `json:"target,omitempty"`
	Title  string `json:"title,omitempty"`

	// Heading and list specific
	ListType string `json:"listType,omitempty"` // bullet, number
	Start    int    `json:"start,omitempty"`
	Tag      string `json:"tag,omitempty"`

	// ListItem specific
	Value int `json:"value,omitempty"`

	// Code specific
	Language string `json:"language,omitempty"`

	// Image specific. Width and height are "0" when the image inherits its size.
	Src    string `json:"src,omitempty"`
	Path   string `json:"path,omitempty"`
	Width  string `json:"width,omitempty"`
	Height string `json:"height,omitempty"`

	// Table specific
	ColSpan     int `json:"colSpan,omitempty"`
	RowSpan     int `json:"rowSpan,omitempty"`
	HeaderState int `json:"headerState,omitempty"` // 1 = header, 0 = normal
}

// FormatInt returns the text format bitmask regardless of how the JSON decoder typed it.
func (n Node) FormatInt() int {
	switch f := n.Format.(type) {
	case float64:
		return int(f)
	case int:
		return f
	}
	return 0
}

// Constants for Text Format Bitmask
const (
	FormatBold          = 1
	FormatItalic        = 2
	FormatStrikethrough = 4
	FormatUnderline     = 8
	FormatCode          = 16
	FormatSubscript     = 32
	FormatSuperscript   = 64
)
