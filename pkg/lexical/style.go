package lexical

import (
	"strings"
)

// StyleMap represents parsed CSS declarations
type StyleMap map[string]string

// ParseStyle parses a CSS style string into a map
// Example: "font-weight: bold; white-space: pre-wrap;"
func ParseStyle(styleStr string) StyleMap {
	styles := make(StyleMap)
	if styleStr == "" {
		return styles
	}

	for _, part := range strings.Split(styleStr, ";") {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			continue
		}
		k := strings.ToLower(strings.TrimSpace(kv[0]))
		v := strings.TrimSpace(kv[1])
		if k != "" && v != "" {
			styles[k] = v
		}
	}
	return styles
}

// TextFormat returns the format bits implied by inline declarations.
func (s StyleMap) TextFormat() int {
	format := 0
	switch strings.ToLower(s["font-weight"]) {
	case "bold", "bolder", "700", "800", "900":
		format |= FormatBold
	}
	if strings.ToLower(s["font-style"]) == "italic" {
		format |= FormatItalic
	}
	decoration := strings.ToLower(s["text-decoration"])
	if strings.Contains(decoration, "underline") {
		format |= FormatUnderline
	}
	if strings.Contains(decoration, "line-through") {
		format |= FormatStrikethrough
	}
	switch strings.ToLower(s["vertical-align"]) {
	case "sub":
		format |= FormatSubscript
	case "super":
		format |= FormatSuperscript
	}
	return format
}

// BuildAnnotatedOpenTag creates an HTML span carrying the color styles worth keeping
// Returns empty string if no relevant styles found
func (s StyleMap) BuildAnnotatedOpenTag() string {
	var relevant []string

	for _, k := range []string{"color", "background-color", "text-transform"} {
		if v, ok := s[k]; ok {
			relevant = append(relevant, k+":"+v)
		}
	}

	if len(relevant) == 0 {
		return ""
	}

	return "<span style=\"" + strings.Join(relevant, "; ") + "\">"
}
