package markup

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"blog-editor-be/pkg/document"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderMarkdown converts markdown to plain HTML, ready for Import.
func RenderMarkdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// MarkdownToMarkup renders markdown and normalizes the result to editor markup.
// Images without a data-path are dropped like any other foreign image.
func MarkdownToMarkup(source string) (string, error) {
	html, err := RenderMarkdown(source)
	if err != nil {
		return "", err
	}
	t := document.New()
	if err := Hydrate(t, html); err != nil {
		return "", err
	}
	return Export(t), nil
}
