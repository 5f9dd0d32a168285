package markup

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var (
	sizeRegexp   = regexp.MustCompile(`^(\d+%?|inherit)$`)
	importPolicy = newImportPolicy()
)

func newImportPolicy() *bluemonday.Policy {
	languageRegexp := regexp.MustCompile(`^[a-zA-Z0-9_+#.-]{0,32}$`)
	tokenClassRegexp := regexp.MustCompile(`^(token-[a-zA-Z0-9]+|language-[a-zA-Z0-9_+#-]+|editor-image)$`)

	p := bluemonday.UGCPolicy()
	p.AllowElements("span", "pre", "code", "u", "s", "strike", "del", "sub", "sup", "b", "i", "strong", "em")

	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowAttrs("data-path").OnElements("img")
	p.AllowAttrs("class").Matching(tokenClassRegexp).OnElements("img", "span", "code")
	p.AllowAttrs("width", "height").Matching(sizeRegexp).OnElements("img")

	p.AllowAttrs("data-language").Matching(languageRegexp).OnElements("pre")
	p.AllowAttrs("spellcheck").OnElements("pre")

	p.AllowAttrs("style").OnElements("span")
	p.AllowStyles("font-weight", "font-style", "text-decoration", "vertical-align", "white-space").OnElements("span")

	p.AllowAttrs("start").Matching(bluemonday.Integer).OnElements("ol")
	p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")

	p.AllowURLSchemes("blob")
	p.AllowDataURIImages()
	p.AllowRelativeURLs(true)
	return p
}

// Sanitize strips markup down to what the editor can represent.
func Sanitize(markup string) string {
	return importPolicy.Sanitize(markup)
}
