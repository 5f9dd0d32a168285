package document

import (
	"encoding/base64"
	"net/url"
	"regexp"
	"strings"
)

var (
	urlSchemes = map[string]bool{
		"http":   true,
		"https":  true,
		"mailto": true,
		"blob":   true,
	}
	dataImagePrefix = regexp.MustCompile(`(?i)^data:image/(png|jpeg|gif|webp);base64,`)
	urlSpaces       = strings.NewReplacer(" ", "%20", "\t", "%09", "\n", "", "\r", "")
)

// NormalizeURL returns url in the form stored on link and image nodes.
// Whitespace is percent-encoded so the value survives a markup round trip.
// Schemes other than http, https, mailto and blob are rejected, as are data
// URIs that are not base64 images.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", violation("empty url")
	}
	if m := dataImagePrefix.FindString(raw); m != "" {
		payload := strings.Join(strings.Fields(raw[len(m):]), "")
		if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
			return "", violation("malformed data url")
		}
		return strings.ToLower(m) + payload, nil
	}

	encoded := urlSpaces.Replace(raw)
	u, err := url.Parse(encoded)
	if err != nil {
		return "", violation("invalid url %q", raw)
	}
	if u.Scheme != "" && !urlSchemes[strings.ToLower(u.Scheme)] {
		return "", violation("url scheme %q not allowed", u.Scheme)
	}
	return encoded, nil
}

var sizePattern = regexp.MustCompile(`^(\d+%?|inherit)$`)

// ValidSize reports whether v is a width or height an image node accepts:
// inherit, a pixel count or a percentage.
func ValidSize(v string) bool {
	return sizePattern.MatchString(v)
}
