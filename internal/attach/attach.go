// Package attach extracts attachment references from message bodies.
//
// Detection is a pure function over the body text: no network access, no
// side effects. The store calls it on every save to stamp HasAttachments.
package attach

import (
	"strings"
)

// Type classifies a detected attachment.
type Type string

const (
	TypeImage Type = "image"
	TypeLink  Type = "link"
)

// Attachment is one link or image reference found in a body.
type Attachment struct {
	URL      string `json:"url"`
	Type     Type   `json:"type"`
	Filename string `json:"filename"`
}

// fallbackName is used when a URL has no usable path segment.
const fallbackName = "attachment"

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".svg":  true,
	".bmp":  true,
	".ico":  true,
}

// trailingPunct is stripped from the end of URL tokens so that sentences like
// "see https://x.com/a.png." detect cleanly.
const trailingPunct = ".,;:!?)]}>\"'"

// Detect returns the attachments referenced by body, in order of appearance.
// Only http(s) URLs are recognized; classification is by file-extension
// suffix against a fixed image-extension set.
func Detect(body string) []Attachment {
	var out []Attachment
	for _, tok := range strings.Fields(body) {
		tok = strings.TrimRight(tok, trailingPunct)
		if !strings.HasPrefix(tok, "http://") && !strings.HasPrefix(tok, "https://") {
			continue
		}
		out = append(out, Attachment{
			URL:      tok,
			Type:     classify(tok),
			Filename: filename(tok),
		})
	}
	return out
}

func classify(rawURL string) Type {
	if imageExts[extension(rawURL)] {
		return TypeImage
	}
	return TypeLink
}

// extension returns the lowercased file extension of the URL path, ignoring
// query string and fragment.
func extension(rawURL string) string {
	p := pathPart(rawURL)
	if i := strings.LastIndex(p, "."); i >= 0 && i > strings.LastIndex(p, "/") {
		return strings.ToLower(p[i:])
	}
	return ""
}

// filename returns the last path segment, or a fallback literal when the URL
// has no path beyond the host.
func filename(rawURL string) string {
	p := pathPart(rawURL)
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	if p == "" {
		return fallbackName
	}
	return p
}

// pathPart strips scheme, host, query and fragment, leaving the URL path.
func pathPart(rawURL string) string {
	s := rawURL
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	for _, sep := range []byte{'?', '#'} {
		if i := strings.IndexByte(s, sep); i >= 0 {
			s = s[:i]
		}
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		return s[i:]
	}
	return ""
}
