// Package html normalises saved web pages, such as online obituaries and
// archive transcriptions, into plain text.
package html

import (
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/lineage/internal/core/ports/driven"
	"github.com/custodia-labs/lineage/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Pre-compiled regular expressions for HTML parsing performance.
var (
	titleTag      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	droppedBlocks = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`),
		regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`),
		regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`),
		regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`),
		regexp.MustCompile(`(?s)<!--.*?-->`),
	}
	blockBoundary = regexp.MustCompile(`(?i)</?(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)(\s[^>]*)?>|<(br|hr)\s*/?>`)
	cellBoundary  = regexp.MustCompile(`(?i)</t[dh]>`)
	anyTag        = regexp.MustCompile(`<[^>]+>`)
	multiSpaces   = regexp.MustCompile(`[ \t]+`)
)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".html", ".htm"}
}

// Normalise strips markup. The title comes from the <title> tag, falling
// back to the file name.
func (n *Normaliser) Normalise(raw []byte, name string) (string, string) {
	content := string(raw)
	return extractTitle(content, name), stripHTML(content)
}

func extractTitle(content, name string) string {
	if m := titleTag.FindStringSubmatch(content); len(m) > 1 {
		if title := strings.TrimSpace(html.UnescapeString(m[1])); title != "" {
			return title
		}
	}
	return normalisers.TitleFromName(name)
}

// stripHTML keeps readable text, one line per block element. Table cells on
// one row are separated by a space.
func stripHTML(content string) string {
	for _, re := range droppedBlocks {
		content = re.ReplaceAllString(content, "")
	}
	content = blockBoundary.ReplaceAllString(content, "\n")
	content = cellBoundary.ReplaceAllString(content, " ")
	content = anyTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")

	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
