package html

import (
	"context"
	"fmt"
	"html"
	"regexp"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML uploads.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Preferred over the plaintext fallback
}

// Normalise extracts readable text with HTML tags stripped.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawUpload) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text := normalisers.CleanText(stripHTML(string(raw.Content)))
	if text == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, raw.Filename)
	}

	return &driven.NormaliseResult{Text: text}, nil
}

// Pre-compiled regular expressions for HTML stripping.
var (
	scriptTag     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag   = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag       = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag        = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments  = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements = regexp.MustCompile(`(?i)</?(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	allTags       = regexp.MustCompile(`<[^>]+>`)
)

// stripHTML removes HTML tags and extracts readable text content.
func stripHTML(content string) string {
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = svgTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")

	// Block boundaries become whitespace so words don't run together.
	content = blockElements.ReplaceAllString(content, " ")
	content = allTags.ReplaceAllString(content, " ")

	return html.UnescapeString(content)
}
