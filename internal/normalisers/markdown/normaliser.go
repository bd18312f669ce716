package markdown

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown uploads.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Preferred over the plaintext fallback
}

// Normalise extracts text with markdown formatting simplified.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawUpload) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text := normalisers.CleanText(stripMarkdown(string(raw.Content)))
	if text == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, raw.Filename)
	}

	return &driven.NormaliseResult{Text: text}, nil
}

// Pre-compiled regular expressions for markdown stripping.
var (
	codeBlock  = regexp.MustCompile("(?s)```[^`]*```")
	inlineCode = regexp.MustCompile("`[^`]+`")
	images     = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links      = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings   = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasis   = regexp.MustCompile(`(\*\*|__|\*|_)([^*_]+)(\*\*|__|\*|_)`)
	listMarks  = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	blockquote = regexp.MustCompile(`(?m)^\s*>\s?`)
	hrLines    = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
)

// stripMarkdown removes common markdown formatting for plain text content.
// This is a simplified implementation that handles common cases.
func stripMarkdown(content string) string {
	content = codeBlock.ReplaceAllString(content, "")
	content = images.ReplaceAllString(content, "")
	content = links.ReplaceAllString(content, "$1")
	content = inlineCode.ReplaceAllString(content, "")
	content = headings.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$2")
	content = listMarks.ReplaceAllString(content, "")
	content = blockquote.ReplaceAllString(content, "")
	content = hrLines.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}
