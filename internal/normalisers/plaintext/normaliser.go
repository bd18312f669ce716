// Package plaintext provides the fallback normaliser for text-like uploads.
package plaintext

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text uploads.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/markdown",
		"text/html",
		"application/json",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise extracts text from a plain text upload.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawUpload) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := raw.Content
	if !utf8.Valid(content) {
		// Latin-1 fallback for legacy encodings, mirroring common
		// text intake behaviour.
		content = latin1ToUTF8(content)
	}

	text := normalisers.CleanText(string(content))
	if text == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, raw.Filename)
	}

	return &driven.NormaliseResult{Text: text}, nil
}

// latin1ToUTF8 reinterprets bytes as ISO-8859-1.
func latin1ToUTF8(b []byte) []byte {
	out := make([]byte, 0, len(b)*2)
	for _, c := range b {
		out = utf8.AppendRune(out, rune(c))
	}
	return out
}
