// Package pdf provides PDF text extraction strategies.
//
// The primary Normaliser parses PDFs in-process; the lower-priority
// ToolNormaliser shells out to pdftotext for files the parser rejects.
// Together they form the extraction chain the registry walks.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PDF uploads with an in-process parser.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Primary PDF strategy
}

// Normalise extracts text from a PDF upload.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawUpload) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if len(raw.Content) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, raw.Filename)
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	pages := reader.NumPage()
	if pages == 0 {
		return nil, fmt.Errorf("%w: pdf has no pages", domain.ErrEmptyDocument)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	var buf strings.Builder
	if _, err := io.Copy(&buf, plain); err != nil {
		return nil, fmt.Errorf("read extracted text: %w", err)
	}

	text := normalisers.CleanText(buf.String())
	if text == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, raw.Filename)
	}

	return &driven.NormaliseResult{Text: text, Pages: pages}, nil
}
