package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX uploads.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts paragraph text from a DOCX upload.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawUpload) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	// DOCX files are ZIP archives holding word/document.xml.
	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("open docx archive: %w", domain.ErrInvalidInput)
	}

	content, err := extractDocumentText(reader)
	if err != nil {
		return nil, err
	}

	text := normalisers.CleanText(content)
	if text == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, raw.Filename)
	}

	return &driven.NormaliseResult{Text: text}, nil
}

// extractDocumentText reads and parses word/document.xml from the archive.
func extractDocumentText(reader *zip.Reader) (string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", domain.ErrInvalidInput
		}

		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", domain.ErrInvalidInput
		}

		return parseDocumentXML(content), nil
	}
	return "", fmt.Errorf("missing word/document.xml: %w", domain.ErrInvalidInput)
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML extracts text content from the document XML.
func parseDocumentXML(content []byte) string {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, run := range para.Runs {
			for _, text := range run.Text {
				result.WriteString(text.Content)
			}
		}
	}

	return strings.TrimSpace(result.String())
}
