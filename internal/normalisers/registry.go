package normalisers

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches uploads to an ordered extraction chain.
// Normalisers for the upload's MIME type are tried in descending
// priority; the first success wins.
type Registry struct {
	mu     sync.RWMutex
	byMIME map[string][]driven.Normaliser
}

// NewRegistry creates an empty normaliser registry.
func NewRegistry() *Registry {
	return &Registry{
		byMIME: make(map[string][]driven.Normaliser),
	}
}

// Register adds a normaliser to the registry.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, mt := range n.SupportedMIMETypes() {
		chain := append(r.byMIME[mt], n)
		sort.SliceStable(chain, func(i, j int) bool {
			return chain[i].Priority() > chain[j].Priority()
		})
		r.byMIME[mt] = chain
	}
}

// SupportedMIMETypes returns all MIME types that can be normalised.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.byMIME))
	for mt := range r.byMIME {
		types = append(types, mt)
	}
	sort.Strings(types)
	return types
}

// Normalise runs the upload through the matching extraction chain.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawUpload) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	mimeType := resolveMIMEType(raw)
	if mimeType == "" {
		return nil, fmt.Errorf("%w: cannot determine type of %q", domain.ErrUnsupportedFormat, raw.Filename)
	}

	r.mu.RLock()
	chain := r.byMIME[mimeType]
	r.mu.RUnlock()

	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, mimeType)
	}

	var errs []error
	for _, n := range chain {
		result, err := n.Normalise(ctx, raw)
		if err == nil {
			return result, nil
		}
		// Empty documents are a property of the upload, not of the
		// strategy; trying another parser will not help.
		if errors.Is(err, domain.ErrEmptyDocument) {
			return nil, err
		}
		logger.Warn("Extraction strategy failed for %s: %v", raw.Filename, err)
		errs = append(errs, err)
	}

	return nil, fmt.Errorf("%w: %s: %w", domain.ErrExtractionFailed, raw.Filename, errors.Join(errs...))
}

// resolveMIMEType returns the declared MIME type, falling back to the
// filename extension.
func resolveMIMEType(raw *domain.RawUpload) string {
	if raw.MIMEType != "" {
		// Strip parameters like "; charset=utf-8".
		if mt, _, err := mime.ParseMediaType(raw.MIMEType); err == nil {
			return mt
		}
		return raw.MIMEType
	}

	switch strings.ToLower(filepath.Ext(raw.Filename)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".md", ".markdown":
		return "text/markdown"
	case ".html", ".htm":
		return "text/html"
	case ".txt":
		return "text/plain"
	default:
		return mime.TypeByExtension(filepath.Ext(raw.Filename))
	}
}

// CleanText normalises whitespace in extracted text while preserving
// special characters such as equation symbols.
func CleanText(text string) string {
	fields := strings.Fields(text)
	return strings.Join(fields, " ")
}
