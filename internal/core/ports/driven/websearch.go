package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// WebSearchClient wraps an external search provider.
//
// Web evidence is supplementary: implementations fail open, returning an
// empty slice on provider errors or timeouts instead of propagating
// failure, so the document-only answer path is never blocked.
type WebSearchClient interface {
	// Search returns up to maxResults ranked snippets for the query.
	Search(ctx context.Context, query string, maxResults int) ([]domain.WebResult, error)

	// Close releases resources.
	Close() error
}
