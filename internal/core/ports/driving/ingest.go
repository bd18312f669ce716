package driving

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// IngestService turns raw uploads into searchable indexed documents.
type IngestService interface {
	// Upload extracts, chunks, embeds and indexes a raw upload for the
	// session. The document only becomes visible to search once every
	// vector is inserted. Fails with domain.ErrUnsupportedFormat,
	// domain.ErrEmptyDocument or domain.ErrExtractionFailed on bad
	// input, and propagates embedding service errors.
	Upload(ctx context.Context, sessionID string, raw *domain.RawUpload) (*domain.UploadReceipt, error)
}

// DocumentService manages a session's indexed documents.
type DocumentService interface {
	// List returns the session's documents.
	List(ctx context.Context, sessionID string) ([]domain.Document, error)

	// SetActive toggles whether a document participates in retrieval.
	// Toggling off and back on restores the document to the result set
	// with unchanged ranking; vectors are never dropped by a toggle.
	SetActive(ctx context.Context, sessionID, documentID string, active bool) error

	// Delete removes a document, its chunks and its index entries, and
	// returns the session's remaining document count.
	Delete(ctx context.Context, sessionID, documentID string) (int, error)

	// Stats summarises the session's stored state.
	Stats(ctx context.Context, sessionID string) (*domain.SessionStats, error)

	// Clear removes session data: "documents", "chat" or "all".
	Clear(ctx context.Context, sessionID, scope string) error
}
