package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// DocumentStore persists document metadata and chunk text.
// Chunk text lives here keyed by chunk ID; the vector index owns the
// vectors for the same chunk IDs.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores chunks for a document.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetChunks retrieves all chunks for a document, ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// ListBySession returns all documents belonging to a session.
	ListBySession(ctx context.Context, sessionID string) ([]domain.Document, error)

	// SetActive updates a document's active flag.
	SetActive(ctx context.Context, id string, active bool) error

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error
}

// ChatHistoryStore persists conversation transcripts per session.
// History persistence is a collaborator concern; the core reads it to
// build prompts and to locate the message behind a regenerate request.
type ChatHistoryStore interface {
	// Append records a message at the end of the session's history.
	Append(ctx context.Context, msg *domain.ChatMessage) error

	// List returns up to limit most recent messages in chronological order.
	List(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error)

	// LastUserMessage returns the most recent user message for the session.
	LastUserMessage(ctx context.Context, sessionID string) (*domain.ChatMessage, error)

	// DeleteLastAssistant removes the trailing assistant message, if the
	// history ends with one. Used before regenerating an answer.
	DeleteLastAssistant(ctx context.Context, sessionID string) error

	// Clear removes all history for a session.
	Clear(ctx context.Context, sessionID string) error

	// Count returns the session's total message count.
	Count(ctx context.Context, sessionID string) (int, error)
}

// ProfileStore persists per-session persona and presentation settings.
type ProfileStore interface {
	// Get retrieves a session's profile.
	Get(ctx context.Context, sessionID string) (*domain.Profile, error)

	// Save stores or updates a profile.
	Save(ctx context.Context, profile *domain.Profile) error

	// Delete removes a session's profile.
	Delete(ctx context.Context, sessionID string) error
}
