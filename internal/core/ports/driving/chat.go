package driving

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// ChatService answers natural-language questions from document content
// augmented with live web search.
type ChatService interface {
	// Ask runs one query through retrieval and generation and returns
	// the answer with its sources. The user message and the answer are
	// appended to the session's history only on success.
	Ask(ctx context.Context, sessionID, message string) (*domain.Answer, error)

	// Regenerate re-answers the session's last user message, replacing
	// the trailing assistant reply. Retrieval runs again; the stored
	// user message is reused verbatim.
	Regenerate(ctx context.Context, sessionID string) (*domain.Answer, error)

	// History returns up to limit most recent messages in order.
	History(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error)

	// Persona returns the session's persona instructions, falling back
	// to the default when none is stored.
	Persona(ctx context.Context, sessionID string) (string, error)

	// SetPersona stores persona instructions for the session. An empty
	// persona reverts the session to the default.
	SetPersona(ctx context.Context, sessionID, persona string) error
}
