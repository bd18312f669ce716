package domain

import "time"

// Message roles stored in chat history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single entry in a session's conversation history.
type ChatMessage struct {
	// ID is the unique identifier for the message.
	ID string

	// SessionID scopes the message to its session.
	SessionID string

	// Role is RoleUser or RoleAssistant.
	Role string

	// Content is the message text.
	Content string

	// Sources records the provenance of an assistant message.
	// Empty for user messages.
	Sources []Source

	// CreatedAt is when the message was recorded.
	CreatedAt time.Time
}

// Answer is the outcome of a completed chat query.
type Answer struct {
	// Text is the generated response.
	Text string

	// Sources lists the evidence behind the response, document sources
	// deduplicated per document.
	Sources []Source

	// Grounded is false when the answer was produced without any
	// document or web evidence and fell back to general knowledge.
	Grounded bool

	// UsedWebSearch reports whether web evidence was retrieved.
	UsedWebSearch bool
}

// Profile holds per-session presentation and persona settings.
// Owned by the storage collaborator; the core reads Persona when
// building prompts.
type Profile struct {
	// SessionID scopes the profile to its session.
	SessionID string

	// Persona is the system instruction prefix for generation
	// (e.g., "You are a helpful AI assistant.").
	Persona string

	// Theme is the UI theme preference.
	Theme string

	// VoiceEnabled toggles audio synthesis in the presentation layer.
	VoiceEnabled bool

	// UpdatedAt is when the profile was last changed.
	UpdatedAt time.Time
}

// SessionStats summarises a session's stored state.
type SessionStats struct {
	// Documents is the total number of documents in the session.
	Documents int

	// ActiveDocuments is the number currently included in retrieval.
	ActiveDocuments int

	// Chunks is the total chunk count across active documents.
	Chunks int

	// Bytes is the total upload size across all documents.
	Bytes int64

	// Messages is the total chat history length.
	Messages int
}
