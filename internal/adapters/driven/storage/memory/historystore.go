package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure ChatHistoryStore implements the interface.
var _ driven.ChatHistoryStore = (*ChatHistoryStore)(nil)

// ChatHistoryStore is an in-memory implementation of driven.ChatHistoryStore.
// Messages are held in append order per session.
type ChatHistoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]domain.ChatMessage
}

// NewChatHistoryStore creates a new in-memory chat history store.
func NewChatHistoryStore() *ChatHistoryStore {
	return &ChatHistoryStore{
		sessions: make(map[string][]domain.ChatMessage),
	}
}

// Append records a message at the end of the session's history.
func (s *ChatHistoryStore) Append(_ context.Context, msg *domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[msg.SessionID] = append(s.sessions[msg.SessionID], *msg)
	return nil
}

// List returns up to limit most recent messages in chronological order.
// A limit of 0 or less returns the full history.
func (s *ChatHistoryStore) List(_ context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.sessions[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]domain.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

// LastUserMessage returns the most recent user message for the session.
func (s *ChatHistoryStore) LastUserMessage(_ context.Context, sessionID string) (*domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.sessions[sessionID]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleUser {
			msg := msgs[i]
			return &msg, nil
		}
	}
	return nil, domain.ErrNotFound
}

// DeleteLastAssistant removes the trailing assistant message, if the
// history ends with one.
func (s *ChatHistoryStore) DeleteLastAssistant(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.sessions[sessionID]
	if len(msgs) == 0 || msgs[len(msgs)-1].Role != domain.RoleAssistant {
		return nil
	}
	s.sessions[sessionID] = msgs[:len(msgs)-1]
	return nil
}

// Clear removes all history for a session.
func (s *ChatHistoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Count returns the session's total message count.
func (s *ChatHistoryStore) Count(_ context.Context, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[sessionID]), nil
}
