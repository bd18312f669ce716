package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure ProfileStore implements the interface.
var _ driven.ProfileStore = (*ProfileStore)(nil)

// ProfileStore is an in-memory implementation of driven.ProfileStore.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]domain.Profile
}

// NewProfileStore creates a new in-memory profile store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[string]domain.Profile),
	}
}

// Get retrieves a session's profile.
func (s *ProfileStore) Get(_ context.Context, sessionID string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &profile, nil
}

// Save stores or updates a profile.
func (s *ProfileStore) Save(_ context.Context, profile *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.SessionID] = *profile
	return nil
}

// Delete removes a session's profile.
func (s *ProfileStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, sessionID)
	return nil
}
