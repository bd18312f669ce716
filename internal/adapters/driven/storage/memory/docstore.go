// Package memory provides in-memory implementations of the storage
// ports. Used as the default session-scoped backend and in service
// tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// SaveChunks stores chunks for a document.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docID := chunks[0].DocumentID
	stored := make([]domain.Chunk, len(chunks))
	copy(stored, chunks)
	sort.SliceStable(stored, func(i, j int) bool {
		return stored[i].Position < stored[j].Position
	})
	s.chunks[docID] = stored
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *DocumentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, chunks := range s.chunks {
		for _, chunk := range chunks {
			if chunk.ID == id {
				return &chunk, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

// GetChunks retrieves all chunks for a document, ordered by position.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks, ok := s.chunks[documentID]
	if !ok {
		return nil, nil
	}
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	return out, nil
}

// ListBySession returns all documents belonging to a session, newest last.
func (s *DocumentStore) ListBySession(_ context.Context, sessionID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Document
	for id := range s.documents {
		doc := s.documents[id]
		if doc.SessionID == sessionID {
			result = append(result, doc)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// SetActive updates a document's active flag.
func (s *DocumentStore) SetActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Active = active
	s.documents[id] = doc
	return nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	delete(s.chunks, id)
	return nil
}
