package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// Clear scopes accepted by DocumentService.Clear.
const (
	ClearDocuments = "documents"
	ClearChat      = "chat"
	ClearAll       = "all"
)

// DocumentService manages a session's indexed documents.
type DocumentService struct {
	docStore     driven.DocumentStore
	historyStore driven.ChatHistoryStore
	provider     driven.VectorIndexProvider
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	docStore driven.DocumentStore,
	historyStore driven.ChatHistoryStore,
	provider driven.VectorIndexProvider,
) *DocumentService {
	return &DocumentService{
		docStore:     docStore,
		historyStore: historyStore,
		provider:     provider,
	}
}

// List returns the session's documents.
func (s *DocumentService) List(ctx context.Context, sessionID string) ([]domain.Document, error) {
	return s.docStore.ListBySession(ctx, sessionID)
}

// SetActive toggles whether a document participates in retrieval.
// Index entries are untouched; inactive documents are filtered at query
// time, so toggling back on restores ranking exactly.
func (s *DocumentService) SetActive(ctx context.Context, sessionID, documentID string, active bool) error {
	if _, err := s.owned(ctx, sessionID, documentID); err != nil {
		return err
	}
	return s.docStore.SetActive(ctx, documentID, active)
}

// Delete removes a document, its chunks and its index entries, and
// returns the session's remaining document count.
func (s *DocumentService) Delete(ctx context.Context, sessionID, documentID string) (int, error) {
	doc, err := s.owned(ctx, sessionID, documentID)
	if err != nil {
		return 0, err
	}

	index := s.provider.ForSession(sessionID)
	removed, err := index.RemoveByDocument(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("removing index entries: %w", err)
	}

	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return 0, fmt.Errorf("deleting document: %w", err)
	}

	if removed != doc.ChunkCount {
		// The registry row and index entries are gone either way, so
		// subsequent operations see converged state, but the skew means
		// retrieval was running against a wrong picture of this
		// document. Surface it.
		logger.Error("Document %s owned %d index entries, expected %d", documentID, removed, doc.ChunkCount)
		return 0, fmt.Errorf("%w: document %s had %d index entries, chunk count %d",
			domain.ErrConsistency, documentID, removed, doc.ChunkCount)
	}

	remaining, err := s.docStore.ListBySession(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("counting remaining documents: %w", err)
	}
	logger.Info("Deleted %q (%d index entries), %d documents remain", doc.Filename, removed, len(remaining))
	return len(remaining), nil
}

// Stats summarises the session's stored state.
func (s *DocumentService) Stats(ctx context.Context, sessionID string) (*domain.SessionStats, error) {
	docs, err := s.docStore.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	stats := &domain.SessionStats{Documents: len(docs)}
	for _, doc := range docs {
		stats.Bytes += doc.ByteSize
		if doc.Active {
			stats.ActiveDocuments++
			stats.Chunks += doc.ChunkCount
		}
	}

	stats.Messages, err = s.historyStore.Count(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("counting messages: %w", err)
	}
	return stats, nil
}

// Clear removes session data for the given scope: ClearDocuments drops
// every document and the session's index, ClearChat wipes the history,
// ClearAll does both.
func (s *DocumentService) Clear(ctx context.Context, sessionID, scope string) error {
	switch scope {
	case ClearDocuments, ClearChat, ClearAll:
	default:
		return fmt.Errorf("%w: unknown clear scope %q", domain.ErrInvalidInput, scope)
	}

	if scope == ClearDocuments || scope == ClearAll {
		docs, err := s.docStore.ListBySession(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("listing documents: %w", err)
		}
		for _, doc := range docs {
			if err := s.docStore.DeleteDocument(ctx, doc.ID); err != nil {
				return fmt.Errorf("deleting document %s: %w", doc.ID, err)
			}
		}
		s.provider.DropSession(sessionID)
		logger.Info("Cleared %d documents for session %s", len(docs), sessionID)
	}

	if scope == ClearChat || scope == ClearAll {
		if err := s.historyStore.Clear(ctx, sessionID); err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		logger.Info("Cleared chat history for session %s", sessionID)
	}
	return nil
}

// owned fetches the document and verifies session ownership. A document
// from another session is reported as not found, never as forbidden.
func (s *DocumentService) owned(ctx context.Context, sessionID, documentID string) (*domain.Document, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.SessionID != sessionID {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, documentID)
	}
	return doc, nil
}
