package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs the upload pipeline: extract, chunk, embed, index.
type IngestService struct {
	docStore driven.DocumentStore
	registry driven.NormaliserRegistry
	pipeline driven.PostProcessorPipeline
	provider driven.VectorIndexProvider
	embedder driven.EmbeddingService
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	docStore driven.DocumentStore,
	registry driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	provider driven.VectorIndexProvider,
	embedder driven.EmbeddingService,
) *IngestService {
	return &IngestService{
		docStore: docStore,
		registry: registry,
		pipeline: pipeline,
		provider: provider,
		embedder: embedder,
	}
}

// Upload extracts, chunks, embeds and indexes a raw upload for the session.
// The document record is written only after every vector is in the index,
// so a partially indexed document is never visible to retrieval.
func (s *IngestService) Upload(
	ctx context.Context, sessionID string, raw *domain.RawUpload,
) (*domain.UploadReceipt, error) {
	// 1. Validate input
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session ID is required", domain.ErrInvalidInput)
	}
	if raw == nil || len(raw.Content) == 0 {
		return nil, fmt.Errorf("%w: upload is empty", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrServiceUnavailable)
	}

	logger.Section("Document Upload")
	logger.Debug("Upload %q (%d bytes) for session %s", raw.Filename, len(raw.Content), sessionID)

	// 2. Extract text
	extracted, err := s.registry.Normalise(ctx, raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(extracted.Text) == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, raw.Filename)
	}

	// 3. Create the document record (not persisted yet)
	now := time.Now()
	doc := &domain.Document{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Filename:  raw.Filename,
		ByteSize:  int64(len(raw.Content)),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// 4. Chunk
	chunks, err := s.pipeline.Process(ctx, doc, extracted.Text)
	if err != nil {
		return nil, fmt.Errorf("chunking %s: %w", raw.Filename, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, raw.Filename)
	}
	doc.ChunkCount = len(chunks)
	logger.Debug("Produced %d chunks", len(chunks))

	// 5. Embed all chunks in one batch
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d chunks",
			domain.ErrConsistency, len(vectors), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	// 6. Insert vectors into the session's index
	index := s.provider.ForSession(sessionID)
	for i, chunk := range chunks {
		if err := index.Insert(ctx, chunk.ID, doc.ID, chunk.Embedding); err != nil {
			s.rollbackVectors(ctx, index, doc.ID)
			return nil, fmt.Errorf("indexing chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}

	// 7. Persist metadata and chunk text; the document becomes visible here
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		s.rollbackVectors(ctx, index, doc.ID)
		return nil, fmt.Errorf("saving document: %w", err)
	}
	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		s.rollbackVectors(ctx, index, doc.ID)
		if delErr := s.docStore.DeleteDocument(ctx, doc.ID); delErr != nil {
			logger.Error("Rollback of document %s failed: %v", doc.ID, delErr)
		}
		return nil, fmt.Errorf("saving chunks: %w", err)
	}

	logger.Info("Indexed %q: %d chunks, %d bytes", doc.Filename, doc.ChunkCount, doc.ByteSize)
	return &domain.UploadReceipt{
		DocumentID: doc.ID,
		ChunkCount: doc.ChunkCount,
	}, nil
}

// rollbackVectors removes any vectors already inserted for a failed upload
// so no orphaned entries survive in the index.
func (s *IngestService) rollbackVectors(ctx context.Context, index driven.VectorIndex, documentID string) {
	removed, err := index.RemoveByDocument(ctx, documentID)
	if err != nil {
		logger.Error("Rollback of index entries for %s failed: %v", documentID, err)
		return
	}
	if removed > 0 {
		logger.Debug("Rolled back %d index entries for %s", removed, documentID)
	}
}
