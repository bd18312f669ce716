package driven

import "context"

// VectorIndex provides cosine-similarity search over chunk embeddings.
//
// The contract is exact top-k: results are ordered descending by cosine
// similarity with ties broken by insertion order, regardless of the
// internal structure an implementation chooses. Searching an empty index
// returns an empty slice, not an error.
//
// Insert and RemoveByDocument must be serialised against concurrent
// Search calls: readers see either the pre- or post-mutation state,
// never a torn mix.
type VectorIndex interface {
	// Insert appends an entry for the chunk. Amortised O(1); no rebuild.
	// Vectors of a different dimensionality than the index fail fast
	// with domain.ErrDimensionMismatch.
	Insert(ctx context.Context, chunkID, documentID string, embedding []float32) error

	// RemoveByDocument deletes every entry owned by the document and
	// returns the number removed. The index is always left queryable.
	RemoveByDocument(ctx context.Context, documentID string) (int, error)

	// Search returns up to k hits most similar to the query vector.
	// When allowedDocs is non-nil, only entries whose owning document is
	// in the set are considered.
	Search(ctx context.Context, query []float32, k int, allowedDocs map[string]bool) ([]VectorHit, error)

	// Len returns the number of entries currently indexed.
	Len() int

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the chunk's owning document.
	DocumentID string

	// Similarity is the cosine similarity score in [-1, 1].
	Similarity float64
}

// VectorIndexProvider hands out the per-session vector index.
// Sessions never share an index; this is the session-isolation boundary
// for retrieval.
type VectorIndexProvider interface {
	// ForSession returns the session's index, creating it if needed.
	ForSession(sessionID string) VectorIndex

	// DropSession discards a session's index entirely.
	DropSession(sessionID string)

	// Close releases all session indexes.
	Close() error
}
