// Package flat provides an exact, brute-force vector index.
//
// At the scale of a single session's documents an exhaustive cosine
// scan is fast enough, keeps the top-k contract exact, and avoids the
// rebuild cost of approximate structures. The index stores normalised
// vectors so similarity reduces to a dot product.
package flat

import (
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// entry is one indexed vector. Vectors are stored unit-normalised;
// entries keep their insertion order, which breaks score ties.
type entry struct {
	ChunkID    string
	DocumentID string
	Vector     []float32
}

// Index is a flat in-memory vector index guarded by a read-write lock.
// Insert and RemoveByDocument take the write lock; Search takes the
// read lock, so readers see either the pre- or post-mutation state.
type Index struct {
	mu        sync.RWMutex
	dimension int
	entries   []entry
}

// New creates an empty index. A dimension of 0 lets the first insert
// fix the dimensionality.
func New(dimension int) *Index {
	return &Index{dimension: dimension}
}

// Insert appends an entry for the chunk.
func (idx *Index) Insert(_ context.Context, chunkID, documentID string, embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("insert %s: %w: empty vector", chunkID, domain.ErrDimensionMismatch)
	}

	normalised, ok := normalise(embedding)
	if !ok {
		return fmt.Errorf("insert %s: %w", chunkID, domain.ErrInvalidInput)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.dimension == 0 {
		idx.dimension = len(embedding)
	}
	if len(embedding) != idx.dimension {
		return fmt.Errorf("insert %s: %w: got %d, index has %d",
			chunkID, domain.ErrDimensionMismatch, len(embedding), idx.dimension)
	}

	idx.entries = append(idx.entries, entry{
		ChunkID:    chunkID,
		DocumentID: documentID,
		Vector:     normalised,
	})
	return nil
}

// RemoveByDocument deletes every entry owned by the document.
// The removal is atomic with respect to concurrent searches.
func (idx *Index) RemoveByDocument(_ context.Context, documentID string) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	kept := idx.entries[:0]
	removed := 0
	for _, e := range idx.entries {
		if e.DocumentID == documentID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	idx.entries = kept
	return removed, nil
}

// Search returns up to k hits with the highest cosine similarity to the
// query, descending, ties broken by insertion order. An empty index
// yields an empty slice.
func (idx *Index) Search(_ context.Context, query []float32, k int, allowedDocs map[string]bool) ([]driven.VectorHit, error) {
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	q, ok := normalise(query)
	if !ok {
		return nil, fmt.Errorf("search: %w: zero query vector", domain.ErrInvalidInput)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.entries) == 0 {
		return []driven.VectorHit{}, nil
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("search: %w: got %d, index has %d",
			domain.ErrDimensionMismatch, len(query), idx.dimension)
	}

	hits := make([]driven.VectorHit, 0, len(idx.entries))
	for _, e := range idx.entries {
		if allowedDocs != nil && !allowedDocs[e.DocumentID] {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:    e.ChunkID,
			DocumentID: e.DocumentID,
			Similarity: dot(q, e.Vector),
		})
	}

	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of entries currently indexed.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}

// snapshot is the gob-encoded on-disk form of an index.
type snapshot struct {
	Dimension int
	Entries   []entry
}

// Save writes the index contents to path.
func (idx *Index) Save(path string) error {
	idx.mu.RLock()
	snap := snapshot{
		Dimension: idx.dimension,
		Entries:   make([]entry, len(idx.entries)),
	}
	copy(snap.Entries, idx.entries)
	idx.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// Load replaces the index contents from a snapshot at path.
func (idx *Index) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	idx.mu.Lock()
	idx.dimension = snap.Dimension
	idx.entries = snap.Entries
	idx.mu.Unlock()
	return nil
}

// normalise returns a unit-length copy of v. Returns ok=false for a
// zero vector, which has no direction to compare.
func normalise(v []float32) ([]float32, bool) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return nil, false
	}

	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out, true
}

// dot computes the inner product of two equal-length vectors.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
