package flat

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestSearchRanksByCosineSimilarity(t *testing.T) {
	ctx := context.Background()
	idx := New(0)

	require.NoError(t, idx.Insert(ctx, "c1", "d1", []float32{1, 0, 0}))
	require.NoError(t, idx.Insert(ctx, "c2", "d1", []float32{0, 1, 0}))
	require.NoError(t, idx.Insert(ctx, "c3", "d2", []float32{0.9, 0.1, 0}))

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.Equal(t, "c3", hits[1].ChunkID)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)
}

func TestSearchMagnitudeDoesNotAffectRanking(t *testing.T) {
	ctx := context.Background()
	idx := New(0)

	// Same direction, wildly different magnitude.
	require.NoError(t, idx.Insert(ctx, "small", "d1", []float32{0.001, 0, 0}))
	require.NoError(t, idx.Insert(ctx, "off", "d1", []float32{0, 100, 0}))

	hits, err := idx.Search(ctx, []float32{50, 0, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "small", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	idx := New(0)

	require.NoError(t, idx.Insert(ctx, "first", "d1", []float32{0, 1, 0}))
	require.NoError(t, idx.Insert(ctx, "second", "d1", []float32{0, 2, 0}))
	require.NoError(t, idx.Insert(ctx, "third", "d1", []float32{0, 0.5, 0}))

	hits, err := idx.Search(ctx, []float32{0, 1, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "first", hits[0].ChunkID)
	assert.Equal(t, "second", hits[1].ChunkID)
	assert.Equal(t, "third", hits[2].ChunkID)
}

func TestSearchEmptyIndexReturnsEmptySlice(t *testing.T) {
	idx := New(0)

	hits, err := idx.Search(context.Background(), []float32{1, 0}, 5, nil)
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

func TestSearchFiltersByAllowedDocuments(t *testing.T) {
	ctx := context.Background()
	idx := New(0)

	require.NoError(t, idx.Insert(ctx, "c1", "active", []float32{1, 0}))
	require.NoError(t, idx.Insert(ctx, "c2", "paused", []float32{1, 0}))

	hits, err := idx.Search(ctx, []float32{1, 0}, 10, map[string]bool{"active": true})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ChunkID)
}

func TestInsertRejectsDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := New(0)

	require.NoError(t, idx.Insert(ctx, "c1", "d1", []float32{1, 0, 0}))

	err := idx.Insert(ctx, "c2", "d1", []float32{1, 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 1, idx.Len())
}

func TestSearchRejectsDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := New(0)

	require.NoError(t, idx.Insert(ctx, "c1", "d1", []float32{1, 0, 0}))

	_, err := idx.Search(ctx, []float32{1, 0}, 1, nil)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestRemoveByDocument(t *testing.T) {
	ctx := context.Background()
	idx := New(0)

	require.NoError(t, idx.Insert(ctx, "c1", "d1", []float32{1, 0}))
	require.NoError(t, idx.Insert(ctx, "c2", "d2", []float32{0, 1}))
	require.NoError(t, idx.Insert(ctx, "c3", "d1", []float32{1, 1}))

	removed, err := idx.RemoveByDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, idx.Len())

	hits, err := idx.Search(ctx, []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c2", hits[0].ChunkID)
}

func TestRemoveByDocumentUnknownDocument(t *testing.T) {
	ctx := context.Background()
	idx := New(0)
	require.NoError(t, idx.Insert(ctx, "c1", "d1", []float32{1, 0}))

	removed, err := idx.RemoveByDocument(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, 1, idx.Len())
}

// Removal filters the entry slice in place, so a concurrent reader must
// see the index either before or after a mutation, never mid-rewrite.
func TestConcurrentSearchDuringMutation(t *testing.T) {
	ctx := context.Background()
	idx := New(3)

	stable := [][]float32{{1, 0, 0}, {0.9, 0.1, 0}, {0.8, 0.2, 0}}
	for i, v := range stable {
		require.NoError(t, idx.Insert(ctx, fmt.Sprintf("stable-%d", i), "stable", v))
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			for j := 0; j < 3; j++ {
				_ = idx.Insert(ctx, fmt.Sprintf("churn-%d-%d", i, j), "churn", []float32{0, 1, 0})
			}
			_, _ = idx.RemoveByDocument(ctx, "churn")
		}
	}()

	for i := 0; i < 200; i++ {
		hits, err := idx.Search(ctx, []float32{1, 0, 0}, 10, nil)
		require.NoError(t, err)

		seen := make(map[string]int)
		fromStable := 0
		for _, h := range hits {
			seen[h.ChunkID]++
			if h.DocumentID == "stable" {
				fromStable++
			}
		}
		for id, n := range seen {
			assert.Equal(t, 1, n, "chunk %s returned more than once", id)
		}
		assert.Equal(t, len(stable), fromStable)
	}

	close(done)
	wg.Wait()
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	ctx := context.Background()
	idx := New(0)
	require.NoError(t, idx.Insert(ctx, "c1", "d1", []float32{1, 0, 0}))
	require.NoError(t, idx.Insert(ctx, "c2", "d2", []float32{0, 1, 0}))

	path := filepath.Join(t.TempDir(), "index.gob")
	require.NoError(t, idx.Save(path))

	restored := New(0)
	require.NoError(t, restored.Load(path))
	assert.Equal(t, 2, restored.Len())

	hits, err := restored.Search(ctx, []float32{1, 0, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ChunkID)
}

func TestRegistryIsolatesSessions(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(0)

	a := reg.ForSession("session-a")
	b := reg.ForSession("session-b")
	require.NoError(t, a.Insert(ctx, "c1", "d1", []float32{1, 0}))

	assert.Equal(t, 1, a.Len())
	assert.Zero(t, b.Len())

	// Same session ID returns the same index.
	assert.Equal(t, 1, reg.ForSession("session-a").Len())

	reg.DropSession("session-a")
	assert.Zero(t, reg.ForSession("session-a").Len())
}

func TestRegistryWarmsNewIndexWithLoader(t *testing.T) {
	ctx := context.Background()
	var loads int
	reg := NewRegistry(0, WithLoader(func(sessionID string, index *Index) error {
		loads++
		return index.Insert(ctx, "warm-chunk", "warm-doc", []float32{0, 1})
	}))

	idx := reg.ForSession("session-a")
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 1, loads)

	// The loader runs once per session, not per access.
	reg.ForSession("session-a")
	assert.Equal(t, 1, loads)

	reg.ForSession("session-b")
	assert.Equal(t, 2, loads)
}

func TestRegistryLoaderFailureLeavesIndexUsable(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(0, WithLoader(func(string, *Index) error {
		return errors.New("storage offline")
	}))

	idx := reg.ForSession("session-a")
	require.NoError(t, idx.Insert(ctx, "c1", "d1", []float32{1, 0}))
	assert.Equal(t, 1, idx.Len())
}
