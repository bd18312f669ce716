package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docchat/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/docchat/internal/core/domain"
)

type documentsFixture struct {
	*chatFixture
	service *DocumentService
}

func newDocumentsFixture() *documentsFixture {
	f := newChatFixture(testSettings())
	return &documentsFixture{
		chatFixture: f,
		service:     NewDocumentService(f.docStore, f.historyStore, f.provider),
	}
}

func TestDocuments_List(t *testing.T) {
	f := newDocumentsFixture()
	f.seedDocument(t, "s1", "doc1", "a.txt", []string{"alpha"}, [][]float32{{1, 0, 0}})
	f.seedDocument(t, "s1", "doc2", "b.txt", []string{"beta"}, [][]float32{{0, 1, 0}})
	f.seedDocument(t, "s2", "doc3", "c.txt", []string{"gamma"}, [][]float32{{0, 0, 1}})

	docs, err := f.service.List(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestDocuments_SetActive(t *testing.T) {
	f := newDocumentsFixture()
	f.seedDocument(t, "s1", "doc1", "a.txt", []string{"alpha"}, [][]float32{{1, 0, 0}})
	ctx := context.Background()

	require.NoError(t, f.service.SetActive(ctx, "s1", "doc1", false))
	doc, err := f.docStore.GetDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.False(t, doc.Active)

	// Toggling keeps every index entry in place.
	assert.Equal(t, 1, f.provider.ForSession("s1").Len())

	require.NoError(t, f.service.SetActive(ctx, "s1", "doc1", true))
	doc, err = f.docStore.GetDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.True(t, doc.Active)
}

func TestDocuments_SetActiveWrongSession(t *testing.T) {
	f := newDocumentsFixture()
	f.seedDocument(t, "s1", "doc1", "a.txt", []string{"alpha"}, [][]float32{{1, 0, 0}})

	err := f.service.SetActive(context.Background(), "other", "doc1", false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocuments_Delete(t *testing.T) {
	f := newDocumentsFixture()
	f.seedDocument(t, "s1", "doc1", "a.txt", []string{"alpha", "beta"}, [][]float32{{1, 0, 0}, {0, 1, 0}})
	f.seedDocument(t, "s1", "doc2", "b.txt", []string{"gamma"}, [][]float32{{0, 0, 1}})
	ctx := context.Background()

	remaining, err := f.service.Delete(ctx, "s1", "doc1")
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	_, err = f.docStore.GetDocument(ctx, "doc1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, f.provider.ForSession("s1").Len())
}

func TestDocuments_DeleteChunkCountSkew(t *testing.T) {
	f := newDocumentsFixture()
	f.seedDocument(t, "s1", "doc1", "a.txt", []string{"alpha", "beta"}, [][]float32{{1, 0, 0}, {0, 1, 0}})
	ctx := context.Background()

	// Simulate a registry/index skew: the registry claims more chunks
	// than the index holds.
	doc, err := f.docStore.GetDocument(ctx, "doc1")
	require.NoError(t, err)
	doc.ChunkCount = 3
	require.NoError(t, f.docStore.SaveDocument(ctx, doc))

	_, err = f.service.Delete(ctx, "s1", "doc1")
	assert.ErrorIs(t, err, domain.ErrConsistency)

	// The document is gone and the index stays usable.
	_, err = f.docStore.GetDocument(ctx, "doc1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, f.provider.ForSession("s1").Len())
}

func TestDocuments_DeleteUnknown(t *testing.T) {
	f := newDocumentsFixture()

	_, err := f.service.Delete(context.Background(), "s1", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocuments_DeleteWrongSession(t *testing.T) {
	f := newDocumentsFixture()
	f.seedDocument(t, "s1", "doc1", "a.txt", []string{"alpha"}, [][]float32{{1, 0, 0}})

	_, err := f.service.Delete(context.Background(), "other", "doc1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The document survives the failed cross-session delete.
	_, err = f.docStore.GetDocument(context.Background(), "doc1")
	assert.NoError(t, err)
}

func TestDocuments_Stats(t *testing.T) {
	f := newDocumentsFixture()
	f.seedDocument(t, "s1", "doc1", "a.txt", []string{"alpha", "beta"}, [][]float32{{1, 0, 0}, {0, 1, 0}})
	f.seedDocument(t, "s1", "doc2", "b.txt", []string{"gamma"}, [][]float32{{0, 0, 1}})
	ctx := context.Background()
	require.NoError(t, f.docStore.SetActive(ctx, "doc2", false))

	require.NoError(t, f.historyStore.Append(ctx, &domain.ChatMessage{
		ID: "m1", SessionID: "s1", Role: domain.RoleUser, Content: "hi",
	}))

	stats, err := f.service.Stats(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 1, stats.ActiveDocuments)
	assert.Equal(t, 2, stats.Chunks)
	assert.Equal(t, int64(200), stats.Bytes)
	assert.Equal(t, 1, stats.Messages)
}

func TestDocuments_ClearDocuments(t *testing.T) {
	f := newDocumentsFixture()
	f.seedDocument(t, "s1", "doc1", "a.txt", []string{"alpha"}, [][]float32{{1, 0, 0}})
	ctx := context.Background()
	require.NoError(t, f.historyStore.Append(ctx, &domain.ChatMessage{
		ID: "m1", SessionID: "s1", Role: domain.RoleUser, Content: "hi",
	}))

	require.NoError(t, f.service.Clear(ctx, "s1", ClearDocuments))

	docs, err := f.docStore.ListBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Zero(t, f.provider.ForSession("s1").Len())

	// Chat history is outside the documents scope.
	count, err := f.historyStore.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDocuments_ClearChat(t *testing.T) {
	f := newDocumentsFixture()
	f.seedDocument(t, "s1", "doc1", "a.txt", []string{"alpha"}, [][]float32{{1, 0, 0}})
	ctx := context.Background()
	require.NoError(t, f.historyStore.Append(ctx, &domain.ChatMessage{
		ID: "m1", SessionID: "s1", Role: domain.RoleUser, Content: "hi",
	}))

	require.NoError(t, f.service.Clear(ctx, "s1", ClearChat))

	count, err := f.historyStore.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, count)

	docs, err := f.docStore.ListBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestDocuments_ClearAll(t *testing.T) {
	f := newDocumentsFixture()
	f.seedDocument(t, "s1", "doc1", "a.txt", []string{"alpha"}, [][]float32{{1, 0, 0}})
	ctx := context.Background()
	require.NoError(t, f.historyStore.Append(ctx, &domain.ChatMessage{
		ID: "m1", SessionID: "s1", Role: domain.RoleUser, Content: "hi",
	}))

	require.NoError(t, f.service.Clear(ctx, "s1", ClearAll))

	docs, err := f.docStore.ListBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, docs)
	count, err := f.historyStore.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDocuments_ClearUnknownScope(t *testing.T) {
	f := newDocumentsFixture()

	err := f.service.Clear(context.Background(), "s1", "everything")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocuments_ClearScopesOneSession(t *testing.T) {
	docStore := memory.NewDocumentStore()
	historyStore := memory.NewChatHistoryStore()
	provider := flat.NewRegistry(3)
	service := NewDocumentService(docStore, historyStore, provider)
	ctx := context.Background()

	for _, sid := range []string{"s1", "s2"} {
		require.NoError(t, docStore.SaveDocument(ctx, &domain.Document{
			ID: sid + "-doc", SessionID: sid, Filename: sid + ".txt", ChunkCount: 1, Active: true,
		}))
		require.NoError(t, provider.ForSession(sid).Insert(ctx, sid+"-chunk", sid+"-doc", []float32{1, 0, 0}))
	}

	require.NoError(t, service.Clear(ctx, "s1", ClearAll))

	docs, err := docStore.ListBySession(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, 1, provider.ForSession("s2").Len())
}
