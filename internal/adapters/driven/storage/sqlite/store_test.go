package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "docchat-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// createTestDocument creates a test document to satisfy foreign key constraints.
func createTestDocument(t *testing.T, store *Store, id, sessionID string) {
	t.Helper()
	err := store.DocumentStore().SaveDocument(context.Background(), &domain.Document{
		ID:        id,
		SessionID: sessionID,
		Filename:  id + ".txt",
		Active:    true,
	})
	require.NoError(t, err)
}

func TestStoreCreatesDatabaseFile(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := os.Stat(store.Path())
	assert.NoError(t, err)
	assert.Equal(t, "docchat.db", filepath.Base(store.Path()))
}

func TestStoreMigrationsAreIdempotent(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "docchat-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening runs migrations again against the same file.
	store, err = NewStore(tempDir)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestDocumentStoreRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docs := store.DocumentStore()

	doc := &domain.Document{
		ID:         "doc-1",
		SessionID:  "s1",
		Filename:   "report.pdf",
		ChunkCount: 3,
		ByteSize:   2048,
		Active:     true,
	}
	require.NoError(t, docs.SaveDocument(ctx, doc))

	got, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", got.Filename)
	assert.Equal(t, 3, got.ChunkCount)
	assert.Equal(t, int64(2048), got.ByteSize)
	assert.True(t, got.Active)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = docs.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStoreChunksWithEmbeddings(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docs := store.DocumentStore()

	createTestDocument(t, store, "doc-1", "s1")

	chunks := []domain.Chunk{
		{ID: "c2", DocumentID: "doc-1", Position: 1, Content: "second", Embedding: []float32{0.5, -1.25}},
		{ID: "c1", DocumentID: "doc-1", Position: 0, Content: "first", Embedding: []float32{1, 2}},
	}
	require.NoError(t, docs.SaveChunks(ctx, chunks))

	got, err := docs.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Content)
	assert.Equal(t, []float32{1, 2}, got[0].Embedding)
	assert.Equal(t, "second", got[1].Content)
	assert.Equal(t, []float32{0.5, -1.25}, got[1].Embedding)

	chunk, err := docs.GetChunk(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, 1, chunk.Position)
}

func TestDocumentStoreSetActive(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docs := store.DocumentStore()

	createTestDocument(t, store, "doc-1", "s1")

	require.NoError(t, docs.SetActive(ctx, "doc-1", false))
	doc, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, doc.Active)

	assert.ErrorIs(t, docs.SetActive(ctx, "missing", true), domain.ErrNotFound)
}

func TestDocumentStoreDeleteCascadesChunks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docs := store.DocumentStore()

	createTestDocument(t, store, "doc-1", "s1")
	require.NoError(t, docs.SaveChunks(ctx, []domain.Chunk{
		{ID: "c1", DocumentID: "doc-1", Position: 0, Content: "text"},
	}))

	require.NoError(t, docs.DeleteDocument(ctx, "doc-1"))

	_, err := docs.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	chunks, err := docs.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	assert.ErrorIs(t, docs.DeleteDocument(ctx, "doc-1"), domain.ErrNotFound)
}

func TestDocumentStoreListBySession(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	docs := store.DocumentStore()

	createTestDocument(t, store, "a", "s1")
	createTestDocument(t, store, "b", "s1")
	createTestDocument(t, store, "c", "s2")

	list, err := docs.ListBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = docs.ListBySession(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestChatHistoryStoreRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	history := store.ChatHistoryStore()

	require.NoError(t, history.Append(ctx, &domain.ChatMessage{
		ID: "m1", SessionID: "s1", Role: domain.RoleUser, Content: "what is Go?",
	}))
	require.NoError(t, history.Append(ctx, &domain.ChatMessage{
		ID: "m2", SessionID: "s1", Role: domain.RoleAssistant, Content: "a language",
		Sources: []domain.Source{{Kind: domain.SourceDocument, DocumentID: "doc-1", Title: "intro.md", Score: 0.8}},
	}))

	msgs, err := history.List(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)
	require.Len(t, msgs[1].Sources, 1)
	assert.Equal(t, "intro.md", msgs[1].Sources[0].Title)

	msgs, err = history.List(ctx, "s1", 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m2", msgs[0].ID)

	count, err := history.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestChatHistoryStoreLastUserMessage(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	history := store.ChatHistoryStore()

	_, err := history.LastUserMessage(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, history.Append(ctx, &domain.ChatMessage{ID: "m1", SessionID: "s1", Role: domain.RoleUser, Content: "first"}))
	require.NoError(t, history.Append(ctx, &domain.ChatMessage{ID: "m2", SessionID: "s1", Role: domain.RoleAssistant, Content: "reply"}))
	require.NoError(t, history.Append(ctx, &domain.ChatMessage{ID: "m3", SessionID: "s1", Role: domain.RoleUser, Content: "second"}))

	msg, err := history.LastUserMessage(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "second", msg.Content)
}

func TestChatHistoryStoreDeleteLastAssistant(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	history := store.ChatHistoryStore()

	require.NoError(t, history.Append(ctx, &domain.ChatMessage{ID: "m1", SessionID: "s1", Role: domain.RoleUser}))
	require.NoError(t, history.Append(ctx, &domain.ChatMessage{ID: "m2", SessionID: "s1", Role: domain.RoleAssistant}))

	require.NoError(t, history.DeleteLastAssistant(ctx, "s1"))
	count, err := history.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// History now ends with a user message; delete must be a no-op.
	require.NoError(t, history.DeleteLastAssistant(ctx, "s1"))
	count, err = history.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestChatHistoryStoreClear(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	history := store.ChatHistoryStore()

	require.NoError(t, history.Append(ctx, &domain.ChatMessage{ID: "m1", SessionID: "s1", Role: domain.RoleUser}))
	require.NoError(t, history.Append(ctx, &domain.ChatMessage{ID: "m2", SessionID: "s2", Role: domain.RoleUser}))

	require.NoError(t, history.Clear(ctx, "s1"))

	count, err := history.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = history.Count(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProfileStoreRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	profiles := store.ProfileStore()

	_, err := profiles.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, profiles.Save(ctx, &domain.Profile{
		SessionID:    "s1",
		Persona:      "concise analyst",
		Theme:        "dark",
		VoiceEnabled: true,
	}))

	profile, err := profiles.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "concise analyst", profile.Persona)
	assert.True(t, profile.VoiceEnabled)
	assert.WithinDuration(t, time.Now(), profile.UpdatedAt, time.Minute)

	// Upsert overwrites.
	require.NoError(t, profiles.Save(ctx, &domain.Profile{SessionID: "s1", Persona: "pirate"}))
	profile, err = profiles.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "pirate", profile.Persona)
	assert.False(t, profile.VoiceEnabled)

	require.NoError(t, profiles.Delete(ctx, "s1"))
	_, err = profiles.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
