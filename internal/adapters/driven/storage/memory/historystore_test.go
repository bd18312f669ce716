package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func appendMessage(t *testing.T, store *ChatHistoryStore, sessionID, role, content string) {
	t.Helper()
	err := store.Append(context.Background(), &domain.ChatMessage{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	})
	require.NoError(t, err)
}

func TestChatHistoryStore_AppendAndList(t *testing.T) {
	store := NewChatHistoryStore()
	ctx := context.Background()

	appendMessage(t, store, "s1", domain.RoleUser, "question")
	appendMessage(t, store, "s1", domain.RoleAssistant, "answer")

	msgs, err := store.List(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, "question", msgs[0].Content)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
}

func TestChatHistoryStore_List_LimitReturnsMostRecent(t *testing.T) {
	store := NewChatHistoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		appendMessage(t, store, "s1", domain.RoleUser, fmt.Sprintf("msg-%d", i))
	}

	msgs, err := store.List(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "msg-3", msgs[0].Content)
	assert.Equal(t, "msg-4", msgs[1].Content)
}

func TestChatHistoryStore_List_EmptySession(t *testing.T) {
	store := NewChatHistoryStore()

	msgs, err := store.List(context.Background(), "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestChatHistoryStore_LastUserMessage(t *testing.T) {
	store := NewChatHistoryStore()
	ctx := context.Background()

	appendMessage(t, store, "s1", domain.RoleUser, "first question")
	appendMessage(t, store, "s1", domain.RoleAssistant, "first answer")
	appendMessage(t, store, "s1", domain.RoleUser, "second question")
	appendMessage(t, store, "s1", domain.RoleAssistant, "second answer")

	msg, err := store.LastUserMessage(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "second question", msg.Content)
}

func TestChatHistoryStore_LastUserMessage_NoUserMessages(t *testing.T) {
	store := NewChatHistoryStore()

	_, err := store.LastUserMessage(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChatHistoryStore_DeleteLastAssistant(t *testing.T) {
	store := NewChatHistoryStore()
	ctx := context.Background()

	appendMessage(t, store, "s1", domain.RoleUser, "question")
	appendMessage(t, store, "s1", domain.RoleAssistant, "answer")

	err := store.DeleteLastAssistant(ctx, "s1")
	require.NoError(t, err)

	msgs, err := store.List(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
}

func TestChatHistoryStore_DeleteLastAssistant_TrailingUserMessageKept(t *testing.T) {
	store := NewChatHistoryStore()
	ctx := context.Background()

	appendMessage(t, store, "s1", domain.RoleUser, "question")

	// History ends with a user message; nothing to remove
	err := store.DeleteLastAssistant(ctx, "s1")
	require.NoError(t, err)

	count, err := store.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestChatHistoryStore_Clear(t *testing.T) {
	store := NewChatHistoryStore()
	ctx := context.Background()

	appendMessage(t, store, "s1", domain.RoleUser, "question")
	appendMessage(t, store, "s2", domain.RoleUser, "other session")

	err := store.Clear(ctx, "s1")
	require.NoError(t, err)

	count, err := store.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Other sessions untouched
	count, err = store.Count(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestChatHistoryStore_SessionIsolation(t *testing.T) {
	store := NewChatHistoryStore()
	ctx := context.Background()

	appendMessage(t, store, "s1", domain.RoleUser, "session one")
	appendMessage(t, store, "s2", domain.RoleUser, "session two")

	msgs, err := store.List(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "session one", msgs[0].Content)
}
