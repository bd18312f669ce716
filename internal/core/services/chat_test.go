package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docchat/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// It returns a registered vector per text, falling back to a default.
type mockEmbeddingService struct {
	vectors    map[string][]float32
	fallback   []float32
	embedErr   error
	embedCalls int
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.embedCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return m.fallback, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int              { return len(m.fallback) }
func (m *mockEmbeddingService) ModelName() string            { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	reply        string
	chatErr      error
	chatCalls    int
	lastMessages []driven.ChatMessage
}

func (m *mockLLMService) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.reply, nil
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.chatCalls++
	m.lastMessages = messages
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.reply, nil
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// mockWebSearchClient implements driven.WebSearchClient for testing.
type mockWebSearchClient struct {
	results []domain.WebResult
	calls   int
}

func (m *mockWebSearchClient) Search(_ context.Context, _ string, maxResults int) ([]domain.WebResult, error) {
	m.calls++
	if maxResults < len(m.results) {
		return m.results[:maxResults], nil
	}
	return m.results, nil
}

func (m *mockWebSearchClient) Close() error { return nil }

// --- Test fixture ---

type chatFixture struct {
	docStore     *memory.DocumentStore
	historyStore *memory.ChatHistoryStore
	profileStore *memory.ProfileStore
	provider     *flat.Registry
	embedder     *mockEmbeddingService
	llm          *mockLLMService
	web          *mockWebSearchClient
	orchestrator *ChatOrchestrator
}

func newChatFixture(settings domain.RetrievalSettings) *chatFixture {
	f := &chatFixture{
		docStore:     memory.NewDocumentStore(),
		historyStore: memory.NewChatHistoryStore(),
		profileStore: memory.NewProfileStore(),
		provider:     flat.NewRegistry(3),
		embedder: &mockEmbeddingService{
			vectors:  map[string][]float32{},
			fallback: []float32{0, 0, 1},
		},
		llm: &mockLLMService{reply: "The capital of France is Paris."},
		web: &mockWebSearchClient{},
	}
	assembler := NewContextAssembler(f.docStore, settings)
	f.orchestrator = NewChatOrchestrator(
		f.docStore, f.historyStore, f.profileStore,
		f.provider, f.embedder, f.llm, f.web,
		assembler, settings,
	)
	return f
}

func testSettings() domain.RetrievalSettings {
	s := domain.DefaultAppSettings().Retrieval
	return s
}

// seedDocument stores a document with one chunk per vector and indexes it.
func (f *chatFixture) seedDocument(t *testing.T, sessionID, docID, filename string, texts []string, vecs [][]float32) {
	t.Helper()
	ctx := context.Background()
	doc := &domain.Document{
		ID:         docID,
		SessionID:  sessionID,
		Filename:   filename,
		ChunkCount: len(texts),
		ByteSize:   100,
		Active:     true,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, f.docStore.SaveDocument(ctx, doc))

	chunks := make([]domain.Chunk, len(texts))
	index := f.provider.ForSession(sessionID)
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			ID:         fmt.Sprintf("%s-chunk-%d", docID, i),
			DocumentID: docID,
			Position:   i,
			Content:    text,
			Embedding:  vecs[i],
		}
		require.NoError(t, index.Insert(ctx, chunks[i].ID, docID, vecs[i]))
	}
	require.NoError(t, f.docStore.SaveChunks(ctx, chunks))
}

// --- Tests ---

func TestAsk_AnswersFromDocuments(t *testing.T) {
	f := newChatFixture(testSettings())
	f.seedDocument(t, "s1", "doc1", "france.txt",
		[]string{"Paris is the capital of France.", "France borders Spain."},
		[][]float32{{1, 0, 0}, {0.9, 0.3, 0}},
	)
	f.embedder.vectors["What is the capital of France?"] = []float32{1, 0, 0}

	answer, err := f.orchestrator.Ask(context.Background(), "s1", "What is the capital of France?")
	require.NoError(t, err)

	assert.Equal(t, "The capital of France is Paris.", answer.Text)
	assert.True(t, answer.Grounded)
	assert.False(t, answer.UsedWebSearch)
	assert.Zero(t, f.web.calls)

	// Both chunks matched but the document appears exactly once,
	// carrying the best chunk's score.
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, domain.SourceDocument, answer.Sources[0].Kind)
	assert.Equal(t, "doc1", answer.Sources[0].DocumentID)
	assert.Equal(t, "france.txt", answer.Sources[0].Title)
	assert.InDelta(t, 1.0, answer.Sources[0].Score, 1e-6)

	// History gained the user turn and the answer.
	history, err := f.orchestrator.History(context.Background(), "s1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)
	assert.Len(t, history[1].Sources, 1)
}

func TestAsk_ContextReachesModel(t *testing.T) {
	f := newChatFixture(testSettings())
	f.seedDocument(t, "s1", "doc1", "france.txt",
		[]string{"Paris is the capital of France."},
		[][]float32{{1, 0, 0}},
	)
	f.embedder.vectors["capital?"] = []float32{1, 0, 0}

	_, err := f.orchestrator.Ask(context.Background(), "s1", "capital?")
	require.NoError(t, err)

	require.NotEmpty(t, f.llm.lastMessages)
	system := f.llm.lastMessages[0]
	assert.Equal(t, "system", system.Role)
	assert.Contains(t, system.Content, "Paris is the capital of France.")
	assert.Contains(t, system.Content, "france.txt")

	last := f.llm.lastMessages[len(f.llm.lastMessages)-1]
	assert.Equal(t, "user", last.Role)
	assert.Equal(t, "capital?", last.Content)
}

func TestAsk_EmptySessionFallsBackToWeb(t *testing.T) {
	f := newChatFixture(testSettings())
	f.web.results = []domain.WebResult{
		{Title: "Weather", URL: "https://example.com/weather", Snippet: "Sunny, 25 degrees."},
	}

	answer, err := f.orchestrator.Ask(context.Background(), "s1", "What is the weather like?")
	require.NoError(t, err)

	assert.Equal(t, 1, f.web.calls)
	assert.True(t, answer.UsedWebSearch)
	assert.True(t, answer.Grounded)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, domain.SourceWeb, answer.Sources[0].Kind)
	assert.Equal(t, "https://example.com/weather", answer.Sources[0].URL)
}

func TestAsk_WeakEvidenceTriggersWeb(t *testing.T) {
	f := newChatFixture(testSettings())
	f.seedDocument(t, "s1", "doc1", "notes.txt",
		[]string{"Grocery list: milk, eggs, bread."},
		[][]float32{{1, 0, 0}},
	)
	// Nearly orthogonal query: similarity well below the fallback threshold.
	f.embedder.vectors["Who won the world cup?"] = []float32{0.1, 0.995, 0}
	f.web.results = []domain.WebResult{
		{Title: "World Cup", URL: "https://example.com/cup", Snippet: "Argentina won."},
	}

	answer, err := f.orchestrator.Ask(context.Background(), "s1", "Who won the world cup?")
	require.NoError(t, err)
	assert.Equal(t, 1, f.web.calls)
	assert.True(t, answer.UsedWebSearch)
}

func TestAsk_StrongEvidenceSkipsWeb(t *testing.T) {
	f := newChatFixture(testSettings())
	f.seedDocument(t, "s1", "doc1", "france.txt",
		[]string{"Paris is the capital of France."},
		[][]float32{{1, 0, 0}},
	)
	f.embedder.vectors["capital of France?"] = []float32{1, 0, 0}

	answer, err := f.orchestrator.Ask(context.Background(), "s1", "capital of France?")
	require.NoError(t, err)
	assert.Zero(t, f.web.calls)
	assert.False(t, answer.UsedWebSearch)
}

func TestAsk_TemporalCueTriggersWebDespiteStrongEvidence(t *testing.T) {
	f := newChatFixture(testSettings())
	f.seedDocument(t, "s1", "doc1", "france.txt",
		[]string{"Paris is the capital of France."},
		[][]float32{{1, 0, 0}},
	)
	f.embedder.vectors["What is the latest news about France?"] = []float32{1, 0, 0}
	f.web.results = []domain.WebResult{
		{Title: "France news", URL: "https://example.com/fr", Snippet: "Elections announced."},
	}

	answer, err := f.orchestrator.Ask(context.Background(), "s1", "What is the latest news about France?")
	require.NoError(t, err)
	assert.Equal(t, 1, f.web.calls)
	assert.True(t, answer.UsedWebSearch)
}

func TestAsk_CustomTemporalCues(t *testing.T) {
	f := newChatFixture(testSettings())
	f.seedDocument(t, "s1", "doc1", "france.txt",
		[]string{"Paris is the capital of France."},
		[][]float32{{1, 0, 0}},
	)
	WithTemporalCues([]string{"aujourd'hui"})(f.orchestrator)
	f.embedder.vectors["What is the latest on France?"] = []float32{1, 0, 0}
	f.embedder.vectors["Quoi de neuf aujourd'hui en France?"] = []float32{1, 0, 0}
	f.web.results = []domain.WebResult{
		{Title: "France news", URL: "https://example.com/fr", Snippet: "Elections announced."},
	}

	// The default cue "latest" no longer triggers
	_, err := f.orchestrator.Ask(context.Background(), "s1", "What is the latest on France?")
	require.NoError(t, err)
	assert.Equal(t, 0, f.web.calls)

	// The configured cue does
	_, err = f.orchestrator.Ask(context.Background(), "s1", "Quoi de neuf aujourd'hui en France?")
	require.NoError(t, err)
	assert.Equal(t, 1, f.web.calls)
}

func TestAsk_WebDisabledNeverSearches(t *testing.T) {
	settings := testSettings()
	settings.WebSearchEnabled = false
	f := newChatFixture(settings)
	f.web.results = []domain.WebResult{
		{Title: "x", URL: "https://example.com", Snippet: "y"},
	}

	answer, err := f.orchestrator.Ask(context.Background(), "s1", "anything at all")
	require.NoError(t, err)
	assert.Zero(t, f.web.calls)
	assert.False(t, answer.UsedWebSearch)
	assert.False(t, answer.Grounded)
	assert.Empty(t, answer.Sources)
}

func TestAsk_InactiveDocumentExcluded(t *testing.T) {
	f := newChatFixture(testSettings())
	f.seedDocument(t, "s1", "doc1", "france.txt",
		[]string{"Paris is the capital of France."},
		[][]float32{{1, 0, 0}},
	)
	require.NoError(t, f.docStore.SetActive(context.Background(), "doc1", false))
	f.embedder.vectors["capital?"] = []float32{1, 0, 0}

	answer, err := f.orchestrator.Ask(context.Background(), "s1", "capital?")
	require.NoError(t, err)

	// The vectors are still indexed but filtered out at query time.
	for _, src := range answer.Sources {
		assert.NotEqual(t, domain.SourceDocument, src.Kind)
	}
	assert.Equal(t, 1, f.provider.ForSession("s1").Len())
}

func TestAsk_EmptyMessageRejected(t *testing.T) {
	f := newChatFixture(testSettings())

	_, err := f.orchestrator.Ask(context.Background(), "s1", "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAsk_GenerationFailureLeavesHistoryUntouched(t *testing.T) {
	f := newChatFixture(testSettings())
	f.llm.chatErr = domain.ErrGenerationFailed

	_, err := f.orchestrator.Ask(context.Background(), "s1", "hello")
	require.ErrorIs(t, err, domain.ErrGenerationFailed)

	count, err := f.historyStore.Count(context.Background(), "s1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAsk_PersonaFromProfile(t *testing.T) {
	f := newChatFixture(testSettings())
	require.NoError(t, f.profileStore.Save(context.Background(), &domain.Profile{
		SessionID: "s1",
		Persona:   "You are a pirate. Answer in pirate speak.",
	}))

	_, err := f.orchestrator.Ask(context.Background(), "s1", "hello")
	require.NoError(t, err)

	require.NotEmpty(t, f.llm.lastMessages)
	assert.Contains(t, f.llm.lastMessages[0].Content, "pirate speak")
}

func TestPersona_DefaultWhenUnset(t *testing.T) {
	f := newChatFixture(testSettings())

	persona, err := f.orchestrator.Persona(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, DefaultPersona, persona)
}

func TestSetPersona_RoundTrip(t *testing.T) {
	f := newChatFixture(testSettings())

	err := f.orchestrator.SetPersona(context.Background(), "s1", "  Answer tersely.  ")
	require.NoError(t, err)

	persona, err := f.orchestrator.Persona(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Answer tersely.", persona)
}

func TestSetPersona_BlankRevertsToDefault(t *testing.T) {
	f := newChatFixture(testSettings())

	require.NoError(t, f.orchestrator.SetPersona(context.Background(), "s1", "Answer tersely."))
	require.NoError(t, f.orchestrator.SetPersona(context.Background(), "s1", ""))

	persona, err := f.orchestrator.Persona(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, DefaultPersona, persona)
}

func TestRegenerate_ReplacesLastAssistant(t *testing.T) {
	f := newChatFixture(testSettings())

	_, err := f.orchestrator.Ask(context.Background(), "s1", "What is the capital of France?")
	require.NoError(t, err)

	f.llm.reply = "Paris, the City of Light."
	answer, err := f.orchestrator.Regenerate(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Paris, the City of Light.", answer.Text)

	history, err := f.orchestrator.History(context.Background(), "s1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, "What is the capital of France?", history[0].Content)
	assert.Equal(t, "Paris, the City of Light.", history[1].Content)
}

func TestRegenerate_ReusesStoredQuestion(t *testing.T) {
	f := newChatFixture(testSettings())

	_, err := f.orchestrator.Ask(context.Background(), "s1", "What is the capital of France?")
	require.NoError(t, err)

	_, err = f.orchestrator.Regenerate(context.Background(), "s1")
	require.NoError(t, err)

	last := f.llm.lastMessages[len(f.llm.lastMessages)-1]
	assert.Equal(t, "user", last.Role)
	assert.Equal(t, "What is the capital of France?", last.Content)

	// The discarded reply must not be replayed into the prompt.
	for _, msg := range f.llm.lastMessages {
		assert.NotEqual(t, "assistant", msg.Role)
	}
}

func TestRegenerate_EmptyHistory(t *testing.T) {
	f := newChatFixture(testSettings())

	_, err := f.orchestrator.Regenerate(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAsk_RetrievalFailureSurfaces(t *testing.T) {
	f := newChatFixture(testSettings())
	f.seedDocument(t, "s1", "doc1", "france.txt",
		[]string{"Paris is the capital of France."},
		[][]float32{{1, 0, 0}},
	)
	f.embedder.embedErr = errors.New("provider down")

	_, err := f.orchestrator.Ask(context.Background(), "s1", "capital?")
	assert.ErrorIs(t, err, domain.ErrRetrievalFailed)
}
