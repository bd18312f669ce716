package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure ChatOrchestrator implements the interface.
var _ driving.ChatService = (*ChatOrchestrator)(nil)

// DefaultPersona is used when the session has no stored profile.
const DefaultPersona = "You are a helpful AI assistant."

// historyWindow is how many recent messages are replayed into the prompt.
const historyWindow = 10

// defaultTemporalCues trigger web search regardless of document
// evidence: the corpus is frozen at upload time and cannot answer
// questions about now.
var defaultTemporalCues = []string{
	"today", "latest", "current", "right now", "this week",
	"this month", "this year", "recently", "news",
}

// ChatOrchestrator answers questions by retrieving document evidence,
// optionally augmenting it with live web search, and generating a reply.
type ChatOrchestrator struct {
	docStore     driven.DocumentStore
	historyStore driven.ChatHistoryStore
	profileStore driven.ProfileStore
	provider     driven.VectorIndexProvider
	embedder     driven.EmbeddingService
	llm          driven.LLMService
	web          driven.WebSearchClient
	assembler    *ContextAssembler
	settings     domain.RetrievalSettings
	temporalCues []string
}

// ChatOption configures a ChatOrchestrator.
type ChatOption func(*ChatOrchestrator)

// WithTemporalCues overrides the phrases that force a web search.
func WithTemporalCues(cues []string) ChatOption {
	return func(o *ChatOrchestrator) {
		if len(cues) > 0 {
			o.temporalCues = cues
		}
	}
}

// NewChatOrchestrator creates a new chat orchestrator.
// The web client is optional (can be nil); without one, answers come
// from documents and general knowledge only.
func NewChatOrchestrator(
	docStore driven.DocumentStore,
	historyStore driven.ChatHistoryStore,
	profileStore driven.ProfileStore,
	provider driven.VectorIndexProvider,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	web driven.WebSearchClient,
	assembler *ContextAssembler,
	settings domain.RetrievalSettings,
	opts ...ChatOption,
) *ChatOrchestrator {
	o := &ChatOrchestrator{
		docStore:     docStore,
		historyStore: historyStore,
		profileStore: profileStore,
		provider:     provider,
		embedder:     embedder,
		llm:          llm,
		web:          web,
		assembler:    assembler,
		settings:     settings,
		temporalCues: defaultTemporalCues,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Ask runs one query through retrieval and generation. The user message
// and the answer are appended to the session's history only on success,
// so a failed query never leaves a dangling user turn.
func (o *ChatOrchestrator) Ask(ctx context.Context, sessionID, message string) (*domain.Answer, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is empty", domain.ErrInvalidInput)
	}

	answer, err := o.answer(ctx, sessionID, message, false)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	userMsg := &domain.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      domain.RoleUser,
		Content:   message,
		CreatedAt: now,
	}
	if err := o.historyStore.Append(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("recording user message: %w", err)
	}
	if err := o.appendAnswer(ctx, sessionID, answer); err != nil {
		return nil, err
	}
	return answer, nil
}

// Regenerate re-answers the session's last user message, replacing the
// trailing assistant reply. Retrieval runs again from scratch; the
// stored user message is reused verbatim.
func (o *ChatOrchestrator) Regenerate(ctx context.Context, sessionID string) (*domain.Answer, error) {
	last, err := o.historyStore.LastUserMessage(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: nothing to regenerate", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("finding last user message: %w", err)
	}

	answer, err := o.answer(ctx, sessionID, last.Content, true)
	if err != nil {
		return nil, err
	}

	// Replace the old reply only after generation succeeded.
	if err := o.historyStore.DeleteLastAssistant(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("removing previous answer: %w", err)
	}
	if err := o.appendAnswer(ctx, sessionID, answer); err != nil {
		return nil, err
	}
	return answer, nil
}

// History returns up to limit most recent messages in order.
func (o *ChatOrchestrator) History(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	return o.historyStore.List(ctx, sessionID, limit)
}

// Persona returns the session's persona instructions, falling back to
// the default when none is stored.
func (o *ChatOrchestrator) Persona(ctx context.Context, sessionID string) (string, error) {
	profile, err := o.profileStore.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return DefaultPersona, nil
	}
	if err != nil {
		return "", fmt.Errorf("loading profile: %w", err)
	}
	if strings.TrimSpace(profile.Persona) == "" {
		return DefaultPersona, nil
	}
	return profile.Persona, nil
}

// SetPersona stores persona instructions for the session. An empty
// persona reverts the session to the default.
func (o *ChatOrchestrator) SetPersona(ctx context.Context, sessionID, persona string) error {
	persona = strings.TrimSpace(persona)

	profile, err := o.profileStore.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		profile = &domain.Profile{SessionID: sessionID}
	} else if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}

	profile.Persona = persona
	profile.UpdatedAt = time.Now()
	if err := o.profileStore.Save(ctx, profile); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	logger.Info("Persona updated for session %s", sessionID)
	return nil
}

// answer runs the retrieval and generation pipeline without touching
// history. Ask and Regenerate differ only in what they persist; the
// regenerating flag keeps the reply being replaced out of the prompt.
func (o *ChatOrchestrator) answer(ctx context.Context, sessionID, message string, regenerating bool) (*domain.Answer, error) {
	if o.llm == nil {
		return nil, fmt.Errorf("%w: no language model configured", domain.ErrServiceUnavailable)
	}

	logger.Section("Chat Query")
	logger.Debug("Question: %q (session %s)", message, sessionID)

	// 1. Retrieve document evidence
	hits, err := o.retrieve(ctx, sessionID, message)
	if err != nil {
		return nil, err
	}

	// 2. Decide whether to consult the web
	var webResults []domain.WebResult
	if o.shouldSearchWeb(message, hits) {
		webResults = o.searchWeb(ctx, message)
	}

	// 3. Assemble the evidence block and provenance
	assembled, err := o.assembler.Assemble(ctx, hits, webResults)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalFailed, err)
	}

	// 4. Build the conversation and generate
	messages, err := o.buildMessages(ctx, sessionID, message, assembled, regenerating)
	if err != nil {
		return nil, err
	}
	text, err := o.llm.Chat(ctx, messages, driven.ChatOptions{})
	if err != nil {
		return nil, err
	}

	grounded := assembled.HasDocumentEvidence || assembled.HasWebEvidence
	if !grounded {
		logger.Debug("No evidence found, answered from general knowledge")
	}
	return &domain.Answer{
		Text:          strings.TrimSpace(text),
		Sources:       assembled.Sources,
		Grounded:      grounded,
		UsedWebSearch: assembled.HasWebEvidence,
	}, nil
}

// retrieve embeds the question and searches the session's index,
// restricted to active documents.
func (o *ChatOrchestrator) retrieve(ctx context.Context, sessionID, message string) ([]driven.VectorHit, error) {
	if o.embedder == nil {
		// No embedding service means no retrieval; the web and general
		// knowledge paths still work.
		return nil, nil
	}

	docs, err := o.docStore.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing documents: %w", domain.ErrRetrievalFailed, err)
	}
	allowed := make(map[string]bool)
	for _, doc := range docs {
		if doc.Active {
			allowed[doc.ID] = true
		}
	}
	if len(allowed) == 0 {
		logger.Debug("No active documents for session %s", sessionID)
		return nil, nil
	}

	query, err := o.embedder.Embed(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %w", domain.ErrRetrievalFailed, err)
	}

	index := o.provider.ForSession(sessionID)
	hits, err := index.Search(ctx, query, o.settings.TopK, allowed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalFailed, err)
	}
	logger.Debug("Retrieved %d hits from %d active documents", len(hits), len(allowed))
	return hits, nil
}

// shouldSearchWeb decides whether document evidence alone is enough.
// The web is consulted when retrieval came up empty, when the best hit
// is weak, or when the question asks about the present.
func (o *ChatOrchestrator) shouldSearchWeb(message string, hits []driven.VectorHit) bool {
	if o.web == nil || !o.settings.WebSearchEnabled {
		return false
	}
	if len(hits) == 0 || hits[0].Similarity < o.settings.WebFallbackThreshold {
		return true
	}
	lower := strings.ToLower(message)
	for _, cue := range o.temporalCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

// searchWeb fetches supplementary web evidence. Failures are already
// absorbed by the client; a nil slice simply means no web sources.
func (o *ChatOrchestrator) searchWeb(ctx context.Context, message string) []domain.WebResult {
	results, err := o.web.Search(ctx, message, o.settings.MaxWebResults)
	if err != nil {
		logger.Warn("Web search failed: %v", err)
		return nil
	}
	logger.Debug("Web search returned %d results", len(results))
	return results
}

// buildMessages assembles the system prompt, recent history and the
// current question into the conversation sent to the model.
func (o *ChatOrchestrator) buildMessages(
	ctx context.Context, sessionID, message string, assembled *AssembledContext, regenerating bool,
) ([]driven.ChatMessage, error) {
	persona := DefaultPersona
	if o.profileStore != nil {
		profile, err := o.profileStore.Get(ctx, sessionID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("loading profile: %w", err)
		}
		if profile != nil && strings.TrimSpace(profile.Persona) != "" {
			persona = profile.Persona
		}
	}

	var system strings.Builder
	system.WriteString(persona)
	if assembled.Evidence != "" {
		system.WriteString("\n\nAnswer using the context below. ")
		system.WriteString("If the context does not contain the answer, say so rather than inventing one.\n\n")
		system.WriteString("Context:\n")
		system.WriteString(assembled.Evidence)
	} else {
		system.WriteString("\n\nNo document context is available for this question. ")
		system.WriteString("Answer from general knowledge and say that no uploaded document covers it.")
	}

	messages := []driven.ChatMessage{{Role: "system", Content: system.String()}}

	history, err := o.historyStore.List(ctx, sessionID, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	if regenerating {
		// The turn being regenerated is still stored; replaying it would
		// put the question and the discarded reply in the prompt twice.
		if n := len(history); n > 0 && history[n-1].Role == domain.RoleAssistant {
			history = history[:n-1]
		}
		if n := len(history); n > 0 && history[n-1].Role == domain.RoleUser && history[n-1].Content == message {
			history = history[:n-1]
		}
	}
	for _, msg := range history {
		messages = append(messages, driven.ChatMessage{Role: msg.Role, Content: msg.Content})
	}

	messages = append(messages, driven.ChatMessage{Role: "user", Content: message})
	return messages, nil
}

// appendAnswer records an assistant message carrying the answer text and
// its sources.
func (o *ChatOrchestrator) appendAnswer(ctx context.Context, sessionID string, answer *domain.Answer) error {
	msg := &domain.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      domain.RoleAssistant,
		Content:   answer.Text,
		Sources:   answer.Sources,
		CreatedAt: time.Now(),
	}
	if err := o.historyStore.Append(ctx, msg); err != nil {
		return fmt.Errorf("recording answer: %w", err)
	}
	return nil
}
