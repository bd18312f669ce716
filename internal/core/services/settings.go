package services

import (
	"fmt"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMBaseURL    = "llm.base_url"
	keyLLMAPIKey     = "llm.api_key"
	keyTopK          = "retrieval.top_k"
	keyRelevance     = "retrieval.relevance_threshold"
	keyWebThreshold  = "retrieval.web_fallback_threshold"
	keyContextBudget = "retrieval.context_budget_words"
	keyMaxWebResults = "retrieval.max_web_results"
	keyChunkMaxWords = "chunking.max_words"
	keyChunkOverlap  = "chunking.overlap_words"
	keyWebEnabled    = "websearch.enabled"
	keyWebRateLimit  = "websearch.requests_per_minute"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:                 s.getInt(keyTopK, defaults.Retrieval.TopK),
			RelevanceThreshold:   s.getFloat(keyRelevance, defaults.Retrieval.RelevanceThreshold),
			WebFallbackThreshold: s.getFloat(keyWebThreshold, defaults.Retrieval.WebFallbackThreshold),
			ContextBudgetWords:   s.getInt(keyContextBudget, defaults.Retrieval.ContextBudgetWords),
			WebSearchEnabled:     s.getBool(keyWebEnabled, defaults.Retrieval.WebSearchEnabled),
			MaxWebResults:        s.getInt(keyMaxWebResults, defaults.Retrieval.MaxWebResults),
		},
		Chunking: domain.ChunkingSettings{
			MaxWords:     s.getInt(keyChunkMaxWords, defaults.Chunking.MaxWords),
			OverlapWords: s.getInt(keyChunkOverlap, defaults.Chunking.OverlapWords),
		},
		WebSearch: domain.WebSearchSettings{
			Enabled:           s.getBool(keyWebEnabled, defaults.WebSearch.Enabled),
			RequestsPerMinute: s.getInt(keyWebRateLimit, defaults.WebSearch.RequestsPerMinute),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	// Save embedding settings
	if err := s.configStore.Set(keyEmbedProvider, settings.Embedding.Provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, settings.Embedding.Model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	if err := s.configStore.Set(keyEmbedBaseURL, settings.Embedding.BaseURL); err != nil {
		return fmt.Errorf("save embedding base_url: %w", err)
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}

	// Save LLM settings
	if err := s.configStore.Set(keyLLMProvider, settings.LLM.Provider.String()); err != nil {
		return fmt.Errorf("save llm provider: %w", err)
	}
	if err := s.configStore.Set(keyLLMModel, settings.LLM.Model); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}
	if err := s.configStore.Set(keyLLMBaseURL, settings.LLM.BaseURL); err != nil {
		return fmt.Errorf("save llm base_url: %w", err)
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	// Save retrieval settings
	if err := s.configStore.Set(keyTopK, settings.Retrieval.TopK); err != nil {
		return fmt.Errorf("save top_k: %w", err)
	}
	if err := s.configStore.Set(keyRelevance, settings.Retrieval.RelevanceThreshold); err != nil {
		return fmt.Errorf("save relevance_threshold: %w", err)
	}
	if err := s.configStore.Set(keyWebThreshold, settings.Retrieval.WebFallbackThreshold); err != nil {
		return fmt.Errorf("save web_fallback_threshold: %w", err)
	}
	if err := s.configStore.Set(keyContextBudget, settings.Retrieval.ContextBudgetWords); err != nil {
		return fmt.Errorf("save context_budget_words: %w", err)
	}
	if err := s.configStore.Set(keyMaxWebResults, settings.Retrieval.MaxWebResults); err != nil {
		return fmt.Errorf("save max_web_results: %w", err)
	}

	// Save chunking settings
	if err := s.configStore.Set(keyChunkMaxWords, settings.Chunking.MaxWords); err != nil {
		return fmt.Errorf("save chunking max_words: %w", err)
	}
	if err := s.configStore.Set(keyChunkOverlap, settings.Chunking.OverlapWords); err != nil {
		return fmt.Errorf("save chunking overlap_words: %w", err)
	}

	// Save web search settings
	if err := s.configStore.Set(keyWebEnabled, settings.WebSearch.Enabled); err != nil {
		return fmt.Errorf("save websearch enabled: %w", err)
	}
	if err := s.configStore.Set(keyWebRateLimit, settings.WebSearch.RequestsPerMinute); err != nil {
		return fmt.Errorf("save websearch requests_per_minute: %w", err)
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	// Validate provider supports embeddings
	valid := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else {
		defaults := domain.DefaultEmbeddingModels()
		if defaultModel, ok := defaults[provider]; ok {
			settings.Embedding.Model = defaultModel
		}
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		// Local providers need a base URL
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.Embedding.BaseURL = ""
	}

	// Set API key
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.LLM.Model = model
	} else {
		defaults := domain.DefaultLLMModels()
		if defaultModel, ok := defaults[provider]; ok {
			settings.LLM.Model = defaultModel
		}
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.LLM.BaseURL = ""
	}

	// Set API key
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks if current settings allow answering questions.
// Both an embedding provider and an LLM provider must be configured.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("answering questions requires an embedding provider to be configured")
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("answering questions requires an LLM provider to be configured")
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// getString reads a string key, falling back to a default when unset.
func (s *SettingsService) getString(key, fallback string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return fallback
}

// getInt reads an integer key, falling back to a default when unset.
func (s *SettingsService) getInt(key string, fallback int) int {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetInt(key)
	}
	return fallback
}

// getFloat reads a float key, falling back to a default when unset.
func (s *SettingsService) getFloat(key string, fallback float64) float64 {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetFloat(key)
	}
	return fallback
}

// getBool reads a boolean key, falling back to a default when unset.
func (s *SettingsService) getBool(key string, fallback bool) bool {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetBool(key)
	}
	return fallback
}

// getProvider reads an AI provider key, falling back to a default when
// unset or unrecognised.
func (s *SettingsService) getProvider(key string, fallback domain.AIProvider) domain.AIProvider {
	v := domain.AIProvider(s.configStore.GetString(key))
	if v.IsValid() {
		return v
	}
	return fallback
}
