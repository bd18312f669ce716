package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RetrievalSettings holds the retrieval pipeline tunables.
type RetrievalSettings struct {
	// TopK is how many chunks to pull from the vector index per question.
	TopK int

	// RelevanceThreshold is the minimum cosine similarity for a chunk
	// to count as relevant.
	RelevanceThreshold float64

	// WebFallbackThreshold triggers web search when the best document
	// hit scores below it.
	WebFallbackThreshold float64

	// ContextBudgetWords caps the assembled context size.
	ContextBudgetWords int

	// WebSearchEnabled toggles the web search fallback.
	WebSearchEnabled bool

	// MaxWebResults caps how many web results are fetched per question.
	MaxWebResults int
}

// ChunkingSettings holds document chunking configuration.
type ChunkingSettings struct {
	// MaxWords is the chunk window size in words.
	MaxWords int

	// OverlapWords is how many words consecutive chunks share.
	OverlapWords int
}

// WebSearchSettings holds web search client configuration.
type WebSearchSettings struct {
	// Enabled toggles the web search fallback entirely.
	Enabled bool

	// RequestsPerMinute throttles outbound search requests.
	RequestsPerMinute int
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Retrieval holds retrieval pipeline settings.
	Retrieval RetrievalSettings

	// Chunking holds document chunking settings.
	Chunking ChunkingSettings

	// WebSearch holds web search settings.
	WebSearch WebSearchSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers (Embedding, LLM) are left unconfigured by default;
// users must set them up via the settings commands.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{},
		LLM:       LLMSettings{},
		Retrieval: RetrievalSettings{
			TopK:                 5,
			RelevanceThreshold:   0.30,
			WebFallbackThreshold: 0.45,
			ContextBudgetWords:   1200,
			WebSearchEnabled:     true,
			MaxWebResults:        3,
		},
		Chunking: ChunkingSettings{
			MaxWords:     1000,
			OverlapWords: 50,
		},
		WebSearch: WebSearchSettings{
			Enabled:           true,
			RequestsPerMinute: 30,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config for extensibility - new processors can
// be added without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// DefaultPipelineConfig returns the default pipeline configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"max_words": 1000,
				"overlap":   50,
			},
		},
	}
}
