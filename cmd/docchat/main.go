// Command docchat is a document question-answering CLI: upload documents,
// then ask questions answered from their content, with live web search as
// a fallback.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docchat/internal/adapters/driven/ai"
	configfile "github.com/custodia-labs/docchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docchat/internal/adapters/driven/embedding"
	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docchat/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/docchat/internal/adapters/driven/websearch/duckduckgo"
	"github.com/custodia-labs/docchat/internal/adapters/driving/cli"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/services"
	"github.com/custodia-labs/docchat/internal/logger"
	"github.com/custodia-labs/docchat/internal/normalisers"
	"github.com/custodia-labs/docchat/internal/normalisers/docx"
	"github.com/custodia-labs/docchat/internal/normalisers/html"
	"github.com/custodia-labs/docchat/internal/normalisers/markdown"
	"github.com/custodia-labs/docchat/internal/normalisers/pdf"
	"github.com/custodia-labs/docchat/internal/normalisers/plaintext"
	"github.com/custodia-labs/docchat/internal/postprocessors"
	"github.com/custodia-labs/docchat/internal/postprocessors/chunker"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// Optional; API keys may come from the environment instead of settings.
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	docStore := store.DocumentStore()

	// Vector indexes live in memory per session and are warmed from the
	// persisted chunk embeddings on first access.
	provider := flat.NewRegistry(0, flat.WithLoader(func(sessionID string, index *flat.Index) error {
		return warmIndex(docStore, sessionID, index)
	}))
	defer provider.Close()

	// AI services are optional until configured; commands that need them
	// tell the user to run the settings wizard.
	embedder, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		logger.Warn("Embedding service unavailable: %v", err)
	}
	if embedder != nil {
		embedder = embedding.NewRetryService(embedder)
	}
	llm, err := ai.CreateLLMService(&settings.LLM)
	if err != nil {
		logger.Warn("LLM service unavailable: %v", err)
	}

	var web driven.WebSearchClient
	if settings.WebSearch.Enabled {
		web = duckduckgo.NewClient(duckduckgo.Config{
			RequestsPerMinute: settings.WebSearch.RequestsPerMinute,
		})
		defer web.Close()
	}

	registry := normalisers.NewRegistry()
	registry.Register(plaintext.New())
	registry.Register(markdown.New())
	registry.Register(html.New())
	registry.Register(pdf.New())
	registry.Register(pdf.NewTool())
	registry.Register(docx.New())

	processors := postprocessors.NewRegistry()
	processors.Register("chunker", chunker.Build)
	pipeline, err := processors.Pipeline(settings.Chunking)
	if err != nil {
		return fmt.Errorf("building ingest pipeline: %w", err)
	}

	assembler := services.NewContextAssembler(docStore, settings.Retrieval)

	cli.SetServices(&cli.Services{
		Ingest:   services.NewIngestService(docStore, registry, pipeline, provider, embedder),
		Document: services.NewDocumentService(docStore, store.ChatHistoryStore(), provider),
		Chat: services.NewChatOrchestrator(
			docStore, store.ChatHistoryStore(), store.ProfileStore(),
			provider, embedder, llm, web, assembler, settings.Retrieval,
			services.WithTemporalCues(configStore.GetStringSlice("retrieval.temporal_cues")),
		),
		Settings: settingsService,
	})
	cli.SetVersion(version)

	return cli.Execute()
}

// warmIndex replays a session's stored embeddings into a fresh index.
func warmIndex(docStore driven.DocumentStore, sessionID string, index *flat.Index) error {
	ctx := context.Background()
	docs, err := docStore.ListBySession(ctx, sessionID)
	if err != nil {
		return err
	}

	var loaded int
	for _, doc := range docs {
		chunks, err := docStore.GetChunks(ctx, doc.ID)
		if err != nil {
			return err
		}
		for _, chunk := range chunks {
			if len(chunk.Embedding) == 0 {
				continue
			}
			if err := index.Insert(ctx, chunk.ID, doc.ID, chunk.Embedding); err != nil {
				return fmt.Errorf("chunk %s: %w", chunk.ID, err)
			}
			loaded++
		}
	}
	if loaded > 0 {
		logger.Debug("Warmed session %s index with %d vectors", sessionID, loaded)
	}
	return nil
}
