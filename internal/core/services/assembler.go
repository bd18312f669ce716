package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// ContextAssembler turns ranked retrieval hits and web results into the
// evidence block handed to the completion model, plus the provenance
// records attached to the answer.
//
// Document chunks are admitted in score order: hits below the relevance
// threshold are dropped, and admission stops once the word budget is
// spent. Web results share the same budget and are trimmed from the
// tail, lowest ranked first. The first admitted block always fits
// regardless of budget so a relevant result is never silently elided.
// Sources are deduplicated per document, keeping the best contributing
// chunk's score and snippet.
type ContextAssembler struct {
	docStore driven.DocumentStore
	settings domain.RetrievalSettings
}

// NewContextAssembler creates an assembler with the given tunables.
func NewContextAssembler(docStore driven.DocumentStore, settings domain.RetrievalSettings) *ContextAssembler {
	return &ContextAssembler{
		docStore: docStore,
		settings: settings,
	}
}

// AssembledContext is the output of assembly.
type AssembledContext struct {
	// Evidence is the formatted context block, empty when nothing was
	// admitted.
	Evidence string

	// Sources lists provenance in presentation order: documents first
	// (deduplicated, best score per document), then web results.
	Sources []domain.Source

	// HasDocumentEvidence reports whether any chunk passed the
	// relevance threshold and budget.
	HasDocumentEvidence bool

	// HasWebEvidence reports whether any web result was included.
	HasWebEvidence bool
}

// Assemble builds the evidence block from retrieval hits and web results.
// Hits must already be ordered descending by similarity.
func (a *ContextAssembler) Assemble(
	ctx context.Context, hits []driven.VectorHit, webResults []domain.WebResult,
) (*AssembledContext, error) {
	var sb strings.Builder
	result := &AssembledContext{}

	// Per-document dedup state. bestByDoc keeps the index into
	// result.Sources of the winning Source for each document.
	bestByDoc := make(map[string]int)
	titleCache := make(map[string]string)

	budget := a.settings.ContextBudgetWords
	used := 0
	block := 0

	for _, hit := range hits {
		if hit.Similarity < a.settings.RelevanceThreshold {
			continue
		}

		chunk, err := a.docStore.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			return nil, fmt.Errorf("hydrating chunk %s: %w", hit.ChunkID, err)
		}

		words := countWords(chunk.Content)
		if block > 0 && used+words > budget {
			logger.Debug("Context budget reached (%d/%d words), stopping at %d blocks", used, budget, block)
			break
		}

		title, ok := titleCache[hit.DocumentID]
		if !ok {
			doc, err := a.docStore.GetDocument(ctx, hit.DocumentID)
			if err != nil {
				return nil, fmt.Errorf("hydrating document %s: %w", hit.DocumentID, err)
			}
			title = doc.Filename
			titleCache[hit.DocumentID] = title
		}

		block++
		used += words
		fmt.Fprintf(&sb, "[%d] %s\n%s\n\n", block, title, chunk.Content)

		if _, seen := bestByDoc[hit.DocumentID]; seen {
			// Hits arrive in descending score order, so the first
			// chunk per document already holds the best score.
			continue
		}
		bestByDoc[hit.DocumentID] = len(result.Sources)
		result.Sources = append(result.Sources, domain.Source{
			Kind:       domain.SourceDocument,
			DocumentID: hit.DocumentID,
			Title:      title,
			Snippet:    snippet(chunk.Content, 200),
			Score:      hit.Similarity,
		})
	}

	result.HasDocumentEvidence = block > 0

	// Web results are already ranked, so the budget trims from the tail.
	for _, wr := range webResults {
		if strings.TrimSpace(wr.Snippet) == "" {
			continue
		}

		words := countWords(wr.Snippet)
		if block > 0 && used+words > budget {
			logger.Debug("Context budget reached (%d/%d words), dropping remaining web results", used, budget)
			break
		}

		block++
		used += words
		fmt.Fprintf(&sb, "[web] %s (%s)\n%s\n\n", wr.Title, wr.URL, wr.Snippet)
		result.Sources = append(result.Sources, domain.Source{
			Kind:    domain.SourceWeb,
			Title:   wr.Title,
			URL:     wr.URL,
			Snippet: snippet(wr.Snippet, 200),
		})
		result.HasWebEvidence = true
	}

	result.Evidence = strings.TrimSuffix(sb.String(), "\n")
	return result, nil
}

// countWords counts whitespace-separated words.
func countWords(text string) int {
	return len(strings.Fields(text))
}

// snippet truncates text to at most max runes on a rune boundary.
func snippet(text string, max int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
