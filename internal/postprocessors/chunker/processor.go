// Package chunker provides a word-window text chunking processor.
package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// DefaultMaxWords is the default number of words per chunk.
const DefaultMaxWords = 1000

// DefaultOverlapWords is the default number of words repeated from the
// tail of one chunk at the head of the next. The overlap avoids
// splitting context exactly at chunk boundaries.
const DefaultOverlapWords = 50

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor splits extracted text into bounded, overlapping word windows.
// It implements the PostProcessor interface.
type Processor struct {
	maxWords     int
	overlapWords int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxWords sets the chunk size in words.
func WithMaxWords(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxWords = n
		}
	}
}

// WithOverlapWords sets the overlap between consecutive chunks in words.
func WithOverlapWords(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.overlapWords = n
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxWords:     DefaultMaxWords,
		overlapWords: DefaultOverlapWords,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Overlap must leave room for the window to advance.
	if p.overlapWords >= p.maxWords {
		p.overlapWords = p.maxWords / 4
	}

	return p
}

// Build creates a Processor from chunking settings, for registration
// with the postprocessors registry.
func Build(settings domain.ChunkingSettings) (driven.PostProcessor, error) {
	return New(
		WithMaxWords(settings.MaxWords),
		WithOverlapWords(settings.OverlapWords),
	), nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the text into chunks.
// Input chunks are ignored; this processor creates new chunks.
func (p *Processor) Process(_ context.Context, doc *domain.Document, text string, _ []domain.Chunk) ([]domain.Chunk, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, fmt.Errorf("chunking %s: %w", doc.Filename, domain.ErrEmptyDocument)
	}

	step := p.maxWords - p.overlapWords
	chunks := make([]domain.Chunk, 0, len(words)/step+1)

	position := 0
	for start := 0; start < len(words); start += step {
		end := start + p.maxWords
		if end > len(words) {
			end = len(words)
		}

		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Position:   position,
			Content:    strings.Join(words[start:end], " "),
		})
		position++

		if end == len(words) {
			break
		}
	}

	return chunks, nil
}
