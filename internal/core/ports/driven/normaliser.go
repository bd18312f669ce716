package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// Normaliser extracts plain text from one family of raw upload formats.
// Each normaliser is a pure function of the upload bytes; failures are
// reported, never retried internally.
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Primary parsers should return 50-89, fallback strategies 1-9.
	Priority() int

	// Normalise extracts text from a raw upload.
	Normalise(ctx context.Context, raw *domain.RawUpload) (*NormaliseResult, error)
}

// NormaliseResult contains the output of extraction.
// Chunking is handled afterwards by the PostProcessor pipeline.
type NormaliseResult struct {
	// Text is the extracted, whitespace-normalised document text.
	Text string

	// Pages is the page count when the format has pages, else zero.
	Pages int
}

// NormaliserRegistry dispatches an upload to its extraction chain.
// Normalisers matching the upload's MIME type are tried in descending
// priority until one succeeds; only if all fail does extraction fail.
type NormaliserRegistry interface {
	// Normalise runs the upload through the matching extraction chain.
	// Unknown MIME types fail with domain.ErrUnsupportedFormat; an
	// exhausted chain fails with domain.ErrExtractionFailed.
	Normalise(ctx context.Context, raw *domain.RawUpload) (*NormaliseResult, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string
}

// PostProcessor processes extracted text to produce chunks.
// PostProcessors are chained in a pipeline (e.g., chunking, cleanup).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document plus its text and returns chunks.
	// A chunk-creating processor receives nil chunks and creates them;
	// a chunk-modifying processor receives and returns chunks.
	Process(ctx context.Context, doc *domain.Document, text string, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the text through all processors in order and returns
	// the final chunks.
	Process(ctx context.Context, doc *domain.Document, text string) ([]domain.Chunk, error)
}
