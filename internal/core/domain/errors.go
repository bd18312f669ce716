package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Upload errors. User-correctable; reported verbatim at the boundary.

	// ErrUnsupportedFormat indicates the upload's format has no extraction strategy.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmptyDocument indicates extraction produced no text.
	// The upload is rejected, not retried.
	ErrEmptyDocument = errors.New("document contains no extractable text")

	// ErrExtractionFailed indicates every extraction strategy failed.
	ErrExtractionFailed = errors.New("text extraction failed")

	// Service errors. External providers misbehaving.

	// ErrServiceUnavailable indicates an external service could not be reached
	// or rejected our credentials. Propagated; never silently downgraded.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	// Retried with backoff a fixed number of times, then surfaced.
	ErrRateLimited = errors.New("rate limited")

	// Query errors.

	// ErrRetrievalFailed indicates embedding or index search failed for a query.
	ErrRetrievalFailed = errors.New("retrieval failed")

	// ErrGenerationFailed indicates the completion model call failed.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrDimensionMismatch indicates a vector's dimensionality disagrees
	// with the index. Failing fast here keeps similarity scores meaningful.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrConsistency indicates the index and document registry disagree
	// (e.g., chunk_count vs indexed entries). Fatal to the operation and
	// logged; never auto-corrected in a way that could mask data loss.
	ErrConsistency = errors.New("index/registry inconsistency")
)
