// Package embedding provides decorators shared by the embedding adapters.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

var _ driven.EmbeddingService = (*RetryService)(nil)

// Retry defaults.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
)

// RetryService wraps an embedding service and retries rate-limited
// calls with exponential backoff. Everything else, including network
// and auth failures, fails immediately.
type RetryService struct {
	inner       driven.EmbeddingService
	maxAttempts int
	baseDelay   time.Duration
}

// RetryOption configures a RetryService.
type RetryOption func(*RetryService)

// WithMaxAttempts sets the total number of attempts, including the first.
func WithMaxAttempts(n int) RetryOption {
	return func(s *RetryService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the delay before the first retry. Each subsequent
// retry doubles it.
func WithBaseDelay(d time.Duration) RetryOption {
	return func(s *RetryService) {
		if d > 0 {
			s.baseDelay = d
		}
	}
}

// NewRetryService wraps inner with retry behaviour.
func NewRetryService(inner driven.EmbeddingService, opts ...RetryOption) *RetryService {
	s := &RetryService{
		inner:       inner,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embed generates an embedding, retrying transient failures.
func (s *RetryService) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := s.do(ctx, func() error {
		var innerErr error
		out, innerErr = s.inner.Embed(ctx, text)
		return innerErr
	})
	return out, err
}

// EmbedBatch generates embeddings for multiple texts, retrying the
// whole batch on transient failures.
func (s *RetryService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := s.do(ctx, func() error {
		var innerErr error
		out, innerErr = s.inner.EmbedBatch(ctx, texts)
		return innerErr
	})
	return out, err
}

// do runs fn up to maxAttempts times with exponential backoff.
func (s *RetryService) do(ctx context.Context, fn func() error) error {
	var lastErr error
	delay := s.baseDelay

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == s.maxAttempts {
			break
		}

		logger.Debug("Embedding attempt %d/%d failed, retrying in %s: %v",
			attempt, s.maxAttempts, delay, lastErr)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}

	return fmt.Errorf("after %d attempts: %w", s.maxAttempts, lastErr)
}

// retryable reports whether the error is worth another attempt. Only
// rate limiting is transient; unavailable or misconfigured upstreams
// surface to the caller on the first failure.
func retryable(err error) bool {
	return errors.Is(err, domain.ErrRateLimited)
}

// Dimensions returns the wrapped service's embedding vector size.
func (s *RetryService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the wrapped service's model name.
func (s *RetryService) ModelName() string {
	return s.inner.ModelName()
}

// Ping checks the wrapped service once, without retries.
func (s *RetryService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the wrapped service.
func (s *RetryService) Close() error {
	return s.inner.Close()
}
