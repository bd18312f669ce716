package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// flakyEmbedder fails a configured number of times before succeeding.
type flakyEmbedder struct {
	failures int
	failWith error
	calls    int
}

func (f *flakyEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.failWith
	}
	return []float32{1, 2, 3}, nil
}

func (f *flakyEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v, err := f.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *flakyEmbedder) Dimensions() int              { return 3 }
func (f *flakyEmbedder) ModelName() string            { return "flaky" }
func (f *flakyEmbedder) Ping(_ context.Context) error { return nil }
func (f *flakyEmbedder) Close() error                 { return nil }

func TestRetryRecoversFromRateLimit(t *testing.T) {
	inner := &flakyEmbedder{failures: 2, failWith: domain.ErrRateLimited}
	svc := NewRetryService(inner, WithBaseDelay(time.Millisecond))

	vec, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	inner := &flakyEmbedder{failures: 10, failWith: domain.ErrRateLimited}
	svc := NewRetryService(inner, WithMaxAttempts(3), WithBaseDelay(time.Millisecond))

	_, err := svc.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryDoesNotRetryPermanentErrors(t *testing.T) {
	inner := &flakyEmbedder{failures: 10, failWith: errors.New("bad request")}
	svc := NewRetryService(inner, WithBaseDelay(time.Millisecond))

	_, err := svc.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryPropagatesUnavailableImmediately(t *testing.T) {
	inner := &flakyEmbedder{failures: 10, failWith: domain.ErrServiceUnavailable}
	svc := NewRetryService(inner, WithBaseDelay(time.Millisecond))

	_, err := svc.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryHonoursContextCancellation(t *testing.T) {
	inner := &flakyEmbedder{failures: 10, failWith: domain.ErrRateLimited}
	svc := NewRetryService(inner, WithBaseDelay(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Embed(ctx, "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.calls)
}
