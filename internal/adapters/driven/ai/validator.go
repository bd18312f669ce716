package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks provider settings by constructing the service
// and pinging it, so bad credentials surface when the user configures
// them rather than on the first question.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator creates a validator using the default ping timeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: pingTimeout}
}

// ValidateEmbedding validates an embedding configuration. Unconfigured
// settings pass; there is nothing to ping yet.
func (v *ConfigValidator) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return fmt.Errorf("embedding configuration: %w", err)
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	return v.ping(svc)
}

// ValidateLLM validates an LLM configuration. Unconfigured settings
// pass; there is nothing to ping yet.
func (v *ConfigValidator) ValidateLLM(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return fmt.Errorf("LLM configuration: %w", err)
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	return v.ping(svc)
}

type pinger interface {
	Ping(ctx context.Context) error
}

func (v *ConfigValidator) ping(p pinger) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	return p.Ping(ctx)
}
