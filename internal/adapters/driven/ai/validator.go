package ai

import (
	"context"
	"errors"

	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.ConnectivityValidator = (*ConfigValidator)(nil)

// ConfigValidator pings the text and face embedding providers.
type ConfigValidator struct{}

// NewConfigValidator creates a new embedding config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateConnectivity builds a throwaway registry from settings and checks
// both providers. The face provider is skipped when it matches the text one.
func (v *ConfigValidator) ValidateConnectivity(ctx context.Context, settings *domain.Settings) error {
	registry := NewRegistry(settings.Embedding)
	defer registry.Close()

	err := registry.Check(ctx, settings.Embedding.Provider)
	if settings.Resolution.EmbeddingProvider != settings.Embedding.Provider {
		err = errors.Join(err, registry.Check(ctx, settings.Resolution.EmbeddingProvider))
	}
	return err
}
