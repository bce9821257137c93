// Package ai resolves embedding provider identifiers to generators.
package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/lineage/internal/adapters/driven/embedding/descriptor"
	"github.com/custodia-labs/lineage/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/lineage/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/lineage/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Ensure Registry implements the interface.
var _ driven.EmbeddingRegistry = (*Registry)(nil)

// Pinger is implemented by generators that can check connectivity without
// running inference.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Registry builds one guarded generator per provider and reuses it for the
// life of the process, so the dimension check spans every call.
type Registry struct {
	settings domain.EmbeddingSettings

	mu         sync.Mutex
	generators map[domain.EmbeddingProvider]*guardedGenerator
}

// NewRegistry creates a registry. settings apply to the provider they name;
// any other provider is built with its defaults.
func NewRegistry(settings domain.EmbeddingSettings) *Registry {
	return &Registry{
		settings:   settings,
		generators: make(map[domain.EmbeddingProvider]*guardedGenerator),
	}
}

// Resolve returns the generator for providerID. Unknown identifiers yield a
// ConfigurationError naming the identifier.
func (r *Registry) Resolve(providerID string) (driven.EmbeddingGenerator, error) {
	provider, err := domain.ParseEmbeddingProvider(providerID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if gen, ok := r.generators[provider]; ok {
		return gen, nil
	}

	settings := r.settingsFor(provider)
	inner, err := CreateGenerator(provider, settings)
	if err != nil {
		return nil, err
	}

	gen := newGuardedGenerator(inner, newLimiter(settings.RequestsPerSecond))
	r.generators[provider] = gen
	return gen, nil
}

// Check resolves providerID and, when the generator supports it, pings the
// backing service.
func (r *Registry) Check(ctx context.Context, providerID string) error {
	gen, err := r.Resolve(providerID)
	if err != nil {
		return err
	}

	p, ok := gen.(*guardedGenerator).inner.(Pinger)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return &domain.UpstreamError{Op: "ping", ItemID: providerID, Err: err}
	}
	return nil
}

// Close releases every generator built so far.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for provider, gen := range r.generators {
		if err := gen.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s generator: %w", provider, err)
		}
		delete(r.generators, provider)
	}
	return firstErr
}

func (r *Registry) settingsFor(provider domain.EmbeddingProvider) domain.EmbeddingSettings {
	if provider.String() == r.settings.Provider {
		return r.settings
	}
	return domain.EmbeddingSettings{Provider: provider.String()}
}

// CreateGenerator builds the unguarded generator for a provider variant.
func CreateGenerator(provider domain.EmbeddingProvider, settings domain.EmbeddingSettings) (driven.EmbeddingGenerator, error) {
	switch provider {
	case domain.EmbeddingProviderOllama:
		return createOllamaGenerator(settings), nil

	case domain.EmbeddingProviderOpenAI:
		return createOpenAIGenerator(settings)

	case domain.EmbeddingProviderHashing:
		return hashing.NewGenerator(hashing.Config{Dimensions: settings.Dimensions}), nil

	case domain.EmbeddingProviderDescriptor:
		return descriptor.NewGenerator(descriptor.Config{Dimensions: settings.Dimensions}), nil

	default:
		return nil, &domain.ConfigurationError{Component: "embedding provider", ID: provider.String()}
	}
}

func createOllamaGenerator(settings domain.EmbeddingSettings) driven.EmbeddingGenerator {
	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}
	return ollamaembed.NewGenerator(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

func createOpenAIGenerator(settings domain.EmbeddingSettings) (driven.EmbeddingGenerator, error) {
	return openaiembed.NewGenerator(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: settings.Dimensions,
	})
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
