// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

// EmbeddingGenerator turns one content unit into a fixed-dimension vector.
//
// Implementations include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI and compatible endpoints (text-embedding-3-small)
//   - In-process feature hashing
//   - Face descriptor passthrough
type EmbeddingGenerator interface {
	// Generate embeds a single unit. The context carries the call deadline.
	Generate(ctx context.Context, unit domain.ContentUnit) (domain.Embedding, error)

	// Dimensions returns the embedding vector size.
	// Constant for the lifetime of the generator.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// EmbeddingRegistry selects a generator for a provider identifier.
type EmbeddingRegistry interface {
	// Resolve returns the generator for the provider identifier.
	// Unknown identifiers return a *domain.ConfigurationError.
	Resolve(providerID string) (EmbeddingGenerator, error)
}
