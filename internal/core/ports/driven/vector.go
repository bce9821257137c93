package driven

import (
	"context"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

// VectorIndex stores vectors with metadata and answers nearest-neighbour queries.
// Implementations must be safe for concurrent use.
type VectorIndex interface {
	// Upsert inserts or replaces the record with the same ID.
	Upsert(ctx context.Context, record domain.VectorRecord) error

	// Query returns up to topK candidates ordered by descending score,
	// restricted to records whose metadata matches every filter pair.
	Query(ctx context.Context, embedding domain.Embedding, topK int, filter domain.MetadataFilter) ([]domain.MatchCandidate, error)

	// Delete removes a record. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}

// IndexRegistry selects a vector index for a backend identifier.
type IndexRegistry interface {
	// Resolve returns the index for the backend identifier.
	// Unknown identifiers return a *domain.ConfigurationError.
	Resolve(ctx context.Context, backendID string) (VectorIndex, error)
}
