package driving

import (
	"context"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

// SearchService queries the knowledge base populated by ingestion.
type SearchService interface {
	// Search embeds the query text and returns the topK most similar chunks
	// within the namespace. topK must be positive.
	Search(ctx context.Context, query string, topK int, namespace domain.Namespace) ([]domain.MatchCandidate, error)
}
