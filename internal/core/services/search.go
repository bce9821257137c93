package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
	"github.com/custodia-labs/lineage/internal/core/ports/driving"
	"github.com/custodia-labs/lineage/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService finds ingested content chunks semantically similar to a query.
type SearchService struct {
	registry   driven.EmbeddingRegistry
	index      driven.VectorIndex
	providerID string
}

// NewSearchService creates a new search service.
func NewSearchService(registry driven.EmbeddingRegistry, index driven.VectorIndex, providerID string) *SearchService {
	return &SearchService{
		registry:   registry,
		index:      index,
		providerID: providerID,
	}
}

// Search embeds the query with the ingestion provider and returns the closest
// chunks within the namespace, best match first.
func (s *SearchService) Search(
	ctx context.Context, query string, topK int, namespace domain.Namespace,
) ([]domain.MatchCandidate, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	if err := validateTopK(topK); err != nil {
		return nil, err
	}

	// Return empty for empty query
	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.MatchCandidate{}, nil
	}

	gen, err := s.registry.Resolve(s.providerID)
	if err != nil {
		return nil, err
	}

	emb, err := gen.Generate(ctx, domain.ContentUnit{ID: "query", Text: query})
	if err != nil {
		return nil, asUpstream("embed", "query", err)
	}
	if err := checkEmbedding("query", emb); err != nil {
		return nil, err
	}

	filter := domain.MetadataFilter(namespace.Metadata())
	filter[domain.MetaEntityType] = domain.EntityTypeChunk

	candidates, err := s.index.Query(ctx, emb, topK, filter)
	if err != nil {
		return nil, asUpstream("query", "", err)
	}
	logger.Debug("Search returned %d candidates", len(candidates))
	return candidates, nil
}
