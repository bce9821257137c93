package driving

import (
	"context"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

// IngestionService persists free-text content as searchable vectors.
type IngestionService interface {
	// Ingest embeds and upserts every chunk, failing fast on the first chunk
	// (in input order) that cannot be embedded or stored.
	Ingest(ctx context.Context, chunks []domain.ContentChunk) error

	// IngestDocument splits a document into chunks and ingests them.
	// Returns the number of chunks ingested.
	IngestDocument(ctx context.Context, doc domain.SourceDocument) (int, error)
}
