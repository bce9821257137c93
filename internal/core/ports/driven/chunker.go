package driven

import "github.com/custodia-labs/lineage/internal/core/domain"

// Chunker splits a source document into ingestible chunks.
// Chunk ids must be deterministic so re-ingesting a document replaces its vectors.
type Chunker interface {
	Split(doc domain.SourceDocument) []domain.ContentChunk
}
