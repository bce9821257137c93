// Package memory provides a brute-force in-process vector index.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index keeps records in a map and scores every matching record on query.
// Suitable for tests and small single-process deployments; nothing persists.
type Index struct {
	mu      sync.RWMutex
	records map[string]domain.VectorRecord
}

// New creates an empty index.
func New() *Index {
	return &Index{records: make(map[string]domain.VectorRecord)}
}

// Upsert stores or replaces a record. The record is copied.
func (x *Index) Upsert(ctx context.Context, record domain.VectorRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record.ID == "" {
		return domain.NewValidationError("vector record has no id")
	}
	if record.Embedding.IsEmpty() {
		return &domain.DataIntegrityError{ItemID: record.ID, Reason: "cannot store an empty embedding"}
	}

	stored := domain.VectorRecord{
		ID:        record.ID,
		Embedding: append(domain.Embedding(nil), record.Embedding...),
		Metadata:  domain.CopyMetadata(record.Metadata),
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.records[record.ID] = stored
	return nil
}

// Query returns up to topK records matching filter, best first.
func (x *Index) Query(
	ctx context.Context, embedding domain.Embedding, topK int, filter domain.MetadataFilter,
) ([]domain.MatchCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, domain.NewValidationError(fmt.Sprintf("topK must be positive, got %d", topK))
	}

	x.mu.RLock()
	candidates := make([]domain.MatchCandidate, 0, len(x.records))
	for _, rec := range x.records {
		if len(rec.Embedding) != len(embedding) || !filter.Matches(rec.Metadata) {
			continue
		}
		candidates = append(candidates, domain.MatchCandidate{
			ID:       rec.ID,
			Score:    domain.CosineSimilarity(embedding, rec.Embedding),
			Metadata: domain.CopyMetadata(rec.Metadata),
		})
	}
	x.mu.RUnlock()

	domain.SortCandidates(candidates)
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

// Delete removes a record.
func (x *Index) Delete(_ context.Context, id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.records, id)
	return nil
}

// Len returns the number of stored records.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.records)
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}
