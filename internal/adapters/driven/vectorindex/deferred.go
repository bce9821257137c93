package vectorindex

import (
	"context"

	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
)

// Ensure DeferredIndex implements the interface.
var _ driven.VectorIndex = (*DeferredIndex)(nil)

// DeferredIndex opens its backend on first use, so commands that never touch
// the index never connect to a remote backend.
type DeferredIndex struct {
	registry  driven.IndexRegistry
	backendID string
}

// Deferred returns an index that resolves backendID against registry per call.
// The registry caches the opened backend and owns closing it.
func Deferred(registry driven.IndexRegistry, backendID string) *DeferredIndex {
	return &DeferredIndex{registry: registry, backendID: backendID}
}

// Upsert opens the backend if needed and upserts the record.
func (d *DeferredIndex) Upsert(ctx context.Context, record domain.VectorRecord) error {
	idx, err := d.registry.Resolve(ctx, d.backendID)
	if err != nil {
		return err
	}
	return idx.Upsert(ctx, record)
}

// Query opens the backend if needed and runs the query.
func (d *DeferredIndex) Query(
	ctx context.Context, embedding domain.Embedding, topK int, filter domain.MetadataFilter,
) ([]domain.MatchCandidate, error) {
	idx, err := d.registry.Resolve(ctx, d.backendID)
	if err != nil {
		return nil, err
	}
	return idx.Query(ctx, embedding, topK, filter)
}

// Delete opens the backend if needed and deletes the record.
func (d *DeferredIndex) Delete(ctx context.Context, id string) error {
	idx, err := d.registry.Resolve(ctx, d.backendID)
	if err != nil {
		return err
	}
	return idx.Delete(ctx, id)
}

// Close is a no-op; close the registry instead.
func (d *DeferredIndex) Close() error {
	return nil
}
