// Package vectorindex selects and opens vector index backends by identifier.
package vectorindex

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/lineage/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/lineage/internal/adapters/driven/vectorindex/memory"
	"github.com/custodia-labs/lineage/internal/adapters/driven/vectorindex/milvus"
	"github.com/custodia-labs/lineage/internal/adapters/driven/vectorindex/pgvector"
	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
	"github.com/custodia-labs/lineage/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.IndexRegistry = (*Registry)(nil)

// Registry opens each backend at most once and closes them together.
type Registry struct {
	settings domain.VectorIndexSettings

	// store is a caller-owned SQLite store shared with the identity store.
	store *sqlite.Store

	mu      sync.Mutex
	indexes map[domain.VectorBackend]driven.VectorIndex
	closers []func() error
}

// NewRegistry creates a registry. store may be nil, in which case the sqlite
// backend opens its own store under settings.Path and closes it on Close.
func NewRegistry(settings domain.VectorIndexSettings, store *sqlite.Store) *Registry {
	return &Registry{
		settings: settings,
		store:    store,
		indexes:  make(map[domain.VectorBackend]driven.VectorIndex),
	}
}

// Resolve returns the index for backendID, opening it on first use.
func (r *Registry) Resolve(ctx context.Context, backendID string) (driven.VectorIndex, error) {
	backend, err := domain.ParseVectorBackend(backendID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, ok := r.indexes[backend]; ok {
		return idx, nil
	}

	idx, closer, err := r.open(ctx, backend)
	if err != nil {
		return nil, err
	}
	logger.Debug("opened %s vector index", backend)
	r.indexes[backend] = idx
	r.closers = append(r.closers, closer)
	return idx, nil
}

// open builds a backend. The returned closer releases everything the registry owns for it.
func (r *Registry) open(ctx context.Context, backend domain.VectorBackend) (driven.VectorIndex, func() error, error) {
	switch backend {
	case domain.VectorBackendMemory:
		idx := memory.New()
		return idx, idx.Close, nil

	case domain.VectorBackendSQLite:
		if r.store != nil {
			idx := r.store.VectorIndex(r.settings.Collection)
			return idx, idx.Close, nil
		}
		store, err := sqlite.NewStore(r.settings.Path)
		if err != nil {
			return nil, nil, &domain.UpstreamError{Op: "connect", Err: err}
		}
		idx := store.VectorIndex(r.settings.Collection)
		return idx, func() error { return errors.Join(idx.Close(), store.Close()) }, nil

	case domain.VectorBackendPgvector:
		idx, err := pgvector.Open(ctx, pgvector.Config{
			DSN:        r.settings.DSN,
			Table:      r.settings.Collection,
			Dimensions: r.settings.Dimensions,
		})
		if err != nil {
			return nil, nil, err
		}
		return idx, idx.Close, nil

	case domain.VectorBackendMilvus:
		idx, err := milvus.Open(ctx, milvus.Config{
			Address:    r.settings.Address,
			Collection: r.settings.Collection,
			Dimensions: r.settings.Dimensions,
		})
		if err != nil {
			return nil, nil, err
		}
		return idx, idx.Close, nil

	default:
		return nil, nil, &domain.ConfigurationError{Component: "vector backend", ID: string(backend)}
	}
}

// Close closes every opened backend.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	r.closers = nil
	r.indexes = make(map[domain.VectorBackend]driven.VectorIndex)
	return errors.Join(errs...)
}
