package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lineage/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/lineage/internal/adapters/driven/vectorindex/memory"
	"github.com/custodia-labs/lineage/internal/core/domain"
)

func TestResolve_UnknownBackend(t *testing.T) {
	r := NewRegistry(domain.VectorIndexSettings{}, nil)

	_, err := r.Resolve(context.Background(), "faiss")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "faiss")
}

func TestResolve_MemoryIsCached(t *testing.T) {
	r := NewRegistry(domain.VectorIndexSettings{}, nil)
	ctx := context.Background()

	a, err := r.Resolve(ctx, "memory")
	require.NoError(t, err)
	b, err := r.Resolve(ctx, " memory ")
	require.NoError(t, err)

	assert.IsType(t, &memory.Index{}, a)
	assert.Same(t, a, b)
	require.NoError(t, r.Close())
}

func TestResolve_SQLiteOwnsItsStore(t *testing.T) {
	r := NewRegistry(domain.VectorIndexSettings{Path: t.TempDir(), Collection: "faces"}, nil)
	ctx := context.Background()

	idx, err := r.Resolve(ctx, "sqlite")
	require.NoError(t, err)

	require.NoError(t, idx.Upsert(ctx, domain.VectorRecord{ID: "a", Embedding: domain.Embedding{1, 0}}))
	got, err := idx.Query(ctx, domain.Embedding{1, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	require.NoError(t, r.Close())
}

func TestResolve_SQLiteSharesCallerStore(t *testing.T) {
	store, err := sqlite.NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	r := NewRegistry(domain.VectorIndexSettings{Collection: "faces"}, store)
	ctx := context.Background()

	_, err = r.Resolve(ctx, "sqlite")
	require.NoError(t, err)
	require.NoError(t, r.Close())

	// The caller's store stays open after the registry closes.
	fresh := store.VectorIndex("faces")
	require.NoError(t, fresh.Upsert(ctx, domain.VectorRecord{ID: "a", Embedding: domain.Embedding{1}}))
}

func TestResolve_RemoteBackendsNeedConnectionSettings(t *testing.T) {
	r := NewRegistry(domain.VectorIndexSettings{}, nil)
	ctx := context.Background()

	_, err := r.Resolve(ctx, "pgvector")
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = r.Resolve(ctx, "milvus")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
