package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

func TestDeferred_OpensOnFirstUse(t *testing.T) {
	r := NewRegistry(domain.VectorIndexSettings{}, nil)
	defer r.Close()
	idx := Deferred(r, "memory")
	ctx := context.Background()

	assert.Empty(t, r.indexes)

	require.NoError(t, idx.Upsert(ctx, domain.VectorRecord{ID: "a", Embedding: domain.Embedding{0, 1}}))
	assert.Len(t, r.indexes, 1)

	got, err := idx.Query(ctx, domain.Embedding{0, 1}, 5, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	require.NoError(t, idx.Delete(ctx, "a"))
	got, err = idx.Query(ctx, domain.Embedding{0, 1}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Closing the deferred handle leaves the backend open.
	require.NoError(t, idx.Close())
	assert.Len(t, r.indexes, 1)
}

func TestDeferred_UnknownBackend(t *testing.T) {
	idx := Deferred(NewRegistry(domain.VectorIndexSettings{}, nil), "annoy")

	err := idx.Upsert(context.Background(), domain.VectorRecord{ID: "a", Embedding: domain.Embedding{1}})

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
