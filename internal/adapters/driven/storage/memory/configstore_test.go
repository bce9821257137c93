package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.values)
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Set_Update(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("embedding.model", "original"))
	require.NoError(t, store.Set("embedding.model", "updated"))

	val, ok := store.Get("embedding.model")
	assert.True(t, ok)
	assert.Equal(t, "updated", val)
}

func TestConfigStore_Get_Missing(t *testing.T) {
	store := NewConfigStore()

	_, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("missing"))
	assert.Zero(t, store.GetInt("missing"))
	assert.Zero(t, store.GetFloat("missing"))
}

func TestConfigStore_TypedGetters(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		wantInt   int
		wantFloat float64
		wantStr   string
	}{
		{name: "int", value: 42, wantInt: 42, wantFloat: 42},
		{name: "int64", value: int64(7), wantInt: 7, wantFloat: 7},
		{name: "float", value: 0.75, wantInt: 0, wantFloat: 0.75},
		{name: "numeric string", value: "12", wantInt: 12, wantFloat: 12, wantStr: "12"},
		{name: "bool", value: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewConfigStore()
			require.NoError(t, store.Set("k", tt.value))

			assert.Equal(t, tt.wantInt, store.GetInt("k"))
			assert.InDelta(t, tt.wantFloat, store.GetFloat("k"), 1e-9)
			assert.Equal(t, tt.wantStr, store.GetString("k"))
		})
	}
}

func TestConfigStore_SaveLoadNoop(t *testing.T) {
	store := NewConfigStore()
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("counter", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("counter")
		}()
	}
	wg.Wait()

	_, ok := store.Get("counter")
	assert.True(t, ok)
}
