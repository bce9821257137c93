package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

func TestConfigValidator_LocalProvidersPass(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.Embedding = domain.EmbeddingSettings{Provider: "hashing"}
	settings.Resolution.EmbeddingProvider = "descriptor"

	assert.NoError(t, NewConfigValidator().ValidateConnectivity(context.Background(), &settings))
}

func TestConfigValidator_PingsOllama(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	settings := domain.DefaultSettings()
	settings.Embedding = domain.EmbeddingSettings{Provider: "ollama", BaseURL: server.URL}
	settings.Resolution.EmbeddingProvider = "ollama"

	require.NoError(t, NewConfigValidator().ValidateConnectivity(context.Background(), &settings))
	assert.Equal(t, int32(1), hits.Load(), "shared provider is pinged once")
}

func TestConfigValidator_ReportsEveryFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	settings := domain.DefaultSettings()
	settings.Embedding = domain.EmbeddingSettings{Provider: "ollama", BaseURL: server.URL}
	settings.Resolution.EmbeddingProvider = "facenet"

	err := NewConfigValidator().ValidateConnectivity(context.Background(), &settings)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "facenet")
}
