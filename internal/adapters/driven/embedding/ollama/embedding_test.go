package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

func TestNewGenerator_Defaults(t *testing.T) {
	g := NewGenerator(Config{})

	assert.Equal(t, DefaultBaseURL, g.baseURL)
	assert.Equal(t, DefaultModel, g.ModelName())
	assert.Equal(t, DefaultDimensions, g.Dimensions())
	assert.Equal(t, DefaultTimeout, g.client.Timeout)
}

func TestGenerator_Generate(t *testing.T) {
	var got embedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(embedResponse{Model: got.Model, Embeddings: [][]float64{{0.5, -0.25, 1}}})
	}))
	defer server.Close()

	g := NewGenerator(Config{BaseURL: server.URL, Model: "all-minilm", Dimensions: 3})

	emb, err := g.Generate(context.Background(), domain.ContentUnit{ID: "c1", Text: "hello"})

	require.NoError(t, err)
	assert.Equal(t, domain.Embedding{0.5, -0.25, 1}, emb)
	assert.Equal(t, "all-minilm", got.Model)
	assert.Equal(t, []string{"hello"}, got.Input)
}

func TestGenerator_Generate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `model "nope" not found`, http.StatusNotFound)
	}))
	defer server.Close()

	g := NewGenerator(Config{BaseURL: server.URL})

	_, err := g.Generate(context.Background(), domain.ContentUnit{Text: "hello"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "not found")
}

func TestGenerator_Generate_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"model":"m","embeddings":[]}`))
	}))
	defer server.Close()

	emb, err := NewGenerator(Config{BaseURL: server.URL}).Generate(context.Background(), domain.ContentUnit{Text: "x"})

	require.NoError(t, err)
	assert.True(t, emb.IsEmpty())
}

func TestGenerator_Generate_RejectsImages(t *testing.T) {
	g := NewGenerator(Config{BaseURL: "http://127.0.0.1:0"})

	_, err := g.Generate(context.Background(), domain.ContentUnit{Image: []byte{0xff, 0xd8}})

	assert.ErrorContains(t, err, "cannot embed image content")
}

func TestGenerator_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	assert.NoError(t, NewGenerator(Config{BaseURL: server.URL}).Ping(context.Background()))

	server.Close()
	assert.Error(t, NewGenerator(Config{BaseURL: server.URL}).Ping(context.Background()))
}
