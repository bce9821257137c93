// Package openai provides an embedding generator for the OpenAI API and
// OpenAI-compatible endpoints.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
)

// Ensure Generator implements the interface.
var _ driven.EmbeddingGenerator = (*Generator)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second
)

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("openai: API key is required")

// Model dimensions for OpenAI embedding models.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI generator.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions overrides the default dimension for the model.
	// Only applicable to text-embedding-3-* models.
	Dimensions int
}

// Generator embeds text chunks with the embeddings endpoint.
type Generator struct {
	client     *goopenai.Client
	model      string
	dimensions int
	// shorten is set when Dimensions differs from the model's native size.
	shorten bool
}

// NewGenerator creates a new OpenAI generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, ErrMissingAPIKey)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	native := modelDimensions[cfg.Model]
	dims := cfg.Dimensions
	if dims == 0 {
		dims = native
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Generator{
		client:     goopenai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		dimensions: dims,
		shorten:    dims != native && dims > 0,
	}, nil
}

// Generate embeds the unit's text. Other modalities are rejected.
func (g *Generator) Generate(ctx context.Context, unit domain.ContentUnit) (domain.Embedding, error) {
	if unit.Modality() != domain.ModalityText {
		return nil, fmt.Errorf("openai: cannot embed %s content", unit.Modality())
	}

	req := goopenai.EmbeddingRequest{
		Input: []string{unit.Text},
		Model: goopenai.EmbeddingModel(g.model),
	}
	if g.shorten {
		req.Dimensions = g.dimensions
	}

	resp, err := g.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai: create embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return domain.Embedding{}, nil
	}
	return domain.Embedding(resp.Data[0].Embedding), nil
}

// Dimensions returns the embedding vector size, or 0 when the model is
// unknown and no size was configured.
func (g *Generator) Dimensions() int {
	return g.dimensions
}

// ModelName returns the name of the embedding model being used.
func (g *Generator) ModelName() string {
	return g.model
}

// Ping validates the API key and endpoint by listing models.
func (g *Generator) Ping(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (g *Generator) Close() error {
	return nil
}
