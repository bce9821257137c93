package domain

import (
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// EmbeddingProvider identifies an embedding generator variant.
// The set is closed: adding a provider means adding a constant here and a
// case in the registry's selection switch.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderOllama is a local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"

	// EmbeddingProviderOpenAI is the OpenAI API or any compatible endpoint.
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"

	// EmbeddingProviderHashing is an in-process feature-hashing embedder.
	EmbeddingProviderHashing EmbeddingProvider = "hashing"

	// EmbeddingProviderDescriptor passes detector-extracted face descriptors through.
	EmbeddingProviderDescriptor EmbeddingProvider = "descriptor"
)

// ParseEmbeddingProvider maps an identifier to a provider variant.
// Unknown identifiers yield a ConfigurationError naming the identifier verbatim.
func ParseEmbeddingProvider(id string) (EmbeddingProvider, error) {
	p := EmbeddingProvider(strings.TrimSpace(id))
	if !p.IsValid() {
		return "", &ConfigurationError{Component: "embedding provider", ID: id}
	}
	return p, nil
}

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderOllama, EmbeddingProviderOpenAI, EmbeddingProviderHashing, EmbeddingProviderDescriptor:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == EmbeddingProviderOpenAI
}

// IsLocal returns true if this provider makes no network calls.
func (p EmbeddingProvider) IsLocal() bool {
	return p == EmbeddingProviderHashing || p == EmbeddingProviderDescriptor
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case EmbeddingProviderOllama:
		return "Ollama (local server)"
	case EmbeddingProviderOpenAI:
		return "OpenAI (cloud or compatible)"
	case EmbeddingProviderHashing:
		return "Feature hashing (in-process)"
	case EmbeddingProviderDescriptor:
		return "Face descriptor passthrough"
	default:
		return unknownDescription
	}
}

// VectorBackend identifies a vector index variant.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendMemory keeps vectors in process memory.
	VectorBackendMemory VectorBackend = "memory"

	// VectorBackendSQLite persists vectors in a local SQLite file.
	VectorBackendSQLite VectorBackend = "sqlite"

	// VectorBackendPgvector uses PostgreSQL with the pgvector extension.
	VectorBackendPgvector VectorBackend = "pgvector"

	// VectorBackendMilvus uses a Milvus server.
	VectorBackendMilvus VectorBackend = "milvus"
)

// ParseVectorBackend maps an identifier to a backend variant.
func ParseVectorBackend(id string) (VectorBackend, error) {
	b := VectorBackend(strings.TrimSpace(id))
	if !b.IsValid() {
		return "", &ConfigurationError{Component: "vector backend", ID: id}
	}
	return b, nil
}

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendSQLite, VectorBackendPgvector, VectorBackendMilvus:
		return true
	default:
		return false
	}
}

// IsRemote returns true if the backend is a network service.
func (b VectorBackend) IsRemote() bool {
	return b == VectorBackendPgvector || b == VectorBackendMilvus
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b VectorBackend) Description() string {
	switch b {
	case VectorBackendMemory:
		return "In-memory (non-persistent)"
	case VectorBackendSQLite:
		return "SQLite (local file)"
	case VectorBackendPgvector:
		return "PostgreSQL + pgvector"
	case VectorBackendMilvus:
		return "Milvus"
	default:
		return unknownDescription
	}
}

// AllEmbeddingProviders returns every provider variant.
func AllEmbeddingProviders() []EmbeddingProvider {
	return []EmbeddingProvider{
		EmbeddingProviderOllama,
		EmbeddingProviderOpenAI,
		EmbeddingProviderHashing,
		EmbeddingProviderDescriptor,
	}
}

// AllVectorBackends returns every backend variant.
func AllVectorBackends() []VectorBackend {
	return []VectorBackend{
		VectorBackendMemory,
		VectorBackendSQLite,
		VectorBackendPgvector,
		VectorBackendMilvus,
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the raw provider identifier; parsed at resolution time.
	Provider string

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the vector size. Zero uses the model's known size.
	Dimensions int

	// RequestsPerSecond limits outbound calls. Zero disables limiting.
	RequestsPerSecond float64
}

// VectorIndexSettings holds vector backend configuration.
type VectorIndexSettings struct {
	// Backend is the raw backend identifier; parsed at resolution time.
	Backend string

	// Path is the SQLite data directory.
	Path string

	// DSN is the PostgreSQL connection string.
	DSN string

	// Address is the Milvus server address.
	Address string

	// Collection is the table or collection name.
	Collection string

	// Dimensions is the stored vector size (required by pgvector and milvus schemas).
	Dimensions int
}

// DetectionSettings holds detection service configuration.
type DetectionSettings struct {
	BaseURL string
	Timeout time.Duration

	// MinFaceWidth drops detections narrower than this many pixels. Zero keeps all.
	MinFaceWidth int

	RequestsPerSecond float64
}

// ResolutionSettings holds identity resolution defaults.
type ResolutionSettings struct {
	// EmbeddingProvider embeds faces the detector returned without a descriptor.
	EmbeddingProvider string

	MatchNamespace string
	ScoreThreshold float64
	MaxConcurrency int
}

// IngestionSettings holds ingestion behaviour.
type IngestionSettings struct {
	MaxConcurrency int
	ChunkSize      int
	ChunkOverlap   int
}

// Settings holds all application settings.
type Settings struct {
	Embedding   EmbeddingSettings
	VectorIndex VectorIndexSettings
	Detection   DetectionSettings
	Resolution  ResolutionSettings
	Ingestion   IngestionSettings

	// DataDir holds the SQLite record store.
	DataDir string

	// MetricsAddr exposes Prometheus metrics when non-empty.
	MetricsAddr string
}

// FaceIndexSettings returns the vector index settings for enrolled faces.
// The collection is suffixed so face and chunk vectors never share a schema.
func (s Settings) FaceIndexSettings() VectorIndexSettings {
	idx := s.VectorIndex
	idx.Collection += FaceCollectionSuffix
	switch {
	case s.Resolution.EmbeddingProvider == s.Embedding.Provider:
	case s.Resolution.EmbeddingProvider == string(EmbeddingProviderDescriptor):
		idx.Dimensions = DefaultFaceDimensions
	case s.Resolution.EmbeddingProvider == string(EmbeddingProviderHashing):
		idx.Dimensions = DefaultHashingDimensions
	}
	return idx
}

// SettingEntry is one setting in its textual form.
type SettingEntry struct {
	Key    string
	Value  string
	Secret bool
}

// Default values.
const (
	DefaultScoreThreshold    = 0.6
	DefaultMaxConcurrency    = 4
	DefaultCollection        = "lineage_vectors"
	FaceCollectionSuffix     = "_faces"
	DefaultHashingDimensions = 256
	DefaultFaceDimensions    = 512
	DefaultDetectionTimeout  = 30 * time.Second
)

// DefaultSettings returns settings with sensible local-only defaults.
func DefaultSettings() Settings {
	return Settings{
		Embedding: EmbeddingSettings{
			Provider:   string(EmbeddingProviderHashing),
			Dimensions: DefaultHashingDimensions,
		},
		VectorIndex: VectorIndexSettings{
			Backend:    string(VectorBackendSQLite),
			Collection: DefaultCollection,
		},
		Detection: DetectionSettings{
			BaseURL: "http://localhost:8090",
			Timeout: DefaultDetectionTimeout,
		},
		Resolution: ResolutionSettings{
			EmbeddingProvider: string(EmbeddingProviderHashing),
			ScoreThreshold:    DefaultScoreThreshold,
			MaxConcurrency:    DefaultMaxConcurrency,
		},
		Ingestion: IngestionSettings{
			MaxConcurrency: DefaultMaxConcurrency,
			ChunkSize:      1000,
			ChunkOverlap:   200,
		},
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// DefaultEmbeddingModels returns default models for each network provider.
func DefaultEmbeddingModels() map[EmbeddingProvider]string {
	return map[EmbeddingProvider]string{
		EmbeddingProviderOllama: "nomic-embed-text",
		EmbeddingProviderOpenAI: "text-embedding-3-small",
	}
}
