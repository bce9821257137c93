package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
	"github.com/custodia-labs/lineage/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

type settingKind int

const (
	kindString settingKind = iota
	kindSecret
	kindInt
	kindFloat
	kindDuration
)

// settingField binds a config key to a field of domain.Settings.
type settingField struct {
	key   string
	kind  settingKind
	field func(s *domain.Settings) any
}

// settingFields lists every persisted setting in display order.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
var settingFields = []settingField{
	{"embedding.provider", kindString, func(s *domain.Settings) any { return &s.Embedding.Provider }},
	{"embedding.model", kindString, func(s *domain.Settings) any { return &s.Embedding.Model }},
	{"embedding.base_url", kindString, func(s *domain.Settings) any { return &s.Embedding.BaseURL }},
	{"embedding.api_key", kindSecret, func(s *domain.Settings) any { return &s.Embedding.APIKey }},
	{"embedding.dimensions", kindInt, func(s *domain.Settings) any { return &s.Embedding.Dimensions }},
	{"embedding.requests_per_second", kindFloat, func(s *domain.Settings) any { return &s.Embedding.RequestsPerSecond }},

	{"vector_index.backend", kindString, func(s *domain.Settings) any { return &s.VectorIndex.Backend }},
	{"vector_index.path", kindString, func(s *domain.Settings) any { return &s.VectorIndex.Path }},
	{"vector_index.dsn", kindSecret, func(s *domain.Settings) any { return &s.VectorIndex.DSN }},
	{"vector_index.address", kindString, func(s *domain.Settings) any { return &s.VectorIndex.Address }},
	{"vector_index.collection", kindString, func(s *domain.Settings) any { return &s.VectorIndex.Collection }},
	{"vector_index.dimensions", kindInt, func(s *domain.Settings) any { return &s.VectorIndex.Dimensions }},

	{"detection.base_url", kindString, func(s *domain.Settings) any { return &s.Detection.BaseURL }},
	{"detection.timeout", kindDuration, func(s *domain.Settings) any { return &s.Detection.Timeout }},
	{"detection.min_face_width", kindInt, func(s *domain.Settings) any { return &s.Detection.MinFaceWidth }},
	{"detection.requests_per_second", kindFloat, func(s *domain.Settings) any { return &s.Detection.RequestsPerSecond }},

	{"resolution.embedding_provider", kindString, func(s *domain.Settings) any { return &s.Resolution.EmbeddingProvider }},
	{"resolution.match_namespace", kindString, func(s *domain.Settings) any { return &s.Resolution.MatchNamespace }},
	{"resolution.score_threshold", kindFloat, func(s *domain.Settings) any { return &s.Resolution.ScoreThreshold }},
	{"resolution.max_concurrency", kindInt, func(s *domain.Settings) any { return &s.Resolution.MaxConcurrency }},

	{"ingestion.max_concurrency", kindInt, func(s *domain.Settings) any { return &s.Ingestion.MaxConcurrency }},
	{"ingestion.chunk_size", kindInt, func(s *domain.Settings) any { return &s.Ingestion.ChunkSize }},
	{"ingestion.chunk_overlap", kindInt, func(s *domain.Settings) any { return &s.Ingestion.ChunkOverlap }},

	{"storage.data_dir", kindString, func(s *domain.Settings) any { return &s.DataDir }},
	{"metrics.listen_addr", kindString, func(s *domain.Settings) any { return &s.MetricsAddr }},
}

func lookupField(key string) (settingField, bool) {
	for _, f := range settingFields {
		if f.key == key {
			return f, true
		}
	}
	return settingField{}, false
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	validators  []driven.ConnectivityValidator
}

// NewSettingsService creates a new settings service. validators back
// CheckConnectivity; with none it only checks settings for consistency.
func NewSettingsService(configStore driven.ConfigStore, validators ...driven.ConnectivityValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validators:  validators,
	}
}

// Get retrieves current settings. Unset keys keep their defaults.
func (s *SettingsService) Get() (*domain.Settings, error) {
	settings := domain.DefaultSettings()

	for _, f := range settingFields {
		if _, ok := s.configStore.Get(f.key); !ok {
			continue
		}
		switch p := f.field(&settings).(type) {
		case *string:
			*p = s.configStore.GetString(f.key)
		case *int:
			*p = s.configStore.GetInt(f.key)
		case *float64:
			*p = s.configStore.GetFloat(f.key)
		case *time.Duration:
			d, err := time.ParseDuration(s.configStore.GetString(f.key))
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", f.key, err)
			}
			*p = d
		}
	}

	return &settings, nil
}

// Save persists settings. Empty secrets are not written so that values
// supplied through the environment never land on disk.
func (s *SettingsService) Save(settings *domain.Settings) error {
	for _, f := range settingFields {
		var value any
		switch p := f.field(settings).(type) {
		case *string:
			if f.kind == kindSecret && *p == "" {
				continue
			}
			value = *p
		case *int:
			value = *p
		case *float64:
			value = *p
		case *time.Duration:
			value = p.String()
		}
		if err := s.configStore.Set(f.key, value); err != nil {
			return fmt.Errorf("save %s: %w", f.key, err)
		}
	}
	return nil
}

// Set updates a single setting from its textual form.
func (s *SettingsService) Set(key, value string) error {
	f, ok := lookupField(key)
	if !ok {
		return domain.NewValidationError(fmt.Sprintf("unknown setting %q", key))
	}

	value = strings.TrimSpace(value)
	var typed any
	switch f.kind {
	case kindString, kindSecret:
		typed = value
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return domain.NewValidationError(fmt.Sprintf("%s must be an integer: %q", key, value))
		}
		typed = n
	case kindFloat:
		x, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return domain.NewValidationError(fmt.Sprintf("%s must be a number: %q", key, value))
		}
		typed = x
	case kindDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return domain.NewValidationError(fmt.Sprintf("%s must be a duration like 30s: %q", key, value))
		}
		typed = value
	}

	switch key {
	case "embedding.provider", "resolution.embedding_provider":
		if _, err := domain.ParseEmbeddingProvider(value); err != nil {
			return err
		}
	case "vector_index.backend":
		if _, err := domain.ParseVectorBackend(value); err != nil {
			return err
		}
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists the settable keys in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingFields))
	for i, f := range settingFields {
		keys[i] = f.key
	}
	return keys
}

// List returns every setting's effective value in display order.
// Secrets are returned in full and flagged; callers decide how to display them.
func (s *SettingsService) List() ([]domain.SettingEntry, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.SettingEntry, len(settingFields))
	for i, f := range settingFields {
		entries[i] = domain.SettingEntry{
			Key:    f.key,
			Value:  formatValue(f.field(settings)),
			Secret: f.kind == kindSecret,
		}
	}
	return entries, nil
}

func formatValue(p any) string {
	switch v := p.(type) {
	case *string:
		return *v
	case *int:
		return strconv.Itoa(*v)
	case *float64:
		return strconv.FormatFloat(*v, 'g', -1, 64)
	case *time.Duration:
		return v.String()
	default:
		return ""
	}
}

// Validate checks that the current settings can build every component.
// All problems are reported together.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return ValidateSettings(settings)
}

// ValidateSettings checks settings for internal consistency.
func ValidateSettings(settings *domain.Settings) error {
	var errs []error

	provider, err := domain.ParseEmbeddingProvider(settings.Embedding.Provider)
	if err != nil {
		errs = append(errs, err)
	} else if provider.RequiresAPIKey() && settings.Embedding.APIKey == "" {
		errs = append(errs, domain.NewValidationError(fmt.Sprintf("%s embedding provider requires an API key", provider)))
	}

	if _, err := domain.ParseEmbeddingProvider(settings.Resolution.EmbeddingProvider); err != nil {
		errs = append(errs, err)
	}

	backend, err := domain.ParseVectorBackend(settings.VectorIndex.Backend)
	if err != nil {
		errs = append(errs, err)
	} else {
		switch backend {
		case domain.VectorBackendPgvector:
			if settings.VectorIndex.DSN == "" {
				errs = append(errs, domain.NewValidationError("pgvector backend requires vector_index.dsn"))
			}
		case domain.VectorBackendMilvus:
			if settings.VectorIndex.Address == "" {
				errs = append(errs, domain.NewValidationError("milvus backend requires vector_index.address"))
			}
		case domain.VectorBackendMemory, domain.VectorBackendSQLite:
		}
	}

	if t := settings.Resolution.ScoreThreshold; t < -1 || t > 1 {
		errs = append(errs, domain.NewValidationError(fmt.Sprintf("resolution.score_threshold %.4f outside [-1, 1]", t)))
	}
	if settings.Ingestion.ChunkSize <= 0 {
		errs = append(errs, domain.NewValidationError("ingestion.chunk_size must be positive"))
	} else if settings.Ingestion.ChunkOverlap < 0 || settings.Ingestion.ChunkOverlap >= settings.Ingestion.ChunkSize {
		errs = append(errs, domain.NewValidationError("ingestion.chunk_overlap must be in [0, chunk_size)"))
	}
	if settings.Embedding.Dimensions < 0 || settings.VectorIndex.Dimensions < 0 {
		errs = append(errs, domain.NewValidationError("dimensions cannot be negative"))
	}

	return errors.Join(errs...)
}

// CheckConnectivity pings every configured external service.
// All failures are reported together.
func (s *SettingsService) CheckConnectivity(ctx context.Context) error {
	if len(s.validators) == 0 {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	for _, v := range s.validators {
		if err := v.ValidateConnectivity(ctx, settings); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}
