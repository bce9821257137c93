package driving

import (
	"context"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current settings, defaults filled in for unset keys.
	Get() (*domain.Settings, error)

	// Save persists settings.
	Save(settings *domain.Settings) error

	// Set updates a single setting by its dotted key, converting the raw value.
	Set(key, value string) error

	// Keys lists the settable keys in display order.
	Keys() []string

	// List returns every setting's effective value in display order.
	List() ([]domain.SettingEntry, error)

	// Validate checks the current settings can build every component.
	Validate() error

	// CheckConnectivity pings the configured embedding providers and
	// detection service.
	CheckConnectivity(ctx context.Context) error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}
