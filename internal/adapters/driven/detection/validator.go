package detection

import (
	"context"
	"time"

	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.ConnectivityValidator = (*ConfigValidator)(nil)

// pingTimeout bounds the health check.
const pingTimeout = 5 * time.Second

// ConfigValidator pings the detection service's health endpoint.
type ConfigValidator struct{}

// NewConfigValidator creates a new detection config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateConnectivity pings the configured detection service. An unset
// base URL means face resolution is disabled, which is not an error here.
func (v *ConfigValidator) ValidateConnectivity(ctx context.Context, settings *domain.Settings) error {
	if settings.Detection.BaseURL == "" {
		return nil
	}
	g, err := NewGateway(Config{BaseURL: settings.Detection.BaseURL, Timeout: pingTimeout}, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return g.Ping(ctx)
}
