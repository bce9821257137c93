package driven

import (
	"context"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

// ConnectivityValidator checks that the external services named in settings
// actually answer. Implementations ping without running inference.
type ConnectivityValidator interface {
	// ValidateConnectivity pings the services this validator knows about.
	// Returns nil for services that are not configured.
	ValidateConnectivity(ctx context.Context, settings *domain.Settings) error
}
