package mcp

import (
	"github.com/custodia-labs/lineage/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Ingestion embeds and stores content chunks.
	Ingestion driving.IngestionService

	// Resolution resolves and enrolls faces. Optional; nil when no
	// detection service is configured.
	Resolution driving.ResolutionService

	// Search queries ingested content. Optional.
	Search driving.SearchService

	// Settings exposes the effective configuration as a resource. Optional.
	Settings driving.SettingsService
}

// Validate ensures the required ingestion port is set.
func (p *Ports) Validate() error {
	if p.Ingestion == nil {
		return ErrMissingIngestionService
	}
	return nil
}
