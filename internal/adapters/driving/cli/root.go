// Package cli provides the lineage command-line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lineage/internal/core/ports/driving"
	"github.com/custodia-labs/lineage/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services wired by the composition root. Commands check for nil and report
// "not configured" rather than panicking.
var (
	ingestionService  driving.IngestionService
	resolutionService driving.ResolutionService
	searchService     driving.SearchService
	settingsService   driving.SettingsService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "lineage",
	Short: "Family history search and face matching",
	Long: `lineage embeds family history content for semantic search and matches
faces in photographs against the people a family has already labelled.

Embedding providers, the vector backend and the face detection service are
chosen in settings; run 'lineage settings' to see the active configuration.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Services groups the driving ports the CLI can use.
type Services struct {
	Ingestion  driving.IngestionService
	Resolution driving.ResolutionService
	Search     driving.SearchService
	Settings   driving.SettingsService
}

// SetServices injects the services used by commands.
func SetServices(s Services) {
	ingestionService = s.Ingestion
	resolutionService = s.Resolution
	searchService = s.Search
	settingsService = s.Settings
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

