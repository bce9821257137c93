package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lineage/internal/connectors/filesystem"
	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/logger"
)

var (
	watchFamily   string
	watchCategory string
	watchCreator  string
	watchNoSync   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <directory>",
	Short: "Ingest text files from a directory as they change",
	Long: `Ingests every text, Markdown and HTML file under the directory, then keeps watching
and re-ingests files as they are created or edited. Hidden files and
directories are skipped. Stop with Ctrl+C.

Document ids are paths relative to the directory, so re-ingesting an edited
file replaces its chunks.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchFamily, "family", "", "owning family id")
	watchCmd.Flags().StringVar(&watchCategory, "category", "", "category for every document")
	watchCmd.Flags().StringVar(&watchCreator, "creator", "", "id of the member who wrote the content")
	watchCmd.Flags().BoolVar(&watchNoSync, "no-initial-sync", false, "skip ingesting existing files")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	connector := filesystem.New(args[0], domain.Namespace{
		FamilyID:  watchFamily,
		Category:  watchCategory,
		CreatorID: watchCreator,
	})
	defer connector.Close() //nolint:errcheck // best effort on exit

	ctx := cmd.Context()

	if !watchNoSync {
		n, err := syncDirectory(ctx, cmd, connector)
		if err != nil {
			return err
		}
		cmd.Printf("Ingested %d documents from %s\n", n, args[0])
	}

	changes, err := connector.Watch(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s for changes...\n", args[0])

	for change := range changes {
		switch change.Type {
		case filesystem.ChangeDeleted:
			logger.Info("%s removed; its chunks stay indexed until re-ingested", change.Document.ID)
		case filesystem.ChangeCreated, filesystem.ChangeUpdated:
			n, err := ingestionService.IngestDocument(ctx, change.Document)
			if err != nil {
				logger.Warn("ingest %s: %v", change.Document.ID, err)
				continue
			}
			cmd.Printf("%s %s (%d chunks)\n", change.Type, change.Document.ID, n)
		}
	}
	return nil
}

// syncDirectory ingests every existing document. A document that fails is
// reported and skipped so one bad file does not block the rest.
func syncDirectory(ctx context.Context, cmd *cobra.Command, connector *filesystem.Connector) (int, error) {
	docs, errs := connector.FullSync(ctx)

	ingested := 0
	for doc := range docs {
		if _, err := ingestionService.IngestDocument(ctx, doc); err != nil {
			cmd.PrintErrf("skipping %s: %v\n", doc.ID, err)
			continue
		}
		ingested++
	}
	for err := range errs {
		if err != nil {
			return ingested, fmt.Errorf("scan directory: %w", err)
		}
	}
	return ingested, nil
}
