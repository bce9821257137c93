package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

var (
	searchLimit    int
	searchJSON     bool
	searchFamily   string
	searchCategory string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search ingested family history",
	Long: `Embeds the query and returns the most similar ingested chunks.
Results are ranked by cosine similarity; use --family to stay within one family.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringVar(&searchFamily, "family", "", "restrict results to one family")
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "restrict results to one category")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	results, err := searchService.Search(cmd.Context(), query, searchLimit, domain.Namespace{
		FamilyID: searchFamily,
		Category: searchCategory,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.MatchCandidate) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.MatchCandidate) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		// Format: [N] chunk-id (Score)
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, results[i].ID, results[i].Score)
		if family := results[i].Metadata[domain.MetaFamilyID]; family != "" {
			cmd.Printf("      Family: %s\n", family)
		}
		if category := results[i].Metadata[domain.MetaCategory]; category != "" {
			cmd.Printf("      Category: %s\n", category)
		}
		cmd.Println()
	}

	return nil
}
