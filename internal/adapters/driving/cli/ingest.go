package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

var (
	ingestID       string
	ingestTitle    string
	ingestFamily   string
	ingestCategory string
	ingestCreator  string
	ingestChunks   bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Embed and store family history content",
	Long: `Reads a document from a file (or stdin when the file is omitted or "-"),
splits it into chunks and stores an embedding for each one.

With --chunks the input is a JSON array of pre-split chunks instead:
  [{"id": "c1", "content": "...", "family_id": "fam-1", "category": "story"}]

Ingestion stops at the first chunk that fails. Chunks stored before the
failure are kept.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "document id (default: file name)")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title")
	ingestCmd.Flags().StringVar(&ingestFamily, "family", "", "owning family id")
	ingestCmd.Flags().StringVar(&ingestCategory, "category", "", "category such as story or obituary")
	ingestCmd.Flags().StringVar(&ingestCreator, "creator", "", "id of the member who wrote the content")
	ingestCmd.Flags().BoolVar(&ingestChunks, "chunks", false, "input is a JSON array of chunks")
	rootCmd.AddCommand(ingestCmd)
}

// chunkRecord is the JSON shape accepted by --chunks.
type chunkRecord struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	FamilyID  string `json:"family_id"`
	Category  string `json:"category"`
	CreatorID string `json:"creator_id"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	path := "-"
	if len(args) == 1 {
		path = args[0]
	}
	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	namespace := domain.Namespace{
		FamilyID:  ingestFamily,
		Category:  ingestCategory,
		CreatorID: ingestCreator,
	}

	if ingestChunks {
		chunks, err := decodeChunks(data, namespace)
		if err != nil {
			return err
		}
		if err := ingestionService.Ingest(cmd.Context(), chunks); err != nil {
			return describeIngestError(err)
		}
		cmd.Printf("Ingested %d chunks\n", len(chunks))
		return nil
	}

	id := ingestID
	if id == "" {
		if path == "-" {
			return errors.New("--id is required when reading from stdin")
		}
		id = filepath.Base(path)
	}
	title := ingestTitle
	if title == "" && path != "-" {
		base := filepath.Base(path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	n, err := ingestionService.IngestDocument(cmd.Context(), domain.SourceDocument{
		ID:        id,
		Title:     title,
		Content:   string(data),
		Namespace: namespace,
	})
	if err != nil {
		return describeIngestError(err)
	}
	cmd.Printf("Ingested %d chunks from %s\n", n, id)
	return nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// decodeChunks parses --chunks input. Namespace flags fill fields a chunk leaves empty.
func decodeChunks(data []byte, defaults domain.Namespace) ([]domain.ContentChunk, error) {
	var records []chunkRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse chunks: %w", err)
	}

	chunks := make([]domain.ContentChunk, len(records))
	for i, r := range records {
		ns := domain.Namespace{FamilyID: r.FamilyID, Category: r.Category, CreatorID: r.CreatorID}
		if ns.FamilyID == "" {
			ns.FamilyID = defaults.FamilyID
		}
		if ns.Category == "" {
			ns.Category = defaults.Category
		}
		if ns.CreatorID == "" {
			ns.CreatorID = defaults.CreatorID
		}
		chunks[i] = domain.ContentChunk{ID: r.ID, Content: r.Content, Namespace: ns}
	}
	return chunks, nil
}

// describeIngestError names the failing chunk when the error carries one.
func describeIngestError(err error) error {
	if id := domain.ItemIDOf(err); id != "" {
		return fmt.Errorf("ingestion stopped at chunk %s: %w", id, err)
	}
	return fmt.Errorf("ingestion failed: %w", err)
}
