package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

var (
	resolveNamespace  string
	resolveThreshold  float64
	resolveThumbnails string
	resolveJSON       bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <image>",
	Short: "Identify the people in a photograph",
	Long: `Detects every face in the image and matches each one against faces
already enrolled for the family. Faces that cannot be matched confidently are
listed as unknown; a single bad face never fails the whole photo.

Use --thumbnails to save a JPEG crop of each detected face.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

var (
	enrollEntity string
	enrollFamily string
	enrollName   string
	enrollFaceID string
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <face-image>",
	Short: "Label a face so later photos can match it",
	Long: `Embeds a cropped face image and stores it as a known person of the family.
Enroll several photos of the same person to improve matching.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveNamespace, "namespace", "", "family whose faces are eligible matches (default from settings)")
	resolveCmd.Flags().Float64Var(&resolveThreshold, "threshold", 0, "minimum similarity in [-1, 1] (default from settings)")
	resolveCmd.Flags().StringVar(&resolveThumbnails, "thumbnails", "", "directory to write face crops to")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "output faces as JSON")
	rootCmd.AddCommand(resolveCmd)

	enrollCmd.Flags().StringVar(&enrollEntity, "entity", "", "person id (required)")
	enrollCmd.Flags().StringVar(&enrollFamily, "family", "", "owning family id (required)")
	enrollCmd.Flags().StringVar(&enrollName, "name", "", "display name")
	enrollCmd.Flags().StringVar(&enrollFaceID, "face-id", "", "record id for this face (default: generated)")
	rootCmd.AddCommand(enrollCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	if resolutionService == nil {
		return errors.New("resolution service not configured")
	}

	image, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	req := domain.ResolveRequest{
		Image:          image,
		ContentType:    http.DetectContentType(image),
		WantThumbnail:  resolveThumbnails != "",
		MatchNamespace: resolveNamespace,
	}
	if cmd.Flags().Changed("threshold") {
		threshold := resolveThreshold
		req.ScoreThreshold = &threshold
	}

	faces, err := resolutionService.ResolveIdentities(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("resolve failed: %w", err)
	}

	if resolveThumbnails != "" {
		if err := writeThumbnails(resolveThumbnails, faces); err != nil {
			return err
		}
	}

	if resolveJSON {
		return outputFacesJSON(cmd, faces)
	}
	return outputFacesTable(cmd, faces)
}

func writeThumbnails(dir string, faces []domain.ResolvedFace) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for i := range faces {
		if len(faces[i].Thumbnail) == 0 {
			continue
		}
		path := filepath.Join(dir, faces[i].ID+".jpg")
		if err := os.WriteFile(path, faces[i].Thumbnail, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func outputFacesJSON(cmd *cobra.Command, faces []domain.ResolvedFace) error {
	// Crops are written to disk, not inlined.
	out := make([]domain.ResolvedFace, len(faces))
	for i := range faces {
		out[i] = faces[i]
		out[i].Thumbnail = nil
		out[i].Embedding = nil
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal faces: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputFacesTable(cmd *cobra.Command, faces []domain.ResolvedFace) error {
	if len(faces) == 0 {
		cmd.Println("No faces found.")
		return nil
	}

	resolved := 0
	for i := range faces {
		f := faces[i]
		box := fmt.Sprintf("%dx%d at (%d,%d)", f.Box.Width, f.Box.Height, f.Box.X, f.Box.Y)
		if f.IsResolved() {
			resolved++
			name := f.Identity.DisplayName
			if name == "" {
				name = f.Identity.EntityID
			}
			cmd.Printf("  [%d] %s (%.2f) %s\n", i+1, name, f.Score, box)
		} else {
			cmd.Printf("  [%d] unknown %s\n", i+1, box)
		}
	}
	cmd.Printf("\n%d of %d faces identified\n", resolved, len(faces))
	return nil
}

func runEnroll(cmd *cobra.Command, args []string) error {
	if resolutionService == nil {
		return errors.New("resolution service not configured")
	}
	if enrollEntity == "" || enrollFamily == "" {
		return errors.New("--entity and --family are required")
	}

	image, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	err = resolutionService.EnrollFace(cmd.Context(), domain.EnrollRequest{
		FaceID:      enrollFaceID,
		EntityID:    enrollEntity,
		FamilyID:    enrollFamily,
		DisplayName: enrollName,
		Image:       image,
	})
	if err != nil {
		return fmt.Errorf("enroll failed: %w", err)
	}

	name := enrollName
	if name == "" {
		name = enrollEntity
	}
	cmd.Printf("Enrolled %s in family %s\n", name, enrollFamily)
	return nil
}
