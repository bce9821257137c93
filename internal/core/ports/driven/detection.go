package driven

import (
	"context"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

// DetectionGateway localises faces in an image.
type DetectionGateway interface {
	// Detect returns zero or more faces. Zero faces is an empty slice, not an error.
	// When wantThumbnail is false every returned face has a nil Thumbnail.
	Detect(ctx context.Context, image []byte, contentType string, wantThumbnail bool) ([]domain.DetectedFace, error)
}

// FaceCropper extracts a face region from a source image as an encoded crop.
// Used when a face needs embedding but the gateway supplied neither an
// embedding nor a thumbnail.
type FaceCropper interface {
	Crop(image []byte, box domain.BoundingBox) ([]byte, error)
}
