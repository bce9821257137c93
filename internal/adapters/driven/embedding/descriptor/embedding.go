// Package descriptor provides an embedding generator for face descriptors
// already extracted by a detector. It validates and normalises rather than
// computing anything.
package descriptor

import (
	"context"
	"fmt"
	"math"

	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
)

// Ensure Generator implements the interface.
var _ driven.EmbeddingGenerator = (*Generator)(nil)

// DefaultDimensions matches common face recognition models (ArcFace, FaceNet-512).
const DefaultDimensions = domain.DefaultFaceDimensions

// Config holds configuration for the descriptor generator.
type Config struct {
	// Dimensions is the expected descriptor length (default: 512).
	Dimensions int
}

// Generator passes face descriptors through after validation.
type Generator struct {
	dimensions int
}

// NewGenerator creates a new descriptor generator.
func NewGenerator(cfg Config) *Generator {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	return &Generator{dimensions: cfg.Dimensions}
}

// Generate returns the unit-length descriptor.
func (g *Generator) Generate(_ context.Context, unit domain.ContentUnit) (domain.Embedding, error) {
	if unit.Modality() != domain.ModalityDescriptor {
		return nil, fmt.Errorf("descriptor: cannot embed %s content", unit.Modality())
	}
	if len(unit.Descriptor) != g.dimensions {
		return nil, &domain.DataIntegrityError{
			ItemID: unit.ID,
			Reason: fmt.Sprintf("descriptor has %d dimensions, want %d", len(unit.Descriptor), g.dimensions),
		}
	}
	for _, v := range unit.Descriptor {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, &domain.DataIntegrityError{ItemID: unit.ID, Reason: "descriptor contains non-finite values"}
		}
	}
	return domain.Embedding(unit.Descriptor).Normalized(), nil
}

// Dimensions returns the embedding vector size.
func (g *Generator) Dimensions() int {
	return g.dimensions
}

// ModelName returns the name of the embedding model being used.
func (g *Generator) ModelName() string {
	return fmt.Sprintf("face-descriptor-%d", g.dimensions)
}

// Close releases resources.
func (g *Generator) Close() error {
	return nil
}
