package driving

import (
	"context"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

// ResolutionService resolves faces in a photograph to known identities.
type ResolutionService interface {
	// ResolveIdentities detects faces and resolves each one independently.
	// Only detection failure or invalid input fails the call; per-face
	// failures leave that face unresolved.
	ResolveIdentities(ctx context.Context, req domain.ResolveRequest) ([]domain.ResolvedFace, error)

	// EnrollFace indexes a labelled face so later photos can match it.
	EnrollFace(ctx context.Context, req domain.EnrollRequest) error
}
