package driven

import (
	"context"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

// IdentityStore is the record-storage collaborator used to enrich matches.
type IdentityStore interface {
	// LookupIdentity returns the identity for an entity id, or domain.ErrNotFound.
	LookupIdentity(ctx context.Context, entityID string) (*domain.Identity, error)
}

// IdentityWriter registers identities. Used when enrolling faces.
type IdentityWriter interface {
	SaveIdentity(ctx context.Context, identity domain.Identity) error
}
