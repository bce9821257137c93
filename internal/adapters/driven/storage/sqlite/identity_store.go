package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
)

// Ensure IdentityStore implements the interfaces.
var (
	_ driven.IdentityStore  = (*IdentityStore)(nil)
	_ driven.IdentityWriter = (*IdentityStore)(nil)
)

// IdentityStore persists enrolled people.
type IdentityStore struct {
	store *Store
}

// SaveIdentity stores or updates an identity.
func (s *IdentityStore) SaveIdentity(ctx context.Context, identity domain.Identity) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO identities (entity_id, display_name, namespace)
		VALUES (?, ?, ?)
		ON CONFLICT(entity_id) DO UPDATE SET
			display_name = excluded.display_name,
			namespace = excluded.namespace,
			updated_at = CURRENT_TIMESTAMP
	`, identity.EntityID, identity.DisplayName, identity.Namespace)
	if err != nil {
		return fmt.Errorf("saving identity: %w", err)
	}
	return nil
}

// LookupIdentity retrieves an identity by entity ID.
func (s *IdentityStore) LookupIdentity(ctx context.Context, entityID string) (*domain.Identity, error) {
	var identity domain.Identity
	err := s.store.db.QueryRowContext(ctx, `
		SELECT entity_id, display_name, namespace FROM identities WHERE entity_id = ?
	`, entityID).Scan(&identity.EntityID, &identity.DisplayName, &identity.Namespace)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up identity: %w", err)
	}
	return &identity, nil
}

// ListByNamespace returns the identities of one family ordered by entity ID.
func (s *IdentityStore) ListByNamespace(ctx context.Context, namespace string) ([]domain.Identity, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT entity_id, display_name, namespace FROM identities
		WHERE namespace = ? ORDER BY entity_id
	`, namespace)
	if err != nil {
		return nil, fmt.Errorf("listing identities: %w", err)
	}
	defer rows.Close()

	var result []domain.Identity
	for rows.Next() {
		var identity domain.Identity
		if err := rows.Scan(&identity.EntityID, &identity.DisplayName, &identity.Namespace); err != nil {
			return nil, fmt.Errorf("scanning identity: %w", err)
		}
		result = append(result, identity)
	}
	return result, rows.Err()
}
