package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
)

// Ensure IdentityStore implements the interfaces.
var (
	_ driven.IdentityStore  = (*IdentityStore)(nil)
	_ driven.IdentityWriter = (*IdentityStore)(nil)
)

// IdentityStore is an in-memory implementation of driven.IdentityStore.
type IdentityStore struct {
	mu         sync.RWMutex
	identities map[string]domain.Identity
}

// NewIdentityStore creates a new in-memory identity store.
func NewIdentityStore() *IdentityStore {
	return &IdentityStore{
		identities: make(map[string]domain.Identity),
	}
}

// SaveIdentity stores or updates an identity.
func (s *IdentityStore) SaveIdentity(_ context.Context, identity domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[identity.EntityID] = identity
	return nil
}

// LookupIdentity retrieves an identity by entity ID.
func (s *IdentityStore) LookupIdentity(_ context.Context, entityID string) (*domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[entityID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &identity, nil
}

// List returns all identities ordered by entity ID.
func (s *IdentityStore) List(_ context.Context) ([]domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Identity, 0, len(s.identities))
	for _, identity := range s.identities {
		result = append(result, identity)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EntityID < result[j].EntityID })
	return result, nil
}
