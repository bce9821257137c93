package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockGenerator implements driven.EmbeddingGenerator for testing.
type mockGenerator struct {
	mu        sync.Mutex
	calls     []string
	embedding domain.Embedding
	failFor   map[string]error
	emptyFor  map[string]bool

	// descriptorDims, when set, is the only descriptor length accepted.
	descriptorDims int
	// imageOnly rejects descriptors the way text and image providers do.
	imageOnly bool
}

func newMockGenerator() *mockGenerator {
	return &mockGenerator{embedding: domain.Embedding{1, 0, 0}}
}

func (m *mockGenerator) Generate(_ context.Context, unit domain.ContentUnit) (domain.Embedding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, unit.ID)
	if err := m.failFor[unit.ID]; err != nil {
		return nil, err
	}
	if m.emptyFor[unit.ID] {
		return domain.Embedding{}, nil
	}
	if unit.Modality() == domain.ModalityDescriptor {
		if m.imageOnly {
			return nil, &domain.UpstreamError{Op: "embed", ItemID: unit.ID, Err: errors.New("cannot embed descriptor content")}
		}
		if m.descriptorDims > 0 && len(unit.Descriptor) != m.descriptorDims {
			return nil, &domain.DataIntegrityError{ItemID: unit.ID, Reason: "descriptor has the wrong length"}
		}
		return domain.Embedding(unit.Descriptor), nil
	}
	return m.embedding, nil
}

func (m *mockGenerator) Dimensions() int   { return len(m.embedding) }
func (m *mockGenerator) ModelName() string { return "mock-embed" }
func (m *mockGenerator) Close() error      { return nil }

func (m *mockGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockRegistry implements driven.EmbeddingRegistry for testing.
type mockRegistry struct {
	gen      driven.EmbeddingGenerator
	resolved int
}

func (m *mockRegistry) Resolve(providerID string) (driven.EmbeddingGenerator, error) {
	m.resolved++
	if _, err := domain.ParseEmbeddingProvider(providerID); err != nil {
		return nil, err
	}
	return m.gen, nil
}

// mockVectorIndex implements driven.VectorIndex for testing.
type mockVectorIndex struct {
	mu       sync.Mutex
	upserts  []domain.VectorRecord
	queries  []domain.MetadataFilter
	upsertFn func(domain.VectorRecord) error
	queryFn  func(domain.Embedding, int, domain.MetadataFilter) ([]domain.MatchCandidate, error)
}

func (m *mockVectorIndex) Upsert(_ context.Context, record domain.VectorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertFn != nil {
		if err := m.upsertFn(record); err != nil {
			return err
		}
	}
	m.upserts = append(m.upserts, record)
	return nil
}

func (m *mockVectorIndex) Query(
	_ context.Context, emb domain.Embedding, topK int, filter domain.MetadataFilter,
) ([]domain.MatchCandidate, error) {
	m.mu.Lock()
	m.queries = append(m.queries, filter)
	fn := m.queryFn
	m.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(emb, topK, filter)
}

func (m *mockVectorIndex) Delete(_ context.Context, _ string) error { return nil }
func (m *mockVectorIndex) Close() error                           { return nil }

func (m *mockVectorIndex) upsertedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.upserts))
	for i, r := range m.upserts {
		ids[i] = r.ID
	}
	return ids
}

// mockDetector implements driven.DetectionGateway for testing.
type mockDetector struct {
	faces []domain.DetectedFace
	err   error
	calls int
}

func (m *mockDetector) Detect(_ context.Context, _ []byte, _ string, _ bool) ([]domain.DetectedFace, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.faces, nil
}

// mockIdentityStore implements driven.IdentityStore and driven.IdentityWriter for testing.
type mockIdentityStore struct {
	mu         sync.Mutex
	identities map[string]domain.Identity
	lookupErr  error
}

func newMockIdentityStore(ids ...domain.Identity) *mockIdentityStore {
	m := &mockIdentityStore{identities: make(map[string]domain.Identity)}
	for _, id := range ids {
		m.identities[id.EntityID] = id
	}
	return m
}

func (m *mockIdentityStore) LookupIdentity(_ context.Context, entityID string) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	id, ok := m.identities[entityID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &id, nil
}

func (m *mockIdentityStore) SaveIdentity(_ context.Context, identity domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[identity.EntityID] = identity
	return nil
}

// mockCropper implements driven.FaceCropper for testing.
type mockCropper struct {
	err error
}

func (m *mockCropper) Crop(_ []byte, box domain.BoundingBox) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []byte{byte(box.X), byte(box.Y)}, nil
}

// recordingMetrics implements driven.Metrics for testing.
type recordingMetrics struct {
	mu         sync.Mutex
	outcomes   []string
	resolved   int
	unresolved int
	upstream   []string
}

func (m *recordingMetrics) ObserveIngest(outcome string, _ int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *recordingMetrics) ObserveResolution(resolved, unresolved int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved += resolved
	m.unresolved += unresolved
}

func (m *recordingMetrics) ObserveUpstreamError(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upstream = append(m.upstream, op)
}

var errBoom = errors.New("boom")
