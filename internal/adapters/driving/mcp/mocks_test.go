package mcp

import (
	"context"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	chunks []domain.ContentChunk
	doc    *domain.SourceDocument
	count  int
	err    error
}

func (m *mockIngestionService) Ingest(_ context.Context, chunks []domain.ContentChunk) error {
	m.chunks = chunks
	return m.err
}

func (m *mockIngestionService) IngestDocument(_ context.Context, doc domain.SourceDocument) (int, error) {
	m.doc = &doc
	return m.count, m.err
}

// mockResolutionService is a mock implementation of driving.ResolutionService.
type mockResolutionService struct {
	faces    []domain.ResolvedFace
	request  *domain.ResolveRequest
	enrolled *domain.EnrollRequest
	err      error
}

func (m *mockResolutionService) ResolveIdentities(
	_ context.Context,
	req domain.ResolveRequest,
) ([]domain.ResolvedFace, error) {
	m.request = &req
	return m.faces, m.err
}

func (m *mockResolutionService) EnrollFace(_ context.Context, req domain.EnrollRequest) error {
	m.enrolled = &req
	return m.err
}

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results   []domain.MatchCandidate
	topK      int
	namespace domain.Namespace
	err       error
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	topK int,
	namespace domain.Namespace,
) ([]domain.MatchCandidate, error) {
	m.topK = topK
	m.namespace = namespace
	return m.results, m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings *domain.Settings
	err      error
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	return m.settings, m.err
}

func (m *mockSettingsService) Save(_ *domain.Settings) error {
	return m.err
}

func (m *mockSettingsService) Set(_, _ string) error {
	return m.err
}

func (m *mockSettingsService) Keys() []string {
	return nil
}

func (m *mockSettingsService) List() ([]domain.SettingEntry, error) {
	return nil, m.err
}

func (m *mockSettingsService) Validate() error {
	return m.err
}

func (m *mockSettingsService) CheckConnectivity(_ context.Context) error {
	return m.err
}

func (m *mockSettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// requiredPorts returns ports with fresh mocks for ingestion and resolution.
func requiredPorts() *Ports {
	return &Ports{
		Ingestion:  &mockIngestionService{},
		Resolution: &mockResolutionService{},
	}
}
