package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

// mockIngestionService records what it was asked to ingest.
type mockIngestionService struct {
	chunks []domain.ContentChunk
	docs   []domain.SourceDocument
	err    error
}

func (m *mockIngestionService) Ingest(_ context.Context, chunks []domain.ContentChunk) error {
	m.chunks = append(m.chunks, chunks...)
	return m.err
}

func (m *mockIngestionService) IngestDocument(_ context.Context, doc domain.SourceDocument) (int, error) {
	m.docs = append(m.docs, doc)
	if m.err != nil {
		return 0, m.err
	}
	return 2, nil
}

// mockResolutionService returns canned faces.
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

// mockSearchService returns a fixed result.
type mockSearchService struct {
	topK      int
	namespace domain.Namespace
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	topK int,
	namespace domain.Namespace,
) ([]domain.MatchCandidate, error) {
	m.topK = topK
	m.namespace = namespace
	return []domain.MatchCandidate{
		{
			ID:    "chunk-1",
			Score: 0.91,
			Metadata: map[string]string{
				domain.MetaFamilyID: "fam-1",
				domain.MetaCategory: "story",
			},
		},
	}, nil
}

type mockSearchServiceError struct{}

func (m *mockSearchServiceError) Search(
	_ context.Context,
	_ string,
	_ int,
	_ domain.Namespace,
) ([]domain.MatchCandidate, error) {
	return nil, errors.New("mock search error")
}

// mockSettingsService keeps values in a map.
type mockSettingsService struct {
	values          map[string]string
	validateErr     error
	connectivityErr error
	pinged          int
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{values: map[string]string{
		"embedding.provider": "hashing",
		"embedding.api_key":  "",
		"vector_index.dsn":   "",
	}}
}

var mockSettingsKeys = []string{"embedding.provider", "embedding.model", "embedding.dimensions", "embedding.api_key", "vector_index.dsn"}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	s := domain.DefaultSettings()
	s.Embedding.Provider = m.values["embedding.provider"]
	s.Embedding.APIKey = m.values["embedding.api_key"]
	return &s, nil
}

func (m *mockSettingsService) Save(_ *domain.Settings) error {
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if key == "embedding.provider" {
		if _, err := domain.ParseEmbeddingProvider(value); err != nil {
			return err
		}
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return mockSettingsKeys
}

func (m *mockSettingsService) List() ([]domain.SettingEntry, error) {
	entries := make([]domain.SettingEntry, len(mockSettingsKeys))
	for i, k := range mockSettingsKeys {
		entries[i] = domain.SettingEntry{
			Key:    k,
			Value:  m.values[k],
			Secret: k == "embedding.api_key" || k == "vector_index.dsn",
		}
	}
	return entries, nil
}

func (m *mockSettingsService) Validate() error {
	return m.validateErr
}

func (m *mockSettingsService) CheckConnectivity(_ context.Context) error {
	m.pinged++
	return m.connectivityErr
}

func (m *mockSettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// setupTestServices installs fresh mocks and returns a function restoring the previous services.
func setupTestServices() func() {
	oldIngestion := ingestionService
	oldResolution := resolutionService
	oldSearch := searchService
	oldSettings := settingsService

	SetServices(Services{
		Ingestion:  &mockIngestionService{},
		Resolution: &mockResolutionService{},
		Search:     &mockSearchService{},
		Settings:   newMockSettingsService(),
	})

	return func() {
		ingestionService = oldIngestion
		resolutionService = oldResolution
		searchService = oldSearch
		settingsService = oldSettings
	}
}

// runCommand executes the root command with args and returns combined output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag of cmd to its default so tests do not leak state.
func resetFlags(t *testing.T, cmd *cobra.Command) {
	t.Helper()
	t.Cleanup(func() {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	})
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "lineage", rootCmd.Use)
}

func TestRootCmd_HasCommands(t *testing.T) {
	names := make([]string, 0, len(rootCmd.Commands()))
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}

	for _, want := range []string{"ingest", "resolve", "enroll", "search", "watch", "settings", "mcp", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_VerboseFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("verbose")
	if assert.NotNil(t, flag) {
		assert.Equal(t, "v", flag.Shorthand)
	}
}

func TestSetVersion(t *testing.T) {
	original := version
	defer func() { version = original }()

	SetVersion("")
	assert.Equal(t, original, version)

	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)
}
