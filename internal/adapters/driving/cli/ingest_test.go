package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [file]", ingestCmd.Use)
}

func TestIngestCmd_ServiceNotConfigured(t *testing.T) {
	old := ingestionService
	ingestionService = nil
	defer func() { ingestionService = old }()

	_, err := runCommand(t, "ingest", "notes.txt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingestion service not configured")
}

func TestIngestCmd_File(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	resetFlags(t, ingestCmd)
	mock := &mockIngestionService{}
	ingestionService = mock

	path := filepath.Join(t.TempDir(), "rose-voyage.md")
	require.NoError(t, os.WriteFile(path, []byte("Rose sailed from Naples in 1921."), 0o600))

	out, err := runCommand(t, "ingest", "--family", "fam-1", "--category", "story", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Ingested 2 chunks from rose-voyage.md")
	require.Len(t, mock.docs, 1)
	assert.Equal(t, "rose-voyage.md", mock.docs[0].ID)
	assert.Equal(t, "rose-voyage", mock.docs[0].Title)
	assert.Equal(t, domain.Namespace{FamilyID: "fam-1", Category: "story"}, mock.docs[0].Namespace)
}

func TestIngestCmd_StdinRequiresID(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	resetFlags(t, ingestCmd)
	rootCmd.SetIn(strings.NewReader("some text"))

	_, err := runCommand(t, "ingest")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--id is required")
}

func TestIngestCmd_Stdin(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	resetFlags(t, ingestCmd)
	mock := &mockIngestionService{}
	ingestionService = mock
	rootCmd.SetIn(strings.NewReader("Anna kept the letters."))

	_, err := runCommand(t, "ingest", "--id", "letters", "-")

	require.NoError(t, err)
	require.Len(t, mock.docs, 1)
	assert.Equal(t, "letters", mock.docs[0].ID)
	assert.Equal(t, "Anna kept the letters.", mock.docs[0].Content)
}

func TestIngestCmd_Chunks(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	resetFlags(t, ingestCmd)
	mock := &mockIngestionService{}
	ingestionService = mock
	rootCmd.SetIn(strings.NewReader(`[
		{"id": "c1", "content": "first", "family_id": "fam-9"},
		{"id": "c2", "content": "second"}
	]`))

	out, err := runCommand(t, "ingest", "--chunks", "--family", "fam-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Ingested 2 chunks")
	require.Len(t, mock.chunks, 2)
	assert.Equal(t, "fam-9", mock.chunks[0].Namespace.FamilyID)
	assert.Equal(t, "fam-1", mock.chunks[1].Namespace.FamilyID)
}

func TestIngestCmd_ReportsFailingChunk(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	resetFlags(t, ingestCmd)
	ingestionService = &mockIngestionService{
		err: &domain.UpstreamError{Op: "embed", ItemID: "c2", Err: errors.New("timeout")},
	}
	rootCmd.SetIn(strings.NewReader(`[{"id": "c1", "content": "a"}, {"id": "c2", "content": "b"}]`))

	_, err := runCommand(t, "ingest", "--chunks")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped at chunk c2")
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestDecodeChunks_InvalidJSON(t *testing.T) {
	_, err := decodeChunks([]byte("not json"), domain.Namespace{})

	assert.Error(t, err)
}
