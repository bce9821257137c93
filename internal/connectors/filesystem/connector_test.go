package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

var testNamespace = domain.Namespace{FamilyID: "fam-1", Category: "letters"}

func collect(t *testing.T, c *Connector) []domain.SourceDocument {
	t.Helper()
	docsChan, errsChan := c.FullSync(context.Background())

	var docs []domain.SourceDocument
	for doc := range docsChan {
		docs = append(docs, doc)
	}
	for err := range errsChan {
		require.NoError(t, err)
	}
	return docs
}

func TestNew(t *testing.T) {
	connector := New("/tmp/test", testNamespace)

	require.NotNil(t, connector)
	assert.Equal(t, "/tmp/test", connector.RootPath())
	assert.Equal(t, testNamespace, connector.namespace)
}

func TestConnector_FullSync(t *testing.T) {
	t.Run("syncs text files from directory", func(t *testing.T) {
		tempDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "rose.txt"), []byte("Rose sailed in 1921"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "anna.md"), []byte("# Anna"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "photo.jpg"), []byte{0xff, 0xd8}, 0644))

		docs := collect(t, New(tempDir, testNamespace))

		assert.Len(t, docs, 2)
	})

	t.Run("skips hidden files and directories", func(t *testing.T) {
		tempDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "visible.txt"), []byte("visible"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, ".hidden.txt"), []byte("hidden"), 0644))
		require.NoError(t, os.Mkdir(filepath.Join(tempDir, ".git"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, ".git", "notes.txt"), []byte("hidden"), 0644))

		docs := collect(t, New(tempDir, testNamespace))

		require.Len(t, docs, 1)
		assert.Equal(t, "visible.txt", docs[0].ID)
	})

	t.Run("builds documents with relative ids and namespace", func(t *testing.T) {
		tempDir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "1920s"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "1920s", "voyage.md"), []byte("hello"), 0644))

		docs := collect(t, New(tempDir, testNamespace))

		require.Len(t, docs, 1)
		assert.Equal(t, "1920s/voyage.md", docs[0].ID)
		assert.Equal(t, "voyage", docs[0].Title)
		assert.Equal(t, "hello", docs[0].Content)
		assert.Equal(t, testNamespace, docs[0].Namespace)
	})

	t.Run("skips invalid UTF-8", func(t *testing.T) {
		tempDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "binary.txt"), []byte{0xff, 0xfe, 0xfd}, 0644))

		docs := collect(t, New(tempDir, testNamespace))

		assert.Empty(t, docs)
	})

	t.Run("handles non-existent directory", func(t *testing.T) {
		connector := New("/non/existent/path", testNamespace)

		docsChan, errsChan := connector.FullSync(context.Background())
		for range docsChan {
		}

		select {
		case err := <-errsChan:
			require.Error(t, err)
			assert.Contains(t, err.Error(), "does not exist")
		case <-time.After(time.Second):
			t.Fatal("expected error for non-existent directory")
		}
	})

	t.Run("handles cancelled context", func(t *testing.T) {
		tempDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "a.txt"), []byte("a"), 0644))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		docsChan, errsChan := New(tempDir, testNamespace).FullSync(ctx)

		for range docsChan {
		}
		for err := range errsChan {
			assert.NoError(t, err)
		}
	})
}

func TestConnector_Watch(t *testing.T) {
	const timeout = 2 * time.Second

	t.Run("watches for new files", func(t *testing.T) {
		tempDir := t.TempDir()
		connector := New(tempDir, testNamespace)
		defer connector.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changesChan, err := connector.Watch(ctx)
		require.NoError(t, err)

		testFile := filepath.Join(tempDir, "new-file.txt")
		require.NoError(t, os.WriteFile(testFile, []byte("content"), 0644))

		select {
		case change := <-changesChan:
			assert.Contains(t, []ChangeType{ChangeCreated, ChangeUpdated}, change.Type)
			assert.Equal(t, "new-file.txt", change.Document.ID)
		case <-time.After(timeout):
			t.Fatal("timeout waiting for file change event")
		}
	})

	t.Run("detects file deletions", func(t *testing.T) {
		tempDir := t.TempDir()
		testFile := filepath.Join(tempDir, "to-delete.txt")
		require.NoError(t, os.WriteFile(testFile, []byte("delete me"), 0644))

		connector := New(tempDir, testNamespace)
		defer connector.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changesChan, err := connector.Watch(ctx)
		require.NoError(t, err)

		require.NoError(t, os.Remove(testFile))

		select {
		case change := <-changesChan:
			assert.Equal(t, ChangeDeleted, change.Type)
			assert.Equal(t, "to-delete.txt", change.Document.ID)
		case <-time.After(timeout):
			t.Fatal("timeout waiting for file deletion event")
		}
	})

	t.Run("returns error for non-existent directory", func(t *testing.T) {
		connector := New("/non/existent/path", testNamespace)

		changesChan, err := connector.Watch(context.Background())

		require.Error(t, err)
		assert.Nil(t, changesChan)
		assert.Contains(t, err.Error(), "root path error")
	})

	t.Run("closes channel when context is cancelled", func(t *testing.T) {
		connector := New(t.TempDir(), testNamespace)
		defer connector.Close()

		ctx, cancel := context.WithCancel(context.Background())
		changesChan, err := connector.Watch(ctx)
		require.NoError(t, err)

		cancel()

		select {
		case _, ok := <-changesChan:
			if ok {
				for range changesChan {
				}
			}
		case <-time.After(timeout):
			t.Fatal("channel did not close after context cancellation")
		}
	})

	t.Run("returns error when connector is closed", func(t *testing.T) {
		connector := New(t.TempDir(), testNamespace)
		require.NoError(t, connector.Close())

		changesChan, err := connector.Watch(context.Background())

		assert.ErrorIs(t, err, ErrClosed)
		assert.Nil(t, changesChan)
	})
}

func TestConnector_Close(t *testing.T) {
	connector := New("/tmp/test", testNamespace)

	assert.NoError(t, connector.Close())
	assert.NoError(t, connector.Close())
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{"path/to/.hidden", true},
		{"dir/.git/config", true},
		{".config/.cache/data", true},
		{"file.txt", false},
		{"path/to/file.txt", false},
		{"file.hidden", false},
		{".", false},
		{"..", false},
		{"path/../file", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}

func TestIsTextFile(t *testing.T) {
	c := New(t.TempDir(), testNamespace)

	assert.True(t, c.isTextFile("a.txt"))
	assert.True(t, c.isTextFile("A.MD"))
	assert.True(t, c.isTextFile("notes.markdown"))
	assert.True(t, c.isTextFile("obituary.html"))
	assert.False(t, c.isTextFile("photo.jpg"))
	assert.False(t, c.isTextFile("README"))
}

func TestFullSync_NormalisesMarkup(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "anna.md"), []byte("# Anna Moretti\n\nBorn in **Cork**."), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "obit.html"),
		[]byte("<html><head><title>Rose Byrne</title></head><body><p>Died 1998.</p></body></html>"), 0644))

	docs := collect(t, New(tempDir, testNamespace))

	require.Len(t, docs, 2)
	byID := map[string]domain.SourceDocument{}
	for _, d := range docs {
		byID[d.ID] = d
	}
	assert.Equal(t, "Anna Moretti", byID["anna.md"].Title)
	assert.Equal(t, "Anna Moretti\n\nBorn in Cork.", byID["anna.md"].Content)
	assert.Equal(t, "Rose Byrne", byID["obit.html"].Title)
	assert.Equal(t, "Died 1998.", byID["obit.html"].Content)
}

func TestHandleFsEvent(t *testing.T) {
	tests := []struct {
		name           string
		setupFile      bool
		setupDir       bool
		setupHidden    bool
		operation      fsnotify.Op
		expectedChange bool
		expectedType   ChangeType
	}{
		{
			name:           "create file event",
			setupFile:      true,
			operation:      fsnotify.Create,
			expectedChange: true,
			expectedType:   ChangeCreated,
		},
		{
			name:           "write file event",
			setupFile:      true,
			operation:      fsnotify.Write,
			expectedChange: true,
			expectedType:   ChangeUpdated,
		},
		{
			name:           "remove file event",
			operation:      fsnotify.Remove,
			expectedChange: true,
			expectedType:   ChangeDeleted,
		},
		{
			name:           "rename file event",
			operation:      fsnotify.Rename,
			expectedChange: true,
			expectedType:   ChangeDeleted,
		},
		{
			name:           "chmod file event - not handled",
			setupFile:      true,
			operation:      fsnotify.Chmod,
			expectedChange: false,
		},
		{
			name:           "create directory event - should be skipped",
			setupDir:       true,
			operation:      fsnotify.Create,
			expectedChange: false,
		},
		{
			name:           "hidden file create - should be skipped",
			setupHidden:    true,
			operation:      fsnotify.Create,
			expectedChange: false,
		},
		{
			name:           "hidden file remove - should be skipped",
			setupHidden:    true,
			operation:      fsnotify.Remove,
			expectedChange: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()

			var eventPath string
			switch {
			case tt.setupDir:
				eventPath = filepath.Join(tempDir, "testdir.txt")
				require.NoError(t, os.Mkdir(eventPath, 0755))
			case tt.setupHidden:
				eventPath = filepath.Join(tempDir, ".hidden.txt")
				if tt.operation != fsnotify.Remove {
					require.NoError(t, os.WriteFile(eventPath, []byte("hidden"), 0644))
				}
			case tt.setupFile:
				eventPath = filepath.Join(tempDir, "test.txt")
				require.NoError(t, os.WriteFile(eventPath, []byte("content"), 0644))
			default:
				eventPath = filepath.Join(tempDir, "removed.txt")
			}

			connector := New(tempDir, testNamespace)
			change := connector.handleFsEvent(fsnotify.Event{Name: eventPath, Op: tt.operation})

			if !tt.expectedChange {
				assert.Nil(t, change, "expected no change but got one")
				return
			}
			require.NotNil(t, change, "expected change but got nil")
			assert.Equal(t, tt.expectedType, change.Type)
			assert.Equal(t, eventPath, change.Path)
			assert.Equal(t, testNamespace, change.Document.Namespace)
			if tt.expectedType != ChangeDeleted {
				assert.NotEmpty(t, change.Document.Content)
			}
		})
	}

	t.Run("combined operations", func(t *testing.T) {
		tempDir := t.TempDir()
		testFile := filepath.Join(tempDir, "test.txt")
		require.NoError(t, os.WriteFile(testFile, []byte("content"), 0644))

		change := New(tempDir, testNamespace).handleFsEvent(fsnotify.Event{
			Name: testFile,
			Op:   fsnotify.Write | fsnotify.Chmod,
		})

		require.NotNil(t, change)
		assert.Equal(t, ChangeUpdated, change.Type)
	})
}
