// Package filesystem reads family history documents from a local directory
// tree and watches it for changes.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/logger"
	"github.com/custodia-labs/lineage/internal/normalisers"
	"github.com/custodia-labs/lineage/internal/normalisers/html"
	"github.com/custodia-labs/lineage/internal/normalisers/markdown"
	"github.com/custodia-labs/lineage/internal/normalisers/plaintext"
)

// MaxFileSize is the largest file read as a document.
const MaxFileSize = 10 << 20

// ErrClosed is returned when a closed connector is asked to watch.
var ErrClosed = errors.New("filesystem: connector is closed")

// ChangeType classifies a watched file change.
type ChangeType int

const (
	// ChangeCreated is a new file.
	ChangeCreated ChangeType = iota
	// ChangeUpdated is a rewritten file.
	ChangeUpdated
	// ChangeDeleted is a removed or renamed-away file.
	ChangeDeleted
)

// String returns the string representation.
func (t ChangeType) String() string {
	switch t {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Change is one file event. Document content is empty for deletions.
type Change struct {
	Type     ChangeType
	Path     string
	Document domain.SourceDocument
}

// DefaultNormalisers returns the normalisers for every supported text format.
func DefaultNormalisers() *normalisers.Registry {
	return normalisers.NewRegistry(plaintext.New(), markdown.New(), html.New())
}

// Connector turns the text files under rootPath into source documents.
// Files whose extension has no normaliser are ignored.
type Connector struct {
	rootPath    string
	namespace   domain.Namespace
	normalisers *normalisers.Registry

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// New creates a connector for rootPath. Every document it produces carries namespace.
func New(rootPath string, namespace domain.Namespace) *Connector {
	return &Connector{
		rootPath:    rootPath,
		namespace:   namespace,
		normalisers: DefaultNormalisers(),
	}
}

// RootPath returns the watched directory.
func (c *Connector) RootPath() string {
	return c.rootPath
}

// FullSync walks the tree and emits a document per readable text file.
// Both channels are closed when the walk ends.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.SourceDocument, <-chan error) {
	docs := make(chan domain.SourceDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if err := c.checkRoot(); err != nil {
			errs <- err
			return
		}

		err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("filesystem: skipping %s: %v", path, err)
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if path != c.rootPath && isHidden(c.relative(path)) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !c.isTextFile(path) {
				return nil
			}

			doc, ok := c.readDocument(path)
			if !ok {
				return nil
			}
			select {
			case docs <- doc:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			errs <- fmt.Errorf("walk %s: %w", c.rootPath, err)
		}
	}()

	return docs, errs
}

// Watch reports file changes under the root until ctx is cancelled.
// New subdirectories are watched as they appear.
func (c *Connector) Watch(ctx context.Context) (<-chan Change, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if err := c.checkRoot(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := c.addTree(watcher, c.rootPath); err != nil {
		watcher.Close() //nolint:errcheck // already failing
		return nil, err
	}
	if c.watcher != nil {
		c.watcher.Close() //nolint:errcheck // replaced
	}
	c.watcher = watcher

	changes := make(chan Change)
	go func() {
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) && isDir(event.Name) && !isHidden(c.relative(event.Name)) {
					if err := c.addTree(watcher, event.Name); err != nil {
						logger.Warn("filesystem: watch %s: %v", event.Name, err)
					}
					continue
				}
				change := c.handleFsEvent(event)
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("filesystem: watcher error: %v", err)
			}
		}
	}()

	return changes, nil
}

// Close stops watching. Safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.watcher == nil {
		return nil
	}
	err := c.watcher.Close()
	c.watcher = nil
	return err
}

// handleFsEvent maps a raw event to a change. Returns nil for events that do
// not affect documents.
func (c *Connector) handleFsEvent(event fsnotify.Event) *Change {
	if isHidden(c.relative(event.Name)) || !c.isTextFile(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &Change{
			Type:     ChangeDeleted,
			Path:     event.Name,
			Document: domain.SourceDocument{ID: c.documentID(event.Name), Namespace: c.namespace},
		}
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if isDir(event.Name) {
			return nil
		}
		doc, ok := c.readDocument(event.Name)
		if !ok {
			return nil
		}
		kind := ChangeUpdated
		if event.Has(fsnotify.Create) {
			kind = ChangeCreated
		}
		return &Change{Type: kind, Path: event.Name, Document: doc}
	default:
		return nil
	}
}

func (c *Connector) readDocument(path string) (domain.SourceDocument, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return domain.SourceDocument{}, false
	}
	if info.Size() > MaxFileSize {
		logger.Warn("filesystem: skipping %s: %d bytes exceeds limit", path, info.Size())
		return domain.SourceDocument{}, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("filesystem: read %s: %v", path, err)
		return domain.SourceDocument{}, false
	}
	if !utf8.Valid(data) {
		logger.Warn("filesystem: skipping %s: not UTF-8 text", path)
		return domain.SourceDocument{}, false
	}

	n, _ := c.normalisers.For(path)
	title, content := n.Normalise(data, filepath.Base(path))
	return domain.SourceDocument{
		ID:        c.documentID(path),
		Title:     title,
		Content:   content,
		Namespace: c.namespace,
	}, true
}

// documentID is the slash-separated path relative to the root, so ids survive
// moving the whole tree.
func (c *Connector) documentID(path string) string {
	return filepath.ToSlash(c.relative(path))
}

func (c *Connector) relative(path string) string {
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		return path
	}
	return rel
}

func (c *Connector) checkRoot() error {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("root path error: %s does not exist", c.rootPath)
		}
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", c.rootPath)
	}
	return nil
}

func (c *Connector) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable subtrees are skipped
		}
		if !d.IsDir() {
			return nil
		}
		if path != c.rootPath && isHidden(c.relative(path)) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (c *Connector) isTextFile(path string) bool {
	_, ok := c.normalisers.For(path)
	return ok
}

// isHidden reports whether any path component starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}
