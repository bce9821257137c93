package normalisers

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/lineage/internal/core/ports/driven"
)

// Registry selects a normaliser by file extension.
// A later normaliser claiming the same extension replaces an earlier one.
type Registry struct {
	byExt map[string]driven.Normaliser
}

// NewRegistry creates a registry holding the given normalisers.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{byExt: make(map[string]driven.Normaliser)}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Register adds n for every extension it handles.
func (r *Registry) Register(n driven.Normaliser) {
	for _, ext := range n.Extensions() {
		r.byExt[strings.ToLower(ext)] = n
	}
}

// For returns the normaliser for path's extension.
func (r *Registry) For(path string) (driven.Normaliser, bool) {
	n, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return n, ok
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
