// Package plaintext normalises plain text notes and transcriptions.
package plaintext

import (
	"strings"

	"github.com/custodia-labs/lineage/internal/core/ports/driven"
	"github.com/custodia-labs/lineage/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".txt", ".text"}
}

// Normalise returns the content with Windows line endings and a leading
// byte order mark removed. The title comes from the file name.
func (n *Normaliser) Normalise(raw []byte, name string) (string, string) {
	content := strings.TrimPrefix(string(raw), "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return normalisers.TitleFromName(name), content
}
