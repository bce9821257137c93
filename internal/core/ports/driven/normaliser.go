package driven

// Normaliser converts a file's raw content into plain text ready for chunking.
// Each normaliser handles specific file extensions (e.g., Markdown, HTML).
type Normaliser interface {
	// Extensions returns the lower-case extensions handled, with leading dot.
	Extensions() []string

	// Normalise returns the document title and plain-text content.
	// name is the file's base name, used when the content carries no title.
	Normalise(raw []byte, name string) (title, content string)
}
