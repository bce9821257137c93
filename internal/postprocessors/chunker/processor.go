// Package chunker provides a fixed-size text chunker for source documents.
package chunker

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// chunkNamespace seeds chunk ids so they are stable across runs.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("lineage:content-chunk"))

// Processor splits document content into fixed-size, overlapping chunks.
// Sizes count characters, not bytes, so multi-byte names are never cut in half.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// ChunkID returns the id of the chunk at position within a document.
func ChunkID(docID string, position int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(docID+"#"+strconv.Itoa(position))).String()
}

// Split cuts the document into chunks carrying the document's namespace.
// Whitespace-only content produces no chunks.
func (p *Processor) Split(doc domain.SourceDocument) []domain.ContentChunk {
	if strings.TrimSpace(doc.Content) == "" {
		return nil
	}

	content := []rune(doc.Content)
	n := len(content)
	step := p.chunkSize - p.overlap

	chunks := make([]domain.ContentChunk, 0, n/step+1)
	for start := 0; start < n; {
		end := start + p.chunkSize
		if end >= n {
			end = n
		} else {
			end = softEnd(content, start, end, step)
		}

		text := strings.TrimSpace(string(content[start:end]))
		if text != "" {
			chunks = append(chunks, domain.ContentChunk{
				ID:        ChunkID(doc.ID, len(chunks)),
				Content:   text,
				Namespace: doc.Namespace,
			})
		}

		if end == n {
			break
		}
		next := end - p.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// softEnd moves a hard cut back to the nearest whitespace, but never by more
// than a fifth of the step, so chunks stay close to the configured size.
func softEnd(content []rune, start, end, step int) int {
	limit := end - step/5
	if limit <= start {
		return end
	}
	for i := end; i > limit; i-- {
		if unicode.IsSpace(content[i-1]) {
			return i
		}
	}
	return end
}
