// Package hashing provides an in-process embedding generator that needs no
// model server. Text is embedded by signed feature hashing of word unigrams
// and bigrams; images are embedded as a mean-centred grayscale thumbnail.
// Both are L2-normalised, so cosine scores are comparable with other providers.
package hashing

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/disintegration/imaging"

	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
)

// Ensure Generator implements the interface.
var _ driven.EmbeddingGenerator = (*Generator)(nil)

// DefaultDimensions is the vector size when none is configured.
const DefaultDimensions = domain.DefaultHashingDimensions

// ModelName is reported for every hashing generator.
const ModelName = "feature-hashing-v1"

// Config holds configuration for the hashing generator.
type Config struct {
	// Dimensions is the vector size (default: 256). Image embeddings use the
	// largest square grid that fits; remaining components are zero.
	Dimensions int
}

// Generator embeds text and images deterministically.
type Generator struct {
	dimensions int
	side       int
}

// NewGenerator creates a new hashing generator.
func NewGenerator(cfg Config) *Generator {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	return &Generator{
		dimensions: cfg.Dimensions,
		side:       int(math.Sqrt(float64(cfg.Dimensions))),
	}
}

// Generate embeds text or image content. Descriptors are rejected.
func (g *Generator) Generate(ctx context.Context, unit domain.ContentUnit) (domain.Embedding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch unit.Modality() {
	case domain.ModalityText:
		return g.embedText(unit.Text), nil
	case domain.ModalityImage:
		return g.embedImage(unit.Image)
	default:
		return nil, fmt.Errorf("hashing: cannot embed %s content", unit.Modality())
	}
}

func (g *Generator) embedText(text string) domain.Embedding {
	vec := make(domain.Embedding, g.dimensions)
	tokens := Tokenize(text)

	for i, tok := range tokens {
		g.addFeature(vec, tok)
		if i > 0 {
			g.addFeature(vec, tokens[i-1]+" "+tok)
		}
	}
	return vec.Normalized()
}

// addFeature adds ±1 at the feature's hashed position; the sign bit keeps
// collisions from biasing the dot product.
func (g *Generator) addFeature(vec domain.Embedding, feature string) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	idx := int(sum % uint64(g.dimensions))
	if sum>>63 == 1 {
		vec[idx]--
	} else {
		vec[idx]++
	}
}

func (g *Generator) embedImage(data []byte) (domain.Embedding, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("hashing: decode image: %w", err)
	}

	thumb := imaging.Grayscale(imaging.Resize(img, g.side, g.side, imaging.Box))

	n := g.side * g.side
	pixels := make([]float64, n)
	var mean float64
	for y := 0; y < g.side; y++ {
		for x := 0; x < g.side; x++ {
			v := float64(thumb.Pix[y*thumb.Stride+x*4])
			pixels[y*g.side+x] = v
			mean += v
		}
	}
	mean /= float64(n)

	vec := make(domain.Embedding, g.dimensions)
	for i, v := range pixels {
		vec[i] = float32(v - mean)
	}
	return vec.Normalized(), nil
}

// Tokenize lower-cases text and splits it on anything that is not a letter or digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Dimensions returns the embedding vector size.
func (g *Generator) Dimensions() int {
	return g.dimensions
}

// ModelName returns the name of the embedding model being used.
func (g *Generator) ModelName() string {
	return ModelName
}

// Close releases resources.
func (g *Generator) Close() error {
	return nil
}
