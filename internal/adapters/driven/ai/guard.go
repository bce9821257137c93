package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
)

// guardedGenerator enforces the embedding contract on top of a provider:
// a successful call yields a non-empty vector whose length never changes.
// Provider failures are classified as upstream errors for the item.
type guardedGenerator struct {
	inner   driven.EmbeddingGenerator
	limiter *rate.Limiter

	mu       sync.Mutex
	observed int
}

func newGuardedGenerator(inner driven.EmbeddingGenerator, limiter *rate.Limiter) *guardedGenerator {
	return &guardedGenerator{inner: inner, limiter: limiter}
}

func (g *guardedGenerator) Generate(ctx context.Context, unit domain.ContentUnit) (domain.Embedding, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, &domain.UpstreamError{Op: "embed", ItemID: unit.ID, Err: err}
		}
	}

	emb, err := g.inner.Generate(ctx, unit)
	if err != nil {
		if errors.Is(err, domain.ErrDataIntegrity) || errors.Is(err, domain.ErrUpstream) {
			return nil, err
		}
		return nil, &domain.UpstreamError{Op: "embed", ItemID: unit.ID, Err: err}
	}
	if emb.IsEmpty() {
		return nil, &domain.DataIntegrityError{ItemID: unit.ID, Reason: "provider returned an empty embedding"}
	}
	if err := g.checkDimensions(unit.ID, len(emb)); err != nil {
		return nil, err
	}
	return emb, nil
}

// checkDimensions pins the first observed length, or the provider's declared
// one, and rejects any later deviation.
func (g *guardedGenerator) checkDimensions(itemID string, n int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	want := g.observed
	if want == 0 {
		want = g.inner.Dimensions()
	}
	if want == 0 {
		g.observed = n
		return nil
	}
	if n != want {
		return &domain.DataIntegrityError{
			ItemID: itemID,
			Reason: fmt.Sprintf("dimension drift: got %d, want %d", n, want),
		}
	}
	g.observed = want
	return nil
}

func (g *guardedGenerator) Dimensions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.observed > 0 {
		return g.observed
	}
	return g.inner.Dimensions()
}

func (g *guardedGenerator) ModelName() string {
	return g.inner.ModelName()
}

func (g *guardedGenerator) Close() error {
	return g.inner.Close()
}
