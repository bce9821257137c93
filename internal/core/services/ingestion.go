package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
	"github.com/custodia-labs/lineage/internal/core/ports/driving"
	"github.com/custodia-labs/lineage/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// IngestionService embeds content chunks and persists them in the vector index.
// A batch is all-or-first-failure: the first chunk (in input order) that cannot
// be embedded or stored aborts the rest of the batch.
type IngestionService struct {
	registry       driven.EmbeddingRegistry
	index          driven.VectorIndex
	providerID     string
	chunker        driven.Chunker
	metrics        driven.Metrics
	maxConcurrency int
}

// NewIngestionService creates a new ingestion service.
// providerID is resolved against the registry on every call.
func NewIngestionService(
	registry driven.EmbeddingRegistry,
	index driven.VectorIndex,
	providerID string,
) *IngestionService {
	return &IngestionService{
		registry:       registry,
		index:          index,
		providerID:     providerID,
		metrics:        driven.NopMetrics{},
		maxConcurrency: 1,
	}
}

// SetChunker sets the chunker used by IngestDocument.
func (s *IngestionService) SetChunker(c driven.Chunker) {
	s.chunker = c
}

// SetMetrics sets the metrics sink.
func (s *IngestionService) SetMetrics(m driven.Metrics) {
	if m == nil {
		m = driven.NopMetrics{}
	}
	s.metrics = m
}

// SetMaxConcurrency bounds how many chunks are embedded at once. Values below 1 mean 1.
func (s *IngestionService) SetMaxConcurrency(n int) {
	if n < 1 {
		n = 1
	}
	s.maxConcurrency = n
}

// Ingest embeds and upserts every chunk.
func (s *IngestionService) Ingest(ctx context.Context, chunks []domain.ContentChunk) error {
	start := time.Now()
	err := s.ingest(ctx, chunks)
	s.metrics.ObserveIngest(outcomeOf(err), len(chunks), time.Since(start))
	if err != nil {
		if op := upstreamOp(err); op != "" {
			s.metrics.ObserveUpstreamError(op)
		}
		logger.Warn("Ingestion aborted: %v", err)
	}
	return err
}

func (s *IngestionService) ingest(ctx context.Context, chunks []domain.ContentChunk) error {
	logger.Section("Ingestion")

	// 1. Reject an empty batch before touching any provider or backend.
	if len(chunks) == 0 {
		return domain.NewValidationError("no content items provided")
	}
	for i := range chunks {
		if strings.TrimSpace(chunks[i].ID) == "" {
			return domain.NewValidationError(fmt.Sprintf("content item at position %d has no id", i))
		}
	}

	// 2. Resolve the generator; failure aborts the whole batch.
	gen, err := s.registry.Resolve(s.providerID)
	if err != nil {
		return err
	}
	logger.Debug("Ingesting %d chunks with %s (%d dims)", len(chunks), gen.ModelName(), gen.Dimensions())

	// 3-4. Embed (possibly concurrently), upsert strictly in input order.
	embeddings := make([]domain.Embedding, len(chunks))
	failed, err := failFast(ctx, len(chunks), s.maxConcurrency,
		func(ctx context.Context, i int) error {
			id := chunks[i].ID
			emb, err := gen.Generate(ctx, chunks[i].Unit())
			if err != nil {
				return asUpstream("embed", id, err)
			}
			if err := checkEmbedding(id, emb); err != nil {
				return err
			}
			embeddings[i] = emb
			return nil
		},
		func(ctx context.Context, i int) error {
			id := chunks[i].ID
			if err := ctx.Err(); err != nil {
				return &domain.UpstreamError{Op: "upsert", ItemID: id, Err: err}
			}
			if err := s.index.Upsert(ctx, chunks[i].Record(embeddings[i])); err != nil {
				return asUpstream("upsert", id, err)
			}
			logger.Debug("Upserted chunk %s", id)
			return nil
		},
	)
	if err != nil {
		// Items skipped after cancellation carry the bare context error.
		return asUpstream("embed", chunks[failed].ID, err)
	}

	// 5. Every chunk embedded and stored.
	logger.Info("Ingested %d chunks", len(chunks))
	return nil
}

// IngestDocument splits a document with the configured chunker and ingests the chunks.
func (s *IngestionService) IngestDocument(ctx context.Context, doc domain.SourceDocument) (int, error) {
	if s.chunker == nil {
		return 0, domain.NewValidationError("document chunking is not configured")
	}
	if strings.TrimSpace(doc.ID) == "" {
		return 0, domain.NewValidationError("document has no id")
	}

	chunks := s.chunker.Split(doc)
	if err := s.Ingest(ctx, chunks); err != nil {
		return 0, fmt.Errorf("ingest document %s: %w", doc.ID, err)
	}
	return len(chunks), nil
}
