// Package milvus provides a vector index backed by a Milvus collection.
package milvus

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
	"github.com/custodia-labs/lineage/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Collection schema fields.
const (
	FieldID        = "id"
	FieldEmbedding = "embedding"
	FieldMetadata  = "metadata"
)

// DefaultCollection is used when Config.Collection is empty.
const DefaultCollection = "lineage_vectors"

const maxIDLength = 512

// Config holds connection and collection settings.
type Config struct {
	// Address is the Milvus gRPC endpoint, e.g. "localhost:19530".
	Address string

	// Collection holds the records. Created with an HNSW index when missing.
	Collection string

	// Dimensions is the width of the vector field. Required.
	Dimensions int
}

// Index stores records in one collection and ranks them by cosine similarity.
type Index struct {
	client     client.Client
	collection string
	dims       int
}

// Open connects to Milvus, ensures the collection exists and loads it.
func Open(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("%w: milvus backend requires an address", domain.ErrConfiguration)
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: milvus backend requires vector_index.dimensions", domain.ErrConfiguration)
	}

	c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
	if err != nil {
		return nil, &domain.UpstreamError{Op: "connect", Err: err}
	}

	idx, err := New(ctx, c, cfg)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	return idx, nil
}

// New wraps an existing client. The collection is created and loaded if needed.
func New(ctx context.Context, c client.Client, cfg Config) (*Index, error) {
	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	x := &Index{client: c, collection: collection, dims: cfg.Dimensions}
	if err := x.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return x, nil
}

func (x *Index) ensureCollection(ctx context.Context) error {
	exists, err := x.client.HasCollection(ctx, x.collection)
	if err != nil {
		return &domain.UpstreamError{Op: "migrate", Err: fmt.Errorf("check collection %s: %w", x.collection, err)}
	}

	if !exists {
		logger.Info("creating milvus collection %s (dim=%d)", x.collection, x.dims)
		if err := x.client.CreateCollection(ctx, collectionSchema(x.collection, x.dims), entity.DefaultShardNumber); err != nil {
			return &domain.UpstreamError{Op: "migrate", Err: fmt.Errorf("create collection %s: %w", x.collection, err)}
		}
		idx, err := entity.NewIndexHNSW(entity.COSINE, 16, 200)
		if err != nil {
			return fmt.Errorf("build index params: %w", err)
		}
		if err := x.client.CreateIndex(ctx, x.collection, FieldEmbedding, idx, false); err != nil {
			return &domain.UpstreamError{Op: "migrate", Err: fmt.Errorf("create index on %s: %w", FieldEmbedding, err)}
		}
	}

	if err := x.client.LoadCollection(ctx, x.collection, false); err != nil {
		return &domain.UpstreamError{Op: "migrate", Err: fmt.Errorf("load collection %s: %w", x.collection, err)}
	}
	return nil
}

func collectionSchema(name string, dims int) *entity.Schema {
	return entity.NewSchema().
		WithName(name).
		WithDescription("lineage embeddings").
		WithField(entity.NewField().WithName(FieldID).WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(maxIDLength).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName(FieldEmbedding).WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(dims))).
		WithField(entity.NewField().WithName(FieldMetadata).WithDataType(entity.FieldTypeJSON))
}

// Upsert inserts or replaces a record.
func (x *Index) Upsert(ctx context.Context, record domain.VectorRecord) error {
	if record.ID == "" {
		return domain.NewValidationError("vector record has no id")
	}
	if len(record.ID) > maxIDLength {
		return domain.NewValidationError(fmt.Sprintf("vector record id longer than %d bytes", maxIDLength))
	}
	if record.Embedding.IsEmpty() {
		return &domain.DataIntegrityError{ItemID: record.ID, Reason: "cannot store an empty embedding"}
	}
	if len(record.Embedding) != x.dims {
		return &domain.DataIntegrityError{
			ItemID: record.ID,
			Reason: fmt.Sprintf("embedding has %d dimensions, collection expects %d", len(record.Embedding), x.dims),
		}
	}

	metadata, err := json.Marshal(nonNil(record.Metadata))
	if err != nil {
		return fmt.Errorf("encode metadata for %s: %w", record.ID, err)
	}

	_, err = x.client.Upsert(ctx, x.collection, "",
		entity.NewColumnVarChar(FieldID, []string{record.ID}),
		entity.NewColumnFloatVector(FieldEmbedding, x.dims, [][]float32{record.Embedding}),
		entity.NewColumnJSONBytes(FieldMetadata, [][]byte{metadata}),
	)
	if err != nil {
		return &domain.UpstreamError{Op: "upsert", ItemID: record.ID, Err: err}
	}
	return nil
}

// Query returns up to topK records matching filter, best first.
// A query vector of a different width than the collection matches nothing.
func (x *Index) Query(
	ctx context.Context, embedding domain.Embedding, topK int, filter domain.MetadataFilter,
) ([]domain.MatchCandidate, error) {
	if topK <= 0 {
		return nil, domain.NewValidationError(fmt.Sprintf("topK must be positive, got %d", topK))
	}
	if len(embedding) != x.dims {
		return nil, nil
	}

	sp, err := entity.NewIndexHNSWSearchParam(max(64, topK))
	if err != nil {
		return nil, fmt.Errorf("build search params: %w", err)
	}

	results, err := x.client.Search(
		ctx, x.collection, []string{}, filterExpression(filter), []string{FieldID, FieldMetadata},
		[]entity.Vector{entity.FloatVector(embedding)},
		FieldEmbedding, entity.COSINE, topK, sp,
	)
	if err != nil {
		return nil, &domain.UpstreamError{Op: "query", Err: err}
	}

	var candidates []domain.MatchCandidate
	for _, res := range results {
		got, err := decodeResult(res)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, got...)
	}

	domain.SortCandidates(candidates)
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

func decodeResult(res client.SearchResult) ([]domain.MatchCandidate, error) {
	if res.Err != nil {
		return nil, &domain.UpstreamError{Op: "query", Err: res.Err}
	}

	findColumn := func(name string) entity.Column {
		for _, field := range res.Fields {
			if field.Name() == name {
				return field
			}
		}
		return nil
	}

	var ids []string
	if col, ok := findColumn(FieldID).(*entity.ColumnVarChar); ok {
		ids = col.Data()
	} else if col, ok := res.IDs.(*entity.ColumnVarChar); ok {
		ids = col.Data()
	} else {
		return nil, &domain.DataIntegrityError{Reason: "search result has no id column"}
	}

	var metadata [][]byte
	if col, ok := findColumn(FieldMetadata).(*entity.ColumnJSONBytes); ok {
		metadata = col.Data()
	}

	out := make([]domain.MatchCandidate, 0, res.ResultCount)
	for i := 0; i < res.ResultCount && i < len(ids) && i < len(res.Scores); i++ {
		c := domain.MatchCandidate{ID: ids[i], Score: float64(res.Scores[i]), Metadata: map[string]string{}}
		if i < len(metadata) && len(metadata[i]) > 0 {
			if err := json.Unmarshal(metadata[i], &c.Metadata); err != nil {
				return nil, &domain.DataIntegrityError{ItemID: c.ID, Reason: "stored metadata is not a string map"}
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// filterExpression renders an equality filter over the JSON metadata field.
// Keys are emitted in sorted order so the expression is stable.
func filterExpression(filter domain.MetadataFilter) string {
	keys := filter.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s[%s] == %s", FieldMetadata, strconv.Quote(k), strconv.Quote(filter[k])))
	}
	return strings.Join(parts, " and ")
}

// Delete removes a record.
func (x *Index) Delete(ctx context.Context, id string) error {
	expr := fmt.Sprintf("%s in [%s]", FieldID, strconv.Quote(id))
	if err := x.client.Delete(ctx, x.collection, "", expr); err != nil {
		return &domain.UpstreamError{Op: "delete", ItemID: id, Err: err}
	}
	return nil
}

// Close closes the client connection.
func (x *Index) Close() error {
	return x.client.Close()
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
