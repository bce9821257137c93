package sqlite

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
)

// vectorIndex implements driven.VectorIndex over the vectors table.
// Metadata filters run in SQL; cosine scoring runs in Go over the
// filtered rows, which keeps family-scoped queries small.
type vectorIndex struct {
	store      *Store
	collection string
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Upsert stores or replaces a record.
func (v *vectorIndex) Upsert(ctx context.Context, record domain.VectorRecord) error {
	if record.ID == "" {
		return domain.NewValidationError("vector record has no id")
	}
	if record.Embedding.IsEmpty() {
		return &domain.DataIntegrityError{ItemID: record.ID, Reason: "cannot store an empty embedding"}
	}

	metadataJSON, err := json.Marshal(nonNilMetadata(record.Metadata))
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	_, err = v.store.db.ExecContext(ctx, `
		INSERT INTO vectors (collection, id, embedding, dimensions, metadata)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			embedding = excluded.embedding,
			dimensions = excluded.dimensions,
			metadata = excluded.metadata,
			updated_at = CURRENT_TIMESTAMP
	`, v.collection, record.ID, float32SliceToBytes(record.Embedding), len(record.Embedding), string(metadataJSON))
	if err != nil {
		return fmt.Errorf("saving vector: %w", err)
	}
	return nil
}

// Query returns up to topK records matching filter, best first.
// Records of a different dimension than the query are never candidates.
func (v *vectorIndex) Query(
	ctx context.Context, embedding domain.Embedding, topK int, filter domain.MetadataFilter,
) ([]domain.MatchCandidate, error) {
	if topK <= 0 {
		return nil, domain.NewValidationError(fmt.Sprintf("topK must be positive, got %d", topK))
	}

	query, args, err := buildVectorQuery(v.collection, len(embedding), filter)
	if err != nil {
		return nil, err
	}

	rows, err := v.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var candidates []domain.MatchCandidate
	for rows.Next() {
		var (
			id           string
			blob         []byte
			metadataJSON string
		)
		if err := rows.Scan(&id, &blob, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}

		var metadata map[string]string
		if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata for %s: %w", id, err)
		}

		candidates = append(candidates, domain.MatchCandidate{
			ID:       id,
			Score:    domain.CosineSimilarity(embedding, bytesToFloat32Slice(blob)),
			Metadata: metadata,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	domain.SortCandidates(candidates)
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (v *vectorIndex) Delete(ctx context.Context, id string) error {
	if _, err := v.store.db.ExecContext(ctx,
		"DELETE FROM vectors WHERE collection = ? AND id = ?", v.collection, id); err != nil {
		return fmt.Errorf("deleting vector: %w", err)
	}
	return nil
}

// Close is a no-op; the owning Store holds the connection.
func (v *vectorIndex) Close() error {
	return nil
}

// buildVectorQuery renders the candidate selection for a filter. Keys are
// embedded as quoted JSON path labels and bound as parameters.
func buildVectorQuery(collection string, dims int, filter domain.MetadataFilter) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString("SELECT id, embedding, metadata FROM vectors WHERE collection = ? AND dimensions = ?")
	args := []any{collection, dims}

	for _, key := range filter.Keys() {
		if strings.ContainsAny(key, `"\`) {
			return "", nil, domain.NewValidationError(fmt.Sprintf("invalid metadata key %q", key))
		}
		sb.WriteString(" AND json_extract(metadata, ?) = ?")
		args = append(args, `$."`+key+`"`, filter[key])
	}
	return sb.String(), args, nil
}

func nonNilMetadata(md map[string]string) map[string]string {
	if md == nil {
		return map[string]string{}
	}
	return md
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
