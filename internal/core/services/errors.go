package services

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

// asUpstream tags err with the operation and item it came from, unless it
// already belongs to the taxonomy.
func asUpstream(op, itemID string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrUpstream) ||
		errors.Is(err, domain.ErrDataIntegrity) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrConfiguration) {
		return err
	}
	return &domain.UpstreamError{Op: op, ItemID: itemID, Err: err}
}

// checkEmbedding rejects a nil or zero-length vector reported as success.
func checkEmbedding(itemID string, emb domain.Embedding) error {
	if emb.IsEmpty() {
		return &domain.DataIntegrityError{ItemID: itemID, Reason: "provider returned an empty embedding"}
	}
	return nil
}

// validateTopK rejects non-positive result counts before any backend call.
func validateTopK(topK int) error {
	if topK <= 0 {
		return domain.NewValidationError(fmt.Sprintf("topK must be positive, got %d", topK))
	}
	return nil
}

// outcomeOf names an error's category for metrics.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrValidation):
		return "validation_error"
	case errors.Is(err, domain.ErrConfiguration):
		return "configuration_error"
	case errors.Is(err, domain.ErrDataIntegrity):
		return "data_integrity_error"
	default:
		return "upstream_error"
	}
}

// upstreamOp returns the failed outbound operation, or "" for non-upstream errors.
func upstreamOp(err error) string {
	var up *domain.UpstreamError
	if errors.As(err, &up) {
		return up.Op
	}
	return ""
}
