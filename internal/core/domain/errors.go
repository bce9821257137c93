package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every error produced by the pipelines matches exactly one
// of these via errors.Is.
var (
	// ErrValidation indicates a caller mistake (empty batch, non-positive topK).
	ErrValidation = errors.New("validation failed")

	// ErrConfiguration indicates an unrecognised provider or backend identifier.
	ErrConfiguration = errors.New("configuration error")

	// ErrUpstream indicates an outbound call to a provider, backend or detector failed.
	ErrUpstream = errors.New("upstream call failed")

	// ErrDataIntegrity indicates a provider claimed success but returned unusable data.
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedContent indicates a generator cannot embed the given content modality.
	ErrUnsupportedContent = errors.New("unsupported content")
)

// ValidationError reports a caller mistake. Always fatal to the whole call.
type ValidationError struct {
	Reason string
}

// NewValidationError creates a ValidationError with the given reason.
func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConfigurationError reports an identifier that maps to no known variant.
// The message always contains the offending identifier verbatim.
type ConfigurationError struct {
	// Component names what was being selected, e.g. "embedding provider".
	Component string

	// ID is the identifier exactly as supplied.
	ID string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unsupported %s: %s", e.Component, e.ID)
}

// Is matches ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// UpstreamError wraps a failed outbound call.
type UpstreamError struct {
	// Op is the outbound operation: "embed", "upsert", "query", "detect", "lookup".
	Op string

	// ItemID is the chunk or face the call was made for. Empty for whole-call operations.
	ItemID string

	// Err is the originating error.
	Err error
}

func (e *UpstreamError) Error() string {
	if e.ItemID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ItemID, e.Err)
}

// Is matches ErrUpstream.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// Unwrap exposes the originating error, e.g. context.DeadlineExceeded.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// DataIntegrityError reports a successful provider call with an unusable result.
type DataIntegrityError struct {
	ItemID string
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity: %s: %s", e.ItemID, e.Reason)
}

// Is matches ErrDataIntegrity.
func (e *DataIntegrityError) Is(target error) bool {
	return target == ErrDataIntegrity
}

// ItemIDOf returns the chunk or face id carried by err, if any.
func ItemIDOf(err error) string {
	var up *UpstreamError
	if errors.As(err, &up) {
		return up.ItemID
	}
	var di *DataIntegrityError
	if errors.As(err, &di) {
		return di.ItemID
	}
	return ""
}
