package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is matched by every *ConfigurationError.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnsupportedInput is matched by every *UnsupportedInputError.
	ErrUnsupportedInput = errors.New("unsupported input")

	// ErrIndexSealed is returned when inserting into an index after Seal.
	ErrIndexSealed = errors.New("vector index sealed")

	// ErrDuplicateEntry is returned when one insert carries the same (source, index) twice.
	ErrDuplicateEntry = errors.New("duplicate index entry")

	// ErrNoSources is returned when generation is requested without any source document.
	ErrNoSources = errors.New("no source documents")

	// ErrUnknownTemplate is returned when a template id is not in the catalog.
	ErrUnknownTemplate = errors.New("unknown template")
)

// ConfigurationError reports a missing credential or an invalid parameter.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// EmbeddingServiceError wraps a failed call to the embedding provider.
type EmbeddingServiceError struct {
	Provider   string
	StatusCode int
	Cause      error
}

func (e *EmbeddingServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s embeddings failed (status %d): %v", e.Provider, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("%s embeddings failed: %v", e.Provider, e.Cause)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Cause }

// RateLimited reports whether the provider rejected the call for quota reasons.
func (e *EmbeddingServiceError) RateLimited() bool { return e.StatusCode == 429 }

// DimensionMismatchError reports a vector whose length differs from the established one.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// UnsupportedInputError reports a document the pipeline cannot handle.
type UnsupportedInputError struct {
	Name   string
	Reason string
}

func (e *UnsupportedInputError) Error() string {
	return fmt.Sprintf("unsupported input %q: %s", e.Name, e.Reason)
}

func (e *UnsupportedInputError) Is(target error) bool { return target == ErrUnsupportedInput }

// GenerationError wraps a failed call to the text generation provider.
type GenerationError struct {
	Provider   string
	StatusCode int
	Cause      error
}

func (e *GenerationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s generation failed (status %d): %v", e.Provider, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("%s generation failed: %v", e.Provider, e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }
