package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the builder, the search service and the stores.
var (
	// ErrSourceNotFound means the input file or collection does not exist.
	ErrSourceNotFound = errors.New("source not found")
	// ErrEmptySource means the input exists but holds zero records.
	ErrEmptySource = errors.New("source contains no records")
	// ErrResourceNotFound means an index or sidecar artifact is missing.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrEnrichmentUnavailable means the record store could not serve hydration.
	ErrEnrichmentUnavailable = errors.New("enrichment unavailable")
	ErrRecordNotFound        = errors.New("record not found")
	ErrInvalidTopK           = errors.New("top_k must be positive")
	ErrBuildInProgress       = errors.New("index build already in progress")
)

// ArtifactError reports a failed step while persisting or loading artifacts.
type ArtifactError struct {
	Op      string
	Path    string
	Wrapped error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("artifact %s %s: %v", e.Op, e.Path, e.Wrapped)
}

func (e *ArtifactError) Unwrap() error { return e.Wrapped }

// NewArtifactError creates an ArtifactError.
func NewArtifactError(op, path string, wrapped error) *ArtifactError {
	return &ArtifactError{Op: op, Path: path, Wrapped: wrapped}
}
