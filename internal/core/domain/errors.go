package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or backend type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured
	// or could not be reached.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Configuration Errors.

	// ErrSourceNotFound indicates the source directory does not exist.
	ErrSourceNotFound = errors.New("source directory not found")

	// ErrIndexNotFound indicates the persisted index is missing.
	// Ingestion must run before retrieval.
	ErrIndexNotFound = errors.New("index not found, run ingestion first")

	// ErrCollectionNotFound indicates the vector collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrEmbeddingMismatch indicates the persisted index was built with a
	// different embedding model or dimensionality.
	ErrEmbeddingMismatch = errors.New("embedding model mismatch")

	// ErrDimensionMismatch indicates a vector does not match the collection size.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrNoDocuments indicates ingestion found nothing to index.
	ErrNoDocuments = errors.New("no documents found to ingest")

	// Lifecycle Errors.

	// ErrNotLoaded indicates the index has not finished loading.
	ErrNotLoaded = errors.New("index not loaded")

	// ErrAlreadyLoaded indicates Load was called on a loaded service.
	ErrAlreadyLoaded = errors.New("index already loaded")

	// Request Errors.

	// ErrEmptyQuery indicates a blank retrieval query.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidTopK indicates top_k is outside the allowed bounds.
	ErrInvalidTopK = errors.New("top_k out of range")

	// Ingestion Item Errors.

	// ErrMalformedFrontmatter indicates a frontmatter block that could not be parsed.
	ErrMalformedFrontmatter = errors.New("malformed frontmatter")

	// ErrNotUTF8 indicates a file whose content is not valid UTF-8 text.
	ErrNotUTF8 = errors.New("content is not valid UTF-8")
)

// ErrorKind categorises retrieval failures for callers.
type ErrorKind string

// Retrieval error kinds.
const (
	// KindValidation is a client error (4xx equivalent).
	KindValidation ErrorKind = "validation"

	// KindUnavailable means the index is not ready (503 equivalent).
	KindUnavailable ErrorKind = "unavailable"

	// KindInternal is an embedding or index failure (5xx equivalent).
	KindInternal ErrorKind = "internal"
)

// RetrievalError is returned by the retrieval service.
// The original cause is preserved for diagnostics.
type RetrievalError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *RetrievalError) Error() string {
	switch {
	case e.Err == nil:
		return e.Message
	case e.Message == "":
		return e.Err.Error()
	default:
		return e.Message + ": " + e.Err.Error()
	}
}

// Unwrap returns the underlying cause.
func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// NewRetrievalError creates a RetrievalError of the given kind.
func NewRetrievalError(kind ErrorKind, message string, err error) *RetrievalError {
	return &RetrievalError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the retrieval error kind of err.
// Errors that are not RetrievalErrors are reported as KindInternal.
func KindOf(err error) ErrorKind {
	var re *RetrievalError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindInternal
}

// ItemReason explains why a single ingestion item was skipped.
type ItemReason string

// Item failure reasons.
const (
	ReasonRead      ItemReason = "read"
	ReasonDecode    ItemReason = "decode"
	ReasonMalformed ItemReason = "malformed"
)

// ItemError is a recoverable, per-file ingestion failure.
// It never aborts a batch.
type ItemError struct {
	URI    string
	Reason ItemReason
	Err    error
}

// Error implements the error interface.
func (e *ItemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Reason, e.URI, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ItemError) Unwrap() error {
	return e.Err
}

// IsItemError reports whether err is a recoverable per-item failure.
func IsItemError(err error) (*ItemError, bool) {
	var ie *ItemError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
