package driven

import (
	"context"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
)

// Normaliser turns a raw vault file into a Document with cleaned content
// and derived metadata.
type Normaliser interface {
	// SupportedMIMETypes lists the MIME types this normaliser accepts.
	SupportedMIMETypes() []string

	// Priority orders normalisers sharing a MIME type. Higher wins.
	Priority() int

	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult is a normalised document plus any recoverable problems,
// such as malformed frontmatter. A result with warnings is still indexed.
type NormaliseResult struct {
	Document domain.Document
	Warnings []error
}

// NormaliserRegistry dispatches a raw file to the highest-priority
// normaliser registered for its MIME type.
type NormaliserRegistry interface {
	// Normalise returns domain.ErrUnsupportedType when no normaliser
	// accepts the file's MIME type.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
	Register(normaliser Normaliser)
	SupportedMIMETypes() []string
}
