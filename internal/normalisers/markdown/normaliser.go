package markdown

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/core/ports/driven"
	"github.com/custodia-labs/vault-rag/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MIME types handled by the normaliser.
const (
	MIMEMarkdown  = "text/markdown"
	MIMEXMarkdown = "text/x-markdown"
	MIMEMDX       = "text/mdx"
)

// Normaliser handles Markdown documents.
// It strips a leading frontmatter block and turns it into metadata.
// The body is kept byte-exact so chunk offsets refer to the file text.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEMarkdown, MIMEXMarkdown, MIMEMDX}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts a markdown file into a document.
// Malformed frontmatter is reported as a warning, never an error.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	fm := ParseFrontmatter(string(raw.Content))

	var warnings []error
	if fm.Err != nil {
		logger.Warn("Failed to parse frontmatter in %s: %v", raw.URI, fm.Err)
		warnings = append(warnings, &domain.ItemError{
			URI:    raw.URI,
			Reason: domain.ReasonMalformed,
			Err:    fm.Err,
		})
	}

	name := filepath.Base(raw.URI)
	doc := domain.Document{
		ID:       DocumentID(raw.URI),
		URI:      raw.URI,
		FileName: name,
		FileStem: strings.TrimSuffix(name, filepath.Ext(name)),
		Content:  fm.Body,
		Metadata: NormaliseMetadata(fm.Metadata, raw.URI),
	}

	return &driven.NormaliseResult{
		Document: doc,
		Warnings: warnings,
	}, nil
}

// DocumentID derives a stable document ID from its source path.
func DocumentID(uri string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(uri)).String()
}
