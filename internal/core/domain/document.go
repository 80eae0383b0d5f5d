package domain

// Metadata keys injected for every document. They always win over
// frontmatter keys of the same name.
const (
	MetadataFilePath = "file_path"
	MetadataFileName = "file_name"
	MetadataFileStem = "file_stem"
)

// Document represents a parsed source file.
// It is the canonical representation after normalisation and is never
// modified once produced.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the source file path.
	URI string

	// FileName is the base name including extension.
	FileName string

	// FileStem is the base name without extension.
	FileStem string

	// Content is the body text with any frontmatter block removed.
	Content string

	// Metadata holds normalised frontmatter plus the derived file keys.
	// Values are always plain strings.
	Metadata map[string]string
}

// Chunk represents a contiguous slice of a document body.
// Documents are split into chunks for embedding and retrieval.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Start and End are byte offsets of Content within the document body.
	Start int
	End   int

	// Embedding is the vector representation for semantic search.
	Embedding []float32

	// Metadata is the owning document's metadata. It is shared, not copied,
	// and must be treated as read-only.
	Metadata map[string]string
}
