package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDocument_Fields tests Document structure fields
func TestDocument_Fields(t *testing.T) {
	doc := Document{
		ID:       "doc-123",
		URI:      "/vault/notes/alpha.md",
		FileName: "alpha.md",
		FileStem: "alpha",
		Content:  "# Alpha\n",
		Metadata: map[string]string{MetadataFileName: "alpha.md"},
	}

	assert.Equal(t, "doc-123", doc.ID)
	assert.Equal(t, "/vault/notes/alpha.md", doc.URI)
	assert.Equal(t, "alpha.md", doc.FileName)
	assert.Equal(t, "alpha", doc.FileStem)
	assert.Equal(t, "alpha.md", doc.Metadata[MetadataFileName])
}

// TestChunk_SharesMetadata tests that chunk metadata is a reference to the
// document map rather than a copy.
func TestChunk_SharesMetadata(t *testing.T) {
	meta := map[string]string{"title": "Alpha"}
	doc := Document{ID: "d", Metadata: meta}
	chunk := Chunk{DocumentID: doc.ID, Metadata: doc.Metadata}

	meta["extra"] = "x"

	assert.Equal(t, "x", chunk.Metadata["extra"])
}

func TestCollection_Matches(t *testing.T) {
	c := Collection{Name: "vault_md", EmbeddingModel: "all-minilm", Dimensions: 384}

	assert.True(t, c.Matches("all-minilm", 384))
	assert.False(t, c.Matches("all-minilm", 768))
	assert.False(t, c.Matches("nomic-embed-text", 384))
}
