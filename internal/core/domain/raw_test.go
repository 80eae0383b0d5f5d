package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangeType_String(t *testing.T) {
	tests := []struct {
		change ChangeType
		want   string
	}{
		{ChangeCreated, "created"},
		{ChangeUpdated, "updated"},
		{ChangeDeleted, "deleted"},
		{ChangeType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.change.String())
		})
	}
}

func TestRawDocument_Fields(t *testing.T) {
	raw := RawDocument{
		URI:      "/vault/a.md",
		MIMEType: "text/markdown",
		Content:  []byte("hello"),
	}

	assert.Equal(t, "/vault/a.md", raw.URI)
	assert.Equal(t, "text/markdown", raw.MIMEType)
	assert.Equal(t, []byte("hello"), raw.Content)
}
