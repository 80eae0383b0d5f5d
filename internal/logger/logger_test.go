package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func reset(t *testing.T) *bytes.Buffer {
	t.Helper()
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	var buf bytes.Buffer
	SetOutput(&buf)
	return &buf
}

func TestSetVerbose(t *testing.T) {
	reset(t)

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	buf := reset(t)
	SetVerbose(true)

	Debug("test message %s", "arg")

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), `msg="test message arg"`)
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	buf := reset(t)
	SetVerbose(false)

	Debug("test message")

	assert.Zero(t, buf.Len())
}

func TestSection(t *testing.T) {
	buf := reset(t)

	Section("Hidden")
	assert.Zero(t, buf.Len())

	SetVerbose(true)
	Section("Retrieval")
	assert.Equal(t, "\n=== Retrieval ===\n", buf.String())
}

func TestInfoWarnError_AlwaysWritten(t *testing.T) {
	tests := []struct {
		name  string
		log   func(string, ...any)
		level string
	}{
		{"info", Info, "level=INFO"},
		{"warn", Warn, "level=WARN"},
		{"error", Error, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := reset(t)
			SetVerbose(false)

			tt.log("loaded %d documents", 3)

			assert.Contains(t, buf.String(), tt.level)
			assert.Contains(t, buf.String(), "loaded 3 documents")
		})
	}
}

func TestWith_AddsAttributes(t *testing.T) {
	buf := reset(t)

	With("collection", "vault_md").Info("ready")

	assert.Contains(t, buf.String(), "collection=vault_md")
	assert.Contains(t, buf.String(), "msg=ready")
}
