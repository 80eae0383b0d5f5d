package markdown

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
)

// frontmatterPattern matches a leading YAML block delimited by "---" lines.
// The block body may be empty and the closing delimiter may end the file.
var frontmatterPattern = regexp.MustCompile(`(?s)\A---[ \t]*\r?\n(?:(.*?)\r?\n)?---[ \t]*(?:\r?\n|\z)`)

// FrontmatterResult is the outcome of ParseFrontmatter.
type FrontmatterResult struct {
	// Metadata is the decoded block. Never nil.
	Metadata map[string]any

	// Body is the text following the block, or the whole input when no
	// block was found.
	Body string

	// Found reports whether a delimited block was located.
	Found bool

	// Err wraps domain.ErrMalformedFrontmatter when the block could not be
	// decoded. It is a warning: Body is still usable.
	Err error
}

// ParseFrontmatter splits a leading frontmatter block from content.
// Text without a block at the very start is returned unchanged.
func ParseFrontmatter(content string) FrontmatterResult {
	loc := frontmatterPattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return FrontmatterResult{Metadata: map[string]any{}, Body: content}
	}

	result := FrontmatterResult{
		Metadata: map[string]any{},
		Body:     content[loc[1]:],
		Found:    true,
	}

	var block string
	if loc[2] >= 0 {
		block = content[loc[2]:loc[3]]
	}

	meta, err := decodeBlock(block)
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", domain.ErrMalformedFrontmatter, err)
		return result
	}
	result.Metadata = meta
	return result
}

// decodeBlock decodes YAML into a string-keyed map.
// An empty or null document decodes to an empty map.
func decodeBlock(block string) (map[string]any, error) {
	var raw any
	if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
		return nil, err
	}

	switch v := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a mapping, got %T", raw)
	}
}
