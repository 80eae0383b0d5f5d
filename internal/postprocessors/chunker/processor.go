// Package chunker provides a boundary-aware text chunking processor.
//
// Sizes are measured in bytes of UTF-8 text. Chunks never split a rune.
// Split points prefer Markdown block and paragraph breaks, then sentence
// ends, then whitespace; the chunk size is a hard ceiling that forces a
// mid-word cut when no boundary is available.
package chunker

import (
	"context"
	"strconv"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
)

// DefaultChunkSize is the default number of bytes per chunk.
const DefaultChunkSize = 800

// DefaultChunkOverlap is the default number of overlapping bytes.
const DefaultChunkOverlap = 100

// Processor splits document content into overlapping chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk size in bytes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in bytes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured maximum chunk size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc.Content == "" {
		// Empty content produces no chunks
		return nil, nil
	}

	spans, err := p.split(ctx, doc.Content)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.Chunk, 0, len(spans))
	for i, s := range spans {
		chunks = append(chunks, domain.Chunk{
			ID:         ChunkID(doc, i),
			DocumentID: doc.ID,
			Content:    doc.Content[s.start:s.end],
			Position:   i,
			Start:      s.start,
			End:        s.end,
			Metadata:   doc.Metadata,
		})
	}

	return chunks, nil
}

// ChunkID derives a deterministic chunk ID from the document source and
// position, so re-ingesting unchanged content yields the same IDs.
func ChunkID(doc *domain.Document, position int) string {
	key := doc.URI
	if key == "" {
		key = doc.ID
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key+"#"+strconv.Itoa(position))).String()
}

type span struct {
	start, end int
}

// split computes chunk spans over content.
func (p *Processor) split(ctx context.Context, content string) ([]span, error) {
	n := len(content)
	if n <= p.chunkSize {
		return []span{{0, n}}, nil
	}

	kinds := boundaries(content)
	minAdvance := max(p.chunkSize/2, p.overlap+1)

	spans := make([]span, 0, n/(p.chunkSize-p.overlap)+1)
	start, prevEnd := 0, 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if n-start <= p.chunkSize {
			spans = append(spans, span{start, n})
			return spans, nil
		}

		// Every chunk must reach past the previous one.
		limit := start + p.chunkSize
		end := bestBoundary(kinds, max(start+minAdvance, prevEnd+1), limit)
		if end < 0 {
			end = runeFloor(content, limit)
			if end <= prevEnd && start < prevEnd {
				// No room for new text after the overlap; drop it for this chunk.
				start = prevEnd
				continue
			}
			if end <= start {
				_, size := utf8.DecodeRuneInString(content[start:])
				end = start + size
			}
		}
		spans = append(spans, span{start, end})
		prevEnd = end

		next := runeFloor(content, end-p.overlap)
		if next <= start {
			next = end
		}
		start = next
	}
}

// bestBoundary returns the offset in [lo, hi] with the strongest boundary,
// preferring the largest offset among equals. Returns -1 if there is none.
func bestBoundary(kinds []boundaryKind, lo, hi int) int {
	best, bestKind := -1, kindNone
	for i := hi; i >= lo; i-- {
		if k := kinds[i]; k > bestKind {
			best, bestKind = i, k
			if k == kindParagraph {
				break
			}
		}
	}
	return best
}

// runeFloor moves off back to the nearest rune start.
func runeFloor(s string, off int) int {
	if off >= len(s) {
		return len(s)
	}
	if off <= 0 {
		return 0
	}
	for off > 0 && !utf8.RuneStart(s[off]) {
		off--
	}
	return off
}
