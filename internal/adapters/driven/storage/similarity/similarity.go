// Package similarity holds the exact nearest-neighbour ranking shared by the
// in-process vector index adapters.
package similarity

import (
	"math"
	"sort"

	"github.com/custodia-labs/vault-rag/internal/core/ports/driven"
)

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Zero vectors and vectors of different length score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TopK orders hits by descending similarity and keeps at most k.
// Hits must be supplied in insertion order; ties keep that order.
func TopK(hits []driven.VectorHit, k int) []driven.VectorHit {
	if k <= 0 {
		return nil
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
