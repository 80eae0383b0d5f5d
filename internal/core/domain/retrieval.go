package domain

// RetrievalMatch is a single ranked chunk returned for a query.
type RetrievalMatch struct {
	// Text is the chunk text.
	Text string `json:"text"`

	// Score is the similarity to the query, never negative.
	// Higher is more relevant.
	Score float64 `json:"score"`

	// Metadata is the chunk's document metadata.
	Metadata map[string]string `json:"metadata"`
}

// RetrievalResponse is the shaped result of a retrieval request.
type RetrievalResponse struct {
	// Matches are in index relevance order, at most top_k long.
	Matches []RetrievalMatch `json:"matches"`

	// Query echoes the request query.
	Query string `json:"query"`

	// TotalMatches equals len(Matches).
	TotalMatches int `json:"total_matches"`

	// Sources lists the unique file names among Matches, sorted.
	Sources []string `json:"sources"`
}

// Health status values.
const (
	StatusOK       = "ok"
	StatusNotReady = "not_ready"
)

// HealthStatus describes the readiness of the retrieval service.
type HealthStatus struct {
	// Status is StatusOK only once the index and embedding handles are loaded.
	Status string `json:"status"`

	// Collections lists the collections visible in the vector store.
	Collections []string `json:"collections"`

	// IndexExists reports whether the index manifest directory exists.
	IndexExists bool `json:"index_exists"`

	// ChromaExists reports whether the vector store exists.
	ChromaExists bool `json:"chroma_exists"`

	// EmbeddingModel is the configured embedding model identifier.
	EmbeddingModel string `json:"embedding_model"`
}

// Ready returns true if the service can serve retrieval requests.
func (h HealthStatus) Ready() bool {
	return h.Status == StatusOK
}
