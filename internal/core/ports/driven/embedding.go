package driven

import "context"

// EmbeddingService maps text to dense vectors. Every vector a service
// returns has Dimensions() entries, and vectors stored in one collection
// must all come from the same model.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is zero until known. Adapters learn it from their first
	// response when the model is not in the built-in table.
	Dimensions() int

	ModelName() string

	// Ping is a cheap reachability check run before any ingestion or
	// retrieval work starts.
	Ping(ctx context.Context) error

	Close() error
}
