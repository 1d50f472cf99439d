package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ConfidenceRater asks a generation model how confident it is that a
// chunk answers a query. The rating is an optional scoring factor: the
// scorer calls it with a bounded timeout and degrades gracefully when
// it fails or times out.
// Implementations must be thread-safe for concurrent use.
type ConfidenceRater interface {
	// RateConfidence returns the model's self-reported confidence in
	// [0, 1] that chunkText answers query.
	// Returns an error if the model is unreachable or produces an
	// unparseable rating.
	RateConfidence(ctx context.Context, query, chunkText string) (float64, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and ConfidenceRater instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// ConfidenceRater returns the model confidence service.
	// May return nil when the provider has no rating model configured;
	// the scorer treats a nil rater as an absent factor.
	ConfidenceRater() ConfidenceRater

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
