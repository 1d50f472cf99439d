package rebuild

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrVectorManagerRequired is returned when a vector index manager is not provided.
	ErrVectorManagerRequired = errors.New("vector index manager required")

	// ErrEmbedderRequired is returned when re-embedding is requested without an embedder.
	ErrEmbedderRequired = errors.New("embedder required")
)
