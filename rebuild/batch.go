package rebuild

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

// BatchProcessor handles embedding generation for batches of chunks.
type BatchProcessor struct {
	repo           storage.ChunkRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.ChunkRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates embeddings for a batch of chunks and updates them in
// storage. When missingOnly is true, chunks that already carry a vector
// are left untouched.
func (bp *BatchProcessor) Process(ctx context.Context, chunks []*core.Chunk, missingOnly bool) error {
	targets := chunks
	if missingOnly {
		targets = make([]*core.Chunk, 0, len(chunks))
		for _, chunk := range chunks {
			if len(chunk.Vector) == 0 {
				targets = append(targets, chunk)
			}
		}
	}
	if len(targets) == 0 {
		return nil
	}

	texts := make([]string, len(targets))
	for i, chunk := range targets {
		texts[i] = chunk.Text
	}

	// Generate embeddings with retry
	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(targets) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(targets), len(embeddings))
	}

	for i := range targets {
		targets[i].Vector = embeddings[i]
	}

	_, err = bp.repo.UpdateChunks(ctx, targets...)
	if err != nil {
		return fmt.Errorf("failed to update chunks: %w", err)
	}

	return nil
}
