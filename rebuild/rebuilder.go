// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rebuild

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
	"github.com/poiesic/retrievit/vector"
)

// Config holds configuration for the rebuild operation.
type Config struct {
	// BatchSize is the number of chunks to stream from storage per batch
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Reembed regenerates every chunk embedding instead of only the
	// missing ones
	Reembed bool

	// Prune deletes retired snapshot payloads after the new snapshot
	// is published
	Prune bool

	// BuildOpts configures the index construction
	BuildOpts []vector.BuildOption
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Report summarizes a completed rebuild.
type Report struct {
	Chunks   int    // chunks streamed from storage
	Indexed  int    // chunks included in the snapshot
	Skipped  int    // chunks without a usable vector
	Version  uint64 // published snapshot version
	Duration time.Duration
}

// Rebuilder reconstructs the vector index snapshot from stored chunks.
type Rebuilder struct {
	repo      storage.ChunkRepository
	vectors   *vector.Manager
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
}

// NewRebuilder creates a new rebuilder. The embedder may be nil when the
// configuration does not request re-embedding; missing vectors are then
// skipped by the index build instead of regenerated.
// progress: where to write progress output (typically os.Stderr)
func NewRebuilder(repo storage.ChunkRepository, vectors *vector.Manager, embedder ai.Embedder, config *Config, progress io.Writer) (*Rebuilder, error) {
	if repo == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorManagerRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Reembed && embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if progress == nil {
		progress = io.Discard
	}

	r := &Rebuilder{
		repo:     repo,
		vectors:  vectors,
		config:   config,
		progress: progress,
	}
	if embedder != nil {
		r.processor = NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay)
	}
	return r, nil
}

// Run executes the rebuild operation.
//
// Chunks are streamed from storage in batches. When an embedder is
// configured, chunks without vectors are embedded first (all chunks when
// Reembed is set). The collected chunks are then built into a fresh
// snapshot which is persisted and published. The previously published
// snapshot keeps serving queries until the swap; a failure anywhere
// leaves it in place.
func (r *Rebuilder) Run(ctx context.Context) (*Report, error) {
	total, err := r.repo.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}

	fmt.Fprintf(r.progress, "Starting index rebuild over %d chunks (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	collected := make([]core.Chunk, 0, total)
	err = r.repo.IterateChunks(ctx, r.config.BatchSize, func(chunks []*core.Chunk) error {
		if r.processor != nil {
			if err := r.processor.Process(ctx, chunks, !r.config.Reembed); err != nil {
				return fmt.Errorf("failed to process batch: %w", err)
			}
		}
		for _, chunk := range chunks {
			collected = append(collected, *chunk)
		}
		tracker.Update(len(collected))
		return nil
	})
	if err != nil {
		return nil, err
	}
	tracker.Finish()

	version, err := r.vectors.NextVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate snapshot version: %w", err)
	}

	snapshot, err := vector.Build(collected, version, r.config.BuildOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot: %w", err)
	}

	if err := r.vectors.SaveAndPublish(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to publish snapshot: %w", err)
	}

	if r.config.Prune {
		if err := r.vectors.PruneRetired(ctx); err != nil {
			return nil, fmt.Errorf("failed to prune retired snapshots: %w", err)
		}
	}

	elapsed := tracker.Elapsed()
	report := &Report{
		Chunks:   len(collected),
		Indexed:  snapshot.Len(),
		Skipped:  int(snapshot.SkippedChunks()),
		Version:  snapshot.Version(),
		Duration: elapsed,
	}
	fmt.Fprintf(r.progress, "Rebuild complete. Indexed %d/%d chunks into snapshot %d in %v\n",
		report.Indexed, report.Chunks, report.Version, elapsed.Round(time.Millisecond))

	return report, nil
}
