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

package retrievit

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/ai/openai"
	"github.com/poiesic/retrievit/bench"
	"github.com/poiesic/retrievit/calibrate"
	"github.com/poiesic/retrievit/confidence"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/ingestion"
	"github.com/poiesic/retrievit/rebuild"
	"github.com/poiesic/retrievit/search"
	"github.com/poiesic/retrievit/storage"
	"github.com/poiesic/retrievit/storage/badger"
	"github.com/poiesic/retrievit/vector"
)

// Engine wires storage, the AI provider, the vector index, and the
// calibrator into one retrieval core.
type Engine struct {
	backend      *badger.Backend
	documentRepo storage.DocumentRepository
	chunkRepo    storage.ChunkRepository
	calRepo      storage.CalibrationRepository
	provider     ai.AIProvider
	vectors      *vector.Manager
	calibrator   *calibrate.Calibrator
	logger       *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	inMemory bool
	minObs   int
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProvider supplies a pre-built AI provider instead of the default
// openai-compatible one. Useful for tests and offline operation.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps all storage in memory. Nothing survives Close.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithMinBucketObservations sets the calibration sparsity threshold.
func WithMinBucketObservations(n int) EngineOption {
	return func(o *engineOptions) {
		o.minObs = n
	}
}

// NewEngine opens the retrieval core at filePath. The published index
// snapshot and calibration mapping, if any, are restored from storage.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	// Apply options
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	documentRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		documentRepo.Close()
		backend.Close()
		return nil, err
	}

	calRepo, err := badger.NewCalibrationRepository(backend)
	if err != nil {
		chunkRepo.Close()
		documentRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create AI provider with configured settings
	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			calRepo.Close()
			chunkRepo.Close()
			documentRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	logger := slog.Default()

	// Restore the published snapshot. A store with no snapshot yet is
	// a valid state; queries report IndexUnavailable until a rebuild.
	vectors := vector.NewManager(badger.NewSnapshotStore(backend))
	if _, err := vectors.LoadCurrent(context.Background()); err != nil &&
		!errors.Is(err, vector.ErrSnapshotMissing) {
		logger.Error("error restoring index snapshot", "err", err)
	}

	var calOpts []calibrate.Option
	if options.minObs > 0 {
		calOpts = append(calOpts, calibrate.WithMinBucketObservations(options.minObs))
	}
	calibrator := calibrate.New(calRepo, calOpts...)
	if _, err := calibrator.Refresh(context.Background()); err != nil {
		logger.Error("error fitting calibration mapping", "err", err)
	}

	return &Engine{
		backend:      backend,
		documentRepo: documentRepo,
		chunkRepo:    chunkRepo,
		calRepo:      calRepo,
		provider:     provider,
		vectors:      vectors,
		calibrator:   calibrator,
		logger:       logger,
	}, nil
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	e.calibrator.Stop()

	// Close AI provider first
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	// Close repositories
	if err := e.calRepo.Close(); err != nil {
		e.logger.Error("error closing calibration repository", "err", err)
		return err
	}
	if err := e.chunkRepo.Close(); err != nil {
		e.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := e.documentRepo.Close(); err != nil {
		e.logger.Error("error closing document repository", "err", err)
		return err
	}

	// Close backend
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (e *Engine) DocumentRepository() storage.DocumentRepository {
	return e.documentRepo
}

func (e *Engine) ChunkRepository() storage.ChunkRepository {
	return e.chunkRepo
}

func (e *Engine) CalibrationRepository() storage.CalibrationRepository {
	return e.calRepo
}

func (e *Engine) VectorManager() *vector.Manager {
	return e.vectors
}

func (e *Engine) Calibrator() *calibrate.Calibrator {
	return e.calibrator
}

func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(e.documentRepo, e.chunkRepo, e.provider, opts...)
}

func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	scorer, err := confidence.New(confidence.WithRater(e.provider.ConfidenceRater()))
	if err != nil {
		return nil, err
	}
	return search.NewSearcher(e.chunkRepo, e.vectors, scorer, e.calibrator, e.provider.Embedder(), opts...)
}

// NewRebuilder creates a rebuilder over the engine's chunk store and
// index manager. progress is typically os.Stderr.
func (e *Engine) NewRebuilder(config *rebuild.Config, progress io.Writer) (*rebuild.Rebuilder, error) {
	return rebuild.NewRebuilder(e.chunkRepo, e.vectors, e.provider.Embedder(), config, progress)
}

// NewBenchRunner creates a benchmark runner over a fresh searcher.
func (e *Engine) NewBenchRunner(opts ...bench.RunnerOption) (*bench.Runner, error) {
	searcher, err := e.NewSearcher()
	if err != nil {
		return nil, err
	}
	return bench.NewRunner(searcher, opts...)
}

// RecordFeedback appends one calibration observation: whether a hit
// with the given predicted confidence answered its query.
func (e *Engine) RecordFeedback(ctx context.Context, queryId string, chunkId core.ID, predicted float64, correct bool) error {
	return e.calibrator.RecordFeedback(ctx, queryId, chunkId, predicted, correct)
}

// Recalibrate refits the calibration mapping from the full feedback
// history and publishes the new version.
func (e *Engine) Recalibrate(ctx context.Context) (*calibrate.Mapping, error) {
	return e.calibrator.Refresh(ctx)
}
