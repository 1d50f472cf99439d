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


package calibrate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

// Calibrator owns the published mapping pointer and the feedback
// intake. Refitting happens on a schedule, never per query; queries
// read the current mapping with one atomic load.
type Calibrator struct {
	repo    storage.CalibrationRepository
	current atomic.Pointer[Mapping]
	minObs  int
	logger  *slog.Logger

	mu      sync.Mutex // serializes Refresh (single writer)
	version uint64

	stopOnce sync.Once
	stop     chan struct{}
	started  atomic.Bool
	done     chan struct{}
}

// Option is a functional option for configuring a Calibrator.
type Option func(*Calibrator)

// WithMinBucketObservations overrides the sparse-bucket threshold.
func WithMinBucketObservations(n int) Option {
	return func(c *Calibrator) {
		c.minObs = n
	}
}

// New creates a Calibrator publishing the identity mapping until the
// first refresh.
func New(repo storage.CalibrationRepository, opts ...Option) *Calibrator {
	c := &Calibrator{
		repo:   repo,
		minObs: DefaultMinBucketObservations,
		logger: slog.Default().With("component", "calibrator"),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.current.Store(Identity())
	return c
}

// Current returns the published mapping. Never nil: before the first
// refresh it is the version-0 identity mapping.
func (c *Calibrator) Current() *Mapping {
	return c.current.Load()
}

// RecordFeedback appends one observed outcome to the calibration
// history. The mapping does not change until the next refresh.
func (c *Calibrator) RecordFeedback(ctx context.Context, queryId string, chunkId core.ID, predicted float64, correct bool) error {
	record := &core.CalibrationRecord{
		QueryId:   queryId,
		ChunkId:   chunkId,
		Predicted: predicted,
		Correct:   correct,
	}
	if _, err := c.repo.AppendRecords(ctx, record); err != nil {
		return fmt.Errorf("appending calibration record: %w", err)
	}
	c.logger.Debug("recorded calibration feedback",
		"query", queryId, "chunk", chunkId, "predicted", predicted, "correct", correct)
	return nil
}

// Refresh refits the mapping from the full history and publishes it as
// a new version. Concurrent calls serialize; queries in flight keep
// the version they started with.
func (c *Calibrator) Refresh(ctx context.Context) (*Mapping, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.repo.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading calibration history: %w", err)
	}

	c.version++
	m := Fit(records, c.version, c.minObs)
	c.current.Store(m)
	c.logger.Info("published calibration mapping",
		"version", m.Version(),
		"observations", m.Observations(),
		"sparse_buckets", m.SparseBuckets())
	return m, nil
}

// Start launches the background refresh loop. The loop exits when ctx
// is cancelled or Stop is called.
func (c *Calibrator) Start(ctx context.Context, interval time.Duration) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-ticker.C:
				if _, err := c.Refresh(ctx); err != nil {
					c.logger.Error("scheduled calibration refresh failed", "err", err)
				}
			}
		}
	}()
}

// Stop terminates the refresh loop and waits for it to exit. Safe to
// call without a prior Start.
func (c *Calibrator) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	if c.started.Load() {
		<-c.done
	}
}
