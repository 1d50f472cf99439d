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

package bench

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/search"
)

// QueryService is the slice of the search pipeline a benchmark needs.
type QueryService interface {
	Answer(ctx context.Context, req search.Request) (*search.Response, error)
}

// QueryResult holds the evaluation of a single benchmark query.
type QueryResult struct {
	QueryId string
	NDCG    float64
	Recall  float64
	Hits    int
	Reason  search.ReasonCode
	Err     error
}

// Result aggregates a benchmark run.
type Result struct {
	Dataset    string
	PerQuery   []QueryResult
	MeanNDCG   float64
	MeanRecall float64
	Failed     int
	Duration   time.Duration
}

// Runner executes benchmark datasets against a query service.
type Runner struct {
	service     QueryService
	concurrency int
	filter      core.StatusFilter
	gate        float64
	logger      *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithConcurrency sets the number of queries evaluated in parallel.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n >= 1 {
			r.concurrency = n
		}
	}
}

// WithStatusFilter restricts benchmark queries to the given document
// statuses.
func WithStatusFilter(filter core.StatusFilter) RunnerOption {
	return func(r *Runner) {
		r.filter = filter
	}
}

// WithGateThreshold overrides the confidence gate for benchmark
// queries. Ranking metrics need the full candidate ordering, so
// benchmarks usually run with a wide-open gate.
func WithGateThreshold(gate float64) RunnerOption {
	return func(r *Runner) {
		r.gate = gate
	}
}

// WithRunnerLogger sets a custom logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a benchmark runner.
func NewRunner(service QueryService, opts ...RunnerOption) (*Runner, error) {
	if service == nil {
		return nil, ErrQueryServiceRequired
	}

	concurrency := runtime.NumCPU()
	if concurrency < 1 {
		concurrency = 1
	}

	r := &Runner{
		service:     service,
		concurrency: concurrency,
		gate:        0.01,
		logger:      slog.Default().With("component", "bench"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run evaluates every query in the dataset concurrently and returns the
// aggregate metrics. Individual query failures are recorded per query
// and excluded from the means; they never abort the run.
func (r *Runner) Run(ctx context.Context, dataset *Dataset) (*Result, error) {
	if dataset == nil || len(dataset.Queries) == 0 {
		return nil, ErrEmptyDataset
	}

	pool, err := ants.NewPool(r.concurrency)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	results := make([]QueryResult, len(dataset.Queries))
	var wg sync.WaitGroup

	start := time.Now()
	for i, query := range dataset.Queries {
		i, query := i, query
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i] = r.evaluate(ctx, query)
		})
		if submitErr != nil {
			wg.Done()
			results[i] = QueryResult{QueryId: query.Id, Err: submitErr}
		}
	}
	wg.Wait()

	result := &Result{
		Dataset:  dataset.Name,
		PerQuery: results,
		Duration: time.Since(start),
	}

	evaluated := 0
	for _, qr := range results {
		if qr.Err != nil {
			result.Failed++
			continue
		}
		result.MeanNDCG += qr.NDCG
		result.MeanRecall += qr.Recall
		evaluated++
	}
	if evaluated > 0 {
		result.MeanNDCG /= float64(evaluated)
		result.MeanRecall /= float64(evaluated)
	}

	r.logger.Info("benchmark complete",
		"dataset", dataset.Name, "queries", len(dataset.Queries),
		"failed", result.Failed, "ndcg", result.MeanNDCG,
		"recall", result.MeanRecall, "duration", result.Duration)
	return result, nil
}

func (r *Runner) evaluate(ctx context.Context, query Query) QueryResult {
	resp, err := r.service.Answer(ctx, search.Request{
		Text:          query.Text,
		Filter:        r.filter,
		BroadK:        RecallCutoff,
		GateThreshold: r.gate,
	})
	if err != nil {
		r.logger.Warn("benchmark query failed", "query", query.Id, "err", err)
		return QueryResult{QueryId: query.Id, Err: err}
	}

	ranked := make([]core.ID, len(resp.Hits))
	for i, hit := range resp.Hits {
		ranked[i] = hit.ChunkId
	}

	return QueryResult{
		QueryId: query.Id,
		NDCG:    NDCGAt(NDCGCutoff, ranked, query.Relevance),
		Recall:  RecallAt(RecallCutoff, ranked, query.Relevance),
		Hits:    len(resp.Hits),
		Reason:  resp.Reason,
	}
}
