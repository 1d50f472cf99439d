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


package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/calibrate"
	"github.com/poiesic/retrievit/confidence"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
	"github.com/poiesic/retrievit/vector"
)

// DefaultBroadK is the breadth of the recall-oriented first pass.
// Deliberately large: the scorer performs the precision pass.
const DefaultBroadK = 100

// DefaultGateThreshold is the calibrated confidence a candidate needs
// to be returned.
const DefaultGateThreshold = 0.80

// DefaultExcerptLen bounds the excerpt carried on each hit.
const DefaultExcerptLen = 300

// Request is one query against the retrieval core.
type Request struct {
	Text   string
	Filter core.StatusFilter
	// TopN caps the returned hits. Zero means no cap beyond gating.
	TopN int
	// BroadK overrides the broad-search breadth. Zero uses the default.
	BroadK int
	// GateThreshold overrides the gate. Zero or negative uses the
	// default.
	GateThreshold float64
}

// Searcher runs the broad-then-deep pipeline: a wide ANN pass for
// recall, then scoring, calibration and gating for precision. Each
// query binds to one snapshot and one mapping version at start.
type Searcher struct {
	chunks     storage.ChunkRepository
	vectors    *vector.Manager
	scorer     *confidence.Scorer
	calibrator *calibrate.Calibrator
	embedder   ai.Embedder

	broadK     int
	gate       float64
	excerptLen int
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithBroadK sets the default broad-search breadth.
func WithBroadK(k int) Option {
	return func(s *Searcher) error {
		if k < 1 {
			return fmt.Errorf("broad k must be positive, got %d", k)
		}
		s.broadK = k
		return nil
	}
}

// WithGateThreshold sets the default gate threshold.
func WithGateThreshold(gate float64) Option {
	return func(s *Searcher) error {
		if gate < 0 || gate > 1 {
			return fmt.Errorf("gate threshold must be in [0, 1], got %f", gate)
		}
		s.gate = gate
		return nil
	}
}

// WithExcerptLen sets the excerpt length bound.
func WithExcerptLen(n int) Option {
	return func(s *Searcher) error {
		if n < 1 {
			return fmt.Errorf("excerpt length must be positive, got %d", n)
		}
		s.excerptLen = n
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	chunks storage.ChunkRepository,
	vectors *vector.Manager,
	scorer *confidence.Scorer,
	calibrator *calibrate.Calibrator,
	embedder ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorManagerRequired
	}
	if scorer == nil {
		return nil, ErrScorerRequired
	}
	if calibrator == nil {
		return nil, ErrCalibratorRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		chunks:     chunks,
		vectors:    vectors,
		scorer:     scorer,
		calibrator: calibrator,
		embedder:   embedder,
		broadK:     DefaultBroadK,
		gate:       DefaultGateThreshold,
		excerptLen: DefaultExcerptLen,
		logger:     slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Answer evaluates one query.
func (s *Searcher) Answer(ctx context.Context, req Request) (*Response, error) {
	return s.AnswerWithMonitor(ctx, req, nil)
}

// AnswerWithMonitor evaluates one query with monitoring. The monitor
// receives a callback at every state transition and after each stage.
//
// A nil error with an empty hit list is a valid outcome and always
// carries a reason code. A non-nil error means the query failed; the
// returned response reports StateFailed and, where applicable, a
// failure reason such as IndexUnavailable.
func (s *Searcher) AnswerWithMonitor(ctx context.Context, req Request, monitor Monitor) (*Response, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	queryId := uuid.NewString()
	resp := &Response{QueryId: queryId}
	monitor.Start(queryId, req.Text)

	broadK := req.BroadK
	if broadK < 1 {
		broadK = s.broadK
	}
	gate := req.GateThreshold
	if gate <= 0 {
		gate = s.gate
	}

	state := StateIdle
	fail := func(err error) (*Response, error) {
		monitor.StateChange(state, StateFailed)
		resp.FinalState = StateFailed
		monitor.Finish(resp)
		return resp, err
	}
	advance := func(to State) error {
		// Cancellation is honored at every state boundary; partial
		// work is discarded, never persisted.
		if err := ctx.Err(); err != nil {
			return err
		}
		monitor.StateChange(state, to)
		state = to
		return nil
	}

	// BroadSearch: wide, recall-oriented ANN pass.
	if err := advance(StateBroadSearch); err != nil {
		return fail(err)
	}

	snapshot, err := s.vectors.Current()
	if err != nil {
		resp.Reason = ReasonIndexUnavailable
		s.logger.Warn("query failed, no servable snapshot", "query_id", queryId)
		return fail(err)
	}
	resp.SnapshotVersion = snapshot.Version()
	mapping := s.calibrator.Current()
	resp.MappingVersion = mapping.Version()

	embedding, err := s.embedder.EmbedText(ctx, req.Text)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query_id", queryId, "err", err)
		return fail(fmt.Errorf("embedding query: %w", err))
	}

	result, err := snapshot.Search(embedding, broadK, req.Filter)
	if err != nil {
		s.logger.Error("broad search failed", "query_id", queryId, "err", err)
		return fail(fmt.Errorf("broad search: %w", err))
	}
	resp.Partial = result.Partial

	query := core.Query{Id: queryId, Text: req.Text, Vector: embedding, Filter: req.Filter}
	candidates := make([]*core.Candidate, len(result.Hits))
	for i, h := range result.Hits {
		candidates[i] = &core.Candidate{
			ChunkId:    h.ChunkId,
			DocumentId: h.DocumentId,
			Similarity: float32(h.Similarity),
		}
	}
	monitor.AfterBroadSearch(candidates, result.Partial)

	if len(candidates) == 0 {
		// A legitimate empty outcome, distinct from any failure.
		resp.Reason = ReasonNoMatch
		return s.finish(resp, monitor, state)
	}

	// Scoring: the precision pass over every broad candidate.
	if err := advance(StateScoring); err != nil {
		return fail(err)
	}

	ids := make([]core.ID, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ChunkId
	}
	chunks, err := s.chunks.GetChunks(ctx, ids...)
	if err != nil {
		s.logger.Error("error retrieving candidate chunks", "query_id", queryId, "err", err)
		return fail(fmt.Errorf("retrieving candidate chunks: %w", err))
	}
	chunkById := make(map[core.ID]*core.Chunk, len(chunks))
	for _, c := range chunks {
		if c != nil {
			chunkById[c.Id] = c
		}
	}

	for _, cand := range candidates {
		chunk, ok := chunkById[cand.ChunkId]
		if !ok {
			// Indexed but no longer stored; leave it with zero raw
			// confidence so gating drops it.
			s.logger.Warn("candidate chunk missing from store",
				"query_id", queryId, "chunk", cand.ChunkId)
			continue
		}
		cand.RawConfidence, cand.Factors = s.scorer.Score(ctx, query, *chunk, float64(cand.Similarity))
	}
	monitor.AfterScoring(candidates)

	// Calibrating: map raw scores through the bound mapping version.
	if err := advance(StateCalibrating); err != nil {
		return fail(err)
	}
	for _, cand := range candidates {
		cand.CalibratedConfidence = mapping.Calibrate(cand.RawConfidence)
	}
	monitor.AfterCalibrating(candidates)

	// Gating: drop candidates below the threshold.
	if err := advance(StateGating); err != nil {
		return fail(err)
	}
	kept := Gate(candidates, gate)
	monitor.AfterGating(kept, len(candidates)-len(kept))

	if len(kept) == 0 {
		if allZeroScores(candidates) {
			// Candidates existed yet every one scored exactly zero.
			// That is the signature of a silent pipeline malfunction,
			// not of an unconfident corpus.
			s.logger.Error("all broad candidates scored zero",
				"query_id", queryId, "candidates", len(candidates))
			resp.Reason = ReasonAnomalousZeroScores
		} else {
			resp.Reason = ReasonLowConfidence
		}
		return s.finish(resp, monitor, state)
	}

	rank(kept)
	if req.TopN > 0 && len(kept) > req.TopN {
		kept = kept[:req.TopN]
	}

	resp.Hits = make([]Hit, len(kept))
	for i, cand := range kept {
		hit := Hit{
			ChunkId:              cand.ChunkId,
			DocumentId:           cand.DocumentId,
			Similarity:           float64(cand.Similarity),
			RawConfidence:        cand.RawConfidence,
			CalibratedConfidence: cand.CalibratedConfidence,
			Factors:              cand.Factors,
		}
		if chunk, ok := chunkById[cand.ChunkId]; ok {
			hit.Excerpt = excerpt(chunk.Text, s.excerptLen)
			hit.HierarchyPath = chunk.HierarchyPath
		}
		resp.Hits[i] = hit
	}
	return s.finish(resp, monitor, state)
}

func (s *Searcher) finish(resp *Response, monitor Monitor, state State) (*Response, error) {
	monitor.StateChange(state, StateDone)
	resp.FinalState = StateDone
	monitor.Finish(resp)
	return resp, nil
}

// Gate returns the candidates at or above the threshold, in input
// order. Gating is idempotent: gating a gated list is a no-op.
func Gate(candidates []*core.Candidate, threshold float64) []*core.Candidate {
	kept := make([]*core.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.CalibratedConfidence >= threshold {
			kept = append(kept, c)
		}
	}
	return kept
}

// rank sorts candidates into the final total order: calibrated
// confidence descending, then raw similarity descending, then chunk id
// ascending. Rank fields are assigned 1-based.
func rank(candidates []*core.Candidate) {
	slices.SortFunc(candidates, func(a, b *core.Candidate) int {
		if a.CalibratedConfidence != b.CalibratedConfidence {
			if a.CalibratedConfidence > b.CalibratedConfidence {
				return -1
			}
			return 1
		}
		if a.Similarity != b.Similarity {
			if a.Similarity > b.Similarity {
				return -1
			}
			return 1
		}
		if a.ChunkId != b.ChunkId {
			if a.ChunkId < b.ChunkId {
				return -1
			}
			return 1
		}
		return 0
	})
	for i, c := range candidates {
		c.Rank = i + 1
	}
}

// allZeroScores reports whether every broad candidate came back with
// an exactly zero similarity. Healthy embeddings essentially never
// produce that pattern across a whole candidate set; it points at an
// empty-embedding path or an ID mismatch between query and index.
func allZeroScores(candidates []*core.Candidate) bool {
	for _, c := range candidates {
		if c.Similarity != 0 {
			return false
		}
	}
	return len(candidates) > 0
}

// excerpt bounds text to n bytes, cutting at a word boundary.
func excerpt(text string, n int) string {
	text = strings.TrimSpace(text)
	if len(text) <= n {
		return text
	}
	cut := strings.LastIndexAny(text[:n], " \n\t")
	if cut <= 0 {
		cut = n
	}
	return strings.TrimSpace(text[:cut]) + "…"
}
