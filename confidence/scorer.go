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


package confidence

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
)

// ErrInvalidWeights is returned when a weight set has no positive entry
// or contains a negative one.
var ErrInvalidWeights = errors.New("invalid factor weights")

// Weights holds the fixed per-factor weights. Absent factors are
// excluded from the sum and the remaining weights renormalize.
type Weights struct {
	Semantic  float64
	Authority float64
	Relevance float64
	Structure float64
	Model     float64
}

// DefaultWeights favors the vector signal while keeping the lexical
// factor strong enough to catch embedding blind spots.
func DefaultWeights() Weights {
	return Weights{
		Semantic:  0.40,
		Authority: 0.15,
		Relevance: 0.25,
		Structure: 0.10,
		Model:     0.10,
	}
}

// Validate checks that no weight is negative and at least one is
// positive.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Semantic, w.Authority, w.Relevance, w.Structure, w.Model} {
		if v < 0 {
			return ErrInvalidWeights
		}
	}
	if w.Semantic+w.Authority+w.Relevance+w.Structure+w.Model <= 0 {
		return ErrInvalidWeights
	}
	return nil
}

// Scorer computes raw confidences. It is stateless apart from its
// configuration and safe for concurrent use.
type Scorer struct {
	weights Weights
	rater   ai.ConfidenceRater
	logger  *slog.Logger
}

// Option is a functional option for configuring a Scorer.
type Option func(*Scorer)

// WithWeights replaces the default factor weights.
func WithWeights(w Weights) Option {
	return func(s *Scorer) {
		s.weights = w
	}
}

// WithRater enables the optional model-confidence factor. A nil rater
// leaves the factor permanently absent.
func WithRater(rater ai.ConfidenceRater) Option {
	return func(s *Scorer) {
		s.rater = rater
	}
}

// New creates a Scorer with default weights and no model rater.
func New(opts ...Option) (*Scorer, error) {
	s := &Scorer{
		weights: DefaultWeights(),
		logger:  slog.Default().With("component", "confidence-scorer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.weights.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Score computes the raw confidence for one candidate chunk.
// similarity is the cosine similarity from broad search, in [-1, 1].
// The returned factor list holds exactly the factors that were
// present, each with its value and weight.
func (s *Scorer) Score(ctx context.Context, query core.Query, chunk core.Chunk, similarity float64) (float64, []core.Factor) {
	factors := make([]core.Factor, 0, 5)

	add := func(kind core.FactorKind, value, weight float64) {
		if weight <= 0 {
			return
		}
		factors = append(factors, core.Factor{Kind: kind, Value: clamp01(value), Weight: weight})
	}

	// Semantic similarity, rescaled from [-1, 1] to [0, 1].
	add(core.FactorSemantic, (similarity+1)/2, s.weights.Semantic)

	if v, ok := authority(chunk.Status); ok {
		add(core.FactorAuthority, v, s.weights.Authority)
	}

	if v := overlapFraction(chunk.Text, query.Text); v >= 0 {
		add(core.FactorRelevance, v, s.weights.Relevance)
	}

	if v := overlapFraction(strings.Join(chunk.HierarchyPath, " "), query.Text); v >= 0 {
		add(core.FactorStructure, v, s.weights.Structure)
	}

	if s.rater != nil && s.weights.Model > 0 {
		// The rater bounds its own call with a timeout; failure or
		// timeout drops the factor and the rest renormalize.
		if v, err := s.rater.RateConfidence(ctx, query.Text, chunk.Text); err != nil {
			s.logger.Debug("model confidence unavailable",
				"chunk", chunk.Id, "err", err)
		} else {
			add(core.FactorModel, v, s.weights.Model)
		}
	}

	return Combine(factors), factors
}

// Combine renormalizes the weighted sum over the present factors.
// An empty factor list scores zero.
func Combine(factors []core.Factor) float64 {
	var sum, weightSum float64
	for _, f := range factors {
		sum += f.Value * f.Weight
		weightSum += f.Weight
	}
	if weightSum == 0 {
		return 0
	}
	return clamp01(sum / weightSum)
}

// authority maps document status to an authority value. Unknown
// statuses carry no authority signal.
func authority(status core.DocumentStatus) (float64, bool) {
	switch status {
	case core.StatusActive:
		return 1.0, true
	case core.StatusDraft:
		return 0.6, true
	case core.StatusArchived:
		return 0.3, true
	default:
		return 0, false
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
