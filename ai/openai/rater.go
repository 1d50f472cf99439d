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


package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/retrievit/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const raterSystemPrompt = `You judge whether a passage from a policy document answers a question.
Reply with a single integer from 0 to 10.
0 means the passage is unrelated to the question.
10 means the passage directly and completely answers the question.
Reply with the number only. No explanation.`

// Rater implements ai.ConfidenceRater using OpenAI-compatible chat APIs.
// Each call is bounded by the configured timeout so a slow model cannot
// stall the scorer.
type Rater struct {
	client  llms.Model
	timeout time.Duration
	logger  *slog.Logger
}

// newRater is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newRater(config *ai.Config) (*Rater, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.RaterHost),
		openai.WithToken("none"),
		openai.WithModel(config.RaterModel),
	)
	if err != nil {
		return nil, err
	}

	return &Rater{
		client:  client,
		timeout: config.RaterTimeout,
		logger:  slog.Default().With("component", "openai-rater"),
	}, nil
}

// NewRater creates a new confidence rater using the provided configuration.
//
// Returns ai.ConfidenceRater interface to enforce abstraction.
func NewRater(config *ai.Config) (ai.ConfidenceRater, error) {
	return newRater(config)
}

// RateConfidence asks the model to rate how well chunkText answers query,
// returning the rating scaled to [0, 1].
func (r *Rater) RateConfidence(ctx context.Context, query, chunkText string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(raterSystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(fmt.Sprintf("Question: %s\n\nPassage:\n%s", query, chunkText)),
			},
		},
	}

	response, err := r.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		r.logger.Warn("confidence rating failed", "err", err)
		return 0, err
	}
	if len(response.Choices) < 1 {
		return 0, errors.New("openai rater: no choices returned")
	}

	return parseRating(response.Choices[0].Content)
}

// parseRating extracts a 0-10 integer from the model's reply and scales
// it to [0, 1]. The reply is expected to be a bare number but models
// occasionally wrap it in whitespace or trailing punctuation.
func parseRating(reply string) (float64, error) {
	reply = strings.TrimSpace(reply)
	// Take the leading run of digits only
	end := 0
	for end < len(reply) && reply[end] >= '0' && reply[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("openai rater: unparseable rating %q", reply)
	}

	n, err := strconv.Atoi(reply[:end])
	if err != nil {
		return 0, fmt.Errorf("openai rater: unparseable rating %q: %w", reply, err)
	}
	if n > 10 {
		return 0, fmt.Errorf("openai rater: rating %d out of range", n)
	}
	return float64(n) / 10.0, nil
}
