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


package ai

import (
	"errors"
	"strings"
	"time"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// RaterHost is the base URL for the confidence rating service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	RaterHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// RaterModel is the model identifier to use for confidence rating.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	RaterModel string

	// RaterTimeout bounds a single confidence rating call. When the
	// call exceeds this timeout the scorer proceeds without the model
	// factor. Default: 2s
	RaterTimeout time.Duration

	// RaterEnabled controls whether a ConfidenceRater is constructed at
	// all. When false the provider returns a nil rater and the scorer
	// skips the model factor entirely.
	RaterEnabled bool
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithRaterHost sets the confidence rating service host URL.
func WithRaterHost(host string) ConfigOption {
	return func(c *Config) {
		c.RaterHost = host
	}
}

// WithHost sets both embedding and rater hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.RaterHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithRaterModel sets the confidence rating model identifier.
func WithRaterModel(model string) ConfigOption {
	return func(c *Config) {
		c.RaterModel = model
	}
}

// WithRaterTimeout sets the per-call timeout for confidence rating.
func WithRaterTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RaterTimeout = d
	}
}

// WithRaterEnabled toggles construction of the confidence rater.
func WithRaterEnabled(enabled bool) ConfigOption {
	return func(c *Config) {
		c.RaterEnabled = enabled
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default, both embedding and rating use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:  defaultHost,
		RaterHost:      defaultHost,
		EmbeddingModel: "embeddinggemma",
		RaterModel:     "qwen2.5:3b",
		RaterTimeout:   2 * time.Second,
		RaterEnabled:   true,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
// This is the recommended way to create a Config with custom settings.
//
// Example:
//   cfg := NewConfig(
//       WithHost("http://localhost:11434/v1"),
//       WithEmbeddingModel("text-embedding-3-small"),
//   )
//
// Example with different hosts:
//   cfg := NewConfig(
//       WithEmbeddingHost("http://localhost:11434/v1"),
//       WithRaterHost("http://localhost:9100/v1"),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	// Ensure EmbeddingHost ends with /v1 for OpenAI-compatible APIs
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
	// Ensure RaterHost ends with /v1 for OpenAI-compatible APIs
	if c.RaterHost != "" && !strings.HasSuffix(c.RaterHost, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.RaterHost = strings.TrimSuffix(c.RaterHost, "/")
		c.RaterHost = c.RaterHost + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	// Normalize first to ensure hosts are in correct format
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.RaterEnabled {
		if c.RaterHost == "" {
			return errors.New("ai config: RaterHost is required when rating is enabled")
		}
		if c.RaterModel == "" {
			return errors.New("ai config: RaterModel is required when rating is enabled")
		}
		if c.RaterTimeout <= 0 {
			return errors.New("ai config: RaterTimeout must be positive")
		}
	}
	return nil
}
