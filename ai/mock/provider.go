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


package mock

import "github.com/poiesic/retrievit/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder and rater instances.
type MockProvider struct {
	embedder *MockEmbedder
	rater    *MockRater
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockRater() to access concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder: NewMockEmbedder(),
		rater:    NewMockRater(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
// A nil rater models a provider with rating disabled.
func NewMockProviderWithServices(embedder *MockEmbedder, rater *MockRater) ai.AIProvider {
	return &MockProvider{
		embedder: embedder,
		rater:    rater,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// ConfidenceRater returns the mock rater, or nil when rating is disabled.
func (p *MockProvider) ConfidenceRater() ai.ConfidenceRater {
	if p.rater == nil {
		return nil
	}
	return p.rater
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
// This allows tests to check call counts and inject custom behavior.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockRater returns the underlying mock rater for test assertions.
// This allows tests to check call counts and inject custom behavior.
func (p *MockProvider) GetMockRater() *MockRater {
	return p.rater
}
