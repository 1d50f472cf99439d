package mock

import "context"

// MockRater is a test double for ai.ConfidenceRater.
// It allows custom behavior injection via function fields.
type MockRater struct {
	// RateConfidenceFunc is called by RateConfidence if set.
	// If nil, uses default deterministic behavior.
	RateConfidenceFunc func(ctx context.Context, query, chunkText string) (float64, error)

	callCount int
}

// NewMockRater creates a mock rater with default deterministic behavior.
// Note: Returns concrete type to allow test assertions via GetMockRater().
func NewMockRater() *MockRater {
	return &MockRater{}
}

// RateConfidence returns a deterministic rating based on word overlap
// between the query and the chunk text.
func (m *MockRater) RateConfidence(ctx context.Context, query, chunkText string) (float64, error) {
	m.callCount++

	if m.RateConfidenceFunc != nil {
		return m.RateConfidenceFunc(ctx, query, chunkText)
	}

	return deterministicRating(query, chunkText), nil
}

// CallCount returns the number of times RateConfidence was called.
func (m *MockRater) CallCount() int {
	return m.callCount
}

// Reset clears the call count and any injected behavior.
func (m *MockRater) Reset() {
	m.callCount = 0
	m.RateConfidenceFunc = nil
}

// deterministicRating counts query bytes present in the chunk text so
// the same inputs always produce the same rating.
func deterministicRating(query, chunkText string) float64 {
	if len(query) == 0 || len(chunkText) == 0 {
		return 0
	}

	present := make(map[byte]bool, len(chunkText))
	for i := 0; i < len(chunkText); i++ {
		present[chunkText[i]] = true
	}

	matched := 0
	for i := 0; i < len(query); i++ {
		if present[query[i]] {
			matched++
		}
	}
	return float64(matched) / float64(len(query))
}
