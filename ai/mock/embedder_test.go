package mock

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedderDeterministic(t *testing.T) {
	ctx := context.Background()
	embedder := NewMockEmbedder()

	a, err := embedder.EmbedText(ctx, "travel policy")
	require.NoError(t, err)
	b, err := embedder.EmbedText(ctx, "travel policy")
	require.NoError(t, err)
	c, err := embedder.EmbedText(ctx, "expense policy")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, embeddingDim)
	assert.Equal(t, 3, embedder.CallCount())
}

func TestMockEmbedderUnitNorm(t *testing.T) {
	vec, err := NewMockEmbedder().EmbedText(context.Background(), "any text")
	require.NoError(t, err)

	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-4)
}

func TestMockEmbedderInjectedBehavior(t *testing.T) {
	embedder := NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}

	vec, err := embedder.EmbedText(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)

	embedder.Reset()
	assert.Zero(t, embedder.CallCount())
	assert.Nil(t, embedder.EmbedTextFunc)
}
