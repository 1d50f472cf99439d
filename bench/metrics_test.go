package bench

import (
	"testing"

	"github.com/poiesic/retrievit/core"
	"github.com/stretchr/testify/assert"
)

func TestNDCGAt(t *testing.T) {
	t.Run("perfect ranking scores one", func(t *testing.T) {
		ranked := []core.ID{1, 2, 3}
		relevance := map[core.ID]float64{1: 3, 2: 2, 3: 1}
		assert.InDelta(t, 1.0, NDCGAt(10, ranked, relevance), 1e-9)
	})

	t.Run("single relevant chunk at rank two", func(t *testing.T) {
		ranked := []core.ID{9, 1}
		relevance := map[core.ID]float64{1: 2}
		// 1/log2(3)
		assert.InDelta(t, 0.63093, NDCGAt(10, ranked, relevance), 1e-4)
	})

	t.Run("swapped grades discount the better chunk", func(t *testing.T) {
		ranked := []core.ID{2, 1}
		relevance := map[core.ID]float64{1: 2, 2: 1}
		assert.InDelta(t, 0.79671, NDCGAt(10, ranked, relevance), 1e-4)
	})

	t.Run("cutoff ignores deeper hits", func(t *testing.T) {
		ranked := []core.ID{9, 8, 1}
		relevance := map[core.ID]float64{1: 3}
		assert.Zero(t, NDCGAt(2, ranked, relevance))
	})

	t.Run("no judged relevant chunks", func(t *testing.T) {
		assert.Zero(t, NDCGAt(10, []core.ID{1, 2}, nil))
		assert.Zero(t, NDCGAt(10, []core.ID{1, 2}, map[core.ID]float64{1: 0}))
	})

	t.Run("empty ranking", func(t *testing.T) {
		assert.Zero(t, NDCGAt(10, nil, map[core.ID]float64{1: 1}))
	})
}

func TestRecallAt(t *testing.T) {
	relevance := map[core.ID]float64{1: 2, 2: 1, 3: 3, 4: 0}

	t.Run("all found", func(t *testing.T) {
		assert.InDelta(t, 1.0, RecallAt(10, []core.ID{3, 1, 2}, relevance), 1e-9)
	})

	t.Run("partial", func(t *testing.T) {
		assert.InDelta(t, 1.0/3.0, RecallAt(10, []core.ID{1, 9, 8}, relevance), 1e-9)
	})

	t.Run("cutoff", func(t *testing.T) {
		assert.InDelta(t, 1.0/3.0, RecallAt(1, []core.ID{3, 1, 2}, relevance), 1e-9)
	})

	t.Run("zero grade does not count", func(t *testing.T) {
		assert.Zero(t, RecallAt(10, []core.ID{4}, relevance))
	})

	t.Run("no judged relevant chunks", func(t *testing.T) {
		assert.Zero(t, RecallAt(10, []core.ID{1}, map[core.ID]float64{}))
	})
}
