package badger

import (
	"context"
	"testing"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChunk(docID core.ID, text string) *core.Chunk {
	return &core.Chunk{
		DocumentId:    docID,
		Text:          text,
		HierarchyPath: []string{"Security Policy", "Access Control"},
		Status:        core.StatusActive,
	}
}

func TestChunkRepository_AddAndGet(t *testing.T) {
	_, chunkRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		chunkRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	added, err := chunkRepo.AddChunks(ctx,
		newTestChunk(1, "Badges are required in all secure areas."),
		newTestChunk(1, "Visitors must be escorted at all times."),
	)
	require.NoError(t, err)
	require.Len(t, added, 2)

	assert.NotZero(t, added[0].Id)
	assert.NotZero(t, added[0].Seq)
	assert.NotEqual(t, added[0].Seq, added[1].Seq)
	assert.False(t, added[0].InsertedAt.IsZero())

	got, err := chunkRepo.GetChunk(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, added[0].Text, got.Text)
	assert.Equal(t, added[0].HierarchyPath, got.HierarchyPath)
}

func TestChunkRepository_ContentBasedIDs(t *testing.T) {
	_, chunkRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		chunkRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	a := newTestChunk(1, "Same text.")
	added, err := chunkRepo.AddChunks(ctx, a)
	require.NoError(t, err)

	expected := core.IDFromContent(a.PathKey() + "\n" + "Same text.")
	assert.Equal(t, expected, added[0].Id)
}

func TestChunkRepository_GetChunk_NotFound(t *testing.T) {
	_, chunkRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		chunkRepo.Close()
		backend.Close()
	}()

	_, err = chunkRepo.GetChunk(context.Background(), 12345)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestChunkRepository_ValidationRejected(t *testing.T) {
	_, chunkRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		chunkRepo.Close()
		backend.Close()
	}()

	bad := newTestChunk(1, "text")
	bad.HierarchyPath = nil
	_, err = chunkRepo.AddChunks(context.Background(), bad)
	assert.ErrorIs(t, err, core.ErrEmptyHierarchyPath)
}

func TestChunkRepository_GetChunksByDocument(t *testing.T) {
	_, chunkRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		chunkRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	_, err = chunkRepo.AddChunks(ctx,
		newTestChunk(7, "First section text."),
		newTestChunk(7, "Second section text."),
		newTestChunk(9, "Unrelated document text."),
	)
	require.NoError(t, err)

	chunks, err := chunkRepo.GetChunksByDocument(ctx, 7)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// Ordered by insertion sequence
	assert.Less(t, chunks[0].Seq, chunks[1].Seq)
	assert.Equal(t, "First section text.", chunks[0].Text)
}

func TestChunkRepository_UpdatePreservesSeq(t *testing.T) {
	_, chunkRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		chunkRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	added, err := chunkRepo.AddChunks(ctx, newTestChunk(1, "Before embedding."))
	require.NoError(t, err)
	originalSeq := added[0].Seq

	added[0].Vector = []float32{0.5, 0.5}
	updated, err := chunkRepo.UpdateChunks(ctx, added[0])
	require.NoError(t, err)
	assert.Equal(t, originalSeq, updated[0].Seq)

	got, err := chunkRepo.GetChunk(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, got.Vector)
	assert.Equal(t, originalSeq, got.Seq)
}

func TestChunkRepository_DeleteByDocument(t *testing.T) {
	_, chunkRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		chunkRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	_, err = chunkRepo.AddChunks(ctx,
		newTestChunk(7, "Doomed chunk one."),
		newTestChunk(7, "Doomed chunk two."),
		newTestChunk(9, "Survivor."),
	)
	require.NoError(t, err)

	require.NoError(t, chunkRepo.DeleteChunksByDocument(ctx, 7))

	count, err := chunkRepo.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestChunkRepository_IterateChunks(t *testing.T) {
	_, chunkRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		chunkRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	texts := []string{"one", "two", "three", "four", "five"}
	for _, text := range texts {
		_, err := chunkRepo.AddChunks(ctx, newTestChunk(1, "Chunk text "+text))
		require.NoError(t, err)
	}

	var seen []string
	var batches int
	err = chunkRepo.IterateChunks(ctx, 2, func(chunks []*core.Chunk) error {
		batches++
		for _, chunk := range chunks {
			seen = append(seen, chunk.Text)
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 3, batches)
	require.Len(t, seen, 5)
	// Seq order, which is insertion order
	assert.Equal(t, "Chunk text one", seen[0])
	assert.Equal(t, "Chunk text five", seen[4])
}

func TestChunkRepository_IterateChunks_InvalidBatchSize(t *testing.T) {
	_, chunkRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		chunkRepo.Close()
		backend.Close()
	}()

	err = chunkRepo.IterateChunks(context.Background(), 0, func([]*core.Chunk) error { return nil })
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}
