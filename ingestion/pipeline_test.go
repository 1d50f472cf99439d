package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/retrievit/ai/mock"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/indexer"
	"github.com/poiesic/retrievit/storage"
	"github.com/poiesic/retrievit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestPipeline(t *testing.T) (*Pipeline, storage.DocumentRepository, storage.ChunkRepository) {
	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	pipeline, err := NewPipeline(docRepo, chunkRepo, mock.NewMockProvider(), WithPoolSize(1))
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return pipeline, docRepo, chunkRepo
}

func TestNewPipelineValidation(t *testing.T) {
	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	t.Run("nil document repository", func(t *testing.T) {
		_, err := NewPipeline(nil, chunkRepo, mock.NewMockProvider())
		assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)
	})

	t.Run("nil chunk repository", func(t *testing.T) {
		_, err := NewPipeline(docRepo, nil, mock.NewMockProvider())
		assert.ErrorIs(t, err, ErrChunkRepositoryRequired)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewPipeline(docRepo, chunkRepo, nil)
		assert.ErrorIs(t, err, ErrAIProviderRequired)
	})
}

func TestIngestDocument(t *testing.T) {
	pipeline, _, chunkRepo := setupTestPipeline(t)
	ctx := context.Background()

	doc := indexer.ExtractedDocument{
		Title:  "Travel Policy",
		Format: "pdf",
		Status: core.StatusActive,
		Text:   "# Scope\n\nThis policy applies to all employees.\n\n# Reimbursement\n\nSubmit receipts within 30 days.",
	}

	record, err := pipeline.IngestDocument(ctx, doc)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.NotZero(t, record.Id)
	assert.Equal(t, "Travel Policy", record.Title)
	assert.Equal(t, core.StatusActive, record.Status)

	chunks, err := chunkRepo.GetChunksByDocument(ctx, record.Id)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.Equal(t, record.Id, chunk.DocumentId)
		assert.NotEmpty(t, chunk.HierarchyPath)
		assert.Equal(t, core.StatusActive, chunk.Status)
	}

	// Async embedding eventually fills every chunk vector.
	assert.Eventually(t, func() bool {
		chunks, err := chunkRepo.GetChunksByDocument(ctx, record.Id)
		if err != nil {
			return false
		}
		for _, chunk := range chunks {
			if len(chunk.Vector) == 0 {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)
}

func TestIngestDocumentExtractionFailure(t *testing.T) {
	pipeline, docRepo, chunkRepo := setupTestPipeline(t)
	ctx := context.Background()

	doc := indexer.ExtractedDocument{
		Title:  "Empty Policy",
		Status: core.StatusActive,
		Text:   "   \n\n  ",
	}

	_, err := pipeline.IngestDocument(ctx, doc)
	require.Error(t, err)

	var extractErr *core.StructureExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.NotZero(t, extractErr.DocumentId)

	flagged, err := docRepo.ListFlagged(ctx)
	require.NoError(t, err)
	reason, ok := flagged[extractErr.DocumentId]
	require.True(t, ok)
	assert.Equal(t, extractErr.Reason, reason)

	count, err := chunkRepo.CountChunks(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIngestBatchSkipsFailedDocuments(t *testing.T) {
	pipeline, docRepo, _ := setupTestPipeline(t)
	ctx := context.Background()

	docs := []indexer.ExtractedDocument{
		{Title: "Good One", Status: core.StatusActive, Text: "Some policy content."},
		{Title: "", Status: core.StatusActive, Text: "Content without a title."},
		{Title: "Blank Policy", Status: core.StatusActive, Text: "   \n\n  "},
		{Title: "Good Two", Status: core.StatusDraft, Text: "More policy content."},
	}

	report, err := pipeline.IngestBatch(ctx, docs)
	require.NoError(t, err)
	require.Len(t, report.Documents, 4)
	assert.NotNil(t, report.Documents[0])
	assert.Nil(t, report.Documents[1])
	assert.Nil(t, report.Documents[2])
	assert.NotNil(t, report.Documents[3])
	require.Len(t, report.Failures, 2)

	// The untitled document cannot be stored at all, so only the blank
	// one ends up flagged.
	flagged, err := docRepo.ListFlagged(ctx)
	require.NoError(t, err)
	assert.Len(t, flagged, 1)
	blankId := core.IDFromContent("Blank Policy")
	assert.Contains(t, flagged, blankId)
}

func TestEmbeddingProcessorMissingChunks(t *testing.T) {
	_, _, chunkRepo := setupTestPipeline(t)

	proc, err := newEmbeddingProcessor(chunkRepo, mock.NewMockEmbedder(), nil)
	require.NoError(t, err)

	// Unknown IDs yield no chunks and no error.
	err = proc.process(context.Background(), core.ID(42))
	assert.NoError(t, err)
}
