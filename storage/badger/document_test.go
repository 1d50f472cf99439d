package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocument(title string, status core.DocumentStatus) *core.Document {
	return &core.Document{
		Title:      title,
		Size:       2048,
		Format:     "markdown",
		Status:     status,
		IngestedAt: time.Now().UTC().Add(-time.Hour),
	}
}

func TestDocumentRepository_AddAndGet(t *testing.T) {
	docRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	added, err := docRepo.AddDocuments(ctx, newTestDocument("Remote Work Policy", core.StatusActive))
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, core.IDFromContent("Remote Work Policy"), added[0].Id)

	got, err := docRepo.GetDocument(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "Remote Work Policy", got.Title)
	assert.Equal(t, core.StatusActive, got.Status)
}

func TestDocumentRepository_GetDocument_NotFound(t *testing.T) {
	docRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	_, err = docRepo.GetDocument(context.Background(), 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDocumentRepository_UpdateStatus(t *testing.T) {
	docRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	added, err := docRepo.AddDocuments(ctx, newTestDocument("Old Handbook", core.StatusActive))
	require.NoError(t, err)

	added[0].Status = core.StatusArchived
	_, err = docRepo.UpdateDocuments(ctx, added[0])
	require.NoError(t, err)

	got, err := docRepo.GetDocument(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusArchived, got.Status)
}

func TestDocumentRepository_ListDocuments(t *testing.T) {
	docRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	_, err = docRepo.AddDocuments(ctx,
		newTestDocument("Policy A", core.StatusActive),
		newTestDocument("Policy B", core.StatusDraft),
	)
	require.NoError(t, err)

	docs, err := docRepo.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestDocumentRepository_FlagDocument(t *testing.T) {
	docRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	added, err := docRepo.AddDocuments(ctx, newTestDocument("Scanned PDF", core.StatusActive))
	require.NoError(t, err)

	require.NoError(t, docRepo.FlagDocument(ctx, added[0].Id, "no extractable structure"))

	flagged, err := docRepo.ListFlagged(ctx)
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, "no extractable structure", flagged[added[0].Id])
}

func TestDocumentRepository_DeleteRemovesFlag(t *testing.T) {
	docRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	added, err := docRepo.AddDocuments(ctx, newTestDocument("Broken Upload", core.StatusActive))
	require.NoError(t, err)
	require.NoError(t, docRepo.FlagDocument(ctx, added[0].Id, "bad encoding"))

	require.NoError(t, docRepo.DeleteDocuments(ctx, added[0].Id))

	flagged, err := docRepo.ListFlagged(ctx)
	require.NoError(t, err)
	assert.Empty(t, flagged)
}
