package vector

import (
	"context"
	"testing"

	badgerstore "github.com/poiesic/retrievit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreForTest(t *testing.T) *badgerstore.SnapshotStore {
	t.Helper()
	backend, err := badgerstore.OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	return badgerstore.NewSnapshotStore(backend)
}

func TestManagerCurrentUnavailable(t *testing.T) {
	m := NewManager(nil)
	_, err := m.Current()
	require.ErrorIs(t, err, ErrIndexUnavailable)
}

func TestManagerPublish(t *testing.T) {
	m := NewManager(nil)
	snap, err := Build(randomChunks(t, 5, 4), 1)
	require.NoError(t, err)

	m.Publish(snap)

	got, err := m.Current()
	require.NoError(t, err)
	assert.Same(t, snap, got)
}

func TestManagerSaveAndPublishRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStoreForTest(t)

	m := NewManager(store)
	snap, err := Build(randomChunks(t, 30, 8), 1)
	require.NoError(t, err)
	require.NoError(t, m.SaveAndPublish(ctx, snap))

	// A fresh manager restores the published snapshot from the store.
	restored := NewManager(store)
	loaded, err := restored.LoadCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.Version(), loaded.Version())
	assert.Equal(t, snap.Len(), loaded.Len())
}

func TestManagerLoadCurrentEmptyStore(t *testing.T) {
	store := newStoreForTest(t)

	m := NewManager(store)
	_, err := m.LoadCurrent(context.Background())
	require.ErrorIs(t, err, ErrSnapshotMissing)
}

func TestManagerNextVersion(t *testing.T) {
	ctx := context.Background()
	store := newStoreForTest(t)
	m := NewManager(store)

	v, err := m.NextVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	snap, err := Build(randomChunks(t, 5, 4), v)
	require.NoError(t, err)
	require.NoError(t, m.SaveAndPublish(ctx, snap))

	v, err = m.NextVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)
}

func TestManagerPruneRetired(t *testing.T) {
	ctx := context.Background()
	store := newStoreForTest(t)
	m := NewManager(store)

	for version := uint64(1); version <= 3; version++ {
		snap, err := Build(randomChunks(t, 5, 4), version)
		require.NoError(t, err)
		require.NoError(t, m.SaveAndPublish(ctx, snap))
	}
	require.NoError(t, m.PruneRetired(ctx))

	versions, err := store.ListVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, versions)
}
