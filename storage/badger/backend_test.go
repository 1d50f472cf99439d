package badger

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackendInMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackendOnDisk(t *testing.T) {
	backend, err := OpenBackend(t.TempDir(), false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}

func TestWithTxRoundTrip(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	key := makeDocumentKey(7)
	err = backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(key, []byte("travel policy")); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	require.NoError(t, err)

	var got []byte
	err = backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if err != nil {
			return err
		}
		got, err = item.ValueCopy(nil)
		return err
	}, false)
	require.NoError(t, err)
	assert.Equal(t, []byte("travel policy"), got)
}

func TestWithTxDiscardsOnError(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	key := makeDocumentKey(8)
	err = backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(key, []byte("never committed")); err != nil {
			return err
		}
		return assert.AnError
	}, true)
	require.Error(t, err)

	err = backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(key)
		return err
	}, false)
	assert.ErrorIs(t, err, badger.ErrKeyNotFound)
}
