package badger

import (
	"context"
	"encoding/binary"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/retrievit/storage"
)

// SnapshotStore implements storage.SnapshotStore for BadgerDB.
//
// Payloads are written under versioned keys; the current-version
// pointer is a separate key moved in its own committed transaction, so
// a crash during a rebuild never affects the published version.
type SnapshotStore struct {
	backend *Backend
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(backend *Backend) *SnapshotStore {
	return &SnapshotStore{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (s *SnapshotStore) Close() error {
	return nil
}

// PutSnapshot stores a snapshot payload under the given version.
func (s *SnapshotStore) PutSnapshot(ctx context.Context, version uint64, payload []byte) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeSnapshotKey(version), payload); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetSnapshot retrieves the payload for a version.
func (s *SnapshotStore) GetSnapshot(ctx context.Context, version uint64) ([]byte, error) {
	var payload []byte
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSnapshotKey(version))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// CurrentVersion returns the published snapshot version.
func (s *SnapshotStore) CurrentVersion(ctx context.Context) (uint64, error) {
	var version uint64
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(snapshotCurrentKey))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return storage.ErrTruncatedData
			}
			version = binary.BigEndian.Uint64(val)
			return nil
		})
	}, false)
	return version, err
}

// SetCurrentVersion atomically publishes a version as current.
func (s *SnapshotStore) SetCurrentVersion(ctx context.Context, version uint64) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		// The payload must exist before the pointer may move to it.
		if _, err := tx.Get(makeSnapshotKey(version)); err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, version)
		if err := tx.Set([]byte(snapshotCurrentKey), buf); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListVersions returns all stored snapshot versions in ascending order.
func (s *SnapshotStore) ListVersions(ctx context.Context) ([]uint64, error) {
	var versions []uint64
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(snapshotPrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) != len(prefix)+8 {
				continue
			}
			versions = append(versions, binary.BigEndian.Uint64(key[len(prefix):]))
		}
		return nil
	}, false)
	return versions, err
}

// DeleteSnapshot removes a retired snapshot payload.
func (s *SnapshotStore) DeleteSnapshot(ctx context.Context, version uint64) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(snapshotCurrentKey))
		if err == nil {
			var current uint64
			if err := item.Value(func(val []byte) error {
				if len(val) == 8 {
					current = binary.BigEndian.Uint64(val)
				}
				return nil
			}); err != nil {
				return err
			}
			if current == version {
				return storage.ErrCurrentVersion
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		if err := tx.Delete(makeSnapshotKey(version)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
