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


package vector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/poiesic/retrievit/storage"
)

// Manager owns the published snapshot pointer. Queries load the
// current snapshot with a single atomic read and hold it for their
// whole lifetime; Publish swaps the pointer without blocking readers.
// Retired snapshots are reclaimed by the garbage collector once the
// last in-flight query drops its reference.
type Manager struct {
	current atomic.Pointer[Snapshot]
	store   storage.SnapshotStore
	logger  *slog.Logger
}

// NewManager creates a manager backed by the given snapshot store.
// The store may be nil for purely in-memory use (tests).
func NewManager(store storage.SnapshotStore) *Manager {
	return &Manager{
		store:  store,
		logger: slog.Default().With("component", "vector-manager"),
	}
}

// Current returns the published snapshot. Returns ErrIndexUnavailable
// when nothing has been published; callers must surface this as a
// query failure, never as an empty result.
func (m *Manager) Current() (*Snapshot, error) {
	s := m.current.Load()
	if s == nil {
		return nil, ErrIndexUnavailable
	}
	return s, nil
}

// Publish makes the snapshot the current one for new queries.
// In-flight queries keep the snapshot they started with.
func (m *Manager) Publish(s *Snapshot) {
	m.current.Store(s)
	m.logger.Info("published index snapshot",
		"version", s.Version(), "vectors", s.Len(), "skipped", s.SkippedChunks())
}

// SaveAndPublish persists the snapshot and makes it current, in that
// order: the payload is written first, the store's current pointer is
// committed second, and only then does the in-process pointer move. A
// crash at any point leaves the previously published version intact.
func (m *Manager) SaveAndPublish(ctx context.Context, s *Snapshot) error {
	if m.store == nil {
		m.Publish(s)
		return nil
	}
	if err := m.store.PutSnapshot(ctx, s.Version(), s.Marshal()); err != nil {
		return fmt.Errorf("persisting snapshot %d: %w", s.Version(), err)
	}
	if err := m.store.SetCurrentVersion(ctx, s.Version()); err != nil {
		return fmt.Errorf("publishing snapshot %d: %w", s.Version(), err)
	}
	m.Publish(s)
	return nil
}

// LoadCurrent restores the published snapshot from the store, e.g. at
// startup. Returns ErrSnapshotMissing when the store has no published
// version.
func (m *Manager) LoadCurrent(ctx context.Context) (*Snapshot, error) {
	if m.store == nil {
		return nil, ErrSnapshotMissing
	}
	version, err := m.store.CurrentVersion(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSnapshotMissing
		}
		return nil, fmt.Errorf("reading current snapshot version: %w", err)
	}
	payload, err := m.store.GetSnapshot(ctx, version)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: version %d published but payload absent", ErrSnapshotMissing, version)
		}
		return nil, fmt.Errorf("reading snapshot %d: %w", version, err)
	}
	s, err := Load(payload)
	if err != nil {
		return nil, fmt.Errorf("snapshot %d: %w", version, err)
	}
	m.Publish(s)
	return s, nil
}

// NextVersion returns one past the highest stored version, or 1 for an
// empty store. Rebuilds use it to pick the next generation number.
func (m *Manager) NextVersion(ctx context.Context) (uint64, error) {
	if m.store == nil {
		cur := m.current.Load()
		if cur == nil {
			return 1, nil
		}
		return cur.Version() + 1, nil
	}
	versions, err := m.store.ListVersions(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing snapshot versions: %w", err)
	}
	if len(versions) == 0 {
		return 1, nil
	}
	return versions[len(versions)-1] + 1, nil
}

// PruneRetired deletes all stored snapshot payloads except the current
// one. Safe to call after a successful publish.
func (m *Manager) PruneRetired(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	current, err := m.store.CurrentVersion(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	versions, err := m.store.ListVersions(ctx)
	if err != nil {
		return err
	}
	for _, v := range versions {
		if v == current {
			continue
		}
		if err := m.store.DeleteSnapshot(ctx, v); err != nil {
			return fmt.Errorf("pruning snapshot %d: %w", v, err)
		}
		m.logger.Debug("pruned retired snapshot", "version", v)
	}
	return nil
}
