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

func newCalibrationTestRepo(t *testing.T) (*Backend, storage.CalibrationRepository) {
	t.Helper()
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	repo, err := NewCalibrationRepository(backend)
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return backend, repo
}

func TestCalibrationRepository_AppendAndList(t *testing.T) {
	_, repo := newCalibrationTestRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	records := []*core.CalibrationRecord{
		{QueryId: "q1", ChunkId: 1, Predicted: 0.9, Correct: true, RecordedAt: base},
		{QueryId: "q2", ChunkId: 2, Predicted: 0.4, Correct: false, RecordedAt: base.Add(time.Minute)},
		{QueryId: "q3", ChunkId: 3, Predicted: 0.7, Correct: true, RecordedAt: base.Add(2 * time.Minute)},
	}

	appended, err := repo.AppendRecords(ctx, records...)
	require.NoError(t, err)
	for _, record := range appended {
		assert.NotZero(t, record.Id)
	}

	all, err := repo.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	// Chronological order
	assert.Equal(t, "q1", all[0].QueryId)
	assert.Equal(t, "q3", all[2].QueryId)

	count, err := repo.CountRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCalibrationRepository_GetRecordsSince(t *testing.T) {
	_, repo := newCalibrationTestRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	_, err := repo.AppendRecords(ctx,
		&core.CalibrationRecord{QueryId: "old", ChunkId: 1, Predicted: 0.5, RecordedAt: base},
		&core.CalibrationRecord{QueryId: "new", ChunkId: 2, Predicted: 0.6, RecordedAt: base.Add(30 * time.Minute)},
	)
	require.NoError(t, err)

	recent, err := repo.GetRecordsSince(ctx, base.Add(15*time.Minute))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "new", recent[0].QueryId)
}

func TestCalibrationRepository_RejectsOutOfRange(t *testing.T) {
	_, repo := newCalibrationTestRepo(t)

	_, err := repo.AppendRecords(context.Background(),
		&core.CalibrationRecord{QueryId: "bad", ChunkId: 1, Predicted: 1.5},
	)
	assert.ErrorIs(t, err, core.ErrConfidenceOutOfRange)
}
