package calibrate

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/retrievit/storage"
	badgerstore "github.com/poiesic/retrievit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoForTest(t *testing.T) storage.CalibrationRepository {
	t.Helper()
	backend, err := badgerstore.OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	repo, err := badgerstore.NewCalibrationRepository(backend)
	require.NoError(t, err)
	return repo
}

func TestCalibratorStartsWithIdentity(t *testing.T) {
	c := New(newRepoForTest(t))
	defer c.Stop()

	m := c.Current()
	require.NotNil(t, m)
	assert.Equal(t, uint64(0), m.Version())
	assert.True(t, m.IsIdentity())
}

func TestRecordFeedbackAndRefresh(t *testing.T) {
	ctx := context.Background()
	c := New(newRepoForTest(t))
	defer c.Stop()

	// Feed an overconfident history: 0.85 predictions, 30% correct.
	for i := 0; i < 10; i++ {
		require.NoError(t, c.RecordFeedback(ctx, "q1", 42, 0.85, i < 3))
	}

	before := c.Current()
	m, err := c.Refresh(ctx)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), m.Version())
	assert.Same(t, m, c.Current())
	assert.NotSame(t, before, c.Current(), "refresh publishes a new version")
	assert.Equal(t, 10, m.Observations())
	assert.Less(t, m.Calibrate(0.85), before.Calibrate(0.85))
}

func TestRefreshVersionsIncrement(t *testing.T) {
	ctx := context.Background()
	c := New(newRepoForTest(t))
	defer c.Stop()

	m1, err := c.Refresh(ctx)
	require.NoError(t, err)
	m2, err := c.Refresh(ctx)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), m1.Version())
	assert.Equal(t, uint64(2), m2.Version())
}

func TestInFlightQueryKeepsItsMapping(t *testing.T) {
	ctx := context.Background()
	c := New(newRepoForTest(t))
	defer c.Stop()

	bound := c.Current()
	for i := 0; i < 10; i++ {
		require.NoError(t, c.RecordFeedback(ctx, "q", 1, 0.9, false))
	}
	_, err := c.Refresh(ctx)
	require.NoError(t, err)

	// The previously bound mapping is untouched by the refresh.
	assert.Equal(t, uint64(0), bound.Version())
	assert.InDelta(t, 0.9, bound.Calibrate(0.9), 1e-9)
}

func TestBackgroundRefreshLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := New(newRepoForTest(t))
	c.Start(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return c.Current().Version() >= 2
	}, time.Second, 5*time.Millisecond, "scheduled refreshes publish new versions")

	c.Stop()
	settled := c.Current().Version()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, c.Current().Version(), "no refreshes after Stop")
}
