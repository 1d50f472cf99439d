package rebuild

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker(t *testing.T) {
	t.Run("reports at intervals", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := NewProgressTracker(&buf, 100, 10)
		tracker.Start()

		tracker.Update(5)
		assert.Empty(t, buf.String())

		tracker.Update(10)
		assert.Contains(t, buf.String(), "10/100")
	})

	t.Run("increment accumulates", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := NewProgressTracker(&buf, 20, 10)
		tracker.Start()

		tracker.Increment(6)
		tracker.Increment(6)
		assert.Contains(t, buf.String(), "12/20")
	})

	t.Run("caps at total", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := NewProgressTracker(&buf, 10, 1)
		tracker.Start()

		tracker.Update(50)
		assert.Contains(t, buf.String(), "10/10")
		assert.Contains(t, buf.String(), "100.0%")
	})

	t.Run("finish prints final line", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := NewProgressTracker(&buf, 7, 100)
		tracker.Start()
		tracker.Update(3)
		tracker.Finish()

		out := buf.String()
		assert.Contains(t, out, "7/7")
		assert.True(t, strings.HasSuffix(out, "\n"))
	})

	t.Run("ignores updates before start", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := NewProgressTracker(&buf, 10, 1)
		tracker.Update(5)
		tracker.Increment(5)
		assert.Empty(t, buf.String())
		assert.Zero(t, tracker.Elapsed())
	})
}
