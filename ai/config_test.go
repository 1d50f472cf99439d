package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.RaterHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "qwen2.5:3b", cfg.RaterModel)
	assert.Equal(t, 2*time.Second, cfg.RaterTimeout)
	assert.True(t, cfg.RaterEnabled)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		// Should have default values
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.RaterHost)
		assert.Equal(t, 2*time.Second, cfg.RaterTimeout)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.RaterHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithRaterHost("http://rate:9090/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://rate:9090/v1", cfg.RaterHost)
	})

	t.Run("with custom models", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingModel("text-embedding-3-small"),
			WithRaterModel("gpt-4o-mini"),
		)

		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "gpt-4o-mini", cfg.RaterModel)
	})

	t.Run("with custom rater timeout", func(t *testing.T) {
		cfg := NewConfig(WithRaterTimeout(5 * time.Second))

		assert.Equal(t, 5*time.Second, cfg.RaterTimeout)
	})

	t.Run("with rating disabled", func(t *testing.T) {
		cfg := NewConfig(WithRaterEnabled(false))

		assert.False(t, cfg.RaterEnabled)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://custom:8080/v1"),
			WithEmbeddingModel("custom-embed"),
			WithRaterModel("custom-rate"),
			WithRaterTimeout(time.Second),
		)

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.RaterHost)
		assert.Equal(t, "custom-embed", cfg.EmbeddingModel)
		assert.Equal(t, "custom-rate", cfg.RaterModel)
		assert.Equal(t, time.Second, cfg.RaterTimeout)
	})
}

func TestConfigNormalize(t *testing.T) {
	t.Run("adds v1 suffix to bare hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080"),
			WithRaterHost("http://rate:9090/"),
		)
		cfg.Normalize()

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://rate:9090/v1", cfg.RaterHost)
	})

	t.Run("leaves existing v1 suffix alone", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))
		cfg.Normalize()

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
	})

	t.Run("does not touch empty hosts", func(t *testing.T) {
		cfg := &Config{}
		cfg.Normalize()

		assert.Empty(t, cfg.EmbeddingHost)
		assert.Empty(t, cfg.RaterHost)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("default config is valid", func(t *testing.T) {
		cfg := DefaultConfig()
		require.NoError(t, cfg.Validate())
	})

	t.Run("normalizes before validating", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080"))
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
	})

	t.Run("missing embedding host", func(t *testing.T) {
		cfg := NewConfig(WithEmbeddingHost(""))
		require.Error(t, cfg.Validate())
	})

	t.Run("missing embedding model", func(t *testing.T) {
		cfg := NewConfig(WithEmbeddingModel(""))
		require.Error(t, cfg.Validate())
	})

	t.Run("missing rater model", func(t *testing.T) {
		cfg := NewConfig(WithRaterModel(""))
		require.Error(t, cfg.Validate())
	})

	t.Run("non-positive rater timeout", func(t *testing.T) {
		cfg := NewConfig(WithRaterTimeout(0))
		require.Error(t, cfg.Validate())
	})

	t.Run("rater fields ignored when rating disabled", func(t *testing.T) {
		cfg := NewConfig(
			WithRaterEnabled(false),
			WithRaterHost(""),
			WithRaterModel(""),
			WithRaterTimeout(0),
		)
		require.NoError(t, cfg.Validate())
	})
}
