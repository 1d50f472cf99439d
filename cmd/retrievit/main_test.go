package main

import (
	"log/slog"
	"testing"

	"github.com/poiesic/retrievit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestParseStatus(t *testing.T) {
	t.Run("known statuses", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected core.DocumentStatus
		}{
			{"active", core.StatusActive},
			{"Active", core.StatusActive},
			{"draft", core.StatusDraft},
			{"ARCHIVED", core.StatusArchived},
		}
		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				status, err := parseStatus(tc.input)
				require.NoError(t, err)
				assert.Equal(t, tc.expected, status)
			})
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := parseStatus("published")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "published")
	})
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: tc.input,
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, tc := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(tc, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: "info",
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}

		err := app.Run([]string{"test", "--log-level", "verbose"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestRebuildCommandValidation(t *testing.T) {
	app := &cli.App{
		Name: "retrievit",
		Commands: []*cli.Command{
			{
				Name:   "rebuild",
				Action: rebuildCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{Name: "batch-size", Value: 100},
					&cli.IntFlag{Name: "report-interval", Value: 100},
					&cli.IntFlag{Name: "max-retries", Value: 3},
					&cli.DurationFlag{Name: "retry-delay"},
				),
			},
		},
	}

	t.Run("db is required", func(t *testing.T) {
		err := app.Run([]string{"retrievit", "rebuild"})
		require.Error(t, err)
	})

	t.Run("batch-size must be positive", func(t *testing.T) {
		err := app.Run([]string{"retrievit", "rebuild", "--db", t.TempDir(), "--batch-size", "0"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch-size")
	})
}
