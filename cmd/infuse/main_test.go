package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/infuse/pkg/logger"
)

func TestLoggerConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cfg := loggerConfig(nil)
		require.Equal(t, "info", cfg.Level)
		require.Equal(t, logger.FormatJSON, cfg.Format)
		require.Empty(t, cfg.SentryDSN)
	})

	t.Run("from settings", func(t *testing.T) {
		t.Parallel()

		cfg := loggerConfig(map[string]any{
			"site": map[string]any{"environment": "staging"},
			"logger": map[string]any{
				"level":      "debug",
				"format":     "text",
				"sentry-dsn": "https://key@sentry.example.com/1",
			},
		})
		require.Equal(t, logger.Config{
			Level:       "debug",
			Format:      "text",
			SentryDSN:   "https://key@sentry.example.com/1",
			Environment: "staging",
		}, cfg)
	})
}
