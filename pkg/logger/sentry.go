package logger

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// newSentryHandler initializes the Sentry SDK. Errors become Sentry issues;
// warnings and errors are kept as breadcrumb logs.
func newSentryHandler(dsn, environment string) (slog.Handler, error) {
	if environment == "" {
		environment = "production"
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		EnableLogs:  true,
	}); err != nil {
		return nil, err
	}
	return sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
	}.NewSentryHandler(context.Background()), nil
}
