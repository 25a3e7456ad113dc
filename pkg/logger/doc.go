// Package logger builds the structured logger used by the application.
//
// Loggers are plain *slog.Logger values. New picks a JSON or text handler and a
// minimum level from Config, optionally fans records out to Sentry, and wraps
// the result so that ContextExtractors can add request-scoped attributes:
//
//	log := logger.New(logger.Config{Level: "debug", Format: "text"},
//	    middlewares.RequestIDExtractor(),
//	)
//	log.InfoContext(req.Context(), "user signed in")
//	// time=... level=INFO msg="user signed in" request_id=8c1f...
//
// Extractors run on every call, so values stored in the context after the
// logger was built are still picked up.
//
// When SentryDSN is set, errors create Sentry issues and warnings are stored
// as logs. If the SDK cannot be initialized the logger keeps writing to the
// configured output and reports the failure once.
//
// NewNope returns a logger that discards everything; the application container
// uses it until a real logger is configured.
package logger
