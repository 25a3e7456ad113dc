package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format names accepted by Config.Format.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config describes the logger built by New.
type Config struct {
	Output      io.Writer // default os.Stdout
	Level       string    // debug, info, warn, error; default info
	Format      string    // json or text; default json
	SentryDSN   string    // empty disables Sentry
	Environment string    // reported to Sentry
}

// New builds a logger from cfg. Extractors add request-scoped attributes to
// every record; Sentry receives warnings and errors when a DSN is configured.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, FormatText) {
		h = slog.NewTextHandler(out, opts)
	} else {
		h = slog.NewJSONHandler(out, opts)
	}

	if cfg.SentryDSN != "" {
		if sh, err := newSentryHandler(cfg.SentryDSN, cfg.Environment); err != nil {
			slog.New(h).Error("sentry disabled", slog.String("error", err.Error()))
		} else {
			h = Fanout(h, sh)
		}
	}

	return slog.New(WithExtractors(h, extractors...))
}

// ParseLevel maps a level name to slog.Level. Unknown names map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewNope returns a logger that discards everything.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
