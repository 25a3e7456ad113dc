// Command infuse runs an application configured entirely from a settings file.
//
// The settings file is named by INFUSE_CONFIG (default config.yaml); a .env
// file in the working directory is loaded first when present.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/dmitrymomot/infuse"
	"github.com/dmitrymomot/infuse/console"
	"github.com/dmitrymomot/infuse/middlewares"
	"github.com/dmitrymomot/infuse/pkg/config"
	"github.com/dmitrymomot/infuse/pkg/logger"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("load .env", slog.String("error", err.Error()))
		return 1
	}

	path := os.Getenv("INFUSE_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	settings, err := config.LoadFile(path)
	if err != nil {
		slog.Error("load settings", slog.String("path", path), slog.String("error", err.Error()))
		return 1
	}

	log := logger.New(loggerConfig(settings), middlewares.RequestIDExtractor())

	app, err := infuse.New(settings,
		infuse.WithLogger(log),
		middlewares.Register(),
	)
	if err != nil {
		log.Error("build application", slog.String("error", err.Error()))
		return 1
	}

	c, err := console.New(app)
	if err != nil {
		log.Error("build console", slog.String("error", err.Error()))
		return 1
	}
	return c.Execute(ctx, args)
}

// loggerConfig reads the logger section before the App exists, so the
// logger can be handed to it.
func loggerConfig(settings map[string]any) logger.Config {
	cfg := config.New(map[string]any{
		"logger": map[string]any{"level": "info", "format": logger.FormatJSON},
	}, settings)
	return logger.Config{
		Level:       cfg.GetString("logger.level"),
		Format:      cfg.GetString("logger.format"),
		SentryDSN:   cfg.GetString("logger.sentry-dsn"),
		Environment: cfg.GetString("site.environment"),
	}
}
