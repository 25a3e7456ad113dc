package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor pulls one attribute out of a context.
// It returns false when the context carries nothing to log.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

type extractingHandler struct {
	next       slog.Handler
	extractors []ContextExtractor
}

// WithExtractors wraps h so that each record gets the attributes produced by
// extractors from the context passed to the log call. Nil extractors are dropped.
func WithExtractors(h slog.Handler, extractors ...ContextExtractor) slog.Handler {
	var list []ContextExtractor
	for _, ex := range extractors {
		if ex != nil {
			list = append(list, ex)
		}
	}
	if len(list) == 0 {
		return h
	}
	return &extractingHandler{next: h, extractors: list}
}

func (h *extractingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *extractingHandler) Handle(ctx context.Context, rec slog.Record) error {
	if ctx != nil {
		for _, ex := range h.extractors {
			if attr, ok := ex(ctx); ok {
				rec.AddAttrs(attr)
			}
		}
	}
	return h.next.Handle(ctx, rec)
}

func (h *extractingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &extractingHandler{next: h.next.WithAttrs(attrs), extractors: h.extractors}
}

func (h *extractingHandler) WithGroup(name string) slog.Handler {
	return &extractingHandler{next: h.next.WithGroup(name), extractors: h.extractors}
}
