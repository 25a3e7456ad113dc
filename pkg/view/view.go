package view

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrNotFound is returned by engines that have no view with the requested name.
var ErrNotFound = errors.New("view: not found")

// View names a template and the parameters it is rendered with.
type View struct {
	Params map[string]any
	Name   string
}

// New creates a View.
func New(name string, params map[string]any) View {
	return View{Name: name, Params: params}
}

// Engine renders views into a writer.
type Engine interface {
	Render(ctx context.Context, w io.Writer, v View) error
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, w io.Writer, v View) error

func (f EngineFunc) Render(ctx context.Context, w io.Writer, v View) error {
	return f(ctx, w, v)
}

// AssetURL joins base and path with exactly one slash between them.
func AssetURL(base, path string) string {
	if base == "" {
		return "/" + strings.TrimLeft(path, "/")
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// mergeParams returns globals overlaid with params. Params win.
func mergeParams(globals, params map[string]any) map[string]any {
	out := make(map[string]any, len(globals)+len(params))
	for k, v := range globals {
		out[k] = v
	}
	for k, v := range params {
		out[k] = v
	}
	return out
}
