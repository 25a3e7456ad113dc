package view

import (
	"context"
	"io"
	"sync"

	"github.com/a-h/templ"
)

// ComponentFactory builds a templ component from view params.
type ComponentFactory func(params map[string]any) templ.Component

// TemplEngine renders registered templ components by name.
type TemplEngine struct {
	components map[string]ComponentFactory
	mu         sync.RWMutex
}

// NewTemplEngine creates an empty component registry.
func NewTemplEngine() *TemplEngine {
	return &TemplEngine{components: make(map[string]ComponentFactory)}
}

// Register binds name to a component factory, replacing any previous binding.
func (e *TemplEngine) Register(name string, fn ComponentFactory) *TemplEngine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.components[name] = fn
	return e
}

func (e *TemplEngine) Render(ctx context.Context, w io.Writer, v View) error {
	e.mu.RLock()
	fn, ok := e.components[v.Name]
	e.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	params := v.Params
	if params == nil {
		params = map[string]any{}
	}
	return fn(params).Render(ctx, w)
}
