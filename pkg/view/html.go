package view

import (
	"context"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"path"
	"sync"
)

// HTMLEngine renders html/template files named "<view>.html" from a filesystem.
// Parsed templates are cached per name.
type HTMLEngine struct {
	fsys    fs.FS
	globals map[string]any
	funcs   template.FuncMap
	cache   map[string]*template.Template
	layout  string
	mu      sync.RWMutex
	nocache bool
}

// HTMLOption configures an HTMLEngine.
type HTMLOption func(*HTMLEngine)

// WithGlobal makes value available to every view under key.
func WithGlobal(key string, value any) HTMLOption {
	return func(e *HTMLEngine) {
		e.globals[key] = value
	}
}

// WithAssetBaseURL sets the prefix used by the asset_url template function.
func WithAssetBaseURL(base string) HTMLOption {
	return func(e *HTMLEngine) {
		e.funcs["asset_url"] = func(p string) string { return AssetURL(base, p) }
	}
}

// WithFuncs adds template functions.
func WithFuncs(funcs template.FuncMap) HTMLOption {
	return func(e *HTMLEngine) {
		for k, v := range funcs {
			e.funcs[k] = v
		}
	}
}

// WithLayout parses the named file together with every view, so views can
// define blocks the layout renders.
func WithLayout(name string) HTMLOption {
	return func(e *HTMLEngine) {
		e.layout = name
	}
}

// WithoutCache re-parses templates on every render. Useful in development.
func WithoutCache() HTMLOption {
	return func(e *HTMLEngine) {
		e.nocache = true
	}
}

// NewHTMLEngine creates an engine reading templates from fsys.
func NewHTMLEngine(fsys fs.FS, opts ...HTMLOption) *HTMLEngine {
	e := &HTMLEngine{
		fsys:    fsys,
		globals: make(map[string]any),
		funcs: template.FuncMap{
			"asset_url": func(p string) string { return AssetURL("", p) },
		},
		cache: make(map[string]*template.Template),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render executes the view with the globals overlaid by its params.
func (e *HTMLEngine) Render(_ context.Context, w io.Writer, v View) error {
	tmpl, err := e.lookup(v.Name)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, mergeParams(e.globals, v.Params))
}

func (e *HTMLEngine) lookup(name string) (*template.Template, error) {
	if !e.nocache {
		e.mu.RLock()
		tmpl, ok := e.cache[name]
		e.mu.RUnlock()
		if ok {
			return tmpl, nil
		}
	}

	file := path.Clean(name) + ".html"
	if !fs.ValidPath(file) {
		return nil, ErrNotFound
	}
	if _, err := fs.Stat(e.fsys, file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	files := []string{file}
	if e.layout != "" {
		files = []string{e.layout, file}
	}
	tmpl, err := template.New(path.Base(files[0])).Funcs(e.funcs).ParseFS(e.fsys, files...)
	if err != nil {
		return nil, err
	}

	if !e.nocache {
		e.mu.Lock()
		e.cache[name] = tmpl
		e.mu.Unlock()
	}
	return tmpl, nil
}
