package internal

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/google/renameio/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cast"
)

// routeCacheVersion is bumped whenever the cache layout changes.
const routeCacheVersion = 1

// RouteEntry is one config route: requests for Method and Pattern go to the
// handler registered under Handler.
type RouteEntry struct {
	Method  string `json:"method" yaml:"method"`
	Pattern string `json:"pattern" yaml:"pattern"`
	Handler string `json:"handler" yaml:"handler"`
}

// RouteTable is a normalized, validated and sorted list of routes.
type RouteTable []RouteEntry

type routeCacheFile struct {
	Routes  RouteTable `json:"routes"`
	Version int        `json:"version"`
}

// ParseRoutes compiles route definitions as found under the "routes" config
// key. Each item is either a string "METHOD /pattern handler" or a mapping
// with method, pattern and handler keys. A missing method means GET.
func ParseRoutes(raw any) (RouteTable, error) {
	if raw == nil {
		return nil, nil
	}
	v := reflect.ValueOf(raw)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: routes must be a list, got %T", ErrInvalidRoute, raw)
	}
	items := make([]any, v.Len())
	for i := range items {
		items[i] = v.Index(i).Interface()
	}

	table := make(RouteTable, 0, len(items))
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		e, err := parseRouteItem(item)
		if err != nil {
			return nil, fmt.Errorf("%w: routes[%d]: %v", ErrInvalidRoute, i, err)
		}
		key := e.Method + " " + e.Pattern
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate route %s", ErrInvalidRoute, key)
		}
		seen[key] = true
		table = append(table, e)
	}
	table.sort()
	return table, nil
}

func parseRouteItem(item any) (RouteEntry, error) {
	var e RouteEntry
	if s, ok := item.(string); ok {
		fields := strings.Fields(s)
		switch len(fields) {
		case 2:
			e = RouteEntry{Pattern: fields[0], Handler: fields[1]}
		case 3:
			e = RouteEntry{Method: fields[0], Pattern: fields[1], Handler: fields[2]}
		default:
			return e, fmt.Errorf("want \"METHOD /pattern handler\", got %q", s)
		}
	} else {
		m, err := cast.ToStringMapStringE(item)
		if err != nil {
			return e, err
		}
		e = RouteEntry{Method: m["method"], Pattern: m["pattern"], Handler: m["handler"]}
	}
	return e.normalize()
}

func (e RouteEntry) normalize() (RouteEntry, error) {
	e.Method = strings.ToUpper(strings.TrimSpace(e.Method))
	if e.Method == "" {
		e.Method = "GET"
	}
	e.Pattern = strings.TrimSpace(e.Pattern)
	e.Handler = strings.TrimSpace(e.Handler)
	if !strings.HasPrefix(e.Pattern, "/") {
		return e, fmt.Errorf("pattern %q must start with /", e.Pattern)
	}
	if e.Handler == "" {
		return e, fmt.Errorf("route %s %s has no handler", e.Method, e.Pattern)
	}
	return e, nil
}

func (t RouteTable) sort() {
	slices.SortFunc(t, func(a, b RouteEntry) int {
		return cmp.Or(strings.Compare(a.Pattern, b.Pattern), strings.Compare(a.Method, b.Method))
	})
}

// WriteRouteCache stores table at path as zstd-compressed JSON. The file is
// replaced atomically.
func WriteRouteCache(path string, table RouteTable) error {
	data, err := json.Marshal(routeCacheFile{Version: routeCacheVersion, Routes: table})
	if err != nil {
		return fmt.Errorf("encode route cache: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	defer enc.Close()
	packed := enc.EncodeAll(data, nil)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create route cache dir: %w", err)
	}
	if err := renameio.WriteFile(path, packed, 0o644); err != nil {
		return fmt.Errorf("write route cache: %w", err)
	}
	return nil
}

// ReadRouteCache loads a table written by WriteRouteCache. A missing file
// returns an error matching fs.ErrNotExist; a corrupt or outdated file
// returns one matching ErrRouteCache.
func ReadRouteCache(path string) (RouteTable, error) {
	packed, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	data, err := dec.DecodeAll(packed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRouteCache, err)
	}
	var f routeCacheFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRouteCache, err)
	}
	if f.Version != routeCacheVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrRouteCache, f.Version, routeCacheVersion)
	}
	for i, e := range f.Routes {
		if f.Routes[i], err = e.normalize(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRouteCache, err)
		}
	}
	f.Routes.sort()
	return f.Routes, nil
}

// RemoveRouteCache deletes the cache file. It reports whether a file existed.
func RemoveRouteCache(path string) (bool, error) {
	err := os.Remove(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Watch reloads the route table whenever the cache file at path is written or
// replaced, until ctx is done. A cache that fails to load or compile is
// logged and the live table is kept.
func (rt *Router) Watch(ctx context.Context, path string, log *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create route cache watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory: atomic replacement swaps the file's inode.
	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || (!ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write)) {
				continue
			}
			table, err := ReadRouteCache(path)
			if err == nil {
				err = rt.SetTable(table)
			}
			if err != nil {
				log.WarnContext(ctx, "route cache reload failed", slog.String("path", path), slog.String("error", err.Error()))
				continue
			}
			log.InfoContext(ctx, "route cache reloaded", slog.String("path", path), slog.Int("routes", len(table)))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.WarnContext(ctx, "route cache watcher error", slog.String("error", err.Error()))
		}
	}
}
