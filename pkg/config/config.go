package config

import (
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Store is a concurrency-safe tree of settings addressed by dot-separated paths.
// Reads go through a viper instance built from the current tree; every write
// produces a new tree and a new viper instance, so readers never observe a
// partially applied change.
type Store struct {
	mu   sync.RWMutex
	tree map[string]any
	v    *viper.Viper
}

// New deep-merges the override trees over defaults, left to right.
// Nested mappings merge key by key; any other value replaces the target.
// Neither input is modified.
func New(defaults map[string]any, overrides ...map[string]any) *Store {
	tree := merge(nil, defaults)
	for _, o := range overrides {
		tree = merge(tree, o)
	}
	s := &Store{}
	s.swap(tree)
	return s
}

// Get returns the value at path, or nil when any segment is missing.
func (s *Store) Get(path string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.Get(path)
}

// Set stores value at path, creating intermediate mappings as needed.
// A non-mapping value found on the way is replaced by a mapping.
func (s *Store) Set(path string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swap(setPath(s.tree, path, value))
}

// SetIfAbsent stores value only when path holds nothing or an empty string.
// It reports whether the value was stored. The check and the write happen
// under one lock, so concurrent callers store at most one value.
func (s *Store) SetIfAbsent(path string, value any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur := s.v.Get(path); cur != nil && cast.ToString(cur) != "" {
		return false
	}
	s.swap(setPath(s.tree, path, value))
	return true
}

// Merge deep-merges tree over the current settings.
func (s *Store) Merge(tree map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swap(merge(s.tree, tree))
}

// IsSet reports whether path holds a value.
func (s *Store) IsSet(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.IsSet(path)
}

func (s *Store) GetString(path string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetString(path)
}

func (s *Store) GetBool(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetBool(path)
}

func (s *Store) GetInt(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetInt(path)
}

func (s *Store) GetStringSlice(path string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetStringSlice(path)
}

func (s *Store) GetStringMapString(path string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetStringMapString(path)
}

// GetDuration reads a duration. Strings use time.ParseDuration syntax
// ("1m30s"); bare numbers are seconds.
func (s *Store) GetDuration(path string) time.Duration {
	v := s.Get(path)
	switch n := v.(type) {
	case nil:
		return 0
	case string:
		if f, err := cast.ToFloat64E(strings.TrimSpace(n)); err == nil {
			return time.Duration(f * float64(time.Second))
		}
		return cast.ToDuration(n)
	case time.Duration:
		return n
	default:
		f, err := cast.ToFloat64E(n)
		if err != nil {
			return 0
		}
		return time.Duration(f * float64(time.Second))
	}
}

// All returns a deep copy of the settings tree.
func (s *Store) All() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.tree)
}

// swap must be called with mu held for writing.
func (s *Store) swap(tree map[string]any) {
	v := viper.New()
	// viper lower-cases keys of the map it is given in place; hand it a copy.
	_ = v.MergeConfigMap(clone(tree))
	s.tree = tree
	s.v = v
}
