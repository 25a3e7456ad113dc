package config

import (
	"reflect"
	"strings"

	"github.com/spf13/cast"
)

// merge returns a new tree with src deep-merged over dst.
// Keys are lower-cased to match the case-insensitive lookup of Store.
func merge(dst, src map[string]any) map[string]any {
	out := clone(dst)
	if out == nil {
		out = make(map[string]any, len(src))
	}
	for k, v := range src {
		k = strings.ToLower(k)
		sub, isMap := asTree(v)
		if !isMap {
			out[k] = v
			continue
		}
		if cur, ok := out[k].(map[string]any); ok {
			out[k] = merge(cur, sub)
			continue
		}
		out[k] = merge(nil, sub)
	}
	return out
}

// setPath returns a copy of tree with value stored at the dotted path.
func setPath(tree map[string]any, path string, value any) map[string]any {
	out := clone(tree)
	if out == nil {
		out = make(map[string]any)
	}
	keys := strings.Split(strings.ToLower(path), ".")
	node := out
	for _, k := range keys[:len(keys)-1] {
		next, ok := node[k].(map[string]any)
		if !ok {
			next = make(map[string]any)
			node[k] = next
		}
		node = next
	}
	leaf := keys[len(keys)-1]
	if sub, ok := asTree(value); ok {
		node[leaf] = merge(nil, sub)
		return out
	}
	node[leaf] = value
	return out
}

// clone deep-copies nested mappings. Leaf values are shared.
func clone(tree map[string]any) map[string]any {
	if tree == nil {
		return nil
	}
	out := make(map[string]any, len(tree))
	for k, v := range tree {
		if sub, ok := v.(map[string]any); ok {
			out[k] = clone(sub)
			continue
		}
		out[k] = v
	}
	return out
}

// asTree converts any map kind (map[string]any, map[any]any, map[string]string
// and friends) into a map[string]any. Strings are never treated as mappings.
func asTree(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Map {
		return nil, false
	}
	m := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := cast.ToStringE(iter.Key().Interface())
		if err != nil {
			return nil, false
		}
		m[k] = iter.Value().Interface()
	}
	return m, true
}
