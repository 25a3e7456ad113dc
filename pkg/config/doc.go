// Package config provides the settings tree used by the application container.
//
// Settings are nested mappings addressed by dot-separated paths such as
// "sessions.enabled" or "site.hostname". A Store is built from a default tree
// and any number of override trees; overrides are deep-merged so that only the
// leaves they name change:
//
//	cfg := config.New(
//	    map[string]any{"site": map[string]any{"port": 80, "ssl": false}},
//	    map[string]any{"site": map[string]any{"ssl": true}},
//	)
//	cfg.GetBool("site.ssl") // true
//	cfg.GetInt("site.port") // 80
//	cfg.Get("site.missing") // nil
//
// Lookups are case-insensitive and safe for concurrent use. Writes replace the
// whole tree atomically, so a reader sees either the old or the new settings.
//
// LoadFile decodes YAML, TOML and JSON files into a tree that can be passed to
// New as an override, with INFUSE_* environment variables taking precedence
// over file values.
package config
