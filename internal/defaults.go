package internal

// baseConfig returns the default settings every App starts from.
// A fresh tree is built per call so Apps never share mutable maps.
func baseConfig() map[string]any {
	return map[string]any{
		"site": map[string]any{
			"ssl":              false,
			"port":             80,
			"production-level": false,
			"environment":      "development",
			"language":         "en",
			"title":            "",
			"api-prefix":       defaultAPIPrefix,
			"request-timeout":  0,
			"time-zone":        "",
		},
		"services": map[string]any{},
		"sessions": map[string]any{
			"enabled":     false,
			"lifetime":    int(defaultSessionLifetime.Seconds()),
			"driver":      "memory",
			"gc-schedule": "@every 1h",
			"prefix":      "session:",
		},
		"dirs": map[string]any{
			"app":    "app",
			"assets": "assets",
			"public": "public",
			"temp":   "temp",
			"views":  "views",
		},
		"console": map[string]any{
			"commands": []string{},
		},
		"modules": map[string]any{
			"middleware": []string{},
		},
		"router": map[string]any{
			"cacheFile": "",
		},
		"views": map[string]any{
			"engine": "html",
		},
		"locale": map[string]any{
			"supported": []string{},
			"param":     "lang",
		},
		"logger": map[string]any{
			"level":  "info",
			"format": "json",
		},
	}
}
