// Package internal provides the core types and implementation for the infuse framework.
//
// This package is internal and should not be used directly. Import
// "github.com/dmitrymomot/infuse" instead, which re-exports the public API.
//
// # Core Types
//
//   - App: the application container and http.Handler
//   - Request, Response: the per-request value objects; Response buffers
//     everything until Send
//   - Router: code and config routes compiled into a chi mux
//   - Middleware: a module run by name from modules.middleware
//   - Registry: identifier to factory lookup for middleware, handlers,
//     session drivers, view engines and services
//
// # Request Lifecycle
//
// App.HandleRequest runs these steps in order for every request:
//
//  1. infer site.hostname from the first request when it is not configured
//  2. start the session (unless disabled or the path is under site.api-prefix)
//  3. create a blank response carrying the session cookie
//  4. run every module listed in modules.middleware, in order
//  5. route the request
//  6. render the "error" view into an empty error response for HTML clients
//
// Errors and panics in steps 1 to 5 are logged and replaced by a fresh error
// response. HTTPError keeps its status; anything else becomes a 500.
//
// # Configuration
//
// App settings live in a config.Store built from the base defaults and the
// settings map given to New:
//
//	app, err := internal.New(map[string]any{
//	    "site":     map[string]any{"title": "Acme", "production-level": true},
//	    "sessions": map[string]any{"enabled": true, "driver": "redis"},
//	    "modules":  map[string]any{"middleware": []string{"requestid", "locale"}},
//	    "routes":   []string{"GET /users/{id} users.show"},
//	}, internal.WithHandler("users.show", showUser))
//
// # Route Cache
//
// Config routes can be compiled once and stored in router.cacheFile. New
// loads the cache when present, and App.Run with WatchRoutes reloads it on
// change without dropping requests.
package internal
