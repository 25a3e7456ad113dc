package middlewares

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/infuse/internal"
)

// Identifiers of the built-in modules, as listed in modules.middleware.
const (
	ModuleRequestID     = "requestid"
	ModuleCORS          = "cors"
	ModuleLocale        = "locale"
	ModuleMetrics       = "metrics"
	ModuleSecureHeaders = "secure-headers"
)

type modules struct {
	requestID     []RequestIDOption
	cors          []CORSOption
	secureHeaders []SecureHeadersOption
	metrics       *Metrics
}

// ModuleOption configures the modules installed by Register.
type ModuleOption func(*modules)

// WithRequestIDOptions configures the requestid module.
func WithRequestIDOptions(opts ...RequestIDOption) ModuleOption {
	return func(m *modules) { m.requestID = append(m.requestID, opts...) }
}

// WithCORSOptions configures the cors module.
func WithCORSOptions(opts ...CORSOption) ModuleOption {
	return func(m *modules) { m.cors = append(m.cors, opts...) }
}

// WithSecureHeadersOptions configures the secure-headers module.
func WithSecureHeadersOptions(opts ...SecureHeadersOption) ModuleOption {
	return func(m *modules) { m.secureHeaders = append(m.secureHeaders, opts...) }
}

// WithMetrics uses m instead of collectors on a private registry.
func WithMetrics(m *Metrics) ModuleOption {
	return func(mods *modules) { mods.metrics = m }
}

// Register installs the built-in modules under their identifiers and the
// scrape endpoint of the metrics module. Modules run only once listed in
// modules.middleware; until metrics is listed its endpoint answers 404.
//
// Example:
//
//	app, err := infuse.New(map[string]any{
//	    "modules": map[string]any{"middleware": []string{"requestid", "locale"}},
//	}, middlewares.Register())
func Register(opts ...ModuleOption) internal.Option {
	mods := &modules{}
	for _, opt := range opts {
		opt(mods)
	}
	if mods.metrics == nil {
		mods.metrics = NewMetrics(prometheus.NewRegistry())
	}

	return func(a *internal.App) {
		for _, opt := range []internal.Option{
			internal.WithMiddleware(ModuleRequestID, RequestID(mods.requestID...)),
			internal.WithMiddleware(ModuleCORS, CORS(mods.cors...)),
			internal.WithMiddleware(ModuleLocale, Locale()),
			internal.WithMiddleware(ModuleMetrics, mods.metrics.Factory()),
			internal.WithMiddleware(ModuleSecureHeaders, SecureHeaders(mods.secureHeaders...)),
			internal.WithMount(mods.metrics.Path(), enabledOnly(a, ModuleMetrics, mods.metrics.Handler())),
		} {
			opt(a)
		}
	}
}

// enabledOnly serves h while module is listed in modules.middleware.
func enabledOnly(a *internal.App, module string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.MiddlewareEnabled(module) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.ServeHTTP(w, r)
	})
}
