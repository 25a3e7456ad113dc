package internal

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/infuse/pkg/session"
	"github.com/dmitrymomot/infuse/pkg/view"
)

// Option configures the application.
type Option func(*App)

// WithLogger sets the application logger.
//
// Example:
//
//	infuse.New(settings, infuse.WithLogger(logger.New(logger.Config{Level: "debug"})))
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMiddleware registers a middleware module under name. Modules run when
// their name is listed in modules.middleware.
//
// Example:
//
//	infuse.New(map[string]any{
//	    "modules": map[string]any{"middleware": []string{"auth"}},
//	}, infuse.WithMiddleware("auth", func() infuse.Middleware { return &Auth{} }))
func WithMiddleware(name string, factory MiddlewareFactory) Option {
	return func(a *App) {
		if name != "" && factory != nil {
			a.middleware.Register(name, factory)
		}
	}
}

// WithMiddlewareShortCircuit stops the pipeline, routing included, as soon as
// a module leaves a status of 400 or above or sends the response.
// By default every listed module and the router run regardless.
func WithMiddlewareShortCircuit() Option {
	return func(a *App) {
		a.shortCircuit = true
	}
}

// WithRequestTimeout bounds the handling of every request. It takes
// precedence over site.request-timeout. Expired requests end in a 503.
func WithRequestTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithHandler registers a named handler that config routes can refer to.
func WithHandler(name string, h HandlerFunc) Option {
	return func(a *App) {
		if name != "" && h != nil {
			a.handlers.Register(name, h)
		}
	}
}

// WithRoute registers a route in code.
//
// Example:
//
//	infuse.WithRoute(http.MethodGet, "/users/{id}", showUser)
func WithRoute(method, pattern string, h HandlerFunc) Option {
	return func(a *App) {
		a.router.Map(method, pattern, h)
	}
}

// WithMount attaches an http.Handler under pattern.
func WithMount(pattern string, h http.Handler) Option {
	return func(a *App) {
		if h != nil {
			a.router.Mount(pattern, h)
		}
	}
}

// WithStaticFiles serves files from fsys under pattern. Directory listings
// are disabled.
//
// Example:
//
//	//go:embed public
//	var assets embed.FS
//
//	infuse.WithStaticFiles("/static", assets, "public")
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return func(a *App) {
		sub, err := fs.Sub(fsys, subDir)
		if err != nil {
			panic(err)
		}
		files := http.StripPrefix(strings.TrimRight(pattern, "/"), http.FileServerFS(sub))
		a.router.Mount(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/") {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Cache-Control", "public, max-age=3600")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			files.ServeHTTP(w, r)
		}))
	}
}

// WithService registers a ready-made service under name.
func WithService(name string, svc any) Option {
	return func(a *App) {
		if name != "" {
			a.services[strings.ToLower(name)] = svc
		}
	}
}

// WithServiceFactory registers a factory that services.<name> entries can
// refer to by id.
//
// Example:
//
//	infuse.New(map[string]any{
//	    "services": map[string]any{"mailer": "smtp"},
//	}, infuse.WithServiceFactory("smtp", newSMTPMailer))
func WithServiceFactory(id string, f ServiceFactory) Option {
	return func(a *App) {
		if id != "" && f != nil {
			a.factories.Register(id, f)
		}
	}
}

// WithSessionDriver registers a session driver under name for sessions.driver.
func WithSessionDriver(name string, d SessionDriver) Option {
	return func(a *App) {
		if name != "" && d != nil {
			a.drivers.Register(name, d)
		}
	}
}

// WithSessionStore uses store instead of opening one from sessions.driver.
func WithSessionStore(store session.Store) Option {
	return func(a *App) {
		a.sessions = store
	}
}

// WithViewEngine registers a view engine factory for views.engine.
func WithViewEngine(name string, f EngineFactory) Option {
	return func(a *App) {
		if name != "" && f != nil {
			a.engines.Register(name, f)
		}
	}
}

// WithViews uses engine instead of the one named by views.engine.
func WithViews(engine view.Engine) Option {
	return func(a *App) {
		a.views = engine
	}
}

// WithComponent registers a templ component for the templ view engine.
func WithComponent(name string, fn view.ComponentFactory) Option {
	return func(a *App) {
		if name != "" && fn != nil {
			a.components[name] = fn
		}
	}
}

// WithHealthChecks enables health check endpoints.
// Liveness (/health/live) always answers OK while the process runs.
// Readiness (/health/ready) runs every configured check, plus the session
// store ping when the store supports it.
//
// Example:
//
//	infuse.WithHealthChecks(
//	    infuse.WithReadinessCheck("db", func(ctx context.Context) error { return pool.Ping(ctx) }),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		cfg := &healthConfig{
			livenessPath:  defaultLivenessPath,
			readinessPath: defaultReadinessPath,
			timeout:       defaultHealthTimeout,
			checks:        make(map[string]CheckFunc),
		}
		for _, opt := range opts {
			opt(cfg)
		}
		a.health = cfg
	}
}
