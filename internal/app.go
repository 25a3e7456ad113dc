package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"net"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/infuse/pkg/config"
	"github.com/dmitrymomot/infuse/pkg/logger"
	"github.com/dmitrymomot/infuse/pkg/session"
	"github.com/dmitrymomot/infuse/pkg/view"
)

// defaultOpenTimeout bounds opening the session store and services in New.
const defaultOpenTimeout = 30 * time.Second

// ServiceFactory creates a named service for the App.
type ServiceFactory func(a *App) (any, error)

// EngineFactory creates the view engine named by views.engine.
type EngineFactory func(a *App) (view.Engine, error)

// App is the application container. It owns the configuration, the router,
// the view engine, the session store and every registry, and it is the
// http.Handler that serves requests through HandleRequest.
//
// App is safe for concurrent use once New returns.
type App struct {
	config   *config.Store
	router   *Router
	logger   *slog.Logger
	views    view.Engine
	sessions session.Store
	location *time.Location
	health   *healthConfig

	middleware *Registry[MiddlewareFactory]
	handlers   *Registry[HandlerFunc]
	drivers    *Registry[SessionDriver]
	engines    *Registry[EngineFactory]
	factories  *Registry[ServiceFactory]
	components map[string]view.ComponentFactory

	services   map[string]any
	servicesMu sync.RWMutex

	timeout      time.Duration
	shortCircuit bool
}

// New creates an App from settings deep-merged over the base configuration.
//
// Options run before the settings are applied, so registries are complete
// when New resolves the configured time zone, view engine, services, session
// driver, middleware and routes. An identifier nobody registered fails with
// *UnknownServiceError.
//
// Example:
//
//	app, err := infuse.New(map[string]any{
//	    "site":     map[string]any{"title": "Acme"},
//	    "sessions": map[string]any{"enabled": true},
//	}, infuse.WithHandler("home", home))
func New(settings map[string]any, opts ...Option) (*App, error) {
	a := &App{
		logger:     logger.NewNope(),
		middleware: NewRegistry[MiddlewareFactory]("middleware"),
		handlers:   NewRegistry[HandlerFunc]("handler"),
		drivers:    NewRegistry[SessionDriver]("session driver"),
		engines:    NewRegistry[EngineFactory]("view engine"),
		factories:  NewRegistry[ServiceFactory]("service factory"),
		components: make(map[string]view.ComponentFactory),
		services:   make(map[string]any),
	}
	a.router = NewRouter(a.handlers)

	a.drivers.Register("memory", memoryDriver)
	a.drivers.Register("redis", redisDriver)
	a.drivers.Register("postgres", postgresDriver)
	a.engines.Register("html", htmlEngine)
	a.engines.Register("templ", templEngine)
	a.engines.Register("markdown", markdownEngine)

	for _, opt := range opts {
		opt(a)
	}

	a.config = config.New(baseConfig(), settings)

	loc, err := loadLocation(a.config.GetString("site.time-zone"))
	if err != nil {
		return nil, err
	}
	a.location = loc

	ctx, cancel := context.WithTimeout(context.Background(), defaultOpenTimeout)
	defer cancel()

	steps := []func(context.Context) error{
		a.initViews,
		a.initServices,
		a.initSessions,
		a.checkMiddleware,
		a.initRoutes,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
	}
	a.registerHealth()
	return a, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", name, err)
	}
	return loc, nil
}

func (a *App) initViews(context.Context) error {
	if a.views != nil {
		return nil
	}
	name := a.config.GetString("views.engine")
	if name == "" {
		return nil
	}
	factory, err := a.engines.Get(name)
	if err != nil {
		return err
	}
	engine, err := factory(a)
	if err != nil {
		return fmt.Errorf("create view engine %q: %w", name, err)
	}
	a.views = engine
	return nil
}

func (a *App) initServices(context.Context) error {
	services := a.config.GetStringMapString("services")
	for _, name := range slices.Sorted(maps.Keys(services)) {
		a.servicesMu.RLock()
		_, exists := a.services[name]
		a.servicesMu.RUnlock()
		if exists {
			continue
		}
		factory, err := a.factories.Get(services[name])
		if err != nil {
			return err
		}
		svc, err := factory(a)
		if err != nil {
			return fmt.Errorf("create service %q: %w", name, err)
		}
		a.servicesMu.Lock()
		a.services[name] = svc
		a.servicesMu.Unlock()
	}
	return nil
}

func (a *App) initSessions(ctx context.Context) error {
	if a.sessions != nil || !a.config.GetBool("sessions.enabled") {
		return nil
	}
	name := a.config.GetString("sessions.driver")
	driver, err := a.drivers.Get(name)
	if err != nil {
		return err
	}
	store, err := driver(ctx, a)
	if err != nil {
		return &SessionStartError{Driver: name, Err: err}
	}
	a.sessions = store
	return nil
}

// checkMiddleware fails early on identifiers ExecuteMiddleware could not resolve.
func (a *App) checkMiddleware(context.Context) error {
	for _, name := range a.config.GetStringSlice("modules.middleware") {
		if _, err := a.middleware.Get(name); err != nil {
			return err
		}
	}
	return nil
}

// initRoutes loads the config route table, from router.cacheFile when a
// usable cache exists.
func (a *App) initRoutes(ctx context.Context) error {
	var table RouteTable
	path := a.config.GetString("router.cacheFile")
	if path != "" {
		cached, err := ReadRouteCache(path)
		switch {
		case err == nil:
			table = cached
			a.logger.DebugContext(ctx, "route table loaded from cache", slog.String("path", path))
		case errors.Is(err, fs.ErrNotExist):
		default:
			a.logger.WarnContext(ctx, "ignoring route cache", slog.String("path", path), slog.String("error", err.Error()))
		}
	}
	if table == nil {
		compiled, err := a.CompileRoutes()
		if err != nil {
			return err
		}
		table = compiled
	}
	return a.router.SetTable(table)
}

// CompileRoutes parses the routes config into a route table and checks that
// every handler it names is registered.
func (a *App) CompileRoutes() (RouteTable, error) {
	table, err := ParseRoutes(a.config.Get("routes"))
	if err != nil {
		return nil, err
	}
	for _, e := range table {
		if _, err := a.handlers.Get(e.Handler); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// Close releases the session store and every service that implements
// io.Closer.
func (a *App) Close(context.Context) error {
	var errs []error
	if c, ok := a.sessions.(io.Closer); ok {
		if err := c.Close(); err != nil && !errors.Is(err, session.ErrClosed) {
			errs = append(errs, fmt.Errorf("close session store: %w", err))
		}
	}
	a.servicesMu.RLock()
	defer a.servicesMu.RUnlock()
	for _, name := range slices.Sorted(maps.Keys(a.services)) {
		if c, ok := a.services[name].(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close service %q: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Service returns the named service as T. Names are case-insensitive.
func Service[T any](a *App, name string) (T, error) {
	var zero T
	a.servicesMu.RLock()
	svc, ok := a.services[strings.ToLower(name)]
	a.servicesMu.RUnlock()
	if !ok {
		return zero, &UnknownServiceError{Kind: "service", Name: name}
	}
	v, ok := svc.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %T", ErrServiceType, name, svc)
	}
	return v, nil
}

// BaseURL returns the site root URL, for example "https://example.com/".
// The port is omitted when it is 0, 80 or 443.
func (a *App) BaseURL() string {
	scheme := "http"
	if a.config.GetBool("site.ssl") {
		scheme = "https"
	}
	host := a.config.GetString("site.hostname")
	switch port := a.config.GetInt("site.port"); port {
	case 0, 80, 443:
		if strings.Contains(host, ":") {
			host = "[" + host + "]"
		}
	default:
		host = net.JoinHostPort(host, strconv.Itoa(port))
	}
	return scheme + "://" + host + "/"
}

// Config returns the live settings.
func (a *App) Config() *config.Store { return a.config }

// Router returns the route table and dispatcher.
func (a *App) Router() *Router { return a.router }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Views returns the view engine, or nil when none is configured.
func (a *App) Views() view.Engine { return a.views }

// SessionStore returns the session store, or nil when sessions are disabled.
func (a *App) SessionStore() session.Store { return a.sessions }

// Location returns the configured time zone.
func (a *App) Location() *time.Location { return a.location }

// Now returns the current time in the configured time zone.
func (a *App) Now() time.Time { return time.Now().In(a.location) }

func (a *App) GET(pattern string, h HandlerFunc)     { a.router.GET(pattern, h) }
func (a *App) POST(pattern string, h HandlerFunc)    { a.router.POST(pattern, h) }
func (a *App) PUT(pattern string, h HandlerFunc)     { a.router.PUT(pattern, h) }
func (a *App) DELETE(pattern string, h HandlerFunc)  { a.router.DELETE(pattern, h) }
func (a *App) PATCH(pattern string, h HandlerFunc)   { a.router.PATCH(pattern, h) }
func (a *App) OPTIONS(pattern string, h HandlerFunc) { a.router.OPTIONS(pattern, h) }

// Map registers h for method and pattern. Method "*" matches every method.
func (a *App) Map(method, pattern string, h HandlerFunc) { a.router.Map(method, pattern, h) }

// Handle registers a named handler that config routes can refer to.
// Route tables loaded afterwards, from a cache reload for instance, see it.
func (a *App) Handle(name string, h HandlerFunc) { a.handlers.Register(name, h) }

// Run serves the App on addr until SIGINT/SIGTERM, then shuts down
// gracefully. An empty addr means ":<site.port>".
//
// Sessions backed by a store that needs garbage collection are collected on
// the sessions.gc-schedule cron schedule while the server runs. The session
// store and closable services are closed after the last shutdown hook.
func (a *App) Run(addr string, opts ...RunOption) error {
	cfg := buildRunConfig(opts...)
	log := cfg.logger
	if log == nil {
		log = a.logger
	}
	if addr == "" {
		addr = ":" + strconv.Itoa(a.config.GetInt("site.port"))
	}

	startupHooks := cfg.startupHooks
	shutdownHooks := cfg.shutdownHooks
	var background []func(context.Context) error

	gc, err := a.newSessionGC(log)
	if err != nil {
		return err
	}
	if gc != nil {
		startupHooks = append(startupHooks, gc.Start)
		shutdownHooks = append([]func(context.Context) error{gc.Stop}, shutdownHooks...)
	}

	if cfg.watchRoutes {
		if path := a.config.GetString("router.cacheFile"); path != "" {
			background = append(background, func(ctx context.Context) error {
				return a.router.Watch(ctx, path, log)
			})
		} else {
			log.Warn("route watching requested but router.cacheFile is not set")
		}
	}

	shutdownHooks = append(shutdownHooks, a.Close)

	return runServer(runtimeConfig{
		handler:         a,
		address:         addr,
		logger:          log,
		shutdownTimeout: cfg.shutdownTimeout,
		startupHooks:    startupHooks,
		shutdownHooks:   shutdownHooks,
		background:      background,
		baseCtx:         cfg.baseCtx,
	})
}

func htmlEngine(a *App) (view.Engine, error) {
	opts := []view.HTMLOption{
		view.WithGlobal("app", a),
		view.WithAssetBaseURL(a.config.GetString("assets.base_url")),
	}
	if !a.config.GetBool("site.production-level") {
		opts = append(opts, view.WithoutCache())
	}
	return view.NewHTMLEngine(os.DirFS(a.config.GetString("dirs.views")), opts...), nil
}

func templEngine(a *App) (view.Engine, error) {
	e := view.NewTemplEngine()
	for name, fn := range a.components {
		e.Register(name, fn)
	}
	return e, nil
}

func markdownEngine(a *App) (view.Engine, error) {
	return view.NewMarkdownEngine(os.DirFS(a.config.GetString("dirs.views")), map[string]any{"app": a}), nil
}
