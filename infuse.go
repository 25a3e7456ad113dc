package infuse

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/infuse/internal"
	"github.com/dmitrymomot/infuse/pkg/session"
	"github.com/dmitrymomot/infuse/pkg/view"
)

// Type aliases - public API
type (
	// App is the application container. It owns configuration, services,
	// the router, the session store and the view engine, and turns each
	// request into a response with HandleRequest.
	App = internal.App

	// Request wraps an incoming HTTP request.
	Request = internal.Request

	// Response is the buffered response built for a request.
	Response = internal.Response

	// HandlerFunc is the signature for route handlers.
	HandlerFunc = internal.HandlerFunc

	// Router holds the route table and dispatches requests.
	Router = internal.Router

	// RouteEntry is one config-defined route.
	RouteEntry = internal.RouteEntry

	// RouteTable is the compiled list of config routes.
	RouteTable = internal.RouteTable

	// Middleware is a module run before routing.
	Middleware = internal.Middleware

	// MiddlewareFunc adapts a function to Middleware.
	MiddlewareFunc = internal.MiddlewareFunc

	// MiddlewareFactory creates a fresh module instance per request.
	MiddlewareFactory = internal.MiddlewareFactory

	// AppAware modules receive the App before they run.
	AppAware = internal.AppAware

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// CheckFunc is a readiness check.
	CheckFunc = internal.CheckFunc

	// ServiceFactory builds a service named in the services config.
	ServiceFactory = internal.ServiceFactory

	// EngineFactory builds the view engine named by views.engine.
	EngineFactory = internal.EngineFactory

	// SessionDriver opens the store named by sessions.driver.
	SessionDriver = internal.SessionDriver

	// SessionConfig is the session setup resolved for a request.
	SessionConfig = internal.SessionConfig

	// Session is a user session.
	Session = session.Session

	// SessionStore persists sessions.
	SessionStore = session.Store

	// ViewEngine renders named views.
	ViewEngine = view.Engine

	// Extractor reads a value from the first source that has it.
	Extractor = internal.Extractor

	// Source reads one candidate value from a request.
	Source = internal.Source

	// HTTPError asks for a specific status code.
	HTTPError = internal.HTTPError

	// UnknownServiceError reports an unregistered identifier.
	UnknownServiceError = internal.UnknownServiceError

	// SessionStartError reports a session store failure.
	SessionStartError = internal.SessionStartError

	// MiddlewareError reports a module failure.
	MiddlewareError = internal.MiddlewareError

	// PanicError carries a recovered panic.
	PanicError = internal.PanicError
)

// Errors
var (
	ErrResponseSent    = internal.ErrResponseSent
	ErrSessionAttached = internal.ErrSessionAttached
	ErrNoViewEngine    = internal.ErrNoViewEngine
	ErrServiceType     = internal.ErrServiceType
	ErrInvalidRoute    = internal.ErrInvalidRoute
	ErrRouteCache      = internal.ErrRouteCache
	ErrNoSessionStore  = internal.ErrNoSessionStore
)

// New creates an application from settings layered over the defaults.
// It fails when a configured identifier (view engine, session driver,
// service factory, middleware module, route handler) is unknown.
func New(settings map[string]any, opts ...Option) (*App, error) {
	return internal.New(settings, opts...)
}

// Service returns the service registered under name as T.
func Service[T any](a *App, name string) (T, error) {
	return internal.Service[T](a, name)
}

// App options

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return internal.WithLogger(l)
}

// WithMiddleware registers a middleware module under name.
func WithMiddleware(name string, factory MiddlewareFactory) Option {
	return internal.WithMiddleware(name, factory)
}

// WithMiddlewareShortCircuit stops the pipeline at the first module that
// leaves an error status or sends the response.
func WithMiddlewareShortCircuit() Option {
	return internal.WithMiddlewareShortCircuit()
}

// WithRequestTimeout bounds the handling of every request.
func WithRequestTimeout(d time.Duration) Option {
	return internal.WithRequestTimeout(d)
}

// WithHandler registers a named handler for config routes.
func WithHandler(name string, h HandlerFunc) Option {
	return internal.WithHandler(name, h)
}

// WithRoute registers a route in code.
func WithRoute(method, pattern string, h HandlerFunc) Option {
	return internal.WithRoute(method, pattern, h)
}

// WithMount attaches an http.Handler under pattern.
func WithMount(pattern string, h http.Handler) Option {
	return internal.WithMount(pattern, h)
}

// WithStaticFiles serves files from fsys under pattern.
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return internal.WithStaticFiles(pattern, fsys, subDir)
}

// WithService registers a ready-made service.
func WithService(name string, svc any) Option {
	return internal.WithService(name, svc)
}

// WithServiceFactory registers a factory for services config entries.
func WithServiceFactory(id string, f ServiceFactory) Option {
	return internal.WithServiceFactory(id, f)
}

// WithSessionDriver registers a session driver.
func WithSessionDriver(name string, d SessionDriver) Option {
	return internal.WithSessionDriver(name, d)
}

// WithSessionStore uses store regardless of sessions.driver.
func WithSessionStore(store SessionStore) Option {
	return internal.WithSessionStore(store)
}

// WithViewEngine registers a view engine factory.
func WithViewEngine(name string, f EngineFactory) Option {
	return internal.WithViewEngine(name, f)
}

// WithViews uses engine regardless of views.engine.
func WithViews(engine ViewEngine) Option {
	return internal.WithViews(engine)
}

// WithComponent registers a templ component for the templ engine.
func WithComponent(name string, fn view.ComponentFactory) Option {
	return internal.WithComponent(name, fn)
}

// WithHealthChecks mounts liveness and readiness endpoints.
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

// Health options

// WithLivenessPath sets the liveness endpoint path.
func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

// WithReadinessPath sets the readiness endpoint path.
func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

// WithReadinessCheck adds a named readiness check.
func WithReadinessCheck(name string, fn CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// WithHealthTimeout bounds each readiness probe.
func WithHealthTimeout(d time.Duration) HealthOption {
	return internal.WithHealthTimeout(d)
}

// Run options

// Logger overrides the logger used by the server runtime.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout bounds graceful shutdown.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// StartupHook runs fn before the server accepts connections.
func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

// ShutdownHook runs fn after the server stops.
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// WatchRoutes reloads the route table when router.cacheFile changes.
func WatchRoutes() RunOption {
	return internal.WatchRoutes()
}

// WithContext stops the server when ctx is cancelled.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// Errors

// NewHTTPError creates an HTTPError.
func NewHTTPError(code int, message string) *HTTPError {
	return internal.NewHTTPError(code, message)
}

// AsHTTPError returns the HTTPError in err's chain, or nil.
func AsHTTPError(err error) *HTTPError {
	return internal.AsHTTPError(err)
}

func ErrBadRequest(message string) *HTTPError { return internal.ErrBadRequest(message) }
func ErrUnauthorized(message string) *HTTPError { return internal.ErrUnauthorized(message) }
func ErrForbidden(message string) *HTTPError { return internal.ErrForbidden(message) }
func ErrNotFound(message string) *HTTPError { return internal.ErrNotFound(message) }
func ErrInternal(message string) *HTTPError { return internal.ErrInternal(message) }
func ErrServiceUnavailable(message string) *HTTPError { return internal.ErrServiceUnavailable(message) }

// Request helpers

// NewExtractor creates an Extractor over sources, tried in order.
func NewExtractor(sources ...Source) Extractor {
	return internal.NewExtractor(sources...)
}

func FromHeader(name string) Source { return internal.FromHeader(name) }
func FromQuery(name string) Source { return internal.FromQuery(name) }
func FromCookie(name string) Source { return internal.FromCookie(name) }
func FromParam(name string) Source { return internal.FromParam(name) }
func FromForm(name string) Source { return internal.FromForm(name) }
func FromSession(key string) Source { return internal.FromSession(key) }
func FromBearerToken() Source { return internal.FromBearerToken() }

// ContextValue returns the request-scoped value under key as T.
func ContextValue[T any](req *Request, key any) T {
	return internal.ContextValue[T](req, key)
}

// Param returns the route parameter converted to T.
func Param[T internal.Scalar](req *Request, name string) T {
	return internal.Param[T](req, name)
}

// Query returns the query parameter converted to T.
func Query[T internal.Scalar](req *Request, name string) T {
	return internal.Query[T](req, name)
}

// QueryDefault returns the query parameter converted to T, or def.
func QueryDefault[T internal.Scalar](req *Request, name string, def T) T {
	return internal.QueryDefault[T](req, name, def)
}
