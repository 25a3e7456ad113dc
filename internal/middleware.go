package internal

import (
	"net/http"
	"slices"
)

// Middleware is a module that inspects or modifies a request and its response
// before routing.
type Middleware interface {
	Middleware(req *Request, res *Response) error
}

// MiddlewareFunc adapts a function to Middleware.
type MiddlewareFunc func(req *Request, res *Response) error

func (f MiddlewareFunc) Middleware(req *Request, res *Response) error { return f(req, res) }

// AppAware is implemented by modules that need the application container.
// InjectApp is called on every fresh instance before Middleware.
type AppAware interface {
	InjectApp(a *App)
}

// MiddlewareFactory creates a fresh module instance for one request.
type MiddlewareFactory func() Middleware

// ExecuteMiddleware runs the modules listed in modules.middleware, in order,
// each as a new instance. Every module runs regardless of the status earlier
// ones set, unless the app was built with WithMiddlewareShortCircuit.
//
// All identifiers are resolved before the first module runs, so an unknown
// identifier fails the request without running any module. A module that
// returns an error stops the pipeline; the error comes back as *MiddlewareError.
func (a *App) ExecuteMiddleware(req *Request, res *Response) error {
	names := a.config.GetStringSlice("modules.middleware")
	if len(names) == 0 {
		return nil
	}

	factories := make([]MiddlewareFactory, len(names))
	for i, name := range names {
		f, err := a.middleware.Get(name)
		if err != nil {
			return err
		}
		factories[i] = f
	}

	for i, factory := range factories {
		mw := factory()
		if aware, ok := mw.(AppAware); ok {
			aware.InjectApp(a)
		}
		if err := mw.Middleware(req, res); err != nil {
			return &MiddlewareError{Module: names[i], Err: err}
		}
		if err := req.Context().Err(); err != nil {
			return &MiddlewareError{Module: names[i], Err: err}
		}
		if a.shortCircuit && halted(res) {
			break
		}
	}
	return nil
}

// halted reports whether a response should skip the remaining pipeline when
// short-circuiting is enabled.
func halted(res *Response) bool {
	return res.IsSent() || res.Code() >= http.StatusBadRequest
}

// MiddlewareEnabled reports whether name is listed in modules.middleware.
func (a *App) MiddlewareEnabled(name string) bool {
	return slices.Contains(a.config.GetStringSlice("modules.middleware"), name)
}
