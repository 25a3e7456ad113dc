package internal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/dmitrymomot/infuse/pkg/view"
)

// errorView is the view rendered for error responses to HTML clients.
const errorView = "error"

// ServeHTTP makes App an http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := a.NewRequest(r)
	res := a.HandleRequest(req)
	if err := res.Send(w); err != nil && !errors.Is(err, ErrResponseSent) {
		a.logger.DebugContext(req.Context(), "failed to write response", slog.String("error", err.Error()))
	}
}

// NewRequest wraps r using the configured API prefix.
func (a *App) NewRequest(r *http.Request) *Request {
	return NewRequest(r, WithAPIPrefix(a.config.GetString("site.api-prefix")))
}

// HandleRequest produces the response for req. The steps run in order:
// hostname inference, session start, blank response, middleware, routing,
// and the HTML error-page fallback.
//
// HandleRequest never panics and never returns nil. Failures in any step,
// panics included, end in a fresh error response. It carries the session
// cookie plus the headers and OnSend hooks modules had already set.
// Routing is skipped for a response a module marked Complete.
func (a *App) HandleRequest(req *Request) (res *Response) {
	if timeout := a.requestTimeout(); timeout > 0 {
		ctx, cancel := context.WithTimeout(req.Context(), timeout)
		defer cancel()
		req.setContext(ctx)
	}

	var cookie *http.Cookie
	defer func() {
		if rec := recover(); rec != nil {
			res = a.fail(req, res, cookie, &PanicError{Value: rec, Stack: debug.Stack()})
		}
	}()

	a.resolveHostname(req)

	cookie, err := a.StartSession(req)
	if err != nil {
		return a.fail(req, nil, nil, err)
	}

	res = NewResponse(a.views)
	if cookie != nil {
		res.SetCookie(cookie)
	}

	if err := req.Context().Err(); err != nil {
		return a.fail(req, res, cookie, err)
	}
	if err := a.ExecuteMiddleware(req, res); err != nil {
		return a.fail(req, res, cookie, err)
	}

	if !res.IsComplete() && (!a.shortCircuit || !halted(res)) {
		if err := req.Context().Err(); err != nil {
			return a.fail(req, res, cookie, err)
		}
		if _, err := a.router.Route(req, res); err != nil {
			return a.fail(req, res, cookie, err)
		}
	}

	a.saveSession(req)
	a.errorPage(req, res, nil)
	return res
}

// resolveHostname stores the request host as site.hostname unless one is
// already configured. The first request wins; later hosts never replace it.
func (a *App) resolveHostname(req *Request) {
	host := req.Host()
	if host == "" {
		return
	}
	if a.config.SetIfAbsent("site.hostname", host) {
		a.logger.InfoContext(req.Context(), "hostname inferred from request", slog.String("hostname", host))
	}
}

func (a *App) requestTimeout() time.Duration {
	if a.timeout > 0 {
		return a.timeout
	}
	return a.config.GetDuration("site.request-timeout")
}

// fail turns err into a fresh error response that inherits headers and
// OnSend hooks from prev. HTTPErrors keep their status when it is a 4xx or
// 5xx, expired deadlines become 503 and everything else 500.
func (a *App) fail(req *Request, prev *Response, cookie *http.Cookie, err error) *Response {
	code := http.StatusInternalServerError
	message := ""
	he := AsHTTPError(err)
	switch {
	case he != nil:
		if he.Code >= http.StatusBadRequest && he.Code < 600 {
			code = he.Code
		}
		message = he.Message
	case errors.Is(err, context.DeadlineExceeded):
		code = http.StatusServiceUnavailable
	}

	attrs := []any{
		slog.Int("status", code),
		slog.String("method", req.Method()),
		slog.String("path", req.Path()),
		slog.String("error", err.Error()),
	}
	var pe *PanicError
	if errors.As(err, &pe) {
		attrs = append(attrs, slog.String("stack", string(pe.Stack)))
	}
	ctx := context.WithoutCancel(req.Context())
	if code >= http.StatusInternalServerError {
		a.logger.ErrorContext(ctx, "request failed", attrs...)
	} else {
		a.logger.WarnContext(ctx, "request failed", attrs...)
	}

	res := NewResponse(a.views)
	res.inherit(prev)
	if cookie != nil {
		res.SetCookie(cookie)
	}
	res.SetCode(code)
	a.saveSession(req)

	switch {
	case req.IsHTML():
		a.errorPage(req, res, he)
	case req.IsJSON() || req.IsAPI():
		if message == "" {
			message = http.StatusText(code)
		}
		_ = res.JSON(code, map[string]any{"error": message, "code": code})
	default:
		res.Text(code, http.StatusText(code))
	}
	return res
}

// errorPage fills an empty error response for HTML clients with the rendered
// "error" view. It never replaces a body and never runs twice on the same
// response: a render failure degrades to plain status text.
func (a *App) errorPage(req *Request, res *Response, he *HTTPError) {
	code := res.Code()
	if code < http.StatusBadRequest || res.HasBody() || res.IsSent() || !req.IsHTML() {
		return
	}

	params := map[string]any{
		"message": http.StatusText(code),
		"code":    code,
		"title":   strconv.Itoa(code),
	}
	if he != nil && he.Message != "" && !a.config.GetBool("site.production-level") {
		params["detail"] = he.Message
	}

	ctx := context.WithoutCancel(req.Context())
	err := res.Render(ctx, errorView, params)
	if errors.Is(err, view.ErrNotFound) || errors.Is(err, ErrNoViewEngine) {
		err = res.RenderComponent(ctx, view.ErrorPage(params))
	}
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to render error page",
			slog.Int("status", code),
			slog.String("error", err.Error()),
		)
		res.Text(code, strconv.Itoa(code)+" "+http.StatusText(code))
	}
}
