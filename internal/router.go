package internal

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
)

// HandlerFunc handles a routed request by filling in res.
type HandlerFunc func(req *Request, res *Response) error

// Router is the route table and dispatcher. Routes registered in code and
// routes loaded from config or the route cache are compiled into a chi mux;
// every change builds a fresh mux and swaps it in atomically, so dispatch
// never sees a half-built table.
type Router struct {
	mux      atomic.Pointer[chi.Mux]
	handlers *Registry[HandlerFunc]
	code     []codeRoute
	mounts   []mount
	table    RouteTable
	mu       sync.Mutex
}

type codeRoute struct {
	h       HandlerFunc
	method  string
	pattern string
}

type mount struct {
	h       http.Handler
	pattern string
}

// dispatch carries the request pair through chi to the adapted handler.
type dispatch struct {
	req     *Request
	res     *Response
	err     error
	matched bool
}

type dispatchKey struct{}

// NewRouter creates an empty router that resolves config route handler names
// through handlers.
func NewRouter(handlers *Registry[HandlerFunc]) *Router {
	if handlers == nil {
		handlers = NewRegistry[HandlerFunc]("handler")
	}
	rt := &Router{handlers: handlers}
	rt.mux.Store(newMux())
	return rt
}

func (rt *Router) GET(pattern string, h HandlerFunc)     { rt.Map(http.MethodGet, pattern, h) }
func (rt *Router) POST(pattern string, h HandlerFunc)    { rt.Map(http.MethodPost, pattern, h) }
func (rt *Router) PUT(pattern string, h HandlerFunc)     { rt.Map(http.MethodPut, pattern, h) }
func (rt *Router) DELETE(pattern string, h HandlerFunc)  { rt.Map(http.MethodDelete, pattern, h) }
func (rt *Router) PATCH(pattern string, h HandlerFunc)   { rt.Map(http.MethodPatch, pattern, h) }
func (rt *Router) OPTIONS(pattern string, h HandlerFunc) { rt.Map(http.MethodOptions, pattern, h) }

// Map registers h for method and pattern. Method "*" matches every method.
// Like chi, Map panics on a malformed pattern.
func (rt *Router) Map(method, pattern string, h HandlerFunc) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.code = append(rt.code, codeRoute{method: strings.ToUpper(method), pattern: pattern, h: h})
	mux, err := rt.build(rt.table)
	if err != nil {
		rt.code = rt.code[:len(rt.code)-1]
		panic(err)
	}
	rt.mux.Store(mux)
}

// Mount attaches an http.Handler under pattern.
func (rt *Router) Mount(pattern string, h http.Handler) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.mounts = append(rt.mounts, mount{pattern: pattern, h: h})
	mux, err := rt.build(rt.table)
	if err != nil {
		rt.mounts = rt.mounts[:len(rt.mounts)-1]
		panic(err)
	}
	rt.mux.Store(mux)
}

// SetTable replaces the config route table. On error the live table is kept.
func (rt *Router) SetTable(table RouteTable) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	mux, err := rt.build(table)
	if err != nil {
		return err
	}
	rt.table = slices.Clone(table)
	rt.mux.Store(mux)
	return nil
}

// Table returns the config route table currently in use.
func (rt *Router) Table() RouteTable {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return slices.Clone(rt.table)
}

// Routes lists everything the router dispatches: code routes (empty handler
// name), config routes, and mounts (method "*", handler "mount").
func (rt *Router) Routes() RouteTable {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make(RouteTable, 0, len(rt.code)+len(rt.table)+len(rt.mounts))
	for _, c := range rt.code {
		out = append(out, RouteEntry{Method: c.method, Pattern: c.pattern})
	}
	out = append(out, rt.table...)
	for _, m := range rt.mounts {
		out = append(out, RouteEntry{Method: "*", Pattern: m.pattern, Handler: "mount"})
	}
	out.sort()
	return out
}

// Route dispatches req into res. matched is false when no route accepted the
// request; res is then left at 404 (or 405 for a known path) with an empty
// body. err is whatever the matched handler returned.
func (rt *Router) Route(req *Request, res *Response) (bool, error) {
	mux := rt.mux.Load()
	d := &dispatch{req: req, res: res}

	// A route context of our own keeps chi from recycling it, so params stay
	// valid on req after dispatch returns.
	rctx := chi.NewRouteContext()
	rctx.Routes = mux
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, dispatchKey{}, d)

	mux.ServeHTTP(res, req.HTTP().WithContext(ctx))
	return d.matched, d.err
}

func (rt *Router) build(table RouteTable) (mux *chi.Mux, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			mux, err = nil, fmt.Errorf("%w: %v", ErrInvalidRoute, rec)
		}
	}()

	mux = newMux()
	for _, c := range rt.code {
		handle(mux, c.method, c.pattern, adapt(c.h))
	}
	for _, e := range table {
		h, err := rt.handlers.Get(e.Handler)
		if err != nil {
			return nil, err
		}
		handle(mux, e.Method, e.Pattern, adapt(h))
	}
	for _, m := range rt.mounts {
		mux.Mount(m.pattern, adaptHTTP(m.h))
	}
	return mux, nil
}

func newMux() *chi.Mux {
	mux := chi.NewRouter()
	mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	return mux
}

func handle(mux *chi.Mux, method, pattern string, h http.HandlerFunc) {
	if method == "*" {
		mux.HandleFunc(pattern, h)
		return
	}
	if !isStandardMethod(method) {
		chi.RegisterMethod(method)
	}
	mux.MethodFunc(method, pattern, h)
}

func adapt(h HandlerFunc) http.HandlerFunc {
	return func(_ http.ResponseWriter, r *http.Request) {
		d, ok := r.Context().Value(dispatchKey{}).(*dispatch)
		if !ok {
			return
		}
		d.matched = true
		d.req.setHTTP(r)
		d.err = h(d.req, d.res)
	}
}

func adaptHTTP(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d, ok := r.Context().Value(dispatchKey{}).(*dispatch); ok {
			d.matched = true
		}
		h.ServeHTTP(w, r)
	})
}

func isStandardMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodConnect, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
