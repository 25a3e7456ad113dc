package internal

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/munnerz/goautoneg"

	"github.com/dmitrymomot/infuse/pkg/session"
)

const defaultAPIPrefix = "/api"

// offers is ordered by preference for wildcard Accept headers.
var offers = []string{"text/html", "application/xhtml+xml", "application/json"}

// Request wraps one inbound HTTP request. It is request-local and not safe
// for concurrent use.
type Request struct {
	r         *http.Request
	session   *session.Session
	apiPrefix string
}

// RequestOption configures a Request.
type RequestOption func(*Request)

// WithAPIPrefix sets the path prefix that marks API requests. Default: "/api".
func WithAPIPrefix(prefix string) RequestOption {
	return func(req *Request) {
		req.apiPrefix = prefix
	}
}

// NewRequest wraps r.
func NewRequest(r *http.Request, opts ...RequestOption) *Request {
	req := &Request{r: r, apiPrefix: defaultAPIPrefix}
	for _, opt := range opts {
		opt(req)
	}
	return req
}

// HTTP returns the wrapped request, including route parameters once routed.
func (req *Request) HTTP() *http.Request { return req.r }

func (req *Request) Context() context.Context { return req.r.Context() }

func (req *Request) Method() string { return req.r.Method }

func (req *Request) Path() string { return req.r.URL.Path }

// Host returns the request host, lower-cased and without a port.
func (req *Request) Host() string {
	return normalizeHost(req.r.Host)
}

func (req *Request) Header(name string) string { return req.r.Header.Get(name) }

func (req *Request) Query(name string) string { return req.r.URL.Query().Get(name) }

// Param returns a route parameter such as {id}. Empty before routing.
func (req *Request) Param(name string) string { return chi.URLParam(req.r, name) }

// Form returns a form value from the body or the query string.
func (req *Request) Form(name string) string { return req.r.FormValue(name) }

// Cookie returns a cookie value or http.ErrNoCookie.
func (req *Request) Cookie(name string) (string, error) {
	c, err := req.r.Cookie(name)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

// Set stores a request-scoped value in the request context,
// where log extractors can find it.
func (req *Request) Set(key, value any) {
	req.r = req.r.WithContext(context.WithValue(req.r.Context(), key, value))
}

// Get returns a request-scoped value.
func (req *Request) Get(key any) any {
	return req.r.Context().Value(key)
}

// IsAPI reports whether the path falls under the API prefix.
func (req *Request) IsAPI() bool {
	prefix := strings.TrimRight(req.apiPrefix, "/")
	if prefix == "" {
		return false
	}
	p := req.r.URL.Path
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// IsHTML reports whether the client prefers an HTML document.
// A bare "*/*" counts as HTML.
func (req *Request) IsHTML() bool {
	switch goautoneg.Negotiate(req.r.Header.Get("Accept"), offers) {
	case "text/html", "application/xhtml+xml":
		return true
	default:
		return false
	}
}

// IsJSON reports whether the client prefers JSON over HTML.
func (req *Request) IsJSON() bool {
	return goautoneg.Negotiate(req.r.Header.Get("Accept"), offers) == "application/json"
}

// IsSecure reports whether the request arrived over TLS, directly or through
// a proxy that sets X-Forwarded-Proto.
func (req *Request) IsSecure() bool {
	if req.r.TLS != nil {
		return true
	}
	return strings.EqualFold(req.r.Header.Get("X-Forwarded-Proto"), "https")
}

// Session returns the attached session, or nil when sessions are off for
// this request.
func (req *Request) Session() *session.Session { return req.session }

// SetSession attaches s. A request holds at most one session.
func (req *Request) SetSession(s *session.Session) error {
	if req.session != nil {
		return ErrSessionAttached
	}
	req.session = s
	return nil
}

func (req *Request) setHTTP(r *http.Request) { req.r = r }

func (req *Request) setContext(ctx context.Context) { req.r = req.r.WithContext(ctx) }

// normalizeHost strips the port and lower-cases the host.
func normalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	} else if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
	}
	return strings.ToLower(strings.TrimSuffix(host, "."))
}
