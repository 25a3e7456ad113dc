package middlewares

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/infuse/internal"
)

// CORSPolicy describes which cross-origin requests are accepted.
type CORSPolicy struct {
	// Origins lists accepted origins; "*" accepts any. The cors.origins
	// setting replaces it when present.
	Origins []string
	// OriginFunc, when set, decides instead of Origins.
	OriginFunc  func(origin string) bool
	Methods     []string
	Headers     []string
	Expose      []string
	Credentials bool
	MaxAge      time.Duration
}

// DefaultCORSPolicy accepts any origin for the common methods and headers.
func DefaultCORSPolicy() CORSPolicy {
	return CORSPolicy{
		Origins: []string{"*"},
		Methods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		Headers: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:  12 * time.Hour,
	}
}

// CORSOption adjusts a CORSPolicy.
type CORSOption func(*CORSPolicy)

// WithAllowOrigins sets the accepted origins.
func WithAllowOrigins(origins ...string) CORSOption {
	return func(p *CORSPolicy) { p.Origins = origins }
}

// WithAllowOriginFunc decides per origin instead of the origin list.
func WithAllowOriginFunc(fn func(origin string) bool) CORSOption {
	return func(p *CORSPolicy) { p.OriginFunc = fn }
}

// WithAllowMethods sets the methods announced to preflights.
func WithAllowMethods(methods ...string) CORSOption {
	return func(p *CORSPolicy) { p.Methods = methods }
}

// WithAllowHeaders sets the request headers announced to preflights.
func WithAllowHeaders(headers ...string) CORSOption {
	return func(p *CORSPolicy) { p.Headers = headers }
}

// WithExposeHeaders sets the response headers scripts may read.
func WithExposeHeaders(headers ...string) CORSOption {
	return func(p *CORSPolicy) { p.Expose = headers }
}

// WithAllowCredentials lets browsers send cookies. The request origin is
// then echoed, never "*".
func WithAllowCredentials() CORSOption {
	return func(p *CORSPolicy) { p.Credentials = true }
}

// WithMaxAge sets how long browsers may cache a preflight answer.
func WithMaxAge(d time.Duration) CORSOption {
	return func(p *CORSPolicy) { p.MaxAge = d }
}

type corsModule struct {
	policy *CORSPolicy
	app    *internal.App
}

// CORS returns a factory for the Cross-Origin Resource Sharing module.
// Accepted preflight requests are answered with 204 and never reach the
// router.
func CORS(opts ...CORSOption) internal.MiddlewareFactory {
	policy := DefaultCORSPolicy()
	for _, opt := range opts {
		opt(&policy)
	}
	return func() internal.Middleware { return &corsModule{policy: &policy} }
}

func (m *corsModule) InjectApp(a *internal.App) { m.app = a }

func (m *corsModule) Middleware(req *internal.Request, res *internal.Response) error {
	origin := req.Header("Origin")
	if origin == "" {
		return nil
	}
	origins := m.origins()
	if !m.accepts(origin, origins) {
		return nil
	}

	h := res.Header()
	h.Add("Vary", "Origin")
	switch {
	case m.policy.Credentials, !slices.Contains(origins, "*"):
		h.Set("Access-Control-Allow-Origin", origin)
	default:
		h.Set("Access-Control-Allow-Origin", "*")
	}
	if m.policy.Credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if len(m.policy.Expose) > 0 {
		h.Set("Access-Control-Expose-Headers", strings.Join(m.policy.Expose, ", "))
	}

	if req.Method() != http.MethodOptions || req.Header("Access-Control-Request-Method") == "" {
		return nil
	}
	h.Add("Vary", "Access-Control-Request-Method")
	h.Add("Vary", "Access-Control-Request-Headers")
	h.Set("Access-Control-Allow-Methods", strings.Join(m.policy.Methods, ", "))
	h.Set("Access-Control-Allow-Headers", strings.Join(m.policy.Headers, ", "))
	if m.policy.MaxAge > 0 {
		h.Set("Access-Control-Max-Age", strconv.Itoa(int(m.policy.MaxAge.Seconds())))
	}
	res.SetCode(http.StatusNoContent).Complete()
	return nil
}

// origins prefers the cors.origins setting over the compiled-in list.
func (m *corsModule) origins() []string {
	if m.app != nil {
		if list := m.app.Config().GetStringSlice("cors.origins"); len(list) > 0 {
			return list
		}
	}
	return m.policy.Origins
}

func (m *corsModule) accepts(origin string, origins []string) bool {
	if m.policy.OriginFunc != nil {
		return m.policy.OriginFunc(origin)
	}
	return slices.Contains(origins, "*") || slices.Contains(origins, origin)
}
