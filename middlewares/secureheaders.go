package middlewares

import (
	"strconv"

	"github.com/dmitrymomot/infuse/internal"
)

// SecureHeadersConfig holds the values of the security headers. Empty values
// are not sent.
type SecureHeadersConfig struct {
	ContentTypeNosniff    string
	FrameOptions          string
	ReferrerPolicy        string
	ContentSecurityPolicy string
	PermissionsPolicy     string
	CrossOriginOpener     string

	// HSTSMaxAge is in seconds; Strict-Transport-Security is only sent
	// on secure requests and when it is positive.
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
}

// DefaultSecureHeadersConfig returns the headers used when no option is given.
func DefaultSecureHeadersConfig() SecureHeadersConfig {
	return SecureHeadersConfig{
		ContentTypeNosniff: "nosniff",
		FrameOptions:       "SAMEORIGIN",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		PermissionsPolicy:  "camera=(), geolocation=(), microphone=(), payment=()",
		CrossOriginOpener:  "same-origin",
		HSTSMaxAge:         31536000,
	}
}

// SecureHeadersOption configures SecureHeadersConfig.
type SecureHeadersOption func(*SecureHeadersConfig)

// WithFrameOptions sets X-Frame-Options.
func WithFrameOptions(v string) SecureHeadersOption {
	return func(cfg *SecureHeadersConfig) { cfg.FrameOptions = v }
}

// WithContentSecurityPolicy sets Content-Security-Policy.
func WithContentSecurityPolicy(v string) SecureHeadersOption {
	return func(cfg *SecureHeadersConfig) { cfg.ContentSecurityPolicy = v }
}

// WithReferrerPolicy sets Referrer-Policy.
func WithReferrerPolicy(v string) SecureHeadersOption {
	return func(cfg *SecureHeadersConfig) { cfg.ReferrerPolicy = v }
}

// WithHSTS sets the Strict-Transport-Security policy.
func WithHSTS(maxAge int, includeSubdomains, preload bool) SecureHeadersOption {
	return func(cfg *SecureHeadersConfig) {
		cfg.HSTSMaxAge = maxAge
		cfg.HSTSIncludeSubdomains = includeSubdomains
		cfg.HSTSPreload = preload
	}
}

// SecureHeaders returns a factory for the module that sets browser security
// headers on every response.
func SecureHeaders(opts ...SecureHeadersOption) internal.MiddlewareFactory {
	cfg := DefaultSecureHeadersConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	static := map[string]string{
		"X-Content-Type-Options":     cfg.ContentTypeNosniff,
		"X-Frame-Options":            cfg.FrameOptions,
		"Referrer-Policy":            cfg.ReferrerPolicy,
		"Content-Security-Policy":    cfg.ContentSecurityPolicy,
		"Permissions-Policy":         cfg.PermissionsPolicy,
		"Cross-Origin-Opener-Policy": cfg.CrossOriginOpener,
	}

	var hsts string
	if cfg.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hsts += "; preload"
		}
	}

	return func() internal.Middleware {
		return internal.MiddlewareFunc(func(req *internal.Request, res *internal.Response) error {
			h := res.Header()
			for name, v := range static {
				if v != "" {
					h.Set(name, v)
				}
			}
			if hsts != "" && req.IsSecure() {
				h.Set("Strict-Transport-Security", hsts)
			}
			return nil
		})
	}
}
