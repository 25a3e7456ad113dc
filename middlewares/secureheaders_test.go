package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/infuse/middlewares"
)

func TestSecureHeaders(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		app := newApp(t, []string{middlewares.ModuleSecureHeaders}, nil)
		rec := serve(app, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		require.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
		require.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
		require.Empty(t, rec.Header().Get("Content-Security-Policy"))
		require.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	})

	t.Run("hsts on secure requests", func(t *testing.T) {
		t.Parallel()

		app := newApp(t, []string{middlewares.ModuleSecureHeaders}, nil, middlewares.WithSecureHeadersOptions(
			middlewares.WithHSTS(600, true, false),
		))
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-Proto", "https")

		rec := serve(app, r)
		require.Equal(t, "max-age=600; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
	})

	t.Run("overrides", func(t *testing.T) {
		t.Parallel()

		app := newApp(t, []string{middlewares.ModuleSecureHeaders}, nil, middlewares.WithSecureHeadersOptions(
			middlewares.WithFrameOptions("DENY"),
			middlewares.WithContentSecurityPolicy("default-src 'self'"),
			middlewares.WithReferrerPolicy(""),
		))
		rec := serve(app, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		require.Equal(t, "default-src 'self'", rec.Header().Get("Content-Security-Policy"))
		require.Empty(t, rec.Header().Get("Referrer-Policy"))
	})
}
