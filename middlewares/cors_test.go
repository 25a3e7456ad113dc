package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/infuse/internal"
	"github.com/dmitrymomot/infuse/middlewares"
)

func corsRequest(method, origin string) *http.Request {
	r := httptest.NewRequest(method, "/api/items", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func TestCORS(t *testing.T) {
	t.Parallel()

	cors := []string{middlewares.ModuleCORS}
	ok := func(app *internal.App) {
		app.GET("/api/items", func(_ *internal.Request, res *internal.Response) error {
			return res.JSON(http.StatusOK, []string{})
		})
	}

	t.Run("default configuration allows all origins", func(t *testing.T) {
		t.Parallel()

		app := newApp(t, cors, nil)
		ok(app)
		rec := serve(app, corsRequest(http.MethodGet, "http://example.com"))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("no headers without Origin", func(t *testing.T) {
		t.Parallel()

		app := newApp(t, cors, nil)
		ok(app)
		rec := serve(app, corsRequest(http.MethodGet, ""))
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("specific origins", func(t *testing.T) {
		t.Parallel()

		app := newApp(t, cors, nil, middlewares.WithCORSOptions(
			middlewares.WithAllowOrigins("http://allowed.com"),
		))
		ok(app)

		rec := serve(app, corsRequest(http.MethodGet, "http://allowed.com"))
		require.Equal(t, "http://allowed.com", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Contains(t, rec.Header().Values("Vary"), "Origin")

		rec = serve(app, corsRequest(http.MethodGet, "http://evil.com"))
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("credentials echo origin", func(t *testing.T) {
		t.Parallel()

		app := newApp(t, cors, nil, middlewares.WithCORSOptions(
			middlewares.WithAllowCredentials(),
			middlewares.WithExposeHeaders("X-Total"),
		))
		ok(app)
		rec := serve(app, corsRequest(http.MethodGet, "http://app.test"))
		require.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		require.Equal(t, "X-Total", rec.Header().Get("Access-Control-Expose-Headers"))
	})

	t.Run("preflight", func(t *testing.T) {
		t.Parallel()

		app := newApp(t, cors, nil, middlewares.WithCORSOptions(
			middlewares.WithAllowMethods(http.MethodGet, http.MethodPost),
			middlewares.WithMaxAge(time.Hour),
		))
		r := corsRequest(http.MethodOptions, "http://app.test")
		r.Header.Set("Access-Control-Request-Method", http.MethodPost)

		rec := serve(app, r)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
		require.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
		require.Empty(t, rec.Body.String())
	})

	t.Run("plain OPTIONS is routed", func(t *testing.T) {
		t.Parallel()

		app := newApp(t, cors, nil)
		ok(app)
		rec := serve(app, corsRequest(http.MethodOptions, ""))
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("rejected preflight is routed", func(t *testing.T) {
		t.Parallel()

		app := newApp(t, cors, nil, middlewares.WithCORSOptions(
			middlewares.WithAllowOrigins("http://allowed.com"),
		))
		ok(app)
		r := corsRequest(http.MethodOptions, "http://evil.com")
		r.Header.Set("Access-Control-Request-Method", http.MethodGet)

		rec := serve(app, r)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("origins from settings", func(t *testing.T) {
		t.Parallel()

		app := newApp(t, cors, map[string]any{
			"cors": map[string]any{"origins": []string{"http://cfg.test"}},
		})
		ok(app)
		rec := serve(app, corsRequest(http.MethodGet, "http://cfg.test"))
		require.Equal(t, "http://cfg.test", rec.Header().Get("Access-Control-Allow-Origin"))

		rec = serve(app, corsRequest(http.MethodGet, "http://example.com"))
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("dynamic origin check", func(t *testing.T) {
		t.Parallel()

		app := newApp(t, cors, nil, middlewares.WithCORSOptions(
			middlewares.WithAllowOriginFunc(func(origin string) bool { return origin == "http://dyn.test" }),
		))
		ok(app)
		rec := serve(app, corsRequest(http.MethodGet, "http://dyn.test"))
		require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

		rec = serve(app, corsRequest(http.MethodGet, "http://other.test"))
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
