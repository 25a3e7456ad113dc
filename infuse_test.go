package infuse_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/infuse"
	"github.com/dmitrymomot/infuse/middlewares"
)

func TestApp_EndToEnd(t *testing.T) {
	t.Parallel()

	show := func(req *infuse.Request, res *infuse.Response) error {
		id := infuse.Param[int](req, "id")
		if id > 100 {
			return infuse.ErrNotFound("no such product")
		}
		return res.JSON(http.StatusOK, map[string]any{
			"id":     id,
			"locale": middlewares.GetLocale(req),
		})
	}

	app, err := infuse.New(map[string]any{
		"site":    map[string]any{"title": "Shop"},
		"locale":  map[string]any{"supported": []string{"de"}},
		"modules": map[string]any{"middleware": []string{"requestid", "locale"}},
		"routes":  []string{"GET /products/{id} products.show"},
	},
		infuse.WithHandler("products.show", show),
		infuse.WithHealthChecks(),
		middlewares.Register(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })

	srv := httptest.NewServer(app)
	t.Cleanup(srv.Close)

	get := func(path string, header http.Header) (*http.Response, string) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		require.NoError(t, err)
		for k, v := range header {
			req.Header[k] = v
		}
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp, string(body)
	}

	resp, body := get("/products/7", http.Header{"Accept-Language": {"de-DE"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"id":7,"locale":"de"}`, body)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, body = get("/products/700", http.Header{"Accept": {"application/json"}})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.JSONEq(t, `{"error":"no such product","code":404}`, body)

	resp, body = get("/missing", http.Header{"Accept": {"text/html"}})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, body, "Not Found")

	resp, _ = get("/health/live", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NotEmpty(t, app.Config().GetString("site.hostname"))
}

func TestService(t *testing.T) {
	t.Parallel()

	app, err := infuse.New(nil, infuse.WithService("greeting", "hello"))
	require.NoError(t, err)

	v, err := infuse.Service[string](app, "greeting")
	require.NoError(t, err)
	require.Equal(t, "hello", v)

	_, err = infuse.Service[int](app, "greeting")
	require.ErrorIs(t, err, infuse.ErrServiceType)
}
