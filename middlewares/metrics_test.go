package middlewares_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/infuse/internal"
	"github.com/dmitrymomot/infuse/middlewares"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := middlewares.NewMetrics(reg, middlewares.WithMetricsNamespace("shop"))
	app := newApp(t, []string{middlewares.ModuleMetrics}, nil, middlewares.WithMetrics(m))
	app.GET("/users/{id}", func(req *internal.Request, res *internal.Response) error {
		res.Text(http.StatusOK, "user "+req.Param("id"))
		return nil
	})

	for _, id := range []string{"1", "2"} {
		rec := serve(app, httptest.NewRequest(http.MethodGet, "/users/"+id, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	serve(app, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	series, err := testutil.GatherAndCount(reg, "shop_http_requests_total")
	require.NoError(t, err)
	require.Equal(t, 2, series)

	rec := serve(app, httptest.NewRequest(http.MethodGet, m.Path(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `shop_http_requests_total{method="GET",route="/users/{id}",status="200"} 2`)
	require.Contains(t, body, `shop_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
	require.Contains(t, body, "shop_http_request_duration_seconds_bucket")
}

func TestMetrics_NotRecordedWithoutSend(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	app := newApp(t, []string{middlewares.ModuleMetrics}, nil,
		middlewares.WithMetrics(middlewares.NewMetrics(reg)))

	app.HandleRequest(app.NewRequest(httptest.NewRequest(http.MethodGet, "/", nil)))
	series, err := testutil.GatherAndCount(reg, "infuse_http_requests_total")
	require.NoError(t, err)
	require.Zero(t, series)
}

func TestMetrics_CountsFailedRequests(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := middlewares.NewMetrics(reg)
	app := newApp(t, []string{middlewares.ModuleMetrics}, nil, middlewares.WithMetrics(m))
	app.GET("/orders", func(*internal.Request, *internal.Response) error {
		return errors.New("db down")
	})
	app.GET("/crash", func(*internal.Request, *internal.Response) error {
		panic("boom")
	})

	for _, path := range []string{"/orders", "/crash"} {
		rec := serve(app, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	}

	rec := serve(app, httptest.NewRequest(http.MethodGet, m.Path(), nil))
	body := rec.Body.String()
	require.Contains(t, body, `infuse_http_requests_total{method="GET",route="/orders",status="500"} 1`)
	require.Contains(t, body, `infuse_http_requests_total{method="GET",route="/crash",status="500"} 1`)
}

func TestMetrics_EndpointRequiresModule(t *testing.T) {
	t.Parallel()

	m := middlewares.NewMetrics(prometheus.NewRegistry())
	app := newApp(t, []string{middlewares.ModuleRequestID}, nil, middlewares.WithMetrics(m))

	rec := serve(app, httptest.NewRequest(http.MethodGet, m.Path(), nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
