package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/infuse/internal"
	"github.com/dmitrymomot/infuse/middlewares"
)

// newApp builds an app running the given modules in order.
func newApp(t *testing.T, pipeline []string, settings map[string]any, opts ...middlewares.ModuleOption) *internal.App {
	t.Helper()
	if settings == nil {
		settings = map[string]any{}
	}
	settings["modules"] = map[string]any{"middleware": pipeline}

	app, err := internal.New(settings, middlewares.Register(opts...))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	return app
}

func serve(app *internal.App, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, r)
	return rec
}
