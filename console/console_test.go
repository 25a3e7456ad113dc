package console_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/infuse/console"
	"github.com/dmitrymomot/infuse/internal"
)

func home(*internal.Request, *internal.Response) error { return nil }

func newApp(t *testing.T, settings map[string]any) *internal.App {
	t.Helper()
	if settings == nil {
		settings = map[string]any{}
	}
	settings["routes"] = []string{"GET / home", "POST /login home"}

	app, err := internal.New(settings, internal.WithHandler("home", home))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	return app
}

func run(t *testing.T, c *console.Console, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	c.Root().SetOut(&stdout)
	c.Root().SetErr(&stderr)
	code := c.Execute(context.Background(), args)
	return code, stdout.String(), stderr.String()
}

func TestOptimize_NoCacheFile(t *testing.T) {
	t.Parallel()

	c, err := console.New(newApp(t, nil))
	require.NoError(t, err)

	code, out, _ := run(t, c, "optimize")
	require.Equal(t, 0, code)
	require.Equal(t, "The route table could be cached with the router.cacheFile setting\n", out)
}

func TestOptimize_WritesCache(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cache", "routes.cache")
	app := newApp(t, map[string]any{"router": map[string]any{"cacheFile": path}})
	c, err := console.New(app)
	require.NoError(t, err)

	code, out, _ := run(t, c, "optimize")
	require.Equal(t, 0, code)
	require.Contains(t, out, "-- Caching route table\n")
	require.NotContains(t, out, "Removed previous cache")

	table, err := internal.ReadRouteCache(path)
	require.NoError(t, err)
	require.Equal(t, internal.RouteTable{
		{Method: "GET", Pattern: "/", Handler: "home"},
		{Method: "POST", Pattern: "/login", Handler: "home"},
	}, table)

	code, out, _ = run(t, c, "optimize")
	require.Equal(t, 0, code)
	require.Contains(t, out, "Removed previous cache "+path)
}

func TestOptimize_WriteFailure(t *testing.T) {
	t.Parallel()

	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	app := newApp(t, map[string]any{
		"router": map[string]any{"cacheFile": filepath.Join(blocker, "routes.cache")},
	})
	c, err := console.New(app)
	require.NoError(t, err)

	code, out, stderr := run(t, c, "optimize")
	require.Equal(t, 1, code)
	require.Contains(t, out, "-- Caching route table")
	require.Contains(t, stderr, "Error:")
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	app := newApp(t, nil)
	app.GET("/ping", home)
	c, err := console.New(app)
	require.NoError(t, err)

	t.Run("text", func(t *testing.T) {
		code, out, _ := run(t, c, "routes")
		require.Equal(t, 0, code)
		require.Contains(t, out, "METHOD")
		require.Regexp(t, `POST\s+/login\s+home`, out)
		require.Regexp(t, `GET\s+/ping\s+-`, out)
	})

	t.Run("yaml", func(t *testing.T) {
		code, out, _ := run(t, c, "routes", "--format", "yaml")
		require.Equal(t, 0, code)

		var got internal.RouteTable
		require.NoError(t, yaml.Unmarshal([]byte(out), &got))
		require.Contains(t, got, internal.RouteEntry{Method: "GET", Pattern: "/", Handler: "home"})
		require.Contains(t, got, internal.RouteEntry{Method: "GET", Pattern: "/ping"})
	})

	t.Run("unknown format", func(t *testing.T) {
		code, _, stderr := run(t, c, "routes", "--format", "xml")
		require.Equal(t, 1, code)
		require.Contains(t, stderr, `unsupported format "xml"`)
	})
}

func TestCustomCommands(t *testing.T) {
	t.Parallel()

	greet := func(app *internal.App) *cobra.Command {
		return &cobra.Command{
			Use: "greet",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cmd.Println("hello from " + app.Config().GetString("site.title"))
				return nil
			},
		}
	}

	t.Run("listed command is added", func(t *testing.T) {
		t.Parallel()

		app := newApp(t, map[string]any{
			"site":    map[string]any{"title": "Acme"},
			"console": map[string]any{"commands": []string{"greet"}},
		})
		c, err := console.New(app, console.WithCommand("greet", greet))
		require.NoError(t, err)

		code, out, _ := run(t, c, "greet")
		require.Equal(t, 0, code)
		require.Equal(t, "hello from Acme\n", out)
	})

	t.Run("unlisted command is absent", func(t *testing.T) {
		t.Parallel()

		c, err := console.New(newApp(t, nil), console.WithCommand("greet", greet))
		require.NoError(t, err)

		code, _, _ := run(t, c, "greet")
		require.Equal(t, 1, code)
	})

	t.Run("unknown listed command", func(t *testing.T) {
		t.Parallel()

		app := newApp(t, map[string]any{"console": map[string]any{"commands": []string{"migrate"}}})
		_, err := console.New(app)
		var unknown *internal.UnknownServiceError
		require.ErrorAs(t, err, &unknown)
		require.Equal(t, "command", unknown.Kind)
	})
}
