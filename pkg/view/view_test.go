package view_test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"testing/fstest"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/infuse/pkg/view"
)

func TestHTMLEngine(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"home.html":        {Data: []byte(`<h1>{{.title}}</h1><p>{{.app}}</p>`)},
		"asset.html":       {Data: []byte(`<link href="{{asset_url "/css/app.css"}}">`)},
		"escape.html":      {Data: []byte(`{{.name}}`)},
		"pages/about.html": {Data: []byte(`about {{.who}}`)},
		"layout.html":      {Data: []byte(`<main>{{template "content" .}}</main>`)},
		"inner.html":       {Data: []byte(`{{define "content"}}inner {{.x}}{{end}}`)},
	}
	ctx := context.Background()

	t.Run("params override globals", func(t *testing.T) {
		t.Parallel()

		e := view.NewHTMLEngine(fsys, view.WithGlobal("app", "Demo"), view.WithGlobal("title", "Global"))
		var buf bytes.Buffer
		require.NoError(t, e.Render(ctx, &buf, view.New("home", map[string]any{"title": "Home"})))
		require.Equal(t, `<h1>Home</h1><p>Demo</p>`, buf.String())
	})

	t.Run("asset_url uses the configured base", func(t *testing.T) {
		t.Parallel()

		e := view.NewHTMLEngine(fsys, view.WithAssetBaseURL("https://cdn.example.com/"))
		var buf bytes.Buffer
		require.NoError(t, e.Render(ctx, &buf, view.New("asset", nil)))
		require.Equal(t, `<link href="https://cdn.example.com/css/app.css">`, buf.String())
	})

	t.Run("escapes html", func(t *testing.T) {
		t.Parallel()

		e := view.NewHTMLEngine(fsys)
		var buf bytes.Buffer
		require.NoError(t, e.Render(ctx, &buf, view.New("escape", map[string]any{"name": "<b>"})))
		require.Equal(t, "&lt;b&gt;", buf.String())
	})

	t.Run("nested names", func(t *testing.T) {
		t.Parallel()

		e := view.NewHTMLEngine(fsys)
		var buf bytes.Buffer
		require.NoError(t, e.Render(ctx, &buf, view.New("pages/about", map[string]any{"who": "us"})))
		require.Equal(t, "about us", buf.String())
	})

	t.Run("layout", func(t *testing.T) {
		t.Parallel()

		e := view.NewHTMLEngine(fsys, view.WithLayout("layout.html"), view.WithoutCache())
		var buf bytes.Buffer
		require.NoError(t, e.Render(ctx, &buf, view.New("inner", map[string]any{"x": 1})))
		require.Equal(t, "<main>inner 1</main>", buf.String())
	})

	t.Run("missing view", func(t *testing.T) {
		t.Parallel()

		e := view.NewHTMLEngine(fsys)
		require.ErrorIs(t, e.Render(ctx, io.Discard, view.New("error", nil)), view.ErrNotFound)
		require.ErrorIs(t, e.Render(ctx, io.Discard, view.New("../etc/passwd", nil)), view.ErrNotFound)
	})
}

func TestTemplEngine(t *testing.T) {
	t.Parallel()

	e := view.NewTemplEngine().Register("hello", func(params map[string]any) templ.Component {
		return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
			_, err := io.WriteString(w, "hello "+templ.EscapeString(params["name"].(string)))
			return err
		})
	})

	var buf bytes.Buffer
	require.NoError(t, e.Render(context.Background(), &buf, view.New("hello", map[string]any{"name": "<x>"})))
	require.Equal(t, "hello &lt;x&gt;", buf.String())

	require.ErrorIs(t, e.Render(context.Background(), io.Discard, view.New("missing", nil)), view.ErrNotFound)
}

func TestMarkdownEngine(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"doc.md": {Data: []byte("# {{.title}}\n\nHello **{{.name}}** <script>alert(1)</script>\n")},
	}
	e := view.NewMarkdownEngine(fsys, map[string]any{"title": "Docs"})

	var buf bytes.Buffer
	require.NoError(t, e.Render(context.Background(), &buf, view.New("doc", map[string]any{"name": "world"})))
	require.Contains(t, buf.String(), "<h1")
	require.Contains(t, buf.String(), "Docs</h1>")
	require.Contains(t, buf.String(), "<strong>world</strong>")
	require.NotContains(t, buf.String(), "<script>")

	require.ErrorIs(t, e.Render(context.Background(), io.Discard, view.New("missing", nil)), view.ErrNotFound)
}

func TestErrorPage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := view.ErrorPage(map[string]any{
		"code":    404,
		"title":   404,
		"message": "Not Found",
		"detail":  "<no route>",
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "<h1>404</h1>")
	require.Contains(t, out, "Not Found")
	require.Contains(t, out, "&lt;no route&gt;")
}

func TestAssetURL(t *testing.T) {
	t.Parallel()

	require.Equal(t, "/img/a.png", view.AssetURL("", "img/a.png"))
	require.Equal(t, "https://x.test/img/a.png", view.AssetURL("https://x.test/", "/img/a.png"))
}
