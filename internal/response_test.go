package internal_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/infuse/internal"
	"github.com/dmitrymomot/infuse/pkg/view"
)

func TestResponse_Defaults(t *testing.T) {
	t.Parallel()

	res := internal.NewResponse(nil)
	require.Equal(t, http.StatusOK, res.Code())
	require.False(t, res.HasBody())
	require.Empty(t, res.Header())
	require.False(t, res.IsSent())
}

func TestResponse_Writers(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		res := internal.NewResponse(nil)
		require.NoError(t, res.JSON(http.StatusCreated, map[string]int{"id": 7}))
		require.Equal(t, http.StatusCreated, res.Code())
		require.Equal(t, "application/json", res.Header().Get("Content-Type"))
		require.JSONEq(t, `{"id":7}`, string(res.Body()))
	})

	t.Run("json encode failure keeps body", func(t *testing.T) {
		t.Parallel()
		res := internal.NewResponse(nil)
		res.SetBody([]byte("before"))
		require.Error(t, res.JSON(http.StatusOK, func() {}))
		require.Equal(t, "before", string(res.Body()))
	})

	t.Run("redirect", func(t *testing.T) {
		t.Parallel()
		res := internal.NewResponse(nil)
		res.SetBody([]byte("stale"))
		res.Redirect(http.StatusSeeOther, "/login")
		require.Equal(t, http.StatusSeeOther, res.Code())
		require.Equal(t, "/login", res.Header().Get("Location"))
		require.False(t, res.HasBody())
	})

	t.Run("http.ResponseWriter", func(t *testing.T) {
		t.Parallel()
		res := internal.NewResponse(nil)
		var w http.ResponseWriter = res
		http.Error(w, "nope", http.StatusBadRequest)
		require.Equal(t, http.StatusBadRequest, res.Code())
		require.Equal(t, "nope\n", string(res.Body()))
	})

	t.Run("cookies", func(t *testing.T) {
		t.Parallel()
		res := internal.NewResponse(nil)
		res.SetCookie(&http.Cookie{Name: "a", Value: "1"})
		http.SetCookie(res, &http.Cookie{Name: "b", Value: "2"})
		cookies := res.Cookies()
		require.Len(t, cookies, 2)
		require.Equal(t, "a", cookies[0].Name)
		require.Equal(t, "b", cookies[1].Name)
	})
}

func TestResponse_Render(t *testing.T) {
	t.Parallel()

	engine := view.EngineFunc(func(_ context.Context, w io.Writer, v view.View) error {
		if v.Name != "hello" {
			return view.ErrNotFound
		}
		_, err := io.WriteString(w, "<p>hello "+v.Params["name"].(string)+"</p>")
		return err
	})

	res := internal.NewResponse(engine)
	require.NoError(t, res.Render(context.Background(), "hello", map[string]any{"name": "gopher"}))
	require.Equal(t, "<p>hello gopher</p>", string(res.Body()))
	require.Equal(t, "text/html; charset=utf-8", res.Header().Get("Content-Type"))

	require.ErrorIs(t, res.Render(context.Background(), "missing", nil), view.ErrNotFound)
	require.Equal(t, "<p>hello gopher</p>", string(res.Body()))

	require.ErrorIs(t, internal.NewResponse(nil).Render(context.Background(), "hello", nil), internal.ErrNoViewEngine)
}

func TestResponse_RenderComponent(t *testing.T) {
	t.Parallel()

	res := internal.NewResponse(nil)
	c := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<b>hi</b>")
		return err
	})
	require.NoError(t, res.RenderComponent(context.Background(), c))
	require.Equal(t, "<b>hi</b>", string(res.Body()))
}

func TestResponse_Send(t *testing.T) {
	t.Parallel()

	res := internal.NewResponse(nil)
	var order []string
	res.OnSend(func(r *internal.Response) {
		order = append(order, "first")
		r.Header().Set("X-Hook", "ran")
	})
	res.OnSend(func(*internal.Response) { order = append(order, "second") })
	res.Text(http.StatusAccepted, "queued")

	rec := httptest.NewRecorder()
	require.NoError(t, res.Send(rec))

	require.Equal(t, []string{"first", "second"}, order)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "queued", rec.Body.String())
	require.Equal(t, "ran", rec.Header().Get("X-Hook"))
	require.Equal(t, "6", rec.Header().Get("Content-Length"))
	require.True(t, res.IsSent())

	t.Run("mutations after send are ignored", func(t *testing.T) {
		res.SetCode(http.StatusTeapot)
		res.SetBody([]byte("changed"))
		_, err := res.Write([]byte("more"))
		require.ErrorIs(t, err, internal.ErrResponseSent)
		require.Equal(t, http.StatusAccepted, res.Code())
		require.Equal(t, "queued", string(res.Body()))
	})

	t.Run("second send fails", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.ErrorIs(t, res.Send(rec), internal.ErrResponseSent)
		require.Empty(t, rec.Body.String())
	})
}
