package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/infuse/pkg/view"
)

// Response is a buffered outgoing result. It implements http.ResponseWriter,
// so chi handlers, templ components and http.SetCookie can write into it.
// Nothing reaches the client until Send; after Send every mutation is ignored.
type Response struct {
	header   http.Header
	views    view.Engine
	onSend   []func(*Response)
	body     bytes.Buffer
	code     int
	mu       sync.Mutex
	sent     bool
	complete bool
}

// NewResponse creates a blank response: status 200, no headers, empty body.
// views may be nil, in which case Render fails with ErrNoViewEngine.
func NewResponse(views view.Engine) *Response {
	return &Response{
		header: make(http.Header),
		code:   http.StatusOK,
		views:  views,
	}
}

// Header returns the header map. Changes after Send have no effect.
func (res *Response) Header() http.Header { return res.header }

// WriteHeader records the status code.
func (res *Response) WriteHeader(code int) { res.SetCode(code) }

// Write appends to the body.
func (res *Response) Write(p []byte) (int, error) {
	res.mu.Lock()
	defer res.mu.Unlock()
	if res.sent {
		return 0, ErrResponseSent
	}
	return res.body.Write(p)
}

// Code returns the status code.
func (res *Response) Code() int {
	res.mu.Lock()
	defer res.mu.Unlock()
	return res.code
}

// SetCode sets the status code.
func (res *Response) SetCode(code int) *Response {
	res.mu.Lock()
	defer res.mu.Unlock()
	if !res.sent {
		res.code = code
	}
	return res
}

// Body returns a copy of the body.
func (res *Response) Body() []byte {
	res.mu.Lock()
	defer res.mu.Unlock()
	return bytes.Clone(res.body.Bytes())
}

// HasBody reports whether anything was written to the body.
func (res *Response) HasBody() bool {
	res.mu.Lock()
	defer res.mu.Unlock()
	return res.body.Len() > 0
}

// SetBody replaces the body.
func (res *Response) SetBody(b []byte) *Response {
	res.mu.Lock()
	defer res.mu.Unlock()
	if !res.sent {
		res.body.Reset()
		res.body.Write(b)
	}
	return res
}

// SetCookie adds a Set-Cookie header.
func (res *Response) SetCookie(c *http.Cookie) *Response {
	res.mu.Lock()
	defer res.mu.Unlock()
	if !res.sent {
		if v := c.String(); v != "" {
			res.header.Add("Set-Cookie", v)
		}
	}
	return res
}

// Cookies parses the Set-Cookie headers added so far.
func (res *Response) Cookies() []*http.Cookie {
	return (&http.Response{Header: res.header}).Cookies()
}

// Text replaces the body with plain text.
func (res *Response) Text(code int, s string) *Response {
	res.header.Set("Content-Type", "text/plain; charset=utf-8")
	return res.SetCode(code).SetBody([]byte(s))
}

// JSON replaces the body with the JSON encoding of v.
func (res *Response) JSON(code int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	res.header.Set("Content-Type", "application/json")
	res.SetCode(code).SetBody(b)
	return nil
}

// Redirect points the client at url. code should be a 3xx status.
func (res *Response) Redirect(code int, url string) *Response {
	res.header.Set("Location", url)
	return res.SetCode(code).SetBody(nil)
}

// Render replaces the body with the rendered view. On failure the body is left
// untouched.
func (res *Response) Render(ctx context.Context, name string, params map[string]any) error {
	if res.views == nil {
		return ErrNoViewEngine
	}
	var buf bytes.Buffer
	if err := res.views.Render(ctx, &buf, view.New(name, params)); err != nil {
		return err
	}
	if res.header.Get("Content-Type") == "" {
		res.header.Set("Content-Type", "text/html; charset=utf-8")
	}
	res.SetBody(buf.Bytes())
	return nil
}

// RenderComponent replaces the body with the rendered templ component.
func (res *Response) RenderComponent(ctx context.Context, c templ.Component) error {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return err
	}
	if res.header.Get("Content-Type") == "" {
		res.header.Set("Content-Type", "text/html; charset=utf-8")
	}
	res.SetBody(buf.Bytes())
	return nil
}

// OnSend registers fn to run right before the response is written out.
// Hooks run once, in registration order, and may still modify the response.
func (res *Response) OnSend(fn func(*Response)) {
	res.mu.Lock()
	defer res.mu.Unlock()
	res.onSend = append(res.onSend, fn)
}

// Complete marks the response as final. HandleRequest does not route a
// completed response; modules use it to answer a request themselves.
func (res *Response) Complete() *Response {
	res.mu.Lock()
	defer res.mu.Unlock()
	res.complete = true
	return res
}

// IsComplete reports whether Complete was called.
func (res *Response) IsComplete() bool {
	res.mu.Lock()
	defer res.mu.Unlock()
	return res.complete
}

// bodyHeaders describe a body and are not carried over to a replacement
// response.
var bodyHeaders = []string{
	"Content-Type", "Content-Length", "Content-Encoding", "Content-Disposition",
	"Location", "Set-Cookie",
}

// inherit copies the pending OnSend hooks and the headers of prev, except
// those describing the body or setting cookies. prev keeps neither.
func (res *Response) inherit(prev *Response) {
	if prev == nil || prev == res {
		return
	}
	prev.mu.Lock()
	header := prev.header.Clone()
	hooks := prev.onSend
	prev.onSend = nil
	prev.mu.Unlock()

	for _, k := range bodyHeaders {
		header.Del(k)
	}
	res.mu.Lock()
	defer res.mu.Unlock()
	for k, v := range header {
		if _, ok := res.header[k]; !ok {
			res.header[k] = v
		}
	}
	res.onSend = append(hooks, res.onSend...)
}

// IsSent reports whether Send was called.
func (res *Response) IsSent() bool {
	res.mu.Lock()
	defer res.mu.Unlock()
	return res.sent
}

// Send runs the OnSend hooks and writes status, headers and body to w.
// Only the first call writes; later calls return ErrResponseSent.
func (res *Response) Send(w http.ResponseWriter) error {
	res.mu.Lock()
	if res.sent {
		res.mu.Unlock()
		return ErrResponseSent
	}
	hooks := res.onSend
	res.onSend = nil
	res.mu.Unlock()

	for _, fn := range hooks {
		fn(res)
	}

	res.mu.Lock()
	res.sent = true
	code := res.code
	if code < 100 || code > 999 {
		code = http.StatusInternalServerError
	}
	body := res.body.Bytes()
	res.mu.Unlock()

	h := w.Header()
	for k, v := range res.header {
		h[k] = v
	}
	if len(body) > 0 && h.Get("Content-Length") == "" {
		h.Set("Content-Length", strconv.Itoa(len(body)))
	}
	w.WriteHeader(code)
	if len(body) == 0 {
		return nil
	}
	_, err := w.Write(body)
	return err
}
