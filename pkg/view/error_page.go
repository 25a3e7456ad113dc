package view

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// ErrorPage is the built-in page used when no "error" view is available.
// It reads "code", "title", "message" and the optional "detail" from params.
func ErrorPage(params map[string]any) templ.Component {
	title := fmt.Sprint(params["title"])
	message := fmt.Sprint(params["message"])
	code := fmt.Sprint(params["code"])
	detail, _ := params["detail"].(string)

	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s</title></head>`+
				`<body><main><h1>%s</h1><p>%s</p>`,
			templ.EscapeString(title+" "+message),
			templ.EscapeString(code),
			templ.EscapeString(message),
		)
		if err != nil {
			return err
		}
		if detail != "" {
			if _, err := fmt.Fprintf(w, `<pre>%s</pre>`, templ.EscapeString(detail)); err != nil {
				return err
			}
		}
		_, err = io.WriteString(w, `</main></body></html>`)
		return err
	})
}
