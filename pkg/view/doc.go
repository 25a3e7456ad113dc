// Package view defines the rendering contract used by responses and the
// engines that implement it.
//
// A View is a name plus parameters. An Engine turns it into bytes:
//
//   - HTMLEngine: html/template files "<name>.html" with shared globals and an
//     asset_url helper.
//   - TemplEngine: templ components registered under a name.
//   - MarkdownEngine: "<name>.md" files with parameter substitution, rendered by
//     goldmark and sanitized with bluemonday.
//
// Engines return ErrNotFound when the view does not exist, which lets callers
// fall back to ErrorPage for the "error" view.
package view
