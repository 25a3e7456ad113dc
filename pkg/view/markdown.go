package view

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"path"
	"text/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// MarkdownEngine renders "<view>.md" files. Params are substituted with
// text/template syntax before conversion; the produced HTML is sanitized.
type MarkdownEngine struct {
	fsys    fs.FS
	md      goldmark.Markdown
	policy  *bluemonday.Policy
	globals map[string]any
}

// NewMarkdownEngine creates an engine reading files from fsys.
func NewMarkdownEngine(fsys fs.FS, globals map[string]any) *MarkdownEngine {
	return &MarkdownEngine{
		fsys:    fsys,
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:  bluemonday.UGCPolicy(),
		globals: globals,
	}
}

func (e *MarkdownEngine) Render(_ context.Context, w io.Writer, v View) error {
	file := path.Clean(v.Name) + ".md"
	if !fs.ValidPath(file) {
		return ErrNotFound
	}
	src, err := fs.ReadFile(e.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}

	tmpl, err := template.New(file).Option("missingkey=zero").Parse(string(src))
	if err != nil {
		return err
	}
	var expanded bytes.Buffer
	if err := tmpl.Execute(&expanded, mergeParams(e.globals, v.Params)); err != nil {
		return err
	}

	var html bytes.Buffer
	if err := e.md.Convert(expanded.Bytes(), &html); err != nil {
		return err
	}
	_, err = w.Write(e.policy.SanitizeBytes(html.Bytes()))
	return err
}
