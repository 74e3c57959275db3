// Package template expands embedded expressions in user-supplied SQL
// fragments: derived-table sources, opaque where/having clauses. The query
// compiler treats expansion as an opaque pure text substitution.
package template

import (
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Context carries the query attributes visible to template expressions.
type Context struct {
	Table    string
	From     time.Time
	To       time.Time
	RowLimit int
	GroupBy  []string
	Metrics  []string
}

// Expander substitutes embedded expressions in a text fragment.
type Expander interface {
	Expand(fragment string, ctx Context) (string, error)
}

// TextExpander expands fragments with Go text/template syntax. Fragments
// without template actions pass through unchanged.
type TextExpander struct{}

// NewTextExpander returns the default expander.
func NewTextExpander() *TextExpander { return &TextExpander{} }

// Expand renders the fragment against the context. The context is exposed
// as fields ({{.Table}}, {{.From}}, ...) plus helper functions.
func (e *TextExpander) Expand(fragment string, ctx Context) (string, error) {
	if !strings.Contains(fragment, "{{") {
		return fragment, nil
	}
	tmpl, err := template.New("fragment").Funcs(funcMap(ctx)).Parse(fragment)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, templateData(ctx)); err != nil {
		return "", fmt.Errorf("expand template: %w", err)
	}
	return b.String(), nil
}

// templateData flattens the context into template-visible fields.
func templateData(ctx Context) map[string]any {
	return map[string]any{
		"Table":    ctx.Table,
		"From":     ctx.From.Format("2006-01-02 15:04:05"),
		"To":       ctx.To.Format("2006-01-02 15:04:05"),
		"RowLimit": ctx.RowLimit,
		"GroupBy":  ctx.GroupBy,
		"Metrics":  ctx.Metrics,
	}
}

func funcMap(ctx Context) template.FuncMap {
	return template.FuncMap{
		// latest renders the upper bound as a quoted SQL literal.
		"latest": func() string {
			return "'" + ctx.To.Format("2006-01-02 15:04:05") + "'"
		},
		// earliest renders the lower bound as a quoted SQL literal.
		"earliest": func() string {
			return "'" + ctx.From.Format("2006-01-02 15:04:05") + "'"
		},
	}
}

// NoopExpander returns fragments unchanged. Useful in tests.
type NoopExpander struct{}

// Expand returns the fragment as-is.
func (NoopExpander) Expand(fragment string, _ Context) (string, error) {
	return fragment, nil
}
