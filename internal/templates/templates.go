// Package templates renders the markdown documents built from a predicate
// mapping: the SPARQL generator prompt and its schema table.
//
// Templates are embedded in the binary via Go's embed package so the server
// works as a single executable.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"text/template"

	"github.com/HendryAvila/schemagraph/internal/mapping"
	"github.com/HendryAvila/schemagraph/internal/schema"
)

//go:embed *.md.tmpl guidance/*.md
var files embed.FS

// Template file names.
const (
	SPARQLPrompt = "sparql_prompt.md.tmpl"
	SchemaTable  = "schema_table.md.tmpl"
	Hierarchy    = "hierarchy.md.tmpl"
)

// DefaultContributionClass is declared in prompts whose template has no
// target class.
const DefaultContributionClass = "C27001"

// Renderer renders a named template with data.
type Renderer interface {
	Render(name string, data any) (string, error)
}

// EmbedRenderer renders the embedded templates.
type EmbedRenderer struct {
	tmpl     *template.Template
	guidance map[string]string
}

var _ Renderer = (*EmbedRenderer)(nil)

// NewRenderer parses every embedded template and guidance file.
func NewRenderer() (*EmbedRenderer, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(files, "*.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("templates: parse: %w", err)
	}

	guidance := make(map[string]string)
	entries, err := fs.Glob(files, "guidance/*.md")
	if err != nil {
		return nil, fmt.Errorf("templates: guidance: %w", err)
	}
	for _, name := range entries {
		data, err := files.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("templates: read %s: %w", name, err)
		}
		id := strings.TrimSuffix(path.Base(name), ".md")
		guidance[id] = strings.TrimSpace(string(data))
	}
	return &EmbedRenderer{tmpl: tmpl, guidance: guidance}, nil
}

// Render executes the template called name.
func (r *EmbedRenderer) Render(name string, data any) (string, error) {
	if r.tmpl.Lookup(name) == nil {
		return "", fmt.Errorf("templates: unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("templates: render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Guidance returns the curated domain notes for a template ID, if any.
func (r *EmbedRenderer) Guidance(templateID string) (string, bool) {
	g, ok := r.guidance[templateID]
	return g, ok
}

// Prompt renders the SPARQL generator prompt for a template.
func (r *EmbedRenderer) Prompt(tpl schema.Template, m mapping.Mapping, question string) (string, error) {
	data := NewPromptData(tpl, m, question)
	data.Guidance, _ = r.Guidance(tpl.ID)
	return r.Render(SPARQLPrompt, data)
}

var funcs = template.FuncMap{
	"code": func(s string) string { return "`" + s + "`" },
}
