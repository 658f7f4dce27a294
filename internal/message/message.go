// Package message renders the release pull request's title and description.
package message

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/danielolaszy/release-pr/pkg/models"
)

//go:embed templates/release.tmpl
var defaultTemplate string

var funcs = template.FuncMap{
	"date": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	},
}

// Data is what a release template is executed with.
type Data struct {
	Version models.Version
	PRs     []models.PullRequest
}

// Renderer turns a version and its pull requests into a release message.
// The first rendered line becomes the title, the remaining lines the body.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the template text. An empty text selects the built-in template.
func NewRenderer(text string) (*Renderer, error) {
	if text == "" {
		text = defaultTemplate
	}
	tmpl, err := template.New("release").Funcs(funcs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse release template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// LoadRenderer reads the template at path. An empty path selects the built-in template.
func LoadRenderer(path string) (*Renderer, error) {
	if path == "" {
		return NewRenderer("")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read release template: %w", err)
	}
	return NewRenderer(string(data))
}

// Render executes the template and splits the output into title and body.
func (r *Renderer) Render(version models.Version, prs []models.PullRequest) (models.ReleaseMessage, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, Data{Version: version, PRs: prs}); err != nil {
		return models.ReleaseMessage{}, fmt.Errorf("failed to render release message: %w", err)
	}

	title, body, _ := strings.Cut(buf.String(), "\n")
	return models.ReleaseMessage{
		Title: strings.TrimRight(title, "\r"),
		Body:  body,
	}, nil
}
