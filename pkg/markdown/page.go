package markdown

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"time"

	"github.com/adrg/frontmatter"
)

//go:embed page.html.tmpl
var pageTemplate string

// FrontMatter is the optional YAML header of a page.
type FrontMatter struct {
	Title   string   `yaml:"title"`
	Eyebrow string   `yaml:"eyebrow"`
	Summary string   `yaml:"summary"`
	Tags    []string `yaml:"tags"`
}

// ParseFrontMatter splits source into its front matter and Markdown body.
// Sources without front matter are returned unchanged.
func ParseFrontMatter(source []byte) (FrontMatter, []byte, error) {
	var meta FrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return meta, body, nil
}

// Files names the Markdown document and stylesheet of a page. They are read
// on every render so edits show up without a restart.
type Files struct {
	Markdown string
	Styles   string
}

// Load reads both files. A missing stylesheet is not an error.
func (f Files) Load() (markdown, styles []byte, err error) {
	markdown, err = os.ReadFile(f.Markdown)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read markdown: %w", err)
	}
	if f.Styles != "" {
		styles, err = os.ReadFile(f.Styles)
		if err != nil && !os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("failed to read styles: %w", err)
		}
	}
	return markdown, styles, nil
}

type pageData struct {
	FrontMatter
	Body       template.HTML
	Styles     template.CSS
	RenderedAt string
}

// PageRenderer wraps rendered Markdown in a complete HTML document.
type PageRenderer struct {
	renderer *Renderer
	tmpl     *template.Template
}

// NewPageRenderer creates a PageRenderer on top of r.
func NewPageRenderer(r *Renderer) *PageRenderer {
	return &PageRenderer{
		renderer: r,
		tmpl:     template.Must(template.New("page").Parse(pageTemplate)),
	}
}

// Render writes the page for markdown and styles to w.
func (p *PageRenderer) Render(w io.Writer, markdown, styles []byte, now time.Time) error {
	meta, body, err := ParseFrontMatter(markdown)
	if err != nil {
		return err
	}
	html, err := p.renderer.Render(body)
	if err != nil {
		return err
	}

	if meta.Title == "" {
		meta.Title = "tillage"
	}

	return p.tmpl.Execute(w, pageData{
		FrontMatter: meta,
		Body:        template.HTML(html),
		Styles:      template.CSS(styles),
		RenderedAt:  now.Format(time.RFC1123),
	})
}

// RenderFiles loads files and renders them to w.
func (p *PageRenderer) RenderFiles(w io.Writer, files Files, now time.Time) error {
	markdown, styles, err := files.Load()
	if err != nil {
		return err
	}
	return p.Render(w, markdown, styles, now)
}
