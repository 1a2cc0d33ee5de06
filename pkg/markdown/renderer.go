// Package markdown turns Markdown files into complete HTML pages.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Options configures the goldmark engine.
type Options struct {
	// Extensions lists extension names (see Extensions). Empty means GFM,
	// linkify and task lists.
	Extensions []string
	HardWraps  bool
	// Unsafe lets raw HTML embedded in the Markdown through.
	Unsafe bool
}

// Renderer converts Markdown to HTML. The engine is stateless, so one
// Renderer can serve concurrent requests.
type Renderer struct {
	engine goldmark.Markdown
}

// NewRenderer builds a renderer for opts. Unknown extension names are
// rejected.
func NewRenderer(opts Options) (*Renderer, error) {
	exts, err := collectExtensions(opts.Extensions)
	if err != nil {
		return nil, err
	}

	var rendererOptions []renderer.Option
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if opts.Unsafe {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	engine := goldmark.New(
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOptions...),
		goldmark.WithExtensions(exts...),
	)

	return &Renderer{engine: engine}, nil
}

// Render converts source to an HTML fragment.
func (r *Renderer) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("markdown render: %w", err)
	}
	return buf.Bytes(), nil
}

// Extensions maps the accepted extension names to goldmark extenders.
var Extensions = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

func collectExtensions(names []string) ([]goldmark.Extender, error) {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM, extension.Linkify, extension.TaskList}, nil
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		ext, ok := Extensions[key]
		if !ok {
			return nil, fmt.Errorf("unknown markdown extension %q", name)
		}
		extenders = append(extenders, ext)
		seen[key] = struct{}{}
	}
	return extenders, nil
}
