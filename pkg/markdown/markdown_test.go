package markdown

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Defaults(t *testing.T) {
	r, err := NewRenderer(Options{})
	require.NoError(t, err)

	out, err := r.Render([]byte("# Hello\n\n- [x] done\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\nsee https://example.com\n"))
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, `<h1 id="hello">Hello</h1>`)
	assert.Contains(t, html, `type="checkbox"`)
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, `<a href="https://example.com">`)
}

func TestRenderer_RawHTMLIsEscapedUnlessUnsafe(t *testing.T) {
	src := []byte("<script>alert(1)</script>\n")

	safe, err := NewRenderer(Options{})
	require.NoError(t, err)
	out, err := safe.Render(src)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<script>")

	unsafe, err := NewRenderer(Options{Unsafe: true})
	require.NoError(t, err)
	out, err = unsafe.Render(src)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<script>")
}

func TestRenderer_Extensions(t *testing.T) {
	_, err := NewRenderer(Options{Extensions: []string{"table", " Footnote ", "table"}})
	assert.NoError(t, err)

	_, err = NewRenderer(Options{Extensions: []string{"mermaid"}})
	assert.Error(t, err)
}

func TestParseFrontMatter(t *testing.T) {
	src := []byte("---\ntitle: Field notes\neyebrow: tillage\ntags: [go, markdown]\n---\n# Body\n")

	meta, body, err := ParseFrontMatter(src)
	require.NoError(t, err)
	assert.Equal(t, "Field notes", meta.Title)
	assert.Equal(t, "tillage", meta.Eyebrow)
	assert.Equal(t, []string{"go", "markdown"}, meta.Tags)
	assert.Equal(t, "# Body", strings.TrimSpace(string(body)))

	meta, body, err = ParseFrontMatter([]byte("# No header\n"))
	require.NoError(t, err)
	assert.Empty(t, meta.Title)
	assert.Equal(t, "# No header", strings.TrimSpace(string(body)))
}

func TestPageRenderer_Render(t *testing.T) {
	r, err := NewRenderer(Options{})
	require.NoError(t, err)
	page := NewPageRenderer(r)

	var buf bytes.Buffer
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	err = page.Render(&buf, []byte("---\ntitle: Guide <1>\ntags: [a]\n---\nSome *text*.\n"), []byte("body { color: red; }"), now)
	require.NoError(t, err)

	html := buf.String()
	assert.True(t, strings.HasPrefix(html, "<!doctype html>"))
	assert.Contains(t, html, "<title>Guide &lt;1&gt;</title>")
	assert.Contains(t, html, "body { color: red; }")
	assert.Contains(t, html, "<em>text</em>")
	assert.Contains(t, html, `<span class="tag">a</span>`)
	assert.Contains(t, html, now.Format(time.RFC1123))
}

func TestPageRenderer_RenderFiles(t *testing.T) {
	dir := t.TempDir()
	mdPath := filepath.Join(dir, "content.md")
	require.NoError(t, os.WriteFile(mdPath, []byte("# Live\n"), 0644))

	r, err := NewRenderer(Options{})
	require.NoError(t, err)
	page := NewPageRenderer(r)

	var buf bytes.Buffer
	files := Files{Markdown: mdPath, Styles: filepath.Join(dir, "missing.css")}
	require.NoError(t, page.RenderFiles(&buf, files, time.Now()))
	assert.Contains(t, buf.String(), `<h1 id="live">Live</h1>`)
	assert.Contains(t, buf.String(), "<title>tillage</title>")

	err = page.RenderFiles(&buf, Files{Markdown: filepath.Join(dir, "nope.md")}, time.Now())
	assert.Error(t, err)
}
