package platform

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, AdapterFS, cfg.Adapter)
	assert.Equal(t, ":3000", cfg.Listen)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
data_dir: store
format: yaml
adapter: sqlite
read_only: true
watch: true
listen: ":8080"
lock_timeout: 250ms
markdown:
  file: docs/index.md
  styles: /srv/site.css
  extensions: [gfm, footnote]
  hard_wraps: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "store"), cfg.DataDir)
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, AdapterSQLite, cfg.Adapter)
	assert.True(t, cfg.ReadOnly)
	assert.True(t, cfg.Watch)
	assert.False(t, cfg.Versioning)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, 250*time.Millisecond, cfg.LockTimeout)
	assert.Equal(t, filepath.Join(dir, "docs", "index.md"), cfg.Markdown.File)
	assert.Equal(t, "/srv/site.css", cfg.Markdown.Styles)
	assert.Equal(t, []string{"gfm", "footnote"}, cfg.Markdown.Extensions)
	assert.True(t, cfg.Markdown.HardWraps)

	opts := cfg.RendererOptions()
	assert.Equal(t, cfg.Markdown.Extensions, opts.Extensions)
	assert.True(t, opts.HardWraps)

	files := cfg.PageFiles()
	assert.Equal(t, cfg.Markdown.File, files.Markdown)
	assert.Equal(t, cfg.Markdown.Styles, files.Styles)
}

func TestLoadConfig_EmptyFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "content.md"), cfg.Markdown.File)
}

func TestLoadConfig_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "Unknown Key", body: "dat_dir: x\n"},
		{name: "Unknown Adapter", body: "adapter: postgres\n"},
		{name: "Unknown Format", body: "format: toml\n"},
		{name: "Negative Timeout", body: "lock_timeout: -1s\n"},
		{name: "Malformed", body: "listen: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvDataDir: "/var/lib/tillage",
		EnvPort:    "4000",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := DefaultConfig()
	ApplyEnv(&cfg, lookup)
	assert.Equal(t, "/var/lib/tillage", cfg.DataDir)
	assert.Equal(t, ":4000", cfg.Listen)

	cfg = DefaultConfig()
	ApplyEnv(&cfg, func(string) (string, bool) { return "", false })
	assert.Equal(t, DefaultConfig(), cfg)
}
