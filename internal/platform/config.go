package platform

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/tillage/pkg/adapters/fs"
	"github.com/aretw0/tillage/pkg/markdown"
)

// Environment variables read by ApplyEnv.
const (
	EnvDataDir = "TILLAGE_DATA_DIR"
	EnvPort    = "PORT"
)

// Config is the on-disk configuration (tillage.yaml).
type Config struct {
	DataDir     string         `yaml:"data_dir"`
	Format      string         `yaml:"format"`
	Adapter     string         `yaml:"adapter"`
	ReadOnly    bool           `yaml:"read_only"`
	Watch       bool           `yaml:"watch"`
	Versioning  bool           `yaml:"versioning"`
	Listen      string         `yaml:"listen"`
	LockTimeout time.Duration  `yaml:"lock_timeout"`
	Markdown    MarkdownConfig `yaml:"markdown"`
}

// MarkdownConfig configures the rendered page.
type MarkdownConfig struct {
	File       string   `yaml:"file"`
	Styles     string   `yaml:"styles"`
	Extensions []string `yaml:"extensions"`
	HardWraps  bool     `yaml:"hard_wraps"`
	Unsafe     bool     `yaml:"unsafe"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		DataDir:     "data",
		Format:      "json",
		Adapter:     AdapterFS,
		Listen:      ":3000",
		LockTimeout: fs.DefaultLockTimeout,
		Markdown: MarkdownConfig{
			File:   "content.md",
			Styles: "styles.css",
		},
	}
}

// LoadConfig reads path over the defaults. An empty path yields the defaults.
// Relative paths in the file are resolved against the file's directory.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	base := filepath.Dir(path)
	cfg.DataDir = resolve(base, cfg.DataDir)
	cfg.Markdown.File = resolve(base, cfg.Markdown.File)
	cfg.Markdown.Styles = resolve(base, cfg.Markdown.Styles)

	return cfg, cfg.Validate()
}

// ApplyEnv overrides cfg with TILLAGE_DATA_DIR and PORT when they are set.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDataDir); ok && v != "" {
		cfg.DataDir = v
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		cfg.Listen = ":" + strings.TrimPrefix(v, ":")
	}
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	switch c.Adapter {
	case AdapterFS, AdapterSQLite:
	default:
		return fmt.Errorf("unknown adapter %q", c.Adapter)
	}
	if _, err := fs.SerializerFor(c.Format); err != nil {
		return err
	}
	if c.LockTimeout < 0 {
		return fmt.Errorf("lock_timeout cannot be negative")
	}
	return nil
}

// Options translates the configuration into App options.
func (c Config) Options() []Option {
	return []Option{
		WithAdapter(c.Adapter),
		WithFormat(c.Format),
		WithReadOnly(c.ReadOnly),
		WithVersioning(c.Versioning),
		WithLockTimeout(c.LockTimeout),
	}
}

// RendererOptions translates the markdown section for markdown.NewRenderer.
func (c Config) RendererOptions() markdown.Options {
	return markdown.Options{
		Extensions: c.Markdown.Extensions,
		HardWraps:  c.Markdown.HardWraps,
		Unsafe:     c.Markdown.Unsafe,
	}
}

// PageFiles returns the files of the rendered page.
func (c Config) PageFiles() markdown.Files {
	return markdown.Files{Markdown: c.Markdown.File, Styles: c.Markdown.Styles}
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
