package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tillage/internal/platform"
	"github.com/aretw0/tillage/pkg/core"
)

var (
	verbose    bool
	configPath string
	dataDir    string
	format     string
	adapter    string
	readOnly   bool
	versioning bool
	message    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tillage",
	Short: "A self-hosted task board, notes collection and Markdown page server",
	Long: `tillage keeps a kanban board and a notes collection in plain JSON (or YAML)
documents, serves them over a JSON API and renders a Markdown page.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fatal("Error", err)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&configPath, "config", "", "Config file (default: nearest tillage.yaml)")
	flags.StringVar(&dataDir, "data-dir", "", "Directory holding the store files")
	flags.StringVar(&format, "format", "", "Store document format (json, yaml)")
	flags.StringVar(&adapter, "adapter", "", "Storage adapter (fs, sqlite)")
	flags.BoolVar(&readOnly, "read-only", false, "Refuse every mutation")
	flags.BoolVar(&versioning, "versioning", false, "Commit store files to git after each write")
}

// loadConfig resolves the configuration: flags over environment over the
// config file over defaults.
func loadConfig(cmd *cobra.Command) (platform.Config, error) {
	path := configPath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return platform.Config{}, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = platform.FindConfig(wd)
	}

	cfg, err := platform.LoadConfig(path)
	if err != nil {
		return cfg, err
	}
	platform.ApplyEnv(&cfg, os.LookupEnv)

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("format") {
		cfg.Format = format
	}
	if flags.Changed("adapter") {
		cfg.Adapter = adapter
	}
	if flags.Changed("read-only") {
		cfg.ReadOnly = readOnly
	}
	if flags.Changed("versioning") {
		cfg.Versioning = versioning
	}
	return cfg, cfg.Validate()
}

// openApp loads the configuration and opens the workspace it points at.
func openApp(cmd *cobra.Command, extra ...platform.Option) (*platform.App, platform.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, err
	}

	opts := append(cfg.Options(), platform.WithLogger(slog.Default()))
	opts = append(opts, extra...)
	app, err := platform.Open(cmd.Context(), cfg.DataDir, opts...)
	if err != nil {
		return nil, cfg, fmt.Errorf("failed to open %s: %w", cfg.DataDir, err)
	}
	return app, cfg, nil
}

// changeContext attaches the --message flag, when given, as the change
// reason recorded by versioning.
func changeContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if message != "" {
		ctx = core.WithChangeReason(ctx, message)
	}
	return ctx
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
