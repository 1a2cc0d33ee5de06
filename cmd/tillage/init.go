package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/tillage/internal/platform"
)

var initForce bool

const starterConfig = `# tillage workspace
data_dir: data
format: json # json | yaml
adapter: fs # fs | sqlite
read_only: false
watch: true
versioning: %t
listen: ":3000"
lock_timeout: 5s
markdown:
  file: content.md
  styles: styles.css
`

const starterPage = `---
title: tillage
eyebrow: workspace
---

# Welcome

Edit *content.md* and reload the page.
`

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a tillage workspace",
	Long:  `Create tillage.yaml, the data directory and a starter content.md in dir (default: the current directory).`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		dir, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}

		configFile := filepath.Join(dir, platform.ConfigFileName)
		if _, err := os.Stat(configFile); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configFile)
		}
		if err := os.WriteFile(configFile, []byte(fmt.Sprintf(starterConfig, versioning)), 0644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		page := filepath.Join(dir, "content.md")
		if _, err := os.Stat(page); errors.Is(err, os.ErrNotExist) {
			if err := os.WriteFile(page, []byte(starterPage), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", page, err)
			}
		}

		cfg, err := platform.LoadConfig(configFile)
		if err != nil {
			return err
		}
		app, err := platform.Open(cmd.Context(), cfg.DataDir, append(cfg.Options(), platform.WithLogger(slog.Default()))...)
		if err != nil {
			return fmt.Errorf("failed to initialize stores: %w", err)
		}
		defer app.Close()

		fmt.Fprintln(cmd.OutOrStdout(), "Initialized tillage workspace in", dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing tillage.yaml")
}
