package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/tillage/pkg/markdown"
)

var (
	renderOut    string
	renderFile   string
	renderStyles string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the Markdown page to HTML",
	Long:  `Render the configured Markdown file and stylesheet into a complete HTML page, the same one served on GET /.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if renderFile != "" {
			cfg.Markdown.File = renderFile
		}
		if renderStyles != "" {
			cfg.Markdown.Styles = renderStyles
		}

		renderer, err := markdown.NewRenderer(cfg.RendererOptions())
		if err != nil {
			return err
		}
		page := markdown.NewPageRenderer(renderer)

		out := cmd.OutOrStdout()
		if renderOut != "" {
			f, err := os.Create(renderOut)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", renderOut, err)
			}
			defer f.Close()
			out = f
		}
		return page.RenderFiles(out, cfg.PageFiles(), time.Now())
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "Write the page to a file instead of stdout")
	renderCmd.Flags().StringVar(&renderFile, "file", "", "Markdown file (overrides markdown.file)")
	renderCmd.Flags().StringVar(&renderStyles, "styles", "", "Stylesheet (overrides markdown.styles)")
}
