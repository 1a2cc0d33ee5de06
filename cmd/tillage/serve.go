package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/aretw0/tillage/internal/platform"
	"github.com/aretw0/tillage/internal/server"
	"github.com/aretw0/tillage/pkg/markdown"
)

var (
	listen  string
	noWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API, change events and the Markdown page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		app, cfg, err := openApp(cmd, platform.WithRegisterer(reg))
		if err != nil {
			return err
		}
		defer app.Close()

		if cmd.Flags().Changed("listen") {
			cfg.Listen = listen
		}
		if cfg.Watch && !noWatch {
			if _, err := app.Watch(ctx); err != nil {
				return fmt.Errorf("failed to watch stores: %w", err)
			}
		}

		renderer, err := markdown.NewRenderer(cfg.RendererOptions())
		if err != nil {
			return err
		}

		srv := server.New(app,
			server.WithLogger(slog.Default()),
			server.WithGatherer(reg),
			server.WithPage(markdown.NewPageRenderer(renderer), cfg.PageFiles()),
		)
		slog.Info("serving workspace", "data_dir", cfg.DataDir, "adapter", cfg.Adapter, "read_only", cfg.ReadOnly)
		return srv.ListenAndServe(ctx, cfg.Listen)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&listen, "listen", "l", "", "Address to listen on (default from config or PORT)")
	serveCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not watch the store files for external edits")
}
