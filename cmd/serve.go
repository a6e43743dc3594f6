package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/widgetbus/widgetbus/internal/config"
	"github.com/widgetbus/widgetbus/internal/container"
	"github.com/widgetbus/widgetbus/internal/dashboard"
	"github.com/widgetbus/widgetbus/internal/job"
)

var (
	serveDashboard string
	serveSource    string
	serveVerbose   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a dashboard against a live job update stream",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveDashboard, "dashboard", "d", "dashboard.yaml", "Dashboard definition file")
	serveCmd.Flags().StringVar(&serveSource, "source", "", "Job update stream URL (overrides config)")
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "Verbose logging")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	setupLogging(cfg, serveVerbose)

	def, err := dashboard.Load(serveDashboard)
	if err != nil {
		return err
	}

	c, err := container.New(cfg)
	if err != nil {
		return err
	}

	// Last persisted values win over declared seeds.
	restored, err := c.Writer().Restore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not restore snapshot: %v\n", err)
	}
	for i := range def.Widgets {
		if m, ok := restored[def.Widgets[i].Channel].(map[string]any); ok {
			def.Widgets[i].Seed = m
		}
	}

	url := serveSource
	if url == "" {
		url = cfg.Source.URL
	}
	src := job.NewSocketSource(url)

	fmt.Printf("%s Starting widgetbus with %d widget(s), %d bridge(s)...\n", logo, len(def.Widgets), len(def.Bridges))

	dash, err := dashboard.Build(def, c.Store(), src, c.Writer())
	if err != nil {
		return err
	}

	// Graceful shutdown context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return src.Run(gctx) })

	fmt.Printf("%s Listening on %s. Press Ctrl+C to stop.\n", logo, url)

	err = g.Wait()
	dash.Close()
	if closeErr := c.Close(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", closeErr)
	}

	if err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "serve error: %v\n", err)
		return err
	}
	fmt.Println("\nShutdown complete.")
	return nil
}

func setupLogging(cfg *config.Config, verbose bool) {
	level := cfg.LogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
