package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/teaglebuilt/llm-cost-exporter/pkg/cli"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/config"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/poller"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/pricing"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/providerfactory"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/providers"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/server"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/telemetry/metrics"
)

const shutdownTimeout = 30 * time.Second

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the exporter",
	Long: `Start the exporter: poll every enabled provider on the configured
interval and serve the aggregated usage snapshot on /metrics.

Examples:
  # Start with configuration from the environment
  llm-cost-exporter run

  # Override listen address
  llm-cost-exporter run --listen 0.0.0.0:9100

  # Validate configuration without starting
  llm-cost-exporter run --dry-run`,
	RunE: runExporter,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate configuration without starting")
}

func runExporter(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" {
		cfg.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.LogLevel = runFlags.logLevel
	}

	initLogging(cfg.LogLevel)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	// Pricing table: embedded defaults, optionally overridden from file.
	table := pricing.NewTable()
	if cfg.PricingFile != "" {
		table, err = pricing.LoadFile(cfg.PricingFile)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		slog.Info("pricing table loaded", "path", cfg.PricingFile)
	}

	// The root context is canceled on SIGINT/SIGTERM, which also cancels
	// any fetch still in flight.
	ctx := cli.SetupSignalHandler()

	provs, err := providerfactory.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer providerfactory.CloseAll(provs)

	identities := make([]providers.Identity, 0, len(provs))
	for _, p := range provs {
		identities = append(identities, p.Identity())
	}

	registry, err := metrics.New(prometheus.NewRegistry(), identities)
	if err != nil {
		return err
	}

	p := poller.New(poller.Config{
		Interval:     cfg.PollInterval,
		FetchTimeout: cfg.FetchTimeout,
	}, provs, table, registry)

	if err := p.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	defer p.Stop()

	srv := server.New(server.Config{ListenAddress: cfg.ListenAddress}, registry)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	slog.Info("exporter started",
		"address", cfg.ListenAddress,
		"poll_interval", cfg.PollInterval,
		"providers", len(provs),
	)

	select {
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
			return cli.NewCommandError("run", err)
		}
		return nil
	}
}

// initLogging installs the process-wide JSON logger.
func initLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}
