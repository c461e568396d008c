// Package main provides the demoscope binary entry point.
// Demoscope ingests demographic, biometric, and enrollment CSV files and
// serves filtered views, trends, correlations, and anomaly reports.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/demoscope/commands"
	"github.com/c360studio/demoscope/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "demoscope"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	// Setup signal handling: long-running commands drain on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	app := commands.NewApp(config.DefaultConfig(), slog.Default())

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Demographic CSV analytics engine",
		Long: `Demoscope normalizes three demographic CSV schemas into a unified record
set and derives filtered views, time-series trends, cross-metric
correlations, and district-level anomaly reports from it.

Batches persist to NATS JetStream when a NATS URL is configured.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(logLevel)
			slog.SetDefault(logger)

			cfg, err := loadConfig(configPath, logger)
			if err != nil {
				return err
			}

			app.Config = cfg
			app.Logger = logger
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		commands.NewIngestCommand(app),
		commands.NewFilesCommand(app),
		commands.NewTrendsCommand(app),
		commands.NewCorrelateCommand(app),
		commands.NewAnomaliesCommand(app),
		commands.NewServeCommand(app),
		commands.NewWatchCommand(app),
		commands.NewConfigCommand(app),
	)

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig(configPath string, logger *slog.Logger) (*config.Config, error) {
	if configPath != "" {
		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return cfg, nil
	}

	return config.NewLoader(logger).Load()
}
