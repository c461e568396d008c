package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/demoscope/server"
	"github.com/c360studio/demoscope/store"
)

// shutdownTimeout bounds graceful drain on SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve subcommand: the HTTP API server.
func NewServeCommand(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the analytics HTTP API",
		Long: `Serve exposes ingestion, filtering, trends, correlation, and anomaly
detection over HTTP, plus Prometheus metrics on /metrics. When a NATS URL
is configured, previously persisted batches are loaded on startup and new
uploads are persisted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if addr == "" {
				addr = app.Config.Server.Addr
			}
			return runServer(cmd.Context(), app, st, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}

// runServer serves HTTP until the context is canceled, then drains in-flight
// requests within shutdownTimeout.
func runServer(ctx context.Context, app *App, st *store.Store, addr string) error {
	srv := server.New(st, app.pool(), server.Options{
		TrendMaxRecords:     app.Config.Trend.MaxRecords,
		MovingAverageWindow: app.Config.Trend.MovingAverageWindow,
	}, app.Logger)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.Logger.Info("HTTP server listening", slog.String("addr", addr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	app.Logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
