package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/c360studio/demoscope/ingest"
	"github.com/c360studio/demoscope/store"
)

// settleDelay is how long a file must stay quiet before it is ingested.
// Editors and copies emit bursts of write events for one file.
const settleDelay = 500 * time.Millisecond

// NewWatchCommand creates the watch subcommand: ingest CSV files as they
// appear in a directory.
func NewWatchCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watch a directory and ingest new CSV files",
		Long: `Watch monitors a directory and ingests every CSV file that is created
or modified in it. Each file becomes its own batch; a rejected file is
logged and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dir := args[0]

			info, err := os.Stat(dir)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("not a directory: %s", dir)
			}

			st, closeFn, err := app.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer watcher.Close()
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}

			app.Logger.Info("Watching for CSV files", slog.String("dir", dir))
			runWatchLoop(ctx, app, st, watcher)
			return nil
		},
	}
	return cmd
}

// runWatchLoop drains watcher events until the context is canceled. Per-path
// timers debounce event bursts so a file is ingested once, after it settles.
func runWatchLoop(ctx context.Context, app *App, st *store.Store, watcher *fsnotify.Watcher) {
	pool := app.pool()

	var mu sync.Mutex
	timers := make(map[string]*time.Timer)

	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := timers[path]; ok {
			t.Reset(settleDelay)
			return
		}
		timers[path] = time.AfterFunc(settleDelay, func() {
			mu.Lock()
			delete(timers, path)
			mu.Unlock()
			ingestFile(ctx, app, st, pool, path)
		})
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".csv") {
				continue
			}
			schedule(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			app.Logger.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

func ingestFile(ctx context.Context, app *App, st *store.Store, pool *ingest.Pool, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		app.Logger.Warn("failed to read file", slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	res := pool.Process(ctx, ingest.NewJob(filepath.Base(path), data))
	if res.Err != nil {
		app.Logger.Warn("rejected file", slog.String("path", path), slog.String("error", res.Err.Error()))
		return
	}

	st.AddBatch(ctx, res.Result.Descriptor, res.Result.Records)
	app.Logger.Info("ingested file",
		slog.String("path", path),
		slog.String("type", string(res.Result.Descriptor.Type)),
		slog.Int("records", len(res.Result.Records)))
}
