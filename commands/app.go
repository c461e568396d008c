// Package commands implements the demoscope CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/demoscope/config"
	"github.com/c360studio/demoscope/ingest"
	"github.com/c360studio/demoscope/record"
	"github.com/c360studio/demoscope/storage"
	"github.com/c360studio/demoscope/store"
)

// App carries the configuration and logger shared by every subcommand.
type App struct {
	Config *config.Config
	Logger *slog.Logger
}

// NewApp creates the shared command context.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{Config: cfg, Logger: logger}
}

// pool builds the ingestion worker pool from config.
func (a *App) pool() *ingest.Pool {
	return ingest.NewPool(a.Config.Ingest.Workers, a.Logger)
}

// openBackend connects to NATS and opens the batch store. Returns a nil
// backend without error when no NATS URL is configured.
func (a *App) openBackend(ctx context.Context) (store.Backend, func(), error) {
	if a.Config.NATS.URL == "" {
		return nil, func() {}, nil
	}

	nc, err := nats.Connect(a.Config.NATS.URL, nats.Name("demoscope"))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS at %s: %w", a.Config.NATS.URL, err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("open JetStream: %w", err)
	}
	backend, err := storage.NewStore(ctx, js)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("open batch store: %w", err)
	}
	a.Logger.Debug("Connected to NATS", slog.String("url", a.Config.NATS.URL))
	return backend, nc.Close, nil
}

// openStore builds a Store backed by NATS when configured, rehydrated from
// persisted batches.
func (a *App) openStore(ctx context.Context) (*store.Store, func(), error) {
	backend, closeFn, err := a.openBackend(ctx)
	if err != nil {
		return nil, nil, err
	}
	st := store.New(backend, a.Logger)
	if err := st.Init(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("rehydrate store: %w", err)
	}
	return st, closeFn, nil
}

// expandGlobs resolves doublestar patterns (and literal paths) to a sorted,
// de-duplicated file list.
func expandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			// Literal path without glob metacharacters still gets a clear error.
			if _, statErr := os.Stat(pattern); statErr != nil {
				return nil, fmt.Errorf("no files match %q", pattern)
			}
			matches = []string{pattern}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// readJobs loads each path into an ingestion job.
func readJobs(paths []string) ([]ingest.Job, error) {
	jobs := make([]ingest.Job, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		jobs = append(jobs, ingest.NewJob(path, data))
	}
	return jobs, nil
}

// collectRecords loads the records an analysis command operates on: from the
// given CSV paths when present, otherwise from the persisted batches.
func (a *App) collectRecords(ctx context.Context, patterns []string) ([]record.Record, error) {
	if len(patterns) == 0 {
		st, closeFn, err := a.openStore(ctx)
		if err != nil {
			return nil, err
		}
		defer closeFn()
		records := st.Records()
		if len(records) == 0 {
			return nil, fmt.Errorf("no persisted records; pass CSV files or run ingest first")
		}
		return records, nil
	}

	paths, err := expandGlobs(patterns)
	if err != nil {
		return nil, err
	}
	jobs, err := readJobs(paths)
	if err != nil {
		return nil, err
	}

	results, summary := a.pool().Run(ctx, jobs)
	for _, failure := range summary.Failures {
		fmt.Fprintf(os.Stderr, "skipped: %s\n", failure)
	}
	if summary.Succeeded == 0 {
		return nil, fmt.Errorf("no files could be ingested")
	}

	var records []record.Record
	for _, res := range results {
		if res.Err == nil {
			records = append(records, res.Result.Records...)
		}
	}
	return records, nil
}
