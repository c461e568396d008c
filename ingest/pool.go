package ingest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// defaultWorkers bounds concurrent file normalization when no worker count
// is configured.
const defaultWorkers = 4

// Job is one file submitted for normalization.
type Job struct {
	BatchID string
	Name    string
	Size    int64
	Data    []byte
}

// NewJob assigns a fresh batch id to raw CSV bytes.
func NewJob(name string, data []byte) Job {
	return Job{
		BatchID: uuid.New().String(),
		Name:    name,
		Size:    int64(len(data)),
		Data:    data,
	}
}

// FileResult is the per-file response from a submission: either a Result or
// the file's consolidated rejection.
type FileResult struct {
	Job    Job
	Result *Result
	Err    error
}

// Summary reports one batch submission across all its files.
type Summary struct {
	Succeeded int
	Total     int
	Failures  []string
}

// String renders the combined report, e.g. "processed 2/3 files".
func (s Summary) String() string {
	return fmt.Sprintf("processed %d/%d files", s.Succeeded, s.Total)
}

// Pool normalizes files concurrently. Each file is an independent task; a
// failed file never affects its peers.
type Pool struct {
	workers int
	logger  *slog.Logger
}

// NewPool creates a Pool with the given concurrency. Non-positive worker
// counts fall back to the default.
func NewPool(workers int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{workers: workers, logger: logger}
}

// Process normalizes a single file synchronously.
func (p *Pool) Process(ctx context.Context, job Job) FileResult {
	if err := ctx.Err(); err != nil {
		return FileResult{Job: job, Err: err}
	}

	table, err := ReadTable(bytes.NewReader(job.Data))
	if err != nil {
		filesTotal.WithLabelValues("error").Inc()
		return FileResult{Job: job, Err: fmt.Errorf("file %q: %w", job.Name, err)}
	}

	result, err := Normalize(table, job.BatchID, job.Name, job.Size)
	if err != nil {
		filesTotal.WithLabelValues("error").Inc()
		return FileResult{Job: job, Err: err}
	}

	filesTotal.WithLabelValues("ok").Inc()
	rowsAccepted.Add(float64(len(result.Records)))
	rowsDropped.Add(float64(len(table.Rows) - len(result.Records)))

	p.logger.Debug("normalized file",
		slog.String("file", job.Name),
		slog.String("batch_id", job.BatchID),
		slog.String("type", string(result.Descriptor.Type)),
		slog.Int("records", len(result.Records)))

	return FileResult{Job: job, Result: result}
}

// Run normalizes every job, at most workers at a time, and returns per-file
// results in submission order plus the combined summary. Completion order
// does not matter to callers: each result is keyed to its job.
func (p *Pool) Run(ctx context.Context, jobs []Job) ([]FileResult, Summary) {
	results := make([]FileResult, len(jobs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.workers)
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job Job) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = p.Process(ctx, job)
		}(i, job)
	}
	wg.Wait()

	summary := Summary{Total: len(jobs)}
	for _, res := range results {
		if res.Err != nil {
			summary.Failures = append(summary.Failures, res.Err.Error())
			continue
		}
		summary.Succeeded++
	}
	return results, summary
}
