package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of registry files processed at once
// when WithConcurrency is not given.
const DefaultConcurrency = 4

// BatchProcessor handles concurrent processing of multiple registry files.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: Batching lives outside Pipeline so a pipeline only ever
// deals with one registry. Concurrency exists only between runs.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each run.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent runs.
	concurrency int

	// outputDir is the base output directory.
	outputDir string

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed runs in source order.
	results []*Run
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent runs.
// Non-positive values keep DefaultConcurrency.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithOutputDir sets the base output directory.
func WithOutputDir(dir string) BatchOption {
	return func(b *BatchProcessor) {
		b.outputDir = dir
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each registry file, so no
// pipeline state is shared between runs.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
		outputDir:       ".",
		results:         make([]*Run, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// newRun creates the Run for one source. With more than one source every
// run writes into a subdirectory named after its registry.
func (bp *BatchProcessor) newRun(source string, total int) *Run {
	run := NewRun(source, bp.outputDir)
	run.PerRegistryDir = total > 1
	return run
}

// ProcessBatch runs one pipeline per registry file concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Returns every Run in source order, including failed ones (their Err is
// set). The error return is non-nil only when the batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, sources []string) ([]*Run, error) {
	bp.logger.Info("starting batch processing",
		"total_registries", len(sources),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	bp.mu.Lock()
	bp.results = make([]*Run, len(sources))
	bp.mu.Unlock()

	err := bp.process(ctx, sources, func(run *Run, i int) {
		bp.mu.Lock()
		bp.results[i] = run
		bp.mu.Unlock()
	})

	bp.logger.Info("batch processing complete",
		"total_registries", len(sources),
		"elapsed", time.Since(startTime),
	)

	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.results, err
}

// ProcessBatchWithCallback runs one pipeline per registry file and calls
// callback for each completed run with its index in sources.
//
// The callback is called from the goroutine that completed the run, so it
// must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	sources []string,
	callback func(run *Run, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total_registries", len(sources),
		"concurrency", bp.concurrency,
	)
	return bp.process(ctx, sources, callback)
}

func (bp *BatchProcessor) process(ctx context.Context, sources []string, done func(run *Run, index int)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, source := range sources {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("processing registry",
				"source", source,
				"index", i+1,
				"total", len(sources),
			)

			run := bp.newRun(source, len(sources))
			if err := bp.pipelineFactory().Execute(ctx, run); err != nil {
				// Recorded on the run; other registries keep going.
				bp.logger.Warn("run failed",
					"source", source,
					"error", err,
				)
			} else {
				bp.logger.Info("run completed", "source", source)
			}

			done(run, i)
			return nil
		})
	}

	return g.Wait()
}
