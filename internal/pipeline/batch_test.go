package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/stubreport/internal/report"
)

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() })
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected default concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
		if bp.outputDir != "." {
			t.Errorf("expected default output dir '.', got %s", bp.outputDir)
		}
		if bp.logger == nil {
			t.Error("expected non-nil logger")
		}
	})

	t.Run("applies options", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(
			func() *Pipeline { return New() },
			WithConcurrency(5),
			WithOutputDir("docs"),
			WithBatchLogger(nil),
		)
		if bp.concurrency != 5 {
			t.Errorf("expected concurrency 5, got %d", bp.concurrency)
		}
		if bp.outputDir != "docs" {
			t.Errorf("expected output dir docs, got %s", bp.outputDir)
		}
		if bp.logger == nil {
			t.Error("expected default logger when nil is passed")
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithConcurrency(0))
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
	})
}

// TestBatchProcessorProcessBatch tests batch processing.
func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("processes all sources in order", func(t *testing.T) {
		t.Parallel()

		var processed atomic.Int32
		bp := NewBatchProcessor(func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "counter",
				doFunc: func(context.Context, *Run) error {
					processed.Add(1)
					return nil
				},
			})
			return p
		})

		sources := []string{"first.yaml", "second.yaml", "third.yaml"}
		results, err := bp.ProcessBatch(context.Background(), sources)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if processed.Load() != 3 {
			t.Errorf("expected 3 processed, got %d", processed.Load())
		}
		for i, run := range results {
			if run.Source != sources[i] {
				t.Errorf("result[%d]: got %q, expected %q", i, run.Source, sources[i])
			}
			if !run.PerRegistryDir {
				t.Errorf("result[%d]: expected per-registry output in a batch", i)
			}
		}
	})

	t.Run("single source writes directly into output dir", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithOutputDir("docs"))
		results, err := bp.ProcessBatch(context.Background(), []string{"only.yaml"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if results[0].PerRegistryDir || results[0].OutputDir != "docs" {
			t.Errorf("unexpected run layout: %+v", results[0])
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var current, highest atomic.Int32
		var mu sync.Mutex

		bp := NewBatchProcessor(
			func() *Pipeline {
				p := New()
				p.AddStep(&mockStep{
					name: "concurrent-counter",
					doFunc: func(context.Context, *Run) error {
						n := current.Add(1)
						mu.Lock()
						if n > highest.Load() {
							highest.Store(n)
						}
						mu.Unlock()

						time.Sleep(20 * time.Millisecond)
						current.Add(-1)
						return nil
					},
				})
				return p
			},
			WithConcurrency(2),
		)

		sources := make([]string, 8)
		for i := range sources {
			sources[i] = "registry.yaml"
		}

		if _, err := bp.ProcessBatch(context.Background(), sources); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if highest.Load() > 2 {
			t.Errorf("max concurrent was %d, expected <= 2", highest.Load())
		}
	})

	t.Run("continues after individual failure", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "sometimes-fails",
				doFunc: func(_ context.Context, run *Run) error {
					if run.Source == "fail.yaml" {
						return errors.New("simulated failure")
					}
					return nil
				},
			})
			return p
		})

		results, err := bp.ProcessBatch(context.Background(), []string{"a.yaml", "fail.yaml", "c.yaml"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !results[1].Failed() {
			t.Error("expected second run to be failed")
		}
		if results[0].Failed() || results[2].Failed() {
			t.Error("expected other runs to succeed")
		}
	})

	t.Run("handles context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		var started atomic.Int32

		bp := NewBatchProcessor(
			func() *Pipeline {
				p := New()
				p.AddStep(&mockStep{
					name: "slow-step",
					doFunc: func(ctx context.Context, _ *Run) error {
						started.Add(1)
						select {
						case <-ctx.Done():
							return ctx.Err()
						case <-time.After(time.Second):
							return nil
						}
					},
				})
				return p
			},
			WithConcurrency(2),
		)

		sources := make([]string, 10)
		for i := range sources {
			sources[i] = "registry.yaml"
		}

		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		_, err := bp.ProcessBatch(ctx, sources)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if started.Load() >= int32(len(sources)) {
			t.Error("expected some runs not to start due to cancellation")
		}
	})
}

// TestBatchProcessorProcessBatchWithCallback tests callback-based processing.
func TestBatchProcessorProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	received := make(map[int]string)

	bp := NewBatchProcessor(func() *Pipeline {
		p := New()
		p.AddStep(&mockStep{name: "noop"})
		return p
	})

	sources := []string{"first.yaml", "second.yaml", "third.yaml"}
	err := bp.ProcessBatchWithCallback(context.Background(), sources, func(run *Run, i int) {
		mu.Lock()
		received[i] = run.Source
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, s := range sources {
		if received[i] != s {
			t.Errorf("callback %d: expected %s, got %s", i, s, received[i])
		}
	}
}

// TestBatchDefaultPipeline tests batch runs with real registries written to
// per-registry subdirectories.
func TestBatchDefaultPipeline(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	first := writeRegistry(t, dir, "first.yaml", "name: first\nentities:\n  - {path: A, type: class}\n")
	second := writeRegistry(t, dir, "second.yaml", "name: second\nentities:\n  - {path: B, type: module}\n")

	bp := NewBatchProcessor(
		func() *Pipeline {
			return DefaultPipeline(nil, WithPipelineModes(report.ModeChangelog))
		},
		WithOutputDir(out),
	)

	results, err := bp.ProcessBatch(context.Background(), []string{first, second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, tc := range []struct {
		name string
		want string
	}{
		{name: "first", want: "Added class A\n"},
		{name: "second", want: "Added module B\n"},
	} {
		data, err := os.ReadFile(filepath.Join(out, tc.name, report.ChangelogFileName))
		if err != nil {
			t.Fatalf("failed to read %s changelog: %v", tc.name, err)
		}
		if string(data) != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, string(data))
		}
	}
	for _, run := range results {
		if run.Failed() {
			t.Errorf("unexpected failure for %s: %v", run.Source, run.Err)
		}
	}
}
