package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, run *Run) error
	skipFunc  func(run *Run) bool
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, run *Run) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, run)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

// Skip implements Skipper.
func (m *mockStep) Skip(run *Run) bool {
	return m.skipFunc != nil && m.skipFunc(run)
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.continueOnError {
			t.Error("expected continueOnError to default to false")
		}
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))
		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&mockStep{name: "first"})
	p.AddSteps(&mockStep{name: "second"}, &mockStep{name: "third"})

	got := strings.Join(p.StepNames(), ",")
	if got != "first,second,third" {
		t.Errorf("expected first,second,third, got %s", got)
	}
	if p.StepCount() != 3 {
		t.Errorf("expected 3 steps, got %d", p.StepCount())
	}
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		p := New()
		for _, name := range []string{"a", "b", "c"} {
			p.AddStep(&mockStep{
				name: name,
				doFunc: func(_ context.Context, _ *Run) error {
					order = append(order, name)
					return nil
				},
			})
		}

		run := NewRun("reg.yaml", t.TempDir())
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Join(order, "") != "abc" {
			t.Errorf("expected abc, got %v", order)
		}
		if strings.Join(run.PerformedSteps, "") != "abc" {
			t.Errorf("expected performed steps abc, got %v", run.PerformedSteps)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		stepErr := errors.New("boom")
		failing := &mockStep{name: "failing", doFunc: func(context.Context, *Run) error { return stepErr }}
		after := &mockStep{name: "after"}

		p := New()
		p.AddSteps(failing, after)

		run := NewRun("reg.yaml", "")
		err := p.Execute(context.Background(), run)
		if !errors.Is(err, stepErr) {
			t.Fatalf("expected step error, got %v", err)
		}
		if after.callCount != 0 {
			t.Error("expected later step not to run")
		}
		if !run.Failed() || run.ErrorMessage != "boom" {
			t.Errorf("expected error recorded on run, got %v / %q", run.Err, run.ErrorMessage)
		}
		if len(run.PerformedSteps) != 0 {
			t.Errorf("expected no performed steps, got %v", run.PerformedSteps)
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		failing := &mockStep{name: "failing", doFunc: func(context.Context, *Run) error { return errors.New("boom") }}
		after := &mockStep{name: "after"}

		p := New(WithContinueOnError(true))
		p.AddSteps(failing, after)

		run := NewRun("reg.yaml", "")
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("expected nil with continueOnError, got %v", err)
		}
		if after.callCount != 1 {
			t.Error("expected later step to run")
		}
		if !run.Failed() {
			t.Error("expected error recorded on run")
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		first := &mockStep{name: "first", doFunc: func(context.Context, *Run) error {
			cancel()
			return nil
		}}
		second := &mockStep{name: "second"}

		p := New()
		p.AddSteps(first, second)

		run := NewRun("reg.yaml", "")
		err := p.Execute(ctx, run)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if second.callCount != 0 {
			t.Error("expected second step not to run after cancellation")
		}
		if !errors.Is(run.Err, context.Canceled) {
			t.Errorf("expected cancellation recorded on run, got %v", run.Err)
		}
	})

	t.Run("skipped steps are not recorded", func(t *testing.T) {
		t.Parallel()

		skipped := &mockStep{name: "skipped", skipFunc: func(*Run) bool { return true }}
		ran := &mockStep{name: "ran"}

		p := New()
		p.AddSteps(skipped, ran)

		run := NewRun("reg.yaml", "")
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if skipped.callCount != 0 {
			t.Error("expected skipped step not to run")
		}
		if strings.Join(run.PerformedSteps, ",") != "ran" {
			t.Errorf("expected only ran, got %v", run.PerformedSteps)
		}
	})
}

// TestPipelineWithLogger tests custom logger wiring.
func TestPipelineWithLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p := New(WithLogger(logger))
	p.AddStep(&mockStep{name: "logged"})

	if err := p.Execute(context.Background(), NewRun("reg.yaml", "")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "executing step") || !strings.Contains(output, "step=logged") {
		t.Errorf("expected step logging, got: %s", output)
	}
}

// TestRunSkipSummary tests Run summary suppression.
func TestRunSkipSummary(t *testing.T) {
	t.Parallel()

	run := NewRun("reg.yaml", "")
	if run.SkipSummary() {
		t.Error("expected empty run to allow a summary")
	}
	if run.Failed() {
		t.Error("expected new run not to be failed")
	}
}
