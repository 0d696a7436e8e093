package pipeline

import (
	"bytes"

	"github.com/nao1215/stubreport/internal/model"
	"github.com/nao1215/stubreport/internal/report"
)

// Run holds the state of one registry file passing through a pipeline.
type Run struct {
	// Source is the registry dump file path.
	Source string

	// OutputDir is where file artifacts are written.
	OutputDir string

	// PerRegistryDir makes the load step move OutputDir into a
	// subdirectory named after the loaded registry.
	PerRegistryDir bool

	// Registry is set by the load step.
	Registry *model.Registry

	// Artifacts lists what the render steps produced, in step order.
	Artifacts []*report.Artifact

	// Stdout collects stream output (the features mode) so concurrent runs
	// never interleave on the real standard output.
	Stdout bytes.Buffer

	// SnapshotID is the stored snapshot ID, when the snapshot step ran.
	SnapshotID int64

	// SnapshotInserted is false when an identical snapshot already existed.
	SnapshotInserted bool

	// Halted is set after an artifact asked the host to skip any further
	// summary. Remaining render steps are skipped.
	Halted bool

	// Err is the last step error.
	Err error

	// ErrorMessage is Err as text.
	ErrorMessage string

	// PerformedSteps lists the names of steps that ran, in order.
	PerformedSteps []string
}

// NewRun creates a Run for the registry file at source.
func NewRun(source, outputDir string) *Run {
	return &Run{
		Source:    source,
		OutputDir: outputDir,
	}
}

// SkipSummary reports whether the host must not print a summary for this run.
func (r *Run) SkipSummary() bool {
	for _, a := range r.Artifacts {
		if a.SkipSummary {
			return true
		}
	}
	return false
}

// Failed reports whether any step failed.
func (r *Run) Failed() bool {
	return r.Err != nil
}
