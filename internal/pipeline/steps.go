package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/nao1215/stubreport/internal/model"
	"github.com/nao1215/stubreport/internal/registry"
	"github.com/nao1215/stubreport/internal/report"
)

// ErrNoRegistry is returned by steps that need a loaded registry when the
// load step has not run or failed.
var ErrNoRegistry = errors.New("no registry loaded")

// Step names.
const (
	StepLoadRegistry     = "load-registry"
	StepValidateRegistry = "validate-registry"
	StepSaveSnapshot     = "save-snapshot"

	// renderStepPrefix is followed by the mode name, e.g. "render-coverage".
	renderStepPrefix = "render-"
)

// LoadRegistryStep reads the Run's registry dump file.
type LoadRegistryStep struct {
	logger *slog.Logger
}

// NewLoadRegistryStep creates a registry loading step.
func NewLoadRegistryStep(logger *slog.Logger) *LoadRegistryStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoadRegistryStep{logger: logger}
}

// Name returns the step name.
func (s *LoadRegistryStep) Name() string {
	return StepLoadRegistry
}

// Do loads the registry and, for per-registry output, moves OutputDir into
// a subdirectory named after it.
func (s *LoadRegistryStep) Do(_ context.Context, run *Run) error {
	reg, err := registry.LoadFile(run.Source)
	if err != nil {
		return err
	}
	run.Registry = reg

	if run.PerRegistryDir {
		run.OutputDir = filepath.Join(run.OutputDir, dirName(reg.Name()))
	}

	s.logger.Debug("registry loaded",
		"source", run.Source,
		"name", reg.Name(),
		"entities", reg.Len(),
	)
	return nil
}

// dirName turns a registry name into a single path element.
func dirName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "registry"
	}
	return name
}

// ValidateStep parses every version tag of the loaded registry, so that a
// malformed tag fails the run before any artifact is written.
type ValidateStep struct {
	parser *model.VersionParser
}

// NewValidateStep creates a validation step. parser may be nil.
func NewValidateStep(parser *model.VersionParser) *ValidateStep {
	return &ValidateStep{parser: parser}
}

// Name returns the step name.
func (s *ValidateStep) Name() string {
	return StepValidateRegistry
}

// Do validates the registry.
func (s *ValidateStep) Do(_ context.Context, run *Run) error {
	if run.Registry == nil {
		return ErrNoRegistry
	}
	return run.Registry.CheckVersionTags(s.parser)
}

// RenderStep generates one artifact.
type RenderStep struct {
	mode      report.Mode
	threshold int
	parser    *model.VersionParser
}

// RenderStepOption configures a RenderStep.
type RenderStepOption func(*RenderStep)

// WithRenderThreshold sets the highest era excluded from version-grouped modes.
func WithRenderThreshold(threshold int) RenderStepOption {
	return func(s *RenderStep) {
		s.threshold = threshold
	}
}

// WithRenderVersionParser shares a version parser between steps.
func WithRenderVersionParser(parser *model.VersionParser) RenderStepOption {
	return func(s *RenderStep) {
		s.parser = parser
	}
}

// NewRenderStep creates a step that renders the given mode.
func NewRenderStep(mode report.Mode, opts ...RenderStepOption) *RenderStep {
	s := &RenderStep{
		mode:      mode,
		threshold: model.DefaultVersionThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *RenderStep) Name() string {
	return renderStepPrefix + s.mode.String()
}

// Skip reports whether an earlier artifact halted rendering.
func (s *RenderStep) Skip(run *Run) bool {
	return run.Halted
}

// Do renders the artifact and records it on the Run.
func (s *RenderStep) Do(ctx context.Context, run *Run) error {
	if run.Registry == nil {
		return ErrNoRegistry
	}

	art, err := report.Generate(ctx, run.Registry, run.OutputDir, s.mode,
		report.WithStdout(&run.Stdout),
		report.WithThreshold(s.threshold),
		report.WithVersionParser(s.parser),
	)
	if err != nil {
		return err
	}

	run.Artifacts = append(run.Artifacts, art)
	if art.SkipSummary {
		run.Halted = true
	}
	return nil
}

// SnapshotStore persists registry snapshots. *database.SnapshotDB implements it.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, reg *model.Registry) (id int64, inserted bool, err error)
}

// SnapshotStep stores the loaded registry in snapshot history.
type SnapshotStep struct {
	store  SnapshotStore
	logger *slog.Logger
}

// NewSnapshotStep creates a snapshot saving step.
func NewSnapshotStep(store SnapshotStore, logger *slog.Logger) *SnapshotStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotStep{store: store, logger: logger}
}

// Name returns the step name.
func (s *SnapshotStep) Name() string {
	return StepSaveSnapshot
}

// Skip reports whether there is nothing to save. A run whose earlier step
// failed is never snapshotted, so history only holds registries that rendered.
func (s *SnapshotStep) Skip(run *Run) bool {
	return run.Registry == nil || run.Err != nil
}

// Do saves the snapshot.
func (s *SnapshotStep) Do(ctx context.Context, run *Run) error {
	id, inserted, err := s.store.SaveSnapshot(ctx, run.Registry)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	run.SnapshotID = id
	run.SnapshotInserted = inserted

	s.logger.Debug("snapshot saved",
		"name", run.Registry.Name(),
		"id", id,
		"inserted", inserted,
	)
	return nil
}

// DefaultPipelineConfig contains the settings of DefaultPipeline.
type DefaultPipelineConfig struct {
	// Modes are rendered in order.
	Modes []report.Mode

	// Threshold is the highest era excluded from version-grouped modes.
	Threshold int

	// Parser is shared by the validation and render steps. When nil, a
	// fresh cache is created per pipeline.
	Parser *model.VersionParser

	// Store enables the snapshot step when non-nil.
	Store SnapshotStore
}

// DefaultPipelineOption configures DefaultPipeline.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineModes sets the modes to render.
func WithPipelineModes(modes ...report.Mode) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Modes = modes
	}
}

// WithPipelineThreshold sets the version threshold.
func WithPipelineThreshold(threshold int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Threshold = threshold
	}
}

// WithPipelineVersionParser sets the shared version parser.
func WithPipelineVersionParser(parser *model.VersionParser) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Parser = parser
	}
}

// WithPipelineSnapshotStore enables snapshot saving.
func WithPipelineSnapshotStore(store SnapshotStore) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Store = store
	}
}

// DefaultPipeline creates a pipeline with the standard steps:
// load-registry, validate-registry, one render step per mode, and
// save-snapshot when a store is configured.
func DefaultPipeline(pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		Modes:     []report.Mode{report.ModeChangelog},
		Threshold: model.DefaultVersionThreshold,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}
	if cfg.Parser == nil {
		cfg.Parser = model.NewVersionParser(0)
	}

	p.AddSteps(
		NewLoadRegistryStep(p.logger),
		NewValidateStep(cfg.Parser),
	)
	for _, m := range cfg.Modes {
		p.AddStep(NewRenderStep(m,
			WithRenderThreshold(cfg.Threshold),
			WithRenderVersionParser(cfg.Parser),
		))
	}
	if cfg.Store != nil {
		p.AddStep(NewSnapshotStep(cfg.Store, p.logger))
	}

	return p
}
