package main

import (
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/stubreport/internal/config"
	"github.com/nao1215/stubreport/internal/database"
	"github.com/nao1215/stubreport/internal/log"
	"github.com/nao1215/stubreport/internal/model"
	"github.com/nao1215/stubreport/internal/pipeline"
	"github.com/nao1215/stubreport/internal/report"
)

// NewGenerateCmd creates the generate command.
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [registry-file...]",
		Short: "Generate report artifacts from registry dumps",
		Long: `Generate reads one or more registry dump files and writes the requested
report artifacts.

Modes:
  changelog      "Changelog SU201x.log", one "Added <type> <path>" line per entity
  coverage       coverage.manifest, sorted <namespace>.<method> keys
  features       version-grouped feature changelog on standard output
  features-json  the same groups as features.json
  index          index.md, a Markdown type index
  index-html     index.html, an HTML type index

When several registry files are given, each one is written into its own
subdirectory of the output directory, named after the registry.

Examples:
  # Flat changelog in the current directory
  stubreport generate registry.yaml

  # Coverage manifest and feature changelog
  stubreport generate -m coverage -m features registry.yaml

  # Every artifact for two registries, without recording snapshots
  stubreport generate --all -o out --no-save sketchup.yaml layout.yaml`,
		RunE: runGenerate,
	}

	cmd.Flags().StringSliceP("mode", "m", []string{string(report.ModeChangelog)},
		"Artifact mode to generate (repeatable)")
	cmd.Flags().Bool("all", false, "Generate every artifact mode")
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Output directory for file artifacts")
	cmd.Flags().Int("threshold", config.DefaultVersionThreshold,
		"Highest version era left out of version-grouped output")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of registry files processed concurrently")
	cmd.Flags().StringP("config", "c", "",
		"Path to config file (default: .stubreport in current directory or home)")
	cmd.Flags().Bool("no-save", false, "Do not record a snapshot of each registry")
	cmd.Flags().String("db-dir", "", "Directory of the snapshot database (default: XDG data dir)")
	cmd.Flags().Bool("json-logs", false, "Write logs as JSON")

	return cmd
}

// runGenerate executes the generate command.
func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	modes, err := cfg.ReportModes()
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg)

	// Set up signal handling
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var db *database.SnapshotDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open snapshot database: %w", err)
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logger.Warn("failed to close snapshot database", "error", cerr)
			}
		}()
		logger.Debug("snapshot database opened", "path", db.Path())
	}

	// One parse cache serves every pipeline; the registries repeat the same tags.
	parser := model.NewVersionParser(cfg.VersionCacheSize)
	factory := func() *pipeline.Pipeline {
		opts := []pipeline.DefaultPipelineOption{
			pipeline.WithPipelineModes(modes...),
			pipeline.WithPipelineThreshold(cfg.VersionThreshold),
			pipeline.WithPipelineVersionParser(parser),
		}
		if db != nil {
			opts = append(opts, pipeline.WithPipelineSnapshotStore(db))
		}
		return pipeline.DefaultPipeline([]pipeline.Option{pipeline.WithLogger(logger)}, opts...)
	}

	bp := pipeline.NewBatchProcessor(factory,
		pipeline.WithBatchLogger(logger),
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithOutputDir(cfg.OutputDir),
	)

	runs, err := bp.ProcessBatch(ctx, cfg.RegistryFiles)
	if err != nil {
		return fmt.Errorf("generation interrupted: %w", err)
	}

	return reportRuns(cmd.OutOrStdout(), cmd.ErrOrStderr(), runs)
}

// reportRuns prints the stream output and summary of each run in source order.
// A single failed run returns its own error; several failures are counted.
func reportRuns(stdout, stderr io.Writer, runs []*pipeline.Run) error {
	var failed []*pipeline.Run
	for _, run := range runs {
		if run == nil {
			continue
		}
		if run.Stdout.Len() > 0 {
			if _, err := run.Stdout.WriteTo(stdout); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		if run.Failed() {
			failed = append(failed, run)
			continue
		}
		if run.SkipSummary() {
			continue
		}
		printSummary(stdout, run)
	}

	switch len(failed) {
	case 0:
		return nil
	case 1:
		if len(runs) == 1 {
			return failed[0].Err
		}
		fallthrough
	default:
		for _, run := range failed {
			fmt.Fprintf(stderr, "%s: %v\n", run.Source, run.Err)
		}
		return fmt.Errorf("%d of %d registries failed", len(failed), len(runs))
	}
}

// printSummary prints the artifacts written by a run and its snapshot state.
func printSummary(w io.Writer, run *pipeline.Run) {
	name := run.Source
	if run.Registry != nil {
		name = run.Registry.Name()
	}
	fmt.Fprintf(w, "%s:\n", name)
	for _, a := range run.Artifacts {
		fmt.Fprintf(w, "  %-14s %s (%d bytes)\n", a.Mode, a.Path, a.Bytes)
	}
	if run.SnapshotID == 0 {
		return
	}
	if run.SnapshotInserted {
		fmt.Fprintf(w, "  snapshot %d saved\n", run.SnapshotID)
	} else {
		fmt.Fprintf(w, "  snapshot %d unchanged\n", run.SnapshotID)
	}
}

// buildConfig layers defaults, the config file, the environment and the
// command line flags, and validates the result.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if err := applyGenerateFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if len(args) > 0 {
		cfg.RegistryFiles = args
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyGenerateFlags copies the flags the user set explicitly onto cfg.
func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	all, err := flags.GetBool("all")
	if err != nil {
		return err
	}
	if all {
		cfg.Modes = allModes()
	} else if flags.Changed("mode") {
		if cfg.Modes, err = flags.GetStringSlice("mode"); err != nil {
			return err
		}
	}

	if flags.Changed("output") {
		if cfg.OutputDir, err = flags.GetString("output"); err != nil {
			return err
		}
	}
	if flags.Changed("threshold") {
		if cfg.VersionThreshold, err = flags.GetInt("threshold"); err != nil {
			return err
		}
	}
	if flags.Changed("batch") {
		if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
			return err
		}
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return err
		}
	}

	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return err
	}
	if noSave {
		cfg.SaveToDB = false
	}

	if cfg.JSONLogs, err = flags.GetBool("json-logs"); err != nil {
		return err
	}
	cfg.Verbose = getVerboseFlag(cmd)
	return nil
}

// allModes lists every mode with the stream mode last, since rendering
// stops after it.
func allModes() []string {
	modes := make([]string, 0, len(report.Modes()))
	for _, m := range report.Modes() {
		if m != report.ModeFeatures {
			modes = append(modes, string(m))
		}
	}
	return append(modes, string(report.ModeFeatures))
}

// getVerboseFlag returns the persistent --verbose flag, false when absent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return false
	}
	return verbose
}

// newLogger builds the logger selected by the configuration.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.JSONLogs {
		return log.NewJSONLogger(w, cfg.Verbose)
	}
	return log.NewLogger(w, cfg.Verbose)
}
