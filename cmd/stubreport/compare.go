package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nao1215/stubreport/internal/config"
	"github.com/nao1215/stubreport/internal/database"
	"github.com/nao1215/stubreport/internal/model"
	"github.com/nao1215/stubreport/internal/report"
)

// errNotEnoughSnapshots is returned when a comparison has nothing to compare against.
var errNotEnoughSnapshots = errors.New("not enough snapshots to compare")

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [registry-name]",
		Short: "Compare registry snapshots",
		Long: `Compare shows which entities were added or removed between two stored
snapshots of a registry.

By default the two most recent snapshots are compared. Use --with-id to
compare the latest snapshot against an older one.

Snapshots are recorded by 'stubreport generate' unless --no-save is given.

Examples:
  # Changes since the previous snapshot
  stubreport compare sketchup-api

  # Changes since snapshot 3, as Markdown
  stubreport compare sketchup-api --with-id 3 --markdown

  # List stored snapshots of a registry
  stubreport compare sketchup-api --list

  # List registries with snapshots
  stubreport compare --list-registries`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompare,
	}

	cmd.Flags().BoolP("list", "l", false, "List stored snapshots of the registry")
	cmd.Flags().Bool("list-registries", false, "List registries with stored snapshots")
	cmd.Flags().Int64P("with-id", "i", 0, "Compare the latest snapshot with this snapshot ID")
	cmd.Flags().Bool("markdown", false, "Output the comparison as Markdown")
	cmd.Flags().String("db-dir", "", "Directory of the snapshot database (default: XDG data dir)")
	cmd.Flags().StringP("config", "c", "",
		"Path to config file (default: .stubreport in current directory or home)")

	return cmd
}

// compareOptions holds the parsed flags of the compare command.
type compareOptions struct {
	name           string
	list           bool
	listRegistries bool
	withID         int64
	markdown       bool
	dbDir          string
}

func parseCompareOptions(cmd *cobra.Command, args []string) (*compareOptions, error) {
	opts := &compareOptions{}
	if len(args) > 0 {
		opts.name = args[0]
	}

	flags := cmd.Flags()
	var err error
	if opts.list, err = flags.GetBool("list"); err != nil {
		return nil, err
	}
	if opts.listRegistries, err = flags.GetBool("list-registries"); err != nil {
		return nil, err
	}
	if opts.withID, err = flags.GetInt64("with-id"); err != nil {
		return nil, err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}

	// The database directory is resolved the same way as for generate.
	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}
	opts.dbDir = cfg.DBDir

	if opts.name == "" && !opts.listRegistries {
		return nil, errors.New("registry name is required (or use --list-registries)")
	}
	if opts.withID < 0 {
		return nil, fmt.Errorf("invalid snapshot ID: %d", opts.withID)
	}
	return opts, nil
}

// runCompare executes the compare command.
func runCompare(cmd *cobra.Command, args []string) error {
	opts, err := parseCompareOptions(cmd, args)
	if err != nil {
		return err
	}

	db, err := openSnapshotDB(opts.dbDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	out := cmd.OutOrStdout()
	switch {
	case opts.listRegistries:
		return listRegistries(cmd, db, out)
	case opts.list:
		return listSnapshots(cmd, db, out, opts.name)
	default:
		return compareSnapshots(cmd, db, out, opts)
	}
}

// openSnapshotDB opens an existing snapshot database without creating one.
func openSnapshotDB(dbDir string) (*database.SnapshotDB, error) {
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database (run 'stubreport generate' first): %w", err)
	}
	return db, nil
}

func listRegistries(cmd *cobra.Command, db *database.SnapshotDB, out io.Writer) error {
	names, err := db.ListRegistryNames(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list registries: %w", err)
	}
	if len(names) == 0 {
		fmt.Fprintln(out, "No snapshots stored.")
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}

func listSnapshots(cmd *cobra.Command, db *database.SnapshotDB, out io.Writer, name string) error {
	records, err := db.ListSnapshots(cmd.Context(), name)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintf(out, "No snapshots stored for %s.\n", name)
		return nil
	}

	fmt.Fprintf(out, "Snapshots of %s:\n", name)
	for _, r := range records {
		fmt.Fprintf(out, "  %4d  %s  %5d entities  %s\n",
			r.ID, r.Timestamp.Format("2006-01-02 15:04:05"), r.EntityCount, r.Fingerprint[:min(12, len(r.Fingerprint))])
	}
	return nil
}

func compareSnapshots(cmd *cobra.Command, db *database.SnapshotDB, out io.Writer, opts *compareOptions) error {
	ctx := cmd.Context()

	latest, err := db.LatestSnapshots(ctx, opts.name, 2)
	if err != nil {
		return fmt.Errorf("failed to load snapshots: %w", err)
	}
	if len(latest) == 0 {
		return fmt.Errorf("%w: no snapshots stored for %s", errNotEnoughSnapshots, opts.name)
	}
	newer := &latest[0]

	var older *database.StoredSnapshot
	if opts.withID > 0 {
		older, err = db.GetSnapshotByID(ctx, opts.withID)
		if err != nil {
			return fmt.Errorf("failed to load snapshot %d: %w", opts.withID, err)
		}
		if older.Name != opts.name {
			return fmt.Errorf("snapshot %d belongs to %s, not %s", older.ID, older.Name, opts.name)
		}
	} else {
		if len(latest) < 2 {
			return fmt.Errorf("%w: only one snapshot stored for %s", errNotEnoughSnapshots, opts.name)
		}
		older = &latest[1]
	}

	olderReg, err := older.Registry()
	if err != nil {
		return fmt.Errorf("failed to restore snapshot %d: %w", older.ID, err)
	}
	newerReg, err := newer.Registry()
	if err != nil {
		return fmt.Errorf("failed to restore snapshot %d: %w", newer.ID, err)
	}

	diff := model.CompareRegistries(olderReg, newerReg)

	var writerOpts []report.DiffWriterOption
	if opts.markdown {
		writerOpts = append(writerOpts, report.WithMarkdown())
	} else {
		fmt.Fprintf(out, "Comparing snapshot %d (%s) with %d (%s)\n",
			older.ID, older.Timestamp.Format("2006-01-02 15:04:05"),
			newer.ID, newer.Timestamp.Format("2006-01-02 15:04:05"))
		if diff.Empty() {
			fmt.Fprintln(out, "No changes.")
			return nil
		}
	}

	if _, err := report.NewDiffWriter(out, writerOpts...).WriteDiff(diff); err != nil {
		return fmt.Errorf("failed to write comparison: %w", err)
	}
	return nil
}
