package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for stubreport.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stubreport",
		Short: "Report generator for API documentation registries",
		Long: `stubreport reads a documentation registry dump (YAML or JSON) and generates
report artifacts from it: a flat changelog, a coverage manifest, a
version-grouped feature changelog and type index pages.

Every successful run can be stored as a snapshot, and 'stubreport compare'
shows which entities were added or removed between two snapshots.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewGenerateCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
