package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DNYoussef/Spek-template-sub011/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "spekscan",
	Short: "Compliance scanner for source trees",
	Long: `Spekscan analyzes a source tree with a set of static detectors covering
coupling, structural quality, completion theater, and regulatory rules,
plus cross-file duplicate detection. It scores the tree against a
compliance profile and emits a machine-readable report.

Exit codes: 0 when the tree passes the profile, 1 when it fails,
2 on configuration or internal errors.`,
	Version: version.Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
