/*
Copyright © 2026 ソニーレベル <C7kali3@gmail.com>

*/
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sony-level/pseudodata-runner/internal/layout"
)

var maxAgeHours int

// cleanCmd removes old run logs. Workspaces and fit results are never touched.
var cleanCmd = &cobra.Command{
	Use:   "clean <outdir>",
	Short: "Remove old run log directories",
	Long: `Remove run log directories (<outdir>/` + layout.RunsDirName + `/pdr-*) older than --max-age hours.
Workspaces and fit results are left in place.

Examples:
  pdr clean /scratch/fits
  pdr clean /scratch/fits --max-age 0`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if maxAgeHours < 0 {
			return fmt.Errorf("--max-age must not be negative")
		}
		outDir, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve output directory: %w", err)
		}

		runsDir := filepath.Join(outDir, layout.RunsDirName)
		cleaned, err := layout.CleanupStale(runsDir, maxAgeHours)
		if err != nil {
			return err
		}

		logger.Debug("Cleaned run logs", zap.String("dir", runsDir), zap.Int("removed", cleaned))
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run log director%s\n", cleaned, plural(cleaned, "y", "ies"))
		return nil
	},
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	cleanCmd.Flags().IntVar(&maxAgeHours, "max-age", 24*7, "Minimum age in hours of run logs to remove")
	rootCmd.AddCommand(cleanCmd)
}
