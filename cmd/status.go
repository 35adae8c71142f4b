/*
Copyright © 2026 ソニーレベル <C7kali3@gmail.com>

*/
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sony-level/pseudodata-runner/internal/layout"
	"github.com/sony-level/pseudodata-runner/internal/pipeline"
)

// statusCmd reports which workspaces and fit results are already present
var statusCmd = &cobra.Command{
	Use:   "status <outdir>",
	Short: "Show which workspaces and fit results exist",
	Long: `List, per fit variable, whether the workspace and each fit result are
present in the output directory. Present files are skipped by the next run.

Examples:
  pdr status /scratch/fits
  pdr status /scratch/fits --fitvar ptll`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		outDir, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve output directory: %w", err)
		}

		l := layout.New(outDir, cfg.WebDir, cfg.Analysis, cfg.ResultExtension(), cfg.InstallRoot)
		fmt.Fprint(cmd.OutOrStdout(), pipeline.FormatStatus(pipeline.Status(cfg, l)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
