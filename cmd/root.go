/*
Copyright © 2026 ソニーレベル <C7kali3@gmail.com>

*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sony-level/pseudodata-runner/internal/config"
	"github.com/sony-level/pseudodata-runner/internal/exec"
)

var (
	// Global flags
	configPath string
	dryRun     bool
	verbose    bool

	// Analysis flags
	analysis     string
	fitVars      []string
	pseudodata   []string
	webDir       string
	installRoot  string
	resultFormat string
	stepTimeout  string
	summary      bool
	skipPrereq   bool

	logger *zap.Logger
)

// rootCmd represents the base command - runs directly without subcommand
var rootCmd = &cobra.Command{
	Use:   "pdr <input-histograms> <outdir>",
	Short: "Run the pseudodata fit study: workspaces, fits, plots and impacts",
	Long: `pdr drives the pseudodata bias study of a binned likelihood analysis.

For every fit variable it builds the combined workspace from the input
histograms, fits it to the Asimov dataset, to data and to every pseudodata
hypothesis, renders pre/post-fit plots for each fit result and impacts/pulls
of each fit against the Asimov fit.

A stage whose output file already exists is skipped, so an interrupted or
failed run is resumed by invoking pdr again with the same arguments.

Examples:
  pdr mz_dilepton.hdf5 /scratch/fits
  pdr mz_dilepton.hdf5 /scratch/fits --dry-run
  pdr mz_dilepton.hdf5 /scratch/fits --fitvar ptll --pseudodata uncorr
  pdr status /scratch/fits`,
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogger()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeRun(cmd, args[0], args[1])
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). A failed tool's exit code becomes the exit code of pdr.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var stepErr *exec.StepError
	if errors.As(err, &stepErr) && stepErr.ExitCode > 0 && stepErr.ExitCode < 256 {
		os.Exit(stepErr.ExitCode)
	}
	os.Exit(1)
}

func initLogger() error {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true
	cfg.Sampling = nil
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	return nil
}

// loadConfig applies config file, environment and then any flag the user set
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("analysis") {
		cfg.Analysis = analysis
	}
	if flags.Changed("fitvar") {
		cfg.FitVars = fitVars
	}
	if flags.Changed("pseudodata") {
		cfg.Pseudodata = pseudodata
	}
	if flags.Changed("webdir") {
		cfg.WebDir = webDir
	}
	if flags.Changed("install-root") {
		cfg.InstallRoot = installRoot
	}
	if flags.Changed("result-format") {
		cfg.ResultFormat = resultFormat
	}
	if flags.Changed("step-timeout") {
		cfg.StepTimeout = stepTimeout
	}
	if flags.Changed("summary") {
		cfg.Summary.Enabled = summary
	}

	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./.pdr.yaml, then ~/.config/pdr/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Show the steps without executing them")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.PersistentFlags().StringVar(&analysis, "analysis", "", "Analysis label used in output folder names")
	rootCmd.PersistentFlags().StringSliceVar(&fitVars, "fitvar", nil, "Fit variable, repeatable (e.g. ptll, ptll-yll)")
	rootCmd.PersistentFlags().StringSliceVar(&pseudodata, "pseudodata", nil, "Pseudodata hypothesis, repeatable")
	rootCmd.PersistentFlags().StringVar(&webDir, "webdir", "", "Web directory for plots (or env: "+config.EnvWebDir+")")
	rootCmd.PersistentFlags().StringVar(&installRoot, "install-root", "", "Analysis software checkout (or env: "+config.EnvInstallRoot+")")
	rootCmd.PersistentFlags().StringVar(&resultFormat, "result-format", "", "Fit result format: hdf5 or root")
	rootCmd.PersistentFlags().StringVar(&stepTimeout, "step-timeout", "", "Per-step time limit, e.g. 3h (default: none)")
	rootCmd.PersistentFlags().BoolVar(&summary, "summary", false, "Also produce the summary tables")
	rootCmd.PersistentFlags().BoolVar(&skipPrereq, "skip-prereq", false, "Run even when tools or scripts are missing")
}
