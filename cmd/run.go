/*
Copyright © 2026 ソニーレベル <C7kali3@gmail.com>

*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sony-level/pseudodata-runner/internal/exec"
	"github.com/sony-level/pseudodata-runner/internal/layout"
	"github.com/sony-level/pseudodata-runner/internal/pipeline"
	"github.com/sony-level/pseudodata-runner/internal/prereq"
	"github.com/sony-level/pseudodata-runner/internal/provenance"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <input-histograms> <outdir>",
	Short: "Run the pipeline (same as calling pdr with two arguments)",
	Long: `Build workspaces, run every fit, and render plots and impacts.

Arguments:
  input-histograms  Histogram file consumed by the workspace builder
  outdir            Directory receiving <analysis>_<fitvar>/ workspaces and fit results

Examples:
  pdr run mz_dilepton.hdf5 /scratch/fits
  pdr run mz_dilepton.hdf5 /scratch/fits --summary --verbose`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeRun(cmd, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func executeRun(cmd *cobra.Command, inputArg, outArg string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	input, err := filepath.Abs(inputArg)
	if err != nil {
		return fmt.Errorf("failed to resolve input path: %w", err)
	}
	outDir, err := filepath.Abs(outArg)
	if err != nil {
		return fmt.Errorf("failed to resolve output directory: %w", err)
	}

	// Phase 1: Configuration
	fmt.Fprintln(out, "[1/5] Configuration")
	builder, err := pipeline.NewBuilder(cfg, input, outDir, logger)
	if err != nil {
		return err
	}
	timeout, _ := cfg.Timeout()

	fmt.Fprintf(out, "  → Analysis:    %s\n", cfg.Analysis)
	fmt.Fprintf(out, "  → Fit vars:    %s\n", strings.Join(cfg.FitVars, ", "))
	fmt.Fprintf(out, "  → Hypotheses:  %s\n", strings.Join(cfg.Hypotheses(), ", "))
	fmt.Fprintf(out, "  → Input:       %s\n", input)
	fmt.Fprintf(out, "  → Output:      %s\n", outDir)
	fmt.Fprintf(out, "  → Web dir:     %s\n", cfg.WebDir)

	if !layout.Exists(input) {
		logger.Warn("Input histogram file not found; workspace steps that still need it will fail",
			zap.String("input", input))
	}

	// Phase 2: Prerequisites
	fmt.Fprintln(out, "\n[2/5] Prerequisites")
	checker := prereq.NewChecker()
	check := checker.CheckPipeline(cfg, pipeline.Scripts(cfg))
	for _, r := range check.Results {
		mark := "✓"
		if !r.Found {
			mark = "✗"
		}
		detail := r.Path
		if r.Version != "" {
			detail += " (" + r.Version + ")"
		}
		if !r.Found && r.Alternative != "" {
			detail = "not found (" + r.Alternative + " at " + r.AlternativePath + " is not used)"
		}
		fmt.Fprintf(out, "  %s %s %s\n", mark, r.Name, detail)
	}
	if !check.AllFound {
		if !skipPrereq && !dryRun {
			fmt.Fprint(cmd.ErrOrStderr(), "\n"+checker.FormatMissing(check))
			return fmt.Errorf("missing prerequisites: %s", strings.Join(check.MissingTools, ", "))
		}
		logger.Warn("Continuing with missing prerequisites", zap.Strings("missing", check.MissingTools))
	}

	software, err := provenance.Inspect(cfg.InstallRoot)
	if err != nil {
		logger.Warn("Cannot read software version", zap.String("root", cfg.InstallRoot), zap.Error(err))
		software = nil
	} else {
		fmt.Fprintf(out, "  → Software:    %s\n", software.Short())
	}

	// Phase 3: Plan
	fmt.Fprintln(out, "\n[3/5] Plan")
	steps := builder.Build()
	fmt.Fprintf(out, "  → %d steps for %d fit variable(s)\n", len(steps), len(cfg.FitVars))

	if dryRun {
		fmt.Fprint(out, exec.DryRunDisplay(steps))
		fmt.Fprintln(out, "\n[4/5] Execute\n  → Skipped (dry-run mode)")
		fmt.Fprintln(out, "\n[5/5] Report\n  → Skipped (dry-run mode)")
		return nil
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	runDir, err := layout.NewRunDir(builder.Layout().RunsDir())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  → Run ID:      %s\n", runDir.RunID)
	fmt.Fprintf(out, "  → Step logs:   %s\n", runDir.LogsPath())

	// Phase 4: Execute
	fmt.Fprintln(out, "\n[4/5] Execute")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manifest := &pipeline.Manifest{
		RunID:      runDir.RunID,
		StartedAt:  time.Now(),
		Input:      input,
		OutDir:     outDir,
		Analysis:   cfg.Analysis,
		FitVars:    cfg.FitVars,
		Hypotheses: cfg.Hypotheses(),
		Software:   software,
	}

	runner := exec.NewRunner(&exec.RunnerConfig{
		Mode:        exec.ModeExecute,
		StepTimeout: timeout,
		Stdout:      out,
		Stderr:      cmd.ErrOrStderr(),
		LogFile:     runDir.StepLogFile,
		OnStepStart: func(step *exec.Step) {
			fmt.Fprintf(out, "\n  ▶ %s\n", step.ID)
		},
		OnStepComplete: func(step *exec.Step, result *exec.StepResult) {
			fmt.Fprintf(out, "  %s\n", exec.FormatStepResult(result))
		},
	}, logger)
	result := runner.Execute(ctx, steps)

	// Phase 5: Report
	fmt.Fprintln(out, "\n[5/5] Report")
	manifest.Record(steps, result)
	if err := manifest.Write(runDir.ManifestFile()); err != nil {
		logger.Warn("Cannot write run manifest", zap.Error(err))
	} else {
		fmt.Fprintf(out, "  → Manifest: %s\n", runDir.ManifestFile())
	}
	fmt.Fprint(out, exec.FormatExecutionResult(result))

	if err := result.Err(); err != nil {
		return err
	}
	if result.Aborted {
		return fmt.Errorf("run interrupted")
	}
	return nil
}
