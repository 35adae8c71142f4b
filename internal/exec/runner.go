// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Sequential step executor with completion-marker skipping

package exec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sony-level/pseudodata-runner/internal/layout"
)

// Runner executes pipeline steps one after another
type Runner struct {
	config   *RunnerConfig
	launcher Launcher
	logger   *zap.Logger
}

// NewRunner creates a new step runner
func NewRunner(config *RunnerConfig, logger *zap.Logger) *Runner {
	if config == nil {
		config = &RunnerConfig{Mode: ModeDryRun}
	}
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}
	if config.Stderr == nil {
		config.Stderr = os.Stderr
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		config:   config,
		launcher: &ProcessLauncher{},
		logger:   logger,
	}
}

// SetLauncher replaces the process launcher
func (r *Runner) SetLauncher(l Launcher) {
	r.launcher = l
}

// Execute runs the steps in order. A step whose output already exists is
// skipped. A failed fatal step or a cancelled context stops the run; other
// failures are recorded and the run continues.
func (r *Runner) Execute(ctx context.Context, steps []Step) *ExecutionResult {
	result := NewExecutionResult()
	startTime := time.Now()

	for i := range steps {
		step := &steps[i]

		if err := ctx.Err(); err != nil {
			r.logger.Warn("Run interrupted", zap.String("next_step", step.ID), zap.Error(err))
			result.Aborted = true
			result.Success = false
			break
		}

		if r.config.OnStepStart != nil {
			r.config.OnStepStart(step)
		}

		stepResult := r.executeStep(ctx, step)
		result.AddStepResult(stepResult)

		if r.config.OnStepComplete != nil {
			r.config.OnStepComplete(step, stepResult)
		}

		if stepResult.Success || stepResult.Skipped {
			continue
		}

		r.logger.Error("Step failed",
			zap.String("step", step.ID),
			zap.Int("exit_code", stepResult.ExitCode),
			zap.Error(stepResult.Error))

		if step.Fatal || ctx.Err() != nil {
			result.Aborted = true
			break
		}
	}

	result.TotalTime = time.Since(startTime)
	return result
}

// executeStep runs a single step
func (r *Runner) executeStep(ctx context.Context, step *Step) *StepResult {
	result := &StepResult{
		StepID: step.ID,
		Stage:  step.Stage,
	}
	startTime := time.Now()

	if step.Creates != "" && layout.Exists(step.Creates) {
		r.logger.Info("Output exists, skipping step",
			zap.String("step", step.ID),
			zap.String("output", step.Creates))
		result.Skipped = true
		result.Success = true
		result.SkipReason = "output exists: " + step.Creates
		result.Duration = time.Since(startTime)
		return result
	}

	if r.config.Mode == ModeDryRun {
		result.Success = true
		result.Duration = time.Since(startTime)
		return result
	}

	r.logger.Info("Running step",
		zap.String("step", step.ID),
		zap.String("stage", string(step.Stage)))
	r.logger.Debug("Command", zap.String("step", step.ID), zap.String("cmd", step.CommandLine()))

	stdout, stderr := r.config.Stdout, r.config.Stderr
	if r.config.LogFile != nil {
		path := r.config.LogFile(step.ID)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
		if err != nil {
			r.logger.Warn("Cannot open step log", zap.String("path", path), zap.Error(err))
		} else {
			defer f.Close()
			fmt.Fprintf(f, "# %s\n# %s\n", step.ID, step.CommandLine())
			stdout = io.MultiWriter(stdout, f)
			stderr = io.MultiWriter(stderr, f)
			result.LogFile = path
		}
	}

	runCtx := ctx
	if r.config.StepTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.config.StepTimeout)
		defer cancel()
	}

	exitCode, err := r.launcher.Launch(runCtx, step, stdout, stderr)
	result.ExitCode = exitCode
	result.Duration = time.Since(startTime)

	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %v: %w", r.config.StepTimeout, err)
		}
		result.Error = err
		if result.ExitCode == 0 {
			result.ExitCode = 1
		}
		return result
	}

	result.Success = true
	r.logger.Info("Step finished",
		zap.String("step", step.ID),
		zap.Duration("duration", result.Duration.Round(time.Millisecond)))
	return result
}

// FormatStepResult returns a human-readable step result
func FormatStepResult(result *StepResult) string {
	var sb strings.Builder

	if result.Skipped {
		sb.WriteString(fmt.Sprintf("⊘ %s: Skipped", result.StepID))
		if result.SkipReason != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", result.SkipReason))
		}
	} else if result.Success {
		sb.WriteString(fmt.Sprintf("✓ %s: Success", result.StepID))
	} else {
		sb.WriteString(fmt.Sprintf("✗ %s: Failed", result.StepID))
		if result.Error != nil {
			sb.WriteString(fmt.Sprintf(" - %s", result.Error.Error()))
		}
	}

	sb.WriteString(fmt.Sprintf(" (%v)", result.Duration.Round(time.Millisecond)))
	return sb.String()
}

// FormatExecutionResult returns a human-readable execution summary
func FormatExecutionResult(result *ExecutionResult) string {
	var sb strings.Builder

	sb.WriteString("\n─────────────────────────────────────\n")
	sb.WriteString("Execution Summary\n")
	sb.WriteString("─────────────────────────────────────\n")

	if result.Success {
		sb.WriteString("✓ All steps completed successfully\n")
	} else if result.Aborted {
		sb.WriteString("⊘ Execution aborted\n")
	} else {
		sb.WriteString("✗ Execution finished with failures\n")
	}

	sb.WriteString(fmt.Sprintf("\nTotal steps: %d\n", result.TotalSteps))
	sb.WriteString(fmt.Sprintf("  Completed: %d\n", result.Completed))
	sb.WriteString(fmt.Sprintf("  Failed:    %d\n", result.Failed))
	sb.WriteString(fmt.Sprintf("  Skipped:   %d\n", result.Skipped))
	sb.WriteString(fmt.Sprintf("\nTotal time: %v\n", result.TotalTime.Round(time.Millisecond)))

	if result.Failed > 0 {
		sb.WriteString("\nFailed steps:\n")
		for _, sr := range result.StepResults {
			if sr.Success || sr.Skipped {
				continue
			}
			sb.WriteString(fmt.Sprintf("  %s (exit %d)", sr.StepID, sr.ExitCode))
			if sr.LogFile != "" {
				sb.WriteString(fmt.Sprintf(" log: %s", sr.LogFile))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// DryRunDisplay shows what would be executed in dry-run mode
func DryRunDisplay(steps []Step) string {
	var sb strings.Builder

	sb.WriteString("\n╔══════════════════════════════════════════════════════════════╗\n")
	sb.WriteString("║                    DRY-RUN MODE                              ║\n")
	sb.WriteString("║              No commands will be executed                    ║\n")
	sb.WriteString("╚══════════════════════════════════════════════════════════════╝\n\n")

	sb.WriteString("Steps:\n")
	for i, step := range steps {
		marker := "run"
		if step.Creates != "" && layout.Exists(step.Creates) {
			marker = "skip, output exists"
		}
		sb.WriteString(fmt.Sprintf("\n  [%d] %s (%s)\n", i+1, step.ID, marker))
		sb.WriteString(fmt.Sprintf("      Command: %s\n", step.CommandLine()))
		if step.Creates != "" {
			sb.WriteString(fmt.Sprintf("      Creates: %s\n", step.Creates))
		}
		if step.Fatal {
			sb.WriteString("      ⚠ Fatal on failure\n")
		}
		if step.Description != "" {
			sb.WriteString(fmt.Sprintf("      Description: %s\n", step.Description))
		}
	}

	return sb.String()
}
