// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Execution types and interfaces

package exec

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// ExecutionMode determines how the runner behaves
type ExecutionMode int

const (
	// ModeDryRun displays what would happen without executing
	ModeDryRun ExecutionMode = iota
	// ModeExecute actually runs the commands
	ModeExecute
)

// Stage identifies which part of the pipeline a step belongs to
type Stage string

const (
	StageWorkspace Stage = "workspace"
	StageFit       Stage = "fit"
	StagePlot      Stage = "plot"
	StageImpacts   Stage = "impacts"
	StageSummary   Stage = "summary"
)

// Step is one external tool invocation
type Step struct {
	ID          string
	Stage       Stage
	Description string
	Program     string
	Args        []string
	Env         map[string]string
	Dir         string

	// Creates is the output file of the step. When it already exists the
	// step is skipped without launching anything.
	Creates string

	// Fatal steps abort the remaining pipeline when they fail
	Fatal bool
}

// CommandLine renders the step as a shell-like command for display
func (s *Step) CommandLine() string {
	parts := make([]string, 0, len(s.Args)+1)
	parts = append(parts, quoteArg(s.Program))
	for _, arg := range s.Args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func quoteArg(arg string) string {
	if arg == "" {
		return "''"
	}
	if strings.ContainsAny(arg, " \t\n'\"$`\\*?[]{}()<>|&;") {
		return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
	}
	return arg
}

// Launcher starts a step's process and waits for it. It returns the exit code
// and a non-nil error when the process could not run or exited non-zero.
type Launcher interface {
	Launch(ctx context.Context, step *Step, stdout, stderr io.Writer) (int, error)
}

// RunnerConfig configures the executor
type RunnerConfig struct {
	Mode        ExecutionMode
	StepTimeout time.Duration // Zero means no limit
	Stdout      io.Writer     // Console stream for tool stdout, defaults to os.Stdout
	Stderr      io.Writer     // Console stream for tool stderr, defaults to os.Stderr

	// LogFile returns the path a step's output is copied to. Nil disables step logs.
	LogFile        func(stepID string) string
	OnStepStart    func(step *Step)
	OnStepComplete func(step *Step, result *StepResult)
}

// StepResult contains the result of executing a single step
type StepResult struct {
	StepID     string
	Stage      Stage
	Success    bool
	Skipped    bool
	SkipReason string
	ExitCode   int
	Duration   time.Duration
	LogFile    string
	Error      error
}

// ExecutionResult contains the complete execution result
type ExecutionResult struct {
	Success     bool
	TotalSteps  int
	Completed   int
	Failed      int
	Skipped     int
	TotalTime   time.Duration
	StepResults []*StepResult
	FailedStep  *StepResult
	Aborted     bool // a fatal step failed or the run was interrupted
}

// NewExecutionResult creates an empty execution result
func NewExecutionResult() *ExecutionResult {
	return &ExecutionResult{
		Success:     true,
		StepResults: make([]*StepResult, 0),
	}
}

// AddStepResult adds a step result to the execution
func (r *ExecutionResult) AddStepResult(result *StepResult) {
	r.StepResults = append(r.StepResults, result)
	r.TotalSteps++

	if result.Skipped {
		r.Skipped++
	} else if result.Success {
		r.Completed++
	} else {
		r.Failed++
		r.Success = false
		if r.FailedStep == nil {
			r.FailedStep = result
		}
	}
}

// Err returns a *StepError for the first failed step, or nil
func (r *ExecutionResult) Err() error {
	if r.FailedStep == nil {
		return nil
	}
	return &StepError{
		StepID:   r.FailedStep.StepID,
		ExitCode: r.FailedStep.ExitCode,
		Err:      r.FailedStep.Error,
	}
}

// StepError reports a failed step and the exit code of its tool
type StepError struct {
	StepID   string
	ExitCode int
	Err      error
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("step %s failed: %v", e.StepID, e.Err)
	}
	return fmt.Sprintf("step %s failed", e.StepID)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
