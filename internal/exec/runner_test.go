// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Tests for executor

package exec_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sony-level/pseudodata-runner/internal/exec"
)

// fakeLauncher records launched steps and fails those listed in failures
type fakeLauncher struct {
	launched []string
	failures map[string]int
}

func (f *fakeLauncher) Launch(ctx context.Context, step *exec.Step, stdout, stderr io.Writer) (int, error) {
	f.launched = append(f.launched, step.ID)
	if code, ok := f.failures[step.ID]; ok {
		return code, errors.New("tool failed")
	}
	io.WriteString(stdout, "ok "+step.ID+"\n")
	return 0, nil
}

func newTestRunner(mode exec.ExecutionMode, launcher exec.Launcher) *exec.Runner {
	runner := exec.NewRunner(&exec.RunnerConfig{
		Mode:   mode,
		Stdout: io.Discard,
		Stderr: io.Discard,
	}, nil)
	runner.SetLauncher(launcher)
	return runner
}

func TestRunnerDryRunLaunchesNothing(t *testing.T) {
	launcher := &fakeLauncher{}
	runner := newTestRunner(exec.ModeDryRun, launcher)

	result := runner.Execute(context.Background(), []exec.Step{
		{ID: "a", Program: "true"},
		{ID: "b", Program: "true"},
	})

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.TotalSteps)
	assert.Equal(t, 2, result.Completed)
	assert.Empty(t, launcher.launched)
}

func TestRunnerSkipsExistingOutput(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "done.hdf5")
	require.NoError(t, os.WriteFile(existing, nil, 0644))

	launcher := &fakeLauncher{}
	runner := newTestRunner(exec.ModeExecute, launcher)

	result := runner.Execute(context.Background(), []exec.Step{
		{ID: "done", Program: "fit", Creates: existing},
		{ID: "todo", Program: "fit", Creates: filepath.Join(dir, "todo.hdf5")},
	})

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Completed)
	assert.Equal(t, []string{"todo"}, launcher.launched)
	assert.Contains(t, result.StepResults[0].SkipReason, existing)
}

func TestRunnerFatalFailureStops(t *testing.T) {
	launcher := &fakeLauncher{failures: map[string]int{"fit": 3}}
	runner := newTestRunner(exec.ModeExecute, launcher)

	result := runner.Execute(context.Background(), []exec.Step{
		{ID: "fit", Program: "fit", Fatal: true},
		{ID: "plot", Program: "plot"},
	})

	assert.False(t, result.Success)
	assert.True(t, result.Aborted)
	assert.Equal(t, []string{"fit"}, launcher.launched)

	var stepErr *exec.StepError
	require.True(t, errors.As(result.Err(), &stepErr))
	assert.Equal(t, "fit", stepErr.StepID)
	assert.Equal(t, 3, stepErr.ExitCode)
}

func TestRunnerNonFatalFailureContinues(t *testing.T) {
	launcher := &fakeLauncher{failures: map[string]int{"plot": 1}}
	runner := newTestRunner(exec.ModeExecute, launcher)

	result := runner.Execute(context.Background(), []exec.Step{
		{ID: "plot", Program: "plot"},
		{ID: "impacts", Program: "impacts"},
	})

	assert.False(t, result.Success)
	assert.False(t, result.Aborted)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Completed)
	assert.Equal(t, []string{"plot", "impacts"}, launcher.launched)
	assert.Equal(t, "plot", result.FailedStep.StepID)
}

func TestRunnerCancelledContext(t *testing.T) {
	launcher := &fakeLauncher{}
	runner := newTestRunner(exec.ModeExecute, launcher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := runner.Execute(ctx, []exec.Step{{ID: "a", Program: "true"}})

	assert.True(t, result.Aborted)
	assert.False(t, result.Success)
	assert.Empty(t, launcher.launched)
}

func TestRunnerCallbacksAndStepLog(t *testing.T) {
	logDir := t.TempDir()
	var started, completed []string

	runner := exec.NewRunner(&exec.RunnerConfig{
		Mode:    exec.ModeExecute,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
		LogFile: func(id string) string { return filepath.Join(logDir, id+".log") },
		OnStepStart: func(step *exec.Step) {
			started = append(started, step.ID)
		},
		OnStepComplete: func(step *exec.Step, result *exec.StepResult) {
			completed = append(completed, step.ID)
		},
	}, nil)
	runner.SetLauncher(&fakeLauncher{})

	result := runner.Execute(context.Background(), []exec.Step{{ID: "ws", Program: "setup"}})
	require.True(t, result.Success)

	assert.Equal(t, []string{"ws"}, started)
	assert.Equal(t, []string{"ws"}, completed)

	data, err := os.ReadFile(filepath.Join(logDir, "ws.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "ok ws")
	assert.Equal(t, filepath.Join(logDir, "ws.log"), result.StepResults[0].LogFile)
}

func TestProcessLauncher(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	var out bytes.Buffer
	var launcher exec.ProcessLauncher

	code, err := launcher.Launch(context.Background(), &exec.Step{
		Program: "sh",
		Args:    []string{"-c", "echo $PDR_TEST_VALUE"},
		Env:     map[string]string{"PDR_TEST_VALUE": "hello"},
	}, &out, io.Discard)
	require.NoError(t, err)
	assert.Zero(t, code)
	assert.Equal(t, "hello\n", out.String())

	code, err = launcher.Launch(context.Background(), &exec.Step{
		Program: "sh",
		Args:    []string{"-c", "exit 7"},
	}, io.Discard, io.Discard)
	require.Error(t, err)
	assert.Equal(t, 7, code)
}

func TestProcessLauncherMissingProgram(t *testing.T) {
	var launcher exec.ProcessLauncher
	_, err := launcher.Launch(context.Background(), &exec.Step{Program: "pdr-no-such-tool"}, io.Discard, io.Discard)
	require.Error(t, err)
}

func TestRunnerTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sleep")
	}

	runner := exec.NewRunner(&exec.RunnerConfig{
		Mode:        exec.ModeExecute,
		StepTimeout: 200 * time.Millisecond,
		Stdout:      io.Discard,
		Stderr:      io.Discard,
	}, nil)

	result := runner.Execute(context.Background(), []exec.Step{
		{ID: "sleep", Program: "sleep", Args: []string{"10"}, Fatal: true},
	})

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.FailedStep.Error.Error(), "timed out")
	assert.Less(t, result.TotalTime, 5*time.Second)
}

func TestCommandLineQuoting(t *testing.T) {
	step := exec.Step{Program: "python3", Args: []string{"-o", "/out dir/x", "it's"}}
	assert.Equal(t, `python3 -o '/out dir/x' 'it'\''s'`, step.CommandLine())
}

func TestDryRunDisplay(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "ws.hdf5")
	require.NoError(t, os.WriteFile(existing, nil, 0644))

	output := exec.DryRunDisplay([]exec.Step{
		{ID: "workspace/ptll", Program: "python3", Creates: existing, Fatal: true},
		{ID: "plot/ptll/asimov/wide", Program: "python3"},
	})

	assert.Contains(t, output, "DRY-RUN MODE")
	assert.Contains(t, output, "[1] workspace/ptll (skip, output exists)")
	assert.Contains(t, output, "[2] plot/ptll/asimov/wide (run)")
	assert.Contains(t, output, "Fatal on failure")
}

func TestFormatStepResult(t *testing.T) {
	tests := []struct {
		name     string
		result   *exec.StepResult
		contains string
	}{
		{
			name:     "success",
			result:   &exec.StepResult{StepID: "test", Success: true, Duration: time.Second},
			contains: "✓",
		},
		{
			name:     "failed",
			result:   &exec.StepResult{StepID: "test", Error: errors.New("boom"), Duration: time.Second},
			contains: "✗ test: Failed - boom",
		},
		{
			name:     "skipped",
			result:   &exec.StepResult{StepID: "test", Skipped: true, Success: true, SkipReason: "output exists: x"},
			contains: "⊘ test: Skipped (output exists: x)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, exec.FormatStepResult(tt.result), tt.contains)
		})
	}
}

func TestExecutionResult(t *testing.T) {
	result := exec.NewExecutionResult()
	assert.True(t, result.Success)
	assert.NoError(t, result.Err())

	result.AddStepResult(&exec.StepResult{StepID: "step1", Success: true})
	result.AddStepResult(&exec.StepResult{StepID: "step2", ExitCode: 2})
	result.AddStepResult(&exec.StepResult{StepID: "step3", Skipped: true})

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Completed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 3, result.TotalSteps)
	assert.Contains(t, exec.FormatExecutionResult(result), "step2 (exit 2)")
}
