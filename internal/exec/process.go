// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// OS process launcher

package exec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// GracePeriod is how long an interrupted tool may take to exit before its
// process group is killed
const GracePeriod = 10 * time.Second

// ProcessLauncher runs steps as child processes in their own process group
type ProcessLauncher struct{}

// Launch implements Launcher
func (p *ProcessLauncher) Launch(ctx context.Context, step *Step, stdout, stderr io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, step.Program, step.Args...)
	cmd.Dir = step.Dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if len(step.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range step.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	setPlatformProcessGroup(cmd)
	cmd.Cancel = func() error {
		return interruptProcessGroup(cmd)
	}
	cmd.WaitDelay = GracePeriod

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", step.Program, err)
	}

	err := cmd.Wait()
	if ctx.Err() != nil {
		// reap anything left in the group after an interrupt
		_ = killProcessGroup(cmd)
	}
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			return 1, fmt.Errorf("%s terminated: %w", step.Program, err)
		}
		return code, fmt.Errorf("%s exited with code %d", step.Program, code)
	}
	return 1, fmt.Errorf("%s failed: %w", step.Program, err)
}
