// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Unix process group handling so interrupts reach every child of a tool

//go:build !windows

package exec

import (
	"errors"
	"os/exec"
	"syscall"
)

// setPlatformProcessGroup runs the tool in its own process group. Wrappers
// such as singularity fork further children that must receive the signal too.
func setPlatformProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// killProcessGroup sends SIGKILL to the whole group. The group ID equals the
// leader's PID because of Setpgid, so this still works after the leader exited.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}

// interruptProcessGroup sends SIGINT to the group so tools can flush output
func interruptProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGINT); err != nil {
		return cmd.Process.Signal(syscall.SIGINT)
	}
	return nil
}
