package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Run starts the tool in its own process group, writes stdin to it and
// waits. Cancelling ctx or reaching cmd.Timeout sends SIGTERM to the whole
// group; the group is killed once the grace period has passed. A non-zero
// exit is returned as *ExitError together with the partial Result.
func Run(ctx context.Context, cmd Command, stdin string) (*Result, error) {
	if cmd.Binary == "" {
		return nil, errors.New("process: binary is required")
	}
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // tools are named by the pipeline file
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	var stdout, stderr bytes.Buffer
	c.Stdin = strings.NewReader(stdin)
	c.Stdout, c.Stderr = &stdout, &stderr
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error { return KillGroup(c.Process.Pid, unix.SIGTERM) }
	c.WaitDelay = cmd.grace()

	start := time.Now()
	err := c.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}
	switch {
	case err == nil:
		return res, nil
	case ctx.Err() != nil:
		return res, fmt.Errorf("process: %s stopped: %w", cmd.Binary, ctx.Err())
	default:
		return res, newExitError(cmd, res, err)
	}
}

// KillGroup signals every process in the group led by pid.
func KillGroup(pid int, sig unix.Signal) error {
	if pid <= 0 {
		return fmt.Errorf("process: invalid pid %d", pid)
	}
	return unix.Kill(-pid, sig)
}
