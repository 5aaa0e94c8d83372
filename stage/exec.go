package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/annotpipe/process"
	"github.com/kbukum/annotpipe/queue"
)

// ExecStage pipes each payload through an external tool. The tool's stdout
// becomes the new payload; a failing tool fails the stage.
type ExecStage struct {
	cmd process.Command
}

// NewExec builds an exec stage from --cmd, repeated --arg, --dir, --env,
// --timeout and --grace flags.
func NewExec(args []string) (Stage, error) {
	fs := newFlagSet("exec")
	binary := fs.String("cmd", "", "executable to run for every job")
	toolArgs := fs.StringArray("arg", nil, "argument passed to the executable (repeatable)")
	dir := fs.String("dir", "", "working directory")
	env := fs.StringArray("env", nil, "extra KEY=VALUE environment entry (repeatable)")
	timeout := fs.Duration("timeout", 0, "per-job timeout")
	grace := fs.Duration("grace", 5*time.Second, "delay between SIGTERM and SIGKILL")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	if *binary == "" {
		return nil, fmt.Errorf("--cmd is required")
	}
	return &ExecStage{
		cmd: process.Command{
			Binary:      *binary,
			Args:        *toolArgs,
			Dir:         *dir,
			Env:         *env,
			Timeout:     *timeout,
			GracePeriod: *grace,
		},
	}, nil
}

// Command returns the configured tool invocation.
func (s *ExecStage) Command() process.Command { return s.cmd }

// Run implements Stage.
func (s *ExecStage) Run(ctx context.Context, in, out *queue.Bus) error {
	return Loop(ctx, in, out, s.transform)
}

func (s *ExecStage) transform(ctx context.Context, payload string) (string, error) {
	res, err := process.Run(ctx, s.cmd, payload)
	if err != nil {
		return "", err
	}
	return res.Output(), nil
}
