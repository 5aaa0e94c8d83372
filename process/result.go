package process

import (
	"fmt"
	"strings"
	"time"
)

// Result is what a finished tool run produced.
type Result struct {
	Stdout []byte
	Stderr []byte
	// ExitCode is -1 if the process was killed by a signal.
	ExitCode int
	Duration time.Duration
}

// Output returns stdout as a string.
func (r *Result) Output() string {
	if r == nil {
		return ""
	}
	return string(r.Stdout)
}

// ExitError reports a tool that did not exit cleanly.
type ExitError struct {
	Command string
	Code    int
	// Stderr is the trimmed diagnostic output, possibly empty.
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: exit code %d", e.Command, e.Code)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

func newExitError(cmd Command, res *Result, err error) *ExitError {
	return &ExitError{
		Command: cmd.Binary,
		Code:    res.ExitCode,
		Stderr:  strings.TrimSpace(string(res.Stderr)),
		Err:     err,
	}
}
