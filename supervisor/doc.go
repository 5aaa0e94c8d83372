// Package supervisor watches the pipeline's stage tasks. Every stage runs in a
// goroutine owned by a Supervisor; when one ends abnormally before Stop the
// supervisor logs which stage failed, cancels the remaining stages and
// terminates the host with ExitStageCrashed.
package supervisor
