package bootstrap

import (
	"context"
	"fmt"
)

// Hook is a lifecycle callback.
type Hook func(ctx context.Context) error

type phase int

const (
	phaseStart phase = iota
	phaseReady
	phaseStop
)

func (p phase) String() string {
	return [...]string{"start", "ready", "stop"}[p]
}

// OnStart registers hooks run after all components have started.
func (a *App[C]) OnStart(hooks ...Hook) { a.addHooks(phaseStart, hooks) }

// OnReady registers hooks run after the ready check, before the summary.
func (a *App[C]) OnReady(hooks ...Hook) { a.addHooks(phaseReady, hooks) }

// OnStop registers hooks run before components are stopped, such as
// releasing the pipeline lock file.
func (a *App[C]) OnStop(hooks ...Hook) { a.addHooks(phaseStop, hooks) }

func (a *App[C]) addHooks(p phase, hooks []Hook) {
	a.hooks[p] = append(a.hooks[p], hooks...)
}

// runHooks stops at the first failing hook.
func (a *App[C]) runHooks(ctx context.Context, p phase) error {
	for i, h := range a.hooks[p] {
		if err := h(ctx); err != nil {
			return fmt.Errorf("%s hook %d: %w", p, i, err)
		}
	}
	return nil
}
