package stage

import (
	"context"
	"fmt"

	"github.com/kbukum/annotpipe/queue"
)

// Stage is one link of the processing chain.
type Stage interface {
	// Run consumes in until the end-of-stream marker, writing one output
	// message per input message to out.
	Run(ctx context.Context, in, out *queue.Bus) error
}

// Transform maps one payload to one payload.
type Transform func(ctx context.Context, payload string) (string, error)

// Func adapts a Transform into a Stage.
type Func Transform

// Run implements Stage.
func (f Func) Run(ctx context.Context, in, out *queue.Bus) error {
	return Loop(ctx, in, out, Transform(f))
}

// Loop drives fn over in, preserving ids and order. It returns nil once the
// end-of-stream marker has been forwarded.
func Loop(ctx context.Context, in, out *queue.Bus, fn Transform) error {
	for {
		msg, err := in.Get(ctx)
		if err != nil {
			return err
		}
		if msg.IsFinal() {
			return out.Put(ctx, msg)
		}
		result, err := fn(ctx, msg.Payload)
		if err != nil {
			return fmt.Errorf("job %s: %w", msg.ID, err)
		}
		if err := out.Put(ctx, queue.Message{ID: msg.ID, Payload: result}); err != nil {
			return err
		}
	}
}
