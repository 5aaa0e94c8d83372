package queue

import (
	"context"
	"errors"
	"time"
)

// DefaultCapacity matches the per-edge bound used by the pipeline engine.
const DefaultCapacity = 5

var (
	// ErrFull is returned by TryPut when the bus is at capacity.
	ErrFull = errors.New("queue: full")
	// ErrEmpty is returned by TryGet and GetWithin when nothing is queued.
	ErrEmpty = errors.New("queue: empty")
)

// Bus is a bounded FIFO channel between two pipeline stages.
type Bus struct {
	name string
	ch   chan Message
}

// New creates a bus holding at most capacity messages.
func New(name string, capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{name: name, ch: make(chan Message, capacity)}
}

// Name identifies the bus in logs.
func (b *Bus) Name() string { return b.name }

// Cap returns the bus capacity.
func (b *Bus) Cap() int { return cap(b.ch) }

// Len returns the number of queued messages.
func (b *Bus) Len() int { return len(b.ch) }

// Put enqueues m, blocking while the bus is full.
func (b *Bus) Put(ctx context.Context, m Message) error {
	select {
	case b.ch <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPut enqueues m without blocking.
func (b *Bus) TryPut(m Message) error {
	select {
	case b.ch <- m:
		return nil
	default:
		return ErrFull
	}
}

// Get dequeues the next message, blocking while the bus is empty.
func (b *Bus) Get(ctx context.Context) (Message, error) {
	select {
	case m := <-b.ch:
		return m, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// TryGet dequeues the next message without blocking.
func (b *Bus) TryGet() (Message, error) {
	select {
	case m := <-b.ch:
		return m, nil
	default:
		return Message{}, ErrEmpty
	}
}

// GetWithin waits at most d for a message.
func (b *Bus) GetWithin(ctx context.Context, d time.Duration) (Message, error) {
	if d <= 0 {
		return b.TryGet()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case m := <-b.ch:
		return m, nil
	case <-timer.C:
		return Message{}, ErrEmpty
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}
