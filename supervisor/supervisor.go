package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/kbukum/annotpipe/logger"
)

// ExitStageCrashed is the host exit status after a stage crash.
const ExitStageCrashed = 64

// ExitFunc terminates the host.
type ExitFunc func(code int)

// Exit describes how a stage task ended.
type Exit struct {
	Stage string
	Index int
	Err   error
	// Panic holds the recovered value when the task panicked.
	Panic any
}

// Abnormal reports whether the task failed.
func (e Exit) Abnormal() bool {
	return e.Err != nil || e.Panic != nil
}

func (e Exit) String() string {
	switch {
	case e.Panic != nil:
		return fmt.Sprintf("stage %d (%s) panicked: %v", e.Index, e.Stage, e.Panic)
	case e.Err != nil:
		return fmt.Sprintf("stage %d (%s) failed: %v", e.Index, e.Stage, e.Err)
	default:
		return fmt.Sprintf("stage %d (%s) finished", e.Index, e.Stage)
	}
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithExitFunc replaces os.Exit.
func WithExitFunc(fn ExitFunc) Option {
	return func(s *Supervisor) { s.exit = fn }
}

// WithLogger sets the supervisor logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Supervisor) { s.log = l.WithComponent("supervisor") }
}

// Supervisor owns one handle per stage task.
type Supervisor struct {
	log  *logger.Logger
	exit ExitFunc

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	exits    chan Exit
	running  int
	wg       sync.WaitGroup
	exited   atomic.Int32
	stopping atomic.Bool
	crashed  atomic.Pointer[Exit]
	watching sync.Once
	done     chan struct{}
}

// New creates a supervisor for size tasks running under ctx.
func New(ctx context.Context, size int, opts ...Option) *Supervisor {
	if size < 1 {
		size = 1
	}
	s := &Supervisor{
		log:   logger.Nop(),
		exit:  os.Exit,
		exits: make(chan Exit, size),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	return s
}

// Go starts fn as the stage task at index. Tasks must be started before Watch.
func (s *Supervisor) Go(index int, name string, fn func(ctx context.Context) error) {
	s.mu.Lock()
	s.running++
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		e := Exit{Stage: name, Index: index}
		defer func() {
			if r := recover(); r != nil {
				e.Panic = r
				s.log.Error("stage panic", logger.Fields(
					logger.FieldStage, name,
					"stack", string(debug.Stack()),
				))
			}
			s.exited.Add(1)
			s.exits <- e
		}()
		s.log.Debug("stage started", logger.Fields(logger.FieldStage, name, logger.FieldStageIndex, index))
		e.Err = fn(s.ctx)
	}()
}

// Watch consumes exit notifications in the background.
func (s *Supervisor) Watch() {
	s.watching.Do(func() {
		s.mu.Lock()
		running := s.running
		s.mu.Unlock()
		go s.watch(running)
	})
}

func (s *Supervisor) watch(running int) {
	defer close(s.done)
	for i := 0; i < running; i++ {
		s.handle(<-s.exits)
	}
}

func (s *Supervisor) handle(e Exit) {
	if s.stopping.Load() {
		s.log.Debug("stage stopped", logger.Fields(logger.FieldStage, e.Stage, logger.FieldStageIndex, e.Index))
		return
	}
	if e.Err != nil && errors.Is(e.Err, context.Canceled) && s.ctx.Err() != nil {
		return
	}
	if !e.Abnormal() {
		s.log.Info("stage finished", logger.Fields(logger.FieldStage, e.Stage, logger.FieldStageIndex, e.Index))
		return
	}
	if !s.crashed.CompareAndSwap(nil, &e) {
		return
	}
	s.log.Error("stage crashed, terminating pipeline", logger.Fields(
		logger.FieldStage, e.Stage,
		logger.FieldStageIndex, e.Index,
		logger.FieldExitCode, ExitStageCrashed,
		logger.FieldError, e.String(),
	))
	s.cancel()
	s.exit(ExitStageCrashed)
}

// Running returns the number of tasks that have not returned yet.
func (s *Supervisor) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running - int(s.exited.Load())
}

// Crashed returns the first abnormal exit, or nil.
func (s *Supervisor) Crashed() *Exit {
	return s.crashed.Load()
}

// Context is cancelled when the supervisor stops or a stage crashes.
func (s *Supervisor) Context() context.Context {
	return s.ctx
}

// Stop cancels every task and waits for them to return.
func (s *Supervisor) Stop() {
	s.stopping.Store(true)
	s.cancel()
	s.wg.Wait()
}

// Done is closed once every watched task has been accounted for.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}
