package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/annotpipe/logger"
	"github.com/kbukum/annotpipe/queue"
	"github.com/kbukum/annotpipe/stage"
	"github.com/kbukum/annotpipe/supervisor"
)

var (
	// ErrNotReady means the requested result has not come off the chain yet.
	ErrNotReady = errors.New("pipeline: result not ready")
	// ErrClosed is returned once the end-of-stream marker has been sent or seen.
	ErrClosed = errors.New("pipeline: closed")
	// ErrBusy rejects work while too many jobs are unclaimed.
	ErrBusy = errors.New("pipeline: busy")
	// ErrJobNotFound is returned for unknown or already collected composite jobs.
	ErrJobNotFound = errors.New("pipeline: job not found")
	// ErrEmptyInput is returned when a large input has no content to chunk.
	ErrEmptyInput = errors.New("pipeline: empty input")
)

// Observer receives engine events, typically to feed metrics.
type Observer interface {
	JobsSubmitted(ctx context.Context, n int)
	JobsClaimed(ctx context.Context, n int)
	Rejected(ctx context.Context, kind string)
}

type nopObserver struct{}

func (nopObserver) JobsSubmitted(context.Context, int) {}
func (nopObserver) JobsClaimed(context.Context, int)   {}
func (nopObserver) Rejected(context.Context, string)   {}

// Option configures an Engine.
type Option func(*options)

type options struct {
	log      *logger.Logger
	observer Observer
	supOpts  []supervisor.Option
}

// WithLogger sets the engine logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithObserver registers an event observer.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithSupervisorOptions passes options to the stage supervisor.
func WithSupervisorOptions(opts ...supervisor.Option) Option {
	return func(o *options) { o.supOpts = append(o.supOpts, opts...) }
}

type chunkGroup struct {
	ids     []string
	offsets []int
}

// Engine runs one pipeline and correlates its results.
type Engine struct {
	cfg  Config
	spec Spec
	log  *logger.Logger
	obs  Observer
	sup  *supervisor.Supervisor

	head *queue.Bus
	tail *queue.Bus

	mu          sync.Mutex
	pending     map[string]string
	outstanding int
	groups      map[string]*chunkGroup
	composite   *compositeIDs
	finalSent   bool
	tailClosed  bool
}

// Build loads cfg.SpecFile, picks the pipeline named cfg.Name and starts it.
func Build(ctx context.Context, cfg Config, reg *stage.Registry, opts ...Option) (*Engine, error) {
	cfg.ApplyDefaults()
	if cfg.SpecFile == "" {
		return nil, fmt.Errorf("pipeline.spec_file is required")
	}
	set, err := LoadSpecFile(cfg.SpecFile)
	if err != nil {
		return nil, err
	}
	spec, err := set.Get(cfg.Name)
	if err != nil {
		return nil, err
	}
	return BuildSpec(ctx, cfg, spec, reg, opts...)
}

// BuildSpec instantiates every stage of spec and starts the chain. No stage
// is started unless all of them could be built.
func BuildSpec(ctx context.Context, cfg Config, spec Spec, reg *stage.Registry, opts ...Option) (*Engine, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{observer: nopObserver{}, log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	spec, err := spec.WithExtraArgs(cfg.ExtraArgs)
	if err != nil {
		return nil, err
	}

	stages := make([]stage.Stage, len(spec.Stages))
	for i, st := range spec.Stages {
		s, err := reg.New(st.Name, st.Args)
		if err != nil {
			return nil, fmt.Errorf("building stage %d of pipeline %q: %w", i, spec.Name, err)
		}
		stages[i] = s
	}

	buses := make([]*queue.Bus, len(stages)+1)
	for i := range buses {
		buses[i] = queue.New(fmt.Sprintf("%s[%d]", spec.Name, i), cfg.QueueCapacity)
	}

	log := o.log.WithComponent("pipeline")
	e := &Engine{
		cfg:       cfg,
		spec:      spec,
		log:       log,
		obs:       o.observer,
		head:      buses[0],
		tail:      buses[len(stages)],
		pending:   make(map[string]string),
		groups:    make(map[string]*chunkGroup),
		composite: newCompositeIDs(),
	}

	supOpts := append([]supervisor.Option{supervisor.WithLogger(o.log)}, o.supOpts...)
	e.sup = supervisor.New(ctx, len(stages), supOpts...)
	for i, s := range stages {
		s, in, out := s, buses[i], buses[i+1]
		e.sup.Go(i, spec.Stages[i].Name, func(ctx context.Context) error {
			return s.Run(ctx, in, out)
		})
	}
	e.sup.Watch()

	log.Info("pipeline started", logger.Fields(
		"pipeline", spec.Name,
		"stages", len(stages),
		"queue_capacity", cfg.QueueCapacity,
	))
	return e, nil
}

// Spec returns the running pipeline definition.
func (e *Engine) Spec() Spec { return e.spec }

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Submit enqueues text as a new job and returns its id. It blocks only while
// the head queue is full.
func (e *Engine) Submit(ctx context.Context, text string) (string, error) {
	e.mu.Lock()
	if e.finalSent {
		e.mu.Unlock()
		return "", ErrClosed
	}
	id := newJobID(text)
	e.outstanding++
	e.mu.Unlock()

	if err := e.head.Put(ctx, queue.Message{ID: id, Payload: text}); err != nil {
		e.mu.Lock()
		e.outstanding--
		e.mu.Unlock()
		return "", fmt.Errorf("submitting job: %w", err)
	}
	e.obs.JobsSubmitted(ctx, 1)
	e.log.Debug("job submitted", logger.Fields(logger.FieldJobID, id, "bytes", len(text)))
	return id, nil
}

// SubmitFinal sends the end-of-stream marker. Later submissions fail with
// ErrClosed.
func (e *Engine) SubmitFinal(ctx context.Context) error {
	e.mu.Lock()
	if e.finalSent {
		e.mu.Unlock()
		return nil
	}
	e.finalSent = true
	e.mu.Unlock()
	return e.head.Put(ctx, queue.Final())
}

// Retrieve claims the result of job id. When a different job's result comes
// off the tail it is kept for its owner and ErrNotReady is returned; callers
// retry. Each result is handed out exactly once.
func (e *Engine) Retrieve(ctx context.Context, id string) (string, error) {
	e.mu.Lock()
	if payload, ok := e.pending[id]; ok {
		delete(e.pending, id)
		e.outstanding--
		e.mu.Unlock()
		e.obs.JobsClaimed(ctx, 1)
		return payload, nil
	}
	if e.tailClosed {
		e.mu.Unlock()
		return "", ErrClosed
	}
	e.mu.Unlock()

	msg, err := e.tail.GetWithin(ctx, e.cfg.PollInterval)
	if errors.Is(err, queue.ErrEmpty) {
		return "", ErrNotReady
	}
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case msg.IsFinal():
		e.tailClosed = true
		return "", ErrClosed
	case msg.ID == id:
		e.outstanding--
		e.obs.JobsClaimed(ctx, 1)
		return msg.Payload, nil
	default:
		e.pending[msg.ID] = msg.Payload
		return "", ErrNotReady
	}
}

// RetrieveAny blocks for the next result off the tail, whatever its id.
func (e *Engine) RetrieveAny(ctx context.Context) (queue.Message, error) {
	e.mu.Lock()
	closed := e.tailClosed
	e.mu.Unlock()
	if closed {
		return queue.Message{}, ErrClosed
	}

	msg, err := e.tail.Get(ctx)
	if err != nil {
		return queue.Message{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if msg.IsFinal() {
		e.tailClosed = true
		return queue.Message{}, ErrClosed
	}
	e.outstanding--
	e.obs.JobsClaimed(ctx, 1)
	return msg, nil
}

// Parse runs text through the chain and waits for its result. It returns
// ErrBusy without submitting when too many jobs are unclaimed.
func (e *Engine) Parse(ctx context.Context, text string) (string, error) {
	if err := e.admit(ctx, 1, e.cfg.Watermark, "parse"); err != nil {
		return "", err
	}
	id, err := e.Submit(ctx, text)
	if err != nil {
		return "", err
	}
	for {
		out, err := e.Retrieve(ctx, id)
		if !errors.Is(err, ErrNotReady) {
			return out, err
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
}

// admit drains finished results off the tail, then rejects the request if
// n more jobs would push in-flight work above watermark.
func (e *Engine) admit(ctx context.Context, n, watermark int, kind string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finalSent {
		return ErrClosed
	}
	e.drainLocked()
	inFlight := e.outstanding - len(e.pending)
	if n+inFlight <= watermark {
		return nil
	}
	e.obs.Rejected(ctx, kind)
	e.log.Warn("pipeline busy, rejecting request", logger.Fields(
		logger.FieldOperation, kind,
		logger.FieldOutstanding, e.outstanding,
		"in_flight", inFlight,
		"requested", n,
		"watermark", watermark,
	))
	return fmt.Errorf("%w: %d jobs in flight", ErrBusy, inFlight)
}

// drainLocked moves every result already on the tail into pending.
func (e *Engine) drainLocked() {
	if e.tailClosed {
		return
	}
	for {
		msg, err := e.tail.TryGet()
		if err != nil {
			return
		}
		if msg.IsFinal() {
			e.tailClosed = true
			return
		}
		e.pending[msg.ID] = msg.Payload
	}
}

// ParseLargeText chunks text and submits every chunk, returning a composite
// id for ReportLargeJob.
func (e *Engine) ParseLargeText(ctx context.Context, text string) (string, error) {
	chunks := ChunkPlainText(text, e.cfg.MaxChar)
	if len(chunks) == 0 {
		return "", ErrEmptyInput
	}
	if err := e.admit(ctx, len(chunks), e.cfg.LargeWatermark, "large"); err != nil {
		return "", err
	}

	g := &chunkGroup{
		ids:     make([]string, 0, len(chunks)),
		offsets: make([]int, 0, len(chunks)),
	}
	for _, c := range chunks {
		id, err := e.Submit(ctx, c.Text)
		if err != nil {
			return "", err
		}
		g.ids = append(g.ids, id)
		g.offsets = append(g.offsets, c.Offset)
	}

	e.mu.Lock()
	compositeID := e.composite.next()
	e.groups[compositeID] = g
	e.mu.Unlock()

	e.log.Info("large job submitted", logger.Fields(
		logger.FieldCompositeID, compositeID,
		"chunks", len(chunks),
		"bytes", len(text),
	))
	return compositeID, nil
}

// ChunkResult is one chunk's output and where the chunk began in the input.
type ChunkResult struct {
	Offset int
	Output string
}

// Report describes a composite job. Results is set, in chunk order, only
// when Done.
type Report struct {
	Done     bool
	Percent  int
	Finished int
	Total    int
	Results  []ChunkResult
}

// ReportLargeJob returns progress for compositeID, or every chunk result once
// all chunks are finished. Collected jobs are forgotten.
func (e *Engine) ReportLargeJob(ctx context.Context, compositeID string) (*Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.drainLocked()

	g, ok := e.groups[compositeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, compositeID)
	}
	finished := 0
	for _, id := range g.ids {
		if _, ok := e.pending[id]; ok {
			finished++
		}
	}
	total := len(g.ids)
	if finished < total {
		return &Report{Percent: 100 * finished / total, Finished: finished, Total: total}, nil
	}

	results := make([]ChunkResult, total)
	for i, id := range g.ids {
		results[i] = ChunkResult{Offset: g.offsets[i], Output: e.pending[id]}
		delete(e.pending, id)
	}
	e.outstanding -= total
	delete(e.groups, compositeID)
	e.obs.JobsClaimed(ctx, total)
	e.log.Info("large job completed", logger.Fields(logger.FieldCompositeID, compositeID, "chunks", total))
	return &Report{Done: true, Percent: 100, Finished: total, Total: total, Results: results}, nil
}

// Stats is a snapshot of the engine's bookkeeping.
type Stats struct {
	Stages      int `json:"stages"`
	Running     int `json:"running"`
	Outstanding int `json:"outstanding"`
	Pending     int `json:"pending"`
	LargeJobs   int `json:"large_jobs"`
}

// Stats returns current counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Stages:      len(e.spec.Stages),
		Running:     e.sup.Running(),
		Outstanding: e.outstanding,
		Pending:     len(e.pending),
		LargeJobs:   len(e.groups),
	}
}

// Health reports an error once any stage has stopped.
func (e *Engine) Health() error {
	if c := e.sup.Crashed(); c != nil {
		return fmt.Errorf("pipeline %q: %s", e.spec.Name, c)
	}
	if running, total := e.sup.Running(), len(e.spec.Stages); running < total {
		return fmt.Errorf("pipeline %q: %d of %d stages running", e.spec.Name, running, total)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finalSent {
		return fmt.Errorf("pipeline %q: %w", e.spec.Name, ErrClosed)
	}
	return nil
}

// Shutdown sends the end-of-stream marker and waits for every stage to
// finish, keeping the tail drained meanwhile. Stages still running when ctx
// ends are cancelled.
func (e *Engine) Shutdown(ctx context.Context) error {
	defer e.sup.Stop()

	final := make(chan error, 1)
	go func() { final <- e.SubmitFinal(ctx) }()

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case err := <-final:
			if err != nil {
				return err
			}
			final = nil
		case <-e.sup.Done():
			e.log.Info("pipeline stopped", logger.Fields("pipeline", e.spec.Name))
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.mu.Lock()
			e.drainLocked()
			e.mu.Unlock()
		}
	}
}
