package annotator

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/annotpipe/component"
	"github.com/kbukum/annotpipe/conllu"
	"github.com/kbukum/annotpipe/errors"
	"github.com/kbukum/annotpipe/logger"
	"github.com/kbukum/annotpipe/observability"
	"github.com/kbukum/annotpipe/pipeline"
	"github.com/kbukum/annotpipe/stage"
)

const componentName = "annotator"

// Engine is the pipeline surface the service needs.
type Engine interface {
	Parse(ctx context.Context, text string) (string, error)
	ParseLargeText(ctx context.Context, text string) (string, error)
	ReportLargeJob(ctx context.Context, compositeID string) (*pipeline.Report, error)
	Health() error
	Stats() pipeline.Stats
	Shutdown(ctx context.Context) error
}

// BuildFunc creates the engine when the service starts.
type BuildFunc func(ctx context.Context) (Engine, error)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l.WithComponent(componentName) }
}

// WithMetrics records operation metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithBuilder replaces the default engine builder.
func WithBuilder(fn BuildFunc) Option {
	return func(s *Service) { s.build = fn }
}

// Service annotates text through a running pipeline.
type Service struct {
	cfg     pipeline.Config
	log     *logger.Logger
	metrics *observability.Metrics
	build   BuildFunc

	mu     sync.RWMutex
	engine Engine
	// runCtx outlives Start so stages keep running after it returns.
	runCtx    context.Context
	runCancel context.CancelFunc
}

// NewService creates a service for cfg. By default Start builds the pipeline
// from cfg.SpecFile with reg, passing engine options through.
func NewService(cfg pipeline.Config, reg *stage.Registry, opts ...Option) *Service {
	cfg.ApplyDefaults()
	s := &Service{cfg: cfg, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.build == nil {
		s.build = func(ctx context.Context) (Engine, error) {
			engineOpts := []pipeline.Option{pipeline.WithLogger(s.log)}
			if s.metrics != nil {
				engineOpts = append(engineOpts, pipeline.WithObserver(observability.NewPipelineObserver(s.metrics, cfg.Name)))
			}
			return pipeline.Build(ctx, cfg, reg, engineOpts...)
		}
	}
	return s
}

// Name implements component.Component.
func (s *Service) Name() string { return componentName }

// Start builds and starts the pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	engine, err := s.build(runCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("building pipeline %q: %w", s.cfg.Name, err)
	}
	s.engine, s.runCtx, s.runCancel = engine, runCtx, cancel
	return nil
}

// Stop shuts the pipeline down, waiting for in-flight jobs until ctx ends.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	engine, cancel := s.engine, s.runCancel
	s.engine, s.runCancel = nil, nil
	s.mu.Unlock()
	if engine == nil {
		return nil
	}
	defer cancel()
	return engine.Shutdown(ctx)
}

// Health implements component.Component.
func (s *Service) Health(_ context.Context) component.Health {
	h := component.Health{Name: componentName, Status: component.StatusHealthy}
	engine := s.current()
	if engine == nil {
		h.Status, h.Message = component.StatusUnhealthy, "pipeline not started"
		return h
	}
	if err := engine.Health(); err != nil {
		h.Status, h.Message = component.StatusUnhealthy, err.Error()
		return h
	}
	st := engine.Stats()
	if inFlight := st.Outstanding - st.Pending; inFlight >= s.cfg.Watermark {
		h.Status, h.Message = component.StatusDegraded, fmt.Sprintf("%d jobs in flight", inFlight)
	}
	return h
}

// Describe implements component.Describable.
func (s *Service) Describe() component.Description {
	return component.Description{
		Name:    "Annotation pipeline",
		Type:    "pipeline",
		Details: fmt.Sprintf("%s queue=%d watermark=%d/%d max_char=%d", s.cfg.Name, s.cfg.QueueCapacity, s.cfg.Watermark, s.cfg.LargeWatermark, s.cfg.MaxChar),
	}
}

// Stats returns engine counters, or zero values before Start.
func (s *Service) Stats() pipeline.Stats {
	if engine := s.current(); engine != nil {
		return engine.Stats()
	}
	return pipeline.Stats{}
}

// MaxChar is the largest input annotated as a single job.
func (s *Service) MaxChar() int { return s.cfg.MaxChar }

func (s *Service) current() Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// Annotate handles one request. Empty content yields an empty document;
// content above MaxChar becomes a large job whose id is returned.
func (s *Service) Annotate(ctx context.Context, req Request) (*Result, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanAnnotate,
		attribute.Int(observability.AttrContentBytes, len(req.Content)))
	defer span.End()

	engine := s.current()
	if engine == nil {
		return nil, errors.ServiceUnavailable(componentName)
	}

	switch {
	case req.Content == "":
		return &Result{Annotations: conllu.Empty()}, nil
	case len(req.Content) > s.cfg.MaxChar:
		if !s.cfg.Chunking() {
			return nil, errors.TooLarge(len(req.Content), s.cfg.MaxChar)
		}
		return s.submitLarge(ctx, engine, req.Content)
	}

	start := time.Now()
	out, err := engine.Parse(ctx, req.Content)
	s.record(ctx, "parse", start, err)
	if err != nil {
		observability.FailSpan(ctx, err)
		return nil, s.translate(err)
	}

	ann, err := conllu.Decode(out, req.IncludeConllu)
	if err != nil {
		s.log.Error("decoding stage output failed", logger.ErrorFields("decode", err))
		s.record(ctx, "decode", start, err)
		return nil, s.translate(err)
	}
	return &Result{Annotations: ann}, nil
}

func (s *Service) submitLarge(ctx context.Context, engine Engine, content string) (*Result, error) {
	start := time.Now()
	id, err := engine.ParseLargeText(ctx, content)
	s.record(ctx, "submit_large", start, err)
	if err != nil {
		observability.FailSpan(ctx, err)
		return nil, s.translate(err)
	}
	observability.AddSpanAttributes(ctx, attribute.String(observability.AttrJobID, id))
	return &Result{Features: &Features{JobID: id}}, nil
}

// Progress reports a large job. Once every chunk is done the merged
// annotations are returned and the job is forgotten.
func (s *Service) Progress(ctx context.Context, jobID string, includeConllu bool) (*Result, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanProgress,
		attribute.String(observability.AttrJobID, jobID))
	defer span.End()

	engine := s.current()
	if engine == nil {
		return nil, errors.ServiceUnavailable(componentName)
	}

	report, err := engine.ReportLargeJob(ctx, jobID)
	if stderrors.Is(err, pipeline.ErrJobNotFound) {
		return nil, errors.NotFound("job", jobID).WithCause(err)
	}
	if err != nil {
		return nil, s.translate(err)
	}
	if !report.Done {
		pct := report.Percent
		return &Result{Features: &Features{
			Progress:       &pct,
			ProgressReport: fmt.Sprintf("Progress: %d percent", pct),
		}}, nil
	}

	parts := make([]conllu.Part, len(report.Results))
	for i, r := range report.Results {
		ann, err := conllu.Decode(r.Output, includeConllu)
		if err != nil {
			s.log.Error("decoding chunk output failed", logger.Fields(
				logger.FieldCompositeID, jobID,
				"chunk", i,
				logger.FieldError, err.Error(),
			))
			return nil, s.translate(err)
		}
		parts[i] = conllu.Part{Offset: r.Offset, Annotations: ann}
	}
	merged, counts := conllu.Merge(parts)
	return &Result{Annotations: merged, Features: &Features{Counts: counts}}, nil
}

func (s *Service) record(ctx context.Context, op string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
		s.metrics.RecordError(ctx, errorType(err), componentName)
	}
	s.metrics.RecordOperation(ctx, componentName, op, status, time.Since(start))
}

// translate maps engine and decoder errors onto application errors.
func (s *Service) translate(err error) *errors.AppError {
	var appErr *errors.AppError
	switch {
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, pipeline.ErrBusy):
		return errors.Busy(s.Stats().Outstanding).WithCause(err)
	case stderrors.Is(err, pipeline.ErrJobNotFound):
		return errors.NotFound("job", "").WithCause(err)
	case stderrors.Is(err, pipeline.ErrEmptyInput):
		return errors.InvalidInput("content", "must contain text")
	case stderrors.Is(err, pipeline.ErrClosed):
		return errors.ServiceUnavailable(componentName).WithCause(err)
	case stderrors.Is(err, conllu.ErrMalformed):
		return errors.DecodeFailed(err)
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, context.Canceled):
		return errors.Timeout("annotate").WithCause(err)
	default:
		return errors.Internal(err)
	}
}

func errorType(err error) string {
	switch {
	case stderrors.Is(err, pipeline.ErrBusy):
		return "busy"
	case stderrors.Is(err, conllu.ErrMalformed):
		return "decode"
	case stderrors.Is(err, pipeline.ErrJobNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
