package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/annotpipe/logger"
)

// DefaultStopTimeout bounds each component's Stop.
const DefaultStopTimeout = 10 * time.Second

// Registry starts components in registration order and stops them in
// reverse. A failed StartAll stops whatever it had already started.
type Registry struct {
	mu          sync.RWMutex
	components  []Component
	started     map[string]bool
	stopTimeout time.Duration
	log         *logger.Logger
}

// NewRegistry returns an empty registry logging to log; nil discards.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		started:     make(map[string]bool),
		stopTimeout: DefaultStopTimeout,
		log:         log.WithComponent("registry"),
	}
}

// SetStopTimeout overrides the per-component stop bound; d <= 0 is ignored.
func (r *Registry) SetStopTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d > 0 {
		r.stopTimeout = d
	}
}

// Register appends c. Dependencies must be registered first.
func (r *Registry) Register(c Component) error {
	if c == nil {
		return errors.New("component is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(c.Name()) >= 0 {
		return fmt.Errorf("component %s already registered", c.Name())
	}
	r.components = append(r.components, c)
	r.log.Debug("component registered", logger.Fields(logger.FieldComponent, c.Name()))
	return nil
}

func (r *Registry) indexOf(name string) int {
	for i, c := range r.components {
		if c.Name() == name {
			return i
		}
	}
	return -1
}

// StartAll starts every component in order. On the first failure the
// components started so far are stopped again and the failure is returned.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.components {
		if r.started[c.Name()] {
			continue
		}
		if err := c.Start(ctx); err != nil {
			r.log.Error("component failed to start", logger.Fields(logger.FieldComponent, c.Name(), logger.FieldError, err.Error()))
			startErr := fmt.Errorf("start %s: %w", c.Name(), err)
			if stopErr := r.stopStarted(context.WithoutCancel(ctx)); stopErr != nil {
				return errors.Join(startErr, stopErr)
			}
			return startErr
		}
		r.started[c.Name()] = true
		r.log.Debug("component started", logger.Fields(logger.FieldComponent, c.Name()))
	}
	r.log.Info("components started", logger.Fields("count", len(r.components)))
	return nil
}

// StopAll stops the started components in reverse order, giving each at
// most the stop timeout, and joins their errors.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopStarted(ctx)
}

func (r *Registry) stopStarted(ctx context.Context) error {
	var errs []error
	for i := len(r.components) - 1; i >= 0; i-- {
		c := r.components[i]
		if !r.started[c.Name()] {
			continue
		}
		stopCtx, cancel := context.WithTimeout(ctx, r.stopTimeout)
		err := c.Stop(stopCtx)
		cancel()
		delete(r.started, c.Name())
		if err != nil {
			r.log.Error("component failed to stop", logger.Fields(logger.FieldComponent, c.Name(), logger.FieldError, err.Error()))
			errs = append(errs, fmt.Errorf("stop %s: %w", c.Name(), err))
			continue
		}
		r.log.Info("component stopped", logger.Fields(logger.FieldComponent, c.Name()))
	}
	return errors.Join(errs...)
}

// HealthAll probes every component in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Health, 0, len(r.components))
	for _, c := range r.components {
		out = append(out, c.Health(ctx))
	}
	return out
}

// Get returns the component registered as name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(name); i >= 0 {
		return r.components[i]
	}
	return nil
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Component(nil), r.components...)
}

// Routes collects the routes of every RouteProvider.
func (r *Registry) Routes() []Route {
	var routes []Route
	for _, c := range r.All() {
		if rp, ok := c.(RouteProvider); ok {
			routes = append(routes, rp.Routes()...)
		}
	}
	return routes
}

// Descriptions collects the summaries of every Describable component.
func (r *Registry) Descriptions() []Description {
	var out []Description
	for _, c := range r.All() {
		d, ok := c.(Describable)
		if !ok {
			continue
		}
		desc := d.Describe()
		if desc.Name == "" {
			desc.Name = c.Name()
		}
		out = append(out, desc)
	}
	return out
}
