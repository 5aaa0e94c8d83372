package stage

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownStage is returned when a pipeline names a stage nobody registered.
var ErrUnknownStage = errors.New("unknown stage")

// Factory builds a stage from its flag tokens.
type Factory func(args []string) (Stage, error)

// Registry maps stage names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Builtins returns a registry holding the built-in stages.
func Builtins() *Registry {
	r := NewRegistry()
	_ = r.Register("identity", NewIdentity)
	_ = r.Register("tokenize", NewTokenizer)
	_ = r.Register("exec", NewExec)
	return r
}

// Register adds a factory under name.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" {
		return fmt.Errorf("stage name is required")
	}
	if f == nil {
		return fmt.Errorf("stage %q: nil factory", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("stage %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

// New instantiates the stage registered under name.
func (r *Registry) New(name string, args []string) (Stage, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStage, name)
	}
	s, err := f(args)
	if err != nil {
		return nil, fmt.Errorf("stage %q: %w", name, err)
	}
	return s, nil
}

// Names lists registered stage names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
