package component

import "context"

// HealthStatus is a component's health state.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	// StatusDegraded serves requests but not at full capacity, e.g. a
	// pipeline that is rejecting work as busy.
	StatusDegraded HealthStatus = "degraded"
)

// Health is one component's answer to a health probe.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a long-lived part of the service owned by a Registry.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	// Stop must return once ctx is done even if resources are left behind.
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is a component's line in the startup summary.
type Description struct {
	// Name defaults to the component's Name().
	Name string
	// Type is "pipeline" or "server".
	Type string
	// Details such as "parse_plaintext stages=3 watermark=5".
	Details string
	Port    int
}

// Describable components appear in the startup summary.
type Describable interface {
	Describe() Description
}

// Route is one HTTP route listed in the startup summary.
type Route struct {
	Method  string
	Path    string
	Handler string
}

// RouteProvider is implemented by the server component.
type RouteProvider interface {
	Routes() []Route
}
