package server

import (
	"time"

	"github.com/kbukum/annotpipe/server/endpoint"
)

// Routes are the collaborators behind the service endpoints.
type Routes struct {
	Service   string
	Annotator endpoint.Annotator
	Pipeline  endpoint.PipelineInfo
	Health    endpoint.HealthChecker
	// EventInterval paces job event streams; defaults to 100ms.
	EventInterval time.Duration
}

// RegisterRoutes registers the annotate API and the system endpoints.
func (s *Server) RegisterRoutes(r Routes) {
	name := r.Service
	if name == "" {
		name = s.service
	}
	if r.Annotator != nil {
		v1 := s.engine.Group("/v1")
		v1.POST("/annotate", endpoint.Annotate(r.Annotator))
		v1.GET("/jobs/:id", endpoint.Job(r.Annotator))
		interval := r.EventInterval
		if interval <= 0 {
			interval = 100 * time.Millisecond
		}
		v1.GET("/jobs/:id/events", endpoint.JobEvents(r.Annotator, interval, s.log))
	}
	s.engine.GET("/health", endpoint.Health(name, r.Health))
	s.engine.GET("/health/live", endpoint.Liveness(name))
	s.engine.GET("/health/ready", endpoint.Readiness(name, r.Health))
	s.engine.GET("/info", endpoint.Info(name, r.Pipeline))
	s.engine.GET("/metrics", endpoint.Metrics(r.Pipeline))
}
