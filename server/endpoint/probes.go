package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/annotpipe/component"
	"github.com/kbukum/annotpipe/observability"
	"github.com/kbukum/annotpipe/version"
)

// HealthChecker returns health status for registered components.
type HealthChecker func(ctx context.Context) []component.Health

func now() string { return time.Now().UTC().Format(time.RFC3339) }

func aggregate(ctx context.Context, service string, checker HealthChecker) *observability.ServiceHealth {
	sh := observability.NewServiceHealth(service, version.Get().Short())
	if checker != nil {
		for _, h := range checker(ctx) {
			sh.AddComponent(h)
		}
	}
	return sh
}

// Health lists every component. Degraded still answers 200; unhealthy
// answers 503.
func Health(service string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := aggregate(c.Request.Context(), service, checker)
		code := http.StatusOK
		if !sh.Healthy() {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"service":    sh.Service,
			"status":     sh.Status,
			"version":    sh.Version,
			"components": sh.Components,
			"timestamp":  now(),
		})
	}
}

// Liveness answers as long as the process serves HTTP.
func Liveness(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive", "service": service, "timestamp": now()})
	}
}

// Readiness answers 503 while any component is unhealthy, so a crashed
// pipeline stops receiving traffic.
func Readiness(service string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !aggregate(c.Request.Context(), service, checker).Healthy() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "service": service, "timestamp": now()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "service": service, "timestamp": now()})
	}
}
