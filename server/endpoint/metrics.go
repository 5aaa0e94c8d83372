package endpoint

import (
	"net/http"
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
)

// Metrics is a JSON snapshot of pipeline load and Go runtime memory. The
// OTLP exporter carries the same request counters when enabled.
func Metrics(p PipelineInfo) gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		body := gin.H{
			"timestamp":  now(),
			"goroutines": runtime.NumGoroutine(),
			"memory": gin.H{
				"alloc":       humanize.IBytes(m.Alloc),
				"sys":         humanize.IBytes(m.Sys),
				"alloc_bytes": m.Alloc,
				"gc_runs":     m.NumGC,
			},
		}
		if p != nil {
			st := p.Stats()
			body["pipeline"] = gin.H{
				"stages_running": st.Running,
				"outstanding":    st.Outstanding,
				"pending":        st.Pending,
				"large_jobs":     st.LargeJobs,
			}
		}
		c.JSON(http.StatusOK, body)
	}
}
