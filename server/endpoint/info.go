package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/annotpipe/pipeline"
	"github.com/kbukum/annotpipe/version"
)

var startTime = time.Now()

// PipelineInfo reports the running pipeline, typically annotator.Service.
type PipelineInfo interface {
	Stats() pipeline.Stats
	MaxChar() int
}

// Info reports build information and, when p is set, pipeline load.
func Info(serviceName string, p PipelineInfo) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"service":   serviceName,
			"build":     version.Get(),
			"uptime":    time.Since(startTime).Round(time.Second).String(),
			"timestamp": now(),
		}
		if p != nil {
			body["pipeline"] = gin.H{
				"stats":    p.Stats(),
				"max_char": p.MaxChar(),
			}
		}
		c.JSON(http.StatusOK, body)
	}
}
