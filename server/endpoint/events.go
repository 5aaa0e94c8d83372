package endpoint

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/annotpipe/errors"
	"github.com/kbukum/annotpipe/logger"
	"github.com/kbukum/annotpipe/observability"
	"github.com/kbukum/annotpipe/server/middleware"
	"github.com/kbukum/annotpipe/sse"
	"github.com/kbukum/annotpipe/validation"
)

// JobEvents handles GET /v1/jobs/:id/events. It streams a progress event each
// time the percentage changes and ends with a result or error event. Unknown
// jobs are answered with a plain JSON error before the stream opens.
func JobEvents(svc Annotator, interval time.Duration, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		include := false
		if appErr := validation.New().
			JobID("id", id).
			Flag("include_conllu", c.Query("include_conllu"), &include).
			Validate(); appErr != nil {
			RespondWithError(c, appErr)
			return
		}

		ctx := c.Request.Context()
		observability.OperationFrom(ctx).SetJob(id)
		first, err := svc.Progress(ctx, id, include)
		if err != nil {
			RespondWithError(c, err)
			return
		}

		stream, err := sse.Open(c.Writer, log)
		if err != nil {
			RespondWithError(c, apperrors.Internal(err))
			return
		}
		requestID := c.GetHeader(middleware.RequestIDHeader)

		last := -1
		pending := first
		_ = stream.Poll(ctx, interval, func(ctx context.Context) (sse.Event, bool) {
			res := pending
			pending = nil
			if res == nil {
				if res, err = svc.Progress(ctx, id, include); err != nil {
					return errorEvent(err, requestID), true
				}
			}
			if res.Annotations != nil {
				return sse.Event{Name: sse.EventResult, Data: DataResponse{Data: res}}, true
			}
			if res.Features == nil || res.Features.Progress == nil || *res.Features.Progress == last {
				return sse.Event{}, false
			}
			last = *res.Features.Progress
			return sse.Event{Name: sse.EventProgress, Data: res.Features}, false
		})
	}
}

func errorEvent(err error, requestID string) sse.Event {
	return sse.Event{Name: sse.EventError, Data: apperrors.From(err).ToResponse(requestID)}
}
