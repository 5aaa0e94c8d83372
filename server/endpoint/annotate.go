package endpoint

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/annotpipe/annotator"
	apperrors "github.com/kbukum/annotpipe/errors"
	"github.com/kbukum/annotpipe/observability"
	"github.com/kbukum/annotpipe/validation"
)

// Annotator is the service behind the annotate routes.
type Annotator interface {
	Annotate(ctx context.Context, req annotator.Request) (*annotator.Result, error)
	Progress(ctx context.Context, jobID string, includeConllu bool) (*annotator.Result, error)
}

// AnnotateRequest is the body of POST /v1/annotate.
type AnnotateRequest struct {
	Type    string         `json:"type" validate:"omitempty,oneof=text"`
	Content string         `json:"content"`
	Params  AnnotateParams `json:"params"`
}

// AnnotateParams are optional request parameters. A JobID turns the call
// into a progress query for a large job.
type AnnotateParams struct {
	IncludeConllu bool   `json:"includeConllu"`
	JobID         string `json:"job_id" validate:"omitempty,job_id"`
}

// Annotate handles POST /v1/annotate. Small inputs answer 200 with
// annotations; large inputs answer 202 with a job id.
func Annotate(svc Annotator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AnnotateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
			return
		}
		if err := validation.Validate(req); err != nil {
			RespondWithError(c, err)
			return
		}

		ctx := c.Request.Context()
		if req.Params.JobID != "" {
			respondProgress(c, svc, req.Params.JobID, req.Params.IncludeConllu)
			return
		}

		res, err := svc.Annotate(ctx, annotator.Request{
			Content:       req.Content,
			IncludeConllu: req.Params.IncludeConllu,
		})
		if err != nil {
			RespondWithError(c, err)
			return
		}
		if res.Annotations == nil {
			if res.Features != nil {
				observability.OperationFrom(ctx).SetJob(res.Features.JobID)
			}
			RespondAccepted(c, res)
			return
		}
		RespondOK(c, res)
	}
}

// Job handles GET /v1/jobs/:id. Query include_conllu=true adds raw output to
// the merged result.
func Job(svc Annotator) gin.HandlerFunc {
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
		respondProgress(c, svc, id, include)
	}
}

// respondProgress answers 202 while a job runs and 200 with the merged result.
func respondProgress(c *gin.Context, svc Annotator, id string, include bool) {
	ctx := c.Request.Context()
	observability.OperationFrom(ctx).SetJob(id)
	res, err := svc.Progress(ctx, id, include)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	if res.Annotations == nil {
		RespondAccepted(c, res)
		return
	}
	RespondOK(c, res)
}
