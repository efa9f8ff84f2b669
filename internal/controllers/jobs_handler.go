package controllers

import (
	"errors"

	"github.com/oshiworks/streamvault/internal/controllers/dto"
	"github.com/oshiworks/streamvault/internal/services"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// JobsHandler exposes job submission and the status registry.
type JobsHandler struct {
	*BaseHandler
	jobs *services.JobService
}

// NewJobsHandler constructs the handler.
func NewJobsHandler(base *BaseHandler, jobs *services.JobService) *JobsHandler {
	return &JobsHandler{BaseHandler: base, jobs: jobs}
}

// Register mounts the routes.
func (h *JobsHandler) Register(r *khttp.Router) {
	r.POST("/download", h.Submit)
	r.GET("/status/{jobId}", h.Status)
	r.GET("/jobs", h.List)
}

// Submit accepts a single request or a batch and returns job ids without
// waiting for any pipeline work. Batch items are validated independently;
// a single malformed request is rejected outright.
func (h *JobsHandler) Submit(ctx khttp.Context) error {
	var req dto.SubmitRequest
	if err := ctx.Bind(&req); err != nil {
		return kerrors.BadRequest(reasonValidation, err.Error())
	}
	if len(req.Items) == 0 {
		return kerrors.BadRequest(reasonValidation, services.ErrEmptySubmission.Error())
	}

	tctx, cancel := h.WithTimeout(ctx, KindCommand)
	defer cancel()

	outcomes := h.jobs.Submit(tctx, req.Items)

	if !req.Batch {
		if outcomes[0].Err != nil {
			return toTransportError(outcomes[0].Err)
		}
		return ctx.Result(200, outcomes[0].Job)
	}

	results := make([]dto.SubmitResult, len(outcomes))
	for i, out := range outcomes {
		results[i] = dto.NewSubmitResult(req.Items[i], out.Job, out.Err)
	}
	return ctx.Result(200, results)
}

// Status returns the latest committed record for a job id.
func (h *JobsHandler) Status(ctx khttp.Context) error {
	id := ctx.Vars().Get("jobId")

	tctx, cancel := h.WithTimeout(ctx, KindQuery)
	defer cancel()

	job, err := h.jobs.Status(tctx, id)
	if err != nil {
		if errors.Is(err, services.ErrJobNotFound) {
			return kerrors.NotFound(reasonJobNotFound, "job not found: "+id)
		}
		return toTransportError(err)
	}
	return ctx.Result(200, job)
}

// List returns all jobs in insertion order.
func (h *JobsHandler) List(ctx khttp.Context) error {
	tctx, cancel := h.WithTimeout(ctx, KindQuery)
	defer cancel()
	return ctx.Result(200, h.jobs.List(tctx))
}
