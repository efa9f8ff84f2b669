// Package backup runs the worker pool that drains the job queue through the
// download-upload pipeline.
package backup

import (
	"context"
	"errors"

	"github.com/oshiworks/streamvault/internal/infrastructure/config"
	"github.com/oshiworks/streamvault/internal/models"
	"github.com/oshiworks/streamvault/internal/services"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/sync/errgroup"
)

// RunnerParams injects the runner's dependencies.
type RunnerParams struct {
	Jobs     *services.JobService
	Pipeline *services.PipelineService
	Config   config.Jobs
	Logger   log.Logger
}

// Runner owns the worker slots. Each slot dequeues one job at a time and
// holds exclusive ownership of it until a terminal state or requeue. The
// Runner plugs into the application lifecycle as a transport server.
type Runner struct {
	jobs     *services.JobService
	pipeline *services.PipelineService
	workers  int
	log      *log.Helper

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner constructs the worker pool.
func NewRunner(params RunnerParams) (*Runner, error) {
	switch {
	case params.Jobs == nil:
		return nil, errors.New("backup runner: job service is required")
	case params.Pipeline == nil:
		return nil, errors.New("backup runner: pipeline is required")
	case params.Config.Workers <= 0:
		return nil, errors.New("backup runner: worker count must be positive")
	}
	return &Runner{
		jobs:     params.Jobs,
		pipeline: params.Pipeline,
		workers:  params.Config.Workers,
		log:      log.NewHelper(params.Logger),
		done:     make(chan struct{}),
	}, nil
}

// Start launches the worker slots and blocks until Stop.
func (r *Runner) Start(ctx context.Context) error {
	ctx, r.cancel = context.WithCancel(ctx)
	defer close(r.done)

	r.log.Infof("backup workers starting: slots=%d", r.workers)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < r.workers; i++ {
		slot := i
		g.Go(func() error {
			r.work(gctx, slot)
			return nil
		})
	}
	return g.Wait()
}

// Stop signals the workers and waits for in-flight jobs to wind down.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// work is one worker slot's loop. Blocking happens only in Next and inside
// pipeline I/O.
func (r *Runner) work(ctx context.Context, slot int) {
	for {
		job, err := r.jobs.Next(ctx)
		if err != nil {
			return
		}
		r.process(ctx, slot, job)
	}
}

func (r *Runner) process(ctx context.Context, slot int, job *models.Job) {
	owned, err := r.jobs.Begin(job.ID)
	if err != nil {
		r.log.Warnf("dequeued unknown job: slot=%d id=%s", slot, job.ID)
		return
	}
	r.log.Infof("job started: slot=%d id=%s video=%s attempt=%d", slot, owned.ID, owned.VideoID, owned.Attempts)

	uri, err := r.pipeline.Execute(ctx, owned, r.jobs)
	if err != nil {
		class := services.ClassifyFailure(err)
		retrying := r.jobs.Fail(owned.ID, err, class)
		if !retrying && ctx.Err() == nil {
			r.log.Warnf("job terminal: slot=%d id=%s class=%s", slot, owned.ID, class)
		}
		return
	}
	r.jobs.Complete(owned.ID, uri)
}
