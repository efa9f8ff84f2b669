package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/oshiworks/streamvault/internal/infrastructure/config"
	"github.com/oshiworks/streamvault/internal/models"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// JobService owns the job registry and the bounded FIFO submission queue.
// Records are retained for the process lifetime; mutation goes through this
// type only, guarded by a single registry lock. Ownership of a dequeued job
// belongs exclusively to the worker that received it from Next.
type JobService struct {
	cfg config.Jobs
	log *log.Helper
	now func() time.Time

	mu    sync.RWMutex
	jobs  map[string]*models.Job
	order []string

	queue chan string

	// requeue is overridable in tests to make backoff deterministic.
	requeue func(d time.Duration, fn func())
}

// NewJobService builds the orchestrator with the configured queue capacity.
func NewJobService(cfg config.Jobs, logger log.Logger) (*JobService, error) {
	if cfg.QueueCapacity <= 0 {
		return nil, errors.New("job service: queue capacity must be positive")
	}
	if cfg.MaxRetries < 0 {
		return nil, errors.New("job service: max retries must not be negative")
	}
	return &JobService{
		cfg:   cfg,
		log:   log.NewHelper(logger),
		now:   time.Now,
		jobs:  make(map[string]*models.Job),
		queue: make(chan string, cfg.QueueCapacity),
		requeue: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}, nil
}

// SubmitOutcome is the per-item result of a batch submission. Exactly one of
// Job and Err is set.
type SubmitOutcome struct {
	Job *models.Job
	Err error
}

// Submit validates and enqueues each request. Validation and capacity are
// applied per item: a rejected item never poisons the rest of the batch.
// Accepted jobs are visible to Status before Submit returns.
func (s *JobService) Submit(ctx context.Context, reqs []models.JobRequest) []SubmitOutcome {
	outcomes := make([]SubmitOutcome, 0, len(reqs))
	for _, req := range reqs {
		job, err := s.submitOne(req)
		if err != nil {
			outcomes = append(outcomes, SubmitOutcome{Err: err})
			continue
		}
		outcomes = append(outcomes, SubmitOutcome{Job: job})
	}
	return outcomes
}

func (s *JobService) submitOne(req models.JobRequest) (*models.Job, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	now := s.now()
	job := &models.Job{
		ID:        req.VideoID + "-" + uuid.NewString()[:8],
		VideoID:   req.VideoID,
		VideoURL:  req.VideoURL,
		Title:     req.Title,
		State:     models.JobStateQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Queue push and registry insert are one atomic step under the registry
	// lock, so a saturated push never needs a rollback and a concurrently
	// accepted job can never be dropped from the insertion order. The push is
	// non-blocking: no I/O happens under the lock.
	s.mu.Lock()
	select {
	case s.queue <- job.ID:
		s.jobs[job.ID] = job
		s.order = append(s.order, job.ID)
		s.mu.Unlock()
	default:
		s.mu.Unlock()
		return nil, ErrQueueFull
	}

	s.log.Infof("job queued: id=%s video=%s title=%q", job.ID, job.VideoID, job.Title)
	return job.Clone(), nil
}

func validateRequest(req models.JobRequest) error {
	if strings.TrimSpace(req.VideoID) == "" {
		return &ValidationError{Field: "videoId", Msg: "must not be empty"}
	}
	if strings.TrimSpace(req.VideoURL) == "" {
		return &ValidationError{Field: "videoUrl", Msg: "must not be empty"}
	}
	u, err := url.Parse(req.VideoURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Field: "videoUrl", Msg: "must be an absolute http(s) URL"}
	}
	return nil
}

// Status returns the latest committed record for a job id.
func (s *JobService) Status(_ context.Context, id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.Clone(), nil
}

// List returns a consistent snapshot of all jobs in insertion order.
func (s *JobService) List(_ context.Context) []*models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Job, 0, len(s.order))
	for _, id := range s.order {
		if job, ok := s.jobs[id]; ok {
			out = append(out, job.Clone())
		}
	}
	return out
}

// Next blocks until a job is available or the context ends. The returned job
// is owned exclusively by the calling worker.
func (s *JobService) Next(ctx context.Context) (*models.Job, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case id := <-s.queue:
			s.mu.RLock()
			job, ok := s.jobs[id]
			var clone *models.Job
			if ok {
				clone = job.Clone()
			}
			s.mu.RUnlock()
			if !ok {
				continue
			}
			return clone, nil
		}
	}
}

// Begin transitions an owned job to downloading and charges one attempt.
func (s *JobService) Begin(id string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	now := s.now()
	job.State = models.JobStateDownloading
	job.Attempts++
	if job.StartedAt.IsZero() {
		job.StartedAt = now
	}
	job.UpdatedAt = now
	return job.Clone(), nil
}

// MarkUploading transitions an owned job from downloading to uploading.
func (s *JobService) MarkUploading(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok && job.State == models.JobStateDownloading {
		job.State = models.JobStateUploading
		job.UpdatedAt = s.now()
	}
}

// Complete marks an owned job terminally successful.
func (s *JobService) Complete(id, storageURI string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return
	}
	job.State = models.JobStateCompleted
	job.StorageURI = storageURI
	job.LastError = ""
	job.FailureClass = ""
	job.UpdatedAt = s.now()
	s.log.Infof("job completed: id=%s uri=%s attempts=%d", id, storageURI, job.Attempts)
}

// Fail records a pipeline failure. Transient failures inside the retry
// budget are re-queued with exponential backoff; everything else is
// terminal. It reports whether the job will be retried.
func (s *JobService) Fail(id string, cause error, class FailureClass) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return false
	}
	now := s.now()
	job.LastError = cause.Error()
	job.FailureClass = string(class)
	job.UpdatedAt = now

	if class == FailureTransient && job.Attempts < s.cfg.MaxRetries {
		job.State = models.JobStateQueued
		delay := s.backoffFor(job.Attempts)
		s.log.Warnf("job retrying: id=%s attempt=%d delay=%s error=%v", id, job.Attempts, delay, cause)
		s.requeue(delay, func() { s.enqueueRetry(id) })
		return true
	}

	job.State = models.JobStateFailed
	s.log.Errorf("job failed: id=%s class=%s attempts=%d error=%v", id, class, job.Attempts, cause)
	return false
}

// enqueueRetry puts a backed-off job back on the queue. If the queue is
// saturated at that moment the job fails terminally rather than blocking the
// timer goroutine.
func (s *JobService) enqueueRetry(id string) {
	select {
	case s.queue <- id:
		return
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok && job.State == models.JobStateQueued {
		job.State = models.JobStateFailed
		job.LastError = ErrQueueFull.Error()
		job.FailureClass = string(FailurePermanent)
		job.UpdatedAt = s.now()
		s.log.Errorf("job retry dropped, queue full: id=%s", id)
	}
}

func (s *JobService) backoffFor(attempt int) time.Duration {
	d := s.cfg.BackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}
