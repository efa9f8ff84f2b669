package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/oshiworks/streamvault/internal/infrastructure/config"
	"github.com/oshiworks/streamvault/internal/models"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/require"
)

func testableJobService(t *testing.T, mutate func(*config.Jobs)) *JobService {
	t.Helper()
	cfg := config.Jobs{
		Workers:       2,
		QueueCapacity: 8,
		MaxRetries:    3,
		BackoffBase:   2 * time.Second,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	svc, err := NewJobService(cfg, log.NewStdLogger(io.Discard))
	require.NoError(t, err)
	return svc
}

func TestSubmitAssignsDistinctJobIDs(t *testing.T) {
	t.Parallel()
	svc := testableJobService(t, nil)

	req := models.JobRequest{VideoID: "dQw4w9WgXcQ", VideoURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}
	outcomes := svc.Submit(context.Background(), []models.JobRequest{req, req, req})
	require.Len(t, outcomes, 3)

	seen := make(map[string]bool)
	for _, out := range outcomes {
		require.NoError(t, out.Err)
		require.Equal(t, models.JobStateQueued, out.Job.State)
		require.False(t, seen[out.Job.ID])
		seen[out.Job.ID] = true
	}

	list := svc.List(context.Background())
	require.Len(t, list, 3)
	for i, out := range outcomes {
		require.Equal(t, out.Job.ID, list[i].ID)
	}
}

func TestSubmitValidationPerItem(t *testing.T) {
	t.Parallel()
	svc := testableJobService(t, nil)

	outcomes := svc.Submit(context.Background(), []models.JobRequest{
		{VideoID: "", VideoURL: "https://example.com/v"},
		{VideoID: "abc", VideoURL: "not-a-url"},
		{VideoID: "abc", VideoURL: "ftp://example.com/v"},
		{VideoID: "ok1", VideoURL: "https://www.youtube.com/watch?v=ok1"},
	})
	require.Len(t, outcomes, 4)

	var ve *ValidationError
	require.ErrorAs(t, outcomes[0].Err, &ve)
	require.Equal(t, "videoId", ve.Field)
	require.ErrorAs(t, outcomes[1].Err, &ve)
	require.ErrorAs(t, outcomes[2].Err, &ve)
	require.NoError(t, outcomes[3].Err)

	// Rejected items never become visible records.
	require.Len(t, svc.List(context.Background()), 1)
}

func TestSubmitQueueSaturation(t *testing.T) {
	t.Parallel()
	svc := testableJobService(t, func(cfg *config.Jobs) { cfg.QueueCapacity = 1 })

	outcomes := svc.Submit(context.Background(), []models.JobRequest{
		{VideoID: "a", VideoURL: "https://example.com/a"},
		{VideoID: "b", VideoURL: "https://example.com/b"},
	})
	require.NoError(t, outcomes[0].Err)
	require.ErrorIs(t, outcomes[1].Err, ErrQueueFull)

	// The rejected submission never becomes a visible record.
	list := svc.List(context.Background())
	require.Len(t, list, 1)
	require.Equal(t, "a", list[0].VideoID)

	_, err := svc.Status(context.Background(), outcomes[0].Job.ID)
	require.NoError(t, err)
}

func TestSubmitSaturationNeverDropsAcceptedJobs(t *testing.T) {
	t.Parallel()
	svc := testableJobService(t, func(cfg *config.Jobs) { cfg.QueueCapacity = 1 })

	// A drainer keeps freeing the single queue slot so concurrent submitters
	// constantly race acceptance against saturation rejection.
	drainCtx, stopDrain := context.WithCancel(context.Background())
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for {
			if _, err := svc.Next(drainCtx); err != nil {
				return
			}
		}
	}()

	const submitters = 12
	const perSubmitter = 200
	var wg sync.WaitGroup
	accepted := make(chan string, submitters*perSubmitter)
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < perSubmitter; j++ {
				outcomes := svc.Submit(context.Background(), []models.JobRequest{
					{VideoID: fmt.Sprintf("v%d-%d", n, j), VideoURL: "https://example.com/v"},
				})
				if outcomes[0].Err == nil {
					accepted <- outcomes[0].Job.ID
				}
			}
		}(i)
	}
	wg.Wait()
	close(accepted)
	stopDrain()
	<-drained

	// Every accepted submission is visible through list exactly once; a
	// rejected one never is.
	listed := make(map[string]int)
	for _, job := range svc.List(context.Background()) {
		listed[job.ID]++
	}
	count := 0
	for id := range accepted {
		count++
		require.Equal(t, 1, listed[id], "accepted job %s missing from list", id)
	}
	require.Len(t, listed, count)
}

func TestStatusUnknownJob(t *testing.T) {
	t.Parallel()
	svc := testableJobService(t, nil)
	_, err := svc.Status(context.Background(), "nope")
	require.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobLifecycleToCompleted(t *testing.T) {
	t.Parallel()
	svc := testableJobService(t, nil)

	outcomes := svc.Submit(context.Background(), []models.JobRequest{
		{VideoID: "vid1", VideoURL: "https://www.youtube.com/watch?v=vid1", Title: "t"},
	})
	require.NoError(t, outcomes[0].Err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	owned, err := svc.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, outcomes[0].Job.ID, owned.ID)

	begun, err := svc.Begin(owned.ID)
	require.NoError(t, err)
	require.Equal(t, models.JobStateDownloading, begun.State)
	require.Equal(t, 1, begun.Attempts)
	require.False(t, begun.StartedAt.IsZero())

	svc.MarkUploading(owned.ID)
	got, err := svc.Status(context.Background(), owned.ID)
	require.NoError(t, err)
	require.Equal(t, models.JobStateUploading, got.State)

	svc.Complete(owned.ID, "gs://bucket/vid1/vid1.mkv")
	got, err = svc.Status(context.Background(), owned.ID)
	require.NoError(t, err)
	require.Equal(t, models.JobStateCompleted, got.State)
	require.True(t, got.State.Terminal())
	require.Equal(t, "gs://bucket/vid1/vid1.mkv", got.StorageURI)
	require.Empty(t, got.LastError)
}

func TestFailTransientRetriesWithBackoff(t *testing.T) {
	t.Parallel()
	svc := testableJobService(t, func(cfg *config.Jobs) { cfg.MaxRetries = 3 })

	var delays []time.Duration
	svc.requeue = func(d time.Duration, fn func()) {
		delays = append(delays, d)
		fn()
	}

	outcomes := svc.Submit(context.Background(), []models.JobRequest{
		{VideoID: "vid1", VideoURL: "https://example.com/vid1"},
	})
	id := outcomes[0].Job.ID

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	cause := errors.New("network blip")
	for attempt := 1; attempt <= 2; attempt++ {
		_, err := svc.Next(ctx)
		require.NoError(t, err)
		_, err = svc.Begin(id)
		require.NoError(t, err)
		require.True(t, svc.Fail(id, cause, FailureTransient))

		got, err := svc.Status(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, models.JobStateQueued, got.State)
		require.Equal(t, attempt, got.Attempts)
		require.Equal(t, cause.Error(), got.LastError)
	}

	// Doubling per charged attempt.
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, delays)

	// Third attempt exhausts the budget.
	_, err := svc.Next(ctx)
	require.NoError(t, err)
	_, err = svc.Begin(id)
	require.NoError(t, err)
	require.False(t, svc.Fail(id, cause, FailureTransient))

	got, err := svc.Status(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, models.JobStateFailed, got.State)
	require.Equal(t, string(FailureTransient), got.FailureClass)
	require.Len(t, delays, 2)
}

func TestFailPermanentIsTerminal(t *testing.T) {
	t.Parallel()
	svc := testableJobService(t, nil)
	svc.requeue = func(time.Duration, func()) {
		t.Fatal("permanent failure must not be requeued")
	}

	outcomes := svc.Submit(context.Background(), []models.JobRequest{
		{VideoID: "gone", VideoURL: "https://example.com/gone"},
	})
	id := outcomes[0].Job.ID

	_, err := svc.Begin(id)
	require.NoError(t, err)
	require.False(t, svc.Fail(id, errors.New("video unavailable"), FailurePermanent))

	got, err := svc.Status(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, models.JobStateFailed, got.State)
	require.Equal(t, string(FailurePermanent), got.FailureClass)
}

func TestNextRespectsContext(t *testing.T) {
	t.Parallel()
	svc := testableJobService(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
