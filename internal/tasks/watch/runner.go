// Package watch polls configured channels for live activity and feeds newly
// detected streams through the dedupe gate.
package watch

import (
	"context"
	"errors"
	"time"

	"github.com/oshiworks/streamvault/internal/infrastructure/config"
	"github.com/oshiworks/streamvault/internal/services"

	"github.com/go-kratos/kratos/v2/log"
)

// RunnerParams injects the watcher's dependencies.
type RunnerParams struct {
	Live   *services.LiveService
	Config config.Live
	Logger log.Logger
}

// Runner periodically checks each watched channel. Detection and action are
// split: a live hit only leads to a notification/backup when the dedupe
// conditional create wins.
type Runner struct {
	live     *services.LiveService
	channels []string
	interval time.Duration
	log      *log.Helper

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner constructs the watcher.
func NewRunner(params RunnerParams) (*Runner, error) {
	if params.Live == nil {
		return nil, errors.New("watch runner: live service is required")
	}
	if params.Config.WatchInterval <= 0 {
		return nil, errors.New("watch runner: interval must be positive")
	}
	return &Runner{
		live:     params.Live,
		channels: params.Config.WatchChannels,
		interval: params.Config.WatchInterval,
		log:      log.NewHelper(params.Logger),
		done:     make(chan struct{}),
	}, nil
}

// Start blocks polling until Stop. With no watched channels it idles so the
// on-request path stays the sole trigger.
func (r *Runner) Start(ctx context.Context) error {
	ctx, r.cancel = context.WithCancel(ctx)
	defer close(r.done)

	if len(r.channels) == 0 {
		<-ctx.Done()
		return nil
	}

	r.log.Infof("live watcher starting: channels=%d interval=%s", len(r.channels), r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

// Stop signals the poller and waits for the current sweep to finish.
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

func (r *Runner) sweep(ctx context.Context) {
	for _, handle := range r.channels {
		if ctx.Err() != nil {
			return
		}
		status, err := r.live.CheckLive(ctx, handle)
		if err != nil {
			r.log.Warnf("live check failed: channel=%s error=%v", handle, err)
			continue
		}
		if !status.IsLive || status.Stream == nil {
			continue
		}
		outcome, err := r.live.NotifyIfNew(ctx, *status.Stream)
		if err != nil {
			r.log.Errorf("notify failed: channel=%s video=%s error=%v", handle, status.Stream.VideoID, err)
			continue
		}
		if outcome.Acted {
			r.log.Infof("live stream detected: channel=%s video=%s job=%s", handle, status.Stream.VideoID, outcome.JobID)
		}
	}
}
