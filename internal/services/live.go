package services

import (
	"context"
	"errors"
	"time"

	"github.com/oshiworks/streamvault/internal/infrastructure/config"
	"github.com/oshiworks/streamvault/internal/models"

	"github.com/go-kratos/kratos/v2/log"
)

// LiveService checks channels for live activity and guards downstream
// actions behind the TTL dedupe store. CheckLive never touches the dedupe
// store; only NotifyIfNew does, and only through a single atomic
// conditional create.
type LiveService struct {
	channels      *ChannelService
	extractor     Extractor
	notifications NotificationStore
	publisher     EventPublisher
	jobs          *JobService
	window        time.Duration
	autoBackup    bool
	log           *log.Helper
	now           func() time.Time
}

// NewLiveService builds the live monitor.
func NewLiveService(
	channels *ChannelService,
	extractor Extractor,
	notifications NotificationStore,
	publisher EventPublisher,
	jobs *JobService,
	cfg config.Live,
	logger log.Logger,
) (*LiveService, error) {
	switch {
	case channels == nil:
		return nil, errors.New("live service: channel service is required")
	case extractor == nil:
		return nil, errors.New("live service: extractor is required")
	case notifications == nil:
		return nil, errors.New("live service: notification store is required")
	case jobs == nil:
		return nil, errors.New("live service: job service is required")
	case cfg.DedupeWindow <= 0:
		return nil, errors.New("live service: dedupe window must be positive")
	}
	return &LiveService{
		channels:      channels,
		extractor:     extractor,
		notifications: notifications,
		publisher:     publisher,
		jobs:          jobs,
		window:        cfg.DedupeWindow,
		autoBackup:    cfg.AutoBackup,
		log:           log.NewHelper(logger),
		now:           time.Now,
	}, nil
}

// CheckLive resolves the handle through the channel cache and queries the
// extractor for live status. It is a pure inquiry and mutates nothing.
func (s *LiveService) CheckLive(ctx context.Context, handle string) (*models.LiveStatus, error) {
	if err := ValidateHandle(handle); err != nil {
		return nil, err
	}

	entry, err := s.channels.Resolve(ctx, handle)
	if err != nil {
		return nil, err
	}

	status, err := s.extractor.CheckLive(ctx, handle)
	if err != nil {
		return nil, err
	}
	if status.Stream != nil && status.Stream.ChannelID == "" {
		status.Stream.ChannelID = entry.ChannelID
	}
	return status, nil
}

// NotifyOutcome reports whether a NotifyIfNew call won the dedupe race.
type NotifyOutcome struct {
	Acted bool   `json:"acted"`
	JobID string `json:"jobId,omitempty"`
}

// NotifyIfNew atomically creates a dedupe record for the stream. If the
// create wins (no prior non-expired record) the downstream actions run: a
// live event is published and, when auto-backup is enabled, a backup job is
// submitted. Losing the race is a normal outcome, not a fault.
func (s *LiveService) NotifyIfNew(ctx context.Context, stream models.LiveStream) (NotifyOutcome, error) {
	if stream.VideoID == "" {
		return NotifyOutcome{}, &ValidationError{Field: "videoId", Msg: "must not be empty"}
	}

	now := s.now()
	created, err := s.notifications.Create(ctx, models.NotificationRecord{
		VideoID:    stream.VideoID,
		ChannelID:  stream.ChannelID,
		NotifiedAt: now,
		ExpiresAt:  now.Add(s.window),
	})
	if err != nil {
		return NotifyOutcome{}, err
	}
	if !created {
		s.log.Debugf("notification suppressed: video=%s", stream.VideoID)
		return NotifyOutcome{Acted: false}, nil
	}

	if s.publisher != nil {
		ev := LiveEvent{
			VideoID:    stream.VideoID,
			ChannelID:  stream.ChannelID,
			Title:      stream.Title,
			NotifiedAt: now,
		}
		if err := s.publisher.PublishLive(ctx, ev); err != nil {
			// The dedupe record already exists; publishing is best effort
			// within the window.
			s.log.WithContext(ctx).Errorf("live event publish failed: video=%s error=%v", stream.VideoID, err)
		}
	}

	outcome := NotifyOutcome{Acted: true}
	if s.autoBackup {
		results := s.jobs.Submit(ctx, []models.JobRequest{{
			VideoID:  stream.VideoID,
			VideoURL: "https://www.youtube.com/watch?v=" + stream.VideoID,
			Title:    stream.Title,
		}})
		if results[0].Err != nil {
			s.log.WithContext(ctx).Errorf("auto backup submit failed: video=%s error=%v", stream.VideoID, results[0].Err)
		} else {
			outcome.JobID = results[0].Job.ID
		}
	}

	s.log.Infof("live notification issued: video=%s channel=%s job=%s", stream.VideoID, stream.ChannelID, outcome.JobID)
	return outcome, nil
}
