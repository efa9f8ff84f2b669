package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/oshiworks/streamvault/internal/infrastructure/config"
	"github.com/oshiworks/streamvault/internal/models"

	"github.com/go-kratos/kratos/v2/log"
)

// handlePattern accepts YouTube handles and channel ids. Anything else is
// rejected before it can reach the extractor command line.
var handlePattern = regexp.MustCompile(`^[a-zA-Z0-9@_-]+$`)

// ChannelService is the advisory channel metadata cache. Hits are served
// directly; misses and stale entries refresh synchronously through the
// extractor so the caller absorbs the cold-lookup latency instead of
// getting stale or error responses.
type ChannelService struct {
	store     ChannelStore
	extractor Extractor
	ttl       time.Duration
	log       *log.Helper
	now       func() time.Time
}

// NewChannelService builds the cache service.
func NewChannelService(store ChannelStore, extractor Extractor, cfg config.Live, logger log.Logger) (*ChannelService, error) {
	switch {
	case store == nil:
		return nil, errors.New("channel service: store is required")
	case extractor == nil:
		return nil, errors.New("channel service: extractor is required")
	}
	return &ChannelService{
		store:     store,
		extractor: extractor,
		ttl:       cfg.CacheTTL,
		log:       log.NewHelper(logger),
		now:       time.Now,
	}, nil
}

// ValidateHandle reports whether a caller-supplied handle is safe to use.
func ValidateHandle(handle string) error {
	if handle == "" || !handlePattern.MatchString(handle) {
		return ErrInvalidHandle
	}
	return nil
}

// Resolve returns the cache entry for a handle, refreshing on miss or
// staleness. If a refresh fails transiently and a stale entry exists, the
// stale entry is served; the cache is advisory.
func (s *ChannelService) Resolve(ctx context.Context, handle string) (*models.ChannelEntry, error) {
	if err := ValidateHandle(handle); err != nil {
		return nil, err
	}

	cached, err := s.store.Get(ctx, handle)
	if err != nil && !errors.Is(err, ErrChannelNotCached) {
		return nil, fmt.Errorf("channel cache get: %w", err)
	}
	if cached != nil && cached.FreshAt(s.now(), s.ttl) {
		return cached, nil
	}

	info, err := s.extractor.ChannelInfo(ctx, handle)
	if err != nil {
		if cached != nil && ClassifyFailure(err) == FailureTransient {
			s.log.WithContext(ctx).Warnf("channel refresh failed, serving stale entry: handle=%s error=%v", handle, err)
			return cached, nil
		}
		return nil, err
	}

	entry := models.ChannelEntry{
		Handle:    handle,
		ChannelID: info.ChannelID,
		Metadata:  info.Metadata,
		FetchedAt: s.now(),
	}
	if err := s.store.Upsert(ctx, entry); err != nil {
		// The resolve itself succeeded; a failed cache write is not fatal.
		s.log.WithContext(ctx).Warnf("channel cache upsert failed: handle=%s error=%v", handle, err)
	}
	return &entry, nil
}

// ResolveByChannelID looks a handle up through the reverse index. It never
// refreshes: the handle-keyed path is the only write path.
func (s *ChannelService) ResolveByChannelID(ctx context.Context, channelID string) (*models.ChannelEntry, error) {
	if channelID == "" {
		return nil, ErrChannelNotCached
	}
	return s.store.GetByChannelID(ctx, channelID)
}
