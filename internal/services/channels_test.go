package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/oshiworks/streamvault/internal/infrastructure/config"
	"github.com/oshiworks/streamvault/internal/models"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/require"
)

// memChannelStore mirrors the in-process store so this package can test the
// cache policy without importing its own consumers.
type memChannelStore struct {
	byHandle map[string]models.ChannelEntry
	byID     map[string]string
	upserts  int
}

func newMemChannelStore() *memChannelStore {
	return &memChannelStore{
		byHandle: make(map[string]models.ChannelEntry),
		byID:     make(map[string]string),
	}
}

func (s *memChannelStore) Get(_ context.Context, handle string) (*models.ChannelEntry, error) {
	entry, ok := s.byHandle[handle]
	if !ok {
		return nil, ErrChannelNotCached
	}
	cp := entry
	return &cp, nil
}

func (s *memChannelStore) GetByChannelID(_ context.Context, channelID string) (*models.ChannelEntry, error) {
	handle, ok := s.byID[channelID]
	if !ok {
		return nil, ErrChannelNotCached
	}
	entry := s.byHandle[handle]
	cp := entry
	return &cp, nil
}

func (s *memChannelStore) Upsert(_ context.Context, entry models.ChannelEntry) error {
	s.upserts++
	s.byHandle[entry.Handle] = entry
	s.byID[entry.ChannelID] = entry.Handle
	return nil
}

func testableChannelService(t *testing.T, store ChannelStore, extractor Extractor, ttl time.Duration) *ChannelService {
	t.Helper()
	svc, err := NewChannelService(store, extractor, config.Live{CacheTTL: ttl}, log.NewStdLogger(io.Discard))
	require.NoError(t, err)
	return svc
}

func TestValidateHandle(t *testing.T) {
	t.Parallel()

	for _, handle := range []string{"@somechannel", "UC0123456789abcdef", "plain-name_1"} {
		require.NoError(t, ValidateHandle(handle), handle)
	}
	for _, handle := range []string{"", "has space", "semi;colon", "dollar$", "slash/path", "@ch^nnel"} {
		require.ErrorIs(t, ValidateHandle(handle), ErrInvalidHandle, handle)
	}
}

func TestResolveMissRefreshesAndCaches(t *testing.T) {
	t.Parallel()

	store := newMemChannelStore()
	var calls int
	extractor := &stubExtractor{
		channelInfo: func(_ context.Context, handle string) (*models.ChannelInfo, error) {
			calls++
			require.Equal(t, "@somechannel", handle)
			return &models.ChannelInfo{ChannelID: "UC123", Metadata: json.RawMessage(`{"title":"Some Channel"}`)}, nil
		},
	}
	svc := testableChannelService(t, store, extractor, time.Hour)

	entry, err := svc.Resolve(context.Background(), "@somechannel")
	require.NoError(t, err)
	require.Equal(t, "UC123", entry.ChannelID)
	require.Equal(t, 1, calls)
	require.Equal(t, 1, store.upserts)

	// A fresh entry is served from cache without touching the extractor.
	entry, err = svc.Resolve(context.Background(), "@somechannel")
	require.NoError(t, err)
	require.Equal(t, "UC123", entry.ChannelID)
	require.Equal(t, 1, calls)
}

func TestResolveStaleEntryRefreshes(t *testing.T) {
	t.Parallel()

	store := newMemChannelStore()
	store.byHandle["@somechannel"] = models.ChannelEntry{
		Handle:    "@somechannel",
		ChannelID: "UCold",
		FetchedAt: time.Now().Add(-2 * time.Hour),
	}
	extractor := &stubExtractor{
		channelInfo: func(context.Context, string) (*models.ChannelInfo, error) {
			return &models.ChannelInfo{ChannelID: "UCnew"}, nil
		},
	}
	svc := testableChannelService(t, store, extractor, time.Hour)

	entry, err := svc.Resolve(context.Background(), "@somechannel")
	require.NoError(t, err)
	require.Equal(t, "UCnew", entry.ChannelID)
	require.Equal(t, 1, store.upserts)
}

func TestResolveServesStaleOnTransientFailure(t *testing.T) {
	t.Parallel()

	store := newMemChannelStore()
	store.byHandle["@somechannel"] = models.ChannelEntry{
		Handle:    "@somechannel",
		ChannelID: "UCstale",
		FetchedAt: time.Now().Add(-2 * time.Hour),
	}
	extractor := &stubExtractor{
		channelInfo: func(context.Context, string) (*models.ChannelInfo, error) {
			return nil, &ExtractError{Reason: "rate_limited", Class: FailureTransient, Err: errors.New("429")}
		},
	}
	svc := testableChannelService(t, store, extractor, time.Hour)

	entry, err := svc.Resolve(context.Background(), "@somechannel")
	require.NoError(t, err)
	require.Equal(t, "UCstale", entry.ChannelID)
}

func TestResolvePermanentFailureSurfaces(t *testing.T) {
	t.Parallel()

	store := newMemChannelStore()
	store.byHandle["@somechannel"] = models.ChannelEntry{
		Handle:    "@somechannel",
		ChannelID: "UCstale",
		FetchedAt: time.Now().Add(-2 * time.Hour),
	}
	extractor := &stubExtractor{
		channelInfo: func(context.Context, string) (*models.ChannelInfo, error) {
			return nil, &ExtractError{Reason: "channel_not_found", Class: FailurePermanent, Err: errors.New("404")}
		},
	}
	svc := testableChannelService(t, store, extractor, time.Hour)

	_, err := svc.Resolve(context.Background(), "@somechannel")
	var xe *ExtractError
	require.ErrorAs(t, err, &xe)
	require.Equal(t, "channel_not_found", xe.Reason)
}

func TestResolveRejectsUnsafeHandle(t *testing.T) {
	t.Parallel()

	extractor := &stubExtractor{
		channelInfo: func(context.Context, string) (*models.ChannelInfo, error) {
			t.Fatal("extractor must not see unsanitized handles")
			return nil, nil
		},
	}
	svc := testableChannelService(t, newMemChannelStore(), extractor, time.Hour)

	_, err := svc.Resolve(context.Background(), "@bad handle; rm -rf /")
	require.ErrorIs(t, err, ErrInvalidHandle)
}

func TestResolveByChannelIDNeverRefreshes(t *testing.T) {
	t.Parallel()

	store := newMemChannelStore()
	store.byHandle["@somechannel"] = models.ChannelEntry{Handle: "@somechannel", ChannelID: "UC123"}
	store.byID["UC123"] = "@somechannel"
	extractor := &stubExtractor{
		channelInfo: func(context.Context, string) (*models.ChannelInfo, error) {
			t.Fatal("reverse lookup must not refresh")
			return nil, nil
		},
	}
	svc := testableChannelService(t, store, extractor, time.Hour)

	entry, err := svc.ResolveByChannelID(context.Background(), "UC123")
	require.NoError(t, err)
	require.Equal(t, "@somechannel", entry.Handle)

	_, err = svc.ResolveByChannelID(context.Background(), "UCmissing")
	require.ErrorIs(t, err, ErrChannelNotCached)
}
