package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/oshiworks/streamvault/internal/models"
	"github.com/oshiworks/streamvault/internal/services"

	"github.com/stretchr/testify/require"
)

func TestChannelStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewChannelStore()
	entry := models.ChannelEntry{
		Handle:    "@somechannel",
		ChannelID: "UC123",
		Metadata:  json.RawMessage(`{"title":"Some Channel"}`),
		FetchedAt: time.Now(),
	}
	require.NoError(t, store.Upsert(context.Background(), entry))

	got, err := store.Get(context.Background(), "@somechannel")
	require.NoError(t, err)
	require.Equal(t, "UC123", got.ChannelID)

	got, err = store.GetByChannelID(context.Background(), "UC123")
	require.NoError(t, err)
	require.Equal(t, "@somechannel", got.Handle)
}

func TestChannelStoreMisses(t *testing.T) {
	t.Parallel()

	store := NewChannelStore()
	_, err := store.Get(context.Background(), "@nobody")
	require.ErrorIs(t, err, services.ErrChannelNotCached)

	_, err = store.GetByChannelID(context.Background(), "UCnone")
	require.ErrorIs(t, err, services.ErrChannelNotCached)
}

func TestChannelStoreReindexOnChannelIDChange(t *testing.T) {
	t.Parallel()

	store := NewChannelStore()
	require.NoError(t, store.Upsert(context.Background(), models.ChannelEntry{Handle: "@h", ChannelID: "UCold"}))
	require.NoError(t, store.Upsert(context.Background(), models.ChannelEntry{Handle: "@h", ChannelID: "UCnew"}))

	// The stale reverse index row is dropped.
	_, err := store.GetByChannelID(context.Background(), "UCold")
	require.ErrorIs(t, err, services.ErrChannelNotCached)

	got, err := store.GetByChannelID(context.Background(), "UCnew")
	require.NoError(t, err)
	require.Equal(t, "@h", got.Handle)
}
