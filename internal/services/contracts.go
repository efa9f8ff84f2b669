// Package services contains the application use cases: job orchestration,
// the download-upload pipeline, the live monitor and the channel cache.
// Collaborator contracts are declared here, next to their consumers.
package services

import (
	"context"
	"io"
	"time"

	"github.com/oshiworks/streamvault/internal/models"
)

// DownloadInput parameterizes one media download into scratch storage.
type DownloadInput struct {
	VideoID     string
	VideoURL    string
	DestDir     string
	CookiesFile string
}

// Extractor is the external tool resolving video/channel references into
// media, metadata and live status. Failures surface as *ExtractError.
type Extractor interface {
	// Download materializes the media under DestDir and returns the
	// artifact path.
	Download(ctx context.Context, in DownloadInput) (string, error)

	// CheckLive reports the current live status of a channel handle.
	CheckLive(ctx context.Context, handle string) (*models.LiveStatus, error)

	// ChannelInfo resolves a handle into channel metadata.
	ChannelInfo(ctx context.Context, handle string) (*models.ChannelInfo, error)
}

// BlobStore is the durable object storage target. Upload must not report
// success before the write is verified complete.
type BlobStore interface {
	Upload(ctx context.Context, key string, r io.Reader) (uri string, err error)
}

// CookieSource resolves the extractor's authentication cookies for a single
// invocation. An empty path with nil error means no cookies are available.
type CookieSource interface {
	Resolve(ctx context.Context) (path string, err error)
}

// NotificationStore is the TTL-keyed dedupe store. Create must be atomic:
// of N concurrent creates for the same video id inside the window, exactly
// one returns true.
type NotificationStore interface {
	Create(ctx context.Context, rec models.NotificationRecord) (created bool, err error)
}

// ChannelStore persists the advisory channel cache with its reverse index.
type ChannelStore interface {
	// Get returns the entry for a handle, or ErrChannelNotCached.
	Get(ctx context.Context, handle string) (*models.ChannelEntry, error)

	// GetByChannelID looks up through the reverse index, or returns
	// ErrChannelNotCached.
	GetByChannelID(ctx context.Context, channelID string) (*models.ChannelEntry, error)

	// Upsert writes an entry keyed by handle.
	Upsert(ctx context.Context, entry models.ChannelEntry) error
}

// LiveEvent is published when a newly detected stream passes dedupe.
type LiveEvent struct {
	VideoID    string    `json:"videoId"`
	ChannelID  string    `json:"channelId"`
	Title      string    `json:"title,omitempty"`
	NotifiedAt time.Time `json:"notifiedAt"`
}

// EventPublisher fans live events out to downstream consumers.
type EventPublisher interface {
	PublishLive(ctx context.Context, ev LiveEvent) error
}
