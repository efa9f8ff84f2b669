package models

import "time"

// LiveStream describes the currently running stream of a channel.
type LiveStream struct {
	VideoID   string    `json:"videoId"`
	Title     string    `json:"title"`
	Uploader  string    `json:"uploader,omitempty"`
	ChannelID string    `json:"channelId,omitempty"`
	ViewCount int64     `json:"viewCount,omitempty"`
	StartedAt time.Time `json:"startedAt,omitzero"`
	Thumbnail string    `json:"thumbnail,omitempty"`
}

// LiveStatus is the result of a live check. Stream is nil when the channel
// is offline.
type LiveStatus struct {
	IsLive    bool        `json:"isLive"`
	Stream    *LiveStream `json:"stream"`
	CheckedAt time.Time   `json:"checkedAt"`
}

// NotificationRecord marks that a live event has already been acted on.
// A record is logically absent once ExpiresAt has passed, regardless of
// physical reclamation.
type NotificationRecord struct {
	VideoID    string    `json:"videoId"`
	ChannelID  string    `json:"channelId"`
	NotifiedAt time.Time `json:"notifiedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// ExpiredAt reports whether the record no longer suppresses actions.
func (r *NotificationRecord) ExpiredAt(now time.Time) bool {
	return r == nil || !r.ExpiresAt.After(now)
}
