package models

import (
	"encoding/json"
	"time"
)

// ChannelEntry is an advisory cache record mapping a channel handle to its
// channel id and last-fetched metadata. Staleness is tolerated; the resolve
// path always refreshes rather than serving a stale miss.
type ChannelEntry struct {
	Handle    string          `json:"handle"`
	ChannelID string          `json:"channelId"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// FreshAt reports whether the entry is still inside the given TTL.
func (e *ChannelEntry) FreshAt(now time.Time, ttl time.Duration) bool {
	if e == nil {
		return false
	}
	if ttl <= 0 {
		return true
	}
	return now.Sub(e.FetchedAt) < ttl
}

// ChannelInfo is the extractor's view of a channel.
type ChannelInfo struct {
	ChannelID string          `json:"channelId"`
	Title     string          `json:"title"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}
