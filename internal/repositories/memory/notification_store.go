// Package memory provides mutex-guarded in-process implementations of the
// store contracts, used in memory data mode and in tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oshiworks/streamvault/internal/models"
)

// NotificationStore is the in-process TTL dedupe store. The create is
// atomic under one mutex: of N concurrent creates for the same video id
// inside the window, exactly one wins.
type NotificationStore struct {
	mu      sync.Mutex
	records map[string]models.NotificationRecord
	now     func() time.Time
}

// NewNotificationStore builds an empty store.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		records: make(map[string]models.NotificationRecord),
		now:     time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (s *NotificationStore) WithClock(now func() time.Time) *NotificationStore {
	s.now = now
	return s
}

// Create conditionally inserts the record. It returns false when a
// non-expired record for the same video id already exists. Expired records
// are overwritten; physical reclamation beyond that is irrelevant to
// visibility.
func (s *NotificationStore) Create(_ context.Context, rec models.NotificationRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if existing, ok := s.records[rec.VideoID]; ok && !existing.ExpiredAt(now) {
		return false, nil
	}
	s.records[rec.VideoID] = rec
	return true, nil
}
