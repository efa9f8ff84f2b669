package memory

import (
	"context"
	"sync"

	"github.com/oshiworks/streamvault/internal/models"
	"github.com/oshiworks/streamvault/internal/services"
)

// ChannelStore is the in-process channel cache with a reverse index by
// channel id.
type ChannelStore struct {
	mu       sync.RWMutex
	byHandle map[string]models.ChannelEntry
	byID     map[string]string
}

// NewChannelStore builds an empty cache.
func NewChannelStore() *ChannelStore {
	return &ChannelStore{
		byHandle: make(map[string]models.ChannelEntry),
		byID:     make(map[string]string),
	}
}

// Get returns the entry for a handle.
func (s *ChannelStore) Get(_ context.Context, handle string) (*models.ChannelEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.byHandle[handle]
	if !ok {
		return nil, services.ErrChannelNotCached
	}
	cp := entry
	return &cp, nil
}

// GetByChannelID looks up through the reverse index.
func (s *ChannelStore) GetByChannelID(_ context.Context, channelID string) (*models.ChannelEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handle, ok := s.byID[channelID]
	if !ok {
		return nil, services.ErrChannelNotCached
	}
	entry := s.byHandle[handle]
	cp := entry
	return &cp, nil
}

// Upsert writes the entry and maintains the reverse index, dropping a stale
// index row when a handle's channel id changes.
func (s *ChannelStore) Upsert(_ context.Context, entry models.ChannelEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byHandle[entry.Handle]; ok && old.ChannelID != entry.ChannelID {
		delete(s.byID, old.ChannelID)
	}
	s.byHandle[entry.Handle] = entry
	s.byID[entry.ChannelID] = entry.Handle
	return nil
}
