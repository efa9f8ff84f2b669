package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshiworks/streamvault/internal/models"
	"github.com/oshiworks/streamvault/internal/services"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	getChannelSQL = `
SELECT handle, channel_id, metadata, fetched_at
FROM channel_cache
WHERE handle = $1`

	getChannelByIDSQL = `
SELECT handle, channel_id, metadata, fetched_at
FROM channel_cache
WHERE channel_id = $1
ORDER BY fetched_at DESC
LIMIT 1`

	upsertChannelSQL = `
INSERT INTO channel_cache (handle, channel_id, metadata, fetched_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (handle) DO UPDATE
SET channel_id = EXCLUDED.channel_id,
    metadata = EXCLUDED.metadata,
    fetched_at = EXCLUDED.fetched_at`
)

// ChannelRepository implements services.ChannelStore on Postgres. The
// handle column is the primary key; channel_id carries a secondary index
// for the reverse lookup.
type ChannelRepository struct {
	db *pgxpool.Pool
}

// NewChannelRepository constructs the repository.
func NewChannelRepository(db *pgxpool.Pool) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// Get returns the entry for a handle, or services.ErrChannelNotCached.
func (r *ChannelRepository) Get(ctx context.Context, handle string) (*models.ChannelEntry, error) {
	return r.scanOne(r.db.QueryRow(ctx, getChannelSQL, handle))
}

// GetByChannelID looks up through the secondary index.
func (r *ChannelRepository) GetByChannelID(ctx context.Context, channelID string) (*models.ChannelEntry, error) {
	return r.scanOne(r.db.QueryRow(ctx, getChannelByIDSQL, channelID))
}

// Upsert writes the entry keyed by handle.
func (r *ChannelRepository) Upsert(ctx context.Context, entry models.ChannelEntry) error {
	metadata := entry.Metadata
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}
	if _, err := r.db.Exec(ctx, upsertChannelSQL,
		entry.Handle, entry.ChannelID, metadata, entry.FetchedAt.UTC()); err != nil {
		return fmt.Errorf("upsert channel cache: %w", err)
	}
	return nil
}

func (r *ChannelRepository) scanOne(row pgx.Row) (*models.ChannelEntry, error) {
	var entry models.ChannelEntry
	err := row.Scan(&entry.Handle, &entry.ChannelID, &entry.Metadata, &entry.FetchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrChannelNotCached
		}
		return nil, err
	}
	return &entry, nil
}
