// Package repositories implements the persistent store contracts on
// PostgreSQL via pgx.
package repositories

import (
	"context"
	"fmt"

	"github.com/oshiworks/streamvault/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// insertNotificationSQL performs the atomic conditional create: the upsert
// only takes effect when the existing record has already expired, so the
// affected-row count decides the dedupe race.
const insertNotificationSQL = `
INSERT INTO live_notifications AS n (video_id, channel_id, notified_at, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (video_id) DO UPDATE
SET channel_id = EXCLUDED.channel_id,
    notified_at = EXCLUDED.notified_at,
    expires_at = EXCLUDED.expires_at
WHERE n.expires_at <= EXCLUDED.notified_at`

// NotificationRepository implements services.NotificationStore on Postgres.
type NotificationRepository struct {
	db *pgxpool.Pool
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create conditionally inserts the dedupe record. Exactly one of N
// concurrent calls for the same video id inside the window observes
// created=true; the database decides the race.
func (r *NotificationRepository) Create(ctx context.Context, rec models.NotificationRecord) (bool, error) {
	tag, err := r.db.Exec(ctx, insertNotificationSQL,
		rec.VideoID, rec.ChannelID, rec.NotifiedAt.UTC(), rec.ExpiresAt.UTC())
	if err != nil {
		return false, fmt.Errorf("insert live notification: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
