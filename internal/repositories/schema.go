package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaSQL creates the two persistent tables. Expired dedupe rows are
// logically absent via the conditional create; physical reclamation is left
// to an external sweep or table TTL policy.
var schemaSQL = []string{
	`CREATE TABLE IF NOT EXISTS live_notifications (
		video_id    text PRIMARY KEY,
		channel_id  text NOT NULL,
		notified_at timestamptz NOT NULL,
		expires_at  timestamptz NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS channel_cache (
		handle     text PRIMARY KEY,
		channel_id text NOT NULL,
		metadata   jsonb NOT NULL DEFAULT '{}'::jsonb,
		fetched_at timestamptz NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS channel_cache_channel_id_idx
		ON channel_cache (channel_id)`,
}

// EnsureSchema creates the tables and indexes if they do not exist yet.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schemaSQL {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
