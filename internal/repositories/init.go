package repositories

import (
	"context"
	"fmt"

	"github.com/oshiworks/streamvault/internal/infrastructure/config"
	"github.com/oshiworks/streamvault/internal/repositories/memory"
	"github.com/oshiworks/streamvault/internal/services"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProviderSet wires the store implementations selected by the data driver.
var ProviderSet = wire.NewSet(NewNotificationStore, NewChannelStore)

// NewNotificationStore selects the dedupe store implementation.
func NewNotificationStore(cfg config.Data, db *pgxpool.Pool, logger log.Logger) (services.NotificationStore, error) {
	switch cfg.Driver {
	case "postgres":
		if err := ensure(db, logger); err != nil {
			return nil, err
		}
		return NewNotificationRepository(db), nil
	case "memory":
		return memory.NewNotificationStore(), nil
	default:
		return nil, fmt.Errorf("unknown data driver %q", cfg.Driver)
	}
}

// NewChannelStore selects the channel cache implementation.
func NewChannelStore(cfg config.Data, db *pgxpool.Pool, logger log.Logger) (services.ChannelStore, error) {
	switch cfg.Driver {
	case "postgres":
		if err := ensure(db, logger); err != nil {
			return nil, err
		}
		return NewChannelRepository(db), nil
	case "memory":
		return memory.NewChannelStore(), nil
	default:
		return nil, fmt.Errorf("unknown data driver %q", cfg.Driver)
	}
}

// ensure runs the idempotent schema bootstrap once per selected repository.
func ensure(db *pgxpool.Pool, logger log.Logger) error {
	if db == nil {
		return fmt.Errorf("postgres data driver requires a connection pool")
	}
	ctx := context.Background()
	if err := EnsureSchema(ctx, db); err != nil {
		return err
	}
	log.NewHelper(logger).Debug("postgres schema ensured")
	return nil
}
