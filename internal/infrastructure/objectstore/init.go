package objectstore

import (
	"context"
	"fmt"

	"github.com/oshiworks/streamvault/internal/infrastructure/config"
	"github.com/oshiworks/streamvault/internal/services"

	"cloud.google.com/go/storage"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// ProviderSet wires the blob store selected by the storage driver.
var ProviderSet = wire.NewSet(NewBlobStore)

// NewBlobStore builds the configured storage backend.
func NewBlobStore(cfg config.Storage, logger log.Logger) (services.BlobStore, func(), error) {
	switch cfg.Driver {
	case "gcs":
		ctx := context.Background()
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("create gcs client: %w", err)
		}
		cleanup := func() { _ = client.Close() }
		return NewGCSStore(client, cfg.Bucket, logger), cleanup, nil
	case "local":
		return NewLocalStore(cfg.LocalDir), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
