package notify

import (
	"context"
	"fmt"

	"github.com/oshiworks/streamvault/internal/infrastructure/config"
	"github.com/oshiworks/streamvault/internal/services"

	"cloud.google.com/go/pubsub"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// ProviderSet wires the event publisher.
var ProviderSet = wire.NewSet(NewEventPublisher)

// NewEventPublisher builds the configured publisher, or a no-op one when
// notification fan-out is disabled.
func NewEventPublisher(cfg config.Notify, logger log.Logger) (services.EventPublisher, func(), error) {
	if !cfg.Enabled {
		return NopPublisher{}, func() {}, nil
	}

	ctx := context.Background()
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("create pubsub client: %w", err)
	}
	topic := client.Topic(cfg.Topic)
	cleanup := func() {
		topic.Stop()
		_ = client.Close()
	}
	return NewPublisher(topic, logger), cleanup, nil
}
