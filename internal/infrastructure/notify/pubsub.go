// Package notify publishes live-stream events to Pub/Sub.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oshiworks/streamvault/internal/services"

	"cloud.google.com/go/pubsub"
	"github.com/go-kratos/kratos/v2/log"
)

// Publisher fans live events out on a Pub/Sub topic.
type Publisher struct {
	topic *pubsub.Topic
	log   *log.Helper
}

// NewPublisher builds the publisher over an existing topic handle.
func NewPublisher(topic *pubsub.Topic, logger log.Logger) *Publisher {
	return &Publisher{topic: topic, log: log.NewHelper(logger)}
}

// PublishLive publishes the event and waits for the server ack; dedupe
// already decided that this event must go out exactly once per window.
func (p *Publisher) PublishLive(ctx context.Context, ev services.LiveEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode live event: %w", err)
	}
	res := p.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"videoId":   ev.VideoID,
			"channelId": ev.ChannelID,
		},
	})
	id, err := res.Get(ctx)
	if err != nil {
		return fmt.Errorf("publish live event: %w", err)
	}
	p.log.Debugf("live event published: video=%s message=%s", ev.VideoID, id)
	return nil
}

// NopPublisher drops events; used when notification fan-out is disabled.
type NopPublisher struct{}

// PublishLive implements services.EventPublisher.
func (NopPublisher) PublishLive(context.Context, services.LiveEvent) error { return nil }
