package journal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultChannel carries every resolved plan entry.
const DefaultChannel = "plans:resolved"

// Publisher forwards entries to Redis Pub/Sub, on the shared channel and on a
// per-owner channel.
type Publisher struct {
	client  *redis.Client
	channel string
	logger  *logrus.Logger
}

// NewPublisher creates a Redis Pub/Sub publisher.
func NewPublisher(client *redis.Client, logger *logrus.Logger) (*Publisher, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Publisher{client: client, channel: DefaultChannel, logger: logger}, nil
}

func ownerChannel(owner string) string {
	return DefaultChannel + ":owner:" + owner
}

func (p *Publisher) Write(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	pipe := p.client.Pipeline()
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		pipe.Publish(ctx, p.channel, data)
		pipe.Publish(ctx, ownerChannel(e.Owner), data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish entries: %w", err)
	}
	return nil
}

// Subscribe delivers entries from the shared channel, or from one owner's
// channel when owner is set, until ctx is done.
func (p *Publisher) Subscribe(ctx context.Context, owner string, handler func(Entry)) error {
	channel := p.channel
	if owner != "" {
		channel = ownerChannel(owner)
	}

	sub := p.client.Subscribe(ctx, channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	p.logger.WithField("channel", channel).Info("subscribed to plan events")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var e Entry
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				p.logger.WithError(err).Warn("skipping malformed plan event")
				continue
			}
			handler(e)
		}
	}
}

// Close is a no-op; the Redis client is owned by the caller.
func (p *Publisher) Close() error {
	return nil
}
