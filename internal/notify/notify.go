// Package notify fans job status changes out to observers. Publishing is
// fire and forget: callers log a failed publish and carry on.
package notify

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

type Notifier interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// RedisNotifier publishes JSON payloads on a Redis pub/sub channel per
// topic.
type RedisNotifier struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisNotifier(rdb *redis.Client, prefix string) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, prefix: prefix}
}

var _ Notifier = (*RedisNotifier)(nil)

func (n *RedisNotifier) Publish(ctx context.Context, topic string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encode notification")
	}
	if err := n.rdb.Publish(ctx, Channel(n.prefix, topic), b).Err(); err != nil {
		return errors.Wrapf(err, "publish to %s", topic)
	}
	return nil
}

// Channel is the Redis channel a topic is published on.
func Channel(prefix, topic string) string {
	if prefix == "" {
		return topic
	}
	return prefix + ":" + topic
}

// HubNotifier broadcasts straight to an in-process hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

var _ Notifier = (*HubNotifier)(nil)

func (n *HubNotifier) Publish(_ context.Context, _ string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encode notification")
	}
	n.hub.Broadcast(b)
	return nil
}
