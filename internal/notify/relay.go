package notify

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Relay forwards messages from a Redis pub/sub channel into a Hub, so
// status changes published by workers reach the api's websocket clients.
type Relay struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
	logger  *zap.SugaredLogger
}

func NewRelay(rdb *redis.Client, channel string, hub *Hub, logger *zap.SugaredLogger) *Relay {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Relay{rdb: rdb, channel: channel, hub: hub, logger: logger}
}

// Run subscribes and relays until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.logger.Infow("relaying job status", "channel", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.hub.Broadcast([]byte(msg.Payload))
		}
	}
}
