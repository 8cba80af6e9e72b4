package pubsub

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// ChannelMarketBroadcast é o canal Pub/Sub consumido pelo market-view-service
const ChannelMarketBroadcast = "market_updates_broadcast"

// Tipos de update enviados ao WebSocket
const (
	KindSnapshot   = "snapshot"
	KindSettlement = "settlement"
)

// WSUpdate é o envelope enviado ao canal de broadcast
type WSUpdate struct {
	ExternalID int64  `json:"external_id"`
	Kind       string `json:"kind"`
	Payload    any    `json:"payload"`
}

// RedisBroadcaster publica updates no Redis Pub/Sub
type RedisBroadcaster struct {
	Client *redis.Client
}

func NewRedisBroadcaster(c *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{Client: c}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.Client.Publish(ctx, channel, payload).Err()
}
