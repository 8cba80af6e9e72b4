package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/sports-hub-poc/pkg/contracts/events"
)

// RedisCache mantém o snapshot corrente de cada mercado no Redis
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisCache cria o cache de mercados com TTL configurável
func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

// Key gera a chave Redis do snapshot corrente de um mercado
func Key(externalID int64) string {
	return "markets:current:" + strconv.FormatInt(externalID, 10)
}

// SetCurrent armazena o snapshot corrente de um mercado
func (r *RedisCache) SetCurrent(ctx context.Context, s events.MarketSnapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, Key(s.ExternalID), b, r.TTL).Err()
}

// Delete remove o snapshot de um mercado recolhido
func (r *RedisCache) Delete(ctx context.Context, externalID int64) error {
	return r.Client.Del(ctx, Key(externalID)).Err()
}
