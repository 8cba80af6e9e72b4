package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache lê os snapshots de mercado mantidos no Redis pelo projetor
type Cache struct{ R *redis.Client }

func New(r *redis.Client) *Cache { return &Cache{R: r} }

func keyMarket(externalID int64) string {
	return "markets:current:" + strconv.FormatInt(externalID, 10)
}

// GetMarket busca o snapshot corrente de um mercado; retorna false em cache miss
func (c *Cache) GetMarket(ctx context.Context, externalID int64, dst any) (bool, error) {
	b, err := c.R.Get(ctx, keyMarket(externalID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

// SetMarket grava um snapshot no cache após fallback ao banco
func (c *Cache) SetMarket(ctx context.Context, externalID int64, v any, ttl time.Duration) error {
	b, _ := json.Marshal(v)
	return c.R.Set(ctx, keyMarket(externalID), b, ttl).Err()
}
