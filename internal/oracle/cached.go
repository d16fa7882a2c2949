package oracle

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKey = "carefund:oracle:price"

// Cached decorates a PriceSource with a Redis cache so bursts of donations
// do not hammer the upstream feed. A cache failure falls through to the
// source; the cache is an optimization, never an authority.
type Cached struct {
	source PriceSource
	client *redis.Client
	ttl    time.Duration
}

func NewCached(source PriceSource, client *redis.Client, ttl time.Duration) *Cached {
	return &Cached{source: source, client: client, ttl: ttl}
}

func (c *Cached) GetLatestPrice(ctx context.Context) (*big.Int, uint8, error) {
	if raw, err := c.client.Get(ctx, cacheKey).Result(); err == nil {
		if price, decimals, ok := decode(raw); ok {
			return price, decimals, nil
		}
	}

	price, decimals, err := c.source.GetLatestPrice(ctx)
	if err != nil {
		return nil, 0, err
	}

	_ = c.client.Set(ctx, cacheKey, encode(price, decimals), c.ttl).Err()
	return price, decimals, nil
}

func encode(price *big.Int, decimals uint8) string {
	return fmt.Sprintf("%s|%d", price.String(), decimals)
}

func decode(raw string) (*big.Int, uint8, bool) {
	parts := strings.SplitN(raw, "|", 2)
	if len(parts) != 2 {
		return nil, 0, false
	}
	price, ok := new(big.Int).SetString(parts[0], 10)
	if !ok {
		return nil, 0, false
	}
	decimals, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return nil, 0, false
	}
	return price, uint8(decimals), true
}
