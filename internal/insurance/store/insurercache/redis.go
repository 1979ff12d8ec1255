// Package insurercache caches authorized-insurer flags in Redis so the
// per-operation role check does not hit the ledger store on the hot path.
// The ledger store stays authoritative: mutations write through, and the TTL
// bounds staleness against out-of-band changes.
package insurercache

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	id "coverbook/pkg/domain"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coverbook_insurer_cache_hits_total",
		Help: "Insurer flag lookups served from Redis",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coverbook_insurer_cache_misses_total",
		Help: "Insurer flag lookups that fell through to the ledger store",
	})
)

const keyPrefix = "insurer:authorized:"

// RedisCache is a write-through cache of insurer authorization flags.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached flag. The second result reports whether the key was
// present; on a miss callers consult the ledger store and Set the result.
func (c *RedisCache) Get(ctx context.Context, insurer id.Principal) (authorized bool, found bool, err error) {
	val, err := c.client.Get(ctx, keyPrefix+insurer.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			cacheMisses.Inc()
			return false, false, nil
		}
		return false, false, err
	}
	cacheHits.Inc()
	return val == "1", true, nil
}

// Set records the flag with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, insurer id.Principal, authorized bool) error {
	val := "0"
	if authorized {
		val = "1"
	}
	return c.client.Set(ctx, keyPrefix+insurer.String(), val, c.ttl).Err()
}
