package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClients splits Redis by role. Cache lookups sit on the /ask path
// and must fail fast; the pub/sub client carries one long-lived
// subscription per watched session plus transcript publishes.
type RedisClients struct {
	Cache  *redis.Client
	PubSub *redis.Client
}

func NewRedisClients(ctx context.Context, redisURL string) (*RedisClients, error) {
	base, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	clients := &RedisClients{
		Cache:  redis.NewClient(cacheOptions(base)),
		PubSub: redis.NewClient(pubsubOptions(base)),
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	for role, c := range map[string]*redis.Client{"cache": clients.Cache, "pubsub": clients.PubSub} {
		if err := c.Ping(ctx).Err(); err != nil {
			clients.Close()
			return nil, fmt.Errorf("failed to ping Redis (%s): %w", role, err)
		}
	}
	return clients, nil
}

// A slow cache is treated as a miss, so give up quickly and retry once.
func cacheOptions(base *redis.Options) *redis.Options {
	opt := *base
	opt.ClientName = "samarth-answer-cache"
	opt.DialTimeout = 2 * time.Second
	opt.ReadTimeout = 500 * time.Millisecond
	opt.WriteTimeout = 500 * time.Millisecond
	opt.MaxRetries = 1
	return &opt
}

// Publishes run under the transcript listener's deadline.
func pubsubOptions(base *redis.Options) *redis.Options {
	opt := *base
	opt.ClientName = "samarth-transcript-pubsub"
	opt.ContextTimeoutEnabled = true
	return &opt
}

func (r *RedisClients) Close() {
	r.Cache.Close()
	r.PubSub.Close()
}
