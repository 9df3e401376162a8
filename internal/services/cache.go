package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"samarth-chat/internal/models"
)

// RedisCache keeps answers in Redis for a fixed TTL.
type RedisCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{redis: redisClient, ttl: ttl, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, question string) (*models.AskResponse, bool) {
	raw, err := c.redis.Get(ctx, cacheKey(question)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("answer cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var resp models.AskResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (c *RedisCache) Set(ctx context.Context, question string, resp *models.AskResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, cacheKey(question), data, c.ttl).Err(); err != nil {
		c.logger.Warn("answer cache write failed", zap.Error(err))
	}
}

// cacheKey normalises case and whitespace so trivially different spellings
// of a question share an entry.
func cacheKey(question string) string {
	normalised := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	sum := sha256.Sum256([]byte(normalised))
	return "answer:" + hex.EncodeToString(sum[:])
}
