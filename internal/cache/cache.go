package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/opencommune/mairie-api/internal/config"
	"github.com/opencommune/mairie-api/internal/models"
)

const publicStatusKeyPrefix = "mairie:public-status:"

// PublicStatusCache caches the public tracking-code lookup in Redis. The
// cache is optional: with a nil client every lookup is a miss and every
// write a no-op, so callers never branch on whether Redis is configured.
type PublicStatusCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewPublicStatusCache creates the cache around an optional Redis client
func NewPublicStatusCache(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *PublicStatusCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &PublicStatusCache{client: client, ttl: ttl, logger: logger}
}

// NewRedisClient connects to Redis using the service configuration. Returns
// nil when Redis is disabled or unreachable; the service then runs without
// caching.
func NewRedisClient(cfg *config.RedisConfig, logger *logrus.Logger) *redis.Client {
	if !cfg.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("Redis unreachable, public status cache disabled")
		return nil
	}

	logger.WithField("addr", cfg.Addr).Info("Public status cache connected")
	return client
}

// Get returns the cached payload for a reference code, or (nil, false) on a
// miss. Redis errors are treated as misses.
func (c *PublicStatusCache) Get(ctx context.Context, referenceCode string) (*models.DoleancePublicStatus, bool) {
	if c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, publicStatusKeyPrefix+referenceCode).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Debug("Public status cache read failed")
		}
		return nil, false
	}

	var status models.DoleancePublicStatus
	if err := json.Unmarshal(data, &status); err != nil {
		c.logger.WithError(err).Warn("Discarding malformed public status cache entry")
		return nil, false
	}

	return &status, true
}

// Set stores a payload under its reference code with the configured TTL
func (c *PublicStatusCache) Set(ctx context.Context, status *models.DoleancePublicStatus) {
	if c.client == nil || status == nil {
		return
	}

	data, err := json.Marshal(status)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to marshal public status for cache")
		return
	}

	if err := c.client.Set(ctx, publicStatusKeyPrefix+status.ReferenceCode, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Debug("Public status cache write failed")
	}
}

// Invalidate drops the cached payload for a reference code. Called after
// any committed update so the public view never serves a stale status past
// the TTL semantics.
func (c *PublicStatusCache) Invalidate(ctx context.Context, referenceCode string) {
	if c.client == nil {
		return
	}

	if err := c.client.Del(ctx, publicStatusKeyPrefix+referenceCode).Err(); err != nil {
		c.logger.WithError(err).Debug(fmt.Sprintf("Failed to invalidate public status cache for %s", referenceCode))
	}
}
