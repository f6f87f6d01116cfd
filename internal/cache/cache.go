package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aeo-labs/aeo-search/internal/search"
)

const keyPrefix = "aeo:search:"

// ResponseCache stores whole search responses in Redis keyed by query.
// Every operation is best-effort: Redis being down degrades to cache
// misses, never to request errors.
type ResponseCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New connects to Redis using a URL (redis://host:port/db). The connection
// is verified with a ping so a misconfigured cache is caught at startup.
func New(url string, ttl time.Duration, logger *zap.Logger) (*ResponseCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}

	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	return &ResponseCache{rdb: rdb, ttl: ttl, logger: logger}, nil
}

// NewWithClient wraps an existing Redis client. Used by tests.
func NewWithClient(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *ResponseCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	return &ResponseCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Get returns the cached response for a query, or (nil, false) on a miss
// or any Redis failure.
func (c *ResponseCache) Get(ctx context.Context, query string) (*search.Response, bool) {
	payload, err := c.rdb.Get(ctx, cacheKey(query)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Response cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var resp search.Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", zap.Error(err))
		return nil, false
	}
	return &resp, true
}

// Set stores a response with the configured TTL. Failures are logged and
// swallowed.
func (c *ResponseCache) Set(ctx context.Context, query string, resp *search.Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		c.logger.Warn("Failed to encode response for cache", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(query), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("Response cache write failed", zap.Error(err))
	}
}

// Ping checks cache connectivity.
func (c *ResponseCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (c *ResponseCache) Close() error {
	return c.rdb.Close()
}

// cacheKey hashes the normalized query so arbitrary user input never
// appears verbatim in key space.
func cacheKey(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return keyPrefix + hex.EncodeToString(sum[:])
}
