package cache

import (
	"context"
	"errors"
	"time"

	"github.com/ZaguanLabs/polyglot"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultPrefix  = "polyglot:"
	connectTimeout = 5 * time.Second
	callTimeout    = 2 * time.Second
)

// RedisConfig configures a RedisCache.
type RedisConfig struct {
	URL       string      // e.g. "redis://localhost:6379/0"
	TTL       int         // Entry lifetime in seconds; 0 keeps entries until evicted
	KeyPrefix string      // Default "polyglot:"
	Logger    *zap.Logger // Default: no-op
}

// RedisCache shares results between clients of the same service through
// Redis. Redis failures never fail a job: a failed read is a miss and a
// failed write is returned as a *polyglot.CacheError for the caller to log.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewRedisCache connects to cfg.URL and checks the server answers.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, &polyglot.CacheError{Message: "invalid redis URL", Cause: err}
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, &polyglot.CacheError{Message: "redis unreachable", Cause: err}
	}

	c := NewRedisCacheFromClient(rdb, cfg.TTL, cfg.KeyPrefix)
	if cfg.Logger != nil {
		c.logger = cfg.Logger
	}
	return c, nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(rdb *redis.Client, ttlSeconds int, prefix string) *RedisCache {
	if prefix == "" {
		prefix = defaultPrefix
	}
	var ttl time.Duration
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	return &RedisCache{rdb: rdb, ttl: ttl, prefix: prefix, logger: zap.NewNop()}
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

// Get reads key. redis.Nil is a plain miss; other errors are logged.
func (c *RedisCache) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	val, err := c.rdb.Get(ctx, c.key(key)).Result()
	switch {
	case err == nil:
		return val, true
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("redis read failed", zap.String("key", key), zap.Error(err))
	}
	return "", false
}

// Set writes key with the configured TTL.
func (c *RedisCache) Set(key string, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	if err := c.rdb.Set(ctx, c.key(key), value, c.ttl).Err(); err != nil {
		return &polyglot.CacheError{Message: "redis write failed", Cause: err}
	}
	return nil
}

// Close releases the connection pool.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

var _ ResultCache = (*RedisCache)(nil)
