package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"itinera/pkg/store"
)

// Cacher defines the caching interface.
// A miss and a backend failure look the same to readers; failures are logged.
type Cacher interface {
	GetCache(ctx context.Context, key string) ([]byte, bool)
	SetCache(ctx context.Context, key string, val []byte, ttl time.Duration) error
	DeleteCache(ctx context.Context, key string) error
}

// SQLiteCache implements Cacher on top of the store's cache table.
type SQLiteCache struct {
	st store.CacheStore
}

// NewSQLiteCache creates a new cache.
func NewSQLiteCache(st store.CacheStore) *SQLiteCache {
	return &SQLiteCache{st: st}
}

func (c *SQLiteCache) GetCache(ctx context.Context, key string) ([]byte, bool) {
	return c.st.GetCache(ctx, key)
}

func (c *SQLiteCache) SetCache(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return c.st.SetCache(ctx, key, val, ttl)
}

func (c *SQLiteCache) DeleteCache(ctx context.Context, key string) error {
	return c.st.DeleteCache(ctx, key)
}

// RedisCache implements Cacher with a redis server.
type RedisCache struct {
	rdb    redis.Cmdable
	prefix string
}

// NewRedisCache creates a cache on an existing client. Keys are namespaced with prefix.
func NewRedisCache(rdb redis.Cmdable, prefix string) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: prefix}
}

// DialRedis opens a client and verifies the connection.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func (c *RedisCache) GetCache(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("Cache: redis get failed", "key", key, "error", err)
		return nil, false
	}
	return val, true
}

// SetCache stores val. A zero ttl keeps the key until it is deleted.
func (c *RedisCache) SetCache(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.prefix+key, val, ttl).Err()
}

func (c *RedisCache) DeleteCache(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, c.prefix+key).Err()
}

// Noop never hits. Used when caching is disabled.
type Noop struct{}

func (Noop) GetCache(context.Context, string) ([]byte, bool) { return nil, false }

func (Noop) SetCache(context.Context, string, []byte, time.Duration) error { return nil }

func (Noop) DeleteCache(context.Context, string) error { return nil }
