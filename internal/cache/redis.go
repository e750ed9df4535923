package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces keys so Clear never touches foreign data.
const DefaultRedisPrefix = "artlens:"

// RedisStore keeps cached payloads in Redis with a per-key expiry.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. An empty prefix uses DefaultRedisPrefix.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// Get returns the payload stored under key. Errors other than a missing key
// are logged and reported as a miss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	if Disabled() {
		return nil, false
	}
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Debug("redis cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

// Put stores data under key with the store's TTL.
func (s *RedisStore) Put(ctx context.Context, key string, data []byte) {
	if Disabled() {
		return
	}
	if err := s.client.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		slog.Debug("redis cache put failed", "key", key, "error", err)
	}
}

// Clear deletes every key under the store's prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
