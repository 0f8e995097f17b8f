package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ikoiii/booking-futsal/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	revokedKeyPrefix   = "session:revoked:"
	rateLimitKeyPrefix = "session:attempts:"
)

// RedisSessionStore keeps revoked token ids and attempt counters in Redis.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisClient builds a Redis client from config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (r *RedisSessionStore) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token in redis: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	err := r.client.Get(ctx, revokedKeyPrefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token in redis: %w", err)
	}
	return true, nil
}

// CheckRateLimit counts one attempt for key and reports whether it is within limit.
// The window starts at the first attempt.
func (r *RedisSessionStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	k := rateLimitKeyPrefix + key
	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, k, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}
	return count <= int64(limit), nil
}

func (r *RedisSessionStore) ResetRateLimit(ctx context.Context, key string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, rateLimitKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the client if there is one.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
