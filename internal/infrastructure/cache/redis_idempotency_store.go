package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wcpa/backend/internal/domain/shared"
)

// RedisIdempotencyStore implements shared.IdempotencyStore on Redis. It is
// the store to use when more than one instance serves traffic.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisIdempotencyStore creates a Redis-backed store and verifies the
// connection before returning.
func NewRedisIdempotencyStore(addr, password string, db int) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: "request:idempotency:",
	}, nil
}

// NewRedisIdempotencyStoreWithClient creates a store around an existing client
func NewRedisIdempotencyStoreWithClient(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = "request:idempotency:"
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed records an ID with a TTL using SETNX, so concurrent
// duplicates resolve to exactly one winner.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	result, err := s.client.SetNX(ctx, s.keyPrefix+id, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark request as processed: %w", err)
	}
	return result, nil
}

// IsProcessed reports whether an ID has already been recorded
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, id string) (bool, error) {
	exists, err := s.client.Exists(ctx, s.keyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check request: %w", err)
	}
	return exists > 0, nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
