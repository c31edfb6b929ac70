package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/payables/backend/internal/domain/shared"
)

// RedisLockStore implements LockStore using Redis. Suitable for distributed
// deployments where multiple instances must agree on lock ownership.
type RedisLockStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisLockStore creates a new Redis-based lock store
func NewRedisLockStore(cfg RedisConfig) (*RedisLockStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisLockStore{
		client:    client,
		keyPrefix: "payables:lock:",
	}, nil
}

// NewRedisLockStoreWithClient creates a store with an existing Redis client.
// Useful for testing or when sharing a client across components.
func NewRedisLockStoreWithClient(client *redis.Client, keyPrefix string) *RedisLockStore {
	if keyPrefix == "" {
		keyPrefix = "payables:lock:"
	}
	return &RedisLockStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Acquire attempts to take the lock with a TTL. Returns true if the lock was
// newly acquired. SETNX makes the check-and-set atomic, so two instances
// cannot both win.
func (s *RedisLockStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return acquired, nil
}

// Release frees the lock
func (s *RedisLockStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisLockStore) Close() error {
	return s.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (s *RedisLockStore) GetClient() *redis.Client {
	return s.client
}

// Ensure RedisLockStore implements LockStore
var _ shared.LockStore = (*RedisLockStore)(nil)
