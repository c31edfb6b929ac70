package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/payables/backend/internal/domain/shared"
	"github.com/payables/backend/internal/infrastructure/config"
)

// LockStoreFactory creates lock stores based on configuration
type LockStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// LockStoreFactoryOption is a functional option for configuring the factory
type LockStoreFactoryOption func(*LockStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) LockStoreFactoryOption {
	return func(f *LockStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory store
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) LockStoreFactoryOption {
	return func(f *LockStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewLockStoreFactory creates a new factory
func NewLockStoreFactory(cfg config.RedisConfig, opts ...LockStoreFactoryOption) *LockStoreFactory {
	f := &LockStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisStore creates a Redis-based lock store
func (f *LockStoreFactory) CreateRedisStore() (shared.LockStore, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	store, err := NewRedisLockStore(redisCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis lock store: %w", err)
	}

	return store, nil
}

// CreateInMemoryStore creates an in-memory lock store.
// In-memory locks do not span process instances, so concurrent releases of
// the same disbursement on different instances would not be serialized.
func (f *LockStoreFactory) CreateInMemoryStore() shared.LockStore {
	return NewInMemoryLockStore()
}

// CreateStore creates a lock store based on whether Redis is available.
// It tries Redis first and falls back to in-memory when allowed.
func (f *LockStoreFactory) CreateStore() (shared.LockStore, error) {
	store, err := f.CreateRedisStore()
	if err == nil {
		f.logger.Info("using Redis lock store")
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for locking but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory lock store. "+
		"Concurrent releases on different instances will not be serialized.",
		zap.Error(err),
	)
	return f.CreateInMemoryStore(), nil
}
