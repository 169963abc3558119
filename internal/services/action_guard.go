package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/campaign-console/pkg/logger"
	"github.com/nimasrn/campaign-console/pkg/redis"
)

// ActionGuard de-duplicates operator actions that are still in flight.
type ActionGuard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type ActionGuardConfig struct {
	LockTTL       time.Duration
	LockKeyPrefix string
}

func DefaultActionGuardConfig() ActionGuardConfig {
	return ActionGuardConfig{
		LockTTL:       30 * time.Second,
		LockKeyPrefix: "action-lock:",
	}
}

// RedisActionGuard holds a SET NX lock per action key for the duration of
// the remote call. Only the owner token can release it; the TTL frees locks
// of crashed consoles.
type RedisActionGuard struct {
	redis  redis.RedisAdapter
	config ActionGuardConfig
}

func NewRedisActionGuard(adapter redis.RedisAdapter, config ActionGuardConfig) *RedisActionGuard {
	if config.LockTTL <= 0 {
		config.LockTTL = DefaultActionGuardConfig().LockTTL
	}
	return &RedisActionGuard{redis: adapter, config: config}
}

func (g *RedisActionGuard) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := g.config.LockKeyPrefix + key
	token := []byte(uuid.NewString())

	acquired, err := g.redis.SetNX(ctx, lockKey, token, g.config.LockTTL)
	if err != nil {
		// fail open: the API still rejects illegal transitions
		logger.Warn("failed to acquire action lock", "key", key, "error", err)
		return func() {}, nil
	}
	if !acquired {
		logger.Info("action lock already held", "key", key)
		return nil, ErrActionInFlight
	}

	logger.Debug("action lock acquired", "key", key, "lock_ttl", g.config.LockTTL)
	return func() {
		// released with a fresh context so a cancelled request still unlocks
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := g.redis.DelIfEquals(ctx, lockKey, token); err != nil {
			logger.Warn("failed to release action lock", "key", key, "error", err)
		}
	}, nil
}
