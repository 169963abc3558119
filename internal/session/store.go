package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nimasrn/campaign-console/pkg/logger"
	"github.com/nimasrn/campaign-console/pkg/redis"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*Context
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]*Context)}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.data[id]; ok {
		return c.Clone(), nil
	}
	return New(id), nil
}

func (s *MemoryStore) Save(_ context.Context, c *Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[c.ID] = c.Clone()
	return nil
}

// RedisStore keeps each context as a JSON document under session:<id>, with
// the TTL refreshed on every save.
type RedisStore struct {
	redis redis.RedisAdapter
	ttl   time.Duration
	now   func() time.Time
}

func NewRedisStore(adapter redis.RedisAdapter, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: adapter, ttl: ttl, now: time.Now}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Context, error) {
	raw, err := s.redis.Get(ctx, sessionKey(id))
	if errors.Is(err, redis.NilError) {
		return New(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	c := New(id)
	if err := json.Unmarshal(raw, c); err != nil {
		logger.Warn("discarding unreadable session", "session_id", id, "error", err)
		return New(id), nil
	}
	c.ID = id
	return c, nil
}

func (s *RedisStore) Save(ctx context.Context, c *Context) error {
	c.UpdatedAt = s.now().UTC()
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", c.ID, err)
	}
	if err := s.redis.Set(ctx, sessionKey(c.ID), raw, s.ttl); err != nil {
		return fmt.Errorf("failed to save session %s: %w", c.ID, err)
	}
	return nil
}
