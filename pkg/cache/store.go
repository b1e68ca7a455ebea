package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

// Store is a byte-oriented key/value backend with expiry.
// Get returns ErrCacheMiss when the key is absent or expired.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// RedisStore stores entries in Redis.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{redis: redisClient}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := s.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps up to maxItems entries in a process-local LRU.
type MemoryStore struct {
	// mu makes Get's expiry check and Remove atomic with respect to Set,
	// so a fresh entry written between the two is never evicted.
	mu    sync.Mutex
	cache *lru.Cache[string, memoryItem]
	now   func() time.Time
}

// NewMemoryStore creates an in-memory store holding at most maxItems entries.
func NewMemoryStore(maxItems int) (*MemoryStore, error) {
	c, err := lru.New[string, memoryItem](maxItems)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{cache: c, now: time.Now}, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.cache.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	if s.now().After(item.expiresAt) {
		s.cache.Remove(key)
		return nil, ErrCacheMiss
	}
	return item.data, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Add(key, memoryItem{data: data, expiresAt: s.now().Add(ttl)})
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Remove(key)
	return nil
}

// Len returns the current number of items in the store.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cache.Len()
}
