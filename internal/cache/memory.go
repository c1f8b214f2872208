package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryClient implementa Client in-process con patrickmn/go-cache.
type memoryClient struct {
	c *gocache.Cache
	// go-cache no tiene un incr atómico sobre keys inexistentes; serializamos.
	mu sync.Mutex
}

func newMemory(defaultTTL time.Duration) *memoryClient {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &memoryClient{c: gocache.New(defaultTTL, time.Minute)}
}

func (m *memoryClient) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", ErrNotFound
	}
	s, _ := v.(string)
	return s, nil
}

func (m *memoryClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.c.Set(key, value, ttl)
	return nil
}

func (m *memoryClient) Delete(ctx context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

func (m *memoryClient) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.c.Get(key); !ok {
		m.c.Set(key, int64(1), ttl)
		return 1, nil
	}
	n, err := m.c.IncrementInt64(key, 1)
	if err != nil {
		// la key expiró entre el Get y el Increment
		m.c.Set(key, int64(1), ttl)
		return 1, nil
	}
	return n, nil
}

func (m *memoryClient) Ping(ctx context.Context) error { return nil }
func (m *memoryClient) Close() error                   { return nil }
