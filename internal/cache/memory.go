package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is a go-cache backed Client for single-instance deployments and tests.
type Memory struct {
	prefix string
	c      *gocache.Cache
	// mu serializes Take; go-cache has no get-and-delete primitive.
	mu sync.Mutex
}

func NewMemory(prefix string) *Memory {
	return &Memory{prefix: prefix, c: gocache.New(gocache.NoExpiration, time.Minute)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	v, ok := m.c.Get(prefixed(m.prefix, key))
	if !ok {
		return "", ErrNotFound
	}
	return v.(string), nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.c.Set(prefixed(m.prefix, key), value, ttl)
	return nil
}

func (m *Memory) Take(_ context.Context, key string) (string, error) {
	k := prefixed(m.prefix, key)
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.c.Get(k)
	if !ok {
		return "", ErrNotFound
	}
	m.c.Delete(k)
	return v.(string), nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Delete(prefixed(m.prefix, key))
	return nil
}

// Incr adds one to a counter, creating it with ttl. Used by the in-memory rate limiter.
func (m *Memory) Incr(key string, ttl time.Duration) (int64, time.Duration) {
	k := prefixed(m.prefix, key)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exp, ok := m.c.GetWithExpiration(k); ok {
		n, err := m.c.IncrementInt64(k, 1)
		if err == nil {
			return n, time.Until(exp)
		}
	}
	m.c.Set(k, int64(1), ttl)
	return 1, ttl
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error {
	m.c.Flush()
	return nil
}
