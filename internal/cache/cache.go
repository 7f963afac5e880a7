// Package cache provides the short-lived key/value storage used for CSRF
// state and rate limiting.
//
// Backends:
//   - memory (go-cache, single process)
//   - redis  (shared across replicas)
package cache

import (
	"context"
	"errors"
	"time"
)

// Client is the cache contract.
type Client interface {
	// Get returns ErrNotFound when the key is missing or expired.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value. A zero ttl never expires.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Take returns the value and deletes it atomically. Single-use tokens
	// (CSRF state) rely on two concurrent Takes never both succeeding.
	Take(ctx context.Context, key string) (string, error)

	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error

	Close() error
}

type Config struct {
	Driver   string // "memory" | "redis"
	Addr     string
	Password string
	DB       int
	Prefix   string
}

var ErrNotFound = errors.New("cache: key not found")

// IsNotFound reports whether err means the key does not exist.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// New builds a client for cfg.Driver. Unknown drivers fall back to memory.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Driver {
	case "redis":
		return NewRedis(ctx, cfg)
	default:
		return NewMemory(cfg.Prefix), nil
	}
}

func prefixed(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + ":" + k
}
