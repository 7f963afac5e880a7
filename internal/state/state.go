// Package state issues and consumes OAuth CSRF state values.
//
// A state is bound to the provider it was issued for, lives for a short TTL
// and can be consumed exactly once. Only a hash of the state is used as the
// cache key.
package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/socialgate/internal/cache"
	"github.com/dropDatabas3/socialgate/internal/providers"
	tokens "github.com/dropDatabas3/socialgate/internal/security/token"
)

const DefaultTTL = 10 * time.Minute

var (
	// ErrInvalidState means the state is unknown, expired, already used or
	// was issued for another provider.
	ErrInvalidState = errors.New("state: invalid or expired")
)

type Store struct {
	cache cache.Client
	ttl   time.Duration
}

func NewStore(c cache.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{cache: c, ttl: ttl}
}

func key(state string) string { return "oauth_state:" + tokens.SHA256Base64URL(state) }

// Save records state for provider.
func (s *Store) Save(ctx context.Context, p providers.Provider, state string) error {
	if state == "" {
		return fmt.Errorf("%w: empty", ErrInvalidState)
	}
	return s.cache.Set(ctx, key(state), string(p), s.ttl)
}

// Consume checks and burns state.
func (s *Store) Consume(ctx context.Context, p providers.Provider, state string) error {
	if state == "" {
		return fmt.Errorf("%w: empty", ErrInvalidState)
	}
	got, err := s.cache.Take(ctx, key(state))
	if err != nil {
		if cache.IsNotFound(err) {
			return ErrInvalidState
		}
		return err
	}
	if got != string(p) {
		return fmt.Errorf("%w: issued for %s", ErrInvalidState, got)
	}
	return nil
}
