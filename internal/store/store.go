// Package store defines the persistence contract of the gateway: users keyed
// by (provider, external id) and one provider token row per (user, provider).
//
// Implementations: memory (tests, local dev) and pg (PostgreSQL via pgx).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dropDatabas3/socialgate/internal/providers"
)

var (
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when a write would break a unique constraint,
	// typically an email already owned by another user.
	ErrConflict = errors.New("store: conflict")
)

// User is a gateway user. Each user is anchored to the provider identity it
// was created from.
type User struct {
	ID              string
	Provider        providers.Provider
	ProviderID      string
	Email           string
	Name            string
	Picture         string
	EmailVerifiedAt *time.Time
	RawProfile      json.RawMessage
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateUserInput carries the fields of a new user. ID is assigned by the caller.
type CreateUserInput struct {
	ID              string
	Provider        providers.Provider
	ProviderID      string
	Email           string
	Name            string
	Picture         string
	EmailVerifiedAt *time.Time
	RawProfile      json.RawMessage
}

// ProfileUpdate merges into an existing user. Empty fields are left untouched.
type ProfileUpdate struct {
	Email           string
	Name            string
	Picture         string
	EmailVerifiedAt *time.Time
	RawProfile      json.RawMessage
}

// Empty reports whether the update would change nothing.
func (u ProfileUpdate) Empty() bool {
	return u.Email == "" && u.Name == "" && u.Picture == "" && u.EmailVerifiedAt == nil && len(u.RawProfile) == 0
}

// ProviderToken is the latest token set a provider issued for a user.
type ProviderToken struct {
	UserID       string
	Provider     providers.Provider
	AccessToken  string
	RefreshToken string
	IDToken      string
	TokenType    string
	Scope        []string
	ExpiresAt    time.Time
	UpdatedAt    time.Time
}

// TokenSet converts the row back to the strategy-facing type.
func (t *ProviderToken) TokenSet(now time.Time) *providers.TokenSet {
	ts := &providers.TokenSet{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		IDToken:      t.IDToken,
		TokenType:    t.TokenType,
		Scope:        t.Scope,
	}
	if !t.ExpiresAt.IsZero() && t.ExpiresAt.After(now) {
		ts.ExpiresIn = int(t.ExpiresAt.Sub(now).Seconds())
	}
	return ts
}

// UserStore is everything the auth orchestrator needs from persistence.
type UserStore interface {
	FindUser(ctx context.Context, provider providers.Provider, externalID string) (*User, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*User, error)
	UpdateUserProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error)
	DeleteUser(ctx context.Context, id string) error

	UpsertProviderToken(ctx context.Context, tok ProviderToken) error
	FindProviderToken(ctx context.Context, userID string, provider providers.Provider) (*ProviderToken, error)
	DeleteProviderToken(ctx context.Context, userID string, provider providers.Provider) error

	Ping(ctx context.Context) error
	Close()
}
