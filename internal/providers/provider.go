// Package providers defines the identity-provider strategy contract.
//
// Every supported provider (Kakao, Naver, Apple, Google) is a Strategy living
// in its own sub-package. Strategies share the canonical TokenSet and Profile
// types defined here, and raw provider payloads are normalized with Normalize.
//
// Architecture:
//   - Strategy interface: authorization URL, code exchange, profile, refresh, validation
//   - Registry: immutable Provider -> Strategy lookup built once at startup
//   - Normalize: provider payload -> canonical Profile
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnsupportedProvider is returned for provider names outside the closed set,
	// or for providers that are known but not enabled.
	ErrUnsupportedProvider = errors.New("providers: unsupported provider")

	// ErrUpstreamAuth wraps every failure talking to an identity provider.
	ErrUpstreamAuth = errors.New("providers: upstream authentication failed")

	// ErrProfileValidation is returned when a provider profile lacks required fields.
	ErrProfileValidation = errors.New("providers: invalid profile")
)

// Provider identifies an identity provider. The wire form is lower-case.
type Provider string

const (
	Kakao  Provider = "kakao"
	Naver  Provider = "naver"
	Apple  Provider = "apple"
	Google Provider = "google"
)

// All lists the supported providers in display order.
var All = []Provider{Kakao, Naver, Apple, Google}

// Parse maps a case-insensitive name to a Provider.
func Parse(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, name)
	}
	return p, nil
}

// Valid reports whether p is one of the supported providers.
func (p Provider) Valid() bool {
	switch p {
	case Kakao, Naver, Apple, Google:
		return true
	}
	return false
}

func (p Provider) String() string { return string(p) }

// Strategy is the contract every identity provider implements.
//
// Implementations are immutable after construction and safe for concurrent use.
type Strategy interface {
	// Name returns the provider this strategy serves.
	Name() Provider

	// AuthURL builds the authorization redirect. An empty state is replaced by a
	// random one. The URL never contains the client secret.
	AuthURL(state string) string

	// Exchange trades an authorization code for provider tokens. Never retried.
	Exchange(ctx context.Context, code string) (*TokenSet, error)

	// Profile resolves the normalized profile for a token set.
	Profile(ctx context.Context, tokens *TokenSet) (*Profile, error)

	// Refresh obtains new provider tokens. A response without a refresh token
	// keeps refreshToken.
	Refresh(ctx context.Context, refreshToken string) (*TokenSet, error)

	// Validate reports whether the provider still accepts accessToken.
	Validate(ctx context.Context, accessToken string) bool
}

// TokenSet holds the tokens issued by an identity provider.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	TokenType    string
	ExpiresIn    int // seconds
	Scope        []string
}

// ExpiresAt converts ExpiresIn into an absolute instant relative to now.
func (t *TokenSet) ExpiresAt(now time.Time) time.Time {
	if t == nil || t.ExpiresIn <= 0 {
		return time.Time{}
	}
	return now.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// ScopeString joins Scope with single spaces.
func (t *TokenSet) ScopeString() string {
	if t == nil {
		return ""
	}
	return strings.Join(t.Scope, " ")
}

// SplitScope parses a space (or comma) delimited scope string, keeping order.
func SplitScope(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Profile is the canonical user profile shared by all providers.
// (Provider, ExternalID) is the natural key of an identity.
type Profile struct {
	Provider      Provider        `json:"provider"`
	ExternalID    string          `json:"externalId"`
	Email         string          `json:"email,omitempty"`
	EmailVerified *bool           `json:"emailVerified,omitempty"`
	DisplayName   string          `json:"displayName,omitempty"`
	PictureURL    string          `json:"pictureUrl,omitempty"`
	Raw           json.RawMessage `json:"raw,omitempty"`
}
