// Package jwt issues and verifies the gateway's own session tokens.
//
// Access and refresh tokens are HS256 JWTs signed with two different keys,
// both derived from the configured secret with HKDF. The kind is also stored
// in the "typ" claim, so a refresh token never verifies as an access token
// and vice versa.
package jwt

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/sync/errgroup"
)

// Kind distinguishes access from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"

	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour

	TokenTypeBearer = "Bearer"

	keyLen = 32
)

// ErrInvalidToken covers every verification failure: bad signature, expiry,
// wrong kind, malformed input.
var ErrInvalidToken = errors.New("jwt: invalid session token")

type Config struct {
	Secret     string
	Issuer     string // optional "iss"
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Subject is who a session token is issued for.
type Subject struct {
	UserID   string
	Email    string
	Provider string
}

// Claims is the session token payload.
type Claims struct {
	Email    string `json:"email,omitempty"`
	Provider string `json:"provider"`
	Kind     Kind   `json:"typ"`
	jwtv5.RegisteredClaims
}

// TokenPair is what clients receive after a login or refresh.
type TokenPair struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	ExpiresIn        int    `json:"expiresIn"`
	RefreshExpiresIn int    `json:"refreshExpiresIn"`
	TokenType        string `json:"tokenType"`
}

type Issuer struct {
	iss        string
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt: secret is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	ak, err := deriveKey(cfg.Secret, KindAccess)
	if err != nil {
		return nil, err
	}
	rk, err := deriveKey(cfg.Secret, KindRefresh)
	if err != nil {
		return nil, err
	}
	return &Issuer{
		iss:        cfg.Issuer,
		accessKey:  ak,
		refreshKey: rk,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

func deriveKey(secret string, kind Kind) ([]byte, error) {
	out := make([]byte, keyLen)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("socialgate session "+string(kind)))
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("jwt: derive %s key: %w", kind, err)
	}
	return out, nil
}

func (i *Issuer) key(kind Kind) ([]byte, time.Duration, error) {
	switch kind {
	case KindAccess:
		return i.accessKey, i.accessTTL, nil
	case KindRefresh:
		return i.refreshKey, i.refreshTTL, nil
	}
	return nil, 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidToken, kind)
}

// AccessTTL is the lifetime of access tokens.
func (i *Issuer) AccessTTL() time.Duration { return i.accessTTL }

// Issue signs a single token of the given kind.
func (i *Issuer) Issue(kind Kind, sub Subject) (string, error) {
	if sub.UserID == "" {
		return "", errors.New("jwt: subject is required")
	}
	key, ttl, err := i.key(kind)
	if err != nil {
		return "", err
	}
	now := i.now()
	claims := Claims{
		Email:    sub.Email,
		Provider: sub.Provider,
		Kind:     kind,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    i.iss,
			Subject:   sub.UserID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"
	return tk.SignedString(key)
}

// IssuePair signs the access and refresh tokens concurrently.
func (i *Issuer) IssuePair(ctx context.Context, sub Subject) (*TokenPair, error) {
	pair := &TokenPair{
		ExpiresIn:        int(i.accessTTL.Seconds()),
		RefreshExpiresIn: int(i.refreshTTL.Seconds()),
		TokenType:        TokenTypeBearer,
	}
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		pair.AccessToken, err = i.Issue(KindAccess, sub)
		return err
	})
	g.Go(func() (err error) {
		pair.RefreshToken, err = i.Issue(KindRefresh, sub)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pair, nil
}

// Verify checks signature, expiry and kind. Any failure is ErrInvalidToken.
func (i *Issuer) Verify(token string, kind Kind) (*Claims, error) {
	key, _, err := i.key(kind)
	if err != nil {
		return nil, err
	}
	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(i.now),
	}
	if i.iss != "" {
		opts = append(opts, jwtv5.WithIssuer(i.iss))
	}
	claims := &Claims{}
	if _, err := jwtv5.ParseWithClaims(token, claims, func(*jwtv5.Token) (any, error) {
		return key, nil
	}, opts...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, kind, claims.Kind)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
