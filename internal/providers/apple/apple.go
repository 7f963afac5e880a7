// Package apple implements Sign in with Apple.
//
// Apple differs from the other providers in three ways: the client secret is
// an ES256 assertion signed per request, the profile comes from the ID token
// rather than a userinfo endpoint, and tokens are validated against Apple's
// published JWKS.
package apple

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dropDatabas3/socialgate/internal/providers"
	"github.com/dropDatabas3/socialgate/internal/providers/oauthx"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

const (
	DefaultAuthURL  = "https://appleid.apple.com/auth/authorize"
	DefaultTokenURL = "https://appleid.apple.com/auth/token"
	DefaultKeysURL  = "https://appleid.apple.com/auth/keys"
)

// DefaultScopes are requested when the config sets none.
var DefaultScopes = []string{"name", "email"}

type Config struct {
	ClientID    string // Services ID
	TeamID      string
	KeyID       string
	PrivateKey  string // .p8 contents
	RedirectURI string
	Scopes      []string

	AuthURL  string
	TokenURL string
	KeysURL  string
	// Issuer overrides the expected ID token issuer (tests).
	Issuer string
	// KeysTTL bounds how long fetched JWKS keys are trusted. Default 1h.
	KeysTTL time.Duration
}

type Strategy struct {
	cfg    Config
	key    *ecdsa.PrivateKey
	client *oauthx.Client
	keys   *keySet
	issuer string
	now    func() time.Time
}

var _ providers.Strategy = (*Strategy)(nil)

// New fails when the private key cannot be parsed, so a misconfigured Apple
// client is caught at startup.
func New(cfg Config, opts ...oauthx.Option) (*Strategy, error) {
	if cfg.ClientID == "" || cfg.TeamID == "" || cfg.KeyID == "" {
		return nil, errors.New("apple: client_id, team_id and key_id are required")
	}
	key, err := parsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	if cfg.KeysTTL <= 0 {
		cfg.KeysTTL = time.Hour
	}

	s := &Strategy{
		cfg:    cfg,
		key:    key,
		issuer: oauthx.OrDefault(cfg.Issuer, Audience),
		now:    time.Now,
	}
	s.client = oauthx.New(oauthx.Config{
		Provider:    providers.Apple,
		ClientID:    cfg.ClientID,
		RedirectURL: cfg.RedirectURI,
		AuthURL:     oauthx.OrDefault(cfg.AuthURL, DefaultAuthURL),
		TokenURL:    oauthx.OrDefault(cfg.TokenURL, DefaultTokenURL),
		Scopes:      scopes,
	}, append(opts, oauthx.WithSecretFunc(s.clientAssertion))...)
	s.keys = newKeySet(oauthx.OrDefault(cfg.KeysURL, DefaultKeysURL), s.client, cfg.KeysTTL)
	return s, nil
}

func (s *Strategy) Name() providers.Provider { return providers.Apple }

// AuthURL requests form_post, which Apple requires when name or email scopes are asked.
func (s *Strategy) AuthURL(state string) string {
	return s.client.AuthURL(state, url.Values{"response_mode": {"form_post"}})
}

func (s *Strategy) Exchange(ctx context.Context, code string) (*providers.TokenSet, error) {
	return s.client.Exchange(ctx, code)
}

// Profile decodes the ID token returned by the token endpoint. The token came
// straight from Apple over TLS, so no network call is made here.
func (s *Strategy) Profile(_ context.Context, tokens *providers.TokenSet) (*providers.Profile, error) {
	if tokens == nil || tokens.IDToken == "" {
		return nil, fmt.Errorf("%w: apple: token response has no id_token", providers.ErrUpstreamAuth)
	}
	claims := jwtv5.MapClaims{}
	if _, _, err := jwtv5.NewParser().ParseUnverified(tokens.IDToken, claims); err != nil {
		return nil, fmt.Errorf("%w: apple: malformed id_token", providers.ErrUpstreamAuth)
	}
	raw, err := json.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("%w: apple: %v", providers.ErrUpstreamAuth, err)
	}
	return providers.Normalize(providers.Apple, raw)
}

func (s *Strategy) Refresh(ctx context.Context, refreshToken string) (*providers.TokenSet, error) {
	return s.client.Refresh(ctx, refreshToken)
}

// Validate verifies an Apple ID token: RS256 signature from the JWKS, issuer,
// audience (our client id) and expiry. Apple access tokens are opaque, so the
// ID token is what callers pass here.
func (s *Strategy) Validate(ctx context.Context, idToken string) bool {
	_, err := s.VerifyIDToken(ctx, idToken)
	return err == nil
}

// VerifyIDToken returns the verified claims of an Apple ID token.
func (s *Strategy) VerifyIDToken(ctx context.Context, idToken string) (jwtv5.MapClaims, error) {
	if idToken == "" {
		return nil, errors.New("apple: empty id_token")
	}
	claims := jwtv5.MapClaims{}
	_, err := jwtv5.ParseWithClaims(idToken, claims, func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return s.keys.key(ctx, kid)
	},
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodRS256.Alg()}),
		jwtv5.WithIssuer(s.issuer),
		jwtv5.WithAudience(s.cfg.ClientID),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(s.now),
		jwtv5.WithLeeway(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("apple: verify id_token: %w", err)
	}
	return claims, nil
}
