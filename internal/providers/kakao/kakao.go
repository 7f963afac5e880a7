// Package kakao implements the Kakao Login strategy.
package kakao

import (
	"context"

	"github.com/dropDatabas3/socialgate/internal/providers"
	"github.com/dropDatabas3/socialgate/internal/providers/oauthx"
)

const (
	DefaultAuthURL     = "https://kauth.kakao.com/oauth/authorize"
	DefaultTokenURL    = "https://kauth.kakao.com/oauth/token"
	DefaultUserInfoURL = "https://kapi.kakao.com/v2/user/me"
	DefaultValidateURL = "https://kapi.kakao.com/v1/user/access_token_info"
)

// Config holds the Kakao app registration. Endpoint fields fall back to the
// production URLs when empty.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	AuthURL     string
	TokenURL    string
	UserInfoURL string
	ValidateURL string
}

type Strategy struct {
	client      *oauthx.Client
	userInfoURL string
	validateURL string
}

var _ providers.Strategy = (*Strategy)(nil)

func New(cfg Config, opts ...oauthx.Option) *Strategy {
	return &Strategy{
		client: oauthx.New(oauthx.Config{
			Provider:     providers.Kakao,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			AuthURL:      oauthx.OrDefault(cfg.AuthURL, DefaultAuthURL),
			TokenURL:     oauthx.OrDefault(cfg.TokenURL, DefaultTokenURL),
			Scopes:       cfg.Scopes,
			ScopeSep:     ",",
		}, opts...),
		userInfoURL: oauthx.OrDefault(cfg.UserInfoURL, DefaultUserInfoURL),
		validateURL: oauthx.OrDefault(cfg.ValidateURL, DefaultValidateURL),
	}
}

func (s *Strategy) Name() providers.Provider { return providers.Kakao }

func (s *Strategy) AuthURL(state string) string { return s.client.AuthURL(state, nil) }

func (s *Strategy) Exchange(ctx context.Context, code string) (*providers.TokenSet, error) {
	return s.client.Exchange(ctx, code)
}

// Profile calls /v2/user/me with the access token.
func (s *Strategy) Profile(ctx context.Context, tokens *providers.TokenSet) (*providers.Profile, error) {
	body, err := s.client.GetJSON(ctx, "profile", s.userInfoURL, tokens.AccessToken)
	if err != nil {
		return nil, err
	}
	return providers.Normalize(providers.Kakao, body)
}

func (s *Strategy) Refresh(ctx context.Context, refreshToken string) (*providers.TokenSet, error) {
	return s.client.Refresh(ctx, refreshToken)
}

// Validate asks access_token_info; any non-2xx means the token is dead.
func (s *Strategy) Validate(ctx context.Context, accessToken string) bool {
	if accessToken == "" {
		return false
	}
	_, err := s.client.GetJSON(ctx, "validate", s.validateURL, accessToken)
	return err == nil
}
